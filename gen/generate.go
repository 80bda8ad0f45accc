package gen

import (
	"io"

	"github.com/jccardonar/sqlacodegen/schema"
)

// Generate runs the whole pipeline for one schema: relationship
// resolution, object model building and rendering. The generated
// module is written to w; on any error nothing is written.
func Generate(s *schema.Schema, ov *Overrides, w io.Writer, opts ...Option) error {
	cfg, err := NewConfig(opts...)
	if err != nil {
		return err
	}
	inf := NewInflector(!cfg.NoInflect)
	plan := &Plan{
		Junctions: make(map[string]*Junction),
		Parents:   make(map[string]string),
		ParentFK:  make(map[string]*schema.ForeignKey),
	}
	if !cfg.NoClasses {
		plan, err = Resolve(s, ov, cfg, inf)
		if err != nil {
			return err
		}
	}
	om, err := Build(s, plan, inf, ov, cfg)
	if err != nil {
		return err
	}
	return NewRenderer(cfg).Render(om, w)
}
