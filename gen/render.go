package gen

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/dave/jennifer/jen"
	"golang.org/x/tools/imports"

	"github.com/jccardonar/sqlacodegen/schema"
)

// Renderer emits the generated source module from an object model.
// Rendering is a pure function of the object model and configuration:
// identical input produces byte-identical output.
type Renderer struct {
	cfg *Config
}

// NewRenderer creates a Renderer for the given configuration.
func NewRenderer(cfg *Config) *Renderer {
	return &Renderer{cfg: cfg}
}

// Render writes the generated module to w. The file is composed with
// jennifer (which consolidates and deduplicates imports) and finished
// with a goimports pass so that verbatim patch fragments resolve their
// own imports.
func (r *Renderer) Render(om *ObjectModel, w io.Writer) error {
	f := jen.NewFile(om.Package)
	f.HeaderComment(om.Header)

	if om.Version != "" {
		f.Comment("SchemaVersion is the version marker read from the source database.")
		f.Const().Id("SchemaVersion").Op("=").Lit(om.Version)
		f.Line()
	}
	if len(om.Tables) > 0 {
		r.renderTables(f, om)
	} else {
		r.renderModels(f, om)
	}

	var buf bytes.Buffer
	if err := f.Render(&buf); err != nil {
		return fmt.Errorf("gen: render module: %w", err)
	}
	out, err := imports.Process(om.Package+".go", buf.Bytes(), nil)
	if err != nil {
		return fmt.Errorf("gen: format module: %w", err)
	}
	_, err = w.Write(out)
	return err
}

// renderTables emits the tables-only form: name constants per table,
// no structs.
func (r *Renderer) renderTables(f *jen.File, om *ObjectModel) {
	for _, def := range om.Tables {
		f.Commentf("%s holds the schema identifiers of table %s.", def.ConstName, def.Table.QualifiedName())
		f.Const().DefsFunc(func(g *jen.Group) {
			g.Id(def.ConstName).Op("=").Lit(def.Table.Name)
			for _, c := range def.Columns {
				g.Id(c.ConstName).Op("=").Lit(c.Column.Name)
			}
		})
		f.Line()
	}
}

// renderModels emits join-table constants followed by one struct per
// model, parents always before subclasses.
func (r *Renderer) renderModels(f *jen.File, om *ObjectModel) {
	for _, def := range om.Joins {
		f.Commentf("%s is the join table of a many-to-many association.", def.ConstName)
		f.Const().Id(def.ConstName).Op("=").Lit(def.Table.Name)
		f.Line()
	}
	for _, m := range om.Models {
		r.renderModel(f, m)
	}
}

func (r *Renderer) renderModel(f *jen.File, m *Model) {
	kind := "table"
	if m.Table.View {
		kind = "view"
	}
	doc := fmt.Sprintf("%s is the model of %s %s.", m.Name, kind, m.Table.QualifiedName())
	if !r.cfg.NoComments && m.Table.Comment != "" {
		doc += " " + m.Table.Comment
	}
	f.Comment(doc)
	f.Type().Id(m.Name).StructFunc(func(g *jen.Group) {
		if m.Mixin != nil {
			g.Qual(m.Mixin.PkgPath, m.Mixin.TypeName)
		}
		if m.Parent != nil {
			g.Id(m.Parent.Name)
		}
		for _, a := range m.Attrs {
			r.renderAttr(g, m, a)
		}
		for _, rel := range m.Rels {
			r.renderRel(g, m, rel)
		}
	})
	f.Line()
	f.Commentf("TableName returns the %s name of %s.", kind, m.Name)
	f.Func().Params(jen.Id(m.Name)).Id("TableName").Params().String().Block(
		jen.Return(jen.Lit(m.Table.Name)),
	)
	for _, p := range m.Patches {
		f.Line()
		f.Add(rawFragment(p))
	}
	if m.Extra != "" {
		f.Line()
		f.Add(rawFragment(m.Extra))
	}
	f.Line()
}

func (r *Renderer) renderAttr(g *jen.Group, m *Model, a *Attr) {
	if !r.cfg.NoComments && a.Column.Comment != "" {
		g.Comment(a.Column.Comment)
	}
	g.Id(a.Name).Add(goType(a.Column)).Tag(map[string]string{
		"gorm": r.columnTag(m, a),
		"json": snake(a.Column.Name) + ",omitempty",
	})
}

func (r *Renderer) renderRel(g *jen.Group, m *Model, rel *RelAttr) {
	if !r.cfg.NoComments && rel.Rel.JoinCondition != "" {
		g.Comment("Join condition: " + rel.Rel.JoinCondition)
	}
	field := g.Id(rel.Name)
	if rel.Single() {
		field.Op("*").Id(rel.Target.Name)
	} else {
		field.Index().Op("*").Id(rel.Target.Name)
	}
	field.Tag(map[string]string{
		"gorm": r.relTag(m, rel),
		"json": snake(rel.Name) + ",omitempty",
	})
}

// columnTag builds the gorm tag of a column attribute: declared type,
// key membership, nullability, default, and (unless disabled) the
// indexes and constraints the column takes part in.
func (r *Renderer) columnTag(m *Model, a *Attr) string {
	c := a.Column
	parts := []string{"column:" + c.Name}
	if c.Type.Raw != "" {
		parts = append(parts, "type:"+tagSafe(c.Type.Raw))
	}
	if a.PK {
		parts = append(parts, "primaryKey")
	} else if !c.Nullable {
		parts = append(parts, "not null")
	}
	if c.Default != "" {
		parts = append(parts, "default:"+tagSafe(c.Default))
	}
	if !r.cfg.NoConstraints {
		for _, u := range m.Table.Uniques {
			parts = append(parts, indexTag("uniqueIndex", u, c.Name)...)
		}
		for _, ck := range checksFor(m.Table, c.Name) {
			parts = append(parts, "check:"+ck.Name+","+tagSafe(ck.Expr))
		}
	}
	if !r.cfg.NoIndexes {
		for _, ix := range m.Table.Indexes {
			name := "index"
			if ix.Unique {
				name = "uniqueIndex"
			}
			parts = append(parts, indexTag(name, ix, c.Name)...)
		}
	}
	return strings.Join(parts, ";")
}

// relTag builds the gorm tag of a relationship attribute.
func (r *Renderer) relTag(m *Model, rel *RelAttr) string {
	var parts []string
	switch {
	case rel.Type == M2M:
		parts = append(parts, "many2many:"+rel.Rel.JoinTable)
		join, joinRef := rel.Rel.JoinColumns, rel.Rel.JoinRefColumns
		owner, target := rel.Rel.RefedColumns, rel.Rel.RefedRefColumns
		if rel.Inverse {
			join, joinRef = joinRef, join
			owner, target = target, owner
		}
		parts = append(parts,
			"foreignKey:"+attrList(owner),
			"joinForeignKey:"+attrList(join),
			"references:"+attrList(target),
			"joinReferences:"+attrList(joinRef),
		)
	default:
		// The gorm foreignKey always names the fields on the side
		// holding the key columns, which is the owning table of the
		// underlying foreign key for both directions.
		parts = append(parts,
			"foreignKey:"+attrList(rel.Rel.FK.Columns),
			"references:"+attrList(rel.Rel.FK.RefColumns),
		)
	}
	if r.cfg.PassiveDeletes && rel.Rel.OnDelete != "" && rel.Rel.OnDelete != schema.NoAction {
		parts = append(parts, "constraint:OnDelete:"+string(rel.Rel.OnDelete))
	}
	return strings.Join(parts, ";")
}

// attrList converts column names to a comma-separated list of struct
// field names for gorm tag values.
func attrList(columns []string) string {
	names := make([]string, len(columns))
	for i, c := range columns {
		names[i] = ident(pascal(c))
	}
	return strings.Join(names, ",")
}

// indexTag renders index membership for one column. Composite indexes
// carry the column position so gorm can rebuild the order.
func indexTag(kind string, ix *schema.Index, column string) []string {
	for i, c := range ix.Columns {
		if c != column {
			continue
		}
		if len(ix.Columns) == 1 {
			return []string{kind + ":" + ix.Name}
		}
		return []string{fmt.Sprintf("%s:%s,priority:%d", kind, ix.Name, i+1)}
	}
	return nil
}

// checksFor returns the table checks anchored on the given column: a
// check is rendered once, on the first column its expression mentions
// (or the first table column when none match).
func checksFor(t *schema.Table, column string) []*schema.Check {
	var out []*schema.Check
	for _, ck := range t.Checks {
		if anchorColumn(t, ck) == column {
			out = append(out, ck)
		}
	}
	return out
}

func anchorColumn(t *schema.Table, ck *schema.Check) string {
	for _, c := range t.Columns {
		if strings.Contains(ck.Expr, c.Name) {
			return c.Name
		}
	}
	if len(t.Columns) > 0 {
		return t.Columns[0].Name
	}
	return ""
}

// tagSafe strips characters that would break a gorm tag value.
func tagSafe(s string) string {
	s = strings.ReplaceAll(s, ";", ",")
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.ReplaceAll(s, `"`, "'")
}

// goType maps a column to its Go field type. Nullable columns of
// value kinds become pointers; slice and interface kinds are already
// nilable.
func goType(c *schema.Column) jen.Code {
	base, nilable := baseType(c)
	if c.Nullable && !nilable {
		return jen.Op("*").Add(base)
	}
	return base
}

func baseType(c *schema.Column) (jen.Code, bool) {
	switch c.Type.Kind {
	case schema.KindBool:
		return jen.Bool(), false
	case schema.KindInt:
		return jen.Int(), false
	case schema.KindInt64:
		return jen.Int64(), false
	case schema.KindUint64:
		return jen.Uint64(), false
	case schema.KindFloat:
		return jen.Float64(), false
	case schema.KindDecimal, schema.KindString, schema.KindEnum:
		return jen.String(), false
	case schema.KindBytes:
		return jen.Index().Byte(), true
	case schema.KindTime:
		return jen.Qual("time", "Time"), false
	case schema.KindUUID:
		return jen.Qual("github.com/google/uuid", "UUID"), false
	case schema.KindJSON:
		return jen.Qual("encoding/json", "RawMessage"), true
	default:
		return jen.Any(), true
	}
}

// rawFragment splices verbatim author-supplied source into the file.
// The fragment must be valid top-level Go code; the final format pass
// reports it against the run when it is not.
func rawFragment(src string) jen.Code {
	return jen.Id(strings.TrimSpace(src))
}
