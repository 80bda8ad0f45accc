// Package loader reads the override files a generation run consumes:
// a CSV table of relationship naming overrides and a YAML document of
// mixins, patches and extra code blocks. The loader only validates
// shape; cross-checking against the schema happens in the core.
package loader

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jccardonar/sqlacodegen/gen"
)

// Load reads both override files and merges them into one Overrides
// value. Either path may be empty.
func Load(backrefsPath, overridesPath string) (*gen.Overrides, error) {
	ov := &gen.Overrides{}
	if overridesPath != "" {
		loaded, err := LoadOverrides(overridesPath)
		if err != nil {
			return nil, err
		}
		ov = loaded
	}
	if backrefsPath != "" {
		backrefs, err := LoadBackRefs(backrefsPath)
		if err != nil {
			return nil, err
		}
		ov.BackRefs = append(ov.BackRefs, backrefs...)
	}
	return ov, nil
}

// LoadBackRefs reads relationship naming overrides from a CSV file.
// Each record is
//
//	source_table,target_table,name[,columns[,flags]]
//
// where columns is a semicolon-separated list of referencing column
// names singling out one foreign key of the pair, and flags is a
// semicolon-separated subset of "single" and "nobackref". Blank lines
// and lines starting with # are skipped.
func LoadBackRefs(path string) ([]gen.BackRefOverride, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("loader: open backrefs file: %w", err)
	}
	defer f.Close()
	out, err := ReadBackRefs(f)
	if err != nil {
		return nil, fmt.Errorf("loader: %s: %w", path, err)
	}
	return out, nil
}

// ReadBackRefs parses relationship naming overrides from r. See
// LoadBackRefs for the record format.
func ReadBackRefs(r io.Reader) ([]gen.BackRefOverride, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.Comment = '#'
	cr.TrimLeadingSpace = true

	var out []gen.BackRefOverride
	for line := 1; ; line++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		o, err := parseBackRef(record)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", line, err)
		}
		out = append(out, o)
	}
	return out, nil
}

func parseBackRef(record []string) (gen.BackRefOverride, error) {
	var o gen.BackRefOverride
	if len(record) < 3 || len(record) > 5 {
		return o, gen.NewConfigError("backref", "", fmt.Sprintf(
			"expected source,target,name with optional columns and flags, got %d fields", len(record)))
	}
	for i, field := range record[:3] {
		if strings.TrimSpace(field) == "" {
			return o, gen.NewConfigError("backref", "", fmt.Sprintf("field %d is empty", i+1))
		}
	}
	o.SourceTable = strings.TrimSpace(record[0])
	o.TargetTable = strings.TrimSpace(record[1])
	o.Name = strings.TrimSpace(record[2])
	if len(record) > 3 {
		o.Columns = splitList(record[3])
	}
	if len(record) > 4 {
		for _, flag := range splitList(record[4]) {
			switch flag {
			case "single":
				o.Single = true
			case "nobackref":
				o.NoBackRef = true
			default:
				return o, gen.NewConfigError("backref", o.SourceTable, fmt.Sprintf(
					"unknown flag %q (known: single, nobackref)", flag))
			}
		}
	}
	return o, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ";") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// overridesFile is the YAML shape of the overrides file. Mixins are a
// list, not a map, so that assigning two mixins to one table survives
// parsing and is reported by the core instead of silently dropped.
type overridesFile struct {
	Mixins []struct {
		Table   string `yaml:"table"`
		Package string `yaml:"package"`
		Type    string `yaml:"type"`
	} `yaml:"mixins"`
	Patches map[string][]string `yaml:"patches"`
	Extras  map[string]string   `yaml:"extras"`
}

// LoadOverrides reads mixins, patches and extra code blocks from a
// YAML file:
//
//	mixins:
//	  - table: books
//	    package: example.com/app/base
//	    type: Audited
//	patches:
//	  books:
//	    - func (b Book) Display() string { ... }
//	extras:
//	  Book: func (b Book) Validate() error { ... }
func LoadOverrides(path string) (*gen.Overrides, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loader: open overrides file: %w", err)
	}
	ov, err := ReadOverrides(data)
	if err != nil {
		return nil, fmt.Errorf("loader: %s: %w", path, err)
	}
	return ov, nil
}

// ReadOverrides parses the YAML overrides document. See LoadOverrides
// for the document shape.
func ReadOverrides(data []byte) (*gen.Overrides, error) {
	var file overridesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse overrides: %w", err)
	}
	ov := &gen.Overrides{
		Patches: file.Patches,
		Extras:  file.Extras,
	}
	for i, mx := range file.Mixins {
		if mx.Table == "" || mx.Package == "" || mx.Type == "" {
			return nil, gen.NewConfigError("mixin", mx.Table, fmt.Sprintf(
				"entry %d must set table, package and type", i+1))
		}
		ov.Mixins = append(ov.Mixins, gen.MixinRef{
			Table:    mx.Table,
			PkgPath:  mx.Package,
			TypeName: mx.Type,
		})
	}
	return ov, nil
}
