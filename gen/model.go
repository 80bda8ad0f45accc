package gen

import (
	"fmt"
	"sort"

	"github.com/jccardonar/sqlacodegen/schema"
)

type (
	// ObjectModel is the tree of descriptors the renderer walks. It
	// is derived once per run and discarded after text emission.
	ObjectModel struct {
		Package string
		Header  string
		// Version is rendered as the SchemaVersion constant when
		// non-empty.
		Version string
		// Models in rendering order: inheritance parents always
		// precede their subclasses, ties keep schema order.
		Models []*Model
		// Joins are the elided junction tables, rendered as table
		// name constants preceding the classes that use them.
		Joins []*TableDef
		// Tables carries per-table definitions for tables-only
		// mode. Empty when classes are generated.
		Tables []*TableDef
	}

	// Model describes one generated struct.
	Model struct {
		// Name is the unique class name.
		Name  string
		Table *schema.Table
		// Parent is the joined-table inheritance parent, if any.
		Parent *Model
		// Mixin is the extra embedded base type, if any.
		Mixin *MixinRef
		// Attrs are the column attributes in table order.
		Attrs []*Attr
		// Rels are the relationship attributes, grouped by
		// cardinality and sorted by name within a group.
		Rels []*RelAttr
		// Patches are verbatim fragments placed after the struct.
		Patches []string
		// Extra is a verbatim fragment appended as methods.
		Extra string

		order int
	}

	// Attr is one column attribute of a model.
	Attr struct {
		// Name is the struct field name, unique within the model.
		Name   string
		Column *schema.Column
		// PK reports primary-key membership.
		PK bool
		// FK is the foreign key owning this column, if any.
		FK *schema.ForeignKey
	}

	// RelAttr is one relationship attribute as seen from the class
	// it is declared on.
	RelAttr struct {
		// Name is the struct field name.
		Name string
		// Type is the cardinality from this side.
		Type Rel
		// Target is the class the attribute points at.
		Target *Model
		// Rel is the underlying resolved relation.
		Rel *Relation
		// Inverse reports that this is the mirrored
		// back-reference rather than the owning attribute.
		Inverse bool
	}

	// TableDef is a table-level definition for constant rendering.
	TableDef struct {
		Table *schema.Table
		// ConstName is the table name constant ("TableAuthors").
		ConstName string
		// Columns pairs each column with its constant name.
		Columns []ColumnConst
	}

	// ColumnConst names one column constant.
	ColumnConst struct {
		ConstName string
		Column    *schema.Column
	}
)

// Single reports if this side renders as a single object (pointer)
// rather than a slice.
func (r *RelAttr) Single() bool {
	switch r.Type {
	case O2O, M2O:
		return true
	default:
		return false
	}
}

// Build combines the schema, the relationship plan and the override
// tables into the object model. All override validation that needs
// knowledge of the generated classes happens here.
func Build(s *schema.Schema, plan *Plan, inf *Inflector, ov *Overrides, cfg *Config) (*ObjectModel, error) {
	b := &builder{schema: s, plan: plan, inf: inf, cfg: cfg}
	if ov != nil {
		b.ov = *ov
	}
	return b.build()
}

type builder struct {
	schema *schema.Schema
	plan   *Plan
	inf    *Inflector
	cfg    *Config
	ov     Overrides

	models  []*Model
	byTable map[string]*Model
	byName  map[string]*Model
}

func (b *builder) build() (*ObjectModel, error) {
	om := &ObjectModel{
		Package: b.cfg.Package,
		Header:  b.cfg.Header,
		Version: b.cfg.Version,
	}
	if om.Package == "" {
		om.Package = defaultPackage
	}
	if om.Header == "" {
		om.Header = defaultHeader
	}
	if b.cfg.NoClasses {
		for _, t := range b.schema.Tables {
			if t.View && b.cfg.NoViews {
				continue
			}
			om.Tables = append(om.Tables, b.tableDef(t))
		}
		return om, nil
	}
	if err := b.buildModels(); err != nil {
		return nil, err
	}
	if err := b.attachRelations(); err != nil {
		return nil, err
	}
	if err := b.attachMixins(); err != nil {
		return nil, err
	}
	if err := b.attachFragments(); err != nil {
		return nil, err
	}
	ordered, err := b.orderModels()
	if err != nil {
		return nil, err
	}
	om.Models = ordered
	for _, t := range b.schema.Tables {
		if _, ok := b.plan.Junctions[t.Name]; ok {
			om.Joins = append(om.Joins, b.tableDef(t))
		}
	}
	return om, nil
}

func (b *builder) tableDef(t *schema.Table) *TableDef {
	def := &TableDef{
		Table:     t,
		ConstName: "Table" + b.inf.AttrName(t.Name),
	}
	for _, c := range t.Columns {
		def.Columns = append(def.Columns, ColumnConst{
			ConstName: "Column" + b.inf.AttrName(t.Name) + b.inf.AttrName(c.Name),
			Column:    c,
		})
	}
	return def
}

// buildModels creates one model per non-junction table with unique
// class names and column attributes.
func (b *builder) buildModels() error {
	b.byTable = make(map[string]*Model)
	b.byName = make(map[string]*Model)
	for i, t := range b.schema.Tables {
		if _, ok := b.plan.Junctions[t.Name]; ok {
			continue
		}
		if t.View && b.cfg.NoViews {
			continue
		}
		name := b.inf.ClassName(t.Name)
		if prev, ok := b.byName[name]; ok {
			// Deterministic disambiguation: qualify the later
			// table with its schema name.
			qualified := ident(pascal(t.Schema)) + name
			if t.Schema == "" || b.byName[qualified] != nil {
				return NewNamingError(t.Name, name, fmt.Sprintf(
					"already used by table %q and schema qualification cannot disambiguate", prev.Table.Name))
			}
			name = qualified
		}
		m := &Model{Name: name, Table: t, order: i}
		if err := b.buildAttrs(m); err != nil {
			return err
		}
		b.models = append(b.models, m)
		b.byTable[t.Name] = m
		b.byName[name] = m
	}
	for child, parent := range b.plan.Parents {
		cm, ok := b.byTable[child]
		if !ok {
			continue
		}
		pm, ok := b.byTable[parent]
		if !ok {
			return NewResolveError(child, parent, "inheritance parent has no generated class")
		}
		cm.Parent = pm
	}
	return nil
}

// buildAttrs derives the column attributes of one model. Columns that
// form the inheritance link are suppressed; the parent embedding
// carries them instead.
func (b *builder) buildAttrs(m *Model) error {
	link := make(map[string]bool)
	if fk := b.plan.ParentFK[m.Table.Name]; fk != nil {
		for _, c := range fk.Columns {
			link[c] = true
		}
	}
	seen := make(map[string]string, len(m.Table.Columns))
	for _, c := range m.Table.Columns {
		if link[c.Name] {
			continue
		}
		name := b.inf.AttrName(c.Name)
		if prev, ok := seen[name]; ok {
			return NewNamingError(m.Table.Name, name, fmt.Sprintf(
				"columns %q and %q inflect to the same attribute", prev, c.Name))
		}
		seen[name] = c.Name
		attr := &Attr{
			Name:   name,
			Column: c,
			PK:     m.Table.InPrimaryKey(c.Name),
		}
		if fk, ok := m.Table.ForeignKey(c.Name); ok {
			attr.FK = fk
		}
		m.Attrs = append(m.Attrs, attr)
	}
	return nil
}

// attachRelations materializes both sides of every resolved relation
// as relationship attributes on the involved models.
func (b *builder) attachRelations() error {
	for _, rel := range b.plan.Relations {
		owner, ok := b.byTable[rel.Table]
		if !ok {
			continue
		}
		target, ok := b.byTable[rel.RefTable]
		if !ok {
			continue
		}
		if err := b.attachRel(owner, &RelAttr{Name: rel.Name, Type: rel.Type, Target: target, Rel: rel}); err != nil {
			return err
		}
		if rel.BackRef == "" {
			continue
		}
		inv := &RelAttr{Name: rel.BackRef, Target: owner, Rel: rel, Inverse: true}
		switch {
		case rel.Type == M2M:
			inv.Type = M2M
		case rel.BackRefSingle:
			inv.Type = O2O
		default:
			inv.Type = O2M
		}
		if err := b.attachRel(target, inv); err != nil {
			return err
		}
	}
	for _, m := range b.models {
		sortRels(m.Rels)
	}
	return nil
}

// attachRel adds a relationship attribute to a model, applying the
// deterministic "Ref" fallback when the name is taken by a column.
func (b *builder) attachRel(m *Model, r *RelAttr) error {
	taken := func(name string) bool {
		for _, a := range m.Attrs {
			if a.Name == name {
				return true
			}
		}
		for _, rel := range m.Rels {
			if rel.Name == name {
				return true
			}
		}
		return false
	}
	if taken(r.Name) {
		fallback := r.Name + "Ref"
		if taken(fallback) {
			return NewNamingError(m.Table.Name, r.Name,
				"relationship attribute collides with an existing attribute and the Ref fallback is taken")
		}
		r.Name = fallback
	}
	m.Rels = append(m.Rels, r)
	return nil
}

// relGroup orders cardinalities for rendering: single references
// first, then collections.
func relGroup(t Rel) int {
	switch t {
	case O2O:
		return 0
	case M2O:
		return 1
	case O2M:
		return 2
	default:
		return 3
	}
}

func sortRels(rels []*RelAttr) {
	sort.SliceStable(rels, func(i, j int) bool {
		gi, gj := relGroup(rels[i].Type), relGroup(rels[j].Type)
		if gi != gj {
			return gi < gj
		}
		return rels[i].Name < rels[j].Name
	})
}

// attachMixins assigns at most one mixin per table.
func (b *builder) attachMixins() error {
	for i := range b.ov.Mixins {
		mx := &b.ov.Mixins[i]
		if _, ok := b.schema.Table(mx.Table); !ok {
			return NewConfigError("mixin", mx.Table, "table does not exist in the schema")
		}
		m, ok := b.byTable[mx.Table]
		if !ok {
			return NewConfigError("mixin", mx.Table, "table has no generated class")
		}
		if m.Mixin != nil {
			return NewConfigError("mixin", mx.Table, fmt.Sprintf(
				"more than one mixin assigned (%s.%s and %s.%s); at most one is permitted",
				m.Mixin.PkgPath, m.Mixin.TypeName, mx.PkgPath, mx.TypeName))
		}
		m.Mixin = mx
	}
	return nil
}

// attachFragments wires patch and extra-code fragments to models.
func (b *builder) attachFragments() error {
	for table := range b.ov.Patches {
		if _, ok := b.byTable[table]; !ok {
			return NewConfigError("patch", table, "table has no generated class")
		}
	}
	for _, m := range b.models {
		m.Patches = b.ov.Patches[m.Table.Name]
	}
	byName := make(map[string]*Model, len(b.models))
	for _, m := range b.models {
		byName[m.Name] = m
	}
	for class := range b.ov.Extras {
		m, ok := byName[class]
		if !ok {
			return NewConfigError("extra", class, "no generated class with this name")
		}
		m.Extra = b.ov.Extras[class]
	}
	return nil
}

// orderModels places every inheritance parent before its subclasses,
// keeping schema order otherwise.
func (b *builder) orderModels() ([]*Model, error) {
	placed := make(map[*Model]bool, len(b.models))
	ordered := make([]*Model, 0, len(b.models))
	for len(ordered) < len(b.models) {
		progress := false
		for _, m := range b.models {
			if placed[m] {
				continue
			}
			if m.Parent != nil && !placed[m.Parent] {
				continue
			}
			placed[m] = true
			ordered = append(ordered, m)
			progress = true
		}
		if !progress {
			return nil, NewResolveError("", "", "inheritance chain forms a cycle")
		}
	}
	return ordered, nil
}
