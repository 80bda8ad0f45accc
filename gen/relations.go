package gen

import (
	"fmt"
	"strings"

	"github.com/jccardonar/sqlacodegen/schema"
)

// Rel is the cardinality of a relationship attribute, seen from the
// owning (foreign-key) side.
type Rel int

// Relation types.
const (
	Unk Rel = iota
	O2O
	O2M
	M2O
	M2M
)

// String returns the relation name.
func (r Rel) String() string {
	s := "Unknown"
	switch r {
	case O2O:
		s = "O2O"
	case O2M:
		s = "O2M"
	case M2O:
		s = "M2O"
	case M2M:
		s = "M2M"
	}
	return s
}

type (
	// Relation is one derived relationship: the attribute placed on
	// the owning table's class and, unless suppressed, the mirrored
	// back-reference on the referenced table's class.
	Relation struct {
		// Name is the attribute name on the owning class.
		Name string
		// Type is the cardinality seen from the owning side:
		// M2O for a plain foreign key, O2O when the key columns
		// are unique, M2M for junction-table pairs.
		Type Rel
		// Table is the owning (referencing) table.
		Table string
		// RefTable is the referenced table.
		RefTable string
		// FK is the underlying foreign key. Nil for M2M.
		FK *schema.ForeignKey
		// JoinTable is the elided junction table for M2M.
		JoinTable string
		// JoinColumns / JoinRefColumns are the junction-table
		// columns pointing at Table and RefTable respectively.
		JoinColumns    []string
		JoinRefColumns []string
		// RefedColumns / RefedRefColumns are the columns the
		// junction keys reference in Table and RefTable.
		RefedColumns    []string
		RefedRefColumns []string
		// BackRef is the mirrored attribute name on RefTable's
		// class. Empty when suppressed by an override.
		BackRef string
		// BackRefSingle narrows the back-reference to a single
		// object (unique key, or forced by an override).
		BackRefSingle bool
		// JoinCondition is an explicit override condition carried
		// into the rendered documentation.
		JoinCondition string
		// OnDelete is the foreign-key delete action, rendered when
		// passive deletes are enabled.
		OnDelete schema.ReferenceOption
	}

	// Junction is a table elided from class generation and turned
	// into the join specification of an M2M relation.
	Junction struct {
		Table *schema.Table
		// Left and Right are the two foreign keys, ordered by the
		// position of their first column in the table.
		Left, Right *schema.ForeignKey
	}

	// Plan is the output of Resolve: everything the object model
	// builder needs to attach relationship attributes.
	Plan struct {
		// Relations in deterministic derivation order.
		Relations []*Relation
		// Junctions by junction table name.
		Junctions map[string]*Junction
		// Parents maps a subclass table to its inheritance parent.
		Parents map[string]string
		// ParentFK maps a subclass table to the foreign key that
		// forms the inheritance link.
		ParentFK map[string]*schema.ForeignKey
	}
)

// resolver carries the state of one Resolve call.
type resolver struct {
	schema *schema.Schema
	cfg    *Config
	inf    *Inflector
	tables map[string]*schema.Table
	plan   *Plan
	// used marks consumed back-reference overrides by index.
	used []bool
	ov   []BackRefOverride
}

// Resolve analyzes the foreign keys of the schema and derives the
// relationship plan: junction tables, inheritance links, and the
// relationship attribute pair for every remaining foreign key. It
// fails rather than guess: ambiguous multi-key pairs need overrides,
// and overrides that match nothing are reported.
func Resolve(s *schema.Schema, ov *Overrides, cfg *Config, inf *Inflector) (*Plan, error) {
	r := &resolver{
		schema: s,
		cfg:    cfg,
		inf:    inf,
		tables: make(map[string]*schema.Table, len(s.Tables)),
		plan: &Plan{
			Junctions: make(map[string]*Junction),
			Parents:   make(map[string]string),
			ParentFK:  make(map[string]*schema.ForeignKey),
		},
	}
	if ov != nil {
		r.ov = ov.BackRefs
		r.used = make([]bool, len(ov.BackRefs))
	}
	for _, t := range s.Tables {
		r.tables[t.Name] = t
	}
	if err := r.checkOverridePairs(); err != nil {
		return nil, err
	}
	r.detectJunctions()
	r.detectInheritance()
	if err := r.deriveRelations(); err != nil {
		return nil, err
	}
	if err := r.checkUnusedOverrides(); err != nil {
		return nil, err
	}
	if err := r.checkAmbiguity(); err != nil {
		return nil, err
	}
	return r.plan, nil
}

// checkOverridePairs validates override table references and rejects
// two overrides with an identical disambiguating context.
func (r *resolver) checkOverridePairs() error {
	seen := make(map[string]int, len(r.ov))
	for i, o := range r.ov {
		if _, ok := r.tables[o.SourceTable]; !ok {
			return NewConfigError("backref", o.SourceTable, "source table does not exist in the schema")
		}
		if _, ok := r.tables[o.TargetTable]; !ok {
			return NewConfigError("backref", o.TargetTable, "target table does not exist in the schema")
		}
		key := o.SourceTable + "\x00" + o.TargetTable + "\x00" + strings.Join(o.Columns, ",")
		if j, ok := seen[key]; ok {
			return NewConfigError("backref", o.SourceTable, fmt.Sprintf(
				"entries %d and %d for target %q share the same disambiguating columns", j+1, i+1, o.TargetTable))
		}
		seen[key] = i
	}
	return nil
}

// detectJunctions finds pure association tables: exactly two foreign
// keys to two distinct other tables, covering every column, with the
// primary key spanning all columns.
func (r *resolver) detectJunctions() {
	for _, t := range r.schema.Tables {
		if j, ok := r.junctionOf(t); ok {
			r.plan.Junctions[t.Name] = j
		}
	}
}

func (r *resolver) junctionOf(t *schema.Table) (*Junction, bool) {
	if t.View || len(t.ForeignKeys) != 2 || len(t.Columns) == 0 {
		return nil, false
	}
	fk1, fk2 := t.ForeignKeys[0], t.ForeignKeys[1]
	if fk1.RefTable == fk2.RefTable || fk1.RefTable == t.Name || fk2.RefTable == t.Name {
		return nil, false
	}
	if _, ok := r.tables[fk1.RefTable]; !ok {
		return nil, false
	}
	if _, ok := r.tables[fk2.RefTable]; !ok {
		return nil, false
	}
	fkCols := make(map[string]bool, len(t.Columns))
	for _, fk := range t.ForeignKeys {
		for _, c := range fk.Columns {
			fkCols[c] = true
		}
	}
	// Every column belongs to a key, and the primary key spans all of
	// them. Any independent column makes the table a real entity.
	if len(t.PrimaryKey) != len(t.Columns) {
		return nil, false
	}
	for _, c := range t.Columns {
		if !fkCols[c.Name] || !t.InPrimaryKey(c.Name) {
			return nil, false
		}
	}
	left, right := fk1, fk2
	if colPos(t, fk2.Columns[0]) < colPos(t, fk1.Columns[0]) {
		left, right = fk2, fk1
	}
	return &Junction{Table: t, Left: left, Right: right}, true
}

func colPos(t *schema.Table, name string) int {
	for i, c := range t.Columns {
		if c.Name == name {
			return i
		}
	}
	return len(t.Columns)
}

// detectInheritance marks tables whose primary key is also a foreign
// key to another table's primary key as joined-table subclasses.
func (r *resolver) detectInheritance() {
	if r.cfg.NoJoined {
		return
	}
	for _, t := range r.schema.Tables {
		if t.View {
			continue
		}
		if _, ok := r.plan.Junctions[t.Name]; ok {
			continue
		}
		for _, fk := range t.ForeignKeys {
			parent, ok := r.tables[fk.RefTable]
			if !ok || parent.Name == t.Name {
				continue
			}
			if fk.CoversPrimaryKey(t) && fk.References(parent) {
				r.plan.Parents[t.Name] = parent.Name
				r.plan.ParentFK[t.Name] = fk
				break
			}
		}
	}
}

// deriveRelations walks every foreign key outside junction tables and
// inheritance links and records its relationship pair, then registers
// one M2M relation per junction table.
func (r *resolver) deriveRelations() error {
	for _, t := range r.schema.Tables {
		if j, ok := r.plan.Junctions[t.Name]; ok {
			if err := r.deriveM2M(j); err != nil {
				return err
			}
			continue
		}
		for _, fk := range t.ForeignKeys {
			if r.plan.ParentFK[t.Name] == fk {
				continue
			}
			if _, ok := r.tables[fk.RefTable]; !ok {
				// Referenced table was filtered out before the
				// run; there is no class to point at.
				continue
			}
			if err := r.deriveFK(t, fk); err != nil {
				return err
			}
		}
	}
	return nil
}

// deriveFK records the relationship pair of one plain foreign key.
func (r *resolver) deriveFK(t *schema.Table, fk *schema.ForeignKey) error {
	rel := &Relation{
		Type:     M2O,
		Table:    t.Name,
		RefTable: fk.RefTable,
		FK:       fk,
		OnDelete: fk.OnDelete,
	}
	if fk.CoversPrimaryKey(t) || t.UniqueOn(fk.Columns) {
		rel.Type = O2O
		rel.BackRefSingle = true
	}
	if stem := relStem(fk.Columns); stem == "id" {
		// A shared-primary-key link carries no usable column stem.
		rel.Name = r.inf.ClassName(fk.RefTable)
	} else {
		rel.Name = r.inf.AttrName(stem)
	}
	if rel.BackRefSingle {
		rel.BackRef = r.inf.ClassName(t.Name)
	} else {
		rel.BackRef = r.inf.CollectionName(t.Name)
	}
	o, ok, err := r.overrideFor(t.Name, fk.RefTable, fk.Columns)
	if err != nil {
		return err
	}
	if ok {
		r.applyOverride(rel, o, t.Name)
	}
	if rel.BackRef != "" && t.Name == fk.RefTable && rel.Name == rel.BackRef {
		return NewResolveError(t.Name, fk.RefTable,
			fmt.Sprintf("self-referential attribute and back-reference both derive to %q; supply a backref override", rel.Name))
	}
	r.plan.Relations = append(r.plan.Relations, rel)
	return nil
}

// deriveM2M records the many-to-many relation of one junction table.
func (r *resolver) deriveM2M(j *Junction) error {
	left, right := j.Left, j.Right
	rel := &Relation{
		Type:            M2M,
		Table:           left.RefTable,
		RefTable:        right.RefTable,
		JoinTable:       j.Table.Name,
		JoinColumns:     left.Columns,
		JoinRefColumns:  right.Columns,
		RefedColumns:    left.RefColumns,
		RefedRefColumns: right.RefColumns,
		Name:            r.inf.CollectionName(right.RefTable),
		BackRef:         r.inf.CollectionName(left.RefTable),
		OnDelete:        left.OnDelete,
	}
	// M2M overrides are symmetric: (left, right) renames the left-side
	// attribute, (right, left) renames the mirrored one.
	if o, ok, err := r.overrideFor(rel.Table, rel.RefTable, nil); err != nil {
		return err
	} else if ok {
		rel.Name = r.inf.AttrName(o.Name)
		if o.JoinCondition != "" {
			rel.JoinCondition = o.JoinCondition
		}
	}
	if o, ok, err := r.overrideFor(rel.RefTable, rel.Table, nil); err != nil {
		return err
	} else if ok {
		if o.NoBackRef {
			rel.BackRef = ""
		} else {
			rel.BackRef = r.inf.AttrName(o.Name)
		}
		if o.JoinCondition != "" {
			rel.JoinCondition = o.JoinCondition
		}
	}
	r.plan.Relations = append(r.plan.Relations, rel)
	return nil
}

// applyOverride rewrites the derived pair naming from an override
// record. The child-side attribute takes the override name, the
// back-reference is renamed after it so that overridden pairs can
// never collide with derived ones.
func (r *resolver) applyOverride(rel *Relation, o BackRefOverride, child string) {
	if o.Name != "" {
		rel.Name = r.inf.AttrName(o.Name)
	}
	if o.Single {
		rel.BackRefSingle = true
	}
	switch {
	case o.NoBackRef:
		rel.BackRef = ""
	case o.Name != "" && rel.BackRefSingle:
		rel.BackRef = r.inf.AttrName(o.Name) + r.inf.ClassName(child)
	case o.Name != "":
		rel.BackRef = r.inf.AttrName(o.Name) + r.inf.CollectionName(child)
	case o.Single:
		rel.BackRef = r.inf.ClassName(child)
	}
	if o.JoinCondition != "" {
		rel.JoinCondition = o.JoinCondition
	}
}

// overrideFor returns the override matching the given pair and key
// columns. An override without columns only matches when the pair has
// a single foreign key; otherwise it is rejected as underspecified.
func (r *resolver) overrideFor(source, target string, fkColumns []string) (BackRefOverride, bool, error) {
	var (
		match = -1
		pair  = -1
	)
	for i, o := range r.ov {
		if o.SourceTable != source || o.TargetTable != target {
			continue
		}
		if len(o.Columns) == 0 {
			pair = i
			continue
		}
		if sameStrings(o.Columns, fkColumns) {
			match = i
		}
	}
	if match >= 0 {
		r.used[match] = true
		return r.ov[match], true, nil
	}
	if pair >= 0 {
		if len(fkColumns) > 0 && r.fkCount(source, target) > 1 {
			return BackRefOverride{}, false, NewConfigError("backref", source, fmt.Sprintf(
				"multiple foreign keys reference %q; the override must name the disambiguating columns", target))
		}
		r.used[pair] = true
		return r.ov[pair], true, nil
	}
	return BackRefOverride{}, false, nil
}

func (r *resolver) fkCount(source, target string) int {
	t, ok := r.tables[source]
	if !ok {
		return 0
	}
	n := 0
	for _, fk := range t.ForeignKeys {
		if fk.RefTable == target {
			n++
		}
	}
	return n
}

// checkUnusedOverrides reports overrides that matched no foreign key.
func (r *resolver) checkUnusedOverrides() error {
	for i, o := range r.ov {
		if !r.used[i] {
			return NewConfigError("backref", o.SourceTable, fmt.Sprintf(
				"no foreign key matches the override to %q (columns %v)", o.TargetTable, o.Columns))
		}
	}
	return nil
}

// checkAmbiguity refuses duplicate attribute names on the owning side
// and duplicate back-reference names on the target side. Duplicates
// mean two foreign keys derived the same default; the author has to
// disambiguate with overrides instead of the resolver guessing.
func (r *resolver) checkAmbiguity() error {
	attrs := make(map[string]*Relation)
	backs := make(map[string]*Relation)
	for _, rel := range r.plan.Relations {
		key := rel.Table + "\x00" + rel.Name
		if prev, ok := attrs[key]; ok {
			return NewResolveError(rel.Table, rel.RefTable, fmt.Sprintf(
				"attribute %q also derived for the foreign key to %q; supply backref overrides", rel.Name, prev.RefTable))
		}
		attrs[key] = rel
		if rel.BackRef == "" {
			continue
		}
		bkey := rel.RefTable + "\x00" + rel.BackRef
		if prev, ok := backs[bkey]; ok {
			return NewResolveError(rel.Table, rel.RefTable, fmt.Sprintf(
				"back-reference %q on %q also derived for the foreign key from %q; supply backref overrides",
				rel.BackRef, rel.RefTable, prev.Table))
		}
		backs[bkey] = rel
		// A back-reference lands on the same class as the owning
		// attributes of the target table.
		if prev, ok := attrs[bkey]; ok {
			return NewResolveError(rel.Table, rel.RefTable, fmt.Sprintf(
				"back-reference %q collides with the relationship attribute of the foreign key to %q; supply backref overrides",
				rel.BackRef, prev.RefTable))
		}
	}
	for _, rel := range r.plan.Relations {
		bkey := rel.Table + "\x00" + rel.Name
		if prev, ok := backs[bkey]; ok && prev != rel {
			return NewResolveError(rel.Table, rel.RefTable, fmt.Sprintf(
				"attribute %q collides with the back-reference of the foreign key from %q; supply backref overrides",
				rel.Name, prev.Table))
		}
	}
	return nil
}

func sameStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
