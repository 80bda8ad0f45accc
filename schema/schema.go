// Package schema defines the in-memory description of an inspected
// database: tables, columns, constraints, indexes and views. It is
// populated once per generation run (by the inspect package, or by
// decoding a snapshot) and treated as immutable afterwards.
package schema

// Kind is the portable classification of a column type. The raw SQL
// type is kept alongside it, Kind only drives the Go type mapping in
// the generated models.
type Kind int

const (
	KindOther Kind = iota
	KindBool
	KindInt
	KindInt64
	KindUint64
	KindFloat
	KindDecimal
	KindString
	KindBytes
	KindTime
	KindUUID
	KindJSON
	KindEnum
)

// String returns the readable name of the kind.
func (k Kind) String() string {
	names := [...]string{"other", "bool", "int", "int64", "uint64", "float", "decimal", "string", "bytes", "time", "uuid", "json", "enum"}
	if int(k) < len(names) {
		return names[k]
	}
	return "other"
}

// ReferenceOption is a foreign-key ON DELETE / ON UPDATE action.
type ReferenceOption string

const (
	NoAction   ReferenceOption = "NO ACTION"
	Restrict   ReferenceOption = "RESTRICT"
	Cascade    ReferenceOption = "CASCADE"
	SetNull    ReferenceOption = "SET NULL"
	SetDefault ReferenceOption = "SET DEFAULT"
)

type (
	// Schema holds the ordered set of tables (and views) of a single
	// database schema.
	Schema struct {
		// Name is the schema qualifier ("public", "main", ...).
		// May be empty for databases without schema support.
		Name string
		// Tables are listed in the order the inspection reported
		// them. Views are included with the View flag set.
		Tables []*Table
	}

	// Table describes one base table or view.
	Table struct {
		Name string
		// Schema is the owning schema qualifier.
		Schema string
		// Columns in their declared order. Order is significant
		// for rendering.
		Columns []*Column
		// PrimaryKey holds the names of the primary-key columns
		// in key order. Empty for views and keyless tables.
		PrimaryKey []string
		// ForeignKeys are the outgoing foreign keys of the table.
		ForeignKeys []*ForeignKey
		// Uniques are the named unique constraints / indexes.
		Uniques []*Index
		// Indexes are the non-unique secondary indexes.
		Indexes []*Index
		// Checks are the table check constraints.
		Checks []*Check
		// View reports if this is a view rather than a base table.
		View bool
		// Comment is the table comment, if the dialect supports one.
		Comment string
	}

	// Column describes a single table column.
	Column struct {
		Name string
		// Type holds the raw SQL type and its portable kind.
		Type ColumnType
		// Nullable reports if the column accepts NULL.
		Nullable bool
		// Default is the textual default expression. Empty means
		// no default.
		Default string
		// Comment is the column comment text.
		Comment string
	}

	// ColumnType carries both the raw declared type and the mapped kind.
	ColumnType struct {
		// Raw is the declared SQL type, e.g. "varchar(255)".
		Raw string
		// Kind is the portable classification used for Go mapping.
		Kind Kind
		// Size is the declared length for sized types, 0 otherwise.
		Size int64
		// Values holds the enum values for KindEnum columns.
		Values []string
	}

	// ForeignKey describes an outgoing foreign key.
	ForeignKey struct {
		// Symbol is the constraint name.
		Symbol string
		// Columns are the referencing column names in the source
		// table, in constraint order.
		Columns []string
		// RefTable is the referenced table name.
		RefTable string
		// RefColumns are the referenced column names, matching
		// Columns positionally.
		RefColumns []string
		OnUpdate   ReferenceOption
		OnDelete   ReferenceOption
	}

	// Index describes a secondary index or unique constraint.
	Index struct {
		Name    string
		Unique  bool
		Columns []string
	}

	// Check describes a check constraint.
	Check struct {
		Name string
		Expr string
	}
)

// Table returns the table with the given name.
func (s *Schema) Table(name string) (*Table, bool) {
	for _, t := range s.Tables {
		if t.Name == name {
			return t, true
		}
	}
	return nil, false
}

// Column returns the column with the given name.
func (t *Table) Column(name string) (*Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

// HasColumn reports if the table has a column with the given name.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.Column(name)
	return ok
}

// InPrimaryKey reports if the named column is part of the primary key.
func (t *Table) InPrimaryKey(name string) bool {
	for _, c := range t.PrimaryKey {
		if c == name {
			return true
		}
	}
	return false
}

// ForeignKey returns the foreign key owning the given column, if any.
// A column can belong to at most one foreign key in the model; if the
// database defines overlapping constraints, the first one in
// declaration order wins.
func (t *Table) ForeignKey(column string) (*ForeignKey, bool) {
	for _, fk := range t.ForeignKeys {
		for _, c := range fk.Columns {
			if c == column {
				return fk, true
			}
		}
	}
	return nil, false
}

// QualifiedName returns "schema.table", or just the table name when no
// schema qualifier is present.
func (t *Table) QualifiedName() string {
	if t.Schema == "" {
		return t.Name
	}
	return t.Schema + "." + t.Name
}

// CoversPrimaryKey reports if the foreign-key columns are exactly the
// primary-key columns of the given table, position by position.
func (fk *ForeignKey) CoversPrimaryKey(t *Table) bool {
	if len(fk.Columns) == 0 || len(fk.Columns) != len(t.PrimaryKey) {
		return false
	}
	covered := make(map[string]bool, len(fk.Columns))
	for _, c := range fk.Columns {
		covered[c] = true
	}
	for _, c := range t.PrimaryKey {
		if !covered[c] {
			return false
		}
	}
	return true
}

// References reports if the foreign key points at the primary key of
// the given table.
func (fk *ForeignKey) References(parent *Table) bool {
	if fk.RefTable != parent.Name || len(fk.RefColumns) != len(parent.PrimaryKey) {
		return false
	}
	for _, c := range fk.RefColumns {
		if !parent.InPrimaryKey(c) {
			return false
		}
	}
	return true
}

// UniqueOn reports if the table has a unique constraint covering
// exactly the given columns.
func (t *Table) UniqueOn(columns []string) bool {
	for _, u := range t.Uniques {
		if sameColumns(u.Columns, columns) {
			return true
		}
	}
	for _, ix := range t.Indexes {
		if ix.Unique && sameColumns(ix.Columns, columns) {
			return true
		}
	}
	return false
}

func sameColumns(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	seen := make(map[string]bool, len(a))
	for _, c := range a {
		seen[c] = true
	}
	for _, c := range b {
		if !seen[c] {
			return false
		}
	}
	return true
}
