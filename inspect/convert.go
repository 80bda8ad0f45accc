package inspect

import (
	"strings"

	sqlschema "ariga.io/atlas/sql/schema"

	"github.com/jccardonar/sqlacodegen/schema"
)

// Convert maps an atlas schema to the generator's schema model. Tables
// keep their inspection order; views follow the base tables.
func Convert(in *sqlschema.Schema) *schema.Schema {
	out := &schema.Schema{Name: in.Name}
	for _, t := range in.Tables {
		out.Tables = append(out.Tables, convertTable(in.Name, t))
	}
	for _, v := range in.Views {
		out.Tables = append(out.Tables, convertView(in.Name, v))
	}
	return out
}

func convertTable(schemaName string, t *sqlschema.Table) *schema.Table {
	out := &schema.Table{
		Name:    t.Name,
		Schema:  schemaName,
		Comment: commentOf(t.Attrs),
	}
	for _, c := range t.Columns {
		out.Columns = append(out.Columns, convertColumn(c))
	}
	if t.PrimaryKey != nil {
		for _, part := range t.PrimaryKey.Parts {
			if part.C != nil {
				out.PrimaryKey = append(out.PrimaryKey, part.C.Name)
			}
		}
	}
	for _, fk := range t.ForeignKeys {
		out.ForeignKeys = append(out.ForeignKeys, convertForeignKey(fk))
	}
	for _, ix := range t.Indexes {
		converted := convertIndex(ix)
		if converted == nil {
			continue
		}
		if converted.Unique {
			out.Uniques = append(out.Uniques, converted)
		} else {
			out.Indexes = append(out.Indexes, converted)
		}
	}
	for _, attr := range t.Attrs {
		if ck, ok := attr.(*sqlschema.Check); ok {
			out.Checks = append(out.Checks, &schema.Check{Name: ck.Name, Expr: ck.Expr})
		}
	}
	return out
}

func convertView(schemaName string, v *sqlschema.View) *schema.Table {
	out := &schema.Table{
		Name:    v.Name,
		Schema:  schemaName,
		View:    true,
		Comment: commentOf(v.Attrs),
	}
	for _, c := range v.Columns {
		out.Columns = append(out.Columns, convertColumn(c))
	}
	return out
}

func convertColumn(c *sqlschema.Column) *schema.Column {
	return &schema.Column{
		Name:     c.Name,
		Type:     convertType(c.Type),
		Nullable: c.Type != nil && c.Type.Null,
		Default:  defaultExpr(c.Default),
		Comment:  commentOf(c.Attrs),
	}
}

func convertForeignKey(fk *sqlschema.ForeignKey) *schema.ForeignKey {
	out := &schema.ForeignKey{
		Symbol:   fk.Symbol,
		OnUpdate: schema.ReferenceOption(fk.OnUpdate),
		OnDelete: schema.ReferenceOption(fk.OnDelete),
	}
	if fk.RefTable != nil {
		out.RefTable = fk.RefTable.Name
	}
	for _, c := range fk.Columns {
		out.Columns = append(out.Columns, c.Name)
	}
	for _, c := range fk.RefColumns {
		out.RefColumns = append(out.RefColumns, c.Name)
	}
	return out
}

// convertIndex flattens an atlas index to its column names. Indexes
// with expression parts cannot be expressed on the generated models
// and are skipped.
func convertIndex(ix *sqlschema.Index) *schema.Index {
	out := &schema.Index{Name: ix.Name, Unique: ix.Unique}
	for _, part := range ix.Parts {
		if part.C == nil {
			return nil
		}
		out.Columns = append(out.Columns, part.C.Name)
	}
	return out
}

// convertType classifies the raw column type into the portable kind
// that drives the Go mapping.
func convertType(ct *sqlschema.ColumnType) schema.ColumnType {
	out := schema.ColumnType{}
	if ct == nil {
		return out
	}
	out.Raw = ct.Raw
	switch t := ct.Type.(type) {
	case *sqlschema.BoolType:
		out.Kind = schema.KindBool
	case *sqlschema.IntegerType:
		switch {
		case t.Unsigned:
			out.Kind = schema.KindUint64
		case isWideInt(t.T):
			out.Kind = schema.KindInt64
		default:
			out.Kind = schema.KindInt
		}
	case *sqlschema.FloatType:
		out.Kind = schema.KindFloat
	case *sqlschema.DecimalType:
		out.Kind = schema.KindDecimal
	case *sqlschema.StringType:
		out.Kind = schema.KindString
		out.Size = int64(t.Size)
	case *sqlschema.BinaryType:
		out.Kind = schema.KindBytes
	case *sqlschema.TimeType:
		out.Kind = schema.KindTime
	case *sqlschema.UUIDType:
		out.Kind = schema.KindUUID
	case *sqlschema.JSONType:
		out.Kind = schema.KindJSON
	case *sqlschema.EnumType:
		out.Kind = schema.KindEnum
		out.Values = append(out.Values, t.Values...)
	default:
		out.Kind = schema.KindOther
	}
	return out
}

// isWideInt reports if the integer type is 64-bit.
func isWideInt(t string) bool {
	switch strings.ToLower(t) {
	case "bigint", "int8", "bigserial", "serial8":
		return true
	}
	return false
}

func commentOf(attrs []sqlschema.Attr) string {
	for _, attr := range attrs {
		if c, ok := attr.(*sqlschema.Comment); ok {
			return c.Text
		}
	}
	return ""
}

func defaultExpr(x sqlschema.Expr) string {
	switch x := x.(type) {
	case *sqlschema.Literal:
		return x.V
	case *sqlschema.RawExpr:
		return x.X
	default:
		return ""
	}
}
