package gen

import (
	"github.com/jccardonar/sqlacodegen/schema"
)

func col(name string, kind schema.Kind) *schema.Column {
	raws := map[schema.Kind]string{
		schema.KindInt64:  "bigint",
		schema.KindString: "varchar(255)",
		schema.KindTime:   "timestamp",
		schema.KindBool:   "boolean",
	}
	return &schema.Column{Name: name, Type: schema.ColumnType{Raw: raws[kind], Kind: kind}}
}

func nullCol(name string, kind schema.Kind) *schema.Column {
	c := col(name, kind)
	c.Nullable = true
	return c
}

func fk(symbol string, columns []string, refTable string, refColumns []string) *schema.ForeignKey {
	return &schema.ForeignKey{
		Symbol:     symbol,
		Columns:    columns,
		RefTable:   refTable,
		RefColumns: refColumns,
	}
}

// authorsBooks is the canonical one-to-many fixture: authors(id),
// books(id, author_id -> authors.id, title).
func authorsBooks() *schema.Schema {
	return &schema.Schema{
		Name: "public",
		Tables: []*schema.Table{
			{
				Name:       "authors",
				Columns:    []*schema.Column{col("id", schema.KindInt64), col("name", schema.KindString)},
				PrimaryKey: []string{"id"},
			},
			{
				Name: "books",
				Columns: []*schema.Column{
					col("id", schema.KindInt64),
					nullCol("author_id", schema.KindInt64),
					col("title", schema.KindString),
				},
				PrimaryKey: []string{"id"},
				ForeignKeys: []*schema.ForeignKey{
					fk("books_author_id_fkey", []string{"author_id"}, "authors", []string{"id"}),
				},
			},
		},
	}
}

// booksTags extends authorsBooks with a tags table and a pure
// book_tags junction.
func booksTags() *schema.Schema {
	s := authorsBooks()
	s.Tables = append(s.Tables,
		&schema.Table{
			Name:       "tags",
			Columns:    []*schema.Column{col("id", schema.KindInt64), col("name", schema.KindString)},
			PrimaryKey: []string{"id"},
		},
		&schema.Table{
			Name: "book_tags",
			Columns: []*schema.Column{
				col("book_id", schema.KindInt64),
				col("tag_id", schema.KindInt64),
			},
			PrimaryKey: []string{"book_id", "tag_id"},
			ForeignKeys: []*schema.ForeignKey{
				fk("book_tags_book_id_fkey", []string{"book_id"}, "books", []string{"id"}),
				fk("book_tags_tag_id_fkey", []string{"tag_id"}, "tags", []string{"id"}),
			},
		},
	)
	return s
}

// employees is the self-referential fixture.
func employees() *schema.Schema {
	return &schema.Schema{
		Tables: []*schema.Table{
			{
				Name: "employees",
				Columns: []*schema.Column{
					col("id", schema.KindInt64),
					nullCol("manager_id", schema.KindInt64),
				},
				PrimaryKey: []string{"id"},
				ForeignKeys: []*schema.ForeignKey{
					fk("employees_manager_id_fkey", []string{"manager_id"}, "employees", []string{"id"}),
				},
			},
		},
	}
}

// personsEmployees models joined-table inheritance: the employees
// primary key is also a foreign key to persons.
func personsEmployees() *schema.Schema {
	return &schema.Schema{
		Tables: []*schema.Table{
			{
				Name: "employees",
				Columns: []*schema.Column{
					col("id", schema.KindInt64),
					col("salary", schema.KindInt64),
				},
				PrimaryKey: []string{"id"},
				ForeignKeys: []*schema.ForeignKey{
					fk("employees_id_fkey", []string{"id"}, "persons", []string{"id"}),
				},
			},
			{
				Name:       "persons",
				Columns:    []*schema.Column{col("id", schema.KindInt64), col("name", schema.KindString)},
				PrimaryKey: []string{"id"},
			},
		},
	}
}

// ordersUsers connects the same table pair with two foreign keys.
func ordersUsers() *schema.Schema {
	return &schema.Schema{
		Tables: []*schema.Table{
			{
				Name:       "users",
				Columns:    []*schema.Column{col("id", schema.KindInt64)},
				PrimaryKey: []string{"id"},
			},
			{
				Name: "orders",
				Columns: []*schema.Column{
					col("id", schema.KindInt64),
					col("customer_id", schema.KindInt64),
					col("seller_id", schema.KindInt64),
				},
				PrimaryKey: []string{"id"},
				ForeignKeys: []*schema.ForeignKey{
					fk("orders_customer_id_fkey", []string{"customer_id"}, "users", []string{"id"}),
					fk("orders_seller_id_fkey", []string{"seller_id"}, "users", []string{"id"}),
				},
			},
		},
	}
}

func defaultConfig() *Config {
	c, _ := NewConfig()
	return c
}

func resolve(s *schema.Schema, ov *Overrides, opts ...Option) (*Plan, error) {
	cfg, err := NewConfig(opts...)
	if err != nil {
		return nil, err
	}
	return Resolve(s, ov, cfg, NewInflector(!cfg.NoInflect))
}

func build(s *schema.Schema, ov *Overrides, opts ...Option) (*ObjectModel, error) {
	cfg, err := NewConfig(opts...)
	if err != nil {
		return nil, err
	}
	inf := NewInflector(!cfg.NoInflect)
	plan, err := Resolve(s, ov, cfg, inf)
	if err != nil {
		return nil, err
	}
	return Build(s, plan, inf, ov, cfg)
}
