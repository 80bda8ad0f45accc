package gen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jccardonar/sqlacodegen/schema"
)

func modelByName(om *ObjectModel, name string) *Model {
	for _, m := range om.Models {
		if m.Name == name {
			return m
		}
	}
	return nil
}

func TestBuildBasicModels(t *testing.T) {
	om, err := build(authorsBooks(), nil)
	require.NoError(t, err)
	require.Len(t, om.Models, 2)

	book := modelByName(om, "Book")
	require.NotNil(t, book)
	require.Len(t, book.Attrs, 3)
	assert.Equal(t, "ID", book.Attrs[0].Name)
	assert.True(t, book.Attrs[0].PK)
	assert.Equal(t, "AuthorID", book.Attrs[1].Name)
	require.NotNil(t, book.Attrs[1].FK)
	assert.Equal(t, "Title", book.Attrs[2].Name)

	require.Len(t, book.Rels, 1)
	assert.Equal(t, "Author", book.Rels[0].Name)
	assert.Equal(t, M2O, book.Rels[0].Type)
	assert.False(t, book.Rels[0].Inverse)
	assert.True(t, book.Rels[0].Single())

	author := modelByName(om, "Author")
	require.NotNil(t, author)
	require.Len(t, author.Rels, 1)
	assert.Equal(t, "Books", author.Rels[0].Name)
	assert.Equal(t, O2M, author.Rels[0].Type)
	assert.True(t, author.Rels[0].Inverse)
	assert.False(t, author.Rels[0].Single())
	assert.Same(t, book, author.Rels[0].Target)
}

func TestBuildJunctionElision(t *testing.T) {
	om, err := build(booksTags(), nil)
	require.NoError(t, err)

	assert.Nil(t, modelByName(om, "BookTag"), "junction tables produce no class")
	require.Len(t, om.Joins, 1)
	assert.Equal(t, "TableBookTags", om.Joins[0].ConstName)

	book := modelByName(om, "Book")
	tag := modelByName(om, "Tag")
	require.NotNil(t, book)
	require.NotNil(t, tag)

	var bookTags, tagBooks *RelAttr
	for _, r := range book.Rels {
		if r.Name == "Tags" {
			bookTags = r
		}
	}
	for _, r := range tag.Rels {
		if r.Name == "Books" {
			tagBooks = r
		}
	}
	require.NotNil(t, bookTags)
	require.NotNil(t, tagBooks)
	assert.Equal(t, M2M, bookTags.Type)
	assert.Equal(t, M2M, tagBooks.Type)
	assert.Same(t, bookTags.Rel, tagBooks.Rel)
}

func TestBuildInheritance(t *testing.T) {
	om, err := build(personsEmployees(), nil)
	require.NoError(t, err)

	person := modelByName(om, "Person")
	employee := modelByName(om, "Employee")
	require.NotNil(t, person)
	require.NotNil(t, employee)
	require.NotNil(t, employee.Parent)
	assert.Same(t, person, employee.Parent)

	// The shared-key column is the inheritance link, not an attribute.
	for _, a := range employee.Attrs {
		assert.NotEqual(t, "ID", a.Name)
	}

	// Parents render before subclasses even when the schema lists the
	// subclass first.
	assert.Less(t, indexOf(om.Models, person), indexOf(om.Models, employee))
}

func indexOf(models []*Model, m *Model) int {
	for i, x := range models {
		if x == m {
			return i
		}
	}
	return -1
}

func TestBuildSelfReferential(t *testing.T) {
	om, err := build(employees(), nil)
	require.NoError(t, err)

	emp := modelByName(om, "Employee")
	require.NotNil(t, emp)
	require.Len(t, emp.Rels, 2)

	names := []string{emp.Rels[0].Name, emp.Rels[1].Name}
	assert.Contains(t, names, "Manager")
	assert.Contains(t, names, "Employees")
	assert.NotEqual(t, emp.Rels[0].Name, emp.Rels[1].Name)
	for _, r := range emp.Rels {
		assert.Same(t, emp, r.Target)
	}
}

func TestBuildRelSorting(t *testing.T) {
	om, err := build(booksTags(), nil)
	require.NoError(t, err)

	book := modelByName(om, "Book")
	require.Len(t, book.Rels, 2)
	// Single references come before collections.
	assert.Equal(t, "Author", book.Rels[0].Name)
	assert.Equal(t, "Tags", book.Rels[1].Name)
}

func TestBuildMixin(t *testing.T) {
	ov := &Overrides{Mixins: []MixinRef{
		{Table: "books", PkgPath: "example.com/app/mixins", TypeName: "Audited"},
	}}
	om, err := build(authorsBooks(), ov)
	require.NoError(t, err)

	book := modelByName(om, "Book")
	require.NotNil(t, book.Mixin)
	assert.Equal(t, "Audited", book.Mixin.TypeName)
}

func TestBuildMixinCardinality(t *testing.T) {
	ov := &Overrides{Mixins: []MixinRef{
		{Table: "books", PkgPath: "example.com/app/mixins", TypeName: "Audited"},
		{Table: "books", PkgPath: "example.com/app/mixins", TypeName: "SoftDelete"},
	}}
	_, err := build(authorsBooks(), ov)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConfig)
	assert.Contains(t, err.Error(), "at most one")
}

func TestBuildMixinUnknownTable(t *testing.T) {
	ov := &Overrides{Mixins: []MixinRef{
		{Table: "missing", PkgPath: "example.com/app/mixins", TypeName: "Audited"},
	}}
	_, err := build(authorsBooks(), ov)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConfig)
}

func TestBuildMixinOnJunction(t *testing.T) {
	ov := &Overrides{Mixins: []MixinRef{
		{Table: "book_tags", PkgPath: "example.com/app/mixins", TypeName: "Audited"},
	}}
	_, err := build(booksTags(), ov)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConfig)
	assert.Contains(t, err.Error(), "no generated class")
}

func TestBuildPatchesAndExtras(t *testing.T) {
	ov := &Overrides{
		Patches: map[string][]string{"books": {"// patched"}},
		Extras:  map[string]string{"Book": "// extra"},
	}
	om, err := build(authorsBooks(), ov)
	require.NoError(t, err)

	book := modelByName(om, "Book")
	assert.Equal(t, []string{"// patched"}, book.Patches)
	assert.Equal(t, "// extra", book.Extra)
}

func TestBuildPatchUnknownTable(t *testing.T) {
	ov := &Overrides{Patches: map[string][]string{"missing": {"// patched"}}}
	_, err := build(authorsBooks(), ov)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConfig)
}

func TestBuildExtraUnknownClass(t *testing.T) {
	ov := &Overrides{Extras: map[string]string{"Missing": "// extra"}}
	_, err := build(authorsBooks(), ov)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConfig)
	assert.Contains(t, err.Error(), "Missing")
}

func TestBuildClassNameDisambiguation(t *testing.T) {
	s := &schema.Schema{Tables: []*schema.Table{
		{Name: "user_account", Schema: "app", Columns: []*schema.Column{col("id", schema.KindInt64)}, PrimaryKey: []string{"id"}},
		{Name: "user_accounts", Schema: "legacy", Columns: []*schema.Column{col("id", schema.KindInt64)}, PrimaryKey: []string{"id"}},
	}}
	om, err := build(s, nil)
	require.NoError(t, err)
	require.Len(t, om.Models, 2)
	assert.Equal(t, "UserAccount", om.Models[0].Name)
	assert.Equal(t, "LegacyUserAccount", om.Models[1].Name)
}

func TestBuildClassNameCollisionFatal(t *testing.T) {
	s := &schema.Schema{Tables: []*schema.Table{
		{Name: "user_account", Columns: []*schema.Column{col("id", schema.KindInt64)}, PrimaryKey: []string{"id"}},
		{Name: "user_accounts", Columns: []*schema.Column{col("id", schema.KindInt64)}, PrimaryKey: []string{"id"}},
	}}
	_, err := build(s, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNaming)
}

func TestBuildAttrCollisionFatal(t *testing.T) {
	s := &schema.Schema{Tables: []*schema.Table{
		{Name: "users", Columns: []*schema.Column{
			col("user_id", schema.KindInt64),
			col("user_ID", schema.KindInt64),
		}, PrimaryKey: []string{"user_id"}},
	}}
	_, err := build(s, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNaming)
}

func TestBuildRelNameFallback(t *testing.T) {
	// books already has a column named "author"; the relationship
	// attribute falls back to AuthorRef.
	s := authorsBooks()
	books, _ := s.Table("books")
	books.Columns = append(books.Columns, col("author", schema.KindString))

	om, err := build(s, nil)
	require.NoError(t, err)
	book := modelByName(om, "Book")
	require.Len(t, book.Rels, 1)
	assert.Equal(t, "AuthorRef", book.Rels[0].Name)
}

func TestBuildViews(t *testing.T) {
	s := authorsBooks()
	s.Tables = append(s.Tables, &schema.Table{
		Name:    "recent_books",
		View:    true,
		Columns: []*schema.Column{col("id", schema.KindInt64), col("title", schema.KindString)},
	})

	om, err := build(s, nil)
	require.NoError(t, err)
	assert.NotNil(t, modelByName(om, "RecentBook"))

	om, err = build(s, nil, WithoutViews())
	require.NoError(t, err)
	assert.Nil(t, modelByName(om, "RecentBook"))
}

func TestBuildTablesOnly(t *testing.T) {
	om, err := build(booksTags(), nil, TablesOnly())
	require.NoError(t, err)

	assert.Empty(t, om.Models)
	require.Len(t, om.Tables, 4)
	assert.Equal(t, "TableAuthors", om.Tables[0].ConstName)
	require.NotEmpty(t, om.Tables[0].Columns)
	assert.Equal(t, "ColumnAuthorsID", om.Tables[0].Columns[0].ConstName)
}

func TestBuildVersion(t *testing.T) {
	om, err := build(authorsBooks(), nil, WithVersion("9.4.1"))
	require.NoError(t, err)
	assert.Equal(t, "9.4.1", om.Version)
}
