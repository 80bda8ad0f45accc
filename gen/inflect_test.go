package gen

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSnake(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Username", "username"},
		{"FullName", "full_name"},
		{"HTTPCode", "http_code"},
		{"UserID", "user_id"},
		{"UserIDs", "user_ids"},
		{"XMLParser", "xml_parser"},
		{"already_snake", "already_snake"},
		{"A", "a"},
		{"ABC", "abc"},
		{"", ""},
		{"userInfo", "user_info"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, snake(tt.input))
		})
	}
}

func TestPascal(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"user_info", "UserInfo"},
		{"user_id", "UserID"},
		{"http_code", "HTTPCode"},
		{"api_url", "APIURL"},
		{"full-admin", "FullAdmin"},
		{"already", "Already"},
		{"a", "A"},
		{"a_b", "AB"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, pascal(tt.input))
		})
	}
}

func TestPlural(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"User", "Users"},
		{"Category", "Categories"},
		{"Books", "BooksSlice"}, // already plural, suffix fallback
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, plural(tt.input))
		})
	}
}

func TestIdent(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Book", "Book"},
		{"type", "type_"},
		{"range", "range_"},
		{"2fa", "X2fa"},
		{"", "X"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, ident(tt.input))
		})
	}
}

func TestClassName(t *testing.T) {
	inf := NewInflector(true)
	tests := []struct {
		table    string
		expected string
	}{
		{"books", "Book"},
		{"book_tags", "BookTag"},
		{"people", "Person"},
		{"user_accounts", "UserAccount"},
	}
	for _, tt := range tests {
		t.Run(tt.table, func(t *testing.T) {
			assert.Equal(t, tt.expected, inf.ClassName(tt.table))
		})
	}
}

func TestClassNameNoInflect(t *testing.T) {
	inf := NewInflector(false)
	assert.Equal(t, "Books", inf.ClassName("books"))
	assert.Equal(t, "BookTags", inf.ClassName("book_tags"))
}

func TestCollectionName(t *testing.T) {
	inf := NewInflector(true)
	assert.Equal(t, "Books", inf.CollectionName("books"))
	assert.Equal(t, "Categories", inf.CollectionName("categories"))
	assert.Equal(t, "People", inf.CollectionName("people"))

	raw := NewInflector(false)
	assert.Equal(t, "Books", raw.CollectionName("books"))
}

func TestAttrName(t *testing.T) {
	inf := NewInflector(true)
	assert.Equal(t, "AuthorID", inf.AttrName("author_id"))
	assert.Equal(t, "CreatedAt", inf.AttrName("created_at"))
}

// Round-trip: the class name of a table maps back to the table via
// snake + pluralization, modulo the singularization switch.
func TestClassNameRoundTrip(t *testing.T) {
	inf := NewInflector(true)
	for _, table := range []string{"books", "categories", "users"} {
		class := inf.ClassName(table)
		back := snake(rules.Pluralize(class))
		assert.Equal(t, table, back)
	}
}

func TestRelStem(t *testing.T) {
	tests := []struct {
		columns  []string
		expected string
	}{
		{[]string{"author_id"}, "author"},
		{[]string{"manager_id"}, "manager"},
		{[]string{"owner"}, "owner"},
		{[]string{"id"}, "id"},
		{[]string{"org_id", "team_id"}, "org_team"},
	}
	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, relStem(tt.columns))
		})
	}
}
