package gen

import (
	"go/token"
	"strings"
	"unicode"

	"github.com/go-openapi/inflect"
)

var rules = ruleset()

// acronyms are kept uppercase when pascalizing identifiers.
var acronyms = make(map[string]struct{})

func ruleset() *inflect.Ruleset {
	rules := inflect.NewDefaultRuleset()
	for _, w := range []string{
		"ACL", "API", "ASCII", "CPU", "CSS", "DNS", "EOF", "GUID", "HTML", "HTTP", "HTTPS", "ID", "IP",
		"JSON", "LHS", "QPS", "RAM", "RHS", "RPC", "SLA", "SMTP", "SQL", "SSH", "TCP", "TLS", "TTL", "UDP",
		"UI", "UID", "UUID", "URI", "URL", "UTF8", "VM", "XML", "XMPP", "XSRF", "XSS",
	} {
		acronyms[w] = struct{}{}
		rules.AddAcronym(w)
	}
	return rules
}

// Inflector converts raw schema names into Go identifiers. Class names
// are singular pascal-case, attribute names pascal-case, collection
// attributes pluralized. All conversions are deterministic.
type Inflector struct {
	singularize bool
}

// NewInflector creates an Inflector. With singularize false, table
// names are kept verbatim (only converted to a valid identifier).
func NewInflector(singularize bool) *Inflector {
	return &Inflector{singularize: singularize}
}

// ClassName derives the model type name for a table.
func (f *Inflector) ClassName(table string) string {
	name := table
	if f.singularize {
		name = singular(name)
	}
	return ident(pascal(name))
}

// AttrName derives the struct field name for a column or a
// single-object relationship.
func (f *Inflector) AttrName(name string) string {
	return ident(pascal(name))
}

// CollectionName derives the attribute name for a collection of the
// given table's models. With inflection disabled the raw table name is
// used as-is, since it is usually already plural.
func (f *Inflector) CollectionName(table string) string {
	if !f.singularize {
		return ident(pascal(table))
	}
	return ident(plural(pascal(singular(table))))
}

// plural pluralizes an identifier. Identifiers that the ruleset cannot
// pluralize (already plural, uncountable) get a "Slice" suffix so the
// result is always distinct from the input.
func plural(name string) string {
	p := rules.Pluralize(name)
	if p == name {
		p += "Slice"
	}
	return p
}

// singular singularizes an identifier, falling back to the input when
// the ruleset has no answer.
func singular(name string) string {
	return rules.Singularize(name)
}

// ident makes name a valid, non-reserved Go identifier. The fallbacks
// are deterministic: a leading digit gets an "X" prefix, a keyword
// collision gets a "_" suffix.
func ident(name string) string {
	if name == "" {
		return "X"
	}
	if r := rune(name[0]); unicode.IsDigit(r) {
		name = "X" + name
	}
	if token.Lookup(name).IsKeyword() {
		name += "_"
	}
	return name
}

// pascal converts a delimiter-separated or mixed-case name to
// pascal-case, keeping known acronyms uppercase.
func pascal(s string) string {
	words := strings.FieldsFunc(s, isSeparator)
	for i, w := range words {
		if upper := strings.ToUpper(w); isAcronym(upper) {
			words[i] = upper
			continue
		}
		words[i] = rules.Capitalize(w)
	}
	return strings.Join(words, "")
}

// snake converts a mixed-case identifier to snake_case, splitting
// acronym boundaries ("HTTPCode" becomes "http_code").
func snake(s string) string {
	var (
		j int
		b strings.Builder
	)
	for i := 0; i < len(s); i++ {
		r := rune(s[i])
		// Split if it is not the start or end of a word, the current
		// letter is uppercase, and the previous is lowercase or the
		// next is lowercase.
		if i > 0 && i < len(s)-1 && unicode.IsUpper(r) {
			if unicode.IsLower(rune(s[i-1])) ||
				j != i-1 && unicode.IsLower(rune(s[i+1])) && unicode.IsLetter(rune(s[i-1])) {
				j = i
				b.WriteString("_")
			}
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

func isSeparator(r rune) bool {
	return r == '_' || r == '-' || r == ' ' || r == '.'
}

func isAcronym(w string) bool {
	_, ok := acronyms[w]
	return ok
}

// relStem derives the relationship attribute stem from foreign-key
// columns: "author_id" yields "author", composite keys join their
// stems. A column that is nothing but an id suffix keeps its name.
func relStem(columns []string) string {
	stems := make([]string, 0, len(columns))
	for _, c := range columns {
		s := snake(c)
		if t := strings.TrimSuffix(s, "_id"); t != s && t != "" {
			s = t
		}
		stems = append(stems, s)
	}
	return strings.Join(stems, "_")
}
