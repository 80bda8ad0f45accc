// Package gen turns an inspected schema into generated Go model source.
// It is a pure transformation: the schema, the override tables and the
// configuration go in, one rendered source module comes out. Any
// ambiguity or bad override aborts the run; there is no partial output.
package gen

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for the failure taxonomy.
var (
	// ErrConfig indicates bad override data or an invalid option.
	ErrConfig = errors.New("sqlacodegen: configuration error")
	// ErrResolve indicates the relationship resolver refused to guess.
	ErrResolve = errors.New("sqlacodegen: unresolved relationship")
	// ErrNaming indicates a name collision that has no deterministic fix.
	ErrNaming = errors.New("sqlacodegen: naming collision")
)

// ConfigError reports invalid override data: an override referencing a
// table or foreign key that does not exist, more than one mixin for the
// same table, and similar author mistakes.
type ConfigError struct {
	// Entry identifies the offending override entry (e.g. "mixin",
	// "backref", "patch", "extra").
	Entry string
	// Table is the table (or class) the entry refers to.
	Table   string
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	var b strings.Builder
	b.WriteString("sqlacodegen: config error")
	if e.Entry != "" {
		b.WriteString(" in ")
		b.WriteString(e.Entry)
		b.WriteString(" entry")
	}
	if e.Table != "" {
		b.WriteString(" for ")
		b.WriteString(quote(e.Table))
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	return b.String()
}

// Is reports whether the target matches the sentinel for ConfigError.
func (e *ConfigError) Is(target error) bool {
	return target == ErrConfig
}

// NewConfigError creates a new ConfigError.
func NewConfigError(entry, table, message string) *ConfigError {
	return &ConfigError{Entry: entry, Table: table, Message: message}
}

// ResolveError reports a relationship the resolver could not derive
// without guessing, such as multiple foreign keys between the same
// table pair whose derived names collide.
type ResolveError struct {
	// Table is the table owning the ambiguous relationship.
	Table string
	// Ref is the referenced table.
	Ref     string
	Message string
}

// Error implements the error interface.
func (e *ResolveError) Error() string {
	var b strings.Builder
	b.WriteString("sqlacodegen: cannot resolve relationship")
	if e.Table != "" {
		b.WriteString(" from ")
		b.WriteString(quote(e.Table))
	}
	if e.Ref != "" {
		b.WriteString(" to ")
		b.WriteString(quote(e.Ref))
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	return b.String()
}

// Is reports whether the target matches the sentinel for ResolveError.
func (e *ResolveError) Is(target error) bool {
	return target == ErrResolve
}

// NewResolveError creates a new ResolveError.
func NewResolveError(table, ref, message string) *ResolveError {
	return &ResolveError{Table: table, Ref: ref, Message: message}
}

// NamingError reports an identifier collision that survived the
// deterministic fallbacks, e.g. two tables inflecting to the same
// class name after schema qualification was already applied.
type NamingError struct {
	// Table is the table whose derived name collided.
	Table string
	// Name is the colliding identifier.
	Name    string
	Message string
}

// Error implements the error interface.
func (e *NamingError) Error() string {
	var b strings.Builder
	b.WriteString("sqlacodegen: naming collision")
	if e.Name != "" {
		b.WriteString(" on ")
		b.WriteString(quote(e.Name))
	}
	if e.Table != "" {
		b.WriteString(" derived from table ")
		b.WriteString(quote(e.Table))
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	return b.String()
}

// Is reports whether the target matches the sentinel for NamingError.
func (e *NamingError) Is(target error) bool {
	return target == ErrNaming
}

// NewNamingError creates a new NamingError.
func NewNamingError(table, name, message string) *NamingError {
	return &NamingError{Table: table, Name: name, Message: message}
}

func quote(s string) string {
	return fmt.Sprintf("%q", s)
}
