package gen

// Config controls one generation run. All switches default to off,
// matching the behavior of running the tool with no flags. The zero
// value is usable.
type Config struct {
	// NoViews excludes views from generation.
	NoViews bool
	// NoIndexes drops index information from the rendered models.
	NoIndexes bool
	// NoConstraints drops unique and check constraint information.
	NoConstraints bool
	// NoJoined disables joined-table inheritance autodetection.
	NoJoined bool
	// NoInflect disables singularization of table names.
	NoInflect bool
	// NoClasses renders table/column constants only, no model structs.
	NoClasses bool
	// NoComments drops column comments from the rendered models.
	NoComments bool
	// PassiveDeletes renders the ON DELETE action of each foreign key
	// on the corresponding relationship field.
	PassiveDeletes bool
	// Package is the package name of the generated file.
	Package string
	// Header is the first comment line of the generated file.
	Header string
	// Version is an opaque value rendered as the SchemaVersion
	// constant. Empty means no constant.
	Version string
}

const (
	defaultPackage = "models"
	defaultHeader  = "Code generated by sqlacodegen. DO NOT EDIT."
)

// Option configures a generation run.
type Option func(*Config) error

// WithoutViews excludes views from the generated module.
func WithoutViews() Option {
	return func(c *Config) error {
		c.NoViews = true
		return nil
	}
}

// WithoutIndexes drops index information from the generated models.
func WithoutIndexes() Option {
	return func(c *Config) error {
		c.NoIndexes = true
		return nil
	}
}

// WithoutConstraints drops unique and check constraints from the
// generated models.
func WithoutConstraints() Option {
	return func(c *Config) error {
		c.NoConstraints = true
		return nil
	}
}

// WithoutInheritance disables joined-table inheritance detection; a
// subclass-looking table becomes a plain one-to-one relationship.
func WithoutInheritance() Option {
	return func(c *Config) error {
		c.NoJoined = true
		return nil
	}
}

// WithoutInflection keeps table names as-is instead of singularizing
// them for class names.
func WithoutInflection() Option {
	return func(c *Config) error {
		c.NoInflect = true
		return nil
	}
}

// TablesOnly renders table and column constants instead of model
// structs.
func TablesOnly() Option {
	return func(c *Config) error {
		c.NoClasses = true
		return nil
	}
}

// WithoutComments drops column comments from the generated models.
func WithoutComments() Option {
	return func(c *Config) error {
		c.NoComments = true
		return nil
	}
}

// WithPassiveDeletes renders ON DELETE actions on relationship fields.
func WithPassiveDeletes() Option {
	return func(c *Config) error {
		c.PassiveDeletes = true
		return nil
	}
}

// WithPackage sets the package name of the generated file.
func WithPackage(pkg string) Option {
	return func(c *Config) error {
		if pkg == "" {
			return NewConfigError("option", "", "package name cannot be empty")
		}
		c.Package = pkg
		return nil
	}
}

// WithHeader sets the header comment of the generated file.
func WithHeader(header string) Option {
	return func(c *Config) error {
		c.Header = header
		return nil
	}
}

// WithVersion embeds the given opaque value as the SchemaVersion
// constant.
func WithVersion(v string) Option {
	return func(c *Config) error {
		c.Version = v
		return nil
	}
}

// Apply applies options to the config. It returns the first error
// encountered.
func (c *Config) Apply(opts ...Option) error {
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return err
		}
	}
	return nil
}

// NewConfig creates a new Config with the given options.
func NewConfig(opts ...Option) (*Config, error) {
	c := &Config{}
	if err := c.Apply(opts...); err != nil {
		return nil, err
	}
	if c.Package == "" {
		c.Package = defaultPackage
	}
	if c.Header == "" {
		c.Header = defaultHeader
	}
	return c, nil
}

// BackRefOverride replaces the derived naming of the relationship pair
// produced by one foreign key between SourceTable and TargetTable.
// When more than one foreign key connects the pair, Columns carries the
// referencing column names that single out the intended one.
type BackRefOverride struct {
	// SourceTable is the referencing (child) table.
	SourceTable string
	// TargetTable is the referenced (parent) table.
	TargetTable string
	// Name is the override name for the child-side attribute. The
	// mirrored back-reference is named after it as well.
	Name string
	// Columns disambiguates between multiple foreign keys of the
	// same table pair. Empty matches a pair with a single key.
	Columns []string
	// JoinCondition optionally replaces the derived join columns
	// with an explicit condition, rendered as documentation on the
	// relationship field.
	JoinCondition string
	// Single forces a single-object back-reference regardless of
	// foreign-key uniqueness.
	Single bool
	// NoBackRef suppresses the mirrored attribute on the target
	// class entirely.
	NoBackRef bool
}

// MixinRef names an additional base type embedded into the generated
// model of a table. At most one mixin is permitted per table.
type MixinRef struct {
	// Table is the table whose model receives the mixin.
	Table string
	// PkgPath is the import path of the package defining the mixin.
	PkgPath string
	// TypeName is the mixin type name inside PkgPath.
	TypeName string
}

// Overrides groups the caller-supplied override tables. The loader
// package populates it from override files; the core only validates
// and consumes it.
type Overrides struct {
	// BackRefs are the relationship naming overrides.
	BackRefs []BackRefOverride
	// Mixins assign one extra base type per table.
	Mixins []MixinRef
	// Patches map a table name to verbatim source fragments placed
	// after the generated struct, in file order.
	Patches map[string][]string
	// Extras map a generated class name to a verbatim source
	// fragment appended as additional methods.
	Extras map[string]string
}
