package gen

import (
	"errors"
	"log/slog"
	"strconv"
)

// Option configures code generation.
type Option func(*Config) error

// WithTarget sets the output directory.
// The directory where generated files will be written.
func WithTarget(dir string) Option {
	return func(c *Config) error {
		if dir == "" {
			return NewConfigError("Target", nil, "target directory cannot be empty")
		}
		c.Target = dir
		return nil
	}
}

// WithProperty sets a build property.
func WithProperty(key, value string) Option {
	return func(c *Config) error {
		if key == "" {
			return NewConfigError("Properties", value, "property key cannot be empty")
		}
		if c.Properties == nil {
			c.Properties = make(map[string]string)
		}
		c.Properties[key] = value
		return nil
	}
}

// WithClassPrefix sets the prefix prepended to every generated class name.
func WithClassPrefix(prefix string) Option {
	return WithProperty(PropClassPrefix, prefix)
}

// WithTargetPackage sets the package used by tables that declare none.
func WithTargetPackage(pkg string) Option {
	return func(c *Config) error {
		if pkg == "" {
			return NewConfigError("TargetPackage", nil, "package cannot be empty")
		}
		return WithProperty(PropTargetPackage, pkg)(c)
	}
}

// WithAddIncludes toggles include statements in the base classes.
func WithAddIncludes(v bool) Option {
	return WithProperty(PropAddIncludes, strconv.FormatBool(v))
}

// WithFeatures enables specific features.
// Features control optional code generation capabilities.
func WithFeatures(features ...Feature) Option {
	return func(c *Config) error {
		c.Features = append(c.Features, features...)
		return nil
	}
}

// WithFeatureNames enables features by their names.
func WithFeatureNames(names ...string) Option {
	return func(c *Config) error {
		for _, name := range names {
			f, ok := FeatureByName(name)
			if !ok {
				return NewConfigError("Features", name, "unexpected feature name")
			}
			c.Features = append(c.Features, f)
		}
		return nil
	}
}

// WithWorkers sets the number of artifacts built in parallel.
func WithWorkers(n int) Option {
	return func(c *Config) error {
		if n <= 0 {
			return NewConfigError("Workers", n, "workers must be positive")
		}
		c.Workers = n
		return nil
	}
}

// WithPluralizer sets the pluralizer used for relation names.
func WithPluralizer(p Pluralizer) Option {
	return func(c *Config) error {
		if p == nil {
			return NewConfigError("Pluralizer", nil, "pluralizer cannot be nil")
		}
		c.Pluralizer = p
		return nil
	}
}

// WithFilePath sets the class file-path builder.
func WithFilePath(fn FilePathFunc) Option {
	return func(c *Config) error {
		if fn == nil {
			return NewConfigError("FilePath", nil, "file path builder cannot be nil")
		}
		c.FilePath = fn
		return nil
	}
}

// WithBehaviorFactory sets the factory resolving schema behaviors.
func WithBehaviorFactory(f BehaviorFactory) Option {
	return func(c *Config) error {
		if f == nil {
			return NewConfigError("Behaviors", nil, "behavior factory cannot be nil")
		}
		c.Behaviors = f
		return nil
	}
}

// WithLogger sets the logger of the generator.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) error {
		if l == nil {
			return NewConfigError("Logger", nil, "logger cannot be nil")
		}
		c.Logger = l
		return nil
	}
}

// Apply applies options to the config.
// It returns the first error encountered.
func (c *Config) Apply(opts ...Option) error {
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return err
		}
	}
	return nil
}

// ApplyAll applies options and collects all errors.
// Returns a joined error if any options failed.
func (c *Config) ApplyAll(opts ...Option) error {
	var errs []error
	for _, opt := range opts {
		if err := opt(c); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NewConfig creates a new Config from the defaults and the given options.
// The default features are enabled when no option selects any.
func NewConfig(opts ...Option) (*Config, error) {
	c := DefaultConfig()
	if err := c.Apply(opts...); err != nil {
		return nil, err
	}
	if len(c.Features) == 0 {
		c.Features = DefaultFeatures()
	}
	return c, nil
}

// MustNewConfig creates a new Config with the given options.
// It panics if any option fails.
func MustNewConfig(opts ...Option) *Config {
	c, err := NewConfig(opts...)
	if err != nil {
		panic(err)
	}
	return c
}
