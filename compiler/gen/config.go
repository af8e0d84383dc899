package gen

import (
	"fmt"
	"log/slog"
	"os"
	"path"
	"runtime"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/syssam/omgen/compiler/load"
)

// Build property keys read by the builders.
const (
	PropAddIncludes   = "addIncludes"
	PropClassPrefix   = "classPrefix"
	PropTargetPackage = "targetPackage"
	PropNamespaceOm   = "namespaceOm"
	PropNamespaceMap  = "namespaceMap"
	PropBasePeer      = "basePeer"
)

const defaultBasePeer = "propel.util.BasePeer"

type (
	// Config holds the global codegen configuration shared by all builders.
	Config struct {
		// Target is the directory the generated files are written to.
		Target string
		// Properties holds the build properties (see the Prop* keys).
		Properties map[string]string
		// Features enabled for the codegen.
		Features []Feature
		// Workers bounds the number of artifacts built in parallel.
		Workers int
		// Pluralizer used for relation accessor names.
		Pluralizer Pluralizer
		// FilePath maps a package path and a class name to a file path.
		FilePath FilePathFunc
		// Behaviors resolves the behavior entries of the schema.
		Behaviors BehaviorFactory
		// Logger used by the generator. Defaults to slog.Default().
		Logger *slog.Logger
	}

	// FilePathFunc builds the path of a class file.
	FilePathFunc func(packagePath, className string) string

	// BehaviorFactory creates the behavior described by def for table t.
	BehaviorFactory func(def *load.Behavior, t *Table) (Behavior, error)
)

// DefaultConfig returns a config with the default pluralizer, file-path
// builder and logger.
func DefaultConfig() *Config {
	return &Config{
		Properties: make(map[string]string),
		Workers:    runtime.GOMAXPROCS(0),
		Pluralizer: NewInflectPluralizer(),
		FilePath:   PHPFilePath,
		Logger:     slog.Default(),
	}
}

// PHPFilePath is the default FilePathFunc.
func PHPFilePath(packagePath, className string) string {
	return path.Join(packagePath, className+".php")
}

// BuildProperty returns the raw value of a build property.
func (c *Config) BuildProperty(key string) string {
	if c == nil {
		return ""
	}
	return c.Properties[key]
}

// AddIncludes reports if builders should emit include statements.
func (c *Config) AddIncludes() bool {
	v, err := strconv.ParseBool(c.BuildProperty(PropAddIncludes))
	return err == nil && v
}

// ClassPrefix returns the configured class-name prefix.
func (c *Config) ClassPrefix() string { return c.BuildProperty(PropClassPrefix) }

// TargetPackage returns the fallback package of the tables.
func (c *Config) TargetPackage() string { return c.BuildProperty(PropTargetPackage) }

// NamespaceOm returns the sub-namespace of the base classes.
func (c *Config) NamespaceOm() string {
	if v := c.BuildProperty(PropNamespaceOm); v != "" {
		return v
	}
	return "om"
}

// NamespaceMap returns the sub-namespace of the table maps.
func (c *Config) NamespaceMap() string {
	if v := c.BuildProperty(PropNamespaceMap); v != "" {
		return v
	}
	return "map"
}

// BasePeer returns the configured default base peer class.
func (c *Config) BasePeer() string {
	if v := c.BuildProperty(PropBasePeer); v != "" {
		return v
	}
	return defaultBasePeer
}

// FeatureEnabled reports if the given feature name is enabled.
// It's exported to be used by the builders.
func (c Config) FeatureEnabled(name string) (bool, error) {
	for _, f := range allFeatures {
		if name == f.Name {
			return c.HasFeature(name), nil
		}
	}
	return false, NewConfigError("Features", name, "unexpected feature name")
}

// HasFeature reports if the feature is listed in the config.
func (c Config) HasFeature(name string) bool {
	for _, f := range c.Features {
		if f.Name == name {
			return true
		}
	}
	return false
}

func (c *Config) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

func (c *Config) pluralizer() Pluralizer {
	if c.Pluralizer != nil {
		return c.Pluralizer
	}
	return NewInflectPluralizer()
}

func (c *Config) filePath() FilePathFunc {
	if c.FilePath != nil {
		return c.FilePath
	}
	return PHPFilePath
}

// fileConfig is the layout of an omgen.yaml file.
type fileConfig struct {
	Target     string            `yaml:"target"`
	Workers    int               `yaml:"workers"`
	Features   []string          `yaml:"features"`
	Properties map[string]string `yaml:"properties"`
}

// LoadConfigFile reads an omgen.yaml file and returns the options it
// describes. Unknown feature names are reported as a ConfigError.
func LoadConfigFile(name string) ([]Option, error) {
	buf, err := os.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("omgen: read config: %w", err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(buf, &fc); err != nil {
		return nil, fmt.Errorf("omgen: parse config %s: %w", name, err)
	}
	var opts []Option
	if fc.Target != "" {
		opts = append(opts, WithTarget(fc.Target))
	}
	if fc.Workers > 0 {
		opts = append(opts, WithWorkers(fc.Workers))
	}
	for k, v := range fc.Properties {
		opts = append(opts, WithProperty(k, v))
	}
	if len(fc.Features) > 0 {
		opts = append(opts, WithFeatureNames(fc.Features...))
	}
	return opts, nil
}
