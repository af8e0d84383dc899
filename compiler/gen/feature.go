package gen

import (
	"os"
	"path/filepath"
)

// Names of the files written at the root of the target directory.
const (
	ManifestFile = "omgen.manifest.json"
	SDLFile      = "schema.graphql"
	CacheFile    = ".omgen.cache"
)

var (
	// FeatureStubs generates the empty, user-editable classes extending the
	// base classes. Existing stubs are never overwritten.
	FeatureStubs = Feature{
		Name:        "stubs",
		Stage:       Stable,
		Default:     true,
		Description: "Generates the user-editable object, query and peer classes extending the base classes",
	}

	// FeatureTableMap generates a table map class per table.
	FeatureTableMap = Feature{
		Name:        "tablemap",
		Stage:       Stable,
		Default:     true,
		Description: "Generates the table map classes describing columns and relations at runtime",
		cleanup: func(g *Generator) error {
			paths, err := g.paths(KindTableMap)
			if err != nil {
				return err
			}
			for _, p := range paths {
				if err := remove(filepath.Join(g.config.Target, filepath.Dir(p)), filepath.Base(p)); err != nil {
					return err
				}
			}
			return nil
		},
	}

	// FeatureSDL exports the schema as a GraphQL SDL document.
	FeatureSDL = Feature{
		Name:        "sdl",
		Stage:       Alpha,
		Default:     false,
		Description: "Exports the tables and their relations as a GraphQL schema document",
		cleanup: func(g *Generator) error {
			return remove(g.config.Target, SDLFile)
		},
	}

	// FeatureManifest writes a JSON manifest listing every generated artifact.
	FeatureManifest = Feature{
		Name:        "manifest",
		Stage:       Beta,
		Default:     false,
		Description: "Writes a manifest of the generated artifacts with stable identifiers",
		cleanup: func(g *Generator) error {
			return remove(g.config.Target, ManifestFile)
		},
	}

	// FeatureCache skips rewriting files whose content did not change since
	// the previous run.
	FeatureCache = Feature{
		Name:        "cache",
		Stage:       Experimental,
		Default:     false,
		Description: "Keeps a content-hash cache of the generated files to skip unchanged writes",
		cleanup: func(g *Generator) error {
			return remove(g.config.Target, CacheFile)
		},
	}

	// AllFeatures holds a list of all feature-flags.
	AllFeatures = []Feature{
		FeatureStubs,
		FeatureTableMap,
		FeatureSDL,
		FeatureManifest,
		FeatureCache,
	}
	// allFeatures includes all public and private features.
	allFeatures = AllFeatures
)

// FeatureStage describes the stage of the codegen feature.
type FeatureStage int

const (
	_ FeatureStage = iota

	// Experimental features are in development and may change or go away.
	Experimental

	// Alpha features are complete but their output may still change.
	Alpha

	// Beta features are documented, and no breaking-changes are expected.
	Beta

	// Stable features are Beta features that were running for a while.
	Stable
)

// A Feature of the codegen.
type Feature struct {
	// Name of the feature.
	Name string

	// Stage of the feature.
	Stage FeatureStage

	// Default values indicates if this feature is enabled by default.
	Default bool

	// A Description of this feature.
	Description string

	// cleanup used to cleanup all changes when a feature-flag is removed.
	// e.g. delete files from previous codegen runs.
	cleanup func(*Generator) error
}

// FeatureByName returns the feature with the given name.
func FeatureByName(name string) (Feature, bool) {
	for _, f := range allFeatures {
		if f.Name == name {
			return f, true
		}
	}
	return Feature{}, false
}

// DefaultFeatures returns the features enabled by default.
func DefaultFeatures() []Feature {
	var fs []Feature
	for _, f := range AllFeatures {
		if f.Default {
			fs = append(fs, f)
		}
	}
	return fs
}

// cleanupFeatures runs the cleanup of every disabled feature. Only files
// the generator itself produces are removed.
func cleanupFeatures(g *Generator) error {
	for _, f := range allFeatures {
		if f.cleanup == nil || g.config.HasFeature(f.Name) {
			continue
		}
		if err := f.cleanup(g); err != nil {
			return NewGenerationError("cleanup", f.Name, "feature cleanup failed", err)
		}
	}
	return nil
}

// remove file (if exists) and its dir if it's empty.
func remove(dir, file string) error {
	if err := os.Remove(filepath.Join(dir, file)); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	infos, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	if len(infos) == 0 {
		return os.Remove(dir)
	}
	return nil
}
