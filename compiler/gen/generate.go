package gen

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Extension generates a database-level file when its feature is enabled.
type Extension interface {
	// Feature returns the name of the feature gating the extension.
	Feature() string
	// Generate returns the path (relative to the target) and the content
	// of the file.
	Generate(db *Database) (string, []byte, error)
}

// File describes one artifact handled by a generation run.
type File struct {
	Table string
	Kind  string
	// Class is the fully qualified class name.
	Class string
	// Path is relative to the target directory.
	Path string
	// Written is false for existing stubs and unchanged files.
	Written bool
}

// Generator builds every artifact of a database and writes it under the
// configured target.
type Generator struct {
	config *Config
	db     *Database
	kinds  []Artifact
	exts   []Extension

	metrics WriterMetrics
}

// NewGenerator returns a generator of the given artifact kinds.
func NewGenerator(c *Config, db *Database, kinds []Artifact, exts ...Extension) *Generator {
	return &Generator{config: c, db: db, kinds: kinds, exts: exts}
}

// Metrics returns the metrics of the last run.
func (g *Generator) Metrics() WriterMetrics { return g.metrics }

// Kinds returns the artifact kinds enabled by the configured features.
func (g *Generator) Kinds() []Artifact {
	var kinds []Artifact
	for _, k := range g.kinds {
		switch {
		case isStub(k) && !g.config.HasFeature(FeatureStubs.Name):
		case k.Kind() == KindTableMap && !g.config.HasFeature(FeatureTableMap.Name):
		default:
			kinds = append(kinds, k)
		}
	}
	return kinds
}

// Build generates the artifacts in memory without writing them. The result
// is ordered by table, then by kind.
func (g *Generator) Build(ctx context.Context) ([]File, [][]byte, error) {
	builders, err := g.builders()
	if err != nil {
		return nil, nil, err
	}
	files := make([]File, len(builders))
	contents := make([][]byte, len(builders))
	errg, ctx := errgroup.WithContext(ctx)
	errg.SetLimit(g.workers())
	for i, b := range builders {
		errg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			out, err := b.Build()
			if err != nil {
				return err
			}
			files[i] = fileOf(b)
			contents[i] = []byte(out)
			return nil
		})
	}
	if err := errg.Wait(); err != nil {
		return nil, nil, err
	}
	return files, contents, nil
}

// Generate builds all artifacts and writes them under the target directory.
// Existing stubs are never overwritten.
func (g *Generator) Generate(ctx context.Context) ([]File, error) {
	if g.config.Target == "" {
		return nil, NewConfigError("Target", nil, "missing target directory in config")
	}
	if err := os.MkdirAll(g.config.Target, 0o755); err != nil {
		return nil, NewGenerationError("write", g.config.Target, "create output directory", err)
	}
	w, err := g.writer()
	if err != nil {
		return nil, err
	}
	builders, err := g.builders()
	if err != nil {
		return nil, err
	}
	files := make([]File, len(builders))
	errg, ctx := errgroup.WithContext(ctx)
	errg.SetLimit(g.workers())
	for i, b := range builders {
		errg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			files[i] = fileOf(b)
			if b.IsStub() && w.exists(files[i].Path) {
				w.skipStub(files[i].Path)
				return nil
			}
			out, err := b.Build()
			if err != nil {
				return err
			}
			files[i].Written, err = w.write(files[i].Path, []byte(out))
			if err != nil {
				return NewGenerationError("write", files[i].Path, "", err)
			}
			return nil
		})
	}
	if err := errg.Wait(); err != nil {
		return nil, err
	}
	for _, ext := range g.exts {
		if !g.config.HasFeature(ext.Feature()) {
			continue
		}
		name, content, err := ext.Generate(g.db)
		if err != nil {
			return nil, NewGenerationError(ext.Feature(), name, "", err)
		}
		if _, err := w.write(name, content); err != nil {
			return nil, NewGenerationError(ext.Feature(), name, "", err)
		}
	}
	if g.config.HasFeature(FeatureManifest.Name) {
		if err := g.writeManifest(w, files); err != nil {
			return nil, err
		}
	}
	if err := w.flush(); err != nil {
		return nil, NewGenerationError("cache", CacheFile, "", err)
	}
	if err := cleanupFeatures(g); err != nil {
		return nil, err
	}
	g.metrics = w.Metrics()
	g.config.logger().Info("generation done",
		"database", g.db.Name,
		"written", g.metrics.FilesWritten,
		"unchanged", g.metrics.FilesUnchanged,
		"stubs_skipped", g.metrics.StubsSkipped,
	)
	return files, nil
}

func (g *Generator) builders() ([]*Builder, error) {
	if g.db == nil {
		return nil, NewArgumentError("db", "no database specified")
	}
	kinds := g.Kinds()
	if len(kinds) == 0 {
		return nil, NewConfigError("Kinds", nil, "no artifact kind enabled")
	}
	builders := make([]*Builder, 0, len(g.db.Tables)*len(kinds))
	for _, t := range g.db.Tables {
		if !t.HasPrimaryKey() {
			g.config.logger().Warn("table has no primary key", "table", t.Name)
		}
		for _, k := range kinds {
			b, err := NewBuilder(g.config, t, k, g.kinds...)
			if err != nil {
				return nil, err
			}
			builders = append(builders, b)
		}
	}
	return builders, nil
}

// paths returns the files the registered artifact of the given kind
// produces for the tables of the database, relative to the target.
func (g *Generator) paths(kind string) ([]string, error) {
	i := slices.IndexFunc(g.kinds, func(a Artifact) bool { return a.Kind() == kind })
	if i < 0 || g.db == nil {
		return nil, nil
	}
	paths := make([]string, 0, len(g.db.Tables))
	for _, t := range g.db.Tables {
		b, err := NewBuilder(g.config, t, g.kinds[i], g.kinds...)
		if err != nil {
			return nil, err
		}
		paths = append(paths, b.ClassFilePath())
	}
	return paths, nil
}

func (g *Generator) writer() (*fileWriter, error) {
	w := newFileWriter(g.config.Target, nil, g.config.logger())
	if g.config.HasFeature(FeatureCache.Name) {
		c, err := openCache(g.config)
		if err != nil {
			return nil, NewGenerationError("cache", CacheFile, "open build cache", err)
		}
		w.cache = c
	}
	return w, nil
}

func (g *Generator) workers() int {
	if g.config.Workers > 0 {
		return g.config.Workers
	}
	return 1
}

func fileOf(b *Builder) File {
	return File{
		Table: b.Table().Name,
		Kind:  b.Artifact().Kind(),
		Class: b.FullyQualifiedClassName(),
		Path:  filepath.ToSlash(b.ClassFilePath()),
	}
}

func isStub(a Artifact) bool {
	s, ok := a.(Stub)
	return ok && s.Stub()
}

// =============================================================================
// Manifest
// =============================================================================

// Manifest lists the artifacts of a database.
type Manifest struct {
	Database  string          `json:"database"`
	Artifacts []ManifestEntry `json:"artifacts"`
}

// ManifestEntry describes one artifact. The ID only depends on the database
// name and the class name, so it is stable across runs.
type ManifestEntry struct {
	ID    uuid.UUID `json:"id"`
	Table string    `json:"table"`
	Kind  string    `json:"kind"`
	Class string    `json:"class"`
	Path  string    `json:"path"`
}

// ArtifactID returns the stable identifier of a class of a database.
func ArtifactID(db, class string) uuid.UUID {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(fmt.Sprintf("omgen://%s/%s", db, class)))
}

// NewManifest returns the manifest of the given files, sorted by path.
func NewManifest(db string, files []File) *Manifest {
	m := &Manifest{Database: db, Artifacts: make([]ManifestEntry, 0, len(files))}
	for _, f := range files {
		m.Artifacts = append(m.Artifacts, ManifestEntry{
			ID:    ArtifactID(db, f.Class),
			Table: f.Table,
			Kind:  f.Kind,
			Class: f.Class,
			Path:  f.Path,
		})
	}
	slices.SortFunc(m.Artifacts, func(a, b ManifestEntry) int {
		return strings.Compare(a.Path, b.Path)
	})
	return m
}

func (g *Generator) writeManifest(w *fileWriter, files []File) error {
	buf, err := json.MarshalIndent(NewManifest(g.db.Name, files), "", "  ")
	if err != nil {
		return NewGenerationError("manifest", ManifestFile, "", err)
	}
	if _, err := w.write(ManifestFile, append(buf, '\n')); err != nil {
		return NewGenerationError("manifest", ManifestFile, "", err)
	}
	return nil
}
