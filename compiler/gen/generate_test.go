package gen_test

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/omgen/compiler/gen"
	"github.com/syssam/omgen/compiler/gen/om"
	"github.com/syssam/omgen/compiler/load"
)

const bookstore = `
name: bookstore
package: bookstore
namespace: Bookstore\Model
tables:
  - name: author
    columns:
      - {name: id, type: INTEGER, primaryKey: true, autoIncrement: true, required: true}
      - {name: name, type: VARCHAR, size: 128}
  - name: book
    columns:
      - {name: id, type: INTEGER, primaryKey: true, autoIncrement: true, required: true}
      - {name: title, type: VARCHAR, size: 255, required: true}
      - {name: author_id, type: INTEGER, required: true}
    foreignKeys:
      - foreignTable: author
        references:
          - {local: author_id, foreign: id}
`

func newGenerator(t *testing.T, src string, opts ...gen.Option) (*gen.Generator, *gen.Config) {
	t.Helper()
	def, err := load.UnmarshalDatabase([]byte(src), load.FormatYAML)
	require.NoError(t, err)
	opts = append([]gen.Option{gen.WithLogger(slog.New(slog.DiscardHandler))}, opts...)
	c, err := gen.NewConfig(opts...)
	require.NoError(t, err)
	db, err := gen.NewDatabase(c, def)
	require.NoError(t, err)
	return gen.NewGenerator(c, db, om.Kinds()), c
}

func readFile(t *testing.T, dir, name string) string {
	t.Helper()
	buf, err := os.ReadFile(filepath.Join(dir, name))
	require.NoError(t, err)
	return string(buf)
}

func TestGenerate(t *testing.T) {
	target := t.TempDir()
	g, _ := newGenerator(t, bookstore, gen.WithTarget(target))
	files, err := g.Generate(context.Background())
	require.NoError(t, err)
	require.Len(t, files, 14)
	for _, f := range files {
		assert.True(t, f.Written, f.Path)
		assert.FileExists(t, filepath.Join(target, filepath.FromSlash(f.Path)))
	}
	assert.Equal(t, gen.File{
		Table:   "author",
		Kind:    gen.KindObject,
		Class:   `Bookstore\Model\om\BaseAuthor`,
		Path:    "bookstore/om/BaseAuthor.php",
		Written: true,
	}, files[0])
	assert.Contains(t, readFile(t, target, "bookstore/map/BookTableMap.php"), "class BookTableMap extends TableMap")
	assert.Contains(t, readFile(t, target, "bookstore/Book.php"), "class Book extends BaseBook")
	assert.Equal(t, 14, g.Metrics().FilesWritten)
	assert.NoFileExists(t, filepath.Join(target, gen.ManifestFile))
	assert.NoFileExists(t, filepath.Join(target, gen.CacheFile))
}

func TestGenerateKeepsStubs(t *testing.T) {
	target := t.TempDir()
	g, _ := newGenerator(t, bookstore, gen.WithTarget(target))
	_, err := g.Generate(context.Background())
	require.NoError(t, err)

	const custom = "<?php\n\nclass Book extends BaseBook\n{\n    public function custom() {}\n}\n"
	stub := filepath.Join(target, "bookstore", "Book.php")
	require.NoError(t, os.WriteFile(stub, []byte(custom), 0o644))

	files, err := g.Generate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, custom, readFile(t, target, "bookstore/Book.php"))
	for _, f := range files {
		stub := strings.HasPrefix(f.Kind, "stub-")
		assert.Equal(t, !stub, f.Written, f.Path)
	}
	assert.Equal(t, 6, g.Metrics().StubsSkipped)
	assert.Equal(t, 8, g.Metrics().FilesWritten)
}

func TestGenerateFeatures(t *testing.T) {
	target := t.TempDir()
	g, _ := newGenerator(t, bookstore, gen.WithTarget(target))
	_, err := g.Generate(context.Background())
	require.NoError(t, err)
	require.FileExists(t, filepath.Join(target, "bookstore", "map", "AuthorTableMap.php"))

	runtime := filepath.Join(target, "vendor", "propel", "runtime", "lib", "map", "TableMap.php")
	require.NoError(t, os.MkdirAll(filepath.Dir(runtime), 0o755))
	require.NoError(t, os.WriteFile(runtime, []byte("<?php\n"), 0o644))

	// Disabling the table maps removes the files of the previous run.
	g, c := newGenerator(t, bookstore, gen.WithTarget(target), gen.WithFeatures(gen.FeatureStubs))
	assert.Len(t, g.Kinds(), 6)
	assert.False(t, c.HasFeature(gen.FeatureTableMap.Name))
	files, err := g.Generate(context.Background())
	require.NoError(t, err)
	assert.Len(t, files, 12)
	assert.NoFileExists(t, filepath.Join(target, "bookstore", "map", "AuthorTableMap.php"))
	assert.FileExists(t, runtime, "files omgen did not generate are kept")
	// The peer still names its table map.
	assert.Contains(t, readFile(t, target, "bookstore/om/BaseAuthorPeer.php"), "const TM_CLASS = 'AuthorTableMap';")

	g, _ = newGenerator(t, bookstore, gen.WithTarget(target), gen.WithFeatures(gen.FeatureTableMap))
	kinds := g.Kinds()
	assert.Len(t, kinds, 4)
	assert.False(t, slices.ContainsFunc(kinds, func(a gen.Artifact) bool { return strings.HasPrefix(a.Kind(), "stub-") }))
}

func TestGenerateManifest(t *testing.T) {
	target := t.TempDir()
	g, _ := newGenerator(t, bookstore, gen.WithTarget(target), gen.WithFeatures(gen.FeatureStubs, gen.FeatureManifest))
	files, err := g.Generate(context.Background())
	require.NoError(t, err)

	var m gen.Manifest
	require.NoError(t, json.Unmarshal([]byte(readFile(t, target, gen.ManifestFile)), &m))
	assert.Equal(t, "bookstore", m.Database)
	require.Len(t, m.Artifacts, len(files))
	assert.True(t, slices.IsSortedFunc(m.Artifacts, func(a, b gen.ManifestEntry) int {
		return strings.Compare(a.Path, b.Path)
	}))
	for _, e := range m.Artifacts {
		assert.Equal(t, gen.ArtifactID("bookstore", e.Class), e.ID, e.Class)
	}
	assert.Equal(t, "bookstore/Author.php", m.Artifacts[0].Path)

	// Identifiers are stable across runs.
	first := readFile(t, target, gen.ManifestFile)
	_, err = g.Generate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first, readFile(t, target, gen.ManifestFile))
	assert.NotEqual(t, gen.ArtifactID("bookstore", `Bookstore\Model\Book`), gen.ArtifactID("other", `Bookstore\Model\Book`))
}

func TestGenerateCache(t *testing.T) {
	target := t.TempDir()
	g, _ := newGenerator(t, bookstore, gen.WithTarget(target), gen.WithFeatures(gen.FeatureCache))
	files, err := g.Generate(context.Background())
	require.NoError(t, err)
	require.Len(t, files, 6)
	assert.Equal(t, 6, g.Metrics().FilesWritten)
	assert.FileExists(t, filepath.Join(target, gen.CacheFile))

	files, err = g.Generate(context.Background())
	require.NoError(t, err)
	for _, f := range files {
		assert.False(t, f.Written, f.Path)
	}
	assert.Equal(t, 0, g.Metrics().FilesWritten)
	assert.Equal(t, 6, g.Metrics().FilesUnchanged)

	// Deleted files are written again.
	require.NoError(t, os.Remove(filepath.Join(target, "bookstore", "om", "BaseBook.php")))
	_, err = g.Generate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, g.Metrics().FilesWritten)

	// A corrupted cache is discarded.
	require.NoError(t, os.WriteFile(filepath.Join(target, gen.CacheFile), []byte{0xc1}, 0o644))
	_, err = g.Generate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 6, g.Metrics().FilesWritten)

	// Disabling the cache removes it.
	g, _ = newGenerator(t, bookstore, gen.WithTarget(target), gen.WithFeatures(gen.FeatureStubs))
	_, err = g.Generate(context.Background())
	require.NoError(t, err)
	assert.NoFileExists(t, filepath.Join(target, gen.CacheFile))
}

type fakeExtension struct {
	feature string
	err     error
}

func (e fakeExtension) Feature() string { return e.feature }

func (e fakeExtension) Generate(db *gen.Database) (string, []byte, error) {
	return gen.SDLFile, []byte("# " + db.Name + "\n"), e.err
}

func TestGenerateExtensions(t *testing.T) {
	def, err := load.UnmarshalDatabase([]byte(bookstore), load.FormatYAML)
	require.NoError(t, err)
	for _, enabled := range []bool{true, false} {
		target := t.TempDir()
		features := []gen.Feature{gen.FeatureStubs}
		if enabled {
			features = append(features, gen.FeatureSDL)
		}
		c, err := gen.NewConfig(gen.WithTarget(target), gen.WithFeatures(features...), gen.WithLogger(slog.New(slog.DiscardHandler)))
		require.NoError(t, err)
		db, err := gen.NewDatabase(c, def)
		require.NoError(t, err)
		_, err = gen.NewGenerator(c, db, om.Kinds(), fakeExtension{feature: gen.FeatureSDL.Name}).Generate(context.Background())
		require.NoError(t, err)
		if enabled {
			assert.Equal(t, "# bookstore\n", readFile(t, target, gen.SDLFile))
		} else {
			assert.NoFileExists(t, filepath.Join(target, gen.SDLFile))
		}
	}

	c, err := gen.NewConfig(gen.WithTarget(t.TempDir()), gen.WithFeatures(gen.FeatureSDL, gen.FeatureStubs))
	require.NoError(t, err)
	db, err := gen.NewDatabase(c, def)
	require.NoError(t, err)
	boom := errors.New("boom")
	_, err = gen.NewGenerator(c, db, om.Kinds(), fakeExtension{feature: "sdl", err: boom}).Generate(context.Background())
	require.Error(t, err)
	assert.True(t, gen.IsGenerationError(err))
	assert.ErrorIs(t, err, boom)
}

func TestGenerateErrors(t *testing.T) {
	t.Run("missing target", func(t *testing.T) {
		g, _ := newGenerator(t, bookstore)
		_, err := g.Generate(context.Background())
		assert.True(t, gen.IsConfigError(err))
	})

	t.Run("no kinds enabled", func(t *testing.T) {
		def, err := load.UnmarshalDatabase([]byte(bookstore), load.FormatYAML)
		require.NoError(t, err)
		c, err := gen.NewConfig(gen.WithTarget(t.TempDir()))
		require.NoError(t, err)
		db, err := gen.NewDatabase(c, def)
		require.NoError(t, err)
		_, err = gen.NewGenerator(c, db, nil).Generate(context.Background())
		assert.True(t, gen.IsConfigError(err))
	})

	t.Run("validation", func(t *testing.T) {
		g, _ := newGenerator(t, `
name: shop
package: shop
tables:
  - name: item
    columns:
      - {name: id, type: INTEGER, primaryKey: true}
      - {name: new, type: BOOLEAN}
`, gen.WithTarget(t.TempDir()))
		_, err := g.Generate(context.Background())
		require.Error(t, err)
		assert.True(t, gen.IsValidationError(err))
	})

	t.Run("canceled", func(t *testing.T) {
		g, _ := newGenerator(t, bookstore, gen.WithTarget(t.TempDir()))
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := g.Generate(ctx)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestBuildInMemory(t *testing.T) {
	g, _ := newGenerator(t, bookstore, gen.WithWorkers(1))
	files, contents, err := g.Build(context.Background())
	require.NoError(t, err)
	require.Len(t, files, 14)
	require.Len(t, contents, 14)
	assert.Equal(t, "bookstore/om/BaseAuthor.php", files[0].Path)
	assert.True(t, strings.HasPrefix(string(contents[0]), "<?php\n\nnamespace Bookstore\\Model\\om;\n"))

	g, _ = newGenerator(t, bookstore, gen.WithWorkers(4))
	_, parallel, err := g.Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, contents, parallel)
}
