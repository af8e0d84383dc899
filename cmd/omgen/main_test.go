package main

import (
	"bytes"
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/omgen/compiler/gen"
	"github.com/syssam/omgen/compiler/load"
)

const schema = `
name: bookstore
namespace: Bookstore
tables:
  - name: author
    columns:
      - {name: id, type: INTEGER, primaryKey: true, autoIncrement: true}
      - {name: name, type: VARCHAR, size: 128}
  - name: book
    behaviors:
      - name: timestampable
    columns:
      - {name: id, type: INTEGER, primaryKey: true, autoIncrement: true}
      - {name: author_id, type: INTEGER}
    foreignKeys:
      - foreignTable: author
        references:
          - {local: author_id, foreign: id}
`

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return runContext(context.Background(), t, args...)
}

func runContext(ctx context.Context, t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := rootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--env-file", filepath.Join(t.TempDir(), ".env")}, args...))
	err := cmd.ExecuteContext(ctx)
	return out.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestBuild(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "schema.yaml", schema)
	target := filepath.Join(dir, "out")

	out, err := run(t, "build", "-o", target, "--feature", "stubs,tablemap,sdl", path)
	require.NoError(t, err)
	assert.Contains(t, out, "bookstore: 14 classes, 15 written, 0 unchanged, 0 stubs kept")
	for _, name := range []string{
		"bookstore/om/BaseBook.php",
		"bookstore/map/BookTableMap.php",
		"bookstore/Book.php",
		gen.SDLFile,
	} {
		assert.FileExists(t, filepath.Join(target, name))
	}
	base, err := os.ReadFile(filepath.Join(target, "bookstore", "om", "BaseBook.php"))
	require.NoError(t, err)
	assert.Contains(t, string(base), "namespace Bookstore\\om;")
	assert.Contains(t, string(base), "// timestampable behavior")

	out, err = run(t, "build", "-o", target, path)
	require.NoError(t, err)
	assert.Contains(t, out, "6 stubs kept")
	assert.NoFileExists(t, filepath.Join(target, gen.SDLFile))
}

func TestBuildConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "schema.json", `{"name": "shop", "tables": [{"name": "item", "columns": [{"name": "id", "type": "INTEGER", "primaryKey": true}]}]}`)
	target := filepath.Join(dir, "classes")
	config := writeFile(t, dir, "omgen.yaml", "target: "+target+"\nfeatures: [manifest]\nproperties:\n  classPrefix: My\n")

	_, err := run(t, "build", "--config", config, path)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(target, "shop", "om", "MyBaseItem.php"))
	assert.FileExists(t, filepath.Join(target, gen.ManifestFile))
	assert.NoFileExists(t, filepath.Join(target, "shop", "MyItem.php"))
}

func TestBuildWatchConfig(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "schema.yaml", "name: shop\ntables:\n  - name: item\n    columns:\n      - {name: id, type: INTEGER, primaryKey: true}\n")
	target := filepath.Join(dir, "classes")
	config := writeFile(t, dir, "omgen.yaml", "target: "+target+"\nproperties:\n  classPrefix: My\n")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() {
		_, err := runContext(ctx, t, "build", "--watch", "--config", config, path)
		done <- err
	}()

	first := filepath.Join(target, "shop", "om", "MyBaseItem.php")
	require.Eventually(t, func() bool {
		_, err := os.Stat(first)
		return err == nil
	}, 5*time.Second, 20*time.Millisecond)

	// The watcher may not be set up yet, so the edit is repeated until a
	// rebuild picks up the new prefix.
	edited := filepath.Join(target, "shop", "om", "YourBaseItem.php")
	require.Eventually(t, func() bool {
		if _, err := os.Stat(edited); err == nil {
			return true
		}
		_ = os.WriteFile(config, []byte("target: "+target+"\nproperties:\n  classPrefix: Your\n"), 0o644)
		return false
	}, 10*time.Second, 400*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("build --watch did not stop")
	}
}

func TestBuildErrors(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name string
		args []string
		err  string
	}{
		{"no schema", []string{"build"}, "requires at least 1 arg"},
		{"missing schema", []string{"build", "-o", dir, filepath.Join(dir, "missing.yaml")}, "missing.yaml"},
		{"missing config", []string{"build", "--config", filepath.Join(dir, "omgen.yaml"), "schema.yaml"}, "read config"},
		{"unknown feature", []string{"build", "-o", dir, "--feature", "nope", writeFile(t, dir, "s.yaml", schema)}, "nope"},
		{"unknown behavior", []string{"build", "-o", dir, writeFile(t, dir, "b.yaml", "name: x\ntables:\n  - name: t\n    behaviors: [{name: nope}]\n")}, `unknown behavior "nope"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, tt.args...)
			assert.ErrorContains(t, err, tt.err)
		})
	}
}

func TestReverse(t *testing.T) {
	dir := t.TempDir()
	dsn := filepath.Join(dir, "bookstore.db")
	db, err := sql.Open("sqlite", dsn)
	require.NoError(t, err)
	_, err = db.Exec(`
CREATE TABLE author (id INTEGER PRIMARY KEY AUTOINCREMENT, name VARCHAR(128) NOT NULL);
CREATE TABLE book (id INTEGER PRIMARY KEY, title TEXT, author_id INTEGER REFERENCES author(id));
`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	t.Setenv("OMGEN_DSN", dsn)
	out := filepath.Join(dir, "schema.json")
	msg, err := run(t, "reverse", "--dialect", "sqlite", "--name", "bookstore", "-o", out)
	require.NoError(t, err)
	assert.Contains(t, msg, "wrote 2 tables")

	def, err := load.File(out)
	require.NoError(t, err)
	assert.Equal(t, "bookstore", def.Name)
	book, ok := def.Table("book")
	require.True(t, ok)
	require.Len(t, book.ForeignKeys, 1)
	assert.Equal(t, "author", book.ForeignKeys[0].ForeignTable)

	// The reversed schema builds.
	_, err = run(t, "build", "-o", filepath.Join(dir, "out"), out)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "out", "bookstore", "om", "BaseAuthor.php"))
}

func TestReverseErrors(t *testing.T) {
	t.Setenv("OMGEN_DSN", "")
	_, err := run(t, "reverse", "--name", "x")
	assert.ErrorContains(t, err, "missing connection string")
	_, err = run(t, "reverse", "--name", "x", "--dialect", "oracle", "--dsn", "x")
	assert.ErrorContains(t, err, `unsupported dialect "oracle"`)
	_, err = run(t, "reverse", "--dsn", "x")
	assert.ErrorContains(t, err, `"name" not set`)
}

func TestEnvFile(t *testing.T) {
	t.Setenv("OMGEN_DSN", "")
	os.Unsetenv("OMGEN_DSN")
	env := writeFile(t, t.TempDir(), ".env", "OMGEN_DSN=from-env-file\n")
	cmd := rootCmd()
	cmd.SetArgs([]string{"--env-file", env, "version"})
	cmd.SetOut(&bytes.Buffer{})
	require.NoError(t, cmd.Execute())
	assert.Equal(t, "from-env-file", os.Getenv("OMGEN_DSN"))
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "omgen ")
}
