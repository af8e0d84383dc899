package gen

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	c := DefaultConfig()
	assert.Positive(t, c.Workers)
	assert.NotNil(t, c.Pluralizer)
	assert.NotNil(t, c.FilePath)
	assert.NotNil(t, c.Logger)
	assert.NotNil(t, c.Properties)
	assert.Empty(t, c.Features)
}

func TestBuildProperties(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		c := &Config{}
		assert.Empty(t, c.BuildProperty("missing"))
		assert.False(t, c.AddIncludes())
		assert.Empty(t, c.ClassPrefix())
		assert.Empty(t, c.TargetPackage())
		assert.Equal(t, "om", c.NamespaceOm())
		assert.Equal(t, "map", c.NamespaceMap())
		assert.Equal(t, "propel.util.BasePeer", c.BasePeer())
	})

	t.Run("nil config", func(t *testing.T) {
		var c *Config
		assert.Empty(t, c.BuildProperty(PropClassPrefix))
	})

	t.Run("set", func(t *testing.T) {
		c := &Config{Properties: map[string]string{
			PropAddIncludes:   "true",
			PropClassPrefix:   "My",
			PropTargetPackage: "shop",
			PropNamespaceOm:   "Base",
			PropNamespaceMap:  "Map",
			PropBasePeer:      "app.Peer",
		}}
		assert.True(t, c.AddIncludes())
		assert.Equal(t, "My", c.ClassPrefix())
		assert.Equal(t, "shop", c.TargetPackage())
		assert.Equal(t, "Base", c.NamespaceOm())
		assert.Equal(t, "Map", c.NamespaceMap())
		assert.Equal(t, "app.Peer", c.BasePeer())
	})

	t.Run("invalid boolean", func(t *testing.T) {
		c := &Config{Properties: map[string]string{PropAddIncludes: "yes please"}}
		assert.False(t, c.AddIncludes())
	})
}

func TestConfigFallbacks(t *testing.T) {
	c := &Config{}
	assert.NotNil(t, c.logger())
	assert.NotNil(t, c.pluralizer())
	assert.Equal(t, "a/b/C.php", c.filePath()("a/b", "C"))
}

func TestPHPFilePath(t *testing.T) {
	assert.Equal(t, "bookstore/om/BaseBook.php", PHPFilePath("bookstore/om", "BaseBook"))
	assert.Equal(t, "Book.php", PHPFilePath("", "Book"))
}

func TestFeatureEnabled(t *testing.T) {
	c := Config{Features: []Feature{FeatureSDL}}
	enabled, err := c.FeatureEnabled(FeatureSDL.Name)
	require.NoError(t, err)
	assert.True(t, enabled)
	enabled, err = c.FeatureEnabled(FeatureCache.Name)
	require.NoError(t, err)
	assert.False(t, enabled)
	_, err = c.FeatureEnabled("unknown")
	assert.True(t, IsConfigError(err))
	assert.True(t, c.HasFeature("sdl"))
	assert.False(t, c.HasFeature("unknown"))
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	name := filepath.Join(dir, "omgen.yaml")
	require.NoError(t, os.WriteFile(name, []byte(`
target: build/classes
workers: 2
features: [stubs, manifest]
properties:
  classPrefix: My
  addIncludes: "true"
`), 0o644))
	opts, err := LoadConfigFile(name)
	require.NoError(t, err)
	c, err := NewConfig(opts...)
	require.NoError(t, err)
	assert.Equal(t, "build/classes", c.Target)
	assert.Equal(t, 2, c.Workers)
	assert.Equal(t, "My", c.ClassPrefix())
	assert.True(t, c.AddIncludes())
	assert.True(t, c.HasFeature("manifest"))
	assert.False(t, c.HasFeature("tablemap"))

	t.Run("unknown feature", func(t *testing.T) {
		name := filepath.Join(dir, "bad.yaml")
		require.NoError(t, os.WriteFile(name, []byte("features: [nope]\n"), 0o644))
		opts, err := LoadConfigFile(name)
		require.NoError(t, err)
		_, err = NewConfig(opts...)
		assert.True(t, IsConfigError(err))
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadConfigFile(filepath.Join(dir, "missing.yaml"))
		assert.Error(t, err)
	})

	t.Run("invalid yaml", func(t *testing.T) {
		name := filepath.Join(dir, "invalid.yaml")
		require.NoError(t, os.WriteFile(name, []byte("target: [\n"), 0o644))
		_, err := LoadConfigFile(name)
		assert.ErrorContains(t, err, "parse config")
	})
}
