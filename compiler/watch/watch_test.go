package watch

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func start(t *testing.T, files []string, fn Func) {
	t.Helper()
	w, err := New(files, fn, WithDelay(50*time.Millisecond), WithLogger(slog.New(slog.DiscardHandler)))
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		assert.NoError(t, <-done)
	})
}

func TestWatch(t *testing.T) {
	dir := t.TempDir()
	schema := filepath.Join(dir, "schema.yaml")
	require.NoError(t, os.WriteFile(schema, []byte("name: a\n"), 0o644))

	var calls atomic.Int32
	start(t, []string{schema}, func(context.Context) error {
		calls.Add(1)
		return nil
	})

	// Several quick writes are batched.
	for range 3 {
		require.NoError(t, os.WriteFile(schema, []byte("name: b\n"), 0o644))
	}
	require.Eventually(t, func() bool { return calls.Load() == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, os.WriteFile(schema, []byte("name: c\n"), 0o644))
	require.Eventually(t, func() bool { return calls.Load() == 2 }, 2*time.Second, 10*time.Millisecond)
}

func TestWatchIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	schema := filepath.Join(dir, "schema.yaml")
	require.NoError(t, os.WriteFile(schema, nil, 0o644))

	var calls atomic.Int32
	start(t, []string{schema}, func(context.Context) error {
		calls.Add(1)
		return nil
	})
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.yaml"), nil, 0o644))
	time.Sleep(200 * time.Millisecond)
	assert.Zero(t, calls.Load())
}

func TestWatchKeepsRunningOnError(t *testing.T) {
	dir := t.TempDir()
	schema := filepath.Join(dir, "schema.yaml")
	require.NoError(t, os.WriteFile(schema, nil, 0o644))

	var calls atomic.Int32
	start(t, []string{schema}, func(context.Context) error {
		calls.Add(1)
		return errors.New("invalid schema")
	})
	require.NoError(t, os.WriteFile(schema, []byte("a"), 0o644))
	require.Eventually(t, func() bool { return calls.Load() == 1 }, 2*time.Second, 10*time.Millisecond)
	require.NoError(t, os.WriteFile(schema, []byte("b"), 0o644))
	require.Eventually(t, func() bool { return calls.Load() == 2 }, 2*time.Second, 10*time.Millisecond)
}

func TestNewErrors(t *testing.T) {
	_, err := New(nil, nil)
	assert.Error(t, err)
	_, err = New([]string{filepath.Join(t.TempDir(), "missing", "schema.yaml")}, nil)
	assert.Error(t, err)
}
