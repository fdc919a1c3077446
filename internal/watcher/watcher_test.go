package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// start runs a watcher until the test ends and returns its change counter.
func start(t *testing.T, paths, ignore []string) *atomic.Int32 {
	t.Helper()

	var changes atomic.Int32
	w, err := New(paths, ignore, func() { changes.Add(1) })
	require.NoError(t, err)
	w.debounce = 20 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(2 * time.Second):
			t.Error("watcher did not stop")
		}
	})
	return &changes
}

func TestWatcher_FileWrite(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "logs-analyzer.ini")
	require.NoError(t, os.WriteFile(cfg, []byte("[CONFIG]\n"), 0o644))

	changes := start(t, []string{cfg}, nil)
	require.NoError(t, os.WriteFile(cfg, []byte("[CONFIG]\ndistance=3\n"), 0o644))

	assert.Eventually(t, func() bool { return changes.Load() >= 1 }, 2*time.Second, 10*time.Millisecond)
}

func TestWatcher_NewFileInSubdirectory(t *testing.T) {
	root := t.TempDir()
	changes := start(t, []string{root}, nil)

	sub := filepath.Join(root, "svc")
	require.NoError(t, os.Mkdir(sub, 0o755))
	assert.Eventually(t, func() bool { return changes.Load() >= 1 }, 2*time.Second, 10*time.Millisecond)

	before := changes.Load()
	// Give the watcher time to register the new directory.
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(sub, "a.log"), []byte("line\n"), 0o644))
	assert.Eventually(t, func() bool { return changes.Load() > before }, 2*time.Second, 10*time.Millisecond)
}

func TestWatcher_GlobWatchesBase(t *testing.T) {
	root := t.TempDir()
	changes := start(t, []string{filepath.Join(root, "**", "*.log")}, nil)

	require.NoError(t, os.WriteFile(filepath.Join(root, "x.log"), []byte("x\n"), 0o644))
	assert.Eventually(t, func() bool { return changes.Load() >= 1 }, 2*time.Second, 10*time.Millisecond)
}

func TestWatcher_IgnoredAndUnrelatedPaths(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "logs-analyzer.ini")
	out := filepath.Join(dir, "logs-analyzer.out")
	require.NoError(t, os.WriteFile(cfg, []byte("[CONFIG]\n"), 0o644))

	changes := start(t, []string{cfg}, []string{out})

	require.NoError(t, os.WriteFile(out, []byte("report\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.txt"), []byte("x\n"), 0o644))
	time.Sleep(200 * time.Millisecond)

	assert.Equal(t, int32(0), changes.Load())
}

func TestWatcher_Debounce(t *testing.T) {
	root := t.TempDir()
	changes := start(t, []string{root}, nil)

	path := filepath.Join(root, "burst.log")
	f, err := os.Create(path)
	require.NoError(t, err)
	for range 5 {
		_, err := f.WriteString("line\n")
		require.NoError(t, err)
	}
	require.NoError(t, f.Close())

	assert.Eventually(t, func() bool { return changes.Load() >= 1 }, 2*time.Second, 10*time.Millisecond)
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(1), changes.Load())
}
