package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"repolens/internal/config"
	"repolens/internal/indexer"
	"repolens/internal/store"
)

func newTestWatcher(t *testing.T) (string, *store.Store, *Watcher) {
	t.Helper()

	root := t.TempDir()
	st, err := store.Open(filepath.Join(t.TempDir(), "index.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	cfg := config.IndexerConfig{Workers: 2, MaxFileSize: 1024 * 1024}
	ix := indexer.New(root, cfg, st, nil)

	w, err := New(root, ix, indexer.NewIgnoreRules(nil), 50*time.Millisecond)
	require.NoError(t, err)
	return root, st, w
}

func TestWatcher_IndexesNewFile(t *testing.T) {
	root, st, w := newTestWatcher(t)

	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()
	assert.True(t, w.IsWatching())

	path := filepath.Join(root, "main.go")
	require.NoError(t, os.WriteFile(path, []byte("package main\n\nfunc main() {}\n"), 0644))

	require.Eventually(t, func() bool {
		records, err := st.SymbolsForFile(path)
		return err == nil && len(records) == 1
	}, 3*time.Second, 25*time.Millisecond, "new file was never indexed")

	stats := w.GetStats()
	assert.Positive(t, stats.Reindexed)
}

func TestWatcher_RemovesDeletedFile(t *testing.T) {
	root, st, w := newTestWatcher(t)

	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	// No initial scan happens on Start, so the file must appear while
	// the watcher is running
	path := filepath.Join(root, "lib.go")
	require.NoError(t, os.WriteFile(path, []byte("package lib\n\nfunc Do() {}\n"), 0644))

	require.Eventually(t, func() bool {
		records, err := st.SymbolsForFile(path)
		return err == nil && len(records) == 1
	}, 3*time.Second, 25*time.Millisecond)

	require.NoError(t, os.Remove(path))

	require.Eventually(t, func() bool {
		records, err := st.SymbolsForFile(path)
		return err == nil && len(records) == 0
	}, 3*time.Second, 25*time.Millisecond, "deleted file was never dropped")
}

func TestWatcher_IgnoresFilteredPaths(t *testing.T) {
	root, st, w := newTestWatcher(t)

	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	hidden := filepath.Join(root, ".secret")
	require.NoError(t, os.WriteFile(hidden, []byte("x"), 0644))

	// Give the debounce window time to pass, then confirm nothing landed
	time.Sleep(300 * time.Millisecond)
	hash, err := st.FileHash(hidden)
	require.NoError(t, err)
	assert.Empty(t, hash)
}

func TestWatcher_NewDirectoryIsWatched(t *testing.T) {
	root, st, w := newTestWatcher(t)

	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	sub := filepath.Join(root, "pkg")
	require.NoError(t, os.Mkdir(sub, 0755))

	// fsnotify needs a moment to register the new directory
	time.Sleep(200 * time.Millisecond)

	path := filepath.Join(sub, "util.go")
	require.NoError(t, os.WriteFile(path, []byte("package pkg\n\nfunc Util() {}\n"), 0644))

	require.Eventually(t, func() bool {
		records, err := st.SymbolsForFile(path)
		return err == nil && len(records) == 1
	}, 3*time.Second, 25*time.Millisecond, "file in new directory was never indexed")
}

func TestWatcher_StartStopIdempotent(t *testing.T) {
	_, _, w := newTestWatcher(t)

	require.NoError(t, w.Start(context.Background()))
	require.NoError(t, w.Start(context.Background())) // Second start is a no-op

	w.Stop()
	w.Stop() // Second stop is a no-op
	assert.False(t, w.IsWatching())
}
