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

func TestProjectWatcher_FiresOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "site.json")
	require.NoError(t, os.WriteFile(path, []byte(`{}`), 0o644))

	var calls int32
	w, err := New(path, 20*time.Millisecond, func() {
		atomic.AddInt32(&calls, 1)
	}, nil)
	require.NoError(t, err)
	defer func() { _ = w.Stop() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.Start(ctx)

	require.NoError(t, os.WriteFile(path, []byte(`{"name":"changed"}`), 0o644))

	assert.Eventually(t, func() bool {
		return atomic.LoadInt32(&calls) >= 1
	}, 3*time.Second, 20*time.Millisecond)
}

func TestProjectWatcher_CoalescesBurst(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "site.json")
	require.NoError(t, os.WriteFile(path, []byte(`{}`), 0o644))

	var calls int32
	w, err := New(path, 80*time.Millisecond, func() {
		atomic.AddInt32(&calls, 1)
	}, nil)
	require.NoError(t, err)
	defer func() { _ = w.Stop() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.Start(ctx)

	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(path, []byte(`{}`), 0o644))
		time.Sleep(10 * time.Millisecond)
	}

	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&calls) >= 1
	}, 3*time.Second, 20*time.Millisecond)
	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestProjectWatcher_IgnoresSiblingFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "site.json")
	require.NoError(t, os.WriteFile(path, []byte(`{}`), 0o644))

	var calls int32
	w, err := New(path, 20*time.Millisecond, func() {
		atomic.AddInt32(&calls, 1)
	}, nil)
	require.NoError(t, err)
	defer func() { _ = w.Stop() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.Start(ctx)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.json"), []byte(`{}`), 0o644))
	time.Sleep(150 * time.Millisecond)

	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestProjectWatcher_RenameOverSave(t *testing.T) {
	// Editors commonly save by writing a temp file and renaming it over the
	// original; the watcher must survive that.
	dir := t.TempDir()
	path := filepath.Join(dir, "site.json")
	require.NoError(t, os.WriteFile(path, []byte(`{}`), 0o644))

	var calls int32
	w, err := New(path, 20*time.Millisecond, func() {
		atomic.AddInt32(&calls, 1)
	}, nil)
	require.NoError(t, err)
	defer func() { _ = w.Stop() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.Start(ctx)

	tmp := filepath.Join(dir, "site.json.tmp")
	require.NoError(t, os.WriteFile(tmp, []byte(`{"name":"renamed"}`), 0o644))
	require.NoError(t, os.Rename(tmp, path))

	assert.Eventually(t, func() bool {
		return atomic.LoadInt32(&calls) >= 1
	}, 3*time.Second, 20*time.Millisecond)
}

func TestProjectWatcher_StopCancelsPending(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "site.json")
	require.NoError(t, os.WriteFile(path, []byte(`{}`), 0o644))

	var calls int32
	w, err := New(path, 100*time.Millisecond, func() {
		atomic.AddInt32(&calls, 1)
	}, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.Start(ctx)

	require.NoError(t, os.WriteFile(path, []byte(`{}`), 0o644))
	time.Sleep(20 * time.Millisecond)
	require.NoError(t, w.Stop())

	time.Sleep(250 * time.Millisecond)
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestNew_MissingDirectory(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "ghost", "site.json"), 0, func() {}, nil)
	assert.Error(t, err)
}
