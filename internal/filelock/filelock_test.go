package filelock

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLockUnlock(t *testing.T) {
	lockPath := filepath.Join(t.TempDir(), "nested", "v1.lock")
	lock := New(lockPath)
	assert.Equal(t, lockPath, lock.Path())

	require.NoError(t, lock.LockContext(context.Background()))
	require.NoError(t, lock.Unlock())

	_, err := os.Stat(lockPath)
	assert.NoError(t, err, "lock file should exist")
}

func TestTryLockHeld(t *testing.T) {
	lockPath := filepath.Join(t.TempDir(), "v1.lock")

	first := New(lockPath)
	require.NoError(t, first.LockContext(context.Background()))
	defer first.Unlock()

	second := New(lockPath)
	acquired, err := second.TryLock()
	require.NoError(t, err)
	assert.False(t, acquired)
}

func TestLockContextCancelled(t *testing.T) {
	lockPath := filepath.Join(t.TempDir(), "v1.lock")

	holder := New(lockPath)
	require.NoError(t, holder.LockContext(context.Background()))
	defer holder.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()

	err := New(lockPath).LockContext(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestLockSerializesWriters(t *testing.T) {
	dir := t.TempDir()
	lockPath := filepath.Join(dir, "counter.lock")
	counterPath := filepath.Join(dir, "counter")
	require.NoError(t, os.WriteFile(counterPath, []byte{}, 0644))

	const writers = 5
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			lock := New(lockPath)
			if err := lock.LockContext(context.Background()); err != nil {
				t.Error(err)
				return
			}
			defer lock.Unlock()

			data, _ := os.ReadFile(counterPath)
			data = append(data, 'x')
			if err := AtomicWrite(counterPath, data); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	data, err := os.ReadFile(counterPath)
	require.NoError(t, err)
	assert.Len(t, data, writers)
}

func TestAtomicWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sub", ".bundle.yaml")

	require.NoError(t, AtomicWrite(path, []byte("version: v1\n")))
	require.NoError(t, AtomicWrite(path, []byte("version: v2\n")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "version: v2\n", string(data))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0644), info.Mode().Perm())

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files should not be left behind")
}

func TestReplaceDir(t *testing.T) {
	root := t.TempDir()
	dest := filepath.Join(root, "cache", "v1")

	first := filepath.Join(root, "tmp1")
	require.NoError(t, os.MkdirAll(first, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(first, "a.txt"), []byte("one"), 0644))
	require.NoError(t, ReplaceDir(first, dest))

	second := filepath.Join(root, "tmp2")
	require.NoError(t, os.MkdirAll(second, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(second, "b.txt"), []byte("two"), 0644))
	require.NoError(t, ReplaceDir(second, dest))

	_, err := os.Stat(filepath.Join(dest, "a.txt"))
	assert.True(t, os.IsNotExist(err), "old content should be gone")

	data, err := os.ReadFile(filepath.Join(dest, "b.txt"))
	require.NoError(t, err)
	assert.Equal(t, "two", string(data))

	entries, err := os.ReadDir(filepath.Join(root, "cache"))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
