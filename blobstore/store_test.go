package blobstore

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/voxpipe/internal/fs"
)

func stores(t *testing.T) map[string]BlobStore {
	return map[string]BlobStore{
		"memory": NewMemoryStore(),
		"local":  NewLocalStore(t.TempDir()),
	}
}

func TestBlobStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	data := []byte("hello world, this is a test blob for voxpipe")

	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, store.Put(ctx, "vol/a.vxp", data))
			require.NoError(t, store.Put(ctx, "vol/b.vxp", []byte("b")))
			require.NoError(t, store.Put(ctx, "other.vxp", nil))

			blob, err := store.Open(ctx, "vol/a.vxp")
			require.NoError(t, err)
			defer blob.Close()
			assert.Equal(t, int64(len(data)), blob.Size())

			buf := make([]byte, 5)
			n, err := blob.ReadAt(ctx, buf, 6)
			require.NoError(t, err)
			assert.Equal(t, 5, n)
			assert.Equal(t, "world", string(buf))

			n, err = blob.ReadAt(ctx, make([]byte, 10), int64(len(data))-3)
			assert.Equal(t, 3, n)
			assert.ErrorIs(t, err, io.EOF)

			rc, err := blob.ReadRange(ctx, 13, 4)
			require.NoError(t, err)
			got, err := io.ReadAll(rc)
			require.NoError(t, err)
			require.NoError(t, rc.Close())
			assert.Equal(t, "this", string(got))

			rc, err = blob.ReadRange(ctx, int64(len(data))-2, 100)
			require.NoError(t, err)
			got, err = io.ReadAll(rc)
			require.NoError(t, err)
			assert.Equal(t, data[len(data)-2:], got)

			all, err := ReadAll(ctx, blob)
			require.NoError(t, err)
			assert.Equal(t, data, all)

			names, err := store.List(ctx, "vol/")
			require.NoError(t, err)
			assert.Equal(t, []string{"vol/a.vxp", "vol/b.vxp"}, names)

			names, err = store.List(ctx, "")
			require.NoError(t, err)
			assert.Len(t, names, 3)

			require.NoError(t, store.Put(ctx, "vol/b.vxp", []byte("bb")))
			b, err := store.Open(ctx, "vol/b.vxp")
			require.NoError(t, err)
			assert.Equal(t, int64(2), b.Size())
			require.NoError(t, b.Close())

			require.NoError(t, store.Delete(ctx, "vol/b.vxp"))
			require.NoError(t, store.Delete(ctx, "vol/b.vxp"))
			_, err = store.Open(ctx, "vol/b.vxp")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestBlobStoreNames(t *testing.T) {
	ctx := context.Background()
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			for _, bad := range []string{"", "/abs", "..", "../up", "a/../../up"} {
				assert.ErrorIs(t, store.Put(ctx, bad, []byte("x")), ErrInvalidName, bad)
				_, err := store.Open(ctx, bad)
				assert.ErrorIs(t, err, ErrInvalidName, bad)
			}
		})
	}
}

func TestBlobStoreContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, store.Put(ctx, "x", []byte("x")), context.Canceled)
			_, err := store.Open(ctx, "x")
			assert.ErrorIs(t, err, context.Canceled)
		})
	}
}

func TestLocalStoreLayout(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store := NewLocalStore(dir)

	require.NoError(t, store.Put(ctx, "a/b/c.vxp", []byte("payload")))
	raw, err := os.ReadFile(filepath.Join(dir, "a", "b", "c.vxp"))
	require.NoError(t, err)
	assert.Equal(t, "payload", string(raw))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "a", ".put-123"), []byte("partial"), 0o600))
	names, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"a/b/c.vxp"}, names)

	blob, err := store.Open(ctx, "a/b/c.vxp")
	require.NoError(t, err)
	m, ok := blob.(Mappable)
	require.True(t, ok)
	view, err := m.Bytes()
	require.NoError(t, err)
	assert.Equal(t, "payload", string(view))
	require.NoError(t, blob.Close())
	_, err = m.Bytes()
	assert.Error(t, err)
}

func TestLocalStoreMissingRoot(t *testing.T) {
	store := NewLocalStore(filepath.Join(t.TempDir(), "missing"))
	names, err := store.List(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestEmptyBlob(t *testing.T) {
	ctx := context.Background()
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, store.Put(ctx, "empty", nil))
			blob, err := store.Open(ctx, "empty")
			require.NoError(t, err)
			defer blob.Close()

			assert.Zero(t, blob.Size())
			all, err := ReadAll(ctx, blob)
			require.NoError(t, err)
			assert.Empty(t, all)
		})
	}
}

func TestLocalStoreFaults(t *testing.T) {
	ctx := context.Background()

	faulty := fs.NewFaultyFS(nil)
	faulty.AddRule("short/.put-", fs.Fault{FailAfterBytes: 4})
	faulty.AddRule("sync/.put-", fs.Fault{FailAfterBytes: -1, FailOnSync: true})
	faulty.AddRule("close/.put-", fs.Fault{FailAfterBytes: -1, FailOnClose: true})
	faulty.AddRule("rename/.put-", fs.Fault{FailAfterBytes: -1, FailOnRename: true})

	store := NewLocalStore(t.TempDir())
	store.fsys = faulty

	for _, dir := range []string{"short", "sync", "close", "rename"} {
		t.Run(dir, func(t *testing.T) {
			name := dir + "/a.vxp"
			err := store.Put(ctx, name, []byte("payload bytes"))
			require.ErrorIs(t, err, fs.ErrInjected)

			_, err = store.Open(ctx, name)
			assert.ErrorIs(t, err, ErrNotFound)

			entries, err := os.ReadDir(filepath.Join(store.root, dir))
			require.NoError(t, err)
			assert.Empty(t, entries)
		})
	}

	t.Run("unaffected", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, "ok/a.vxp", []byte("fine")))
		names, err := store.List(ctx, "")
		require.NoError(t, err)
		assert.Equal(t, []string{"ok/a.vxp"}, names)
	})
}
