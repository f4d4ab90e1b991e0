package minio

import (
	"context"
	"io"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/voxpipe/blobstore"
)

// TestMinioStore_Integration requires a running MinIO instance.
func TestMinioStore_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping MinIO integration test in short mode")
	}

	client, err := minio.New("localhost:9000", &minio.Options{
		Creds:  credentials.NewStaticV4("minioadmin", "minioadmin", ""),
		Secure: false,
	})
	if err != nil {
		t.Skipf("MinIO client creation failed: %v", err)
	}

	ctx := context.Background()
	if _, err := client.ListBuckets(ctx); err != nil {
		t.Skipf("MinIO not available: %v", err)
	}

	bucket := "test-voxpipe"
	exists, err := client.BucketExists(ctx, bucket)
	require.NoError(t, err)
	if !exists {
		require.NoError(t, client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}))
	}

	store := NewStore(client, bucket, "test-prefix/")
	data := []byte("hello minio world")
	require.NoError(t, store.Put(ctx, "test.vxp", data))

	blob, err := store.Open(ctx, "test.vxp")
	require.NoError(t, err)
	require.Equal(t, int64(len(data)), blob.Size())

	all, err := blobstore.ReadAll(ctx, blob)
	require.NoError(t, err)
	assert.Equal(t, data, all)

	rc, err := blob.ReadRange(ctx, 6, 5)
	require.NoError(t, err)
	part, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "minio", string(part))
	require.NoError(t, rc.Close())
	require.NoError(t, blob.Close())

	names, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Contains(t, names, "test.vxp")

	require.NoError(t, store.Delete(ctx, "test.vxp"))
	_, err = store.Open(ctx, "test.vxp")
	assert.ErrorIs(t, err, blobstore.ErrNotFound)
}

func TestStoreRejectsInvalidNames(t *testing.T) {
	client, err := minio.New("localhost:9000", &minio.Options{
		Creds: credentials.NewStaticV4("k", "s", ""),
	})
	require.NoError(t, err)

	store := NewStore(client, "bucket", "")
	ctx := context.Background()

	_, err = store.Open(ctx, "../up")
	assert.ErrorIs(t, err, blobstore.ErrInvalidName)
	assert.ErrorIs(t, store.Put(ctx, "", nil), blobstore.ErrInvalidName)
	assert.ErrorIs(t, store.Delete(ctx, "/abs"), blobstore.ErrInvalidName)
}
