// Package blobstore provides the storage backends behind the container adapter.
//
// A BlobStore holds immutable, whole blobs addressed by a slash-separated name.
// Implementations must be safe for concurrent use.
//
// # Built-in Implementations
//
//   - MemoryStore: in-process map, for tests and caches
//   - LocalStore: local filesystem; reads are served from a memory mapping
//   - s3.Store: Amazon S3 with ranged GETs and multipart uploads
//   - minio.Store: MinIO and other S3-compatible servers
//
// # Custom Implementations
//
//	type BlobStore interface {
//	    Open(ctx, name) (Blob, error)
//	    Put(ctx, name, data) error
//	    Delete(ctx, name) error
//	    List(ctx, prefix) ([]string, error)
//	}
//
// Remote backends should implement Blob.ReadRange with a ranged request so that
// reading a container header does not fetch the payload.
package blobstore
