// Package s3 provides an Amazon S3 implementation of blobstore.BlobStore.
//
// # Usage
//
//	store, err := s3.New(ctx, "my-bucket",
//	    s3.WithPrefix("volumes/"),
//	    s3.WithRegion("us-east-1"),
//	)
//
//	adapter := container.New(store)
//
// # Features
//
//   - Ranged GETs, so a container Stat fetches only the header prefix
//   - Multipart uploads for large containers, single PUTs otherwise
//   - CRC32C upload checksums
//   - Automatic pagination for listing
package s3
