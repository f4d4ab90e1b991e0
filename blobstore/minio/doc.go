// Package minio provides a BlobStore backed by the MinIO client.
//
// It works with MinIO and other S3-compatible servers such as Ceph, Garage and
// SeaweedFS without pulling in the AWS SDK.
//
//	client, err := minio.New("localhost:9000", &minio.Options{
//	    Creds:  credentials.NewStaticV4("minioadmin", "minioadmin", ""),
//	    Secure: false,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	store := minioblob.NewStore(client, "volumes", "raw/")
//	adapter := container.New(store)
package minio
