// Package container stores compressed sample arrays as blobs.
//
// A container is the exact output of pipeline.Compress: the self-describing
// header followed by the payload. The Adapter writes it with a single Put and
// reads it back through any blobstore.BlobStore.
//
//	a := container.New(blobstore.NewLocalStore("/data"),
//	    container.WithIOLimit(64<<20),
//	)
//	_, err := a.Write(ctx, "scan/0001.vxp", raw, geom.Shape{64, 512, 512}, dtype.Uint16, "diff->bitswap1->lz4")
//	...
//	res, err := a.Read(ctx, "scan/0001.vxp")
//
// Stat reads only the header prefix, so listing the shapes of remote
// containers does not download their payloads.
package container
