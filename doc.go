// Package voxpipe compresses 2D and 3D integer sample arrays with reversible,
// composable transform pipelines.
//
// A pipeline is named by its signature, a "->" separated list of stages:
//
//	diff->bitswap1->lz4
//	tile(tile_size=8)->bitswap1->zstd(level=best)
//	rmbkrd(threshold=90)->lz4
//
// Filters (bitswap, diff, tile, zcurve, tile_shuffle, frame_shuffle, rmbkrd,
// rmestbkrd) reorder or re-express samples without changing their byte volume.
// At most one sink (lz4, zstd, s2, gzip, quantiser) turns them into a byte stream.
//
// # Quick Start
//
//	ctx := context.Background()
//	stream, _ := voxpipe.Compress(ctx, samples, geom.Shape{64, 512, 512}, "diff->bitswap1->lz4")
//	samples, shape, _ := voxpipe.Decompress[uint16](ctx, stream)
//
// Every stream starts with a self-describing header carrying the final pipeline
// signature, element type, shape, payload size and a CRC32C of the payload, so
// Decompress needs no arguments besides the bytes.
//
// # Storage
//
// Store and Load write streams to any blobstore.BlobStore (memory, local mmap,
// S3, MinIO) through the container adapter:
//
//	store := blobstore.NewLocalStore("./volumes")
//	_ = voxpipe.Store(ctx, store, "scan-0001.vxp", samples, shape, "zcurve->bitswap1->zstd")
//	samples, shape, _ = voxpipe.Load[uint16](ctx, store, "scan-0001.vxp")
//
// # Key Features
//
//   - Data-dependent stages record their side channel in the signature
//   - Thread count never changes the output bytes
//   - Memory budgets for pipeline temporaries and IO rate limits
//   - Structured logging via slog and pluggable metrics
package voxpipe
