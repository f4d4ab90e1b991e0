// Package pipeline turns a signature such as "diff3x3x1->bitswap1->lz4" into a
// stage chain and runs it behind a self-describing header.
//
// A pipeline is made of head filters, at most one sink and tail filters that
// operate on the sink's uint8 output:
//
//	p, err := pipeline.Parse("tile->bitswap1->zstd", dtype.Uint16)
//	if err != nil {
//	    return err
//	}
//	stream, err := p.Compress(ctx, raw, geom.Shape{64, 512, 512})
//
// Compress records the signature after encoding, so data-dependent state such as
// tile shuffle reorder maps or quantiser decode tables travels inside the header.
// Decompress rebuilds the pipeline from that signature:
//
//	res, err := pipeline.Decompress(ctx, stream)
//
// Stage names resolve through a Registry. DefaultRegistry knows every stage of the
// filter and sink packages; custom stages are added with Register and
// RegisterPrefix.
//
// A Pipeline may be reused sequentially. It is not safe for concurrent use when
// it contains stages with data-dependent state.
package pipeline
