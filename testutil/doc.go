// Package testutil provides testing utilities for voxpipe.
//
// This package is intended for use in tests and benchmarks only.
// It provides deterministic sample volumes: constant, ramp, uniform random and
// blob-on-background stacks resembling microscopy data.
//
// # Volume Generation
//
//	rng := testutil.NewRNG(seed)
//	noise := testutil.Random[uint16](rng, 64*64*64, 4096)
//	ramp := testutil.Ramp[uint16](512, 128)
//	stack := testutil.Blobs[uint16](rng, geom.Shape{16, 64, 64}, 100, 8, 2000, 12)
package testutil
