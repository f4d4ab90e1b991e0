// Package filter implements the size-preserving transform stages.
//
// Every filter keeps the element width of its input and writes exactly len(in) bytes.
// Filters fall into three families:
//
//   - bit-level: Bitswap regroups sample bits into planes and Diff stores the residual
//     against the mean of a causal neighborhood.
//   - background removal: Threshold, Flatten and EstimatedBackground suppress dark
//     voxels. They are lossy and their Decode copies.
//   - spatial reorders: Tile, TileShuffle, FrameShuffle and ZCurve permute samples so
//     that similar values end up close to each other.
//
// # Data-dependent state
//
// TileShuffle and FrameShuffle record the permutation chosen during Encode in their
// Config. EstimatedBackground records its threshold, and Flatten keeps a bitmap of the
// voxels it suppressed. A stage holding such state must not be used concurrently.
//
// # Threads
//
// All loops run through internal/parallel with the thread count given by
// stage.WithThreads. Output never depends on the number of threads.
package filter
