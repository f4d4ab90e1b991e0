// Package mem provides memory allocation utilities.
//
// # Aligned Allocation
//
// Stage chains ping-pong between two temporaries per call. Both come from
// AllocAligned so that typed views over them start on a cache line.
package mem
