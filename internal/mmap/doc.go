// Package mmap maps files read-only into memory.
//
// The local blob store serves container reads straight out of a Mapping, so a
// Stat that only needs the header prefix touches a single page of the file.
//
//	m, err := mmap.Open("volume.vxp")
//	if err != nil { ... }
//	defer m.Close()
//
//	_ = m.Advise(mmap.AccessSequential)
//	data := m.Bytes()
//
// Unix systems use mmap(2) and madvise(2). Windows uses CreateFileMapping and
// MapViewOfFile; Advise is a no-op there. Other platforms read the file into
// the heap.
//
// A Mapping is safe for concurrent reads. Close is idempotent, but callers must
// not touch a slice returned by Bytes after Close returns.
package mmap
