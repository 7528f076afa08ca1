// Package mmap maps artifact files read-only so they can be decoded without
// an extra copy into the heap.
//
//	m, err := mmap.Open("surface.le")
//	if err != nil { ... }
//	defer m.Close()
//	_ = m.Advise(mmap.HintSequential)
//	d, err := persistence.Decode(m.Bytes())
//
// Byte slices obtained from a Mapping are invalid after Close.
package mmap
