// Package mesh defines UnstructuredData, the canonical in-memory container for
// point+cell geometry.
//
// An UnstructuredData holds N vertices (x, y, z) and M cells of a fixed arity K.
// Each cell is a tuple of K vertex indices. Optional attributes may be attached
// per vertex (length N) or per cell (length M).
//
// # Invariants
//
//   - Every cell index lies in [0, N).
//   - All cells share the same arity K.
//   - Attribute lengths equal N (vertex) or M (cell) exactly.
//
// Violations are reported at construction time, never later at use. Instances
// are immutable: accessors return copies and every transformation returns a new
// instance.
//
// # Usage
//
//	m, err := mesh.FromArray(
//	    [][3]float64{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}},
//	    [][]int{{0, 1, 2}},
//	)
package mesh
