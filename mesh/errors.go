package mesh

import (
	"errors"
	"fmt"
)

var (
	// ErrShapeMismatch is matched by every *ShapeMismatchError.
	ErrShapeMismatch = errors.New("shape mismatch")
	// ErrIndexRange is matched by every *IndexRangeError.
	ErrIndexRange = errors.New("cell index out of range")
	// ErrUnknownKind is returned for an unsupported attribute kind.
	ErrUnknownKind = errors.New("unknown attribute kind")
	// ErrIncompatible is returned when meshes with different arity or
	// attribute schema are concatenated.
	ErrIncompatible = errors.New("incompatible meshes")
)

// ShapeMismatchError indicates that a sequence length disagrees with the
// shape it must match (N vertices, M cells, or arity K).
type ShapeMismatchError struct {
	// What names the offending sequence, e.g. "vertex attribute" or "cells".
	What string
	// Name is the attribute name, if any.
	Name     string
	Expected int
	Actual   int
}

func (e *ShapeMismatchError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("shape mismatch: %s %q has length %d, expected %d", e.What, e.Name, e.Actual, e.Expected)
	}
	return fmt.Sprintf("shape mismatch: %s has length %d, expected %d", e.What, e.Actual, e.Expected)
}

// Is makes errors.Is(err, ErrShapeMismatch) work.
func (e *ShapeMismatchError) Is(target error) bool { return target == ErrShapeMismatch }

// IndexRangeError indicates a cell referencing a vertex outside [0, N).
type IndexRangeError struct {
	Cell     int
	Index    int64
	Vertices int
}

func (e *IndexRangeError) Error() string {
	return fmt.Sprintf("cell %d references vertex %d, valid range is [0, %d)", e.Cell, e.Index, e.Vertices)
}

// Is makes errors.Is(err, ErrIndexRange) work.
func (e *IndexRangeError) Is(target error) bool { return target == ErrIndexRange }
