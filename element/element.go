// Package element binds an UnstructuredData to a semantic role.
//
// A TriSurf is a triangulated surface (arity 3), a LineSet a set of line
// segments such as well paths (arity 2). Wrappers hold a reference to the mesh
// and never copy or transform it.
package element

import (
	"errors"
	"fmt"

	"github.com/hupe1980/subsurf/mesh"
)

// Role names the semantic role of an element.
type Role string

const (
	// RoleTriSurf marks a triangulated surface.
	RoleTriSurf Role = "trisurf"
	// RoleLineSet marks a set of line segments.
	RoleLineSet Role = "lineset"
)

// Arity returns the cell arity required by the role.
func (r Role) Arity() int {
	switch r {
	case RoleTriSurf:
		return 3
	case RoleLineSet:
		return 2
	default:
		return 0
	}
}

// ErrTopologyMismatch is matched by every *TopologyMismatchError.
var ErrTopologyMismatch = errors.New("topology mismatch")

// TopologyMismatchError is returned when a mesh's cell arity does not fit the
// requested role.
type TopologyMismatchError struct {
	Role Role
	Want int
	Got  int
}

func (e *TopologyMismatchError) Error() string {
	return fmt.Sprintf("topology mismatch: %s requires cell arity %d, mesh has %d", e.Role, e.Want, e.Got)
}

// Is makes errors.Is(err, ErrTopologyMismatch) work.
func (e *TopologyMismatchError) Is(target error) bool { return target == ErrTopologyMismatch }

// Element is a mesh with a semantic role.
type Element interface {
	Mesh() *mesh.UnstructuredData
	Role() Role
	Arity() int
}

// TriSurf is a triangulated surface.
type TriSurf struct {
	mesh *mesh.UnstructuredData
}

// NewTriSurf wraps m as a triangulated surface.
func NewTriSurf(m *mesh.UnstructuredData) (*TriSurf, error) {
	if err := check(RoleTriSurf, m); err != nil {
		return nil, err
	}
	return &TriSurf{mesh: m}, nil
}

// Mesh returns the wrapped mesh.
func (s *TriSurf) Mesh() *mesh.UnstructuredData { return s.mesh }

// Role returns RoleTriSurf.
func (s *TriSurf) Role() Role { return RoleTriSurf }

// Arity returns 3.
func (s *TriSurf) Arity() int { return RoleTriSurf.Arity() }

// NumTriangles returns the number of triangles.
func (s *TriSurf) NumTriangles() int { return s.mesh.NumCells() }

// LineSet is a set of line segments.
type LineSet struct {
	mesh *mesh.UnstructuredData
}

// NewLineSet wraps m as a line set.
func NewLineSet(m *mesh.UnstructuredData) (*LineSet, error) {
	if err := check(RoleLineSet, m); err != nil {
		return nil, err
	}
	return &LineSet{mesh: m}, nil
}

// Mesh returns the wrapped mesh.
func (l *LineSet) Mesh() *mesh.UnstructuredData { return l.mesh }

// Role returns RoleLineSet.
func (l *LineSet) Role() Role { return RoleLineSet }

// Arity returns 2.
func (l *LineSet) Arity() int { return RoleLineSet.Arity() }

// NumSegments returns the number of segments.
func (l *LineSet) NumSegments() int { return l.mesh.NumCells() }

// Wrap picks the role matching the mesh arity.
func Wrap(m *mesh.UnstructuredData) (Element, error) {
	if m == nil {
		return nil, errors.New("element: nil mesh")
	}
	switch m.Arity() {
	case 3:
		return NewTriSurf(m)
	case 2:
		return NewLineSet(m)
	default:
		return nil, &TopologyMismatchError{Role: "any", Want: 0, Got: m.Arity()}
	}
}

func check(role Role, m *mesh.UnstructuredData) error {
	if m == nil {
		return fmt.Errorf("element: nil mesh for %s", role)
	}
	if m.Arity() != role.Arity() {
		return &TopologyMismatchError{Role: role, Want: role.Arity(), Got: m.Arity()}
	}
	return nil
}
