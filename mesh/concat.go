package mesh

import (
	"fmt"
	"maps"
	"math"
)

// Concat merges parts into one instance. Cell indices of later parts are
// offset by the vertex count of the parts before them.
//
// All parts must share the same arity and the same attribute names and kinds;
// otherwise ErrIncompatible is returned. Concat of zero parts is an error.
func Concat(parts ...*UnstructuredData) (*UnstructuredData, error) {
	if len(parts) == 0 {
		return nil, fmt.Errorf("%w: nothing to concatenate", ErrIncompatible)
	}
	first := parts[0]

	var nv, nc int
	for i, p := range parts {
		if p.arity != first.arity {
			return nil, fmt.Errorf("%w: part %d has arity %d, expected %d", ErrIncompatible, i, p.arity, first.arity)
		}
		if !sameSchema(p.vertexAttrs, first.vertexAttrs) || !sameSchema(p.cellAttrs, first.cellAttrs) {
			return nil, fmt.Errorf("%w: part %d has a different attribute schema", ErrIncompatible, i)
		}
		nv += p.NumVertices()
		nc += len(p.cells)
	}
	if uint64(nv) > math.MaxUint32 {
		return nil, fmt.Errorf("%w: %d vertices exceed the index range", ErrIncompatible, nv)
	}

	vertex := make([]float64, 0, nv*3)
	cells := make([]uint32, 0, nc)
	vattrs := maps.Clone(first.vertexAttrs)
	cattrs := maps.Clone(first.cellAttrs)

	var offset uint32
	for i, p := range parts {
		vertex = append(vertex, p.vertex...)
		for _, idx := range p.cells {
			cells = append(cells, idx+offset)
		}
		offset += uint32(p.NumVertices())
		if i == 0 {
			continue
		}
		for name, a := range p.vertexAttrs {
			vattrs[name] = vattrs[name].concat(a)
		}
		for name, a := range p.cellAttrs {
			cattrs[name] = cattrs[name].concat(a)
		}
	}

	return &UnstructuredData{
		vertex:      vertex,
		cells:       cells,
		arity:       first.arity,
		vertexAttrs: vattrs,
		cellAttrs:   cattrs,
	}, nil
}

func sameSchema(a, b map[string]Attribute) bool {
	if len(a) != len(b) {
		return false
	}
	for name, x := range a {
		y, ok := b[name]
		if !ok || x.Kind() != y.Kind() {
			return false
		}
	}
	return true
}
