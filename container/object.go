package container

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/hupe1980/subsurf/mesh"
)

// Object is one decoded container object.
type Object struct {
	// Position is the zero-based index in the container, counting skipped
	// objects.
	Position   int
	Descriptor ObjectDescriptor
	// Mesh holds the geometry of fixed-arity topologies. It is nil for grids
	// and volumes.
	Mesh *mesh.UnstructuredData
	// Arrays holds the decompressed array bytes of objects without a Mesh,
	// in descriptor order.
	Arrays [][]byte
}

// Name returns the object name.
func (o *Object) Name() string { return o.Descriptor.Name }

// Topology returns the object topology.
func (o *Object) Topology() Topology { return o.Descriptor.Topology }

func buildObject(pos int, desc ObjectDescriptor, payloads [][]byte, limit int64) (*Object, error) {
	raws := make([][]byte, len(desc.Arrays))
	for i, a := range desc.Arrays {
		want, ok := a.byteLen()
		if !ok {
			return nil, fmt.Errorf("%w: array %q has kind %q and length %d", ErrDescriptor, a.Name, a.Kind, a.Length)
		}
		if int64(want) > limit {
			return nil, fmt.Errorf("%w: array %q of %d bytes", ErrFrameTooLarge, a.Name, want)
		}
		raw, err := decodeArray(payloads[i], want)
		if err != nil {
			return nil, fmt.Errorf("array %q: %w", a.Name, err)
		}
		raws[i] = raw
	}

	obj := &Object{Position: pos, Descriptor: desc}
	if desc.Topology.Arity() == 0 {
		obj.Arrays = raws
		return obj, nil
	}
	m, err := decodeMesh(desc, raws)
	if err != nil {
		return nil, err
	}
	obj.Mesh = m
	return obj, nil
}

func decodeMesh(desc ObjectDescriptor, raws [][]byte) (*mesh.UnstructuredData, error) {
	k := desc.Topology.Arity()
	if desc.Arity != k {
		return nil, fmt.Errorf("%w: %s object declares arity %d", ErrDescriptor, desc.Topology, desc.Arity)
	}

	var (
		vertex []float64
		cells  []uint32
		vattrs = map[string]mesh.Attribute{}
		cattrs = map[string]mesh.Attribute{}
	)
	for i, a := range desc.Arrays {
		raw := raws[i]
		switch a.Role {
		case RoleVertices:
			if a.Kind != KindFloat64 || vertex != nil {
				return nil, fmt.Errorf("%w: vertices array %q", ErrDescriptor, a.Name)
			}
			vertex = float64s(raw)
		case RoleCells:
			if a.Kind != KindUint32 || cells != nil {
				return nil, fmt.Errorf("%w: cells array %q", ErrDescriptor, a.Name)
			}
			cells = uint32s(raw)
		case RoleAttribute:
			var attr mesh.Attribute
			switch a.Kind {
			case KindFloat64:
				attr = mesh.Float64s(float64s(raw))
			case KindInt64:
				attr = mesh.Int64s(int64s(raw))
			default:
				return nil, fmt.Errorf("%w: attribute %q has kind %q", ErrDescriptor, a.Name, a.Kind)
			}
			target := vattrs
			switch a.Location {
			case LocationVertex:
			case LocationCell:
				target = cattrs
			default:
				return nil, fmt.Errorf("%w: attribute %q has location %q", ErrDescriptor, a.Name, a.Location)
			}
			if _, dup := target[a.Name]; dup {
				return nil, fmt.Errorf("%w: duplicate attribute %q", ErrDescriptor, a.Name)
			}
			target[a.Name] = attr
		}
		// Unknown roles come from newer writers and are ignored.
	}

	if vertex == nil {
		return nil, fmt.Errorf("%w: no vertices array", ErrDescriptor)
	}
	if uint64(len(vertex)) != desc.Vertices*3 {
		return nil, fmt.Errorf("%w: %d vertices declared, %d coordinates stored", ErrDescriptor, desc.Vertices, len(vertex))
	}
	numCells := desc.Cells
	if cells == nil {
		if desc.Topology != TopologyPoints {
			return nil, fmt.Errorf("%w: no cells array", ErrDescriptor)
		}
		// Point sets may omit cells: one cell per vertex. Writers that omit
		// them declare either zero cells or one per vertex.
		cells = make([]uint32, desc.Vertices)
		for i := range cells {
			cells[i] = uint32(i)
		}
		if numCells == 0 {
			numCells = desc.Vertices
		}
	}
	if uint64(len(cells)) != numCells*uint64(k) {
		return nil, fmt.Errorf("%w: %d cells declared, %d indices stored", ErrDescriptor, numCells, len(cells))
	}

	return mesh.FromFlat(vertex, cells, k,
		mesh.WithVertexAttributes(vattrs), mesh.WithCellAttributes(cattrs))
}

// meshArrays lays out d as vertices, cells, then vertex and cell attributes
// by name.
func meshArrays(d *mesh.UnstructuredData) ([]ArrayDescriptor, [][]byte) {
	vertex := d.Vertices()
	cells := d.Cells()

	descs := []ArrayDescriptor{
		{Name: "vertices", Role: RoleVertices, Kind: KindFloat64, Length: uint64(len(vertex))},
		{Name: "cells", Role: RoleCells, Kind: KindUint32, Length: uint64(len(cells))},
	}
	raws := [][]byte{float64Bytes(vertex), uint32Bytes(cells)}

	add := func(loc, name string, a mesh.Attribute) {
		kind := KindFloat64
		if a.Kind() == mesh.KindInt64 {
			kind = KindInt64
		}
		raw := make([]byte, a.Len()*8)
		for i := 0; i < a.Len(); i++ {
			binary.LittleEndian.PutUint64(raw[i*8:], a.Bits(i))
		}
		descs = append(descs, ArrayDescriptor{Name: name, Role: RoleAttribute, Location: loc, Kind: kind, Length: uint64(a.Len())})
		raws = append(raws, raw)
	}
	for _, name := range d.VertexAttributeNames() {
		a, _ := d.VertexAttribute(name)
		add(LocationVertex, name, a)
	}
	for _, name := range d.CellAttributeNames() {
		a, _ := d.CellAttribute(name)
		add(LocationCell, name, a)
	}
	return descs, raws
}

func float64s(b []byte) []float64 {
	out := make([]float64, len(b)/8)
	for i := range out {
		out[i] = math.Float64frombits(binary.LittleEndian.Uint64(b[i*8:]))
	}
	return out
}

func int64s(b []byte) []int64 {
	out := make([]int64, len(b)/8)
	for i := range out {
		out[i] = int64(binary.LittleEndian.Uint64(b[i*8:]))
	}
	return out
}

func uint32s(b []byte) []uint32 {
	out := make([]uint32, len(b)/4)
	for i := range out {
		out[i] = binary.LittleEndian.Uint32(b[i*4:])
	}
	return out
}

func float64Bytes(v []float64) []byte {
	out := make([]byte, len(v)*8)
	for i, f := range v {
		binary.LittleEndian.PutUint64(out[i*8:], math.Float64bits(f))
	}
	return out
}

func uint32Bytes(v []uint32) []byte {
	out := make([]byte, len(v)*4)
	for i, x := range v {
		binary.LittleEndian.PutUint32(out[i*4:], x)
	}
	return out
}
