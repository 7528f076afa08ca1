package mesh

import (
	"fmt"
	"maps"
	"math"
	"slices"
)

// UnstructuredData is the canonical point+cell container.
//
// Vertices are stored flat (x0, y0, z0, x1, ...), cells flat with a constant
// stride equal to the arity. Instances never change after construction.
type UnstructuredData struct {
	vertex      []float64
	cells       []uint32
	arity       int
	vertexAttrs map[string]Attribute
	cellAttrs   map[string]Attribute
}

type options struct {
	arity       int
	vertexAttrs map[string]Attribute
	cellAttrs   map[string]Attribute
}

// Option configures construction of an UnstructuredData.
type Option func(*options)

// WithVertexAttributes attaches per-vertex attributes.
func WithVertexAttributes(attrs map[string]Attribute) Option {
	return func(o *options) {
		if o.vertexAttrs == nil {
			o.vertexAttrs = make(map[string]Attribute, len(attrs))
		}
		maps.Copy(o.vertexAttrs, attrs)
	}
}

// WithCellAttributes attaches per-cell attributes.
func WithCellAttributes(attrs map[string]Attribute) Option {
	return func(o *options) {
		if o.cellAttrs == nil {
			o.cellAttrs = make(map[string]Attribute, len(attrs))
		}
		maps.Copy(o.cellAttrs, attrs)
	}
}

// WithArity declares the cell arity. It is required to give an empty cell
// set a topology; with cells present it must agree with the row length.
func WithArity(k int) Option {
	return func(o *options) {
		o.arity = k
	}
}

// FromArray builds an UnstructuredData from row-oriented arrays.
//
// It fails with *ShapeMismatchError if cell rows are ragged or attribute
// lengths disagree with N/M, and with *IndexRangeError if a cell references a
// vertex outside [0, len(vertex)).
func FromArray(vertex [][3]float64, cells [][]int, opts ...Option) (*UnstructuredData, error) {
	o := applyOptions(opts)

	flatV := make([]float64, 0, len(vertex)*3)
	for _, v := range vertex {
		flatV = append(flatV, v[0], v[1], v[2])
	}

	arity := o.arity
	if arity < 0 {
		return nil, &ShapeMismatchError{What: "cell arity", Expected: 1, Actual: arity}
	}
	if len(cells) > 0 {
		if arity == 0 {
			arity = len(cells[0])
		}
		if arity == 0 {
			return nil, &ShapeMismatchError{What: "cell arity", Expected: 1, Actual: 0}
		}
	}

	flatC := make([]uint32, 0, len(cells)*arity)
	for j, row := range cells {
		if len(row) != arity {
			return nil, &ShapeMismatchError{What: fmt.Sprintf("cell %d", j), Expected: arity, Actual: len(row)}
		}
		for _, idx := range row {
			if idx < 0 || idx >= len(vertex) || uint64(idx) > math.MaxUint32 {
				return nil, &IndexRangeError{Cell: j, Index: int64(idx), Vertices: len(vertex)}
			}
			flatC = append(flatC, uint32(idx))
		}
	}

	return build(flatV, flatC, arity, o)
}

// FromFlat builds an UnstructuredData from flat arrays: vertex holds 3*N
// coordinates and cells holds M*arity indices. The inputs are copied.
func FromFlat(vertex []float64, cells []uint32, arity int, opts ...Option) (*UnstructuredData, error) {
	o := applyOptions(opts)
	if len(vertex)%3 != 0 {
		return nil, &ShapeMismatchError{What: "vertex coordinates (multiple of 3)", Expected: len(vertex) - len(vertex)%3, Actual: len(vertex)}
	}
	if arity < 0 || (arity == 0 && len(cells) > 0) {
		return nil, &ShapeMismatchError{What: "cell arity", Expected: 1, Actual: arity}
	}
	if arity > 0 && len(cells)%arity != 0 {
		return nil, &ShapeMismatchError{What: fmt.Sprintf("cell indices (multiple of %d)", arity), Expected: len(cells) - len(cells)%arity, Actual: len(cells)}
	}
	if o.arity != 0 && o.arity != arity {
		return nil, &ShapeMismatchError{What: "cell arity", Expected: o.arity, Actual: arity}
	}

	n := len(vertex) / 3
	for i, idx := range cells {
		if int64(idx) >= int64(n) {
			return nil, &IndexRangeError{Cell: i / arity, Index: int64(idx), Vertices: n}
		}
	}

	return build(slices.Clone(vertex), slices.Clone(cells), arity, o)
}

func applyOptions(opts []Option) options {
	var o options
	for _, fn := range opts {
		fn(&o)
	}
	return o
}

func build(vertex []float64, cells []uint32, arity int, o options) (*UnstructuredData, error) {
	d := &UnstructuredData{
		vertex:      vertex,
		cells:       cells,
		arity:       arity,
		vertexAttrs: map[string]Attribute{},
		cellAttrs:   map[string]Attribute{},
	}
	for name, a := range o.vertexAttrs {
		if err := d.checkAttribute(OnVertex, name, a); err != nil {
			return nil, err
		}
		d.vertexAttrs[name] = a
	}
	for name, a := range o.cellAttrs {
		if err := d.checkAttribute(OnCell, name, a); err != nil {
			return nil, err
		}
		d.cellAttrs[name] = a
	}
	return d, nil
}

func (d *UnstructuredData) checkAttribute(loc Location, name string, a Attribute) error {
	if name == "" {
		return &ShapeMismatchError{What: loc.String() + " attribute name", Expected: 1, Actual: 0}
	}
	want := d.NumVertices()
	if loc == OnCell {
		want = d.NumCells()
	}
	if a.Len() != want {
		return &ShapeMismatchError{What: loc.String() + " attribute", Name: name, Expected: want, Actual: a.Len()}
	}
	return nil
}

// NumVertices returns N.
func (d *UnstructuredData) NumVertices() int { return len(d.vertex) / 3 }

// NumCells returns M.
func (d *UnstructuredData) NumCells() int {
	if d.arity == 0 {
		return 0
	}
	return len(d.cells) / d.arity
}

// Arity returns K, the number of vertex indices per cell.
// It is zero only for a mesh without cells and without declared arity.
func (d *UnstructuredData) Arity() int { return d.arity }

// Vertex returns the coordinates of vertex i.
func (d *UnstructuredData) Vertex(i int) [3]float64 {
	return [3]float64{d.vertex[3*i], d.vertex[3*i+1], d.vertex[3*i+2]}
}

// Cell returns a copy of the vertex indices of cell j.
func (d *UnstructuredData) Cell(j int) []uint32 {
	return slices.Clone(d.cells[j*d.arity : (j+1)*d.arity])
}

// Vertices returns a copy of the flat coordinate array (length 3*N).
func (d *UnstructuredData) Vertices() []float64 { return slices.Clone(d.vertex) }

// Cells returns a copy of the flat index array (length M*K).
func (d *UnstructuredData) Cells() []uint32 { return slices.Clone(d.cells) }

// VertexArray returns the vertices as N rows.
func (d *UnstructuredData) VertexArray() [][3]float64 {
	out := make([][3]float64, d.NumVertices())
	for i := range out {
		out[i] = d.Vertex(i)
	}
	return out
}

// CellArray returns the cells as M rows of K indices.
func (d *UnstructuredData) CellArray() [][]int {
	out := make([][]int, d.NumCells())
	for j := range out {
		row := make([]int, d.arity)
		for k := range row {
			row[k] = int(d.cells[j*d.arity+k])
		}
		out[j] = row
	}
	return out
}

// EachCell calls fn for every cell in order until fn returns false.
// The slice passed to fn is reused between calls.
func (d *UnstructuredData) EachCell(fn func(j int, cell []uint32) bool) {
	buf := make([]uint32, d.arity)
	for j := 0; j < d.NumCells(); j++ {
		copy(buf, d.cells[j*d.arity:])
		if !fn(j, buf) {
			return
		}
	}
}

// VertexAttribute returns the named vertex attribute.
func (d *UnstructuredData) VertexAttribute(name string) (Attribute, bool) {
	a, ok := d.vertexAttrs[name]
	return a, ok
}

// CellAttribute returns the named cell attribute.
func (d *UnstructuredData) CellAttribute(name string) (Attribute, bool) {
	a, ok := d.cellAttrs[name]
	return a, ok
}

// VertexAttributes returns a copy of the vertex attribute mapping.
func (d *UnstructuredData) VertexAttributes() map[string]Attribute { return maps.Clone(d.vertexAttrs) }

// CellAttributes returns a copy of the cell attribute mapping.
func (d *UnstructuredData) CellAttributes() map[string]Attribute { return maps.Clone(d.cellAttrs) }

// VertexAttributeNames returns the vertex attribute names in sorted order.
func (d *UnstructuredData) VertexAttributeNames() []string {
	return slices.Sorted(maps.Keys(d.vertexAttrs))
}

// CellAttributeNames returns the cell attribute names in sorted order.
func (d *UnstructuredData) CellAttributeNames() []string {
	return slices.Sorted(maps.Keys(d.cellAttrs))
}

// WithVertexAttribute returns a new instance with the attribute added or replaced.
func (d *UnstructuredData) WithVertexAttribute(name string, a Attribute) (*UnstructuredData, error) {
	if err := d.checkAttribute(OnVertex, name, a); err != nil {
		return nil, err
	}
	out := d.shallowCopy()
	out.vertexAttrs[name] = a
	return out, nil
}

// WithCellAttribute returns a new instance with the attribute added or replaced.
func (d *UnstructuredData) WithCellAttribute(name string, a Attribute) (*UnstructuredData, error) {
	if err := d.checkAttribute(OnCell, name, a); err != nil {
		return nil, err
	}
	out := d.shallowCopy()
	out.cellAttrs[name] = a
	return out, nil
}

// shallowCopy shares the geometry arrays, which are never written after build.
func (d *UnstructuredData) shallowCopy() *UnstructuredData {
	return &UnstructuredData{
		vertex:      d.vertex,
		cells:       d.cells,
		arity:       d.arity,
		vertexAttrs: maps.Clone(d.vertexAttrs),
		cellAttrs:   maps.Clone(d.cellAttrs),
	}
}

// Bounds returns the axis-aligned bounding box. Both corners are zero for a
// mesh without vertices.
func (d *UnstructuredData) Bounds() (lo, hi [3]float64) {
	if len(d.vertex) == 0 {
		return lo, hi
	}
	lo = d.Vertex(0)
	hi = lo
	for i := 1; i < d.NumVertices(); i++ {
		v := d.Vertex(i)
		for k := 0; k < 3; k++ {
			lo[k] = math.Min(lo[k], v[k])
			hi[k] = math.Max(hi[k], v[k])
		}
	}
	return lo, hi
}

// Equal reports whether d and o describe the same geometry and attributes.
// Coordinates are compared with absolute tolerance tol; indices and
// attribute values exactly.
func (d *UnstructuredData) Equal(o *UnstructuredData, tol float64) bool {
	if d == nil || o == nil {
		return d == o
	}
	if d.arity != o.arity || len(d.vertex) != len(o.vertex) || !slices.Equal(d.cells, o.cells) {
		return false
	}
	for i := range d.vertex {
		if math.Abs(d.vertex[i]-o.vertex[i]) > tol {
			return false
		}
	}
	return attrsEqual(d.vertexAttrs, o.vertexAttrs) && attrsEqual(d.cellAttrs, o.cellAttrs)
}

func attrsEqual(a, b map[string]Attribute) bool {
	return maps.EqualFunc(a, b, Attribute.Equal)
}

// String returns a short summary.
func (d *UnstructuredData) String() string {
	return fmt.Sprintf("UnstructuredData(vertices=%d, cells=%d, arity=%d, vertex_attrs=%v, cell_attrs=%v)",
		d.NumVertices(), d.NumCells(), d.arity, d.VertexAttributeNames(), d.CellAttributeNames())
}
