package persistence

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/hupe1980/subsurf/mesh"
)

// attrEntry is one row of the attribute table.
type attrEntry struct {
	loc  mesh.Location
	name string
	attr mesh.Attribute
}

// sortedAttributes lists vertex attributes then cell attributes, each by name.
func sortedAttributes(d *mesh.UnstructuredData) []attrEntry {
	var entries []attrEntry
	for _, name := range d.VertexAttributeNames() {
		a, _ := d.VertexAttribute(name)
		entries = append(entries, attrEntry{loc: mesh.OnVertex, name: name, attr: a})
	}
	for _, name := range d.CellAttributeNames() {
		a, _ := d.CellAttribute(name)
		entries = append(entries, attrEntry{loc: mesh.OnCell, name: name, attr: a})
	}
	return entries
}

// Encode serializes d to a self-describing artifact. Equal inputs produce
// byte-identical output.
func Encode(d *mesh.UnstructuredData) ([]byte, error) {
	var buf bytes.Buffer
	if err := EncodeTo(&buf, d); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// EncodeTo writes the artifact for d to w.
func EncodeTo(w io.Writer, d *mesh.UnstructuredData) error {
	if d == nil {
		return errors.New("persistence: nil mesh")
	}

	body, header, err := encodeBody(d)
	if err != nil {
		return err
	}

	bw := NewBinaryWriter(w)
	if err := bw.WriteHeader(header); err != nil {
		return fmt.Errorf("persistence: write header: %w", err)
	}
	if _, err := w.Write(body); err != nil {
		return fmt.Errorf("persistence: write body: %w", err)
	}
	return nil
}

func encodeBody(d *mesh.UnstructuredData) ([]byte, *FileHeader, error) {
	entries := sortedAttributes(d)

	var buf bytes.Buffer
	buf.Grow(d.NumVertices()*24 + d.NumCells()*d.Arity()*4)

	cw := NewChecksumWriter(&buf)
	bw := NewBinaryWriter(cw)

	if err := bw.WriteFloat64Slice(d.Vertices()); err != nil {
		return nil, nil, err
	}
	if err := bw.WriteUint32Slice(d.Cells()); err != nil {
		return nil, nil, err
	}

	var nv, nc uint32
	for _, e := range entries {
		if len(e.name) > math.MaxUint16 {
			return nil, nil, fmt.Errorf("persistence: attribute name %.32q... exceeds %d bytes", e.name, math.MaxUint16)
		}
		if e.loc == mesh.OnVertex {
			nv++
		} else {
			nc++
		}
		if err := bw.WriteUint8(uint8(e.loc)); err != nil {
			return nil, nil, err
		}
		if err := bw.WriteUint8(uint8(e.attr.Kind())); err != nil {
			return nil, nil, err
		}
		if err := bw.WriteUint16(uint16(len(e.name))); err != nil {
			return nil, nil, err
		}
		if _, err := io.WriteString(cw, e.name); err != nil {
			return nil, nil, err
		}
		if err := bw.WriteUint64(uint64(e.attr.Len())); err != nil {
			return nil, nil, err
		}
		for i := 0; i < e.attr.Len(); i++ {
			if err := bw.WriteUint64(e.attr.Bits(i)); err != nil {
				return nil, nil, err
			}
		}
	}

	header := &FileHeader{
		Arity:           uint32(d.Arity()),
		VertexCount:     uint64(d.NumVertices()),
		CellCount:       uint64(d.NumCells()),
		VertexAttrCount: nv,
		CellAttrCount:   nc,
		BodyLength:      cw.Len(),
		Checksum:        cw.Sum(),
	}
	return buf.Bytes(), header, nil
}

// Decode reconstructs an UnstructuredData from an artifact.
//
// It fails with *FormatVersionError for foreign or unknown-version data,
// *TruncatedDataError when b is shorter than the header declares and
// *ChecksumMismatchError when the body is damaged. Mesh invariant violations
// in the stored data surface as the mesh package's errors.
func Decode(b []byte) (*mesh.UnstructuredData, error) {
	if len(b) < HeaderSize {
		return nil, &TruncatedDataError{Need: HeaderSize, Have: uint64(len(b)), What: "header"}
	}
	h, err := parseHeader(b[:HeaderSize])
	if err != nil {
		return nil, err
	}
	have := uint64(len(b) - HeaderSize)
	if h.BodyLength > have {
		return nil, &TruncatedDataError{Need: HeaderSize + h.BodyLength, Have: uint64(len(b)), What: "body"}
	}
	return decodeBody(h, b[HeaderSize:HeaderSize+h.BodyLength])
}

// DecodeFrom reads one artifact from r. It reads exactly the header and the
// declared body, leaving any following bytes unread.
func DecodeFrom(r io.Reader) (*mesh.UnstructuredData, error) {
	var hb [HeaderSize]byte
	n, err := io.ReadFull(r, hb[:])
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, &TruncatedDataError{Need: HeaderSize, Have: uint64(n), What: "header"}
		}
		return nil, fmt.Errorf("persistence: read header: %w", err)
	}
	h, err := parseHeader(hb[:])
	if err != nil {
		return nil, err
	}

	// ReadAll grows with the data actually present, so a damaged length
	// field cannot force a huge allocation up front.
	body, err := io.ReadAll(io.LimitReader(r, int64(min(h.BodyLength, math.MaxInt64))))
	if err != nil {
		return nil, fmt.Errorf("persistence: read body: %w", err)
	}
	if uint64(len(body)) < h.BodyLength {
		return nil, &TruncatedDataError{Need: HeaderSize + h.BodyLength, Have: HeaderSize + uint64(len(body)), What: "body"}
	}
	return decodeBody(h, body)
}

// ReadHeader parses and validates the header at the start of b.
func ReadHeader(b []byte) (*FileHeader, error) {
	if len(b) < HeaderSize {
		return nil, &TruncatedDataError{Need: HeaderSize, Have: uint64(len(b)), What: "header"}
	}
	return parseHeader(b[:HeaderSize])
}

func parseHeader(b []byte) (*FileHeader, error) {
	var h FileHeader
	if err := binary.Read(bytes.NewReader(b), binary.LittleEndian, &h); err != nil {
		return nil, fmt.Errorf("persistence: parse header: %w", err)
	}
	if h.Magic != MagicNumber {
		return nil, &FormatVersionError{Magic: h.Magic, Version: h.Version, err: ErrInvalidMagic}
	}
	if h.Version != Version {
		return nil, &FormatVersionError{Magic: h.Magic, Version: h.Version, err: ErrInvalidVersion}
	}
	return &h, nil
}

func decodeBody(h *FileHeader, body []byte) (*mesh.UnstructuredData, error) {
	geom, ok := h.geometryLength()
	if !ok {
		return nil, fmt.Errorf("%w: vertex/cell counts overflow", ErrCorrupt)
	}
	if geom > uint64(len(body)) {
		return nil, &TruncatedDataError{Need: HeaderSize + geom, Have: HeaderSize + uint64(len(body)), What: "geometry"}
	}
	if err := verifyChecksum(h.Checksum, Checksum(body)); err != nil {
		return nil, err
	}

	r := &bodyReader{buf: body}
	vertex, err := r.float64s(h.VertexCount*3, "vertices")
	if err != nil {
		return nil, err
	}
	cells, err := r.uint32s(h.CellCount*uint64(h.Arity), "cells")
	if err != nil {
		return nil, err
	}

	vattrs := make(map[string]mesh.Attribute)
	cattrs := make(map[string]mesh.Attribute)
	total := uint64(h.VertexAttrCount) + uint64(h.CellAttrCount)
	for i := uint64(0); i < total; i++ {
		loc, name, attr, err := readAttribute(r)
		if err != nil {
			return nil, err
		}
		target := vattrs
		if loc == mesh.OnCell {
			target = cattrs
		}
		if _, dup := target[name]; dup {
			return nil, fmt.Errorf("%w: duplicate %s attribute %q", ErrCorrupt, loc, name)
		}
		target[name] = attr
	}
	if len(vattrs) != int(h.VertexAttrCount) || len(cattrs) != int(h.CellAttrCount) {
		return nil, fmt.Errorf("%w: attribute table disagrees with header counts", ErrCorrupt)
	}
	if r.remaining() != 0 {
		return nil, fmt.Errorf("%w: %d trailing body bytes", ErrCorrupt, r.remaining())
	}

	return mesh.FromFlat(vertex, cells, int(h.Arity),
		mesh.WithVertexAttributes(vattrs), mesh.WithCellAttributes(cattrs))
}

func readAttribute(r *bodyReader) (mesh.Location, string, mesh.Attribute, error) {
	locByte, err := r.uint8("attribute location")
	if err != nil {
		return 0, "", mesh.Attribute{}, err
	}
	loc := mesh.Location(locByte)
	if loc != mesh.OnVertex && loc != mesh.OnCell {
		return 0, "", mesh.Attribute{}, fmt.Errorf("%w: attribute location %d", ErrCorrupt, locByte)
	}
	kind, err := r.uint8("attribute kind")
	if err != nil {
		return 0, "", mesh.Attribute{}, err
	}
	nameLen, err := r.uint16("attribute name length")
	if err != nil {
		return 0, "", mesh.Attribute{}, err
	}
	nameBytes, err := r.take(uint64(nameLen), "attribute name")
	if err != nil {
		return 0, "", mesh.Attribute{}, err
	}
	count, err := r.uint64("attribute length")
	if err != nil {
		return 0, "", mesh.Attribute{}, err
	}
	words, err := r.uint64s(count, "attribute values")
	if err != nil {
		return 0, "", mesh.Attribute{}, err
	}
	attr, err := mesh.FromBits(mesh.Kind(kind), words)
	if err != nil {
		return 0, "", mesh.Attribute{}, err
	}
	return loc, string(nameBytes), attr, nil
}
