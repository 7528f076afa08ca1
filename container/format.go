package container

import (
	"encoding/binary"
	"hash/crc32"
	"math"

	"github.com/google/uuid"
)

const (
	// Magic opens every container stream.
	Magic = "GEOC"
	// Version is the container format version this package reads and writes.
	Version uint32 = 1
	// HeaderSize is the fixed size of the stream header.
	HeaderSize = 32

	// DefaultMaxFrameSize bounds a single frame payload unless WithMaxFrameSize
	// says otherwise.
	DefaultMaxFrameSize = 256 << 20

	frameHeaderSize = 9
	maxUint32       = math.MaxUint32
)

// header is the 32-byte stream header:
// magic[4] version u32 project[16] flags u32 crc32 u32.
type header struct {
	Version uint32
	Project uuid.UUID
	Flags   uint32
}

func (h header) marshal() [HeaderSize]byte {
	var b [HeaderSize]byte
	copy(b[0:4], Magic)
	binary.LittleEndian.PutUint32(b[4:], h.Version)
	copy(b[8:24], h.Project[:])
	binary.LittleEndian.PutUint32(b[24:], h.Flags)
	binary.LittleEndian.PutUint32(b[28:], crc32.ChecksumIEEE(b[:28]))
	return b
}

func parseHeader(b []byte) (header, error) {
	if string(b[0:4]) != Magic {
		return header{}, ErrBadMagic
	}
	if crc32.ChecksumIEEE(b[:28]) != binary.LittleEndian.Uint32(b[28:]) {
		return header{}, ErrHeaderChecksum
	}
	h := header{
		Version: binary.LittleEndian.Uint32(b[4:]),
		Flags:   binary.LittleEndian.Uint32(b[24:]),
	}
	copy(h.Project[:], b[8:24])
	if h.Version != Version {
		return header{}, ErrUnsupportedVersion
	}
	return h, nil
}

type frameType uint8

const (
	frameObject frameType = 1
	frameArray  frameType = 2
	frameEnd    frameType = 3
)

func (t frameType) String() string {
	switch t {
	case frameObject:
		return "object"
	case frameArray:
		return "array"
	case frameEnd:
		return "end"
	default:
		return "unknown"
	}
}

// Topology names the cell layout of an object, after OMF element kinds.
type Topology string

const (
	TopologyPoints    Topology = "points"
	TopologyLines     Topology = "lines"
	TopologyTriangles Topology = "triangles"
	TopologyQuads     Topology = "quads"
	TopologyGrid      Topology = "grid"
	TopologyVolume    Topology = "volume"
)

// Arity returns the fixed cell arity of t, or 0 when t has no fixed-arity
// cells (grids, volumes and unknown names).
func (t Topology) Arity() int {
	switch t {
	case TopologyPoints:
		return 1
	case TopologyLines:
		return 2
	case TopologyTriangles:
		return 3
	case TopologyQuads:
		return 4
	default:
		return 0
	}
}

// TopologyForArity maps a mesh arity to its topology.
func TopologyForArity(k int) (Topology, bool) {
	switch k {
	case 1:
		return TopologyPoints, true
	case 2:
		return TopologyLines, true
	case 3:
		return TopologyTriangles, true
	case 4:
		return TopologyQuads, true
	default:
		return "", false
	}
}

// Array roles.
const (
	RoleVertices  = "vertices"
	RoleCells     = "cells"
	RoleAttribute = "attribute"
)

// Array locations for RoleAttribute.
const (
	LocationVertex = "vertex"
	LocationCell   = "cell"
)

// ArrayKind is the element type of an array.
type ArrayKind string

const (
	KindFloat64 ArrayKind = "float64"
	KindInt64   ArrayKind = "int64"
	KindUint32  ArrayKind = "uint32"
	KindUint8   ArrayKind = "uint8"
)

// Size returns the element size in bytes, or 0 for unknown kinds.
func (k ArrayKind) Size() int {
	switch k {
	case KindFloat64, KindInt64:
		return 8
	case KindUint32:
		return 4
	case KindUint8:
		return 1
	default:
		return 0
	}
}

// ArrayDescriptor describes one array frame of an object.
type ArrayDescriptor struct {
	Name     string    `cbor:"name"`
	Role     string    `cbor:"role"`
	Location string    `cbor:"location,omitempty"`
	Kind     ArrayKind `cbor:"kind"`
	// Length counts elements, not bytes.
	Length uint64 `cbor:"length"`
}

func (a ArrayDescriptor) byteLen() (uint64, bool) {
	size := uint64(a.Kind.Size())
	if size == 0 || a.Length > maxUint32/size {
		return 0, false
	}
	return a.Length * size, true
}

// ObjectDescriptor is the CBOR payload of an object frame. Its Arrays are
// followed, in order, by one array frame each.
type ObjectDescriptor struct {
	UID         string            `cbor:"uid"`
	Name        string            `cbor:"name"`
	Description string            `cbor:"description,omitempty"`
	Topology    Topology          `cbor:"topology"`
	Arity       int               `cbor:"arity"`
	Vertices    uint64            `cbor:"vertices"`
	Cells       uint64            `cbor:"cells"`
	Arrays      []ArrayDescriptor `cbor:"arrays"`
}

// trailer is the CBOR payload of the end frame.
type trailer struct {
	Objects int    `cbor:"objects"`
	Project string `cbor:"project"`
}
