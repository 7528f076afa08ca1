package persistence

const (
	// MagicNumber identifies subsurf mesh artifacts (ASCII: "SSUD").
	MagicNumber = 0x53535544
	// Version is the current artifact format version (v1.0).
	Version = 0x00010000

	// HeaderSize is the fixed size of FileHeader on disk.
	HeaderSize = 64

	// ArtifactExt is the file extension of persisted artifacts.
	ArtifactExt = ".le"
	// SidecarExt is the file extension of the optional JSON header.
	SidecarExt = ".json"
)

// FileHeader is the 64-byte header at the start of every artifact.
//
// All integers are little-endian. The body that follows is:
//
//	vertices   VertexCount*3 float64
//	cells      CellCount*Arity uint32
//	attributes VertexAttrCount+CellAttrCount entries of
//	           [location u8][kind u8][name len u16][name][count u64][count*8 bytes]
type FileHeader struct {
	Magic           uint32 // 0x53535544 ("SSUD")
	Version         uint32 // File format version
	Arity           uint32 // Cell arity K
	Flags           uint32 // Reserved, zero
	VertexCount     uint64 // N
	CellCount       uint64 // M
	VertexAttrCount uint32
	CellAttrCount   uint32
	BodyLength      uint64 // Bytes following the header
	Checksum        uint32 // CRC32 (IEEE) of the body
	Padding         [4]byte
	Reserved        [8]byte
}

// geometryLength returns the body bytes needed for vertices and cells, or
// false if the declared counts overflow.
func (h *FileHeader) geometryLength() (uint64, bool) {
	const limit = 1 << 56
	if h.VertexCount > limit/24 || h.CellCount > limit/4 || uint64(h.Arity) > limit/4 {
		return 0, false
	}
	cellBytes := h.CellCount * uint64(h.Arity) * 4
	if h.CellCount != 0 && cellBytes/h.CellCount != uint64(h.Arity)*4 {
		return 0, false
	}
	return h.VertexCount*24 + cellBytes, true
}
