// Package persistence provides the binary artifact format for
// mesh.UnstructuredData and named, atomically written artifacts.
//
// An artifact is a 64-byte FileHeader followed by the raw vertex coordinates,
// the raw cell indices and an attribute table. The header records a magic
// number and version so unknown formats fail cleanly, and a CRC32 of the body.
//
// Artifacts can be written to a directory with WriteNamed or to any
// blobstore.BlobStore through an Archive.
package persistence

import (
	"encoding/binary"
	"io"
	"math"
	"unsafe"
)

// BinaryWriter writes little-endian primitives and slices.
type BinaryWriter struct {
	w       io.Writer
	scratch [8]byte
}

// NewBinaryWriter creates a new binary writer.
func NewBinaryWriter(w io.Writer) *BinaryWriter {
	return &BinaryWriter{w: w}
}

// WriteHeader writes the file header, stamping magic and version.
func (bw *BinaryWriter) WriteHeader(header *FileHeader) error {
	header.Magic = MagicNumber
	header.Version = Version
	return binary.Write(bw.w, binary.LittleEndian, header)
}

// WriteUint8 writes one byte.
func (bw *BinaryWriter) WriteUint8(v uint8) error {
	bw.scratch[0] = v
	_, err := bw.w.Write(bw.scratch[:1])
	return err
}

// WriteUint16 writes a little-endian uint16.
func (bw *BinaryWriter) WriteUint16(v uint16) error {
	binary.LittleEndian.PutUint16(bw.scratch[:2], v)
	_, err := bw.w.Write(bw.scratch[:2])
	return err
}

// WriteUint64 writes a little-endian uint64.
func (bw *BinaryWriter) WriteUint64(v uint64) error {
	binary.LittleEndian.PutUint64(bw.scratch[:8], v)
	_, err := bw.w.Write(bw.scratch[:8])
	return err
}

// WriteFloat64Slice writes a float64 slice as raw little-endian bytes.
// On little-endian hosts with aligned input this is a single write.
func (bw *BinaryWriter) WriteFloat64Slice(vec []float64) error {
	if len(vec) == 0 {
		return nil
	}
	if nativeLittleEndian && aligned(unsafe.Pointer(&vec[0]), 8) {
		_, err := bw.w.Write(unsafe.Slice((*byte)(unsafe.Pointer(&vec[0])), len(vec)*8))
		return err
	}
	for _, v := range vec {
		if err := bw.WriteUint64(math.Float64bits(v)); err != nil {
			return err
		}
	}
	return nil
}

// WriteUint32Slice writes a uint32 slice as raw little-endian bytes.
func (bw *BinaryWriter) WriteUint32Slice(slice []uint32) error {
	if len(slice) == 0 {
		return nil
	}
	if nativeLittleEndian && aligned(unsafe.Pointer(&slice[0]), 4) {
		_, err := bw.w.Write(unsafe.Slice((*byte)(unsafe.Pointer(&slice[0])), len(slice)*4))
		return err
	}
	for _, v := range slice {
		binary.LittleEndian.PutUint32(bw.scratch[:4], v)
		if _, err := bw.w.Write(bw.scratch[:4]); err != nil {
			return err
		}
	}
	return nil
}

// bodyReader walks a fully buffered body with bounds checks. Every read past
// the end yields a *TruncatedDataError.
type bodyReader struct {
	buf []byte
	off uint64
}

func (r *bodyReader) remaining() uint64 { return uint64(len(r.buf)) - r.off }

func (r *bodyReader) take(n uint64, what string) ([]byte, error) {
	if n > r.remaining() {
		return nil, &TruncatedDataError{Need: HeaderSize + r.off + n, Have: HeaderSize + uint64(len(r.buf)), What: what}
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b, nil
}

func (r *bodyReader) uint8(what string) (uint8, error) {
	b, err := r.take(1, what)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *bodyReader) uint16(what string) (uint16, error) {
	b, err := r.take(2, what)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (r *bodyReader) uint64(what string) (uint64, error) {
	b, err := r.take(8, what)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func (r *bodyReader) float64s(n uint64, what string) ([]float64, error) {
	if n > r.remaining()/8 {
		return nil, &TruncatedDataError{Need: HeaderSize + r.off + n*8, Have: HeaderSize + uint64(len(r.buf)), What: what}
	}
	b, _ := r.take(n*8, what)
	out := make([]float64, n)
	for i := range out {
		out[i] = math.Float64frombits(binary.LittleEndian.Uint64(b[i*8:]))
	}
	return out, nil
}

func (r *bodyReader) uint32s(n uint64, what string) ([]uint32, error) {
	if n > r.remaining()/4 {
		return nil, &TruncatedDataError{Need: HeaderSize + r.off + n*4, Have: HeaderSize + uint64(len(r.buf)), What: what}
	}
	b, _ := r.take(n*4, what)
	out := make([]uint32, n)
	for i := range out {
		out[i] = binary.LittleEndian.Uint32(b[i*4:])
	}
	return out, nil
}

func (r *bodyReader) uint64s(n uint64, what string) ([]uint64, error) {
	if n > r.remaining()/8 {
		return nil, &TruncatedDataError{Need: HeaderSize + r.off + n*8, Have: HeaderSize + uint64(len(r.buf)), What: what}
	}
	b, _ := r.take(n*8, what)
	out := make([]uint64, n)
	for i := range out {
		out[i] = binary.LittleEndian.Uint64(b[i*8:])
	}
	return out, nil
}
