package container

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
)

// Frame layout: [crc32 u32][type u8][len u32][payload]. The CRC covers type,
// len and payload.

type frame struct {
	typ     frameType
	offset  int64
	payload []byte
}

// countingReader tracks the stream offset for error reports.
type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

// errCleanEOF marks a stream that ended exactly on a frame boundary.
var errCleanEOF = errors.New("end of stream at frame boundary")

// readFrame reads the next frame. With discard set the payload is verified
// and dropped without being buffered.
func readFrame(cr *countingReader, maxSize int64, discard bool) (frame, error) {
	f := frame{offset: cr.n}

	var hdr [frameHeaderSize]byte
	n, err := io.ReadFull(cr, hdr[:])
	if err != nil {
		if n == 0 && errors.Is(err, io.EOF) {
			return f, errCleanEOF
		}
		return f, ioErr(err)
	}

	want := binary.LittleEndian.Uint32(hdr[0:])
	f.typ = frameType(hdr[4])
	size := int64(binary.LittleEndian.Uint32(hdr[5:]))
	if size > maxSize {
		return f, fmt.Errorf("%w: %d bytes (limit %d)", ErrFrameTooLarge, size, maxSize)
	}

	h := crc32.NewIEEE()
	_, _ = h.Write(hdr[4:])

	if discard {
		if _, err := io.CopyN(h, cr, size); err != nil {
			return f, ioErr(err)
		}
	} else {
		// Grow with the bytes actually present instead of trusting size.
		payload, err := io.ReadAll(io.LimitReader(cr, size))
		if err != nil {
			return f, ioErr(err)
		}
		if int64(len(payload)) < size {
			return f, ioErr(io.ErrUnexpectedEOF)
		}
		f.payload = payload
		_, _ = h.Write(f.payload)
	}

	if got := h.Sum32(); got != want {
		return f, fmt.Errorf("%w: %s frame expected 0x%08x, got 0x%08x", ErrFrameChecksum, f.typ, want, got)
	}
	return f, nil
}

// ioErr folds short reads into ErrTruncated and keeps other I/O errors.
func ioErr(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: %w", ErrTruncated, err)
	}
	return err
}

func writeFrame(w io.Writer, typ frameType, payload []byte) (int, error) {
	if uint64(len(payload)) > maxUint32 {
		return 0, fmt.Errorf("container: %s frame of %d bytes exceeds limit", typ, len(payload))
	}
	var hdr [frameHeaderSize]byte
	hdr[4] = byte(typ)
	binary.LittleEndian.PutUint32(hdr[5:], uint32(len(payload)))

	h := crc32.NewIEEE()
	_, _ = h.Write(hdr[4:])
	_, _ = h.Write(payload)
	binary.LittleEndian.PutUint32(hdr[0:], h.Sum32())

	n, err := w.Write(hdr[:])
	if err != nil {
		return n, err
	}
	m, err := w.Write(payload)
	return n + m, err
}
