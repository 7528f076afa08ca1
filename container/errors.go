package container

import (
	"errors"
	"fmt"
)

var (
	// ErrBadMagic means the stream does not start with a container header.
	ErrBadMagic = errors.New("bad magic")
	// ErrUnsupportedVersion means the header carries an unknown format version.
	ErrUnsupportedVersion = errors.New("unsupported container version")
	// ErrHeaderChecksum means the stream header is damaged.
	ErrHeaderChecksum = errors.New("header checksum mismatch")
	// ErrFrameChecksum means a frame does not match its CRC.
	ErrFrameChecksum = errors.New("frame checksum mismatch")
	// ErrFrameTooLarge means a frame exceeds the configured maximum size.
	ErrFrameTooLarge = errors.New("frame too large")
	// ErrUnexpectedFrame means a frame appeared where the grammar forbids it.
	ErrUnexpectedFrame = errors.New("unexpected frame")
	// ErrTruncated means the stream ended before the end frame.
	ErrTruncated = errors.New("truncated stream")
	// ErrTrailer means the end frame disagrees with the objects read.
	ErrTrailer = errors.New("invalid trailer")
	// ErrDescriptor means an object descriptor is inconsistent with its arrays.
	ErrDescriptor = errors.New("invalid object descriptor")
	// ErrClosed is returned when writing to a closed Writer.
	ErrClosed = errors.New("container: writer closed")
)

// ContainerFormatError reports a stream whose framing cannot be parsed.
// Reading cannot continue past it.
type ContainerFormatError struct {
	// Offset is the byte offset of the frame or header that failed.
	Offset int64
	Err    error
}

func (e *ContainerFormatError) Error() string {
	return fmt.Sprintf("container: malformed stream at offset %d: %v", e.Offset, e.Err)
}

func (e *ContainerFormatError) Unwrap() error { return e.Err }

// ObjectDecodeError reports a malformed object. Position is the zero-based
// index of the object in the container, counting skipped objects.
type ObjectDecodeError struct {
	Position int
	Name     string
	Err      error
}

func (e *ObjectDecodeError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("container: object %d: %v", e.Position, e.Err)
	}
	return fmt.Sprintf("container: object %d (%q): %v", e.Position, e.Name, e.Err)
}

func (e *ObjectDecodeError) Unwrap() error { return e.Err }
