package persistence

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidMagic indicates the bytes are not a mesh artifact.
	ErrInvalidMagic = errors.New("invalid magic number")
	// ErrInvalidVersion indicates an artifact version this build cannot read.
	ErrInvalidVersion = errors.New("unsupported version")
	// ErrTruncated is matched by every *TruncatedDataError.
	ErrTruncated = errors.New("truncated data")
	// ErrIOWrite is matched by every *IOWriteError.
	ErrIOWrite = errors.New("write failed")
	// ErrInvalidName is returned for logical names that cannot map to a path.
	ErrInvalidName = errors.New("invalid artifact name")
	// ErrCorrupt is returned when the body is internally inconsistent.
	ErrCorrupt = errors.New("corrupt artifact")
)

// FormatVersionError is returned when the header carries an unknown magic
// number or version. It wraps ErrInvalidMagic or ErrInvalidVersion.
type FormatVersionError struct {
	Magic   uint32
	Version uint32
	err     error
}

func (e *FormatVersionError) Error() string {
	return fmt.Sprintf("unrecognized artifact format (magic 0x%08x, version 0x%08x): %v", e.Magic, e.Version, e.err)
}

func (e *FormatVersionError) Unwrap() error { return e.err }

// TruncatedDataError is returned when fewer bytes are available than the
// header's declared counts require.
type TruncatedDataError struct {
	Need uint64
	Have uint64
	What string
}

func (e *TruncatedDataError) Error() string {
	return fmt.Sprintf("truncated %s: need %d bytes, have %d", e.What, e.Need, e.Have)
}

// Is makes errors.Is(err, ErrTruncated) work.
func (e *TruncatedDataError) Is(target error) bool { return target == ErrTruncated }

// IOWriteError is returned when persisting an artifact fails. The final path
// never holds a partially written file when this error is returned.
type IOWriteError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOWriteError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOWriteError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrIOWrite) work.
func (e *IOWriteError) Is(target error) bool { return target == ErrIOWrite }
