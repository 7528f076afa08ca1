package persistence

import (
	"fmt"
	"runtime"
	"unsafe"
)

// nativeLittleEndian selects the zero-copy write path. Big-endian hosts fall
// back to per-element encoding.
var nativeLittleEndian = isLittleEndian()

// isLittleEndian checks if the system is little-endian
func isLittleEndian() bool {
	var test uint16 = 0x0001
	firstByte := *(*byte)(unsafe.Pointer(&test))
	return firstByte == 1
}

func aligned(p unsafe.Pointer, n uintptr) bool {
	return uintptr(p)%n == 0
}

// PlatformInfo returns information about the current platform
func PlatformInfo() string {
	endian := "little-endian"
	if !nativeLittleEndian {
		endian = "big-endian"
	}
	return fmt.Sprintf("GOOS=%s GOARCH=%s endianness=%s", runtime.GOOS, runtime.GOARCH, endian)
}
