// Package fsutil holds filesystem helpers shared by the persistence layer and
// the local blob store.
package fsutil

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
)

// WriteAtomic writes path by streaming writeFunc into a temp file in the same
// directory, syncing it, and renaming it over path. On any failure the temp
// file is removed and path is left untouched.
func WriteAtomic(path string, perm os.FileMode, writeFunc func(io.Writer) error) error {
	dir := filepath.Dir(path)
	base := filepath.Base(path)

	// Same directory keeps the rename atomic.
	tmp, err := os.CreateTemp(dir, "."+base+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		_ = tmp.Close()
		if tmpName != "" {
			_ = os.Remove(tmpName)
		}
	}()

	if err := tmp.Chmod(perm); err != nil {
		return err
	}

	buf := bufio.NewWriterSize(tmp, 256*1024)
	if err := writeFunc(buf); err != nil {
		return err
	}
	if err := buf.Flush(); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Rename(tmpName, path); err != nil {
		return err
	}
	tmpName = ""

	// Best-effort: fsync the directory so the rename is durable on POSIX.
	if d, err := os.Open(dir); err == nil {
		_ = d.Sync()
		_ = d.Close()
	}
	return nil
}

// IsTemp reports whether name looks like a WriteAtomic temp file.
func IsTemp(name string) bool {
	base := filepath.Base(name)
	if len(base) < 2 || base[0] != '.' {
		return false
	}
	matched, _ := filepath.Match(".*.tmp-*", base)
	return matched
}
