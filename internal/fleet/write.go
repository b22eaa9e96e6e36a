package fleet

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

const (
	tempPrefix = ".oridll-"
	tempSuffix = ".tmp"
)

type writeFunc func(target string, src io.Reader) error

// writeAtomic replaces target with the contents of src. The data goes to a
// temporary file in the same directory first, so target is either left as
// it was or fully replaced.
func writeAtomic(target string, src io.Reader) error {
	dir := filepath.Dir(target)

	tmp, err := os.CreateTemp(dir, tempPrefix+"*"+tempSuffix)
	if err != nil {
		return fmt.Errorf("create temporary file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) // no-op once renamed

	if _, err := io.Copy(tmp, src); err != nil {
		tmp.Close()
		return fmt.Errorf("write temporary file: %w", err)
	}
	if err := tmp.Chmod(0644); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod temporary file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temporary file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temporary file: %w", err)
	}

	if err := os.Rename(tmpPath, target); err != nil {
		return fmt.Errorf("rename into place: %w", err)
	}

	syncDir(dir)
	return nil
}

// syncDir flushes directory entries. Not every platform can, so failures
// are ignored.
func syncDir(dir string) {
	if df, err := os.Open(dir); err == nil {
		df.Sync()
		df.Close()
	}
}
