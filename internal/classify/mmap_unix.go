//go:build unix

package classify

import (
	"fmt"
	"math"
	"os"

	"golang.org/x/sys/unix"
)

// mapFile maps f read-only. release must be called once the returned bytes
// are no longer referenced.
func mapFile(f *os.File) ([]byte, func(), error) {
	info, err := f.Stat()
	if err != nil {
		return nil, nil, fmt.Errorf("stat: %w", err)
	}
	if !info.Mode().IsRegular() {
		return nil, nil, fmt.Errorf("%s: %w", info.Name(), ErrNotRegular)
	}

	size := info.Size()
	if size == 0 {
		return nil, func() {}, nil
	}
	if size > math.MaxInt {
		return nil, nil, fmt.Errorf("%s: file too large to map (%d bytes)", info.Name(), size)
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, nil, fmt.Errorf("mmap: %w", err)
	}

	return data, func() { _ = unix.Munmap(data) }, nil
}
