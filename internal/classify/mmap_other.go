//go:build !unix

package classify

import (
	"fmt"
	"io"
	"os"
)

// mapFile reads f into memory on platforms without a usable mmap.
func mapFile(f *os.File) ([]byte, func(), error) {
	info, err := f.Stat()
	if err != nil {
		return nil, nil, fmt.Errorf("stat: %w", err)
	}
	if !info.Mode().IsRegular() {
		return nil, nil, fmt.Errorf("%s: %w", info.Name(), ErrNotRegular)
	}

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, nil, fmt.Errorf("read: %w", err)
	}
	return data, func() {}, nil
}
