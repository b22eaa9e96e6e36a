package pe

import (
	"encoding/binary"
)

// window is a bounds-checked view into the source image. base is the
// absolute offset of data[0], kept so errors and spans can point back into
// the original buffer.
type window struct {
	data []byte
	base int64
}

func (w window) len() uint64 {
	return uint64(len(w.data))
}

// slice returns the n bytes starting at off.
func (w window) slice(off, n uint64, op string) (window, error) {
	if off > w.len() || n > w.len()-off {
		return window{}, w.truncated(off, op)
	}
	return window{
		data: w.data[off : off+n : off+n],
		base: w.base + int64(off),
	}, nil
}

// from returns everything from off to the end of the window.
func (w window) from(off uint64, op string) (window, error) {
	if off > w.len() {
		return window{}, w.truncated(off, op)
	}
	return w.slice(off, w.len()-off, op)
}

func (w window) u16(off uint64, op string) (uint16, error) {
	b, err := w.slice(off, 2, op)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b.data), nil
}

func (w window) u32(off uint64, op string) (uint32, error) {
	b, err := w.slice(off, 4, op)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b.data), nil
}

// expect checks that the window starts with magic. A window shorter
// than magic is a truncation, not a mismatch.
func (w window) expect(magic string, op string) error {
	b, err := w.slice(0, uint64(len(magic)), op)
	if err != nil {
		return err
	}
	if string(b.data) != magic {
		return &ParseError{Op: op, Offset: w.base, Err: ErrBadSignature}
	}
	return nil
}

func (w window) truncated(off uint64, op string) error {
	offset := int64(-1)
	if off < 1<<62 {
		offset = w.base + int64(off)
	}
	return &ParseError{Op: op, Offset: offset, Err: ErrTruncated}
}

// align4 rounds n up to the next multiple of four.
func align4(n uint64) uint64 {
	return (n + 3) &^ 3
}
