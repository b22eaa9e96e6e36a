package pe

import (
	"errors"
	"fmt"
)

// Parse failure kinds. A *ParseError always wraps exactly one of these.
var (
	ErrTruncated      = errors.New("read past end of buffer")
	ErrBadSignature   = errors.New("bad signature")
	ErrUnmappedRVA    = errors.New("rva not mapped by any section")
	ErrStreamNotFound = errors.New("metadata stream not found")
)

// ParseError describes where in the image parsing stopped.
type ParseError struct {
	Op     string // what the parser was doing, e.g. "read section count"
	Offset int64  // absolute offset into the image, -1 when not meaningful
	Err    error
}

func (e *ParseError) Error() string {
	if e.Offset < 0 {
		return fmt.Sprintf("pe: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("pe: %s at offset %#x: %v", e.Op, e.Offset, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
