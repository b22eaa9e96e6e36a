package pe

import (
	"bytes"
)

// Fixed offsets of the fields Parse reads. Offsets are relative to the
// structure named in the comment.
const (
	peHeaderOffsetField = 60 // DOS header: e_lfanew

	coffSectionCount     = 6  // PE header
	coffOptionalSize     = 20 // PE header
	optionalHeaderStart  = 24 // PE header
	sectionHeaderSize    = 40
	sectionVirtualSize   = 8
	sectionVirtualAddr   = 12
	sectionRawSize       = 16
	sectionRawPointer    = 20
	optionalCLIHeaderRVA = 208 // optional header: data directory 14

	cliMetadataRVA = 8 // CLI header

	metadataVersionLength = 12 // metadata root
	metadataVersionString = 16 // metadata root
	streamHeaderFixedSize = 8  // offset + size, before the name

	peMagic       = "PE\x00\x00"
	metadataMagic = "BSJB"

	// StringsStream and UserStringsStream are the two heaps Parse returns.
	StringsStream     = "#Strings"
	UserStringsStream = "#US"
)

// Span is a validated byte range inside the buffer passed to Parse.
type Span struct {
	Offset int
	Length int
}

// End returns the offset one past the last byte of the span.
func (s Span) End() int {
	return s.Offset + s.Length
}

// HeapView borrows the "#Strings" and "#US" heaps from the buffer that was
// parsed. Nothing is copied.
type HeapView struct {
	src     []byte
	strings Span
	us      Span
}

// Strings returns the "#Strings" heap. The slice aliases the parsed buffer
// and has its capacity clamped, so appending to it never writes into the
// image.
func (v HeapView) Strings() []byte {
	return v.bytes(v.strings)
}

// US returns the "#US" (user string) heap.
func (v HeapView) US() []byte {
	return v.bytes(v.us)
}

// StringsSpan returns where the "#Strings" heap sits in the parsed buffer.
func (v HeapView) StringsSpan() Span {
	return v.strings
}

// USSpan returns where the "#US" heap sits in the parsed buffer.
func (v HeapView) USSpan() Span {
	return v.us
}

func (v HeapView) bytes(s Span) []byte {
	return v.src[s.Offset:s.End():s.End()]
}

// section maps [virtualStart, virtualStart+virtualSize) to file bytes.
type section struct {
	virtualStart uint64
	virtualSize  uint64
	raw          window
}

func (s section) contains(rva uint64) bool {
	return rva >= s.virtualStart && rva < s.virtualStart+s.virtualSize
}

type stream struct {
	name string
	data window
}

// Parse locates the "#Strings" and "#US" metadata heaps in a PE image.
func Parse(data []byte) (HeapView, error) {
	file := window{data: data}

	lfanew, err := file.u32(peHeaderOffsetField, "read PE header offset")
	if err != nil {
		return HeapView{}, err
	}

	peHeader, err := file.from(uint64(lfanew), "locate PE header")
	if err != nil {
		return HeapView{}, err
	}
	if err := peHeader.expect(peMagic, "check PE signature"); err != nil {
		return HeapView{}, err
	}

	sectionCount, err := peHeader.u16(coffSectionCount, "read section count")
	if err != nil {
		return HeapView{}, err
	}
	optionalSize, err := peHeader.u16(coffOptionalSize, "read optional header size")
	if err != nil {
		return HeapView{}, err
	}
	optional, err := peHeader.slice(optionalHeaderStart, uint64(optionalSize), "read optional header")
	if err != nil {
		return HeapView{}, err
	}

	sections, err := readSections(file, peHeader, int(sectionCount), optionalHeaderStart+uint64(optionalSize))
	if err != nil {
		return HeapView{}, err
	}

	cliRVA, err := optional.u32(optionalCLIHeaderRVA, "read CLI header rva")
	if err != nil {
		return HeapView{}, err
	}
	cliHeader, err := resolveRVA(sections, cliRVA, "resolve CLI header")
	if err != nil {
		return HeapView{}, err
	}

	metadataRVA, err := cliHeader.u32(cliMetadataRVA, "read metadata rva")
	if err != nil {
		return HeapView{}, err
	}
	metadata, err := resolveRVA(sections, metadataRVA, "resolve metadata root")
	if err != nil {
		return HeapView{}, err
	}

	streams, err := readStreams(metadata)
	if err != nil {
		return HeapView{}, err
	}

	stringsHeap, err := findStream(streams, StringsStream, metadata.base)
	if err != nil {
		return HeapView{}, err
	}
	usHeap, err := findStream(streams, UserStringsStream, metadata.base)
	if err != nil {
		return HeapView{}, err
	}

	return HeapView{
		src:     data,
		strings: spanOf(stringsHeap),
		us:      spanOf(usHeap),
	}, nil
}

// readSections decodes the section table that starts tableStart bytes into
// the PE header. Raw section data is sliced out of the whole file.
func readSections(file, peHeader window, count int, tableStart uint64) ([]section, error) {
	sections := make([]section, 0, count)

	for i := 0; i < count; i++ {
		hdr := tableStart + uint64(i)*sectionHeaderSize

		virtualSize, err := peHeader.u32(hdr+sectionVirtualSize, "read section virtual size")
		if err != nil {
			return nil, err
		}
		virtualStart, err := peHeader.u32(hdr+sectionVirtualAddr, "read section virtual address")
		if err != nil {
			return nil, err
		}
		rawSize, err := peHeader.u32(hdr+sectionRawSize, "read section raw size")
		if err != nil {
			return nil, err
		}
		rawPointer, err := peHeader.u32(hdr+sectionRawPointer, "read section raw pointer")
		if err != nil {
			return nil, err
		}

		raw, err := file.slice(uint64(rawPointer), uint64(rawSize), "read section data")
		if err != nil {
			return nil, err
		}

		sections = append(sections, section{
			virtualStart: uint64(virtualStart),
			virtualSize:  uint64(virtualSize),
			raw:          raw,
		})
	}

	return sections, nil
}

// resolveRVA returns the file bytes from rva to the end of the section
// that maps it.
func resolveRVA(sections []section, rva uint32, op string) (window, error) {
	for _, s := range sections {
		if s.contains(uint64(rva)) {
			return s.raw.from(uint64(rva)-s.virtualStart, op)
		}
	}
	return window{}, &ParseError{Op: op, Offset: -1, Err: ErrUnmappedRVA}
}

// readStreams walks the stream directory of a metadata root. Every stream's
// data must lie inside the metadata root, whether or not it is one of the
// heaps Parse returns.
func readStreams(metadata window) ([]stream, error) {
	if err := metadata.expect(metadataMagic, "check metadata signature"); err != nil {
		return nil, err
	}

	versionLength, err := metadata.u32(metadataVersionLength, "read metadata version length")
	if err != nil {
		return nil, err
	}
	afterVersion := metadataVersionString + align4(uint64(versionLength))

	count, err := metadata.u16(afterVersion+2, "read stream count")
	if err != nil {
		return nil, err
	}

	dir, err := metadata.from(afterVersion+4, "locate stream directory")
	if err != nil {
		return nil, err
	}

	streams := make([]stream, 0, count)
	for i := 0; i < int(count); i++ {
		offset, err := dir.u32(0, "read stream offset")
		if err != nil {
			return nil, err
		}
		size, err := dir.u32(4, "read stream size")
		if err != nil {
			return nil, err
		}

		nameBytes := dir.data[streamHeaderFixedSize:]
		nameLength := bytes.IndexByte(nameBytes, 0)
		if nameLength < 0 {
			return nil, dir.truncated(dir.len(), "read stream name")
		}

		data, err := metadata.slice(uint64(offset), uint64(size), "read stream data")
		if err != nil {
			return nil, err
		}

		streams = append(streams, stream{
			name: string(nameBytes[:nameLength]),
			data: data,
		})

		next := streamHeaderFixedSize + align4(uint64(nameLength)+1)
		dir, err = dir.from(next, "advance to next stream header")
		if err != nil {
			return nil, err
		}
	}

	return streams, nil
}

func findStream(streams []stream, name string, metadataOffset int64) (window, error) {
	for _, s := range streams {
		if s.name == name {
			return s.data, nil
		}
	}
	return window{}, &ParseError{Op: "find " + name + " stream", Offset: metadataOffset, Err: ErrStreamNotFound}
}

func spanOf(w window) Span {
	return Span{Offset: int(w.base), Length: len(w.data)}
}
