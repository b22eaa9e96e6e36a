// Package petest builds small but structurally genuine managed PE images
// for tests. The images carry a DOS header, a PE32 optional header, two
// sections and a CLI metadata root with "#~", "#Strings", "#US" and
// "#GUID" streams, laid out the way the C# compiler lays them out.
package petest

import (
	"encoding/binary"
	"unicode/utf16"
)

// Fixed layout of every image produced by Build.
const (
	PEHeaderOffset   = 0x80
	OptionalSize     = 224
	SectionTable     = PEHeaderOffset + 24 + OptionalSize
	TextRawPointer   = 0x200
	TextVirtualAddr  = 0x2000
	CLIHeaderSize    = 72
	MetadataInText   = CLIHeaderSize
	metadataVersion  = "v4.0.30319\x00\x00"
	relocSectionSize = 12
)

// Image describes the heaps to embed. A nil Tables gets a fixed
// placeholder; change Tables to vary the file contents without touching
// the heaps Parse returns.
type Image struct {
	Strings []byte
	US      []byte
	Tables  []byte

	OmitStrings bool
	OmitUS      bool
}

// Layout reports the absolute file offsets of the embedded heaps.
type Layout struct {
	StringsOffset int
	USOffset      int
	MetadataRoot  int
	// StreamCountOffset is the absolute offset of the metadata stream count.
	StreamCountOffset int
}

type streamSpec struct {
	name string
	data []byte
}

// Bytes builds the image and discards its layout.
func (img Image) Bytes() []byte {
	data, _ := img.Build()
	return data
}

// Build assembles the image.
func (img Image) Build() ([]byte, Layout) {
	tables := img.Tables
	if tables == nil {
		tables = []byte{0, 0, 0, 0, 2, 0, 0, 1, 0x47, 0x01, 0, 0}
	}

	streams := []streamSpec{{name: "#~", data: tables}}
	if !img.OmitStrings {
		streams = append(streams, streamSpec{name: "#Strings", data: img.Strings})
	}
	if !img.OmitUS {
		streams = append(streams, streamSpec{name: "#US", data: img.US})
	}
	streams = append(streams, streamSpec{name: "#GUID", data: make([]byte, 16)})

	metadata, heapOffsets := buildMetadata(streams)

	text := make([]byte, CLIHeaderSize, CLIHeaderSize+len(metadata))
	le := binary.LittleEndian
	le.PutUint32(text[0:], CLIHeaderSize)
	le.PutUint16(text[4:], 2)
	le.PutUint16(text[6:], 5)
	le.PutUint32(text[8:], TextVirtualAddr+MetadataInText)
	le.PutUint32(text[12:], uint32(len(metadata)))
	le.PutUint32(text[16:], 1) // COMIMAGE_FLAGS_ILONLY
	text = append(text, metadata...)

	textRawSize := alignUp(len(text), 4)
	relocRawPointer := TextRawPointer + alignUp(textRawSize, 0x200)
	relocVirtualAddr := TextVirtualAddr + alignUp(textRawSize, 0x1000)

	out := make([]byte, relocRawPointer+relocSectionSize)
	out[0], out[1] = 'M', 'Z'
	le.PutUint32(out[60:], PEHeaderOffset)

	pe := out[PEHeaderOffset:]
	copy(pe, "PE\x00\x00")
	le.PutUint16(pe[4:], 0x14c) // i386
	le.PutUint16(pe[6:], 2)
	le.PutUint16(pe[20:], OptionalSize)
	le.PutUint16(pe[22:], 0x2102)

	opt := pe[24 : 24+OptionalSize]
	le.PutUint16(opt[0:], 0x10b) // PE32
	le.PutUint32(opt[92:], 16)   // NumberOfRvaAndSizes
	le.PutUint32(opt[208:], TextVirtualAddr)
	le.PutUint32(opt[212:], CLIHeaderSize)

	// .reloc comes first in the table so RVA resolution has to search.
	writeSection(out[SectionTable:], ".reloc", relocSectionSize, uint32(relocVirtualAddr), relocSectionSize, uint32(relocRawPointer))
	writeSection(out[SectionTable+40:], ".text", uint32(len(text)), TextVirtualAddr, uint32(textRawSize), TextRawPointer)

	copy(out[TextRawPointer:], text)

	var layout Layout
	layout.MetadataRoot = TextRawPointer + MetadataInText
	layout.StreamCountOffset = layout.MetadataRoot + 16 + len(metadataVersion) + 2
	for i, s := range streams {
		switch s.name {
		case "#Strings":
			layout.StringsOffset = layout.MetadataRoot + heapOffsets[i]
		case "#US":
			layout.USOffset = layout.MetadataRoot + heapOffsets[i]
		}
	}

	return out, layout
}

// buildMetadata lays out a metadata root followed by the stream data. It
// returns the root and each stream's offset relative to it.
func buildMetadata(streams []streamSpec) ([]byte, []int) {
	le := binary.LittleEndian

	headerSize := 16 + len(metadataVersion) + 4
	for _, s := range streams {
		headerSize += 8 + alignUp(len(s.name)+1, 4)
	}

	offsets := make([]int, len(streams))
	next := headerSize
	for i, s := range streams {
		offsets[i] = next
		next += alignUp(len(s.data), 4)
	}

	md := make([]byte, next)
	copy(md, "BSJB")
	le.PutUint16(md[4:], 1)
	le.PutUint16(md[6:], 1)
	le.PutUint32(md[12:], uint32(len(metadataVersion)))
	copy(md[16:], metadataVersion)

	pos := 16 + len(metadataVersion)
	le.PutUint16(md[pos+2:], uint16(len(streams)))
	pos += 4

	for i, s := range streams {
		le.PutUint32(md[pos:], uint32(offsets[i]))
		le.PutUint32(md[pos+4:], uint32(len(s.data)))
		copy(md[pos+8:], s.name)
		pos += 8 + alignUp(len(s.name)+1, 4)
		copy(md[offsets[i]:], s.data)
	}

	return md, offsets
}

func writeSection(b []byte, name string, virtualSize, virtualAddr, rawSize, rawPointer uint32) {
	le := binary.LittleEndian
	copy(b[0:8], name)
	le.PutUint32(b[8:], virtualSize)
	le.PutUint32(b[12:], virtualAddr)
	le.PutUint32(b[16:], rawSize)
	le.PutUint32(b[20:], rawPointer)
}

// StringsHeap builds a "#Strings" heap: a leading empty string followed by
// each name, NUL-terminated.
func StringsHeap(names ...string) []byte {
	heap := []byte{0}
	for _, n := range names {
		heap = append(heap, n...)
		heap = append(heap, 0)
	}
	return heap
}

// UserString encodes one "#US" blob: a compressed length, the UTF-16LE
// code units, and the trailing flag byte.
func UserString(s string) []byte {
	units := utf16.Encode([]rune(s))
	body := make([]byte, 0, len(units)*2+1)
	special := byte(0)
	for _, u := range units {
		body = binary.LittleEndian.AppendUint16(body, u)
		if u >= 0x80 {
			special = 1
		}
	}
	body = append(body, special)

	var blob []byte
	if n := len(body); n < 0x80 {
		blob = append(blob, byte(n))
	} else {
		blob = append(blob, byte(0x80|n>>8), byte(n))
	}
	return append(blob, body...)
}

// USHeap builds a "#US" heap holding the given strings.
func USHeap(strs ...string) []byte {
	heap := []byte{0}
	for _, s := range strs {
		heap = append(heap, UserString(s)...)
	}
	return heap
}

func alignUp(n, to int) int {
	return (n + to - 1) / to * to
}
