// Package pe locates the CLI metadata heaps inside a managed PE image.
//
// It is deliberately not a general PE/CLI reader. Parse walks only the
// fields needed to reach the "#Strings" and "#US" streams:
//
//   - the DOS header's PE header offset (e_lfanew, at byte 60)
//   - the COFF header's section count and optional header size
//   - the section table, used to resolve relative virtual addresses
//   - the CLI header (data directory 14 of the optional header)
//   - the metadata root ("BSJB") and its stream directory
//
// # Untrusted Input
//
// Images handed to Parse are third-party content. Every fixed-offset read
// and every slice goes through a bounds-checked window, and offset
// arithmetic is done in 64 bits so that adversarial 32-bit fields cannot
// wrap. A malformed or truncated image yields a *ParseError, never a panic.
//
// # Borrowed Heaps
//
// The returned HeapView does not copy anything: it records validated spans
// into the caller's buffer and hands out capacity-clamped subslices. The
// view is valid for exactly as long as that buffer is (for a memory-mapped
// file, until it is unmapped).
package pe
