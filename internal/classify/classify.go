// Package classify turns the raw bytes of a game assembly into an Identity.
//
// Classification never loads or runs the assembly. It parses just enough of
// the PE image to reach the "#Strings" and "#US" metadata heaps (see package
// pe) and looks for type names that only exist in specific builds:
//
//   - SpiritGrenadeDamageDealer: present in the Definitive Edition only
//   - HoldingNightberryCondition: present in the legacy edition only
//   - Randomizer: added by the randomizer mod
//
// A randomizer build usually embeds its version as a string literal, which
// is recovered from "#US". When it does not, the build is identified by an
// xxHash64 of the whole file. That hash only tells local builds apart; it
// is not an integrity check.
package classify

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/ZebulonRouseFrantzich/oridll/internal/pe"
	"github.com/cespare/xxhash/v2"
)

// Markers searched for in the "#Strings" heap. The trailing NUL anchors
// the end of the identifier.
var (
	markerDefinitive = []byte("SpiritGrenadeDamageDealer\x00")
	markerLegacy     = []byte("HoldingNightberryCondition\x00")
	markerRandomizer = []byte("Randomizer\x00")
)

var (
	// ErrNoEditionMarker explains an Invalid result for a well-formed
	// assembly that belongs to neither edition of the game.
	ErrNoEditionMarker = errors.New("no edition marker in #Strings heap")
	// ErrNotRegular is returned by File for directories, devices and pipes.
	ErrNotRegular = errors.New("not a regular file")
)

// Bytes classifies a complete assembly image.
func Bytes(data []byte) Identity {
	id, _ := Explain(data)
	return id
}

// Explain classifies like Bytes and, for an Invalid result, also returns
// why: a *pe.ParseError or ErrNoEditionMarker.
func Explain(data []byte) (Identity, error) {
	heaps, err := pe.Parse(data)
	if err != nil {
		return Invalid(), err
	}

	strs := heaps.Strings()
	if !bytes.Contains(strs, markerDefinitive) {
		if bytes.Contains(strs, markerLegacy) {
			return NotTargetGame(), nil
		}
		return Invalid(), ErrNoEditionMarker
	}

	if !bytes.Contains(strs, markerRandomizer) {
		return Vanilla(), nil
	}

	if v, ok := extractVersion(heaps.US()); ok {
		return Versioned(v), nil
	}
	return Unversioned(ContentHash(data)), nil
}

// ContentHash is the hash behind Unversioned identities.
func ContentHash(data []byte) uint64 {
	return xxhash.Sum64(data)
}

// File classifies the assembly at path. The file is memory-mapped
// read-only for the duration of the call. Only I/O failures are returned
// as errors; a file that is not an assembly is Invalid.
func File(path string) (Identity, error) {
	// Opening a FIFO blocks until a writer shows up.
	info, err := os.Stat(path)
	if err != nil {
		return Invalid(), fmt.Errorf("stat assembly: %w", err)
	}
	if !info.Mode().IsRegular() {
		return Invalid(), fmt.Errorf("%s: %w", path, ErrNotRegular)
	}

	f, err := os.Open(path)
	if err != nil {
		return Invalid(), fmt.Errorf("open assembly: %w", err)
	}
	defer f.Close()

	data, release, err := mapFile(f)
	if err != nil {
		return Invalid(), fmt.Errorf("map assembly: %w", err)
	}
	defer release()

	return Bytes(data), nil
}
