package classify

import (
	"math"
)

// extractVersion scans a "#US" heap for a version literal such as "1.2.34".
//
// A user string blob is a length byte, UTF-16LE code units and a trailing
// flag byte. A version literal therefore looks like
//
//	<len> d 00 ... '.' 00 d 00 ... '.' 00 d 00 ... 00
//
// and is only accepted when <len> covers exactly the bytes after it, up to
// and including the final NUL. Every offset is tried, so a literal is found
// even when the bytes before it happen to look like the start of another
// one. When several literals match, the highest version wins.
func extractVersion(us []byte) (Version, bool) {
	var best Version
	found := false

	for i := 0; i < len(us); i++ {
		end := i + 1 + int(us[i])
		if end > len(us) {
			continue
		}
		v, ok := parseVersionLiteral(us[i+1 : end])
		if !ok {
			continue
		}
		if !found || v.Compare(best) > 0 {
			best = v
			found = true
		}
	}

	return best, found
}

// parseVersionLiteral parses the body of one candidate blob. The whole
// body must be consumed.
func parseVersionLiteral(b []byte) (Version, bool) {
	if len(b) == 0 || b[len(b)-1] != 0 {
		return Version{}, false
	}
	body := b[:len(b)-1]

	var parts [3]uint64
	pos := 0
	for i := range parts {
		if i > 0 {
			if pos+1 >= len(body) || body[pos] != '.' || body[pos+1] != 0 {
				return Version{}, false
			}
			pos += 2
		}

		start := pos
		for pos+1 < len(body) && isDigit(body[pos]) && body[pos+1] == 0 {
			pos += 2
		}
		if pos == start {
			return Version{}, false
		}

		n, ok := parseUTF16Number(body[start:pos])
		if !ok {
			return Version{}, false
		}
		parts[i] = n
	}

	if pos != len(body) {
		return Version{}, false
	}

	return Version{Major: parts[0], Minor: parts[1], Patch: parts[2]}, true
}

// parseUTF16Number decodes UTF-16LE ASCII digits. Only every other byte is
// read; the caller has already checked the high bytes are zero. It fails
// on overflow.
func parseUTF16Number(b []byte) (uint64, bool) {
	var n uint64
	for i := 0; i < len(b); i += 2 {
		d := uint64(b[i] - '0')
		if n > math.MaxUint64/10 {
			return 0, false
		}
		n *= 10
		if n > math.MaxUint64-d {
			return 0, false
		}
		n += d
	}
	return n, true
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
