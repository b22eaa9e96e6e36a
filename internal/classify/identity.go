package classify

import (
	"cmp"
	"fmt"
)

// Kind tags which variant an Identity holds.
type Kind int

const (
	// KindInvalid is anything that is not a recognisable game assembly.
	KindInvalid Kind = iota
	// KindNotTargetGame is the legacy (non-Definitive Edition) assembly.
	KindNotTargetGame
	// KindVanilla is an unmodified Definitive Edition assembly.
	KindVanilla
	// KindVersioned is a randomizer build with an embedded version.
	KindVersioned
	// KindUnversioned is a randomizer build identified only by content hash.
	KindUnversioned
)

// String returns the string representation of the kind
func (k Kind) String() string {
	switch k {
	case KindInvalid:
		return "invalid"
	case KindNotTargetGame:
		return "not-target-game"
	case KindVanilla:
		return "vanilla"
	case KindVersioned:
		return "versioned"
	case KindUnversioned:
		return "unversioned"
	default:
		return "unknown"
	}
}

// Version is a randomizer semantic version.
type Version struct {
	Major uint64
	Minor uint64
	Patch uint64
}

// Compare orders versions lexicographically by (Major, Minor, Patch).
func (v Version) Compare(o Version) int {
	if c := cmp.Compare(v.Major, o.Major); c != 0 {
		return c
	}
	if c := cmp.Compare(v.Minor, o.Minor); c != 0 {
		return c
	}
	return cmp.Compare(v.Patch, o.Patch)
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// Identity says which build an assembly is. Build one with the
// constructors below; fields that do not belong to the kind are always
// zero, so == and Equal agree.
type Identity struct {
	kind    Kind
	version Version
	hash    uint64
}

// Invalid returns the identity of an unrecognisable file.
func Invalid() Identity { return Identity{kind: KindInvalid} }

// NotTargetGame returns the identity of a legacy-edition assembly.
func NotTargetGame() Identity { return Identity{kind: KindNotTargetGame} }

// Vanilla returns the identity of an unmodified assembly.
func Vanilla() Identity { return Identity{kind: KindVanilla} }

// Versioned returns the identity of a randomizer build with a version.
func Versioned(v Version) Identity { return Identity{kind: KindVersioned, version: v} }

// Unversioned returns the identity of a randomizer build without an
// embedded version, keyed by a hash of the whole file.
func Unversioned(hash uint64) Identity { return Identity{kind: KindUnversioned, hash: hash} }

// Kind returns the variant tag.
func (id Identity) Kind() Kind {
	return id.kind
}

// Version returns the embedded version of a KindVersioned identity.
func (id Identity) Version() (Version, bool) {
	return id.version, id.kind == KindVersioned
}

// Hash returns the content hash of a KindUnversioned identity.
func (id Identity) Hash() (uint64, bool) {
	return id.hash, id.kind == KindUnversioned
}

// Eligible reports whether the identity may appear in a catalog.
func (id Identity) Eligible() bool {
	switch id.kind {
	case KindVanilla, KindVersioned, KindUnversioned:
		return true
	default:
		return false
	}
}

// rank is the position of each kind in the catalog order. It is spelled
// out rather than derived from the Kind constants so that reordering the
// constants cannot silently change deduplication.
func rank(k Kind) int {
	switch k {
	case KindInvalid:
		return 0
	case KindNotTargetGame:
		return 1
	case KindVanilla:
		return 2
	case KindVersioned:
		return 3
	case KindUnversioned:
		return 4
	default:
		return 5
	}
}

// Compare is the total order used to sort catalogs:
// Invalid < NotTargetGame < Vanilla < Versioned (by version) <
// Unversioned (by hash). It returns 0 exactly when Equal does.
func (id Identity) Compare(o Identity) int {
	if c := cmp.Compare(rank(id.kind), rank(o.kind)); c != 0 {
		return c
	}
	switch id.kind {
	case KindVersioned:
		return id.version.Compare(o.version)
	case KindUnversioned:
		return cmp.Compare(id.hash, o.hash)
	default:
		return 0
	}
}

// Equal reports structural equality: same kind, and for versioned and
// unversioned builds the same version or hash.
func (id Identity) Equal(o Identity) bool {
	if id.kind != o.kind {
		return false
	}
	switch id.kind {
	case KindVersioned:
		return id.version == o.version
	case KindUnversioned:
		return id.hash == o.hash
	default:
		return true
	}
}

func (id Identity) String() string {
	switch id.kind {
	case KindVersioned:
		return fmt.Sprintf("Versioned(%s)", id.version)
	case KindUnversioned:
		return fmt.Sprintf("Unversioned(%016x)", id.hash)
	case KindVanilla:
		return "Vanilla"
	case KindNotTargetGame:
		return "NotTargetGame"
	default:
		return "Invalid"
	}
}
