package fleet

import (
	"fmt"
	"path/filepath"
	"slices"

	"github.com/ZebulonRouseFrantzich/oridll/internal/classify"
)

// Entry is one classified file of a scan.
type Entry struct {
	Identity    classify.Identity
	Path        string
	DisplayName string
}

func newEntry(path string, id classify.Identity) Entry {
	return Entry{
		Identity:    id,
		Path:        path,
		DisplayName: filepath.Base(path),
	}
}

// String is the label shown to users. Unversioned builds look alike, so
// they carry their file name.
func (e Entry) String() string {
	switch e.Identity.Kind() {
	case classify.KindVanilla:
		return "Vanilla"
	case classify.KindVersioned:
		v, _ := e.Identity.Version()
		return fmt.Sprintf("Rando (%s)", v)
	case classify.KindUnversioned:
		return fmt.Sprintf("Rando (unknown) [%s]", e.DisplayName)
	default:
		return e.Identity.String()
	}
}

// Catalog is the result of a scan: one entry per distinct build, in
// identity order, and the entry at the active assembly path if there is one.
type Catalog struct {
	Current *Entry
	Entries []Entry
}

// Find returns the entry whose path, file name or label equals name. The
// active assembly is found by its own name even when deduplication kept a
// copy of it under another one.
func (c *Catalog) Find(name string) (Entry, bool) {
	match := func(e Entry) bool {
		return e.Path == name || e.DisplayName == name || e.String() == name
	}
	for _, e := range c.Entries {
		if match(e) {
			return e, true
		}
	}
	if c.Current != nil && match(*c.Current) {
		return *c.Current, true
	}
	return Entry{}, false
}

// HasCopy reports whether an entry other than the one at path has an
// identity equal to id.
func (c *Catalog) HasCopy(path string, id classify.Identity) bool {
	return slices.ContainsFunc(c.Entries, func(e Entry) bool {
		return e.Path != path && e.Identity.Equal(id)
	})
}

// dedupe orders entries by identity and keeps one entry per identity.
// The entry at index current (if not negative) is moved to the end first.
// The sort is stable, so when the current build also exists under another
// name that other file is the one kept, and a later backup decision sees
// that a copy exists.
func dedupe(entries []Entry, current int) []Entry {
	if current >= 0 {
		cur := entries[current]
		entries = append(slices.Delete(entries, current, current+1), cur)
	}

	slices.SortStableFunc(entries, func(a, b Entry) int {
		return a.Identity.Compare(b.Identity)
	})

	return slices.CompactFunc(entries, func(a, b Entry) bool {
		return a.Identity.Equal(b.Identity)
	})
}
