package fleet

import (
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"

	"github.com/ZebulonRouseFrantzich/oridll/internal/classify"
)

const (
	suffixLength   = 10
	suffixAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
)

// backupTag names the kind of build in a backup file name.
func backupTag(id classify.Identity) string {
	switch id.Kind() {
	case classify.KindVanilla:
		return "vanilla"
	case classify.KindVersioned:
		v, _ := id.Version()
		return "rando." + v.String()
	case classify.KindUnversioned:
		return "rando"
	default:
		return "unknown"
	}
}

// backupPath picks the file to move the active assembly to:
// <base>.<tag>.dll, or <base>.<tag>.<random>.dll if that name is taken.
func backupPath(dir, assembly string, id classify.Identity, suffix func() string) string {
	base := strings.TrimSuffix(assembly, filepath.Ext(assembly))
	name := base + "." + backupTag(id)

	path := filepath.Join(dir, name+".dll")
	if _, err := os.Lstat(path); os.IsNotExist(err) {
		return path
	}
	return filepath.Join(dir, name+"."+suffix()+".dll")
}

func randomSuffix() string {
	b := make([]byte, suffixLength)
	for i := range b {
		b[i] = suffixAlphabet[rand.IntN(len(suffixAlphabet))]
	}
	return string(b)
}
