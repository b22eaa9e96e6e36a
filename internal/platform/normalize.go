package platform

import (
	"strings"
)

// familyMap maps distribution IDs and family strings from gopsutil to
// canonical family names.
var familyMap = map[string]string{
	"debian":    FamilyDebian,
	"ubuntu":    FamilyDebian,
	"linuxmint": FamilyDebian,
	"pop":       FamilyDebian,
	"rhel":      FamilyRHEL,
	"centos":    FamilyRHEL,
	"rocky":     FamilyRHEL,
	"fedora":    FamilyFedora,
	"bazzite":   FamilyFedora,
	"nobara":    FamilyFedora,
	"suse":      FamilySUSE,
	"opensuse":  FamilySUSE,
	"arch":      FamilyArch,
	"manjaro":   FamilyArch,
	"steamos":   FamilyArch,
	"endeavour": FamilyArch,
}

// normalizeArch folds architecture aliases onto GOARCH names. Anything
// unrecognised is passed through lowercased.
func normalizeArch(arch string) string {
	arch = strings.ToLower(strings.TrimSpace(arch))
	switch arch {
	case "amd64", "x86_64":
		return "amd64"
	case "arm64", "aarch64":
		return "arm64"
	case "386", "i386", "i686":
		return "386"
	default:
		return arch
	}
}

// normalizePlatform converts platform IDs to lowercase for consistency.
func normalizePlatform(platform string) string {
	return strings.ToLower(strings.TrimSpace(platform))
}

// mapFamily picks the canonical family. gopsutil's family string is tried
// first; derivatives it does not know fall back to the distro ID.
func mapFamily(platform, family string) string {
	if canonical, ok := familyMap[normalizePlatform(family)]; ok {
		return canonical
	}
	if canonical, ok := familyMap[normalizePlatform(platform)]; ok {
		return canonical
	}
	return FamilyUnknown
}
