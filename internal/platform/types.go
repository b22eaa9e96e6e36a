// Package platform describes the host oridll runs on and watches for the
// game process.
//
// Detection results are exposed to the Lua configuration as a read-only
// "platform" table, so one config file can carry per-OS game paths. Linux
// distribution details come from gopsutil and are left empty when they
// cannot be detected.
package platform

import (
	"context"
	"path"
)

// Linux distribution family constants.
const (
	FamilyDebian  = "debian"  // Debian, Ubuntu, Linux Mint, Pop!_OS
	FamilyRHEL    = "rhel"    // RHEL, CentOS, Rocky Linux, AlmaLinux
	FamilyFedora  = "fedora"  // Fedora, Bazzite, Nobara
	FamilySUSE    = "suse"    // openSUSE, SLES
	FamilyArch    = "arch"    // Arch Linux, Manjaro, SteamOS
	FamilyUnknown = "unknown" // Unrecognized distributions
)

// steamGameFolder is the game's folder inside a Steam library.
const steamGameFolder = "Ori DE"

// Info contains platform detection information.
type Info struct {
	OS       string // "linux", "darwin", "windows"
	Arch     string // normalized GOARCH
	Platform string // distro ID (Linux only, e.g., "ubuntu", "steamos")
	Family   string // canonical family (e.g., "debian", "arch")
	Version  string // distro version (Linux only, e.g., "22.04")
	Home     string // user home directory, empty if unknown
}

// Distro contains Linux distribution information.
type Distro struct {
	ID      string
	Family  string
	Version string
}

// GetDistro returns distro information if this is a Linux platform.
// Returns nil for non-Linux platforms or if distro detection failed.
func (i *Info) GetDistro() *Distro {
	if i.OS != "linux" || i.Platform == "" {
		return nil
	}
	return &Distro{
		ID:      i.Platform,
		Family:  i.Family,
		Version: i.Version,
	}
}

// IsLinux returns true if the platform is Linux.
func (i *Info) IsLinux() bool {
	return i.OS == "linux"
}

// IsMacOS returns true if the platform is macOS.
func (i *Info) IsMacOS() bool {
	return i.OS == "darwin"
}

// IsWindows returns true if the platform is Windows.
func (i *Info) IsWindows() bool {
	return i.OS == "windows"
}

// IsSteamDeck returns true on SteamOS.
func (i *Info) IsSteamDeck() bool {
	return i.OS == "linux" && i.Platform == "steamos"
}

// DefaultGameDir returns where Steam installs the game by default, or ""
// when it cannot be derived.
func (i *Info) DefaultGameDir() string {
	switch i.OS {
	case "windows":
		return `C:\Program Files (x86)\Steam\steamapps\common\` + steamGameFolder
	case "linux":
		if i.Home == "" {
			return ""
		}
		return path.Join(i.Home, ".local/share/Steam/steamapps/common", steamGameFolder)
	case "darwin":
		if i.Home == "" {
			return ""
		}
		return path.Join(i.Home, "Library/Application Support/Steam/steamapps/common", steamGameFolder)
	default:
		return ""
	}
}

// Detector is the interface for platform detection.
type Detector interface {
	Detect(ctx context.Context) (*Info, error)
}
