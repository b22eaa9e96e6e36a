package fleet

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	DefaultDataFolder = "oriDE_Data"
	DefaultGameExe    = "oriDE.exe"
	DefaultAssembly   = "Assembly-CSharp.dll"
)

// GameDir is a game installation.
type GameDir struct {
	// Install is the installation root holding the game executable.
	Install string
	// Managed is the directory holding the managed assemblies.
	Managed string
	// Exe is the file name of the game executable inside Install.
	Exe string
}

// NewGameDir lays out a game installation rooted at install. Empty
// dataFolder and exe select the defaults.
func NewGameDir(install, dataFolder, exe string) GameDir {
	if dataFolder == "" {
		dataFolder = DefaultDataFolder
	}
	if exe == "" {
		exe = DefaultGameExe
	}
	return GameDir{
		Install: install,
		Managed: filepath.Join(install, dataFolder, "Managed"),
		Exe:     exe,
	}
}

// Verify checks that the game executable exists as a regular file.
func (g GameDir) Verify() error {
	exe := filepath.Join(g.Install, g.Exe)
	info, err := os.Stat(exe)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNotInstalled, err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%w: %s is not a regular file", ErrNotInstalled, exe)
	}
	return nil
}
