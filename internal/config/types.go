package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ZebulonRouseFrantzich/oridll/internal/fleet"
)

// Config is the content of oridll.lua. Paths are stored as written; use
// Resolve to expand "~" and fill in defaults.
type Config struct {
	// GameDir is the game installation root (the folder with oriDE.exe).
	GameDir string `json:"game_dir,omitempty"`
	// DataFolder is the Unity data folder under GameDir.
	DataFolder string `json:"data_folder,omitempty"`
	// Assembly is the file name of the active managed assembly.
	Assembly string `json:"assembly,omitempty"`
	// GameExe is the file name of the game executable.
	GameExe string `json:"game_exe,omitempty"`
	// ScanWorkers bounds parallel classification; 0 means one per CPU.
	ScanWorkers int `json:"scan_workers,omitempty"`
	// Keyring is an OpenPGP public keyring used to verify supplied builds.
	Keyring string `json:"keyring,omitempty"`
}

// Default returns a config with every defaultable field set.
func Default() *Config {
	return &Config{
		DataFolder: fleet.DefaultDataFolder,
		Assembly:   fleet.DefaultAssembly,
		GameExe:    fleet.DefaultGameExe,
	}
}

// Validate checks field values. An empty GameDir is allowed; commands
// that need one report it missing.
func (c *Config) Validate() error {
	if c.GameDir != "" {
		expanded, err := ExpandHome(c.GameDir)
		if err != nil {
			return &ValidationError{Field: luaFieldGameDir, Message: err.Error()}
		}
		if !filepath.IsAbs(expanded) {
			return &ValidationError{
				Field:   luaFieldGameDir,
				Message: fmt.Sprintf("must be an absolute path (got %q)", c.GameDir),
			}
		}
	}

	for _, f := range []struct{ field, value string }{
		{luaFieldData, c.DataFolder},
		{luaFieldAssembly, c.Assembly},
		{luaFieldGameExe, c.GameExe},
	} {
		if f.value == "" {
			continue
		}
		if err := validateBareName(f.value); err != nil {
			return &ValidationError{Field: f.field, Message: err.Error()}
		}
	}

	if c.Assembly != "" && !strings.EqualFold(filepath.Ext(c.Assembly), ".dll") {
		return &ValidationError{
			Field:   luaFieldAssembly,
			Message: fmt.Sprintf("must be a .dll file name (got %q)", c.Assembly),
		}
	}

	if c.ScanWorkers != 0 && (c.ScanWorkers < MinScanWorkers || c.ScanWorkers > MaxScanWorkers) {
		return &ValidationError{
			Field:   luaFieldWorkers,
			Message: fmt.Sprintf("must be between %d and %d (got %d)", MinScanWorkers, MaxScanWorkers, c.ScanWorkers),
		}
	}

	if c.Keyring != "" {
		if _, err := ExpandHome(c.Keyring); err != nil {
			return &ValidationError{Field: luaFieldKeyring, Message: err.Error()}
		}
	}

	return nil
}

// Resolve returns a copy with defaults filled in and "~" expanded in
// GameDir and Keyring.
func (c *Config) Resolve() (*Config, error) {
	out := *c
	def := Default()
	if out.DataFolder == "" {
		out.DataFolder = def.DataFolder
	}
	if out.Assembly == "" {
		out.Assembly = def.Assembly
	}
	if out.GameExe == "" {
		out.GameExe = def.GameExe
	}

	var err error
	if out.GameDir, err = ExpandHome(out.GameDir); err != nil {
		return nil, err
	}
	if out.Keyring, err = ExpandHome(out.Keyring); err != nil {
		return nil, err
	}
	return &out, nil
}

// ValidationError represents a config validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return "config validation failed for " + e.Field + ": " + e.Message
	}
	return "config validation failed: " + e.Message
}

// ExpandHome replaces a leading "~" with the user's home directory.
func ExpandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	if path == "~" {
		return home, nil
	}
	return filepath.Join(home, path[2:]), nil
}

// validateBareName rejects anything that is not a single path element.
func validateBareName(name string) error {
	if name == "." || name == ".." {
		return fmt.Errorf("invalid name %q", name)
	}
	if strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("must be a file name, not a path (got %q)", name)
	}
	if strings.ContainsRune(name, 0) {
		return fmt.Errorf("contains a NUL byte")
	}
	return nil
}
