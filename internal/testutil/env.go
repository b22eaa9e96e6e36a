// Package testutil provides utilities for testing oridll in isolation.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// SetupTestEnv points ORIDLL_DIR at a fresh temporary directory and
// clears ORIDLL_DEBUG, so tests never read or write the user's real
// configuration. It returns the directory.
//
// The cleanup function is automatically handled by t.TempDir(),
// so callers don't need to manually clean up.
func SetupTestEnv(t *testing.T) string {
	t.Helper()

	dir := filepath.Join(t.TempDir(), "oridll")
	if err := os.MkdirAll(dir, 0o750); err != nil {
		t.Fatalf("failed to create test directory %s: %v", dir, err)
	}

	t.Setenv("ORIDLL_DIR", dir)
	t.Setenv("ORIDLL_DEBUG", "")

	return dir
}

// NewGameInstall creates an empty game installation with the default
// layout (oriDE.exe next to oriDE_Data/Managed) and returns its root.
func NewGameInstall(t *testing.T) string {
	t.Helper()

	root := filepath.Join(t.TempDir(), "Ori DE")
	if err := os.MkdirAll(filepath.Join(root, "oriDE_Data", "Managed"), 0o755); err != nil {
		t.Fatalf("failed to create managed directory: %v", err)
	}
	if err := os.WriteFile(filepath.Join(root, "oriDE.exe"), []byte("MZ"), 0o644); err != nil {
		t.Fatalf("failed to create game executable: %v", err)
	}
	return root
}
