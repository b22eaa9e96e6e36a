package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/ZebulonRouseFrantzich/oridll/internal/platform"
)

type stubDetector struct {
	info *platform.Info
	err  error
}

func (s stubDetector) Detect(context.Context) (*platform.Info, error) {
	return s.info, s.err
}

func linuxDetector() platform.Detector {
	return stubDetector{info: &platform.Info{
		OS:       "linux",
		Arch:     "amd64",
		Platform: "steamos",
		Family:   platform.FamilyArch,
		Home:     "/home/deck",
	}}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), FileName)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

type recordingLogger struct {
	noopLogger
	warnings []string
}

func (r *recordingLogger) Warn(msg string, keysAndValues ...any) {
	r.warnings = append(r.warnings, msg)
}
