package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestPrintUsage(t *testing.T) {
	var buf bytes.Buffer
	printUsage(&buf)

	for name := range commands {
		if !strings.Contains(buf.String(), "  "+name+" ") {
			t.Errorf("usage does not list %q:\n%s", name, buf.String())
		}
	}
	for _, env := range []string{envDir, envDebug} {
		if !strings.Contains(buf.String(), env) {
			t.Errorf("usage does not mention %s", env)
		}
	}
}

func TestGetOridllDir(t *testing.T) {
	t.Setenv(envDir, "/tmp/oridll-test")
	got, err := getOridllDir()
	if err != nil {
		t.Fatalf("getOridllDir() error = %v", err)
	}
	if got != "/tmp/oridll-test" {
		t.Errorf("getOridllDir() = %q", got)
	}

	t.Setenv(envDir, "")
	got, err = getOridllDir()
	if err != nil {
		t.Fatalf("getOridllDir() error = %v", err)
	}
	if !strings.HasSuffix(got, "/.config/oridll") {
		t.Errorf("getOridllDir() = %q, want ~/.config/oridll", got)
	}
}

func TestDebugEnabled(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{value: "", want: false},
		{value: "1", want: true},
		{value: "true", want: true},
		{value: "false", want: false},
		{value: "sometimes", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Setenv(envDebug, tt.value)
			if got := debugEnabled(); got != tt.want {
				t.Errorf("debugEnabled() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetOridllDir_BadEnvironment(t *testing.T) {
	t.Setenv(envDir, "/tmp/oridll-test")
	t.Setenv(envDebug, "sometimes")

	if _, err := getOridllDir(); err == nil {
		t.Error("expected error for unparsable ORIDLL_DEBUG")
	}
}
