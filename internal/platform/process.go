package platform

import (
	"context"
	"fmt"
	"strings"

	"github.com/shirou/gopsutil/v4/process"
)

// ProcessGuard reports whether a process with a given executable name is
// running. Names match case-insensitively, with or without ".exe", so it
// finds the game both natively on Windows and under Wine or Proton.
type ProcessGuard struct {
	Name string

	list func(ctx context.Context) ([]string, error)
}

// NewProcessGuard creates a guard for the executable name.
func NewProcessGuard(name string) *ProcessGuard {
	return &ProcessGuard{Name: name, list: processNames}
}

// Running reports whether a matching process exists.
func (g *ProcessGuard) Running(ctx context.Context) (bool, error) {
	list := g.list
	if list == nil {
		list = processNames
	}

	names, err := list(ctx)
	if err != nil {
		return false, err
	}

	want := trimExe(g.Name)
	for _, name := range names {
		if strings.EqualFold(trimExe(name), want) {
			return true, nil
		}
	}
	return false, nil
}

func trimExe(name string) string {
	if len(name) > 4 && strings.EqualFold(name[len(name)-4:], ".exe") {
		return name[:len(name)-4]
	}
	return name
}

// processNames lists the names of all visible processes. Processes that
// exit or cannot be inspected while listing are skipped.
func processNames(ctx context.Context) ([]string, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("list processes: %w", err)
	}

	names := make([]string, 0, len(procs))
	for _, p := range procs {
		name, err := p.NameWithContext(ctx)
		if err != nil {
			continue
		}
		names = append(names, name)
	}
	return names, nil
}
