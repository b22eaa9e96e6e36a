package fleet

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/ZebulonRouseFrantzich/oridll/internal/classify"
)

// Guard reports whether the game is running.
type Guard interface {
	Running(ctx context.Context) (bool, error)
}

// Config configures a Manager.
type Config struct {
	Game GameDir
	// Assembly is the file name of the active assembly inside Game.Managed.
	// Defaults to DefaultAssembly.
	Assembly string
	// Workers bounds parallel classification during a scan. Defaults to
	// the number of CPUs.
	Workers int
	Logger  Logger
	// Guard, if set, is consulted before every install.
	Guard Guard
	// StateDir holds the install lock and journal. Without one, installs
	// are only serialized within this process and cannot be recovered.
	StateDir string
}

// Manager scans and installs builds in one Managed directory. Its methods
// are safe for concurrent use; scans and installs are serialized.
type Manager struct {
	game     GameDir
	assembly string
	workers  int
	logger   Logger
	guard    Guard
	stateDir string

	// write replaces target with the contents of src; swapped in tests.
	write writeFunc

	mu sync.Mutex
}

// NewManager creates a Manager, filling in defaults.
func NewManager(cfg Config) *Manager {
	m := &Manager{
		game:     cfg.Game,
		assembly: cfg.Assembly,
		workers:  cfg.Workers,
		logger:   cfg.Logger,
		guard:    cfg.Guard,
		stateDir: cfg.StateDir,
		write:    writeAtomic,
	}
	if m.assembly == "" {
		m.assembly = DefaultAssembly
	}
	if m.workers <= 0 {
		m.workers = runtime.NumCPU()
	}
	if m.logger == nil {
		m.logger = noopLogger{}
	}
	return m
}

// Game returns the managed game installation.
func (m *Manager) Game() GameDir {
	return m.game
}

// Target returns the path of the active assembly.
func (m *Manager) Target() string {
	return filepath.Join(m.game.Managed, m.assembly)
}

// Scan classifies every file in the Managed directory and returns the
// deduplicated catalog. Files that cannot be read are logged and left out.
// The context is only checked before the scan starts; a started scan runs
// to completion.
func (m *Manager) Scan(ctx context.Context) (*Catalog, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	return m.scan()
}

func (m *Manager) scan() (*Catalog, error) {
	dirEntries, err := os.ReadDir(m.game.Managed)
	if err != nil {
		return nil, fmt.Errorf("read managed directory: %w", err)
	}

	var paths []string
	for _, d := range dirEntries {
		if d.IsDir() || isTempFile(d.Name()) {
			continue
		}
		// symlinks are resolved by classify.File
		if t := d.Type(); !t.IsRegular() && t&fs.ModeSymlink == 0 {
			m.logger.Debug("skipping non-regular file", "name", d.Name(), "type", t.String())
			continue
		}
		paths = append(paths, filepath.Join(m.game.Managed, d.Name()))
	}

	results := make([]*Entry, len(paths))

	var g errgroup.Group
	g.SetLimit(m.workers)
	for i, path := range paths {
		g.Go(func() error {
			id, err := classify.File(path)
			if err != nil {
				if errors.Is(err, classify.ErrNotRegular) {
					m.logger.Debug("skipping non-regular file", "path", path)
				} else {
					m.logger.Warn("could not classify file", "path", path, "error", err)
				}
				return nil
			}
			m.logger.Debug("classified file", "path", path, "identity", id)
			if id.Eligible() {
				e := newEntry(path, id)
				results[i] = &e
			}
			return nil
		})
	}
	_ = g.Wait()

	target := m.Target()
	catalog := &Catalog{}
	current := -1
	for _, r := range results {
		if r == nil {
			continue
		}
		if r.Path == target {
			cur := *r
			catalog.Current = &cur
			current = len(catalog.Entries)
		}
		catalog.Entries = append(catalog.Entries, *r)
	}
	catalog.Entries = dedupe(catalog.Entries, current)

	m.logger.Debug("scan complete", "dir", m.game.Managed, "files", len(paths), "builds", len(catalog.Entries))
	return catalog, nil
}

// isTempFile matches the temporary files written by installs.
func isTempFile(name string) bool {
	return strings.HasPrefix(name, tempPrefix) && strings.HasSuffix(name, tempSuffix)
}
