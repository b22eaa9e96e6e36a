package fleet

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/ZebulonRouseFrantzich/oridll/internal/classify"
	"github.com/ZebulonRouseFrantzich/oridll/internal/pe/petest"
)

const (
	markerDE    = "SpiritGrenadeDamageDealer"
	markerRando = "Randomizer"
)

func vanillaDLL() []byte {
	return petest.Image{Strings: petest.StringsHeap("<Module>", markerDE)}.Bytes()
}

func randoDLL(version string) []byte {
	return petest.Image{
		Strings: petest.StringsHeap("<Module>", markerDE, markerRando),
		US:      petest.USHeap("Ori DE Randomizer", version),
	}.Bytes()
}

// unversionedDLL returns a randomizer build without a version; seed makes
// the content, and so the hash, distinct.
func unversionedDLL(seed byte) []byte {
	return petest.Image{
		Strings: petest.StringsHeap("<Module>", markerDE, markerRando),
		Tables:  []byte{seed, 0, 0, 0},
	}.Bytes()
}

func legacyDLL() []byte {
	return petest.Image{Strings: petest.StringsHeap("<Module>", "HoldingNightberryCondition")}.Bytes()
}

func version(major, minor, patch uint64) classify.Identity {
	return classify.Versioned(classify.Version{Major: major, Minor: minor, Patch: patch})
}

type testGame struct {
	game  GameDir
	state string
}

// newTestGame creates an empty game installation under a temp dir.
func newTestGame(t *testing.T) testGame {
	t.Helper()
	root := t.TempDir()
	game := NewGameDir(filepath.Join(root, "Ori"), "", "")
	if err := os.MkdirAll(game.Managed, 0755); err != nil {
		t.Fatalf("failed to create managed dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(game.Install, game.Exe), []byte("MZ"), 0755); err != nil {
		t.Fatalf("failed to create game exe: %v", err)
	}
	return testGame{game: game, state: filepath.Join(root, "state")}
}

func (g testGame) put(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(g.game.Managed, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func (g testGame) manager(opts ...func(*Config)) *Manager {
	cfg := Config{Game: g.game, Workers: 4, StateDir: g.state}
	for _, opt := range opts {
		opt(&cfg)
	}
	return NewManager(cfg)
}

func (g testGame) files(t *testing.T) []string {
	t.Helper()
	entries, err := os.ReadDir(g.game.Managed)
	if err != nil {
		t.Fatalf("failed to read managed dir: %v", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func identityOf(t *testing.T, path string) classify.Identity {
	t.Helper()
	id, err := classify.File(path)
	if err != nil {
		t.Fatalf("classify %s: %v", path, err)
	}
	return id
}

func mustScan(t *testing.T, m *Manager) *Catalog {
	t.Helper()
	catalog, err := m.Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	return catalog
}

type fakeGuard struct {
	running bool
	err     error
}

func (f fakeGuard) Running(context.Context) (bool, error) {
	return f.running, f.err
}

type logRecord struct {
	level string
	msg   string
}

// recordingLogger keeps every message; scans log from several goroutines.
type recordingLogger struct {
	mu      sync.Mutex
	records []logRecord
}

func (l *recordingLogger) add(level, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = append(l.records, logRecord{level: level, msg: msg})
}

func (l *recordingLogger) Debug(msg string, _ ...any) { l.add("debug", msg) }
func (l *recordingLogger) Info(msg string, _ ...any)  { l.add("info", msg) }
func (l *recordingLogger) Warn(msg string, _ ...any)  { l.add("warn", msg) }
func (l *recordingLogger) Error(msg string, _ ...any) { l.add("error", msg) }

func (l *recordingLogger) count(level string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, r := range l.records {
		if r.level == level {
			n++
		}
	}
	return n
}
