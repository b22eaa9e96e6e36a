package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/ZebulonRouseFrantzich/oridll/internal/pe/petest"
	"github.com/ZebulonRouseFrantzich/oridll/internal/testutil"
)

func vanillaDLL() []byte {
	return petest.Image{Strings: petest.StringsHeap("<Module>", "SpiritGrenadeDamageDealer")}.Bytes()
}

func randoDLL(version string) []byte {
	return petest.Image{
		Strings: petest.StringsHeap("<Module>", "SpiritGrenadeDamageDealer", "Randomizer"),
		US:      petest.USHeap("Ori DE Randomizer", version),
	}.Bytes()
}

// testEnv is an isolated ORIDLL_DIR plus a game installation.
type testEnv struct {
	dir     string
	game    string
	managed string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	game := testutil.NewGameInstall(t)
	return &testEnv{
		dir:     testutil.SetupTestEnv(t),
		game:    game,
		managed: filepath.Join(game, "oriDE_Data", "Managed"),
	}
}

func (e *testEnv) put(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(e.managed, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func (e *testEnv) writeConfig(t *testing.T, code string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(e.dir, "oridll.lua"), []byte(code), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

// run invokes a command and returns its standard output.
func run(t *testing.T, name string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := commands[name].run(context.Background(), args, &out)
	return out.String(), err
}
