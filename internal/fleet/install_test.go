package fleet

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"sync"
	"testing"

	"github.com/ZebulonRouseFrantzich/oridll/internal/classify"
	"github.com/ZebulonRouseFrantzich/oridll/internal/transaction"
)

func TestInstall_KnownBuildIsNotBackedUp(t *testing.T) {
	g := newTestGame(t)
	target := g.put(t, "Assembly-CSharp.dll", vanillaDLL())
	g.put(t, "Assembly-CSharp.vanilla.dll", vanillaDLL())
	g.put(t, "Assembly-CSharp.rando.1.0.0.dll", randoDLL("1.0.0"))

	m := g.manager()
	catalog := mustScan(t, m)
	entry, ok := catalog.Find("Rando (1.0.0)")
	if !ok {
		t.Fatal("rando entry not found")
	}

	result, err := m.Install(context.Background(), entry)
	if err != nil {
		t.Fatalf("Install() error = %v", err)
	}

	if result.Backup != "" {
		t.Errorf("Backup = %q, want none", result.Backup)
	}
	if result.Previous == nil || !result.Previous.Equal(classify.Vanilla()) {
		t.Errorf("Previous = %v, want Vanilla", result.Previous)
	}
	if got := identityOf(t, target); !got.Equal(version(1, 0, 0)) {
		t.Errorf("installed identity = %v, want 1.0.0", got)
	}
	if files := g.files(t); len(files) != 3 {
		t.Errorf("expected no new files, got %v", files)
	}
}

func TestInstall_UnknownBuildIsBackedUpOnce(t *testing.T) {
	g := newTestGame(t)
	target := g.put(t, "Assembly-CSharp.dll", randoDLL("1.0.0"))
	g.put(t, "Assembly-CSharp.vanilla.dll", vanillaDLL())

	m := g.manager()
	catalog := mustScan(t, m)
	entry, ok := catalog.Find("Assembly-CSharp.vanilla.dll")
	if !ok {
		t.Fatal("vanilla entry not found")
	}

	result, err := m.Install(context.Background(), entry)
	if err != nil {
		t.Fatalf("Install() error = %v", err)
	}

	wantBackup := filepath.Join(g.game.Managed, "Assembly-CSharp.rando.1.0.0.dll")
	if result.Backup != wantBackup {
		t.Errorf("Backup = %q, want %q", result.Backup, wantBackup)
	}
	if got := identityOf(t, wantBackup); !got.Equal(version(1, 0, 0)) {
		t.Errorf("backup identity = %v, want 1.0.0", got)
	}
	if got := identityOf(t, target); !got.Equal(classify.Vanilla()) {
		t.Errorf("installed identity = %v, want Vanilla", got)
	}
	if files := g.files(t); len(files) != 3 {
		t.Errorf("expected exactly one new file, got %v", files)
	}

	// Switching back finds the backup and makes no further copies.
	catalog = mustScan(t, m)
	entry, _ = catalog.Find("Rando (1.0.0)")
	if _, err := m.Install(context.Background(), entry); err != nil {
		t.Fatalf("second Install() error = %v", err)
	}
	if files := g.files(t); len(files) != 3 {
		t.Errorf("expected no new files after switching back, got %v", files)
	}
}

func TestInstall_BackupNameCollision(t *testing.T) {
	g := newTestGame(t)
	g.put(t, "Assembly-CSharp.dll", vanillaDLL())
	// Taken by something that is not a vanilla build.
	unrelated := g.put(t, "Assembly-CSharp.vanilla.dll", []byte("not an assembly"))
	source := g.put(t, "new.dll", randoDLL("3.0.0"))

	m := g.manager()
	result, err := m.Install(context.Background(), newEntry(source, version(3, 0, 0)))
	if err != nil {
		t.Fatalf("Install() error = %v", err)
	}

	pattern := regexp.MustCompile(`^Assembly-CSharp\.vanilla\.[A-Za-z0-9]{10}\.dll$`)
	if !pattern.MatchString(filepath.Base(result.Backup)) {
		t.Errorf("Backup = %q, want a randomized name", result.Backup)
	}
	if got := identityOf(t, result.Backup); !got.Equal(classify.Vanilla()) {
		t.Errorf("backup identity = %v, want Vanilla", got)
	}

	data, err := os.ReadFile(unrelated)
	if err != nil || string(data) != "not an assembly" {
		t.Error("existing file under the backup name was overwritten")
	}
}

func TestInstallBytes_FirstInstall(t *testing.T) {
	g := newTestGame(t)

	result, err := g.manager().InstallBytes(context.Background(), randoDLL("4.1.0"))
	if err != nil {
		t.Fatalf("InstallBytes() error = %v", err)
	}

	if result.Previous != nil {
		t.Errorf("Previous = %v, want nil", result.Previous)
	}
	if result.Backup != "" {
		t.Errorf("Backup = %q, want none", result.Backup)
	}
	if got := identityOf(t, result.Target); !got.Equal(version(4, 1, 0)) {
		t.Errorf("installed identity = %v, want 4.1.0", got)
	}
	info, err := os.Stat(result.Target)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0644 {
		t.Errorf("installed file mode = %v, want 0644", info.Mode().Perm())
	}
}

func TestInstallBytes_RejectsNonAssembly(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{name: "garbage", data: []byte("garbage")},
		{name: "legacy edition", data: legacyDLL()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newTestGame(t)
			target := g.put(t, "Assembly-CSharp.dll", vanillaDLL())

			_, err := g.manager().InstallBytes(context.Background(), tt.data)
			if !errors.Is(err, ErrNotAssembly) {
				t.Errorf("InstallBytes() error = %v, want ErrNotAssembly", err)
			}
			if got := identityOf(t, target); !got.Equal(classify.Vanilla()) {
				t.Errorf("target changed to %v", got)
			}
		})
	}
}

func TestInstall_AlreadyInstalled(t *testing.T) {
	g := newTestGame(t)
	g.put(t, "Assembly-CSharp.dll", randoDLL("1.2.3"))

	m := g.manager()
	catalog := mustScan(t, m)

	result, err := m.Install(context.Background(), *catalog.Current)
	if err != nil {
		t.Fatalf("Install() error = %v", err)
	}
	if !result.Unchanged {
		t.Error("Unchanged = false, want true")
	}
	if result.Backup != "" {
		t.Errorf("Backup = %q, want none", result.Backup)
	}
	if files := g.files(t); len(files) != 1 {
		t.Errorf("expected directory untouched, got %v", files)
	}
}

func TestInstall_GameRunning(t *testing.T) {
	g := newTestGame(t)
	target := g.put(t, "Assembly-CSharp.dll", vanillaDLL())
	source := g.put(t, "rando.dll", randoDLL("1.0.0"))

	t.Run("refuses while running", func(t *testing.T) {
		m := g.manager(func(c *Config) { c.Guard = fakeGuard{running: true} })
		_, err := m.Install(context.Background(), newEntry(source, version(1, 0, 0)))
		if !errors.Is(err, ErrGameRunning) {
			t.Errorf("Install() error = %v, want ErrGameRunning", err)
		}
	})

	t.Run("refuses when the check fails", func(t *testing.T) {
		guardErr := errors.New("process table unavailable")
		m := g.manager(func(c *Config) { c.Guard = fakeGuard{err: guardErr} })
		_, err := m.Install(context.Background(), newEntry(source, version(1, 0, 0)))
		if !errors.Is(err, guardErr) {
			t.Errorf("Install() error = %v, want %v", err, guardErr)
		}
	})

	if got := identityOf(t, target); !got.Equal(classify.Vanilla()) {
		t.Errorf("target changed to %v", got)
	}
	if files := g.files(t); len(files) != 2 {
		t.Errorf("expected no backups, got %v", files)
	}
}

func TestInstall_MissingSource(t *testing.T) {
	g := newTestGame(t)
	target := g.put(t, "Assembly-CSharp.dll", vanillaDLL())

	m := g.manager()
	_, err := m.Install(context.Background(), newEntry(filepath.Join(g.game.Managed, "gone.dll"), version(1, 0, 0)))
	if err == nil {
		t.Fatal("expected error for missing source")
	}
	if got := identityOf(t, target); !got.Equal(classify.Vanilla()) {
		t.Errorf("target changed to %v", got)
	}
	if files := g.files(t); len(files) != 1 {
		t.Errorf("expected no backups, got %v", files)
	}
}

func TestInstall_LockHeldElsewhere(t *testing.T) {
	g := newTestGame(t)
	g.put(t, "Assembly-CSharp.dll", vanillaDLL())

	lock, err := transaction.AcquireLock(context.Background(), g.state)
	if err != nil {
		t.Fatalf("AcquireLock() error = %v", err)
	}
	defer lock.Release()

	_, err = g.manager().InstallBytes(context.Background(), randoDLL("1.0.0"))
	if !errors.Is(err, transaction.ErrLockExists) {
		t.Errorf("InstallBytes() error = %v, want ErrLockExists", err)
	}
}

func TestInstall_WriteFailureKeepsBackup(t *testing.T) {
	g := newTestGame(t)
	target := g.put(t, "Assembly-CSharp.dll", randoDLL("1.0.0"))

	writeErr := errors.New("disk full")
	m := g.manager()
	m.write = func(string, io.Reader) error { return writeErr }

	_, err := m.InstallBytes(context.Background(), vanillaDLL())

	var installErr *InstallError
	if !errors.As(err, &installErr) {
		t.Fatalf("InstallBytes() error = %v, want *InstallError", err)
	}
	if installErr.Stage != StageWrite {
		t.Errorf("Stage = %q, want %q", installErr.Stage, StageWrite)
	}
	if !errors.Is(err, writeErr) {
		t.Errorf("error should wrap the write failure: %v", err)
	}

	wantBackup := filepath.Join(g.game.Managed, "Assembly-CSharp.rando.1.0.0.dll")
	if installErr.BackupPath != wantBackup {
		t.Errorf("BackupPath = %q, want %q", installErr.BackupPath, wantBackup)
	}
	if _, err := os.Stat(target); !os.IsNotExist(err) {
		t.Error("target should be empty after the failed write")
	}

	pending, err := transaction.LoadPending(g.state)
	if err != nil {
		t.Fatalf("LoadPending() error = %v", err)
	}
	if len(pending) != 1 || pending[0].State != transaction.StateFailed {
		t.Fatalf("expected one failed journal, got %+v", pending)
	}

	// Recover puts the previous build back.
	m.write = writeAtomic
	recovered, err := m.Recover(context.Background())
	if err != nil {
		t.Fatalf("Recover() error = %v", err)
	}
	if len(recovered) != 1 || !recovered[0].Restored {
		t.Fatalf("Recover() = %+v, want one restored install", recovered)
	}
	if got := identityOf(t, target); !got.Equal(version(1, 0, 0)) {
		t.Errorf("restored identity = %v, want 1.0.0", got)
	}
	if pending, _ := transaction.LoadPending(g.state); len(pending) != 0 {
		t.Errorf("journals left after recovery: %+v", pending)
	}
}

func TestInstall_WriteFailureWithoutBackup(t *testing.T) {
	g := newTestGame(t)
	target := g.put(t, "Assembly-CSharp.dll", vanillaDLL())
	g.put(t, "Assembly-CSharp.vanilla.dll", vanillaDLL())

	m := g.manager()
	m.write = func(string, io.Reader) error { return errors.New("disk full") }

	_, err := m.InstallBytes(context.Background(), randoDLL("1.0.0"))

	var installErr *InstallError
	if !errors.As(err, &installErr) {
		t.Fatalf("InstallBytes() error = %v, want *InstallError", err)
	}
	if installErr.BackupPath != "" {
		t.Errorf("BackupPath = %q, want none", installErr.BackupPath)
	}
	if got := identityOf(t, target); !got.Equal(classify.Vanilla()) {
		t.Errorf("target changed to %v", got)
	}
	if pending, _ := transaction.LoadPending(g.state); len(pending) != 0 {
		t.Errorf("no journal should remain: %+v", pending)
	}
}

func TestInstall_WithoutStateDir(t *testing.T) {
	g := newTestGame(t)
	g.put(t, "Assembly-CSharp.dll", vanillaDLL())

	m := g.manager(func(c *Config) { c.StateDir = "" })
	result, err := m.InstallBytes(context.Background(), randoDLL("1.0.0"))
	if err != nil {
		t.Fatalf("InstallBytes() error = %v", err)
	}
	if result.Backup == "" {
		t.Error("expected the vanilla build to be backed up")
	}
	if _, err := os.Stat(g.state); !os.IsNotExist(err) {
		t.Error("no state should be written without a state directory")
	}
}

func TestInstall_ConcurrentSwitchesKeepEveryBuild(t *testing.T) {
	g := newTestGame(t)
	g.put(t, "Assembly-CSharp.dll", vanillaDLL())
	g.put(t, "Assembly-CSharp.vanilla.dll", vanillaDLL())
	g.put(t, "Assembly-CSharp.rando.1.0.0.dll", randoDLL("1.0.0"))
	g.put(t, "Assembly-CSharp.rando.2.0.0.dll", randoDLL("2.0.0"))

	m := g.manager()
	catalog := mustScan(t, m)
	entries := slices.Clone(catalog.Entries)

	var wg sync.WaitGroup
	errs := make([]error, 12)
	for i := range errs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = m.Install(context.Background(), entries[i%len(entries)])
		}()
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Errorf("install %d: %v", i, err)
		}
	}

	after := mustScan(t, m)
	if len(after.Entries) != 3 {
		t.Errorf("got %d builds after concurrent installs, want 3", len(after.Entries))
	}
	if files := g.files(t); len(files) != 4 {
		t.Errorf("expected no backups, got %v", files)
	}
}
