package fleet

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/ZebulonRouseFrantzich/oridll/internal/classify"
	"github.com/ZebulonRouseFrantzich/oridll/internal/transaction"
)

// Result describes a completed install.
type Result struct {
	// Target is the path of the active assembly.
	Target string
	// Backup is where the previous build was moved, if it was backed up.
	Backup string
	// Previous is the identity of the build that was active before, or nil
	// if there was none.
	Previous *classify.Identity
	// Unchanged is set when the requested build was already active.
	Unchanged bool
}

// Install makes the build of a catalog entry the active one. Installing
// the entry that is already active does nothing.
func (m *Manager) Install(ctx context.Context, e Entry) (*Result, error) {
	return m.install(ctx, e.Path, func() (io.ReadCloser, error) {
		return os.Open(e.Path)
	})
}

// InstallBytes makes data the active assembly.
func (m *Manager) InstallBytes(ctx context.Context, data []byte) (*Result, error) {
	if id, err := classify.Explain(data); !id.Eligible() {
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrNotAssembly, err)
		}
		return nil, fmt.Errorf("%w: %s", ErrNotAssembly, id)
	}
	return m.install(ctx, "", func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(data)), nil
	})
}

func (m *Manager) install(ctx context.Context, source string, open func() (io.ReadCloser, error)) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.stateDir != "" {
		lock, err := transaction.AcquireLock(ctx, m.stateDir)
		if err != nil {
			return nil, fmt.Errorf("acquire install lock: %w", err)
		}
		defer lock.Release()
	}

	if m.guard != nil {
		running, err := m.guard.Running(ctx)
		if err != nil {
			return nil, fmt.Errorf("check game process: %w", err)
		}
		if running {
			return nil, ErrGameRunning
		}
	}

	catalog, err := m.scan()
	if err != nil {
		return nil, err
	}

	target := m.Target()
	result := &Result{Target: target}

	if source != "" && filepath.Clean(source) == target {
		if catalog.Current != nil {
			id := catalog.Current.Identity
			result.Previous = &id
		}
		result.Unchanged = true
		m.logger.Info("build already installed", "path", target)
		return result, nil
	}

	src, err := open()
	if err != nil {
		return nil, fmt.Errorf("open source build: %w", err)
	}
	defer src.Close()

	prev, err := classify.File(target)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		m.logger.Debug("no build installed", "path", target)
	case err != nil:
		return nil, &InstallError{Stage: StageClassify, Err: err}
	default:
		result.Previous = &prev
	}

	var backup string
	if result.Previous != nil && !catalog.HasCopy(target, prev) {
		backup = backupPath(m.game.Managed, m.assembly, prev, randomSuffix)
	}

	txn := transaction.New(target, source)
	txn.Backup = backup
	if err := m.saveJournal(txn); err != nil {
		return nil, err
	}

	if backup != "" {
		m.logger.Info("backing up installed build", "from", target, "to", backup, "identity", prev)
		if err := os.Rename(target, backup); err != nil {
			m.dropJournal(txn)
			return nil, &InstallError{Stage: StageBackup, Err: err}
		}
		result.Backup = backup
		m.markJournal(txn, transaction.StateBackedUp, nil)
	}

	m.logger.Info("installing build", "source", source, "target", target)
	if err := m.write(target, src); err != nil {
		if backup == "" {
			// target untouched, nothing to recover
			m.dropJournal(txn)
		} else {
			m.markJournal(txn, transaction.StateFailed, err)
		}
		return nil, &InstallError{Stage: StageWrite, BackupPath: result.Backup, Err: err}
	}

	m.dropJournal(txn)
	return result, nil
}

func (m *Manager) saveJournal(txn *transaction.InstallTxn) error {
	if m.stateDir == "" {
		return nil
	}
	if err := txn.Save(m.stateDir); err != nil {
		return fmt.Errorf("save install journal: %w", err)
	}
	return nil
}

// markJournal records progress. The journal already names the backup, so
// a failure here does not stop Recover from finding it.
func (m *Manager) markJournal(txn *transaction.InstallTxn, state transaction.State, cause error) {
	if m.stateDir == "" {
		return
	}
	if err := txn.Mark(m.stateDir, state, cause); err != nil {
		m.logger.Warn("could not update install journal", "id", txn.ID, "error", err)
	}
}

func (m *Manager) dropJournal(txn *transaction.InstallTxn) {
	if m.stateDir == "" {
		return
	}
	if err := txn.Remove(m.stateDir); err != nil {
		m.logger.Warn("could not remove install journal", "id", txn.ID, "error", err)
	}
}
