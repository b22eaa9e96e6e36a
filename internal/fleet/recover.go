package fleet

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ZebulonRouseFrantzich/oridll/internal/transaction"
)

// Recovery reports what Recover did for one interrupted install.
type Recovery struct {
	ID     string
	Target string
	Backup string
	// Restored is set when the backup was moved back to Target.
	Restored bool
}

// Recover finishes interrupted installs recorded in the state directory.
// When an install moved the active build to a backup and never put a new
// one in its place, the backup is moved back. Leftover temporary files in
// the Managed directory are removed.
func (m *Manager) Recover(ctx context.Context) ([]Recovery, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.stateDir == "" {
		return nil, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	lock, err := transaction.AcquireLock(ctx, m.stateDir)
	if err != nil {
		return nil, fmt.Errorf("acquire install lock: %w", err)
	}
	defer lock.Release()

	pending, err := transaction.LoadPending(m.stateDir)
	if err != nil {
		return nil, fmt.Errorf("load install journals: %w", err)
	}

	var recovered []Recovery
	for _, txn := range pending {
		r := Recovery{ID: txn.ID, Target: txn.Target, Backup: txn.Backup}

		if txn.Backup != "" && !exists(txn.Target) && exists(txn.Backup) {
			m.logger.Info("restoring backup", "from", txn.Backup, "to", txn.Target, "id", txn.ID)
			if err := os.Rename(txn.Backup, txn.Target); err != nil {
				return recovered, fmt.Errorf("restore %s: %w", txn.Backup, err)
			}
			r.Restored = true
		}

		if err := txn.Remove(m.stateDir); err != nil {
			return recovered, err
		}
		recovered = append(recovered, r)
	}

	m.removeTempFiles()
	return recovered, nil
}

func (m *Manager) removeTempFiles() {
	matches, _ := filepath.Glob(filepath.Join(m.game.Managed, tempPrefix+"*"+tempSuffix))
	for _, path := range matches {
		if err := os.Remove(path); err != nil {
			m.logger.Warn("could not remove temporary file", "path", path, "error", err)
			continue
		}
		m.logger.Debug("removed temporary file", "path", path)
	}
}

func exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}
