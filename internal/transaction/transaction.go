// Package transaction keeps installs of the active assembly recoverable:
// an exclusive lock file serializes installers across processes, and a
// small JSON journal records how far an install got so an interrupted one
// can be rolled back.
package transaction

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

// State represents how far an install has progressed.
type State string

const (
	// StatePending: nothing in the managed directory has changed yet.
	StatePending State = "pending"
	// StateBackedUp: the previous occupant was renamed to Backup, the new
	// build is not in place yet.
	StateBackedUp  State = "backed_up"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
)

const (
	journalPrefix = "txn-install-"
	journalSuffix = ".json"
)

// InstallTxn is the journal of a single install.
type InstallTxn struct {
	Version   int       `json:"version"` // Schema version for future evolution
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Target    string    `json:"target"`
	Source    string    `json:"source,omitempty"` // Empty when installing supplied bytes
	Backup    string    `json:"backup,omitempty"`
	State     State     `json:"state"`
	LastError string    `json:"last_error,omitempty"`
}

// New creates a pending journal for installing source over target.
func New(target, source string) *InstallTxn {
	return &InstallTxn{
		Version:   1,
		ID:        uuid.New().String(),
		Timestamp: time.Now().UTC(),
		Target:    target,
		Source:    source,
		State:     StatePending,
	}
}

func (t *InstallTxn) filename() string {
	return journalPrefix + t.ID + journalSuffix
}

// Save writes the journal to disk atomically.
// Uses write-then-rename pattern for atomicity.
func (t *InstallTxn) Save(dir string) error {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("create transaction directory: %w", err)
	}

	finalPath := filepath.Join(dir, t.filename())
	tmpPath := finalPath + ".tmp"

	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal transaction: %w", err)
	}

	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("write temporary transaction file: %w", err)
	}

	if err := os.Rename(tmpPath, finalPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename transaction file: %w", err)
	}

	// Sync directory for durability
	df, err := os.Open(dir)
	if err == nil {
		if syncErr := df.Sync(); syncErr != nil {
			df.Close()
			return fmt.Errorf("sync directory: %w", syncErr)
		}
		df.Close()
	}

	return nil
}

// Mark records a state transition and saves the journal.
func (t *InstallTxn) Mark(dir string, state State, cause error) error {
	t.State = state
	if cause != nil {
		t.LastError = cause.Error()
	} else {
		t.LastError = ""
	}
	return t.Save(dir)
}

// Remove deletes the journal file. A journal that is already gone is not
// an error.
func (t *InstallTxn) Remove(dir string) error {
	err := os.Remove(filepath.Join(dir, t.filename()))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove transaction file: %w", err)
	}
	return nil
}

// Load reads a journal from disk.
func Load(path string) (*InstallTxn, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read transaction file: %w", err)
	}

	var txn InstallTxn
	if err := json.Unmarshal(data, &txn); err != nil {
		return nil, fmt.Errorf("unmarshal transaction: %w", err)
	}
	if txn.ID == "" {
		return nil, fmt.Errorf("transaction file %s has no id", filepath.Base(path))
	}

	return &txn, nil
}

// LoadPending returns every journal in dir that did not reach
// StateCompleted, oldest first. A missing directory has no journals.
func LoadPending(dir string) ([]*InstallTxn, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read transaction directory: %w", err)
	}

	var pending []*InstallTxn
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, journalPrefix) || !strings.HasSuffix(name, journalSuffix) {
			continue
		}
		txn, err := Load(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		if txn.State != StateCompleted {
			pending = append(pending, txn)
		}
	}

	// ReadDir sorts by name, which is random for uuids
	slices.SortStableFunc(pending, func(a, b *InstallTxn) int {
		return a.Timestamp.Compare(b.Timestamp)
	})
	return pending, nil
}
