package fleet

import (
	"errors"
	"fmt"
)

var (
	// ErrGameRunning is returned by installs while the game process is up;
	// the game holds the assembly open and would keep running the old one.
	ErrGameRunning = errors.New("game is running")
	// ErrNotInstalled means the game directory has no game executable.
	ErrNotInstalled = errors.New("game not found in directory")
	// ErrNotAssembly is returned by InstallBytes for data that does not
	// classify as an installable build.
	ErrNotAssembly = errors.New("not an installable game assembly")
)

// Install stages, reported by InstallError.
const (
	StageClassify = "classify"
	StageBackup   = "backup"
	StageWrite    = "write"
)

// InstallError reports where an install failed. When BackupPath is set the
// previous build was moved there before the failure and the target path
// may be empty; Recover moves it back.
type InstallError struct {
	Stage      string
	BackupPath string
	Err        error
}

func (e *InstallError) Error() string {
	if e.BackupPath != "" {
		return fmt.Sprintf("install failed at %s stage (previous build kept at %s): %v", e.Stage, e.BackupPath, e.Err)
	}
	return fmt.Sprintf("install failed at %s stage: %v", e.Stage, e.Err)
}

func (e *InstallError) Unwrap() error {
	return e.Err
}
