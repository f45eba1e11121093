package cmd

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"

	"github.com/youhavemail/yhm/internal/config"
)

var (
	instanceLock   *flock.Flock
	instanceLockMu sync.Mutex
)

// AcquireLock takes the single-instance lock in the runtime dir. It reports
// false when another process already holds it.
func AcquireLock() (bool, error) {
	instanceLockMu.Lock()
	defer instanceLockMu.Unlock()

	if instanceLock != nil {
		return true, nil
	}
	if err := config.EnsureDirs(); err != nil {
		return false, err
	}

	l := flock.New(filepath.Join(config.GetRuntimeDir(), "yhm.lock"))
	locked, err := l.TryLock()
	if err != nil {
		return false, fmt.Errorf("failed to acquire lock: %w", err)
	}
	if !locked {
		return false, nil
	}
	instanceLock = l
	return true, nil
}

// ReleaseLock drops the lock taken by AcquireLock.
func ReleaseLock() error {
	instanceLockMu.Lock()
	defer instanceLockMu.Unlock()

	if instanceLock == nil {
		return nil
	}
	err := instanceLock.Unlock()
	instanceLock = nil
	return err
}
