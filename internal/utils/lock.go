package utils

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

const (
	warmLockSuffix = ".warm.lock"
	warmLockPoll   = 250 * time.Millisecond
)

// WarmLock serializes cache warmers sharing one SQLite file. Readers do not
// take it; SQLite's WAL mode already lets them run alongside a writer.
type WarmLock struct {
	lock *flock.Flock
	path string
}

// NewWarmLock returns the warm lock guarding the cache DB at dbPath.
func NewWarmLock(dbPath string) (*WarmLock, error) {
	absPath, err := GetAbsDBPath(dbPath)
	if err != nil {
		return nil, fmt.Errorf("could not resolve cache db path: %w", err)
	}
	lockPath := absPath + warmLockSuffix
	return &WarmLock{
		lock: flock.New(lockPath),
		path: lockPath,
	}, nil
}

func (l *WarmLock) Path() string { return l.path }

// Acquire takes the lock, waiting for another warmer until ctx is done.
func (l *WarmLock) Acquire(ctx context.Context) error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return err
	}
	locked, err := l.lock.TryLock()
	if err != nil {
		return fmt.Errorf("locking %s: %w", l.path, err)
	}
	if locked {
		return nil
	}

	Log.Infof("Another peterportal warm is filling %s, waiting for it to finish", l.path)
	locked, err = l.lock.TryLockContext(ctx, warmLockPoll)
	if err != nil {
		return fmt.Errorf("waiting for %s: %w", l.path, err)
	}
	if !locked {
		return fmt.Errorf("waiting for %s: %w", l.path, ctx.Err())
	}
	return nil
}

// Release drops the lock. Releasing a lock whose file is gone is a no-op.
func (l *WarmLock) Release() error {
	if err := l.lock.Unlock(); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("unlocking %s: %w", l.path, err)
	}
	return nil
}

// GetAbsDBPath resolves the database path. An empty path means the default
// location under the user's config directory.
func GetAbsDBPath(dbPath string) (string, error) {
	if dbPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".config", "peterportal", "peterportal.sqlite"), nil
	}
	return filepath.Abs(dbPath)
}
