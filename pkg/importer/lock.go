package importer

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// ErrLocked is returned when another process holds the import lock.
var ErrLocked = errors.New("another import is running")

// Lock serializes writers sharing a storage directory. Only one process may
// hold it at a time.
type Lock struct {
	flock *flock.Flock
}

func NewLock(dir string) *Lock {
	return &Lock{flock: flock.New(filepath.Join(dir, ".import.lock"))}
}

// TryLock takes the lock without waiting, returning ErrLocked when it is held
// elsewhere.
func (l *Lock) TryLock() error {
	if err := os.MkdirAll(filepath.Dir(l.flock.Path()), 0755); err != nil {
		return fmt.Errorf("creating lock directory: %w", err)
	}
	ok, err := l.flock.TryLock()
	if err != nil {
		return fmt.Errorf("acquiring import lock: %w", err)
	}
	if !ok {
		return ErrLocked
	}
	return nil
}

// Unlock releases the lock. Calling it on an unlocked Lock is a no-op.
func (l *Lock) Unlock() error {
	if !l.flock.Locked() {
		return nil
	}
	if err := l.flock.Unlock(); err != nil {
		return fmt.Errorf("releasing import lock: %w", err)
	}
	return nil
}

func (l *Lock) Path() string {
	return l.flock.Path()
}
