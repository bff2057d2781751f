// Package accel serializes access to the inference accelerator.
//
// A Lock admits one holder per process. When a lock file is configured it also
// takes an exclusive file lock so separate dualsub processes sharing a GPU
// queue behind each other.
package accel

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
)

const filePollInterval = 250 * time.Millisecond

// Lock is a capacity-1, context-aware mutex around accelerator use.
type Lock struct {
	sem      chan struct{}
	file     *flock.Flock
	lockPath string

	mu      sync.Mutex
	holders int64
}

// New returns a process-local lock. A non-empty lockPath adds a cross-process
// file lock at that path.
func New(lockPath string) *Lock {
	l := &Lock{sem: make(chan struct{}, 1), lockPath: lockPath}
	if lockPath != "" {
		l.file = flock.New(lockPath)
	}
	return l
}

// Acquire blocks until the accelerator is free or ctx is done. The returned
// release function must be called exactly once; it is safe to defer.
func (l *Lock) Acquire(ctx context.Context) (func(), error) {
	if l == nil {
		return func() {}, nil
	}
	select {
	case l.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if l.file != nil {
		if err := os.MkdirAll(filepath.Dir(l.lockPath), 0o755); err != nil {
			<-l.sem
			return nil, fmt.Errorf("accelerator lock dir: %w", err)
		}
		ok, err := l.file.TryLockContext(ctx, filePollInterval)
		if err != nil || !ok {
			<-l.sem
			if err == nil {
				err = ctx.Err()
			}
			return nil, fmt.Errorf("accelerator file lock %s: %w", l.lockPath, err)
		}
	}

	l.mu.Lock()
	l.holders++
	l.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			l.holders--
			l.mu.Unlock()
			if l.file != nil {
				_ = l.file.Unlock()
			}
			<-l.sem
		})
	}, nil
}

// With runs fn while holding the lock.
func (l *Lock) With(ctx context.Context, fn func(context.Context) error) error {
	release, err := l.Acquire(ctx)
	if err != nil {
		return err
	}
	defer release()
	return fn(ctx)
}

// Held reports whether a caller currently holds the lock.
func (l *Lock) Held() bool {
	if l == nil {
		return false
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.holders > 0
}

// Path returns the configured lock file path, if any.
func (l *Lock) Path() string {
	if l == nil {
		return ""
	}
	return l.lockPath
}
