package accel

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestLockAdmitsOneHolder(t *testing.T) {
	lock := New("")
	var active, peak int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := lock.With(context.Background(), func(context.Context) error {
				n := atomic.AddInt32(&active, 1)
				for {
					p := atomic.LoadInt32(&peak)
					if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
						break
					}
				}
				time.Sleep(time.Millisecond)
				atomic.AddInt32(&active, -1)
				return nil
			})
			if err != nil {
				t.Errorf("With returned error: %v", err)
			}
		}()
	}
	wg.Wait()
	if peak != 1 {
		t.Fatalf("expected at most one concurrent holder, saw %d", peak)
	}
	if lock.Held() {
		t.Fatal("expected lock to be free after all holders returned")
	}
}

func TestAcquireRespectsContext(t *testing.T) {
	lock := New("")
	release, err := lock.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire returned error: %v", err)
	}
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := lock.Acquire(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestReleaseIsIdempotent(t *testing.T) {
	lock := New("")
	release, err := lock.Acquire(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	release()
	release()
	release2, err := lock.Acquire(context.Background())
	if err != nil {
		t.Fatalf("expected lock to be reacquirable: %v", err)
	}
	release2()
}

func TestFileLockSerializesAcrossInstances(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gpu", "accel.lock")
	first := New(path)
	second := New(path)

	release, err := first.Acquire(context.Background())
	if err != nil {
		t.Fatalf("first Acquire: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 600*time.Millisecond)
	defer cancel()
	if _, err := second.Acquire(ctx); err == nil {
		t.Fatal("expected second instance to block on file lock")
	}

	release()
	release2, err := second.Acquire(context.Background())
	if err != nil {
		t.Fatalf("second Acquire after release: %v", err)
	}
	release2()
	if second.Path() != path {
		t.Fatalf("unexpected lock path %q", second.Path())
	}
}
