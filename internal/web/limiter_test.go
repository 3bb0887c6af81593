package web

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestParseLimiter_AcquireRelease(t *testing.T) {
	l := newParseLimiter(2, time.Second)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := l.acquire(ctx); err != nil {
			t.Fatalf("acquire %d: %v", i, err)
		}
	}
	if got := l.status(); got.Active != 2 || got.MaxConcurrent != 2 {
		t.Errorf("status = %+v, want 2 active of 2", got)
	}

	l.release()
	l.release()
	if got := l.status().Active; got != 0 {
		t.Errorf("Active = %d, want 0", got)
	}
}

func TestParseLimiter_RejectsWhenBusy(t *testing.T) {
	l := newParseLimiter(1, 20*time.Millisecond)
	ctx := context.Background()

	if err := l.acquire(ctx); err != nil {
		t.Fatalf("acquire: %v", err)
	}
	defer l.release()

	if err := l.acquire(ctx); !errors.Is(err, errBusy) {
		t.Errorf("acquire on full limiter = %v, want errBusy", err)
	}
}

func TestParseLimiter_ContextCancelled(t *testing.T) {
	l := newParseLimiter(1, time.Minute)
	if err := l.acquire(context.Background()); err != nil {
		t.Fatalf("acquire: %v", err)
	}
	defer l.release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := l.acquire(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("acquire with cancelled context = %v, want context.Canceled", err)
	}
}

func TestParseLimiter_WaitForDrain(t *testing.T) {
	l := newParseLimiter(1, time.Second)
	if err := l.acquire(context.Background()); err != nil {
		t.Fatalf("acquire: %v", err)
	}

	go func() {
		time.Sleep(20 * time.Millisecond)
		l.release()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := l.waitForDrain(ctx); err != nil {
		t.Errorf("waitForDrain = %v, want nil", err)
	}
}
