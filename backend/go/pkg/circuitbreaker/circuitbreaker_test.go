package circuitbreaker

import (
	"errors"
	"testing"
	"time"
)

var errBoom = errors.New("boom")

func TestOpensAfterConsecutiveFailures(t *testing.T) {
	b := New(2, 1, time.Minute)

	for i := 0; i < 2; i++ {
		if err := b.Do(func() error { return errBoom }); !errors.Is(err, errBoom) {
			t.Fatalf("Do() error = %v, want errBoom", err)
		}
	}
	if b.State() != Open {
		t.Fatalf("state = %v, want open", b.State())
	}

	called := false
	err := b.Do(func() error { called = true; return nil })
	if !errors.Is(err, ErrOpen) {
		t.Errorf("Do() error = %v, want ErrOpen", err)
	}
	if called {
		t.Error("fn was invoked while circuit open")
	}
}

func TestSuccessResetsFailureCount(t *testing.T) {
	b := New(2, 1, time.Minute)

	b.Do(func() error { return errBoom })
	b.Do(func() error { return nil })
	b.Do(func() error { return errBoom })

	if b.State() != Closed {
		t.Errorf("state = %v, want closed (failures not consecutive)", b.State())
	}
}

func TestRecoversThroughHalfOpen(t *testing.T) {
	b := New(1, 2, 10*time.Millisecond)

	b.Do(func() error { return errBoom })
	if b.State() != Open {
		t.Fatalf("state = %v, want open", b.State())
	}

	time.Sleep(20 * time.Millisecond)
	if b.State() != HalfOpen {
		t.Fatalf("state = %v, want half-open after cooldown", b.State())
	}

	b.Do(func() error { return nil })
	b.Do(func() error { return nil })
	if b.State() != Closed {
		t.Errorf("state = %v, want closed after probe successes", b.State())
	}
}

func TestHalfOpenFailureReopens(t *testing.T) {
	b := New(1, 2, 10*time.Millisecond)

	b.Do(func() error { return errBoom })
	time.Sleep(20 * time.Millisecond)

	b.Do(func() error { return errBoom })
	if b.State() != Open {
		t.Errorf("state = %v, want open after half-open failure", b.State())
	}
}
