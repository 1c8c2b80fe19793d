package cache

import (
	stderrors "errors"
	"testing"
	"time"
)

var errBoom = stderrors.New("boom")

func TestCircuitBreakerOpensAndRecovers(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cb := NewCircuitBreaker("test", 2, time.Minute, nil)
	cb.now = func() time.Time { return now }

	fail := func() error { return errBoom }
	ok := func() error { return nil }

	_ = cb.Call(fail)
	if cb.GetState() != StateClosed {
		t.Fatal("breaker opened too early")
	}
	_ = cb.Call(fail)
	if cb.GetState() != StateOpen {
		t.Fatal("breaker should be open after two failures")
	}

	called := false
	err := cb.Call(func() error { called = true; return nil })
	if !stderrors.Is(err, ErrBreakerOpen) || called {
		t.Fatalf("open breaker must short-circuit, err = %v", err)
	}

	now = now.Add(time.Minute)
	if err := cb.Call(ok); err != nil {
		t.Fatalf("half-open probe failed: %v", err)
	}
	if cb.GetState() != StateClosed {
		t.Fatalf("state = %s, want closed", cb.GetState())
	}
}

func TestCircuitBreakerIgnoresNonFailures(t *testing.T) {
	notFound := stderrors.New("not found")
	cb := NewCircuitBreaker("test", 1, time.Minute, func(err error) bool {
		return !stderrors.Is(err, notFound)
	})

	for i := 0; i < 3; i++ {
		_ = cb.Call(func() error { return notFound })
	}
	if cb.GetState() != StateClosed {
		t.Fatal("not-found results must not open the breaker")
	}
}

func TestCircuitBreakerHalfOpenFailureReopens(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cb := NewCircuitBreaker("test", 1, time.Second, nil)
	cb.now = func() time.Time { return now }

	_ = cb.Call(func() error { return errBoom })
	now = now.Add(time.Second)
	_ = cb.Call(func() error { return errBoom })

	if cb.GetState() != StateOpen {
		t.Fatalf("state = %s, want open", cb.GetState())
	}
}
