package ratelimit

import (
	"testing"
	"time"
)

func newTestLimiter(start time.Time) (*Limiter, *time.Time) {
	now := start
	l := NewLimiter(DefaultLimit, DefaultWindow, nil)
	l.now = func() time.Time { return now }
	return l, &now
}

func TestLimiter_SixthCallDenied(t *testing.T) {
	l, _ := newTestLimiter(time.Unix(1000, 0))

	for i := 0; i < 5; i++ {
		if dec := l.Admit("10.0.0.1"); !dec.Allowed {
			t.Fatalf("call %d must be allowed", i+1)
		}
	}

	dec := l.Admit("10.0.0.1")
	if dec.Allowed {
		t.Fatal("sixth call within the window must be denied")
	}
	if dec.RetryAfter <= 0 || dec.RetryAfter > DefaultWindow {
		t.Fatalf("unexpected retry hint: %s", dec.RetryAfter)
	}
}

func TestLimiter_WindowReset(t *testing.T) {
	l, now := newTestLimiter(time.Unix(1000, 0))

	for i := 0; i < 5; i++ {
		if dec := l.Admit("10.0.0.1"); !dec.Allowed {
			t.Fatalf("call %d must be allowed", i+1)
		}
	}

	// Седьмой вызов на 61-й секунде открывает новое окно.
	*now = now.Add(61 * time.Second)
	if dec := l.Admit("10.0.0.1"); !dec.Allowed {
		t.Fatal("call after window expiry must be allowed")
	}

	// Новое окно снова пропускает ещё четыре вызова и отклоняет шестой.
	for i := 0; i < 4; i++ {
		if dec := l.Admit("10.0.0.1"); !dec.Allowed {
			t.Fatalf("call %d of the new window must be allowed", i+2)
		}
	}
	if dec := l.Admit("10.0.0.1"); dec.Allowed {
		t.Fatal("sixth call of the new window must be denied")
	}
}

func TestLimiter_AddressesAreIndependent(t *testing.T) {
	l, _ := newTestLimiter(time.Unix(1000, 0))

	for i := 0; i < 6; i++ {
		l.Admit("10.0.0.1")
	}

	if dec := l.Admit("10.0.0.2"); !dec.Allowed {
		t.Fatal("a different address must not be affected")
	}
}

func TestLimiter_DeniedCallsKeepCounting(t *testing.T) {
	l, _ := newTestLimiter(time.Unix(1000, 0))

	for i := 0; i < 10; i++ {
		l.Admit("10.0.0.1")
	}
	if dec := l.Admit("10.0.0.1"); dec.Allowed {
		t.Fatal("denied address must stay denied within the window")
	}
}

func TestLimiter_SweepBefore(t *testing.T) {
	l, now := newTestLimiter(time.Unix(1000, 0))

	l.Admit("10.0.0.1")
	*now = now.Add(10 * time.Second)
	l.Admit("10.0.0.2")

	if l.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", l.Len())
	}

	deleted := l.SweepBefore(time.Unix(1000, 0).Add(5 * time.Second))
	if deleted != 1 {
		t.Fatalf("expected 1 evicted entry, got %d", deleted)
	}
	if l.Len() != 1 {
		t.Fatalf("expected 1 remaining entry, got %d", l.Len())
	}

	// Удаление записи не меняет семантику: адрес просто открывает новое окно.
	if dec := l.Admit("10.0.0.1"); !dec.Allowed {
		t.Fatal("swept address must be admitted again")
	}
}

func TestSweeper_EvictsStaleEntries(t *testing.T) {
	l, now := newTestLimiter(time.Unix(1000, 0))
	l.Admit("10.0.0.1")

	s := NewSweeper(l, WithRetainWindows(3), WithInterval(time.Minute))

	// Окно началось меньше трёх окон назад: запись остаётся.
	s.sweep(now.Add(2 * DefaultWindow))
	if l.Len() != 1 {
		t.Fatalf("entry evicted too early, len=%d", l.Len())
	}

	s.sweep(now.Add(4 * DefaultWindow))
	if l.Len() != 0 {
		t.Fatalf("expected stale entry to be evicted, len=%d", l.Len())
	}
}
