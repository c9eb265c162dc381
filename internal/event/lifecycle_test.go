package event

import (
	"testing"
	"time"

	"github.com/benbjohnson/clock"
)

func TestBus_DestroyedOwnerSkipped(t *testing.T) {
	b := New()
	owner := NewScope()

	calls := 0
	other := 0
	b.On("tick", func(*Event) error { calls++; return nil }, WithOwner(owner))
	b.On("tick", func(*Event) error { other++; return nil }, WithPriority(-1))

	b.Trigger("tick", nil)
	if calls != 1 || other != 1 {
		t.Fatalf("expected both listeners to run, got %d/%d", calls, other)
	}

	owner.Destroy()
	b.Trigger("tick", nil)
	if calls != 1 {
		t.Error("listener with destroyed owner must be skipped")
	}
	if other != 2 {
		t.Error("unrelated listener should keep running")
	}
}

func TestBus_OwnerDestroyDetaches(t *testing.T) {
	b := New()
	owner := NewScope()

	b.On("open", func(*Event) error { return nil }, WithOwner(owner))
	b.On("close", func(*Event) error { return nil }, WithOwner(owner))

	owner.Destroy()
	if b.HasListener("open") || b.HasListener("close") {
		t.Error("owner destruction should remove all of its listeners")
	}
}

func TestBus_OwnerDestroyedMidDispatch(t *testing.T) {
	b := New()
	owner := NewScope()

	ran := false
	b.On("tick", func(*Event) error {
		owner.Destroy()
		return nil
	}, WithPriority(10))
	b.On("tick", func(*Event) error {
		ran = true
		return nil
	}, WithOwner(owner))

	if _, err := b.Trigger("tick", nil); err != nil {
		t.Fatalf("Trigger() failed: %v", err)
	}
	if ran {
		t.Error("listener whose owner died mid-dispatch must be skipped")
	}
}

func TestBus_ExpiresRemovesListener(t *testing.T) {
	mock := clock.NewMock()
	b := New(WithClock(mock))

	expired := false
	b.On("tick", func(*Event) error { return nil },
		WithExpires(time.Minute, func() { expired = true }))

	mock.Add(2 * time.Minute)
	if b.HasListener("tick") {
		t.Error("expired listener should be removed")
	}
	if !expired {
		t.Error("expiry callback should run for a never-invoked listener")
	}
}

func TestBus_ExpiresSkippedWhenInvoked(t *testing.T) {
	mock := clock.NewMock()
	b := New(WithClock(mock))

	calls := 0
	expired := false
	b.On("tick", func(*Event) error { calls++; return nil },
		WithExpires(time.Minute, func() { expired = true }))

	b.Trigger("tick", nil)
	mock.Add(2 * time.Minute)

	if calls != 1 {
		t.Fatalf("expected one invocation, got %d", calls)
	}
	if expired {
		t.Error("expiry callback must not run after the listener fired")
	}
	// Invocation keeps the listener registered; expiry only removes
	// listeners that never fired.
	if !b.HasListener("tick") {
		t.Error("invoked listener should survive its expiry timer")
	}
}

func TestBus_DetachStopsExpiryTimer(t *testing.T) {
	mock := clock.NewMock()
	b := New(WithClock(mock))

	expired := false
	detach, _ := b.On("tick", func(*Event) error { return nil },
		WithExpires(time.Minute, func() { expired = true }))

	detach()
	mock.Add(2 * time.Minute)
	if expired {
		t.Error("expiry callback ran after explicit detach")
	}
}
