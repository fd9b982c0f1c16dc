package state

import (
	"testing"
	"time"
)

func TestMemoryManagerLifecycle(t *testing.T) {
	m := NewMemoryManager(Options{})
	const user = int64(42)

	if m.InProgress(user) || m.GetState(user) != StateIdle {
		t.Fatal("new user must be idle")
	}

	m.SetState(user, "intake.brand")
	m.SetTemp(user, "k", "v")
	if !m.InProgress(user) {
		t.Fatal("expected session in progress")
	}
	if v, ok := m.GetTemp(user, "k"); !ok || v != "v" {
		t.Fatalf("GetTemp = %v, %v", v, ok)
	}

	snap := m.Get(user)
	snap.Data["k"] = "changed"
	if v, _ := m.GetTemp(user, "k"); v != "v" {
		t.Fatal("Get must return a copy")
	}

	m.Clear(user)
	if m.InProgress(user) {
		t.Fatal("Clear must reset the session")
	}
	if _, ok := m.GetTemp(user, "k"); ok {
		t.Fatal("Clear must drop temp data")
	}
}

func TestMemoryManagerExpiresIdleSessions(t *testing.T) {
	m := NewMemoryManager(Options{TTL: 100 * time.Millisecond})
	m.SetState(1, "intake.model")
	m.SetState(2, "intake.model")

	time.Sleep(60 * time.Millisecond)
	m.SetTemp(2, "touch", true)
	time.Sleep(60 * time.Millisecond)

	if m.InProgress(1) {
		t.Fatal("idle session must expire")
	}
	if !m.InProgress(2) {
		t.Fatal("mutation must refresh the idle window")
	}
}

func TestMemoryManagerTouchRenewsIdleWindow(t *testing.T) {
	m := NewMemoryManager(Options{TTL: 100 * time.Millisecond})
	m.SetState(1, "intake.year")

	for i := 0; i < 3; i++ {
		time.Sleep(50 * time.Millisecond)
		m.Touch(1)
	}
	if !m.InProgress(1) {
		t.Fatal("touched session must stay alive")
	}

	m.Touch(2)
	if m.InProgress(2) {
		t.Fatal("Touch must not create a session")
	}
}

func TestMemoryManagerUsersAreIndependent(t *testing.T) {
	m := NewMemoryManager(Options{})
	m.SetState(1, "intake.year")
	m.SetTemp(1, "x", 1)
	if m.InProgress(2) {
		t.Fatal("user 2 must not see user 1 state")
	}
	if _, ok := m.GetTemp(2, "x"); ok {
		t.Fatal("user 2 must not see user 1 data")
	}
}
