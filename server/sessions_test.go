package server

import (
	"testing"
	"time"

	"github.com/chazu/semigrafx/programs"
	"github.com/chazu/semigrafx/vm"
)

func startedHost(t *testing.T) *vm.Host {
	t.Helper()
	h := vm.NewHost(programs.Paint)
	if err := h.Start(); err != nil {
		t.Fatal(err)
	}
	return h
}

func TestSessionStoreLifecycle(t *testing.T) {
	w := NewWorker()
	defer w.Stop()
	store := NewSessionStore(w)

	h := startedHost(t)
	s1 := store.Create("one", "paint", h)
	s2 := store.Create("two", "paint", startedHost(t))
	if s1.ID == s2.ID {
		t.Fatalf("session ids collide: %s", s1.ID)
	}
	if s1.ID != "s-1" {
		t.Errorf("first id = %q, want s-1", s1.ID)
	}
	if store.Len() != 2 {
		t.Errorf("Len = %d, want 2", store.Len())
	}

	got, ok := store.Get(s1.ID)
	if !ok || got != s1 {
		t.Fatal("Get should return the created session")
	}

	if !store.Destroy(s1.ID) {
		t.Error("Destroy should report the session existed")
	}
	if store.Destroy(s1.ID) {
		t.Error("second Destroy should report nothing removed")
	}
	if h.State() != vm.Terminated {
		t.Errorf("host state after Destroy = %s, want terminated", h.State())
	}
	if ids := store.IDs(); len(ids) != 1 || ids[0] != s2.ID {
		t.Errorf("IDs = %v, want [%s]", ids, s2.ID)
	}
}

func TestSessionStoreSweep(t *testing.T) {
	w := NewWorker()
	defer w.Stop()
	store := NewSessionStore(w)

	idle := store.Create("idle", "paint", startedHost(t))
	busy := store.Create("busy", "paint", startedHost(t))

	idle.lastUsed = time.Now().Add(-time.Hour)
	if n := store.Sweep(time.Minute); n != 1 {
		t.Errorf("Sweep removed %d, want 1", n)
	}
	if _, ok := store.Get(idle.ID); ok {
		t.Error("idle session should be swept")
	}
	if _, ok := store.Get(busy.ID); !ok {
		t.Error("busy session should survive")
	}
	if idle.host.State() != vm.Terminated {
		t.Error("swept session should be torn down")
	}
}

func TestSessionStoreSweeper(t *testing.T) {
	w := NewWorker()
	defer w.Stop()
	store := NewSessionStore(w)

	s := store.Create("idle", "paint", startedHost(t))
	store.mu.Lock()
	s.lastUsed = time.Now().Add(-time.Hour)
	store.mu.Unlock()

	stop := store.StartSweeper(10*time.Millisecond, time.Minute)
	defer stop()

	deadline := time.Now().Add(2 * time.Second)
	for store.Len() > 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if store.Len() != 0 {
		t.Error("sweeper did not remove the idle session")
	}
	stop()
}
