package session

import (
	"testing"
)

func TestInMemoryStore_GetSetSession(t *testing.T) {
	store := NewInMemoryStore()

	_, ok := store.GetSession(SessionID("s1"))
	if ok {
		t.Error("expected not found for empty store")
	}

	st := &SessionState{ID: SessionID("s1")}
	store.SetSession(st)

	got, ok := store.GetSession(SessionID("s1"))
	if !ok || got != st {
		t.Errorf("GetSession: ok=%v, got %p want %p", ok, got, st)
	}
	if n := len(store.ListSessions()); n != 1 {
		t.Errorf("ListSessions: got %d", n)
	}
}

func TestInMemoryStore_SetSession_replaces(t *testing.T) {
	store := NewInMemoryStore()
	st1 := &SessionState{ID: SessionID("s1")}
	st2 := &SessionState{ID: SessionID("s1")}
	store.SetSession(st1)
	store.SetSession(st2)

	got, ok := store.GetSession(SessionID("s1"))
	if !ok || got != st2 {
		t.Errorf("SetSession should replace: got %p want %p", got, st2)
	}
}

func TestLRUStore_evictsLeastRecentlyUsed(t *testing.T) {
	store, err := NewLRUStore(2)
	if err != nil {
		t.Fatalf("NewLRUStore: %v", err)
	}
	store.SetSession(&SessionState{ID: "a"})
	store.SetSession(&SessionState{ID: "b"})

	// touch a so b becomes the eviction candidate
	if _, ok := store.GetSession("a"); !ok {
		t.Fatal("a should be present")
	}
	store.SetSession(&SessionState{ID: "c"})

	if _, ok := store.GetSession("b"); ok {
		t.Error("b should have been evicted")
	}
	if _, ok := store.GetSession("a"); !ok {
		t.Error("a should survive")
	}
	if n := len(store.ListSessions()); n != 2 {
		t.Errorf("expected 2 sessions, got %d", n)
	}
}

func TestNewLRUStore_invalidSize(t *testing.T) {
	if _, err := NewLRUStore(0); err == nil {
		t.Error("expected error for zero size")
	}
}

func TestNewInMemoryRepositoryWithStore(t *testing.T) {
	store := NewInMemoryStore()
	repo := NewInMemoryRepositoryWithStore(store)

	st := newTestState(t, "s1")
	if err := repo.CreateSession(st); err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	got, ok := store.GetSession(SessionID("s1"))
	if !ok || got != st {
		t.Error("injected store should contain session after CreateSession")
	}
}
