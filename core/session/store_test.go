package session

import (
	"context"
	"testing"
)

type mapKV struct {
	values map[string]string
}

func newMapKV() *mapKV {
	return &mapKV{values: make(map[string]string)}
}

func (m *mapKV) GetAll(ctx context.Context) (map[string]string, error) {
	out := make(map[string]string, len(m.values))
	for k, v := range m.values {
		out[k] = v
	}
	return out, nil
}

func (m *mapKV) SetAll(ctx context.Context, values map[string]string) error {
	m.values = make(map[string]string, len(values))
	for k, v := range values {
		m.values[k] = v
	}
	return nil
}

func (m *mapKV) Delete(ctx context.Context) error {
	m.values = make(map[string]string)
	return nil
}

func TestStoreLoginLifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewStore(newMapKV())

	if store.LoggedIn() {
		t.Fatal("fresh store must not be logged in")
	}

	if err := store.SetCookies(ctx, map[string]string{"MUSIC_U": "tok", "os": "pc"}); err != nil {
		t.Fatalf("SetCookies: %v", err)
	}
	if !store.LoggedIn() {
		t.Fatal("expected logged-in after MUSIC_U cookie set")
	}

	if err := store.Logout(ctx); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if store.LoggedIn() {
		t.Fatal("expected logged-out after Logout")
	}
	if len(store.Cookies()) != 0 {
		t.Fatal("cookies must be cleared on logout")
	}
}

func TestStoreSurvivesRestart(t *testing.T) {
	ctx := context.Background()
	kv := newMapKV()

	first := NewStore(kv)
	if err := first.SetCookies(ctx, map[string]string{"MUSIC_U": "tok"}); err != nil {
		t.Fatalf("SetCookies: %v", err)
	}

	// A new store over the same persistence stands in for a process restart.
	second := NewStore(kv)
	if err := second.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !second.LoggedIn() {
		t.Fatal("session must survive restart")
	}
	if second.Cookies()["MUSIC_U"] != "tok" {
		t.Fatal("persisted cookie missing after reload")
	}
}

func TestStoreWatchObservesChanges(t *testing.T) {
	ctx := context.Background()
	store := NewStore(newMapKV())
	ch := store.Watch()

	if err := store.SetCookies(ctx, map[string]string{"MUSIC_U": "tok"}); err != nil {
		t.Fatalf("SetCookies: %v", err)
	}

	select {
	case state := <-ch:
		if !state.LoggedIn {
			t.Fatal("expected logged-in state notification")
		}
	default:
		t.Fatal("expected a buffered state notification")
	}
}

func TestCookiesReturnsCopy(t *testing.T) {
	ctx := context.Background()
	store := NewStore(newMapKV())
	if err := store.SetCookies(ctx, map[string]string{"MUSIC_U": "tok"}); err != nil {
		t.Fatalf("SetCookies: %v", err)
	}

	got := store.Cookies()
	got["MUSIC_U"] = "mutated"
	if store.Cookies()["MUSIC_U"] != "tok" {
		t.Fatal("Cookies must return a defensive copy")
	}
}
