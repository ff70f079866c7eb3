// Package session owns the provider login state: a cookie map persisted
// across restarts plus an observable logged-in flag. It replaces the
// process-wide mutable login globals of earlier designs with one explicit
// object handed to the components that need it.
package session

import (
	"context"
	"fmt"
	"sync"

	"unifm/logger"
)

// loginCookie is the provider cookie whose presence means "authenticated".
const loginCookie = "MUSIC_U"

// KV is the persistence boundary for the cookie map. The production
// implementation sits on Redis; tests use an in-memory map.
type KV interface {
	GetAll(ctx context.Context) (map[string]string, error)
	SetAll(ctx context.Context, values map[string]string) error
	Delete(ctx context.Context) error
}

// State is a snapshot of the provider session.
type State struct {
	LoggedIn bool
}

// Store holds the provider session. All methods are safe for concurrent use.
type Store struct {
	kv KV

	mu       sync.RWMutex
	cookies  map[string]string
	loggedIn bool
	watchers []chan State
}

// NewStore creates a session store over the given persistence.
func NewStore(kv KV) *Store {
	return &Store{
		kv:      kv,
		cookies: make(map[string]string),
	}
}

// Load restores persisted cookies. Call once at startup, before the
// provider client issues its first request.
func (s *Store) Load(ctx context.Context) error {
	cookies, err := s.kv.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to load session cookies: %w", err)
	}

	s.mu.Lock()
	s.cookies = cookies
	s.loggedIn = cookies[loginCookie] != ""
	state := State{LoggedIn: s.loggedIn}
	s.mu.Unlock()

	logger.Info("Provider session restored", logger.Bool("loggedIn", state.LoggedIn))
	s.notify(state)
	return nil
}

// SetCookies replaces the cookie map and persists it.
func (s *Store) SetCookies(ctx context.Context, cookies map[string]string) error {
	if err := s.kv.SetAll(ctx, cookies); err != nil {
		return fmt.Errorf("failed to persist session cookies: %w", err)
	}

	s.mu.Lock()
	s.cookies = make(map[string]string, len(cookies))
	for k, v := range cookies {
		s.cookies[k] = v
	}
	s.loggedIn = cookies[loginCookie] != ""
	state := State{LoggedIn: s.loggedIn}
	s.mu.Unlock()

	s.notify(state)
	return nil
}

// Logout wipes the session, persisted copy included.
func (s *Store) Logout(ctx context.Context) error {
	if err := s.kv.Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete session cookies: %w", err)
	}

	s.mu.Lock()
	s.cookies = make(map[string]string)
	s.loggedIn = false
	s.mu.Unlock()

	s.notify(State{LoggedIn: false})
	return nil
}

// Cookies returns a copy of the current cookie map.
func (s *Store) Cookies() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]string, len(s.cookies))
	for k, v := range s.cookies {
		out[k] = v
	}
	return out
}

// LoggedIn reports whether a provider session is present.
func (s *Store) LoggedIn() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loggedIn
}

// Watch returns a channel receiving session state changes. The channel is
// buffered; a slow consumer drops updates rather than blocking the store.
func (s *Store) Watch() <-chan State {
	ch := make(chan State, 4)
	s.mu.Lock()
	s.watchers = append(s.watchers, ch)
	s.mu.Unlock()
	return ch
}

func (s *Store) notify(state State) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, ch := range s.watchers {
		select {
		case ch <- state:
		default:
		}
	}
}
