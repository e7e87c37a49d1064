// Package session owns the client-side authentication state: the session
// store that mirrors the identity provider's change stream, and the auth
// gate that decides which view may render.
package session

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/inventorypro/invctl/internal/identity"
)

// ErrNoSession is returned by CurrentToken when no identity is resolved.
var ErrNoSession = errors.New("no active session")

// State is a snapshot of the store: the current identity (nil when signed
// out) and whether the initial provider resolution is still pending.
type State struct {
	Identity identity.Identity
	Loading  bool
}

// Store holds the current authentication identity and loading flag. It
// subscribes to the provider's change stream exactly once for the lifetime
// of the process and fans state changes out to its own observers.
type Store struct {
	provider identity.Provider
	log      *zap.Logger

	initOnce  sync.Once
	closeOnce sync.Once

	mu        sync.Mutex
	identity  identity.Identity
	loading   bool
	observers []func(State)
	unsub     func()
}

// NewStore creates a Store in the loading state. Observers registered via
// OnChange before Initialize see every notification.
func NewStore(provider identity.Provider, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{provider: provider, log: log, loading: true}
}

// OnChange registers an observer called after every provider notification.
func (s *Store) OnChange(fn func(State)) {
	s.mu.Lock()
	s.observers = append(s.observers, fn)
	s.mu.Unlock()
}

// Initialize subscribes to the provider's change stream. Calling it more
// than once has no effect; the single subscription is released by Close.
func (s *Store) Initialize() {
	s.initOnce.Do(func() {
		unsub := s.provider.Subscribe(s.onAuthChange)
		s.mu.Lock()
		s.unsub = unsub
		s.mu.Unlock()
	})
}

// Close releases the provider subscription exactly once.
func (s *Store) Close() {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		unsub := s.unsub
		s.unsub = nil
		s.mu.Unlock()
		if unsub != nil {
			unsub()
		}
	})
}

// State returns the current snapshot.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return State{Identity: s.identity, Loading: s.loading}
}

// Login authenticates with an email/password pair. On success the
// provider's change stream, not this call, updates the stored identity.
func (s *Store) Login(ctx context.Context, email, password string) error {
	if err := s.provider.SignIn(ctx, email, password); err != nil {
		s.log.Info("sign-in rejected", zap.Error(err))
		return err
	}
	return nil
}

// LoginWithBrowser runs the provider's interactive flow.
func (s *Store) LoginWithBrowser(ctx context.Context) error {
	if err := s.provider.SignInWithBrowser(ctx); err != nil {
		s.log.Info("browser sign-in failed", zap.Error(err))
		return err
	}
	return nil
}

// Logout clears the local identity before awaiting provider confirmation.
// Logout is terminal, so the brief window where local state reports
// signed-out ahead of the provider is acceptable.
func (s *Store) Logout(ctx context.Context) error {
	s.onAuthChange(nil)
	return s.provider.SignOut(ctx)
}

// CurrentToken mints a fresh bearer token for the current identity. It
// fails with ErrNoSession while loading or signed out.
func (s *Store) CurrentToken(ctx context.Context) (string, error) {
	s.mu.Lock()
	id := s.identity
	loading := s.loading
	s.mu.Unlock()
	if loading || id == nil {
		return "", ErrNoSession
	}
	return id.Token(ctx)
}

func (s *Store) onAuthChange(id identity.Identity) {
	s.mu.Lock()
	s.identity = id
	s.loading = false
	state := State{Identity: id, Loading: false}
	observers := make([]func(State), len(s.observers))
	copy(observers, s.observers)
	s.mu.Unlock()

	s.log.Debug("auth state changed", zap.Bool("signed_in", id != nil))
	for _, fn := range observers {
		fn(state)
	}
}
