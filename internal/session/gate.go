package session

import (
	"sync"

	"go.uber.org/zap"
)

// GateState enumerates the auth gate's three states.
type GateState int

const (
	// Resolving means no provider notification has been received yet.
	Resolving GateState = iota
	// Unauthenticated means resolution finished with no identity.
	Unauthenticated
	// Authenticated means resolution finished with an identity.
	Authenticated
)

func (g GateState) String() string {
	switch g {
	case Resolving:
		return "resolving"
	case Unauthenticated:
		return "unauthenticated"
	case Authenticated:
		return "authenticated"
	}
	return "unknown"
}

// Gate guards the inventory view behind the session store. While
// Resolving it allows no navigation and no data fetch. Every transition
// into Unauthenticated triggers exactly one navigation to the login view,
// including the loss of an established session, not just the initial
// resolution. Every transition into Authenticated mounts the inventory
// view, which performs its own initial fetch.
type Gate struct {
	log             *zap.Logger
	onLogin         func()
	onAuthenticated func()

	mu    sync.Mutex
	state GateState
}

// NewGate registers the gate on the store's change stream. onLogin and
// onAuthenticated are invoked outside the gate's lock, once per transition
// into the corresponding state.
func NewGate(store *Store, log *zap.Logger, onLogin, onAuthenticated func()) *Gate {
	if log == nil {
		log = zap.NewNop()
	}
	g := &Gate{log: log, onLogin: onLogin, onAuthenticated: onAuthenticated, state: Resolving}
	store.OnChange(g.observe)
	return g
}

// State returns the gate's current state. The waiting indicator is shown
// if and only if this reports Resolving.
func (g *Gate) State() GateState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

func (g *Gate) observe(st State) {
	next := Unauthenticated
	if st.Identity != nil {
		next = Authenticated
	}

	g.mu.Lock()
	if next == g.state {
		// Repeated notifications with the same outcome are not transitions.
		g.mu.Unlock()
		return
	}
	prev := g.state
	g.state = next
	g.mu.Unlock()

	g.log.Info("auth gate transition", zap.Stringer("from", prev), zap.Stringer("to", next))
	switch next {
	case Unauthenticated:
		if g.onLogin != nil {
			g.onLogin()
		}
	case Authenticated:
		if g.onAuthenticated != nil {
			g.onAuthenticated()
		}
	}
}
