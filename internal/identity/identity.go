// Package identity defines the boundary to the external identity provider.
//
// The rest of the application only sees these interfaces; the concrete
// provider lives in the firebase subpackage and can be replaced by a fake
// in tests.
package identity

import (
	"context"
	"fmt"
)

// Identity is the authenticated user handle issued by the provider. It is
// opaque beyond token minting and basic profile fields.
type Identity interface {
	// UserID returns the provider-assigned user identifier.
	UserID() string
	// Email returns the address the user signed in with, if known.
	Email() string
	// Token returns a short-lived bearer token for the inventory API,
	// refreshing through the provider when the cached one is near expiry.
	Token(ctx context.Context) (string, error)
}

// Subscriber receives the current identity on every auth state change.
// It is called with nil when the user is signed out.
type Subscriber func(Identity)

// Provider is the subset of the identity provider the client consumes.
type Provider interface {
	// Subscribe registers fn for auth state change notifications and
	// returns an unsubscribe function. fn fires once the initial session
	// resolution completes and again on every subsequent change.
	Subscribe(fn Subscriber) (unsubscribe func())
	// SignIn authenticates with an email/password pair. The change stream,
	// not the return value, is the source of truth for the new identity.
	SignIn(ctx context.Context, email, password string) error
	// SignInWithBrowser runs the interactive provider flow in the user's
	// browser, the terminal equivalent of a sign-in popup.
	SignInWithBrowser(ctx context.Context) error
	// SignOut ends the provider session.
	SignOut(ctx context.Context) error
}

// AuthError reports a sign-in rejected by the provider: bad credentials,
// a cancelled browser flow, or a provider-side failure.
type AuthError struct {
	// Code is the provider error code, e.g. "INVALID_PASSWORD".
	Code string
	// Err is the underlying cause, if any.
	Err error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("auth: %s: %v", e.Code, e.Err)
	}
	return fmt.Sprintf("auth: %s", e.Code)
}

func (e *AuthError) Unwrap() error { return e.Err }
