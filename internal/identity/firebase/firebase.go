// Package firebase implements identity.Provider on top of the Firebase
// Identity Toolkit REST API: password sign-in, Google sign-in through a
// browser, secure-token refresh and on-disk session persistence.
package firebase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/inventorypro/invctl/internal/identity"
)

const (
	defaultIdentityURL = "https://identitytoolkit.googleapis.com/v1"
	defaultTokenURL    = "https://securetoken.googleapis.com/v1"

	// Tokens within this window of expiry are refreshed before use.
	refreshSkew = 5 * time.Minute
)

// Config carries the provider settings. Only APIKey and SessionFile are
// required; URL and client overrides exist for tests.
type Config struct {
	APIKey      string
	SessionFile string
	OAuth       *GoogleOAuth // nil disables browser sign-in
	IdentityURL string
	TokenURL    string
	HTTPClient  *http.Client
	Logger      *zap.Logger
}

// Provider talks to the Firebase REST endpoints and fans auth state
// changes out to subscribers.
type Provider struct {
	apiKey      string
	sessionFile string
	oauth       *GoogleOAuth
	identityURL string
	tokenURL    string
	client      *http.Client
	log         *zap.Logger

	resolveOnce sync.Once

	mu       sync.Mutex
	current  *user
	resolved bool
	subs     map[int]identity.Subscriber
	nextSub  int
}

// New constructs a Provider from cfg, filling in production defaults.
func New(cfg Config) *Provider {
	p := &Provider{
		apiKey:      cfg.APIKey,
		sessionFile: cfg.SessionFile,
		oauth:       cfg.OAuth,
		identityURL: cfg.IdentityURL,
		tokenURL:    cfg.TokenURL,
		client:      cfg.HTTPClient,
		log:         cfg.Logger,
		subs:        make(map[int]identity.Subscriber),
	}
	if p.identityURL == "" {
		p.identityURL = defaultIdentityURL
	}
	if p.tokenURL == "" {
		p.tokenURL = defaultTokenURL
	}
	if p.client == nil {
		p.client = &http.Client{Timeout: 10 * time.Second}
	}
	if p.log == nil {
		p.log = zap.NewNop()
	}
	return p
}

// Subscribe registers fn for auth state changes. The first subscription
// kicks off session resolution from the persisted refresh token; until it
// completes no notification is delivered. If resolution has already
// completed, fn is called immediately with the current state.
func (p *Provider) Subscribe(fn identity.Subscriber) func() {
	p.mu.Lock()
	id := p.nextSub
	p.nextSub++
	p.subs[id] = fn
	resolved := p.resolved
	current := p.current
	p.mu.Unlock()

	if resolved {
		fn(asIdentity(current))
	}
	p.resolveOnce.Do(func() { go p.resolve() })

	return func() {
		p.mu.Lock()
		delete(p.subs, id)
		p.mu.Unlock()
	}
}

// resolve restores the persisted session, if any, then delivers the first
// notification.
func (p *Provider) resolve() {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	var restored *user
	if sess, err := p.loadSession(); err == nil && sess.RefreshToken != "" {
		u := &user{p: p, localID: sess.LocalID, email: sess.Email, refreshToken: sess.RefreshToken}
		if err := u.refresh(ctx); err != nil {
			p.log.Warn("stored session could not be refreshed", zap.Error(err))
		} else {
			restored = u
		}
	}

	p.mu.Lock()
	if p.resolved {
		// A sign-in or sign-out completed while we were restoring; that
		// state is newer than the persisted one.
		p.mu.Unlock()
		return
	}
	p.current = restored
	p.resolved = true
	p.mu.Unlock()
	p.notify()
}

// SignIn authenticates with email and password. A rejection by the
// provider is returned as *identity.AuthError.
func (p *Provider) SignIn(ctx context.Context, email, password string) error {
	body := map[string]any{"email": email, "password": password, "returnSecureToken": true}
	var resp tokenResponse
	if err := p.post(ctx, p.identityURL+"/accounts:signInWithPassword", body, &resp); err != nil {
		return err
	}
	p.setUser(resp)
	return nil
}

// SignInWithBrowser runs the Google OAuth flow in the user's browser and
// exchanges the resulting Google credential for a Firebase session.
func (p *Provider) SignInWithBrowser(ctx context.Context) error {
	if p.oauth == nil {
		return &identity.AuthError{Code: "OPERATION_NOT_ALLOWED", Err: errors.New("browser sign-in not configured")}
	}
	googleToken, err := p.oauth.IDToken(ctx)
	if err != nil {
		return err
	}
	body := map[string]any{
		"postBody":          "id_token=" + url.QueryEscape(googleToken) + "&providerId=google.com",
		"requestUri":        "http://127.0.0.1",
		"returnSecureToken": true,
	}
	var resp tokenResponse
	if err := p.post(ctx, p.identityURL+"/accounts:signInWithIdp", body, &resp); err != nil {
		return err
	}
	p.setUser(resp)
	return nil
}

// SignOut drops the provider session and the persisted refresh token.
func (p *Provider) SignOut(ctx context.Context) error {
	if p.sessionFile != "" {
		if err := os.Remove(p.sessionFile); err != nil && !os.IsNotExist(err) {
			p.log.Warn("failed to remove session file", zap.Error(err))
		}
	}
	p.mu.Lock()
	p.current = nil
	p.resolved = true
	p.mu.Unlock()
	p.notify()
	return nil
}

func (p *Provider) setUser(resp tokenResponse) {
	expires, _ := strconv.Atoi(resp.ExpiresIn)
	u := &user{
		p:            p,
		localID:      resp.LocalID,
		email:        resp.Email,
		idToken:      resp.IDToken,
		refreshToken: resp.RefreshToken,
		expiresAt:    time.Now().Add(time.Duration(expires) * time.Second),
	}
	if err := p.saveSession(u); err != nil {
		p.log.Warn("failed to persist session", zap.Error(err))
	}

	p.mu.Lock()
	p.current = u
	p.resolved = true
	p.mu.Unlock()
	p.notify()
}

func (p *Provider) notify() {
	p.mu.Lock()
	current := p.current
	subs := make([]identity.Subscriber, 0, len(p.subs))
	for _, fn := range p.subs {
		subs = append(subs, fn)
	}
	p.mu.Unlock()

	for _, fn := range subs {
		fn(asIdentity(current))
	}
}

// asIdentity converts a possibly-nil *user to the interface without
// producing a non-nil interface around a nil pointer.
func asIdentity(u *user) identity.Identity {
	if u == nil {
		return nil
	}
	return u
}

// tokenResponse covers both signInWithPassword and signInWithIdp replies.
type tokenResponse struct {
	IDToken      string `json:"idToken"`
	Email        string `json:"email"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    string `json:"expiresIn"`
	LocalID      string `json:"localId"`
}

// post sends a JSON request to an Identity Toolkit endpoint and decodes
// the reply, translating provider rejections into *identity.AuthError.
func (p *Provider) post(ctx context.Context, endpoint string, body, out any) error {
	b, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint+"?key="+url.QueryEscape(p.apiKey), bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return &identity.AuthError{Code: "NETWORK_ERROR", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &identity.AuthError{Code: providerCode(resp.Body)}
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// providerCode extracts the error code from an Identity Toolkit error
// body, e.g. {"error":{"message":"INVALID_PASSWORD"}}.
func providerCode(r io.Reader) string {
	var body struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(r).Decode(&body); err != nil || body.Error.Message == "" {
		return "UNKNOWN"
	}
	return body.Error.Message
}

// session is the on-disk persisted state, enough to restore a sign-in.
type session struct {
	RefreshToken string `json:"refresh_token"`
	LocalID      string `json:"local_id"`
	Email        string `json:"email"`
}

func (p *Provider) loadSession() (session, error) {
	var s session
	if p.sessionFile == "" {
		return s, os.ErrNotExist
	}
	data, err := os.ReadFile(p.sessionFile)
	if err != nil {
		return s, err
	}
	err = json.Unmarshal(data, &s)
	return s, err
}

func (p *Provider) saveSession(u *user) error {
	if p.sessionFile == "" {
		return nil
	}
	data, err := json.Marshal(session{RefreshToken: u.refreshToken, LocalID: u.localID, Email: u.email})
	if err != nil {
		return err
	}
	return os.WriteFile(p.sessionFile, data, 0600)
}

// user implements identity.Identity for a Firebase account.
type user struct {
	p       *Provider
	localID string
	email   string

	mu           sync.Mutex
	idToken      string
	refreshToken string
	expiresAt    time.Time
}

func (u *user) UserID() string { return u.localID }
func (u *user) Email() string  { return u.email }

// Token returns the cached ID token, refreshing it through the secure
// token endpoint when it is within refreshSkew of expiry.
func (u *user) Token(ctx context.Context) (string, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.idToken != "" && time.Until(u.expiresAt) > refreshSkew {
		return u.idToken, nil
	}
	if err := u.refreshLocked(ctx); err != nil {
		return "", err
	}
	return u.idToken, nil
}

func (u *user) refresh(ctx context.Context) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.refreshLocked(ctx)
}

func (u *user) refreshLocked(ctx context.Context) error {
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", u.refreshToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		u.p.tokenURL+"/token?key="+url.QueryEscape(u.p.apiKey), strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := u.p.client.Do(req)
	if err != nil {
		return fmt.Errorf("token refresh failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &identity.AuthError{Code: providerCode(resp.Body)}
	}

	var body struct {
		IDToken      string `json:"id_token"`
		RefreshToken string `json:"refresh_token"`
		ExpiresIn    string `json:"expires_in"`
		UserID       string `json:"user_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Errorf("invalid token response: %w", err)
	}

	expires, _ := strconv.Atoi(body.ExpiresIn)
	u.idToken = body.IDToken
	u.expiresAt = time.Now().Add(time.Duration(expires) * time.Second)
	if body.UserID != "" {
		u.localID = body.UserID
	}
	if body.RefreshToken != "" && body.RefreshToken != u.refreshToken {
		// The provider may rotate refresh tokens; keep the session file current.
		u.refreshToken = body.RefreshToken
		if err := u.p.saveSession(u); err != nil {
			u.p.log.Warn("failed to persist rotated refresh token", zap.Error(err))
		}
	}
	return nil
}
