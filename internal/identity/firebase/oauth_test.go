package firebase

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/inventorypro/invctl/internal/identity"
)

// newTestOAuth wires a GoogleOAuth whose "browser" is the given function.
// The function receives the redirect URI and the state from the consent URL
// and simulates the user's trip through consent.
func newTestOAuth(t *testing.T, tokenSrv *httptest.Server, visit func(redirectURI, state string)) *GoogleOAuth {
	t.Helper()
	g := &GoogleOAuth{
		clientID:     "client",
		clientSecret: "secret",
		authURL:      "https://accounts.example.com/auth",
		tokenURL:     "https://oauth.example.com/token",
		httpClient:   http.DefaultClient,
	}
	if tokenSrv != nil {
		g.tokenURL = tokenSrv.URL
	}
	g.openBrowser = func(consent string) error {
		u, err := url.Parse(consent)
		if err != nil {
			t.Errorf("bad consent url: %v", err)
			return err
		}
		q := u.Query()
		go visit(q.Get("redirect_uri"), q.Get("state"))
		return nil
	}
	return g
}

func TestGoogleOAuth_Success(t *testing.T) {
	tokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		if r.PostForm.Get("code") != "auth-code" {
			t.Errorf("code = %q; want auth-code", r.PostForm.Get("code"))
		}
		if r.PostForm.Get("grant_type") != "authorization_code" {
			t.Errorf("grant_type = %q", r.PostForm.Get("grant_type"))
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"id_token": "g-token"})
	}))
	defer tokenSrv.Close()

	g := newTestOAuth(t, tokenSrv, func(redirectURI, state string) {
		_, _ = http.Get(redirectURI + "?state=" + url.QueryEscape(state) + "&code=auth-code")
	})

	token, err := g.IDToken(context.Background())
	if err != nil {
		t.Fatalf("IDToken: %v", err)
	}
	if token != "g-token" {
		t.Errorf("token = %q; want g-token", token)
	}
}

func TestGoogleOAuth_UserCancels(t *testing.T) {
	g := newTestOAuth(t, nil, func(redirectURI, state string) {
		_, _ = http.Get(redirectURI + "?state=" + url.QueryEscape(state) + "&error=access_denied")
	})

	_, err := g.IDToken(context.Background())
	var authErr *identity.AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected AuthError, got %v", err)
	}
	if authErr.Code != "POPUP_CLOSED_BY_USER" {
		t.Errorf("code = %q; want POPUP_CLOSED_BY_USER", authErr.Code)
	}
}

func TestGoogleOAuth_StateMismatch(t *testing.T) {
	g := newTestOAuth(t, nil, func(redirectURI, _ string) {
		_, _ = http.Get(redirectURI + "?state=forged&code=auth-code")
	})

	_, err := g.IDToken(context.Background())
	var authErr *identity.AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected AuthError, got %v", err)
	}
	if authErr.Code != "STATE_MISMATCH" {
		t.Errorf("code = %q; want STATE_MISMATCH", authErr.Code)
	}
}

func TestGoogleOAuth_BrowserFailsToOpen(t *testing.T) {
	g := newTestOAuth(t, nil, func(string, string) {})
	g.openBrowser = func(string) error { return errors.New("no display") }

	_, err := g.IDToken(context.Background())
	var authErr *identity.AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected AuthError, got %v", err)
	}
	if authErr.Code != "POPUP_BLOCKED" {
		t.Errorf("code = %q; want POPUP_BLOCKED", authErr.Code)
	}
}

func TestGoogleOAuth_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	g := newTestOAuth(t, nil, func(string, string) {
		// The user never completes consent.
		cancel()
	})

	_, err := g.IDToken(ctx)
	var authErr *identity.AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected AuthError, got %v", err)
	}
	if authErr.Code != "POPUP_CLOSED_BY_USER" {
		t.Errorf("code = %q; want POPUP_CLOSED_BY_USER", authErr.Code)
	}
}

func TestGoogleOAuth_ExchangeRejected(t *testing.T) {
	tokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
	}))
	defer tokenSrv.Close()

	g := newTestOAuth(t, tokenSrv, func(redirectURI, state string) {
		_, _ = http.Get(redirectURI + "?state=" + url.QueryEscape(state) + "&code=stale-code")
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := g.IDToken(ctx)
	var authErr *identity.AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected AuthError, got %v", err)
	}
	if authErr.Code != "CODE_EXCHANGE_FAILED" {
		t.Errorf("code = %q; want CODE_EXCHANGE_FAILED", authErr.Code)
	}
}
