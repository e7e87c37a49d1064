package firebase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/inventorypro/invctl/internal/identity"
)

// GoogleOAuth runs the Google OAuth 2.0 authorization-code flow against a
// loopback redirect listener, standing in for the web sign-in popup.
type GoogleOAuth struct {
	clientID     string
	clientSecret string
	authURL      string
	tokenURL     string
	httpClient   *http.Client
	openBrowser  func(url string) error
}

// NewGoogleOAuth returns a flow configured for the public Google endpoints.
func NewGoogleOAuth(clientID, clientSecret string) *GoogleOAuth {
	return &GoogleOAuth{
		clientID:     clientID,
		clientSecret: clientSecret,
		authURL:      "https://accounts.google.com/o/oauth2/v2/auth",
		tokenURL:     "https://oauth2.googleapis.com/token",
		httpClient:   &http.Client{Timeout: 10 * time.Second},
		openBrowser:  openBrowser,
	}
}

// IDToken walks the user through consent in their browser and returns the
// Google ID token from the code exchange. A cancelled or failed consent
// surfaces as *identity.AuthError.
func (g *GoogleOAuth) IDToken(ctx context.Context) (string, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", fmt.Errorf("failed to open redirect listener: %w", err)
	}
	defer ln.Close()

	redirectURI := fmt.Sprintf("http://%s/callback", ln.Addr().String())
	state := uuid.NewString()

	type callback struct {
		code string
		err  error
	}
	results := make(chan callback, 1)

	srv := &http.Server{Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		switch {
		case q.Get("state") != state:
			http.Error(w, "state mismatch", http.StatusBadRequest)
			results <- callback{err: &identity.AuthError{Code: "STATE_MISMATCH"}}
		case q.Get("error") != "":
			fmt.Fprintln(w, "Sign-in was cancelled. You can close this window.")
			results <- callback{err: &identity.AuthError{Code: "POPUP_CLOSED_BY_USER", Err: errors.New(q.Get("error"))}}
		default:
			fmt.Fprintln(w, "Signed in. You can close this window and return to the terminal.")
			results <- callback{code: q.Get("code")}
		}
	})}
	go func() { _ = srv.Serve(ln) }()
	defer srv.Close()

	if err := g.openBrowser(g.consentURL(redirectURI, state)); err != nil {
		return "", &identity.AuthError{Code: "POPUP_BLOCKED", Err: err}
	}

	select {
	case res := <-results:
		if res.err != nil {
			return "", res.err
		}
		return g.exchange(ctx, res.code, redirectURI)
	case <-ctx.Done():
		return "", &identity.AuthError{Code: "POPUP_CLOSED_BY_USER", Err: ctx.Err()}
	}
}

func (g *GoogleOAuth) consentURL(redirectURI, state string) string {
	params := url.Values{}
	params.Set("client_id", g.clientID)
	params.Set("redirect_uri", redirectURI)
	params.Set("response_type", "code")
	params.Set("scope", "openid email profile")
	params.Set("state", state)
	return g.authURL + "?" + params.Encode()
}

// exchange swaps the authorization code for tokens and returns the ID token.
func (g *GoogleOAuth) exchange(ctx context.Context, code, redirectURI string) (string, error) {
	data := url.Values{}
	data.Set("code", code)
	data.Set("client_id", g.clientID)
	data.Set("client_secret", g.clientSecret)
	data.Set("redirect_uri", redirectURI)
	data.Set("grant_type", "authorization_code")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.tokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", &identity.AuthError{Code: "NETWORK_ERROR", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", &identity.AuthError{Code: "CODE_EXCHANGE_FAILED", Err: fmt.Errorf("token exchange failed: %s", string(body))}
	}

	var token struct {
		IDToken string `json:"id_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return "", fmt.Errorf("failed to decode token response: %w", err)
	}
	if token.IDToken == "" {
		return "", &identity.AuthError{Code: "CODE_EXCHANGE_FAILED", Err: errors.New("response contained no id_token")}
	}
	return token.IDToken, nil
}

// openBrowser launches the platform browser at the given URL.
func openBrowser(target string) error {
	switch runtime.GOOS {
	case "darwin":
		return exec.Command("open", target).Start()
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", target).Start()
	default:
		return exec.Command("xdg-open", target).Start()
	}
}
