package view

import (
	"bufio"
	"bytes"
	"context"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/inventorypro/invctl/internal/identity"
	"github.com/inventorypro/invctl/internal/inventory"
	"github.com/inventorypro/invctl/internal/models"
	"github.com/inventorypro/invctl/internal/repository"
	stubhttp "github.com/inventorypro/invctl/internal/server/handler/http"
	"github.com/inventorypro/invctl/internal/service"
	"github.com/inventorypro/invctl/internal/session"
)

// testIdentity is a static identity for the flow tests.
type testIdentity struct {
	id    string
	token string
}

func (f *testIdentity) UserID() string { return f.id }
func (f *testIdentity) Email() string  { return f.id + "@example.com" }
func (f *testIdentity) Token(ctx context.Context) (string, error) {
	return f.token, nil
}

// testProvider is a scriptable identity provider: fire delivers a
// notification, SignIn accepts one credential pair.
type testProvider struct {
	mu       sync.Mutex
	subs     []identity.Subscriber
	email    string
	password string
	user     *testIdentity
}

func (p *testProvider) Subscribe(fn identity.Subscriber) func() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subs = append(p.subs, fn)
	return func() {}
}

func (p *testProvider) SignIn(ctx context.Context, email, password string) error {
	if email != p.email || password != p.password {
		return &identity.AuthError{Code: "INVALID_PASSWORD"}
	}
	p.fire(p.user)
	return nil
}

func (p *testProvider) SignInWithBrowser(ctx context.Context) error {
	return &identity.AuthError{Code: "OPERATION_NOT_ALLOWED"}
}

func (p *testProvider) SignOut(ctx context.Context) error {
	p.fire(nil)
	return nil
}

func (p *testProvider) fire(id identity.Identity) {
	p.mu.Lock()
	subs := make([]identity.Subscriber, len(p.subs))
	copy(subs, p.subs)
	p.mu.Unlock()
	for _, fn := range subs {
		fn(id)
	}
}

// newStubServer starts the in-memory inventory API accepting only the
// given bearer token.
func newStubServer(t *testing.T, token string) *httptest.Server {
	t.Helper()
	repo := repository.NewMemoryItemRepository()
	items := &stubhttp.ItemsHandler{Service: service.NewInventoryService(repo)}
	verify := func(got string) (string, bool) { return "e2e", got == token }
	srv := httptest.NewServer(stubhttp.NewRouter(items, nil, verify))
	t.Cleanup(srv.Close)
	return srv
}

func TestEndToEndFlow(t *testing.T) {
	const bearer = "tok-e2e"
	srv := newStubServer(t, bearer)
	ctx := context.Background()

	provider := &testProvider{
		email:    "user@example.com",
		password: "hunter2",
		user:     &testIdentity{id: "u1", token: bearer},
	}
	store := session.NewStore(provider, nil)
	defer store.Close()

	client := inventory.NewClient(srv.URL, store, nil)
	var out bytes.Buffer
	dash := NewDashboard(client, &out, nil)

	var loginScreens, mounts int
	gate := session.NewGate(store, nil,
		func() { loginScreens++ },
		func() {
			mounts++
			if err := dash.Mount(ctx); err != nil {
				t.Errorf("mount: %v", err)
			}
		},
	)
	store.Initialize()

	// Initial resolution: signed out, one redirect to the login view.
	provider.fire(nil)
	if gate.State() != session.Unauthenticated || loginScreens != 1 {
		t.Fatalf("expected one redirect to login, state=%v redirects=%d", gate.State(), loginScreens)
	}

	// A wrong password shows the generic failure and stays on the login
	// view; the second attempt succeeds and the gate mounts the dashboard.
	login := NewLogin(store, scannerFrom("user@example.com\nwrong\nuser@example.com\nhunter2\n"), &out)
	if err := login.Run(ctx); err != nil {
		t.Fatalf("login: %v", err)
	}
	if !strings.Contains(out.String(), "Failed to sign in") {
		t.Error("expected the generic sign-in failure message")
	}
	if gate.State() != session.Authenticated || mounts != 1 {
		t.Fatalf("expected one dashboard mount, state=%v mounts=%d", gate.State(), mounts)
	}

	// Empty dashboard.
	summary := inventory.Summarize(dash.Items())
	if summary.Count != 0 || summary.TotalValue.StringFixed(2) != "0.00" {
		t.Fatalf("expected empty dashboard, got %+v", summary)
	}

	// Create one item and observe it through a full reload.
	draft := models.Item{Name: "Widget", Price: decimal.RequireFromString("9.99"), Quantity: 3}
	if err := dash.SubmitDraft(ctx, draft); err != nil {
		t.Fatalf("create: %v", err)
	}
	items := dash.Items()
	if len(items) != 1 || items[0].ID == "" {
		t.Fatalf("expected one item with a server id, got %+v", items)
	}
	summary = inventory.Summarize(items)
	if summary.TotalValue.StringFixed(2) != "29.97" || summary.LowStock != 1 {
		t.Fatalf("summary = %+v; want value 29.97 and low stock 1", summary)
	}

	// Listing twice with no intervening mutation yields identical contents.
	first, err := client.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	second, err := client.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(first) != len(second) || first[0].ID != second[0].ID || !first[0].Price.Equal(second[0].Price) {
		t.Errorf("repeated lists differ: %+v vs %+v", first, second)
	}

	// Edit through the draft path: same id, new quantity.
	edit := items[0]
	edit.Quantity = 10
	if err := dash.SubmitDraft(ctx, edit); err != nil {
		t.Fatalf("update: %v", err)
	}
	items = dash.Items()
	if len(items) != 1 || items[0].Quantity != 10 {
		t.Fatalf("expected quantity 10 after update, got %+v", items)
	}

	// Delete and verify the id never comes back.
	deleted := items[0].ID
	if err := dash.DeleteItem(ctx, deleted); err != nil {
		t.Fatalf("delete: %v", err)
	}
	after, err := client.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	for _, item := range after {
		if item.ID == deleted {
			t.Errorf("deleted id %q still present", deleted)
		}
	}
	if len(dash.Items()) != 0 {
		t.Errorf("expected empty list after delete, got %+v", dash.Items())
	}

	// Losing the session mid-use redirects again.
	if err := store.Logout(ctx); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if gate.State() != session.Unauthenticated || loginScreens != 2 {
		t.Errorf("expected a second redirect after logout, state=%v redirects=%d", gate.State(), loginScreens)
	}
}

func TestEndToEndBulkImport(t *testing.T) {
	const bearer = "tok-import"
	srv := newStubServer(t, bearer)
	ctx := context.Background()

	provider := &testProvider{user: &testIdentity{id: "u1", token: bearer}}
	store := session.NewStore(provider, nil)
	defer store.Close()
	store.Initialize()
	provider.fire(provider.user)

	client := inventory.NewClient(srv.URL, store, nil)
	message, err := client.BulkImport(ctx, "items.csv",
		[]byte("name,description,price,quantity\nWidget,blue,9.99,3\nBolt,steel,0.25,500\n"))
	if err != nil {
		t.Fatalf("bulk import: %v", err)
	}
	if message != "Successfully uploaded 2 items" {
		t.Errorf("message = %q", message)
	}

	items, err := client.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items after import, got %d", len(items))
	}
}

// scannerFrom is a convenience for tests that drive prompts.
func scannerFrom(input string) *bufio.Scanner {
	return bufio.NewScanner(strings.NewReader(input))
}

func TestLoginView_BrowserFlowFailureIsGeneric(t *testing.T) {
	provider := &testProvider{}
	store := session.NewStore(provider, nil)
	store.Initialize()

	var out bytes.Buffer
	login := NewLogin(store, scannerFrom("google\n"), &out)
	if err := login.Run(context.Background()); err == nil {
		// Input ends after the failed attempt, so Run reports EOF.
		t.Error("expected EOF after exhausted input")
	}
	if !strings.Contains(out.String(), "Failed to sign in") {
		t.Errorf("expected generic failure message, got %q", out.String())
	}
}
