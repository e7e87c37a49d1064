// Package inventory provides the HTTP client for the remote inventory API
// and the summary metrics derived from the fetched item list.
package inventory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/inventorypro/invctl/internal/models"
)

const itemsPath = "/api/items"

// TokenSource mints a bearer token for the current session. It fails when
// no session is resolved, in which case requests go out unauthenticated
// and the server is responsible for rejecting them.
type TokenSource interface {
	CurrentToken(ctx context.Context) (string, error)
}

// FetchError reports a non-success HTTP status from the inventory API.
type FetchError struct {
	Status int
	Body   string
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("inventory api: status %d: %s", e.Status, e.Body)
}

// Client performs CRUD, search and bulk-import calls against the API.
// Every operation is fire-and-forget from a consistency standpoint: no
// retry, no optimistic update; callers re-List after every mutation.
type Client struct {
	baseURL string
	tokens  TokenSource
	client  *http.Client
	log     *zap.Logger
}

// NewClient builds a Client for the API at baseURL. tokens may be nil for
// a client that never authenticates.
func NewClient(baseURL string, tokens TokenSource, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		baseURL: baseURL,
		tokens:  tokens,
		client:  &http.Client{Timeout: 10 * time.Second},
		log:     log,
	}
}

// List fetches the full item list.
func (c *Client) List(ctx context.Context) ([]models.Item, error) {
	var items []models.Item
	if err := c.do(ctx, http.MethodGet, itemsPath, nil, "", &items); err != nil {
		return nil, err
	}
	return items, nil
}

// Search fetches the items matching term, filtered server-side.
func (c *Client) Search(ctx context.Context, term string) ([]models.Item, error) {
	var items []models.Item
	path := itemsPath + "/search?q=" + url.QueryEscape(term)
	if err := c.do(ctx, http.MethodGet, path, nil, "", &items); err != nil {
		return nil, err
	}
	return items, nil
}

// Create persists a new item. The caller must re-List to observe it.
func (c *Client) Create(ctx context.Context, item models.Item) error {
	body, err := json.Marshal(item)
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodPost, itemsPath, bytes.NewReader(body), "application/json", nil)
}

// Update replaces the item with the given id.
func (c *Client) Update(ctx context.Context, id string, item models.Item) error {
	body, err := json.Marshal(item)
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodPut, itemsPath+"/"+url.PathEscape(id), bytes.NewReader(body), "application/json", nil)
}

// Delete removes the item with the given id.
func (c *Client) Delete(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, itemsPath+"/"+url.PathEscape(id), nil, "", nil)
}

// BulkImport uploads a spreadsheet-format file for server-side parsing and
// upsert, returning the server's human-readable summary.
func (c *Client) BulkImport(ctx context.Context, filename string, data []byte) (string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return "", err
	}
	if _, err := part.Write(data); err != nil {
		return "", err
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	var result struct {
		Message string `json:"message"`
	}
	if err := c.do(ctx, http.MethodPost, itemsPath+"/upload", &buf, mw.FormDataContentType(), &result); err != nil {
		return "", err
	}
	return result.Message, nil
}

// do issues one request, attaching the bearer header when a session
// exists and omitting it otherwise, and decodes a JSON reply into out.
func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.tokens != nil {
		if token, err := c.tokens.CurrentToken(ctx); err != nil {
			c.log.Debug("request sent without bearer token", zap.Error(err))
		} else {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &FetchError{Status: resp.StatusCode, Body: string(bytes.TrimSpace(excerpt))}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("invalid response: %w", err)
	}
	return nil
}
