// Package view renders the terminal login and inventory screens and
// orchestrates calls into the inventory data client.
package view

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"text/tabwriter"

	"go.uber.org/zap"

	"github.com/inventorypro/invctl/internal/inventory"
	"github.com/inventorypro/invctl/internal/models"
)

// API is the slice of the inventory data client the dashboard consumes.
type API interface {
	List(ctx context.Context) ([]models.Item, error)
	Search(ctx context.Context, term string) ([]models.Item, error)
	Create(ctx context.Context, item models.Item) error
	Update(ctx context.Context, id string, item models.Item) error
	Delete(ctx context.Context, id string) error
	BulkImport(ctx context.Context, filename string, data []byte) (string, error)
}

// Dashboard holds the item list and the in-progress draft, re-fetching the
// full list after every successful mutation. The displayed list is always
// the last successful fetch; it is never patched incrementally.
type Dashboard struct {
	api API
	out io.Writer
	log *zap.Logger

	// seq tags every outgoing list/search refresh; responses whose tag is
	// no longer the latest are discarded so the latest user intent wins.
	seq atomic.Uint64

	mu         sync.Mutex
	items      []models.Item
	searchTerm string
	loadErr    error
}

// NewDashboard creates a dashboard writing its output to out.
func NewDashboard(api API, out io.Writer, log *zap.Logger) *Dashboard {
	if log == nil {
		log = zap.NewNop()
	}
	return &Dashboard{api: api, out: out, log: log}
}

// Mount performs the initial fetch. The auth gate calls it exactly once
// per transition into the authenticated state.
func (d *Dashboard) Mount(ctx context.Context) error {
	return d.Refresh(ctx)
}

// Refresh replaces the item list with a fresh full fetch.
func (d *Dashboard) Refresh(ctx context.Context) error {
	return d.fetch(ctx, d.api.List)
}

// SetSearchTerm applies search-as-typed semantics: an empty term reverts
// to the full list, a term of one or two characters issues no request and
// leaves the current list untouched, and a longer term queries the server.
func (d *Dashboard) SetSearchTerm(ctx context.Context, term string) error {
	d.mu.Lock()
	d.searchTerm = term
	d.mu.Unlock()

	switch {
	case len(term) == 0:
		return d.fetch(ctx, d.api.List)
	case len(term) <= 2:
		return nil
	default:
		return d.fetch(ctx, func(ctx context.Context) ([]models.Item, error) {
			return d.api.Search(ctx, term)
		})
	}
}

// SubmitDraft persists the draft: a draft without an id is created, one
// with an id updates that record. On success the list is refreshed exactly
// once; on failure the caller keeps the form open and no refresh happens.
func (d *Dashboard) SubmitDraft(ctx context.Context, draft models.Item) error {
	if err := draft.Validate(); err != nil {
		return err
	}

	var err error
	if draft.ID == "" {
		err = d.api.Create(ctx, draft)
	} else {
		err = d.api.Update(ctx, draft.ID, draft)
	}
	if err != nil {
		return err
	}
	return d.Refresh(ctx)
}

// DeleteItem removes one record and refreshes the list.
func (d *Dashboard) DeleteItem(ctx context.Context, id string) error {
	if err := d.api.Delete(ctx, id); err != nil {
		return err
	}
	return d.Refresh(ctx)
}

// Import uploads the file at path for server-side parsing, prints the
// server's summary and refreshes the list.
func (d *Dashboard) Import(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	message, err := d.api.BulkImport(ctx, path, data)
	if err != nil {
		return err
	}
	fmt.Fprintln(d.out, message)
	return d.Refresh(ctx)
}

// Items returns the currently displayed list.
func (d *Dashboard) Items() []models.Item {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.items
}

// Err returns the error panel state from the last failed fetch, cleared
// by the next successful one.
func (d *Dashboard) Err() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.loadErr
}

// Render writes the table and summary metrics. The metrics are derived
// from the current list on every call, never cached.
func (d *Dashboard) Render() {
	d.mu.Lock()
	items := d.items
	loadErr := d.loadErr
	d.mu.Unlock()

	if loadErr != nil {
		fmt.Fprintf(d.out, "Error loading inventory: %v\n", loadErr)
	}

	summary := inventory.Summarize(items)
	fmt.Fprintf(d.out, "Items: %d  Total value: $%s  Low stock: %d\n",
		summary.Count, summary.TotalValue.StringFixed(2), summary.LowStock)

	tw := tabwriter.NewWriter(d.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tDESCRIPTION\tPRICE\tQTY")
	for _, item := range items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\n",
			item.ID, item.Name, item.Description, item.Price.StringFixed(2), item.Quantity)
	}
	_ = tw.Flush()
}

// fetch issues one tagged list/search request and applies the outcome only
// if no newer request has been issued meanwhile.
func (d *Dashboard) fetch(ctx context.Context, call func(context.Context) ([]models.Item, error)) error {
	seq := d.seq.Add(1)
	items, err := call(ctx)

	d.mu.Lock()
	defer d.mu.Unlock()
	if seq != d.seq.Load() {
		d.log.Debug("discarding stale fetch response", zap.Uint64("seq", seq))
		return nil
	}
	if err != nil {
		d.loadErr = err
		return err
	}
	d.items = items
	d.loadErr = nil
	return nil
}
