// Package repository provides the storage backing the stub inventory
// server. The real inventory API owns its own persistence, so the stub
// keeps everything in memory.
package repository

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/inventorypro/invctl/internal/models"
)

// ErrNotFound is returned when no item with the requested id exists.
var ErrNotFound = errors.New("item not found")

// MemoryItemRepository stores items in insertion order, guarded by a
// mutex because the HTTP server calls it from concurrent requests.
type MemoryItemRepository struct {
	mu    sync.RWMutex
	items map[string]models.Item
	order []string
}

// NewMemoryItemRepository creates an empty repository.
func NewMemoryItemRepository() *MemoryItemRepository {
	return &MemoryItemRepository{items: make(map[string]models.Item)}
}

// List returns all items in insertion order.
func (r *MemoryItemRepository) List(ctx context.Context) ([]models.Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	items := make([]models.Item, 0, len(r.order))
	for _, id := range r.order {
		items = append(items, r.items[id])
	}
	return items, nil
}

// Search returns the items whose name or description contains term,
// case-insensitively, in insertion order.
func (r *MemoryItemRepository) Search(ctx context.Context, term string) ([]models.Item, error) {
	needle := strings.ToLower(term)
	r.mu.RLock()
	defer r.mu.RUnlock()
	items := make([]models.Item, 0)
	for _, id := range r.order {
		item := r.items[id]
		if strings.Contains(strings.ToLower(item.Name), needle) ||
			strings.Contains(strings.ToLower(item.Description), needle) {
			items = append(items, item)
		}
	}
	return items, nil
}

// Insert stores item under a newly minted opaque id and stamps CreatedAt.
func (r *MemoryItemRepository) Insert(ctx context.Context, item models.Item) (models.Item, error) {
	item.ID = uuid.NewString()
	item.CreatedAt = time.Now().UTC()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[item.ID] = item
	r.order = append(r.order, item.ID)
	return item, nil
}

// Update replaces the stored item with the given id, keeping its id and
// creation timestamp.
func (r *MemoryItemRepository) Update(ctx context.Context, id string, item models.Item) (models.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.items[id]
	if !ok {
		return models.Item{}, ErrNotFound
	}
	item.ID = id
	item.CreatedAt = existing.CreatedAt
	r.items[id] = item
	return item, nil
}

// Delete removes the item with the given id.
func (r *MemoryItemRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return ErrNotFound
	}
	delete(r.items, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}
