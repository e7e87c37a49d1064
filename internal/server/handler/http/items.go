// Package http provides the HTTP handlers of the stub inventory server,
// an in-memory stand-in for the remote inventory API used in development
// and end-to-end tests.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/inventorypro/invctl/internal/models"
	"github.com/inventorypro/invctl/internal/repository"
)

// InventoryService defines the operations required by the ItemsHandler.
type InventoryService interface {
	List(ctx context.Context) ([]models.Item, error)
	Search(ctx context.Context, term string) ([]models.Item, error)
	Create(ctx context.Context, item models.Item) (models.Item, error)
	Update(ctx context.Context, id string, item models.Item) (models.Item, error)
	Delete(ctx context.Context, id string) error
	BulkImport(ctx context.Context, file io.Reader) (int, error)
}

// ItemsHandler handles the /api/items endpoints.
type ItemsHandler struct {
	Service InventoryService
}

// List handles GET /api/items.
func (h *ItemsHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.Service.List(r.Context())
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// Search handles GET /api/items/search?q=<term>.
func (h *ItemsHandler) Search(w http.ResponseWriter, r *http.Request) {
	term := r.URL.Query().Get("q")
	if term == "" {
		http.Error(w, "query parameter q is required", http.StatusBadRequest)
		return
	}
	items, err := h.Service.Search(r.Context(), term)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// Create handles POST /api/items. It expects a JSON body without an id
// and responds with the created item.
func (h *ItemsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var item models.Item
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	created, err := h.Service.Create(r.Context(), item)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, created)
}

// Update handles PUT /api/items/{id}.
func (h *ItemsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var item models.Item
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	updated, err := h.Service.Update(r.Context(), id, item)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		http.Error(w, "Item not found", http.StatusNotFound)
		return
	case err != nil:
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// Delete handles DELETE /api/items/{id}.
func (h *ItemsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	err := h.Service.Delete(r.Context(), id)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		http.Error(w, "Item not found", http.StatusNotFound)
		return
	case err != nil:
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Item deleted"})
}

// Upload handles POST /api/items/upload. It accepts a multipart file,
// delegates parsing and upserting to the service, and responds with a
// human-readable summary.
func (h *ItemsHandler) Upload(w http.ResponseWriter, r *http.Request) {
	file, _, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "file is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	added, err := h.Service.BulkImport(r.Context(), file)
	if err != nil {
		http.Error(w, fmt.Sprintf("Error processing file: %v", err), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Successfully uploaded %d items", added),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
