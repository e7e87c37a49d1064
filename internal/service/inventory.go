// Package service implements the business logic of the stub inventory
// server, delegating persistence to a repository interface.
package service

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/inventorypro/invctl/internal/models"
)

// ErrMissingColumns is returned when a bulk-import file lacks one of the
// required name, price or quantity columns.
var ErrMissingColumns = errors.New("missing required columns: name, price, quantity")

// ItemRepository defines the persistence operations needed by the
// InventoryService.
type ItemRepository interface {
	List(ctx context.Context) ([]models.Item, error)
	Search(ctx context.Context, term string) ([]models.Item, error)
	Insert(ctx context.Context, item models.Item) (models.Item, error)
	Update(ctx context.Context, id string, item models.Item) (models.Item, error)
	Delete(ctx context.Context, id string) error
}

// InventoryService implements the inventory operations behind the stub
// HTTP handlers.
type InventoryService struct {
	repo ItemRepository
}

// NewInventoryService constructs an InventoryService with the provided
// repository.
func NewInventoryService(repo ItemRepository) *InventoryService {
	return &InventoryService{repo: repo}
}

// List returns all stored items.
func (s *InventoryService) List(ctx context.Context) ([]models.Item, error) {
	return s.repo.List(ctx)
}

// Search returns the items matching term by name or description.
func (s *InventoryService) Search(ctx context.Context, term string) ([]models.Item, error) {
	return s.repo.Search(ctx, term)
}

// Create validates and stores a new item, returning it with its assigned id.
func (s *InventoryService) Create(ctx context.Context, item models.Item) (models.Item, error) {
	if err := item.Validate(); err != nil {
		return models.Item{}, err
	}
	return s.repo.Insert(ctx, item)
}

// Update validates item and replaces the record with the given id.
func (s *InventoryService) Update(ctx context.Context, id string, item models.Item) (models.Item, error) {
	if err := item.Validate(); err != nil {
		return models.Item{}, err
	}
	return s.repo.Update(ctx, id, item)
}

// Delete removes the record with the given id.
func (s *InventoryService) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

// BulkImport parses a CSV file with a header row and inserts one item per
// record, returning how many were added. Header names are matched
// case-insensitively; name, price and quantity are required, description
// is optional.
func (s *InventoryService) BulkImport(ctx context.Context, file io.Reader) (int, error) {
	reader := csv.NewReader(file)
	header, err := reader.Read()
	if err != nil {
		return 0, fmt.Errorf("failed to read header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{"name", "price", "quantity"} {
		if _, ok := cols[required]; !ok {
			return 0, ErrMissingColumns
		}
	}

	added := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return added, fmt.Errorf("failed to read row: %w", err)
		}

		price, err := decimal.NewFromString(strings.TrimSpace(record[cols["price"]]))
		if err != nil {
			return added, fmt.Errorf("row %d: invalid price: %w", added+2, err)
		}
		quantity, err := strconv.Atoi(strings.TrimSpace(record[cols["quantity"]]))
		if err != nil {
			return added, fmt.Errorf("row %d: invalid quantity: %w", added+2, err)
		}

		item := models.Item{
			Name:     strings.TrimSpace(record[cols["name"]]),
			Price:    price,
			Quantity: quantity,
		}
		if i, ok := cols["description"]; ok && i < len(record) {
			item.Description = strings.TrimSpace(record[i])
		}
		if _, err := s.Create(ctx, item); err != nil {
			return added, fmt.Errorf("row %d: %w", added+2, err)
		}
		added++
	}
	return added, nil
}
