// Package models defines the core data structures for inventory records.
package models

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// The inventory API exchanges prices as bare JSON numbers.
func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

var (
	// ErrNameRequired is returned when an item has an empty name.
	ErrNameRequired = errors.New("item name is required")
	// ErrNegativePrice is returned when an item price is below zero.
	ErrNegativePrice = errors.New("item price must not be negative")
	// ErrNegativeQuantity is returned when an item quantity is below zero.
	ErrNegativeQuantity = errors.New("item quantity must not be negative")
)

// Item represents a single inventory record.
type Item struct {
	// ID is the server-assigned opaque identifier. It is empty only for
	// a draft that has never been saved.
	ID string `json:"id,omitempty"`
	// Name is the display name of the item.
	Name string `json:"name"`
	// Description holds optional free-form details.
	Description string `json:"description,omitempty"`
	// Price is the unit price.
	Price decimal.Decimal `json:"price"`
	// Quantity is the number of units in stock.
	Quantity int `json:"quantity"`
	// CreatedAt is assigned by the server on first save.
	CreatedAt time.Time `json:"created_at,omitempty"`
}

// Validate checks the invariants a record must satisfy before it is sent
// to or accepted by the inventory API.
func (i Item) Validate() error {
	if i.Name == "" {
		return ErrNameRequired
	}
	if i.Price.IsNegative() {
		return ErrNegativePrice
	}
	if i.Quantity < 0 {
		return ErrNegativeQuantity
	}
	return nil
}
