package inventory

import (
	"github.com/shopspring/decimal"

	"github.com/inventorypro/invctl/internal/models"
)

// LowStockThreshold is the quantity below which an item counts as low stock.
const LowStockThreshold = 5

// Summary holds the dashboard metrics for one item list.
type Summary struct {
	// Count is the number of items.
	Count int
	// TotalValue is the sum of price times quantity over all items.
	TotalValue decimal.Decimal
	// LowStock is the number of items with quantity below LowStockThreshold.
	LowStock int
}

// Summarize derives the metrics from items. It is a pure function of its
// input and is recomputed on every render rather than cached.
func Summarize(items []models.Item) Summary {
	s := Summary{Count: len(items), TotalValue: decimal.Zero}
	for _, item := range items {
		s.TotalValue = s.TotalValue.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
		if item.Quantity < LowStockThreshold {
			s.LowStock++
		}
	}
	return s
}
