package inventory

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/inventorypro/invctl/internal/models"
)

func item(price string, quantity int) models.Item {
	return models.Item{Name: "x", Price: decimal.RequireFromString(price), Quantity: quantity}
}

func TestSummarize(t *testing.T) {
	tests := []struct {
		name      string
		items     []models.Item
		wantCount int
		wantValue string
		wantLow   int
	}{
		{
			name:      "empty list",
			items:     nil,
			wantCount: 0,
			wantValue: "0.00",
			wantLow:   0,
		},
		{
			name:      "no low stock",
			items:     []models.Item{item("10", 3), item("5", 10)},
			wantCount: 2,
			wantValue: "80.00",
			wantLow:   1, // quantity 3 is below the threshold of 5
		},
		{
			name:      "single low stock item",
			items:     []models.Item{item("2", 1)},
			wantCount: 1,
			wantValue: "2.00",
			wantLow:   1,
		},
		{
			name:      "threshold boundary is exclusive",
			items:     []models.Item{item("1", 5), item("1", 4)},
			wantCount: 2,
			wantValue: "9.00",
			wantLow:   1,
		},
		{
			name:      "fractional prices stay exact",
			items:     []models.Item{item("9.99", 3)},
			wantCount: 1,
			wantValue: "29.97",
			wantLow:   1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Summarize(tt.items)
			if got.Count != tt.wantCount {
				t.Errorf("Count = %d; want %d", got.Count, tt.wantCount)
			}
			if got.TotalValue.StringFixed(2) != tt.wantValue {
				t.Errorf("TotalValue = %s; want %s", got.TotalValue.StringFixed(2), tt.wantValue)
			}
			if got.LowStock != tt.wantLow {
				t.Errorf("LowStock = %d; want %d", got.LowStock, tt.wantLow)
			}
		})
	}
}

func TestSummarizeIsPure(t *testing.T) {
	items := []models.Item{item("10", 3), item("5", 10)}
	first := Summarize(items)
	second := Summarize(items)
	if first.Count != second.Count || !first.TotalValue.Equal(second.TotalValue) || first.LowStock != second.LowStock {
		t.Errorf("repeated summaries differ: %+v vs %+v", first, second)
	}
}
