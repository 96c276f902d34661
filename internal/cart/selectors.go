package cart

import (
	"context"

	"github.com/aaravmahajanofficial/storefront-cart/internal/ledger"
	"github.com/aaravmahajanofficial/storefront-cart/internal/models"
)

func TotalItems(lines []models.CartLine) int {
	total := 0
	for _, line := range lines {
		total += line.Quantity
	}

	return total
}

// TotalPrice accumulates in float64; round only when displaying.
func TotalPrice(lines []models.CartLine) float64 {
	var total float64
	for _, line := range lines {
		total += line.Price * float64(line.Quantity)
	}

	return total
}

func (s *Store) TotalItems(ctx context.Context) int {
	return TotalItems(s.Lines(ctx))
}

func (s *Store) TotalPrice(ctx context.Context) float64 {
	return TotalPrice(s.Lines(ctx))
}

// View projects lines with their computed remaining stock.
func View(lines []models.CartLine) models.CartView {
	items := make([]models.CartLineView, 0, len(lines))
	for _, line := range lines {
		items = append(items, models.CartLineView{
			ID:        line.ID,
			Quantity:  line.Quantity,
			Stock:     ledger.LineStock(line),
			Price:     line.Price,
			Title:     line.Title,
			Thumbnail: line.Thumbnail,
		})
	}

	return models.CartView{
		Items:      items,
		TotalItems: TotalItems(lines),
		TotalPrice: TotalPrice(lines),
	}
}
