// Package ledger computes purchasable stock from a catalog figure and the
// units a user already holds in their cart. It keeps no state.
package ledger

import "github.com/aaravmahajanofficial/storefront-cart/internal/models"

// RemainingStock returns catalogStock minus the quantity reserved for
// productID in lines, never below zero. A catalog figure that dropped under an
// existing reservation yields 0.
func RemainingStock(productID int64, catalogStock int, lines []models.CartLine) int {
	for _, line := range lines {
		if line.ID == productID {
			return Remaining(catalogStock, line.Quantity)
		}
	}

	return max(catalogStock, 0)
}

func IsOutOfStock(catalogStock, remaining int) bool {
	return catalogStock <= 0 || remaining <= 0
}

// LineStock is the remaining-stock snapshot of a committed line.
func LineStock(line models.CartLine) int {
	return Remaining(line.OriginalStock, line.Quantity)
}

func Remaining(stock, reserved int) int {
	return max(stock-reserved, 0)
}
