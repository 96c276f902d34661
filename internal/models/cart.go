package models

type UserID int64

// CartItem is what callers hand to the cart when reserving. Stock is the
// catalog stock the caller last fetched, not a remaining figure.
type CartItem struct {
	ID        int64   `json:"id"        validate:"required,gt=0"`
	Price     float64 `json:"price"     validate:"gte=0"`
	Title     string  `json:"title"`
	Thumbnail string  `json:"thumbnail"`
	Stock     int     `json:"stock"     validate:"gte=0"`
}

// CartLine is a committed reservation. OriginalStock is the catalog stock
// seen by the last reservation; the remaining figure is derived from it.
type CartLine struct {
	ID            int64   `json:"id"`
	Quantity      int     `json:"quantity"`
	OriginalStock int     `json:"original_stock"`
	Price         float64 `json:"price"`
	Title         string  `json:"title"`
	Thumbnail     string  `json:"thumbnail"`
}

type UserCarts map[UserID][]CartLine

// Clone returns a deep copy.
func (c UserCarts) Clone() UserCarts {
	out := make(UserCarts, len(c))
	for id, lines := range c {
		cp := make([]CartLine, len(lines))
		copy(cp, lines)
		out[id] = cp
	}
	return out
}

type CartLineView struct {
	ID        int64   `json:"id"`
	Quantity  int     `json:"quantity"`
	Stock     int     `json:"stock"`
	Price     float64 `json:"price"`
	Title     string  `json:"title"`
	Thumbnail string  `json:"thumbnail"`
}

type CartView struct {
	Items      []CartLineView `json:"items"`
	TotalItems int            `json:"total_items"`
	TotalPrice float64        `json:"total_price"`
}

type AddItemRequest struct {
	ProductID int64 `json:"product_id" validate:"required,gt=0"`
	Quantity  int   `json:"quantity"   validate:"omitempty,min=1"`
}

type UpdateQuantityRequest struct {
	Quantity *int `json:"quantity" validate:"required"`
}
