package models

// Product is a catalog record as served by the remote API. Stock is the
// authoritative figure at fetch time.
type Product struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
	Price       float64 `json:"price"`
	Thumbnail   string  `json:"thumbnail"`
	Stock       int     `json:"stock"`
	Category    string  `json:"category,omitempty"`
}

func (p Product) CartItem() CartItem {
	return CartItem{
		ID:        p.ID,
		Price:     p.Price,
		Title:     p.Title,
		Thumbnail: p.Thumbnail,
		Stock:     p.Stock,
	}
}
