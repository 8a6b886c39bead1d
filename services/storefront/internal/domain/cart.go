package domain

import "github.com/shopspring/decimal"

// CartProduct is the product snapshot embedded in a cart line.
type CartProduct struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Unit        string          `json:"unit"`
	ImageURL    string          `json:"image_url"`
	Price       decimal.Decimal `json:"price"`
	OriginPrice decimal.Decimal `json:"origin_price"`
}

// CartItem is one line of the server cart. Qty is always at least 1; a line
// at zero does not exist.
type CartItem struct {
	ID         string          `json:"id"`
	ProductID  string          `json:"product_id"`
	Product    CartProduct     `json:"product"`
	Qty        int             `json:"qty"`
	Total      decimal.Decimal `json:"total"`
	FinalTotal decimal.Decimal `json:"final_total"`
}

// Cart is the client's mirror of the server cart. It is replaced wholesale on
// every successful read and never edited in place.
type Cart struct {
	Items []CartItem `json:"items"`

	// Aggregates as reported by the server. Display uses TotalPrice.
	Total      decimal.Decimal `json:"total"`
	FinalTotal decimal.Decimal `json:"final_total"`
}

// TotalPrice is the sum of every line's final total.
func (c Cart) TotalPrice() decimal.Decimal {
	sum := decimal.Zero
	for _, item := range c.Items {
		sum = sum.Add(item.FinalTotal)
	}
	return sum
}

// IsEmpty reports whether the cart has no lines.
func (c Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// ItemCount returns the number of units across all lines.
func (c Cart) ItemCount() int {
	var n int
	for _, item := range c.Items {
		n += item.Qty
	}
	return n
}

// FindItem returns the line with the given cart item id.
func (c Cart) FindItem(cartItemID string) (CartItem, bool) {
	for _, item := range c.Items {
		if item.ID == cartItemID {
			return item, true
		}
	}
	return CartItem{}, false
}

// Clone returns a copy that shares no backing array with c.
func (c Cart) Clone() Cart {
	out := c
	out.Items = make([]CartItem, len(c.Items))
	copy(out.Items, c.Items)
	return out
}
