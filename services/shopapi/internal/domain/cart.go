package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CartLine is one stored line of a cart. Only the product reference and the
// quantity are persisted; prices are resolved against the catalog on read.
type CartLine struct {
	ID        string    `json:"id"`
	ProductID string    `json:"product_id"`
	Qty       int       `json:"qty"`
	AddedAt   time.Time `json:"added_at"`
}

// Cart is the stored cart document for one API path.
type Cart struct {
	Path      string     `json:"path"`
	Lines     []CartLine `json:"lines"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// NewCart returns an empty cart for path.
func NewCart(path string) *Cart {
	return &Cart{Path: path, Lines: []CartLine{}}
}

// LineIndex returns the index of the line with id, or -1.
func (c *Cart) LineIndex(id string) int {
	for i, l := range c.Lines {
		if l.ID == id {
			return i
		}
	}
	return -1
}

// ProductIndex returns the index of the line holding productID, or -1.
func (c *Cart) ProductIndex(productID string) int {
	for i, l := range c.Lines {
		if l.ProductID == productID {
			return i
		}
	}
	return -1
}

// IsEmpty reports whether the cart has no lines.
func (c *Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}

// PricedLine is a cart line joined with its product. FinalTotal equals Total
// since no coupon rules apply.
type PricedLine struct {
	ID         string          `json:"id"`
	ProductID  string          `json:"product_id"`
	Product    Product         `json:"product"`
	Qty        int             `json:"qty"`
	Total      decimal.Decimal `json:"total"`
	FinalTotal decimal.Decimal `json:"final_total"`
}

// PricedCart is the cart as the API returns it.
type PricedCart struct {
	Carts      []PricedLine    `json:"carts"`
	Total      decimal.Decimal `json:"total"`
	FinalTotal decimal.Decimal `json:"final_total"`
}

// PriceCart joins lines with products. Lines whose product is gone from the
// catalog are skipped.
func PriceCart(cart *Cart, products map[string]Product) PricedCart {
	out := PricedCart{Carts: []PricedLine{}, Total: decimal.Zero, FinalTotal: decimal.Zero}
	for _, l := range cart.Lines {
		p, ok := products[l.ProductID]
		if !ok {
			continue
		}
		total := p.Price.Mul(decimal.NewFromInt(int64(l.Qty)))
		out.Carts = append(out.Carts, PricedLine{
			ID:         l.ID,
			ProductID:  l.ProductID,
			Product:    p,
			Qty:        l.Qty,
			Total:      total,
			FinalTotal: total,
		})
		out.Total = out.Total.Add(total)
		out.FinalTotal = out.FinalTotal.Add(total)
	}
	return out
}
