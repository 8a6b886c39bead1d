package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

// Product is a catalog entry. Price is the selling price; OriginPrice is the
// list price shown struck through when the product is on sale.
type Product struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Category    string          `json:"category"`
	ImageURL    string          `json:"imageUrl"`
	Price       decimal.Decimal `json:"price"`
	OriginPrice decimal.Decimal `json:"origin_price"`
	Content     string          `json:"content"`
	Description string          `json:"description"`
	Unit        string          `json:"unit"`
	IsEnabled   bool            `json:"is_enabled"`
	CreatedAt   time.Time       `json:"-"`
}
