package domain

import "github.com/shopspring/decimal"

func init() {
	// Prices travel as JSON numbers in both directions.
	decimal.MarshalJSONWithoutQuotes = true
}

// Product is a catalog entry. Price is the current selling (special) price and
// OriginPrice the list price it is compared against.
type Product struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Category    string          `json:"category"`
	ImageURL    string          `json:"image_url"`
	Price       decimal.Decimal `json:"price"`
	OriginPrice decimal.Decimal `json:"origin_price"`
	Content     string          `json:"content"`
	Description string          `json:"description"`
	Unit        string          `json:"unit"`
}

// OnSale reports whether the selling price is below the list price.
func (p Product) OnSale() bool {
	return p.Price.LessThan(p.OriginPrice)
}
