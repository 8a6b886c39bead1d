package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderUser is the buyer block of an order.
type OrderUser struct {
	Name    string `json:"name" validate:"required,notblank"`
	Email   string `json:"email" validate:"required,email"`
	Tel     string `json:"tel" validate:"required,notblank"`
	Address string `json:"address" validate:"required,notblank"`
}

// OrderInput is the body of a POST /order request.
type OrderInput struct {
	User    OrderUser `json:"user"`
	Message string    `json:"message" validate:"max=500"`
}

// OrderLine is a priced cart line frozen into an order.
type OrderLine struct {
	ProductID string          `json:"product_id"`
	Title     string          `json:"title"`
	Qty       int             `json:"qty"`
	Price     decimal.Decimal `json:"price"`
	Total     decimal.Decimal `json:"total"`
}

// Order is a placed order.
type Order struct {
	ID        string          `json:"id"`
	Path      string          `json:"path"`
	User      OrderUser       `json:"user"`
	Message   string          `json:"message"`
	Lines     []OrderLine     `json:"lines"`
	Total     decimal.Decimal `json:"total"`
	IsPaid    bool            `json:"is_paid"`
	CreatedAt time.Time       `json:"created_at"`
}

// OrderLinesFrom freezes a priced cart into order lines.
func OrderLinesFrom(cart PricedCart) []OrderLine {
	lines := make([]OrderLine, 0, len(cart.Carts))
	for _, c := range cart.Carts {
		lines = append(lines, OrderLine{
			ProductID: c.ProductID,
			Title:     c.Product.Title,
			Qty:       c.Qty,
			Price:     c.Product.Price,
			Total:     c.FinalTotal,
		})
	}
	return lines
}
