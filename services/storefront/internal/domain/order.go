package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderUser is the delivery contact attached to an order.
type OrderUser struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Tel     string `json:"tel"`
	Address string `json:"address"`
}

// OrderRequest is what gets posted to the shop when the shopper checks out.
type OrderRequest struct {
	User    OrderUser `json:"user"`
	Message string    `json:"message"`
}

// OrderResult is the shop's acknowledgement of a created order.
type OrderResult struct {
	OrderID   string          `json:"order_id"`
	Total     decimal.Decimal `json:"total"`
	CreatedAt time.Time       `json:"created_at"`
}
