// Package overlay models the product detail panel: one selected product and
// a quantity picker that feeds add-to-cart.
package overlay

import (
	"context"
	"fmt"
	"sync"

	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/services/storefront/internal/domain"
)

const (
	MinQuantity = 1
	MaxQuantity = 10
)

// AddFunc puts qty of productID into the cart.
type AddFunc func(ctx context.Context, productID string, qty int) error

// State is a copy of the overlay for rendering.
type State struct {
	Open     bool            `json:"open"`
	Product  *domain.Product `json:"product,omitempty"`
	Quantity int             `json:"quantity"`
	Pending  bool            `json:"pending"`
}

// Controller is safe for concurrent use.
type Controller struct {
	add AddFunc

	mu       sync.Mutex
	open     bool
	product  domain.Product
	quantity int
	pending  bool
}

// New returns a closed overlay that adds through add.
func New(add AddFunc) *Controller {
	return &Controller{add: add, quantity: MinQuantity}
}

// Open selects p and resets the quantity to 1.
func (c *Controller) Open(p domain.Product) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.open = true
	c.product = p
	c.quantity = MinQuantity
}

// SetQuantity changes the selected quantity.
func (c *Controller) SetQuantity(n int) error {
	if n < MinQuantity || n > MaxQuantity {
		return apperrors.InvalidInput(fmt.Sprintf("quantity must be between %d and %d, got %d", MinQuantity, MaxQuantity, n))
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.open {
		return apperrors.InvalidInput("no product selected")
	}
	c.quantity = n
	return nil
}

// AddToCart adds the selected product at the selected quantity and then
// closes the overlay, whether or not the add succeeded.
func (c *Controller) AddToCart(ctx context.Context) error {
	c.mu.Lock()
	if !c.open {
		c.mu.Unlock()
		return apperrors.InvalidInput("no product selected")
	}
	if c.pending {
		c.mu.Unlock()
		return apperrors.Conflict("add to cart already in progress")
	}
	c.pending = true
	productID, qty := c.product.ID, c.quantity
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.pending = false
		c.closeLocked()
		c.mu.Unlock()
	}()

	return c.add(ctx, productID, qty)
}

// Close hides the overlay.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeLocked()
}

func (c *Controller) closeLocked() {
	c.open = false
	c.product = domain.Product{}
	c.quantity = MinQuantity
}

// State returns the overlay as it stands.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := State{Open: c.open, Quantity: c.quantity, Pending: c.pending}
	if c.open {
		p := c.product
		s.Product = &p
	}
	return s
}
