package repository

import (
	"context"

	"github.com/utafrali/storefront/services/shopapi/internal/domain"
)

// ProductFilter narrows a product listing. A zero PerPage lists everything.
type ProductFilter struct {
	Category string
	Page     int
	PerPage  int
}

// ProductRepository defines read access to the catalog.
type ProductRepository interface {
	// List returns enabled products matching filter and the total match count.
	List(ctx context.Context, filter ProductFilter) ([]domain.Product, int, error)

	// GetByID returns one enabled product.
	GetByID(ctx context.Context, id string) (*domain.Product, error)

	// GetByIDs returns the products with the given ids keyed by id.
	// Unknown or disabled ids are absent from the map.
	GetByIDs(ctx context.Context, ids []string) (map[string]domain.Product, error)
}

// OrderRepository defines the interface for order persistence operations.
type OrderRepository interface {
	// Create inserts an order and its lines atomically.
	Create(ctx context.Context, order *domain.Order) error

	// GetByID retrieves an order with its lines.
	GetByID(ctx context.Context, id string) (*domain.Order, error)
}

// CartRepository defines the interface for cart persistence operations.
type CartRepository interface {
	// Get retrieves the cart stored for an API path. A missing cart is
	// returned as an empty one.
	Get(ctx context.Context, path string) (*domain.Cart, error)

	// Save persists a cart, overwriting any existing cart for the path.
	Save(ctx context.Context, cart *domain.Cart) error

	// Delete removes the cart for the path.
	Delete(ctx context.Context, path string) error
}
