// Package catalog loads the read-only product list the storefront sells from.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/utafrali/storefront/pkg/tracing"
	"github.com/utafrali/storefront/services/storefront/internal/domain"
)

// ErrCatalogFetch matches every failure to load the product list.
var ErrCatalogFetch = errors.New("catalog fetch failed")

// API is the part of the shop client the catalog needs.
type API interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
}

// Catalog holds the last successfully loaded product list.
type Catalog struct {
	api    API
	logger *slog.Logger

	mu       sync.RWMutex
	products []domain.Product
	byID     map[string]int
	loaded   bool
}

// New returns an empty catalog backed by api.
func New(api API, logger *slog.Logger) *Catalog {
	return &Catalog{api: api, logger: logger, byID: map[string]int{}}
}

// Load fetches the product list. On failure the previous list, empty on
// first use, is kept.
func (c *Catalog) Load(ctx context.Context) (err error) {
	ctx, span := tracing.Tracer("storefront/catalog").Start(ctx, "catalog.load")
	defer func() { tracing.EndSpan(span, err) }()

	products, err := c.api.ListProducts(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCatalogFetch, err)
	}

	byID := make(map[string]int, len(products))
	for i, p := range products {
		byID[p.ID] = i
	}

	c.mu.Lock()
	c.products = products
	c.byID = byID
	c.loaded = true
	c.mu.Unlock()

	c.logger.InfoContext(ctx, "catalog loaded", slog.Int("products", len(products)))
	return nil
}

// Products returns a copy of the product list.
func (c *Catalog) Products() []domain.Product {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]domain.Product, len(c.products))
	copy(out, c.products)
	return out
}

// Find looks a product up by id.
func (c *Catalog) Find(productID string) (domain.Product, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	i, ok := c.byID[productID]
	if !ok {
		return domain.Product{}, false
	}
	return c.products[i], true
}

// Loaded reports whether at least one load has succeeded.
func (c *Catalog) Loaded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loaded
}
