package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/utafrali/storefront/pkg/database"
	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/services/shopapi/internal/domain"
	"github.com/utafrali/storefront/services/shopapi/internal/repository"
)

const productColumns = `id, title, category, image_url, price, origin_price, content, description, unit, is_enabled, created_at`

// ProductRepository implements repository.ProductRepository using PostgreSQL.
type ProductRepository struct {
	pool database.DBTX
}

// NewProductRepository creates a new PostgreSQL-backed product repository.
func NewProductRepository(pool database.DBTX) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// List returns enabled products, optionally narrowed to one category and one
// page, along with the total number of matches.
func (r *ProductRepository) List(ctx context.Context, filter repository.ProductFilter) (_ []domain.Product, _ int, err error) {
	var (
		args  []any
		where = "WHERE is_enabled"
	)
	if filter.Category != "" {
		args = append(args, filter.Category)
		where += fmt.Sprintf(" AND category = $%d", len(args))
	}

	limit := ""
	if filter.PerPage > 0 {
		page := filter.Page
		if page < 1 {
			page = 1
		}
		args = append(args, filter.PerPage, (page-1)*filter.PerPage)
		limit = fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	}

	query := `SELECT ` + productColumns + `, count(*) OVER() AS total_count
		FROM products
		` + where + `
		ORDER BY created_at, id` + limit

	ctx, end := database.TraceQuery(ctx, "ListProducts", query)
	defer func() { end(err) }()

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	products := []domain.Product{}
	total := 0
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(
			&p.ID, &p.Title, &p.Category, &p.ImageURL, &p.Price, &p.OriginPrice,
			&p.Content, &p.Description, &p.Unit, &p.IsEnabled, &p.CreatedAt,
			&total,
		); err != nil {
			return nil, 0, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate products: %w", err)
	}

	return products, total, nil
}

// GetByID retrieves an enabled product by its ID.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (_ *domain.Product, err error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1 AND is_enabled`

	ctx, end := database.TraceQuery(ctx, "GetProduct", query)
	defer func() { end(err) }()

	var p domain.Product
	err = r.pool.QueryRow(ctx, query, id).Scan(
		&p.ID, &p.Title, &p.Category, &p.ImageURL, &p.Price, &p.OriginPrice,
		&p.Content, &p.Description, &p.Unit, &p.IsEnabled, &p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("product", id)
		}
		return nil, fmt.Errorf("scan product: %w", err)
	}

	return &p, nil
}

// GetByIDs returns the enabled products among ids keyed by id.
func (r *ProductRepository) GetByIDs(ctx context.Context, ids []string) (_ map[string]domain.Product, err error) {
	out := make(map[string]domain.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	query := `SELECT ` + productColumns + ` FROM products WHERE id = ANY($1) AND is_enabled`

	ctx, end := database.TraceQuery(ctx, "GetProductsByIDs", query)
	defer func() { end(err) }()

	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("query products by ids: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(
			&p.ID, &p.Title, &p.Category, &p.ImageURL, &p.Price, &p.OriginPrice,
			&p.Content, &p.Description, &p.Unit, &p.IsEnabled, &p.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		out[p.ID] = p
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}

	return out, nil
}
