package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/utafrali/storefront/pkg/database"
	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/services/shopapi/internal/domain"
)

// OrderRepository implements repository.OrderRepository using PostgreSQL.
type OrderRepository struct {
	pool database.TxStarter
}

// NewOrderRepository creates a new PostgreSQL-backed order repository.
func NewOrderRepository(pool database.TxStarter) *OrderRepository {
	return &OrderRepository{pool: pool}
}

const (
	insertOrderQuery = `
		INSERT INTO orders (id, path, user_name, user_email, user_tel, user_address, message, total, is_paid, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	insertOrderLineQuery = `
		INSERT INTO order_lines (order_id, position, product_id, title, qty, price, total)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
)

// Create inserts a new order and its lines atomically within a transaction.
func (r *OrderRepository) Create(ctx context.Context, o *domain.Order) (err error) {
	ctx, end := database.TraceQuery(ctx, "CreateOrder", insertOrderQuery)
	defer func() { end(err) }()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, insertOrderQuery,
		o.ID,
		o.Path,
		o.User.Name,
		o.User.Email,
		o.User.Tel,
		o.User.Address,
		o.Message,
		o.Total,
		o.IsPaid,
		o.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	for i, line := range o.Lines {
		_, err = tx.Exec(ctx, insertOrderLineQuery,
			o.ID,
			i,
			line.ProductID,
			line.Title,
			line.Qty,
			line.Price,
			line.Total,
		)
		if err != nil {
			return fmt.Errorf("insert order line: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

const getOrderQuery = `
	SELECT
		o.id, o.path, o.user_name, o.user_email, o.user_tel, o.user_address,
		o.message, o.total, o.is_paid, o.created_at,
		COALESCE(
			JSONB_AGG(
				JSONB_BUILD_OBJECT(
					'product_id', l.product_id,
					'title', l.title,
					'qty', l.qty,
					'price', l.price,
					'total', l.total
				) ORDER BY l.position
			) FILTER (WHERE l.order_id IS NOT NULL),
			'[]'::jsonb
		) AS lines
	FROM orders o
	LEFT JOIN order_lines l ON o.id = l.order_id
	WHERE o.id = $1
	GROUP BY o.id`

// GetByID retrieves an order by its ID with its lines in a single query.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (_ *domain.Order, err error) {
	ctx, end := database.TraceQuery(ctx, "GetOrder", getOrderQuery)
	defer func() { end(err) }()

	var (
		o         domain.Order
		linesJSON []byte
	)
	err = r.pool.QueryRow(ctx, getOrderQuery, id).Scan(
		&o.ID,
		&o.Path,
		&o.User.Name,
		&o.User.Email,
		&o.User.Tel,
		&o.User.Address,
		&o.Message,
		&o.Total,
		&o.IsPaid,
		&o.CreatedAt,
		&linesJSON,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("order", id)
		}
		return nil, fmt.Errorf("scan order: %w", err)
	}

	o.Lines = []domain.OrderLine{}
	if len(linesJSON) > 0 && string(linesJSON) != "[]" {
		if err := json.Unmarshal(linesJSON, &o.Lines); err != nil {
			return nil, fmt.Errorf("unmarshal order lines: %w", err)
		}
	}

	return &o, nil
}
