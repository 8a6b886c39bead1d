// Package cart keeps the storefront's mirror of the server cart. Every
// mutation is followed by a refetch; the mirror is never edited locally.
package cart

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/tracing"
	"github.com/utafrali/storefront/services/storefront/internal/domain"
)

var (
	// ErrCartRead matches a failed cart refetch, including one that follows
	// an otherwise successful mutation.
	ErrCartRead = errors.New("cart read failed")
	// ErrMutation matches a failed add, update, remove or clear request.
	ErrMutation = errors.New("cart mutation failed")
)

// Op names a cart mutation.
type Op string

const (
	OpAdd    Op = "add"
	OpUpdate Op = "update"
	OpRemove Op = "remove"
	OpClear  Op = "clear"
)

// MutationError records which mutation failed.
type MutationError struct {
	Op  Op
	Err error
}

func (e *MutationError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrMutation, e.Op, e.Err)
}

// Unwrap exposes both ErrMutation and the cause.
func (e *MutationError) Unwrap() []error {
	return []error{ErrMutation, e.Err}
}

// API is the part of the shop client the store needs.
type API interface {
	GetCart(ctx context.Context) (domain.Cart, error)
	AddCartItem(ctx context.Context, productID string, qty int) error
	UpdateCartItem(ctx context.Context, cartItemID, productID string, qty int) error
	DeleteCartItem(ctx context.Context, cartItemID string) error
	ClearCart(ctx context.Context) error
}

// Store owns the cart mirror. It is safe for concurrent use.
//
// Each refetch draws a sequence number when it is issued. Its response is
// applied only if no later-issued refetch has been applied already, so the
// mirror never moves back to an older server state.
type Store struct {
	api    API
	logger *slog.Logger

	issued atomic.Uint64

	mu      sync.RWMutex
	mirror  domain.Cart
	applied uint64
}

// NewStore returns a store with an empty mirror.
func NewStore(api API, logger *slog.Logger) *Store {
	return &Store{api: api, logger: logger}
}

// Snapshot returns a copy of the mirror.
func (s *Store) Snapshot() domain.Cart {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mirror.Clone()
}

// FetchCart replaces the mirror with the server cart and returns the mirror
// as it stands afterwards. On failure the mirror is unchanged.
func (s *Store) FetchCart(ctx context.Context) (_ domain.Cart, err error) {
	seq := s.issued.Add(1)

	ctx, span := tracing.Tracer("storefront/cart").Start(ctx, "cart.fetch")
	defer func() { tracing.EndSpan(span, err) }()

	fresh, err := s.api.GetCart(ctx)
	if err != nil {
		return s.Snapshot(), fmt.Errorf("%w: %w", ErrCartRead, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if seq <= s.applied {
		staleRefetchTotal.Inc()
		s.logger.DebugContext(ctx, "discarding stale cart response",
			slog.Uint64("seq", seq),
			slog.Uint64("applied", s.applied),
		)
		return s.mirror.Clone(), nil
	}

	s.applied = seq
	s.mirror = fresh.Clone()
	return s.mirror.Clone(), nil
}

// AddItem adds qty of productID to the cart. qty must be at least 1.
func (s *Store) AddItem(ctx context.Context, productID string, qty int) error {
	if productID == "" {
		return apperrors.InvalidInput("product id is required")
	}
	if qty < 1 {
		return apperrors.InvalidInput(fmt.Sprintf("quantity must be at least 1, got %d", qty))
	}
	return s.mutate(ctx, OpAdd, func(ctx context.Context) error {
		return s.api.AddCartItem(ctx, productID, qty)
	})
}

// UpdateItem sets the quantity of a line. A quantity of zero or less is
// refused; removing a line is RemoveItem's job.
func (s *Store) UpdateItem(ctx context.Context, cartItemID, productID string, qty int) error {
	if cartItemID == "" {
		return apperrors.InvalidInput("cart item id is required")
	}
	if qty <= 0 {
		return apperrors.InvalidInput(fmt.Sprintf("quantity must be greater than 0, got %d", qty))
	}
	return s.mutate(ctx, OpUpdate, func(ctx context.Context) error {
		return s.api.UpdateCartItem(ctx, cartItemID, productID, qty)
	})
}

// RemoveItem deletes one line.
func (s *Store) RemoveItem(ctx context.Context, cartItemID string) error {
	if cartItemID == "" {
		return apperrors.InvalidInput("cart item id is required")
	}
	return s.mutate(ctx, OpRemove, func(ctx context.Context) error {
		return s.api.DeleteCartItem(ctx, cartItemID)
	})
}

// ClearCart deletes every line.
func (s *Store) ClearCart(ctx context.Context) error {
	return s.mutate(ctx, OpClear, s.api.ClearCart)
}

// mutate runs call and, if it succeeds, refetches the cart. A failed call
// returns a *MutationError and leaves the mirror alone. A failed refetch
// returns an error matching ErrCartRead.
func (s *Store) mutate(ctx context.Context, op Op, call func(context.Context) error) (err error) {
	ctx, span := tracing.Tracer("storefront/cart").Start(ctx, "cart."+string(op))
	defer func() { tracing.EndSpan(span, err) }()

	if err := call(ctx); err != nil {
		mutationsTotal.WithLabelValues(string(op), "error").Inc()
		s.logger.WarnContext(ctx, "cart mutation failed",
			slog.String("op", string(op)),
			slog.String("error", err.Error()),
		)
		return &MutationError{Op: op, Err: err}
	}
	mutationsTotal.WithLabelValues(string(op), "ok").Inc()

	if _, err := s.FetchCart(ctx); err != nil {
		s.logger.WarnContext(ctx, "cart refetch after mutation failed",
			slog.String("op", string(op)),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("refetch after %s: %w", op, err)
	}
	return nil
}
