package order

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/utafrali/storefront/pkg/tracing"
	"github.com/utafrali/storefront/services/storefront/internal/domain"
	"github.com/utafrali/storefront/services/storefront/internal/lock"
)

var (
	// ErrEmptyCart is returned when checkout is attempted with nothing in the cart.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrOrderSubmit matches a failed order request.
	ErrOrderSubmit = errors.New("order submission failed")
)

// ValidationError carries field-scoped messages for an invalid form.
type ValidationError struct {
	Fields FieldErrors
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, name := range e.Fields.Fields() {
		parts = append(parts, name+": "+e.Fields[name])
	}
	return "invalid order form: " + strings.Join(parts, "; ")
}

// API is the part of the shop client the submitter needs.
type API interface {
	SubmitOrder(ctx context.Context, req domain.OrderRequest) (*domain.OrderResult, error)
}

// CartReader gives the submitter the current mirror and a way to refresh it.
type CartReader interface {
	Snapshot() domain.Cart
	FetchCart(ctx context.Context) (domain.Cart, error)
}

// PhaseLocker starts a whole-cart phase.
type PhaseLocker interface {
	BeginPhase(phase lock.Phase) (release func(), err error)
}

// Receipt describes an accepted order. RefreshErr is set when the order went
// through but the cart could not be re-read afterwards.
type Receipt struct {
	OrderID    string          `json:"order_id"`
	Total      decimal.Decimal `json:"total"`
	CreatedAt  time.Time       `json:"created_at"`
	RefreshErr error           `json:"-"`
}

// Submitter runs checkout.
type Submitter struct {
	api    API
	cart   CartReader
	locks  PhaseLocker
	logger *slog.Logger
}

// NewSubmitter wires a Submitter.
func NewSubmitter(api API, cart CartReader, locks PhaseLocker, logger *slog.Logger) *Submitter {
	return &Submitter{api: api, cart: cart, locks: locks, logger: logger}
}

// Submit validates form, checks the cart has lines, and posts the order.
//
// An invalid form returns *ValidationError and an empty cart returns
// ErrEmptyCart, both before any network call and with form untouched. On
// success the cart is refetched and form is reset. On failure form is kept
// so the shopper can retry.
func (s *Submitter) Submit(ctx context.Context, form *Form) (_ *Receipt, err error) {
	if fields := Validate(*form); len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	release, err := s.locks.BeginPhase(lock.PhaseSubmittingOrder)
	if err != nil {
		return nil, err
	}
	defer release()

	// The phase excludes cart mutations, so the mirror cannot empty after this.
	if s.cart.Snapshot().IsEmpty() {
		return nil, ErrEmptyCart
	}

	ctx, span := tracing.Tracer("storefront/order").Start(ctx, "order.submit")
	defer func() { tracing.EndSpan(span, err) }()

	result, err := s.api.SubmitOrder(ctx, form.Request())
	if err != nil {
		s.logger.WarnContext(ctx, "order submission failed", slog.String("error", err.Error()))
		return nil, fmt.Errorf("%w: %w", ErrOrderSubmit, err)
	}

	receipt := &Receipt{OrderID: result.OrderID, Total: result.Total, CreatedAt: result.CreatedAt}
	if _, err := s.cart.FetchCart(ctx); err != nil {
		receipt.RefreshErr = err
	}
	form.Reset()

	s.logger.InfoContext(ctx, "order submitted",
		slog.String("order_id", result.OrderID),
		slog.String("total", result.Total.String()),
	)
	return receipt, nil
}
