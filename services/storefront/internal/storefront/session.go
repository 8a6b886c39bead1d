// Package storefront ties the catalog, cart, locks, checkout and detail
// overlay into one shopper session. Every user action goes through here:
// it takes the right lock, runs the round trip, turns a failure into a
// notice and always releases the lock.
//
// Upstream round trips run on a context detached from the caller's
// cancellation: once a request is sent it is finished along with its
// refetch, and the HTTP client timeout is the only deadline.
package storefront

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/services/storefront/internal/cart"
	"github.com/utafrali/storefront/services/storefront/internal/catalog"
	"github.com/utafrali/storefront/services/storefront/internal/domain"
	"github.com/utafrali/storefront/services/storefront/internal/lock"
	"github.com/utafrali/storefront/services/storefront/internal/notify"
	"github.com/utafrali/storefront/services/storefront/internal/order"
	"github.com/utafrali/storefront/services/storefront/internal/overlay"
)

// ShopAPI is everything the session needs from the upstream shop.
type ShopAPI interface {
	catalog.API
	cart.API
	order.API
}

// Session is one shopper's storefront. It is safe for concurrent use.
type Session struct {
	catalog   *catalog.Catalog
	cart      *cart.Store
	locks     *lock.Controller
	submitter *order.Submitter
	detail    *overlay.Controller
	notifier  notify.Notifier
	logger    *slog.Logger

	formMu      sync.Mutex
	form        order.Form
	lastReceipt *order.Receipt
}

// NewSession wires a session over api. Notices go to notifier.
func NewSession(api ShopAPI, notifier notify.Notifier, logger *slog.Logger) *Session {
	s := &Session{
		catalog:  catalog.New(api, logger),
		cart:     cart.NewStore(api, logger),
		locks:    lock.New(),
		notifier: notifier,
		logger:   logger,
	}
	s.submitter = order.NewSubmitter(api, s.cart, s.locks, logger)
	s.detail = overlay.New(s.AddToCart)
	return s
}

// Start loads the catalog inside the loading-catalog phase and, alongside
// it, the cart. Failures are reported as notices and returned joined; the
// session stays usable with whatever did load.
func (s *Session) Start(ctx context.Context) error {
	ctx = context.WithoutCancel(ctx)
	var (
		wg      sync.WaitGroup
		cartErr error
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		cartErr = s.RefreshCart(ctx)
	}()

	catalogErr := s.LoadCatalog(ctx)
	wg.Wait()
	return errors.Join(catalogErr, cartErr)
}

// LoadCatalog fetches the product list.
func (s *Session) LoadCatalog(ctx context.Context) error {
	ctx = context.WithoutCancel(ctx)
	release, err := s.locks.BeginPhase(lock.PhaseLoadingCatalog)
	if err != nil {
		return err
	}
	defer release()

	if err := s.catalog.Load(ctx); err != nil {
		s.report(ctx, err)
		return err
	}
	return nil
}

// RefreshCart re-reads the server cart.
func (s *Session) RefreshCart(ctx context.Context) error {
	ctx = context.WithoutCancel(ctx)
	if _, err := s.cart.FetchCart(ctx); err != nil {
		s.report(ctx, err)
		return err
	}
	return nil
}

// AddToCart adds qty of productID while holding that product's lock.
func (s *Session) AddToCart(ctx context.Context, productID string, qty int) error {
	ctx = context.WithoutCancel(ctx)
	release, err := s.locks.AcquireProduct(productID)
	if err != nil {
		return err
	}
	defer release()

	if err := s.cart.AddItem(ctx, productID, qty); err != nil {
		s.report(ctx, err)
		return err
	}
	return nil
}

// Increment raises a line's quantity by one.
func (s *Session) Increment(ctx context.Context, cartItemID string) error {
	line, err := s.line(cartItemID)
	if err != nil {
		return err
	}
	return s.setQuantity(ctx, line, line.Qty+1)
}

// Decrement lowers a line's quantity by one. A line at 1 is removed instead,
// so a quantity of zero is never sent.
func (s *Session) Decrement(ctx context.Context, cartItemID string) error {
	line, err := s.line(cartItemID)
	if err != nil {
		return err
	}
	if line.Qty <= 1 {
		return s.remove(ctx, line)
	}
	return s.setQuantity(ctx, line, line.Qty-1)
}

// RemoveItem deletes a line.
func (s *Session) RemoveItem(ctx context.Context, cartItemID string) error {
	line, err := s.line(cartItemID)
	if err != nil {
		return err
	}
	return s.remove(ctx, line)
}

// ClearCart empties the cart inside the clearing-cart phase.
func (s *Session) ClearCart(ctx context.Context) error {
	ctx = context.WithoutCancel(ctx)
	release, err := s.locks.BeginPhase(lock.PhaseClearingCart)
	if err != nil {
		return err
	}
	defer release()

	if err := s.cart.ClearCart(ctx); err != nil {
		s.report(ctx, err)
		return err
	}
	return nil
}

// OpenDetail shows the detail overlay for a catalog product.
func (s *Session) OpenDetail(productID string) error {
	p, ok := s.catalog.Find(productID)
	if !ok {
		return apperrors.NotFound("product", productID)
	}
	s.detail.Open(p)
	return nil
}

// SetDetailQuantity picks a quantity in the overlay.
func (s *Session) SetDetailQuantity(n int) error {
	return s.detail.SetQuantity(n)
}

// AddFromDetail adds the overlay's product and closes the overlay.
func (s *Session) AddFromDetail(ctx context.Context) error {
	return s.detail.AddToCart(ctx)
}

// CloseDetail hides the overlay.
func (s *Session) CloseDetail() {
	s.detail.Close()
}

// SubmitOrder stores form as the session's form and checks out with it.
// Validation failures come back as *order.ValidationError and are not
// notified. On success the stored form is cleared.
func (s *Session) SubmitOrder(ctx context.Context, form order.Form) (*order.Receipt, error) {
	ctx = context.WithoutCancel(ctx)
	s.formMu.Lock()
	s.form = form
	s.formMu.Unlock()

	receipt, err := s.submitter.Submit(ctx, &form)

	s.formMu.Lock()
	s.form = form
	if err == nil {
		s.lastReceipt = receipt
	}
	s.formMu.Unlock()

	var valErr *order.ValidationError
	switch {
	case err == nil:
	case errors.As(err, &valErr), errors.Is(err, lock.ErrBusy):
		return nil, err
	default:
		s.report(ctx, err)
		return nil, err
	}

	if receipt.RefreshErr != nil {
		s.report(ctx, receipt.RefreshErr)
	}
	return receipt, nil
}

// Form returns the form as last submitted, or empty after a successful order.
func (s *Session) Form() order.Form {
	s.formMu.Lock()
	defer s.formMu.Unlock()
	return s.form
}

// LastReceipt returns the most recent successful order, if any.
func (s *Session) LastReceipt() (*order.Receipt, bool) {
	s.formMu.Lock()
	defer s.formMu.Unlock()
	return s.lastReceipt, s.lastReceipt != nil
}

// Cart returns the current mirror.
func (s *Session) Cart() domain.Cart {
	return s.cart.Snapshot()
}

// Products returns the loaded catalog.
func (s *Session) Products() []domain.Product {
	return s.catalog.Products()
}

// Ready reports whether the catalog has loaded at least once.
func (s *Session) Ready() bool {
	return s.catalog.Loaded()
}

func (s *Session) line(cartItemID string) (domain.CartItem, error) {
	line, ok := s.cart.Snapshot().FindItem(cartItemID)
	if !ok {
		return domain.CartItem{}, apperrors.NotFound("cart item", cartItemID)
	}
	return line, nil
}

func (s *Session) setQuantity(ctx context.Context, line domain.CartItem, qty int) error {
	ctx = context.WithoutCancel(ctx)
	release, err := s.locks.AcquireProduct(line.ProductID)
	if err != nil {
		return err
	}
	defer release()

	if err := s.cart.UpdateItem(ctx, line.ID, line.ProductID, qty); err != nil {
		s.report(ctx, err)
		return err
	}
	return nil
}

func (s *Session) remove(ctx context.Context, line domain.CartItem) error {
	ctx = context.WithoutCancel(ctx)
	release, err := s.locks.AcquireProduct(line.ProductID)
	if err != nil {
		return err
	}
	defer release()

	if err := s.cart.RemoveItem(ctx, line.ID); err != nil {
		s.report(ctx, err)
		return err
	}
	return nil
}

// report turns a failure into a notice. Bad input and lock refusals are
// answered to the caller only.
func (s *Session) report(ctx context.Context, err error) {
	if kind, ok := KindOf(err); ok {
		s.notifier.Notify(ctx, notify.New(kind, err))
	}
}

// KindOf classifies err by the step that failed. A mutation that went
// through but whose refetch failed is a cart read failure. ok is false for
// bad input and lock refusals.
func KindOf(err error) (kind notify.Kind, ok bool) {
	var mErr *cart.MutationError
	switch {
	case errors.Is(err, order.ErrEmptyCart):
		return notify.KindEmptyCart, true
	case errors.Is(err, catalog.ErrCatalogFetch):
		return notify.KindCatalogFetch, true
	case errors.Is(err, order.ErrOrderSubmit):
		return notify.KindOrderSubmit, true
	case errors.Is(err, cart.ErrCartRead):
		return notify.KindCartRead, true
	case errors.As(err, &mErr):
		return mutationKinds[mErr.Op], true
	default:
		return "", false
	}
}

var mutationKinds = map[cart.Op]notify.Kind{
	cart.OpAdd:    notify.KindCartAdd,
	cart.OpUpdate: notify.KindCartUpdate,
	cart.OpRemove: notify.KindCartRemove,
	cart.OpClear:  notify.KindCartClear,
}
