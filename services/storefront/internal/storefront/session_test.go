package storefront

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/services/storefront/internal/cart"
	"github.com/utafrali/storefront/services/storefront/internal/catalog"
	"github.com/utafrali/storefront/services/storefront/internal/domain"
	"github.com/utafrali/storefront/services/storefront/internal/lock"
	"github.com/utafrali/storefront/services/storefront/internal/notify"
	"github.com/utafrali/storefront/services/storefront/internal/order"
)

func validForm() order.Form {
	return order.Form{
		Email:   "amy@example.com",
		Name:    "王小明",
		Tel:     "0912345678",
		Address: "台北市信義區",
	}
}

func TestStart_LoadsCatalogAndCart(t *testing.T) {
	shop := newFakeShop()
	shop.seed("p1", 2)
	s, rec := newTestSession(shop)

	require.NoError(t, s.Start(context.Background()))

	assert.True(t, s.Ready())
	assert.Len(t, s.Products(), 2)
	assert.Len(t, s.Cart().Items, 1)
	assert.Zero(t, rec.Total())
	assert.Equal(t, lock.PhaseIdle, s.View().Locks.Phase)
}

func TestStart_CatalogFailure(t *testing.T) {
	shop := newFakeShop()
	shop.failOn("list", errors.New("connection refused"))
	s, rec := newTestSession(shop)

	err := s.Start(context.Background())

	assert.ErrorIs(t, err, catalog.ErrCatalogFetch)
	assert.Empty(t, s.View().Products)
	assert.False(t, s.Ready())
	last, ok := rec.Last()
	require.True(t, ok)
	assert.Equal(t, notify.KindCatalogFetch, last.Kind)
	assert.Equal(t, "取得產品失敗", last.Message)
	assert.False(t, s.View().Busy)
}

func TestStart_CartFailureIsNotified(t *testing.T) {
	shop := newFakeShop()
	shop.failOn("get", errors.New("502"))
	s, rec := newTestSession(shop)

	err := s.Start(context.Background())

	require.Error(t, err)
	assert.True(t, s.Ready())
	last, _ := rec.Last()
	assert.Equal(t, notify.KindCartRead, last.Kind)
}

func TestAddToCart_TotalMatchesMirror(t *testing.T) {
	shop := newFakeShop()
	s, _ := newTestSession(shop)
	ctx := context.Background()
	require.NoError(t, s.Start(ctx))

	require.NoError(t, s.AddToCart(ctx, "p1", 1))
	require.NoError(t, s.AddToCart(ctx, "p2", 2))
	require.NoError(t, s.AddToCart(ctx, "p1", 1))

	v := s.View()
	require.Len(t, v.Cart, 2)
	assert.Equal(t, "460", v.TotalPrice.String())
	assert.Equal(t, 4, v.ItemCount)
	assert.True(t, v.CanSubmit)
	assert.Empty(t, v.Locks.Pending)
}

func TestIncrement_FromThreeToFour(t *testing.T) {
	shop := newFakeShop()
	id := shop.seed("p1", 3)
	s, _ := newTestSession(shop)
	ctx := context.Background()
	require.NoError(t, s.Start(ctx))

	require.NoError(t, s.Increment(ctx, id))

	assert.Equal(t, []int{4}, shop.sentQty)
	line, ok := s.Cart().FindItem(id)
	require.True(t, ok)
	assert.Equal(t, 4, line.Qty)
	assert.Equal(t, "320", s.View().TotalPrice.String())
}

func TestDecrement_FromOneRemoves(t *testing.T) {
	shop := newFakeShop()
	id := shop.seed("p1", 1)
	s, _ := newTestSession(shop)
	ctx := context.Background()
	require.NoError(t, s.Start(ctx))

	require.NoError(t, s.Decrement(ctx, id))

	assert.Zero(t, shop.count("update"), "never PUT qty 0")
	assert.Equal(t, 1, shop.count("delete"))
	_, ok := s.Cart().FindItem(id)
	assert.False(t, ok)
}

func TestDecrement_FromTwoUpdates(t *testing.T) {
	shop := newFakeShop()
	id := shop.seed("p2", 2)
	s, _ := newTestSession(shop)
	ctx := context.Background()
	require.NoError(t, s.Start(ctx))

	require.NoError(t, s.Decrement(ctx, id))

	assert.Equal(t, []int{1}, shop.sentQty)
	assert.Equal(t, "150", s.View().TotalPrice.String())
}

func TestUnknownCartItem_NoNetwork(t *testing.T) {
	shop := newFakeShop()
	s, rec := newTestSession(shop)
	ctx := context.Background()

	assert.ErrorIs(t, s.Increment(ctx, "ghost"), apperrors.ErrNotFound)
	assert.ErrorIs(t, s.Decrement(ctx, "ghost"), apperrors.ErrNotFound)
	assert.ErrorIs(t, s.RemoveItem(ctx, "ghost"), apperrors.ErrNotFound)
	assert.Zero(t, shop.count("update")+shop.count("delete"))
	assert.Zero(t, rec.Total())
}

func TestMutationFailure_ReleasesLockAndKeepsMirror(t *testing.T) {
	shop := newFakeShop()
	id := shop.seed("p1", 2)
	s, rec := newTestSession(shop)
	ctx := context.Background()
	require.NoError(t, s.Start(ctx))
	before := s.Cart()

	shop.failOn("update", apperrors.ServiceUnavailable("shop-api: down"))
	err := s.Increment(ctx, id)

	require.Error(t, err)
	assert.Equal(t, before, s.Cart())
	assert.False(t, s.View().Locks.Busy())
	last, _ := rec.Last()
	assert.Equal(t, notify.KindCartUpdate, last.Kind)
	assert.Equal(t, "修改購物車物品數量錯誤", last.Message)
}

func TestMutationSucceedsRefetchFails_NotifiesCartRead(t *testing.T) {
	shop := newFakeShop()
	s, rec := newTestSession(shop)
	ctx := context.Background()
	require.NoError(t, s.Start(ctx))

	shop.failOn("get", errors.New("read timeout"))
	require.Error(t, s.AddToCart(ctx, "p1", 1))

	last, _ := rec.Last()
	assert.Equal(t, notify.KindCartRead, last.Kind)
}

// cancellingShop cancels the caller's context as soon as a write is
// accepted, the way a browser hanging up mid-request would. Reads honour
// the context.
type cancellingShop struct {
	*fakeShop
	cancel context.CancelFunc
}

func (c *cancellingShop) GetCart(ctx context.Context) (domain.Cart, error) {
	if err := ctx.Err(); err != nil {
		return domain.Cart{}, err
	}
	return c.fakeShop.GetCart(ctx)
}

func (c *cancellingShop) AddCartItem(ctx context.Context, productID string, qty int) error {
	err := c.fakeShop.AddCartItem(ctx, productID, qty)
	c.cancel()
	return err
}

func (c *cancellingShop) SubmitOrder(ctx context.Context, req domain.OrderRequest) (*domain.OrderResult, error) {
	res, err := c.fakeShop.SubmitOrder(ctx, req)
	c.cancel()
	return res, err
}

func TestCallerCancellation_DoesNotAbortRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		run  func(t *testing.T, s *Session, ctx context.Context)
	}{
		{
			name: "add then refetch",
			run: func(t *testing.T, s *Session, ctx context.Context) {
				require.NoError(t, s.AddToCart(ctx, "p1", 1))
				require.Len(t, s.Cart().Items, 2)
			},
		},
		{
			name: "order then refetch",
			run: func(t *testing.T, s *Session, ctx context.Context) {
				receipt, err := s.SubmitOrder(ctx, validForm())
				require.NoError(t, err)
				assert.NoError(t, receipt.RefreshErr)
				assert.True(t, s.Cart().IsEmpty())
				assert.Equal(t, order.Form{}, s.Form())
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inner := newFakeShop()
			inner.seed("p2", 1)
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			shop := &cancellingShop{fakeShop: inner, cancel: cancel}

			rec := notify.NewRecorder(20)
			s := NewSession(shop, rec, slog.New(slog.NewTextHandler(io.Discard, nil)))
			require.NoError(t, s.Start(context.Background()))

			tt.run(t, s, ctx)

			assert.ErrorIs(t, ctx.Err(), context.Canceled)
			assert.Zero(t, rec.Total(), "no notice raised")
			assert.False(t, s.View().Locks.Busy())
		})
	}
}

func TestAddToCart_InvalidQuantityNotNotified(t *testing.T) {
	shop := newFakeShop()
	s, rec := newTestSession(shop)

	assert.ErrorIs(t, s.AddToCart(context.Background(), "p1", 0), apperrors.ErrInvalidInput)
	assert.Zero(t, shop.count("add"))
	assert.Zero(t, rec.Total())
}

func TestClearCart(t *testing.T) {
	shop := newFakeShop()
	shop.seed("p1", 1)
	shop.seed("p2", 3)
	s, rec := newTestSession(shop)
	ctx := context.Background()
	require.NoError(t, s.Start(ctx))

	require.NoError(t, s.ClearCart(ctx))
	assert.True(t, s.Cart().IsEmpty())
	assert.False(t, s.View().CanSubmit)

	shop.seed("p1", 1)
	require.NoError(t, s.RefreshCart(ctx))
	shop.failOn("clear", errors.New("boom"))
	require.Error(t, s.ClearCart(ctx))
	assert.Len(t, s.Cart().Items, 1)
	assert.Equal(t, lock.PhaseIdle, s.View().Locks.Phase)
	last, _ := rec.Last()
	assert.Equal(t, notify.KindCartClear, last.Kind)
}

func TestDetailOverlay(t *testing.T) {
	shop := newFakeShop()
	s, rec := newTestSession(shop)
	ctx := context.Background()
	require.NoError(t, s.Start(ctx))

	assert.ErrorIs(t, s.OpenDetail("missing"), apperrors.ErrNotFound)

	require.NoError(t, s.OpenDetail("p2"))
	require.NoError(t, s.SetDetailQuantity(4))
	assert.ErrorIs(t, s.SetDetailQuantity(11), apperrors.ErrInvalidInput)

	v := s.View()
	require.True(t, v.Detail.Open)
	assert.Equal(t, "p2", v.Detail.Product.ID)
	assert.Equal(t, 4, v.Detail.Quantity)

	require.NoError(t, s.AddFromDetail(ctx))
	assert.False(t, s.View().Detail.Open)
	assert.Equal(t, 4, s.Cart().ItemCount())

	// A failed add still closes the overlay and is notified.
	require.NoError(t, s.OpenDetail("p1"))
	shop.failOn("add", errors.New("boom"))
	require.Error(t, s.AddFromDetail(ctx))
	assert.False(t, s.View().Detail.Open)
	last, _ := rec.Last()
	assert.Equal(t, notify.KindCartAdd, last.Kind)

	require.NoError(t, s.OpenDetail("p1"))
	s.CloseDetail()
	assert.False(t, s.View().Detail.Open)
}

func TestSubmitOrder_Success(t *testing.T) {
	shop := newFakeShop()
	shop.seed("p1", 2)
	s, rec := newTestSession(shop)
	ctx := context.Background()
	require.NoError(t, s.Start(ctx))

	receipt, err := s.SubmitOrder(ctx, validForm())

	require.NoError(t, err)
	assert.Equal(t, "o1", receipt.OrderID)
	assert.Equal(t, "160", receipt.Total.String())
	assert.True(t, s.Cart().IsEmpty())
	assert.Equal(t, order.Form{}, s.Form())
	last, ok := s.LastReceipt()
	require.True(t, ok)
	assert.Equal(t, "o1", last.OrderID)
	assert.Zero(t, rec.Total())
	assert.Equal(t, "0912345678", shop.orders[0].User.Tel)
}

func TestSubmitOrder_EmptyCart(t *testing.T) {
	shop := newFakeShop()
	s, rec := newTestSession(shop)
	ctx := context.Background()
	require.NoError(t, s.Start(ctx))

	_, err := s.SubmitOrder(ctx, validForm())

	assert.ErrorIs(t, err, order.ErrEmptyCart)
	assert.Zero(t, shop.count("order"))
	assert.Equal(t, validForm(), s.Form())
	last, _ := rec.Last()
	assert.Equal(t, notify.KindEmptyCart, last.Kind)
	assert.Equal(t, "購物車內無商品，請先加入商品再送出訂單", last.Message)
}

func TestSubmitOrder_InvalidForm(t *testing.T) {
	shop := newFakeShop()
	shop.seed("p1", 1)
	s, rec := newTestSession(shop)
	ctx := context.Background()
	require.NoError(t, s.Start(ctx))

	form := validForm()
	form.Email = "not-an-email"
	_, err := s.SubmitOrder(ctx, form)

	var valErr *order.ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, "Email 格式錯誤", valErr.Fields["email"])
	assert.Zero(t, shop.count("order"))
	assert.Zero(t, rec.Total())
	assert.Equal(t, form, s.Form())
}

func TestSubmitOrder_UpstreamFailure(t *testing.T) {
	shop := newFakeShop()
	shop.seed("p1", 1)
	s, rec := newTestSession(shop)
	ctx := context.Background()
	require.NoError(t, s.Start(ctx))

	shop.failOn("order", errors.New("500"))
	_, err := s.SubmitOrder(ctx, validForm())

	assert.ErrorIs(t, err, order.ErrOrderSubmit)
	assert.Equal(t, validForm(), s.Form())
	assert.Len(t, s.Cart().Items, 1)
	last, _ := rec.Last()
	assert.Equal(t, notify.KindOrderSubmit, last.Kind)
	assert.Equal(t, lock.PhaseIdle, s.View().Locks.Phase)
}

func TestView_PriceLabels(t *testing.T) {
	shop := newFakeShop()
	s, _ := newTestSession(shop)
	require.NoError(t, s.Start(context.Background()))

	v := s.View()
	require.Len(t, v.Products, 2)
	assert.Equal(t, "原價 100 元", v.Products[0].OriginalPriceLabel)
	assert.Equal(t, "特價 80 元", v.Products[0].SpecialPriceLabel)
	assert.True(t, v.Products[0].OnSale)
	assert.False(t, v.Products[1].OnSale)
}

func TestConcurrentAdds_DistinctProducts(t *testing.T) {
	shop := newFakeShop()
	s, rec := newTestSession(shop)
	ctx := context.Background()
	require.NoError(t, s.Start(ctx))

	var wg sync.WaitGroup
	for _, id := range []string{"p1", "p2"} {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			assert.NoError(t, s.AddToCart(ctx, id, 1))
		}(id)
	}
	wg.Wait()

	assert.Len(t, s.Cart().Items, 2)
	assert.Equal(t, "230", s.View().TotalPrice.String())
	assert.Zero(t, rec.Total())
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want notify.Kind
		ok   bool
	}{
		{"catalog", catalog.ErrCatalogFetch, notify.KindCatalogFetch, true},
		{"remove", &cart.MutationError{Op: cart.OpRemove, Err: errors.New("x")}, notify.KindCartRemove, true},
		{"refetch after mutation", fmt.Errorf("refetch after add: %w", cart.ErrCartRead), notify.KindCartRead, true},
		{"empty cart", order.ErrEmptyCart, notify.KindEmptyCart, true},
		{"order", fmt.Errorf("%w: boom", order.ErrOrderSubmit), notify.KindOrderSubmit, true},
		{"busy", lock.ErrBusy, "", false},
		{"bad input", apperrors.InvalidInput("qty"), "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, ok := KindOf(tt.err)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, kind)
		})
	}
}
