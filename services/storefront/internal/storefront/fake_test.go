package storefront

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/utafrali/storefront/services/storefront/internal/domain"
	"github.com/utafrali/storefront/services/storefront/internal/notify"
)

// fakeShop is an in-memory shop API with per-operation failure injection.
type fakeShop struct {
	mu       sync.Mutex
	products []domain.Product
	lines    []domain.CartItem
	nextID   int
	fail     map[string]error
	calls    map[string]int
	sentQty  []int
	orders   []domain.OrderRequest
}

func newFakeShop() *fakeShop {
	return &fakeShop{
		products: []domain.Product{
			{ID: "p1", Title: "Oolong", Price: decimal.NewFromInt(80), OriginPrice: decimal.NewFromInt(100), Unit: "cup"},
			{ID: "p2", Title: "Cheesecake", Price: decimal.NewFromInt(150), OriginPrice: decimal.NewFromInt(150), Unit: "slice"},
		},
		fail:  map[string]error{},
		calls: map[string]int{},
	}
}

func (f *fakeShop) failOn(op string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail[op] = err
}

func (f *fakeShop) count(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakeShop) enter(op string) error {
	f.mu.Lock()
	f.calls[op]++
	return f.fail[op]
}

func (f *fakeShop) price(productID string) decimal.Decimal {
	for _, p := range f.products {
		if p.ID == productID {
			return p.Price
		}
	}
	return decimal.Zero
}

func (f *fakeShop) seed(productID string, qty int) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.addLocked(productID, qty)
}

func (f *fakeShop) addLocked(productID string, qty int) string {
	for i := range f.lines {
		if f.lines[i].ProductID == productID {
			f.setQtyLocked(i, f.lines[i].Qty+qty)
			return f.lines[i].ID
		}
	}
	f.nextID++
	id := fmt.Sprintf("c%d", f.nextID)
	f.lines = append(f.lines, domain.CartItem{ID: id, ProductID: productID, Product: domain.CartProduct{ID: productID}})
	f.setQtyLocked(len(f.lines)-1, qty)
	return id
}

func (f *fakeShop) setQtyLocked(i, qty int) {
	total := f.price(f.lines[i].ProductID).Mul(decimal.NewFromInt(int64(qty)))
	f.lines[i].Qty = qty
	f.lines[i].Total = total
	f.lines[i].FinalTotal = total
}

func (f *fakeShop) ListProducts(context.Context) ([]domain.Product, error) {
	err := f.enter("list")
	defer f.mu.Unlock()
	if err != nil {
		return nil, err
	}
	out := make([]domain.Product, len(f.products))
	copy(out, f.products)
	return out, nil
}

func (f *fakeShop) GetCart(context.Context) (domain.Cart, error) {
	err := f.enter("get")
	defer f.mu.Unlock()
	if err != nil {
		return domain.Cart{}, err
	}
	c := domain.Cart{Items: make([]domain.CartItem, len(f.lines))}
	copy(c.Items, f.lines)
	c.Total = c.TotalPrice()
	c.FinalTotal = c.TotalPrice()
	return c, nil
}

func (f *fakeShop) AddCartItem(_ context.Context, productID string, qty int) error {
	err := f.enter("add")
	defer f.mu.Unlock()
	if err != nil {
		return err
	}
	f.addLocked(productID, qty)
	return nil
}

func (f *fakeShop) UpdateCartItem(_ context.Context, cartItemID, _ string, qty int) error {
	err := f.enter("update")
	defer f.mu.Unlock()
	f.sentQty = append(f.sentQty, qty)
	if err != nil {
		return err
	}
	for i := range f.lines {
		if f.lines[i].ID == cartItemID {
			f.setQtyLocked(i, qty)
			return nil
		}
	}
	return fmt.Errorf("cart item %s not found", cartItemID)
}

func (f *fakeShop) DeleteCartItem(_ context.Context, cartItemID string) error {
	err := f.enter("delete")
	defer f.mu.Unlock()
	if err != nil {
		return err
	}
	for i := range f.lines {
		if f.lines[i].ID == cartItemID {
			f.lines = append(f.lines[:i], f.lines[i+1:]...)
			return nil
		}
	}
	return nil
}

func (f *fakeShop) ClearCart(context.Context) error {
	err := f.enter("clear")
	defer f.mu.Unlock()
	if err != nil {
		return err
	}
	f.lines = nil
	return nil
}

func (f *fakeShop) SubmitOrder(_ context.Context, req domain.OrderRequest) (*domain.OrderResult, error) {
	err := f.enter("order")
	defer f.mu.Unlock()
	if err != nil {
		return nil, err
	}
	total := decimal.Zero
	for _, l := range f.lines {
		total = total.Add(l.FinalTotal)
	}
	f.orders = append(f.orders, req)
	f.lines = nil
	return &domain.OrderResult{OrderID: fmt.Sprintf("o%d", len(f.orders)), Total: total, CreatedAt: time.Now()}, nil
}

func newTestSession(shop *fakeShop) (*Session, *notify.Recorder) {
	rec := notify.NewRecorder(20)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewSession(shop, rec, logger), rec
}
