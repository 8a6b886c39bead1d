package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/services/shopapi/internal/domain"
	"github.com/utafrali/storefront/services/shopapi/internal/repository"
)

// Cart limits.
const (
	// MaxQuantityPerLine is the largest quantity a single cart line may hold.
	MaxQuantityPerLine = 100
	// MaxLinesPerCart is the maximum number of distinct products in a cart.
	MaxLinesPerCart = 50
)

// Cart actions reported in cart.updated events.
const (
	ActionAdd    = "add"
	ActionUpdate = "update"
	ActionRemove = "remove"
	ActionClear  = "clear"
)

// CartLineInput is the data block of POST /cart and PUT /cart/{id}.
type CartLineInput struct {
	ProductID string `json:"product_id" validate:"required,notblank"`
	Qty       int    `json:"qty" validate:"gte=1"`
}

// EventPublisher publishes shop domain events.
type EventPublisher interface {
	PublishOrderCreated(ctx context.Context, order *domain.Order) error
	PublishCartUpdated(ctx context.Context, path, action string, cart domain.PricedCart) error
}

// ShopService implements the catalog, cart and order operations of the shop API.
type ShopService struct {
	products repository.ProductRepository
	orders   repository.OrderRepository
	carts    repository.CartRepository
	events   EventPublisher
	logger   *slog.Logger

	// Cart documents are read-modify-written; one lock per path keeps
	// concurrent mutations of the same cart from losing updates.
	mu    sync.Mutex
	locks map[string]*sync.Mutex

	now func() time.Time
}

// NewShopService creates a new shop service.
func NewShopService(
	products repository.ProductRepository,
	orders repository.OrderRepository,
	carts repository.CartRepository,
	events EventPublisher,
	logger *slog.Logger,
) *ShopService {
	return &ShopService{
		products: products,
		orders:   orders,
		carts:    carts,
		events:   events,
		logger:   logger,
		locks:    make(map[string]*sync.Mutex),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *ShopService) lockCart(path string) func() {
	s.mu.Lock()
	l, ok := s.locks[path]
	if !ok {
		l = &sync.Mutex{}
		s.locks[path] = l
	}
	s.mu.Unlock()

	l.Lock()
	return l.Unlock
}

// ListProducts returns a page of enabled products and the total match count.
// A zero PerPage returns the whole catalog.
func (s *ShopService) ListProducts(ctx context.Context, filter repository.ProductFilter) ([]domain.Product, int, error) {
	products, total, err := s.products.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	return products, total, nil
}

// GetProduct returns one enabled product.
func (s *ShopService) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	if strings.TrimSpace(id) == "" {
		return nil, apperrors.InvalidInput("product id is required")
	}
	return s.products.GetByID(ctx, id)
}

// GetCart returns the priced cart for path.
func (s *ShopService) GetCart(ctx context.Context, path string) (domain.PricedCart, error) {
	cart, err := s.carts.Get(ctx, path)
	if err != nil {
		return domain.PricedCart{}, fmt.Errorf("get cart: %w", err)
	}
	return s.price(ctx, cart)
}

// AddToCart adds qty of a product to the cart. A product already in the cart
// has its line quantity increased instead of gaining a second line.
func (s *ShopService) AddToCart(ctx context.Context, path string, input CartLineInput) (domain.PricedLine, error) {
	if input.Qty < 1 {
		return domain.PricedLine{}, apperrors.InvalidInput("qty must be at least 1")
	}
	product, err := s.products.GetByID(ctx, input.ProductID)
	if err != nil {
		return domain.PricedLine{}, err
	}

	unlock := s.lockCart(path)
	defer unlock()

	cart, err := s.carts.Get(ctx, path)
	if err != nil {
		return domain.PricedLine{}, fmt.Errorf("get cart: %w", err)
	}

	var line domain.CartLine
	if i := cart.ProductIndex(input.ProductID); i >= 0 {
		qty := cart.Lines[i].Qty + input.Qty
		if qty > MaxQuantityPerLine {
			return domain.PricedLine{}, apperrors.InvalidInput(fmt.Sprintf("combined qty must not exceed %d", MaxQuantityPerLine))
		}
		cart.Lines[i].Qty = qty
		line = cart.Lines[i]
	} else {
		if input.Qty > MaxQuantityPerLine {
			return domain.PricedLine{}, apperrors.InvalidInput(fmt.Sprintf("qty must not exceed %d", MaxQuantityPerLine))
		}
		if len(cart.Lines) >= MaxLinesPerCart {
			return domain.PricedLine{}, apperrors.InvalidInput(fmt.Sprintf("cart must not contain more than %d products", MaxLinesPerCart))
		}
		line = domain.CartLine{
			ID:        uuid.New().String(),
			ProductID: input.ProductID,
			Qty:       input.Qty,
			AddedAt:   s.now(),
		}
		cart.Lines = append(cart.Lines, line)
	}

	if err := s.save(ctx, cart, ActionAdd); err != nil {
		return domain.PricedLine{}, err
	}

	s.logger.InfoContext(ctx, "cart line added",
		slog.String("path", path),
		slog.String("product_id", input.ProductID),
		slog.Int("qty", line.Qty),
	)

	priced := domain.PriceCart(&domain.Cart{Lines: []domain.CartLine{line}}, map[string]domain.Product{product.ID: *product})
	return priced.Carts[0], nil
}

// UpdateCartLine sets the quantity of an existing line.
func (s *ShopService) UpdateCartLine(ctx context.Context, path, lineID string, input CartLineInput) (domain.PricedLine, error) {
	if input.Qty < 1 {
		return domain.PricedLine{}, apperrors.InvalidInput("qty must be at least 1")
	}
	if input.Qty > MaxQuantityPerLine {
		return domain.PricedLine{}, apperrors.InvalidInput(fmt.Sprintf("qty must not exceed %d", MaxQuantityPerLine))
	}

	unlock := s.lockCart(path)
	defer unlock()

	cart, err := s.carts.Get(ctx, path)
	if err != nil {
		return domain.PricedLine{}, fmt.Errorf("get cart: %w", err)
	}

	i := cart.LineIndex(lineID)
	if i < 0 {
		return domain.PricedLine{}, apperrors.NotFound("cart line", lineID)
	}
	if cart.Lines[i].ProductID != input.ProductID {
		return domain.PricedLine{}, apperrors.InvalidInput("product_id does not match the cart line")
	}
	cart.Lines[i].Qty = input.Qty

	product, err := s.products.GetByID(ctx, input.ProductID)
	if err != nil {
		return domain.PricedLine{}, err
	}

	if err := s.save(ctx, cart, ActionUpdate); err != nil {
		return domain.PricedLine{}, err
	}

	s.logger.InfoContext(ctx, "cart line updated",
		slog.String("path", path),
		slog.String("line_id", lineID),
		slog.Int("qty", input.Qty),
	)

	priced := domain.PriceCart(&domain.Cart{Lines: []domain.CartLine{cart.Lines[i]}}, map[string]domain.Product{product.ID: *product})
	return priced.Carts[0], nil
}

// RemoveCartLine deletes one line from the cart.
func (s *ShopService) RemoveCartLine(ctx context.Context, path, lineID string) error {
	unlock := s.lockCart(path)
	defer unlock()

	cart, err := s.carts.Get(ctx, path)
	if err != nil {
		return fmt.Errorf("get cart: %w", err)
	}

	i := cart.LineIndex(lineID)
	if i < 0 {
		return apperrors.NotFound("cart line", lineID)
	}
	cart.Lines = append(cart.Lines[:i], cart.Lines[i+1:]...)

	if err := s.save(ctx, cart, ActionRemove); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "cart line removed",
		slog.String("path", path),
		slog.String("line_id", lineID),
	)
	return nil
}

// ClearCart removes every line from the cart.
func (s *ShopService) ClearCart(ctx context.Context, path string) error {
	unlock := s.lockCart(path)
	defer unlock()

	if err := s.carts.Delete(ctx, path); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	s.publishCart(ctx, path, ActionClear, domain.PricedCart{Carts: []domain.PricedLine{}})

	s.logger.InfoContext(ctx, "cart cleared", slog.String("path", path))
	return nil
}

// PlaceOrder turns the current cart into an order and empties the cart.
func (s *ShopService) PlaceOrder(ctx context.Context, path string, input domain.OrderInput) (*domain.Order, error) {
	unlock := s.lockCart(path)
	defer unlock()

	cart, err := s.carts.Get(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("get cart: %w", err)
	}
	priced, err := s.price(ctx, cart)
	if err != nil {
		return nil, err
	}
	if len(priced.Carts) == 0 {
		return nil, apperrors.Unprocessable("EMPTY_CART", "cart is empty")
	}

	order := &domain.Order{
		ID:   uuid.New().String(),
		Path: path,
		User: domain.OrderUser{
			Name:    strings.TrimSpace(input.User.Name),
			Email:   strings.TrimSpace(input.User.Email),
			Tel:     strings.TrimSpace(input.User.Tel),
			Address: strings.TrimSpace(input.User.Address),
		},
		Message:   strings.TrimSpace(input.Message),
		Lines:     domain.OrderLinesFrom(priced),
		Total:     priced.FinalTotal,
		CreatedAt: s.now(),
	}

	if err := s.orders.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	// The order is placed; a cart that fails to clear is logged, not surfaced.
	if err := s.carts.Delete(ctx, path); err != nil {
		s.logger.ErrorContext(ctx, "failed to clear cart after order",
			slog.String("order_id", order.ID),
			slog.String("error", err.Error()),
		)
	}

	if err := s.events.PublishOrderCreated(ctx, order); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish order.created event",
			slog.String("order_id", order.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "order placed",
		slog.String("order_id", order.ID),
		slog.String("path", path),
		slog.Int("lines", len(order.Lines)),
		slog.String("total", order.Total.String()),
	)

	return order, nil
}

// GetOrder returns a placed order.
func (s *ShopService) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	if strings.TrimSpace(id) == "" {
		return nil, apperrors.InvalidInput("order id is required")
	}
	return s.orders.GetByID(ctx, id)
}

func (s *ShopService) price(ctx context.Context, cart *domain.Cart) (domain.PricedCart, error) {
	ids := make([]string, 0, len(cart.Lines))
	for _, l := range cart.Lines {
		ids = append(ids, l.ProductID)
	}
	products, err := s.products.GetByIDs(ctx, ids)
	if err != nil {
		return domain.PricedCart{}, fmt.Errorf("price cart: %w", err)
	}
	return domain.PriceCart(cart, products), nil
}

// save stores cart and publishes cart.updated with its new totals.
func (s *ShopService) save(ctx context.Context, cart *domain.Cart, action string) error {
	cart.UpdatedAt = s.now()
	if err := s.carts.Save(ctx, cart); err != nil {
		return fmt.Errorf("save cart: %w", err)
	}

	priced, err := s.price(ctx, cart)
	if err != nil {
		s.logger.WarnContext(ctx, "skipping cart.updated event, pricing failed",
			slog.String("path", cart.Path),
			slog.String("error", err.Error()),
		)
		return nil
	}
	s.publishCart(ctx, cart.Path, action, priced)
	return nil
}

func (s *ShopService) publishCart(ctx context.Context, path, action string, cart domain.PricedCart) {
	if err := s.events.PublishCartUpdated(ctx, path, action, cart); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish cart.updated event",
			slog.String("path", path),
			slog.String("action", action),
			slog.String("error", err.Error()),
		)
	}
}
