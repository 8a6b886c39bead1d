package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	pkgkafka "github.com/utafrali/storefront/pkg/kafka"
	"github.com/utafrali/storefront/pkg/logger"
	"github.com/utafrali/storefront/services/shopapi/internal/domain"
)

// Kafka topics for shop events.
var (
	TopicOrderCreated = pkgkafka.Topic("order", "created")
	TopicCartUpdated  = pkgkafka.Topic("cart", "updated")
)

// Aggregate type constants.
const (
	AggregateTypeOrder = "order"
	AggregateTypeCart  = "cart"
)

// SourceShopAPI identifies events originating from the shop API.
const SourceShopAPI = "shop-api"

// OrderCreatedData is the payload for an order.created event.
type OrderCreatedData struct {
	OrderID   string             `json:"order_id"`
	Path      string             `json:"path"`
	Email     string             `json:"email"`
	Lines     []domain.OrderLine `json:"lines"`
	LineCount int                `json:"line_count"`
	Total     decimal.Decimal    `json:"total"`
}

// CartUpdatedData is the payload for a cart.updated event.
type CartUpdatedData struct {
	Path      string          `json:"path"`
	Action    string          `json:"action"`
	LineCount int             `json:"line_count"`
	ItemCount int             `json:"item_count"`
	Total     decimal.Decimal `json:"total"`
}

// Publisher is the subset of pkg/kafka.Producer used here.
type Publisher interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

// Producer publishes shop domain events to Kafka.
type Producer struct {
	kafka  Publisher
	logger *slog.Logger
}

// NewProducer creates a new event producer for the shop API.
func NewProducer(kafka Publisher, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishOrderCreated publishes an order.created event.
func (p *Producer) PublishOrderCreated(ctx context.Context, order *domain.Order) error {
	data := OrderCreatedData{
		OrderID:   order.ID,
		Path:      order.Path,
		Email:     order.User.Email,
		Lines:     order.Lines,
		LineCount: len(order.Lines),
		Total:     order.Total,
	}

	return p.publish(ctx, TopicOrderCreated, order.ID, AggregateTypeOrder, data)
}

// PublishCartUpdated publishes a cart.updated event. action names the
// mutation ("add", "update", "remove", "clear").
func (p *Producer) PublishCartUpdated(ctx context.Context, path, action string, cart domain.PricedCart) error {
	items := 0
	for _, l := range cart.Carts {
		items += l.Qty
	}
	data := CartUpdatedData{
		Path:      path,
		Action:    action,
		LineCount: len(cart.Carts),
		ItemCount: items,
		Total:     cart.FinalTotal,
	}

	return p.publish(ctx, TopicCartUpdated, path, AggregateTypeCart, data)
}

func (p *Producer) publish(ctx context.Context, topic, aggregateID, aggregateType string, data any) error {
	evt, err := pkgkafka.NewEvent(topic, aggregateID, aggregateType, SourceShopAPI, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}
	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		evt.CorrelationID = id
	}

	if err := p.kafka.Publish(ctx, topic, evt); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}

	p.logger.DebugContext(ctx, "published event",
		slog.String("topic", topic),
		slog.String("aggregate_id", aggregateID),
	)

	return nil
}
