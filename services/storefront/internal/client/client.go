// Package client talks to the upstream shop API. It speaks only the wire
// contract and knows nothing about locks, sequencing or notices.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/httpclient"
	"github.com/utafrali/storefront/pkg/tracing"
	"github.com/utafrali/storefront/services/storefront/internal/domain"
)

const serviceName = "shop-api"

// ErrRejected matches any 2xx response whose body reports success:false.
var ErrRejected = errors.New("shop api rejected the request")

// RejectedError carries the shop's own explanation for a rejection.
type RejectedError struct {
	Message string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("%s: %s", ErrRejected, e.Message)
}

// Is lets errors.Is(err, ErrRejected) match.
func (e *RejectedError) Is(target error) bool {
	return target == ErrRejected
}

// Client is a typed wrapper around the shop API.
type Client struct {
	doer    httpclient.Doer
	baseURL string
	logger  *slog.Logger
	tracer  trace.Tracer
}

// New returns a Client for {apiBase}/api/{apiPath}.
func New(doer httpclient.Doer, apiBase, apiPath string, logger *slog.Logger) *Client {
	base := strings.TrimRight(apiBase, "/") + "/api/" + url.PathEscape(strings.Trim(apiPath, "/"))
	return &Client{
		doer:    doer,
		baseURL: base,
		logger:  logger,
		tracer:  tracing.Tracer("storefront/client"),
	}
}

// BaseURL returns the resolved endpoint prefix.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ListProducts returns the full product list.
func (c *Client) ListProducts(ctx context.Context) ([]domain.Product, error) {
	var resp productsResponse
	if err := c.call(ctx, "shop.list_products", http.MethodGet, "/products", nil, &resp); err != nil {
		return nil, err
	}
	products := make([]domain.Product, 0, len(resp.Products))
	for _, p := range resp.Products {
		products = append(products, p.toDomain())
	}
	return products, nil
}

// GetCart returns the server cart.
func (c *Client) GetCart(ctx context.Context) (domain.Cart, error) {
	var resp cartResponse
	if err := c.call(ctx, "shop.get_cart", http.MethodGet, "/cart", nil, &resp); err != nil {
		return domain.Cart{}, err
	}
	return resp.toDomain(), nil
}

// AddCartItem posts a new line, or adds qty to an existing line for the same product.
func (c *Client) AddCartItem(ctx context.Context, productID string, qty int) error {
	var resp plainResponse
	return c.call(ctx, "shop.add_cart_item", http.MethodPost, "/cart", newCartLineBody(productID, qty), &resp)
}

// UpdateCartItem sets the quantity of an existing line.
func (c *Client) UpdateCartItem(ctx context.Context, cartItemID, productID string, qty int) error {
	var resp plainResponse
	path := "/cart/" + url.PathEscape(cartItemID)
	return c.call(ctx, "shop.update_cart_item", http.MethodPut, path, newCartLineBody(productID, qty), &resp)
}

// DeleteCartItem removes one line.
func (c *Client) DeleteCartItem(ctx context.Context, cartItemID string) error {
	var resp plainResponse
	return c.call(ctx, "shop.delete_cart_item", http.MethodDelete, "/cart/"+url.PathEscape(cartItemID), nil, &resp)
}

// ClearCart removes every line.
func (c *Client) ClearCart(ctx context.Context) error {
	var resp plainResponse
	return c.call(ctx, "shop.clear_cart", http.MethodDelete, "/carts", nil, &resp)
}

// SubmitOrder creates an order from the current server cart.
func (c *Client) SubmitOrder(ctx context.Context, req domain.OrderRequest) (*domain.OrderResult, error) {
	var resp orderResponse
	if err := c.call(ctx, "shop.submit_order", http.MethodPost, "/order", orderBody{Data: req}, &resp); err != nil {
		return nil, err
	}
	return resp.toDomain(), nil
}

// Ping checks that the shop API answers. Any non-5xx status counts as up.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/products", http.NoBody)
	if err != nil {
		return fmt.Errorf("create ping request: %w", err)
	}
	resp, err := c.doer.Do(ctx, req)
	if err != nil {
		return fmt.Errorf("ping %s: %w", serviceName, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 500 {
		return fmt.Errorf("ping %s: status %d", serviceName, resp.StatusCode)
	}
	return nil
}

// call performs one request and decodes the body into out. Non-2xx statuses
// become AppErrors through httpclient.ParseResponseError; a 2xx body with
// success:false becomes a RejectedError.
func (c *Client) call(ctx context.Context, op, method, path string, body any, out rejecter) (err error) {
	ctx, span := c.tracer.Start(ctx, op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.method", method),
			attribute.String("shop.path", path),
		),
	)
	defer func() { tracing.EndSpan(span, err) }()

	req, err := httpclient.NewJSONRequest(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}

	resp, err := c.doer.Do(ctx, req)
	if err != nil {
		return fmt.Errorf("call %s %s %s: %w", serviceName, method, path, err)
	}

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return httpclient.ParseResponseError(resp, serviceName)
	}
	defer resp.Body.Close()

	// An empty body is an acceptance with nothing to report.
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	if err := out.rejection(); err != nil {
		c.logger.WarnContext(ctx, "shop api rejected request",
			slog.String("method", method),
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		return err
	}
	return nil
}

// CircuitOpenFallback answers for the shop API while its circuit breaker is
// open, so callers see a 503 AppError instead of the raw breaker error.
func CircuitOpenFallback(_ context.Context, _ error) (*http.Response, error) {
	return nil, apperrors.ServiceUnavailable("shop api is temporarily unavailable, please retry shortly")
}
