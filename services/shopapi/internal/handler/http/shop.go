package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/httputil"
	"github.com/utafrali/storefront/pkg/pagination"
	"github.com/utafrali/storefront/pkg/validator"
	"github.com/utafrali/storefront/services/shopapi/internal/domain"
	"github.com/utafrali/storefront/services/shopapi/internal/repository"
	"github.com/utafrali/storefront/services/shopapi/internal/service"
)

// ShopHandler serves the shop API for one or more API paths.
type ShopHandler struct {
	shop   *service.ShopService
	logger *slog.Logger
}

// NewShopHandler creates a new shop HTTP handler.
func NewShopHandler(shop *service.ShopService, logger *slog.Logger) *ShopHandler {
	return &ShopHandler{
		shop:   shop,
		logger: logger,
	}
}

// --- Request DTOs ---

// CartLineRequest is the JSON body for POST /cart and PUT /cart/{id}.
type CartLineRequest struct {
	Data service.CartLineInput `json:"data"`
}

// OrderRequest is the JSON body for POST /order.
type OrderRequest struct {
	Data domain.OrderInput `json:"data"`
}

// --- Catalog ---

// ListProducts handles GET /api/{path}/products. Without a page parameter the
// whole catalog is returned; with one, a page plus its pagination block.
func (h *ShopHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if !q.Has("page") {
		h.listAll(w, r, q.Get("category"))
		return
	}

	params := pagination.FromRequest(r)
	products, total, err := h.shop.ListProducts(r.Context(), repository.ProductFilter{
		Category: params.Category,
		Page:     params.Page,
		PerPage:  params.PerPage,
	})
	if err != nil {
		httputil.WriteEnvelopeError(w, r, err, h.logger)
		return
	}

	httputil.WriteEnvelope(w, http.StatusOK, httputil.Envelope{
		"products":   products,
		"pagination": pagination.NewMeta(total, params),
	})
}

// ListAllProducts handles GET /api/{path}/products/all.
func (h *ShopHandler) ListAllProducts(w http.ResponseWriter, r *http.Request) {
	h.listAll(w, r, "")
}

func (h *ShopHandler) listAll(w http.ResponseWriter, r *http.Request, category string) {
	products, _, err := h.shop.ListProducts(r.Context(), repository.ProductFilter{Category: category})
	if err != nil {
		httputil.WriteEnvelopeError(w, r, err, h.logger)
		return
	}
	httputil.WriteEnvelope(w, http.StatusOK, httputil.Envelope{"products": products})
}

// GetProduct handles GET /api/{path}/product/{id}.
func (h *ShopHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	product, err := h.shop.GetProduct(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteEnvelopeError(w, r, err, h.logger)
		return
	}
	httputil.WriteEnvelope(w, http.StatusOK, httputil.Envelope{"product": product})
}

// --- Cart ---

// GetCart handles GET /api/{path}/cart.
func (h *ShopHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	cart, err := h.shop.GetCart(r.Context(), chi.URLParam(r, "path"))
	if err != nil {
		httputil.WriteEnvelopeError(w, r, err, h.logger)
		return
	}
	httputil.WriteEnvelope(w, http.StatusOK, httputil.Envelope{"data": cart})
}

// AddToCart handles POST /api/{path}/cart.
func (h *ShopHandler) AddToCart(w http.ResponseWriter, r *http.Request) {
	var req CartLineRequest
	if !h.decode(w, r, &req) {
		return
	}

	line, err := h.shop.AddToCart(r.Context(), chi.URLParam(r, "path"), req.Data)
	if err != nil {
		httputil.WriteEnvelopeError(w, r, err, h.logger)
		return
	}
	httputil.WriteEnvelope(w, http.StatusOK, httputil.Envelope{"message": "已加入購物車", "data": line})
}

// UpdateCartLine handles PUT /api/{path}/cart/{id}.
func (h *ShopHandler) UpdateCartLine(w http.ResponseWriter, r *http.Request) {
	var req CartLineRequest
	if !h.decode(w, r, &req) {
		return
	}

	line, err := h.shop.UpdateCartLine(r.Context(), chi.URLParam(r, "path"), chi.URLParam(r, "id"), req.Data)
	if err != nil {
		httputil.WriteEnvelopeError(w, r, err, h.logger)
		return
	}
	httputil.WriteEnvelope(w, http.StatusOK, httputil.Envelope{"message": "已更新購物車", "data": line})
}

// RemoveCartLine handles DELETE /api/{path}/cart/{id}.
func (h *ShopHandler) RemoveCartLine(w http.ResponseWriter, r *http.Request) {
	if err := h.shop.RemoveCartLine(r.Context(), chi.URLParam(r, "path"), chi.URLParam(r, "id")); err != nil {
		httputil.WriteEnvelopeError(w, r, err, h.logger)
		return
	}
	httputil.WriteEnvelope(w, http.StatusOK, httputil.Envelope{"message": "已刪除"})
}

// ClearCart handles DELETE /api/{path}/carts.
func (h *ShopHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	if err := h.shop.ClearCart(r.Context(), chi.URLParam(r, "path")); err != nil {
		httputil.WriteEnvelopeError(w, r, err, h.logger)
		return
	}
	httputil.WriteEnvelope(w, http.StatusOK, httputil.Envelope{"message": "已清空購物車"})
}

// --- Orders ---

// PlaceOrder handles POST /api/{path}/order.
func (h *ShopHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req OrderRequest
	if !h.decode(w, r, &req) {
		return
	}

	order, err := h.shop.PlaceOrder(r.Context(), chi.URLParam(r, "path"), req.Data)
	if err != nil {
		httputil.WriteEnvelopeError(w, r, err, h.logger)
		return
	}
	httputil.WriteEnvelope(w, http.StatusOK, httputil.Envelope{
		"message":   "已建立訂單",
		"total":     order.Total,
		"orderId":   order.ID,
		"create_at": order.CreatedAt.Unix(),
	})
}

// GetOrder handles GET /api/{path}/order/{id}.
func (h *ShopHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.shop.GetOrder(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteEnvelopeError(w, r, err, h.logger)
		return
	}
	if order.Path != chi.URLParam(r, "path") {
		httputil.WriteEnvelopeError(w, r, apperrors.NotFound("order", order.ID), h.logger)
		return
	}
	httputil.WriteEnvelope(w, http.StatusOK, httputil.Envelope{"order": order})
}

// decode reads and validates a JSON body, writing the error envelope on failure.
func (h *ShopHandler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		httputil.WriteEnvelopeError(w, r, apperrors.InvalidInput("invalid request body"), h.logger)
		return false
	}
	if err := validator.Validate(dst); err != nil {
		httputil.WriteEnvelopeError(w, r, err, h.logger)
		return false
	}
	return true
}
