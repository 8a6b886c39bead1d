package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/utafrali/storefront/pkg/httputil"
	"github.com/utafrali/storefront/pkg/logger"
	"github.com/utafrali/storefront/pkg/validator"
	"github.com/utafrali/storefront/services/storefront/internal/domain"
	"github.com/utafrali/storefront/services/storefront/internal/lock"
	"github.com/utafrali/storefront/services/storefront/internal/notify"
	"github.com/utafrali/storefront/services/storefront/internal/order"
	"github.com/utafrali/storefront/services/storefront/internal/storefront"
)

// StorefrontHandler exposes a storefront session over JSON.
type StorefrontHandler struct {
	session *storefront.Session
	notices *notify.Recorder
	logger  *slog.Logger
}

// NewStorefrontHandler creates a new storefront HTTP handler.
func NewStorefrontHandler(session *storefront.Session, notices *notify.Recorder, logger *slog.Logger) *StorefrontHandler {
	return &StorefrontHandler{
		session: session,
		notices: notices,
		logger:  logger,
	}
}

// --- Request DTOs ---

// AddItemRequest is the JSON body for adding a product to the cart. A
// missing qty means 1.
type AddItemRequest struct {
	ProductID string `json:"product_id" validate:"notblank"`
	Qty       int    `json:"qty" validate:"omitempty,gte=1"`
}

// OpenDetailRequest is the JSON body for opening the detail overlay.
type OpenDetailRequest struct {
	ProductID string `json:"product_id" validate:"notblank"`
}

// DetailQuantityRequest is the JSON body for choosing an overlay quantity.
type DetailQuantityRequest struct {
	Qty int `json:"qty" validate:"required,gte=1,lte=10"`
}

// --- Response bodies ---

// CartResponse is the cart part of the page.
type CartResponse struct {
	Items      []domain.CartItem `json:"items"`
	TotalPrice decimal.Decimal   `json:"total_price"`
	ItemCount  int               `json:"item_count"`
}

// OrderResponse is returned for an accepted order.
type OrderResponse struct {
	Receipt *order.Receipt  `json:"receipt"`
	View    storefront.View `json:"view"`
}

// NoticesResponse lists recent notices.
type NoticesResponse struct {
	Notices []notify.Notice `json:"notices"`
	Total   uint64          `json:"total"`
}

// --- Handlers ---

// GetView handles GET /api/v1/storefront
func (h *StorefrontHandler) GetView(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: h.session.View()})
}

// ListProducts handles GET /api/v1/products
func (h *StorefrontHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: h.session.View().Products})
}

// GetCart handles GET /api/v1/cart
func (h *StorefrontHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	c := h.session.Cart()
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: CartResponse{
		Items:      c.Items,
		TotalPrice: c.TotalPrice(),
		ItemCount:  c.ItemCount(),
	}})
}

// RefreshCart handles POST /api/v1/cart/refresh
func (h *StorefrontHandler) RefreshCart(w http.ResponseWriter, r *http.Request) {
	if err := h.session.RefreshCart(r.Context()); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeView(w, http.StatusOK)
}

// AddItem handles POST /api/v1/cart/items
func (h *StorefrontHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req AddItemRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.Qty == 0 {
		req.Qty = 1
	}

	if err := h.session.AddToCart(r.Context(), req.ProductID, req.Qty); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeView(w, http.StatusOK)
}

// IncrementItem handles POST /api/v1/cart/items/{id}/increment
func (h *StorefrontHandler) IncrementItem(w http.ResponseWriter, r *http.Request) {
	if err := h.session.Increment(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeView(w, http.StatusOK)
}

// DecrementItem handles POST /api/v1/cart/items/{id}/decrement
func (h *StorefrontHandler) DecrementItem(w http.ResponseWriter, r *http.Request) {
	if err := h.session.Decrement(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeView(w, http.StatusOK)
}

// RemoveItem handles DELETE /api/v1/cart/items/{id}
func (h *StorefrontHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	if err := h.session.RemoveItem(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeView(w, http.StatusOK)
}

// ClearCart handles DELETE /api/v1/cart
func (h *StorefrontHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	if err := h.session.ClearCart(r.Context()); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeView(w, http.StatusOK)
}

// OpenDetail handles POST /api/v1/detail
func (h *StorefrontHandler) OpenDetail(w http.ResponseWriter, r *http.Request) {
	var req OpenDetailRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.session.OpenDetail(req.ProductID); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeView(w, http.StatusOK)
}

// SetDetailQuantity handles PUT /api/v1/detail/quantity
func (h *StorefrontHandler) SetDetailQuantity(w http.ResponseWriter, r *http.Request) {
	var req DetailQuantityRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.session.SetDetailQuantity(req.Qty); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeView(w, http.StatusOK)
}

// AddFromDetail handles POST /api/v1/detail/add
func (h *StorefrontHandler) AddFromDetail(w http.ResponseWriter, r *http.Request) {
	if err := h.session.AddFromDetail(r.Context()); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeView(w, http.StatusOK)
}

// CloseDetail handles DELETE /api/v1/detail
func (h *StorefrontHandler) CloseDetail(w http.ResponseWriter, r *http.Request) {
	h.session.CloseDetail()
	h.writeView(w, http.StatusOK)
}

// SubmitOrder handles POST /api/v1/order
func (h *StorefrontHandler) SubmitOrder(w http.ResponseWriter, r *http.Request) {
	// The form is validated by the submitter so its messages stay localised.
	var form order.Form
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		httputil.WriteValidationError(w, r, fmt.Errorf("decode request body: %w", err))
		return
	}

	receipt, err := h.session.SubmitOrder(r.Context(), form)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: OrderResponse{
		Receipt: receipt,
		View:    h.session.View(),
	}})
}

// ListNotices handles GET /api/v1/notices
func (h *StorefrontHandler) ListNotices(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: NoticesResponse{
		Notices: h.notices.Notices(),
		Total:   h.notices.Total(),
	}})
}

// --- Helpers ---

func (h *StorefrontHandler) writeView(w http.ResponseWriter, status int) {
	httputil.WriteJSON(w, status, httputil.Response{Data: h.session.View()})
}

// decode reads and validates a JSON body. It writes the 400 itself and
// reports false when the body is unusable.
func (h *StorefrontHandler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := validator.DecodeAndValidate(r, dst); err != nil {
		httputil.WriteValidationError(w, r, err)
		return false
	}
	return true
}

// writeError maps storefront failures onto statuses. Upstream failures are
// 502 with the shopper-facing notice text; everything else falls through to
// httputil.WriteError.
func (h *StorefrontHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	requestID := logger.CorrelationIDFromContext(r.Context())

	var valErr *order.ValidationError
	if errors.As(err, &valErr) {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{
				Code:      "VALIDATION_ERROR",
				Message:   "order form is invalid",
				Fields:    valErr.Fields,
				RequestID: requestID,
			},
		})
		return
	}

	switch {
	case errors.Is(err, lock.ErrBusy):
		h.writeCode(w, http.StatusConflict, "CART_BUSY", err.Error(), requestID)
		return
	case errors.Is(err, lock.ErrProductPending):
		h.writeCode(w, http.StatusConflict, "PRODUCT_PENDING", err.Error(), requestID)
		return
	case errors.Is(err, order.ErrEmptyCart):
		h.writeCode(w, http.StatusUnprocessableEntity, "EMPTY_CART", notify.KindEmptyCart.Message(), requestID)
		return
	}

	if kind, ok := storefront.KindOf(err); ok {
		h.logger.WarnContext(r.Context(), "upstream failure",
			slog.String("kind", string(kind)),
			slog.String("error", err.Error()),
		)
		h.writeCode(w, http.StatusBadGateway, "UPSTREAM_"+upstreamCode(kind), kind.Message(), requestID)
		return
	}

	httputil.WriteError(w, r, err, h.logger)
}

func (h *StorefrontHandler) writeCode(w http.ResponseWriter, status int, code, message, requestID string) {
	httputil.WriteJSON(w, status, httputil.Response{
		Error: &httputil.ErrorResponse{Code: code, Message: message, RequestID: requestID},
	})
}

var upstreamCodes = map[notify.Kind]string{
	notify.KindCatalogFetch: "CATALOG_FETCH",
	notify.KindCartRead:     "CART_READ",
	notify.KindCartAdd:      "CART_ADD",
	notify.KindCartUpdate:   "CART_UPDATE",
	notify.KindCartRemove:   "CART_REMOVE",
	notify.KindCartClear:    "CART_CLEAR",
	notify.KindOrderSubmit:  "ORDER_SUBMIT",
}

func upstreamCode(kind notify.Kind) string {
	if code, ok := upstreamCodes[kind]; ok {
		return code
	}
	return "ERROR"
}
