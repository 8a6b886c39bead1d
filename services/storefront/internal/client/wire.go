package client

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/utafrali/storefront/pkg/httpclient"
	"github.com/utafrali/storefront/services/storefront/internal/domain"
)

// envelope is the success flag and message every shop API body carries.
type envelope struct {
	Success *bool           `json:"success"`
	Message json.RawMessage `json:"message"`
}

// rejection returns ErrRejected when the body says success:false. A body
// without the flag is taken as accepted.
func (e envelope) rejection() error {
	if e.Success != nil && !*e.Success {
		if msg := httpclient.EnvelopeMessage(e.Message); msg != "" {
			return &RejectedError{Message: msg}
		}
		return &RejectedError{Message: "request rejected"}
	}
	return nil
}

type rejecter interface {
	rejection() error
}

type productDTO struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Category    string          `json:"category"`
	ImageURL    string          `json:"imageUrl"`
	Price       decimal.Decimal `json:"price"`
	OriginPrice decimal.Decimal `json:"origin_price"`
	Content     string          `json:"content"`
	Description string          `json:"description"`
	Unit        string          `json:"unit"`
}

func (p productDTO) toDomain() domain.Product {
	return domain.Product{
		ID:          p.ID,
		Title:       p.Title,
		Category:    p.Category,
		ImageURL:    p.ImageURL,
		Price:       p.Price,
		OriginPrice: p.OriginPrice,
		Content:     p.Content,
		Description: p.Description,
		Unit:        p.Unit,
	}
}

type productsResponse struct {
	envelope
	Products []productDTO `json:"products"`
}

type cartItemDTO struct {
	ID         string          `json:"id"`
	ProductID  string          `json:"product_id"`
	Product    productDTO      `json:"product"`
	Qty        int             `json:"qty"`
	Total      decimal.Decimal `json:"total"`
	FinalTotal decimal.Decimal `json:"final_total"`
}

type cartResponse struct {
	envelope
	Data struct {
		Carts      []cartItemDTO   `json:"carts"`
		Total      decimal.Decimal `json:"total"`
		FinalTotal decimal.Decimal `json:"final_total"`
	} `json:"data"`
}

func (r cartResponse) toDomain() domain.Cart {
	items := make([]domain.CartItem, 0, len(r.Data.Carts))
	for _, c := range r.Data.Carts {
		items = append(items, domain.CartItem{
			ID:        c.ID,
			ProductID: c.ProductID,
			Product: domain.CartProduct{
				ID:          c.Product.ID,
				Title:       c.Product.Title,
				Unit:        c.Product.Unit,
				ImageURL:    c.Product.ImageURL,
				Price:       c.Product.Price,
				OriginPrice: c.Product.OriginPrice,
			},
			Qty:        c.Qty,
			Total:      c.Total,
			FinalTotal: c.FinalTotal,
		})
	}
	return domain.Cart{Items: items, Total: r.Data.Total, FinalTotal: r.Data.FinalTotal}
}

type cartLineBody struct {
	Data struct {
		ProductID string `json:"product_id"`
		Qty       int    `json:"qty"`
	} `json:"data"`
}

func newCartLineBody(productID string, qty int) cartLineBody {
	var b cartLineBody
	b.Data.ProductID = productID
	b.Data.Qty = qty
	return b
}

type orderBody struct {
	Data domain.OrderRequest `json:"data"`
}

type orderResponse struct {
	envelope
	Total    decimal.Decimal `json:"total"`
	OrderID  string          `json:"orderId"`
	CreateAt int64           `json:"create_at"`
}

func (r orderResponse) toDomain() *domain.OrderResult {
	res := &domain.OrderResult{OrderID: r.OrderID, Total: r.Total}
	if r.CreateAt > 0 {
		res.CreatedAt = time.Unix(r.CreateAt, 0).UTC()
	}
	return res
}

// plainResponse is used for mutations whose body carries nothing but the envelope.
type plainResponse struct {
	envelope
}
