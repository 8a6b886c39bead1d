package storefront

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/utafrali/storefront/services/storefront/internal/domain"
	"github.com/utafrali/storefront/services/storefront/internal/lock"
	"github.com/utafrali/storefront/services/storefront/internal/order"
	"github.com/utafrali/storefront/services/storefront/internal/overlay"
)

// ProductView is a catalog row ready to render.
type ProductView struct {
	domain.Product
	OnSale             bool   `json:"on_sale"`
	OriginalPriceLabel string `json:"original_price_label"`
	SpecialPriceLabel  string `json:"special_price_label"`
	Pending            bool   `json:"pending"`
}

// CartLineView is a cart row ready to render.
type CartLineView struct {
	domain.CartItem
	Pending bool `json:"pending"`
	// CanDecrement is always true: at quantity 1 the minus button removes.
	CanDecrement bool `json:"can_decrement"`
}

// View is everything a front end needs to draw the page.
type View struct {
	Products      []ProductView   `json:"products"`
	CatalogLoaded bool            `json:"catalog_loaded"`
	Cart          []CartLineView  `json:"cart"`
	TotalPrice    decimal.Decimal `json:"total_price"`
	ItemCount     int             `json:"item_count"`
	Locks         lock.State      `json:"locks"`
	Busy          bool            `json:"busy"`
	Detail        overlay.State   `json:"detail"`
	Form          order.Form      `json:"form"`
	CanSubmit     bool            `json:"can_submit"`
}

// View builds the render model from the current state.
func (s *Session) View() View {
	locks := s.locks.Snapshot()
	pending := make(map[string]bool, len(locks.Pending))
	for _, id := range locks.Pending {
		pending[id] = true
	}

	products := s.catalog.Products()
	productViews := make([]ProductView, 0, len(products))
	for _, p := range products {
		productViews = append(productViews, ProductView{
			Product:            p,
			OnSale:             p.OnSale(),
			OriginalPriceLabel: priceLabel("原價", p.OriginPrice),
			SpecialPriceLabel:  priceLabel("特價", p.Price),
			Pending:            pending[p.ID],
		})
	}

	c := s.cart.Snapshot()
	lines := make([]CartLineView, 0, len(c.Items))
	for _, item := range c.Items {
		lines = append(lines, CartLineView{
			CartItem:     item,
			Pending:      pending[item.ProductID],
			CanDecrement: true,
		})
	}

	return View{
		Products:      productViews,
		CatalogLoaded: s.catalog.Loaded(),
		Cart:          lines,
		TotalPrice:    c.TotalPrice(),
		ItemCount:     c.ItemCount(),
		Locks:         locks,
		Busy:          locks.Phase != lock.PhaseIdle,
		Detail:        s.detail.State(),
		Form:          s.Form(),
		CanSubmit:     !c.IsEmpty() && locks.Phase == lock.PhaseIdle,
	}
}

func priceLabel(label string, amount decimal.Decimal) string {
	return fmt.Sprintf("%s %s 元", label, amount.String())
}
