package pagination

import (
	"net/http"
	"strconv"
	"strings"
)

// Params holds pagination parameters extracted from query strings.
type Params struct {
	Page     int
	PerPage  int
	Offset   int
	Category string
}

// DefaultParams returns the shop's paging defaults: ten products per page.
func DefaultParams() Params {
	return Params{
		Page:    1,
		PerPage: 10,
		Offset:  0,
	}
}

// FromRequest extracts page, per_page and category from the query string.
// Out-of-range values fall back to the defaults; per_page is capped at 100.
func FromRequest(r *http.Request) Params {
	p := DefaultParams()
	q := r.URL.Query()

	if page := q.Get("page"); page != "" {
		if v, err := strconv.Atoi(page); err == nil && v > 0 {
			p.Page = v
		}
	}

	if perPage := q.Get("per_page"); perPage != "" {
		if v, err := strconv.Atoi(perPage); err == nil && v > 0 && v <= 100 {
			p.PerPage = v
		}
	}

	p.Category = strings.TrimSpace(q.Get("category"))
	p.Offset = (p.Page - 1) * p.PerPage
	return p
}

// Meta is the pagination block returned next to a page of products.
type Meta struct {
	TotalPages  int    `json:"total_pages"`
	CurrentPage int    `json:"current_page"`
	HasPre      bool   `json:"has_pre"`
	HasNext     bool   `json:"has_next"`
	Category    string `json:"category"`
}

// NewMeta computes the pagination block for totalCount items.
func NewMeta(totalCount int, params Params) Meta {
	totalPages := totalCount / params.PerPage
	if totalCount%params.PerPage > 0 {
		totalPages++
	}

	return Meta{
		TotalPages:  totalPages,
		CurrentPage: params.Page,
		HasPre:      params.Page > 1,
		HasNext:     params.Page < totalPages,
		Category:    params.Category,
	}
}
