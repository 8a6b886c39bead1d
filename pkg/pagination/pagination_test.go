package pagination

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultParams(t *testing.T) {
	p := DefaultParams()
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 10, p.PerPage)
	assert.Equal(t, 0, p.Offset)
	assert.Empty(t, p.Category)
}

func TestFromRequest(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		page     int
		perPage  int
		offset   int
		category string
	}{
		{name: "defaults", query: "", page: 1, perPage: 10, offset: 0},
		{name: "custom", query: "?page=3&per_page=50", page: 3, perPage: 50, offset: 100},
		{name: "negative page", query: "?page=-1", page: 1, perPage: 10, offset: 0},
		{name: "zero page", query: "?page=0", page: 1, perPage: 10, offset: 0},
		{name: "page not a number", query: "?page=abc", page: 1, perPage: 10, offset: 0},
		{name: "per_page over cap", query: "?per_page=500", page: 1, perPage: 10, offset: 0},
		{name: "per_page at cap", query: "?per_page=100&page=2", page: 2, perPage: 100, offset: 100},
		{name: "category", query: "?category=%20%E7%94%9C%E9%BB%9E%20", page: 1, perPage: 10, offset: 0, category: "甜點"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := FromRequest(httptest.NewRequest(http.MethodGet, "/api/shop/products"+tt.query, nil))
			assert.Equal(t, tt.page, p.Page)
			assert.Equal(t, tt.perPage, p.PerPage)
			assert.Equal(t, tt.offset, p.Offset)
			assert.Equal(t, tt.category, p.Category)
		})
	}
}

func TestNewMeta_MiddlePage(t *testing.T) {
	m := NewMeta(25, Params{Page: 2, PerPage: 10, Category: "甜點"})
	assert.Equal(t, Meta{TotalPages: 3, CurrentPage: 2, HasPre: true, HasNext: true, Category: "甜點"}, m)
}

func TestNewMeta_LastPage(t *testing.T) {
	m := NewMeta(20, Params{Page: 2, PerPage: 10})
	assert.Equal(t, 2, m.TotalPages)
	assert.True(t, m.HasPre)
	assert.False(t, m.HasNext)
}

func TestNewMeta_Empty(t *testing.T) {
	m := NewMeta(0, DefaultParams())
	assert.Equal(t, 0, m.TotalPages)
	assert.False(t, m.HasPre)
	assert.False(t, m.HasNext)
}
