package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPriceCart(t *testing.T) {
	products := map[string]Product{
		"p1": {ID: "p1", Title: "Tea", Price: decimal.NewFromInt(120)},
		"p2": {ID: "p2", Title: "Cake", Price: decimal.RequireFromString("80.5")},
	}
	cart := &Cart{Lines: []CartLine{
		{ID: "l1", ProductID: "p1", Qty: 3},
		{ID: "l2", ProductID: "p2", Qty: 2},
		{ID: "l3", ProductID: "gone", Qty: 1},
	}}

	priced := PriceCart(cart, products)

	require.Len(t, priced.Carts, 2, "lines for missing products are skipped")
	assert.True(t, decimal.NewFromInt(360).Equal(priced.Carts[0].Total))
	assert.True(t, priced.Carts[0].Total.Equal(priced.Carts[0].FinalTotal))
	assert.True(t, decimal.NewFromInt(521).Equal(priced.Total))
	assert.True(t, priced.Total.Equal(priced.FinalTotal))
}

func TestPriceCart_Empty(t *testing.T) {
	priced := PriceCart(NewCart("demo"), nil)
	assert.NotNil(t, priced.Carts)
	assert.Empty(t, priced.Carts)
	assert.True(t, priced.Total.IsZero())
}

func TestCart_Indexes(t *testing.T) {
	c := &Cart{Lines: []CartLine{{ID: "l1", ProductID: "p1"}, {ID: "l2", ProductID: "p2"}}}
	assert.Equal(t, 1, c.LineIndex("l2"))
	assert.Equal(t, -1, c.LineIndex("nope"))
	assert.Equal(t, 0, c.ProductIndex("p1"))
	assert.Equal(t, -1, c.ProductIndex("p9"))
	assert.False(t, c.IsEmpty())
	assert.True(t, NewCart("x").IsEmpty())
}

func TestOrderLinesFrom(t *testing.T) {
	priced := PriceCart(&Cart{Lines: []CartLine{{ID: "l1", ProductID: "p1", Qty: 2}}},
		map[string]Product{"p1": {ID: "p1", Title: "Tea", Price: decimal.NewFromInt(50)}})

	lines := OrderLinesFrom(priced)
	require.Len(t, lines, 1)
	assert.Equal(t, "Tea", lines[0].Title)
	assert.Equal(t, 2, lines[0].Qty)
	assert.True(t, decimal.NewFromInt(100).Equal(lines[0].Total))
}
