package overlay

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/services/storefront/internal/domain"
)

type addCall struct {
	productID string
	qty       int
}

func recordingAdder(err error) (AddFunc, *[]addCall) {
	var calls []addCall
	return func(_ context.Context, productID string, qty int) error {
		calls = append(calls, addCall{productID, qty})
		return err
	}, &calls
}

func TestOpen_ResetsQuantity(t *testing.T) {
	add, _ := recordingAdder(nil)
	c := New(add)

	c.Open(domain.Product{ID: "p1"})
	require.NoError(t, c.SetQuantity(7))
	c.Close()

	c.Open(domain.Product{ID: "p2"})
	st := c.State()
	assert.True(t, st.Open)
	assert.Equal(t, "p2", st.Product.ID)
	assert.Equal(t, 1, st.Quantity)
}

func TestSetQuantity_Bounds(t *testing.T) {
	add, _ := recordingAdder(nil)
	c := New(add)
	c.Open(domain.Product{ID: "p1"})

	for _, n := range []int{1, 5, 10} {
		assert.NoError(t, c.SetQuantity(n))
		assert.Equal(t, n, c.State().Quantity)
	}
	for _, n := range []int{0, -1, 11} {
		assert.ErrorIs(t, c.SetQuantity(n), apperrors.ErrInvalidInput)
	}
	assert.Equal(t, 10, c.State().Quantity)
}

func TestSetQuantity_RequiresOpen(t *testing.T) {
	add, _ := recordingAdder(nil)
	c := New(add)
	assert.ErrorIs(t, c.SetQuantity(2), apperrors.ErrInvalidInput)
}

func TestAddToCart_DelegatesAndCloses(t *testing.T) {
	add, calls := recordingAdder(nil)
	c := New(add)
	c.Open(domain.Product{ID: "p1"})
	require.NoError(t, c.SetQuantity(3))

	require.NoError(t, c.AddToCart(context.Background()))

	assert.Equal(t, []addCall{{"p1", 3}}, *calls)
	st := c.State()
	assert.False(t, st.Open)
	assert.Nil(t, st.Product)
	assert.False(t, st.Pending)
}

func TestAddToCart_ClosesOnFailure(t *testing.T) {
	boom := errors.New("boom")
	add, _ := recordingAdder(boom)
	c := New(add)
	c.Open(domain.Product{ID: "p1"})

	assert.ErrorIs(t, c.AddToCart(context.Background()), boom)
	assert.False(t, c.State().Open)
}

func TestAddToCart_RequiresOpen(t *testing.T) {
	add, calls := recordingAdder(nil)
	c := New(add)

	assert.ErrorIs(t, c.AddToCart(context.Background()), apperrors.ErrInvalidInput)
	assert.Empty(t, *calls)
}

func TestAddToCart_RejectsWhilePending(t *testing.T) {
	entered := make(chan struct{})
	proceed := make(chan struct{})
	c := New(func(context.Context, string, int) error {
		close(entered)
		<-proceed
		return nil
	})
	c.Open(domain.Product{ID: "p1"})

	done := make(chan error)
	go func() { done <- c.AddToCart(context.Background()) }()
	<-entered

	assert.True(t, c.State().Pending)
	assert.ErrorIs(t, c.AddToCart(context.Background()), apperrors.ErrConflict)

	close(proceed)
	assert.NoError(t, <-done)
}
