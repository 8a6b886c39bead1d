package redis

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/storefront/services/shopapi/internal/domain"
)

func setupTestRedis(t *testing.T) (*CartRepository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewCartRepository(client, 24*time.Hour), mr
}

func sampleCart() *domain.Cart {
	now := time.Now().UTC().Truncate(time.Millisecond)
	return &domain.Cart{
		Path: "demo",
		Lines: []domain.CartLine{
			{ID: "line-1", ProductID: "prod-1", Qty: 2, AddedAt: now},
		},
		UpdatedAt: now,
	}
}

func TestCartRepository_Get_Success(t *testing.T) {
	repo, mr := setupTestRedis(t)

	cart := sampleCart()
	data, err := json.Marshal(cart)
	require.NoError(t, err)
	require.NoError(t, mr.Set("cart:demo", string(data)))

	got, err := repo.Get(context.Background(), "demo")
	require.NoError(t, err)
	assert.Equal(t, "demo", got.Path)
	require.Len(t, got.Lines, 1)
	assert.Equal(t, "line-1", got.Lines[0].ID)
	assert.Equal(t, "prod-1", got.Lines[0].ProductID)
	assert.Equal(t, 2, got.Lines[0].Qty)
}

func TestCartRepository_Get_MissingIsEmpty(t *testing.T) {
	repo, _ := setupTestRedis(t)

	got, err := repo.Get(context.Background(), "demo")
	require.NoError(t, err)
	assert.Equal(t, "demo", got.Path)
	assert.NotNil(t, got.Lines)
	assert.True(t, got.IsEmpty())
}

func TestCartRepository_Get_CorruptDocument(t *testing.T) {
	repo, mr := setupTestRedis(t)
	require.NoError(t, mr.Set("cart:demo", "{not json"))

	_, err := repo.Get(context.Background(), "demo")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unmarshal cart")
}

func TestCartRepository_Get_RedisDown(t *testing.T) {
	repo, mr := setupTestRedis(t)
	mr.Close()

	_, err := repo.Get(context.Background(), "demo")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis get cart")
}

func TestCartRepository_Save_SetsTTL(t *testing.T) {
	repo, mr := setupTestRedis(t)

	require.NoError(t, repo.Save(context.Background(), sampleCart()))

	assert.True(t, mr.Exists("cart:demo"))
	assert.Equal(t, 24*time.Hour, mr.TTL("cart:demo"))

	got, err := repo.Get(context.Background(), "demo")
	require.NoError(t, err)
	require.Len(t, got.Lines, 1)
}

func TestCartRepository_Save_Expires(t *testing.T) {
	repo, mr := setupTestRedis(t)
	require.NoError(t, repo.Save(context.Background(), sampleCart()))

	mr.FastForward(25 * time.Hour)

	got, err := repo.Get(context.Background(), "demo")
	require.NoError(t, err)
	assert.True(t, got.IsEmpty())
}

func TestCartRepository_PathsAreIsolated(t *testing.T) {
	repo, _ := setupTestRedis(t)
	require.NoError(t, repo.Save(context.Background(), sampleCart()))

	other, err := repo.Get(context.Background(), "other")
	require.NoError(t, err)
	assert.True(t, other.IsEmpty())
}

func TestCartRepository_Delete(t *testing.T) {
	repo, mr := setupTestRedis(t)
	require.NoError(t, repo.Save(context.Background(), sampleCart()))

	require.NoError(t, repo.Delete(context.Background(), "demo"))
	assert.False(t, mr.Exists("cart:demo"))

	// Deleting a missing cart is not an error.
	require.NoError(t, repo.Delete(context.Background(), "demo"))
}
