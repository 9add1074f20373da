package services

import (
	"context"
	"testing"

	"medicare-backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestCartService(products *memProducts) (CartService, *memCarts) {
	carts := newMemCarts()
	return NewCartService(carts, products, zap.NewNop()), carts
}

func TestCartService_AddItem_NewLine(t *testing.T) {
	products := newMemProducts(testProduct("p1", 120000, 0, 10))
	svc, _ := newTestCartService(products)

	cart, svcErr := svc.AddItem(context.Background(), "user-1", "p1", 2, "")
	require.Nil(t, svcErr)

	require.Len(t, cart.Items, 1)
	assert.Equal(t, 2, cart.Items[0].Quantity)
	assert.Equal(t, int64(120000), cart.Items[0].UnitPrice)
	assert.Equal(t, int64(240000), cart.TotalPrice())
}

func TestCartService_AddItem_AccumulatesAndRefreshesPrice(t *testing.T) {
	products := newMemProducts(testProduct("p1", 120000, 0, 10))
	svc, _ := newTestCartService(products)

	_, svcErr := svc.AddItem(context.Background(), "user-1", "p1", 2, "")
	require.Nil(t, svcErr)

	// Price changes between adds; the line refreshes to the new price.
	products.mutate("p1", func(p *models.Product) { p.Price = 110000 })

	cart, svcErr := svc.AddItem(context.Background(), "user-1", "p1", 3, "")
	require.Nil(t, svcErr)

	require.Len(t, cart.Items, 1)
	assert.Equal(t, 5, cart.Items[0].Quantity)
	assert.Equal(t, int64(110000), cart.Items[0].UnitPrice)
}

func TestCartService_AddItem_ChecksCumulativeQuantity(t *testing.T) {
	products := newMemProducts(testProduct("p1", 50000, 0, 5))
	svc, _ := newTestCartService(products)

	_, svcErr := svc.AddItem(context.Background(), "user-1", "p1", 4, "")
	require.Nil(t, svcErr)

	// 4 already in the cart; 2 more exceeds stock of 5 even though the
	// delta alone would fit.
	_, svcErr = svc.AddItem(context.Background(), "user-1", "p1", 2, "")
	require.NotNil(t, svcErr)
	assert.Equal(t, 409, svcErr.StatusCode)
	assert.Equal(t, "insufficient_stock", svcErr.Reason)
}

func TestCartService_AddItem_InactiveProduct(t *testing.T) {
	inactive := testProduct("p1", 50000, 0, 5)
	inactive.IsActive = false
	svc, _ := newTestCartService(newMemProducts(inactive))

	_, svcErr := svc.AddItem(context.Background(), "user-1", "p1", 1, "")
	require.NotNil(t, svcErr)
	assert.Equal(t, "product_inactive", svcErr.Reason)
}

func TestCartService_AddItem_IdempotencyKey(t *testing.T) {
	products := newMemProducts(testProduct("p1", 50000, 0, 10))
	svc, _ := newTestCartService(products)

	// The same request replayed with the same key applies once.
	for i := 0; i < 3; i++ {
		_, svcErr := svc.AddItem(context.Background(), "user-1", "p1", 2, "req-abc")
		require.Nil(t, svcErr)
	}

	cart, svcErr := svc.Get(context.Background(), "user-1")
	require.Nil(t, svcErr)
	assert.Equal(t, 2, cart.TotalItems())
}

func TestCartService_UpdateQuantity_ZeroRemovesLine(t *testing.T) {
	products := newMemProducts(testProduct("p1", 50000, 0, 10), testProduct("p2", 80000, 0, 10))
	svc, _ := newTestCartService(products)

	ctx := context.Background()
	_, _ = svc.AddItem(ctx, "user-1", "p1", 2, "")
	_, _ = svc.AddItem(ctx, "user-1", "p2", 1, "")

	for _, qty := range []int{0, -3} {
		cart, svcErr := svc.UpdateItemQuantity(ctx, "user-1", "p1", qty)
		require.Nil(t, svcErr)
		assert.Equal(t, -1, cart.FindItem("p1"), "quantity %d should remove the line", qty)
		assert.GreaterOrEqual(t, cart.FindItem("p2"), 0)
	}
}

func TestCartService_UpdateQuantity_ReplacesNotAdds(t *testing.T) {
	products := newMemProducts(testProduct("p1", 50000, 0, 10))
	svc, _ := newTestCartService(products)

	ctx := context.Background()
	_, _ = svc.AddItem(ctx, "user-1", "p1", 2, "")

	// Replaying the same absolute update is idempotent.
	for i := 0; i < 3; i++ {
		cart, svcErr := svc.UpdateItemQuantity(ctx, "user-1", "p1", 4)
		require.Nil(t, svcErr)
		assert.Equal(t, 4, cart.Items[cart.FindItem("p1")].Quantity)
	}
}

func TestCartService_TotalsInvariant(t *testing.T) {
	products := newMemProducts(
		testProduct("p1", 50000, 0, 100),
		testProduct("p2", 80000, 0, 100),
		testProduct("p3", 125000, 0, 100),
	)
	svc, _ := newTestCartService(products)
	ctx := context.Background()

	_, _ = svc.AddItem(ctx, "user-1", "p1", 3, "")
	_, _ = svc.AddItem(ctx, "user-1", "p2", 1, "")
	_, _ = svc.UpdateItemQuantity(ctx, "user-1", "p1", 2)
	_, _ = svc.AddItem(ctx, "user-1", "p3", 4, "")
	_, _ = svc.RemoveItem(ctx, "user-1", "p2")
	cart, svcErr := svc.AddItem(ctx, "user-1", "p1", 1, "")
	require.Nil(t, svcErr)

	var wantTotal int64
	wantItems := 0
	for _, item := range cart.Items {
		wantTotal += item.LineTotal()
		wantItems += item.Quantity
	}
	assert.Equal(t, wantTotal, cart.TotalPrice())
	assert.Equal(t, wantItems, cart.TotalItems())
	assert.Equal(t, int64(2*50000+50000+4*125000), cart.TotalPrice())
}

func TestCartService_MergeGuestCart(t *testing.T) {
	products := newMemProducts(testProduct("p1", 50000, 0, 100), testProduct("p2", 80000, 0, 100))
	svc, _ := newTestCartService(products)
	ctx := context.Background()

	_, _ = svc.AddItem(ctx, "user-1", "p1", 2, "")
	_, _ = svc.AddItem(ctx, "sess-9", "p1", 3, "")
	_, _ = svc.AddItem(ctx, "sess-9", "p2", 1, "")

	merged, svcErr := svc.MergeGuestCart(ctx, "user-1", "sess-9")
	require.Nil(t, svcErr)

	require.Len(t, merged.Items, 2)
	assert.Equal(t, 5, merged.Items[merged.FindItem("p1")].Quantity)
	assert.Equal(t, 1, merged.Items[merged.FindItem("p2")].Quantity)

	// The guest cart is gone, so merging again changes nothing.
	again, svcErr := svc.MergeGuestCart(ctx, "user-1", "sess-9")
	require.Nil(t, svcErr)
	assert.Equal(t, merged.TotalItems(), again.TotalItems())
	assert.Equal(t, merged.TotalPrice(), again.TotalPrice())

	guest, svcErr := svc.Get(ctx, "sess-9")
	require.Nil(t, svcErr)
	assert.Empty(t, guest.Items)
}

func TestCartService_RemoveOrderedLines(t *testing.T) {
	products := newMemProducts(testProduct("p1", 50000, 0, 100), testProduct("p2", 80000, 0, 100))
	svc, _ := newTestCartService(products)
	ctx := context.Background()

	_, _ = svc.AddItem(ctx, "user-1", "p1", 2, "")
	_, _ = svc.AddItem(ctx, "user-1", "p2", 1, "")

	require.NoError(t, svc.RemoveOrderedLines(ctx, "user-1", []string{"p1"}))

	cart, svcErr := svc.Get(ctx, "user-1")
	require.Nil(t, svcErr)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, "p2", cart.Items[0].ProductID)
}
