package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"sales-ledger/internal/apperr"
	"sales-ledger/internal/models"
	"sales-ledger/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedItem(t *testing.T, s *Store, businessID string, qty int) *models.InventoryItem {
	t.Helper()
	item := &models.InventoryItem{
		BusinessID:     businessID,
		Name:           "Widget",
		SellingPrice:   10,
		QuantityOnHand: qty,
	}
	require.NoError(t, s.CreateItem(context.Background(), item))
	return item
}

func TestAdjustStockNeverGoesNegative(t *testing.T) {
	s := New()
	ctx := context.Background()
	item := seedItem(t, s, "biz-1", 5)

	got, err := s.AdjustStock(ctx, "biz-1", item.ID, -3)
	require.NoError(t, err)
	assert.Equal(t, 2, got.QuantityOnHand)

	_, err = s.AdjustStock(ctx, "biz-1", item.ID, -3)
	assert.True(t, apperr.IsKind(err, apperr.KindInsufficientStock))

	// The failed adjustment left the count untouched.
	got, err = s.GetItem(ctx, "biz-1", item.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.QuantityOnHand)

	got, err = s.AdjustStock(ctx, "biz-1", item.ID, 8)
	require.NoError(t, err)
	assert.Equal(t, 10, got.QuantityOnHand)
}

func TestAdjustStockConcurrent(t *testing.T) {
	s := New()
	ctx := context.Background()
	item := seedItem(t, s, "biz-1", 10)

	const workers = 30
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.AdjustStock(ctx, "biz-1", item.ID, -1)
		}()
	}
	wg.Wait()

	// 10 decrements land, 20 are rejected; never below zero.
	got, err := s.GetItem(ctx, "biz-1", item.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.QuantityOnHand)
}

func TestTenantIsolation(t *testing.T) {
	s := New()
	ctx := context.Background()
	item := seedItem(t, s, "biz-1", 5)

	_, err := s.GetItem(ctx, "biz-2", item.ID)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))

	_, err = s.AdjustStock(ctx, "biz-2", item.ID, 1)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))

	err = s.DeleteItem(ctx, "biz-2", item.ID)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))

	items, err := s.ListItems(ctx, "biz-2")
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestRecordSaleSnapshotsAndDecrements(t *testing.T) {
	s := New()
	ctx := context.Background()
	item := seedItem(t, s, "biz-1", 5)

	sale := &models.Sale{
		BusinessID:      "biz-1",
		InventoryItemID: item.ID,
		Quantity:        2,
		Kind:            models.SaleKindCash,
		PaymentMethod:   "cash",
	}
	require.NoError(t, s.RecordSale(ctx, sale))

	assert.NotEmpty(t, sale.ID)
	assert.Equal(t, "Widget", sale.ProductName)
	assert.Equal(t, int64(10), sale.UnitPrice)
	assert.Equal(t, int64(20), sale.TotalAmount)

	got, err := s.GetItem(ctx, "biz-1", item.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.QuantityOnHand)
}

func TestListSalesNewestFirst(t *testing.T) {
	s := New()
	ctx := context.Background()
	item := seedItem(t, s, "biz-1", 10)

	var ids []string
	for i := 0; i < 3; i++ {
		sale := &models.Sale{
			BusinessID:      "biz-1",
			InventoryItemID: item.ID,
			Quantity:        1,
			Kind:            models.SaleKindCash,
			PaymentMethod:   "cash",
		}
		require.NoError(t, s.RecordSale(ctx, sale))
		ids = append(ids, sale.ID)
	}

	got, err := s.ListSales(ctx, "biz-1", store.SaleFilter{})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, ids[2], got[0].ID)
	assert.Equal(t, ids[0], got[2].ID)
}

func TestPaymentTotals(t *testing.T) {
	s := New()
	ctx := context.Background()
	item := seedItem(t, s, "biz-1", 10)
	due := time.Now().Add(24 * time.Hour)

	newCredit := func(qty int) *models.Sale {
		sale := &models.Sale{
			BusinessID:      "biz-1",
			InventoryItemID: item.ID,
			Quantity:        qty,
			Kind:            models.SaleKindCredit,
			CustomerName:    "Ada",
			DueDate:         &due,
		}
		require.NoError(t, s.RecordSale(ctx, sale))
		return sale
	}
	first := newCredit(2)  // total 20
	second := newCredit(3) // total 30

	pay := func(saleID string, amount int64) {
		require.NoError(t, s.RecordPayment(ctx, &models.Payment{
			BusinessID: "biz-1", SaleID: saleID, Amount: amount, Method: "cash",
		}))
	}
	pay(first.ID, 5)
	pay(first.ID, 10)
	pay(second.ID, 30)

	totals, err := s.PaymentTotals(ctx, "biz-1", []string{first.ID, second.ID, "no-such-sale"})
	require.NoError(t, err)
	assert.Equal(t, int64(15), totals[first.ID])
	assert.Equal(t, int64(30), totals[second.ID])
	assert.NotContains(t, totals, "no-such-sale")

	// Another tenant sees none of these totals.
	totals, err = s.PaymentTotals(ctx, "biz-2", []string{first.ID})
	require.NoError(t, err)
	assert.Empty(t, totals)
}

func TestDeleteSaleAfterItemRemoved(t *testing.T) {
	s := New()
	ctx := context.Background()
	item := seedItem(t, s, "biz-1", 5)

	sale := &models.Sale{
		BusinessID:      "biz-1",
		InventoryItemID: item.ID,
		Quantity:        2,
		Kind:            models.SaleKindCash,
		PaymentMethod:   "cash",
	}
	require.NoError(t, s.RecordSale(ctx, sale))
	require.NoError(t, s.DeleteItem(ctx, "biz-1", item.ID))

	// The restore is a no-op once the item is gone; the delete still works.
	require.NoError(t, s.DeleteSale(ctx, "biz-1", sale.ID))

	_, err := s.GetSale(ctx, "biz-1", sale.ID)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

func TestEventProcessingIdempotency(t *testing.T) {
	s := New()
	ctx := context.Background()

	done, err := s.IsEventProcessed(ctx, "evt-1")
	require.NoError(t, err)
	assert.False(t, done)

	require.NoError(t, s.MarkEventProcessed(ctx, "evt-1", "SALE_RECORDED"))

	done, err = s.IsEventProcessed(ctx, "evt-1")
	require.NoError(t, err)
	assert.True(t, done)
}
