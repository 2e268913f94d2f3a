package service

import (
	"context"
	"testing"
	"time"

	"sales-ledger/internal/apperr"
	"sales-ledger/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarizeIncomeIsCashPlusPayments(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()
	due := time.Now().Add(7 * 24 * time.Hour)

	item := l.seedItem(t, "biz-1", 10, 50)

	// Cash sale of 30 counts as income immediately.
	_, err := l.sales.RecordSale(ctx, "biz-1", cashSaleRequest(item.ID, 3))
	require.NoError(t, err)

	// Credit sale of 50: only the 20 actually paid is income.
	credit, err := l.sales.RecordSale(ctx, "biz-1", creditSaleRequest(item.ID, 5, due))
	require.NoError(t, err)
	_, _, err = l.payments.RecordPayment(ctx, "biz-1", credit.ID, &RecordPaymentRequest{Amount: 20, Method: "cash"})
	require.NoError(t, err)

	_, err = l.reports.AddExpense(ctx, "biz-1", &AddExpenseRequest{Title: "Rent", Amount: 15})
	require.NoError(t, err)

	summary, err := l.reports.Summarize(ctx, "biz-1", store.DateRange{}, "")
	require.NoError(t, err)

	assert.Equal(t, int64(80), summary.TotalSales)
	assert.Equal(t, int64(30), summary.CashSales)
	assert.Equal(t, int64(20), summary.PaymentsReceived)
	assert.Equal(t, int64(50), summary.TotalIncomeReceived)
	assert.Equal(t, int64(15), summary.TotalExpenses)
	assert.Equal(t, int64(35), summary.NetProfit)
	assert.Equal(t, "USD", summary.Currency)
}

func TestSummarizeConvertsCurrency(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	item := l.seedItem(t, "biz-1", 10, 50)
	_, err := l.sales.RecordSale(ctx, "biz-1", cashSaleRequest(item.ID, 4))
	require.NoError(t, err)

	// Rate table in newTestLedger pins EUR at 0.5.
	summary, err := l.reports.Summarize(ctx, "biz-1", store.DateRange{}, "EUR")
	require.NoError(t, err)
	assert.Equal(t, int64(20), summary.TotalSales)
	assert.Equal(t, int64(20), summary.TotalIncomeReceived)
	assert.Equal(t, "EUR", summary.Currency)

	_, err = l.reports.Summarize(ctx, "biz-1", store.DateRange{}, "JPY")
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}

func TestSummarizeTenantIsolation(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	item := l.seedItem(t, "biz-1", 10, 50)
	_, err := l.sales.RecordSale(ctx, "biz-1", cashSaleRequest(item.ID, 4))
	require.NoError(t, err)

	summary, err := l.reports.Summarize(ctx, "biz-2", store.DateRange{}, "")
	require.NoError(t, err)
	assert.Equal(t, int64(0), summary.TotalSales)
	assert.Equal(t, int64(0), summary.TotalIncomeReceived)
	assert.Equal(t, int64(0), summary.NetProfit)
}

func TestAddExpenseValidation(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	_, err := l.reports.AddExpense(ctx, "biz-1", &AddExpenseRequest{Title: "  ", Amount: 10})
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))

	_, err = l.reports.AddExpense(ctx, "biz-1", &AddExpenseRequest{Title: "Rent", Amount: 0})
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}

func TestExpenseLifecycle(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()
	incurred := time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC)

	expense, err := l.reports.AddExpense(ctx, "biz-1", &AddExpenseRequest{
		Title:      "Electricity",
		Amount:     40,
		IncurredAt: &incurred,
	})
	require.NoError(t, err)
	assert.Equal(t, incurred, expense.IncurredAt)

	got, err := l.reports.ListExpenses(ctx, "biz-1", store.DateRange{})
	require.NoError(t, err)
	require.Len(t, got, 1)

	// A range that ends before the expense excludes it.
	got, err = l.reports.ListExpenses(ctx, "biz-1", store.DateRange{End: incurred.Add(-time.Hour)})
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, l.reports.DeleteExpense(ctx, "biz-1", expense.ID))
	err = l.reports.DeleteExpense(ctx, "biz-1", expense.ID)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}
