package store

import (
	"context"
	"time"

	"sales-ledger/internal/models"
)

// SaleFilter narrows sale and invoice listings. Zero values mean no filter.
type SaleFilter struct {
	Kind     models.SaleKind
	Customer string
	Start    time.Time
	End      time.Time
}

// DateRange bounds report and expense queries. Zero values are open-ended.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// SalesTotals carries raw sale sums for a tenant and range.
type SalesTotals struct {
	TotalSales int64 `db:"total_sales"`
	CashSales  int64 `db:"cash_sales"`
}

// Store is the durable ledger: inventory, sales, payments and expenses,
// all partitioned by business ID. Implementations must make RecordSale,
// RecordPayment, AdjustStock and DeleteSale atomic — each either fully
// applies or leaves no trace. The two linearizable hotspots are an item's
// on-hand quantity and a sale's payment total; everything else is
// immutable once written.
type Store interface {
	// Inventory
	CreateItem(ctx context.Context, item *models.InventoryItem) error
	GetItem(ctx context.Context, businessID, itemID string) (*models.InventoryItem, error)
	ListItems(ctx context.Context, businessID string) ([]models.InventoryItem, error)
	UpdateItem(ctx context.Context, item *models.InventoryItem) error
	DeleteItem(ctx context.Context, businessID, itemID string) error

	// AdjustStock applies delta as one atomic check-and-apply step.
	// A delta that would drive the quantity negative fails with
	// apperr.KindInsufficientStock and changes nothing.
	AdjustStock(ctx context.Context, businessID, itemID string, delta int) (*models.InventoryItem, error)

	// Sales. RecordSale locks the item row, verifies stock, decrements it
	// and inserts the sale with name/price snapshots in one transaction.
	// The sale arrives with BusinessID, InventoryItemID, Quantity and the
	// kind-specific fields set; the store fills ID, snapshots, total and
	// CreatedAt.
	RecordSale(ctx context.Context, sale *models.Sale) error
	GetSale(ctx context.Context, businessID, saleID string) (*models.Sale, error)
	GetSaleByIdempotencyKey(ctx context.Context, businessID, key string) (*models.Sale, error)
	ListSales(ctx context.Context, businessID string, f SaleFilter) ([]models.Sale, error)

	// DeleteSale removes an unpaid sale and restores its stock in one
	// transaction. A sale with payments fails with apperr.KindConflict.
	DeleteSale(ctx context.Context, businessID, saleID string) error

	// Payments. RecordPayment serializes on the sale row, recomputes the
	// balance and rejects amounts above it with apperr.KindOverpayment
	// before inserting. The payment arrives with BusinessID, SaleID,
	// Amount and Method set; the store fills ID and CreatedAt.
	RecordPayment(ctx context.Context, payment *models.Payment) error
	ListPayments(ctx context.Context, businessID, saleID string) ([]models.Payment, error)

	// PaymentTotals returns the paid sum per sale for the given IDs.
	// Sales with no payments are absent from the map.
	PaymentTotals(ctx context.Context, businessID string, saleIDs []string) (map[string]int64, error)

	// Expenses
	CreateExpense(ctx context.Context, expense *models.Expense) error
	ListExpenses(ctx context.Context, businessID string, r DateRange) ([]models.Expense, error)
	DeleteExpense(ctx context.Context, businessID, expenseID string) error

	// Report sums
	SumSales(ctx context.Context, businessID string, r DateRange) (SalesTotals, error)
	SumPayments(ctx context.Context, businessID string, r DateRange) (int64, error)
	SumExpenses(ctx context.Context, businessID string, r DateRange) (int64, error)

	// Worker idempotency
	IsEventProcessed(ctx context.Context, eventID string) (bool, error)
	MarkEventProcessed(ctx context.Context, eventID, eventType string) error

	Close() error
}
