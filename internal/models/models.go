package models

import "time"

// SaleKind distinguishes instantly-settled cash sales from credit sales
// settled over time against an invoice balance.
type SaleKind string

const (
	SaleKindCash   SaleKind = "CASH"
	SaleKindCredit SaleKind = "CREDIT"
)

// Invoice statuses. Never stored; always derived from balance and due date.
type InvoiceStatus string

const (
	InvoiceStatusPending InvoiceStatus = "PENDING"
	InvoiceStatusOverdue InvoiceStatus = "OVERDUE"
	InvoiceStatusPaid    InvoiceStatus = "PAID"
)

// InventoryItem is one catalog entry owned by a tenant.
// QuantityOnHand never goes negative.
type InventoryItem struct {
	ID             string    `db:"id" json:"id"`
	BusinessID     string    `db:"business_id" json:"business_id"`
	Name           string    `db:"name" json:"name"`
	SKU            string    `db:"sku" json:"sku,omitempty"`
	UnitCost       int64     `db:"unit_cost" json:"unit_cost"`
	SellingPrice   int64     `db:"selling_price" json:"selling_price"`
	QuantityOnHand int       `db:"quantity_on_hand" json:"quantity_on_hand"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// Sale is one immutable ledger transaction. ProductName and UnitPrice are
// snapshots taken at sale time so later catalog edits or deletes never
// rewrite history. There is no stored status field.
type Sale struct {
	ID              string     `db:"id" json:"id"`
	BusinessID      string     `db:"business_id" json:"business_id"`
	InventoryItemID string     `db:"inventory_item_id" json:"inventory_item_id"`
	ProductName     string     `db:"product_name" json:"product_name"`
	Quantity        int        `db:"quantity" json:"quantity"`
	UnitPrice       int64      `db:"unit_price" json:"unit_price"`
	TotalAmount     int64      `db:"total_amount" json:"total_amount"`
	CustomerName    string     `db:"customer_name" json:"customer_name,omitempty"`
	Kind            SaleKind   `db:"kind" json:"kind"`
	PaymentMethod   string     `db:"payment_method" json:"payment_method,omitempty"`
	DueDate         *time.Time `db:"due_date" json:"due_date,omitempty"`
	IdempotencyKey  string     `db:"idempotency_key" json:"idempotency_key,omitempty"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
}

// Payment is one append-only settlement against a credit sale.
// Payments are never edited or deleted.
type Payment struct {
	ID         string    `db:"id" json:"id"`
	BusinessID string    `db:"business_id" json:"business_id"`
	SaleID     string    `db:"sale_id" json:"sale_id"`
	Amount     int64     `db:"amount" json:"amount"`
	Method     string    `db:"method" json:"method"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// Expense is an external cost record consumed by report summaries.
type Expense struct {
	ID         string    `db:"id" json:"id"`
	BusinessID string    `db:"business_id" json:"business_id"`
	Title      string    `db:"title" json:"title"`
	Amount     int64     `db:"amount" json:"amount"`
	IncurredAt time.Time `db:"incurred_at" json:"incurred_at"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// Invoice is a read-only view over a credit sale and its payments.
// It is computed on demand and never persisted.
type Invoice struct {
	Sale
	AmountPaid int64         `json:"amount_paid"`
	Balance    int64         `json:"balance"`
	Status     InvoiceStatus `json:"status"`
}

// BuildInvoice derives the invoice view for a credit sale. It is a pure
// function of (sale, amountPaid, now): balance is totalAmount minus the
// payment sum, and status follows from balance and due date alone.
func BuildInvoice(sale Sale, amountPaid int64, now time.Time) Invoice {
	inv := Invoice{
		Sale:       sale,
		AmountPaid: amountPaid,
		Balance:    sale.TotalAmount - amountPaid,
		Status:     InvoiceStatusPending,
	}

	switch {
	case inv.Balance <= 0:
		inv.Status = InvoiceStatusPaid
	case sale.DueDate != nil && now.After(*sale.DueDate):
		inv.Status = InvoiceStatusOverdue
	}

	return inv
}

// Summary is the report rollup for one tenant and date range.
// TotalIncomeReceived counts cash sales plus actual payment rows; an open
// credit balance is not income until a payment lands.
type Summary struct {
	BusinessID          string `json:"business_id"`
	TotalSales          int64  `json:"total_sales"`
	CashSales           int64  `json:"cash_sales"`
	PaymentsReceived    int64  `json:"payments_received"`
	TotalIncomeReceived int64  `json:"total_income_received"`
	TotalExpenses       int64  `json:"total_expenses"`
	NetProfit           int64  `json:"net_profit"`
	Currency            string `json:"currency"`
}

// ProcessedEvent records consumed event IDs for idempotent workers.
type ProcessedEvent struct {
	EventID     string    `db:"event_id"`
	EventType   string    `db:"event_type"`
	ProcessedAt time.Time `db:"processed_at"`
}
