package models

import "time"

// Event types
const (
	EventTypeSaleRecorded    = "SALE_RECORDED"
	EventTypeSaleDeleted     = "SALE_DELETED"
	EventTypePaymentRecorded = "PAYMENT_RECORDED"
	EventTypeInvoiceSettled  = "INVOICE_SETTLED"
	EventTypeStockAdjusted   = "STOCK_ADJUSTED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// SaleRecordedEvent published when a sale commits
type SaleRecordedEvent struct {
	BaseEvent
	SaleID      string   `json:"sale_id"`
	BusinessID  string   `json:"business_id"`
	ItemID      string   `json:"item_id"`
	Kind        SaleKind `json:"kind"`
	Quantity    int      `json:"quantity"`
	TotalAmount int64    `json:"total_amount"`
}

// SaleDeletedEvent published when an unpaid sale is reversed
type SaleDeletedEvent struct {
	BaseEvent
	SaleID        string `json:"sale_id"`
	BusinessID    string `json:"business_id"`
	ItemID        string `json:"item_id"`
	StockRestored int    `json:"stock_restored"`
}

// PaymentRecordedEvent published when a payment commits
type PaymentRecordedEvent struct {
	BaseEvent
	PaymentID  string `json:"payment_id"`
	SaleID     string `json:"sale_id"`
	BusinessID string `json:"business_id"`
	Amount     int64  `json:"amount"`
	Balance    int64  `json:"balance"`
}

// InvoiceSettledEvent published once cumulative payments reach the sale total
type InvoiceSettledEvent struct {
	BaseEvent
	SaleID     string `json:"sale_id"`
	BusinessID string `json:"business_id"`
	Total      int64  `json:"total"`
}

// StockAdjustedEvent published on manual restock or correction
type StockAdjustedEvent struct {
	BaseEvent
	ItemID     string `json:"item_id"`
	BusinessID string `json:"business_id"`
	Delta      int    `json:"delta"`
	NewOnHand  int    `json:"new_on_hand"`
}
