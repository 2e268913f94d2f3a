// Package memory provides an in-process Store with the same semantics as
// the postgres implementation. It backs unit tests and local development
// without a database; one mutex makes every mutation trivially atomic.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"sales-ledger/internal/apperr"
	"sales-ledger/internal/models"
	"sales-ledger/internal/store"

	"github.com/google/uuid"
)

type Store struct {
	mu        sync.Mutex
	items     map[string]*models.InventoryItem
	sales     map[string]*models.Sale
	saleOrder []string
	payments  map[string][]models.Payment
	expenses  map[string]*models.Expense
	processed map[string]string
}

func New() *Store {
	return &Store{
		items:     make(map[string]*models.InventoryItem),
		sales:     make(map[string]*models.Sale),
		payments:  make(map[string][]models.Payment),
		expenses:  make(map[string]*models.Expense),
		processed: make(map[string]string),
	}
}

func (s *Store) Close() error {
	return nil
}

func inRange(t time.Time, r store.DateRange) bool {
	if !r.Start.IsZero() && t.Before(r.Start) {
		return false
	}
	if !r.End.IsZero() && t.After(r.End) {
		return false
	}
	return true
}

// Inventory

func (s *Store) CreateItem(_ context.Context, item *models.InventoryItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	item.ID = uuid.NewString()
	item.CreatedAt = time.Now().UTC()

	cp := *item
	s.items[item.ID] = &cp
	return nil
}

func (s *Store) GetItem(_ context.Context, businessID, itemID string) (*models.InventoryItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getItemLocked(businessID, itemID)
}

func (s *Store) getItemLocked(businessID, itemID string) (*models.InventoryItem, error) {
	item, ok := s.items[itemID]
	if !ok || item.BusinessID != businessID {
		return nil, apperr.NotFoundf("inventory item %s not found", itemID)
	}
	cp := *item
	return &cp, nil
}

func (s *Store) ListItems(_ context.Context, businessID string) ([]models.InventoryItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.InventoryItem
	for _, item := range s.items {
		if item.BusinessID == businessID {
			out = append(out, *item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) UpdateItem(_ context.Context, item *models.InventoryItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.items[item.ID]
	if !ok || existing.BusinessID != item.BusinessID {
		return apperr.NotFoundf("inventory item %s not found", item.ID)
	}

	item.CreatedAt = existing.CreatedAt
	cp := *item
	s.items[item.ID] = &cp
	return nil
}

func (s *Store) DeleteItem(_ context.Context, businessID, itemID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[itemID]
	if !ok || item.BusinessID != businessID {
		return apperr.NotFoundf("inventory item %s not found", itemID)
	}
	delete(s.items, itemID)
	return nil
}

func (s *Store) AdjustStock(_ context.Context, businessID, itemID string, delta int) (*models.InventoryItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[itemID]
	if !ok || item.BusinessID != businessID {
		return nil, apperr.NotFoundf("inventory item %s not found", itemID)
	}
	if item.QuantityOnHand+delta < 0 {
		return nil, apperr.InsufficientStockf("stock adjustment of %d would drop %q below zero (on hand %d)",
			delta, item.Name, item.QuantityOnHand)
	}

	item.QuantityOnHand += delta
	cp := *item
	return &cp, nil
}

// Sales

func (s *Store) RecordSale(_ context.Context, sale *models.Sale) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[sale.InventoryItemID]
	if !ok || item.BusinessID != sale.BusinessID {
		return apperr.NotFoundf("inventory item %s not found", sale.InventoryItemID)
	}
	if sale.Quantity > item.QuantityOnHand {
		return apperr.InsufficientStockf("requested %d of %q, only %d on hand",
			sale.Quantity, item.Name, item.QuantityOnHand)
	}

	item.QuantityOnHand -= sale.Quantity

	sale.ID = uuid.NewString()
	sale.ProductName = item.Name
	sale.UnitPrice = item.SellingPrice
	sale.TotalAmount = int64(sale.Quantity) * item.SellingPrice
	sale.CreatedAt = time.Now().UTC()

	cp := *sale
	s.sales[sale.ID] = &cp
	s.saleOrder = append(s.saleOrder, sale.ID)
	return nil
}

func (s *Store) GetSale(_ context.Context, businessID, saleID string) (*models.Sale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sale, ok := s.sales[saleID]
	if !ok || sale.BusinessID != businessID {
		return nil, apperr.NotFoundf("sale %s not found", saleID)
	}
	cp := *sale
	return &cp, nil
}

func (s *Store) GetSaleByIdempotencyKey(_ context.Context, businessID, key string) (*models.Sale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, sale := range s.sales {
		if sale.BusinessID == businessID && sale.IdempotencyKey == key {
			cp := *sale
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *Store) ListSales(_ context.Context, businessID string, f store.SaleFilter) ([]models.Sale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.Sale
	for i := len(s.saleOrder) - 1; i >= 0; i-- {
		sale, ok := s.sales[s.saleOrder[i]]
		if !ok || sale.BusinessID != businessID {
			continue
		}
		if f.Kind != "" && sale.Kind != f.Kind {
			continue
		}
		if f.Customer != "" && !strings.EqualFold(sale.CustomerName, f.Customer) {
			continue
		}
		if !inRange(sale.CreatedAt, store.DateRange{Start: f.Start, End: f.End}) {
			continue
		}
		out = append(out, *sale)
	}
	return out, nil
}

func (s *Store) DeleteSale(_ context.Context, businessID, saleID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sale, ok := s.sales[saleID]
	if !ok || sale.BusinessID != businessID {
		return apperr.NotFoundf("sale %s not found", saleID)
	}
	if len(s.payments[saleID]) > 0 {
		return apperr.Conflictf("sale %s has payments and cannot be deleted", saleID)
	}

	// Restore stock only while the item still exists; historic sales
	// survive catalog deletes on their own snapshots.
	if item, ok := s.items[sale.InventoryItemID]; ok && item.BusinessID == businessID {
		item.QuantityOnHand += sale.Quantity
	}

	delete(s.sales, saleID)
	for i, id := range s.saleOrder {
		if id == saleID {
			s.saleOrder = append(s.saleOrder[:i], s.saleOrder[i+1:]...)
			break
		}
	}
	return nil
}

// Payments

func (s *Store) RecordPayment(_ context.Context, payment *models.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sale, ok := s.sales[payment.SaleID]
	if !ok || sale.BusinessID != payment.BusinessID {
		return apperr.NotFoundf("sale %s not found", payment.SaleID)
	}
	if sale.Kind != models.SaleKindCredit {
		return apperr.Validationf("sale %s is a cash sale and carries no balance", payment.SaleID)
	}

	var paid int64
	for _, p := range s.payments[payment.SaleID] {
		paid += p.Amount
	}
	if balance := sale.TotalAmount - paid; payment.Amount > balance {
		return apperr.Overpaymentf("payment of %d exceeds remaining balance %d", payment.Amount, balance)
	}

	payment.ID = uuid.NewString()
	payment.CreatedAt = time.Now().UTC()
	s.payments[payment.SaleID] = append(s.payments[payment.SaleID], *payment)
	return nil
}

func (s *Store) ListPayments(_ context.Context, businessID, saleID string) ([]models.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sale, ok := s.sales[saleID]
	if !ok || sale.BusinessID != businessID {
		return nil, apperr.NotFoundf("sale %s not found", saleID)
	}
	out := make([]models.Payment, len(s.payments[saleID]))
	copy(out, s.payments[saleID])
	return out, nil
}

func (s *Store) PaymentTotals(_ context.Context, businessID string, saleIDs []string) (map[string]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	totals := make(map[string]int64)
	for _, saleID := range saleIDs {
		sale, ok := s.sales[saleID]
		if !ok || sale.BusinessID != businessID {
			continue
		}
		for _, p := range s.payments[saleID] {
			totals[saleID] += p.Amount
		}
	}
	return totals, nil
}

// Expenses

func (s *Store) CreateExpense(_ context.Context, expense *models.Expense) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	expense.ID = uuid.NewString()
	expense.CreatedAt = time.Now().UTC()

	cp := *expense
	s.expenses[expense.ID] = &cp
	return nil
}

func (s *Store) ListExpenses(_ context.Context, businessID string, r store.DateRange) ([]models.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.Expense
	for _, e := range s.expenses {
		if e.BusinessID == businessID && inRange(e.IncurredAt, r) {
			out = append(out, *e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].IncurredAt.After(out[j].IncurredAt) })
	return out, nil
}

func (s *Store) DeleteExpense(_ context.Context, businessID, expenseID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.expenses[expenseID]
	if !ok || e.BusinessID != businessID {
		return apperr.NotFoundf("expense %s not found", expenseID)
	}
	delete(s.expenses, expenseID)
	return nil
}

// Report sums

func (s *Store) SumSales(_ context.Context, businessID string, r store.DateRange) (store.SalesTotals, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var totals store.SalesTotals
	for _, sale := range s.sales {
		if sale.BusinessID != businessID || !inRange(sale.CreatedAt, r) {
			continue
		}
		totals.TotalSales += sale.TotalAmount
		if sale.Kind == models.SaleKindCash {
			totals.CashSales += sale.TotalAmount
		}
	}
	return totals, nil
}

func (s *Store) SumPayments(_ context.Context, businessID string, r store.DateRange) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var sum int64
	for saleID, payments := range s.payments {
		sale, ok := s.sales[saleID]
		if !ok || sale.BusinessID != businessID {
			continue
		}
		for _, p := range payments {
			if inRange(p.CreatedAt, r) {
				sum += p.Amount
			}
		}
	}
	return sum, nil
}

func (s *Store) SumExpenses(_ context.Context, businessID string, r store.DateRange) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var sum int64
	for _, e := range s.expenses {
		if e.BusinessID == businessID && inRange(e.IncurredAt, r) {
			sum += e.Amount
		}
	}
	return sum, nil
}

// Worker idempotency

func (s *Store) IsEventProcessed(_ context.Context, eventID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.processed[eventID]
	return ok, nil
}

func (s *Store) MarkEventProcessed(_ context.Context, eventID, eventType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.processed[eventID] = eventType
	return nil
}
