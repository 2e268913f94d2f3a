package service

import (
	"context"
	"time"

	"sales-ledger/internal/apperr"
	"sales-ledger/internal/models"
	"sales-ledger/internal/store"
	"sales-ledger/internal/util"

	"go.uber.org/zap"
)

// InvoiceService derives invoice views over credit sales. Nothing here is
// ever persisted: balance and status are recomputed from the sale and its
// payments on every read, so they can never drift apart.
type InvoiceService struct {
	store  store.Store
	logger *zap.Logger
	now    func() time.Time
}

// NewInvoiceService creates a new invoice service
func NewInvoiceService(store store.Store) *InvoiceService {
	return &InvoiceService{
		store:  store,
		logger: util.GetLogger(),
		now:    time.Now,
	}
}

// InvoiceFilter narrows invoice listings. Zero values mean no filter.
type InvoiceFilter struct {
	Status   models.InvoiceStatus
	Customer string
	Start    time.Time
	End      time.Time
}

// GetInvoice derives the invoice view for one credit sale
func (s *InvoiceService) GetInvoice(ctx context.Context, businessID, saleID string) (*models.Invoice, error) {
	ctx, span := util.StartSpan(ctx, "InvoiceService.GetInvoice")
	defer span.End()

	sale, err := s.store.GetSale(ctx, businessID, saleID)
	if err != nil {
		return nil, err
	}
	if sale.Kind != models.SaleKindCredit {
		return nil, apperr.Validationf("sale %s is a cash sale and has no invoice", saleID)
	}

	totals, err := s.store.PaymentTotals(ctx, businessID, []string{saleID})
	if err != nil {
		return nil, err
	}

	inv := models.BuildInvoice(*sale, totals[saleID], s.now().UTC())
	return &inv, nil
}

// ListInvoices derives invoice views over the tenant's credit sales,
// newest first. Status filtering happens after derivation since status is
// never stored.
func (s *InvoiceService) ListInvoices(ctx context.Context, businessID string, f InvoiceFilter) ([]models.Invoice, error) {
	ctx, span := util.StartSpan(ctx, "InvoiceService.ListInvoices")
	defer span.End()

	sales, err := s.store.ListSales(ctx, businessID, store.SaleFilter{
		Kind:     models.SaleKindCredit,
		Customer: f.Customer,
		Start:    f.Start,
		End:      f.End,
	})
	if err != nil {
		return nil, err
	}

	saleIDs := make([]string, len(sales))
	for i, sale := range sales {
		saleIDs[i] = sale.ID
	}

	totals, err := s.store.PaymentTotals(ctx, businessID, saleIDs)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	invoices := make([]models.Invoice, 0, len(sales))
	for _, sale := range sales {
		inv := models.BuildInvoice(sale, totals[sale.ID], now)
		if f.Status != "" && inv.Status != f.Status {
			continue
		}
		invoices = append(invoices, inv)
	}
	return invoices, nil
}
