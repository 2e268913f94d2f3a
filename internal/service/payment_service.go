package service

import (
	"context"
	"strings"
	"time"

	"sales-ledger/internal/apperr"
	"sales-ledger/internal/broker"
	"sales-ledger/internal/models"
	"sales-ledger/internal/store"
	"sales-ledger/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PaymentService appends payments against credit sales. Payments are the
// only way an invoice balance ever moves; they are never edited or
// deleted, which is what makes a settled invoice stay settled.
type PaymentService struct {
	store  store.Store
	events *broker.EventPublisher
	logger *zap.Logger
}

// NewPaymentService creates a new payment service
func NewPaymentService(store store.Store, events *broker.EventPublisher) *PaymentService {
	return &PaymentService{
		store:  store,
		events: events,
		logger: util.GetLogger(),
	}
}

// RecordPaymentRequest represents a request to record a payment
type RecordPaymentRequest struct {
	Amount int64  `json:"amount" binding:"required"`
	Method string `json:"method" binding:"required"`
}

// RecordPayment validates and commits a payment. The store serializes the
// balance check and the insert on the sale row, so concurrent payments
// cannot jointly overpay; the updated invoice view is returned alongside
// the payment. No status write happens anywhere: once the balance hits
// zero the derived status is Paid.
func (s *PaymentService) RecordPayment(ctx context.Context, businessID, saleID string, req *RecordPaymentRequest) (*models.Payment, *models.Invoice, error) {
	ctx, span := util.StartSpan(ctx, "PaymentService.RecordPayment")
	defer span.End()

	if req.Amount <= 0 {
		util.PaymentsFailedTotal.WithLabelValues("validation").Inc()
		return nil, nil, apperr.Validationf("payment amount must be positive")
	}
	if strings.TrimSpace(req.Method) == "" {
		util.PaymentsFailedTotal.WithLabelValues("validation").Inc()
		return nil, nil, apperr.Validationf("payment method must not be blank")
	}

	sale, err := s.store.GetSale(ctx, businessID, saleID)
	if err != nil {
		util.PaymentsFailedTotal.WithLabelValues(apperr.KindOf(err).String()).Inc()
		return nil, nil, err
	}
	if sale.Kind != models.SaleKindCredit {
		util.PaymentsFailedTotal.WithLabelValues("validation").Inc()
		return nil, nil, apperr.Validationf("sale %s is a cash sale and carries no balance", saleID)
	}

	payment := &models.Payment{
		BusinessID: businessID,
		SaleID:     saleID,
		Amount:     req.Amount,
		Method:     strings.TrimSpace(req.Method),
	}

	start := time.Now()
	err = s.store.RecordPayment(ctx, payment)
	util.RecordPaymentLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		util.PaymentsFailedTotal.WithLabelValues(apperr.KindOf(err).String()).Inc()
		return nil, nil, err
	}

	util.PaymentsRecordedTotal.Inc()
	s.logger.Info("Payment recorded",
		zap.String("business_id", businessID),
		zap.String("sale_id", saleID),
		zap.String("payment_id", payment.ID),
		zap.Int64("amount", payment.Amount))

	totals, err := s.store.PaymentTotals(ctx, businessID, []string{saleID})
	if err != nil {
		return nil, nil, err
	}
	invoice := models.BuildInvoice(*sale, totals[saleID], time.Now().UTC())

	s.publishPaymentRecorded(ctx, payment, invoice.Balance)
	if invoice.Status == models.InvoiceStatusPaid {
		util.InvoicesSettledTotal.Inc()
		s.publishInvoiceSettled(ctx, sale)
	}

	return payment, &invoice, nil
}

// ListPayments retrieves the payment history for a sale
func (s *PaymentService) ListPayments(ctx context.Context, businessID, saleID string) ([]models.Payment, error) {
	return s.store.ListPayments(ctx, businessID, saleID)
}

func (s *PaymentService) publishPaymentRecorded(ctx context.Context, payment *models.Payment, balance int64) {
	if s.events == nil {
		return
	}

	event := &models.PaymentRecordedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.NewString(),
			EventType: models.EventTypePaymentRecorded,
			Timestamp: time.Now().UTC(),
		},
		PaymentID:  payment.ID,
		SaleID:     payment.SaleID,
		BusinessID: payment.BusinessID,
		Amount:     payment.Amount,
		Balance:    balance,
	}

	if err := s.events.PublishPaymentRecorded(ctx, event); err != nil {
		s.logger.Error("Failed to publish PaymentRecorded event", zap.Error(err))
	}
}

func (s *PaymentService) publishInvoiceSettled(ctx context.Context, sale *models.Sale) {
	if s.events == nil {
		return
	}

	event := &models.InvoiceSettledEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.NewString(),
			EventType: models.EventTypeInvoiceSettled,
			Timestamp: time.Now().UTC(),
		},
		SaleID:     sale.ID,
		BusinessID: sale.BusinessID,
		Total:      sale.TotalAmount,
	}

	if err := s.events.PublishInvoiceSettled(ctx, event); err != nil {
		s.logger.Error("Failed to publish InvoiceSettled event", zap.Error(err))
	}
}
