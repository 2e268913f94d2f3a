package service

import (
	"context"
	"strings"
	"time"

	"sales-ledger/internal/apperr"
	"sales-ledger/internal/broker"
	"sales-ledger/internal/models"
	"sales-ledger/internal/redisclient"
	"sales-ledger/internal/store"
	"sales-ledger/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const idempotencyTTL = 24 * time.Hour

// SalesService records immutable sale transactions against inventory and
// reverses unpaid ones.
type SalesService struct {
	store  store.Store
	redis  *redisclient.Client
	events *broker.EventPublisher
	logger *zap.Logger
}

// NewSalesService creates a new sales service
func NewSalesService(store store.Store, redis *redisclient.Client, events *broker.EventPublisher) *SalesService {
	return &SalesService{
		store:  store,
		redis:  redis,
		events: events,
		logger: util.GetLogger(),
	}
}

// RecordSaleRequest represents a request to record a sale
type RecordSaleRequest struct {
	ItemID         string          `json:"item_id" binding:"required"`
	Quantity       int             `json:"quantity" binding:"required"`
	Kind           models.SaleKind `json:"kind" binding:"required"`
	CustomerName   string          `json:"customer_name,omitempty"`
	PaymentMethod  string          `json:"payment_method,omitempty"`
	DueDate        *time.Time      `json:"due_date,omitempty"`
	IdempotencyKey string          `json:"idempotency_key,omitempty"`
}

func (r *RecordSaleRequest) validate() error {
	if r.Quantity <= 0 {
		return apperr.Validationf("quantity must be positive")
	}

	switch r.Kind {
	case models.SaleKindCash:
		if strings.TrimSpace(r.PaymentMethod) == "" {
			return apperr.Validationf("cash sales require a payment method")
		}
	case models.SaleKindCredit:
		if strings.TrimSpace(r.CustomerName) == "" {
			return apperr.Validationf("credit sales require a customer name")
		}
		if r.DueDate == nil {
			return apperr.Validationf("credit sales require a due date")
		}
	default:
		return apperr.Validationf("kind must be CASH or CREDIT")
	}
	return nil
}

// RecordSale validates the request and commits the sale atomically: the
// store locks the item, checks stock, decrements it and inserts the sale
// with its name/price snapshot in one transaction. A rejected sale leaves
// no trace; callers see the error and decide whether to retry.
func (s *SalesService) RecordSale(ctx context.Context, businessID string, req *RecordSaleRequest) (*models.Sale, error) {
	ctx, span := util.StartSpan(ctx, "SalesService.RecordSale")
	defer span.End()

	if err := req.validate(); err != nil {
		util.SalesFailedTotal.WithLabelValues(apperr.KindOf(err).String()).Inc()
		return nil, err
	}

	if req.IdempotencyKey != "" {
		if existing, err := s.lookupReplay(ctx, businessID, req.IdempotencyKey); err != nil {
			return nil, err
		} else if existing != nil {
			s.logger.Info("Duplicate sale request detected",
				zap.String("idempotency_key", req.IdempotencyKey),
				zap.String("sale_id", existing.ID))
			return existing, nil
		}
	}

	sale := &models.Sale{
		BusinessID:      businessID,
		InventoryItemID: req.ItemID,
		Quantity:        req.Quantity,
		CustomerName:    strings.TrimSpace(req.CustomerName),
		Kind:            req.Kind,
		PaymentMethod:   strings.TrimSpace(req.PaymentMethod),
		DueDate:         req.DueDate,
		IdempotencyKey:  req.IdempotencyKey,
	}

	start := time.Now()
	err := s.store.RecordSale(ctx, sale)
	util.RecordSaleLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		util.SalesFailedTotal.WithLabelValues(apperr.KindOf(err).String()).Inc()
		return nil, err
	}

	util.SalesRecordedTotal.WithLabelValues(string(sale.Kind)).Inc()
	s.logger.Info("Sale recorded",
		zap.String("business_id", businessID),
		zap.String("sale_id", sale.ID),
		zap.String("kind", string(sale.Kind)),
		zap.Int64("total_amount", sale.TotalAmount))

	if req.IdempotencyKey != "" && s.redis != nil {
		if err := s.redis.SetIdempotencyKey(ctx, businessID, req.IdempotencyKey, sale.ID, idempotencyTTL); err != nil {
			s.logger.Warn("Failed to cache idempotency key", zap.Error(err))
		}
	}

	s.publishSaleRecorded(ctx, sale)
	return sale, nil
}

// lookupReplay checks the Redis fast path, then the authoritative
// database column, for a previously committed sale under the same key.
func (s *SalesService) lookupReplay(ctx context.Context, businessID, key string) (*models.Sale, error) {
	if s.redis != nil {
		saleID, err := s.redis.GetIdempotencyKey(ctx, businessID, key)
		if err != nil {
			s.logger.Warn("Idempotency cache lookup failed", zap.Error(err))
		} else if saleID != "" {
			if sale, err := s.store.GetSale(ctx, businessID, saleID); err == nil {
				return sale, nil
			}
		}
	}

	return s.store.GetSaleByIdempotencyKey(ctx, businessID, key)
}

// DeleteSale reverses an unpaid sale, restoring the stock it consumed.
// Sales with payments are immutable audit history and fail with a conflict.
func (s *SalesService) DeleteSale(ctx context.Context, businessID, saleID string) error {
	ctx, span := util.StartSpan(ctx, "SalesService.DeleteSale")
	defer span.End()

	sale, err := s.store.GetSale(ctx, businessID, saleID)
	if err != nil {
		return err
	}

	if err := s.store.DeleteSale(ctx, businessID, saleID); err != nil {
		return err
	}

	util.SalesDeletedTotal.Inc()
	s.logger.Info("Sale deleted",
		zap.String("business_id", businessID),
		zap.String("sale_id", saleID),
		zap.Int("stock_restored", sale.Quantity))

	s.publishSaleDeleted(ctx, sale)
	return nil
}

// GetSale retrieves one sale
func (s *SalesService) GetSale(ctx context.Context, businessID, saleID string) (*models.Sale, error) {
	return s.store.GetSale(ctx, businessID, saleID)
}

// ListSales retrieves sales for a tenant, newest first
func (s *SalesService) ListSales(ctx context.Context, businessID string, f store.SaleFilter) ([]models.Sale, error) {
	return s.store.ListSales(ctx, businessID, f)
}

func (s *SalesService) publishSaleRecorded(ctx context.Context, sale *models.Sale) {
	if s.events == nil {
		return
	}

	event := &models.SaleRecordedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.NewString(),
			EventType: models.EventTypeSaleRecorded,
			Timestamp: time.Now().UTC(),
		},
		SaleID:      sale.ID,
		BusinessID:  sale.BusinessID,
		ItemID:      sale.InventoryItemID,
		Kind:        sale.Kind,
		Quantity:    sale.Quantity,
		TotalAmount: sale.TotalAmount,
	}

	if err := s.events.PublishSaleRecorded(ctx, event); err != nil {
		s.logger.Error("Failed to publish SaleRecorded event", zap.Error(err))
	}
}

func (s *SalesService) publishSaleDeleted(ctx context.Context, sale *models.Sale) {
	if s.events == nil {
		return
	}

	event := &models.SaleDeletedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.NewString(),
			EventType: models.EventTypeSaleDeleted,
			Timestamp: time.Now().UTC(),
		},
		SaleID:        sale.ID,
		BusinessID:    sale.BusinessID,
		ItemID:        sale.InventoryItemID,
		StockRestored: sale.Quantity,
	}

	if err := s.events.PublishSaleDeleted(ctx, event); err != nil {
		s.logger.Error("Failed to publish SaleDeleted event", zap.Error(err))
	}
}
