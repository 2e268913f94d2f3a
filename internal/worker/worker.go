package worker

import (
	"context"

	"sales-ledger/internal/broker"
	"sales-ledger/internal/models"
	"sales-ledger/internal/redisclient"
	"sales-ledger/internal/store"
	"sales-ledger/internal/util"

	"go.uber.org/zap"
)

// RollupWorker consumes ledger events and keeps per-tenant daily rollups
// warm in Redis for cheap dashboard reads. The SQL store stays the source
// of truth; the rollup is a cache. Event IDs are recorded so redelivered
// messages do not double-count.
type RollupWorker struct {
	consumer *broker.Consumer
	handler  *broker.EventHandler
	store    store.Store
	redis    *redisclient.Client
	logger   *zap.Logger
}

// NewRollupWorker creates a new rollup worker
func NewRollupWorker(consumer *broker.Consumer, st store.Store, redis *redisclient.Client) *RollupWorker {
	w := &RollupWorker{
		consumer: consumer,
		store:    st,
		redis:    redis,
		logger:   util.GetLogger(),
	}

	handler := broker.NewEventHandler()
	handler.OnSaleRecorded(w.handleSaleRecorded)
	handler.OnPaymentRecorded(w.handlePaymentRecorded)
	w.handler = handler

	return w
}

// Start starts the worker
func (w *RollupWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting rollup worker")
	return w.consumer.StartConsuming(ctx, w.handler.HandleMessage)
}

// Stop stops the worker
func (w *RollupWorker) Stop() error {
	w.logger.Info("Stopping rollup worker")
	return w.consumer.Close()
}

func (w *RollupWorker) handleSaleRecorded(ctx context.Context, event *models.SaleRecordedEvent) error {
	processed, err := w.store.IsEventProcessed(ctx, event.EventID)
	if err != nil {
		return err
	}
	if processed {
		w.logger.Debug("Event already processed", zap.String("event_id", event.EventID))
		return nil
	}

	day := event.Timestamp
	if err := w.redis.IncrDailyRollup(ctx, event.BusinessID, day, redisclient.RollupFieldSales, event.TotalAmount); err != nil {
		return err
	}
	if err := w.redis.IncrDailyRollup(ctx, event.BusinessID, day, redisclient.RollupFieldCount, 1); err != nil {
		return err
	}

	// Cash settles instantly; credit income arrives with payments.
	if event.Kind == models.SaleKindCash {
		if err := w.redis.IncrDailyRollup(ctx, event.BusinessID, day, redisclient.RollupFieldIncome, event.TotalAmount); err != nil {
			return err
		}
	}

	return w.store.MarkEventProcessed(ctx, event.EventID, event.EventType)
}

func (w *RollupWorker) handlePaymentRecorded(ctx context.Context, event *models.PaymentRecordedEvent) error {
	processed, err := w.store.IsEventProcessed(ctx, event.EventID)
	if err != nil {
		return err
	}
	if processed {
		w.logger.Debug("Event already processed", zap.String("event_id", event.EventID))
		return nil
	}

	if err := w.redis.IncrDailyRollup(ctx, event.BusinessID, event.Timestamp, redisclient.RollupFieldIncome, event.Amount); err != nil {
		return err
	}

	return w.store.MarkEventProcessed(ctx, event.EventID, event.EventType)
}
