package broker

import (
	"context"
	"encoding/json"
	"fmt"

	"sales-ledger/internal/models"
	"sales-ledger/internal/util"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// EventPublisher handles publishing ledger events
type EventPublisher struct {
	producer *Producer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(producer *Producer) *EventPublisher {
	return &EventPublisher{producer: producer}
}

// PublishSaleRecorded publishes a SaleRecorded event
func (ep *EventPublisher) PublishSaleRecorded(ctx context.Context, event *models.SaleRecordedEvent) error {
	key := fmt.Sprintf("sale-%s", event.SaleID)
	return ep.producer.PublishEvent(ctx, key, event)
}

// PublishSaleDeleted publishes a SaleDeleted event
func (ep *EventPublisher) PublishSaleDeleted(ctx context.Context, event *models.SaleDeletedEvent) error {
	key := fmt.Sprintf("sale-%s", event.SaleID)
	return ep.producer.PublishEvent(ctx, key, event)
}

// PublishPaymentRecorded publishes a PaymentRecorded event
func (ep *EventPublisher) PublishPaymentRecorded(ctx context.Context, event *models.PaymentRecordedEvent) error {
	key := fmt.Sprintf("sale-%s", event.SaleID)
	return ep.producer.PublishEvent(ctx, key, event)
}

// PublishInvoiceSettled publishes an InvoiceSettled event
func (ep *EventPublisher) PublishInvoiceSettled(ctx context.Context, event *models.InvoiceSettledEvent) error {
	key := fmt.Sprintf("sale-%s", event.SaleID)
	return ep.producer.PublishEvent(ctx, key, event)
}

// PublishStockAdjusted publishes a StockAdjusted event
func (ep *EventPublisher) PublishStockAdjusted(ctx context.Context, event *models.StockAdjustedEvent) error {
	key := fmt.Sprintf("item-%s", event.ItemID)
	return ep.producer.PublishEvent(ctx, key, event)
}

// EventHandler routes consumed ledger events to registered callbacks
type EventHandler struct {
	onSaleRecorded    func(context.Context, *models.SaleRecordedEvent) error
	onPaymentRecorded func(context.Context, *models.PaymentRecordedEvent) error
	onInvoiceSettled  func(context.Context, *models.InvoiceSettledEvent) error
}

// NewEventHandler creates a new event handler
func NewEventHandler() *EventHandler {
	return &EventHandler{}
}

// OnSaleRecorded registers a handler for SaleRecorded events
func (eh *EventHandler) OnSaleRecorded(handler func(context.Context, *models.SaleRecordedEvent) error) {
	eh.onSaleRecorded = handler
}

// OnPaymentRecorded registers a handler for PaymentRecorded events
func (eh *EventHandler) OnPaymentRecorded(handler func(context.Context, *models.PaymentRecordedEvent) error) {
	eh.onPaymentRecorded = handler
}

// OnInvoiceSettled registers a handler for InvoiceSettled events
func (eh *EventHandler) OnInvoiceSettled(handler func(context.Context, *models.InvoiceSettledEvent) error) {
	eh.onInvoiceSettled = handler
}

// HandleMessage routes messages to appropriate handlers
func (eh *EventHandler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	var baseEvent models.BaseEvent
	if err := json.Unmarshal(msg.Value, &baseEvent); err != nil {
		return fmt.Errorf("failed to unmarshal base event: %w", err)
	}

	switch baseEvent.EventType {
	case models.EventTypeSaleRecorded:
		if eh.onSaleRecorded != nil {
			var event models.SaleRecordedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal SaleRecorded event: %w", err)
			}
			return eh.onSaleRecorded(ctx, &event)
		}

	case models.EventTypePaymentRecorded:
		if eh.onPaymentRecorded != nil {
			var event models.PaymentRecordedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal PaymentRecorded event: %w", err)
			}
			return eh.onPaymentRecorded(ctx, &event)
		}

	case models.EventTypeInvoiceSettled:
		if eh.onInvoiceSettled != nil {
			var event models.InvoiceSettledEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal InvoiceSettled event: %w", err)
			}
			return eh.onInvoiceSettled(ctx, &event)
		}

	default:
		util.GetLogger().Debug("Unhandled event type", zap.String("type", baseEvent.EventType))
	}

	return nil
}
