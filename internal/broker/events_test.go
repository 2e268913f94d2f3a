package broker

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"sales-ledger/internal/models"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func messageFor(t *testing.T, event interface{}) kafka.Message {
	t.Helper()
	value, err := json.Marshal(event)
	require.NoError(t, err)
	return kafka.Message{Value: value}
}

func TestEventHandlerRoutesSaleRecorded(t *testing.T) {
	handler := NewEventHandler()

	var got *models.SaleRecordedEvent
	handler.OnSaleRecorded(func(_ context.Context, event *models.SaleRecordedEvent) error {
		got = event
		return nil
	})

	event := &models.SaleRecordedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   "evt-1",
			EventType: models.EventTypeSaleRecorded,
			Timestamp: time.Now().UTC(),
		},
		SaleID:      "sale-1",
		BusinessID:  "biz-1",
		Kind:        models.SaleKindCash,
		TotalAmount: 1500,
	}

	err := handler.HandleMessage(context.Background(), messageFor(t, event))
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "sale-1", got.SaleID)
	assert.Equal(t, int64(1500), got.TotalAmount)
}

func TestEventHandlerRoutesPaymentRecorded(t *testing.T) {
	handler := NewEventHandler()

	var got *models.PaymentRecordedEvent
	handler.OnPaymentRecorded(func(_ context.Context, event *models.PaymentRecordedEvent) error {
		got = event
		return nil
	})

	event := &models.PaymentRecordedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   "evt-2",
			EventType: models.EventTypePaymentRecorded,
			Timestamp: time.Now().UTC(),
		},
		PaymentID:  "pay-1",
		SaleID:     "sale-1",
		BusinessID: "biz-1",
		Amount:     500,
		Balance:    1000,
	}

	err := handler.HandleMessage(context.Background(), messageFor(t, event))
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, int64(500), got.Amount)
	assert.Equal(t, int64(1000), got.Balance)
}

func TestEventHandlerIgnoresUnregisteredAndUnknownTypes(t *testing.T) {
	handler := NewEventHandler()

	// No callbacks registered: routing is a no-op, not an error.
	event := &models.SaleRecordedEvent{
		BaseEvent: models.BaseEvent{EventID: "evt-3", EventType: models.EventTypeSaleRecorded},
	}
	assert.NoError(t, handler.HandleMessage(context.Background(), messageFor(t, event)))

	unknown := &models.BaseEvent{EventID: "evt-4", EventType: "SOMETHING_ELSE"}
	assert.NoError(t, handler.HandleMessage(context.Background(), messageFor(t, unknown)))
}

func TestEventHandlerRejectsMalformedPayload(t *testing.T) {
	handler := NewEventHandler()
	err := handler.HandleMessage(context.Background(), kafka.Message{Value: []byte("not json")})
	assert.Error(t, err)
}
