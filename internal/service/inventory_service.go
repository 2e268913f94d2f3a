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

// InventoryService owns the tenant catalog: item CRUD and the atomic
// stock adjustments everything else hangs off.
type InventoryService struct {
	store  store.Store
	events *broker.EventPublisher
	logger *zap.Logger
}

// NewInventoryService creates a new inventory service
func NewInventoryService(store store.Store, events *broker.EventPublisher) *InventoryService {
	return &InventoryService{
		store:  store,
		events: events,
		logger: util.GetLogger(),
	}
}

// AddItemRequest carries a new catalog entry
type AddItemRequest struct {
	Name         string `json:"name" binding:"required"`
	SKU          string `json:"sku"`
	UnitCost     int64  `json:"unit_cost"`
	SellingPrice int64  `json:"selling_price"`
	Quantity     int    `json:"quantity"`
}

// UpdateItemRequest carries a partial catalog edit; nil fields are untouched
type UpdateItemRequest struct {
	Name         *string `json:"name"`
	SKU          *string `json:"sku"`
	UnitCost     *int64  `json:"unit_cost"`
	SellingPrice *int64  `json:"selling_price"`
	Quantity     *int    `json:"quantity"`
}

// AddItem validates and creates a catalog item
func (s *InventoryService) AddItem(ctx context.Context, businessID string, req *AddItemRequest) (*models.InventoryItem, error) {
	ctx, span := util.StartSpan(ctx, "InventoryService.AddItem")
	defer span.End()

	if strings.TrimSpace(req.Name) == "" {
		return nil, apperr.Validationf("item name must not be blank")
	}
	if req.UnitCost < 0 || req.SellingPrice < 0 {
		return nil, apperr.Validationf("unit cost and selling price must not be negative")
	}
	if req.Quantity < 0 {
		return nil, apperr.Validationf("initial quantity must not be negative")
	}

	item := &models.InventoryItem{
		BusinessID:     businessID,
		Name:           strings.TrimSpace(req.Name),
		SKU:            strings.TrimSpace(req.SKU),
		UnitCost:       req.UnitCost,
		SellingPrice:   req.SellingPrice,
		QuantityOnHand: req.Quantity,
	}

	if err := s.store.CreateItem(ctx, item); err != nil {
		return nil, err
	}

	s.logger.Info("Item created",
		zap.String("business_id", businessID),
		zap.String("item_id", item.ID),
		zap.String("name", item.Name))

	return item, nil
}

// UpdateItem applies a catalog edit. Historic sales keep their snapshots
// and are never affected.
func (s *InventoryService) UpdateItem(ctx context.Context, businessID, itemID string, req *UpdateItemRequest) (*models.InventoryItem, error) {
	ctx, span := util.StartSpan(ctx, "InventoryService.UpdateItem")
	defer span.End()

	item, err := s.store.GetItem(ctx, businessID, itemID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			return nil, apperr.Validationf("item name must not be blank")
		}
		item.Name = strings.TrimSpace(*req.Name)
	}
	if req.SKU != nil {
		item.SKU = strings.TrimSpace(*req.SKU)
	}
	if req.UnitCost != nil {
		if *req.UnitCost < 0 {
			return nil, apperr.Validationf("unit cost must not be negative")
		}
		item.UnitCost = *req.UnitCost
	}
	if req.SellingPrice != nil {
		if *req.SellingPrice < 0 {
			return nil, apperr.Validationf("selling price must not be negative")
		}
		item.SellingPrice = *req.SellingPrice
	}
	if req.Quantity != nil {
		if *req.Quantity < 0 {
			return nil, apperr.Validationf("quantity must not be negative")
		}
		item.QuantityOnHand = *req.Quantity
	}

	if err := s.store.UpdateItem(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// AdjustStock applies a stock delta: negative on correction, positive on
// restock. The store makes the check-and-apply atomic.
func (s *InventoryService) AdjustStock(ctx context.Context, businessID, itemID string, delta int) (*models.InventoryItem, error) {
	ctx, span := util.StartSpan(ctx, "InventoryService.AdjustStock")
	defer span.End()

	if delta == 0 {
		return nil, apperr.Validationf("stock delta must not be zero")
	}

	item, err := s.store.AdjustStock(ctx, businessID, itemID, delta)
	if err != nil {
		return nil, err
	}

	direction := "in"
	if delta < 0 {
		direction = "out"
	}
	util.StockAdjustmentsTotal.WithLabelValues(direction).Inc()

	s.publishStockAdjusted(ctx, item, delta)
	return item, nil
}

// DeleteItem removes a catalog entry. Always permitted: sales carry their
// own snapshots.
func (s *InventoryService) DeleteItem(ctx context.Context, businessID, itemID string) error {
	ctx, span := util.StartSpan(ctx, "InventoryService.DeleteItem")
	defer span.End()

	if err := s.store.DeleteItem(ctx, businessID, itemID); err != nil {
		return err
	}

	s.logger.Info("Item deleted",
		zap.String("business_id", businessID),
		zap.String("item_id", itemID))
	return nil
}

// GetItem retrieves one item
func (s *InventoryService) GetItem(ctx context.Context, businessID, itemID string) (*models.InventoryItem, error) {
	return s.store.GetItem(ctx, businessID, itemID)
}

// ListItems retrieves the tenant's catalog
func (s *InventoryService) ListItems(ctx context.Context, businessID string) ([]models.InventoryItem, error) {
	return s.store.ListItems(ctx, businessID)
}

func (s *InventoryService) publishStockAdjusted(ctx context.Context, item *models.InventoryItem, delta int) {
	if s.events == nil {
		return
	}

	event := &models.StockAdjustedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.NewString(),
			EventType: models.EventTypeStockAdjusted,
			Timestamp: time.Now().UTC(),
		},
		ItemID:     item.ID,
		BusinessID: item.BusinessID,
		Delta:      delta,
		NewOnHand:  item.QuantityOnHand,
	}

	if err := s.events.PublishStockAdjusted(ctx, event); err != nil {
		s.logger.Error("Failed to publish StockAdjusted event", zap.Error(err))
	}
}
