package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"sales-ledger/internal/apperr"
	"sales-ledger/internal/models"

	"github.com/google/uuid"
)

const itemColumns = `id, business_id, name, sku, unit_cost, selling_price, quantity_on_hand, created_at`

// CreateItem inserts a new inventory item
func (s *Store) CreateItem(ctx context.Context, item *models.InventoryItem) error {
	item.ID = uuid.NewString()
	item.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO inventory_items (id, business_id, name, sku, unit_cost, selling_price, quantity_on_hand, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		item.ID, item.BusinessID, item.Name, item.SKU,
		item.UnitCost, item.SellingPrice, item.QuantityOnHand, item.CreatedAt)
	return err
}

// GetItem retrieves an item scoped to its tenant
func (s *Store) GetItem(ctx context.Context, businessID, itemID string) (*models.InventoryItem, error) {
	var item models.InventoryItem
	err := s.db.GetContext(ctx, &item,
		`SELECT `+itemColumns+` FROM inventory_items WHERE id = $1 AND business_id = $2`,
		itemID, businessID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFoundf("inventory item %s not found", itemID)
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// ListItems retrieves all items for a tenant
func (s *Store) ListItems(ctx context.Context, businessID string) ([]models.InventoryItem, error) {
	var items []models.InventoryItem
	err := s.db.SelectContext(ctx, &items,
		`SELECT `+itemColumns+` FROM inventory_items WHERE business_id = $1 ORDER BY name`,
		businessID)
	return items, err
}

// UpdateItem updates catalog fields. Historic sales are untouched: they
// carry their own name/price snapshots.
func (s *Store) UpdateItem(ctx context.Context, item *models.InventoryItem) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE inventory_items
		SET name = $1, sku = $2, unit_cost = $3, selling_price = $4, quantity_on_hand = $5
		WHERE id = $6 AND business_id = $7`,
		item.Name, item.SKU, item.UnitCost, item.SellingPrice, item.QuantityOnHand,
		item.ID, item.BusinessID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFoundf("inventory item %s not found", item.ID)
	}
	return nil
}

// DeleteItem removes an item. Always permitted: sales snapshot the product
// name and price at sale time.
func (s *Store) DeleteItem(ctx context.Context, businessID, itemID string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM inventory_items WHERE id = $1 AND business_id = $2`,
		itemID, businessID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFoundf("inventory item %s not found", itemID)
	}
	return nil
}

// AdjustStock applies delta as a single conditional update, so the
// check-and-apply is one atomic statement rather than read-then-write.
func (s *Store) AdjustStock(ctx context.Context, businessID, itemID string, delta int) (*models.InventoryItem, error) {
	var item models.InventoryItem
	err := s.db.GetContext(ctx, &item, `
		UPDATE inventory_items
		SET quantity_on_hand = quantity_on_hand + $1
		WHERE id = $2 AND business_id = $3 AND quantity_on_hand + $1 >= 0
		RETURNING `+itemColumns,
		delta, itemID, businessID)
	if errors.Is(err, sql.ErrNoRows) {
		// Distinguish a missing item from a refused decrement.
		if _, getErr := s.GetItem(ctx, businessID, itemID); getErr != nil {
			return nil, getErr
		}
		return nil, apperr.InsufficientStockf("stock adjustment of %d would drop item %s below zero", delta, itemID)
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}
