package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"time"

	"sales-ledger/internal/apperr"
	"sales-ledger/internal/models"
	"sales-ledger/internal/store"

	"github.com/google/uuid"
)

const saleColumns = `id, business_id, inventory_item_id, product_name, quantity, unit_price,
	total_amount, customer_name, kind, payment_method, due_date,
	COALESCE(idempotency_key, '') AS idempotency_key, created_at`

// RecordSale commits a sale as one atomic unit: lock the item row, verify
// stock, decrement it and insert the sale with name/price snapshots. Two
// sales racing for the last unit serialize on the row lock; the loser
// fails with insufficient stock and no partial effect.
func (s *Store) RecordSale(ctx context.Context, sale *models.Sale) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var item models.InventoryItem
	err = tx.GetContext(ctx, &item,
		`SELECT `+itemColumns+` FROM inventory_items WHERE id = $1 AND business_id = $2 FOR UPDATE`,
		sale.InventoryItemID, sale.BusinessID)
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.NotFoundf("inventory item %s not found", sale.InventoryItemID)
	}
	if err != nil {
		return err
	}

	if sale.Quantity > item.QuantityOnHand {
		return apperr.InsufficientStockf("requested %d of %q, only %d on hand",
			sale.Quantity, item.Name, item.QuantityOnHand)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE inventory_items SET quantity_on_hand = quantity_on_hand - $1 WHERE id = $2`,
		sale.Quantity, item.ID); err != nil {
		return err
	}

	sale.ID = uuid.NewString()
	sale.ProductName = item.Name
	sale.UnitPrice = item.SellingPrice
	sale.TotalAmount = int64(sale.Quantity) * item.SellingPrice
	sale.CreatedAt = time.Now().UTC()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO sales (id, business_id, inventory_item_id, product_name, quantity, unit_price,
			total_amount, customer_name, kind, payment_method, due_date, idempotency_key, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NULLIF($12, ''), $13)`,
		sale.ID, sale.BusinessID, sale.InventoryItemID, sale.ProductName, sale.Quantity, sale.UnitPrice,
		sale.TotalAmount, sale.CustomerName, sale.Kind, sale.PaymentMethod, sale.DueDate,
		sale.IdempotencyKey, sale.CreatedAt); err != nil {
		return err
	}

	return tx.Commit()
}

// GetSale retrieves a sale scoped to its tenant
func (s *Store) GetSale(ctx context.Context, businessID, saleID string) (*models.Sale, error) {
	var sale models.Sale
	err := s.db.GetContext(ctx, &sale,
		`SELECT `+saleColumns+` FROM sales WHERE id = $1 AND business_id = $2`,
		saleID, businessID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFoundf("sale %s not found", saleID)
	}
	if err != nil {
		return nil, err
	}
	return &sale, nil
}

// GetSaleByIdempotencyKey retrieves a sale by idempotency key, or nil
func (s *Store) GetSaleByIdempotencyKey(ctx context.Context, businessID, key string) (*models.Sale, error) {
	var sale models.Sale
	err := s.db.GetContext(ctx, &sale,
		`SELECT `+saleColumns+` FROM sales WHERE business_id = $1 AND idempotency_key = $2`,
		businessID, key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sale, nil
}

// ListSales retrieves sales for a tenant, newest first
func (s *Store) ListSales(ctx context.Context, businessID string, f store.SaleFilter) ([]models.Sale, error) {
	query := `SELECT ` + saleColumns + ` FROM sales WHERE business_id = $1`
	args := []interface{}{businessID}

	if f.Kind != "" {
		args = append(args, f.Kind)
		query += ` AND kind = $` + strconv.Itoa(len(args))
	}
	if f.Customer != "" {
		args = append(args, f.Customer)
		query += ` AND LOWER(customer_name) = LOWER($` + strconv.Itoa(len(args)) + `)`
	}
	if !f.Start.IsZero() {
		args = append(args, f.Start)
		query += ` AND created_at >= $` + strconv.Itoa(len(args))
	}
	if !f.End.IsZero() {
		args = append(args, f.End)
		query += ` AND created_at <= $` + strconv.Itoa(len(args))
	}
	query += ` ORDER BY created_at DESC`

	var sales []models.Sale
	err := s.db.SelectContext(ctx, &sales, query, args...)
	return sales, err
}

// DeleteSale reverses an unpaid sale: restore the stock it consumed and
// remove the row, all in one transaction. Sales with payments stay put.
func (s *Store) DeleteSale(ctx context.Context, businessID, saleID string) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var sale models.Sale
	err = tx.GetContext(ctx, &sale,
		`SELECT `+saleColumns+` FROM sales WHERE id = $1 AND business_id = $2 FOR UPDATE`,
		saleID, businessID)
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.NotFoundf("sale %s not found", saleID)
	}
	if err != nil {
		return err
	}

	var paymentCount int
	if err := tx.GetContext(ctx, &paymentCount,
		`SELECT COUNT(*) FROM payments WHERE sale_id = $1`, saleID); err != nil {
		return err
	}
	if paymentCount > 0 {
		return apperr.Conflictf("sale %s has payments and cannot be deleted", saleID)
	}

	// No-op when the item was deleted since; the sale kept its snapshot.
	if _, err := tx.ExecContext(ctx,
		`UPDATE inventory_items SET quantity_on_hand = quantity_on_hand + $1 WHERE id = $2 AND business_id = $3`,
		sale.Quantity, sale.InventoryItemID, businessID); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM sales WHERE id = $1`, saleID); err != nil {
		return err
	}

	return tx.Commit()
}
