package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"sales-ledger/internal/apperr"
	"sales-ledger/internal/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// RecordPayment appends a payment against a credit sale. Concurrent
// payments on the same sale serialize on the sale row lock, so the
// balance check and the insert are one atomic step and two simultaneous
// payments can never jointly overpay.
func (s *Store) RecordPayment(ctx context.Context, payment *models.Payment) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var sale models.Sale
	err = tx.GetContext(ctx, &sale,
		`SELECT `+saleColumns+` FROM sales WHERE id = $1 AND business_id = $2 FOR UPDATE`,
		payment.SaleID, payment.BusinessID)
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.NotFoundf("sale %s not found", payment.SaleID)
	}
	if err != nil {
		return err
	}

	if sale.Kind != models.SaleKindCredit {
		return apperr.Validationf("sale %s is a cash sale and carries no balance", payment.SaleID)
	}

	var paid int64
	if err := tx.GetContext(ctx, &paid,
		`SELECT COALESCE(SUM(amount), 0) FROM payments WHERE sale_id = $1`, payment.SaleID); err != nil {
		return err
	}
	if balance := sale.TotalAmount - paid; payment.Amount > balance {
		return apperr.Overpaymentf("payment of %d exceeds remaining balance %d", payment.Amount, balance)
	}

	payment.ID = uuid.NewString()
	payment.CreatedAt = time.Now().UTC()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO payments (id, business_id, sale_id, amount, method, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		payment.ID, payment.BusinessID, payment.SaleID,
		payment.Amount, payment.Method, payment.CreatedAt); err != nil {
		return err
	}

	return tx.Commit()
}

// ListPayments retrieves payments for a sale, oldest first
func (s *Store) ListPayments(ctx context.Context, businessID, saleID string) ([]models.Payment, error) {
	if _, err := s.GetSale(ctx, businessID, saleID); err != nil {
		return nil, err
	}

	var payments []models.Payment
	err := s.db.SelectContext(ctx, &payments, `
		SELECT id, business_id, sale_id, amount, method, created_at
		FROM payments WHERE sale_id = $1 ORDER BY created_at`, saleID)
	return payments, err
}

// PaymentTotals returns the paid sum per sale for the given IDs
func (s *Store) PaymentTotals(ctx context.Context, businessID string, saleIDs []string) (map[string]int64, error) {
	totals := make(map[string]int64)
	if len(saleIDs) == 0 {
		return totals, nil
	}

	query, args, err := sqlx.In(`
		SELECT sale_id, SUM(amount) AS total
		FROM payments
		WHERE business_id = ? AND sale_id IN (?)
		GROUP BY sale_id`, businessID, saleIDs)
	if err != nil {
		return nil, err
	}
	query = s.db.Rebind(query)

	rows, err := s.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var saleID string
		var total int64
		if err := rows.Scan(&saleID, &total); err != nil {
			return nil, err
		}
		totals[saleID] = total
	}
	return totals, rows.Err()
}
