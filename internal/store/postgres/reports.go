package postgres

import (
	"context"
	"strconv"
	"time"

	"sales-ledger/internal/apperr"
	"sales-ledger/internal/models"
	"sales-ledger/internal/store"

	"github.com/google/uuid"
)

// CreateExpense inserts an expense record
func (s *Store) CreateExpense(ctx context.Context, expense *models.Expense) error {
	expense.ID = uuid.NewString()
	expense.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO expenses (id, business_id, title, amount, incurred_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		expense.ID, expense.BusinessID, expense.Title,
		expense.Amount, expense.IncurredAt, expense.CreatedAt)
	return err
}

// ListExpenses retrieves expenses for a tenant, newest first
func (s *Store) ListExpenses(ctx context.Context, businessID string, r store.DateRange) ([]models.Expense, error) {
	query := `SELECT id, business_id, title, amount, incurred_at, created_at
		FROM expenses WHERE business_id = $1`
	args := []interface{}{businessID}

	if !r.Start.IsZero() {
		args = append(args, r.Start)
		query += ` AND incurred_at >= $` + strconv.Itoa(len(args))
	}
	if !r.End.IsZero() {
		args = append(args, r.End)
		query += ` AND incurred_at <= $` + strconv.Itoa(len(args))
	}
	query += ` ORDER BY incurred_at DESC`

	var expenses []models.Expense
	err := s.db.SelectContext(ctx, &expenses, query, args...)
	return expenses, err
}

// DeleteExpense removes an expense record
func (s *Store) DeleteExpense(ctx context.Context, businessID, expenseID string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM expenses WHERE id = $1 AND business_id = $2`,
		expenseID, businessID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFoundf("expense %s not found", expenseID)
	}
	return nil
}

func rangeClause(column string, r store.DateRange, args *[]interface{}) string {
	clause := ""
	if !r.Start.IsZero() {
		*args = append(*args, r.Start)
		clause += ` AND ` + column + ` >= $` + strconv.Itoa(len(*args))
	}
	if !r.End.IsZero() {
		*args = append(*args, r.End)
		clause += ` AND ` + column + ` <= $` + strconv.Itoa(len(*args))
	}
	return clause
}

// SumSales returns total and cash-only sale sums for a tenant and range
func (s *Store) SumSales(ctx context.Context, businessID string, r store.DateRange) (store.SalesTotals, error) {
	args := []interface{}{businessID}
	query := `
		SELECT COALESCE(SUM(total_amount), 0) AS total_sales,
			COALESCE(SUM(total_amount) FILTER (WHERE kind = 'CASH'), 0) AS cash_sales
		FROM sales WHERE business_id = $1` + rangeClause("created_at", r, &args)

	var totals store.SalesTotals
	err := s.db.GetContext(ctx, &totals, query, args...)
	return totals, err
}

// SumPayments returns the payment sum for a tenant and range
func (s *Store) SumPayments(ctx context.Context, businessID string, r store.DateRange) (int64, error) {
	args := []interface{}{businessID}
	query := `SELECT COALESCE(SUM(amount), 0) FROM payments WHERE business_id = $1` +
		rangeClause("created_at", r, &args)

	var sum int64
	err := s.db.GetContext(ctx, &sum, query, args...)
	return sum, err
}

// SumExpenses returns the expense sum for a tenant and range
func (s *Store) SumExpenses(ctx context.Context, businessID string, r store.DateRange) (int64, error) {
	args := []interface{}{businessID}
	query := `SELECT COALESCE(SUM(amount), 0) FROM expenses WHERE business_id = $1` +
		rangeClause("incurred_at", r, &args)

	var sum int64
	err := s.db.GetContext(ctx, &sum, query, args...)
	return sum, err
}
