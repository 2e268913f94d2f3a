package service

import (
	"context"
	"strings"
	"time"

	"sales-ledger/internal/apperr"
	"sales-ledger/internal/models"
	"sales-ledger/internal/store"
	"sales-ledger/internal/util"

	"go.uber.org/zap"
)

// ReportService folds sales, payments and expenses into summary rollups.
// Income is strictly cash sales plus actual payment rows: an open credit
// balance is not income until a payment lands.
type ReportService struct {
	store     store.Store
	presenter *CurrencyPresenter
	logger    *zap.Logger
}

// NewReportService creates a new report service
func NewReportService(store store.Store, presenter *CurrencyPresenter) *ReportService {
	return &ReportService{
		store:     store,
		presenter: presenter,
		logger:    util.GetLogger(),
	}
}

// Summarize computes the rollup for a tenant and range. When currency is
// set and differs from the base, amounts are converted for display only.
func (s *ReportService) Summarize(ctx context.Context, businessID string, r store.DateRange, currency string) (*models.Summary, error) {
	ctx, span := util.StartSpan(ctx, "ReportService.Summarize")
	defer span.End()

	sales, err := s.store.SumSales(ctx, businessID, r)
	if err != nil {
		return nil, err
	}
	payments, err := s.store.SumPayments(ctx, businessID, r)
	if err != nil {
		return nil, err
	}
	expenses, err := s.store.SumExpenses(ctx, businessID, r)
	if err != nil {
		return nil, err
	}

	income := sales.CashSales + payments
	summary := models.Summary{
		BusinessID:          businessID,
		TotalSales:          sales.TotalSales,
		CashSales:           sales.CashSales,
		PaymentsReceived:    payments,
		TotalIncomeReceived: income,
		TotalExpenses:       expenses,
		NetProfit:           income - expenses,
		Currency:            s.presenter.Base(),
	}

	if currency != "" && !strings.EqualFold(currency, s.presenter.Base()) {
		converted, err := s.presenter.PresentSummary(summary, currency)
		if err != nil {
			return nil, err
		}
		summary = converted
	}

	return &summary, nil
}

// AddExpenseRequest represents a new expense record
type AddExpenseRequest struct {
	Title      string     `json:"title" binding:"required"`
	Amount     int64      `json:"amount" binding:"required"`
	IncurredAt *time.Time `json:"incurred_at,omitempty"`
}

// AddExpense validates and records an expense
func (s *ReportService) AddExpense(ctx context.Context, businessID string, req *AddExpenseRequest) (*models.Expense, error) {
	if strings.TrimSpace(req.Title) == "" {
		return nil, apperr.Validationf("expense title must not be blank")
	}
	if req.Amount <= 0 {
		return nil, apperr.Validationf("expense amount must be positive")
	}

	incurred := time.Now().UTC()
	if req.IncurredAt != nil {
		incurred = req.IncurredAt.UTC()
	}

	expense := &models.Expense{
		BusinessID: businessID,
		Title:      strings.TrimSpace(req.Title),
		Amount:     req.Amount,
		IncurredAt: incurred,
	}

	if err := s.store.CreateExpense(ctx, expense); err != nil {
		return nil, err
	}

	s.logger.Info("Expense recorded",
		zap.String("business_id", businessID),
		zap.String("expense_id", expense.ID),
		zap.Int64("amount", expense.Amount))
	return expense, nil
}

// ListExpenses retrieves expenses for a tenant and range
func (s *ReportService) ListExpenses(ctx context.Context, businessID string, r store.DateRange) ([]models.Expense, error) {
	return s.store.ListExpenses(ctx, businessID, r)
}

// DeleteExpense removes an expense record
func (s *ReportService) DeleteExpense(ctx context.Context, businessID, expenseID string) error {
	return s.store.DeleteExpense(ctx, businessID, expenseID)
}
