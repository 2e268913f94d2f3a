package service

import (
	"math"
	"strings"

	"sales-ledger/internal/apperr"
	"sales-ledger/internal/models"
)

// CurrencyPresenter converts base-currency amounts for display. The ledger
// stores one base currency only; conversion is a pure multiply at read
// time and the rate table is immutable after construction.
type CurrencyPresenter struct {
	base  string
	rates map[string]float64
}

// NewCurrencyPresenter builds a presenter from the configured rate table.
// The base currency always converts at 1.
func NewCurrencyPresenter(base string, rates map[string]float64) *CurrencyPresenter {
	table := make(map[string]float64, len(rates)+1)
	for code, rate := range rates {
		table[strings.ToUpper(code)] = rate
	}
	base = strings.ToUpper(base)
	table[base] = 1

	return &CurrencyPresenter{base: base, rates: table}
}

// Base returns the ledger's base currency code
func (p *CurrencyPresenter) Base() string {
	return p.base
}

// Convert converts a base-currency amount in cents to the given currency
func (p *CurrencyPresenter) Convert(amount int64, code string) (int64, error) {
	rate, ok := p.rates[strings.ToUpper(code)]
	if !ok {
		return 0, apperr.Validationf("unknown currency %q", code)
	}
	return int64(math.Round(float64(amount) * rate)), nil
}

// PresentSummary returns a copy of the summary with every amount converted
func (p *CurrencyPresenter) PresentSummary(s models.Summary, code string) (models.Summary, error) {
	code = strings.ToUpper(code)
	if _, ok := p.rates[code]; !ok {
		return models.Summary{}, apperr.Validationf("unknown currency %q", code)
	}

	convert := func(v int64) int64 {
		out, _ := p.Convert(v, code)
		return out
	}

	s.TotalSales = convert(s.TotalSales)
	s.CashSales = convert(s.CashSales)
	s.PaymentsReceived = convert(s.PaymentsReceived)
	s.TotalIncomeReceived = convert(s.TotalIncomeReceived)
	s.TotalExpenses = convert(s.TotalExpenses)
	s.NetProfit = convert(s.NetProfit)
	s.Currency = code
	return s, nil
}
