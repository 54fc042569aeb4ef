// Package fundamentals turns raw provider fundamentals into normalized
// financial metrics with derived profit margins, plus a human-readable
// summary projection.
package fundamentals

import (
	"errors"
	"fmt"

	"github.com/sbalaji92/investlens/pkg/models"
	"github.com/sbalaji92/investlens/pkg/utils"
)

// ErrNoData means the provider returned an empty statement table or no
// descriptive attributes for the ticker.
var ErrNoData = errors.New("no financial data available")

// Normalize builds a FinancialMetrics record from a raw provider
// response. The most recent fiscal-year column is the reporting period.
// Line items the provider could not resolve stay nil; derived margins
// are computed only when annual revenue is present and strictly
// positive and the numerator is present and non-zero.
func Normalize(raw *models.RawFundamentals, ticker string) (*models.FinancialMetrics, error) {
	if raw == nil || len(raw.Statements) == 0 || raw.Attributes.IsEmpty() {
		return nil, fmt.Errorf("%w for ticker %q", ErrNoData, ticker)
	}

	col := raw.Statements[0]
	attrs := raw.Attributes

	m := &models.FinancialMetrics{
		CompanyName:   companyName(attrs, ticker),
		Ticker:        utils.NormalizeTicker(ticker),
		Currency:      currency(attrs),
		FiscalYearEnd: col.EndDate,

		MarketCap:       attrs.MarketCap,
		EnterpriseValue: attrs.EnterpriseValue,

		AnnualRevenue:     revenue(col, attrs),
		CostOfGoodsSold:   col.Item("Cost Of Revenue"),
		GrossProfit:       col.Item("Gross Profit"),
		OperatingIncome:   col.Item("Operating Income"),
		NetIncome:         col.Item("Net Income"),
		InterestIncome:    col.Item("Interest Income"),
		InterestExpense:   col.Item("Interest Expense"),
		NetInterestIncome: col.Item("Net Interest Income"),
		TotalExpenses:     col.Item("Total Expenses"),
		OperatingExpenses: col.Item("Operating Expense"),
		EBITDA:            col.Item("EBITDA"),
		EBIT:              col.Item("EBIT"),
	}

	if m.AnnualRevenue != nil && *m.AnnualRevenue > 0 {
		rev := *m.AnnualRevenue
		m.GrossProfitMarginPct = marginOf(m.GrossProfit, rev)
		m.OperatingProfitMarginPct = marginOf(m.OperatingIncome, rev)
		m.NetProfitMarginPct = marginOf(m.NetIncome, rev)
		m.EBITDAMarginPct = marginOf(m.EBITDA, rev)
	}

	m.ProviderGrossMarginPct = providerMargin(attrs.GrossMargins)
	m.ProviderOperatingMarginPct = providerMargin(attrs.OperatingMargins)
	m.ProviderNetMarginPct = providerMargin(attrs.ProfitMargins)

	return m, nil
}

// companyName falls back from long name to short name to the ticker.
func companyName(attrs models.CompanyAttributes, ticker string) string {
	if attrs.LongName != "" {
		return attrs.LongName
	}
	if attrs.ShortName != "" {
		return attrs.ShortName
	}
	return utils.NormalizeTicker(ticker)
}

func currency(attrs models.CompanyAttributes) string {
	if attrs.Currency != "" {
		return attrs.Currency
	}
	return "USD"
}

// revenue reads Total Revenue from the statement column, falling back
// to the attributes value when the column has none (or reports zero).
func revenue(col models.StatementColumn, attrs models.CompanyAttributes) *float64 {
	if v := col.Item("Total Revenue"); v != nil && *v != 0 {
		return v
	}
	return attrs.TotalRevenue
}

// marginOf returns numerator/revenue as a percentage rounded to two
// decimals, or nil when the numerator is absent or zero.
func marginOf(numerator *float64, revenue float64) *float64 {
	if numerator == nil || *numerator == 0 {
		return nil
	}
	return models.Float(utils.Round2(*numerator / revenue * 100))
}

// providerMargin converts a fractional provider ratio to a percentage
// rounded to two decimals. Nil and zero values are skipped so an
// omitted ratio never shows up as 0%.
func providerMargin(fraction *float64) *float64 {
	if fraction == nil || *fraction == 0 {
		return nil
	}
	return models.Float(utils.Round2(*fraction * 100))
}
