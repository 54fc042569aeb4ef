// Package models defines the shared data records exchanged between the
// data provider layer, the metrics normalizer, and the API surface.
package models

// StatementColumn is a single fiscal-year column of an income statement.
// Line items are keyed by the provider's item name (e.g., "Total Revenue");
// a missing key or a nil value means the provider could not resolve that
// item for the period — never zero.
type StatementColumn struct {
	EndDate string              `json:"end_date"` // YYYY-MM-DD
	Items   map[string]*float64 `json:"items"`
}

// Item returns the value of a line item, or nil when absent.
func (c StatementColumn) Item(name string) *float64 {
	return c.Items[name]
}

// CompanyAttributes holds the descriptive attributes the provider reports
// for a company. Pointer fields are absent when the provider omits them.
type CompanyAttributes struct {
	LongName        string   `json:"long_name,omitempty"`
	ShortName       string   `json:"short_name,omitempty"`
	Currency        string   `json:"currency,omitempty"`
	Exchange        string   `json:"exchange,omitempty"`
	MarketCap       *float64 `json:"market_cap,omitempty"`
	EnterpriseValue *float64 `json:"enterprise_value,omitempty"`
	TotalRevenue    *float64 `json:"total_revenue,omitempty"`

	// Provider-precomputed margin ratios, fractional (0.2546 = 25.46%).
	GrossMargins     *float64 `json:"gross_margins,omitempty"`
	OperatingMargins *float64 `json:"operating_margins,omitempty"`
	ProfitMargins    *float64 `json:"profit_margins,omitempty"`
}

// IsEmpty reports whether the provider returned no usable attributes,
// which signals an unrecognized ticker.
func (a CompanyAttributes) IsEmpty() bool {
	return a.LongName == "" && a.ShortName == "" && a.Currency == "" &&
		a.MarketCap == nil && a.TotalRevenue == nil
}

// RawFundamentals is the provider response for one ticker: an income
// statement table (most recent fiscal year first) plus descriptive
// attributes. Fetched fresh on every call; never cached or mutated.
type RawFundamentals struct {
	Statements []StatementColumn `json:"statements"`
	Attributes CompanyAttributes `json:"attributes"`
}

// FinancialMetrics is the normalized record built from RawFundamentals.
// Every monetary and margin field is independently nullable: nil means
// the provider had no resolvable value, and derived margins are present
// only when revenue was present and strictly positive.
type FinancialMetrics struct {
	// Identity
	CompanyName   string `json:"company_name"`
	Ticker        string `json:"ticker"`
	Currency      string `json:"currency"`
	FiscalYearEnd string `json:"fiscal_year_end,omitempty"`

	// Market
	MarketCap       *float64 `json:"market_cap"`
	EnterpriseValue *float64 `json:"enterprise_value"`

	// Income statement
	AnnualRevenue     *float64 `json:"annual_revenue"`
	CostOfGoodsSold   *float64 `json:"cost_of_goods_sold"`
	GrossProfit       *float64 `json:"gross_profit"`
	OperatingIncome   *float64 `json:"operating_income"`
	NetIncome         *float64 `json:"net_income"`
	InterestIncome    *float64 `json:"interest_income"`
	InterestExpense   *float64 `json:"interest_expense"`
	NetInterestIncome *float64 `json:"net_interest_income"`
	TotalExpenses     *float64 `json:"total_expenses"`
	OperatingExpenses *float64 `json:"operating_expenses"`
	EBITDA            *float64 `json:"ebitda"`
	EBIT              *float64 `json:"ebit"`

	// Margins derived from the statement column (percent, 2 decimals)
	GrossProfitMarginPct     *float64 `json:"gross_profit_margin_percent,omitempty"`
	OperatingProfitMarginPct *float64 `json:"operating_profit_margin_percent,omitempty"`
	NetProfitMarginPct       *float64 `json:"net_profit_margin_percent,omitempty"`
	EBITDAMarginPct          *float64 `json:"ebitda_margin_percent,omitempty"`

	// Margins copied from the provider's precomputed ratios (percent,
	// 2 decimals). Kept separate from the derived fields above so the
	// two sources can be cross-checked.
	ProviderGrossMarginPct     *float64 `json:"provider_gross_margin_percent,omitempty"`
	ProviderOperatingMarginPct *float64 `json:"provider_operating_margin_percent,omitempty"`
	ProviderNetMarginPct       *float64 `json:"provider_net_margin_percent,omitempty"`
}

// FormattedSummary is the human-readable projection of FinancialMetrics:
// currency amounts abbreviated by magnitude, percentages suffixed with
// "%", absent values rendered as "N/A".
type FormattedSummary struct {
	Company         string `json:"company"`
	Ticker          string `json:"ticker"`
	MarketCap       string `json:"market_cap"`
	AnnualRevenue   string `json:"annual_revenue"`
	GrossProfit     string `json:"gross_profit"`
	OperatingIncome string `json:"operating_income"`
	NetIncome       string `json:"net_income"`
	GrossMargin     string `json:"gross_margin"`
	OperatingMargin string `json:"operating_margin"`
	NetMargin       string `json:"net_margin"`
}

// Float returns a pointer to v. Convenience for building nullable records.
func Float(v float64) *float64 { return &v }
