package models

// CompanyProfile is the minimal provider record used to confirm that a
// symbol trades publicly: the resolved symbol, its official name, and
// the exchange it lists on.
type CompanyProfile struct {
	Symbol    string `json:"symbol"`
	LongName  string `json:"long_name,omitempty"`
	ShortName string `json:"short_name,omitempty"`
	Exchange  string `json:"exchange,omitempty"`
}

// Name returns the best available display name for the profile.
func (p CompanyProfile) Name() string {
	if p.LongName != "" {
		return p.LongName
	}
	return p.ShortName
}

// TradingStatus classifies one company from a trading-status check.
type TradingStatus struct {
	Company      string `json:"company"`
	IsPublic     bool   `json:"is_public"`
	Symbol       string `json:"symbol,omitempty"`
	OfficialName string `json:"official_name,omitempty"`
	Exchange     string `json:"exchange,omitempty"`
	Status       string `json:"status"`
}

// TradingStatusReport aggregates a batch trading-status check.
type TradingStatusReport struct {
	Report       string          `json:"report"`
	Results      []TradingStatus `json:"detailed_results"`
	PublicCount  int             `json:"public_count"`
	PrivateCount int             `json:"private_count"`
}

// PartnerReport carries the verbatim web-search answer for a partner
// search. No structured parsing is applied to the report text.
type PartnerReport struct {
	Report          string `json:"report"`
	CompanySearched string `json:"company_searched"`
}

// PublicCompany identifies a confirmed publicly traded company inside
// an aggregated search result.
type PublicCompany struct {
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Exchange string `json:"exchange"`
}

// CompanyMetrics pairs a company with its normalized financial metrics,
// as returned in the aggregated search flow.
type CompanyMetrics struct {
	CompanyName string            `json:"company_name"`
	Ticker      string            `json:"ticker"`
	Metrics     *FinancialMetrics `json:"metrics"`
	Summary     *FormattedSummary `json:"summary"`
}

// SearchAnalysis is the full aggregated result for one target company:
// the partner-search report, the candidate partners matched in it, their
// trading classification, and metrics for the public ones.
type SearchAnalysis struct {
	CompanySearched     string           `json:"company_searched"`
	PartnerReport       string           `json:"contracted_companies_report"`
	ContractedCompanies []string         `json:"contracted_companies"`
	PublicCompanies     []PublicCompany  `json:"public_companies"`
	PublicCount         int              `json:"public_companies_count"`
	TotalFound          int              `json:"total_companies_found"`
	FinancialData       []CompanyMetrics `json:"financial_data"`
	TradingDetails      []TradingStatus  `json:"trading_status_details"`
}

// NewsItem is one headline from the per-ticker news feed.
type NewsItem struct {
	Title       string `json:"title"`
	Link        string `json:"link"`
	Published   string `json:"published,omitempty"`
	Source      string `json:"source,omitempty"`
	Description string `json:"description,omitempty"`
}
