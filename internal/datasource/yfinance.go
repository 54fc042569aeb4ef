package datasource

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/sbalaji92/investlens/pkg/models"
	"github.com/sbalaji92/investlens/pkg/utils"
)

const yahooBaseURL = "https://query1.finance.yahoo.com"

// YFinance is the Yahoo Finance client. It serves two needs: full
// fundamentals for the metrics normalizer (v10 quoteSummary) and light
// symbol validation for the trading-status check (v7 quote).
//
// Fundamentals are fetched fresh on every call and never cached; the
// records are built, returned, and discarded.
type YFinance struct {
	baseURL string
	limiter *RateLimiter
}

// NewYFinance creates a Yahoo Finance client.
func NewYFinance() *YFinance {
	return &YFinance{
		baseURL: yahooBaseURL,
		limiter: NewRateLimiter(5, time.Second), // 5 req/s
	}
}

// NewYFinanceWithBaseURL creates a client against a custom endpoint.
// Used by tests to point at a local server.
func NewYFinanceWithBaseURL(baseURL string) *YFinance {
	y := NewYFinance()
	y.baseURL = baseURL
	return y
}

// Name returns the data source name.
func (y *YFinance) Name() string { return "Yahoo Finance" }

// --- Yahoo Finance API types ---

// yfValue is Yahoo's {raw, fmt} wrapper. Raw stays nil when the key is
// missing or the value is not numeric, so absence is never conflated
// with zero.
type yfValue struct {
	Raw *float64
	Fmt string
}

func (v *yfValue) UnmarshalJSON(data []byte) error {
	var wrapped struct {
		Raw json.RawMessage `json:"raw"`
		Fmt string          `json:"fmt"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		// Tolerate scalar values without the {raw, fmt} wrapper.
		var direct float64
		if json.Unmarshal(data, &direct) == nil {
			v.Raw = &direct
		}
		return nil
	}
	v.Fmt = wrapped.Fmt
	var raw float64
	if wrapped.Raw != nil && json.Unmarshal(wrapped.Raw, &raw) == nil {
		v.Raw = &raw
	}
	return nil
}

type yfQuoteSummaryResponse struct {
	QuoteSummary struct {
		Result []yfQuoteSummaryResult `json:"result"`
		Error  *yfError               `json:"error"`
	} `json:"quoteSummary"`
}

type yfQuoteSummaryResult struct {
	IncomeStatementHistory *yfStatementContainer `json:"incomeStatementHistory"`
	Price                  *yfPrice              `json:"price"`
	DefaultKeyStatistics   *yfKeyStatistics      `json:"defaultKeyStatistics"`
	SummaryDetail          *yfSummaryDetail      `json:"summaryDetail"`
	FinancialData          *yfFinancialData      `json:"financialData"`
}

type yfStatementContainer struct {
	Statements []map[string]yfValue `json:"incomeStatementHistory"`
}

type yfPrice struct {
	Symbol    string  `json:"symbol"`
	LongName  string  `json:"longName"`
	ShortName string  `json:"shortName"`
	Currency  string  `json:"currency"`
	Exchange  string  `json:"exchangeName"`
	MarketCap yfValue `json:"marketCap"`
}

type yfKeyStatistics struct {
	EnterpriseValue yfValue `json:"enterpriseValue"`
}

type yfSummaryDetail struct {
	MarketCap yfValue `json:"marketCap"`
}

type yfFinancialData struct {
	TotalRevenue     yfValue `json:"totalRevenue"`
	GrossMargins     yfValue `json:"grossMargins"`
	OperatingMargins yfValue `json:"operatingMargins"`
	ProfitMargins    yfValue `json:"profitMargins"`
}

type yfQuoteResponse struct {
	QuoteResponse struct {
		Result []yfQuoteResult `json:"result"`
		Error  *yfError        `json:"error"`
	} `json:"quoteResponse"`
}

type yfQuoteResult struct {
	Symbol           string `json:"symbol"`
	ShortName        string `json:"shortName"`
	LongName         string `json:"longName"`
	FullExchangeName string `json:"fullExchangeName"`
	Exchange         string `json:"exchange"`
}

type yfError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// lineItems maps Yahoo's camelCase statement keys to the canonical
// line-item names the normalizer looks up, in priority order: when two
// keys alias the same name, the earlier entry wins. Keys Yahoo reports
// but this table omits are simply dropped.
var lineItems = []struct {
	key  string
	name string
}{
	{"totalRevenue", "Total Revenue"},
	{"costOfRevenue", "Cost Of Revenue"},
	{"grossProfit", "Gross Profit"},
	{"operatingIncome", "Operating Income"},
	{"netIncome", "Net Income"},
	{"interestIncome", "Interest Income"},
	{"interestExpense", "Interest Expense"},
	{"netInterestIncome", "Net Interest Income"},
	{"totalExpenses", "Total Expenses"},
	{"totalOperatingExpenses", "Total Expenses"}, // fallback when totalExpenses is absent
	{"operatingExpense", "Operating Expense"},
	{"ebitda", "EBITDA"},
	{"ebit", "EBIT"},
}

// --- Public methods ---

// GetFundamentals fetches the annual income-statement table and the
// descriptive attributes for a ticker in a single quoteSummary call.
func (y *YFinance) GetFundamentals(ctx context.Context, ticker string) (*models.RawFundamentals, error) {
	symbol := utils.NormalizeTicker(ticker)

	if err := y.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	modules := "incomeStatementHistory,price,defaultKeyStatistics,summaryDetail,financialData"
	url := fmt.Sprintf("%s/v10/finance/quoteSummary/%s?modules=%s", y.baseURL, symbol, modules)

	var resp yfQuoteSummaryResponse
	if err := y.fetchJSON(ctx, url, &resp); err != nil {
		if isHTTPNotFound(err) {
			return nil, fmt.Errorf("%w: %s", ErrTickerNotFound, symbol)
		}
		return nil, fmt.Errorf("yfinance fundamentals %s: %w", symbol, err)
	}
	if resp.QuoteSummary.Error != nil {
		if resp.QuoteSummary.Error.Code == "Not Found" {
			return nil, fmt.Errorf("%w: %s", ErrTickerNotFound, symbol)
		}
		return nil, fmt.Errorf("yfinance API error: %s", resp.QuoteSummary.Error.Description)
	}
	if len(resp.QuoteSummary.Result) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrTickerNotFound, symbol)
	}

	r := resp.QuoteSummary.Result[0]
	raw := &models.RawFundamentals{
		Statements: parseStatements(r.IncomeStatementHistory),
		Attributes: parseAttributes(r),
	}
	return raw, nil
}

// GetProfile resolves a symbol against the quote endpoint. Returns
// ErrTickerNotFound when the symbol does not trade.
func (y *YFinance) GetProfile(ctx context.Context, symbol string) (*models.CompanyProfile, error) {
	sym := utils.NormalizeTicker(symbol)

	if err := y.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/v7/finance/quote?symbols=%s", y.baseURL, sym)

	var resp yfQuoteResponse
	if err := y.fetchJSON(ctx, url, &resp); err != nil {
		if isHTTPNotFound(err) {
			return nil, fmt.Errorf("%w: %s", ErrTickerNotFound, sym)
		}
		return nil, fmt.Errorf("yfinance quote %s: %w", sym, err)
	}
	if resp.QuoteResponse.Error != nil {
		return nil, fmt.Errorf("yfinance API error: %s", resp.QuoteResponse.Error.Description)
	}
	if len(resp.QuoteResponse.Result) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrTickerNotFound, sym)
	}

	r := resp.QuoteResponse.Result[0]
	if r.Symbol == "" {
		return nil, fmt.Errorf("%w: %s", ErrTickerNotFound, sym)
	}

	exchange := r.FullExchangeName
	if exchange == "" {
		exchange = r.Exchange
	}
	return &models.CompanyProfile{
		Symbol:    r.Symbol,
		LongName:  r.LongName,
		ShortName: r.ShortName,
		Exchange:  exchange,
	}, nil
}

// --- Parsing ---

// parseStatements converts Yahoo's statement maps into fiscal-year
// columns, preserving the provider's order (most recent first).
func parseStatements(container *yfStatementContainer) []models.StatementColumn {
	if container == nil || len(container.Statements) == 0 {
		return nil
	}

	cols := make([]models.StatementColumn, 0, len(container.Statements))
	for _, stmt := range container.Statements {
		col := models.StatementColumn{
			Items: make(map[string]*float64, len(stmt)),
		}
		if end, ok := stmt["endDate"]; ok {
			if end.Fmt != "" {
				col.EndDate = end.Fmt
			} else if end.Raw != nil {
				col.EndDate = time.Unix(int64(*end.Raw), 0).UTC().Format("2006-01-02")
			}
		}
		for _, it := range lineItems {
			val, ok := stmt[it.key]
			if !ok || val.Raw == nil {
				continue
			}
			if _, exists := col.Items[it.name]; exists {
				continue // higher-priority alias already resolved
			}
			v := *val.Raw
			col.Items[it.name] = &v
		}
		cols = append(cols, col)
	}
	return cols
}

// parseAttributes assembles descriptive attributes from the price, key
// statistics, summary, and financial data modules.
func parseAttributes(r yfQuoteSummaryResult) models.CompanyAttributes {
	var attrs models.CompanyAttributes

	if p := r.Price; p != nil {
		attrs.LongName = p.LongName
		attrs.ShortName = p.ShortName
		attrs.Currency = p.Currency
		attrs.Exchange = p.Exchange
		attrs.MarketCap = p.MarketCap.Raw
	}
	if attrs.MarketCap == nil && r.SummaryDetail != nil {
		attrs.MarketCap = r.SummaryDetail.MarketCap.Raw
	}
	if ks := r.DefaultKeyStatistics; ks != nil {
		attrs.EnterpriseValue = ks.EnterpriseValue.Raw
	}
	if fd := r.FinancialData; fd != nil {
		attrs.TotalRevenue = fd.TotalRevenue.Raw
		attrs.GrossMargins = fd.GrossMargins.Raw
		attrs.OperatingMargins = fd.OperatingMargins.Raw
		attrs.ProfitMargins = fd.ProfitMargins.Raw
	}
	return attrs
}

// isHTTPNotFound reports whether err is an HTTP 404 from the provider.
func isHTTPNotFound(err error) bool {
	var httpErr *ErrHTTP
	return errors.As(err, &httpErr) && httpErr.StatusCode == 404
}

// fetchJSON performs a GET request and decodes the response into dest.
func (y *YFinance) fetchJSON(ctx context.Context, url string, dest any) error {
	body, _, err := doGet(ctx, url, map[string]string{"Accept": "application/json"})
	if err != nil {
		return err
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("parse JSON: %w", err)
	}
	return nil
}
