package tools

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/sbalaji92/investlens/internal/datasource"
	"github.com/sbalaji92/investlens/internal/fundamentals"
	"github.com/sbalaji92/investlens/pkg/models"
)

// MetricsResult bundles the normalized metrics, the display summary,
// and the metrics serialized for transport.
type MetricsResult struct {
	Metrics    *models.FinancialMetrics `json:"detailed_metrics"`
	Summary    models.FormattedSummary  `json:"summary"`
	JSONData   string                   `json:"json_data"`
	FiscalYear string                   `json:"fiscal_year"`
}

// GetFinancialMetrics fetches fresh fundamentals for a ticker,
// normalizes them, and builds the formatted summary. Nothing is cached.
func (t *Toolkit) GetFinancialMetrics(ctx context.Context, ticker string) (*MetricsResult, error) {
	symbol := strings.TrimSpace(ticker)
	if symbol == "" {
		return nil, &ValidationError{Field: "ticker", Message: "must not be empty"}
	}

	raw, err := t.market.GetFundamentals(ctx, symbol)
	if err != nil {
		if errors.Is(err, datasource.ErrTickerNotFound) {
			return nil, notFound("ticker", "Unable to retrieve financial data for '%s': no data found, symbol may be invalid", symbol)
		}
		return nil, &ExternalServiceError{Service: "financial metrics", Subject: symbol, Err: err}
	}

	metrics, err := fundamentals.Normalize(raw, symbol)
	if err != nil {
		if errors.Is(err, fundamentals.ErrNoData) {
			return nil, notFound("ticker", "Unable to retrieve financial data for '%s': no data found, symbol may be invalid", symbol)
		}
		return nil, &ExternalServiceError{Service: "financial metrics", Subject: symbol, Err: err}
	}

	data, err := json.MarshalIndent(metrics, "", "  ")
	if err != nil {
		return nil, &ExternalServiceError{Service: "financial metrics", Subject: symbol, Err: err}
	}

	fiscalYear := metrics.FiscalYearEnd
	if fiscalYear == "" {
		fiscalYear = "Unknown"
	}

	return &MetricsResult{
		Metrics:    metrics,
		Summary:    fundamentals.BuildSummary(metrics),
		JSONData:   string(data),
		FiscalYear: fiscalYear,
	}, nil
}
