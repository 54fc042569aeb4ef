package tools

import (
	"context"
	"encoding/json"

	"github.com/sbalaji92/investlens/internal/llm"
)

// Tools returns the LLM tool declarations for the analyzer agent. Each
// handler serializes its result into a status envelope so the model
// sees tool failures as data rather than aborted calls.
func (t *Toolkit) Tools() []llm.Tool {
	return []llm.Tool{
		{
			Name:        "find_contracted_companies",
			Description: "Finds contracted companies, partners, and suppliers for a given tech company using web search.",
			Parameters: llm.ObjectSchema("",
				map[string]*llm.JSONSchema{
					"company_name": llm.StringProp("The name of the tech company to search for (e.g., \"Oracle\", \"Microsoft\")."),
				},
				"company_name"),
			Handler: t.handleFindContracted,
		},
		{
			Name:        "check_public_trading_status",
			Description: "Checks if companies are publicly traded and resolves their stock symbols.",
			Parameters: llm.ObjectSchema("",
				map[string]*llm.JSONSchema{
					"company_names": llm.StringProp("Comma-separated list of company names to check."),
				},
				"company_names"),
			Handler: t.handleTradingStatus,
		},
		{
			Name:        "get_company_financial_metrics",
			Description: "Gets key financial metrics for a company from its stock ticker and calculates profit margins.",
			Parameters: llm.ObjectSchema("",
				map[string]*llm.JSONSchema{
					"stock_ticker": llm.StringProp("The stock ticker symbol (e.g., \"AAPL\", \"MSFT\")."),
				},
				"stock_ticker"),
			Handler: t.handleFinancialMetrics,
		},
		{
			Name:        "get_weather",
			Description: "Retrieves the current weather report for a specified city.",
			Parameters: llm.ObjectSchema("",
				map[string]*llm.JSONSchema{
					"city": llm.StringProp("The name of the city for which to retrieve the weather report."),
				},
				"city"),
			Handler: t.handleWeather,
		},
		{
			Name:        "get_current_time",
			Description: "Returns the current time in a specified city.",
			Parameters: llm.ObjectSchema("",
				map[string]*llm.JSONSchema{
					"city": llm.StringProp("The name of the city for which to retrieve the current time."),
				},
				"city"),
			Handler: t.handleTime,
		},
	}
}

func (t *Toolkit) handleFindContracted(ctx context.Context, args json.RawMessage) (string, error) {
	var in struct {
		CompanyName string `json:"company_name"`
	}
	if err := json.Unmarshal(args, &in); err != nil {
		return errorEnvelope(err)
	}
	report, err := t.FindContractedCompanies(ctx, in.CompanyName)
	if err != nil {
		return errorEnvelope(err)
	}
	return successEnvelope(map[string]any{
		"report":           report.Report,
		"company_searched": report.CompanySearched,
	})
}

func (t *Toolkit) handleTradingStatus(ctx context.Context, args json.RawMessage) (string, error) {
	var in struct {
		CompanyNames string `json:"company_names"`
	}
	if err := json.Unmarshal(args, &in); err != nil {
		return errorEnvelope(err)
	}
	report, err := t.CheckPublicTradingStatus(ctx, in.CompanyNames)
	if err != nil {
		return errorEnvelope(err)
	}
	return successEnvelope(map[string]any{
		"report":           report.Report,
		"detailed_results": report.Results,
		"public_count":     report.PublicCount,
		"private_count":    report.PrivateCount,
	})
}

func (t *Toolkit) handleFinancialMetrics(ctx context.Context, args json.RawMessage) (string, error) {
	var in struct {
		StockTicker string `json:"stock_ticker"`
	}
	if err := json.Unmarshal(args, &in); err != nil {
		return errorEnvelope(err)
	}
	result, err := t.GetFinancialMetrics(ctx, in.StockTicker)
	if err != nil {
		return errorEnvelope(err)
	}
	return successEnvelope(map[string]any{
		"summary":          result.Summary,
		"detailed_metrics": result.Metrics,
		"fiscal_year":      result.FiscalYear,
	})
}

func (t *Toolkit) handleWeather(ctx context.Context, args json.RawMessage) (string, error) {
	var in struct {
		City string `json:"city"`
	}
	if err := json.Unmarshal(args, &in); err != nil {
		return errorEnvelope(err)
	}
	report, err := t.GetWeather(in.City)
	if err != nil {
		return errorEnvelope(err)
	}
	return successEnvelope(map[string]any{"report": report})
}

func (t *Toolkit) handleTime(ctx context.Context, args json.RawMessage) (string, error) {
	var in struct {
		City string `json:"city"`
	}
	if err := json.Unmarshal(args, &in); err != nil {
		return errorEnvelope(err)
	}
	report, err := t.GetCurrentTime(in.City)
	if err != nil {
		return errorEnvelope(err)
	}
	return successEnvelope(map[string]any{"report": report})
}

func successEnvelope(fields map[string]any) (string, error) {
	fields["status"] = "success"
	data, err := json.Marshal(fields)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func errorEnvelope(err error) (string, error) {
	data, mErr := json.Marshal(map[string]any{
		"status":        "error",
		"error_message": err.Error(),
	})
	if mErr != nil {
		return "", mErr
	}
	return string(data), nil
}
