package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sbalaji92/investlens/internal/datasource"
	"github.com/sbalaji92/investlens/pkg/models"
	"github.com/sbalaji92/investlens/pkg/utils"
)

// symbolMappings maps well-known company names to their stock symbols.
// Companies missing here go through heuristic symbol guessing.
var symbolMappings = map[string]string{
	"oracle":     "ORCL",
	"microsoft":  "MSFT",
	"apple":      "AAPL",
	"google":     "GOOGL",
	"alphabet":   "GOOGL",
	"amazon":     "AMZN",
	"meta":       "META",
	"facebook":   "META",
	"nvidia":     "NVDA",
	"tesla":      "TSLA",
	"salesforce": "CRM",
	"servicenow": "NOW",
	"workday":    "WDAY",
	"adobe":      "ADBE",
	"intel":      "INTC",
	"ibm":        "IBM",
	"sap":        "SAP",
	"accenture":  "ACN",
	"deloitte":   "DLX", // Deloitte Tax LLP
}

// knownPrivate lists firms with no public listing, so heuristic
// guessing is skipped for them.
var knownPrivate = map[string]bool{
	"pwc":           true,
	"kpmg":          true,
	"ey":            true,
	"ernst & young": true,
}

// CheckPublicTradingStatus classifies each company in a comma-separated
// list as publicly traded or private/unknown. Symbols are resolved via
// the fixed mapping table, then heuristic prefix guesses validated
// against the provider. The heuristics are best-effort and can
// misidentify companies whose symbol does not match their name prefix.
func (t *Toolkit) CheckPublicTradingStatus(ctx context.Context, companyNames string) (*models.TradingStatusReport, error) {
	if strings.TrimSpace(companyNames) == "" {
		return nil, &ValidationError{Field: "company_names", Message: "must not be empty"}
	}

	var results []models.TradingStatus
	for _, raw := range strings.Split(companyNames, ",") {
		company := strings.TrimSpace(raw)
		if company == "" {
			continue
		}
		results = append(results, t.classifyCompany(ctx, company))
	}

	report := &models.TradingStatusReport{Results: results}
	for _, r := range results {
		if r.IsPublic {
			report.PublicCount++
		} else {
			report.PrivateCount++
		}
	}
	report.Report = formatTradingReport(results)
	return report, nil
}

func (t *Toolkit) classifyCompany(ctx context.Context, company string) models.TradingStatus {
	lower := strings.ToLower(company)

	symbol, mapped := symbolMappings[lower]
	if !mapped {
		if knownPrivate[lower] {
			return models.TradingStatus{
				Company: company,
				Status:  "Known private company",
			}
		}

		// Heuristic symbol guesses validated against the provider.
		for _, guess := range utils.SymbolGuesses(company) {
			profile, err := t.market.GetProfile(ctx, guess)
			if err == nil {
				return publicStatus(company, guess, profile)
			}
			if !errors.Is(err, datasource.ErrTickerNotFound) {
				return models.TradingStatus{
					Company: company,
					Symbol:  guess,
					Status:  fmt.Sprintf("Error checking symbol %s: %v", guess, err),
				}
			}
		}
		return models.TradingStatus{
			Company: company,
			Status:  "No public trading symbol found",
		}
	}

	profile, err := t.market.GetProfile(ctx, symbol)
	if err != nil {
		if errors.Is(err, datasource.ErrTickerNotFound) {
			return models.TradingStatus{
				Company: company,
				Status:  "Symbol exists but no trading data found",
			}
		}
		return models.TradingStatus{
			Company: company,
			Symbol:  symbol,
			Status:  fmt.Sprintf("Error checking symbol %s: %v", symbol, err),
		}
	}
	return publicStatus(company, symbol, profile)
}

func publicStatus(company, symbol string, profile *models.CompanyProfile) models.TradingStatus {
	name := profile.Name()
	if name == "" {
		name = company
	}
	exchange := profile.Exchange
	if exchange == "" {
		exchange = "Unknown"
	}
	return models.TradingStatus{
		Company:      company,
		IsPublic:     true,
		Symbol:       symbol,
		OfficialName: name,
		Exchange:     exchange,
		Status:       "Publicly traded",
	}
}

func formatTradingReport(results []models.TradingStatus) string {
	var b strings.Builder
	b.WriteString("Trading Status Analysis:\n\n")

	var wrotePublic bool
	for _, r := range results {
		if !r.IsPublic {
			continue
		}
		if !wrotePublic {
			b.WriteString("PUBLICLY TRADED COMPANIES:\n")
			wrotePublic = true
		}
		fmt.Fprintf(&b, "- %s (%s) - %s on %s\n", r.Company, r.Symbol, r.OfficialName, r.Exchange)
	}
	if wrotePublic {
		b.WriteString("\n")
	}

	var wrotePrivate bool
	for _, r := range results {
		if r.IsPublic {
			continue
		}
		if !wrotePrivate {
			b.WriteString("NON-PUBLIC/PRIVATE COMPANIES:\n")
			wrotePrivate = true
		}
		fmt.Fprintf(&b, "- %s - %s\n", r.Company, r.Status)
	}

	return b.String()
}
