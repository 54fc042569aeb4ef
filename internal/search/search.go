// Package search implements the aggregated company analysis: partner
// search, trading-status classification, and per-company financial
// metrics rolled into one response.
package search

import (
	"context"
	"log"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/sbalaji92/investlens/internal/tools"
	"github.com/sbalaji92/investlens/pkg/models"
)

// candidateCompanies is the fixed list matched against the partner
// report text. Free-text extraction is an acknowledged approximation;
// only these names are recognized.
var candidateCompanies = []string{
	"Accenture", "Deloitte", "IBM", "Microsoft", "Salesforce",
	"ServiceNow", "Workday", "SAP", "Adobe", "Intel",
}

// fallbackCompanies is used when the report mentions none of the
// candidates.
var fallbackCompanies = []string{"Accenture", "Deloitte", "IBM", "Microsoft"}

// maxConcurrentFetches bounds the parallel metrics lookups.
const maxConcurrentFetches = 4

// ProgressFunc receives step updates while an analysis runs. stage is
// one of "partners", "trading", "metrics", "done".
type ProgressFunc func(stage, detail string)

// Service runs the aggregated analysis on top of the toolkit.
type Service struct {
	toolkit  *tools.Toolkit
	progress ProgressFunc
}

// NewService creates a search service. progress may be nil.
func NewService(toolkit *tools.Toolkit, progress ProgressFunc) *Service {
	return &Service{toolkit: toolkit, progress: progress}
}

func (s *Service) notify(stage, detail string) {
	if s.progress != nil {
		s.progress(stage, detail)
	}
}

// Analyze finds the contracted companies of a target company, checks
// which of them trade publicly, and fetches financial metrics for the
// public ones.
func (s *Service) Analyze(ctx context.Context, companyName string) (*models.SearchAnalysis, error) {
	name := strings.TrimSpace(companyName)
	if name == "" {
		return nil, &tools.ValidationError{Field: "company_name", Message: "must not be empty"}
	}

	// Step 1: partner report via grounded web search.
	s.notify("partners", name)
	partnerReport, err := s.toolkit.FindContractedCompanies(ctx, name)
	if err != nil {
		return nil, err
	}

	found := matchCandidates(partnerReport.Report)
	if len(found) == 0 {
		found = append([]string(nil), fallbackCompanies...)
	}

	// Step 2: classify trading status.
	s.notify("trading", strings.Join(found, ", "))
	trading, err := s.toolkit.CheckPublicTradingStatus(ctx, strings.Join(found, ", "))
	if err != nil {
		return nil, err
	}

	var publicCompanies []models.PublicCompany
	for _, r := range trading.Results {
		if r.IsPublic {
			publicCompanies = append(publicCompanies, models.PublicCompany{
				Name:     r.Company,
				Symbol:   r.Symbol,
				Exchange: r.Exchange,
			})
		}
	}

	// Step 3: metrics for the public companies, fetched concurrently.
	financialData, err := s.fetchMetrics(ctx, publicCompanies)
	if err != nil {
		return nil, err
	}

	s.notify("done", name)
	return &models.SearchAnalysis{
		CompanySearched:     name,
		PartnerReport:       partnerReport.Report,
		ContractedCompanies: found,
		PublicCompanies:     publicCompanies,
		PublicCount:         len(publicCompanies),
		TotalFound:          len(found),
		FinancialData:       financialData,
		TradingDetails:      trading.Results,
	}, nil
}

// fetchMetrics retrieves metrics for each public company with bounded
// concurrency, preserving input order. Companies whose metrics cannot
// be fetched are skipped, not fatal.
func (s *Service) fetchMetrics(ctx context.Context, companies []models.PublicCompany) ([]models.CompanyMetrics, error) {
	if len(companies) == 0 {
		return nil, nil
	}

	results := make([]*models.CompanyMetrics, len(companies))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentFetches)

	for i, company := range companies {
		i, company := i, company
		g.Go(func() error {
			s.notify("metrics", company.Symbol)
			result, err := s.toolkit.GetFinancialMetrics(gctx, company.Symbol)
			if err != nil {
				// Partial data beats no data here.
				log.Printf("search: metrics for %s: %v", company.Symbol, err)
				return nil
			}
			mu.Lock()
			summary := result.Summary
			results[i] = &models.CompanyMetrics{
				CompanyName: company.Name,
				Ticker:      company.Symbol,
				Metrics:     result.Metrics,
				Summary:     &summary,
			}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	financialData := make([]models.CompanyMetrics, 0, len(companies))
	for _, r := range results {
		if r != nil {
			financialData = append(financialData, *r)
		}
	}
	return financialData, nil
}

// matchCandidates returns the candidate companies mentioned in the
// report text, case-insensitively, in candidate order.
func matchCandidates(report string) []string {
	lower := strings.ToLower(report)
	var found []string
	for _, candidate := range candidateCompanies {
		if strings.Contains(lower, strings.ToLower(candidate)) {
			found = append(found, candidate)
		}
	}
	return found
}
