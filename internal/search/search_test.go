package search

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/sbalaji92/investlens/internal/datasource"
	"github.com/sbalaji92/investlens/internal/llm"
	"github.com/sbalaji92/investlens/internal/tools"
	"github.com/sbalaji92/investlens/pkg/models"
)

type fakeMarket struct {
	profiles     map[string]*models.CompanyProfile
	fundamentals map[string]*models.RawFundamentals
}

func (f *fakeMarket) GetProfile(ctx context.Context, symbol string) (*models.CompanyProfile, error) {
	p, ok := f.profiles[strings.ToUpper(symbol)]
	if !ok {
		return nil, datasource.ErrTickerNotFound
	}
	return p, nil
}

func (f *fakeMarket) GetFundamentals(ctx context.Context, ticker string) (*models.RawFundamentals, error) {
	r, ok := f.fundamentals[strings.ToUpper(ticker)]
	if !ok {
		return nil, datasource.ErrTickerNotFound
	}
	return r, nil
}

type fakeLLM struct {
	searchText string
	searchErr  error
}

func (f *fakeLLM) Name() string                   { return "fake" }
func (f *fakeLLM) Models() []string               { return nil }
func (f *fakeLLM) Ping(ctx context.Context) error { return nil }
func (f *fakeLLM) Chat(ctx context.Context, messages []llm.Message, tls []llm.Tool, opts *llm.ChatOptions) (*llm.Response, error) {
	return &llm.Response{Content: f.searchText}, f.searchErr
}
func (f *fakeLLM) GenerateWithSearch(ctx context.Context, prompt string, opts *llm.ChatOptions) (*llm.Response, error) {
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return &llm.Response{Content: f.searchText}, nil
}

func fundamentalsFor(name string) *models.RawFundamentals {
	return &models.RawFundamentals{
		Statements: []models.StatementColumn{{
			EndDate: "2025-06-30",
			Items: map[string]*float64{
				"Total Revenue": models.Float(100000000000),
				"Net Income":    models.Float(20000000000),
			},
		}},
		Attributes: models.CompanyAttributes{
			LongName:  name,
			Currency:  "USD",
			MarketCap: models.Float(1e12),
		},
	}
}

func testService(progress ProgressFunc) *Service {
	market := &fakeMarket{
		profiles: map[string]*models.CompanyProfile{
			"MSFT": {Symbol: "MSFT", LongName: "Microsoft Corporation", Exchange: "NasdaqGS"},
			"ACN":  {Symbol: "ACN", LongName: "Accenture plc", Exchange: "NYSE"},
			"IBM":  {Symbol: "IBM", LongName: "International Business Machines", Exchange: "NYSE"},
			"DLX":  {Symbol: "DLX", LongName: "Deluxe Corporation", Exchange: "NYSE"},
		},
		fundamentals: map[string]*models.RawFundamentals{
			"MSFT": fundamentalsFor("Microsoft Corporation"),
			"ACN":  fundamentalsFor("Accenture plc"),
			"IBM":  fundamentalsFor("International Business Machines"),
			"DLX":  fundamentalsFor("Deluxe Corporation"),
		},
	}
	provider := &fakeLLM{searchText: "Oracle works closely with Accenture and Microsoft on cloud migrations."}
	toolkit := tools.NewToolkit(market, provider, "gemini-2.0-flash")
	return NewService(toolkit, progress)
}

func TestAnalyze(t *testing.T) {
	svc := testService(nil)

	analysis, err := svc.Analyze(context.Background(), "Oracle")
	if err != nil {
		t.Fatalf("Analyze error: %v", err)
	}

	if analysis.CompanySearched != "Oracle" {
		t.Errorf("CompanySearched = %q", analysis.CompanySearched)
	}
	// Candidate matching against the report text.
	want := []string{"Accenture", "Microsoft"}
	if len(analysis.ContractedCompanies) != len(want) {
		t.Fatalf("ContractedCompanies = %v, want %v", analysis.ContractedCompanies, want)
	}
	for i, w := range want {
		if analysis.ContractedCompanies[i] != w {
			t.Errorf("ContractedCompanies[%d] = %q, want %q", i, analysis.ContractedCompanies[i], w)
		}
	}
	if analysis.TotalFound != 2 {
		t.Errorf("TotalFound = %d", analysis.TotalFound)
	}
	if analysis.PublicCount != 2 {
		t.Errorf("PublicCount = %d", analysis.PublicCount)
	}
	if len(analysis.FinancialData) != 2 {
		t.Fatalf("FinancialData has %d entries, want 2", len(analysis.FinancialData))
	}
	// Metrics order mirrors the public-company order.
	if analysis.FinancialData[0].Ticker != "ACN" || analysis.FinancialData[1].Ticker != "MSFT" {
		t.Errorf("unexpected metrics order: %s, %s",
			analysis.FinancialData[0].Ticker, analysis.FinancialData[1].Ticker)
	}
	if analysis.FinancialData[0].Summary == nil || analysis.FinancialData[0].Summary.MarketCap != "$1.00T" {
		t.Errorf("unexpected summary: %+v", analysis.FinancialData[0].Summary)
	}
}

func TestAnalyzeFallbackCompanies(t *testing.T) {
	market := &fakeMarket{profiles: map[string]*models.CompanyProfile{}, fundamentals: map[string]*models.RawFundamentals{}}
	provider := &fakeLLM{searchText: "No well known names appear in this answer."}
	svc := NewService(tools.NewToolkit(market, provider, "gemini-2.0-flash"), nil)

	analysis, err := svc.Analyze(context.Background(), "Obscure Co")
	if err != nil {
		t.Fatalf("Analyze error: %v", err)
	}
	want := []string{"Accenture", "Deloitte", "IBM", "Microsoft"}
	if len(analysis.ContractedCompanies) != len(want) {
		t.Fatalf("expected fallback list, got %v", analysis.ContractedCompanies)
	}
	for i, w := range want {
		if analysis.ContractedCompanies[i] != w {
			t.Errorf("fallback[%d] = %q, want %q", i, analysis.ContractedCompanies[i], w)
		}
	}
}

func TestAnalyzeEmptyName(t *testing.T) {
	svc := testService(nil)
	_, err := svc.Analyze(context.Background(), "   ")
	var ve *tools.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestAnalyzePartnerSearchFailure(t *testing.T) {
	provider := &fakeLLM{searchErr: errors.New("search backend down")}
	svc := NewService(tools.NewToolkit(&fakeMarket{}, provider, "gemini-2.0-flash"), nil)

	_, err := svc.Analyze(context.Background(), "Oracle")
	var ese *tools.ExternalServiceError
	if !errors.As(err, &ese) {
		t.Fatalf("expected ExternalServiceError, got %v", err)
	}
}

func TestAnalyzeSkipsFailedMetrics(t *testing.T) {
	// IBM profile resolves but its fundamentals are missing; the search
	// should return results for the others rather than failing.
	market := &fakeMarket{
		profiles: map[string]*models.CompanyProfile{
			"MSFT": {Symbol: "MSFT", LongName: "Microsoft Corporation", Exchange: "NasdaqGS"},
			"IBM":  {Symbol: "IBM", LongName: "International Business Machines", Exchange: "NYSE"},
		},
		fundamentals: map[string]*models.RawFundamentals{
			"MSFT": fundamentalsFor("Microsoft Corporation"),
		},
	}
	provider := &fakeLLM{searchText: "Partners include IBM and Microsoft."}
	svc := NewService(tools.NewToolkit(market, provider, "gemini-2.0-flash"), nil)

	analysis, err := svc.Analyze(context.Background(), "Oracle")
	if err != nil {
		t.Fatalf("Analyze error: %v", err)
	}
	if analysis.PublicCount != 2 {
		t.Errorf("PublicCount = %d, want 2", analysis.PublicCount)
	}
	if len(analysis.FinancialData) != 1 || analysis.FinancialData[0].Ticker != "MSFT" {
		t.Errorf("expected only MSFT metrics, got %+v", analysis.FinancialData)
	}
}

func TestAnalyzeProgressEvents(t *testing.T) {
	var mu sync.Mutex
	var stages []string
	svc := testService(func(stage, detail string) {
		mu.Lock()
		stages = append(stages, stage)
		mu.Unlock()
	})

	if _, err := svc.Analyze(context.Background(), "Oracle"); err != nil {
		t.Fatalf("Analyze error: %v", err)
	}

	if len(stages) == 0 || stages[0] != "partners" {
		t.Fatalf("expected partners stage first, got %v", stages)
	}
	if stages[len(stages)-1] != "done" {
		t.Errorf("expected done stage last, got %v", stages)
	}
	var sawTrading, sawMetrics bool
	for _, s := range stages {
		if s == "trading" {
			sawTrading = true
		}
		if s == "metrics" {
			sawMetrics = true
		}
	}
	if !sawTrading || !sawMetrics {
		t.Errorf("missing stages in %v", stages)
	}
}
