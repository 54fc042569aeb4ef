// Package tools implements the analyzer's tool functions: financial
// metrics lookup, partner search, trading-status checks, and the
// canned weather/time reports. Each function performs a small fixed
// number of sequential outbound calls and returns.
package tools

import (
	"context"

	"github.com/sbalaji92/investlens/internal/llm"
	"github.com/sbalaji92/investlens/pkg/models"
)

// MarketData is the slice of the market data provider the toolkit
// depends on.
type MarketData interface {
	GetFundamentals(ctx context.Context, ticker string) (*models.RawFundamentals, error)
	GetProfile(ctx context.Context, symbol string) (*models.CompanyProfile, error)
}

// Toolkit holds the collaborators the tool functions share.
type Toolkit struct {
	market MarketData
	llm    llm.LLMProvider
	model  string
}

// NewToolkit creates a toolkit. provider may be nil when only the
// market-data tools are used.
func NewToolkit(market MarketData, provider llm.LLMProvider, model string) *Toolkit {
	return &Toolkit{
		market: market,
		llm:    provider,
		model:  model,
	}
}
