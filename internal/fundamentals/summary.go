package fundamentals

import (
	"github.com/sbalaji92/investlens/pkg/models"
	"github.com/sbalaji92/investlens/pkg/utils"
)

// BuildSummary renders a metrics record as display strings. It is a
// pure projection: absent values become "N/A", currency amounts are
// abbreviated by magnitude, margins get a "%" suffix.
func BuildSummary(m *models.FinancialMetrics) models.FormattedSummary {
	return models.FormattedSummary{
		Company:         m.CompanyName,
		Ticker:          m.Ticker,
		MarketCap:       utils.FormatUSDCompact(m.MarketCap),
		AnnualRevenue:   utils.FormatUSDCompact(m.AnnualRevenue),
		GrossProfit:     utils.FormatUSDCompact(m.GrossProfit),
		OperatingIncome: utils.FormatUSDCompact(m.OperatingIncome),
		NetIncome:       utils.FormatUSDCompact(m.NetIncome),
		GrossMargin:     utils.FormatPercent(m.GrossProfitMarginPct),
		OperatingMargin: utils.FormatPercent(m.OperatingProfitMarginPct),
		NetMargin:       utils.FormatPercent(m.NetProfitMarginPct),
	}
}
