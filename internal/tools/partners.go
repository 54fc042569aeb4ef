package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/sbalaji92/investlens/internal/llm"
	"github.com/sbalaji92/investlens/pkg/models"
)

// FindContractedCompanies asks the LLM, with web-search grounding, for
// the major partners, suppliers, and vendors of a company. The answer
// is returned verbatim inside the report; no structured parsing is
// attempted here.
func (t *Toolkit) FindContractedCompanies(ctx context.Context, companyName string) (*models.PartnerReport, error) {
	name := strings.TrimSpace(companyName)
	if name == "" {
		return nil, &ValidationError{Field: "company_name", Message: "must not be empty"}
	}
	if t.llm == nil {
		return nil, &ExternalServiceError{Service: "partner search", Subject: name, Err: llm.ErrNoAPIKey}
	}

	prompt := fmt.Sprintf(
		"Find the major contracted companies, business partners, suppliers, and vendors "+
			"that work with %s. List the company names clearly and focus on "+
			"significant business relationships and partnerships. Include companies that "+
			"provide services or products to %s or have major contracts with them.",
		name, name)

	resp, err := t.llm.GenerateWithSearch(ctx, prompt, &llm.ChatOptions{Model: t.model})
	if err != nil {
		return nil, &ExternalServiceError{Service: "partner search", Subject: name, Err: err}
	}

	return &models.PartnerReport{
		Report:          fmt.Sprintf("Contracted companies for %s:\n%s", name, resp.Content),
		CompanySearched: name,
	}, nil
}
