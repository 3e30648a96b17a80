package scanner

import (
	"encoding/json"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/dvloznov/wealth-ledger/internal/domain"
)

// decodeCandidate parses the model's reply into a CandidateEntry. An empty
// object means the image was not a receipt and yields (nil, nil). Anything
// else that fails to conform is an external-service failure.
func decodeCandidate(raw string) (*CandidateEntry, error) {
	clean := cleanModelJSON(raw)

	var payload struct {
		Amount       *json.Number `json:"amount"`
		Date         *string      `json:"date"`
		Description  string       `json:"description"`
		MerchantName string       `json:"merchantName"`
		Category     string       `json:"category"`
	}
	if err := json.Unmarshal([]byte(clean), &payload); err != nil {
		return nil, domain.Errorf(domain.ErrExternalService, "malformed extraction response: %v", err)
	}

	// {} is the model's "not a receipt" signal.
	if payload.Amount == nil && payload.Date == nil &&
		payload.Description == "" && payload.MerchantName == "" && payload.Category == "" {
		return nil, nil
	}

	if payload.Amount == nil {
		return nil, domain.Errorf(domain.ErrExternalService, "extraction response missing amount")
	}
	if payload.Date == nil {
		return nil, domain.Errorf(domain.ErrExternalService, "extraction response missing date")
	}

	amount, err := decimal.NewFromString(payload.Amount.String())
	if err != nil {
		return nil, domain.Errorf(domain.ErrExternalService, "extraction response has non-numeric amount %q", payload.Amount.String())
	}
	if !amount.IsPositive() {
		return nil, domain.Errorf(domain.ErrExternalService, "extraction response has non-positive amount %s", amount)
	}
	date, err := civil.ParseDate(*payload.Date)
	if err != nil {
		return nil, domain.Errorf(domain.ErrExternalService, "extraction response has malformed date %q", *payload.Date)
	}
	category := domain.NormalizeCategory(payload.Category)
	if !domain.ValidCategory(category) {
		return nil, domain.Errorf(domain.ErrExternalService, "extraction response has unknown category %q", payload.Category)
	}

	return &CandidateEntry{
		Amount:       amount,
		Date:         date,
		Description:  strings.TrimSpace(payload.Description),
		MerchantName: strings.TrimSpace(payload.MerchantName),
		Category:     category,
	}, nil
}

// cleanModelJSON strips Markdown fences and surrounding prose when the model
// ignores the raw-JSON instruction.
func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		// Drop the first line (``` or ```json).
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			return s
		}
		s = strings.TrimSpace(s)
	}
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}
	s = strings.TrimSpace(s)

	// Keep only the outermost JSON object if junk remains around it.
	if start := strings.Index(s, "{"); start != -1 {
		if end := strings.LastIndex(s, "}"); end != -1 && end > start {
			s = strings.TrimSpace(s[start : end+1])
		}
	}
	return s
}
