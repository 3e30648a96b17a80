// Package scanner extracts candidate ledger fields from receipt images using
// Gemini. The engine consumes only the typed CandidateEntry; anything the
// model returns that does not conform is a reportable external-service
// failure, never coerced into a valid entry.
package scanner

import (
	"context"
	"strings"
	"sync"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
	"google.golang.org/genai"

	"github.com/dvloznov/wealth-ledger/internal/domain"
)

// DefaultModel is the Gemini model used when none is configured.
const DefaultModel = "gemini-2.5-flash"

// CandidateEntry is the structured result of scanning a receipt image.
type CandidateEntry struct {
	Amount       decimal.Decimal `json:"amount"`
	Date         civil.Date      `json:"date"`
	Description  string          `json:"description"`
	MerchantName string          `json:"merchant_name"`
	Category     string          `json:"category"`
}

// Scanner produces a candidate entry from an image, or (nil, nil) when the
// image is not recognizable as a receipt.
type Scanner interface {
	Scan(ctx context.Context, imageBytes []byte, mimeType string) (*CandidateEntry, error)
}

// GeminiScanner implements Scanner on the Gemini API. The underlying client
// is a process-wide handle, initialized lazily on first use and reused for
// the lifetime of the scanner.
type GeminiScanner struct {
	model string

	initOnce sync.Once
	client   *genai.Client
	initErr  error
}

// NewGeminiScanner creates a scanner for the given model name.
// Credentials come from the environment (GEMINI_API_KEY / ADC).
func NewGeminiScanner(model string) *GeminiScanner {
	if model == "" {
		model = DefaultModel
	}
	return &GeminiScanner{model: model}
}

func (s *GeminiScanner) clientHandle(ctx context.Context) (*genai.Client, error) {
	s.initOnce.Do(func() {
		s.client, s.initErr = genai.NewClient(ctx, &genai.ClientConfig{
			HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
		})
	})
	if s.initErr != nil {
		return nil, domain.Errorf(domain.ErrExternalService, "create genai client: %v", s.initErr)
	}
	return s.client, nil
}

// Scan sends the image to the model and decodes its strict-JSON reply.
func (s *GeminiScanner) Scan(ctx context.Context, imageBytes []byte, mimeType string) (*CandidateEntry, error) {
	if len(imageBytes) == 0 {
		return nil, domain.Errorf(domain.ErrValidation, "empty image payload")
	}

	client, err := s.clientHandle(ctx)
	if err != nil {
		return nil, err
	}

	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: receiptPrompt()},
				{
					InlineData: &genai.Blob{
						MIMEType: mimeType,
						Data:     imageBytes,
					},
				},
			},
		},
	}

	resp, err := client.Models.GenerateContent(ctx, s.model, contents, nil)
	if err != nil {
		return nil, domain.Errorf(domain.ErrExternalService, "generate content: %v", err)
	}
	rawText := resp.Text()
	if rawText == "" {
		return nil, domain.Errorf(domain.ErrExternalService, "empty response from model")
	}

	return decodeCandidate(rawText)
}

// receiptPrompt builds the extraction instructions. The model must answer
// with a single raw JSON object, or {} when the image is not a receipt.
func receiptPrompt() string {
	var b strings.Builder
	b.WriteString("You are a receipt parser for a personal finance ledger.\n\n")
	b.WriteString("Task:\n")
	b.WriteString("- Analyze the attached receipt image.\n")
	b.WriteString("- Output STRICT JSON only (no comments, no trailing commas, no extra text).\n")
	b.WriteString("- Output a single JSON object.\n\n")
	b.WriteString("The object must have these fields:\n")
	b.WriteString("- \"amount\": number (total amount on the receipt)\n")
	b.WriteString("- \"date\": string, ISO format \"YYYY-MM-DD\"\n")
	b.WriteString("- \"description\": string (brief summary of purchased items)\n")
	b.WriteString("- \"merchantName\": string (store or merchant name)\n")
	b.WriteString("- \"category\": string, one of the predefined categories below\n\n")

	b.WriteString("Use ONLY the following categories:\n")
	for _, c := range domain.Categories {
		b.WriteString("  - " + c + "\n")
	}
	b.WriteString("\nRules:\n")
	b.WriteString("- If the image is NOT a receipt, output exactly {} and nothing else.\n")
	b.WriteString("- Return ONLY valid raw JSON.\n")
	b.WriteString("- Do NOT wrap the response in code fences.\n")
	b.WriteString("- Do NOT use ```json or any Markdown.\n")
	b.WriteString("- Output must begin with \"{\" and end with \"}\".\n")
	return b.String()
}

var _ Scanner = (*GeminiScanner)(nil)
