package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/thindery/pantry-pal/domain/entities"
)

const scanPrompt = `Extract every grocery line item from this receipt image.
Return a JSON array where each element has "name" (lowercase item name),
"quantity" (number) and "unit" (string, empty if unknown). Skip totals,
taxes, discounts and non-food fees.`

// GeminiScanner extracts pantry items from receipt images using the Gemini
// vision model. It implements repositories.ReceiptScanner.
type GeminiScanner struct {
	client *genai.Client
	logger *zap.Logger
	model  string
}

// NewGeminiScanner creates a receipt scanner over an existing client.
func NewGeminiScanner(client *genai.Client, logger *zap.Logger) *GeminiScanner {
	return &GeminiScanner{
		client: client,
		logger: logger,
		model:  defaultScanModel,
	}
}

// Scan sends the receipt image to the model and parses the structured
// response.
func (s *GeminiScanner) Scan(ctx context.Context, image []byte, mimeType string) ([]entities.ReceiptItem, error) {
	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromText(scanPrompt),
			genai.NewPartFromBytes(image, mimeType),
		}, genai.RoleUser),
	}
	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		Temperature:      genai.Ptr(float32(0.1)),
	}

	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	var response *genai.GenerateContentResponse
	var err error
	for attempt := 0; attempt < 3; attempt++ {
		response, err = s.client.Models.GenerateContent(ctx, s.model, contents, config)
		if err == nil {
			break
		}

		s.logger.Warn("Failed to scan receipt, retrying",
			zap.Int("attempt", attempt+1),
			zap.Error(err))

		if attempt < 2 {
			time.Sleep(time.Duration(attempt+1) * time.Second)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan receipt: %w", err)
	}

	if len(response.Candidates) == 0 || len(response.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("no content in receipt scan response")
	}

	var text string
	for _, part := range response.Candidates[0].Content.Parts {
		text += part.Text
	}

	var items []entities.ReceiptItem
	if err := json.Unmarshal([]byte(text), &items); err != nil {
		return nil, fmt.Errorf("failed to parse receipt scan response: %w", err)
	}

	s.logger.Info("Receipt scanned", zap.Int("items", len(items)))
	return items, nil
}
