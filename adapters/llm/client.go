// Package llm wraps the Gemini API: the live duplex voice channel and the
// receipt-scanning vision model.
package llm

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

const (
	// DefaultLiveModel is the realtime voice model.
	DefaultLiveModel = "gemini-2.0-flash-live-001"

	// defaultScanModel handles receipt image extraction.
	defaultScanModel = "gemini-2.0-flash"
)

// NewClient creates a Gemini API client from the GEMINI_API_KEY
// environment variable.
func NewClient(logger *zap.Logger) (*genai.Client, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY environment variable is required")
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	logger.Info("Gemini client initialized")
	return client, nil
}
