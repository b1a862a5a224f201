package api

import (
	"time"

	"github.com/thindery/pantry-pal/domain/entities"
)

// AuthRequest represents the request payload for token issuance
type AuthRequest struct {
	APIKey string `json:"api_key" validate:"required"`
}

// AuthResponse represents the response payload for token issuance
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ItemRequest represents the payload for creating or updating an item
type ItemRequest struct {
	Name     string  `json:"name" validate:"required"`
	Quantity float64 `json:"quantity"`
	Unit     string  `json:"unit"`
	Category string  `json:"category"`
}

// ScanResponse lists the receipt items merged into the pantry
type ScanResponse struct {
	Items []entities.ReceiptItem `json:"items"`
}

// VoiceStatusResponse reports whether a voice session is live
type VoiceStatusResponse struct {
	Active bool `json:"active"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
