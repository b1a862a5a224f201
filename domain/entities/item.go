package entities

import (
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Item represents a pantry item and its on-hand quantity
type Item struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name      string             `json:"name" bson:"name"`
	Quantity  float64            `json:"quantity" bson:"quantity"`
	Unit      string             `json:"unit" bson:"unit"`
	Category  string             `json:"category" bson:"category"`
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time          `json:"updated_at" bson:"updated_at"`
}

// NewItem creates a pantry item with the given starting quantity
func NewItem(name string, quantity float64, unit string) *Item {
	now := time.Now()
	return &Item{
		ID:        primitive.NewObjectID(),
		Name:      NormalizeItemName(name),
		Quantity:  quantity,
		Unit:      unit,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// NormalizeItemName lowercases and trims an item name so voice and API
// lookups agree on a key
func NormalizeItemName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Validate checks that the item is well-formed
func (i *Item) Validate() error {
	if strings.TrimSpace(i.Name) == "" {
		return errors.New("item name is required")
	}
	if i.Quantity < 0 {
		return errors.New("item quantity cannot be negative")
	}
	return nil
}

// Adjust applies a signed quantity delta, clamping at zero
func (i *Item) Adjust(amount float64) {
	i.Quantity += amount
	if i.Quantity < 0 {
		i.Quantity = 0
	}
	i.UpdatedAt = time.Now()
}

// ReceiptItem is one line item extracted from a scanned receipt
type ReceiptItem struct {
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity"`
	Unit     string  `json:"unit"`
}
