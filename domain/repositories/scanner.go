package repositories

import (
	"context"

	"github.com/thindery/pantry-pal/domain/entities"
)

// ReceiptScanner abstracts the vision model that extracts line items from a
// grocery receipt image
type ReceiptScanner interface {
	Scan(ctx context.Context, image []byte, mimeType string) ([]entities.ReceiptItem, error)
}
