package usecase

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/thindery/pantry-pal/domain/entities"
	"github.com/thindery/pantry-pal/domain/repositories"
)

// ScanService turns a receipt image into inventory additions
type ScanService struct {
	scanner   repositories.ReceiptScanner
	inventory *InventoryService
	logger    *zap.Logger
}

// NewScanService creates a new receipt scan service
func NewScanService(scanner repositories.ReceiptScanner, inventory *InventoryService, logger *zap.Logger) *ScanService {
	return &ScanService{scanner: scanner, inventory: inventory, logger: logger}
}

// ScanReceipt extracts line items from the image and merges each one into
// the pantry. Items that fail to merge are skipped, not fatal; the
// successfully merged items are returned.
func (s *ScanService) ScanReceipt(ctx context.Context, image []byte, mimeType string) ([]entities.ReceiptItem, error) {
	if len(image) == 0 {
		return nil, errors.New("receipt image is empty")
	}

	items, err := s.scanner.Scan(ctx, image, mimeType)
	if err != nil {
		return nil, err
	}

	merged := make([]entities.ReceiptItem, 0, len(items))
	for _, it := range items {
		if it.Name == "" || it.Quantity <= 0 {
			continue
		}
		if _, err := s.inventory.AdjustStock(ctx, it.Name, it.Quantity); err != nil {
			s.logger.Warn("Failed to merge receipt item",
				zap.String("name", it.Name),
				zap.Error(err))
			continue
		}
		merged = append(merged, it)
	}

	s.logger.Info("Receipt merged into inventory",
		zap.Int("scanned", len(items)),
		zap.Int("merged", len(merged)))
	return merged, nil
}
