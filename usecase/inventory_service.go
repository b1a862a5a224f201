package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/thindery/pantry-pal/domain/entities"
	"github.com/thindery/pantry-pal/domain/repositories"
)

// InventoryService handles pantry item CRUD and the voice-driven stock
// adjustments
type InventoryService struct {
	repo   repositories.InventoryRepository
	logger *zap.Logger
}

// NewInventoryService creates a new inventory service
func NewInventoryService(repo repositories.InventoryRepository, logger *zap.Logger) *InventoryService {
	return &InventoryService{repo: repo, logger: logger}
}

// Create validates and stores a new item
func (s *InventoryService) Create(ctx context.Context, item *entities.Item) error {
	item.Name = entities.NormalizeItemName(item.Name)
	if err := item.Validate(); err != nil {
		return err
	}
	if _, err := s.repo.GetByName(ctx, item.Name); err == nil {
		return fmt.Errorf("item %q already exists", item.Name)
	} else if !errors.Is(err, repositories.ErrItemNotFound) {
		return err
	}
	return s.repo.Create(ctx, item)
}

// Get returns one item by ID
func (s *InventoryService) Get(ctx context.Context, id string) (*entities.Item, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns all items sorted by name
func (s *InventoryService) List(ctx context.Context) ([]*entities.Item, error) {
	return s.repo.List(ctx)
}

// Update replaces an existing item
func (s *InventoryService) Update(ctx context.Context, item *entities.Item) error {
	item.Name = entities.NormalizeItemName(item.Name)
	if err := item.Validate(); err != nil {
		return err
	}
	return s.repo.Update(ctx, item)
}

// Delete removes an item by ID
func (s *InventoryService) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

// AdjustStock applies a signed quantity delta to the named item and returns
// a short sentence describing the outcome. Quantities clamp at zero. A
// positive adjustment to an unknown item creates it; a negative one is
// reported back without mutating anything.
func (s *InventoryService) AdjustStock(ctx context.Context, name string, amount float64) (string, error) {
	name = entities.NormalizeItemName(name)
	if name == "" {
		return "", errors.New("item name is required")
	}

	item, err := s.repo.GetByName(ctx, name)
	if errors.Is(err, repositories.ErrItemNotFound) {
		if amount <= 0 {
			return fmt.Sprintf("There is no %s in the pantry.", name), nil
		}
		item = entities.NewItem(name, amount, "")
		if err := s.repo.Create(ctx, item); err != nil {
			return "", err
		}
		s.logger.Info("Item created by stock adjustment",
			zap.String("name", name),
			zap.Float64("quantity", amount))
		return fmt.Sprintf("Added %s with quantity %s.", name, formatQuantity(amount)), nil
	}
	if err != nil {
		return "", err
	}

	item.Adjust(amount)
	if err := s.repo.Update(ctx, item); err != nil {
		return "", err
	}
	s.logger.Info("Stock adjusted",
		zap.String("name", name),
		zap.Float64("amount", amount),
		zap.Float64("quantity", item.Quantity))
	return fmt.Sprintf("%s now has quantity %s.", name, formatQuantity(item.Quantity)), nil
}

// formatQuantity renders a quantity without a trailing ".0" for whole
// numbers
func formatQuantity(q float64) string {
	out := fmt.Sprintf("%.2f", q)
	out = strings.TrimRight(out, "0")
	return strings.TrimRight(out, ".")
}
