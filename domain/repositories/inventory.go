package repositories

import (
	"context"
	"errors"

	"github.com/thindery/pantry-pal/domain/entities"
)

// ErrItemNotFound is returned when a lookup matches no pantry item
var ErrItemNotFound = errors.New("item not found")

// InventoryRepository defines data access methods for pantry items
type InventoryRepository interface {
	Create(ctx context.Context, item *entities.Item) error
	GetByID(ctx context.Context, id string) (*entities.Item, error)
	// GetByName looks up an item by its normalized name
	GetByName(ctx context.Context, name string) (*entities.Item, error)
	List(ctx context.Context) ([]*entities.Item, error)
	Update(ctx context.Context, item *entities.Item) error
	Delete(ctx context.Context, id string) error
}
