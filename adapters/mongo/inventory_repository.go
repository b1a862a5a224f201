package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/thindery/pantry-pal/domain/entities"
	"github.com/thindery/pantry-pal/domain/repositories"
)

type InventoryRepository struct {
	collection *mongo.Collection
}

// NewInventoryRepository creates a new MongoDB inventory repository
func NewInventoryRepository(db *mongo.Database) repositories.InventoryRepository {
	return &InventoryRepository{
		collection: db.Collection("items"),
	}
}

// Create implements repositories.InventoryRepository
func (r *InventoryRepository) Create(ctx context.Context, item *entities.Item) error {
	if item == nil {
		return errors.New("item cannot be nil")
	}
	if err := item.Validate(); err != nil {
		return err
	}
	if item.ID.IsZero() {
		item.ID = primitive.NewObjectID()
	}

	if _, err := r.collection.InsertOne(ctx, item); err != nil {
		return fmt.Errorf("failed to create item: %w", err)
	}
	return nil
}

// GetByID implements repositories.InventoryRepository
func (r *InventoryRepository) GetByID(ctx context.Context, id string) (*entities.Item, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("invalid item ID: %w", err)
	}

	var item entities.Item
	err = r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&item)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, repositories.ErrItemNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get item: %w", err)
	}
	return &item, nil
}

// GetByName implements repositories.InventoryRepository
func (r *InventoryRepository) GetByName(ctx context.Context, name string) (*entities.Item, error) {
	var item entities.Item
	err := r.collection.FindOne(ctx, bson.M{"name": entities.NormalizeItemName(name)}).Decode(&item)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, repositories.ErrItemNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get item by name: %w", err)
	}
	return &item, nil
}

// List implements repositories.InventoryRepository
func (r *InventoryRepository) List(ctx context.Context) ([]*entities.Item, error) {
	cursor, err := r.collection.Find(ctx, bson.M{}, options.Find().SetSort(bson.M{"name": 1}))
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	defer cursor.Close(ctx)

	var items []*entities.Item
	if err := cursor.All(ctx, &items); err != nil {
		return nil, fmt.Errorf("failed to decode items: %w", err)
	}
	return items, nil
}

// Update implements repositories.InventoryRepository
func (r *InventoryRepository) Update(ctx context.Context, item *entities.Item) error {
	if item == nil {
		return errors.New("item cannot be nil")
	}
	if err := item.Validate(); err != nil {
		return err
	}

	result, err := r.collection.ReplaceOne(ctx, bson.M{"_id": item.ID}, item)
	if err != nil {
		return fmt.Errorf("failed to update item: %w", err)
	}
	if result.MatchedCount == 0 {
		return repositories.ErrItemNotFound
	}
	return nil
}

// Delete implements repositories.InventoryRepository
func (r *InventoryRepository) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("invalid item ID: %w", err)
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}
	if result.DeletedCount == 0 {
		return repositories.ErrItemNotFound
	}
	return nil
}
