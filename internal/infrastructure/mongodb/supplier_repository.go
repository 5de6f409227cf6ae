package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/muhammadanas59525/expiry-inventory-management-sub000/internal/domain"
	sharedMongo "github.com/muhammadanas59525/expiry-inventory-management-sub000/pkg/mongodb"
)

const suppliersCollection = "suppliers"

// SupplierRepository implements domain.SupplierRepository
type SupplierRepository struct {
	collection *mongo.Collection
}

// NewSupplierRepository creates a new SupplierRepository
func NewSupplierRepository(ctx context.Context, db *mongo.Database) (*SupplierRepository, error) {
	collection := db.Collection(suppliersCollection)

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, err := collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "shopkeeperId", Value: 1}, {Key: "name", Value: 1}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create supplier indexes: %w", err)
	}

	return &SupplierRepository{collection: collection}, nil
}

// Create persists a supplier
func (r *SupplierRepository) Create(ctx context.Context, supplier *domain.Supplier) error {
	_, err := r.collection.InsertOne(ctx, supplier)
	return err
}

// FindByID retrieves a shopkeeper's supplier
func (r *SupplierRepository) FindByID(ctx context.Context, shopkeeperID, supplierID string) (*domain.Supplier, error) {
	var supplier domain.Supplier
	err := r.collection.FindOne(ctx, bson.M{"_id": supplierID, "shopkeeperId": shopkeeperID}).Decode(&supplier)
	if err != nil {
		if sharedMongo.IsNoDocuments(err) {
			return nil, nil
		}
		return nil, err
	}
	return &supplier, nil
}

// UpdateCredit writes the current credit balance
func (r *SupplierRepository) UpdateCredit(ctx context.Context, supplier *domain.Supplier) error {
	filter := bson.M{"_id": supplier.ID, "shopkeeperId": supplier.ShopkeeperID}
	update := bson.M{"$set": bson.M{
		"currentCredit": supplier.CurrentCredit,
		"updatedAt":     supplier.UpdatedAt,
	}}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return domain.NewNotFoundError("supplier", supplier.ID)
	}
	return nil
}
