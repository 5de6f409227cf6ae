package mongodb

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/muhammadanas59525/expiry-inventory-management-sub000/internal/domain"
	sharedMongo "github.com/muhammadanas59525/expiry-inventory-management-sub000/pkg/mongodb"
)

const (
	productsCollection = "products"
	skuIndexName       = "uniq_shopkeeper_sku"
	barcodeIndexName   = "uniq_barcode"
)

// ProductRepository implements domain.ProductRepository
type ProductRepository struct {
	collection *mongo.Collection
}

// NewProductRepository creates a new ProductRepository
func NewProductRepository(ctx context.Context, db *mongo.Database) (*ProductRepository, error) {
	collection := db.Collection(productsCollection)

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "shopkeeperId", Value: 1},
				{Key: "sku", Value: 1},
			},
			Options: options.Index().SetUnique(true).SetName(skuIndexName),
		},
		{
			Keys: bson.D{{Key: "barcode", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetName(barcodeIndexName).
				SetPartialFilterExpression(bson.M{"barcode": bson.M{"$type": "string"}}),
		},
		{
			Keys: bson.D{
				{Key: "shopkeeperId", Value: 1},
				{Key: "quantity", Value: 1},
			},
		},
	}

	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		return nil, fmt.Errorf("failed to create product indexes: %w", err)
	}

	return &ProductRepository{collection: collection}, nil
}

// Create persists a product
func (r *ProductRepository) Create(ctx context.Context, product *domain.Product) error {
	_, err := r.collection.InsertOne(ctx, product)
	if sharedMongo.IsDuplicateKeyError(err) {
		if strings.Contains(err.Error(), barcodeIndexName) {
			return domain.NewConflictError("barcode", product.Barcode)
		}
		return domain.NewConflictError("sku", product.SKU)
	}
	return err
}

// FindByID retrieves a shopkeeper's product
func (r *ProductRepository) FindByID(ctx context.Context, shopkeeperID, productID string) (*domain.Product, error) {
	var product domain.Product
	filter := bson.M{"_id": productID, "shopkeeperId": shopkeeperID}

	err := r.collection.FindOne(ctx, filter).Decode(&product)
	if err != nil {
		if sharedMongo.IsNoDocuments(err) {
			return nil, nil
		}
		return nil, err
	}
	return &product, nil
}

// FindByShopkeeper lists products by SKU
func (r *ProductRepository) FindByShopkeeper(ctx context.Context, shopkeeperID string, pagination domain.Pagination) ([]*domain.Product, error) {
	opts := options.Find().
		SetSort(sharedMongo.SortAscending("sku")).
		SetSkip(pagination.Skip()).
		SetLimit(pagination.Limit())

	return r.findMany(ctx, bson.M{"shopkeeperId": shopkeeperID}, opts)
}

// FindLowStock lists products at or below their threshold, emptiest first
func (r *ProductRepository) FindLowStock(ctx context.Context, shopkeeperID string, pagination domain.Pagination) ([]*domain.Product, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "quantity", Value: 1}, {Key: "sku", Value: 1}}).
		SetSkip(pagination.Skip()).
		SetLimit(pagination.Limit())

	return r.findMany(ctx, lowStockFilter(shopkeeperID), opts)
}

// UpdateQuantity sets quantity when the stored value still equals expected
func (r *ProductRepository) UpdateQuantity(ctx context.Context, shopkeeperID, productID string, expected, quantity int64) error {
	filter := bson.M{
		"_id":          productID,
		"shopkeeperId": shopkeeperID,
		"quantity":     expected,
	}
	update := bson.M{
		"$set": bson.M{
			"quantity":  quantity,
			"updatedAt": sharedMongo.Now(),
		},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return domain.ErrConcurrentModification
	}
	return nil
}

// Delete removes the product
func (r *ProductRepository) Delete(ctx context.Context, shopkeeperID, productID string) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": productID, "shopkeeperId": shopkeeperID})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return domain.NewNotFoundError("product", productID)
	}
	return nil
}

// Count returns the number of products owned by the shopkeeper
func (r *ProductRepository) Count(ctx context.Context, shopkeeperID string) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"shopkeeperId": shopkeeperID})
}

// CountLowStock returns the number of low-stock products
func (r *ProductRepository) CountLowStock(ctx context.Context, shopkeeperID string) (int64, error) {
	return r.collection.CountDocuments(ctx, lowStockFilter(shopkeeperID))
}

func (r *ProductRepository) findMany(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*domain.Product, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	products := make([]*domain.Product, 0)
	if err := cursor.All(ctx, &products); err != nil {
		return nil, err
	}
	return products, nil
}

func lowStockFilter(shopkeeperID string) bson.M {
	return bson.M{
		"shopkeeperId": shopkeeperID,
		"$expr":        bson.M{"$lte": bson.A{"$quantity", "$lowStockThreshold"}},
	}
}
