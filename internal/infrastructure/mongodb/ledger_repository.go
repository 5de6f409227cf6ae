package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/muhammadanas59525/expiry-inventory-management-sub000/internal/domain"
	sharedMongo "github.com/muhammadanas59525/expiry-inventory-management-sub000/pkg/mongodb"
)

const ledgerCollection = "stock_ledger"

// newestFirst orders entries by creation; ids are time-ordered and break ties
var newestFirst = bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}

// LedgerRepository implements domain.LedgerRepository
type LedgerRepository struct {
	collection *mongo.Collection
}

// NewLedgerRepository creates a new LedgerRepository
func NewLedgerRepository(ctx context.Context, db *mongo.Database) (*LedgerRepository, error) {
	collection := db.Collection(ledgerCollection)

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "shopkeeperId", Value: 1},
				{Key: "productId", Value: 1},
				{Key: "createdAt", Value: -1},
				{Key: "_id", Value: -1},
			},
		},
		{
			Keys: bson.D{
				{Key: "shopkeeperId", Value: 1},
				{Key: "type", Value: 1},
				{Key: "createdAt", Value: -1},
			},
		},
		{
			Keys: bson.D{
				{Key: "referenceType", Value: 1},
				{Key: "reference", Value: 1},
			},
		},
	}

	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		return nil, fmt.Errorf("failed to create ledger indexes: %w", err)
	}

	return &LedgerRepository{collection: collection}, nil
}

// Append persists a new entry
func (r *LedgerRepository) Append(ctx context.Context, entry *domain.StockLedgerEntry) error {
	_, err := r.collection.InsertOne(ctx, entry)
	return err
}

// Latest returns the most recent entry for a product
func (r *LedgerRepository) Latest(ctx context.Context, shopkeeperID, productID string) (*domain.StockLedgerEntry, error) {
	var entry domain.StockLedgerEntry
	filter := bson.M{"shopkeeperId": shopkeeperID, "productId": productID}
	opts := options.FindOne().SetSort(newestFirst)

	err := r.collection.FindOne(ctx, filter, opts).Decode(&entry)
	if err != nil {
		if sharedMongo.IsNoDocuments(err) {
			return nil, nil
		}
		return nil, err
	}
	return &entry, nil
}

// StockValue sums quantityAfter * unitCost over the latest entry of each product
func (r *LedgerRepository) StockValue(ctx context.Context, shopkeeperID string) (domain.Money, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"shopkeeperId": shopkeeperID}}},
		{{Key: "$sort", Value: bson.D{
			{Key: "productId", Value: 1},
			{Key: "createdAt", Value: -1},
			{Key: "_id", Value: -1},
		}}},
		{{Key: "$group", Value: bson.M{
			"_id":           "$productId",
			"quantityAfter": bson.M{"$first": "$quantityAfter"},
			"unitCost":      bson.M{"$first": "$unitCost"},
		}}},
		{{Key: "$group", Value: bson.M{
			"_id":   nil,
			"value": bson.M{"$sum": bson.M{"$multiply": bson.A{"$quantityAfter", "$unitCost"}}},
		}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return domain.Zero, err
	}
	defer cursor.Close(ctx)

	if !cursor.Next(ctx) {
		return domain.Zero, cursor.Err()
	}
	var row struct {
		Value domain.Money `bson:"value"`
	}
	if err := cursor.Decode(&row); err != nil {
		return domain.Zero, err
	}
	return row.Value, nil
}

// History lists entries newest first
func (r *LedgerRepository) History(ctx context.Context, filter domain.LedgerFilter, pagination domain.Pagination) ([]*domain.StockLedgerEntry, error) {
	opts := options.Find().
		SetSort(newestFirst).
		SetSkip(pagination.Skip()).
		SetLimit(pagination.Limit())

	cursor, err := r.collection.Find(ctx, r.buildFilter(filter), opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	entries := make([]*domain.StockLedgerEntry, 0)
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// Count returns total count matching filter
func (r *LedgerRepository) Count(ctx context.Context, filter domain.LedgerFilter) (int64, error) {
	return r.collection.CountDocuments(ctx, r.buildFilter(filter))
}

// MovementStats groups entries by movement type
func (r *LedgerRepository) MovementStats(ctx context.Context, shopkeeperID string, from, to *time.Time) ([]domain.MovementStat, error) {
	match := sharedMongo.TimeRange(bson.M{"shopkeeperId": shopkeeperID}, "createdAt", from, to)

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$group", Value: bson.M{
			"_id":       "$type",
			"count":     bson.M{"$sum": 1},
			"quantity":  bson.M{"$sum": "$quantity"},
			"totalCost": bson.M{"$sum": "$totalCost"},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "_id", Value: 1}}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	stats := make([]domain.MovementStat, 0)
	if err := cursor.All(ctx, &stats); err != nil {
		return nil, err
	}
	return stats, nil
}

// DeleteByProduct removes a product's history
func (r *LedgerRepository) DeleteByProduct(ctx context.Context, shopkeeperID, productID string) (int64, error) {
	result, err := r.collection.DeleteMany(ctx, bson.M{"shopkeeperId": shopkeeperID, "productId": productID})
	if err != nil {
		return 0, err
	}
	return result.DeletedCount, nil
}

func (r *LedgerRepository) buildFilter(filter domain.LedgerFilter) bson.M {
	mongoFilter := bson.M{"shopkeeperId": filter.ShopkeeperID}
	if filter.ProductID != nil {
		mongoFilter["productId"] = *filter.ProductID
	}
	if filter.Type != nil {
		mongoFilter["type"] = *filter.Type
	}
	return sharedMongo.TimeRange(mongoFilter, "createdAt", filter.FromDate, filter.ToDate)
}
