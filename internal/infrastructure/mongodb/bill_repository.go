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

const billsCollection = "bills"

// BillRepository implements domain.BillRepository
type BillRepository struct {
	collection *mongo.Collection
}

// NewBillRepository creates a new BillRepository
func NewBillRepository(ctx context.Context, db *mongo.Database) (*BillRepository, error) {
	collection := db.Collection(billsCollection)

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "billNumber", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{
				{Key: "shopkeeperId", Value: 1},
				{Key: "createdAt", Value: -1},
			},
		},
		{
			Keys: bson.D{
				{Key: "shopkeeperId", Value: 1},
				{Key: "status", Value: 1},
				{Key: "createdAt", Value: -1},
			},
		},
		{
			Keys: bson.D{{Key: "lines.productId", Value: 1}},
		},
	}

	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		return nil, fmt.Errorf("failed to create bill indexes: %w", err)
	}

	return &BillRepository{collection: collection}, nil
}

// Create persists a new bill
func (r *BillRepository) Create(ctx context.Context, bill *domain.Bill) error {
	_, err := r.collection.InsertOne(ctx, bill)
	if sharedMongo.IsDuplicateKeyError(err) {
		return domain.NewConflictError("billNumber", bill.BillNumber)
	}
	return err
}

// FindByID retrieves a shopkeeper's bill
func (r *BillRepository) FindByID(ctx context.Context, shopkeeperID, billID string) (*domain.Bill, error) {
	var bill domain.Bill
	filter := bson.M{"_id": billID, "shopkeeperId": shopkeeperID}

	err := r.collection.FindOne(ctx, filter).Decode(&bill)
	if err != nil {
		if sharedMongo.IsNoDocuments(err) {
			return nil, nil
		}
		return nil, err
	}
	return &bill, nil
}

// UpdateStatus writes the mutable status fields of bill
func (r *BillRepository) UpdateStatus(ctx context.Context, bill *domain.Bill) error {
	filter := bson.M{"_id": bill.ID, "shopkeeperId": bill.ShopkeeperID}
	set := bson.M{
		"status":        bill.Status,
		"paymentStatus": bill.PaymentStatus,
		"updatedAt":     bill.UpdatedAt,
	}
	if bill.TransactionID != "" {
		set["transactionId"] = bill.TransactionID
	}
	if bill.CancelledAt != nil {
		set["cancelledAt"] = *bill.CancelledAt
	}

	result, err := r.collection.UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return domain.NewNotFoundError("bill", bill.ID)
	}
	return nil
}

// Find lists bills newest first
func (r *BillRepository) Find(ctx context.Context, filter domain.BillFilter, pagination domain.Pagination) ([]*domain.Bill, error) {
	opts := options.Find().
		SetSort(sharedMongo.SortDescending("createdAt")).
		SetSkip(pagination.Skip()).
		SetLimit(pagination.Limit())

	cursor, err := r.collection.Find(ctx, r.buildFilter(filter), opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	bills := make([]*domain.Bill, 0)
	if err := cursor.All(ctx, &bills); err != nil {
		return nil, err
	}
	return bills, nil
}

// Count returns total count matching filter
func (r *BillRepository) Count(ctx context.Context, filter domain.BillFilter) (int64, error) {
	return r.collection.CountDocuments(ctx, r.buildFilter(filter))
}

// Stats aggregates non-cancelled bills created in range
func (r *BillRepository) Stats(ctx context.Context, shopkeeperID string, from, to *time.Time) (*domain.SalesStats, error) {
	match := sharedMongo.TimeRange(bson.M{
		"shopkeeperId": shopkeeperID,
		"status":       bson.M{"$ne": domain.BillStatusCancelled},
	}, "createdAt", from, to)

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$facet", Value: bson.M{
			"totals": bson.A{
				bson.M{"$group": bson.M{
					"_id":           nil,
					"totalSales":    bson.M{"$sum": "$grandTotal"},
					"totalTax":      bson.M{"$sum": "$taxTotal"},
					"totalDiscount": bson.M{"$sum": "$discountTotal"},
					"billCount":     bson.M{"$sum": 1},
					"itemsSold":     bson.M{"$sum": bson.M{"$sum": "$lines.quantity"}},
				}},
			},
			"byPaymentMethod": bson.A{
				bson.M{"$group": bson.M{
					"_id":   "$paymentMethod",
					"count": bson.M{"$sum": 1},
					"total": bson.M{"$sum": "$grandTotal"},
				}},
				bson.M{"$sort": bson.M{"_id": 1}},
			},
		}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var facets []struct {
		Totals          []domain.SalesStats        `bson:"totals"`
		ByPaymentMethod []domain.PaymentMethodStat `bson:"byPaymentMethod"`
	}
	if err := cursor.All(ctx, &facets); err != nil {
		return nil, err
	}

	stats := &domain.SalesStats{ByPaymentMethod: []domain.PaymentMethodStat{}}
	if len(facets) == 0 {
		return stats, nil
	}
	if len(facets[0].Totals) > 0 {
		*stats = facets[0].Totals[0]
	}
	stats.ByPaymentMethod = facets[0].ByPaymentMethod
	if stats.ByPaymentMethod == nil {
		stats.ByPaymentMethod = []domain.PaymentMethodStat{}
	}
	stats.AverageBill = stats.TotalSales.DivInt(stats.BillCount)
	return stats, nil
}

func (r *BillRepository) buildFilter(filter domain.BillFilter) bson.M {
	mongoFilter := bson.M{"shopkeeperId": filter.ShopkeeperID}
	if filter.Status != nil {
		mongoFilter["status"] = *filter.Status
	}
	if filter.PaymentStatus != nil {
		mongoFilter["paymentStatus"] = *filter.PaymentStatus
	}
	return sharedMongo.TimeRange(mongoFilter, "createdAt", filter.FromDate, filter.ToDate)
}
