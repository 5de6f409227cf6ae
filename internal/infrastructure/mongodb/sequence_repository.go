package mongodb

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const countersCollection = "counters"

// BillSequenceRepository implements domain.BillSequence with one counter
// document per period. Called inside the bill transaction, a rolled-back
// bill gives its number back.
type BillSequenceRepository struct {
	collection *mongo.Collection
}

// NewBillSequenceRepository creates a new BillSequenceRepository
func NewBillSequenceRepository(db *mongo.Database) *BillSequenceRepository {
	return &BillSequenceRepository{collection: db.Collection(countersCollection)}
}

// Next increments and returns the counter for period
func (r *BillSequenceRepository) Next(ctx context.Context, period string) (int64, error) {
	filter := bson.M{"_id": "bill:" + period}
	update := bson.M{"$inc": bson.M{"seq": int64(1)}}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var counter struct {
		Seq int64 `bson:"seq"`
	}
	if err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&counter); err != nil {
		return 0, err
	}
	return counter.Seq, nil
}
