package idempotency

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const idempotencyKeysCollection = "idempotency_keys"

// MongoKeyRepository implements KeyRepository using MongoDB
type MongoKeyRepository struct {
	collection *mongo.Collection
}

// NewMongoKeyRepository creates a new MongoDB-backed key repository
func NewMongoKeyRepository(db *mongo.Database) *MongoKeyRepository {
	return &MongoKeyRepository{collection: db.Collection(idempotencyKeysCollection)}
}

// AcquireLock upserts on (serviceId, scope, key). The record is new when the
// stored _id is the one this call generated.
func (r *MongoKeyRepository) AcquireLock(ctx context.Context, key *IdempotencyKey) (*IdempotencyKey, bool, error) {
	filter := bson.M{
		"serviceId": key.ServiceID,
		"scope":     key.Scope,
		"key":       key.Key,
	}
	update := bson.M{"$setOnInsert": key}

	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var result IdempotencyKey
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&result)
	if mongo.IsDuplicateKeyError(err) {
		// lost an upsert race; the winner's document is there now
		err = r.collection.FindOne(ctx, filter).Decode(&result)
	}
	if err != nil {
		return nil, false, err
	}

	return &result, result.ID == key.ID, nil
}

// ReleaseLock deletes an unfinished key
func (r *MongoKeyRepository) ReleaseLock(ctx context.Context, keyID string) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": keyID, "completedAt": bson.M{"$exists": false}})
	return err
}

// StoreResponse stores the final response for a completed request
func (r *MongoKeyRepository) StoreResponse(ctx context.Context, keyID string, responseCode int, responseBody []byte, headers map[string]string) error {
	_, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": keyID},
		bson.M{
			"$set": bson.M{
				"responseCode":    responseCode,
				"responseBody":    responseBody,
				"responseHeaders": headers,
				"completedAt":     time.Now().UTC(),
			},
			"$unset": bson.M{"lockedAt": ""},
		},
	)
	return err
}

// EnsureIndexes creates the lookup and TTL indexes
func (r *MongoKeyRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "serviceId", Value: 1},
				{Key: "scope", Value: 1},
				{Key: "key", Value: 1},
			},
			Options: options.Index().SetUnique(true).SetName("idx_service_scope_key"),
		},
		{
			Keys:    bson.D{{Key: "expiresAt", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0).SetName("idx_expiresAt_ttl"),
		},
	})
	return err
}
