package mongodb

import (
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Now returns the current time in UTC truncated to the millisecond BSON stores
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

// IsDuplicateKeyError reports a unique index violation
func IsDuplicateKeyError(err error) bool {
	return mongo.IsDuplicateKeyError(err)
}

// IsNoDocuments reports an empty single result
func IsNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

// SortAscending creates an ascending sort option
func SortAscending(field string) bson.D {
	return bson.D{{Key: field, Value: 1}}
}

// SortDescending creates a descending sort option
func SortDescending(field string) bson.D {
	return bson.D{{Key: field, Value: -1}}
}

// TimeRange adds a createdAt-style range to filter when either bound is set
func TimeRange(filter bson.M, field string, from, to *time.Time) bson.M {
	if from == nil && to == nil {
		return filter
	}
	r := bson.M{}
	if from != nil {
		r["$gte"] = *from
	}
	if to != nil {
		r["$lte"] = *to
	}
	filter[field] = r
	return filter
}
