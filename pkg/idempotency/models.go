package idempotency

import (
	"errors"
	"time"
)

var (
	ErrKeyRequired       = errors.New("idempotency key is required for this operation")
	ErrKeyInvalid        = errors.New("invalid idempotency key format")
	ErrKeyTooLong        = errors.New("idempotency key exceeds maximum length")
	ErrParameterMismatch = errors.New("request parameters differ from original request with this idempotency key")
	ErrConcurrentRequest = errors.New("a request with this idempotency key is currently being processed")
)

// IdempotencyKey is a stored request fingerprint plus the response it produced
type IdempotencyKey struct {
	ID                 string `bson:"_id"`
	Key                string `bson:"key"`
	Scope              string `bson:"scope"` // shopkeeper the key belongs to
	ServiceID          string `bson:"serviceId"`
	RequestPath        string `bson:"requestPath"`
	RequestMethod      string `bson:"requestMethod"`
	RequestFingerprint string `bson:"requestFingerprint"`

	LockedAt *time.Time `bson:"lockedAt,omitempty"`

	ResponseCode    int               `bson:"responseCode,omitempty"`
	ResponseBody    []byte            `bson:"responseBody,omitempty"`
	ResponseHeaders map[string]string `bson:"responseHeaders,omitempty"`

	CreatedAt   time.Time  `bson:"createdAt"`
	CompletedAt *time.Time `bson:"completedAt,omitempty"`
	ExpiresAt   time.Time  `bson:"expiresAt"`
}

// IsCompleted returns true if the request has been completed
func (ik *IdempotencyKey) IsCompleted() bool {
	return ik.CompletedAt != nil
}

// IsLocked returns true if the request is currently being processed
func (ik *IdempotencyKey) IsLocked() bool {
	return ik.LockedAt != nil && ik.CompletedAt == nil
}
