package idempotency

import "context"

// KeyRepository stores idempotency keys. AcquireLock must be atomic.
type KeyRepository interface {
	// AcquireLock inserts key if absent and returns the stored record and
	// whether this call created it.
	AcquireLock(ctx context.Context, key *IdempotencyKey) (*IdempotencyKey, bool, error)

	// ReleaseLock drops an unfinished key so the client can retry
	ReleaseLock(ctx context.Context, keyID string) error

	// StoreResponse caches the final response and marks the key completed
	StoreResponse(ctx context.Context, keyID string, responseCode int, responseBody []byte, headers map[string]string) error
}
