package outbox

import "context"

// Repository defines the interface for outbox event persistence
type Repository interface {
	// SaveAll saves events in one insert; pass a session context to join a transaction
	SaveAll(ctx context.Context, events []*OutboxEvent) error

	// FindUnpublished returns the oldest unpublished events still under their retry cap
	FindUnpublished(ctx context.Context, limit int) ([]*OutboxEvent, error)

	MarkPublished(ctx context.Context, eventID string) error

	// IncrementRetry increments the retry count and records the error
	IncrementRetry(ctx context.Context, eventID string, errorMsg string) error
}
