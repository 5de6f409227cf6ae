package mongodb

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/muhammadanas59525/expiry-inventory-management-sub000/internal/domain"
	"github.com/muhammadanas59525/expiry-inventory-management-sub000/pkg/cloudevents"
	"github.com/muhammadanas59525/expiry-inventory-management-sub000/pkg/outbox"
	outboxMongo "github.com/muhammadanas59525/expiry-inventory-management-sub000/pkg/outbox/mongodb"
)

// OutboxEventPublisher implements domain.EventPublisher by writing CloudEvents
// to the outbox collection. Called with a transaction context, the events
// commit or roll back with the state change.
type OutboxEventPublisher struct {
	outboxRepo   outbox.Repository
	eventFactory *cloudevents.EventFactory
}

// NewOutboxEventPublisher creates a new OutboxEventPublisher. It fails when
// the outbox indexes cannot be built.
func NewOutboxEventPublisher(ctx context.Context, db *mongo.Database, eventFactory *cloudevents.EventFactory) (*OutboxEventPublisher, error) {
	repo := outboxMongo.NewOutboxRepository(db)

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := repo.EnsureIndexes(ctx); err != nil {
		return nil, fmt.Errorf("outbox: %w", err)
	}

	return &OutboxEventPublisher{outboxRepo: repo, eventFactory: eventFactory}, nil
}

// Publish converts events to outbox records and saves them
func (p *OutboxEventPublisher) Publish(ctx context.Context, events ...domain.DomainEvent) error {
	if len(events) == 0 {
		return nil
	}

	outboxEvents := make([]*outbox.OutboxEvent, 0, len(events))
	for _, event := range events {
		subject := strings.ToLower(event.AggregateType()) + "/" + event.AggregateID()
		cloudEvent := p.eventFactory.CreateEvent(ctx, event.EventType(), subject, event)
		if at := event.OccurredAt(); !at.IsZero() {
			cloudEvent.Time = at.UTC()
		}

		outboxEvent, err := outbox.NewOutboxEventFromCloudEvent(
			event.AggregateID(),
			event.AggregateType(),
			cloudevents.TopicFor(event.EventType()),
			cloudEvent,
		)
		if err != nil {
			return fmt.Errorf("failed to create outbox event: %w", err)
		}
		outboxEvents = append(outboxEvents, outboxEvent)
	}

	return p.outboxRepo.SaveAll(ctx, outboxEvents)
}

// OutboxRepository exposes the store the relay reads from
func (p *OutboxEventPublisher) OutboxRepository() outbox.Repository {
	return p.outboxRepo
}
