package cloudevents

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/muhammadanas59525/expiry-inventory-management-sub000/pkg/logging"
	"github.com/muhammadanas59525/expiry-inventory-management-sub000/pkg/tenant"
	"github.com/muhammadanas59525/expiry-inventory-management-sub000/pkg/tracing"
)

// EventFactory creates CloudEvents for domain events
type EventFactory struct {
	now func() time.Time
}

// NewEventFactory creates a new EventFactory
func NewEventFactory() *EventFactory {
	return &EventFactory{now: func() time.Time { return time.Now().UTC() }}
}

// CreateEvent builds an envelope, copying the correlation id, shopkeeper and
// trace context carried by ctx.
func (f *EventFactory) CreateEvent(ctx context.Context, eventType, subject string, data any) *EximsCloudEvent {
	event := &EximsCloudEvent{
		SpecVersion:     "1.0",
		Type:            eventType,
		Source:          SourceFor(TopicFor(eventType)),
		Subject:         subject,
		ID:              uuid.New().String(),
		Time:            f.now(),
		DataContentType: "application/json",
		Data:            data,
		CorrelationID:   logging.CorrelationIDFromContext(ctx),
		ShopkeeperID:    tenant.ShopkeeperID(ctx),
	}

	carrier := tracing.MapCarrier{}
	tracing.InjectTraceContext(ctx, carrier)
	event.TraceParent = carrier["traceparent"]

	return event
}
