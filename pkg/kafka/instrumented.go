package kafka

import (
	"context"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/muhammadanas59525/expiry-inventory-management-sub000/pkg/cloudevents"
	"github.com/muhammadanas59525/expiry-inventory-management-sub000/pkg/logging"
	"github.com/muhammadanas59525/expiry-inventory-management-sub000/pkg/metrics"
	"github.com/muhammadanas59525/expiry-inventory-management-sub000/pkg/resilience"
	"github.com/muhammadanas59525/expiry-inventory-management-sub000/pkg/tracing"
)

// EventPublisher publishes a single CloudEvent to a topic
type EventPublisher interface {
	PublishEvent(ctx context.Context, topic string, event *cloudevents.EximsCloudEvent) error
}

// InstrumentedProducer wraps a publisher with metrics, tracing and a circuit breaker
type InstrumentedProducer struct {
	producer EventPublisher
	breaker  *resilience.CircuitBreaker
	metrics  *metrics.Metrics
	logger   *logging.Logger
	tracer   trace.Tracer
}

// NewInstrumentedProducer creates a new instrumented producer
func NewInstrumentedProducer(producer EventPublisher, m *metrics.Metrics, logger *logging.Logger) *InstrumentedProducer {
	cbConfig := resilience.DefaultCircuitBreakerConfig("kafka-producer")
	cbConfig.MaxRequests = 5
	if m != nil {
		cbConfig.OnStateChange = func(name string, _, to gobreaker.State) {
			m.SetCircuitBreakerState(name, int(to))
			if to == gobreaker.StateOpen {
				m.RecordCircuitBreakerTrip(name)
			}
		}
	}

	var slogLogger *slog.Logger
	if logger != nil {
		slogLogger = logger.Logger
	} else {
		slogLogger = slog.Default()
	}

	return &InstrumentedProducer{
		producer: producer,
		breaker:  resilience.NewCircuitBreaker(cbConfig, slogLogger),
		metrics:  m,
		logger:   logger,
		tracer:   otel.Tracer("kafka-producer"),
	}
}

// PublishEvent publishes a CloudEvent with metrics and tracing
func (p *InstrumentedProducer) PublishEvent(ctx context.Context, topic string, event *cloudevents.EximsCloudEvent) error {
	start := time.Now()

	ctx, span := p.tracer.Start(ctx, "kafka.publish",
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(tracing.MessagingSpanAttributes("kafka", topic, "publish")...),
		trace.WithAttributes(
			attribute.String("messaging.kafka.event_type", event.Type),
			attribute.String("messaging.message_id", event.ID),
		),
	)
	defer span.End()

	if event.CorrelationID != "" {
		span.SetAttributes(attribute.String("exims.correlation_id", event.CorrelationID))
	}

	err := p.breaker.Execute(ctx, func(ctx context.Context) error {
		return p.producer.PublishEvent(ctx, topic, event)
	})
	duration := time.Since(start)

	success := err == nil
	if p.metrics != nil {
		p.metrics.RecordKafkaPublish(topic, event.Type, success, duration)
	}
	if p.logger != nil {
		p.logger.KafkaPublish(ctx, topic, event.Type, success, duration)
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}

	return err
}

// Close closes the wrapped producer if it holds connections
func (p *InstrumentedProducer) Close() error {
	if closer, ok := p.producer.(interface{ Close() error }); ok {
		return closer.Close()
	}
	return nil
}
