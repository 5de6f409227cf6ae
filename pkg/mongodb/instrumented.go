package mongodb

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/event"
	"go.mongodb.org/mongo-driver/mongo"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/muhammadanas59525/expiry-inventory-management-sub000/pkg/logging"
	"github.com/muhammadanas59525/expiry-inventory-management-sub000/pkg/metrics"
)

// NewCommandMonitor feeds per-command latency into the operation metrics.
// Commands are matched to their collection through the request id.
func NewCommandMonitor(m *metrics.Metrics) *event.CommandMonitor {
	var inflight sync.Map

	collectionOf := func(e *event.CommandStartedEvent) string {
		if v, err := e.Command.LookupErr(e.CommandName); err == nil {
			if s, ok := v.StringValueOK(); ok {
				return s
			}
		}
		return "admin"
	}

	finish := func(requestID int64, command string, duration time.Duration, success bool) {
		v, ok := inflight.LoadAndDelete(requestID)
		if !ok {
			return
		}
		m.RecordMongoDBOperation(v.(string), command, success, duration)
	}

	return &event.CommandMonitor{
		Started: func(_ context.Context, e *event.CommandStartedEvent) {
			switch strings.ToLower(e.CommandName) {
			case "hello", "ismaster", "ping", "endsessions", "committransaction", "aborttransaction":
				return
			}
			inflight.Store(e.RequestID, collectionOf(e))
		},
		Succeeded: func(_ context.Context, e *event.CommandSucceededEvent) {
			finish(e.RequestID, e.CommandName, e.Duration, true)
		},
		Failed: func(_ context.Context, e *event.CommandFailedEvent) {
			finish(e.RequestID, e.CommandName, e.Duration, false)
		},
	}
}

// InstrumentedClient wraps a Client with transaction metrics and tracing
type InstrumentedClient struct {
	client  *Client
	metrics *metrics.Metrics
	logger  *logging.Logger
	tracer  trace.Tracer
}

// NewInstrumentedClient creates a new instrumented MongoDB client
func NewInstrumentedClient(client *Client, m *metrics.Metrics, logger *logging.Logger) *InstrumentedClient {
	return &InstrumentedClient{
		client:  client,
		metrics: m,
		logger:  logger,
		tracer:  otel.Tracer("mongodb"),
	}
}

// Database returns the underlying database handle
func (c *InstrumentedClient) Database() *mongo.Database {
	return c.client.Database()
}

// Close disconnects the client
func (c *InstrumentedClient) Close(ctx context.Context) error {
	return c.client.Close(ctx)
}

// HealthCheck performs a health check with tracing
func (c *InstrumentedClient) HealthCheck(ctx context.Context) error {
	ctx, span := c.tracer.Start(ctx, "mongodb.ping",
		trace.WithAttributes(
			semconv.DBSystemMongoDB,
			semconv.DBNameKey.String(c.client.config.Database),
		),
	)
	defer span.End()

	err := c.client.HealthCheck(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	return err
}

// WithTransaction executes a function within a transaction with tracing
func (c *InstrumentedClient) WithTransaction(ctx context.Context, fn func(sessCtx mongo.SessionContext) error) error {
	start := time.Now()
	ctx, span := c.tracer.Start(ctx, "mongodb.transaction",
		trace.WithAttributes(
			semconv.DBSystemMongoDB,
			semconv.DBNameKey.String(c.client.config.Database),
		),
	)
	defer span.End()

	err := c.client.WithTransaction(ctx, fn)
	if c.metrics != nil {
		c.metrics.RecordTransaction(err == nil)
	}
	if c.logger != nil {
		c.logger.DatabaseQuery(ctx, "*", "transaction", time.Since(start), err == nil)
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	return err
}
