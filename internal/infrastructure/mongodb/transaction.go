package mongodb

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/mongo"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/muhammadanas59525/expiry-inventory-management-sub000/internal/domain"
	"github.com/muhammadanas59525/expiry-inventory-management-sub000/pkg/logging"
	"github.com/muhammadanas59525/expiry-inventory-management-sub000/pkg/tracing"
)

type transactor interface {
	WithTransaction(ctx context.Context, fn func(sessCtx mongo.SessionContext) error) error
}

// TransactionManager implements domain.UnitOfWork with MongoDB multi-document transactions
type TransactionManager struct {
	client transactor
	logger *logging.Logger
	tracer trace.Tracer
}

// NewTransactionManager creates a new TransactionManager
func NewTransactionManager(client transactor, logger *logging.Logger) *TransactionManager {
	return &TransactionManager{
		client: client,
		logger: logger.WithComponent("unit-of-work"),
		tracer: otel.Tracer("exims-unit-of-work"),
	}
}

// Do runs fn in a transaction. Domain errors are returned as they are;
// anything else is reported as a domain.TransactionFailure once the
// transaction has been aborted. Each call is traced as one span.
func (m *TransactionManager) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	_, err := tracing.TracedOperation(ctx, m.tracer, "mongodb.transaction", func(ctx context.Context) (struct{}, error) {
		return struct{}{}, m.client.WithTransaction(ctx, func(sessCtx mongo.SessionContext) error {
			return fn(sessCtx)
		})
	})
	if err == nil {
		return nil
	}

	if domain.IsBusinessError(err) || domain.IsRetryable(err) ||
		errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	m.logger.WithContext(ctx).WithError(err).Error("Transaction rolled back")
	return &domain.TransactionFailure{Op: "mongodb.transaction", Err: err}
}
