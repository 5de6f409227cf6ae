package application

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/muhammadanas59525/expiry-inventory-management-sub000/internal/domain"
	"github.com/muhammadanas59525/expiry-inventory-management-sub000/pkg/logging"
	"github.com/muhammadanas59525/expiry-inventory-management-sub000/pkg/metrics"
	"github.com/muhammadanas59525/expiry-inventory-management-sub000/pkg/resilience"
)

// Stores groups the persistence ports shared by the application services
type Stores struct {
	UnitOfWork domain.UnitOfWork
	Products   domain.ProductRepository
	Ledger     domain.LedgerRepository
	Bills      domain.BillRepository
	Sequence   domain.BillSequence
	Suppliers  domain.SupplierRepository
	Events     domain.EventPublisher
	Locker     domain.StockLocker
}

// stockOps runs stock mutations. Every mutation goes through move, which is
// the only path that appends to the ledger, so the product quantity and the
// ledger's running total change together.
type stockOps struct {
	stores  Stores
	retry   *resilience.RetryConfig
	metrics *metrics.Metrics
	logger  *logging.Logger
	now     func() time.Time
}

func newStockOps(stores Stores, m *metrics.Metrics, logger *logging.Logger) *stockOps {
	retry := resilience.DefaultRetryConfig()
	retry.RetryableErrors = domain.IsRetryable

	return &stockOps{
		stores:  stores,
		retry:   retry,
		metrics: m,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// atomically locks productIDs and runs fn in a unit of work. Lost races on
// the stored quantity are retried from scratch, so fn must rebuild all state
// it depends on from the repositories.
func (o *stockOps) atomically(ctx context.Context, shopkeeperID string, productIDs []string, fn func(ctx context.Context) error) error {
	return resilience.Retry(ctx, o.retry, func() error {
		release, err := o.stores.Locker.Lock(ctx, shopkeeperID, productIDs...)
		if err != nil {
			return err
		}
		defer release()

		return o.stores.UnitOfWork.Do(ctx, fn)
	})
}

// findProduct loads a product or fails with NotFoundError
func (o *stockOps) findProduct(ctx context.Context, shopkeeperID, productID string) (*domain.Product, error) {
	product, err := o.stores.Products.FindByID(ctx, shopkeeperID, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to find product: %w", err)
	}
	if product == nil {
		return nil, domain.NewNotFoundError("product", productID)
	}
	return product, nil
}

// move records one movement of p. The stored quantity is compare-and-set from
// p.Quantity to the entry's quantity-after, the entry is appended and p is
// updated in place so later moves of the same product in this unit of work
// see the cumulative change.
func (o *stockOps) move(ctx context.Context, p *domain.Product, params domain.LedgerEntryParams, now time.Time) (*domain.StockLedgerEntry, []domain.DomainEvent, error) {
	params.ProductID = p.ID
	params.ShopkeeperID = p.ShopkeeperID
	params.QuantityBefore = p.Quantity

	entry, err := domain.NewLedgerEntry(params, now)
	if err != nil {
		return nil, nil, err
	}

	if err := o.stores.Products.UpdateQuantity(ctx, p.ShopkeeperID, p.ID, p.Quantity, entry.QuantityAfter); err != nil {
		return nil, nil, fmt.Errorf("failed to update stock of product %s: %w", p.ID, err)
	}
	if err := o.stores.Ledger.Append(ctx, entry); err != nil {
		return nil, nil, fmt.Errorf("failed to append ledger entry: %w", err)
	}

	p.Quantity = entry.QuantityAfter
	p.UpdatedAt = now

	events := []domain.DomainEvent{domain.NewStockMovedEvent(entry)}
	if entry.QuantityAfter < entry.QuantityBefore && p.IsLowStock() {
		events = append(events, &domain.LowStockAlertEvent{
			ProductID: p.ID,
			SKU:       p.SKU,
			Quantity:  p.Quantity,
			Threshold: p.LowStockThreshold,
			RaisedAt:  now,
		})
	}
	return entry, events, nil
}

// recordCommitted updates metrics once a unit of work has committed
func (o *stockOps) recordCommitted(entries []*domain.StockLedgerEntry, events []domain.DomainEvent) {
	counts := make(map[domain.MovementType]int)
	for _, e := range entries {
		counts[e.Type]++
	}
	for t, n := range counts {
		o.metrics.RecordStockMovement(string(t), n)
	}
	for _, ev := range events {
		if _, ok := ev.(*domain.LowStockAlertEvent); ok {
			o.metrics.RecordLowStockAlert()
		}
	}
}

// logFailure logs err unless it is an expected business outcome
func (o *stockOps) logFailure(ctx context.Context, msg string, err error, args ...any) {
	if domain.IsBusinessError(err) || errors.Is(err, context.Canceled) {
		o.logger.WithContext(ctx).Debug(msg, append(args, "error", err.Error())...)
		return
	}
	o.logger.WithContext(ctx).WithError(err).Error(msg, args...)
}

// distinctSorted returns the unique ids in ascending order
func distinctSorted(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
