package handlers

import (
	"context"
	"sync"
	"time"

	"github.com/muhammadanas59525/expiry-inventory-management-sub000/internal/domain"
	"github.com/muhammadanas59525/expiry-inventory-management-sub000/pkg/idempotency"
)

type passthroughUoW struct{}

func (passthroughUoW) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeLocker struct {
	lockFn func(context.Context, string, ...string) (func(), error)
}

func (f *fakeLocker) Lock(ctx context.Context, shopkeeperID string, productIDs ...string) (func(), error) {
	if f.lockFn != nil {
		return f.lockFn(ctx, shopkeeperID, productIDs...)
	}
	return func() {}, nil
}

type fakeEvents struct {
	published []domain.DomainEvent
}

func (f *fakeEvents) Publish(_ context.Context, events ...domain.DomainEvent) error {
	f.published = append(f.published, events...)
	return nil
}

type fakeProductRepo struct {
	createFn         func(context.Context, *domain.Product) error
	findByIDFn       func(context.Context, string, string) (*domain.Product, error)
	findByShopFn     func(context.Context, string, domain.Pagination) ([]*domain.Product, error)
	findLowStockFn   func(context.Context, string, domain.Pagination) ([]*domain.Product, error)
	updateQuantityFn func(context.Context, string, string, int64, int64) error
	deleteFn         func(context.Context, string, string) error
	countFn          func(context.Context, string) (int64, error)
	countLowStockFn  func(context.Context, string) (int64, error)
}

func (f *fakeProductRepo) Create(ctx context.Context, product *domain.Product) error {
	if f.createFn != nil {
		return f.createFn(ctx, product)
	}
	return nil
}

func (f *fakeProductRepo) FindByID(ctx context.Context, shopkeeperID, productID string) (*domain.Product, error) {
	if f.findByIDFn != nil {
		return f.findByIDFn(ctx, shopkeeperID, productID)
	}
	return nil, nil
}

func (f *fakeProductRepo) FindByShopkeeper(ctx context.Context, shopkeeperID string, pagination domain.Pagination) ([]*domain.Product, error) {
	if f.findByShopFn != nil {
		return f.findByShopFn(ctx, shopkeeperID, pagination)
	}
	return nil, nil
}

func (f *fakeProductRepo) FindLowStock(ctx context.Context, shopkeeperID string, pagination domain.Pagination) ([]*domain.Product, error) {
	if f.findLowStockFn != nil {
		return f.findLowStockFn(ctx, shopkeeperID, pagination)
	}
	return nil, nil
}

func (f *fakeProductRepo) UpdateQuantity(ctx context.Context, shopkeeperID, productID string, expected, quantity int64) error {
	if f.updateQuantityFn != nil {
		return f.updateQuantityFn(ctx, shopkeeperID, productID, expected, quantity)
	}
	return nil
}

func (f *fakeProductRepo) Delete(ctx context.Context, shopkeeperID, productID string) error {
	if f.deleteFn != nil {
		return f.deleteFn(ctx, shopkeeperID, productID)
	}
	return nil
}

func (f *fakeProductRepo) Count(ctx context.Context, shopkeeperID string) (int64, error) {
	if f.countFn != nil {
		return f.countFn(ctx, shopkeeperID)
	}
	return 0, nil
}

func (f *fakeProductRepo) CountLowStock(ctx context.Context, shopkeeperID string) (int64, error) {
	if f.countLowStockFn != nil {
		return f.countLowStockFn(ctx, shopkeeperID)
	}
	return 0, nil
}

type fakeLedgerRepo struct {
	appendFn          func(context.Context, *domain.StockLedgerEntry) error
	latestFn          func(context.Context, string, string) (*domain.StockLedgerEntry, error)
	stockValueFn      func(context.Context, string) (domain.Money, error)
	historyFn         func(context.Context, domain.LedgerFilter, domain.Pagination) ([]*domain.StockLedgerEntry, error)
	countFn           func(context.Context, domain.LedgerFilter) (int64, error)
	movementStatsFn   func(context.Context, string, *time.Time, *time.Time) ([]domain.MovementStat, error)
	deleteByProductFn func(context.Context, string, string) (int64, error)

	appended []*domain.StockLedgerEntry
}

func (f *fakeLedgerRepo) Append(ctx context.Context, entry *domain.StockLedgerEntry) error {
	if f.appendFn != nil {
		if err := f.appendFn(ctx, entry); err != nil {
			return err
		}
	}
	f.appended = append(f.appended, entry)
	return nil
}

func (f *fakeLedgerRepo) Latest(ctx context.Context, shopkeeperID, productID string) (*domain.StockLedgerEntry, error) {
	if f.latestFn != nil {
		return f.latestFn(ctx, shopkeeperID, productID)
	}
	return nil, nil
}

func (f *fakeLedgerRepo) StockValue(ctx context.Context, shopkeeperID string) (domain.Money, error) {
	if f.stockValueFn != nil {
		return f.stockValueFn(ctx, shopkeeperID)
	}
	return domain.Money{}, nil
}

func (f *fakeLedgerRepo) History(ctx context.Context, filter domain.LedgerFilter, pagination domain.Pagination) ([]*domain.StockLedgerEntry, error) {
	if f.historyFn != nil {
		return f.historyFn(ctx, filter, pagination)
	}
	return nil, nil
}

func (f *fakeLedgerRepo) Count(ctx context.Context, filter domain.LedgerFilter) (int64, error) {
	if f.countFn != nil {
		return f.countFn(ctx, filter)
	}
	return 0, nil
}

func (f *fakeLedgerRepo) MovementStats(ctx context.Context, shopkeeperID string, from, to *time.Time) ([]domain.MovementStat, error) {
	if f.movementStatsFn != nil {
		return f.movementStatsFn(ctx, shopkeeperID, from, to)
	}
	return nil, nil
}

func (f *fakeLedgerRepo) DeleteByProduct(ctx context.Context, shopkeeperID, productID string) (int64, error) {
	if f.deleteByProductFn != nil {
		return f.deleteByProductFn(ctx, shopkeeperID, productID)
	}
	return 0, nil
}

type fakeBillRepo struct {
	createFn       func(context.Context, *domain.Bill) error
	findByIDFn     func(context.Context, string, string) (*domain.Bill, error)
	updateStatusFn func(context.Context, *domain.Bill) error
	findFn         func(context.Context, domain.BillFilter, domain.Pagination) ([]*domain.Bill, error)
	countFn        func(context.Context, domain.BillFilter) (int64, error)
	statsFn        func(context.Context, string, *time.Time, *time.Time) (*domain.SalesStats, error)
}

func (f *fakeBillRepo) Create(ctx context.Context, bill *domain.Bill) error {
	if f.createFn != nil {
		return f.createFn(ctx, bill)
	}
	return nil
}

func (f *fakeBillRepo) FindByID(ctx context.Context, shopkeeperID, billID string) (*domain.Bill, error) {
	if f.findByIDFn != nil {
		return f.findByIDFn(ctx, shopkeeperID, billID)
	}
	return nil, nil
}

func (f *fakeBillRepo) UpdateStatus(ctx context.Context, bill *domain.Bill) error {
	if f.updateStatusFn != nil {
		return f.updateStatusFn(ctx, bill)
	}
	return nil
}

func (f *fakeBillRepo) Find(ctx context.Context, filter domain.BillFilter, pagination domain.Pagination) ([]*domain.Bill, error) {
	if f.findFn != nil {
		return f.findFn(ctx, filter, pagination)
	}
	return nil, nil
}

func (f *fakeBillRepo) Count(ctx context.Context, filter domain.BillFilter) (int64, error) {
	if f.countFn != nil {
		return f.countFn(ctx, filter)
	}
	return 0, nil
}

func (f *fakeBillRepo) Stats(ctx context.Context, shopkeeperID string, from, to *time.Time) (*domain.SalesStats, error) {
	if f.statsFn != nil {
		return f.statsFn(ctx, shopkeeperID, from, to)
	}
	return &domain.SalesStats{}, nil
}

type fakeSequence struct {
	next int64
}

func (f *fakeSequence) Next(_ context.Context, _ string) (int64, error) {
	f.next++
	return f.next, nil
}

type fakeSupplierRepo struct {
	createFn       func(context.Context, *domain.Supplier) error
	findByIDFn     func(context.Context, string, string) (*domain.Supplier, error)
	updateCreditFn func(context.Context, *domain.Supplier) error
}

func (f *fakeSupplierRepo) Create(ctx context.Context, supplier *domain.Supplier) error {
	if f.createFn != nil {
		return f.createFn(ctx, supplier)
	}
	return nil
}

func (f *fakeSupplierRepo) FindByID(ctx context.Context, shopkeeperID, supplierID string) (*domain.Supplier, error) {
	if f.findByIDFn != nil {
		return f.findByIDFn(ctx, shopkeeperID, supplierID)
	}
	return nil, nil
}

func (f *fakeSupplierRepo) UpdateCredit(ctx context.Context, supplier *domain.Supplier) error {
	if f.updateCreditFn != nil {
		return f.updateCreditFn(ctx, supplier)
	}
	return nil
}

// memoryKeys is an idempotency.KeyRepository keyed by scope and key
type memoryKeys struct {
	mu   sync.Mutex
	byID map[string]*idempotency.IdempotencyKey
}

func newMemoryKeys() *memoryKeys {
	return &memoryKeys{byID: map[string]*idempotency.IdempotencyKey{}}
}

func (m *memoryKeys) AcquireLock(_ context.Context, key *idempotency.IdempotencyKey) (*idempotency.IdempotencyKey, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.byID {
		if existing.Scope == key.Scope && existing.Key == key.Key {
			cp := *existing
			return &cp, false, nil
		}
	}
	cp := *key
	m.byID[key.ID] = &cp
	return key, true, nil
}

func (m *memoryKeys) ReleaseLock(_ context.Context, keyID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.byID, keyID)
	return nil
}

func (m *memoryKeys) StoreResponse(_ context.Context, keyID string, code int, body []byte, headers map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if k, ok := m.byID[keyID]; ok {
		now := time.Now()
		k.ResponseCode = code
		k.ResponseBody = append([]byte(nil), body...)
		k.ResponseHeaders = headers
		k.CompletedAt = &now
		k.LockedAt = nil
	}
	return nil
}
