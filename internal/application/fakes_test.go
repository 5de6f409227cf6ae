package application

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/muhammadanas59525/expiry-inventory-management-sub000/internal/domain"
	"github.com/muhammadanas59525/expiry-inventory-management-sub000/pkg/logging"
	"github.com/muhammadanas59525/expiry-inventory-management-sub000/pkg/metrics"
)

var errStorage = errors.New("storage unavailable")

// memStore is an in-memory database. Its unit of work snapshots every
// collection and restores the snapshot when fn fails.
type memStore struct {
	mu        sync.Mutex
	products  map[string]domain.Product
	ledger    []domain.StockLedgerEntry
	bills     map[string]domain.Bill
	sequences map[string]int64
	suppliers map[string]domain.Supplier
	events    []domain.DomainEvent

	// failures
	failAppendFor string
	casConflicts  int
	commits       int
	rollbacks     int
}

func newMemStore() *memStore {
	return &memStore{
		products:  make(map[string]domain.Product),
		bills:     make(map[string]domain.Bill),
		sequences: make(map[string]int64),
		suppliers: make(map[string]domain.Supplier),
	}
}

type memSnapshot struct {
	products  map[string]domain.Product
	ledger    []domain.StockLedgerEntry
	bills     map[string]domain.Bill
	sequences map[string]int64
	suppliers map[string]domain.Supplier
	events    []domain.DomainEvent
}

func (s *memStore) snapshot() memSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := memSnapshot{
		products:  make(map[string]domain.Product, len(s.products)),
		ledger:    append([]domain.StockLedgerEntry(nil), s.ledger...),
		bills:     make(map[string]domain.Bill, len(s.bills)),
		sequences: make(map[string]int64, len(s.sequences)),
		suppliers: make(map[string]domain.Supplier, len(s.suppliers)),
		events:    append([]domain.DomainEvent(nil), s.events...),
	}
	for k, v := range s.products {
		snap.products[k] = v
	}
	for k, v := range s.bills {
		v.Lines = append([]domain.BillLine(nil), v.Lines...)
		snap.bills[k] = v
	}
	for k, v := range s.sequences {
		snap.sequences[k] = v
	}
	for k, v := range s.suppliers {
		snap.suppliers[k] = v
	}
	return snap
}

func (s *memStore) restore(snap memSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products = snap.products
	s.ledger = snap.ledger
	s.bills = snap.bills
	s.sequences = snap.sequences
	s.suppliers = snap.suppliers
	s.events = snap.events
}

func (s *memStore) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	snap := s.snapshot()
	if err := fn(ctx); err != nil {
		s.restore(snap)
		s.mu.Lock()
		s.rollbacks++
		s.mu.Unlock()
		return err
	}
	s.mu.Lock()
	s.commits++
	s.mu.Unlock()
	return nil
}

func (s *memStore) stores(locker domain.StockLocker) Stores {
	return Stores{
		UnitOfWork: s,
		Products:   &memProducts{s},
		Ledger:     &memLedger{s},
		Bills:      &memBills{s},
		Sequence:   &memSequence{s},
		Suppliers:  &memSuppliers{s},
		Events:     &memEvents{s},
		Locker:     locker,
	}
}

func (s *memStore) product(id string) domain.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.products[id]
}

func (s *memStore) entriesFor(productID string) []domain.StockLedgerEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.StockLedgerEntry
	for _, e := range s.ledger {
		if e.ProductID == productID {
			out = append(out, e)
		}
	}
	return out
}

func (s *memStore) eventTypes() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.events))
	for _, e := range s.events {
		out = append(out, e.EventType())
	}
	return out
}

type memProducts struct{ s *memStore }

func (r *memProducts) Create(ctx context.Context, p *domain.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.products {
		if existing.ShopkeeperID == p.ShopkeeperID && existing.SKU == p.SKU {
			return domain.NewConflictError("sku", p.SKU)
		}
	}
	r.s.products[p.ID] = *p
	return nil
}

func (r *memProducts) FindByID(ctx context.Context, shopkeeperID, productID string) (*domain.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.products[productID]
	if !ok || p.ShopkeeperID != shopkeeperID {
		return nil, nil
	}
	return &p, nil
}

func (r *memProducts) list(shopkeeperID string, keep func(domain.Product) bool) []*domain.Product {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*domain.Product
	for _, p := range r.s.products {
		if p.ShopkeeperID == shopkeeperID && keep(p) {
			p := p
			out = append(out, &p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SKU < out[j].SKU })
	return out
}

func page[T any](items []T, pagination domain.Pagination) []T {
	start := int(pagination.Skip())
	if start >= len(items) {
		return nil
	}
	end := len(items)
	if pagination.Limit() > 0 && start+int(pagination.Limit()) < end {
		end = start + int(pagination.Limit())
	}
	return items[start:end]
}

func (r *memProducts) FindByShopkeeper(ctx context.Context, shopkeeperID string, pagination domain.Pagination) ([]*domain.Product, error) {
	return page(r.list(shopkeeperID, func(domain.Product) bool { return true }), pagination), nil
}

func (r *memProducts) FindLowStock(ctx context.Context, shopkeeperID string, pagination domain.Pagination) ([]*domain.Product, error) {
	return page(r.list(shopkeeperID, func(p domain.Product) bool { return p.IsLowStock() }), pagination), nil
}

func (r *memProducts) UpdateQuantity(ctx context.Context, shopkeeperID, productID string, expected, quantity int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.casConflicts > 0 {
		r.s.casConflicts--
		return domain.ErrConcurrentModification
	}
	p, ok := r.s.products[productID]
	if !ok || p.ShopkeeperID != shopkeeperID || p.Quantity != expected {
		return domain.ErrConcurrentModification
	}
	p.Quantity = quantity
	r.s.products[productID] = p
	return nil
}

func (r *memProducts) Delete(ctx context.Context, shopkeeperID, productID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.products[productID]
	if !ok || p.ShopkeeperID != shopkeeperID {
		return domain.NewNotFoundError("product", productID)
	}
	delete(r.s.products, productID)
	return nil
}

func (r *memProducts) Count(ctx context.Context, shopkeeperID string) (int64, error) {
	return int64(len(r.list(shopkeeperID, func(domain.Product) bool { return true }))), nil
}

func (r *memProducts) CountLowStock(ctx context.Context, shopkeeperID string) (int64, error) {
	return int64(len(r.list(shopkeeperID, func(p domain.Product) bool { return p.IsLowStock() }))), nil
}

type memLedger struct{ s *memStore }

func (r *memLedger) Append(ctx context.Context, entry *domain.StockLedgerEntry) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failAppendFor != "" && entry.ProductID == r.s.failAppendFor {
		return errStorage
	}
	r.s.ledger = append(r.s.ledger, *entry)
	return nil
}

func (r *memLedger) Latest(ctx context.Context, shopkeeperID, productID string) (*domain.StockLedgerEntry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i := len(r.s.ledger) - 1; i >= 0; i-- {
		e := r.s.ledger[i]
		if e.ProductID == productID && e.ShopkeeperID == shopkeeperID {
			return &e, nil
		}
	}
	return nil, nil
}

func (r *memLedger) StockValue(ctx context.Context, shopkeeperID string) (domain.Money, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	seen := make(map[string]bool)
	total := domain.Zero
	for i := len(r.s.ledger) - 1; i >= 0; i-- {
		e := r.s.ledger[i]
		if e.ShopkeeperID != shopkeeperID || seen[e.ProductID] {
			continue
		}
		seen[e.ProductID] = true
		total = total.Add(e.UnitCost.MulInt(e.QuantityAfter))
	}
	return total, nil
}

func (r *memLedger) matching(filter domain.LedgerFilter) []*domain.StockLedgerEntry {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*domain.StockLedgerEntry
	for i := len(r.s.ledger) - 1; i >= 0; i-- {
		e := r.s.ledger[i]
		switch {
		case e.ShopkeeperID != filter.ShopkeeperID:
		case filter.ProductID != nil && e.ProductID != *filter.ProductID:
		case filter.Type != nil && e.Type != *filter.Type:
		case filter.FromDate != nil && e.CreatedAt.Before(*filter.FromDate):
		case filter.ToDate != nil && e.CreatedAt.After(*filter.ToDate):
		default:
			out = append(out, &e)
		}
	}
	return out
}

func (r *memLedger) History(ctx context.Context, filter domain.LedgerFilter, pagination domain.Pagination) ([]*domain.StockLedgerEntry, error) {
	return page(r.matching(filter), pagination), nil
}

func (r *memLedger) Count(ctx context.Context, filter domain.LedgerFilter) (int64, error) {
	return int64(len(r.matching(filter))), nil
}

func (r *memLedger) MovementStats(ctx context.Context, shopkeeperID string, from, to *time.Time) ([]domain.MovementStat, error) {
	byType := make(map[domain.MovementType]*domain.MovementStat)
	for _, e := range r.matching(domain.LedgerFilter{ShopkeeperID: shopkeeperID, FromDate: from, ToDate: to}) {
		stat, ok := byType[e.Type]
		if !ok {
			stat = &domain.MovementStat{Type: e.Type}
			byType[e.Type] = stat
		}
		stat.Count++
		stat.Quantity += e.Quantity
		stat.TotalCost = stat.TotalCost.Add(e.TotalCost)
	}
	out := make([]domain.MovementStat, 0, len(byType))
	for _, stat := range byType {
		out = append(out, *stat)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Type < out[j].Type })
	return out, nil
}

func (r *memLedger) DeleteByProduct(ctx context.Context, shopkeeperID, productID string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	kept := r.s.ledger[:0:0]
	var removed int64
	for _, e := range r.s.ledger {
		if e.ProductID == productID && e.ShopkeeperID == shopkeeperID {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	r.s.ledger = kept
	return removed, nil
}

type memBills struct{ s *memStore }

func (r *memBills) Create(ctx context.Context, bill *domain.Bill) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, b := range r.s.bills {
		if b.BillNumber == bill.BillNumber {
			return domain.NewConflictError("billNumber", bill.BillNumber)
		}
	}
	b := *bill
	b.Lines = append([]domain.BillLine(nil), bill.Lines...)
	r.s.bills[b.ID] = b
	return nil
}

func (r *memBills) FindByID(ctx context.Context, shopkeeperID, billID string) (*domain.Bill, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b, ok := r.s.bills[billID]
	if !ok || b.ShopkeeperID != shopkeeperID {
		return nil, nil
	}
	b.Lines = append([]domain.BillLine(nil), b.Lines...)
	return &b, nil
}

func (r *memBills) UpdateStatus(ctx context.Context, bill *domain.Bill) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b, ok := r.s.bills[bill.ID]
	if !ok || b.ShopkeeperID != bill.ShopkeeperID {
		return domain.NewNotFoundError("bill", bill.ID)
	}
	b.Status = bill.Status
	b.PaymentStatus = bill.PaymentStatus
	b.TransactionID = bill.TransactionID
	b.CancelledAt = bill.CancelledAt
	b.UpdatedAt = bill.UpdatedAt
	r.s.bills[b.ID] = b
	return nil
}

func (r *memBills) matching(filter domain.BillFilter) []*domain.Bill {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*domain.Bill
	for _, b := range r.s.bills {
		switch {
		case b.ShopkeeperID != filter.ShopkeeperID:
		case filter.Status != nil && b.Status != *filter.Status:
		case filter.PaymentStatus != nil && b.PaymentStatus != *filter.PaymentStatus:
		case filter.FromDate != nil && b.CreatedAt.Before(*filter.FromDate):
		case filter.ToDate != nil && b.CreatedAt.After(*filter.ToDate):
		default:
			b := b
			out = append(out, &b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BillNumber > out[j].BillNumber })
	return out
}

func (r *memBills) Find(ctx context.Context, filter domain.BillFilter, pagination domain.Pagination) ([]*domain.Bill, error) {
	return page(r.matching(filter), pagination), nil
}

func (r *memBills) Count(ctx context.Context, filter domain.BillFilter) (int64, error) {
	return int64(len(r.matching(filter))), nil
}

func (r *memBills) Stats(ctx context.Context, shopkeeperID string, from, to *time.Time) (*domain.SalesStats, error) {
	stats := &domain.SalesStats{}
	byMethod := make(map[domain.PaymentMethod]*domain.PaymentMethodStat)
	for _, b := range r.matching(domain.BillFilter{ShopkeeperID: shopkeeperID, FromDate: from, ToDate: to}) {
		if b.Status == domain.BillStatusCancelled {
			continue
		}
		stats.BillCount++
		stats.TotalSales = stats.TotalSales.Add(b.GrandTotal)
		stats.TotalTax = stats.TotalTax.Add(b.TaxTotal)
		stats.TotalDiscount = stats.TotalDiscount.Add(b.DiscountTotal)
		stats.ItemsSold += b.ItemCount()

		m, ok := byMethod[b.PaymentMethod]
		if !ok {
			m = &domain.PaymentMethodStat{Method: b.PaymentMethod}
			byMethod[b.PaymentMethod] = m
		}
		m.Count++
		m.Total = m.Total.Add(b.GrandTotal)
	}
	stats.AverageBill = stats.TotalSales.DivInt(stats.BillCount)
	for _, m := range byMethod {
		stats.ByPaymentMethod = append(stats.ByPaymentMethod, *m)
	}
	return stats, nil
}

type memSequence struct{ s *memStore }

func (r *memSequence) Next(ctx context.Context, period string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.sequences[period]++
	return r.s.sequences[period], nil
}

type memSuppliers struct{ s *memStore }

func (r *memSuppliers) Create(ctx context.Context, supplier *domain.Supplier) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.suppliers[supplier.ID] = *supplier
	return nil
}

func (r *memSuppliers) FindByID(ctx context.Context, shopkeeperID, supplierID string) (*domain.Supplier, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sup, ok := r.s.suppliers[supplierID]
	if !ok || sup.ShopkeeperID != shopkeeperID {
		return nil, nil
	}
	return &sup, nil
}

func (r *memSuppliers) UpdateCredit(ctx context.Context, supplier *domain.Supplier) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.suppliers[supplier.ID] = *supplier
	return nil
}

type memEvents struct{ s *memStore }

func (r *memEvents) Publish(ctx context.Context, events ...domain.DomainEvent) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.events = append(r.s.events, events...)
	return nil
}

// fakeLocker records lock calls and fails the first failures of them
type fakeLocker struct {
	mu       sync.Mutex
	calls    [][]string
	failures int
	released int
}

func (l *fakeLocker) Lock(ctx context.Context, shopkeeperID string, productIDs ...string) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, append([]string(nil), productIDs...))
	if l.failures > 0 {
		l.failures--
		return nil, &domain.TransactionFailure{Op: "stock.lock", Err: domain.ErrConcurrentModification}
	}
	return func() {
		l.mu.Lock()
		l.released++
		l.mu.Unlock()
	}, nil
}

type testEnv struct {
	store       *memStore
	locker      *fakeLocker
	metrics     *metrics.Metrics
	products    *ProductService
	ledger      *LedgerService
	billing     *BillingService
	adjustments *AdjustmentService
	reports     *ReportingService
	suppliers   *SupplierService
}

const shop = "shop-1"

func newTestEnv() *testEnv {
	store := newMemStore()
	locker := &fakeLocker{}
	m := metrics.New(metrics.DefaultConfig("exims-test"))
	logger := logging.NewNop()
	stores := store.stores(locker)

	return &testEnv{
		store:       store,
		locker:      locker,
		metrics:     m,
		products:    NewProductService(stores, m, logger),
		ledger:      NewLedgerService(stores, m, logger),
		billing:     NewBillingService(stores, m, logger),
		adjustments: NewAdjustmentService(stores, m, logger),
		reports:     NewReportingService(stores.Products, stores.Ledger),
		suppliers:   NewSupplierService(store, stores.Suppliers, stores.Events, logger),
	}
}
