package domain

import (
	"context"
	"math"
	"time"
)

// UnitOfWork runs fn atomically. Repositories called with the context passed
// to fn take part in the same transaction; if fn returns an error every write
// is rolled back and that error is returned.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

// StockLocker serializes stock mutations per product across processes.
// The returned release func must always be called.
type StockLocker interface {
	Lock(ctx context.Context, shopkeeperID string, productIDs ...string) (release func(), err error)
}

// EventPublisher records domain events with the surrounding transaction
type EventPublisher interface {
	Publish(ctx context.Context, events ...DomainEvent) error
}

// ProductRepository defines the interface for product persistence
type ProductRepository interface {
	// Create persists a product, failing with ConflictError on a duplicate SKU or barcode
	Create(ctx context.Context, product *Product) error

	// FindByID retrieves a shopkeeper's product; nil when absent
	FindByID(ctx context.Context, shopkeeperID, productID string) (*Product, error)

	// FindByShopkeeper lists products by SKU
	FindByShopkeeper(ctx context.Context, shopkeeperID string, pagination Pagination) ([]*Product, error)

	// FindLowStock lists products whose quantity is at or below their threshold
	FindLowStock(ctx context.Context, shopkeeperID string, pagination Pagination) ([]*Product, error)

	// UpdateQuantity sets quantity only if it still equals expected,
	// otherwise returns ErrConcurrentModification
	UpdateQuantity(ctx context.Context, shopkeeperID, productID string, expected, quantity int64) error

	// Delete removes the product
	Delete(ctx context.Context, shopkeeperID, productID string) error

	// Count returns the number of products owned by the shopkeeper
	Count(ctx context.Context, shopkeeperID string) (int64, error)

	// CountLowStock returns the number of low-stock products
	CountLowStock(ctx context.Context, shopkeeperID string) (int64, error)
}

// LedgerRepository defines the interface for the append-only stock ledger
type LedgerRepository interface {
	// Append persists a new entry. Entries are never updated.
	Append(ctx context.Context, entry *StockLedgerEntry) error

	// Latest returns the most recent entry for a product; nil when none exist
	Latest(ctx context.Context, shopkeeperID, productID string) (*StockLedgerEntry, error)

	// StockValue sums quantity-after times unit cost over each product's latest entry
	StockValue(ctx context.Context, shopkeeperID string) (Money, error)

	// History lists entries newest first
	History(ctx context.Context, filter LedgerFilter, pagination Pagination) ([]*StockLedgerEntry, error)

	// Count returns the number of entries matching filter
	Count(ctx context.Context, filter LedgerFilter) (int64, error)

	// MovementStats groups entries by movement type
	MovementStats(ctx context.Context, shopkeeperID string, from, to *time.Time) ([]MovementStat, error)

	// DeleteByProduct removes a product's history and returns how many entries went
	DeleteByProduct(ctx context.Context, shopkeeperID, productID string) (int64, error)
}

// BillRepository defines the interface for bill persistence
type BillRepository interface {
	// Create persists a new bill
	Create(ctx context.Context, bill *Bill) error

	// FindByID retrieves a shopkeeper's bill; nil when absent
	FindByID(ctx context.Context, shopkeeperID, billID string) (*Bill, error)

	// UpdateStatus writes the status, payment fields and timestamps of bill
	UpdateStatus(ctx context.Context, bill *Bill) error

	// Find lists bills newest first
	Find(ctx context.Context, filter BillFilter, pagination Pagination) ([]*Bill, error)

	// Count returns the number of bills matching filter
	Count(ctx context.Context, filter BillFilter) (int64, error)

	// Stats aggregates non-cancelled bills in range
	Stats(ctx context.Context, shopkeeperID string, from, to *time.Time) (*SalesStats, error)
}

// BillSequence hands out bill numbers
type BillSequence interface {
	// Next returns the next value of the counter for period, starting at 1
	Next(ctx context.Context, period string) (int64, error)
}

// SupplierRepository defines the interface for supplier persistence
type SupplierRepository interface {
	Create(ctx context.Context, supplier *Supplier) error
	FindByID(ctx context.Context, shopkeeperID, supplierID string) (*Supplier, error)
	UpdateCredit(ctx context.Context, supplier *Supplier) error
}

// Pagination represents pagination options
type Pagination struct {
	Page     int64
	PageSize int64
}

// DefaultPagination returns default pagination options
func DefaultPagination() Pagination {
	return Pagination{
		Page:     1,
		PageSize: 20,
	}
}

// Skip returns the number of documents to skip. It saturates at
// math.MaxInt64 instead of overflowing.
func (p Pagination) Skip() int64 {
	if p.Page < 1 || p.PageSize < 1 {
		return 0
	}
	if p.Page-1 > math.MaxInt64/p.PageSize {
		return math.MaxInt64
	}
	return (p.Page - 1) * p.PageSize
}

// Limit returns the maximum number of documents to return
func (p Pagination) Limit() int64 {
	return p.PageSize
}

// LedgerFilter represents filter options for querying ledger entries
type LedgerFilter struct {
	ShopkeeperID string
	ProductID    *string
	Type         *MovementType
	FromDate     *time.Time
	ToDate       *time.Time
}

// BillFilter represents filter options for querying bills
type BillFilter struct {
	ShopkeeperID  string
	Status        *BillStatus
	PaymentStatus *PaymentStatus
	FromDate      *time.Time
	ToDate        *time.Time
}

// MovementStat is one row of the movement breakdown
type MovementStat struct {
	Type      MovementType `bson:"_id" json:"type"`
	Count     int64        `bson:"count" json:"count"`
	Quantity  int64        `bson:"quantity" json:"quantity"`
	TotalCost Money        `bson:"totalCost" json:"totalCost"`
}

// PaymentMethodStat is one row of the payment method breakdown
type PaymentMethodStat struct {
	Method PaymentMethod `bson:"_id" json:"method"`
	Count  int64         `bson:"count" json:"count"`
	Total  Money         `bson:"total" json:"total"`
}

// SalesStats aggregates non-cancelled bills
type SalesStats struct {
	TotalSales      Money               `bson:"totalSales" json:"totalSales"`
	TotalTax        Money               `bson:"totalTax" json:"totalTax"`
	TotalDiscount   Money               `bson:"totalDiscount" json:"totalDiscount"`
	AverageBill     Money               `bson:"averageBill" json:"averageBill"`
	BillCount       int64               `bson:"billCount" json:"billCount"`
	ItemsSold       int64               `bson:"itemsSold" json:"itemsSold"`
	ByPaymentMethod []PaymentMethodStat `bson:"byPaymentMethod" json:"byPaymentMethod"`
}

// InventorySummary counts products and movements
type InventorySummary struct {
	Products   int64 `json:"products"`
	LowStock   int64 `json:"lowStock"`
	Movements  int64 `json:"movements"`
	StockValue Money `json:"stockValue"`
}
