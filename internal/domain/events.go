package domain

import (
	"time"

	"github.com/muhammadanas59525/expiry-inventory-management-sub000/pkg/cloudevents"
)

// DomainEvent is the base interface for all domain events
type DomainEvent interface {
	EventType() string
	AggregateID() string
	AggregateType() string
	OccurredAt() time.Time
}

// StockMovedEvent is emitted for every ledger entry
type StockMovedEvent struct {
	EntryID        string       `json:"entryId"`
	ProductID      string       `json:"productId"`
	ShopkeeperID   string       `json:"shopkeeperId"`
	Type           MovementType `json:"type"`
	Quantity       int64        `json:"quantity"`
	QuantityBefore int64        `json:"quantityBefore"`
	QuantityAfter  int64        `json:"quantityAfter"`
	Reference      string       `json:"reference,omitempty"`
	MovedAt        time.Time    `json:"movedAt"`
}

func (e *StockMovedEvent) EventType() string     { return cloudevents.StockMoved }
func (e *StockMovedEvent) AggregateID() string   { return e.ProductID }
func (e *StockMovedEvent) AggregateType() string { return "Product" }
func (e *StockMovedEvent) OccurredAt() time.Time { return e.MovedAt }

// NewStockMovedEvent describes entry
func NewStockMovedEvent(entry *StockLedgerEntry) *StockMovedEvent {
	return &StockMovedEvent{
		EntryID:        entry.ID,
		ProductID:      entry.ProductID,
		ShopkeeperID:   entry.ShopkeeperID,
		Type:           entry.Type,
		Quantity:       entry.Quantity,
		QuantityBefore: entry.QuantityBefore,
		QuantityAfter:  entry.QuantityAfter,
		Reference:      entry.Reference,
		MovedAt:        entry.CreatedAt,
	}
}

// StockAdjustedEvent is emitted for a manual correction
type StockAdjustedEvent struct {
	ProductID   string    `json:"productId"`
	Mode        string    `json:"mode"`
	OldQuantity int64     `json:"oldQuantity"`
	NewQuantity int64     `json:"newQuantity"`
	AdjustedAt  time.Time `json:"adjustedAt"`
}

func (e *StockAdjustedEvent) EventType() string     { return cloudevents.StockAdjusted }
func (e *StockAdjustedEvent) AggregateID() string   { return e.ProductID }
func (e *StockAdjustedEvent) AggregateType() string { return "Product" }
func (e *StockAdjustedEvent) OccurredAt() time.Time { return e.AdjustedAt }

// LowStockAlertEvent is emitted when a deduction leaves a product at or below its threshold
type LowStockAlertEvent struct {
	ProductID string    `json:"productId"`
	SKU       string    `json:"sku"`
	Quantity  int64     `json:"quantity"`
	Threshold int64     `json:"threshold"`
	RaisedAt  time.Time `json:"raisedAt"`
}

func (e *LowStockAlertEvent) EventType() string     { return cloudevents.LowStockAlert }
func (e *LowStockAlertEvent) AggregateID() string   { return e.ProductID }
func (e *LowStockAlertEvent) AggregateType() string { return "Product" }
func (e *LowStockAlertEvent) OccurredAt() time.Time { return e.RaisedAt }

// ProductCreatedEvent is emitted when a product is added to a catalog
type ProductCreatedEvent struct {
	ProductID string    `json:"productId"`
	SKU       string    `json:"sku"`
	Quantity  int64     `json:"quantity"`
	CreatedAt time.Time `json:"createdAt"`
}

func (e *ProductCreatedEvent) EventType() string     { return cloudevents.ProductCreated }
func (e *ProductCreatedEvent) AggregateID() string   { return e.ProductID }
func (e *ProductCreatedEvent) AggregateType() string { return "Product" }
func (e *ProductCreatedEvent) OccurredAt() time.Time { return e.CreatedAt }

// ProductDeletedEvent is emitted when a product and its ledger history are removed
type ProductDeletedEvent struct {
	ProductID     string    `json:"productId"`
	SKU           string    `json:"sku"`
	LedgerEntries int64     `json:"ledgerEntriesRemoved"`
	DeletedAt     time.Time `json:"deletedAt"`
}

func (e *ProductDeletedEvent) EventType() string     { return cloudevents.ProductDeleted }
func (e *ProductDeletedEvent) AggregateID() string   { return e.ProductID }
func (e *ProductDeletedEvent) AggregateType() string { return "Product" }
func (e *ProductDeletedEvent) OccurredAt() time.Time { return e.DeletedAt }

// BillIssuedEvent is emitted when a bill is created
type BillIssuedEvent struct {
	BillID        string        `json:"billId"`
	BillNumber    string        `json:"billNumber"`
	GrandTotal    Money         `json:"grandTotal"`
	ItemCount     int64         `json:"itemCount"`
	PaymentMethod PaymentMethod `json:"paymentMethod"`
	IssuedAt      time.Time     `json:"issuedAt"`
}

func (e *BillIssuedEvent) EventType() string     { return cloudevents.BillIssued }
func (e *BillIssuedEvent) AggregateID() string   { return e.BillID }
func (e *BillIssuedEvent) AggregateType() string { return "Bill" }
func (e *BillIssuedEvent) OccurredAt() time.Time { return e.IssuedAt }

// BillStatusChangedEvent is emitted on every effective status change
type BillStatusChangedEvent struct {
	BillID        string        `json:"billId"`
	BillNumber    string        `json:"billNumber"`
	From          BillStatus    `json:"from"`
	To            BillStatus    `json:"to"`
	PaymentStatus PaymentStatus `json:"paymentStatus"`
	ChangedAt     time.Time     `json:"changedAt"`
}

func (e *BillStatusChangedEvent) EventType() string     { return cloudevents.BillStatusChanged }
func (e *BillStatusChangedEvent) AggregateID() string   { return e.BillID }
func (e *BillStatusChangedEvent) AggregateType() string { return "Bill" }
func (e *BillStatusChangedEvent) OccurredAt() time.Time { return e.ChangedAt }

// BillCancelledEvent is emitted after a cancellation restored stock
type BillCancelledEvent struct {
	BillID        string    `json:"billId"`
	BillNumber    string    `json:"billNumber"`
	RestoredUnits int64     `json:"restoredUnits"`
	CancelledAt   time.Time `json:"cancelledAt"`
}

func (e *BillCancelledEvent) EventType() string     { return cloudevents.BillCancelled }
func (e *BillCancelledEvent) AggregateID() string   { return e.BillID }
func (e *BillCancelledEvent) AggregateType() string { return "Bill" }
func (e *BillCancelledEvent) OccurredAt() time.Time { return e.CancelledAt }

// SupplierCreditAdjustedEvent is emitted when supplier credit changes
type SupplierCreditAdjustedEvent struct {
	SupplierID    string          `json:"supplierId"`
	Operation     CreditOperation `json:"operation"`
	Amount        Money           `json:"amount"`
	CurrentCredit Money           `json:"currentCredit"`
	AdjustedAt    time.Time       `json:"adjustedAt"`
}

func (e *SupplierCreditAdjustedEvent) EventType() string     { return cloudevents.SupplierCreditAdjusted }
func (e *SupplierCreditAdjustedEvent) AggregateID() string   { return e.SupplierID }
func (e *SupplierCreditAdjustedEvent) AggregateType() string { return "Supplier" }
func (e *SupplierCreditAdjustedEvent) OccurredAt() time.Time { return e.AdjustedAt }
