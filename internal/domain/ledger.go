package domain

import (
	"time"

	"github.com/google/uuid"
)

// MovementType classifies a stock ledger entry
type MovementType string

const (
	MovementPurchase   MovementType = "purchase"
	MovementSale       MovementType = "sale"
	MovementReturn     MovementType = "return"
	MovementAdjustment MovementType = "adjustment"
	MovementDamaged    MovementType = "damaged"
	MovementExpired    MovementType = "expired"
)

// IsValid checks if the movement type is valid
func (t MovementType) IsValid() bool {
	switch t {
	case MovementPurchase, MovementSale, MovementReturn, MovementAdjustment, MovementDamaged, MovementExpired:
		return true
	}
	return false
}

// Sign is +1 for stock-in types, -1 for stock-out types and 0 for
// adjustments, which may go either way.
func (t MovementType) Sign() int {
	switch t {
	case MovementPurchase, MovementReturn:
		return 1
	case MovementSale, MovementDamaged, MovementExpired:
		return -1
	}
	return 0
}

// Reference types recorded on ledger entries
const (
	ReferenceBill       = "bill"
	ReferenceAdjustment = "adjustment"
	ReferenceProduct    = "product"
	ReferenceManual     = "manual"
)

// BillCancelledReference is the reference text of restoring entries
const BillCancelledReference = "bill cancelled"

// Batch describes the lot a movement belongs to
type Batch struct {
	Number          string     `bson:"number,omitempty" json:"number,omitempty"`
	ManufactureDate *time.Time `bson:"manufactureDate,omitempty" json:"manufactureDate,omitempty"`
	ExpiryDate      *time.Time `bson:"expiryDate,omitempty" json:"expiryDate,omitempty"`
}

// Validate checks the batch dates
func (b *Batch) Validate() error {
	if b == nil {
		return nil
	}
	if b.ManufactureDate != nil && b.ExpiryDate != nil && !b.ExpiryDate.After(*b.ManufactureDate) {
		return NewValidationError("batch.expiryDate", "expiry date must be after manufacture date")
	}
	return nil
}

// StockLedgerEntry is an immutable record of one stock-affecting event
type StockLedgerEntry struct {
	ID             string       `bson:"_id" json:"id"`
	ProductID      string       `bson:"productId" json:"productId"`
	ShopkeeperID   string       `bson:"shopkeeperId" json:"shopkeeperId"`
	Type           MovementType `bson:"type" json:"type"`
	Quantity       int64        `bson:"quantity" json:"quantity"`
	QuantityBefore int64        `bson:"quantityBefore" json:"quantityBefore"`
	QuantityAfter  int64        `bson:"quantityAfter" json:"quantityAfter"`
	UnitCost       Money        `bson:"unitCost" json:"unitCost"`
	TotalCost      Money        `bson:"totalCost" json:"totalCost"`
	Reference      string       `bson:"reference,omitempty" json:"reference,omitempty"`
	ReferenceType  string       `bson:"referenceType,omitempty" json:"referenceType,omitempty"`
	Batch          *Batch       `bson:"batch,omitempty" json:"batch,omitempty"`
	Location       string       `bson:"location,omitempty" json:"location,omitempty"`
	Notes          string       `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt      time.Time    `bson:"createdAt" json:"createdAt"`
}

// LedgerEntryParams describes a movement before it is recorded
type LedgerEntryParams struct {
	ProductID      string
	ShopkeeperID   string
	Type           MovementType
	QuantityBefore int64
	// Delta is the signed change in stock
	Delta         int64
	UnitCost      Money
	Reference     string
	ReferenceType string
	Batch         *Batch
	Location      string
	Notes         string
}

// NewLedgerEntry validates a movement and builds its entry. The sign of Delta
// must match the movement type and the resulting quantity may not be negative.
func NewLedgerEntry(p LedgerEntryParams, now time.Time) (*StockLedgerEntry, error) {
	if p.ProductID == "" {
		return nil, NewValidationError("productId", "is required")
	}
	if p.ShopkeeperID == "" {
		return nil, NewValidationError("shopkeeperId", "is required")
	}
	if !p.Type.IsValid() {
		return nil, NewValidationError("type", "unknown movement type "+string(p.Type))
	}
	if p.Delta == 0 {
		return nil, NewValidationError("quantity", "must be greater than 0")
	}
	if sign := p.Type.Sign(); sign != 0 && (p.Delta > 0) != (sign > 0) {
		return nil, NewValidationError("quantity", "direction does not match movement type "+string(p.Type))
	}
	if p.QuantityBefore < 0 {
		return nil, NewValidationError("quantityBefore", "must not be negative")
	}
	after := p.QuantityBefore + p.Delta
	if after < 0 {
		return nil, NewValidationError("quantity", "resulting stock would be negative")
	}
	if p.UnitCost.IsNegative() {
		return nil, NewValidationError("unitCost", "must not be negative")
	}
	if err := p.Batch.Validate(); err != nil {
		return nil, err
	}

	qty := p.Delta
	if qty < 0 {
		qty = -qty
	}

	return &StockLedgerEntry{
		// v7 ids sort by creation, breaking createdAt ties between entries of one transaction
		ID:             uuid.Must(uuid.NewV7()).String(),
		ProductID:      p.ProductID,
		ShopkeeperID:   p.ShopkeeperID,
		Type:           p.Type,
		Quantity:       qty,
		QuantityBefore: p.QuantityBefore,
		QuantityAfter:  after,
		UnitCost:       p.UnitCost,
		TotalCost:      p.UnitCost.MulInt(qty),
		Reference:      p.Reference,
		ReferenceType:  p.ReferenceType,
		Batch:          p.Batch,
		Location:       p.Location,
		Notes:          p.Notes,
		CreatedAt:      now,
	}, nil
}

// SignedQuantity is the stock change the entry recorded
func (e *StockLedgerEntry) SignedQuantity() int64 {
	return e.QuantityAfter - e.QuantityBefore
}

// IsConsistent checks quantity-after against quantity-before and the type's sign
func (e *StockLedgerEntry) IsConsistent() bool {
	if e.Quantity <= 0 || e.QuantityAfter < 0 {
		return false
	}
	delta := e.SignedQuantity()
	switch e.Type.Sign() {
	case 1:
		return delta == e.Quantity
	case -1:
		return delta == -e.Quantity
	default:
		return delta == e.Quantity || delta == -e.Quantity
	}
}
