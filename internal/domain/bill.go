package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// BillStatus represents the lifecycle state of a bill
type BillStatus string

const (
	BillStatusDraft     BillStatus = "draft"
	BillStatusIssued    BillStatus = "issued"
	BillStatusPaid      BillStatus = "paid"
	BillStatusCancelled BillStatus = "cancelled"
	BillStatusRefunded  BillStatus = "refunded"
)

// IsValid checks if the bill status is valid
func (s BillStatus) IsValid() bool {
	switch s {
	case BillStatusDraft, BillStatusIssued, BillStatusPaid, BillStatusCancelled, BillStatusRefunded:
		return true
	}
	return false
}

// PaymentMethod represents how a bill is settled
type PaymentMethod string

const (
	PaymentCash       PaymentMethod = "cash"
	PaymentCard       PaymentMethod = "card"
	PaymentUPI        PaymentMethod = "upi"
	PaymentNetbanking PaymentMethod = "netbanking"
	PaymentOther      PaymentMethod = "other"
)

// IsValid checks if the payment method is valid
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentCash, PaymentCard, PaymentUPI, PaymentNetbanking, PaymentOther:
		return true
	}
	return false
}

// PaymentStatus represents the settlement state of a bill
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
	PaymentRefunded  PaymentStatus = "refunded"
)

// IsValid checks if the payment status is valid
func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentPending, PaymentCompleted, PaymentFailed, PaymentRefunded:
		return true
	}
	return false
}

// Customer is the buyer snapshot stored on a bill
type Customer struct {
	Name       string `bson:"name" json:"name"`
	Email      string `bson:"email,omitempty" json:"email,omitempty"`
	Phone      string `bson:"phone,omitempty" json:"phone,omitempty"`
	Address    string `bson:"address,omitempty" json:"address,omitempty"`
	CustomerID string `bson:"customerId,omitempty" json:"customerId,omitempty"`
}

// BillLine is one priced line of a bill. Price and tax rate are copied from
// the product at the time of sale.
type BillLine struct {
	ProductID string  `bson:"productId" json:"productId"`
	SKU       string  `bson:"sku" json:"sku"`
	Name      string  `bson:"name" json:"name"`
	Quantity  int64   `bson:"quantity" json:"quantity"`
	UnitPrice Money   `bson:"unitPrice" json:"unitPrice"`
	TaxRate   float64 `bson:"taxRate" json:"taxRate"`
	Tax       Money   `bson:"tax" json:"tax"`
	Discount  Money   `bson:"discount" json:"discount"`
	Subtotal  Money   `bson:"subtotal" json:"subtotal"`
}

// NewBillLine prices qty units of p
func NewBillLine(p *Product, qty int64, discount Money) (BillLine, error) {
	if qty < 1 {
		return BillLine{}, NewValidationError("quantity", "must be at least 1")
	}
	if discount.IsNegative() {
		return BillLine{}, NewValidationError("discount", "must not be negative")
	}

	subtotal := p.Price.MulInt(qty)
	tax := subtotal.Percent(p.TaxRate)
	if discount.GreaterThan(subtotal.Add(tax)) {
		return BillLine{}, NewValidationError("discount", fmt.Sprintf("exceeds line total for product %s", p.ID))
	}

	return BillLine{
		ProductID: p.ID,
		SKU:       p.SKU,
		Name:      p.Name,
		Quantity:  qty,
		UnitPrice: p.Price,
		TaxRate:   p.TaxRate,
		Tax:       tax,
		Discount:  discount,
		Subtotal:  subtotal,
	}, nil
}

// Total is subtotal plus tax minus discount
func (l BillLine) Total() Money {
	return l.Subtotal.Add(l.Tax).Sub(l.Discount)
}

// BillTotals are the sums derived from a bill's lines
type BillTotals struct {
	Subtotal      Money `bson:"subtotal" json:"subtotal"`
	TaxTotal      Money `bson:"taxTotal" json:"taxTotal"`
	DiscountTotal Money `bson:"discountTotal" json:"discountTotal"`
	GrandTotal    Money `bson:"grandTotal" json:"grandTotal"`
}

// ComputeTotals sums lines into bill totals
func ComputeTotals(lines []BillLine) BillTotals {
	var t BillTotals
	for _, l := range lines {
		t.Subtotal = t.Subtotal.Add(l.Subtotal)
		t.TaxTotal = t.TaxTotal.Add(l.Tax)
		t.DiscountTotal = t.DiscountTotal.Add(l.Discount)
	}
	t.GrandTotal = t.Subtotal.Add(t.TaxTotal).Sub(t.DiscountTotal)
	return t
}

// Bill is one checkout transaction
type Bill struct {
	ID            string        `bson:"_id" json:"id"`
	BillNumber    string        `bson:"billNumber" json:"billNumber"`
	ShopkeeperID  string        `bson:"shopkeeperId" json:"shopkeeperId"`
	Customer      Customer      `bson:"customer" json:"customer"`
	Lines         []BillLine    `bson:"lines" json:"lines"`
	BillTotals    `bson:",inline"`
	Status        BillStatus    `bson:"status" json:"status"`
	PaymentMethod PaymentMethod `bson:"paymentMethod" json:"paymentMethod"`
	PaymentStatus PaymentStatus `bson:"paymentStatus" json:"paymentStatus"`
	TransactionID string        `bson:"transactionId,omitempty" json:"transactionId,omitempty"`
	Notes         string        `bson:"notes,omitempty" json:"notes,omitempty"`
	DueDate       *time.Time    `bson:"dueDate,omitempty" json:"dueDate,omitempty"`
	CancelledAt   *time.Time    `bson:"cancelledAt,omitempty" json:"cancelledAt,omitempty"`
	CreatedAt     time.Time     `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time     `bson:"updatedAt" json:"updatedAt"`
}

// NewBillParams carries everything needed to issue a bill
type NewBillParams struct {
	// ID is generated when empty
	ID            string
	ShopkeeperID  string
	BillNumber    string
	Customer      Customer
	Lines         []BillLine
	PaymentMethod PaymentMethod
	Notes         string
	DueDate       *time.Time
}

// NewBill validates the header fields and issues a bill with totals computed
// from its lines.
func NewBill(p NewBillParams, now time.Time) (*Bill, error) {
	p.Customer.Name = strings.TrimSpace(p.Customer.Name)
	switch {
	case p.ShopkeeperID == "":
		return nil, NewValidationError("shopkeeperId", "is required")
	case p.Customer.Name == "":
		return nil, NewValidationError("customer.name", "is required")
	case len(p.Lines) == 0:
		return nil, NewValidationError("items", "at least one item is required")
	case !p.PaymentMethod.IsValid():
		return nil, NewValidationError("paymentMethod", "unknown payment method "+string(p.PaymentMethod))
	}

	id := p.ID
	if id == "" {
		id = uuid.New().String()
	}

	return &Bill{
		ID:            id,
		BillNumber:    p.BillNumber,
		ShopkeeperID:  p.ShopkeeperID,
		Customer:      p.Customer,
		Lines:         p.Lines,
		BillTotals:    ComputeTotals(p.Lines),
		Status:        BillStatusIssued,
		PaymentMethod: p.PaymentMethod,
		PaymentStatus: PaymentPending,
		Notes:         p.Notes,
		DueDate:       p.DueDate,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// TotalsReconcile reports whether stored totals match the lines
func (b *Bill) TotalsReconcile() bool {
	t := ComputeTotals(b.Lines)
	return t.Subtotal.Equal(b.Subtotal) &&
		t.TaxTotal.Equal(b.TaxTotal) &&
		t.DiscountTotal.Equal(b.DiscountTotal) &&
		t.GrandTotal.Equal(b.GrandTotal)
}

// ItemCount is the number of units sold on the bill
func (b *Bill) ItemCount() int64 {
	var n int64
	for _, l := range b.Lines {
		n += l.Quantity
	}
	return n
}

// StatusChange is the outcome of ApplyStatus
type StatusChange struct {
	From    BillStatus
	To      BillStatus
	Changed bool
	// Restock is set when the stock of every line must be returned
	Restock bool
}

// ApplyStatus moves the bill to status. Cancelled is terminal; cancelling a
// cancelled bill is a no-op.
func (b *Bill) ApplyStatus(status BillStatus, paymentStatus *PaymentStatus, transactionID string, now time.Time) (StatusChange, error) {
	change := StatusChange{From: b.Status, To: status}

	if !status.IsValid() {
		return change, NewValidationError("status", "unknown bill status "+string(status))
	}
	if paymentStatus != nil && !paymentStatus.IsValid() {
		return change, NewValidationError("paymentStatus", "unknown payment status "+string(*paymentStatus))
	}

	if b.Status == BillStatusCancelled {
		if status == BillStatusCancelled {
			return change, nil
		}
		return change, NewValidationError("status", "a cancelled bill cannot change status")
	}

	switch {
	case paymentStatus != nil:
		b.PaymentStatus = *paymentStatus
	case status == BillStatusPaid:
		b.PaymentStatus = PaymentCompleted
	case status == BillStatusRefunded:
		b.PaymentStatus = PaymentRefunded
	}
	if transactionID != "" {
		b.TransactionID = transactionID
	}

	if status == BillStatusCancelled {
		change.Restock = true
		b.CancelledAt = &now
	}
	b.Status = status
	b.UpdatedAt = now
	change.Changed = true
	return change, nil
}

// BillPeriod is the YYMM key bill numbers are sequenced by
func BillPeriod(t time.Time) string {
	return t.UTC().Format("0601")
}

// FormatBillNumber renders BILL-YYMM-NNNN
func FormatBillNumber(period string, seq int64) string {
	return fmt.Sprintf("BILL-%s-%04d", period, seq)
}
