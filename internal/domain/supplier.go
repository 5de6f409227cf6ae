package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Supplier tracks the credit a shopkeeper has drawn from a vendor
type Supplier struct {
	ID            string    `bson:"_id" json:"id"`
	ShopkeeperID  string    `bson:"shopkeeperId" json:"shopkeeperId"`
	Name          string    `bson:"name" json:"name"`
	Email         string    `bson:"email,omitempty" json:"email,omitempty"`
	Phone         string    `bson:"phone,omitempty" json:"phone,omitempty"`
	CreditLimit   Money     `bson:"creditLimit" json:"creditLimit"`
	CurrentCredit Money     `bson:"currentCredit" json:"currentCredit"`
	CreatedAt     time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time `bson:"updatedAt" json:"updatedAt"`
}

// CreditOperation is the direction of a credit adjustment
type CreditOperation string

const (
	CreditIncrease CreditOperation = "increase"
	CreditDecrease CreditOperation = "decrease"
)

// NewSupplier validates and creates a supplier with no credit drawn
func NewSupplier(shopkeeperID, name, email, phone string, creditLimit Money, now time.Time) (*Supplier, error) {
	name = strings.TrimSpace(name)
	if shopkeeperID == "" {
		return nil, NewValidationError("shopkeeperId", "is required")
	}
	if name == "" {
		return nil, NewValidationError("name", "is required")
	}
	if creditLimit.IsNegative() {
		return nil, NewValidationError("creditLimit", "must not be negative")
	}
	return &Supplier{
		ID:            uuid.New().String(),
		ShopkeeperID:  shopkeeperID,
		Name:          name,
		Email:         strings.TrimSpace(email),
		Phone:         strings.TrimSpace(phone),
		CreditLimit:   creditLimit,
		CurrentCredit: Zero,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// AvailableCredit is limit minus current credit
func (s *Supplier) AvailableCredit() Money {
	return s.CreditLimit.Sub(s.CurrentCredit)
}

// AdjustCredit applies an increase or decrease. Decreases clamp at zero.
func (s *Supplier) AdjustCredit(op CreditOperation, amount Money, now time.Time) error {
	if !amount.IsPositive() {
		return NewValidationError("amount", "must be greater than 0")
	}
	switch op {
	case CreditIncrease:
		s.CurrentCredit = s.CurrentCredit.Add(amount)
	case CreditDecrease:
		s.CurrentCredit = s.CurrentCredit.Sub(amount).Max(Zero)
	default:
		return NewValidationError("operation", "must be increase or decrease")
	}
	s.UpdatedAt = now
	return nil
}
