package domain

// AdjustMode selects how an adjustment quantity is applied
type AdjustMode string

const (
	AdjustAdd      AdjustMode = "add"
	AdjustSubtract AdjustMode = "subtract"
	AdjustSet      AdjustMode = "set"
)

// IsValid checks if the adjustment mode is valid
func (m AdjustMode) IsValid() bool {
	switch m {
	case AdjustAdd, AdjustSubtract, AdjustSet:
		return true
	}
	return false
}

// PlanAdjustment returns the quantity p would hold after applying qty with
// mode. Subtracting more than is on hand fails with InsufficientStockError,
// and an adjustment that leaves the quantity unchanged is rejected because
// it cannot be recorded in the ledger.
func (p *Product) PlanAdjustment(mode AdjustMode, qty int64) (int64, error) {
	var next int64
	switch mode {
	case AdjustAdd:
		if qty <= 0 {
			return 0, NewValidationError("quantity", "must be greater than 0")
		}
		next = p.Quantity + qty
	case AdjustSubtract:
		if qty <= 0 {
			return 0, NewValidationError("quantity", "must be greater than 0")
		}
		if qty > p.Quantity {
			return 0, NewInsufficientStockError(p, qty)
		}
		next = p.Quantity - qty
	case AdjustSet:
		if qty < 0 {
			return 0, NewValidationError("quantity", "must not be negative")
		}
		next = qty
	default:
		return 0, NewValidationError("mode", "must be add, subtract or set")
	}

	if next == p.Quantity {
		return 0, NewValidationError("quantity", "adjustment does not change stock")
	}
	return next, nil
}
