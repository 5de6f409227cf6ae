package application

import (
	"time"

	"github.com/muhammadanas59525/expiry-inventory-management-sub000/internal/domain"
)

// CreateProductCommand represents the command to add a product to a catalog
type CreateProductCommand struct {
	ShopkeeperID      string
	SKU               string
	Barcode           string
	Name              string
	Price             domain.Money
	TaxRate           float64
	Cost              domain.Money
	Quantity          int64 // seeded through a purchase entry when > 0
	LowStockThreshold int64
	Location          string
}

// RecordMovementCommand represents a stock-in or stock-out outside sales
type RecordMovementCommand struct {
	ShopkeeperID string
	ProductID    string
	Type         domain.MovementType
	Quantity     int64
	// UnitCost defaults to the product's cost
	UnitCost  *domain.Money
	Reference string
	Batch     *domain.Batch
	Location  string
	Notes     string
}

// AdjustStockCommand represents a manual stock correction
type AdjustStockCommand struct {
	ShopkeeperID string
	ProductID    string
	Mode         domain.AdjustMode
	Quantity     int64
	Notes        string
}

// BillItemCommand is one requested line of a bill
type BillItemCommand struct {
	ProductID string
	Quantity  int64
	Discount  domain.Money
}

// CreateBillCommand represents the command to issue a bill
type CreateBillCommand struct {
	ShopkeeperID  string
	Customer      domain.Customer
	Items         []BillItemCommand
	PaymentMethod domain.PaymentMethod
	Notes         string
	DueDate       *time.Time
}

// UpdateBillStatusCommand represents a bill status transition
type UpdateBillStatusCommand struct {
	ShopkeeperID  string
	BillID        string
	Status        domain.BillStatus
	PaymentStatus *domain.PaymentStatus
	TransactionID string
}

// CreateSupplierCommand represents the command to register a supplier
type CreateSupplierCommand struct {
	ShopkeeperID string
	Name         string
	Email        string
	Phone        string
	CreditLimit  domain.Money
}

// AdjustSupplierCreditCommand represents a change to a supplier's drawn credit
type AdjustSupplierCreditCommand struct {
	ShopkeeperID string
	SupplierID   string
	Operation    domain.CreditOperation
	Amount       domain.Money
}

// LedgerHistoryQuery represents the query for ledger entries
type LedgerHistoryQuery struct {
	ShopkeeperID string
	ProductID    *string
	Type         *domain.MovementType
	From         *time.Time
	To           *time.Time
	Pagination   domain.Pagination
}

// ListBillsQuery represents the query for bills
type ListBillsQuery struct {
	ShopkeeperID  string
	Status        *domain.BillStatus
	PaymentStatus *domain.PaymentStatus
	From          *time.Time
	To            *time.Time
	Pagination    domain.Pagination
}
