package handlers

import (
	"time"

	"github.com/muhammadanas59525/expiry-inventory-management-sub000/internal/application"
	"github.com/muhammadanas59525/expiry-inventory-management-sub000/internal/domain"
)

// CreateProductRequest is the body of POST /products
type CreateProductRequest struct {
	SKU               string       `json:"sku" binding:"required,sku"`
	Barcode           string       `json:"barcode" binding:"omitempty,max=64,safe_string"`
	Name              string       `json:"name" binding:"required,max=200,safe_string"`
	Price             domain.Money `json:"price"`
	TaxRate           float64      `json:"taxRate" binding:"gte=0,lte=100"`
	Cost              domain.Money `json:"cost"`
	Quantity          int64        `json:"quantity" binding:"gte=0"`
	LowStockThreshold int64        `json:"lowStockThreshold" binding:"gte=0"`
	Location          string       `json:"location" binding:"omitempty,max=100,safe_string"`
}

func (r CreateProductRequest) command(shopkeeperID string) application.CreateProductCommand {
	return application.CreateProductCommand{
		ShopkeeperID:      shopkeeperID,
		SKU:               r.SKU,
		Barcode:           r.Barcode,
		Name:              r.Name,
		Price:             r.Price,
		TaxRate:           r.TaxRate,
		Cost:              r.Cost,
		Quantity:          r.Quantity,
		LowStockThreshold: r.LowStockThreshold,
		Location:          r.Location,
	}
}

// LedgerHistoryParams are the filters of GET /inventory/ledger
type LedgerHistoryParams struct {
	ProductID string              `form:"productId" binding:"omitempty,max=64,safe_string"`
	Type      domain.MovementType `form:"type" binding:"omitempty,movement_type"`
}

// RecordMovementRequest is the body of POST /inventory/movements
type RecordMovementRequest struct {
	ProductID       string              `json:"productId" binding:"required"`
	Type            domain.MovementType `json:"type" binding:"required,movement_type"`
	Quantity        int64               `json:"quantity" binding:"required,gt=0"`
	UnitCost        *domain.Money       `json:"unitCost"`
	Reference       string              `json:"reference" binding:"omitempty,max=100,safe_string"`
	BatchNumber     string              `json:"batchNumber" binding:"omitempty,max=64,safe_string"`
	ManufactureDate *time.Time          `json:"manufactureDate"`
	ExpiryDate      *time.Time          `json:"expiryDate"`
	Location        string              `json:"location" binding:"omitempty,max=100,safe_string"`
	Notes           string              `json:"notes" binding:"omitempty,max=500,safe_string"`
}

func (r RecordMovementRequest) command(shopkeeperID string) application.RecordMovementCommand {
	cmd := application.RecordMovementCommand{
		ShopkeeperID: shopkeeperID,
		ProductID:    r.ProductID,
		Type:         r.Type,
		Quantity:     r.Quantity,
		UnitCost:     r.UnitCost,
		Reference:    r.Reference,
		Location:     r.Location,
		Notes:        r.Notes,
	}
	if r.BatchNumber != "" || r.ManufactureDate != nil || r.ExpiryDate != nil {
		cmd.Batch = &domain.Batch{
			Number:          r.BatchNumber,
			ManufactureDate: r.ManufactureDate,
			ExpiryDate:      r.ExpiryDate,
		}
	}
	return cmd
}

// AdjustStockRequest is the body of POST /inventory/adjustments
type AdjustStockRequest struct {
	ProductID string            `json:"productId" binding:"required"`
	Mode      domain.AdjustMode `json:"mode" binding:"required,adjust_mode"`
	Quantity  int64             `json:"quantity" binding:"gte=0"`
	Notes     string            `json:"notes" binding:"omitempty,max=500,safe_string"`
}

// CustomerRequest identifies who a bill is issued to
type CustomerRequest struct {
	Name       string `json:"name" binding:"required,max=200,safe_string"`
	Email      string `json:"email" binding:"omitempty,email"`
	Phone      string `json:"phone" binding:"omitempty,max=32,safe_string"`
	Address    string `json:"address" binding:"omitempty,max=500,safe_string"`
	CustomerID string `json:"customerId" binding:"omitempty,max=64"`
}

// BillItemRequest is one requested bill line
type BillItemRequest struct {
	ProductID string       `json:"productId" binding:"required"`
	Quantity  int64        `json:"quantity" binding:"required,min=1"`
	Discount  domain.Money `json:"discount"`
}

// CreateBillRequest is the body of POST /bills
type CreateBillRequest struct {
	Customer      CustomerRequest      `json:"customer"`
	Items         []BillItemRequest    `json:"items" binding:"required,min=1,dive"`
	PaymentMethod domain.PaymentMethod `json:"paymentMethod" binding:"required,payment_method"`
	Notes         string               `json:"notes" binding:"omitempty,max=500,safe_string"`
	DueDate       *time.Time           `json:"dueDate"`
}

func (r CreateBillRequest) command(shopkeeperID string) application.CreateBillCommand {
	items := make([]application.BillItemCommand, len(r.Items))
	for i, item := range r.Items {
		items[i] = application.BillItemCommand{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Discount:  item.Discount,
		}
	}
	return application.CreateBillCommand{
		ShopkeeperID: shopkeeperID,
		Customer: domain.Customer{
			Name:       r.Customer.Name,
			Email:      r.Customer.Email,
			Phone:      r.Customer.Phone,
			Address:    r.Customer.Address,
			CustomerID: r.Customer.CustomerID,
		},
		Items:         items,
		PaymentMethod: r.PaymentMethod,
		Notes:         r.Notes,
		DueDate:       r.DueDate,
	}
}

// ListBillsParams are the filters of GET /bills
type ListBillsParams struct {
	Status        domain.BillStatus    `form:"status" binding:"omitempty,bill_status"`
	PaymentStatus domain.PaymentStatus `form:"paymentStatus" binding:"omitempty,payment_status"`
}

// UpdateBillStatusRequest is the body of PATCH /bills/:billId/status
type UpdateBillStatusRequest struct {
	Status        domain.BillStatus     `json:"status" binding:"required,bill_status"`
	PaymentStatus *domain.PaymentStatus `json:"paymentStatus" binding:"omitempty,payment_status"`
	TransactionID string                `json:"transactionId" binding:"omitempty,max=128,safe_string"`
}

// CreateSupplierRequest is the body of POST /suppliers
type CreateSupplierRequest struct {
	Name        string       `json:"name" binding:"required,max=200,safe_string"`
	Email       string       `json:"email" binding:"omitempty,email"`
	Phone       string       `json:"phone" binding:"omitempty,max=32,safe_string"`
	CreditLimit domain.Money `json:"creditLimit"`
}

// AdjustCreditRequest is the body of PATCH /suppliers/:supplierId/credit
type AdjustCreditRequest struct {
	Operation domain.CreditOperation `json:"operation" binding:"required,oneof=increase decrease"`
	Amount    domain.Money           `json:"amount"`
}
