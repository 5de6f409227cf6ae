package domain

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

var skuPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_\-\.]{0,63}$`)

// Product is a shopkeeper's catalog item. Quantity is only ever written by
// the ledger operations of this package's services.
type Product struct {
	ID                string    `bson:"_id" json:"id"`
	ShopkeeperID      string    `bson:"shopkeeperId" json:"shopkeeperId"`
	SKU               string    `bson:"sku" json:"sku"`
	Barcode           string    `bson:"barcode,omitempty" json:"barcode,omitempty"`
	Name              string    `bson:"name" json:"name"`
	Price             Money     `bson:"price" json:"price"`
	TaxRate           float64   `bson:"taxRate" json:"taxRate"`
	Cost              Money     `bson:"cost" json:"cost"`
	Quantity          int64     `bson:"quantity" json:"quantity"`
	LowStockThreshold int64     `bson:"lowStockThreshold" json:"lowStockThreshold"`
	CreatedAt         time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt         time.Time `bson:"updatedAt" json:"updatedAt"`
}

// NewProductParams holds the catalog fields of a new product
type NewProductParams struct {
	ShopkeeperID      string
	SKU               string
	Barcode           string
	Name              string
	Price             Money
	TaxRate           float64
	Cost              Money
	LowStockThreshold int64
}

// NewProduct validates catalog fields and returns a product with zero stock.
// Initial stock is seeded through a purchase ledger entry.
func NewProduct(p NewProductParams, now time.Time) (*Product, error) {
	sku := strings.TrimSpace(p.SKU)
	name := strings.TrimSpace(p.Name)

	switch {
	case p.ShopkeeperID == "":
		return nil, NewValidationError("shopkeeperId", "is required")
	case !skuPattern.MatchString(sku):
		return nil, NewValidationError("sku", "must be 1-64 alphanumeric characters")
	case name == "":
		return nil, NewValidationError("name", "is required")
	case p.Price.IsNegative():
		return nil, NewValidationError("price", "must not be negative")
	case p.Cost.IsNegative():
		return nil, NewValidationError("cost", "must not be negative")
	case p.TaxRate < 0 || p.TaxRate > 100:
		return nil, NewValidationError("taxRate", "must be between 0 and 100")
	case p.LowStockThreshold < 0:
		return nil, NewValidationError("lowStockThreshold", "must not be negative")
	}

	return &Product{
		ID:                uuid.New().String(),
		ShopkeeperID:      p.ShopkeeperID,
		SKU:               sku,
		Barcode:           strings.TrimSpace(p.Barcode),
		Name:              name,
		Price:             p.Price,
		TaxRate:           p.TaxRate,
		Cost:              p.Cost,
		LowStockThreshold: p.LowStockThreshold,
		CreatedAt:         now,
		UpdatedAt:         now,
	}, nil
}

// IsLowStock reports whether quantity is at or below the threshold
func (p *Product) IsLowStock() bool {
	return p.Quantity <= p.LowStockThreshold
}

// CanDeduct reports whether qty units are on hand
func (p *Product) CanDeduct(qty int64) bool {
	return qty > 0 && p.Quantity >= qty
}

// StockLevel compares the stored quantity with the quantity derived from the ledger
type StockLevel struct {
	ProductID     string `json:"productId"`
	Quantity      int64  `json:"quantity"`
	LedgerStock   int64  `json:"ledgerQuantity"`
	IsConsistent  bool   `json:"consistent"`
	IsLowStock    bool   `json:"lowStock"`
	LowStockLimit int64  `json:"lowStockThreshold"`
}
