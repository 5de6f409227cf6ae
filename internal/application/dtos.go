package application

import (
	"time"

	"github.com/muhammadanas59525/expiry-inventory-management-sub000/internal/domain"
)

// StockChangeDTO is a product together with the ledger entry that last moved it
type StockChangeDTO struct {
	Product *domain.Product          `json:"product"`
	Entry   *domain.StockLedgerEntry `json:"entry,omitempty"`
}

// PageDTO is one page of a listing plus the total match count
type PageDTO[T any] struct {
	Items []T
	Total int64
}

// SupplierDTO represents a supplier with its remaining credit
type SupplierDTO struct {
	*domain.Supplier
	AvailableCredit domain.Money `json:"availableCredit"`
}

func toSupplierDTO(s *domain.Supplier) *SupplierDTO {
	return &SupplierDTO{Supplier: s, AvailableCredit: s.AvailableCredit()}
}

// StockValueDTO is the valuation of a shopkeeper's stock
type StockValueDTO struct {
	ShopkeeperID string       `json:"shopkeeperId"`
	Value        domain.Money `json:"value"`
}

// MovementStatsDTO is the movement breakdown for a date range
type MovementStatsDTO struct {
	From  *time.Time            `json:"from,omitempty"`
	To    *time.Time            `json:"to,omitempty"`
	Stats []domain.MovementStat `json:"stats"`
}
