package application

import (
	"context"
	"fmt"
	"time"

	"github.com/muhammadanas59525/expiry-inventory-management-sub000/internal/domain"
)

// ReportingService serves read-only views over products and the ledger
type ReportingService struct {
	products domain.ProductRepository
	ledger   domain.LedgerRepository
}

// NewReportingService creates a new reporting service
func NewReportingService(products domain.ProductRepository, ledger domain.LedgerRepository) *ReportingService {
	return &ReportingService{products: products, ledger: ledger}
}

// MovementStats groups ledger entries by movement type
func (s *ReportingService) MovementStats(ctx context.Context, shopkeeperID string, from, to *time.Time) (*MovementStatsDTO, error) {
	stats, err := s.ledger.MovementStats(ctx, shopkeeperID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate movements: %w", err)
	}
	if stats == nil {
		stats = []domain.MovementStat{}
	}
	return &MovementStatsDTO{From: from, To: to, Stats: stats}, nil
}

// LowStock lists products at or below their threshold
func (s *ReportingService) LowStock(ctx context.Context, shopkeeperID string, pagination domain.Pagination) (*PageDTO[*domain.Product], error) {
	products, err := s.products.FindLowStock(ctx, shopkeeperID, pagination)
	if err != nil {
		return nil, fmt.Errorf("failed to list low stock products: %w", err)
	}
	total, err := s.products.CountLowStock(ctx, shopkeeperID)
	if err != nil {
		return nil, fmt.Errorf("failed to count low stock products: %w", err)
	}
	return &PageDTO[*domain.Product]{Items: products, Total: total}, nil
}

// Summary counts products and movements and values the stock
func (s *ReportingService) Summary(ctx context.Context, shopkeeperID string) (*domain.InventorySummary, error) {
	products, err := s.products.Count(ctx, shopkeeperID)
	if err != nil {
		return nil, fmt.Errorf("failed to count products: %w", err)
	}
	lowStock, err := s.products.CountLowStock(ctx, shopkeeperID)
	if err != nil {
		return nil, fmt.Errorf("failed to count low stock products: %w", err)
	}
	movements, err := s.ledger.Count(ctx, domain.LedgerFilter{ShopkeeperID: shopkeeperID})
	if err != nil {
		return nil, fmt.Errorf("failed to count movements: %w", err)
	}
	value, err := s.ledger.StockValue(ctx, shopkeeperID)
	if err != nil {
		return nil, fmt.Errorf("failed to compute stock value: %w", err)
	}

	return &domain.InventorySummary{
		Products:   products,
		LowStock:   lowStock,
		Movements:  movements,
		StockValue: value,
	}, nil
}
