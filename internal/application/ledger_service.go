package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/muhammadanas59525/expiry-inventory-management-sub000/internal/domain"
	"github.com/muhammadanas59525/expiry-inventory-management-sub000/pkg/logging"
	"github.com/muhammadanas59525/expiry-inventory-management-sub000/pkg/metrics"
)

// LedgerService handles stock ledger use cases
type LedgerService struct {
	*stockOps
}

// NewLedgerService creates a new ledger service
func NewLedgerService(stores Stores, m *metrics.Metrics, logger *logging.Logger) *LedgerService {
	return &LedgerService{stockOps: newStockOps(stores, m, logger.WithComponent("ledger-service"))}
}

// RecordMovement records a purchase, return, damaged or expired movement.
// Sales are recorded by bills and corrections by adjustments.
func (s *LedgerService) RecordMovement(ctx context.Context, cmd RecordMovementCommand) (*StockChangeDTO, error) {
	switch cmd.Type {
	case domain.MovementPurchase, domain.MovementReturn, domain.MovementDamaged, domain.MovementExpired:
	case domain.MovementSale:
		return nil, domain.NewValidationError("type", "sales are recorded by issuing a bill")
	case domain.MovementAdjustment:
		return nil, domain.NewValidationError("type", "use an inventory adjustment")
	default:
		return nil, domain.NewValidationError("type", "unknown movement type "+string(cmd.Type))
	}
	if cmd.Quantity <= 0 {
		return nil, domain.NewValidationError("quantity", "must be greater than 0")
	}
	if err := cmd.Batch.Validate(); err != nil {
		return nil, err
	}

	var (
		result *StockChangeDTO
		events []domain.DomainEvent
	)
	err := s.atomically(ctx, cmd.ShopkeeperID, []string{cmd.ProductID}, func(txCtx context.Context) error {
		now := s.now()

		product, err := s.findProduct(txCtx, cmd.ShopkeeperID, cmd.ProductID)
		if err != nil {
			return err
		}
		if cmd.Type.Sign() < 0 && !product.CanDeduct(cmd.Quantity) {
			return domain.NewInsufficientStockError(product, cmd.Quantity)
		}

		unitCost := product.Cost
		if cmd.UnitCost != nil {
			unitCost = *cmd.UnitCost
		}

		entry, moved, err := s.move(txCtx, product, domain.LedgerEntryParams{
			Type:          cmd.Type,
			Delta:         int64(cmd.Type.Sign()) * cmd.Quantity,
			UnitCost:      unitCost,
			Reference:     cmd.Reference,
			ReferenceType: domain.ReferenceManual,
			Batch:         cmd.Batch,
			Location:      cmd.Location,
			Notes:         cmd.Notes,
		}, now)
		if err != nil {
			return err
		}

		result = &StockChangeDTO{Product: product, Entry: entry}
		events = moved
		return s.stores.Events.Publish(txCtx, events...)
	})
	if err != nil {
		if errors.Is(err, domain.ErrInsufficientStock) {
			s.metrics.RecordInsufficientStock("inventory.movement")
		}
		s.logFailure(ctx, "failed to record movement", err, "productId", cmd.ProductID, "type", cmd.Type)
		return nil, err
	}

	s.recordCommitted([]*domain.StockLedgerEntry{result.Entry}, events)
	return result, nil
}

// CurrentStock derives a product's quantity from its latest ledger entry; 0
// when the product has no history.
func (s *LedgerService) CurrentStock(ctx context.Context, shopkeeperID, productID string) (int64, error) {
	latest, err := s.stores.Ledger.Latest(ctx, shopkeeperID, productID)
	if err != nil {
		return 0, fmt.Errorf("failed to read latest ledger entry: %w", err)
	}
	if latest == nil {
		return 0, nil
	}
	return latest.QuantityAfter, nil
}

// Reconcile compares the product's stored quantity with the ledger
func (s *LedgerService) Reconcile(ctx context.Context, shopkeeperID, productID string) (*domain.StockLevel, error) {
	product, err := s.findProduct(ctx, shopkeeperID, productID)
	if err != nil {
		return nil, err
	}
	derived, err := s.CurrentStock(ctx, shopkeeperID, productID)
	if err != nil {
		return nil, err
	}

	level := &domain.StockLevel{
		ProductID:     product.ID,
		Quantity:      product.Quantity,
		LedgerStock:   derived,
		IsConsistent:  derived == product.Quantity,
		IsLowStock:    product.IsLowStock(),
		LowStockLimit: product.LowStockThreshold,
	}
	if !level.IsConsistent {
		s.logger.WithContext(ctx).Warn("stock out of sync with ledger",
			"productId", product.ID, "quantity", product.Quantity, "ledgerQuantity", derived)
	}
	return level, nil
}

// StockValue sums quantity-after times unit cost over each product's latest entry
func (s *LedgerService) StockValue(ctx context.Context, shopkeeperID string) (*StockValueDTO, error) {
	value, err := s.stores.Ledger.StockValue(ctx, shopkeeperID)
	if err != nil {
		return nil, fmt.Errorf("failed to compute stock value: %w", err)
	}
	return &StockValueDTO{ShopkeeperID: shopkeeperID, Value: value}, nil
}

// History returns ledger entries newest first. Every call is a fresh query.
func (s *LedgerService) History(ctx context.Context, q LedgerHistoryQuery) (*PageDTO[*domain.StockLedgerEntry], error) {
	if q.Type != nil && !q.Type.IsValid() {
		return nil, domain.NewValidationError("type", "unknown movement type "+string(*q.Type))
	}

	filter := domain.LedgerFilter{
		ShopkeeperID: q.ShopkeeperID,
		ProductID:    q.ProductID,
		Type:         q.Type,
		FromDate:     q.From,
		ToDate:       q.To,
	}
	entries, err := s.stores.Ledger.History(ctx, filter, q.Pagination)
	if err != nil {
		return nil, fmt.Errorf("failed to read ledger history: %w", err)
	}
	total, err := s.stores.Ledger.Count(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to count ledger entries: %w", err)
	}
	return &PageDTO[*domain.StockLedgerEntry]{Items: entries, Total: total}, nil
}
