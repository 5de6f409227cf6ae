package application

import (
	"context"
	"errors"

	"github.com/muhammadanas59525/expiry-inventory-management-sub000/internal/domain"
	"github.com/muhammadanas59525/expiry-inventory-management-sub000/pkg/logging"
	"github.com/muhammadanas59525/expiry-inventory-management-sub000/pkg/metrics"
)

// AdjustmentService applies manual stock corrections
type AdjustmentService struct {
	*stockOps
}

// NewAdjustmentService creates a new adjustment service
func NewAdjustmentService(stores Stores, m *metrics.Metrics, logger *logging.Logger) *AdjustmentService {
	return &AdjustmentService{stockOps: newStockOps(stores, m, logger.WithComponent("adjustment-service"))}
}

// Adjust adds to, subtracts from or overwrites a product's quantity and
// records the difference as an adjustment entry valued at the product's cost.
func (s *AdjustmentService) Adjust(ctx context.Context, cmd AdjustStockCommand) (*StockChangeDTO, error) {
	if !cmd.Mode.IsValid() {
		return nil, domain.NewValidationError("mode", "must be add, subtract or set")
	}

	var (
		result   *StockChangeDTO
		previous int64
		events   []domain.DomainEvent
	)
	err := s.atomically(ctx, cmd.ShopkeeperID, []string{cmd.ProductID}, func(txCtx context.Context) error {
		now := s.now()

		product, err := s.findProduct(txCtx, cmd.ShopkeeperID, cmd.ProductID)
		if err != nil {
			return err
		}
		previous = product.Quantity

		next, err := product.PlanAdjustment(cmd.Mode, cmd.Quantity)
		if err != nil {
			return err
		}

		entry, moved, err := s.move(txCtx, product, domain.LedgerEntryParams{
			Type:          domain.MovementAdjustment,
			Delta:         next - previous,
			UnitCost:      product.Cost,
			Reference:     string(cmd.Mode),
			ReferenceType: domain.ReferenceAdjustment,
			Notes:         cmd.Notes,
		}, now)
		if err != nil {
			return err
		}

		result = &StockChangeDTO{Product: product, Entry: entry}
		events = append(moved, &domain.StockAdjustedEvent{
			ProductID:   product.ID,
			Mode:        string(cmd.Mode),
			OldQuantity: previous,
			NewQuantity: next,
			AdjustedAt:  now,
		})
		return s.stores.Events.Publish(txCtx, events...)
	})
	if err != nil {
		if errors.Is(err, domain.ErrInsufficientStock) {
			s.metrics.RecordInsufficientStock("inventory.adjust")
		}
		s.logFailure(ctx, "failed to adjust stock", err, "productId", cmd.ProductID, "mode", cmd.Mode)
		return nil, err
	}

	s.recordCommitted([]*domain.StockLedgerEntry{result.Entry}, events)
	s.metrics.RecordStockAdjustment(string(cmd.Mode))
	s.logger.Audit(ctx, "stock.adjusted", "product", cmd.ProductID, cmd.ShopkeeperID, map[string]any{
		"mode":        string(cmd.Mode),
		"oldQuantity": previous,
		"newQuantity": result.Product.Quantity,
	})
	return result, nil
}
