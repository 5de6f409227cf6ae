package application

import (
	"context"
	"fmt"

	"github.com/muhammadanas59525/expiry-inventory-management-sub000/internal/domain"
	"github.com/muhammadanas59525/expiry-inventory-management-sub000/pkg/logging"
	"github.com/muhammadanas59525/expiry-inventory-management-sub000/pkg/metrics"
)

// ProductService handles the product side of the stock accessor
type ProductService struct {
	*stockOps
}

// NewProductService creates a new product service
func NewProductService(stores Stores, m *metrics.Metrics, logger *logging.Logger) *ProductService {
	return &ProductService{stockOps: newStockOps(stores, m, logger.WithComponent("product-service"))}
}

// Create adds a product. Initial stock is recorded as a purchase entry in the
// same unit of work, so the ledger accounts for every unit from the start.
func (s *ProductService) Create(ctx context.Context, cmd CreateProductCommand) (*StockChangeDTO, error) {
	if cmd.Quantity < 0 {
		return nil, domain.NewValidationError("quantity", "must not be negative")
	}

	var (
		result  *StockChangeDTO
		entries []*domain.StockLedgerEntry
		events  []domain.DomainEvent
	)
	err := s.stores.UnitOfWork.Do(ctx, func(txCtx context.Context) error {
		now := s.now()
		entries, events = nil, nil

		product, err := domain.NewProduct(domain.NewProductParams{
			ShopkeeperID:      cmd.ShopkeeperID,
			SKU:               cmd.SKU,
			Barcode:           cmd.Barcode,
			Name:              cmd.Name,
			Price:             cmd.Price,
			TaxRate:           cmd.TaxRate,
			Cost:              cmd.Cost,
			LowStockThreshold: cmd.LowStockThreshold,
		}, now)
		if err != nil {
			return err
		}
		if err := s.stores.Products.Create(txCtx, product); err != nil {
			return fmt.Errorf("failed to create product: %w", err)
		}

		result = &StockChangeDTO{Product: product}
		events = append(events, &domain.ProductCreatedEvent{
			ProductID: product.ID,
			SKU:       product.SKU,
			Quantity:  cmd.Quantity,
			CreatedAt: now,
		})

		if cmd.Quantity > 0 {
			entry, moved, err := s.move(txCtx, product, domain.LedgerEntryParams{
				Type:          domain.MovementPurchase,
				Delta:         cmd.Quantity,
				UnitCost:      product.Cost,
				Reference:     product.ID,
				ReferenceType: domain.ReferenceProduct,
				Location:      cmd.Location,
				Notes:         "initial stock",
			}, now)
			if err != nil {
				return err
			}
			result.Entry = entry
			entries = append(entries, entry)
			events = append(events, moved...)
		}

		return s.stores.Events.Publish(txCtx, events...)
	})
	if err != nil {
		s.logFailure(ctx, "failed to create product", err, "sku", cmd.SKU, "shopkeeperId", cmd.ShopkeeperID)
		return nil, err
	}

	s.recordCommitted(entries, events)
	s.logger.Audit(ctx, "product.created", "product", result.Product.ID, cmd.ShopkeeperID, map[string]any{
		"sku":      result.Product.SKU,
		"quantity": result.Product.Quantity,
	})
	return result, nil
}

// Get retrieves a product
func (s *ProductService) Get(ctx context.Context, shopkeeperID, productID string) (*domain.Product, error) {
	return s.findProduct(ctx, shopkeeperID, productID)
}

// List returns a page of the shopkeeper's products
func (s *ProductService) List(ctx context.Context, shopkeeperID string, pagination domain.Pagination) (*PageDTO[*domain.Product], error) {
	products, err := s.stores.Products.FindByShopkeeper(ctx, shopkeeperID, pagination)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	total, err := s.stores.Products.Count(ctx, shopkeeperID)
	if err != nil {
		return nil, fmt.Errorf("failed to count products: %w", err)
	}
	return &PageDTO[*domain.Product]{Items: products, Total: total}, nil
}

// Delete removes a product together with its ledger history
func (s *ProductService) Delete(ctx context.Context, shopkeeperID, productID string) error {
	var removed int64
	err := s.stores.UnitOfWork.Do(ctx, func(txCtx context.Context) error {
		product, err := s.findProduct(txCtx, shopkeeperID, productID)
		if err != nil {
			return err
		}

		removed, err = s.stores.Ledger.DeleteByProduct(txCtx, shopkeeperID, productID)
		if err != nil {
			return fmt.Errorf("failed to delete ledger history: %w", err)
		}
		if err := s.stores.Products.Delete(txCtx, shopkeeperID, productID); err != nil {
			return fmt.Errorf("failed to delete product: %w", err)
		}

		return s.stores.Events.Publish(txCtx, &domain.ProductDeletedEvent{
			ProductID:     product.ID,
			SKU:           product.SKU,
			LedgerEntries: removed,
			DeletedAt:     s.now(),
		})
	})
	if err != nil {
		s.logFailure(ctx, "failed to delete product", err, "productId", productID, "shopkeeperId", shopkeeperID)
		return err
	}

	s.logger.Audit(ctx, "product.deleted", "product", productID, shopkeeperID, map[string]any{
		"ledgerEntriesRemoved": removed,
	})
	return nil
}
