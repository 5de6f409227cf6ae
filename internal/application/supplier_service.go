package application

import (
	"context"
	"fmt"
	"time"

	"github.com/muhammadanas59525/expiry-inventory-management-sub000/internal/domain"
	"github.com/muhammadanas59525/expiry-inventory-management-sub000/pkg/logging"
)

// SupplierService manages supplier credit
type SupplierService struct {
	uow       domain.UnitOfWork
	suppliers domain.SupplierRepository
	events    domain.EventPublisher
	logger    *logging.Logger
}

// NewSupplierService creates a new supplier service
func NewSupplierService(uow domain.UnitOfWork, suppliers domain.SupplierRepository, events domain.EventPublisher, logger *logging.Logger) *SupplierService {
	return &SupplierService{
		uow:       uow,
		suppliers: suppliers,
		events:    events,
		logger:    logger.WithComponent("supplier-service"),
	}
}

// Create registers a supplier
func (s *SupplierService) Create(ctx context.Context, cmd CreateSupplierCommand) (*SupplierDTO, error) {
	supplier, err := domain.NewSupplier(cmd.ShopkeeperID, cmd.Name, cmd.Email, cmd.Phone, cmd.CreditLimit, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	if err := s.suppliers.Create(ctx, supplier); err != nil {
		return nil, fmt.Errorf("failed to create supplier: %w", err)
	}
	return toSupplierDTO(supplier), nil
}

// Get retrieves a supplier
func (s *SupplierService) Get(ctx context.Context, shopkeeperID, supplierID string) (*SupplierDTO, error) {
	supplier, err := s.find(ctx, shopkeeperID, supplierID)
	if err != nil {
		return nil, err
	}
	return toSupplierDTO(supplier), nil
}

func (s *SupplierService) find(ctx context.Context, shopkeeperID, supplierID string) (*domain.Supplier, error) {
	supplier, err := s.suppliers.FindByID(ctx, shopkeeperID, supplierID)
	if err != nil {
		return nil, fmt.Errorf("failed to find supplier: %w", err)
	}
	if supplier == nil {
		return nil, domain.NewNotFoundError("supplier", supplierID)
	}
	return supplier, nil
}

// AdjustCredit increases or decreases the credit drawn from a supplier
func (s *SupplierService) AdjustCredit(ctx context.Context, cmd AdjustSupplierCreditCommand) (*SupplierDTO, error) {
	var supplier *domain.Supplier
	err := s.uow.Do(ctx, func(txCtx context.Context) error {
		var err error
		supplier, err = s.find(txCtx, cmd.ShopkeeperID, cmd.SupplierID)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		if err := supplier.AdjustCredit(cmd.Operation, cmd.Amount, now); err != nil {
			return err
		}
		if err := s.suppliers.UpdateCredit(txCtx, supplier); err != nil {
			return fmt.Errorf("failed to update supplier credit: %w", err)
		}

		return s.events.Publish(txCtx, &domain.SupplierCreditAdjustedEvent{
			SupplierID:    supplier.ID,
			Operation:     cmd.Operation,
			Amount:        cmd.Amount,
			CurrentCredit: supplier.CurrentCredit,
			AdjustedAt:    now,
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.Audit(ctx, "supplier.credit_adjusted", "supplier", supplier.ID, cmd.ShopkeeperID, map[string]any{
		"operation":     string(cmd.Operation),
		"amount":        cmd.Amount.String(),
		"currentCredit": supplier.CurrentCredit.String(),
	})
	return toSupplierDTO(supplier), nil
}
