package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/muhammadanas59525/expiry-inventory-management-sub000/internal/domain"
	"github.com/muhammadanas59525/expiry-inventory-management-sub000/pkg/logging"
	"github.com/muhammadanas59525/expiry-inventory-management-sub000/pkg/metrics"
)

// BillingService prices, issues and cancels bills
type BillingService struct {
	*stockOps
}

// NewBillingService creates a new billing service
func NewBillingService(stores Stores, m *metrics.Metrics, logger *logging.Logger) *BillingService {
	return &BillingService{stockOps: newStockOps(stores, m, logger.WithComponent("billing-service"))}
}

func validateBillCommand(cmd CreateBillCommand) error {
	if len(cmd.Items) == 0 {
		return domain.NewValidationError("items", "at least one item is required")
	}
	for i, item := range cmd.Items {
		if item.ProductID == "" {
			return domain.NewValidationError(fmt.Sprintf("items[%d].productId", i), "is required")
		}
		if item.Quantity < 1 {
			return domain.NewValidationError(fmt.Sprintf("items[%d].quantity", i), "must be at least 1")
		}
		if item.Discount.IsNegative() {
			return domain.NewValidationError(fmt.Sprintf("items[%d].discount", i), "must not be negative")
		}
	}
	if !cmd.PaymentMethod.IsValid() {
		return domain.NewValidationError("paymentMethod", "unknown payment method "+string(cmd.PaymentMethod))
	}
	return nil
}

// Create issues a bill. Lines are processed in request order against the live
// product quantity, so repeated products see the deductions of earlier lines.
// Stock deductions, sale entries, the bill number and the bill itself commit
// together or not at all.
func (s *BillingService) Create(ctx context.Context, cmd CreateBillCommand) (*domain.Bill, error) {
	if err := validateBillCommand(cmd); err != nil {
		return nil, err
	}

	productIDs := make([]string, 0, len(cmd.Items))
	for _, item := range cmd.Items {
		productIDs = append(productIDs, item.ProductID)
	}

	var (
		bill    *domain.Bill
		entries []*domain.StockLedgerEntry
		events  []domain.DomainEvent
	)
	err := s.atomically(ctx, cmd.ShopkeeperID, distinctSorted(productIDs), func(txCtx context.Context) error {
		now := s.now()
		billID := uuid.New().String()
		entries, events = nil, nil

		loaded := make(map[string]*domain.Product, len(cmd.Items))
		lines := make([]domain.BillLine, 0, len(cmd.Items))

		for _, item := range cmd.Items {
			product, ok := loaded[item.ProductID]
			if !ok {
				var err error
				product, err = s.findProduct(txCtx, cmd.ShopkeeperID, item.ProductID)
				if err != nil {
					return err
				}
				loaded[item.ProductID] = product
			}

			if !product.CanDeduct(item.Quantity) {
				return domain.NewInsufficientStockError(product, item.Quantity)
			}

			line, err := domain.NewBillLine(product, item.Quantity, item.Discount)
			if err != nil {
				return err
			}
			lines = append(lines, line)

			entry, moved, err := s.move(txCtx, product, domain.LedgerEntryParams{
				Type:          domain.MovementSale,
				Delta:         -item.Quantity,
				UnitCost:      product.Cost,
				Reference:     billID,
				ReferenceType: domain.ReferenceBill,
			}, now)
			if err != nil {
				return err
			}
			entries = append(entries, entry)
			events = append(events, moved...)
		}

		period := domain.BillPeriod(now)
		seq, err := s.stores.Sequence.Next(txCtx, period)
		if err != nil {
			return fmt.Errorf("failed to allocate bill number: %w", err)
		}

		bill, err = domain.NewBill(domain.NewBillParams{
			ID:            billID,
			ShopkeeperID:  cmd.ShopkeeperID,
			BillNumber:    domain.FormatBillNumber(period, seq),
			Customer:      cmd.Customer,
			Lines:         lines,
			PaymentMethod: cmd.PaymentMethod,
			Notes:         cmd.Notes,
			DueDate:       cmd.DueDate,
		}, now)
		if err != nil {
			return err
		}
		if err := s.stores.Bills.Create(txCtx, bill); err != nil {
			return fmt.Errorf("failed to save bill: %w", err)
		}

		events = append(events, &domain.BillIssuedEvent{
			BillID:        bill.ID,
			BillNumber:    bill.BillNumber,
			GrandTotal:    bill.GrandTotal,
			ItemCount:     bill.ItemCount(),
			PaymentMethod: bill.PaymentMethod,
			IssuedAt:      now,
		})
		return s.stores.Events.Publish(txCtx, events...)
	})
	if err != nil {
		if errors.Is(err, domain.ErrInsufficientStock) {
			s.metrics.RecordInsufficientStock("bill.create")
		}
		s.logFailure(ctx, "failed to create bill", err, "shopkeeperId", cmd.ShopkeeperID, "items", len(cmd.Items))
		return nil, err
	}

	s.recordCommitted(entries, events)
	s.metrics.RecordBillIssued(string(bill.PaymentMethod))
	s.logger.Audit(ctx, "bill.issued", "bill", bill.ID, bill.ShopkeeperID, map[string]any{
		"billNumber": bill.BillNumber,
		"grandTotal": bill.GrandTotal.String(),
		"items":      bill.ItemCount(),
	})
	return bill, nil
}

// UpdateStatus moves a bill to a new status. Cancelling restores the stock of
// every line with a return entry in the same unit of work as the status
// write; cancelling a cancelled bill changes nothing.
func (s *BillingService) UpdateStatus(ctx context.Context, cmd UpdateBillStatusCommand) (*domain.Bill, error) {
	if !cmd.Status.IsValid() {
		return nil, domain.NewValidationError("status", "unknown bill status "+string(cmd.Status))
	}

	current, err := s.Get(ctx, cmd.ShopkeeperID, cmd.BillID)
	if err != nil {
		return nil, err
	}

	var lockIDs []string
	if cmd.Status == domain.BillStatusCancelled && current.Status != domain.BillStatusCancelled {
		for _, line := range current.Lines {
			lockIDs = append(lockIDs, line.ProductID)
		}
		lockIDs = distinctSorted(lockIDs)
	}

	var (
		bill    *domain.Bill
		change  domain.StatusChange
		entries []*domain.StockLedgerEntry
		events  []domain.DomainEvent
	)
	err = s.atomically(ctx, cmd.ShopkeeperID, lockIDs, func(txCtx context.Context) error {
		now := s.now()
		entries, events = nil, nil

		var err error
		bill, err = s.Get(txCtx, cmd.ShopkeeperID, cmd.BillID)
		if err != nil {
			return err
		}

		change, err = bill.ApplyStatus(cmd.Status, cmd.PaymentStatus, cmd.TransactionID, now)
		if err != nil || !change.Changed {
			return err
		}

		if change.Restock {
			var restored int64
			loaded := make(map[string]*domain.Product, len(bill.Lines))
			for _, line := range bill.Lines {
				product, ok := loaded[line.ProductID]
				if !ok {
					product, err = s.findProduct(txCtx, cmd.ShopkeeperID, line.ProductID)
					if err != nil {
						return err
					}
					loaded[line.ProductID] = product
				}

				entry, moved, err := s.move(txCtx, product, domain.LedgerEntryParams{
					Type:          domain.MovementReturn,
					Delta:         line.Quantity,
					UnitCost:      product.Cost,
					Reference:     domain.BillCancelledReference,
					ReferenceType: domain.ReferenceBill,
					Notes:         bill.BillNumber,
				}, now)
				if err != nil {
					return err
				}
				restored += line.Quantity
				entries = append(entries, entry)
				events = append(events, moved...)
			}
			events = append(events, &domain.BillCancelledEvent{
				BillID:        bill.ID,
				BillNumber:    bill.BillNumber,
				RestoredUnits: restored,
				CancelledAt:   now,
			})
		}

		if err := s.stores.Bills.UpdateStatus(txCtx, bill); err != nil {
			return fmt.Errorf("failed to update bill status: %w", err)
		}

		events = append(events, &domain.BillStatusChangedEvent{
			BillID:        bill.ID,
			BillNumber:    bill.BillNumber,
			From:          change.From,
			To:            change.To,
			PaymentStatus: bill.PaymentStatus,
			ChangedAt:     now,
		})
		return s.stores.Events.Publish(txCtx, events...)
	})
	if err != nil {
		s.logFailure(ctx, "failed to update bill status", err, "billId", cmd.BillID, "status", cmd.Status)
		return nil, err
	}
	if !change.Changed {
		return bill, nil
	}

	s.recordCommitted(entries, events)
	s.metrics.RecordBillStatusChange(string(change.From), string(change.To))
	s.logger.Audit(ctx, "bill.status_changed", "bill", bill.ID, bill.ShopkeeperID, map[string]any{
		"from":     string(change.From),
		"to":       string(change.To),
		"restocks": len(entries),
	})
	return bill, nil
}

// Get retrieves a bill
func (s *BillingService) Get(ctx context.Context, shopkeeperID, billID string) (*domain.Bill, error) {
	bill, err := s.stores.Bills.FindByID(ctx, shopkeeperID, billID)
	if err != nil {
		return nil, fmt.Errorf("failed to find bill: %w", err)
	}
	if bill == nil {
		return nil, domain.NewNotFoundError("bill", billID)
	}
	return bill, nil
}

// List returns a page of bills newest first
func (s *BillingService) List(ctx context.Context, q ListBillsQuery) (*PageDTO[*domain.Bill], error) {
	if q.Status != nil && !q.Status.IsValid() {
		return nil, domain.NewValidationError("status", "unknown bill status "+string(*q.Status))
	}
	if q.PaymentStatus != nil && !q.PaymentStatus.IsValid() {
		return nil, domain.NewValidationError("paymentStatus", "unknown payment status "+string(*q.PaymentStatus))
	}

	filter := domain.BillFilter{
		ShopkeeperID:  q.ShopkeeperID,
		Status:        q.Status,
		PaymentStatus: q.PaymentStatus,
		FromDate:      q.From,
		ToDate:        q.To,
	}
	bills, err := s.stores.Bills.Find(ctx, filter, q.Pagination)
	if err != nil {
		return nil, fmt.Errorf("failed to list bills: %w", err)
	}
	total, err := s.stores.Bills.Count(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to count bills: %w", err)
	}
	return &PageDTO[*domain.Bill]{Items: bills, Total: total}, nil
}

// Stats aggregates non-cancelled bills created in range
func (s *BillingService) Stats(ctx context.Context, shopkeeperID string, from, to *time.Time) (*domain.SalesStats, error) {
	stats, err := s.stores.Bills.Stats(ctx, shopkeeperID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate bills: %w", err)
	}
	return stats, nil
}
