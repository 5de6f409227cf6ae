package application

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muhammadanas59525/expiry-inventory-management-sub000/internal/domain"
	"github.com/muhammadanas59525/expiry-inventory-management-sub000/pkg/cloudevents"
)

func createProduct(t *testing.T, env *testEnv, sku string, qty int64, price, cost float64, taxRate float64) *domain.Product {
	t.Helper()
	res, err := env.products.Create(context.Background(), CreateProductCommand{
		ShopkeeperID:      shop,
		SKU:               sku,
		Name:              "Product " + sku,
		Price:             domain.NewMoney(price),
		TaxRate:           taxRate,
		Cost:              domain.NewMoney(cost),
		Quantity:          qty,
		LowStockThreshold: 2,
	})
	require.NoError(t, err)
	return res.Product
}

func billCommand(items ...BillItemCommand) CreateBillCommand {
	return CreateBillCommand{
		ShopkeeperID:  shop,
		Customer:      domain.Customer{Name: "Walk-in"},
		Items:         items,
		PaymentMethod: domain.PaymentCash,
	}
}

func TestBillingService_Create_Totals(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	soap := createProduct(t, env, "SOAP", 10, 10, 6, 5)
	rice := createProduct(t, env, "RICE", 10, 20, 15, 0)

	bill, err := env.billing.Create(ctx, billCommand(
		BillItemCommand{ProductID: soap.ID, Quantity: 2},
		BillItemCommand{ProductID: rice.ID, Quantity: 1},
	))
	require.NoError(t, err)

	assert.Equal(t, "40", bill.Subtotal.String())
	assert.Equal(t, "1", bill.TaxTotal.String())
	assert.True(t, bill.DiscountTotal.IsZero())
	assert.Equal(t, "41", bill.GrandTotal.String())
	assert.Equal(t, domain.BillStatusIssued, bill.Status)
	assert.Equal(t, domain.PaymentPending, bill.PaymentStatus)
	assert.Equal(t, domain.FormatBillNumber(domain.BillPeriod(time.Now()), 1), bill.BillNumber)
	assert.True(t, bill.TotalsReconcile())

	assert.Equal(t, int64(8), env.store.product(soap.ID).Quantity)
	assert.Equal(t, int64(9), env.store.product(rice.ID).Quantity)

	sales := env.store.entriesFor(soap.ID)
	require.Len(t, sales, 2)
	assert.Equal(t, domain.MovementSale, sales[1].Type)
	assert.Equal(t, bill.ID, sales[1].Reference)
	assert.Equal(t, domain.ReferenceBill, sales[1].ReferenceType)

	assert.Contains(t, env.store.eventTypes(), cloudevents.BillIssued)
	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.BillsIssued.WithLabelValues("exims-test", "cash")))
	assert.Equal(t, distinctSorted([]string{soap.ID, rice.ID}), env.locker.calls[len(env.locker.calls)-1])
}

func TestBillingService_Create_SaleEntry(t *testing.T) {
	env := newTestEnv()
	p := createProduct(t, env, "TEA", 10, 8, 5, 0)

	bill, err := env.billing.Create(context.Background(), billCommand(BillItemCommand{ProductID: p.ID, Quantity: 3}))
	require.NoError(t, err)

	entries := env.store.entriesFor(p.ID)
	require.Len(t, entries, 2)
	sale := entries[1]
	assert.Equal(t, domain.MovementSale, sale.Type)
	assert.Equal(t, int64(3), sale.Quantity)
	assert.Equal(t, int64(10), sale.QuantityBefore)
	assert.Equal(t, int64(7), sale.QuantityAfter)
	assert.Equal(t, "15", sale.TotalCost.String())
	assert.Equal(t, bill.ID, sale.Reference)
	assert.Equal(t, int64(7), env.store.product(p.ID).Quantity)
}

func TestBillingService_Create_AtomicOnInsufficientStock(t *testing.T) {
	env := newTestEnv()
	first := createProduct(t, env, "FIRST", 10, 5, 1, 0)
	second := createProduct(t, env, "SECOND", 1, 5, 1, 0)
	eventsBefore := len(env.store.eventTypes())

	_, err := env.billing.Create(context.Background(), billCommand(
		BillItemCommand{ProductID: first.ID, Quantity: 4},
		BillItemCommand{ProductID: second.ID, Quantity: 2},
	))

	var stockErr *domain.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, second.ID, stockErr.ProductID)
	assert.Equal(t, int64(1), stockErr.Available)

	assert.Equal(t, int64(10), env.store.product(first.ID).Quantity)
	assert.Len(t, env.store.entriesFor(first.ID), 1, "only the seeding entry remains")
	assert.Empty(t, env.store.bills)
	assert.Empty(t, env.store.sequences)
	assert.Len(t, env.store.eventTypes(), eventsBefore)
	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.InsufficientStockTotal.WithLabelValues("exims-test", "bill.create")))
}

func TestBillingService_Create_MissingProduct(t *testing.T) {
	env := newTestEnv()
	p := createProduct(t, env, "ONE", 10, 5, 1, 0)

	_, err := env.billing.Create(context.Background(), billCommand(
		BillItemCommand{ProductID: p.ID, Quantity: 1},
		BillItemCommand{ProductID: "missing", Quantity: 1},
	))

	var nf *domain.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "missing", nf.ID)
	assert.Equal(t, int64(10), env.store.product(p.ID).Quantity)
	assert.Empty(t, env.store.bills)
}

func TestBillingService_Create_OtherShopkeepersProductIsNotFound(t *testing.T) {
	env := newTestEnv()
	p := createProduct(t, env, "ONE", 10, 5, 1, 0)

	cmd := billCommand(BillItemCommand{ProductID: p.ID, Quantity: 1})
	cmd.ShopkeeperID = "shop-2"
	_, err := env.billing.Create(context.Background(), cmd)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestBillingService_Create_RepeatedProductIsCumulative(t *testing.T) {
	env := newTestEnv()
	p := createProduct(t, env, "EGGS", 5, 1, 1, 0)

	_, err := env.billing.Create(context.Background(), billCommand(
		BillItemCommand{ProductID: p.ID, Quantity: 3},
		BillItemCommand{ProductID: p.ID, Quantity: 3},
	))
	require.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Equal(t, int64(5), env.store.product(p.ID).Quantity)

	_, err = env.billing.Create(context.Background(), billCommand(
		BillItemCommand{ProductID: p.ID, Quantity: 2},
		BillItemCommand{ProductID: p.ID, Quantity: 3},
	))
	require.NoError(t, err)
	assert.Equal(t, int64(0), env.store.product(p.ID).Quantity)

	entries := env.store.entriesFor(p.ID)
	require.Len(t, entries, 3)
	assert.Equal(t, [2]int64{5, 3}, [2]int64{entries[1].QuantityBefore, entries[1].QuantityAfter})
	assert.Equal(t, [2]int64{3, 0}, [2]int64{entries[2].QuantityBefore, entries[2].QuantityAfter})
	assert.Equal(t, [][]string{{p.ID}}, env.locker.calls[len(env.locker.calls)-1:])
}

func TestBillingService_Create_Validation(t *testing.T) {
	env := newTestEnv()

	tests := []struct {
		name string
		cmd  CreateBillCommand
	}{
		{name: "no items", cmd: billCommand()},
		{name: "zero quantity", cmd: billCommand(BillItemCommand{ProductID: "p", Quantity: 0})},
		{name: "negative discount", cmd: billCommand(BillItemCommand{ProductID: "p", Quantity: 1, Discount: domain.NewMoney(-1)})},
		{name: "unknown payment method", cmd: func() CreateBillCommand {
			c := billCommand(BillItemCommand{ProductID: "p", Quantity: 1})
			c.PaymentMethod = "cheque"
			return c
		}()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.billing.Create(context.Background(), tt.cmd)
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}
	assert.Empty(t, env.locker.calls)
}

func TestBillingService_Create_BillNumbersIncrease(t *testing.T) {
	env := newTestEnv()
	p := createProduct(t, env, "PEN", 10, 1, 1, 0)

	first, err := env.billing.Create(context.Background(), billCommand(BillItemCommand{ProductID: p.ID, Quantity: 1}))
	require.NoError(t, err)
	second, err := env.billing.Create(context.Background(), billCommand(BillItemCommand{ProductID: p.ID, Quantity: 1}))
	require.NoError(t, err)

	period := domain.BillPeriod(time.Now())
	assert.Equal(t, domain.FormatBillNumber(period, 1), first.BillNumber)
	assert.Equal(t, domain.FormatBillNumber(period, 2), second.BillNumber)
}

func TestBillingService_Create_RetriesLostRace(t *testing.T) {
	env := newTestEnv()
	p := createProduct(t, env, "MILK", 10, 2, 1, 0)
	env.store.casConflicts = 1

	bill, err := env.billing.Create(context.Background(), billCommand(BillItemCommand{ProductID: p.ID, Quantity: 4}))
	require.NoError(t, err)
	assert.Equal(t, int64(6), env.store.product(p.ID).Quantity)
	assert.Len(t, env.store.entriesFor(p.ID), 2)
	assert.Equal(t, domain.FormatBillNumber(domain.BillPeriod(time.Now()), 1), bill.BillNumber)
	assert.Equal(t, 1, env.store.rollbacks)
	assert.Equal(t, env.locker.released, len(env.locker.calls))
}

func TestBillingService_Create_LockNotObtained(t *testing.T) {
	env := newTestEnv()
	p := createProduct(t, env, "MILK", 10, 2, 1, 0)
	env.locker.failures = 10

	_, err := env.billing.Create(context.Background(), billCommand(BillItemCommand{ProductID: p.ID, Quantity: 1}))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConcurrentModification)
	assert.ErrorIs(t, err, domain.ErrTransactionFailed)
	assert.Len(t, env.locker.calls, 3)
	assert.Equal(t, int64(10), env.store.product(p.ID).Quantity)
}

func TestBillingService_CancelRoundTrip(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	a := createProduct(t, env, "A", 10, 3, 2, 0)
	b := createProduct(t, env, "B", 6, 4, 2, 0)

	bill, err := env.billing.Create(ctx, billCommand(
		BillItemCommand{ProductID: a.ID, Quantity: 4},
		BillItemCommand{ProductID: b.ID, Quantity: 6},
		BillItemCommand{ProductID: a.ID, Quantity: 1},
	))
	require.NoError(t, err)
	require.Equal(t, int64(5), env.store.product(a.ID).Quantity)
	require.Equal(t, int64(0), env.store.product(b.ID).Quantity)

	cancelled, err := env.billing.UpdateStatus(ctx, UpdateBillStatusCommand{
		ShopkeeperID: shop,
		BillID:       bill.ID,
		Status:       domain.BillStatusCancelled,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.BillStatusCancelled, cancelled.Status)
	require.NotNil(t, cancelled.CancelledAt)

	assert.Equal(t, int64(10), env.store.product(a.ID).Quantity)
	assert.Equal(t, int64(6), env.store.product(b.ID).Quantity)

	for _, id := range []string{a.ID, b.ID} {
		var net int64
		for _, e := range env.store.entriesFor(id)[1:] {
			net += e.SignedQuantity()
			assert.True(t, e.IsConsistent())
			if e.Type == domain.MovementReturn {
				assert.Equal(t, domain.BillCancelledReference, e.Reference)
			}
		}
		assert.Zero(t, net, "sale and cancellation net to zero for %s", id)
	}
	assert.Contains(t, env.store.eventTypes(), cloudevents.BillCancelled)

	entries := len(env.store.ledger)
	again, err := env.billing.UpdateStatus(ctx, UpdateBillStatusCommand{
		ShopkeeperID: shop,
		BillID:       bill.ID,
		Status:       domain.BillStatusCancelled,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.BillStatusCancelled, again.Status)
	assert.Len(t, env.store.ledger, entries, "re-cancelling restores nothing")
	assert.Equal(t, int64(10), env.store.product(a.ID).Quantity)

	_, err = env.billing.UpdateStatus(ctx, UpdateBillStatusCommand{
		ShopkeeperID: shop,
		BillID:       bill.ID,
		Status:       domain.BillStatusPaid,
	})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestBillingService_CancelRollsBackOnFailure(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	a := createProduct(t, env, "A", 10, 3, 2, 0)
	b := createProduct(t, env, "B", 10, 3, 2, 0)

	bill, err := env.billing.Create(ctx, billCommand(
		BillItemCommand{ProductID: a.ID, Quantity: 2},
		BillItemCommand{ProductID: b.ID, Quantity: 2},
	))
	require.NoError(t, err)

	env.store.failAppendFor = b.ID
	_, err = env.billing.UpdateStatus(ctx, UpdateBillStatusCommand{
		ShopkeeperID: shop,
		BillID:       bill.ID,
		Status:       domain.BillStatusCancelled,
	})
	require.ErrorIs(t, err, errStorage)

	stored, err := env.billing.Get(ctx, shop, bill.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BillStatusIssued, stored.Status)
	assert.Equal(t, int64(8), env.store.product(a.ID).Quantity)
	assert.Equal(t, int64(8), env.store.product(b.ID).Quantity)
	assert.Len(t, env.store.entriesFor(a.ID), 2)
}

func TestBillingService_UpdateStatus_PaymentDefaults(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	p := createProduct(t, env, "A", 10, 3, 2, 0)
	bill, err := env.billing.Create(ctx, billCommand(BillItemCommand{ProductID: p.ID, Quantity: 1}))
	require.NoError(t, err)
	entries := len(env.store.ledger)

	paid, err := env.billing.UpdateStatus(ctx, UpdateBillStatusCommand{
		ShopkeeperID:  shop,
		BillID:        bill.ID,
		Status:        domain.BillStatusPaid,
		TransactionID: "txn-42",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentCompleted, paid.PaymentStatus)
	assert.Equal(t, "txn-42", paid.TransactionID)
	assert.Len(t, env.store.ledger, entries)
	assert.Empty(t, env.locker.calls[len(env.locker.calls)-1])

	refunded, err := env.billing.UpdateStatus(ctx, UpdateBillStatusCommand{
		ShopkeeperID: shop,
		BillID:       bill.ID,
		Status:       domain.BillStatusRefunded,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentRefunded, refunded.PaymentStatus)
	assert.Equal(t, int64(9), env.store.product(p.ID).Quantity)
	assert.Contains(t, env.store.eventTypes(), cloudevents.BillStatusChanged)
}

func TestBillingService_UpdateStatus_NotFound(t *testing.T) {
	env := newTestEnv()
	_, err := env.billing.UpdateStatus(context.Background(), UpdateBillStatusCommand{
		ShopkeeperID: shop,
		BillID:       "nope",
		Status:       domain.BillStatusPaid,
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = env.billing.UpdateStatus(context.Background(), UpdateBillStatusCommand{
		ShopkeeperID: shop,
		BillID:       "nope",
		Status:       "archived",
	})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestBillingService_ListAndStats(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	p := createProduct(t, env, "A", 20, 10, 2, 10)

	first, err := env.billing.Create(ctx, billCommand(BillItemCommand{ProductID: p.ID, Quantity: 2}))
	require.NoError(t, err)
	card := billCommand(BillItemCommand{ProductID: p.ID, Quantity: 1, Discount: domain.NewMoney(1)})
	card.PaymentMethod = domain.PaymentCard
	_, err = env.billing.Create(ctx, card)
	require.NoError(t, err)
	cancelled, err := env.billing.Create(ctx, billCommand(BillItemCommand{ProductID: p.ID, Quantity: 5}))
	require.NoError(t, err)
	_, err = env.billing.UpdateStatus(ctx, UpdateBillStatusCommand{ShopkeeperID: shop, BillID: cancelled.ID, Status: domain.BillStatusCancelled})
	require.NoError(t, err)

	stats, err := env.billing.Stats(ctx, shop, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.BillCount)
	assert.Equal(t, int64(3), stats.ItemsSold)
	// 22 + (11 - 1)
	assert.Equal(t, "32", stats.TotalSales.String())
	assert.Equal(t, "3", stats.TotalTax.String())
	assert.Equal(t, "1", stats.TotalDiscount.String())
	assert.Equal(t, "16", stats.AverageBill.String())
	assert.Len(t, stats.ByPaymentMethod, 2)

	status := domain.BillStatusIssued
	listed, err := env.billing.List(ctx, ListBillsQuery{ShopkeeperID: shop, Status: &status, Pagination: domain.DefaultPagination()})
	require.NoError(t, err)
	assert.Equal(t, int64(2), listed.Total)
	require.Len(t, listed.Items, 2)
	assert.Contains(t, []string{listed.Items[0].ID, listed.Items[1].ID}, first.ID)
}
