package mongodb

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/muhammadanas59525/expiry-inventory-management-sub000/internal/domain"
	"github.com/muhammadanas59525/expiry-inventory-management-sub000/pkg/logging"
	sharedMongo "github.com/muhammadanas59525/expiry-inventory-management-sub000/pkg/mongodb"
	testutil "github.com/muhammadanas59525/expiry-inventory-management-sub000/pkg/testing"
)

type RepositoryIntegrationSuite struct {
	suite.Suite
	container *testutil.MongoDBContainer
	client    *sharedMongo.Client
	db        *mongo.Database
	products  *ProductRepository
	ledger    *LedgerRepository
	bills     *BillRepository
	sequence  *BillSequenceRepository
	uow       *TransactionManager
}

func TestRepositoryIntegrationSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	suite.Run(t, new(RepositoryIntegrationSuite))
}

func (s *RepositoryIntegrationSuite) SetupSuite() {
	ctx := context.Background()

	container, err := testutil.NewMongoDBContainer(ctx)
	s.Require().NoError(err)
	s.container = container

	cfg := sharedMongo.DefaultConfig()
	cfg.URI = container.URI
	cfg.Database = "exims_repo_test"
	cfg.Direct = true
	client, err := sharedMongo.NewClient(ctx, cfg)
	s.Require().NoError(err)
	s.client = client
	s.db = client.Database()
}

func (s *RepositoryIntegrationSuite) TearDownSuite() {
	ctx := context.Background()
	if s.client != nil {
		_ = s.client.Close(ctx)
	}
	if s.container != nil {
		_ = s.container.Close(ctx)
	}
}

func (s *RepositoryIntegrationSuite) SetupTest() {
	ctx := context.Background()
	s.Require().NoError(s.db.Drop(ctx))

	var err error
	s.products, err = NewProductRepository(ctx, s.db)
	s.Require().NoError(err)
	s.ledger, err = NewLedgerRepository(ctx, s.db)
	s.Require().NoError(err)
	s.bills, err = NewBillRepository(ctx, s.db)
	s.Require().NoError(err)
	s.sequence = NewBillSequenceRepository(s.db)
	s.uow = NewTransactionManager(s.client, logging.NewNop())
}

func (s *RepositoryIntegrationSuite) seed(id string, qty int64, cost int64) *domain.Product {
	ctx := context.Background()
	p := &domain.Product{ID: id, ShopkeeperID: "shop-1", SKU: "SKU-" + id, Name: id, Cost: domain.MoneyFromInt(cost), Quantity: qty, LowStockThreshold: 5}
	s.Require().NoError(s.products.Create(ctx, p))

	entry, err := domain.NewLedgerEntry(domain.LedgerEntryParams{
		ProductID:    id,
		ShopkeeperID: "shop-1",
		Type:         domain.MovementPurchase,
		Delta:        qty,
		UnitCost:     p.Cost,
	}, sharedMongo.Now())
	s.Require().NoError(err)
	s.Require().NoError(s.ledger.Append(ctx, entry))
	return p
}

func (s *RepositoryIntegrationSuite) TestRollbackLeavesNoTrace() {
	ctx := context.Background()
	s.seed("p1", 10, 5)

	boom := errors.New("boom")
	err := s.uow.Do(ctx, func(ctx context.Context) error {
		if err := s.products.UpdateQuantity(ctx, "shop-1", "p1", 10, 7); err != nil {
			return err
		}
		entry, err := domain.NewLedgerEntry(domain.LedgerEntryParams{
			ProductID: "p1", ShopkeeperID: "shop-1", Type: domain.MovementSale, QuantityBefore: 10, Delta: -3,
		}, sharedMongo.Now())
		if err != nil {
			return err
		}
		if err := s.ledger.Append(ctx, entry); err != nil {
			return err
		}
		return boom
	})
	s.Require().Error(err)

	p, err := s.products.FindByID(ctx, "shop-1", "p1")
	s.Require().NoError(err)
	s.Equal(int64(10), p.Quantity)

	count, err := s.ledger.Count(ctx, domain.LedgerFilter{ShopkeeperID: "shop-1"})
	s.Require().NoError(err)
	s.Equal(int64(1), count)
}

func (s *RepositoryIntegrationSuite) TestCompareAndSet() {
	ctx := context.Background()
	s.seed("p1", 10, 5)

	s.Require().NoError(s.products.UpdateQuantity(ctx, "shop-1", "p1", 10, 8))
	s.ErrorIs(s.products.UpdateQuantity(ctx, "shop-1", "p1", 10, 6), domain.ErrConcurrentModification)
}

func (s *RepositoryIntegrationSuite) TestStockValueUsesLatestEntry() {
	ctx := context.Background()
	s.seed("p1", 10, 5)
	s.seed("p2", 4, 10)

	sale, err := domain.NewLedgerEntry(domain.LedgerEntryParams{
		ProductID: "p1", ShopkeeperID: "shop-1", Type: domain.MovementSale, QuantityBefore: 10, Delta: -3, UnitCost: domain.MoneyFromInt(5),
	}, sharedMongo.Now())
	s.Require().NoError(err)
	s.Require().NoError(s.ledger.Append(ctx, sale))

	value, err := s.ledger.StockValue(ctx, "shop-1")
	s.Require().NoError(err)
	s.Equal("75", value.String())

	latest, err := s.ledger.Latest(ctx, "shop-1", "p1")
	s.Require().NoError(err)
	s.Equal(int64(7), latest.QuantityAfter)

	low, err := s.products.CountLowStock(ctx, "shop-1")
	s.Require().NoError(err)
	s.Equal(int64(1), low)
}

func (s *RepositoryIntegrationSuite) TestSequenceIsPerPeriodAndRollsBack() {
	ctx := context.Background()

	n, err := s.sequence.Next(ctx, "2603")
	s.Require().NoError(err)
	s.Equal(int64(1), n)

	_ = s.uow.Do(ctx, func(ctx context.Context) error {
		_, err := s.sequence.Next(ctx, "2603")
		s.Require().NoError(err)
		return domain.NewValidationError("items", "rejected")
	})

	n, err = s.sequence.Next(ctx, "2603")
	s.Require().NoError(err)
	s.Equal(int64(2), n)

	n, err = s.sequence.Next(ctx, "2604")
	s.Require().NoError(err)
	s.Equal(int64(1), n)
}

func (s *RepositoryIntegrationSuite) TestDuplicateSKU() {
	ctx := context.Background()
	s.seed("p1", 1, 1)

	err := s.products.Create(ctx, &domain.Product{ID: "p2", ShopkeeperID: "shop-1", SKU: "SKU-p1", CreatedAt: time.Now()})
	s.ErrorIs(err, domain.ErrConflict)

	// same SKU under another shopkeeper is fine
	err = s.products.Create(ctx, &domain.Product{ID: "p3", ShopkeeperID: "shop-2", SKU: "SKU-p1"})
	s.NoError(err)

	n, err := s.db.Collection(productsCollection).CountDocuments(ctx, bson.M{})
	s.Require().NoError(err)
	s.Equal(int64(2), n)
}

func (s *RepositoryIntegrationSuite) issue(shopkeeperID string, method domain.PaymentMethod, at time.Time, lines ...domain.BillLine) *domain.Bill {
	bill, err := domain.NewBill(domain.NewBillParams{
		ShopkeeperID:  shopkeeperID,
		Customer:      domain.Customer{Name: "Walk-in"},
		Lines:         lines,
		PaymentMethod: method,
	}, at)
	s.Require().NoError(err)
	bill.BillNumber = "INV-" + bill.ID
	return bill
}

func (s *RepositoryIntegrationSuite) line(p *domain.Product, qty int64, discount domain.Money) domain.BillLine {
	l, err := domain.NewBillLine(p, qty, discount)
	s.Require().NoError(err)
	return l
}

func (s *RepositoryIntegrationSuite) TestSalesStats() {
	ctx := context.Background()
	rice := &domain.Product{ID: "rice", Price: domain.MoneyFromInt(100), TaxRate: 5}
	tea := &domain.Product{ID: "tea", Price: domain.MoneyFromInt(20)}

	day1 := time.Date(2026, 10, 5, 10, 0, 0, 0, time.UTC)
	day2 := time.Date(2026, 10, 20, 10, 0, 0, 0, time.UTC)

	cancelled := s.issue("shop-1", domain.PaymentCash, day1, s.line(rice, 4, domain.Zero))
	cancelled.Status = domain.BillStatusCancelled

	for _, b := range []*domain.Bill{
		s.issue("shop-1", domain.PaymentCash, day1, s.line(rice, 2, domain.Zero), s.line(tea, 3, domain.Zero)),
		s.issue("shop-1", domain.PaymentUPI, day1, s.line(tea, 1, domain.MoneyFromInt(5))),
		s.issue("shop-1", domain.PaymentCard, day2, s.line(rice, 1, domain.Zero)),
		s.issue("shop-2", domain.PaymentCash, day1, s.line(rice, 9, domain.Zero)),
		cancelled,
	} {
		s.Require().NoError(s.bills.Create(ctx, b))
	}

	stats, err := s.bills.Stats(ctx, "shop-1", nil, nil)
	s.Require().NoError(err)
	s.Equal(int64(3), stats.BillCount)
	s.Equal(int64(7), stats.ItemsSold)
	s.Truef(stats.TotalSales.Equal(domain.MoneyFromInt(390)), "total sales %s", stats.TotalSales)
	s.Truef(stats.TotalTax.Equal(domain.MoneyFromInt(15)), "total tax %s", stats.TotalTax)
	s.Truef(stats.TotalDiscount.Equal(domain.MoneyFromInt(5)), "total discount %s", stats.TotalDiscount)
	s.Truef(stats.AverageBill.Equal(domain.MoneyFromInt(130)), "average bill %s", stats.AverageBill)

	s.Require().Len(stats.ByPaymentMethod, 3)
	s.Equal(domain.PaymentCard, stats.ByPaymentMethod[0].Method)
	s.Equal(domain.PaymentCash, stats.ByPaymentMethod[1].Method)
	s.Equal(int64(1), stats.ByPaymentMethod[1].Count)
	s.Truef(stats.ByPaymentMethod[1].Total.Equal(domain.MoneyFromInt(270)), "cash total %s", stats.ByPaymentMethod[1].Total)
	s.Equal(domain.PaymentUPI, stats.ByPaymentMethod[2].Method)

	from := time.Date(2026, 10, 5, 0, 0, 0, 0, time.UTC)
	to := from.Add(24*time.Hour - time.Nanosecond)
	stats, err = s.bills.Stats(ctx, "shop-1", &from, &to)
	s.Require().NoError(err)
	s.Equal(int64(2), stats.BillCount)
	s.Equal(int64(6), stats.ItemsSold)
	s.Truef(stats.TotalSales.Equal(domain.MoneyFromInt(285)), "total sales %s", stats.TotalSales)
	s.Truef(stats.AverageBill.Equal(domain.NewMoney(142.5)), "average bill %s", stats.AverageBill)

	stats, err = s.bills.Stats(ctx, "shop-3", nil, nil)
	s.Require().NoError(err)
	s.Zero(stats.BillCount)
	s.True(stats.AverageBill.IsZero())
	s.Empty(stats.ByPaymentMethod)
}

func (s *RepositoryIntegrationSuite) TestMovementStats() {
	ctx := context.Background()
	s.seed("p1", 10, 5)
	s.seed("p2", 4, 10)

	sale, err := domain.NewLedgerEntry(domain.LedgerEntryParams{
		ProductID: "p1", ShopkeeperID: "shop-1", Type: domain.MovementSale, QuantityBefore: 10, Delta: -3, UnitCost: domain.MoneyFromInt(5),
	}, sharedMongo.Now())
	s.Require().NoError(err)
	s.Require().NoError(s.ledger.Append(ctx, sale))

	expiredAt := time.Date(2026, 1, 15, 8, 0, 0, 0, time.UTC)
	expired, err := domain.NewLedgerEntry(domain.LedgerEntryParams{
		ProductID: "p2", ShopkeeperID: "shop-1", Type: domain.MovementExpired, QuantityBefore: 4, Delta: -1, UnitCost: domain.MoneyFromInt(10),
	}, expiredAt)
	s.Require().NoError(err)
	s.Require().NoError(s.ledger.Append(ctx, expired))

	other, err := domain.NewLedgerEntry(domain.LedgerEntryParams{
		ProductID: "x1", ShopkeeperID: "shop-2", Type: domain.MovementPurchase, Delta: 50, UnitCost: domain.MoneyFromInt(1),
	}, sharedMongo.Now())
	s.Require().NoError(err)
	s.Require().NoError(s.ledger.Append(ctx, other))

	stats, err := s.ledger.MovementStats(ctx, "shop-1", nil, nil)
	s.Require().NoError(err)
	s.Require().Len(stats, 3)

	s.Equal(domain.MovementExpired, stats[0].Type)
	s.Equal(int64(1), stats[0].Count)
	s.Equal(int64(1), stats[0].Quantity)

	s.Equal(domain.MovementPurchase, stats[1].Type)
	s.Equal(int64(2), stats[1].Count)
	s.Equal(int64(14), stats[1].Quantity)
	s.Truef(stats[1].TotalCost.Equal(domain.MoneyFromInt(90)), "purchase cost %s", stats[1].TotalCost)

	s.Equal(domain.MovementSale, stats[2].Type)
	s.Equal(int64(3), stats[2].Quantity)
	s.Truef(stats[2].TotalCost.Equal(domain.MoneyFromInt(15)), "sale cost %s", stats[2].TotalCost)

	from := expiredAt.Add(24 * time.Hour)
	stats, err = s.ledger.MovementStats(ctx, "shop-1", &from, nil)
	s.Require().NoError(err)
	s.Require().Len(stats, 2)
	s.Equal(domain.MovementPurchase, stats[0].Type)
	s.Equal(domain.MovementSale, stats[1].Type)

	stats, err = s.ledger.MovementStats(ctx, "shop-3", nil, nil)
	s.Require().NoError(err)
	s.Empty(stats)
}
