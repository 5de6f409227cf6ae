package cloudevents

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/muhammadanas59525/expiry-inventory-management-sub000/pkg/logging"
	"github.com/muhammadanas59525/expiry-inventory-management-sub000/pkg/tenant"
)

func TestCreateEvent_CarriesContext(t *testing.T) {
	ctx := tenant.ToContext(context.Background(), &tenant.Context{ShopkeeperID: "shop-1"})
	ctx = logging.ContextWithCorrelationID(ctx, "corr-1")

	event := NewEventFactory().CreateEvent(ctx, BillIssued, "bill/b1", map[string]any{"billNumber": "BILL-2601-0001"})

	assert.Equal(t, "1.0", event.SpecVersion)
	assert.Equal(t, SourceBilling, event.Source)
	assert.Equal(t, "corr-1", event.CorrelationID)
	assert.Equal(t, "shop-1", event.ShopkeeperID)
	assert.NotEmpty(t, event.ID)
}

func TestTopicFor(t *testing.T) {
	assert.Equal(t, TopicBillingEvents, TopicFor(BillCancelled))
	assert.Equal(t, TopicInventoryEvents, TopicFor(StockMoved))
	assert.Equal(t, TopicSupplierEvents, TopicFor(SupplierCreditAdjusted))
}
