package cloudevents

import (
	"strings"
	"time"
)

// Event types emitted by the ledger and billing engine
const (
	// Inventory events
	StockMoved     = "exims.inventory.stock-moved"
	StockAdjusted  = "exims.inventory.stock-adjusted"
	LowStockAlert  = "exims.inventory.low-stock-alert"
	ProductCreated = "exims.inventory.product-created"
	ProductDeleted = "exims.inventory.product-deleted"

	// Billing events
	BillIssued        = "exims.billing.bill-issued"
	BillStatusChanged = "exims.billing.bill-status-changed"
	BillCancelled     = "exims.billing.bill-cancelled"

	// Supplier events
	SupplierCreditAdjusted = "exims.supplier.credit-adjusted"
)

// Source constants for event sources
const (
	SourceInventory = "/exims/inventory"
	SourceBilling   = "/exims/billing"
	SourceSupplier  = "/exims/supplier"
)

// Topics
const (
	TopicInventoryEvents = "exims.inventory.events"
	TopicBillingEvents   = "exims.billing.events"
	TopicSupplierEvents  = "exims.supplier.events"
)

// EximsCloudEvent is a CloudEvents v1.0 envelope
type EximsCloudEvent struct {
	SpecVersion     string    `json:"specversion"`
	Type            string    `json:"type"`
	Source          string    `json:"source"`
	Subject         string    `json:"subject,omitempty"`
	ID              string    `json:"id"`
	Time            time.Time `json:"time"`
	DataContentType string    `json:"datacontenttype"`
	Data            any       `json:"data"`

	// extensions
	CorrelationID string `json:"eximscorrelationid,omitempty"`
	ShopkeeperID  string `json:"eximsshopkeeperid,omitempty"`
	TraceParent   string `json:"traceparent,omitempty"`
}

// TopicFor routes an event type to its topic
func TopicFor(eventType string) string {
	switch {
	case strings.HasPrefix(eventType, "exims.billing."):
		return TopicBillingEvents
	case strings.HasPrefix(eventType, "exims.supplier."):
		return TopicSupplierEvents
	default:
		return TopicInventoryEvents
	}
}

// SourceFor returns the event source for a topic
func SourceFor(topic string) string {
	switch topic {
	case TopicBillingEvents:
		return SourceBilling
	case TopicSupplierEvents:
		return SourceSupplier
	default:
		return SourceInventory
	}
}
