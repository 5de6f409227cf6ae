package kafka

import (
	"time"

	"github.com/muhammadanas59525/expiry-inventory-management-sub000/pkg/cloudevents"
)

// Config holds Kafka configuration
type Config struct {
	Brokers  []string
	ClientID string

	// Producer settings
	BatchSize    int
	BatchTimeout time.Duration
	WriteTimeout time.Duration
	RequiredAcks int // 0: no ack, 1: leader ack, -1: all replicas ack
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Brokers:      []string{"localhost:9092"},
		ClientID:     "exims-api",
		BatchSize:    100,
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: 10 * time.Second,
		RequiredAcks: -1,
	}
}

// Topics contains the topics the engine publishes to
var Topics = struct {
	InventoryEvents string
	BillingEvents   string
	SupplierEvents  string
}{
	InventoryEvents: cloudevents.TopicInventoryEvents,
	BillingEvents:   cloudevents.TopicBillingEvents,
	SupplierEvents:  cloudevents.TopicSupplierEvents,
}
