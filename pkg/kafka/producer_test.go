package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muhammadanas59525/expiry-inventory-management-sub000/pkg/cloudevents"
	"github.com/muhammadanas59525/expiry-inventory-management-sub000/pkg/logging"
	"github.com/muhammadanas59525/expiry-inventory-management-sub000/pkg/metrics"
	"github.com/muhammadanas59525/expiry-inventory-management-sub000/pkg/resilience"
)

type recordingWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *recordingWriter) Close() error { return nil }

func newTestProducer(w *recordingWriter) *Producer {
	p := NewProducer(DefaultConfig())
	p.newWriter = func(string) MessageWriter { return w }
	return p
}

func testEvent() *cloudevents.EximsCloudEvent {
	return &cloudevents.EximsCloudEvent{
		SpecVersion:     "1.0",
		Type:            cloudevents.BillIssued,
		Source:          cloudevents.SourceBilling,
		Subject:         "bill/b1",
		ID:              "evt-1",
		Time:            time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		DataContentType: "application/json",
		Data:            map[string]any{"billNumber": "BILL-2603-0001"},
		CorrelationID:   "corr-1",
		ShopkeeperID:    "shop-1",
	}
}

func TestProducer_PublishEvent_Headers(t *testing.T) {
	w := &recordingWriter{}
	p := newTestProducer(w)

	require.NoError(t, p.PublishEvent(context.Background(), Topics.BillingEvents, testEvent()))
	require.Len(t, w.msgs, 1)

	msg := w.msgs[0]
	assert.Equal(t, "bill/b1", string(msg.Key))

	headers := map[string]string{}
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	assert.Equal(t, cloudevents.BillIssued, headers["ce-type"])
	assert.Equal(t, "corr-1", headers["ce-eximscorrelationid"])
	assert.Equal(t, "shop-1", headers["ce-eximsshopkeeperid"])

	var body map[string]any
	require.NoError(t, json.Unmarshal(msg.Value, &body))
	assert.Equal(t, "evt-1", body["id"])
}

func TestInstrumentedProducer_OpensBreaker(t *testing.T) {
	w := &recordingWriter{err: errors.New("broker down")}
	ip := NewInstrumentedProducer(newTestProducer(w), metrics.New(metrics.DefaultConfig("test")), logging.NewNop())

	for i := 0; i < int(resilience.DefaultFailureThreshold); i++ {
		assert.Error(t, ip.PublishEvent(context.Background(), Topics.BillingEvents, testEvent()))
	}

	err := ip.PublishEvent(context.Background(), Topics.BillingEvents, testEvent())
	assert.ErrorIs(t, err, resilience.ErrCircuitOpen)
}
