package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBusinessCounters(t *testing.T) {
	m := New(DefaultConfig("exims-api"))

	m.RecordBillIssued("cash")
	m.RecordBillIssued("cash")
	m.RecordBillStatusChange("issued", "cancelled")
	m.RecordStockMovement("sale", 3)
	m.RecordInsufficientStock("bill.create")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.BillsIssued.WithLabelValues("exims-api", "cash")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BillsCancelled))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.StockMovements.WithLabelValues("exims-api", "sale")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.InsufficientStockTotal.WithLabelValues("exims-api", "bill.create")))
}

func TestHandler_ExposesRegisteredMetrics(t *testing.T) {
	m := New(DefaultConfig("exims-api"))
	m.RecordHTTPRequest("GET", "/api/v1/bills", 200, 15*time.Millisecond)
	m.RecordTransaction(true)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	require.Equal(t, 200, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, "exims_http_requests_total"))
	assert.True(t, strings.Contains(body, "exims_mongodb_transactions_total"))
}
