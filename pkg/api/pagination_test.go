package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func contextFor(target string) *gin.Context {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, target, nil)
	return c
}

func TestParsePagination(t *testing.T) {
	tests := []struct {
		query string
		want  PageRequest
	}{
		{"", PageRequest{Page: 1, PageSize: DefaultPageSize}},
		{"?page=3&pageSize=10", PageRequest{Page: 3, PageSize: 10}},
		{"?page=2&limit=5", PageRequest{Page: 2, PageSize: 5}},
		{"?page=-4&pageSize=0", PageRequest{Page: 1, PageSize: DefaultPageSize}},
		{"?pageSize=5000", PageRequest{Page: 1, PageSize: MaxPageSize}},
		{"?page=abc", PageRequest{Page: 1, PageSize: DefaultPageSize}},
		{"?page=9223372036854775807&pageSize=100", PageRequest{Page: MaxPage, PageSize: 100}},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			assert.Equal(t, tt.want, ParsePagination(contextFor("/items"+tt.query)))
		})
	}
}

func TestParseDateRange(t *testing.T) {
	r, err := ParseDateRange(contextFor("/items?from=2026-10-01&to=2026-10-31"))
	require.NoError(t, err)
	require.NotNil(t, r.From)
	require.NotNil(t, r.To)
	assert.Equal(t, "2026-10-01T00:00:00Z", r.From.Format("2006-01-02T15:04:05Z07:00"))
	assert.Equal(t, 23, r.To.Hour())
	assert.Equal(t, 31, r.To.Day())

	r, err = ParseDateRange(contextFor("/items?from=2026-10-01T08:30:00%2B05:30"))
	require.NoError(t, err)
	assert.Equal(t, 3, r.From.Hour())
	assert.Nil(t, r.To)

	_, err = ParseDateRange(contextFor("/items?to=yesterday"))
	assert.Error(t, err)
}
