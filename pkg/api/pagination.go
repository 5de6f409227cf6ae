package api

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	DefaultPageSize int64 = 20
	MaxPageSize     int64 = 100
	// MaxPage keeps the skip offset far from int64 overflow
	MaxPage int64 = 1_000_000
)

// PageRequest represents pagination request parameters
type PageRequest struct {
	Page     int64 `form:"page" json:"page"`
	PageSize int64 `form:"pageSize" json:"pageSize"`
}

// PageResponse is the list envelope: {success, data, total, page, pages}
type PageResponse[T any] struct {
	Success  bool  `json:"success"`
	Data     []T   `json:"data"`
	Total    int64 `json:"total"`
	Page     int64 `json:"page"`
	Pages    int64 `json:"pages"`
	PageSize int64 `json:"pageSize"`
}

// NewPageResponse creates a new paginated response
func NewPageResponse[T any](data []T, page, pageSize, total int64) PageResponse[T] {
	if data == nil {
		data = []T{}
	}

	pages := int64(0)
	if pageSize > 0 {
		pages = (total + pageSize - 1) / pageSize
	}

	return PageResponse[T]{
		Success:  true,
		Data:     data,
		Total:    total,
		Page:     page,
		Pages:    pages,
		PageSize: pageSize,
	}
}

// ParsePagination parses pagination parameters from Gin context.
// "limit" is accepted as an alias of "pageSize".
func ParsePagination(c *gin.Context) PageRequest {
	page, _ := strconv.ParseInt(c.DefaultQuery("page", "1"), 10, 64)
	sizeParam := c.Query("pageSize")
	if sizeParam == "" {
		sizeParam = c.DefaultQuery("limit", strconv.FormatInt(DefaultPageSize, 10))
	}
	pageSize, _ := strconv.ParseInt(sizeParam, 10, 64)

	if page < 1 {
		page = 1
	}
	if page > MaxPage {
		page = MaxPage
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}

	return PageRequest{
		Page:     page,
		PageSize: pageSize,
	}
}

// DateRange is an optional [From, To] window parsed from query parameters
type DateRange struct {
	From *time.Time
	To   *time.Time
}

// ParseDateRange reads "from" and "to" query parameters. Both accept RFC3339 or
// YYYY-MM-DD; a bare "to" date covers the whole day.
func ParseDateRange(c *gin.Context) (DateRange, error) {
	var r DateRange

	if v := c.Query("from"); v != "" {
		t, err := parseTime(v, false)
		if err != nil {
			return r, err
		}
		r.From = &t
	}
	if v := c.Query("to"); v != "" {
		t, err := parseTime(v, true)
		if err != nil {
			return r, err
		}
		r.To = &t
	}

	return r, nil
}

func parseTime(v string, endOfDay bool) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return time.Time{}, err
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t.UTC(), nil
}
