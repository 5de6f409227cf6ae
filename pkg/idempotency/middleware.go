package idempotency

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/muhammadanas59525/expiry-inventory-management-sub000/pkg/errors"
	"github.com/muhammadanas59525/expiry-inventory-management-sub000/pkg/middleware"
)

// HeaderIdempotencyKey is the HTTP header name for the idempotency key
const HeaderIdempotencyKey = "Idempotency-Key"

const contextKeyRetryable = "idempotency.retryable"

// MarkRetryable flags the current response as one the client should retry
// with the same key. The key is released instead of storing the response.
func MarkRetryable(c *gin.Context) {
	c.Set(contextKeyRetryable, true)
}

// responseWriter captures the response so it can be replayed
type responseWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *responseWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *responseWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// Middleware replays the stored response for a repeated Idempotency-Key.
// Requests without the header pass through. A key still in flight gets 409,
// a key reused with a different body gets 422. Server errors and responses
// marked with MarkRetryable release the key.
func Middleware(config *Config, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := NormalizeKey(c.GetHeader(HeaderIdempotencyKey))
		if key == "" {
			c.Next()
			return
		}

		if err := ValidateKey(key, config.MaxKeyLength); err != nil {
			middleware.AbortWithAppError(c, errors.ErrBadRequest("invalid Idempotency-Key: "+err.Error()))
			return
		}

		var scope string
		if config.ScopeExtractor != nil {
			scope = config.ScopeExtractor(c)
		}

		var body []byte
		if c.Request.Body != nil {
			body, _ = io.ReadAll(c.Request.Body)
			c.Request.Body = io.NopCloser(bytes.NewReader(body))
		}

		now := time.Now().UTC().Truncate(time.Millisecond)
		record := &IdempotencyKey{
			ID:                 uuid.New().String(),
			Key:                key,
			Scope:              scope,
			ServiceID:          config.ServiceName,
			RequestPath:        c.Request.URL.Path,
			RequestMethod:      c.Request.Method,
			RequestFingerprint: ComputeFingerprint(c.Request.Method, c.Request.URL.Path, body),
			LockedAt:           &now,
			CreatedAt:          now,
			ExpiresAt:          now.Add(config.RetentionPeriod),
		}

		ctx := c.Request.Context()
		stored, isNew, err := config.Repository.AcquireLock(ctx, record)
		if err != nil {
			logger.Error("Failed to acquire idempotency lock", "error", err, "key", key, "path", c.Request.URL.Path)
			middleware.AbortWithAppError(c, errors.ErrServiceUnavailable("idempotency storage"))
			return
		}

		if !isNew {
			if stored.RequestFingerprint != record.RequestFingerprint {
				logger.Warn("Idempotency parameter mismatch", "key", key, "path", c.Request.URL.Path)
				middleware.AbortWithAppError(c, errors.ErrUnprocessable(ErrParameterMismatch.Error()))
				return
			}

			if stored.IsCompleted() {
				for k, v := range stored.ResponseHeaders {
					c.Header(k, v)
				}
				c.Header("Idempotent-Replayed", "true")
				c.Data(stored.ResponseCode, "application/json; charset=utf-8", stored.ResponseBody)
				c.Abort()
				return
			}

			if stored.IsLocked() && time.Since(*stored.LockedAt) < config.LockTimeout {
				middleware.AbortWithAppError(c, errors.ErrConflict(ErrConcurrentRequest.Error()))
				return
			}
			logger.Info("Stale idempotency lock, proceeding", "key", key, "path", c.Request.URL.Path)
		}

		writer := &responseWriter{ResponseWriter: c.Writer, body: &bytes.Buffer{}}
		c.Writer = writer

		c.Next()

		status := writer.Status()
		if status >= http.StatusInternalServerError || c.GetBool(contextKeyRetryable) {
			if err := config.Repository.ReleaseLock(ctx, stored.ID); err != nil {
				logger.Error("Failed to release idempotency key", "error", err, "key", key)
			}
			return
		}

		responseBody := writer.body.Bytes()
		if len(responseBody) > config.MaxResponseSize {
			logger.Warn("Response too large to cache", "key", key, "size", len(responseBody))
			if err := config.Repository.ReleaseLock(ctx, stored.ID); err != nil {
				logger.Error("Failed to release idempotency key", "error", err, "key", key)
			}
			return
		}

		headers := map[string]string{}
		for _, h := range []string{"Location"} {
			if v := writer.Header().Get(h); v != "" {
				headers[h] = v
			}
		}

		if err := config.Repository.StoreResponse(ctx, stored.ID, status, responseBody, headers); err != nil {
			logger.Error("Failed to store idempotency response", "error", err, "key", key)
		}
	}
}
