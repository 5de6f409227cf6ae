package redis

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/bsm/redislock"
	goredis "github.com/redis/go-redis/v9"

	"github.com/muhammadanas59525/expiry-inventory-management-sub000/internal/domain"
	"github.com/muhammadanas59525/expiry-inventory-management-sub000/pkg/logging"
	"github.com/muhammadanas59525/expiry-inventory-management-sub000/pkg/metrics"
)

const (
	defaultLockTTL    = 10 * time.Second
	defaultRetryEvery = 50 * time.Millisecond
	defaultMaxRetries = 40
)

// Config configures StockLocker
type Config struct {
	TTL        time.Duration
	RetryEvery time.Duration
	MaxRetries int
}

// DefaultConfig waits up to roughly two seconds for a busy product
func DefaultConfig() *Config {
	return &Config{
		TTL:        defaultLockTTL,
		RetryEvery: defaultRetryEvery,
		MaxRetries: defaultMaxRetries,
	}
}

// StockLocker implements domain.StockLocker with one redis lock per product
type StockLocker struct {
	locker  *redislock.Client
	config  *Config
	metrics *metrics.Metrics
	logger  *logging.Logger
}

// NewStockLocker creates a new StockLocker
func NewStockLocker(client goredis.UniversalClient, config *Config, m *metrics.Metrics, logger *logging.Logger) *StockLocker {
	if config == nil {
		config = DefaultConfig()
	}
	return &StockLocker{
		locker:  redislock.New(client),
		config:  config,
		metrics: m,
		logger:  logger.WithComponent("stock-locker"),
	}
}

// LockKeys returns the distinct lock keys for productIDs in acquisition order
func LockKeys(shopkeeperID string, productIDs ...string) []string {
	seen := make(map[string]struct{}, len(productIDs))
	keys := make([]string, 0, len(productIDs))
	for _, id := range productIDs {
		if _, ok := seen[id]; ok || id == "" {
			continue
		}
		seen[id] = struct{}{}
		keys = append(keys, "lock:stock:"+shopkeeperID+":"+id)
	}
	sort.Strings(keys)
	return keys
}

// Lock obtains every product lock in sorted order. When one cannot be
// obtained, the ones already held are released and a retryable
// domain.TransactionFailure is returned.
func (l *StockLocker) Lock(ctx context.Context, shopkeeperID string, productIDs ...string) (func(), error) {
	start := time.Now()
	keys := LockKeys(shopkeeperID, productIDs...)
	held := make([]*redislock.Lock, 0, len(keys))

	release := func() {
		// background ctx so a cancelled request still frees its locks
		releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		for i := len(held) - 1; i >= 0; i-- {
			if err := held[i].Release(releaseCtx); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
				l.logger.WithError(err).Warn("Failed to release stock lock", "key", held[i].Key())
			}
		}
	}

	opts := &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(l.config.RetryEvery), l.config.MaxRetries),
	}

	for _, key := range keys {
		lock, err := l.locker.Obtain(ctx, key, l.config.TTL, opts)
		if err != nil {
			release()
			if errors.Is(err, redislock.ErrNotObtained) {
				l.logger.WithContext(ctx).Warn("Could not obtain stock lock", "key", key)
				err = domain.ErrConcurrentModification
			}
			return func() {}, &domain.TransactionFailure{Op: "stock.lock", Err: err}
		}
		held = append(held, lock)
	}

	if l.metrics != nil {
		l.metrics.ObserveStockLockWait(time.Since(start))
	}
	return release, nil
}

// NoopLocker is used when redis is not configured; serialization then relies
// on transaction write conflicts and the compare-and-set quantity update.
type NoopLocker struct{}

// Lock returns immediately
func (NoopLocker) Lock(context.Context, string, ...string) (func(), error) {
	return func() {}, nil
}
