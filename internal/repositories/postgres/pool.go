package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/chrisdamba/cotraffic/internal/logging"
	"github.com/jackc/pgx/v5/pgxpool"
)

const connectRetryInterval = 2 * time.Second

// Connect opens a pool and pings it, trying up to attempts times with a
// constant pause in between.
func Connect(ctx context.Context, url string, attempts int, logger *slog.Logger) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("invalid postgres url: %w", err)
	}
	if logger == nil {
		logger = logging.Discard()
	}
	if attempts < 1 {
		attempts = 1
	}

	b := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(connectRetryInterval), uint64(attempts-1)),
		ctx,
	)

	return backoff.RetryNotifyWithData(
		func() (*pgxpool.Pool, error) {
			pool, err := pgxpool.NewWithConfig(ctx, cfg)
			if err != nil {
				return nil, backoff.Permanent(err)
			}
			if err := pool.Ping(ctx); err != nil {
				pool.Close()
				return nil, err
			}
			return pool, nil
		},
		b,
		func(err error, d time.Duration) {
			logger.Warn("postgres not reachable, retrying", "in", d, "error", err)
		},
	)
}
