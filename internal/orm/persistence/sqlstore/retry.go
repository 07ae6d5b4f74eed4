package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

const (
	// DefaultMaxRetries is the default number of attempts for a write
	DefaultMaxRetries = 3
	// DefaultBaseBackoff is the default base backoff duration
	DefaultBaseBackoff = 100 * time.Millisecond
)

// ErrDeadlock is returned when a write keeps failing with a retryable error
var ErrDeadlock = errors.New("write retries exhausted")

const (
	codeSerialization = "40001"
	codeDeadlock      = "40P01"
)

// RetryConfig configures retry behavior for writes
type RetryConfig struct {
	MaxRetries  int
	BaseBackoff time.Duration
}

// DefaultRetryConfig returns the default retry configuration
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:  DefaultMaxRetries,
		BaseBackoff: DefaultBaseBackoff,
	}
}

// WithRetry sets how insert, update and delete retry on deadlocks,
// serialization failures and busy sqlite databases.
func WithRetry(cfg RetryConfig) Option {
	return func(s *Store) {
		if cfg.MaxRetries < 1 {
			cfg.MaxRetries = 1
		}
		s.retry = cfg
	}
}

// withRetry runs fn until it succeeds, fails with a non-retryable error or
// runs out of attempts. Backoff doubles after every attempt.
func (s *Store) withRetry(ctx context.Context, op string, fn func() error) error {
	var lastErr error

	for attempt := 0; attempt < s.retry.MaxRetries; attempt++ {
		if ctx.Err() != nil {
			return fmt.Errorf("%s cancelled before attempt %d: %w", op, attempt+1, ctx.Err())
		}

		err := fn()
		if err == nil || !IsRetryableError(err) {
			return err
		}
		lastErr = err

		backoff := s.retry.BaseBackoff * time.Duration(1<<uint(attempt))
		s.logger.Warn("retrying write",
			zap.String("op", op),
			zap.Int("attempt", attempt+1),
			zap.Duration("backoff", backoff),
			zap.Error(err))

		select {
		case <-ctx.Done():
			return fmt.Errorf("%s cancelled during retry: %w", op, ctx.Err())
		case <-time.After(backoff):
		}
	}

	return fmt.Errorf("%w: %s failed after %d attempts: %v", ErrDeadlock, op, s.retry.MaxRetries, lastErr)
}

// IsRetryableError reports whether err is a deadlock, a serialization
// failure or a locked sqlite database.
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == codeDeadlock || pgErr.Code == codeSerialization
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == codeDeadlock || pqErr.Code == codeSerialization
	}

	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.Code == sqlite3.ErrBusy || liteErr.Code == sqlite3.ErrLocked
	}

	msg := strings.ToLower(err.Error())
	for _, s := range []string{"deadlock detected", "could not serialize access"} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}
