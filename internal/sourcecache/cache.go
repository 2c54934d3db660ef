package sourcecache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"lectern/internal/logging"
	"lectern/internal/session"
)

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

const schema = `
CREATE TABLE IF NOT EXISTS sources (
	number        INTEGER PRIMARY KEY,
	locator       TEXT    NOT NULL,
	needs_referer INTEGER NOT NULL DEFAULT 0,
	referer       TEXT    NOT NULL DEFAULT '',
	resolved_at   TEXT    NOT NULL
);`

// Cache is a TTL-bounded store of resolved media sources backed by SQLite.
type Cache struct {
	db     *sql.DB
	path   string
	ttl    time.Duration
	logger *slog.Logger
	now    func() time.Time
}

// Open initializes or connects to the cache database at path.
func Open(path string, ttl time.Duration, logger *slog.Logger) (*Cache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &Cache{
		db:     db,
		path:   path,
		ttl:    ttl,
		logger: logging.NewComponentLogger(logger, "sourcecache"),
		now:    time.Now,
	}, nil
}

// Close closes the underlying database connection.
func (c *Cache) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

// Lookup returns the cached source for a recording when a fresh entry
// exists. Expired entries are pruned on the way out.
func (c *Cache) Lookup(ctx context.Context, num int) (session.Source, bool) {
	if c == nil || c.db == nil {
		return session.Source{}, false
	}

	var (
		locator      string
		needsReferer int
		referer      string
		resolvedAt   string
	)
	err := retryOnBusy(ctx, func() error {
		row := c.db.QueryRowContext(ctx,
			`SELECT locator, needs_referer, referer, resolved_at FROM sources WHERE number = ?`, num)
		return row.Scan(&locator, &needsReferer, &referer, &resolvedAt)
	})
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			c.logger.Warn("cache lookup failed", logging.Recording(num), logging.Error(err))
		}
		return session.Source{}, false
	}

	stamp, err := time.Parse(time.RFC3339, resolvedAt)
	if err != nil || c.now().Sub(stamp) > c.ttl {
		_ = c.Invalidate(ctx, num)
		return session.Source{}, false
	}

	c.logger.Debug("cache hit", logging.Recording(num))
	return session.Source{
		Locator:      locator,
		NeedsReferer: needsReferer != 0,
		Referer:      referer,
	}, true
}

// Store upserts the resolved source for a recording.
func (c *Cache) Store(ctx context.Context, num int, source session.Source) error {
	if c == nil || c.db == nil {
		return nil
	}
	if strings.TrimSpace(source.Locator) == "" {
		return errors.New("locator cannot be empty")
	}

	needsReferer := 0
	if source.NeedsReferer {
		needsReferer = 1
	}
	err := retryOnBusy(ctx, func() error {
		_, execErr := c.db.ExecContext(ctx,
			`INSERT INTO sources (number, locator, needs_referer, referer, resolved_at)
			 VALUES (?, ?, ?, ?, ?)
			 ON CONFLICT(number) DO UPDATE SET
				locator = excluded.locator,
				needs_referer = excluded.needs_referer,
				referer = excluded.referer,
				resolved_at = excluded.resolved_at`,
			num, source.Locator, needsReferer, source.Referer, c.now().UTC().Format(time.RFC3339))
		return execErr
	})
	if err != nil {
		return fmt.Errorf("store source for recording %d: %w", num, err)
	}

	c.logger.Debug("cached resolved source", logging.Recording(num))
	return nil
}

// Invalidate drops the cached source for a recording, treating absence as
// success.
func (c *Cache) Invalidate(ctx context.Context, num int) error {
	if c == nil || c.db == nil {
		return nil
	}
	return retryOnBusy(ctx, func() error {
		_, err := c.db.ExecContext(ctx, `DELETE FROM sources WHERE number = ?`, num)
		return err
	})
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}
