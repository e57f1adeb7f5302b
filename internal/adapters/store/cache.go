package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/FawziYas/osce-project/pkg/metrics"
)

// CachePut creates or overwrites the cached response for key with an
// absolute expiry time.
func (s *Store) CachePut(ctx context.Context, key string, data []byte, expiresAt time.Time) (err error) {
	defer func(start time.Time) { err = observe("cache_put", start, err) }(s.clock.Now())

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO response_cache (cache_key, data, expires_at) VALUES (?, ?, ?)
		ON CONFLICT (cache_key) DO UPDATE SET data = excluded.data, expires_at = excluded.expires_at`,
		key, data, expiresAt.UnixNano())
	if err != nil {
		return storageErr("cache put", err)
	}
	return nil
}

// CacheGet returns the cached payload for key, or ErrNotFound if the
// key is absent or its expiry has passed. Expiry is lazy: the stale row
// is deleted on read, there is no background eviction.
func (s *Store) CacheGet(ctx context.Context, key string) (data []byte, err error) {
	defer func(start time.Time) { err = observe("cache_get", start, err) }(s.clock.Now())

	var expires int64
	row := s.db.QueryRowContext(ctx,
		`SELECT data, expires_at FROM response_cache WHERE cache_key = ?`, key)
	if err = row.Scan(&data, &expires); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			metrics.RecordCacheMiss()
			return nil, ErrNotFound
		}
		return nil, storageErr("cache get", err)
	}

	if !s.clock.Now().Before(time.Unix(0, expires)) {
		// At or past expiry: evict lazily and report a miss.
		_, _ = s.db.ExecContext(ctx, `DELETE FROM response_cache WHERE cache_key = ?`, key)
		metrics.RecordCacheMiss()
		return nil, ErrNotFound
	}

	metrics.RecordCacheHit()
	return data, nil
}
