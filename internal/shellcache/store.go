package shellcache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/vmihailenco/msgpack/v5"
)

// sqlStorage keeps caches in the shell_cache tables.
type sqlStorage struct {
	db *sql.DB
}

// NewStorage creates a CacheStorage backed by db.
func NewStorage(db *sql.DB) CacheStorage {
	return &sqlStorage{db: db}
}

var _ CacheStorage = (*sqlStorage)(nil)

func (s *sqlStorage) Open(ctx context.Context, name string) (Cache, error) {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO shell_cache_names (cache_name, created_at) VALUES (?, ?) ON CONFLICT(cache_name) DO NOTHING`,
		name, time.Now().UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("failed to open cache %s: %w", name, err)
	}
	return &sqlCache{db: s.db, name: name}, nil
}

func (s *sqlStorage) Keys(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT cache_name FROM shell_cache_names ORDER BY cache_name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list caches: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (s *sqlStorage) Delete(ctx context.Context, name string) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM shell_cache WHERE cache_name = ?`, name); err != nil {
		return false, fmt.Errorf("failed to delete cache entries for %s: %w", name, err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM shell_cache_names WHERE cache_name = ?`, name)
	if err != nil {
		return false, fmt.Errorf("failed to delete cache %s: %w", name, err)
	}
	n, _ := res.RowsAffected()
	if err := tx.Commit(); err != nil {
		return false, err
	}
	return n > 0, nil
}

type sqlCache struct {
	db   *sql.DB
	name string
}

func (c *sqlCache) Match(ctx context.Context, path string) (Response, bool, error) {
	var (
		resp   Response
		header []byte
	)
	err := c.db.QueryRowContext(ctx,
		`SELECT status, header, body FROM shell_cache WHERE cache_name = ? AND url = ?`,
		c.name, path).Scan(&resp.Status, &header, &resp.Body)
	if errors.Is(err, sql.ErrNoRows) {
		return Response{}, false, nil
	}
	if err != nil {
		return Response{}, false, fmt.Errorf("failed to read cached %s: %w", path, err)
	}
	resp.Header, err = decodeHeader(header)
	if err != nil {
		return Response{}, false, err
	}
	return resp, true, nil
}

func (c *sqlCache) Put(ctx context.Context, path string, resp Response) error {
	return c.putAll(ctx, map[string]Response{path: resp})
}

func (c *sqlCache) AddAll(ctx context.Context, paths []string, fetcher Fetcher) error {
	fetched := make(map[string]Response, len(paths))
	for _, p := range paths {
		resp, err := fetcher.Fetch(ctx, p)
		if err != nil {
			return fmt.Errorf("failed to fetch %s: %w", p, err)
		}
		if !resp.OK() {
			return fmt.Errorf("failed to fetch %s: status %d", p, resp.Status)
		}
		fetched[p] = resp
	}
	if err := c.putAll(ctx, fetched); err != nil {
		return err
	}
	log.Debug("Precached shell assets", "cache", c.name, "count", len(fetched))
	return nil
}

func (c *sqlCache) putAll(ctx context.Context, entries map[string]Response) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := time.Now().UnixMilli()
	for path, resp := range entries {
		header, err := msgpack.Marshal(map[string][]string(resp.Header))
		if err != nil {
			return fmt.Errorf("failed to encode headers for %s: %w", path, err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO shell_cache (cache_name, url, status, header, body, stored_at) VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(cache_name, url) DO UPDATE SET status = excluded.status, header = excluded.header,
				body = excluded.body, stored_at = excluded.stored_at`,
			c.name, path, resp.Status, header, resp.Body, now)
		if err != nil {
			return fmt.Errorf("failed to cache %s: %w", path, err)
		}
	}
	return tx.Commit()
}

func decodeHeader(data []byte) (http.Header, error) {
	h := http.Header{}
	if len(data) == 0 {
		return h, nil
	}
	var m map[string][]string
	if err := msgpack.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to decode cached headers: %w", err)
	}
	for k, v := range m {
		h[k] = v
	}
	return h, nil
}
