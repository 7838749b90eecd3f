package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
)

// durable persists the scope that survives restarts in the kv_store table.
type durable struct {
	db    *sql.DB
	quota int64
	mu    sync.Mutex
}

// NewDurable creates the durable scope. quotaBytes caps the combined size of
// all keys and values.
func NewDurable(db *sql.DB, quotaBytes int64) VersionedStore {
	return &durable{db: db, quota: quotaBytes}
}

var _ VersionedStore = (*durable)(nil)

func (d *durable) Get(key string) (string, bool, error) {
	v, err := d.GetVersioned(key)
	return v.Value, v.Found, err
}

func (d *durable) GetVersioned(key string) (Versioned, error) {
	var v Versioned
	err := d.db.QueryRow("SELECT value, version FROM kv_store WHERE key = ?", key).Scan(&v.Value, &v.Version)
	if errors.Is(err, sql.ErrNoRows) {
		return Versioned{}, nil
	}
	if err != nil {
		return Versioned{}, fmt.Errorf("failed to read key %q: %w", key, err)
	}
	v.Found = true
	return v, nil
}

// Set writes unconditionally (last writer wins).
func (d *durable) Set(key, value string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	tx, err := d.db.Begin()
	if err != nil {
		return err
	}
	if err := d.checkQuota(tx, key, value); err != nil {
		tx.Rollback()
		return err
	}
	_, err = tx.Exec(`
		INSERT INTO kv_store (key, value, version, updated_at) VALUES (?, ?, 1, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			version = kv_store.version + 1,
			updated_at = excluded.updated_at;
	`, key, value, time.Now().UnixMilli())
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to write key %q: %w", key, err)
	}
	return tx.Commit()
}

func (d *durable) CompareAndSwap(key, value string, version int64) (int64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	tx, err := d.db.Begin()
	if err != nil {
		return 0, err
	}

	var current int64
	err = tx.QueryRow("SELECT version FROM kv_store WHERE key = ?", key).Scan(&current)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		current = 0
	case err != nil:
		tx.Rollback()
		return 0, fmt.Errorf("failed to read version of %q: %w", key, err)
	}
	if current != version {
		tx.Rollback()
		log.Debug("Version conflict on durable write", "key", key, "expected", version, "current", current)
		return 0, ErrVersionConflict
	}

	if err := d.checkQuota(tx, key, value); err != nil {
		tx.Rollback()
		return 0, err
	}

	now := time.Now().UnixMilli()
	var res sql.Result
	if current == 0 {
		res, err = tx.Exec("INSERT INTO kv_store (key, value, version, updated_at) VALUES (?, ?, 1, ?) ON CONFLICT(key) DO NOTHING", key, value, now)
	} else {
		res, err = tx.Exec("UPDATE kv_store SET value = ?, version = version + 1, updated_at = ? WHERE key = ? AND version = ?", value, now, key, version)
	}
	if err != nil {
		tx.Rollback()
		return 0, fmt.Errorf("failed to write key %q: %w", key, err)
	}
	// Another writer on the same database (a second agent on a shared
	// libsql primary) can land between the read and the write.
	if n, err := res.RowsAffected(); err != nil || n == 0 {
		tx.Rollback()
		log.Debug("Version conflict on durable write", "key", key, "expected", version, "rows", n, "error", err)
		return 0, ErrVersionConflict
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return current + 1, nil
}

func (d *durable) Remove(key string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, err := d.db.Exec("DELETE FROM kv_store WHERE key = ?", key)
	return err
}

func (d *durable) Clear() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, err := d.db.Exec("DELETE FROM kv_store")
	return err
}

func (d *durable) checkQuota(tx *sql.Tx, key, value string) error {
	var used int64
	err := tx.QueryRow(`
		SELECT COALESCE(SUM(LENGTH(CAST(key AS BLOB)) + LENGTH(CAST(value AS BLOB))), 0)
		FROM kv_store WHERE key != ?
	`, key).Scan(&used)
	if err != nil {
		return fmt.Errorf("failed to measure storage usage: %w", err)
	}
	needed := used + int64(len(key)+len(value))
	if needed > d.quota {
		return fmt.Errorf("%w: writing %q needs %s of %s", ErrQuotaExceeded, key,
			humanize.Bytes(uint64(needed)), humanize.Bytes(uint64(d.quota)))
	}
	return nil
}
