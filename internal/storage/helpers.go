package storage

import (
	"encoding/json"
	"fmt"

	"github.com/charmbracelet/log"
)

// GetString returns the stored value or def. Read errors are logged and
// degrade to def.
func GetString(s Store, key, def string) string {
	v, ok, err := s.Get(key)
	if err != nil {
		log.Warn("Error reading from storage", "key", key, "error", err)
		return def
	}
	if !ok {
		return def
	}
	return v
}

// SetString writes value, logging instead of failing. Quota errors are still
// returned so callers can tell the user.
func SetString(s Store, key, value string) error {
	if err := s.Set(key, value); err != nil {
		log.Warn("Error saving to storage", "key", key, "error", err)
		return err
	}
	return nil
}

// GetJSON decodes the value stored under key into a T. Missing keys and
// corrupt JSON both yield def.
func GetJSON[T any](s Store, key string, def T) T {
	raw, ok, err := s.Get(key)
	if err != nil {
		log.Warn("Error reading from storage", "key", key, "error", err)
		return def
	}
	if !ok || raw == "" {
		return def
	}
	var v T
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		log.Warn("Error parsing JSON from storage", "key", key, "error", err)
		return def
	}
	return v
}

// SetJSON encodes v and stores it under key.
func SetJSON(s Store, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %q: %w", key, err)
	}
	return SetString(s, key, string(data))
}

// Remove deletes key, logging failures.
func Remove(s Store, key string) {
	if err := s.Remove(key); err != nil {
		log.Warn("Error removing from storage", "key", key, "error", err)
	}
}
