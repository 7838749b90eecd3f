package storage

// Store is a string key/value scope. Implementations are safe for concurrent use.
type Store interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Remove(key string) error
	Clear() error
}

// VersionedStore adds optimistic concurrency to a Store. Every write bumps the
// key's version; CompareAndSwap only succeeds against the version it read.
type VersionedStore interface {
	Store
	GetVersioned(key string) (Versioned, error)
	// CompareAndSwap writes value if the key is still at version. A version of
	// zero means "the key must not exist yet". It returns the new version, or
	// ErrVersionConflict.
	CompareAndSwap(key, value string, version int64) (int64, error)
}
