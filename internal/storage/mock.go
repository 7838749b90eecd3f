package storage

import "sync"

// Mock is an in-memory VersionedStore for testing, with hooks to inject
// failures. It is safe for concurrent use.
type Mock struct {
	mu       sync.Mutex
	data     map[string]string
	versions map[string]int64

	// Spies for method calls
	GetFunc            func(key string) (string, bool, error)
	SetFunc            func(key, value string) error
	CompareAndSwapFunc func(key, value string, version int64) (int64, error)

	// Call records
	SetCalls            []string
	CompareAndSwapCalls []string
}

// NewMock creates a new mock instance.
func NewMock() *Mock {
	return &Mock{data: make(map[string]string), versions: make(map[string]int64)}
}

var _ VersionedStore = (*Mock)(nil)

func (m *Mock) Get(key string) (string, bool, error) {
	v, err := m.GetVersioned(key)
	return v.Value, v.Found, err
}

func (m *Mock) GetVersioned(key string) (Versioned, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetFunc != nil {
		v, ok, err := m.GetFunc(key)
		return Versioned{Value: v, Found: ok, Version: m.versions[key]}, err
	}
	v, ok := m.data[key]
	return Versioned{Value: v, Found: ok, Version: m.versions[key]}, nil
}

func (m *Mock) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SetCalls = append(m.SetCalls, key)
	if m.SetFunc != nil {
		if err := m.SetFunc(key, value); err != nil {
			return err
		}
	}
	m.data[key] = value
	m.versions[key]++
	return nil
}

func (m *Mock) CompareAndSwap(key, value string, version int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CompareAndSwapCalls = append(m.CompareAndSwapCalls, key)
	if m.CompareAndSwapFunc != nil {
		if _, err := m.CompareAndSwapFunc(key, value, version); err != nil {
			return 0, err
		}
	}
	if m.versions[key] != version {
		return 0, ErrVersionConflict
	}
	m.data[key] = value
	m.versions[key]++
	return m.versions[key], nil
}

func (m *Mock) Remove(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	delete(m.versions, key)
	return nil
}

func (m *Mock) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = make(map[string]string)
	m.versions = make(map[string]int64)
	return nil
}

// Put seeds a raw value without recording a call.
func (m *Mock) Put(key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	m.versions[key]++
}
