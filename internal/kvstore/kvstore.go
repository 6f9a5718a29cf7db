// Package kvstore defines the key-value persistence surface the reader core
// writes through. Values are opaque strings; callers JSON-encode collections.
package kvstore

import (
	"errors"
	"sync"
)

// ErrWriteFailed is returned by Memory when writes are configured to fail.
var ErrWriteFailed = errors.New("kvstore: write failed")

// Store is the get/set surface used for annotations and preferences.
// Get reports ok=false when the key has never been set. SetMany writes every
// value or none of them.
type Store interface {
	Get(key string) (value string, ok bool, err error)
	Set(key, value string) error
	SetMany(values map[string]string) error
}

// Memory is an in-process Store, used by tests and by the CLI dry runs.
type Memory struct {
	mu         sync.RWMutex
	values     map[string]string
	failWrites bool
	failKeys   map[string]bool
	writes     int
}

func NewMemory() *Memory {
	return &Memory{values: make(map[string]string)}
}

// NewMemoryFrom seeds a Memory store with the given values.
func NewMemoryFrom(values map[string]string) *Memory {
	m := NewMemory()
	for k, v := range values {
		m.values[k] = v
	}
	return m
}

func (m *Memory) Get(key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *Memory) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failing(key) {
		return ErrWriteFailed
	}
	m.values[key] = value
	m.writes++
	return nil
}

func (m *Memory) SetMany(values map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k := range values {
		if m.failing(k) {
			return ErrWriteFailed
		}
	}
	for k, v := range values {
		m.values[k] = v
		m.writes++
	}
	return nil
}

func (m *Memory) failing(key string) bool {
	return m.failWrites || m.failKeys[key]
}

// FailWrites makes subsequent Set calls return ErrWriteFailed.
func (m *Memory) FailWrites(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failWrites = fail
}

// FailWritesTo makes writes to the given keys return ErrWriteFailed.
func (m *Memory) FailWritesTo(keys ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failKeys = make(map[string]bool, len(keys))
	for _, k := range keys {
		m.failKeys[k] = true
	}
}

// Writes returns the number of keys written successfully.
func (m *Memory) Writes() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.writes
}
