package storage

import (
	"context"
	"sync"
)

// MemStore is a map-backed Store for tests and embedded callers.
type MemStore struct {
	mu     sync.RWMutex
	tables map[string]map[string][]byte
}

func NewMemStore() *MemStore {
	return &MemStore{tables: make(map[string]map[string][]byte)}
}

func (m *MemStore) Get(_ context.Context, table, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	value, ok := m.tables[table][key]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), value...), nil
}

func (m *MemStore) Set(_ context.Context, table, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.tables[table] == nil {
		m.tables[table] = make(map[string][]byte)
	}
	m.tables[table][key] = append([]byte(nil), value...)
	return nil
}

func (m *MemStore) Delete(_ context.Context, table, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tables[table][key]; !ok {
		return false, nil
	}
	delete(m.tables[table], key)
	return true, nil
}

func (m *MemStore) Clear(_ context.Context, table string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tables, table)
	return nil
}
