package storage

import (
	"context"
	"sync"
	"time"
)

type memValue struct {
	value   string
	updated time.Time
}

// MemoryStore keeps session values in process memory. Values are lost on restart.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]map[string]memValue
	now  func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]map[string]memValue), now: time.Now}
}

func (m *MemoryStore) Get(_ context.Context, sessionID, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[sessionID][key]
	return v.value, ok, nil
}

func (m *MemoryStore) Set(_ context.Context, sessionID, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	vals, ok := m.data[sessionID]
	if !ok {
		vals = make(map[string]memValue)
		m.data[sessionID] = vals
	}
	vals[key] = memValue{value: value, updated: m.now()}
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, sessionID string, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	vals := m.data[sessionID]
	for _, k := range keys {
		delete(vals, k)
	}
	if len(vals) == 0 {
		delete(m.data, sessionID)
	}
	return nil
}

func (m *MemoryStore) Touch(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	for k, v := range m.data[sessionID] {
		v.updated = now
		m.data[sessionID][k] = v
	}
	return nil
}

func (m *MemoryStore) PurgeIdle(_ context.Context, before time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for sid, vals := range m.data {
		latest := time.Time{}
		for _, v := range vals {
			if v.updated.After(latest) {
				latest = v.updated
			}
		}
		if latest.Before(before) {
			n += int64(len(vals))
			delete(m.data, sid)
		}
	}
	return n, nil
}

func (m *MemoryStore) Ping(context.Context) error { return nil }

func (m *MemoryStore) Close() error { return nil }
