package storage

import (
	"context"
	"sync"
)

// MemoryProvider stores objects in memory, for tests.
type MemoryProvider struct {
	mu      sync.RWMutex
	objects map[string][]byte
	types   map[string]string
	baseURL string
}

// NewMemoryProvider builds an empty in-memory provider whose returned
// URLs are rooted at baseURL.
func NewMemoryProvider(baseURL string) *MemoryProvider {
	return &MemoryProvider{
		objects: make(map[string][]byte),
		types:   make(map[string]string),
		baseURL: baseURL,
	}
}

// Upload records the object and returns its synthetic public URL.
func (m *MemoryProvider) Upload(_ context.Context, objectName string, data []byte, contentType string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[objectName] = append([]byte{}, data...)
	m.types[objectName] = contentType
	return m.baseURL + "/" + objectName, nil
}

// Object returns a stored object's bytes and content type.
func (m *MemoryProvider) Object(objectName string) ([]byte, string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.objects[objectName]
	return data, m.types[objectName], ok
}

// Len reports how many objects have been uploaded.
func (m *MemoryProvider) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}
