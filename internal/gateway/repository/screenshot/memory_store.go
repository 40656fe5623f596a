package screenshot

import (
	"context"
	"sync"
)

// MemoryStore is the in-process backend used when object storage is not
// configured, and in tests.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string]Object
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string]Object)}
}

func (m *MemoryStore) Put(_ context.Context, actorID, id string, obj Object) error {
	key, err := objectKey(actorID, id)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]byte, len(obj.Data))
	copy(cp, obj.Data)
	m.objects[key] = Object{Data: cp, MIMEType: obj.MIMEType}
	return nil
}

func (m *MemoryStore) Get(_ context.Context, actorID, id string) (Object, error) {
	key, err := objectKey(actorID, id)
	if err != nil {
		return Object{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[key]
	if !ok {
		return Object{}, ErrNotFound
	}
	return obj, nil
}

func (m *MemoryStore) GetURL(context.Context, string, string) (string, error) {
	return "", nil
}
