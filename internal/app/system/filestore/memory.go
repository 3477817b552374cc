package filestore

import (
	"context"
	"sync"

	"github.com/dalemusser/reviewhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/storage"
)

// Memory is a Blob over waffle's in-memory backend, for tests. It records
// every Delete and fails them with DeleteErr when set.
type Memory struct {
	*Blob
	mem *storage.Memory

	mu        sync.Mutex
	deleted   []string
	DeleteErr error
}

// NewMemory returns an empty Memory store.
func NewMemory() *Memory {
	mem := storage.NewMemory(storage.MemoryConfig{BaseURL: "memory://files"})
	return &Memory{Blob: NewBlob("memory", mem), mem: mem}
}

func (m *Memory) Delete(ctx context.Context, f models.UploadedFile) error {
	m.mu.Lock()
	if m.DeleteErr != nil {
		err := m.DeleteErr
		m.mu.Unlock()
		return err
	}
	m.deleted = append(m.deleted, f.PublicID)
	m.mu.Unlock()
	return m.Blob.Delete(ctx, f)
}

// Has reports whether key is currently stored.
func (m *Memory) Has(key string) bool {
	ok, err := m.mem.Exists(context.Background(), key)
	return err == nil && ok
}

// Deleted lists keys passed to Delete, in order.
func (m *Memory) Deleted() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.deleted...)
}
