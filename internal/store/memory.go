package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/vyrodovalexey/catalog-api/internal/model"
)

// MemoryStore implements Store interface with in-memory storage.
type MemoryStore struct {
	mu    sync.RWMutex
	items []model.Item
}

// NewMemoryStore creates a new MemoryStore seeded with the given items.
func NewMemoryStore(items ...model.Item) *MemoryStore {
	return &MemoryStore{
		items: cloneItems(items),
	}
}

// Load returns a copy of the stored items.
func (s *MemoryStore) Load(ctx context.Context) ([]model.Item, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("load items: %w", ctx.Err())
	default:
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return cloneItems(s.items), nil
}

// Save replaces the stored items with a copy of items.
func (s *MemoryStore) Save(ctx context.Context, items []model.Item) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("save items: %w", ctx.Err())
	default:
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = cloneItems(items)

	return nil
}

func cloneItems(items []model.Item) []model.Item {
	out := make([]model.Item, len(items))
	for i := range items {
		out[i] = items[i].Clone()
	}
	return out
}
