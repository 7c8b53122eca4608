package storage

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"shoplist/go-backend/internal/domains/contracts"
	"shoplist/go-backend/pkg/models"
)

var ErrItemIDConflict = errors.New("item id conflict")

const maxIDAttempts = 3

// MemoryItemStore keeps items in process memory. It is safe for concurrent
// use; every operation holds the store lock for the whole lookup+mutation.
type MemoryItemStore struct {
	mu    sync.RWMutex
	items map[string]models.Item
	order []string
	newID func() string
}

func NewMemoryItemStore() *MemoryItemStore {
	return NewMemoryItemStoreWithIDs(uuid.NewString)
}

func NewMemoryItemStoreWithIDs(newID func() string) *MemoryItemStore {
	if newID == nil {
		newID = uuid.NewString
	}
	return &MemoryItemStore{
		items: make(map[string]models.Item),
		newID: newID,
	}
}

func (s *MemoryItemStore) Create(_ context.Context, info models.NewItem) (models.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		id := s.newID()
		if _, exists := s.items[id]; exists || id == "" {
			continue
		}
		item := models.Item{ID: id, Title: info.Title, Completed: info.Completed}
		s.items[id] = item
		s.order = append(s.order, id)
		return item, nil
	}
	return models.Item{}, ErrItemIDConflict
}

func (s *MemoryItemStore) FindByID(_ context.Context, id string) (models.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.items[id]
	if !ok {
		return models.Item{}, contracts.NewItemNotFound(id)
	}
	return item, nil
}

// FindAll returns a snapshot in insertion order.
func (s *MemoryItemStore) FindAll(_ context.Context) ([]models.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Item, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.items[id])
	}
	return out, nil
}

func (s *MemoryItemStore) Update(_ context.Context, id string, update models.ItemUpdate) (models.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[id]
	if !ok {
		return models.Item{}, contracts.NewItemNotFound(id)
	}
	item = update.ApplyTo(item)
	s.items[id] = item
	return item, nil
}

func (s *MemoryItemStore) Delete(_ context.Context, id string) (models.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[id]
	if !ok {
		return models.Item{}, contracts.NewItemNotFound(id)
	}
	delete(s.items, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i:i], s.order[i+1:]...)
			break
		}
	}
	return item, nil
}

func (s *MemoryItemStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

func (s *MemoryItemStore) Close() error {
	return nil
}
