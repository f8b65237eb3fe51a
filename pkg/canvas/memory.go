package canvas

import (
	"context"
	"encoding/json"
	"sync"
)

// MemoryStore keeps canvases in process memory.
type MemoryStore struct {
	mu       sync.RWMutex
	canvases map[string]*Canvas
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{canvases: make(map[string]*Canvas)}
}

func (s *MemoryStore) List(ctx context.Context) ([]Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]Summary, 0, len(s.canvases))
	for _, c := range s.canvases {
		list = append(list, c.Summary())
	}
	sortSummaries(list)
	return list, nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*Canvas, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.canvases[id]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(c), nil
}

func (s *MemoryStore) Create(ctx context.Context, name string, drawings []json.RawMessage) (*Canvas, error) {
	c, err := newCanvas(name, drawings)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.canvases[c.ID] = c
	return clone(c), nil
}

func (s *MemoryStore) Replace(ctx context.Context, id, name string, drawings []json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.canvases[id]
	if !ok {
		return ErrNotFound
	}
	updated := clone(c)
	if err := updated.apply(name, drawings); err != nil {
		return err
	}
	s.canvases[id] = updated
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.canvases[id]; !ok {
		return ErrNotFound
	}
	delete(s.canvases, id)
	return nil
}

// Close does nothing for the memory store.
func (s *MemoryStore) Close() error { return nil }

var _ Store = (*MemoryStore)(nil)
