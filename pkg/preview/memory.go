package preview

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore is an in-process Store. Records are copied on the way in and
// out, so callers may modify what they get back.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]*Record
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]*Record)}
}

func (s *MemoryStore) Get(_ context.Context, id string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.records[id]
	if !ok {
		return nil, notFound(id)
	}
	return r.clone(), nil
}

func (s *MemoryStore) FindByHash(_ context.Context, hash string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var best *Record
	for _, r := range s.records {
		if r.TextHash == hash && (best == nil || r.CreatedAt.After(best.CreatedAt)) {
			best = r
		}
	}
	if best == nil {
		return nil, notFound("with hash " + hash)
	}
	return best.clone(), nil
}

func (s *MemoryStore) Put(_ context.Context, r *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[r.ID] = r.clone()
	return nil
}

func (s *MemoryStore) List(_ context.Context, limit int) ([]*Record, error) {
	s.mu.RLock()
	out := make([]*Record, 0, len(s.records))
	for _, r := range s.records {
		out = append(out, r.clone())
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	if n := listLimit(limit); len(out) > n {
		out = out[:n]
	}
	return out, nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, id)
	return nil
}

// Len returns the number of stored records.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func (s *MemoryStore) Close() error { return nil }
