package patient

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemory implements Store with in-process concurrency safety. Used by
// handler tests and when the service runs without a database DSN.
type InMemory struct {
	mu      sync.RWMutex
	records map[string]Patient
	order   []string
}

var _ Store = (*InMemory)(nil)

// NewInMemory creates an empty patient store.
func NewInMemory() *InMemory {
	return &InMemory{records: make(map[string]Patient)}
}

func (s *InMemory) List(ctx context.Context) ([]Patient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Patient, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.records[id])
	}
	return out, nil
}

func (s *InMemory) Get(ctx context.Context, id string) (Patient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.records[id]
	if !ok {
		return Patient{}, ErrNotFound
	}
	return p, nil
}

func (s *InMemory) Exists(ctx context.Context, id string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.records[id]
	return ok, nil
}

func (s *InMemory) Create(ctx context.Context, p *Patient) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	s.records[p.ID] = *p
	s.order = append(s.order, p.ID)
	return nil
}

func (s *InMemory) Update(ctx context.Context, p *Patient) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.records[p.ID]
	if !ok {
		return ErrNoRowsAffected
	}
	p.CreatedAt = current.CreatedAt
	p.UpdatedAt = time.Now().UTC()
	s.records[p.ID] = *p
	return nil
}

func (s *InMemory) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[id]; !ok {
		return ErrNoRowsAffected
	}
	delete(s.records, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}
