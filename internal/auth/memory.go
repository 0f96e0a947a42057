package auth

import (
	"context"
	"strings"
	"sync"
	"time"
)

// InMemory implements IdentityStore with in-process concurrency safety.
// Used by handler tests and when the service runs without a database DSN.
type InMemory struct {
	mu      sync.RWMutex
	byEmail map[string]*Identity
	byID    map[string]*Identity
}

var _ IdentityStore = (*InMemory)(nil)

// NewInMemory creates an empty identity store.
func NewInMemory() *InMemory {
	return &InMemory{
		byEmail: make(map[string]*Identity),
		byID:    make(map[string]*Identity),
	}
}

func (s *InMemory) Create(ctx context.Context, id *Identity) error {
	key := strings.ToLower(id.Email)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byEmail[key]; ok {
		return ErrEmailTaken
	}
	now := time.Now().UTC()
	stored := cloneIdentity(id)
	stored.CreatedAt = now
	stored.UpdatedAt = now
	s.byEmail[key] = stored
	s.byID[stored.ID] = stored

	id.CreatedAt = now
	id.UpdatedAt = now
	return nil
}

func (s *InMemory) FindByEmail(ctx context.Context, email string) (*Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored, ok := s.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneIdentity(stored), nil
}

func (s *InMemory) RecordLoginFailure(ctx context.Context, identityID string, failures int, lockoutUntil *time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.byID[identityID]
	if !ok {
		return ErrNotFound
	}
	stored.FailedLogins = failures
	stored.LockoutUntil = lockoutUntil
	stored.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *InMemory) ResetLoginFailures(ctx context.Context, identityID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.byID[identityID]
	if !ok {
		return ErrNotFound
	}
	stored.FailedLogins = 0
	stored.LockoutUntil = nil
	stored.UpdatedAt = time.Now().UTC()
	return nil
}

// Grant adds a named claim to an existing identity. There is no claim
// management endpoint; tests and the in-memory dev mode use this directly the
// way seed SQL does for the postgres store.
func (s *InMemory) Grant(email, claim, value string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.byEmail[strings.ToLower(email)]
	if !ok {
		return false
	}
	if stored.Claims == nil {
		stored.Claims = make(map[string]string)
	}
	stored.Claims[claim] = value
	return true
}

func cloneIdentity(id *Identity) *Identity {
	out := *id
	if id.LockoutUntil != nil {
		t := *id.LockoutUntil
		out.LockoutUntil = &t
	}
	out.Claims = make(map[string]string, len(id.Claims))
	for k, v := range id.Claims {
		out.Claims[k] = v
	}
	return &out
}
