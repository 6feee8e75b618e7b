package directory

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Static is an in-memory directory used by tests and local runs without
// a user service.
type Static struct {
	mu       sync.RWMutex
	profiles map[uuid.UUID]*Profile
	statuses map[uuid.UUID]StatusReason
}

func NewStatic() *Static {
	return &Static{
		profiles: make(map[uuid.UUID]*Profile),
		statuses: make(map[uuid.UUID]StatusReason),
	}
}

func (s *Static) Put(p *Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[p.ID] = p
}

func (s *Static) ByID(_ context.Context, id uuid.UUID) (*Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if p, ok := s.profiles[id]; ok {
		return p, nil
	}
	return nil, ErrProfileNotFound
}

func (s *Static) ByUsername(ctx context.Context, username string) (*Profile, error) {
	return s.lookupUsername(username)
}

func (s *Static) PublicByUsername(ctx context.Context, username string) (*Profile, error) {
	return s.lookupUsername(username)
}

func (s *Static) UpdateAccountStatus(_ context.Context, id uuid.UUID, reason StatusReason) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses[id] = reason
	return nil
}

// StatusOf reports the last status reason recorded for a user.
func (s *Static) StatusOf(id uuid.UUID) (StatusReason, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	reason, ok := s.statuses[id]
	return reason, ok
}

func (s *Static) lookupUsername(username string) (*Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.profiles {
		if p.Username == username {
			return p, nil
		}
	}
	return nil, ErrProfileNotFound
}
