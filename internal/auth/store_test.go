package auth

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tcharles/user-auth-api/internal/user"
)

// memStore is an in-memory user.Store. Uniqueness is enforced atomically
// under the mutex, mirroring the database constraint.
type memStore struct {
	mu      sync.Mutex
	byEmail map[string]*user.User

	// when set, GetByEmail always reports a miss so that Create's
	// duplicate rejection can be exercised directly
	skipPreCheck bool
}

func newMemStore() *memStore {
	return &memStore{byEmail: make(map[string]*user.User)}
}

func (s *memStore) Create(ctx context.Context, name, email, passwordHash string) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byEmail[email]; ok {
		return nil, user.ErrDuplicateEmail
	}

	now := time.Now()
	u := &user.User{
		ID:           uuid.New(),
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.byEmail[email] = u
	return u, nil
}

func (s *memStore) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.skipPreCheck {
		return nil, user.ErrNotFound
	}
	u, ok := s.byEmail[email]
	if !ok {
		return nil, user.ErrNotFound
	}
	return u, nil
}

func (s *memStore) GetByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.byEmail {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, user.ErrNotFound
}

func (s *memStore) List(ctx context.Context, limit, offset int) ([]*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all := make([]*user.User, 0, len(s.byEmail))
	for _, u := range s.byEmail {
		all = append(all, u)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.Before(all[j].CreatedAt) })

	if offset >= len(all) {
		return nil, nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

func (s *memStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byEmail)
}
