package server

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore keeps accounts in process memory, in insertion order
type MemoryStore struct {
	mu       sync.RWMutex
	order    []string
	accounts map[string]Account
	now      func() time.Time
}

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		accounts: make(map[string]Account),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// conflicts reports whether another account already uses username or email
func (s *MemoryStore) conflicts(skipID, username, email string) bool {
	email = normalizeEmail(email)
	for id, a := range s.accounts {
		if id == skipID {
			continue
		}
		if a.Username == username || normalizeEmail(a.Email) == email {
			return true
		}
	}
	return false
}

func (s *MemoryStore) Create(_ context.Context, a Account) (Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conflicts("", a.Username, a.Email) {
		return Account{}, ErrDuplicate
	}

	a.ID = uuid.NewString()
	a.CreatedAt = s.now()
	a.UpdatedAt = a.CreatedAt
	s.accounts[a.ID] = a
	s.order = append(s.order, a.ID)
	return a, nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.accounts[id]
	if !ok {
		return Account{}, ErrNotFound
	}
	return a, nil
}

func (s *MemoryStore) FindByEmail(_ context.Context, email string) (Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	email = normalizeEmail(email)
	for _, id := range s.order {
		if a := s.accounts[id]; normalizeEmail(a.Email) == email {
			return a, nil
		}
	}
	return Account{}, ErrNotFound
}

func (s *MemoryStore) List(_ context.Context) ([]Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Account, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.accounts[id])
	}
	return out, nil
}

func (s *MemoryStore) Update(_ context.Context, id string, p UserPatch) (Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[id]
	if !ok {
		return Account{}, ErrNotFound
	}

	next := a
	p.apply(&next, s.now())
	if s.conflicts(id, next.Username, next.Email) {
		return Account{}, ErrDuplicate
	}
	s.accounts[id] = next
	return next, nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[id]; !ok {
		return ErrNotFound
	}
	delete(s.accounts, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

func (s *MemoryStore) Ping(context.Context) error { return nil }

func (s *MemoryStore) Close() error { return nil }
