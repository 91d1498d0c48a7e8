package session

import (
	"context"

	"github.com/cjnlabay/midterm/internal/logger"
)

// Manager is the single owner of the session token. It is handed to every
// component that needs to read or replace the token.
type Manager struct {
	store Store
}

// NewManager wraps a credential store
func NewManager(store Store) *Manager {
	return &Manager{store: store}
}

// Token returns the stored token. Storage failures count as "no token".
func (m *Manager) Token(ctx context.Context) (string, bool) {
	token, err := m.store.Get(ctx)
	if err != nil {
		logger.Warn("Failed to read session token", logger.F("error", err))
		return "", false
	}
	return token, token != ""
}

// Present reports whether a token is stored
func (m *Manager) Present(ctx context.Context) bool {
	_, ok := m.Token(ctx)
	return ok
}

// Save stores the token exactly as given
func (m *Manager) Save(ctx context.Context, token string) error {
	return m.store.Set(ctx, token)
}

// Clear removes the token
func (m *Manager) Clear(ctx context.Context) error {
	return m.store.Clear(ctx)
}
