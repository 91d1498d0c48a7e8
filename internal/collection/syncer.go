// Package collection keeps the local copy of the remote user collection in
// step with the server.
package collection

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/cjnlabay/midterm/internal/api"
	"github.com/cjnlabay/midterm/internal/form"
	"github.com/cjnlabay/midterm/internal/logger"
	"github.com/cjnlabay/midterm/internal/model"
)

// Remote is the part of the API client used for CRUD
type Remote interface {
	ListUsers(ctx context.Context) ([]model.User, error)
	CreateUser(ctx context.Context, p api.UserPayload) (model.User, error)
	UpdateUser(ctx context.Context, id string, p api.UserPayload) (model.User, error)
	DeleteUser(ctx context.Context, id string) error
}

// TokenChecker reports whether a session token is present
type TokenChecker interface {
	Token(ctx context.Context) (string, bool)
}

// Syncer owns the local collection. The slice is only changed after the
// server confirms an operation; a failed call leaves it untouched.
//
// Each change is applied under the mutex once its response arrives, so when
// operations overlap the last one to complete wins.
type Syncer struct {
	remote  Remote
	session TokenChecker

	mu    sync.Mutex
	users []model.User
}

// NewSyncer creates an empty collection
func NewSyncer(remote Remote, session TokenChecker) *Syncer {
	return &Syncer{remote: remote, session: session}
}

func (s *Syncer) requireSession(ctx context.Context) error {
	if _, ok := s.session.Token(ctx); !ok {
		return api.ErrAuthRequired
	}
	return nil
}

// Users returns a copy of the collection in server order
func (s *Syncer) Users() []model.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.User, len(s.users))
	copy(out, s.users)
	return out
}

// Len returns the number of records held locally
func (s *Syncer) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users)
}

// Get looks a record up by id
func (s *Syncer) Get(id string) (model.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexOf(id); i >= 0 {
		return s.users[i], true
	}
	return model.User{}, false
}

// indexOf must be called with mu held
func (s *Syncer) indexOf(id string) int {
	for i, u := range s.users {
		if u.ID == id {
			return i
		}
	}
	return -1
}

// FetchAll replaces the whole collection with the server's list.
func (s *Syncer) FetchAll(ctx context.Context) ([]model.User, error) {
	if err := s.requireSession(ctx); err != nil {
		return nil, err
	}

	users, err := s.remote.ListUsers(ctx)
	if err != nil {
		logger.Warn("Failed to fetch users", logger.F("error", err))
		return nil, err
	}

	seen := make(map[string]struct{}, len(users))
	for _, u := range users {
		if _, dup := seen[u.ID]; dup {
			return nil, &api.DecodeError{What: "user list", Err: fmt.Errorf("duplicate id %q", u.ID)}
		}
		seen[u.ID] = struct{}{}
	}

	s.mu.Lock()
	s.users = append([]model.User(nil), users...)
	s.mu.Unlock()

	logger.Debug("Fetched users", logger.F("count", len(users)))
	return s.Users(), nil
}

func payload(d form.Draft) api.UserPayload {
	return api.UserPayload{
		Fullname: strings.TrimSpace(d.Fullname),
		Username: strings.TrimSpace(d.Username),
		Email:    strings.TrimSpace(d.Email),
		Password: password(d.Password),
	}
}

// password is sent as typed; whitespace alone counts as empty
func password(p string) string {
	if strings.TrimSpace(p) == "" {
		return ""
	}
	return p
}

func validate(d form.Draft) error {
	return api.Require(
		"fullname", d.Fullname,
		"username", d.Username,
		"email", d.Email,
	)
}

// Create adds a record. The password is optional.
func (s *Syncer) Create(ctx context.Context, d form.Draft) (model.User, error) {
	if err := validate(d); err != nil {
		return model.User{}, err
	}
	if err := s.requireSession(ctx); err != nil {
		return model.User{}, err
	}

	u, err := s.remote.CreateUser(ctx, payload(d))
	if err != nil {
		logger.Warn("Failed to create user", logger.F("error", err))
		return model.User{}, err
	}

	s.mu.Lock()
	if i := s.indexOf(u.ID); i >= 0 {
		s.users[i] = u
	} else {
		s.users = append(s.users, u)
	}
	s.mu.Unlock()

	logger.Info("Created user", logger.F("id", u.ID))
	return u, nil
}

// Update sends the draft for record id. An empty password is not sent, so
// the stored one is kept.
func (s *Syncer) Update(ctx context.Context, id string, d form.Draft) (model.User, error) {
	if err := api.Require("id", id); err != nil {
		return model.User{}, err
	}
	if err := validate(d); err != nil {
		return model.User{}, err
	}
	if err := s.requireSession(ctx); err != nil {
		return model.User{}, err
	}

	u, err := s.remote.UpdateUser(ctx, id, payload(d))
	if err != nil {
		logger.Warn("Failed to update user", logger.F("id", id), logger.F("error", err))
		return model.User{}, err
	}
	if u.ID != id {
		err := &api.DecodeError{What: "update response", Err: fmt.Errorf("got record %q, want %q", u.ID, id)}
		logger.Warn("Failed to update user", logger.F("id", id), logger.F("error", err))
		return model.User{}, err
	}

	s.mu.Lock()
	i := s.indexOf(id)
	if i >= 0 {
		s.users[i] = u
	}
	s.mu.Unlock()

	if i < 0 {
		logger.Debug("Updated user is not in the local collection", logger.F("id", id))
	}
	logger.Info("Updated user", logger.F("id", id))
	return u, nil
}

// Delete removes record id once the server confirms it.
func (s *Syncer) Delete(ctx context.Context, id string) error {
	if err := api.Require("id", id); err != nil {
		return err
	}
	if err := s.requireSession(ctx); err != nil {
		return err
	}

	if err := s.remote.DeleteUser(ctx, id); err != nil {
		logger.Warn("Failed to delete user", logger.F("id", id), logger.F("error", err))
		return err
	}

	s.mu.Lock()
	if i := s.indexOf(id); i >= 0 {
		s.users = append(s.users[:i], s.users[i+1:]...)
	}
	s.mu.Unlock()

	logger.Info("Deleted user", logger.F("id", id))
	return nil
}

// IsAuthError reports errors that mean the session is missing or rejected
func IsAuthError(err error) bool {
	var httpErr *api.HTTPError
	return errors.Is(err, api.ErrAuthRequired) || (errors.As(err, &httpErr) && httpErr.IsUnauthorized())
}
