// Package auth drives login, registration and logout against the backend.
package auth

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/cjnlabay/midterm/internal/api"
	"github.com/cjnlabay/midterm/internal/logger"
	"github.com/cjnlabay/midterm/internal/model"
)

// State of the login flow
type State int

const (
	Idle State = iota
	Submitting
	Authenticated
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Submitting:
		return "submitting"
	case Authenticated:
		return "authenticated"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// FallbackMessage is shown when a login fails without a server message
const FallbackMessage = "Login failed"

// Backend is the part of the API client the flow talks to
type Backend interface {
	Login(ctx context.Context, creds api.Credentials) (string, error)
	Register(ctx context.Context, p api.UserPayload) (model.User, error)
}

// Session is where the token lives
type Session interface {
	Token(ctx context.Context) (string, bool)
	Save(ctx context.Context, token string) error
	Clear(ctx context.Context) error
}

// Flow is the Idle -> Submitting -> Authenticated|Failed state machine.
type Flow struct {
	backend Backend
	session Session

	mu      sync.Mutex
	state   State
	failure string
}

// NewFlow creates a flow in the Idle state
func NewFlow(backend Backend, session Session) *Flow {
	return &Flow{backend: backend, session: session, state: Idle}
}

// State returns the current state
func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// FailureMessage returns the message of the last failed login, if any
func (f *Flow) FailureMessage() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.failure
}

func (f *Flow) set(s State, failure string) {
	f.mu.Lock()
	f.state = s
	f.failure = failure
	f.mu.Unlock()
}

// Restore puts the flow in Authenticated when a token is already stored.
func (f *Flow) Restore(ctx context.Context) State {
	if _, ok := f.session.Token(ctx); ok {
		f.set(Authenticated, "")
	} else {
		f.set(Idle, "")
	}
	return f.State()
}

// Login validates the fields locally, then exchanges them for a token.
// A failed attempt never touches the stored token.
func (f *Flow) Login(ctx context.Context, email, password string) error {
	if err := api.Require("email", email, "password", password); err != nil {
		return err
	}

	f.set(Submitting, "")
	logger.Info("Logging in", logger.F("email", strings.TrimSpace(email)))

	token, err := f.backend.Login(ctx, api.Credentials{
		Email:    strings.TrimSpace(email),
		Password: password,
	})
	if err != nil {
		msg := FallbackMessage
		var httpErr *api.HTTPError
		if errors.As(err, &httpErr) && httpErr.Message != "" {
			msg = httpErr.Message
		}
		f.set(Failed, msg)
		logger.Warn("Login failed", logger.F("error", err))
		return err
	}

	if err := f.session.Save(ctx, token); err != nil {
		f.set(Failed, FallbackMessage)
		logger.Error("Failed to store session token", logger.F("error", err))
		return err
	}

	f.set(Authenticated, "")
	logger.Info("Logged in")
	return nil
}

// Register creates an account. It does not log in and leaves the flow's
// state alone.
func (f *Flow) Register(ctx context.Context, fullname, username, email, password string) (model.User, error) {
	if err := api.Require(
		"fullname", fullname,
		"username", username,
		"email", email,
		"password", password,
	); err != nil {
		return model.User{}, err
	}

	u, err := f.backend.Register(ctx, api.UserPayload{
		Fullname: strings.TrimSpace(fullname),
		Username: strings.TrimSpace(username),
		Email:    strings.TrimSpace(email),
		Password: password,
	})
	if err != nil {
		logger.Warn("Registration failed", logger.F("error", err))
		return model.User{}, err
	}

	logger.Info("Registered account", logger.F("id", u.ID), logger.F("username", u.Username))
	return u, nil
}

// Logout clears the stored token. Storage problems are only logged.
func (f *Flow) Logout(ctx context.Context) {
	if err := f.session.Clear(ctx); err != nil {
		logger.Warn("Failed to clear session token", logger.F("error", err))
	}
	f.set(Idle, "")
	logger.Info("Logged out")
}
