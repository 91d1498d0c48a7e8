package server

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/cjnlabay/midterm/internal/model"
)

var (
	// ErrNotFound is returned when no record has the requested id or email
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a username or email is already taken
	ErrDuplicate = errors.New("username or email already exists")
)

// Account is a stored user record together with its password hash.
// The hash never leaves the server.
type Account struct {
	model.User
	PasswordHash string
}

// UserPatch lists the fields an update changes. Nil fields are kept.
type UserPatch struct {
	Fullname     *string
	Username     *string
	Email        *string
	PasswordHash *string
}

func (p UserPatch) apply(a *Account, now time.Time) {
	if p.Fullname != nil {
		a.Fullname = *p.Fullname
	}
	if p.Username != nil {
		a.Username = *p.Username
	}
	if p.Email != nil {
		a.Email = *p.Email
	}
	if p.PasswordHash != nil {
		a.PasswordHash = *p.PasswordHash
	}
	a.UpdatedAt = now
}

// Store persists accounts
type Store interface {
	Create(ctx context.Context, a Account) (Account, error)
	Get(ctx context.Context, id string) (Account, error)
	FindByEmail(ctx context.Context, email string) (Account, error)
	List(ctx context.Context) ([]Account, error)
	Update(ctx context.Context, id string, p UserPatch) (Account, error)
	Delete(ctx context.Context, id string) error
	Ping(ctx context.Context) error
	Close() error
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
