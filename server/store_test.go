package server

import (
	"context"
	"testing"
	"time"

	"github.com/cjnlabay/midterm/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func account(fullname, username, email string) Account {
	return Account{User: model.User{Fullname: fullname, Username: username, Email: email}, PasswordHash: "h"}
}

func strPtr(s string) *string { return &s }

func TestMemoryStore_ListKeepsInsertionOrder(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	a, err := s.Create(ctx, account("A", "a", "a@example.com"))
	require.NoError(t, err)
	b, err := s.Create(ctx, account("B", "b", "b@example.com"))
	require.NoError(t, err)
	c, err := s.Create(ctx, account("C", "c", "c@example.com"))
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, b.ID))

	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, a.ID, list[0].ID)
	assert.Equal(t, c.ID, list[1].ID)
}

func TestMemoryStore_Duplicates(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	_, err := s.Create(ctx, account("A", "a", "a@example.com"))
	require.NoError(t, err)

	_, err = s.Create(ctx, account("X", "a", "x@example.com"))
	assert.ErrorIs(t, err, ErrDuplicate)

	_, err = s.Create(ctx, account("X", "x", " A@Example.com "))
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestMemoryStore_UpdatePatch(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	s.now = func() time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) }

	a, err := s.Create(ctx, account("A", "a", "a@example.com"))
	require.NoError(t, err)
	_, err = s.Create(ctx, account("B", "b", "b@example.com"))
	require.NoError(t, err)

	s.now = func() time.Time { return time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC) }
	got, err := s.Update(ctx, a.ID, UserPatch{Fullname: strPtr("Anna")})
	require.NoError(t, err)
	assert.Equal(t, "Anna", got.Fullname)
	assert.Equal(t, "a", got.Username)
	assert.Equal(t, "h", got.PasswordHash)
	assert.True(t, got.UpdatedAt.After(got.CreatedAt))

	_, err = s.Update(ctx, a.ID, UserPatch{Username: strPtr("b")})
	assert.ErrorIs(t, err, ErrDuplicate)
	unchanged, err := s.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "a", unchanged.Username)

	_, err = s.Update(ctx, "missing", UserPatch{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_FindByEmail(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	a, err := s.Create(ctx, account("A", "a", "a@example.com"))
	require.NoError(t, err)

	got, err := s.FindByEmail(ctx, "A@EXAMPLE.COM")
	require.NoError(t, err)
	assert.Equal(t, a.ID, got.ID)

	_, err = s.FindByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTokenIssuer(t *testing.T) {
	issuer := NewTokenIssuer([]byte("secret"), time.Hour)

	token, expiresAt, err := issuer.Issue("user-1")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, time.Minute)

	id, err := issuer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", id)

	_, err = NewTokenIssuer([]byte("other"), time.Hour).Verify(token)
	assert.Error(t, err)

	expired, _, err := NewTokenIssuer([]byte("secret"), -time.Minute).Issue("user-1")
	require.NoError(t, err)
	_, err = issuer.Verify(expired)
	assert.Error(t, err)
}
