package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/cjnlabay/midterm/internal/api"
	"github.com/cjnlabay/midterm/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	loginCalls    int
	registerCalls int
	lastCreds     api.Credentials
	lastPayload   api.UserPayload

	token    string
	user     model.User
	loginErr error
	regErr   error
}

func (f *fakeBackend) Login(_ context.Context, creds api.Credentials) (string, error) {
	f.loginCalls++
	f.lastCreds = creds
	return f.token, f.loginErr
}

func (f *fakeBackend) Register(_ context.Context, p api.UserPayload) (model.User, error) {
	f.registerCalls++
	f.lastPayload = p
	return f.user, f.regErr
}

type memSession struct {
	token    string
	saveErr  error
	clearErr error
	saves    int
}

func (m *memSession) Token(context.Context) (string, bool) { return m.token, m.token != "" }

func (m *memSession) Save(_ context.Context, token string) error {
	m.saves++
	if m.saveErr != nil {
		return m.saveErr
	}
	m.token = token
	return nil
}

func (m *memSession) Clear(context.Context) error {
	if m.clearErr != nil {
		return m.clearErr
	}
	m.token = ""
	return nil
}

func TestLogin_BlankFieldsFailLocally(t *testing.T) {
	cases := []struct{ email, password string }{
		{"", "secret"},
		{"a@b.com", ""},
		{"   ", "secret"},
		{"a@b.com", " \t"},
	}

	for _, c := range cases {
		be := &fakeBackend{token: "tok"}
		sess := &memSession{}
		f := NewFlow(be, sess)

		err := f.Login(context.Background(), c.email, c.password)

		assert.ErrorIs(t, err, api.ErrValidation)
		assert.Zero(t, be.loginCalls, "no network call on validation failure")
		assert.Equal(t, Idle, f.State())
		assert.Empty(t, sess.token)
	}
}

func TestLogin_SuccessStoresExactToken(t *testing.T) {
	be := &fakeBackend{token: "tok123"}
	sess := &memSession{}
	f := NewFlow(be, sess)

	require.NoError(t, f.Login(context.Background(), " a@b.com ", "secret"))

	assert.Equal(t, Authenticated, f.State())
	assert.Equal(t, "tok123", sess.token)
	assert.Equal(t, api.Credentials{Email: "a@b.com", Password: "secret"}, be.lastCreds)
}

func TestLogin_ServerRejectionKeepsPriorToken(t *testing.T) {
	be := &fakeBackend{loginErr: &api.HTTPError{Status: 401, Message: "invalid credentials"}}
	sess := &memSession{token: "previous"}
	f := NewFlow(be, sess)

	err := f.Login(context.Background(), "a@b.com", "wrong")

	var httpErr *api.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, Failed, f.State())
	assert.Equal(t, "invalid credentials", f.FailureMessage())
	assert.Equal(t, "previous", sess.token)
	assert.Zero(t, sess.saves)
}

func TestLogin_FailureWithoutMessageUsesFallback(t *testing.T) {
	for _, loginErr := range []error{
		&api.HTTPError{Status: 500},
		&api.NetworkError{Op: "POST", Err: errors.New("refused")},
		&api.DecodeError{What: "login response", Err: errors.New("missing token")},
	} {
		f := NewFlow(&fakeBackend{loginErr: loginErr}, &memSession{})

		require.Error(t, f.Login(context.Background(), "a@b.com", "pw"))
		assert.Equal(t, Failed, f.State())
		assert.Equal(t, FallbackMessage, f.FailureMessage())
	}
}

func TestLogin_StorageFailureIsReported(t *testing.T) {
	boom := errors.New("disk full")
	f := NewFlow(&fakeBackend{token: "tok"}, &memSession{saveErr: boom})

	err := f.Login(context.Background(), "a@b.com", "pw")
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, Failed, f.State())
}

func TestLogin_RetryAfterFailure(t *testing.T) {
	be := &fakeBackend{loginErr: &api.HTTPError{Status: 401, Message: "nope"}}
	sess := &memSession{}
	f := NewFlow(be, sess)

	require.Error(t, f.Login(context.Background(), "a@b.com", "bad"))
	assert.Equal(t, Failed, f.State())

	be.loginErr = nil
	be.token = "good"
	require.NoError(t, f.Login(context.Background(), "a@b.com", "right"))
	assert.Equal(t, Authenticated, f.State())
	assert.Empty(t, f.FailureMessage())
	assert.Equal(t, "good", sess.token)
}

func TestRegister_RequiresAllFields(t *testing.T) {
	be := &fakeBackend{}
	f := NewFlow(be, &memSession{})

	_, err := f.Register(context.Background(), "Ann", "", "a@b.com", " ")

	var valErr *api.ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, []string{"username", "password"}, valErr.Fields)
	assert.Zero(t, be.registerCalls)
}

func TestRegister_DoesNotLogIn(t *testing.T) {
	be := &fakeBackend{user: model.User{ID: "1", Username: "ann"}}
	sess := &memSession{}
	f := NewFlow(be, sess)

	u, err := f.Register(context.Background(), "Ann", "ann", "a@b.com", "pw")
	require.NoError(t, err)

	assert.Equal(t, "1", u.ID)
	assert.Equal(t, Idle, f.State())
	assert.Empty(t, sess.token)
	assert.Zero(t, be.loginCalls)
	assert.Equal(t, "pw", be.lastPayload.Password)
}

func TestLogout_SwallowsStorageErrors(t *testing.T) {
	sess := &memSession{token: "tok", clearErr: errors.New("locked")}
	f := NewFlow(&fakeBackend{}, sess)
	f.Restore(context.Background())
	require.Equal(t, Authenticated, f.State())

	assert.NotPanics(t, func() { f.Logout(context.Background()) })
	assert.Equal(t, Idle, f.State())
}

func TestLogout_ClearsToken(t *testing.T) {
	sess := &memSession{token: "tok"}
	f := NewFlow(&fakeBackend{}, sess)

	f.Logout(context.Background())
	assert.Empty(t, sess.token)
	assert.Equal(t, Idle, f.State())
}

func TestRestore(t *testing.T) {
	assert.Equal(t, Authenticated, NewFlow(&fakeBackend{}, &memSession{token: "t"}).Restore(context.Background()))
	assert.Equal(t, Idle, NewFlow(&fakeBackend{}, &memSession{}).Restore(context.Background()))
}
