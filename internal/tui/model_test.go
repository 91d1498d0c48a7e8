package tui

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/cjnlabay/midterm/internal/api"
	"github.com/cjnlabay/midterm/internal/auth"
	"github.com/cjnlabay/midterm/internal/collection"
	"github.com/cjnlabay/midterm/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	token string
	err   error
}

func (f *fakeBackend) Login(context.Context, api.Credentials) (string, error) {
	return f.token, f.err
}

func (f *fakeBackend) Register(_ context.Context, p api.UserPayload) (model.User, error) {
	return model.User{ID: "new", Username: p.Username}, nil
}

type memSession struct {
	token string
}

func (m *memSession) Token(context.Context) (string, bool) { return m.token, m.token != "" }

func (m *memSession) Save(_ context.Context, token string) error {
	m.token = token
	return nil
}

func (m *memSession) Clear(context.Context) error {
	m.token = ""
	return nil
}

type fakeRemote struct {
	users   []model.User
	listErr error
	created []api.UserPayload
	deleted []string
}

func (f *fakeRemote) ListUsers(context.Context) ([]model.User, error) {
	return f.users, f.listErr
}

func (f *fakeRemote) CreateUser(_ context.Context, p api.UserPayload) (model.User, error) {
	f.created = append(f.created, p)
	return model.User{ID: "u3", Fullname: p.Fullname, Username: p.Username, Email: p.Email}, nil
}

func (f *fakeRemote) UpdateUser(_ context.Context, id string, p api.UserPayload) (model.User, error) {
	return model.User{ID: id, Fullname: p.Fullname, Username: p.Username, Email: p.Email}, nil
}

func (f *fakeRemote) DeleteUser(_ context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	return nil
}

type harness struct {
	sess   *memSession
	be     *fakeBackend
	remote *fakeRemote
	flow   *auth.Flow
	deps   Deps
}

func newHarness(token string) *harness {
	h := &harness{
		sess: &memSession{token: token},
		be:   &fakeBackend{token: "tok123"},
		remote: &fakeRemote{users: []model.User{
			{ID: "u1", Fullname: "Ann Lee", Username: "ann", Email: "ann@example.com"},
			{ID: "u2", Fullname: "Bob Ray", Username: "bob", Email: "bob@example.com"},
		}},
	}
	h.flow = auth.NewFlow(h.be, h.sess)
	h.flow.Restore(context.Background())
	h.deps = Deps{Auth: h.flow, Users: collection.NewSyncer(h.remote, h.sess)}
	return h
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func send(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	out, ok := next.(Model)
	require.True(t, ok)
	return out, cmd
}

// drain runs cmd and feeds request results back into the model until no
// more requests are pending. Spinner and blink messages are dropped.
func drain(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	if cmd == nil {
		return m
	}
	switch msg := cmd().(type) {
	case tea.BatchMsg:
		for _, c := range msg {
			m = drain(t, m, c)
		}
	case loginDoneMsg, usersLoadedMsg, userSavedMsg, userDeletedMsg:
		var next tea.Cmd
		m, next = send(t, m, msg)
		m = drain(t, m, next)
	}
	return m
}

func sized(t *testing.T, m Model) Model {
	m, _ = send(t, m, tea.WindowSizeMsg{Width: 100, Height: 30})
	return m
}

func TestNewModel_StartsOnLoginWithoutSession(t *testing.T) {
	h := newHarness("")
	m := sized(t, NewModel(context.Background(), h.deps))

	assert.Equal(t, ScreenLogin, m.screen)
	assert.False(t, m.busy)
	assert.Contains(t, m.View(), "TrashTalk")
}

func TestLogin_LoadsUsers(t *testing.T) {
	h := newHarness("")
	m := sized(t, NewModel(context.Background(), h.deps))

	m, _ = send(t, m, runes("ann@example.com"))
	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, 1, m.loginFocus)
	m, _ = send(t, m, runes("secret"))

	m, cmd := send(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.True(t, m.busy)
	m = drain(t, m, cmd)

	assert.Equal(t, ScreenUsers, m.screen)
	assert.False(t, m.busy)
	assert.Equal(t, "tok123", h.sess.token)
	require.Len(t, m.list, 2)
	assert.Empty(t, m.loginInputs[1].Value(), "password input is cleared")
	assert.Contains(t, m.View(), "Ann Lee")
}

func TestLogin_FailureShowsServerMessage(t *testing.T) {
	h := newHarness("")
	h.be.err = &api.HTTPError{Status: 401, Message: "Invalid credentials"}
	m := sized(t, NewModel(context.Background(), h.deps))

	m, _ = send(t, m, runes("ann@example.com"))
	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyTab})
	m, _ = send(t, m, runes("wrong"))
	m, cmd := send(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m = drain(t, m, cmd)

	assert.Equal(t, ScreenLogin, m.screen)
	assert.True(t, m.isErr)
	assert.Equal(t, "Invalid credentials", m.message)
	assert.Empty(t, h.sess.token)
}

func TestLogin_BlankFieldsShowValidation(t *testing.T) {
	h := newHarness("")
	m := NewModel(context.Background(), h.deps)

	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyTab})
	m, cmd := send(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m = drain(t, m, cmd)

	assert.Equal(t, ScreenLogin, m.screen)
	assert.True(t, m.isErr)
	assert.NotEmpty(t, m.message)
}

func TestRestoredSession_FetchesOnInit(t *testing.T) {
	h := newHarness("tok123")
	m := NewModel(context.Background(), h.deps)

	assert.Equal(t, ScreenUsers, m.screen)
	m = drain(t, m, m.Init())

	assert.Len(t, m.list, 2)
	assert.False(t, m.busy)
}

func TestCreateUser_ThroughForm(t *testing.T) {
	h := newHarness("tok123")
	m := NewModel(context.Background(), h.deps)
	m = drain(t, m, m.Init())

	m, _ = send(t, m, runes("n"))
	require.Equal(t, ModeForm, m.mode)

	m, _ = send(t, m, runes("Cy Dee"))
	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyTab})
	m, _ = send(t, m, runes("cy"))
	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyTab})
	m, _ = send(t, m, runes("cy@example.com"))

	m, cmd := send(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})
	m = drain(t, m, cmd)

	require.Len(t, h.remote.created, 1)
	assert.Equal(t, "Cy Dee", h.remote.created[0].Fullname)
	assert.Empty(t, h.remote.created[0].Password)
	assert.Equal(t, ModeNormal, m.mode)
	require.Len(t, m.list, 3)
	assert.Equal(t, "u3", m.list[m.cursor].ID)
}

func TestCreateUser_MissingFieldKeepsFormOpen(t *testing.T) {
	h := newHarness("tok123")
	m := NewModel(context.Background(), h.deps)
	m = drain(t, m, m.Init())

	m, _ = send(t, m, runes("n"))
	m, _ = send(t, m, runes("Only Name"))
	m, cmd := send(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})
	m = drain(t, m, cmd)

	assert.Equal(t, ModeForm, m.mode)
	assert.True(t, m.isErr)
	assert.Empty(t, h.remote.created)
	assert.Equal(t, "Only Name", m.formInputs[0].Value())
}

func TestEditUser_PrefillsWithoutPassword(t *testing.T) {
	h := newHarness("tok123")
	m := NewModel(context.Background(), h.deps)
	m = drain(t, m, m.Init())

	m, _ = send(t, m, runes("j"))
	m, _ = send(t, m, runes("e"))

	require.Equal(t, ModeForm, m.mode)
	id, editing := m.form.EditingID()
	assert.True(t, editing)
	assert.Equal(t, "u2", id)
	assert.Equal(t, "Bob Ray", m.formInputs[0].Value())
	assert.Empty(t, m.formInputs[3].Value())
}

func TestDelete_AsksForConfirmation(t *testing.T) {
	h := newHarness("tok123")
	m := NewModel(context.Background(), h.deps)
	m = drain(t, m, m.Init())

	m, _ = send(t, m, runes("d"))
	require.Equal(t, ModeConfirmDelete, m.mode)
	m, _ = send(t, m, runes("n"))
	assert.Equal(t, ModeNormal, m.mode)
	assert.Empty(t, h.remote.deleted)

	m, _ = send(t, m, runes("d"))
	m, cmd := send(t, m, runes("y"))
	m = drain(t, m, cmd)

	assert.Equal(t, []string{"u1"}, h.remote.deleted)
	require.Len(t, m.list, 1)
	assert.Equal(t, "u2", m.list[0].ID)
}

func TestUnauthorized_ReturnsToLogin(t *testing.T) {
	h := newHarness("tok123")
	h.remote.listErr = &api.HTTPError{Status: 401, Message: "Unauthorized"}
	m := NewModel(context.Background(), h.deps)
	m = drain(t, m, m.Init())

	assert.Equal(t, ScreenLogin, m.screen)
	assert.Empty(t, h.sess.token)
	assert.Equal(t, auth.Idle, h.flow.State())
	assert.True(t, m.isErr)
}

func TestLogout_ClearsSession(t *testing.T) {
	h := newHarness("tok123")
	m := NewModel(context.Background(), h.deps)
	m = drain(t, m, m.Init())

	m, _ = send(t, m, runes("L"))

	assert.Equal(t, ScreenLogin, m.screen)
	assert.Empty(t, h.sess.token)
	assert.Nil(t, m.list)
}

func TestInfoModal_ClosesOnAnyKey(t *testing.T) {
	h := newHarness("tok123")
	m := sized(t, NewModel(context.Background(), h.deps))
	m = drain(t, m, m.Init())

	m, _ = send(t, m, runes("i"))
	require.Equal(t, ModeInfo, m.mode)
	assert.Contains(t, m.View(), "ann@example.com")

	m, _ = send(t, m, runes("x"))
	assert.Equal(t, ModeNormal, m.mode)
}
