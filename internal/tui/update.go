package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/cjnlabay/midterm/internal/api"
	"github.com/cjnlabay/midterm/internal/collection"
	"github.com/cjnlabay/midterm/internal/form"
	"github.com/cjnlabay/midterm/internal/logger"
	"github.com/cjnlabay/midterm/internal/model"
)

// loginDoneMsg carries the result of a login attempt
type loginDoneMsg struct {
	err error
}

// usersLoadedMsg is sent when a fetch of the collection finishes
type usersLoadedMsg struct {
	err error
}

// userSavedMsg is sent when a create or update finishes
type userSavedMsg struct {
	user    model.User
	created bool
	err     error
}

// userDeletedMsg is sent when a delete finishes
type userDeletedMsg struct {
	id  string
	err error
}

// Init starts the cursor blink and, with a restored session, the first fetch
func (m Model) Init() tea.Cmd {
	if m.screen == ScreenUsers {
		return tea.Batch(textinput.Blink, m.spinner.Tick, m.fetchCmd())
	}
	return textinput.Blink
}

func (m Model) loginCmd(email, password string) tea.Cmd {
	return func() tea.Msg {
		return loginDoneMsg{err: m.auth.Login(m.ctx, email, password)}
	}
}

func (m Model) fetchCmd() tea.Cmd {
	return func() tea.Msg {
		_, err := m.users.FetchAll(m.ctx)
		return usersLoadedMsg{err: err}
	}
}

func (m Model) saveCmd(id string, d form.Draft) tea.Cmd {
	return func() tea.Msg {
		if id == "" {
			u, err := m.users.Create(m.ctx, d)
			return userSavedMsg{user: u, created: true, err: err}
		}
		u, err := m.users.Update(m.ctx, id, d)
		return userSavedMsg{user: u, err: err}
	}
}

func (m Model) deleteCmd(id string) tea.Cmd {
	return func() tea.Msg {
		return userDeletedMsg{id: id, err: m.users.Delete(m.ctx, id)}
	}
}

// startBusy marks a request in flight and keeps the spinner turning
func (m Model) startBusy(cmd tea.Cmd) (tea.Model, tea.Cmd) {
	m.busy = true
	return m, tea.Batch(cmd, m.spinner.Tick)
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case loginDoneMsg:
		return m.handleLoginDone(msg)

	case usersLoadedMsg:
		m.busy = false
		if m.screen != ScreenUsers {
			return m, nil
		}
		if msg.err != nil {
			return m.handleRequestError("Refresh failed", msg.err)
		}
		m.refreshList()
		m.setMessage(fmt.Sprintf("Loaded %d users", len(m.list)), false)
		return m, nil

	case userSavedMsg:
		m.busy = false
		if m.screen != ScreenUsers {
			return m, nil
		}
		if msg.err != nil {
			// Keep the form open so the input is not lost
			return m.handleRequestError("Save failed", msg.err)
		}
		m.mode = ModeNormal
		m.form.Reset()
		m.refreshList()
		for i, u := range m.list {
			if u.ID == msg.user.ID {
				m.cursor = i
			}
		}
		verb := "Updated"
		if msg.created {
			verb = "Created"
		}
		m.setMessage(fmt.Sprintf("%s: %s", verb, msg.user.DisplayName()), false)
		return m, nil

	case userDeletedMsg:
		m.busy = false
		if m.screen != ScreenUsers {
			return m, nil
		}
		m.mode = ModeNormal
		if msg.err != nil {
			return m.handleRequestError("Delete failed", msg.err)
		}
		m.refreshList()
		m.setMessage("Deleted "+msg.id, false)
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if m.screen == ScreenLogin {
			return m.updateLogin(msg)
		}

		switch m.mode {
		case ModeForm:
			return m.updateForm(msg)
		case ModeConfirmDelete:
			return m.updateConfirmDelete(msg)
		case ModeInfo, ModeHelp:
			m.mode = ModeNormal
			return m, nil
		}

		// Normal mode key handling
		return m.handleNormalKeys(msg)
	}

	return m, nil
}

// handleRequestError reports a failed request. A missing or rejected
// session sends the user back to the login screen.
func (m Model) handleRequestError(prefix string, err error) (tea.Model, tea.Cmd) {
	if collection.IsAuthError(err) {
		logger.Warn("Session rejected, returning to login", logger.F("error", err))
		m.auth.Logout(m.ctx)
		m.screen = ScreenLogin
		m.mode = ModeNormal
		m.list = nil
		m.cursor = 0
		m.setMessage("Session expired, please log in again", true)
		m.loginFocus = 0
		focusOnly(m.loginInputs, 0)
		return m, textinput.Blink
	}
	m.setMessage(fmt.Sprintf("%s: %s", prefix, api.Message(err)), true)
	return m, nil
}

func (m Model) updateLogin(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.busy {
		return m, nil
	}

	switch {
	case key.Matches(msg, keys.Escape):
		return m, tea.Quit

	case key.Matches(msg, keys.Tab), msg.Type == tea.KeyDown:
		m.loginFocus = (m.loginFocus + 1) % len(m.loginInputs)
		focusOnly(m.loginInputs, m.loginFocus)
		return m, nil

	case key.Matches(msg, keys.BackTab), msg.Type == tea.KeyUp:
		m.loginFocus = (m.loginFocus + len(m.loginInputs) - 1) % len(m.loginInputs)
		focusOnly(m.loginInputs, m.loginFocus)
		return m, nil

	case key.Matches(msg, keys.Enter):
		if m.loginFocus < len(m.loginInputs)-1 {
			m.loginFocus++
			focusOnly(m.loginInputs, m.loginFocus)
			return m, nil
		}
		m.setMessage("", false)
		return m.startBusy(m.loginCmd(m.loginInputs[0].Value(), m.loginInputs[1].Value()))
	}

	var cmd tea.Cmd
	m.loginInputs[m.loginFocus], cmd = m.loginInputs[m.loginFocus].Update(msg)
	return m, cmd
}

func (m Model) handleLoginDone(msg loginDoneMsg) (tea.Model, tea.Cmd) {
	m.busy = false
	if msg.err != nil {
		text := m.auth.FailureMessage()
		if text == "" {
			text = api.Message(msg.err)
		}
		m.setMessage(text, true)
		return m, nil
	}

	m.loginInputs[1].SetValue("")
	m.screen = ScreenUsers
	m.mode = ModeNormal
	m.setMessage("Logged in", false)
	return m.startBusy(m.fetchCmd())
}

// handleNormalKeys handles key presses on the users list
func (m Model) handleNormalKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}

	case key.Matches(msg, keys.Down):
		if m.cursor < len(m.list)-1 {
			m.cursor++
		}

	case msg.String() == "g":
		m.cursor = 0

	case msg.String() == "G":
		m.cursor = clamp(len(m.list)-1, len(m.list))

	case key.Matches(msg, keys.Help):
		m.mode = ModeHelp

	case key.Matches(msg, keys.Info), key.Matches(msg, keys.Enter):
		if _, ok := m.currentUser(); ok {
			m.mode = ModeInfo
		}

	case key.Matches(msg, keys.Logout):
		m.auth.Logout(m.ctx)
		m.busy = false
		m.mode = ModeNormal
		m.screen = ScreenLogin
		m.list = nil
		m.cursor = 0
		m.loginFocus = 0
		focusOnly(m.loginInputs, 0)
		m.setMessage("Logged out", false)
		return m, textinput.Blink
	}

	// Requests wait for the one in flight
	if m.busy {
		return m, nil
	}

	switch {
	case key.Matches(msg, keys.Refresh):
		m.setMessage("Refreshing...", false)
		return m.startBusy(m.fetchCmd())

	case key.Matches(msg, keys.New):
		m.form.Reset()
		return m.openForm()

	case key.Matches(msg, keys.Edit):
		u, ok := m.currentUser()
		if !ok {
			return m, nil
		}
		m.form.LoadFrom(u)
		return m.openForm()

	case key.Matches(msg, keys.Delete):
		if _, ok := m.currentUser(); ok {
			m.mode = ModeConfirmDelete
		}
	}

	return m, nil
}

// openForm copies the form draft into the inputs and shows the modal
func (m Model) openForm() (tea.Model, tea.Cmd) {
	for i, f := range form.Fields() {
		m.formInputs[i].SetValue(m.form.Get(f))
	}
	m.formFocus = 0
	focusOnly(m.formInputs, 0)
	m.mode = ModeForm
	m.setMessage("", false)
	return m, textinput.Blink
}

func (m Model) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.busy {
		return m, nil
	}

	switch {
	case key.Matches(msg, keys.Escape):
		m.form.Reset()
		m.mode = ModeNormal
		return m, nil

	case key.Matches(msg, keys.Tab), msg.Type == tea.KeyDown:
		m.formFocus = (m.formFocus + 1) % len(m.formInputs)
		focusOnly(m.formInputs, m.formFocus)
		return m, nil

	case key.Matches(msg, keys.BackTab), msg.Type == tea.KeyUp:
		m.formFocus = (m.formFocus + len(m.formInputs) - 1) % len(m.formInputs)
		focusOnly(m.formInputs, m.formFocus)
		return m, nil

	case key.Matches(msg, keys.Enter), msg.Type == tea.KeyCtrlS:
		if msg.Type == tea.KeyEnter && m.formFocus < len(m.formInputs)-1 {
			m.formFocus++
			focusOnly(m.formInputs, m.formFocus)
			return m, nil
		}
		return m.submitForm()
	}

	var cmd tea.Cmd
	m.formInputs[m.formFocus], cmd = m.formInputs[m.formFocus].Update(msg)
	return m, cmd
}

func (m Model) submitForm() (tea.Model, tea.Cmd) {
	for i, f := range form.Fields() {
		_ = m.form.Set(f, m.formInputs[i].Value())
	}
	id, _ := m.form.EditingID()
	m.setMessage("Saving...", false)
	return m.startBusy(m.saveCmd(id, m.form.Snapshot()))
}

func (m Model) updateConfirmDelete(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.busy {
		return m, nil
	}
	u, ok := m.currentUser()
	if !ok || !key.Matches(msg, keys.Confirm) {
		m.mode = ModeNormal
		m.setMessage("Delete cancelled", false)
		return m, nil
	}
	m.setMessage("Deleting...", false)
	return m.startBusy(m.deleteCmd(u.ID))
}
