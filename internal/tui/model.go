package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/cjnlabay/midterm/internal/auth"
	"github.com/cjnlabay/midterm/internal/collection"
	"github.com/cjnlabay/midterm/internal/form"
	"github.com/cjnlabay/midterm/internal/logger"
	"github.com/cjnlabay/midterm/internal/model"
)

// Screen is the top-level page
type Screen int

const (
	ScreenLogin Screen = iota
	ScreenUsers
)

// Mode represents the current UI mode on the users screen
type Mode int

const (
	ModeNormal Mode = iota
	ModeForm
	ModeInfo
	ModeConfirmDelete
	ModeHelp
)

// Deps are the client components the TUI drives
type Deps struct {
	Auth  *auth.Flow
	Users *collection.Syncer
}

// Model is the main TUI model
type Model struct {
	ctx   context.Context
	auth  *auth.Flow
	users *collection.Syncer

	// Loaded collection snapshot
	list []model.User

	// UI state
	width  int
	height int
	screen Screen
	mode   Mode
	cursor int
	busy   bool

	// Login
	loginInputs []textinput.Model
	loginFocus  int

	// Create/edit
	form       form.Form
	formInputs []textinput.Model
	formFocus  int

	spinner spinner.Model

	message string
	isErr   bool
}

func newInput(placeholder string, secret bool) textinput.Model {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.CharLimit = 256
	ti.Width = 36
	if secret {
		ti.EchoMode = textinput.EchoPassword
		ti.EchoCharacter = '•'
	}
	return ti
}

// NewModel creates a new TUI model. A restored session opens the users
// screen directly.
func NewModel(ctx context.Context, deps Deps) Model {
	logger.Info("Initializing TUI model")

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = BusyStyle

	m := Model{
		ctx:     ctx,
		auth:    deps.Auth,
		users:   deps.Users,
		screen:  ScreenLogin,
		mode:    ModeNormal,
		spinner: sp,
		loginInputs: []textinput.Model{
			newInput("you@example.com", false),
			newInput("password", true),
		},
	}
	for _, f := range form.Fields() {
		placeholder := string(f)
		if f == form.Password {
			placeholder = "leave empty to keep"
		}
		m.formInputs = append(m.formInputs, newInput(placeholder, f == form.Password))
	}
	m.loginInputs[0].Focus()

	if m.auth.State() == auth.Authenticated {
		m.screen = ScreenUsers
		m.busy = true
	}

	logger.Debug("TUI model initialized", logger.F("screen", int(m.screen)))
	return m
}

func (m *Model) currentUser() (model.User, bool) {
	if m.cursor < 0 || m.cursor >= len(m.list) {
		return model.User{}, false
	}
	return m.list[m.cursor], true
}

func (m *Model) setMessage(text string, isErr bool) {
	m.message = text
	m.isErr = isErr
}

// refreshList takes a new snapshot of the collection and keeps the cursor valid
func (m *Model) refreshList() {
	m.list = m.users.Users()
	m.cursor = clamp(m.cursor, len(m.list))
}

func focusOnly(inputs []textinput.Model, idx int) {
	for i := range inputs {
		if i == idx {
			inputs[i].Focus()
		} else {
			inputs[i].Blur()
		}
	}
}
