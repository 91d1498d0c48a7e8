package tui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines all key bindings
type keyMap struct {
	Up      key.Binding
	Down    key.Binding
	Tab     key.Binding
	BackTab key.Binding
	Enter   key.Binding
	New     key.Binding
	Edit    key.Binding
	Delete  key.Binding
	Info    key.Binding
	Refresh key.Binding
	Logout  key.Binding
	Help    key.Binding
	Confirm key.Binding
	Quit    key.Binding
	Escape  key.Binding
}

var keys = keyMap{
	Up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Tab:     key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next field")),
	BackTab: key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "previous field")),
	Enter:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "submit/info")),
	New:     key.NewBinding(key.WithKeys("n", "a"), key.WithHelp("n", "new user")),
	Edit:    key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit")),
	Delete:  key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
	Info:    key.NewBinding(key.WithKeys("i"), key.WithHelp("i", "info")),
	Refresh: key.NewBinding(key.WithKeys("r", "R"), key.WithHelp("r", "refresh")),
	Logout:  key.NewBinding(key.WithKeys("L"), key.WithHelp("L", "logout")),
	Help:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
	Confirm: key.NewBinding(key.WithKeys("y", "Y"), key.WithHelp("y", "confirm")),
	Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	Escape:  key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
}
