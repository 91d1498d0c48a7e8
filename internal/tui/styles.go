package tui

import "github.com/charmbracelet/lipgloss"

var (
	Accent  = lipgloss.Color("#7AA2F7")
	Success = lipgloss.Color("#9ECE6A")
	Warning = lipgloss.Color("#E0AF68")
	Danger  = lipgloss.Color("#F7768E")

	Highlight = lipgloss.Color("#292E42")
	Muted     = lipgloss.Color("#787C99")
	Border    = lipgloss.Color("#3B4261")
)

var (
	HeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(Accent).Padding(0, 1)

	ListStyle             = lipgloss.NewStyle().Padding(1, 2)
	UserItemStyle         = lipgloss.NewStyle().Padding(0, 1)
	UserItemSelectedStyle = UserItemStyle.Background(Highlight).Foreground(Accent).Bold(true)

	// Pinned to the bottom line, separated by a rule
	StatusBarStyle = lipgloss.NewStyle().
			Foreground(Muted).
			Padding(0, 1).
			BorderStyle(lipgloss.NormalBorder()).
			BorderTop(true).
			BorderForeground(Border)

	// Used for the login box as well as the form, info and help modals
	ModalStyle       = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(Accent).Padding(1, 3)
	DangerModalStyle = ModalStyle.BorderForeground(Danger)

	LabelStyle        = lipgloss.NewStyle().Width(10).Foreground(Muted)
	FocusedLabelStyle = LabelStyle.Foreground(Accent).Bold(true)

	ErrorStyle   = lipgloss.NewStyle().Foreground(Danger)
	SuccessStyle = lipgloss.NewStyle().Foreground(Success)
	BusyStyle    = lipgloss.NewStyle().Foreground(Warning)
	HelpStyle    = lipgloss.NewStyle().Foreground(Muted).Italic(true)
)

// RenderMessage colors a status line by kind
func RenderMessage(text string, isErr bool) string {
	if isErr {
		return ErrorStyle.Render(text)
	}
	return SuccessStyle.Render(text)
}
