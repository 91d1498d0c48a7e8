package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/cjnlabay/midterm/internal/form"
)

// View renders the UI
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	if m.screen == ScreenLogin {
		return m.renderLogin()
	}

	mainContent := m.renderUserList()

	var modal string
	switch m.mode {
	case ModeForm:
		modal = m.renderFormModal()
	case ModeInfo:
		modal = m.renderInfoModal()
	case ModeConfirmDelete:
		modal = m.renderConfirmModal()
	case ModeHelp:
		mainContent = m.renderHelp()
	}
	if modal != "" {
		mainContent = lipgloss.Place(
			m.width, m.height-2,
			lipgloss.Center, lipgloss.Center,
			modal,
			lipgloss.WithWhitespaceChars(" "),
		)
	}

	return lipgloss.JoinVertical(lipgloss.Left, mainContent, m.renderStatusBar())
}

func (m Model) renderLogin() string {
	labels := []string{"Email", "Password"}

	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Bold(true).Foreground(Accent).Render("TrashTalk") + "\n")
	b.WriteString(HelpStyle.Render("Log in to manage users") + "\n\n")

	for i, in := range m.loginInputs {
		label := LabelStyle.Render(labels[i])
		if i == m.loginFocus {
			label = FocusedLabelStyle.Render(labels[i])
		}
		b.WriteString(label + in.View() + "\n")
	}
	b.WriteString("\n")

	switch {
	case m.busy:
		b.WriteString(m.spinner.View() + BusyStyle.Render(" Logging in...") + "\n")
	case m.message != "":
		b.WriteString(RenderMessage(m.message, m.isErr) + "\n")
	default:
		b.WriteString("\n")
	}

	b.WriteString("\n" + HelpStyle.Render("Tab:next  Enter:login  Esc:quit"))

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
		ModalStyle.Width(52).Render(b.String()))
}

func (m Model) renderUserList() string {
	width := m.width - 4
	var s string

	header := fmt.Sprintf("Users (%d)", len(m.list))
	s += lipgloss.NewStyle().Bold(true).Foreground(Accent).Render(header) + "\n"
	s += lipgloss.NewStyle().Foreground(Border).Render(strings.Repeat("─", max(width-4, 0))) + "\n\n"

	if len(m.list) == 0 {
		if m.busy {
			s += HelpStyle.Render("  Loading...")
		} else {
			s += HelpStyle.Render("  No users. Press 'n' to add one.")
		}
	}

	nameWidth := 24
	for i, u := range m.list {
		cursor := "  "
		style := UserItemStyle
		if i == m.cursor {
			cursor = "❯ "
			style = UserItemSelectedStyle
		}

		line := fmt.Sprintf("%s%-*s %-16s %s",
			cursor, nameWidth, truncate(u.Fullname, nameWidth),
			truncate(u.Username, 16), truncate(u.Email, max(width-nameWidth-24, 8)))
		s += style.Render(line) + "\n"
	}

	return ListStyle.Width(width).Height(m.height - 2).Render(s)
}

func (m Model) renderStatusBar() string {
	help := "n:new  e:edit  d:del  i:info  r:refresh  ?:help  L:logout  q:quit"
	if m.message != "" {
		help = RenderMessage(m.message, m.isErr)
	}

	if m.busy {
		help = m.spinner.View() + " " + help
	}

	return StatusBarStyle.Width(m.width).Render(help)
}

func (m Model) renderFormModal() string {
	title := "New User"
	if id, ok := m.form.EditingID(); ok {
		title = "Edit User " + HelpStyle.Render(id)
	}

	content := lipgloss.NewStyle().Bold(true).Render(title) + "\n\n"
	for i, f := range form.Fields() {
		label := LabelStyle.Render(string(f))
		if i == m.formFocus {
			label = FocusedLabelStyle.Render(string(f))
		}
		content += label + m.formInputs[i].View() + "\n"
	}

	content += "\n"
	if m.busy {
		content += m.spinner.View() + BusyStyle.Render(" Saving...") + "\n"
	} else if m.isErr && m.message != "" {
		content += RenderMessage(m.message, true) + "\n"
	}
	content += HelpStyle.Render("Tab:next  Enter:next/save  Ctrl+S:save  Esc:cancel")

	return ModalStyle.Width(56).Render(content)
}

func (m Model) renderInfoModal() string {
	u, ok := m.currentUser()
	if !ok {
		return ""
	}

	row := func(label, value string) string {
		return LabelStyle.Render(label) + value + "\n"
	}

	content := lipgloss.NewStyle().Bold(true).Foreground(Accent).Render(u.DisplayName()) + "\n\n"
	content += row("ID", u.ID)
	content += row("Full name", u.Fullname)
	content += row("Username", u.Username)
	content += row("Email", u.Email)
	if !u.CreatedAt.IsZero() {
		content += row("Created", u.CreatedAt.Local().Format("Jan 2, 2006 15:04"))
	}
	if !u.UpdatedAt.IsZero() {
		content += row("Updated", u.UpdatedAt.Local().Format("Jan 2, 2006 15:04"))
	}
	content += "\n" + HelpStyle.Render("Press any key to close")

	return ModalStyle.Width(56).Render(content)
}

func (m Model) renderConfirmModal() string {
	u, ok := m.currentUser()
	if !ok {
		return ""
	}

	content := ErrorStyle.Bold(true).Render("Delete user?") + "\n\n"
	content += fmt.Sprintf("%s (%s)\n\n", u.DisplayName(), u.ID)
	if m.busy {
		content += m.spinner.View() + BusyStyle.Render(" Deleting...")
	} else {
		content += HelpStyle.Render("y:delete  any other key:cancel")
	}

	return DangerModalStyle.Width(48).Render(content)
}

func (m Model) renderHelp() string {
	help := `
╭─── Keyboard Shortcuts ───╮
│                          │
│  Navigation              │
│  ──────────              │
│  j/↓    Move down        │
│  k/↑    Move up          │
│  g/G    Top / bottom     │
│                          │
│  Actions                 │
│  ───────                 │
│  n       New user        │
│  e       Edit user       │
│  d       Delete user     │
│  i/Enter User info       │
│  r       Refresh         │
│                          │
│  Other                   │
│  ─────                   │
│  ?       Toggle help     │
│  L       Logout          │
│  q       Quit            │
│                          │
╰──────────────────────────╯

     Press any key to close
`
	return lipgloss.Place(m.width, m.height-2, lipgloss.Center, lipgloss.Center, help)
}
