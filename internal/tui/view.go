package tui

import (
	"github.com/charmbracelet/lipgloss"
)

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var content string
	switch m.state {
	case StateScan:
		content = m.viewScan()
	case StateConfirmDelete:
		content = m.form.View()
	default:
		content = m.viewList()
	}

	return docStyle.Render(lipgloss.JoinVertical(
		lipgloss.Left,
		m.viewHeader(),
		content,
		m.viewStatus(),
		m.help.View(m),
	))
}

func (m Model) viewHeader() string {
	t := m.ctx.Lang.T()
	title := t.AppTitle
	if m.data != nil {
		title = m.data.PatientName
	}

	parts := []string{titleStyle.Render(title)}
	if m.data != nil {
		parts = append(parts, badgeStyle.Render("🔔 "+t.NotificationsEnabled))
	}
	parts = append(parts, langStyle.Render(t.LanguageName))
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...) + "\n"
}

func (m Model) viewList() string {
	t := m.ctx.Lang.T()
	if m.data == nil || m.list.Len() == 0 {
		empty := lipgloss.JoinVertical(lipgloss.Center,
			"📷",
			titleStyle.Render(t.NoReminders),
			t.NoRemindersText,
			"",
			"[s] "+t.ScanButton,
		)
		if m.width > 0 && m.height > chromeHeight {
			return lipgloss.Place(m.width-4, m.height-chromeHeight, lipgloss.Center, lipgloss.Center, empty)
		}
		return emptyStyle.Render(empty)
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		t.YourReminders,
		m.list.View(),
	)
}

func (m Model) viewScan() string {
	t := m.ctx.Lang.T()
	title := t.ScanButton
	if m.data != nil {
		title = t.ScanNew
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render(title),
		"",
		m.input.View(),
	)
}

func (m Model) viewStatus() string {
	if m.busy {
		return warningStyle.Render("…")
	}
	switch m.statusKind {
	case statusSuccess:
		return successStyle.Render(m.status)
	case statusError:
		return dangerStyle.Render(m.status)
	case statusWarning:
		return warningStyle.Render(m.status)
	}
	return m.status
}
