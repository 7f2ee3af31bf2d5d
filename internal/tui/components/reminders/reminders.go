package reminders

import (
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/careminder/internal/constants"
	"github.com/julianstephens/careminder/internal/i18n"
	"github.com/julianstephens/careminder/internal/models"
)

// ScanMsg asks the parent to open the code input.
type ScanMsg struct{}

// DeleteAllMsg asks the parent to confirm deleting every reminder.
type DeleteAllMsg struct{}

var pastStyle = lipgloss.NewStyle().Strikethrough(true).Foreground(lipgloss.Color("240"))

type Item struct {
	Reminder models.Reminder
	Lang     i18n.Lang
	Now      time.Time
}

func (i Item) Title() string {
	title := "📅 " + i.Reminder.Message
	if i.Reminder.IsPast(i.Now) {
		return pastStyle.Render(title)
	}
	return title
}

func (i Item) Description() string {
	when := i.Reminder.Time
	if at, err := i.Reminder.At(i.Now.Location()); err == nil {
		when = at.Format(constants.DisplayFormat)
	}
	if label := i.Lang.RepeatLabel(i.Reminder.RepeatType); label != "" {
		when += "  " + label
	}
	if until := i.Lang.UntilText(i.Reminder.EndDate); until != "" {
		when += "  " + until
	}
	return when
}

func (i Item) FilterValue() string { return i.Reminder.Message }

type KeyMap struct {
	Scan   key.Binding
	Delete key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Scan: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "scan code"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "delete all"),
		),
	}
}

// Model is the time-sorted reminder list.
type Model struct {
	list list.Model
	keys KeyMap
}

func New(width, height int) Model {
	l := list.New(nil, list.NewDefaultDelegate(), width, height)
	l.SetShowTitle(false)
	l.SetShowHelp(false)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)

	return Model{
		list: l,
		keys: DefaultKeyMap(),
	}
}

func (m Model) Keys() KeyMap { return m.keys }

// SetReminders replaces the items with data's reminders sorted by time.
// The past/future split is evaluated at now.
func (m *Model) SetReminders(data *models.PatientData, lang i18n.Lang, now time.Time) {
	if data == nil {
		m.list.SetItems(nil)
		return
	}
	sorted := data.SortedReminders()
	items := make([]list.Item, len(sorted))
	for i, r := range sorted {
		items[i] = Item{Reminder: r, Lang: lang, Now: now}
	}
	m.list.SetItems(items)
}

func (m Model) Len() int { return len(m.list.Items()) }

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd

	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, m.keys.Scan):
			return m, func() tea.Msg { return ScanMsg{} }
		case key.Matches(msg, m.keys.Delete):
			if m.Len() > 0 {
				return m, func() tea.Msg { return DeleteAllMsg{} }
			}
			return m, nil
		}
	}

	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	return m.list.View()
}

func (m *Model) SetSize(width, height int) {
	m.list.SetSize(width, height)
}
