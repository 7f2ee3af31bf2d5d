package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/julianstephens/careminder/internal/cli"
	"github.com/julianstephens/careminder/internal/constants"
	"github.com/julianstephens/careminder/internal/models"
	"github.com/julianstephens/careminder/internal/tui/components/reminders"
)

type SessionState int

const (
	StateList SessionState = iota
	StateScan
	StateConfirmDelete
)

type statusKind int

const (
	statusNone statusKind = iota
	statusSuccess
	statusError
	statusWarning
)

// ConfirmFormModel backs the delete-all confirmation form.
type ConfirmFormModel struct {
	Confirmed bool
}

type Model struct {
	ctx         *cli.Context
	state       SessionState
	keys        KeyMap
	help        help.Model
	list        reminders.Model
	input       textinput.Model
	form        *huh.Form
	confirmForm *ConfirmFormModel
	data        *models.PatientData
	now         time.Time
	busy        bool // an import or delete is running
	status      string
	statusKind  statusKind
	quitting    bool
	width       int
	height      int
}

// NewModel builds the reminder screen over ctx. The session is expected to
// have been restored already.
func NewModel(ctx *cli.Context) Model {
	input := textinput.New()
	input.Placeholder = "careminder://import?data=..."
	input.CharLimit = 0
	input.Prompt = "› "

	m := Model{
		ctx:   ctx,
		state: StateList,
		keys:  DefaultKeyMap(),
		help:  help.New(),
		list:  reminders.New(0, 0),
		input: input,
		data:  ctx.Session.Active(),
		now:   ctx.Now(),
	}
	m.refresh()
	return m
}

func (m Model) ShortHelp() []key.Binding {
	switch m.state {
	case StateScan:
		return []key.Binding{
			key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "load")),
			key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", m.ctx.Lang.T().Cancel)),
		}
	case StateConfirmDelete:
		return nil
	}
	keys := []key.Binding{m.keys.Scan}
	if m.data != nil {
		keys = append(keys, m.keys.Delete)
	}
	return append(keys, m.keys.Language, m.keys.Quit, m.keys.Help)
}

func (m Model) FullHelp() [][]key.Binding {
	if m.state != StateList {
		return [][]key.Binding{m.ShortHelp()}
	}
	return m.keys.FullHelp()
}

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(constants.RefreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) Init() tea.Cmd {
	return tick()
}

// refresh rebuilds the list from the active data at the current time and
// language.
func (m *Model) refresh() {
	m.list.SetReminders(m.data, m.ctx.Lang, m.now)
}

func (m *Model) setStatus(kind statusKind, text string) {
	m.statusKind = kind
	m.status = text
}
