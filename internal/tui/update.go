package tui

import (
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	apperrors "github.com/julianstephens/careminder/internal/errors"
	"github.com/julianstephens/careminder/internal/logger"
	"github.com/julianstephens/careminder/internal/models"
	"github.com/julianstephens/careminder/internal/session"
	"github.com/julianstephens/careminder/internal/tui/components/reminders"
)

type scanResultMsg struct {
	outcome session.Outcome
	err     error
}

type deleteResultMsg struct {
	err error
}

// header, status line and help
const chromeHeight = 7

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.list.SetSize(msg.Width-4, max(msg.Height-chromeHeight, 0))
		m.input.Width = max(msg.Width-8, 20)
		return m, nil

	case tickMsg:
		m.now = m.ctx.Now()
		m.refresh()
		return m, tick()

	case scanResultMsg:
		m.busy = false
		m.handleScanResult(msg)
		return m, nil

	case deleteResultMsg:
		m.busy = false
		t := m.ctx.Lang.T()
		if msg.err != nil {
			logger.Error("Delete all failed", "error", msg.err)
			m.setStatus(statusError, t.Error+": "+msg.err.Error())
			return m, nil
		}
		m.data = nil
		m.refresh()
		m.setStatus(statusSuccess, "✓ "+t.AllDeleted)
		return m, nil
	}

	switch m.state {
	case StateScan:
		return m.updateScan(msg)
	case StateConfirmDelete:
		return m.updateConfirmDelete(msg)
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
			return m, nil
		case key.Matches(msg, m.keys.Language):
			m.ctx.SetLang(m.ctx.Lang.Toggle())
			m.status = ""
			m.refresh()
			return m, nil
		}
	case reminders.ScanMsg:
		if m.busy {
			return m, nil
		}
		m.state = StateScan
		m.status = ""
		m.input.Reset()
		return m, m.input.Focus()
	case reminders.DeleteAllMsg:
		if m.busy {
			return m, nil
		}
		return m, m.openConfirmDelete()
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) updateScan(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.Type {
		case tea.KeyEsc:
			m.input.Blur()
			m.state = StateList
			return m, nil
		case tea.KeyEnter:
			code := strings.TrimSpace(m.input.Value())
			m.input.Blur()
			m.state = StateList
			if code == "" {
				return m, nil
			}
			m.busy = true
			return m, m.scan(code)
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// scan runs the import off the update loop.
func (m Model) scan(code string) tea.Cmd {
	sess := m.ctx.Session
	ctx := m.ctx.Context()
	return func() tea.Msg {
		outcome, err := sess.HandleScan(ctx, code)
		return scanResultMsg{outcome: outcome, err: err}
	}
}

func (m *Model) handleScanResult(msg scanResultMsg) {
	t := m.ctx.Lang.T()
	switch {
	case msg.err == nil:
		data := msg.outcome.Patient.Clone()
		m.data = &data
		m.now = m.ctx.Now()
		m.refresh()
		m.setStatus(statusSuccess, "✓ "+m.ctx.Lang.Loaded(data.PatientName))
	case errors.Is(msg.err, session.ErrScanCooldown), errors.Is(msg.err, session.ErrImportInProgress):
		m.setStatus(statusWarning, t.ScanCooldown)
	case errors.Is(msg.err, apperrors.ErrInvalidCode):
		logger.Warn("Rejected scanned code", "error", msg.err)
		m.setStatus(statusError, t.Error+": "+t.InvalidCode)
	default:
		logger.Error("Import failed", "error", msg.err)
		m.setStatus(statusError, t.Error+": "+msg.err.Error())
	}
}

func (m *Model) openConfirmDelete() tea.Cmd {
	t := m.ctx.Lang.T()
	m.confirmForm = &ConfirmFormModel{}
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(t.DeleteTitle).
				Description(t.DeleteMessage).
				Affirmative(t.DeleteConfirm).
				Negative(t.Cancel).
				Value(&m.confirmForm.Confirmed),
		),
	)
	m.state = StateConfirmDelete
	m.status = ""
	return m.form.Init()
}

func (m Model) updateConfirmDelete(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.Type == tea.KeyEsc {
		m.state = StateList
		return m, nil
	}

	var cmds []tea.Cmd
	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}
	cmds = append(cmds, cmd)

	switch m.form.State {
	case huh.StateCompleted:
		m.state = StateList
		if m.confirmForm.Confirmed {
			m.busy = true
			cmds = append(cmds, m.deleteAll())
		}
	case huh.StateAborted:
		m.state = StateList
	}
	return m, tea.Batch(cmds...)
}

func (m Model) deleteAll() tea.Cmd {
	sess := m.ctx.Session
	ctx := m.ctx.Context()
	return func() tea.Msg {
		return deleteResultMsg{err: sess.DeleteAll(ctx)}
	}
}

// Data returns the reminders currently on screen.
func (m Model) Data() *models.PatientData {
	return m.data
}
