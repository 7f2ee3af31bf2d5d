package tui

import (
	"github.com/charmbracelet/bubbles/key"

	"github.com/julianstephens/careminder/internal/tui/components/reminders"
)

type KeyMap struct {
	Quit     key.Binding
	Up       key.Binding
	Down     key.Binding
	Help     key.Binding
	Scan     key.Binding
	Delete   key.Binding
	Language key.Binding
}

func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Scan, k.Language, k.Quit, k.Help}
}

func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down},
		{k.Scan, k.Delete, k.Language},
		{k.Quit, k.Help},
	}
}

func DefaultKeyMap() KeyMap {
	list := reminders.DefaultKeyMap()
	return KeyMap{
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		Scan:   list.Scan,
		Delete: list.Delete,
		Language: key.NewBinding(
			key.WithKeys("l"),
			key.WithHelp("l", "EN/FI"),
		),
	}
}
