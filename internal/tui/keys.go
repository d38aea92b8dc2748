package tui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"netradar/internal/scheduler"
)

type keyMap struct {
	Up      key.Binding
	Down    key.Binding
	Top     key.Binding
	Bottom  key.Binding
	Inspect key.Binding
	Switch  key.Binding
	Quit    key.Binding
}

var defaultKeys = keyMap{
	Up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Top:     key.NewBinding(key.WithKeys("g", "home"), key.WithHelp("g", "first")),
	Bottom:  key.NewBinding(key.WithKeys("G", "end"), key.WithHelp("G", "last")),
	Inspect: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "inspect")),
	Switch:  key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "switch view")),
	Quit:    key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q/esc", "quit")),
}

// event translates a key press into a scheduler input event.
func (k keyMap) event(msg tea.KeyMsg) (scheduler.InputEvent, bool) {
	switch {
	case key.Matches(msg, k.Up):
		return scheduler.MoveUp, true
	case key.Matches(msg, k.Down):
		return scheduler.MoveDown, true
	case key.Matches(msg, k.Top):
		return scheduler.MoveTop, true
	case key.Matches(msg, k.Bottom):
		return scheduler.MoveBottom, true
	case key.Matches(msg, k.Inspect):
		return scheduler.SelectEnter, true
	case key.Matches(msg, k.Switch):
		return scheduler.SwitchView, true
	case key.Matches(msg, k.Quit):
		return scheduler.Quit, true
	}
	return 0, false
}
