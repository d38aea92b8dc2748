package tui

import (
	"strconv"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"

	"netradar/internal/scheduler"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if ev, ok := m.keys.event(msg); ok {
			return m, m.send(ev)
		}

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.table.SetColumns(columns(m.width))

	case SnapshotMsg:
		m.snap = scheduler.Snapshot(msg)
		m.ready = true
		m.syncTable()
	}

	return m, nil
}

// quitGrace is how long a pending quit waits for the scheduler before the
// UI exits on its own.
var quitGrace = 2 * time.Second

// send never blocks the UI. If the scheduler is behind, navigation keys are
// lost, while a quit is retried from a command until it is delivered.
func (m Model) send(ev scheduler.InputEvent) tea.Cmd {
	if m.input == nil {
		return nil
	}
	select {
	case m.input <- ev:
		return nil
	default:
	}
	if ev != scheduler.Quit {
		return nil
	}
	input := m.input
	return func() tea.Msg {
		select {
		case input <- ev:
			return nil
		case <-time.After(quitGrace):
			// Leaving the program closes the driver, which stops the session.
			return tea.Quit()
		}
	}
}

func (m *Model) syncTable() {
	rows := make([]table.Row, len(m.snap.Rows))
	cursor := 0
	for i, r := range m.snap.Rows {
		rows[i] = table.Row{
			strconv.FormatUint(r.Seq, 10),
			formatElapsed(r.Elapsed),
			orDash(r.Source),
			orDash(r.Dest),
			r.Category.String(),
			r.Summary,
		}
		if r.Selected {
			cursor = i
		}
	}
	m.table.SetRows(rows)
	if len(rows) > 0 {
		m.table.SetCursor(cursor)
	}
}
