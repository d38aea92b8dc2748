package tui

import (
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"netradar/internal/scheduler"
)

// SnapshotMsg delivers a new frame to the model.
type SnapshotMsg scheduler.Snapshot

// Model renders whatever snapshot it last received. It holds no packet state
// of its own; key presses are forwarded to the scheduler as input events.
type Model struct {
	snap  scheduler.Snapshot
	ready bool

	input chan<- scheduler.InputEvent
	keys  keyMap

	table table.Model
	bar   progress.Model

	width  int
	height int
}

// NewModel creates a model whose packet table shows windowSize rows.
func NewModel(input chan<- scheduler.InputEvent, windowSize int) Model {
	if windowSize < 1 {
		windowSize = 1
	}

	t := table.New(
		table.WithColumns(columns(defaultWidth)),
		table.WithFocused(false),
		table.WithHeight(windowSize+2),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	return Model{
		input: input,
		keys:  defaultKeys,
		table: t,
		bar: progress.New(
			progress.WithSolidFill("#00f3ff"),
			progress.WithoutPercentage(),
			progress.WithWidth(barWidth),
		),
		width: defaultWidth,
	}
}

func (m Model) Init() tea.Cmd {
	return nil
}
