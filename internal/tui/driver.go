package tui

import (
	"errors"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"netradar/internal/scheduler"
)

// ErrDisplayClosed is returned by Render once the terminal program has exited.
var ErrDisplayClosed = errors.New("display closed")

// Program is the subset of *tea.Program the driver needs.
type Program interface {
	Run() (tea.Model, error)
	Send(msg tea.Msg)
	Quit()
}

// Driver adapts a bubbletea program to the scheduler's Display interface.
type Driver struct {
	program Program

	start sync.Once
	done  chan struct{}
	err   error
}

func NewDriver(p Program) *Driver {
	return &Driver{program: p, done: make(chan struct{})}
}

// Start runs the program on its own goroutine. It is a no-op after the
// first call.
func (d *Driver) Start() {
	d.start.Do(func() {
		go func() {
			defer close(d.done)
			_, d.err = d.program.Run()
		}()
	})
}

// Render hands the snapshot to the program's event loop.
func (d *Driver) Render(s scheduler.Snapshot) error {
	select {
	case <-d.done:
		return ErrDisplayClosed
	default:
	}
	d.program.Send(SnapshotMsg(s))
	return nil
}

// Close asks the program to quit and waits until the terminal is restored.
func (d *Driver) Close() error {
	// A driver that never started has nothing to wait for.
	d.start.Do(func() { close(d.done) })
	select {
	case <-d.done:
	default:
		d.program.Quit()
		<-d.done
	}
	return d.err
}

// Done is closed when the program has exited, for whatever reason.
func (d *Driver) Done() <-chan struct{} {
	return d.done
}
