package tui

import (
	"errors"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"netradar/internal/scheduler"
)

type fakeProgram struct {
	msgs chan tea.Msg
	quit chan struct{}
	once sync.Once
	err  error

	mu    sync.Mutex
	quitN int
}

func newFakeProgram(err error) *fakeProgram {
	return &fakeProgram{msgs: make(chan tea.Msg, 8), quit: make(chan struct{}), err: err}
}

func (p *fakeProgram) Run() (tea.Model, error) {
	<-p.quit
	return nil, p.err
}

func (p *fakeProgram) Send(msg tea.Msg) { p.msgs <- msg }

func (p *fakeProgram) Quit() {
	p.mu.Lock()
	p.quitN++
	p.mu.Unlock()
	p.exit()
}

func (p *fakeProgram) exit() { p.once.Do(func() { close(p.quit) }) }

func TestDriver_RenderSendsSnapshot(t *testing.T) {
	p := newFakeProgram(nil)
	d := NewDriver(p)
	d.Start()

	require.NoError(t, d.Render(scheduler.Snapshot{Interface: "eth0", Total: 3}))
	msg := <-p.msgs
	snap, ok := msg.(SnapshotMsg)
	require.True(t, ok)
	assert.Equal(t, "eth0", snap.Interface)
	assert.EqualValues(t, 3, snap.Total)

	require.NoError(t, d.Close())
	assert.Equal(t, 1, p.quitN)
}

func TestDriver_ClosePropagatesProgramError(t *testing.T) {
	boom := errors.New("terminal gone")
	d := NewDriver(newFakeProgram(boom))
	d.Start()
	assert.ErrorIs(t, d.Close(), boom)
	assert.ErrorIs(t, d.Close(), boom)
}

func TestDriver_ProgramExitsOnItsOwn(t *testing.T) {
	p := newFakeProgram(nil)
	d := NewDriver(p)
	d.Start()
	p.exit()

	select {
	case <-d.Done():
	case <-time.After(time.Second):
		t.Fatal("driver did not notice program exit")
	}
	assert.ErrorIs(t, d.Render(scheduler.Snapshot{}), ErrDisplayClosed)
	assert.NoError(t, d.Close())
	assert.Zero(t, p.quitN)
}

func TestDriver_CloseWithoutStart(t *testing.T) {
	p := newFakeProgram(nil)
	d := NewDriver(p)
	assert.NoError(t, d.Close())
	assert.ErrorIs(t, d.Render(scheduler.Snapshot{}), ErrDisplayClosed)

	// Start after Close must not launch the program.
	d.Start()
	assert.Zero(t, p.quitN)
}
