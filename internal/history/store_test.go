package history

import (
	"math/rand"
	"testing"

	"netradar/internal/analysis"
	"netradar/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func event(n int) models.PacketEvent {
	return models.PacketEvent{Length: n}
}

func lengths(entries []Entry) []int {
	out := make([]int, len(entries))
	for i, e := range entries {
		out[i] = e.Event.Length
	}
	return out
}

func TestStore_EvictsOldestFirst(t *testing.T) {
	const capacity, extra = 20, 13
	s := NewStore(capacity, 5)
	for i := 0; i < capacity+extra; i++ {
		s.Append(event(i), analysis.CategoryTCP)
	}

	require.Equal(t, capacity, s.Len())
	got := lengths(s.History())
	for i, v := range got {
		assert.Equal(t, extra+i, v)
	}
	assert.Equal(t, uint64(extra), s.History()[0].Seq)
}

func TestStore_VisibleWindowIsMostRecentLast(t *testing.T) {
	s := NewStore(100, 15)
	assert.Empty(t, s.VisibleWindow())

	for i := 0; i < 4; i++ {
		s.Append(event(i), analysis.CategoryUDP)
	}
	assert.Equal(t, []int{0, 1, 2, 3}, lengths(s.VisibleWindow()))

	for i := 4; i < 30; i++ {
		s.Append(event(i), analysis.CategoryUDP)
	}
	win := s.VisibleWindow()
	require.Len(t, win, 15)
	assert.Equal(t, 15, win[0].Event.Length)
	assert.Equal(t, 29, win[14].Event.Length)
}

func TestStore_SelectionOnEmptyStore(t *testing.T) {
	s := NewStore(10, 5)
	s.MoveSelection(3)
	assert.Equal(t, 0, s.SelectedIndex())

	_, ok := s.Selected()
	assert.False(t, ok)
}

func TestStore_SelectionClampsAndTracksWindow(t *testing.T) {
	s := NewStore(10, 5)
	for i := 0; i < 3; i++ {
		s.Append(event(i), analysis.CategoryOther)
	}

	s.MoveSelection(10)
	assert.Equal(t, 2, s.SelectedIndex())
	e, ok := s.Selected()
	require.True(t, ok)
	assert.Equal(t, 2, e.Event.Length)

	s.MoveSelection(-10)
	assert.Equal(t, 0, s.SelectedIndex())

	s.SelectLast()
	assert.Equal(t, 2, s.SelectedIndex())
	s.SelectFirst()
	assert.Equal(t, 0, s.SelectedIndex())

	// the cursor keeps its row while the window scrolls
	for i := 3; i < 12; i++ {
		s.Append(event(i), analysis.CategoryOther)
	}
	e, _ = s.Selected()
	assert.Equal(t, 7, e.Event.Length)
}

func TestStore_SelectionAlwaysValid(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	s := NewStore(30, 15)

	for step := 0; step < 5000; step++ {
		if r.Intn(3) == 0 {
			s.Append(event(step), analysis.CategoryTCP)
		} else {
			s.MoveSelection(r.Intn(41) - 20)
		}

		visible := len(s.VisibleWindow())
		if visible == 0 {
			_, ok := s.Selected()
			assert.False(t, ok)
			continue
		}
		idx := s.SelectedIndex()
		if idx < 0 || idx > visible-1 {
			t.Fatalf("step %d: selected %d outside [0,%d]", step, idx, visible-1)
		}
	}
}

func TestNewStore_Defaults(t *testing.T) {
	s := NewStore(0, 0)
	assert.Equal(t, DefaultCapacity, s.Capacity())

	small := NewStore(3, 15)
	for i := 0; i < 5; i++ {
		small.Append(event(i), analysis.CategoryTCP)
	}
	assert.Len(t, small.VisibleWindow(), 3)
}
