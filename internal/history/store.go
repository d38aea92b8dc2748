// Package history keeps the bounded list of recent packets shown by the
// dashboard and the selection cursor over its visible window.
package history

import (
	"netradar/internal/analysis"
	"netradar/internal/models"
)

const (
	DefaultCapacity   = 1000
	DefaultWindowSize = 15
)

// Entry is a stored packet with its classification and arrival number.
type Entry struct {
	Seq      uint64
	Category analysis.Category
	Event    models.PacketEvent
}

// Store is a FIFO-bounded packet history. It is confined to the render loop.
type Store struct {
	entries  []Entry // ring, len == capacity
	start    int
	count    int
	capacity int

	windowSize int
	selected   int
	nextSeq    uint64
}

// NewStore creates an empty store. Non-positive sizes fall back to the
// defaults, and the window never exceeds the capacity.
func NewStore(capacity, windowSize int) *Store {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if windowSize <= 0 {
		windowSize = DefaultWindowSize
	}
	if windowSize > capacity {
		windowSize = capacity
	}
	return &Store{
		entries:    make([]Entry, capacity),
		capacity:   capacity,
		windowSize: windowSize,
	}
}

// Append adds ev at the tail, evicting the oldest entry when full.
func (s *Store) Append(ev models.PacketEvent, c analysis.Category) Entry {
	e := Entry{Seq: s.nextSeq, Category: c, Event: ev}
	s.nextSeq++

	if s.count < s.capacity {
		s.entries[(s.start+s.count)%s.capacity] = e
		s.count++
	} else {
		s.entries[s.start] = e
		s.start = (s.start + 1) % s.capacity
	}
	s.clamp()
	return e
}

// Len returns the number of retained entries.
func (s *Store) Len() int {
	return s.count
}

// Capacity returns the maximum number of retained entries.
func (s *Store) Capacity() int {
	return s.capacity
}

// History returns every retained entry, oldest first.
func (s *Store) History() []Entry {
	return s.tail(s.count)
}

// VisibleWindow returns up to windowSize most recent entries, most recent last.
func (s *Store) VisibleWindow() []Entry {
	return s.tail(s.visibleCount())
}

// SelectedIndex returns the cursor position inside the visible window.
func (s *Store) SelectedIndex() int {
	return s.selected
}

// Selected returns the entry under the cursor.
func (s *Store) Selected() (Entry, bool) {
	n := s.visibleCount()
	if n == 0 {
		return Entry{}, false
	}
	offset := s.count - n + s.selected
	return s.entries[(s.start+offset)%s.capacity], true
}

// MoveSelection shifts the cursor by delta, clamped to the visible window.
func (s *Store) MoveSelection(delta int) {
	if s.visibleCount() == 0 {
		return
	}
	s.selected += delta
	s.clamp()
}

// SelectFirst moves the cursor to the oldest visible entry.
func (s *Store) SelectFirst() {
	s.selected = 0
}

// SelectLast moves the cursor to the newest visible entry.
func (s *Store) SelectLast() {
	s.selected = s.visibleCount() - 1
	s.clamp()
}

func (s *Store) visibleCount() int {
	if s.count < s.windowSize {
		return s.count
	}
	return s.windowSize
}

func (s *Store) clamp() {
	n := s.visibleCount()
	if s.selected > n-1 {
		s.selected = n - 1
	}
	if s.selected < 0 {
		s.selected = 0
	}
}

func (s *Store) tail(n int) []Entry {
	if n == 0 {
		return nil
	}
	out := make([]Entry, n)
	first := s.count - n
	for i := range out {
		out[i] = s.entries[(s.start+first+i)%s.capacity]
	}
	return out
}
