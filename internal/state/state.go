package state

import (
	"sync"
	"sync/atomic"

	"github.com/scheerer/led-foot/internal/color"
	"github.com/scheerer/led-foot/internal/rooms"
	"github.com/scheerer/led-foot/internal/sequence"
)

// State is what the hardware should currently be doing. Producers (API,
// scheduler) replace the sequence and rooms; the render loop advances the
// sequence and records the color it sent. All access goes through the
// RWMutex, and the lock is never held across hardware I/O.
type State struct {
	mu sync.RWMutex

	color        color.Color
	rooms        rooms.Rooms
	roomsVersion uint64
	sequence     *sequence.Sequence
	shutdown     bool
	changed      chan struct{}

	interrupt atomic.Bool
}

func New(initial color.Color) *State {
	return &State{
		color:   initial,
		changed: make(chan struct{}),
	}
}

// Snapshot is a consistent read-only copy of the state.
type Snapshot struct {
	Color    color.Color
	Rooms    rooms.Rooms
	Sequence *sequence.Info
	Shutdown bool
}

// Active reports whether a sequence is playing.
func (s Snapshot) Active() bool {
	return s.Sequence != nil
}

func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		Color:    s.color,
		Rooms:    s.rooms,
		Shutdown: s.shutdown,
	}
	if s.sequence != nil {
		info := s.sequence.Info
		snap.Sequence = &info
	}
	return snap
}

func (s *State) Color() color.Color {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.color
}

func (s *State) Rooms() rooms.Rooms {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rooms
}

// Changed returns a channel that is closed the next time the color changes.
func (s *State) Changed() <-chan struct{} {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.changed
}

// RequestInterrupt asks the render loop to drop the sequence it is playing.
func (s *State) RequestInterrupt() {
	s.interrupt.Store(true)
}

// Install interrupts the current sequence and replaces it with the one build
// returns. build runs under the write lock and receives the current color so
// the new sequence can fade from it. A nil result leaves the loop idle.
func (s *State) Install(build func(current color.Color) *sequence.Sequence) {
	s.RequestInterrupt()
	s.Update(func(tx *Tx) {
		tx.SetSequence(build(tx.Color()))
	})
}

// SetRooms replaces the room relay state.
func (s *State) SetRooms(r rooms.Rooms) {
	s.Update(func(tx *Tx) { tx.SetRooms(r) })
}

// MergeRooms applies a partial room update and returns the result.
func (s *State) MergeRooms(update rooms.Scheduled) rooms.Rooms {
	var merged rooms.Rooms
	s.Update(func(tx *Tx) {
		merged = rooms.Merge(tx.Rooms(), update)
		tx.SetRooms(merged)
	})
	return merged
}

// Shutdown tells the render loop to exit.
func (s *State) Shutdown() {
	s.Update(func(tx *Tx) { tx.shutdown() })
}

// Update runs fn with the write lock held. fn must not block on I/O.
func (s *State) Update(fn func(tx *Tx)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&Tx{s: s})
}

// Tx is the view of State handed to Update callbacks. It is only valid for the
// duration of the callback.
type Tx struct {
	s *State
}

func (tx *Tx) Color() color.Color { return tx.s.color }

// SetColor records the color last sent to hardware and wakes Changed waiters.
func (tx *Tx) SetColor(c color.Color) {
	if c == tx.s.color {
		return
	}
	tx.s.color = c
	close(tx.s.changed)
	tx.s.changed = make(chan struct{})
}

func (tx *Tx) Rooms() rooms.Rooms { return tx.s.rooms }

// RoomsVersion increases every time the rooms are set.
func (tx *Tx) RoomsVersion() uint64 { return tx.s.roomsVersion }

func (tx *Tx) SetRooms(r rooms.Rooms) {
	tx.s.rooms = r
	tx.s.roomsVersion++
}

func (tx *Tx) Sequence() *sequence.Sequence { return tx.s.sequence }

// SetSequence replaces the active sequence wholesale; nil clears it.
func (tx *Tx) SetSequence(seq *sequence.Sequence) { tx.s.sequence = seq }

// TakeInterrupt reports and clears a pending interrupt request.
func (tx *Tx) TakeInterrupt() bool { return tx.s.interrupt.Swap(false) }

func (tx *Tx) ShuttingDown() bool { return tx.s.shutdown }

func (tx *Tx) shutdown() { tx.s.shutdown = true }
