package board

import (
	"encoding/json"
	"fmt"
	"sync"
)

// ErrEmptySet is returned when a Set would be left with zero
// pedalboards, which Set never allows.
var ErrEmptySet = fmt.Errorf("pedalboard set must not be empty")

// Set is a non-empty, ordered collection of pedalboards plus the index
// of the one currently processing audio. Every mutator that could leave
// ActiveIndex pointing past the end clamps it to len-1, resolving the
// "what happens to the active index on a shrinking mutation" question
// the way original_source's PedalboardSet does.
type Set struct {
	mu          sync.RWMutex
	boards      []*Pedalboard
	activeIndex int
}

// NewSet wraps boards in a Set, returning ErrEmptySet if boards is
// empty.
func NewSet(boards []*Pedalboard) (*Set, error) {
	if len(boards) == 0 {
		return nil, ErrEmptySet
	}
	return &Set{boards: boards}, nil
}

// NewDefaultSet returns a single-board set seeded with a Volume pedal,
// the fallback used when no on-disk set is configured.
func NewDefaultSet() *Set {
	return &Set{boards: []*Pedalboard{NewWithVolume("Default Pedalboard")}}
}

func (s *Set) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.boards)
}

func (s *Set) ActiveIndex() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeIndex
}

// Active returns the currently processing pedalboard.
func (s *Set) Active() *Pedalboard {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.boards[s.activeIndex]
}

// Board returns the pedalboard at index, if in range.
func (s *Set) Board(index int) (*Pedalboard, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if index < 0 || index >= len(s.boards) {
		return nil, false
	}
	return s.boards[index], true
}

// Boards returns a snapshot slice of every pedalboard.
func (s *Set) Boards() []*Pedalboard {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Pedalboard, len(s.boards))
	copy(out, s.boards)
	return out
}

// BoardByID returns the first pedalboard carrying id.
func (s *Set) BoardByID(id uint32) (*Pedalboard, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, b := range s.boards {
		if b.ID() == id {
			return b, true
		}
	}
	return nil, false
}

// BoardsByID returns every pedalboard carrying id — more than one when
// linked copies are in play.
func (s *Set) BoardsByID(id uint32) []*Pedalboard {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Pedalboard
	for _, b := range s.boards {
		if b.ID() == id {
			out = append(out, b)
		}
	}
	return out
}

// SetActive switches the processing board by index in O(1), resetting
// the outgoing board so its stateful DSP memory doesn't leak into the
// next one. Out-of-range indices are rejected.
func (s *Set) SetActive(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.boards) {
		return fmt.Errorf("pedalboard index %d out of range [0, %d)", index, len(s.boards))
	}
	if index == s.activeIndex {
		return nil
	}
	s.boards[s.activeIndex].Reset()
	s.activeIndex = index
	return nil
}

// Next advances the active index, wrapping to 0.
func (s *Set) Next() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.boards[s.activeIndex].Reset()
	s.activeIndex = (s.activeIndex + 1) % len(s.boards)
}

// Prev retreats the active index, wrapping to the last board.
func (s *Set) Prev() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.boards[s.activeIndex].Reset()
	s.activeIndex = (s.activeIndex - 1 + len(s.boards)) % len(s.boards)
}

// AddBoard appends a pedalboard.
func (s *Set) AddBoard(b *Pedalboard) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.boards = append(s.boards, b)
}

// InsertBoard inserts a pedalboard at index, clamped to [0, len].
func (s *Set) InsertBoard(index int, b *Pedalboard) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 {
		index = 0
	}
	if index > len(s.boards) {
		index = len(s.boards)
	}
	s.boards = append(s.boards[:index], append([]*Pedalboard{b}, s.boards[index:]...)...)
	if index <= s.activeIndex {
		s.activeIndex++
	}
}

// RemoveBoard removes the pedalboard at index, refusing to empty the
// set. Clamps ActiveIndex to len-1 if the removal shrank past it.
func (s *Set) RemoveBoard(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.boards) {
		return fmt.Errorf("pedalboard index %d out of range [0, %d)", index, len(s.boards))
	}
	if len(s.boards) == 1 {
		return ErrEmptySet
	}
	s.boards = append(s.boards[:index], s.boards[index+1:]...)
	if s.activeIndex >= len(s.boards) {
		s.activeIndex = len(s.boards) - 1
	} else if index < s.activeIndex {
		s.activeIndex--
	}
	return nil
}

// MoveBoard relocates the pedalboard at from to to, tracking the active
// board across the reorder.
func (s *Set) MoveBoard(from, to int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if from < 0 || from >= len(s.boards) || to < 0 || to >= len(s.boards) {
		return fmt.Errorf("pedalboard move index out of range")
	}
	activeBoard := s.boards[s.activeIndex]
	b := s.boards[from]
	s.boards = append(s.boards[:from], s.boards[from+1:]...)
	s.boards = append(s.boards[:to], append([]*Pedalboard{b}, s.boards[to:]...)...)
	for i, board := range s.boards {
		if board == activeBoard {
			s.activeIndex = i
			break
		}
	}
	return nil
}

// SetConfig propagates block size/sample rate to every board.
func (s *Set) SetConfig(maxBlock int, sampleRate float64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, b := range s.boards {
		b.SetConfig(maxBlock, sampleRate)
	}
}

// ProcessAudio runs buf through the currently active pedalboard.
func (s *Set) ProcessAudio(buf []float32, messages *[]string) {
	s.mu.RLock()
	active := s.boards[s.activeIndex]
	s.mu.RUnlock()
	active.ProcessAudio(buf, messages)
}

type setWire struct {
	Pedalboards    []*Pedalboard `json:"pedalboards"`
	ActivePedalboard int         `json:"active_pedalboard"`
}

func (s *Set) MarshalJSON() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return json.Marshal(setWire{Pedalboards: s.boards, ActivePedalboard: s.activeIndex})
}

func (s *Set) UnmarshalJSON(data []byte) error {
	var w setWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	if len(w.Pedalboards) == 0 {
		return ErrEmptySet
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.boards = w.Pedalboards
	s.activeIndex = w.ActivePedalboard
	if s.activeIndex < 0 || s.activeIndex >= len(s.boards) {
		s.activeIndex = 0
	}
	return nil
}
