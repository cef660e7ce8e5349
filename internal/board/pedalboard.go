// Package board groups pedals into ordered, swappable chains, grounded
// on original_source's Pedalboard/PedalboardSet and, for its id and JSON
// shape, on the same conventions internal/pedal uses.
package board

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/Si1veR123/rs-pedalboard/internal/pedal"
)

// Pedalboard is an ordered chain of pedals sharing one name and id.
// Two pedalboards with the same id are expected to be functionally
// equal (linked copies); protocol.Dispatch is responsible for
// propagating a parameter/pedal edit to every pedalboard sharing an id.
type Pedalboard struct {
	mu     sync.Mutex
	id     uint32
	Name   string
	Pedals []pedal.Pedal
}

var idMu sync.Mutex
var lastID uint32

func newID() uint32 {
	idMu.Lock()
	defer idMu.Unlock()
	id := uint32(time.Now().UnixNano())
	if id == lastID {
		id++
	}
	lastID = id
	return id
}

// New creates an empty, named pedalboard with a fresh id.
func New(name string) *Pedalboard {
	return &Pedalboard{id: newID(), Name: name}
}

// NewWithVolume creates a pedalboard seeded with a single Volume pedal,
// matching original_source's Default pedalboard.
func NewWithVolume(name string) *Pedalboard {
	v, _ := pedal.New("Volume")
	return &Pedalboard{id: newID(), Name: name, Pedals: []pedal.Pedal{v}}
}

func (pb *Pedalboard) ID() uint32 { return pb.id }

// CloneWithNewID returns a deep copy carrying a fresh id, used when a
// client asks to duplicate a pedalboard into an unlinked copy.
func (pb *Pedalboard) CloneWithNewID() (*Pedalboard, error) {
	encoded, err := pb.MarshalJSON()
	if err != nil {
		return nil, err
	}
	var clone Pedalboard
	if err := clone.UnmarshalJSON(encoded); err != nil {
		return nil, err
	}
	clone.id = newID()
	return &clone, nil
}

// SetConfig propagates block size/sample rate to every pedal.
func (pb *Pedalboard) SetConfig(maxBlock int, sampleRate float64) {
	pb.mu.Lock()
	defer pb.mu.Unlock()
	for _, p := range pb.Pedals {
		p.SetConfig(maxBlock, sampleRate)
	}
}

// Reset clears stateful DSP memory in every pedal, used when switching
// the active board so an outgoing board's delay/reverb tails don't leak
// into the next one.
func (pb *Pedalboard) Reset() {
	pb.mu.Lock()
	defer pb.mu.Unlock()
	for _, p := range pb.Pedals {
		p.Reset()
	}
}

// ProcessAudio runs buf through every active pedal in order, prefixing
// each pedal's emitted messages with "pedalmsg<id> " so a client can
// attribute an event to its source.
func (pb *Pedalboard) ProcessAudio(buf []float32, messages *[]string) {
	pb.mu.Lock()
	defer pb.mu.Unlock()
	var pedalMsgs []string
	for _, p := range pb.Pedals {
		if !p.Active() {
			continue
		}
		pedalMsgs = pedalMsgs[:0]
		p.Process(buf, &pedalMsgs)
		for _, m := range pedalMsgs {
			*messages = append(*messages, fmt.Sprintf("pedalmsg%d %s", p.ID(), m))
		}
	}
}

// AddPedal appends a pedal to the chain.
func (pb *Pedalboard) AddPedal(p pedal.Pedal) {
	pb.mu.Lock()
	defer pb.mu.Unlock()
	pb.Pedals = append(pb.Pedals, p)
}

// DeletePedal removes the pedal with the given id, reporting whether it
// was found.
func (pb *Pedalboard) DeletePedal(id uint32) bool {
	pb.mu.Lock()
	defer pb.mu.Unlock()
	for i, p := range pb.Pedals {
		if p.ID() == id {
			pb.Pedals = append(pb.Pedals[:i], pb.Pedals[i+1:]...)
			return true
		}
	}
	return false
}

// MovePedal relocates the pedal with the given id to index to, clamping
// to the valid range.
func (pb *Pedalboard) MovePedal(id uint32, to int) bool {
	pb.mu.Lock()
	defer pb.mu.Unlock()
	from := -1
	for i, p := range pb.Pedals {
		if p.ID() == id {
			from = i
			break
		}
	}
	if from < 0 {
		return false
	}
	if to < 0 {
		to = 0
	}
	if to >= len(pb.Pedals) {
		to = len(pb.Pedals) - 1
	}
	p := pb.Pedals[from]
	pb.Pedals = append(pb.Pedals[:from], pb.Pedals[from+1:]...)
	pb.Pedals = append(pb.Pedals[:to], append([]pedal.Pedal{p}, pb.Pedals[to:]...)...)
	return true
}

// PedalIndex returns the position of the pedal with the given id,
// needed by protocol.Dispatch to compute the movepedal command's
// shift-destination-down-if-past-source adjustment before calling
// MovePedal.
func (pb *Pedalboard) PedalIndex(id uint32) (int, bool) {
	pb.mu.Lock()
	defer pb.mu.Unlock()
	for i, p := range pb.Pedals {
		if p.ID() == id {
			return i, true
		}
	}
	return -1, false
}

// Pedal returns the pedal with the given id, if any.
func (pb *Pedalboard) Pedal(id uint32) (pedal.Pedal, bool) {
	pb.mu.Lock()
	defer pb.mu.Unlock()
	for _, p := range pb.Pedals {
		if p.ID() == id {
			return p, true
		}
	}
	return nil, false
}

type pedalboardWire struct {
	ID     uint32            `json:"id"`
	Name   string            `json:"name"`
	Pedals []json.RawMessage `json:"pedals"`
}

func (pb *Pedalboard) MarshalJSON() ([]byte, error) {
	pb.mu.Lock()
	defer pb.mu.Unlock()
	encoded := make([]json.RawMessage, 0, len(pb.Pedals))
	for _, p := range pb.Pedals {
		raw, err := pedal.EncodeJSON(p)
		if err != nil {
			return nil, err
		}
		encoded = append(encoded, raw)
	}
	return json.Marshal(pedalboardWire{ID: pb.id, Name: pb.Name, Pedals: encoded})
}

func (pb *Pedalboard) UnmarshalJSON(data []byte) error {
	var w pedalboardWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	pedals := make([]pedal.Pedal, 0, len(w.Pedals))
	for _, raw := range w.Pedals {
		p, err := pedal.DecodeJSON(raw)
		if err != nil {
			return fmt.Errorf("pedalboard %q: %w", w.Name, err)
		}
		pedals = append(pedals, p)
	}
	pb.mu.Lock()
	defer pb.mu.Unlock()
	pb.id, pb.Name, pb.Pedals = w.ID, w.Name, pedals
	return nil
}
