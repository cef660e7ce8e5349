// Package pedal implements the polymorphic set of DSP blocks that make
// up a pedalboard: a tagged variant dispatched through a thin
// interface, grounded on the teacher's debug_commands.go name-keyed
// dispatch table, generalized into a constructor registry so JSON
// payloads decode into the right concrete type.
package pedal

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/Si1veR123/rs-pedalboard/internal/param"
)

// Pedal is the interface every concrete DSP block implements.
type Pedal interface {
	// Process mutates buf in place and may append at most a few short
	// ASCII lines to msgs.
	Process(buf []float32, msgs *[]string)
	// Parameters returns the pedal's name->parameter map.
	Parameters() map[string]*param.Parameter
	// SetParameter validates and assigns a parameter by name.
	SetParameter(name string, raw json.RawMessage) error
	// SetConfig performs one-time DSP initialization for a given block
	// size and sample rate. Safe to call again if either changes.
	SetConfig(maxBlock int, sampleRate float64)
	// ID returns the pedal's stable 32-bit id.
	ID() uint32
	// Active reports whether the pedal currently participates in
	// processing.
	Active() bool
	SetActive(bool)
	// Reset clears any stateful DSP memory (delay lines, envelopes) so
	// switching pedalboards doesn't leak a tail into the next board.
	Reset()
	// Kind returns the registry key identifying this pedal's type.
	Kind() string
}

// Base is embedded by every concrete pedal and implements the
// bookkeeping common to all of them (id, active flag, parameter map).
type Base struct {
	mu     sync.Mutex
	id     uint32
	active bool
	params map[string]*param.Parameter
}

// NewBase creates a Base with a fresh id derived from wall-clock
// nanoseconds, defaulting active to true per spec.md §3.
func NewBase() Base {
	return Base{id: newID(), active: true, params: map[string]*param.Parameter{}}
}

var idMu sync.Mutex
var lastID uint32

// newID derives a stable 32-bit id from wall-clock nanoseconds,
// nudging forward on collision so two pedals created in the same tick
// never share an id.
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

func (b *Base) ID() uint32 { return b.id }

func (b *Base) Active() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.active
}

func (b *Base) SetActive(v bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.active = v
}

func (b *Base) Parameters() map[string]*param.Parameter { return b.params }

func (b *Base) addParam(p *param.Parameter) { b.params[p.Name] = p }

func (b *Base) SetParameter(name string, raw json.RawMessage) error {
	p, ok := b.params[name]
	if !ok {
		return fmt.Errorf("unknown parameter %q", name)
	}
	return p.SetJSON(raw)
}

// SetIDForTest overrides the id; only used by duplication ("linked
// pedalboards") and by tests that need deterministic ids.
func (b *Base) SetIDForTest(id uint32) { b.id = id }

// baseWire is the common {id, active, parameters} wire shape shared by
// every concrete pedal. Since every pedal's tunable state lives in its
// parameter map, Base's Marshal/UnmarshalJSON is sufficient for every
// concrete type that doesn't need extra post-decode behavior (the
// graphic EQ overrides UnmarshalJSON only to force "live" off, per
// spec.md).
type baseWire struct {
	ID     uint32                      `json:"id"`
	Active *bool                       `json:"active"`
	Params map[string]*param.Parameter `json:"parameters"`
}

func (b *Base) MarshalJSON() ([]byte, error) {
	active := b.active
	return json.Marshal(baseWire{ID: b.id, Active: &active, Params: b.params})
}

func (b *Base) UnmarshalJSON(data []byte) error {
	var w baseWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	b.id = w.ID
	if w.Active == nil {
		b.active = true
	} else {
		b.active = *w.Active
	}
	if b.params == nil {
		b.params = map[string]*param.Parameter{}
	}
	for name, wireParam := range w.Params {
		if existing, ok := b.params[name]; ok {
			existing.Min, existing.Max, existing.Step = wireParam.Min, wireParam.Max, wireParam.Step
			raw, _ := json.Marshal(wireParam)
			var jp struct {
				Value json.RawMessage `json:"value"`
			}
			_ = json.Unmarshal(raw, &jp)
			_ = existing.SetJSON(jp.Value)
		} else {
			b.params[name] = wireParam
		}
	}
	return nil
}

// Registry maps a pedal's JSON tag to a constructor, used to decode
// the sum type carried in addpedal/addpedalboard/loadset payloads.
type Registry struct {
	mu    sync.RWMutex
	ctors map[string]func() Pedal
}

var defaultRegistry = &Registry{ctors: map[string]func() Pedal{}}

// Register adds a constructor under kind. Called from each concrete
// pedal's init().
func Register(kind string, ctor func() Pedal) {
	defaultRegistry.mu.Lock()
	defer defaultRegistry.mu.Unlock()
	defaultRegistry.ctors[kind] = ctor
}

// New constructs a fresh pedal of the given kind.
func New(kind string) (Pedal, error) {
	defaultRegistry.mu.RLock()
	ctor, ok := defaultRegistry.ctors[kind]
	defaultRegistry.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown pedal kind %q", kind)
	}
	return ctor(), nil
}

// wireEnvelope is the {"Kind": {...fields...}} shape used on the wire,
// matching spec.md's description of a pedal as "a sum type" encoded as
// a single-key JSON object.
type wireEnvelope map[string]json.RawMessage

// DecodeJSON decodes a single-key {"Kind": {...}} object into a fresh
// pedal of the matching registered kind.
func DecodeJSON(data []byte) (Pedal, error) {
	var env wireEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode pedal: %w", err)
	}
	if len(env) != 1 {
		return nil, fmt.Errorf("decode pedal: expected exactly one kind key, got %d", len(env))
	}
	for kind, body := range env {
		p, err := New(kind)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(body, p); err != nil {
			return nil, fmt.Errorf("decode pedal %s: %w", kind, err)
		}
		return p, nil
	}
	return nil, fmt.Errorf("decode pedal: unreachable")
}

// EncodeJSON wraps p in the {"Kind": {...}} envelope.
func EncodeJSON(p Pedal) ([]byte, error) {
	body, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return json.Marshal(wireEnvelope{p.Kind(): body})
}
