// Package param implements the named, typed, bounds-checked values that
// every pedal exposes to the control protocol.
package param

import (
	"encoding/json"
	"fmt"
)

// Kind tags the concrete type a Parameter carries.
type Kind int

const (
	KindFloat Kind = iota
	KindInt
	KindBool
	KindString
	KindOscillator
)

// OscillatorSpec is the value carried by an oscillator-typed parameter.
// SampleRate is overwritten by the engine on assignment (see
// internal/protocol/dispatch.go) so client-supplied values never drift
// from the processor's actual rate.
type OscillatorSpec struct {
	Shape      string  `json:"shape"`
	Freq       float64 `json:"freq"`
	Squareness float64 `json:"squareness,omitempty"`
	SampleRate float64 `json:"sample_rate"`
}

// Parameter is a named value with optional bounds and display step.
// Only Float and Int parameters use Min/Max/Step; they are zero values
// (ignored) for the other kinds.
type Parameter struct {
	Name string  `json:"name"`
	Kind Kind    `json:"kind"`
	Min  float64 `json:"min,omitempty"`
	Max  float64 `json:"max,omitempty"`
	Step float64 `json:"step,omitempty"`

	hasBounds bool

	floatVal float64
	intVal   int64
	boolVal  bool
	strVal   string
	oscVal   OscillatorSpec
}

// NewFloat creates an unbounded float parameter.
func NewFloat(name string, value float64) *Parameter {
	return &Parameter{Name: name, Kind: KindFloat, floatVal: value}
}

// NewBoundedFloat creates a float parameter clamped to [min, max].
func NewBoundedFloat(name string, value, min, max, step float64) *Parameter {
	p := &Parameter{Name: name, Kind: KindFloat, Min: min, Max: max, Step: step, hasBounds: true}
	_ = p.SetFloat(value)
	return p
}

// NewInt creates a bounded int parameter.
func NewInt(name string, value int64, min, max int64) *Parameter {
	p := &Parameter{Name: name, Kind: KindInt, Min: float64(min), Max: float64(max), hasBounds: true}
	_ = p.SetInt(value)
	return p
}

// NewBool creates a bool parameter.
func NewBool(name string, value bool) *Parameter {
	return &Parameter{Name: name, Kind: KindBool, boolVal: value}
}

// NewString creates a string parameter.
func NewString(name string, value string) *Parameter {
	return &Parameter{Name: name, Kind: KindString, strVal: value}
}

// NewOscillator creates an oscillator-spec parameter.
func NewOscillator(name string, value OscillatorSpec) *Parameter {
	return &Parameter{Name: name, Kind: KindOscillator, oscVal: value}
}

func (p *Parameter) Float() float64         { return p.floatVal }
func (p *Parameter) Int() int64             { return p.intVal }
func (p *Parameter) Bool() bool             { return p.boolVal }
func (p *Parameter) String() string         { return p.strVal }
func (p *Parameter) Oscillator() OscillatorSpec { return p.oscVal }

// SetFloat validates candidate against bounds (if any) and assigns it.
// Invalid assignments are rejected, never panicking.
func (p *Parameter) SetFloat(v float64) error {
	if p.Kind != KindFloat {
		return fmt.Errorf("param %q: not a float parameter", p.Name)
	}
	if p.hasBounds && (v < p.Min || v > p.Max) {
		return fmt.Errorf("param %q: %v out of bounds [%v, %v]", p.Name, v, p.Min, p.Max)
	}
	p.floatVal = v
	return nil
}

func (p *Parameter) SetInt(v int64) error {
	if p.Kind != KindInt {
		return fmt.Errorf("param %q: not an int parameter", p.Name)
	}
	if p.hasBounds && (float64(v) < p.Min || float64(v) > p.Max) {
		return fmt.Errorf("param %q: %v out of bounds [%v, %v]", p.Name, v, p.Min, p.Max)
	}
	p.intVal = v
	return nil
}

func (p *Parameter) SetBool(v bool) error {
	if p.Kind != KindBool {
		return fmt.Errorf("param %q: not a bool parameter", p.Name)
	}
	p.boolVal = v
	return nil
}

func (p *Parameter) SetString(v string) error {
	if p.Kind != KindString {
		return fmt.Errorf("param %q: not a string parameter", p.Name)
	}
	p.strVal = v
	return nil
}

func (p *Parameter) SetOscillator(v OscillatorSpec) error {
	if p.Kind != KindOscillator {
		return fmt.Errorf("param %q: not an oscillator parameter", p.Name)
	}
	p.oscVal = v
	return nil
}

// SetJSON assigns a candidate value decoded from a JSON trailer,
// validating it against bounds the same way the typed setters do.
func (p *Parameter) SetJSON(raw json.RawMessage) error {
	switch p.Kind {
	case KindFloat:
		var v float64
		if err := json.Unmarshal(raw, &v); err != nil {
			return fmt.Errorf("param %q: %w", p.Name, err)
		}
		return p.SetFloat(v)
	case KindInt:
		var v int64
		if err := json.Unmarshal(raw, &v); err != nil {
			return fmt.Errorf("param %q: %w", p.Name, err)
		}
		return p.SetInt(v)
	case KindBool:
		var v bool
		if err := json.Unmarshal(raw, &v); err != nil {
			return fmt.Errorf("param %q: %w", p.Name, err)
		}
		return p.SetBool(v)
	case KindString:
		var v string
		if err := json.Unmarshal(raw, &v); err != nil {
			return fmt.Errorf("param %q: %w", p.Name, err)
		}
		return p.SetString(v)
	case KindOscillator:
		var v OscillatorSpec
		if err := json.Unmarshal(raw, &v); err != nil {
			return fmt.Errorf("param %q: %w", p.Name, err)
		}
		return p.SetOscillator(v)
	default:
		return fmt.Errorf("param %q: unknown kind", p.Name)
	}
}

// jsonParameter is the wire shape for a Parameter, preserving value
// under a single "value" key regardless of kind.
type jsonParameter struct {
	Name  string          `json:"name"`
	Kind  Kind            `json:"kind"`
	Min   float64         `json:"min,omitempty"`
	Max   float64         `json:"max,omitempty"`
	Step  float64         `json:"step,omitempty"`
	Value json.RawMessage `json:"value"`
}

func (p *Parameter) MarshalJSON() ([]byte, error) {
	var value any
	switch p.Kind {
	case KindFloat:
		value = p.floatVal
	case KindInt:
		value = p.intVal
	case KindBool:
		value = p.boolVal
	case KindString:
		value = p.strVal
	case KindOscillator:
		value = p.oscVal
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	return json.Marshal(jsonParameter{
		Name: p.Name, Kind: p.Kind, Min: p.Min, Max: p.Max, Step: p.Step, Value: raw,
	})
}

func (p *Parameter) UnmarshalJSON(data []byte) error {
	var jp jsonParameter
	if err := json.Unmarshal(data, &jp); err != nil {
		return err
	}
	p.Name, p.Kind, p.Min, p.Max, p.Step = jp.Name, jp.Kind, jp.Min, jp.Max, jp.Step
	p.hasBounds = jp.Max != 0 || jp.Min != 0
	return p.SetJSON(jp.Value)
}
