package pedal

import (
	"github.com/Si1veR123/rs-pedalboard/internal/param"
)

func init() {
	Register("NeuralModel", func() Pedal { return NewNeuralModel() })
	Register("HostPlugin", func() Pedal { return NewHostPlugin() })
}

// NeuralModel is a stand-in for a loaded neural amp model: it carries
// the model path, gain, dry/wet and level parameters a real modeler
// would expose, and passes audio through unshaped gain/mix staging
// until a model backend is wired in. Grounded on original_source's Nam
// pedal, minus the UI and the actual inference engine.
type NeuralModel struct {
	Base
	dry []float32
}

func NewNeuralModel() *NeuralModel {
	n := &NeuralModel{Base: NewBase()}
	n.addParam(param.NewString("model", ""))
	n.addParam(param.NewBoundedFloat("gain", 1.0, 0, 3.0, 0.05))
	n.addParam(param.NewBoundedFloat("mix", 1.0, 0, 1.0, 0.01))
	n.addParam(param.NewBoundedFloat("level", 1.0, 0, 3.0, 0.05))
	return n
}

func (n *NeuralModel) Kind() string { return "NeuralModel" }

func (n *NeuralModel) SetConfig(maxBlock int, sampleRate float64) {
	if cap(n.dry) < maxBlock {
		n.dry = make([]float32, maxBlock)
	}
}

func (n *NeuralModel) Reset() {}

// Process applies gain staging and dry/wet mix around an identity
// pass-through; a real model would run inference in place of the copy.
func (n *NeuralModel) Process(buf []float32, msgs *[]string) {
	if n.params["model"].String() == "" {
		return
	}
	gain := float32(n.params["gain"].Float())
	mix := float32(n.params["mix"].Float())
	level := float32(n.params["level"].Float())

	if cap(n.dry) < len(buf) {
		n.dry = make([]float32, len(buf))
	}
	dry := n.dry[:len(buf)]
	copy(dry, buf)

	for i := range buf {
		buf[i] *= gain
	}
	// modeled := buf (identity until a backend is wired in)
	for i, wet := range buf {
		buf[i] = (wet*mix + dry[i]*(1-mix)) * level
	}
}

// HostPlugin is a stand-in collaborator for an externally hosted plugin
// (VST/CLAP-style): it only carries a stable identity, a parameter map
// describing the hosted plugin's controls, and the SetConfig contract a
// real host would need to renegotiate block size/sample rate with the
// plugin process. Process is a no-op until a host backend exists.
type HostPlugin struct {
	Base
}

func NewHostPlugin() *HostPlugin {
	h := &HostPlugin{Base: NewBase()}
	h.addParam(param.NewString("plugin_path", ""))
	h.addParam(param.NewBoundedFloat("mix", 1.0, 0, 1.0, 0.01))
	return h
}

func (h *HostPlugin) Kind() string { return "HostPlugin" }

func (h *HostPlugin) SetConfig(maxBlock int, sampleRate float64) {}

func (h *HostPlugin) Reset() {}

func (h *HostPlugin) Process(buf []float32, msgs *[]string) {}
