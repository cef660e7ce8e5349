package worker

import (
	"time"

	"github.com/Si1veR123/rs-pedalboard/internal/dsp"
	"github.com/Si1veR123/rs-pedalboard/internal/ring"
)

// Default tuner bounds, grounded on original_source's Tuner::new
// (E1..G4 guitar range) and the YIN periods-per-window convention.
const (
	TunerMinFreq = 40.0
	TunerMaxFreq = 400.0
	tunerPeriods = 4
	tunerPollInterval = 20 * time.Millisecond
)

// TunerHandle drives a YIN detector from a ring of raw input samples on
// its own goroutine, pushing frequency updates onto a bounded channel,
// grounded on original_source's tuner_handle (a ring producer + a
// bounded frequency channel + an atomic kill flag) and the pedals/
// tuner.rs Yin.process_buffer usage.
type TunerHandle struct {
	samples *ring.Float32
	freqs   chan float64
	kill    chan struct{}
	done    chan struct{}
}

// TunerParams bounds the YIN detector's search range and window size in
// periods, overridable from internal/config so a deployment can tune
// for bass or alternate tunings without recompiling.
type TunerParams struct {
	MinFreq float64
	MaxFreq float64
	Periods int
}

// DefaultTunerParams returns original_source's E1..G4 guitar range.
func DefaultTunerParams() TunerParams {
	return TunerParams{MinFreq: TunerMinFreq, MaxFreq: TunerMaxFreq, Periods: tunerPeriods}
}

// StartTuner allocates a ring sized for YIN's minimum window at
// sampleRate and launches the detector goroutine using the default
// tuner bounds.
func StartTuner(sampleRate float64) *TunerHandle {
	return StartTunerWithParams(sampleRate, DefaultTunerParams())
}

// StartTunerWithParams is StartTuner with caller-supplied bounds.
func StartTunerWithParams(sampleRate float64, p TunerParams) *TunerHandle {
	if p.Periods <= 0 {
		p.Periods = tunerPeriods
	}
	bufLen := dsp.MinimumBufferLength(sampleRate, p.MinFreq, p.Periods)
	h := &TunerHandle{
		samples: ring.NewFloat32(bufLen * 2),
		freqs:   make(chan float64, 1),
		kill:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go h.run(sampleRate, bufLen, p)
	return h
}

func (h *TunerHandle) run(sampleRate float64, windowLen int, p TunerParams) {
	defer close(h.done)
	detector := dsp.NewYIN(sampleRate, p.MinFreq, p.MaxFreq)
	window := make([]float32, windowLen)

	ticker := time.NewTicker(tunerPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-h.kill:
			return
		case <-ticker.C:
			if h.samples.Len() < windowLen {
				continue
			}
			h.samples.Pop(window)
			hz := detector.Detect(window)
			select {
			case h.freqs <- hz:
			default:
				// a reading is already pending; drop this one rather
				// than block the detector loop.
				select {
				case <-h.freqs:
				default:
				}
				h.freqs <- hz
			}
		}
	}
}

// PushSamples feeds raw (pre-pedal) input into the detector's window.
func (h *TunerHandle) PushSamples(samples []float32) { h.samples.Push(samples) }

// TryRecvFrequency returns the latest pending frequency reading, if
// any, non-blocking.
func (h *TunerHandle) TryRecvFrequency() (float64, bool) {
	select {
	case hz := <-h.freqs:
		return hz, true
	default:
		return 0, false
	}
}

// Stop signals the detector goroutine to exit. Does not block waiting
// for it; call Wait if synchronous shutdown is needed.
func (h *TunerHandle) Stop() {
	select {
	case <-h.kill:
	default:
		close(h.kill)
	}
}

func (h *TunerHandle) Wait() { <-h.done }
