// Package engine drives the per-block audio pipeline: normalize, meter,
// resample, route through the active pedalboard or tuner, meter again,
// click, and hand off to the output stream, grounded end to end on
// original_source's AudioProcessor.process_audio.
package engine

import (
	"time"

	"github.com/Si1veR123/rs-pedalboard/internal/board"
	"github.com/Si1veR123/rs-pedalboard/internal/dsp"
	"github.com/Si1veR123/rs-pedalboard/internal/worker"
)

// VolumeMonitorUpdateRate bounds how often a volumemonitor event is
// emitted, matching original_source's DEFAULT_VOLUME_MONITOR_UPDATE_RATE.
const VolumeMonitorUpdateRate = 100 * time.Millisecond

// volumeMonitorEps suppresses repeated sends of the same rounded peak
// pair, mirroring the Rust side's 5e-3 epsilon comparison.
const volumeMonitorEps = 5e-3

// CommandHandler reacts to one decoded inbound command line, pulled at
// the end of every audio block on the same goroutine that just ran DSP
// — engine never parses command text itself, so it only needs this
// interface, letting protocol.Dispatcher satisfy it without engine
// importing protocol.
type CommandHandler interface {
	Handle(command string)
}

// EventSink emits one outbound wire line (no trailing newline) to
// whatever is listening on the other side of the connection.
type EventSink interface {
	Send(line string)
}

// Engine owns the live pedalboard set and every piece of per-block
// state the callback pipeline touches. A single goroutine (the audio
// callback) is expected to own it; nothing here is safe to call
// concurrently with ProcessAudio itself, matching the Rust original's
// single-threaded process_audio/handle_command pairing.
type Engine struct {
	Boards *board.Set

	MasterInVolume  float32
	MasterOutVolume float32
	preMuteVolume   float32
	muted           bool
	Normalizer      *PeakNormalizer

	VolumeMonitorEnabled bool
	volumeMonitorLastSent time.Time
	lastInPeak, lastOutPeak float32
	InMonitor  PeakVolumeMonitor
	OutMonitor PeakVolumeMonitor

	Metronome        *Metronome
	MetronomeEnabled bool

	Recording  *worker.RecordingHandle
	Tuner      *worker.TunerHandle
	TunerParams worker.TunerParams

	ProcessingSampleRate float64
	FramesPerPeriod      int

	upsampler   *dsp.Resampler2x
	downsampler *dsp.Resampler2x
	resampling  bool

	Stats Stats

	dataBuffer       []float32
	processingBuffer []float32
	pedalMessages    []string

	Commands <-chan string
	Handler  CommandHandler
	Sink     EventSink
}

// New builds an Engine processing at processingSampleRate with the
// given frames-per-period chunk size for pedalboard processing.
// commands is drained once per block; handler and sink may be wired up
// after construction if the protocol layer isn't ready yet.
func New(boards *board.Set, processingSampleRate float64, framesPerPeriod int, commands <-chan string) *Engine {
	e := &Engine{
		Boards:               boards,
		MasterInVolume:       1.0,
		MasterOutVolume:      1.0,
		Metronome:            NewMetronome(processingSampleRate),
		Recording:            worker.NewRecordingHandle(int(processingSampleRate)*4, ".", processingSampleRate),
		TunerParams:          worker.DefaultTunerParams(),
		ProcessingSampleRate: processingSampleRate,
		FramesPerPeriod:      framesPerPeriod,
		Commands:             commands,
	}
	maxBlock := framesPerPeriod * 8
	if maxBlock < 4096 {
		maxBlock = 4096
	}
	e.dataBuffer = make([]float32, 0, maxBlock*2)
	e.processingBuffer = make([]float32, 0, maxBlock*2)
	e.pedalMessages = make([]string, 0, 16)
	return e
}

// EnableResampling installs a device-rate<->processing-rate resampler
// pair, used when the audio stream's native rate differs from
// ProcessingSampleRate (engine DSP always runs at ProcessingSampleRate).
func (e *Engine) EnableResampling(deviceSampleRate float64) {
	e.upsampler = dsp.NewResampler2x(deviceSampleRate)
	e.downsampler = dsp.NewResampler2x(deviceSampleRate)
	e.resampling = true
}

func (e *Engine) emit(line string) {
	if e.Sink != nil {
		e.Sink.Send(line)
	}
}

// Emit sends one event line through the engine's sink, used by
// protocol.Dispatcher to answer requestsr without reaching past
// Engine's own nil-sink guard.
func (e *Engine) Emit(line string) { e.emit(line) }

func (e *Engine) StartTuner() {
	if e.Tuner != nil {
		return
	}
	e.Tuner = worker.StartTunerWithParams(e.ProcessingSampleRate, e.TunerParams)
}

func (e *Engine) StopTuner() {
	if e.Tuner == nil {
		return
	}
	e.Tuner.Stop()
	e.Tuner = nil
}

// Mute saves MasterOutVolume into a pre-mute shadow and zeros it.
// Idempotent: calling Mute while already muted is a no-op, so the
// shadow always holds the level from before the first mute.
func (e *Engine) Mute() {
	if e.muted {
		return
	}
	e.preMuteVolume = e.MasterOutVolume
	e.MasterOutVolume = 0
	e.muted = true
}

// Unmute restores MasterOutVolume from the pre-mute shadow saved by
// Mute. A no-op if not currently muted.
func (e *Engine) Unmute() {
	if !e.muted {
		return
	}
	e.MasterOutVolume = e.preMuteVolume
	e.muted = false
}

// ToggleMute swaps between Mute and Unmute.
func (e *Engine) ToggleMute() {
	if e.muted {
		e.Unmute()
	} else {
		e.Mute()
	}
}

// Muted reports whether the engine is currently muted.
func (e *Engine) Muted() bool { return e.muted }
