package worker

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/lestrrat-go/strftime"

	"github.com/Si1veR123/rs-pedalboard/internal/ring"
)

// RecordingState mirrors original_source's RecordingHandleState enum:
// an explicit state machine rather than a bare bool, since starting and
// stopping both hand a WAV writer off to a background goroutine and
// must not be re-entered while that handoff is in flight.
type RecordingState int

const (
	RecordingInactive RecordingState = iota
	RecordingStarting
	RecordingActive
	RecordingStopping
	RecordingTransitioning
)

func (s RecordingState) String() string {
	switch s {
	case RecordingInactive:
		return "inactive"
	case RecordingStarting:
		return "starting"
	case RecordingActive:
		return "active"
	case RecordingStopping:
		return "stopping"
	default:
		return "transitioning"
	}
}

var recordingFilenamePattern *strftime.Strftime

func init() {
	f, err := strftime.New("%H%M%S-%d%m%Y")
	if err != nil {
		panic(fmt.Sprintf("recording: invalid filename pattern: %v", err))
	}
	recordingFilenamePattern = f
}

// RecordingHandle owns the ring buffers the audio callback pushes
// processed (and optionally clean, pre-pedal) samples into, and drives
// the background goroutine that drains them to WAV files.
type RecordingHandle struct {
	mu         sync.Mutex
	state      RecordingState
	outputDir  string
	sampleRate float64
	ringSize   int

	processed *ring.Float32
	clean     *ring.Float32

	kill chan struct{}
	done chan struct{}
}

func NewRecordingHandle(ringSize int, outputDir string, sampleRate float64) *RecordingHandle {
	return &RecordingHandle{
		state:      RecordingInactive,
		outputDir:  outputDir,
		sampleRate: sampleRate,
		ringSize:   ringSize,
		processed:  ring.NewFloat32(ringSize),
	}
}

func (h *RecordingHandle) State() RecordingState {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

func (h *RecordingHandle) IsRecording() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state == RecordingActive
}

// SetOutputDir changes the directory new recordings are written to.
// Takes effect on the next StartRecording; a recording already in
// progress keeps writing to the directory it started in.
func (h *RecordingHandle) SetOutputDir(dir string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.outputDir = dir
}

func (h *RecordingHandle) OutputDir() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.outputDir
}

func (h *RecordingHandle) IsClean() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.clean != nil
}

// SetClean toggles whether a second, pre-pedal ring is recorded
// alongside the processed signal. Only valid while inactive.
func (h *RecordingHandle) SetClean(enabled bool) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.state != RecordingInactive {
		return fmt.Errorf("recording: cannot change clean mode while state is %s", h.state)
	}
	if enabled && h.clean == nil {
		h.clean = ring.NewFloat32(h.ringSize)
	} else if !enabled {
		h.clean = nil
	}
	return nil
}

// Tick reclaims the Stopping->Inactive transition once the writer
// goroutine has exited, mirroring original_source's per-block poll of
// cons_receiver so the recording thread's lifetime never blocks the
// audio callback.
func (h *RecordingHandle) Tick() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.state != RecordingStopping {
		return
	}
	select {
	case <-h.done:
		h.state = RecordingInactive
	default:
	}
}

// StartRecording launches the writer goroutine. No-op with a logged
// warning if already active or mid-transition.
func (h *RecordingHandle) StartRecording() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.state != RecordingInactive {
		log.Warn("recording: start requested while not inactive", "state", h.state.String())
		return
	}
	h.state = RecordingStarting
	h.kill = make(chan struct{})
	h.done = make(chan struct{})
	go h.runWriter(h.kill, h.done)
	h.state = RecordingActive
}

// StopRecording signals the writer goroutine to finalize and exit.
func (h *RecordingHandle) StopRecording() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.state != RecordingActive {
		log.Warn("recording: stop requested while not active", "state", h.state.String())
		return
	}
	close(h.kill)
	h.state = RecordingStopping
}

// PushProcessed feeds post-pedal samples into the processed ring;
// dropped samples (ring full) are reported via the returned count.
func (h *RecordingHandle) PushProcessed(samples []float32) int {
	return h.processed.Push(samples)
}

// PushClean feeds pre-pedal samples into the clean ring, a no-op if
// clean recording isn't enabled.
func (h *RecordingHandle) PushClean(samples []float32) int {
	h.mu.Lock()
	c := h.clean
	h.mu.Unlock()
	if c == nil {
		return len(samples)
	}
	return c.Push(samples)
}

func (h *RecordingHandle) runWriter(kill <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	dir := h.OutputDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		log.Error("recording: failed to create output directory", "dir", dir, "err", err)
		return
	}

	stamp := recordingFilenamePattern.FormatString(time.Now())
	writer, err := NewWavWriter(filepath.Join(dir, stamp+".wav"), 2, int(h.sampleRate))
	if err != nil {
		log.Error("recording: failed to create wav file", "err", err)
		return
	}
	defer writer.Close()

	var cleanWriter *WavWriter
	h.mu.Lock()
	hasClean := h.clean != nil
	h.mu.Unlock()
	if hasClean {
		cleanWriter, err = NewWavWriter(filepath.Join(dir, stamp+"-clean.wav"), 2, int(h.sampleRate))
		if err != nil {
			log.Error("recording: failed to create clean wav file", "err", err)
		} else {
			defer cleanWriter.Close()
		}
	}

	fillTime := float64(h.ringSize) / h.sampleRate
	sleepTime := time.Duration(fillTime / 4 * float64(time.Second))
	if sleepTime <= 0 {
		sleepTime = 10 * time.Millisecond
	}

	sampleCount := 0
	for {
		select {
		case <-kill:
			h.drainOnce(writer, cleanWriter)
			log.Info("recording: stopped")
			return
		default:
		}

		drained := h.drainOnce(writer, cleanWriter)
		sampleCount += drained
		if sampleCount >= int(h.sampleRate) {
			writer.Flush()
			if cleanWriter != nil {
				cleanWriter.Flush()
			}
			sampleCount = 0
		}
		time.Sleep(sleepTime)
	}
}

func (h *RecordingHandle) drainOnce(writer, cleanWriter *WavWriter) int {
	samples := h.processed.PopAll()
	for _, s := range samples {
		writer.WriteSample(s)
		writer.WriteSample(s)
	}
	if cleanWriter != nil {
		h.mu.Lock()
		c := h.clean
		h.mu.Unlock()
		if c != nil {
			for _, s := range c.PopAll() {
				cleanWriter.WriteSample(s)
				cleanWriter.WriteSample(s)
			}
		}
	}
	return len(samples)
}
