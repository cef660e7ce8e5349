package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Si1veR123/rs-pedalboard/internal/board"
	"github.com/Si1veR123/rs-pedalboard/internal/ring"
)

func newTestEngine(t testing.TB) *Engine {
	t.Helper()
	boards := board.NewDefaultSet()
	cmds := make(chan string)
	return New(boards, 44100, 64, cmds)
}

func TestEngine_MuteUnmuteRestoresVolume(t *testing.T) {
	e := newTestEngine(t)
	e.MasterOutVolume = 0.7
	assert.False(t, e.Muted())

	e.Mute()
	assert.True(t, e.Muted())
	assert.Equal(t, float32(0), e.MasterOutVolume)

	e.Unmute()
	assert.False(t, e.Muted())
	assert.Equal(t, float32(0.7), e.MasterOutVolume)
}

func TestEngine_MuteIsIdempotent(t *testing.T) {
	e := newTestEngine(t)
	e.MasterOutVolume = 0.5
	e.Mute()
	e.MasterOutVolume = 0.1 // simulate something nudging volume while muted
	e.Mute()                // must be a no-op: shadow should not be overwritten with 0.1
	e.Unmute()
	assert.Equal(t, float32(0.5), e.MasterOutVolume)
}

func TestEngine_UnmuteWhenNotMutedIsNoop(t *testing.T) {
	e := newTestEngine(t)
	e.MasterOutVolume = 0.9
	e.Unmute()
	assert.Equal(t, float32(0.9), e.MasterOutVolume)
	assert.False(t, e.Muted())
}

func TestEngine_ToggleMuteFlipsState(t *testing.T) {
	e := newTestEngine(t)
	e.MasterOutVolume = 0.3
	e.ToggleMute()
	assert.True(t, e.Muted())
	e.ToggleMute()
	assert.False(t, e.Muted())
	assert.Equal(t, float32(0.3), e.MasterOutVolume)
}

func TestEngine_StartStopTunerIsIdempotent(t *testing.T) {
	e := newTestEngine(t)
	e.StartTuner()
	first := e.Tuner
	assert.NotNil(t, first)
	e.StartTuner()
	assert.Same(t, first, e.Tuner, "StartTuner while already running must not replace the handle")
	e.StopTuner()
	assert.Nil(t, e.Tuner)
	e.StopTuner() // must not panic
}

func TestEngine_ProcessAudioPushesToOutputRing(t *testing.T) {
	e := newTestEngine(t)
	out := ring.NewFloat32(256)
	in := make([]float32, 64)
	for i := range in {
		in[i] = 0.1
	}
	e.ProcessAudio(in, out)
	assert.Equal(t, 64, out.Len())
}

func TestEngine_ProcessAudioSignalsXrunWhenOutputRingFull(t *testing.T) {
	e := newTestEngine(t)
	out := ring.NewFloat32(8) // smaller than the block, forces a short write
	in := make([]float32, 64)
	e.ProcessAudio(in, out)
	snap := e.Stats.Snapshot()
	assert.Equal(t, uint64(1), snap.Xruns)
}

func TestEngine_ProcessAudioDrainsQueuedCommands(t *testing.T) {
	cmds := make(chan string, 2)
	e := New(board.NewDefaultSet(), 44100, 64, cmds)

	var handled []string
	e.Handler = handlerFunc(func(cmd string) { handled = append(handled, cmd) })

	cmds <- "mute"
	cmds <- "unmute"
	e.ProcessAudio(make([]float32, 64), nil)

	assert.Equal(t, []string{"mute", "unmute"}, handled)
}

type handlerFunc func(string)

func (f handlerFunc) Handle(cmd string) { f(cmd) }
