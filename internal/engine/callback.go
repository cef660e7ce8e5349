package engine

import (
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/Si1veR123/rs-pedalboard/internal/ring"
)

// Output is the ring the processed block is pushed into for the
// playback stream to consume, matching original_source's
// `writer: HeapProd<f32>` field.
//
// Kept as a plain field rather than a constructor argument so a stream
// can be attached or swapped after the Engine is built.
type outputPort = *ring.Float32

// ProcessAudio runs one full block through the pipeline: recording
// capture, normalization, input metering, optional resampling, tuner or
// pedalboard processing, optional resampling back down, output
// metering, metronome, push to the output ring, then drains any queued
// commands. Order follows original_source's process_audio exactly.
func (e *Engine) ProcessAudio(in []float32, out outputPort) {
	e.Recording.Tick()
	if e.Recording.IsRecording() {
		if dropped := e.Recording.PushClean(in); dropped != len(in) {
			log.Warn("engine: clean recording ring full, dropping samples")
		}
	}

	e.dataBuffer = append(e.dataBuffer[:0], in...)
	e.pedalMessages = e.pedalMessages[:0]

	if e.Normalizer != nil {
		e.Normalizer.ProcessBuffer(e.dataBuffer)
	} else {
		for i := range e.dataBuffer {
			e.dataBuffer[i] *= e.MasterInVolume
		}
	}

	e.InMonitor.AddSamples(e.dataBuffer)

	if e.resampling {
		e.processingBuffer = resizeTo(e.processingBuffer, len(e.dataBuffer)*2)
		e.upsampler.Upsample(e.dataBuffer, e.processingBuffer)
	} else {
		e.processingBuffer = resizeTo(e.processingBuffer, 0)
		e.processingBuffer = append(e.processingBuffer, e.dataBuffer...)
	}

	if allSilent(e.dataBuffer) {
		log.Debug("engine: buffer is silent, skipping processing")
	} else if e.Tuner != nil {
		e.Tuner.PushSamples(e.dataBuffer)
		if hz, ok := e.Tuner.TryRecvFrequency(); ok {
			e.emit(fmt.Sprintf("tuner %.2f", hz))
		}
	} else {
		fpp := e.FramesPerPeriod
		if fpp <= 0 {
			fpp = len(e.processingBuffer)
		}
		for start := 0; start < len(e.processingBuffer); start += fpp {
			end := start + fpp
			if end > len(e.processingBuffer) {
				end = len(e.processingBuffer)
			}
			e.Boards.ProcessAudio(e.processingBuffer[start:end], &e.pedalMessages)
		}
		for i := range e.processingBuffer {
			e.processingBuffer[i] *= e.MasterOutVolume
		}
	}

	if e.resampling {
		e.dataBuffer = resizeTo(e.dataBuffer, len(e.processingBuffer)/2)
		e.downsampler.Downsample(e.processingBuffer, e.dataBuffer)
	} else {
		e.dataBuffer = append(e.dataBuffer[:0], e.processingBuffer...)
	}

	if e.Recording.IsRecording() {
		if dropped := e.Recording.PushProcessed(e.dataBuffer); dropped != len(e.dataBuffer) {
			log.Warn("engine: recording ring full, dropping samples")
		}
	}

	e.OutMonitor.AddSamples(e.dataBuffer)

	if e.MetronomeEnabled {
		e.Metronome.AddToBuffer(e.dataBuffer)
	}

	e.Stats.addFrames(len(e.dataBuffer))
	for _, s := range e.dataBuffer {
		if s > 1 || s < -1 {
			e.Stats.incClips()
			break
		}
	}

	if out != nil {
		written := out.Push(e.dataBuffer)
		if written != len(e.dataBuffer) {
			e.Stats.incXruns()
			e.emit("xrun")
			log.Error("engine: failed to write all processed data, output is behind")
		}
	}

	if e.VolumeMonitorEnabled {
		if time.Since(e.volumeMonitorLastSent) >= VolumeMonitorUpdateRate {
			e.volumeMonitorLastSent = time.Now()

			inPeak := round3(e.InMonitor.TakePeak())
			outPeak := round3(e.OutMonitor.TakePeak())

			if absDiff(e.lastInPeak, inPeak) >= volumeMonitorEps || absDiff(e.lastOutPeak, outPeak) >= volumeMonitorEps {
				e.emit(fmt.Sprintf("volumemonitor %g %g", inPeak, outPeak))
			}
			e.lastInPeak, e.lastOutPeak = inPeak, outPeak
		}
	}

	for _, m := range e.pedalMessages {
		e.emit(m)
	}

	for {
		select {
		case cmd, ok := <-e.Commands:
			if !ok {
				return
			}
			if e.Handler != nil {
				e.Handler.Handle(cmd)
			}
		default:
			return
		}
	}
}

// resizeTo returns buf grown or shrunk to exactly n elements, reusing
// its backing array when it already has enough capacity.
func resizeTo(buf []float32, n int) []float32 {
	if cap(buf) >= n {
		return buf[:n]
	}
	return make([]float32, n)
}

func allSilent(buf []float32) bool {
	for _, s := range buf {
		if s != 0 {
			return false
		}
	}
	return true
}

func round3(v float32) float32 {
	return float32(int(v*1000+sign(v)*0.5)) / 1000
}

func sign(v float32) float32 {
	if v < 0 {
		return -1
	}
	return 1
}

func absDiff(a, b float32) float32 {
	d := a - b
	if d < 0 {
		return -d
	}
	return d
}
