package stream

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"github.com/getsentry/sentry-go"
	"github.com/gordonklaus/portaudio"

	"github.com/Si1veR123/rs-pedalboard/internal/engine"
	"github.com/Si1veR123/rs-pedalboard/internal/ring"
)

// Config describes the duplex stream §4.6 and §6 ask for.
type Config struct {
	// FramesPerPeriod is the number of mono samples delivered per
	// callback, matching engine.Engine.FramesPerPeriod.
	FramesPerPeriod int
	// PreferredSampleRate is tried first against the device; if the
	// device can't open at that rate its own default rate is used and
	// a 2x resampler pair is installed per UpsamplePasses.
	PreferredSampleRate float64
	// UpsamplePasses is the number of 2x upsample stages between the
	// device rate and the engine's internal processing rate.
	UpsamplePasses int
}

// Stream owns the duplex PortAudio capture/playback pair and the
// goroutines that pump samples through engine.Engine, grounded on
// the retrieval pack's rustyguts-bken captureLoop/playbackLoop split
// (two independent streams, each with its own blocking Read/Write
// call and its own goroutine) rather than a single combined callback.
type Stream struct {
	engine *engine.Engine
	out    *ring.Float32

	capture  *portaudio.Stream
	playback *portaudio.Stream

	captureRaw  rawBuffer
	playbackRaw rawBuffer

	captureChannels  int
	playbackChannels int

	monoIn  []float32
	monoOut []float32

	clipped  atomic.Bool
	running  atomic.Bool
	stopOnce sync.Once
	wg       sync.WaitGroup
	stop     chan struct{}
}

// Open probes the default input/output devices across probeOrder's
// sample formats, opening the first pair that succeeds, per §7's
// "exhausts a probe list of sample formats; if none works, fatal"
// device error policy.
func Open(e *engine.Engine, cfg Config) (*Stream, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("stream: portaudio init: %w", err)
	}

	inDev, err := portaudio.DefaultInputDevice()
	if err != nil {
		portaudio.Terminate()
		return nil, fmt.Errorf("stream: no default input device: %w", err)
	}
	outDev, err := portaudio.DefaultOutputDevice()
	if err != nil {
		portaudio.Terminate()
		return nil, fmt.Errorf("stream: no default output device: %w", err)
	}

	s := &Stream{
		engine:           e,
		out:              ring.NewFloat32(cfg.FramesPerPeriod * 16),
		captureChannels:  inDev.MaxInputChannels,
		playbackChannels: outDev.MaxOutputChannels,
		stop:             make(chan struct{}),
	}
	if s.captureChannels < 1 {
		s.captureChannels = 1
	}
	if s.playbackChannels < 1 {
		s.playbackChannels = 1
	}

	deviceRate := cfg.PreferredSampleRate
	var lastErr error
	for _, format := range probeOrder {
		s.captureRaw = newRawBuffer(format, cfg.FramesPerPeriod, s.captureChannels)
		s.playbackRaw = newRawBuffer(format, cfg.FramesPerPeriod, s.playbackChannels)

		capture, err := openStream(inDev, nil, s.captureChannels, 0, deviceRate, cfg.FramesPerPeriod, s.captureRaw)
		if err != nil {
			lastErr = err
			continue
		}
		playback, err := openStream(nil, outDev, 0, s.playbackChannels, deviceRate, cfg.FramesPerPeriod, s.playbackRaw)
		if err != nil {
			capture.Close()
			lastErr = err
			continue
		}
		s.capture = capture
		s.playback = playback
		log.Info("stream: opened device streams", "format", format.String(), "rate", deviceRate)
		break
	}
	if s.capture == nil || s.playback == nil {
		portaudio.Terminate()
		return nil, fmt.Errorf("stream: exhausted sample format probe list: %w", lastErr)
	}

	if cfg.UpsamplePasses > 0 {
		e.EnableResampling(deviceRate)
	}

	s.monoIn = make([]float32, cfg.FramesPerPeriod)
	s.monoOut = make([]float32, cfg.FramesPerPeriod)
	return s, nil
}

func openStream(in, out *portaudio.DeviceInfo, inChannels, outChannels int, sampleRate float64, framesPerBuffer int, buf rawBuffer) (*portaudio.Stream, error) {
	params := portaudio.StreamParameters{
		SampleRate:      sampleRate,
		FramesPerBuffer: framesPerBuffer,
	}
	if in != nil {
		params.Input = portaudio.StreamDeviceParameters{
			Device:   in,
			Channels: inChannels,
			Latency:  in.DefaultLowInputLatency,
		}
	}
	if out != nil {
		params.Output = portaudio.StreamDeviceParameters{
			Device:   out,
			Channels: outChannels,
			Latency:  out.DefaultLowOutputLatency,
		}
	}
	// buf.raw() carries the Go slice type (e.g. []int16, []float32) that
	// tells portaudio.OpenStream which native PortAudio sample format to
	// negotiate with the device.
	return portaudio.OpenStream(params, buf.raw())
}

// Start launches the capture and playback goroutines.
func (s *Stream) Start() error {
	if !s.running.CompareAndSwap(false, true) {
		return nil
	}
	if err := s.capture.Start(); err != nil {
		return fmt.Errorf("stream: start capture: %w", err)
	}
	if err := s.playback.Start(); err != nil {
		s.capture.Stop()
		return fmt.Errorf("stream: start playback: %w", err)
	}
	s.wg.Add(2)
	go func() { defer s.wg.Done(); s.captureLoop() }()
	go func() { defer s.wg.Done(); s.playbackLoop() }()
	return nil
}

// Stop halts both streams and waits for their goroutines to exit.
// Safe to call more than once.
func (s *Stream) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
	if !s.running.CompareAndSwap(true, false) {
		s.wg.Wait()
		return
	}
	s.capture.Stop()
	s.playback.Stop()
	s.wg.Wait()
	s.capture.Close()
	s.playback.Close()
	portaudio.Terminate()
}

func (s *Stream) captureLoop() {
	defer func() {
		if r := recover(); r != nil {
			sentry.CurrentHub().Recover(r)
			log.Error("stream: capture loop panicked", "panic", r)
		}
	}()
	for {
		select {
		case <-s.stop:
			return
		default:
		}
		if err := s.capture.Read(); err != nil {
			if s.running.Load() {
				log.Error("stream: capture read failed", "err", err)
			}
			return
		}
		s.captureRaw.toFloat32(s.monoIn, s.captureChannels)
		s.engine.ProcessAudio(s.monoIn, s.out)
	}
}

func (s *Stream) playbackLoop() {
	defer func() {
		if r := recover(); r != nil {
			sentry.CurrentHub().Recover(r)
			log.Error("stream: playback loop panicked", "panic", r)
		}
	}()
	for {
		select {
		case <-s.stop:
			return
		default:
		}
		n := s.out.Pop(s.monoOut)
		for i := n; i < len(s.monoOut); i++ {
			s.monoOut[i] = 0
		}
		clipped := false
		for i, v := range s.monoOut {
			if v > 1 || v < -1 {
				clipped = true
			}
			s.monoOut[i] = clampFloat(v)
		}
		if clipped {
			s.engine.Emit("clipped")
		}
		s.playbackRaw.fromFloat32(s.monoOut, s.playbackChannels)
		if err := s.playback.Write(); err != nil {
			if s.running.Load() {
				log.Error("stream: playback write failed", "err", err)
			}
			return
		}
	}
}
