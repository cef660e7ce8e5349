// Command pedalboardd is the realtime audio processor: it owns the
// pedalboard set, drives the duplex audio stream, and accepts client
// connections that mutate the live rig over the wire protocol. Process
// structure (load config, optionally init Sentry, build the domain
// objects, serve until killed) follows the teacher's main.go sequence
// and the magda-api main.go Sentry-and-signal-handling idiom.
package main

import (
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/getsentry/sentry-go"

	"github.com/Si1veR123/rs-pedalboard/internal/board"
	"github.com/Si1veR123/rs-pedalboard/internal/config"
	"github.com/Si1veR123/rs-pedalboard/internal/engine"
	_ "github.com/Si1veR123/rs-pedalboard/internal/pedal"
	"github.com/Si1veR123/rs-pedalboard/internal/protocol"
	"github.com/Si1veR123/rs-pedalboard/internal/server"
	"github.com/Si1veR123/rs-pedalboard/internal/stream"
)

const sentryFlushTimeout = 2 * time.Second

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		log.Fatal("pedalboardd: config", "err", err)
	}

	if dsn := os.Getenv("SENTRY_DSN"); dsn != "" {
		if err := sentry.Init(sentry.ClientOptions{Dsn: dsn}); err != nil {
			log.Error("pedalboardd: sentry init failed", "err", err)
		} else {
			defer sentry.Flush(sentryFlushTimeout)
			defer recoverAndReport()
		}
	}

	boards := board.NewDefaultSet()
	boards.SetConfig(cfg.FramesPerPeriod*8, cfg.PreferredSampleRate)

	queue := protocol.NewCommandQueue(256)
	bus := protocol.NewResponseBus()

	e := engine.New(boards, cfg.PreferredSampleRate, cfg.FramesPerPeriod, queue.Chan())
	e.Sink = bus
	e.Recording.SetOutputDir(cfg.RecordingDir)
	e.TunerParams.MinFreq = cfg.TunerMinFreq
	e.TunerParams.MaxFreq = cfg.TunerMaxFreq
	e.TunerParams.Periods = cfg.TunerPeriods

	shutdown := make(chan struct{})
	var shutdownOnce sync.Once
	dispatcher := protocol.NewDispatcher(e)
	dispatcher.Kill = func() {
		shutdownOnce.Do(func() { close(shutdown) })
	}
	e.Handler = dispatcher

	srv, err := server.Listen(cfg.ListenAddr, queue, bus)
	if err != nil {
		log.Fatal("pedalboardd: listen", "addr", cfg.ListenAddr, "err", err)
	}
	srv.Start()
	log.Info("pedalboardd: listening", "addr", cfg.ListenAddr)

	audioStream, err := stream.Open(e, stream.Config{
		FramesPerPeriod:     cfg.FramesPerPeriod,
		PreferredSampleRate: cfg.PreferredSampleRate,
		UpsamplePasses:      cfg.UpsamplePasses,
	})
	if err != nil {
		log.Fatal("pedalboardd: open audio stream", "err", err)
	}
	if err := audioStream.Start(); err != nil {
		log.Fatal("pedalboardd: start audio stream", "err", err)
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sig:
		log.Info("pedalboardd: received signal, shutting down")
	case <-shutdown:
		log.Info("pedalboardd: kill command received, shutting down")
	}

	audioStream.Stop()
	srv.Stop()
}

func recoverAndReport() {
	if r := recover(); r != nil {
		sentry.CurrentHub().Recover(r)
		sentry.Flush(sentryFlushTimeout)
		panic(r)
	}
}
