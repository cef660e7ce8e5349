package protocol

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/charmbracelet/log"

	"github.com/Si1veR123/rs-pedalboard/internal/board"
	"github.com/Si1veR123/rs-pedalboard/internal/engine"
	"github.com/Si1veR123/rs-pedalboard/internal/param"
	"github.com/Si1veR123/rs-pedalboard/internal/pedal"
)

// Dispatcher implements engine.CommandHandler, translating decoded wire
// commands into mutations of the live board.Set/Engine, grounded field
// for field on original_source's AudioProcessor::handle_command.
type Dispatcher struct {
	Engine *engine.Engine
	// Kill is invoked for the "kill" command; callers wire this to their
	// own process shutdown so protocol doesn't import os/exit concerns
	// past what's necessary for the handler's own bookkeeping.
	Kill func()
}

func NewDispatcher(e *engine.Engine) *Dispatcher {
	return &Dispatcher{Engine: e}
}

// Handle parses and applies one inbound command line. Malformed
// commands are logged and otherwise ignored, mirroring handle_command's
// `Option<()>` early-return-on-None behavior.
func (d *Dispatcher) Handle(command string) {
	line := ParseLine(command)
	if line.Name == "" {
		return
	}

	var err error
	switch line.Name {
	case CmdKill:
		log.Info("protocol: received kill command, shutting down")
		if d.Kill != nil {
			d.Kill()
		}
	case CmdDisconnect:
		d.Engine.StopTuner()
	case CmdSetParameter:
		err = d.handleSetParameter(line, command)
	case CmdMovePedalboard:
		err = d.handleMovePedalboard(line)
	case CmdAddPedalboard:
		err = d.handleAddPedalboard(command)
	case CmdDeletePedalboard:
		err = d.handleDeletePedalboard(line)
	case CmdAddPedal:
		err = d.handleAddPedal(line, command)
	case CmdDeletePedal:
		err = d.handleDeletePedal(line)
	case CmdMovePedal:
		err = d.handleMovePedal(line)
	case CmdLoadSet:
		err = d.handleLoadSet(command)
	case CmdPlay:
		err = d.handlePlay(line)
	case CmdNextPedalboard:
		d.Engine.Boards.Next()
	case CmdPrevPedalboard:
		d.Engine.Boards.Prev()
	case CmdMasterIn:
		err = d.handleMasterIn(line)
	case CmdMasterOut:
		err = d.handleMasterOut(line)
	case CmdMute:
		err = d.handleMute(line)
	case CmdTuner:
		err = d.handleTuner(line)
	case CmdMetronome:
		err = d.handleMetronome(line)
	case CmdVolumeMonitor:
		err = d.handleVolumeMonitor(line)
	case CmdVolumeNormalization:
		err = d.handleVolumeNormalization(line)
	case CmdRequestSampleRate:
		d.Engine.Sink.Send(fmt.Sprintf("%s %d", EventSampleRate, int(d.Engine.ProcessingSampleRate)))
	case CmdRecording:
		err = d.handleRecording(line)
	case CmdRecordClean:
		err = d.handleRecordClean(line)
	case CmdSetRecordingDir:
		err = d.handleSetRecordingDir(command)
	default:
		log.Warn("protocol: unknown command", "name", line.Name)
		return
	}

	if err != nil {
		log.Error("protocol: failed to handle command", "name", line.Name, "err", err)
	}
}

func argErr(name string) error { return fmt.Errorf("%s: missing or malformed argument", name) }

func (d *Dispatcher) handleSetParameter(line Line, raw string) error {
	if len(line.Args) < 3 {
		return argErr(CmdSetParameter)
	}
	pedalboardID, err := strconv.ParseUint(line.Args[0], 10, 32)
	if err != nil {
		return argErr(CmdSetParameter)
	}
	pedalID, err := strconv.ParseUint(line.Args[1], 10, 32)
	if err != nil {
		return argErr(CmdSetParameter)
	}
	paramName := line.Args[2]

	fields := SplitN(raw, 5)
	if len(fields) < 5 {
		return argErr(CmdSetParameter)
	}
	valueJSON := json.RawMessage(fields[4])

	for _, pb := range d.Engine.Boards.BoardsByID(uint32(pedalboardID)) {
		p, ok := pb.Pedal(uint32(pedalID))
		if !ok {
			continue
		}
		existing, hasParam := p.Parameters()[paramName]
		payload := valueJSON
		if hasParam && existing.Kind == param.KindOscillator {
			var spec param.OscillatorSpec
			if err := json.Unmarshal(valueJSON, &spec); err != nil {
				return err
			}
			spec.SampleRate = d.Engine.ProcessingSampleRate
			payload, err = json.Marshal(spec)
			if err != nil {
				return err
			}
		}
		if err := p.SetParameter(paramName, payload); err != nil {
			return err
		}
	}
	return nil
}

func (d *Dispatcher) handleMovePedalboard(line Line) error {
	if len(line.Args) < 2 {
		return argErr(CmdMovePedalboard)
	}
	src, err1 := strconv.Atoi(line.Args[0])
	dest, err2 := strconv.Atoi(line.Args[1])
	if err1 != nil || err2 != nil {
		return argErr(CmdMovePedalboard)
	}
	shifted := dest
	if dest > src {
		shifted = dest - 1
	}
	return d.Engine.Boards.MoveBoard(src, shifted)
}

func (d *Dispatcher) handleAddPedalboard(raw string) error {
	fields := SplitN(raw, 2)
	if len(fields) < 2 {
		return argErr(CmdAddPedalboard)
	}
	pb := &board.Pedalboard{}
	if err := json.Unmarshal([]byte(fields[1]), pb); err != nil {
		return err
	}
	pb.SetConfig(d.Engine.FramesPerPeriod, d.Engine.ProcessingSampleRate)
	d.Engine.Boards.AddBoard(pb)
	return nil
}

func (d *Dispatcher) handleDeletePedalboard(line Line) error {
	if len(line.Args) < 1 {
		return argErr(CmdDeletePedalboard)
	}
	if line.Args[0] == "active" {
		return d.Engine.Boards.RemoveBoard(d.Engine.Boards.ActiveIndex())
	}
	index, err := strconv.Atoi(line.Args[0])
	if err != nil {
		return argErr(CmdDeletePedalboard)
	}
	return d.Engine.Boards.RemoveBoard(index)
}

// clonePedal round-trips p through its wire encoding so every linked
// pedalboard gets an independent instance sharing only the same id.
func clonePedal(p pedal.Pedal) (pedal.Pedal, error) {
	raw, err := pedal.EncodeJSON(p)
	if err != nil {
		return nil, err
	}
	return pedal.DecodeJSON(raw)
}

func (d *Dispatcher) handleAddPedal(line Line, raw string) error {
	if len(line.Args) < 1 {
		return argErr(CmdAddPedal)
	}
	pedalboardID, err := strconv.ParseUint(line.Args[0], 10, 32)
	if err != nil {
		return argErr(CmdAddPedal)
	}
	fields := SplitN(raw, 3)
	if len(fields) < 3 {
		return argErr(CmdAddPedal)
	}
	p, err := pedal.DecodeJSON([]byte(fields[2]))
	if err != nil {
		return err
	}
	p.SetConfig(d.Engine.FramesPerPeriod, d.Engine.ProcessingSampleRate)

	boards := d.Engine.Boards.BoardsByID(uint32(pedalboardID))
	for i, pb := range boards {
		target := p
		if i > 0 {
			target, err = clonePedal(p)
			if err != nil {
				return err
			}
			target.SetConfig(d.Engine.FramesPerPeriod, d.Engine.ProcessingSampleRate)
		}
		pb.AddPedal(target)
	}
	return nil
}

func (d *Dispatcher) handleDeletePedal(line Line) error {
	if len(line.Args) < 2 {
		return argErr(CmdDeletePedal)
	}
	pedalboardID, err1 := strconv.ParseUint(line.Args[0], 10, 32)
	pedalID, err2 := strconv.ParseUint(line.Args[1], 10, 32)
	if err1 != nil || err2 != nil {
		return argErr(CmdDeletePedal)
	}
	for _, pb := range d.Engine.Boards.BoardsByID(uint32(pedalboardID)) {
		pb.DeletePedal(uint32(pedalID))
	}
	return nil
}

func (d *Dispatcher) handleMovePedal(line Line) error {
	if len(line.Args) < 3 {
		return argErr(CmdMovePedal)
	}
	pedalboardID, err1 := strconv.ParseUint(line.Args[0], 10, 32)
	pedalID, err2 := strconv.ParseUint(line.Args[1], 10, 32)
	dest, err3 := strconv.Atoi(line.Args[2])
	if err1 != nil || err2 != nil || err3 != nil {
		return argErr(CmdMovePedal)
	}
	for _, pb := range d.Engine.Boards.BoardsByID(uint32(pedalboardID)) {
		from, ok := pb.PedalIndex(uint32(pedalID))
		if !ok {
			continue
		}
		shifted := dest
		if dest > from {
			shifted = dest - 1
		}
		pb.MovePedal(uint32(pedalID), shifted)
	}
	return nil
}

func (d *Dispatcher) handleLoadSet(raw string) error {
	fields := SplitN(raw, 2)
	if len(fields) < 2 {
		return argErr(CmdLoadSet)
	}
	newSet := &board.Set{}
	if err := json.Unmarshal([]byte(fields[1]), newSet); err != nil {
		return err
	}
	newSet.SetConfig(d.Engine.FramesPerPeriod, d.Engine.ProcessingSampleRate)
	d.Engine.Boards = newSet
	return nil
}

func (d *Dispatcher) handlePlay(line Line) error {
	if len(line.Args) < 1 {
		return argErr(CmdPlay)
	}
	index, err := strconv.Atoi(line.Args[0])
	if err != nil {
		return argErr(CmdPlay)
	}
	return d.Engine.Boards.SetActive(index)
}

func (d *Dispatcher) handleMasterIn(line Line) error {
	if len(line.Args) < 1 {
		return argErr(CmdMasterIn)
	}
	v, err := strconv.ParseFloat(line.Args[0], 32)
	if err != nil {
		return argErr(CmdMasterIn)
	}
	d.Engine.MasterInVolume = float32(v)
	return nil
}

func (d *Dispatcher) handleMasterOut(line Line) error {
	if len(line.Args) < 1 {
		return argErr(CmdMasterOut)
	}
	v, err := strconv.ParseFloat(line.Args[0], 32)
	if err != nil {
		return argErr(CmdMasterOut)
	}
	d.Engine.MasterOutVolume = clamp01(float32(v))
	return nil
}

// triState resolves an "on"/"off"/"toggle" argument against current,
// matching every on/off/toggle command spec.md describes.
func triState(arg string, current bool) (bool, error) {
	switch arg {
	case "on":
		return true, nil
	case "off":
		return false, nil
	case "toggle":
		return !current, nil
	default:
		return false, fmt.Errorf("expected 'on', 'off' or 'toggle', got %q", arg)
	}
}

func (d *Dispatcher) handleMute(line Line) error {
	if len(line.Args) < 1 {
		return argErr(CmdMute)
	}
	want, err := triState(line.Args[0], d.Engine.Muted())
	if err != nil {
		return fmt.Errorf("%s: %w", CmdMute, err)
	}
	if want {
		d.Engine.Mute()
	} else {
		d.Engine.Unmute()
	}
	return nil
}

func (d *Dispatcher) handleTuner(line Line) error {
	if len(line.Args) < 1 {
		return argErr(CmdTuner)
	}
	want, err := triState(line.Args[0], d.Engine.Tuner != nil)
	if err != nil {
		return fmt.Errorf("%s: %w", CmdTuner, err)
	}
	if want {
		d.Engine.StartTuner()
	} else {
		d.Engine.StopTuner()
	}
	return nil
}

func (d *Dispatcher) handleMetronome(line Line) error {
	if len(line.Args) < 1 {
		return argErr(CmdMetronome)
	}
	want, err := triState(line.Args[0], d.Engine.MetronomeEnabled)
	if err != nil {
		return fmt.Errorf("%s: %w", CmdMetronome, err)
	}
	d.Engine.MetronomeEnabled = want
	if len(line.Args) >= 3 {
		bpm, err1 := strconv.ParseUint(line.Args[1], 10, 32)
		volume, err2 := strconv.ParseFloat(line.Args[2], 32)
		if err1 != nil || err2 != nil {
			return argErr(CmdMetronome)
		}
		d.Engine.Metronome.BPM = uint32(bpm)
		d.Engine.Metronome.Volume = clamp01(float32(volume))
	}
	return nil
}

func (d *Dispatcher) handleVolumeMonitor(line Line) error {
	if len(line.Args) < 1 {
		return argErr(CmdVolumeMonitor)
	}
	want, err := triState(line.Args[0], d.Engine.VolumeMonitorEnabled)
	if err != nil {
		return fmt.Errorf("%s: %w", CmdVolumeMonitor, err)
	}
	d.Engine.VolumeMonitorEnabled = want
	if !want {
		d.Engine.InMonitor.Reset()
	}
	return nil
}

func (d *Dispatcher) handleVolumeNormalization(line Line) error {
	if len(line.Args) < 1 {
		return argErr(CmdVolumeNormalization)
	}
	switch line.Args[0] {
	case "none":
		d.Engine.Normalizer = nil
	case "manual":
		d.Engine.Normalizer = engine.NewPeakNormalizer(0.95, 1.0, d.Engine.FramesPerPeriod, d.Engine.ProcessingSampleRate)
	case "automatic":
		if len(line.Args) < 2 {
			return argErr(CmdVolumeNormalization)
		}
		decay, err := strconv.ParseFloat(line.Args[1], 32)
		if err != nil {
			return argErr(CmdVolumeNormalization)
		}
		decay = clampF(decay, 0.01, 1.0)
		d.Engine.Normalizer = engine.NewPeakNormalizer(0.95, decay, d.Engine.FramesPerPeriod, d.Engine.ProcessingSampleRate)
	case "reset":
		if d.Engine.Normalizer == nil {
			log.Warn("protocol: volume normalizer is not enabled, cannot reset")
			return nil
		}
		d.Engine.Normalizer.Reset()
	default:
		return fmt.Errorf("%s: expected 'none', 'manual', 'automatic' or 'reset'", CmdVolumeNormalization)
	}
	return nil
}

func (d *Dispatcher) handleRecording(line Line) error {
	if len(line.Args) < 1 {
		return argErr(CmdRecording)
	}
	want, err := triState(line.Args[0], d.Engine.Recording.IsRecording())
	if err != nil {
		return fmt.Errorf("%s: %w", CmdRecording, err)
	}
	if want {
		d.Engine.Recording.StartRecording()
	} else {
		d.Engine.Recording.StopRecording()
	}
	return nil
}

func (d *Dispatcher) handleRecordClean(line Line) error {
	if len(line.Args) < 1 {
		return argErr(CmdRecordClean)
	}
	want, err := triState(line.Args[0], d.Engine.Recording.IsClean())
	if err != nil {
		return fmt.Errorf("%s: %w", CmdRecordClean, err)
	}
	return d.Engine.Recording.SetClean(want)
}

func (d *Dispatcher) handleSetRecordingDir(raw string) error {
	fields := SplitN(raw, 2)
	if len(fields) < 2 {
		return argErr(CmdSetRecordingDir)
	}
	dir := fields[1]
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("%s: %q is not a directory", CmdSetRecordingDir, dir)
	}
	d.Engine.Recording.SetOutputDir(dir)
	return nil
}

func clamp01(v float32) float32 { return clampF32(v, 0, 1) }

func clampF32(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampF(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
