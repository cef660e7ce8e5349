package engine

import "sync/atomic"

// Stats is a small block of atomic counters describing engine health,
// grounded on the teacher's runtime_status.go status-snapshot pattern
// (there reporting CPU/video timing; here reporting audio health).
type Stats struct {
	framesProcessed atomic.Uint64
	xruns           atomic.Uint64
	clips           atomic.Uint64
}

func (s *Stats) addFrames(n int)   { s.framesProcessed.Add(uint64(n)) }
func (s *Stats) incXruns()         { s.xruns.Add(1) }
func (s *Stats) incClips()         { s.clips.Add(1) }

// Snapshot is a point-in-time copy of Stats safe to log or serialize.
type Snapshot struct {
	FramesProcessed uint64 `json:"frames_processed"`
	Xruns           uint64 `json:"xruns"`
	Clips           uint64 `json:"clips"`
}

func (s *Stats) Snapshot() Snapshot {
	return Snapshot{
		FramesProcessed: s.framesProcessed.Load(),
		Xruns:           s.xruns.Load(),
		Clips:           s.clips.Load(),
	}
}
