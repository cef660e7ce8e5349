// Package ring implements a single-producer/single-consumer lock-free
// ring buffer of float32 samples, grounded on the teacher's
// audio_backend_oto.go OtoPlayer.Read/ReadSampleFromRing handoff
// between the engine goroutine (producer) and the output stream
// callback (consumer).
package ring

import "sync/atomic"

// Float32 is an SPSC ring buffer. Exactly one goroutine may call Push,
// and exactly one (possibly different) goroutine may call Pop.
type Float32 struct {
	buf        []float32
	mask       uint64
	writeIndex atomic.Uint64
	readIndex  atomic.Uint64
}

// NewFloat32 allocates a ring whose capacity is the next power of two
// >= size, so index wrapping is a mask instead of a modulo.
func NewFloat32(size int) *Float32 {
	capacity := 1
	for capacity < size {
		capacity <<= 1
	}
	return &Float32{buf: make([]float32, capacity), mask: uint64(capacity - 1)}
}

// Len returns the number of samples currently buffered.
func (r *Float32) Len() int {
	return int(r.writeIndex.Load() - r.readIndex.Load())
}

// Cap returns the ring's capacity.
func (r *Float32) Cap() int { return len(r.buf) }

// Push appends as many samples from in as fit, returning the count
// actually written. It never blocks.
func (r *Float32) Push(in []float32) int {
	w := r.writeIndex.Load()
	rIdx := r.readIndex.Load()
	free := uint64(len(r.buf)) - (w - rIdx)
	n := uint64(len(in))
	if n > free {
		n = free
	}
	for i := uint64(0); i < n; i++ {
		r.buf[(w+i)&r.mask] = in[i]
	}
	r.writeIndex.Store(w + n)
	return int(n)
}

// Pop fills out with as many samples as are available, returning the
// count actually read. Unread positions in out are left untouched.
func (r *Float32) Pop(out []float32) int {
	rIdx := r.readIndex.Load()
	w := r.writeIndex.Load()
	avail := w - rIdx
	n := uint64(len(out))
	if n > avail {
		n = avail
	}
	for i := uint64(0); i < n; i++ {
		out[i] = r.buf[(rIdx+i)&r.mask]
	}
	r.readIndex.Store(rIdx + n)
	return int(n)
}

// PopAll drains every buffered sample into a freshly sliced result,
// used by the recording worker to empty the ring each wake cycle.
func (r *Float32) PopAll() []float32 {
	n := r.Len()
	if n == 0 {
		return nil
	}
	out := make([]float32, n)
	r.Pop(out)
	return out
}
