package env

import "sync"

// ObservationBuffer holds the most recent scan plus a generation marker that
// advances on every publish. The marker distinguishes sample instances, so a
// consumer can tell "a new sample arrived" apart from "the values happen to
// match" (two consecutive scans can be numerically identical).
//
// The sensor feed is the sole writer; the episode manager only reads.
type ObservationBuffer struct {
	mu   sync.RWMutex
	scan *Scan
	gen  uint64
}

// NewObservationBuffer returns an empty buffer at generation zero.
func NewObservationBuffer() *ObservationBuffer {
	return &ObservationBuffer{}
}

// Publish replaces the held scan and advances the generation marker.
func (b *ObservationBuffer) Publish(s *Scan) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.scan = s
	b.gen++
}

// Current returns the held scan (nil if nothing has arrived yet) and the
// current generation marker.
func (b *ObservationBuffer) Current() (*Scan, uint64) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.scan, b.gen
}

// Generation returns the current generation marker.
func (b *ObservationBuffer) Generation() uint64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.gen
}

// ChangedSince reports whether a new scan has been published since the
// given marker was taken.
func (b *ObservationBuffer) ChangedSince(marker uint64) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.gen != marker
}
