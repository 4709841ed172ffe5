package env

import (
	"context"
	"time"
)

// EventSource is the pumpable side of the transport session: it drains
// pending samples for at most one timeslice on the caller's goroutine and
// reports whether anything arrived.
type EventSource interface {
	Pump(timeslice time.Duration) bool
}

// awaitFreshObservation pumps the event source until a scan newer than the
// buffer's current generation arrives, or the deadline elapses.
//
// This is the core's sole suspension point: every Reset and every Step
// blocks here and only here. A timeout leaves the buffer contents untouched.
func awaitFreshObservation(ctx context.Context, src EventSource, buf *ObservationBuffer, deadline, quantum time.Duration) (*Scan, error) {
	return awaitFreshSince(ctx, src, buf, buf.Generation(), deadline, quantum)
}

// awaitFreshSince is awaitFreshObservation against a marker the caller took
// earlier. Reset uses it so a scan that arrives alongside the calibrating
// pose sample still counts as fresh.
func awaitFreshSince(ctx context.Context, src EventSource, buf *ObservationBuffer, marker uint64, deadline, quantum time.Duration) (*Scan, error) {
	limit := time.Now().Add(deadline)

	for {
		if buf.ChangedSince(marker) {
			scan, _ := buf.Current()
			return scan, nil
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		remaining := time.Until(limit)
		if remaining <= 0 {
			return nil, ErrObservationTimeout
		}
		if remaining < quantum {
			src.Pump(remaining)
		} else {
			src.Pump(quantum)
		}
	}
}

// awaitCondition pumps the event source until the predicate holds or the
// deadline elapses. Used during reset to wait for the calibrating pose
// sample.
func awaitCondition(ctx context.Context, src EventSource, pred func() bool, deadline, quantum time.Duration) bool {
	limit := time.Now().Add(deadline)
	for {
		if pred() {
			return true
		}
		if ctx.Err() != nil {
			return false
		}
		remaining := time.Until(limit)
		if remaining <= 0 {
			return false
		}
		if remaining < quantum {
			src.Pump(remaining)
		} else {
			src.Pump(quantum)
		}
	}
}
