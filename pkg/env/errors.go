package env

import "errors"

// Error kinds surfaced by the episode API. All of them are fatal to the call
// that produced them; the core never retries internally, and a failed call
// leaves the episode state untouched.
var (
	// ErrObservationTimeout means no fresh scan arrived within the deadline.
	ErrObservationTimeout = errors.New("no fresh observation within deadline")
	// ErrCalibrationTimeout means no pose sample arrived during a reset.
	ErrCalibrationTimeout = errors.New("no pose sample within reset deadline")
	// ErrWorldReset means the world-reset request failed.
	ErrWorldReset = errors.New("world reset failed")
	// ErrUnsupportedAction means the action is outside the configured space.
	ErrUnsupportedAction = errors.New("unsupported action")
	// ErrEpisodeDone means Step was called after termination without an
	// intervening Reset.
	ErrEpisodeDone = errors.New("episode is done; call Reset before Step")
	// ErrNotReady means Step was called before the first successful Reset.
	ErrNotReady = errors.New("environment not reset")
	// ErrClosed means the environment's session has been released.
	ErrClosed = errors.New("environment is closed")
)
