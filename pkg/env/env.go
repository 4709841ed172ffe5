// Package env implements the episode-management core: it reconciles the
// push-based pose and scan feeds against a synchronous reset/step control
// loop, calibrates raw poses into an episode-local frame, shapes a dense
// reward from position deltas, and runs the termination state machine.
package env

import (
	"context"
	"fmt"

	"github.com/navlab/turtlenav/pkg/transport"
)

// WorldResetter moves the robot back to a target pose between episodes.
// Implemented by the simulator; the request is synchronous and bounded by
// the caller's context.
type WorldResetter interface {
	ResetPose(ctx context.Context, target Point, yaw float64) error
}

// StepResult is the agent-consumable outcome of one step.
type StepResult struct {
	Obs        *Scan
	Reward     float64
	Terminated bool
	Truncated  bool // always false: no time-limit truncation in the core
	Info       map[string]any
}

// NavEnv is the episodic navigation environment. It exclusively owns the
// episode state and calibration offset; the observation buffer is written
// only by the scan feed. All mutation happens on the goroutine calling
// Reset/Step, during or immediately after the bridge pump; there is no
// background delivery.
type NavEnv struct {
	cfg        Config
	session    *transport.Session
	resetter   WorldResetter
	buf        *ObservationBuffer
	dispatcher *Dispatcher

	offset     CalibrationOffset
	calibrated bool
	pose       LocalPose

	state  EpisodeState
	ready  bool
	closed bool
}

// New acquires a session on the broker, wires the scan and odometry
// subscriptions, and returns an environment ready for its first Reset.
// The session is held for the environment's whole lifetime and released
// by Close.
func New(broker transport.Broker, resetter WorldResetter, cfg Config) (*NavEnv, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if resetter == nil {
		return nil, fmt.Errorf("world resetter is required")
	}

	session := transport.NewSession(broker)
	e := &NavEnv{
		cfg:        cfg,
		session:    session,
		resetter:   resetter,
		buf:        NewObservationBuffer(),
		dispatcher: NewDispatcher(session, cfg.Profile, cfg.Bounds, cfg.FrameID),
	}

	if err := session.Subscribe(TopicScan, e.onScan); err != nil {
		session.Close()
		return nil, err
	}
	if err := session.Subscribe(TopicOdom, e.onOdom); err != nil {
		session.Close()
		return nil, err
	}
	return e, nil
}

// onScan runs during the bridge pump, on the caller's goroutine.
func (e *NavEnv) onScan(msg transport.Message) {
	scan, ok := msg.Payload.(*Scan)
	if !ok {
		return
	}
	e.buf.Publish(scan)
}

// onOdom runs during the bridge pump. The first sample after a reset
// anchors the episode-local frame; the latch stays set until the next reset.
func (e *NavEnv) onOdom(msg transport.Message) {
	raw, ok := msg.Payload.(PoseSample)
	if !ok {
		return
	}
	if !e.calibrated {
		e.offset = Calibrate(raw, e.cfg.Start, e.cfg.DesiredYaw)
		e.calibrated = true
	}
	e.pose = e.offset.Apply(raw)
}

// Reset starts a new episode: stop the robot, re-issue the world reset,
// re-anchor calibration on the next pose sample, and block for the first
// fresh scan. On any error the previous episode state is left untouched.
func (e *NavEnv) Reset(ctx context.Context) (*Scan, map[string]any, error) {
	if e.closed {
		return nil, nil, ErrClosed
	}

	e.dispatcher.Dispatch(e.dispatcher.Stop())

	// Drain samples queued before the world reset so a stale pose cannot
	// anchor the new episode's frame.
	e.session.Pump(0)
	e.calibrated = false
	e.ready = false

	rctx, cancel := context.WithTimeout(ctx, e.cfg.WorldResetDeadline)
	defer cancel()
	if err := e.resetter.ResetPose(rctx, e.cfg.Start, e.cfg.DesiredYaw); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrWorldReset, err)
	}

	// Taken before the calibration wait: a scan arriving alongside the
	// calibrating pose sample already counts as the first fresh one.
	marker := e.buf.Generation()

	if !awaitCondition(ctx, e.session, func() bool { return e.calibrated },
		e.cfg.ObservationDeadline, e.cfg.PollQuantum) {
		return nil, nil, ErrCalibrationTimeout
	}

	scan, err := awaitFreshSince(ctx, e.session, e.buf, marker,
		e.cfg.ObservationDeadline, e.cfg.PollQuantum)
	if err != nil {
		return nil, nil, err
	}

	e.state = newEpisodeState(e.cfg.Start.Dist(e.cfg.Goal))
	e.ready = true
	return scan.Clone(), e.info(), nil
}

// Step dispatches the action, blocks for a fresh scan, scores the
// transition, and evaluates termination. A timed-out step mutates nothing.
// Stepping a terminated episode is an error; Reset first.
func (e *NavEnv) Step(ctx context.Context, action Action) (StepResult, error) {
	if e.closed {
		return StepResult{}, ErrClosed
	}
	if !e.ready {
		return StepResult{}, ErrNotReady
	}
	if e.state.Done {
		return StepResult{}, ErrEpisodeDone
	}

	cmd, err := e.dispatcher.Command(action)
	if err != nil {
		return StepResult{}, err
	}
	e.dispatcher.Dispatch(cmd)

	before := e.pose
	scan, err := awaitFreshObservation(ctx, e.session, e.buf,
		e.cfg.ObservationDeadline, e.cfg.PollQuantum)
	if err != nil {
		return StepResult{}, err
	}
	after := e.pose

	prevDist := e.state.LastDistance
	curDist := after.Point().Dist(e.cfg.Goal)
	colliding := isColliding(scan, e.cfg.Termination.CollisionThreshold)
	positionDelta := before.Point().Dist(after.Point())

	st := markCollision(e.state, colliding)
	reward, st := shapeReward(e.cfg.Shaping, prevDist, curDist, colliding, positionDelta, st)
	st.LastDistance = curDist
	st.Steps++
	st = evaluateTermination(e.cfg.Termination, st, curDist)
	e.state = st

	return StepResult{
		Obs:        scan.Clone(),
		Reward:     reward,
		Terminated: st.Done,
		Truncated:  false,
		Info:       e.info(),
	}, nil
}

// Close stops the robot and releases the transport session.
func (e *NavEnv) Close() error {
	if e.closed {
		return nil
	}
	e.dispatcher.Dispatch(e.dispatcher.Stop())
	e.closed = true
	e.ready = false
	return e.session.Close()
}

// Pose returns the latest episode-local pose. The boolean is false until
// calibration has completed for the current episode.
func (e *NavEnv) Pose() (LocalPose, bool) {
	return e.pose, e.calibrated
}

// Goal returns the episode's goal position.
func (e *NavEnv) Goal() Point {
	return e.cfg.Goal
}

// State returns a copy of the current episode state.
func (e *NavEnv) State() EpisodeState {
	return e.state
}

// Config returns the environment's configuration.
func (e *NavEnv) Config() Config {
	return e.cfg
}

func (e *NavEnv) info() map[string]any {
	return map[string]any{
		"distance":      e.state.LastDistance,
		"best_distance": e.state.BestDistance,
		"collisions":    e.state.CollisionCount,
		"colliding":     e.state.Colliding,
		"steps":         e.state.Steps,
		"reason":        e.state.Reason.String(),
		"pose":          e.pose,
	}
}
