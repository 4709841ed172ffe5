package env

import (
	"fmt"
	"time"
)

// Profile selects one of the two supported calibration/actuation variants.
// The two are never merged: a config carries exactly one profile, and the
// profile fixes the collision threshold and the admissible action space.
type Profile string

const (
	// ProfileCompact uses the tighter 0.2 collision threshold and admits
	// only discrete actions.
	ProfileCompact Profile = "compact"
	// ProfileExtended uses the 0.5 collision threshold and admits both
	// discrete and continuous actions.
	ProfileExtended Profile = "extended"
)

// ShapingConfig holds the reward-shaping weights and penalties.
type ShapingConfig struct {
	Alpha               float64 `json:"alpha"`                // weight on positive progress
	Beta                float64 `json:"beta"`                 // weight on regress (applied to a negative delta)
	CollisionPenalty    float64 `json:"collision_penalty"`    // subtracted on every colliding step
	StepCost            float64 `json:"step_cost"`            // subtracted unconditionally, every step
	StationaryThreshold float64 `json:"stationary_threshold"` // movement below this counts as stationary
	MaxStationarySteps  int     `json:"max_stationary_steps"` // stationary steps tolerated before penalty
	StationaryPenalty   float64 `json:"stationary_penalty"`   // subtracted once the cap is exceeded
}

// TerminationConfig holds the episode state machine's thresholds.
type TerminationConfig struct {
	GoalThreshold              float64 `json:"goal_threshold"`                // distance at which the goal counts as reached
	MaxStepsWithoutImprovement int     `json:"max_steps_without_improvement"` // stagnation cap
	CollisionLimit             int     `json:"collision_limit"`               // rising-edge collisions tolerated
	CollisionThreshold         float64 `json:"collision_threshold"`           // min scan range that declares a collision
}

// Bounds clamp continuous velocity commands.
type Bounds struct {
	Linear  float64 `json:"linear"`  // |linear| bound
	Angular float64 `json:"angular"` // |angular| bound
}

// Config is the full episode-manager configuration.
type Config struct {
	Profile    Profile `json:"profile"`
	Start      Point   `json:"start"`
	Goal       Point   `json:"goal"`
	DesiredYaw float64 `json:"desired_yaw"`
	FrameID    string  `json:"frame_id"`

	// ObservationDeadline bounds every wait for a fresh scan (reset and
	// step). WorldResetDeadline bounds the synchronous world-reset request.
	// PollQuantum is the bridge's per-iteration pump timeslice.
	ObservationDeadline time.Duration `json:"-"`
	WorldResetDeadline  time.Duration `json:"-"`
	PollQuantum         time.Duration `json:"-"`

	Bounds      Bounds            `json:"bounds"`
	Shaping     ShapingConfig     `json:"shaping"`
	Termination TerminationConfig `json:"termination"`
}

// DefaultConfig returns the canonical configuration for a profile.
func DefaultConfig(profile Profile) Config {
	cfg := Config{
		Profile:             profile,
		Start:               Point{X: 0, Y: 0},
		Goal:                Point{X: 10, Y: 10},
		DesiredYaw:          0,
		FrameID:             "base_link",
		ObservationDeadline: 5 * time.Second,
		WorldResetDeadline:  time.Second,
		PollQuantum:         100 * time.Millisecond,
		Bounds:              Bounds{Linear: 3.0, Angular: 1.5},
		Shaping: ShapingConfig{
			Alpha:               5.0,
			Beta:                2.0,
			CollisionPenalty:    10.0,
			StepCost:            0.05,
			StationaryThreshold: 0.01,
			MaxStationarySteps:  10,
			StationaryPenalty:   1.0,
		},
		Termination: TerminationConfig{
			GoalThreshold:              0.5,
			MaxStepsWithoutImprovement: 50,
			CollisionLimit:             10,
		},
	}

	switch profile {
	case ProfileCompact:
		cfg.Termination.CollisionThreshold = 0.2
	default:
		cfg.Termination.CollisionThreshold = 0.5
	}
	return cfg
}

// Validate checks the configuration for values the core cannot run with.
func (c Config) Validate() error {
	if c.Profile != ProfileCompact && c.Profile != ProfileExtended {
		return fmt.Errorf("unknown profile %q", c.Profile)
	}
	if c.ObservationDeadline <= 0 {
		return fmt.Errorf("observation deadline must be positive, got %v", c.ObservationDeadline)
	}
	if c.PollQuantum <= 0 {
		return fmt.Errorf("poll quantum must be positive, got %v", c.PollQuantum)
	}
	if c.Shaping.Alpha <= 0 || c.Shaping.Beta <= 0 {
		return fmt.Errorf("shaping weights must be positive, got alpha=%v beta=%v", c.Shaping.Alpha, c.Shaping.Beta)
	}
	if c.Termination.GoalThreshold <= 0 {
		return fmt.Errorf("goal threshold must be positive, got %v", c.Termination.GoalThreshold)
	}
	if c.Termination.CollisionThreshold <= 0 {
		return fmt.Errorf("collision threshold must be positive, got %v", c.Termination.CollisionThreshold)
	}
	return nil
}

// AllowsContinuous reports whether the profile admits continuous actions.
func (p Profile) AllowsContinuous() bool {
	return p == ProfileExtended
}
