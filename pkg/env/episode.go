package env

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// TerminationReason says why an episode ended.
type TerminationReason int

const (
	ReasonNone TerminationReason = iota
	ReasonGoalReached
	ReasonStagnation
	ReasonTooManyCollisions
)

func (r TerminationReason) String() string {
	switch r {
	case ReasonNone:
		return "none"
	case ReasonGoalReached:
		return "goal_reached"
	case ReasonStagnation:
		return "stagnation"
	case ReasonTooManyCollisions:
		return "too_many_collisions"
	default:
		return fmt.Sprintf("TerminationReason(%d)", int(r))
	}
}

// EpisodeState is the single mutable aggregate for one episode: shaping
// counters, collision bookkeeping, and the termination latch. It is created
// whole at reset, mutated once per step, and replaced wholesale at the next
// reset, so "what resets on reset" is auditable in one place.
type EpisodeState struct {
	LastDistance          float64
	BestDistance          float64
	StepsSinceImprovement int
	StationarySteps       int
	Colliding             bool
	CollisionCount        int
	Steps                 int
	Done                  bool
	Reason                TerminationReason
}

// newEpisodeState initializes counters for a fresh episode. Best distance
// starts at the start-to-goal distance.
func newEpisodeState(startToGoal float64) EpisodeState {
	return EpisodeState{
		LastDistance: startToGoal,
		BestDistance: startToGoal,
	}
}

// isColliding reports whether the scan's minimum reading is under the
// collision threshold.
func isColliding(scan *Scan, threshold float64) bool {
	if scan == nil || len(scan.Ranges) == 0 {
		return false
	}
	return floats.Min(scan.Ranges) < threshold
}

// markCollision updates the collision flag and counts rising edges: the
// counter advances only on a not-colliding to colliding transition, never
// during sustained contact.
func markCollision(st EpisodeState, colliding bool) EpisodeState {
	if colliding && !st.Colliding {
		st.CollisionCount++
	}
	st.Colliding = colliding
	return st
}

// evaluateTermination runs the termination rules in priority order:
// goal reached, then stagnation, then collision limit. The first rule that
// fires wins; a step that satisfies several rules terminates with the
// highest-priority reason.
func evaluateTermination(cfg TerminationConfig, st EpisodeState, curDist float64) EpisodeState {
	switch {
	case curDist < cfg.GoalThreshold:
		st.Done = true
		st.Reason = ReasonGoalReached
	case st.StepsSinceImprovement > cfg.MaxStepsWithoutImprovement:
		st.Done = true
		st.Reason = ReasonStagnation
	case st.CollisionCount > cfg.CollisionLimit:
		st.Done = true
		st.Reason = ReasonTooManyCollisions
	}
	return st
}
