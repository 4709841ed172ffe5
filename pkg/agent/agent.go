// Package agent provides baseline policies for driving the navigation
// environment. The trained RL policy is an external consumer of the episode
// API; these exist so the runner and CLI have something to evaluate with.
package agent

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"

	"github.com/navlab/turtlenav/pkg/env"
)

// Agent picks the next action from the latest observation and pose.
type Agent interface {
	Act(scan *env.Scan, pose env.LocalPose, goal env.Point) env.Action
}

// Random samples uniformly over the discrete action space.
type Random struct {
	rng *rand.Rand
}

// NewRandom creates a random agent with its own seeded source.
func NewRandom(seed int64) *Random {
	return &Random{rng: rand.New(rand.NewSource(seed))}
}

func (a *Random) Act(*env.Scan, env.LocalPose, env.Point) env.Action {
	return env.Discrete(a.rng.Intn(4))
}

// Greedy turns toward the goal and drives forward, rotating away when an
// obstacle gets close.
type Greedy struct {
	ClearanceMin float64 // min scan range below which the agent turns instead of driving
	BearingTol   float64 // heading error tolerated before correcting, radians
}

// NewGreedy returns a greedy agent with workable defaults.
func NewGreedy() *Greedy {
	return &Greedy{ClearanceMin: 0.7, BearingTol: 0.3}
}

func (a *Greedy) Act(scan *env.Scan, pose env.LocalPose, goal env.Point) env.Action {
	if scan != nil && len(scan.Ranges) > 0 && floats.Min(scan.Ranges) < a.ClearanceMin {
		return env.Discrete(env.ActRight)
	}

	bearing := env.NormalizeYaw(math.Atan2(goal.Y-pose.Y, goal.X-pose.X) - pose.Yaw)
	switch {
	case bearing > a.BearingTol:
		return env.Discrete(env.ActLeft)
	case bearing < -a.BearingTol:
		return env.Discrete(env.ActRight)
	default:
		return env.Discrete(env.ActForward)
	}
}
