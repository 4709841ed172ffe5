package env

import (
	"fmt"
	"time"

	"github.com/navlab/turtlenav/pkg/transport"
)

// Discrete action velocities.
const (
	discreteLinear  = 0.5
	discreteAngular = 0.5
)

// Dispatcher translates agent actions into timestamped velocity commands and
// publishes them on the command topic. Dispatch is fire-and-forget: nothing
// waits for the actuation side to acknowledge.
type Dispatcher struct {
	pub     transport.Publisher
	profile Profile
	bounds  Bounds
	frameID string
}

// NewDispatcher creates a dispatcher publishing on pub.
func NewDispatcher(pub transport.Publisher, profile Profile, bounds Bounds, frameID string) *Dispatcher {
	return &Dispatcher{pub: pub, profile: profile, bounds: bounds, frameID: frameID}
}

// Command translates an action into a velocity command, rejecting actions
// outside the profile's action space.
func (d *Dispatcher) Command(a Action) (VelocityCommand, error) {
	cmd := VelocityCommand{Stamp: time.Now(), FrameID: d.frameID}

	switch a.Kind {
	case ActionDiscrete:
		switch a.Index {
		case ActForward:
			cmd.Linear = discreteLinear
		case ActLeft:
			cmd.Angular = discreteAngular
		case ActRight:
			cmd.Angular = -discreteAngular
		case ActReverse:
			cmd.Linear = -discreteLinear
		default:
			return VelocityCommand{}, fmt.Errorf("%w: discrete index %d", ErrUnsupportedAction, a.Index)
		}
	case ActionContinuous:
		if !d.profile.AllowsContinuous() {
			return VelocityCommand{}, fmt.Errorf("%w: profile %q is discrete-only", ErrUnsupportedAction, d.profile)
		}
		cmd.Linear = clamp(a.Linear, -d.bounds.Linear, d.bounds.Linear)
		cmd.Angular = clamp(a.Angular, -d.bounds.Angular, d.bounds.Angular)
	default:
		return VelocityCommand{}, fmt.Errorf("%w: kind %v", ErrUnsupportedAction, a.Kind)
	}

	return cmd, nil
}

// Stop returns a zero-velocity command.
func (d *Dispatcher) Stop() VelocityCommand {
	return VelocityCommand{Stamp: time.Now(), FrameID: d.frameID}
}

// Dispatch publishes a command. A slow actuation consumer is not an error
// the episode cares about, so delivery failures are swallowed.
func (d *Dispatcher) Dispatch(cmd VelocityCommand) {
	_ = d.pub.Publish(TopicCmdVel, cmd)
}

// clamp keeps value inside [lo, hi].
func clamp(value, lo, hi float64) float64 {
	if value < lo {
		return lo
	}
	if value > hi {
		return hi
	}
	return value
}
