package env

import (
	"fmt"
	"math"
	"time"
)

// Topic names for the environment's external feeds and channels.
const (
	TopicCmdVel = "cmd_vel" // outbound velocity commands
	TopicScan   = "scan"    // inbound laser scans
	TopicOdom   = "odom"    // inbound odometry
)

// Point is a position in the plane.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Dist returns the Euclidean distance to another point.
func (p Point) Dist(q Point) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// PoseSample is a raw pose reading from the odometry feed, expressed in the
// sensor's own frame.
type PoseSample struct {
	X     float64
	Y     float64
	Yaw   float64 // radians
	Stamp time.Time
}

// LocalPose is a pose in the episode-local frame, produced by applying a
// CalibrationOffset to a raw sample. Yaw is normalized to (-pi, pi].
type LocalPose struct {
	X   float64
	Y   float64
	Yaw float64
}

// Point returns the pose's position.
func (p LocalPose) Point() Point {
	return Point{X: p.X, Y: p.Y}
}

// Scan is one fixed-length sweep of range readings, the agent-visible
// observation. Readings are bounded by the sensor's max range.
type Scan struct {
	Ranges   []float64
	MaxRange float64
	Stamp    time.Time
}

// Clone returns a deep copy of the scan.
func (s *Scan) Clone() *Scan {
	if s == nil {
		return nil
	}
	out := &Scan{MaxRange: s.MaxRange, Stamp: s.Stamp}
	out.Ranges = make([]float64, len(s.Ranges))
	copy(out.Ranges, s.Ranges)
	return out
}

// VelocityCommand is one actuation message published on the command topic.
// Commands are constructed fresh per step and never reused.
type VelocityCommand struct {
	Linear  float64
	Angular float64
	Stamp   time.Time
	FrameID string
}

// ActionKind selects between the discrete and continuous action spaces.
type ActionKind int

const (
	ActionDiscrete ActionKind = iota
	ActionContinuous
)

func (k ActionKind) String() string {
	switch k {
	case ActionDiscrete:
		return "discrete"
	case ActionContinuous:
		return "continuous"
	default:
		return fmt.Sprintf("ActionKind(%d)", int(k))
	}
}

// Discrete action indices.
const (
	ActForward = 0
	ActLeft    = 1
	ActRight   = 2
	ActReverse = 3
)

// Action is an agent decision: either a discrete index or a continuous
// (linear, angular) pair.
type Action struct {
	Kind    ActionKind
	Index   int     // discrete index, used when Kind == ActionDiscrete
	Linear  float64 // used when Kind == ActionContinuous
	Angular float64 // used when Kind == ActionContinuous
}

// Discrete wraps a discrete action index.
func Discrete(index int) Action {
	return Action{Kind: ActionDiscrete, Index: index}
}

// Continuous wraps a continuous (linear, angular) velocity pair.
func Continuous(linear, angular float64) Action {
	return Action{Kind: ActionContinuous, Linear: linear, Angular: angular}
}
