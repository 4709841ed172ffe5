// Package sim is a differential-drive world simulator standing in for the
// real robot stack: it integrates commanded velocities, synthesizes laser
// scans against a simple obstacle map, publishes odometry and scans on the
// broker at its own cadence, and serves the world-reset request.
package sim

import (
	"context"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/navlab/turtlenav/pkg/env"
	"github.com/navlab/turtlenav/pkg/transport"
)

// Obstacle is a circular obstruction.
type Obstacle struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	R float64 `json:"r"`
}

// Rect bounds the arena; walls return ray hits like any obstacle.
type Rect struct {
	MinX float64 `json:"min_x"`
	MinY float64 `json:"min_y"`
	MaxX float64 `json:"max_x"`
	MaxY float64 `json:"max_y"`
}

// Config tunes the simulated world.
type Config struct {
	Tick      time.Duration `json:"-"`
	MaxRange  float64       `json:"max_range"`
	NumRays   int           `json:"num_rays"`
	NoiseStd  float64       `json:"noise_std"`
	Bounds    Rect          `json:"bounds"`
	Obstacles []Obstacle    `json:"obstacles"`
	Seed      int64         `json:"seed"`
}

// DefaultConfig returns an open 24x24 arena with a few scattered obstacles.
func DefaultConfig() Config {
	return Config{
		Tick:     50 * time.Millisecond,
		MaxRange: 10.0,
		NumRays:  64,
		NoiseStd: 0,
		Bounds:   Rect{MinX: -12, MinY: -12, MaxX: 12, MaxY: 12},
		Obstacles: []Obstacle{
			{X: 4, Y: 6, R: 0.8},
			{X: 7, Y: 3, R: 0.6},
			{X: -3, Y: 5, R: 1.0},
		},
	}
}

// World is the simulated robot and arena. It subscribes to the command
// topic through its own session and publishes odometry and scans each tick.
type World struct {
	cfg     Config
	session *transport.Session

	mu      sync.Mutex
	x, y    float64
	yaw     float64
	linear  float64
	angular float64
	rng     *rand.Rand
}

// New wires a world onto the broker.
func New(broker transport.Broker, cfg Config) (*World, error) {
	w := &World{
		cfg:     cfg,
		session: transport.NewSession(broker),
		rng:     rand.New(rand.NewSource(cfg.Seed)),
	}
	if err := w.session.Subscribe(env.TopicCmdVel, w.onCommand); err != nil {
		w.session.Close()
		return nil, err
	}
	return w, nil
}

func (w *World) onCommand(msg transport.Message) {
	cmd, ok := msg.Payload.(env.VelocityCommand)
	if !ok {
		return
	}
	w.mu.Lock()
	w.linear = cmd.Linear
	w.angular = cmd.Angular
	w.mu.Unlock()
}

// Run ticks the world until the context is cancelled.
func (w *World) Run(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.Tick)
	defer ticker.Stop()
	defer w.session.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.session.Pump(0)
			w.Tick(w.cfg.Tick.Seconds())
		}
	}
}

// Tick integrates one timestep and publishes odometry and a scan. Exposed
// so tests can drive the world deterministically without the ticker.
func (w *World) Tick(dt float64) {
	w.mu.Lock()
	w.x += w.linear * math.Cos(w.yaw) * dt
	w.y += w.linear * math.Sin(w.yaw) * dt
	w.yaw = env.NormalizeYaw(w.yaw + w.angular*dt)
	x, y, yaw := w.x, w.y, w.yaw
	w.mu.Unlock()

	now := time.Now()
	w.session.Publish(env.TopicOdom, env.PoseSample{X: x, Y: y, Yaw: yaw, Stamp: now})
	w.session.Publish(env.TopicScan, &env.Scan{
		Ranges:   w.scan(x, y, yaw),
		MaxRange: w.cfg.MaxRange,
		Stamp:    now,
	})
}

// ResetPose implements env.WorldResetter: teleport the robot and stop it.
func (w *World) ResetPose(ctx context.Context, target env.Point, yaw float64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	w.mu.Lock()
	w.x = target.X
	w.y = target.Y
	w.yaw = yaw
	w.linear = 0
	w.angular = 0
	w.mu.Unlock()
	return nil
}

// Pose returns the robot's true pose, for tests and logging.
func (w *World) Pose() (x, y, yaw float64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.x, w.y, w.yaw
}

// scan casts NumRays rays evenly over the full circle, robot-relative.
func (w *World) scan(x, y, yaw float64) []float64 {
	ranges := make([]float64, w.cfg.NumRays)
	for i := range ranges {
		angle := yaw + 2*math.Pi*float64(i)/float64(w.cfg.NumRays)
		r := w.cast(x, y, angle)
		if w.cfg.NoiseStd > 0 {
			w.mu.Lock()
			r += w.rng.NormFloat64() * w.cfg.NoiseStd
			w.mu.Unlock()
		}
		if r < 0 {
			r = 0
		}
		if r > w.cfg.MaxRange {
			r = w.cfg.MaxRange
		}
		ranges[i] = r
	}
	return ranges
}

// cast returns the distance to the nearest hit along one ray.
func (w *World) cast(x, y, angle float64) float64 {
	dx, dy := math.Cos(angle), math.Sin(angle)
	best := w.cfg.MaxRange

	for _, ob := range w.cfg.Obstacles {
		if t, ok := rayCircle(x, y, dx, dy, ob); ok && t < best {
			best = t
		}
	}
	if t, ok := rayRect(x, y, dx, dy, w.cfg.Bounds); ok && t < best {
		best = t
	}
	return best
}

// rayCircle intersects a ray with a circle, returning the nearest positive
// hit distance.
func rayCircle(ox, oy, dx, dy float64, ob Obstacle) (float64, bool) {
	lx, ly := ob.X-ox, ob.Y-oy
	tca := lx*dx + ly*dy
	if tca < 0 {
		return 0, false
	}
	d2 := lx*lx + ly*ly - tca*tca
	r2 := ob.R * ob.R
	if d2 > r2 {
		return 0, false
	}
	t := tca - math.Sqrt(r2-d2)
	if t < 0 {
		// Origin inside the obstacle: contact.
		return 0, true
	}
	return t, true
}

// rayRect intersects a ray with the arena walls from the inside.
func rayRect(ox, oy, dx, dy float64, b Rect) (float64, bool) {
	best := math.Inf(1)

	if dx > 0 {
		if t := (b.MaxX - ox) / dx; t > 0 && inRange(oy+t*dy, b.MinY, b.MaxY) && t < best {
			best = t
		}
	} else if dx < 0 {
		if t := (b.MinX - ox) / dx; t > 0 && inRange(oy+t*dy, b.MinY, b.MaxY) && t < best {
			best = t
		}
	}
	if dy > 0 {
		if t := (b.MaxY - oy) / dy; t > 0 && inRange(ox+t*dx, b.MinX, b.MaxX) && t < best {
			best = t
		}
	} else if dy < 0 {
		if t := (b.MinY - oy) / dy; t > 0 && inRange(ox+t*dx, b.MinX, b.MaxX) && t < best {
			best = t
		}
	}

	if math.IsInf(best, 1) {
		return 0, false
	}
	return best, true
}

func inRange(v, lo, hi float64) bool {
	return v >= lo && v <= hi
}
