package env

import "math"

// CalibrationOffset maps raw odometry poses into the episode-local frame.
// It is computed exactly once per episode, from the first raw pose sample
// received after a reset, and is immutable until the next reset.
type CalibrationOffset struct {
	DX   float64 // raw minus local, x
	DY   float64 // raw minus local, y
	DYaw float64 // local minus raw, radians
}

// Calibrate anchors the episode-local frame so that the given raw sample
// maps exactly onto the configured start position and desired heading.
func Calibrate(raw PoseSample, start Point, desiredYaw float64) CalibrationOffset {
	return CalibrationOffset{
		DX:   raw.X - start.X,
		DY:   raw.Y - start.Y,
		DYaw: desiredYaw - raw.Yaw,
	}
}

// Apply converts a raw pose sample into the episode-local frame.
func (o CalibrationOffset) Apply(raw PoseSample) LocalPose {
	return LocalPose{
		X:   raw.X - o.DX,
		Y:   raw.Y - o.DY,
		Yaw: NormalizeYaw(raw.Yaw + o.DYaw),
	}
}

// NormalizeYaw wraps an angle into (-pi, pi]. Normalization is idempotent.
func NormalizeYaw(yaw float64) float64 {
	m := math.Mod(math.Pi-yaw, 2*math.Pi)
	if m < 0 {
		m += 2 * math.Pi
	}
	return math.Pi - m
}
