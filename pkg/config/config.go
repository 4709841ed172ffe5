// Package config loads the run configuration from JSON. Fields omitted from
// the file keep their defaults, so partial configs are safe.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/navlab/turtlenav/pkg/env"
	"github.com/navlab/turtlenav/pkg/sim"
)

// AppConfig aggregates all configuration sections for a run.
type AppConfig struct {
	Profile             string     `json:"profile"`
	Start               env.Point  `json:"start"`
	Goal                env.Point  `json:"goal"`
	DesiredYaw          float64    `json:"desired_yaw"`
	ObservationDeadline string     `json:"observation_deadline"` // duration string like "5s"
	Episodes            int        `json:"episodes"`
	MaxSteps            int        `json:"max_steps"`
	Agent               string     `json:"agent"` // "greedy" or "random"
	Seed                int64      `json:"seed"`
	StorePath           string     `json:"store_path"` // empty disables persistence
	Sim                 sim.Config `json:"sim"`
}

// Default returns the canonical run configuration.
func Default() AppConfig {
	return AppConfig{
		Profile:             string(env.ProfileExtended),
		Start:               env.Point{X: 0, Y: 0},
		Goal:                env.Point{X: 10, Y: 10},
		ObservationDeadline: "5s",
		Episodes:            5,
		MaxSteps:            500,
		Agent:               "greedy",
		Sim:                 sim.DefaultConfig(),
	}
}

// Load reads a JSON config from disk, overlaying it on the defaults.
func Load(path string) (AppConfig, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// EnvConfig builds the episode-manager configuration from the run config.
func (c AppConfig) EnvConfig() (env.Config, error) {
	profile := env.Profile(c.Profile)
	ec := env.DefaultConfig(profile)
	ec.Start = c.Start
	ec.Goal = c.Goal
	ec.DesiredYaw = c.DesiredYaw

	if c.ObservationDeadline != "" {
		d, err := time.ParseDuration(c.ObservationDeadline)
		if err != nil {
			return env.Config{}, fmt.Errorf("observation_deadline: %w", err)
		}
		ec.ObservationDeadline = d
	}

	if err := ec.Validate(); err != nil {
		return env.Config{}, err
	}
	return ec, nil
}
