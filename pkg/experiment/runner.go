// Package experiment runs evaluation episodes of an agent against the
// navigation environment and records the results.
package experiment

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/navlab/turtlenav/pkg/agent"
	"github.com/navlab/turtlenav/pkg/env"
	"github.com/navlab/turtlenav/pkg/store"
)

// Environment is the episode API the runner drives. *env.NavEnv satisfies it.
type Environment interface {
	Reset(ctx context.Context) (*env.Scan, map[string]any, error)
	Step(ctx context.Context, action env.Action) (env.StepResult, error)
	Pose() (env.LocalPose, bool)
	Goal() env.Point
	State() env.EpisodeState
	Config() env.Config
}

// EpisodeSummary is the outcome of one episode.
type EpisodeSummary struct {
	ID          string
	Steps       int
	TotalReward float64
	Reason      string
	Terminated  bool
}

// Summary aggregates a full run.
type Summary struct {
	Episodes    []EpisodeSummary
	TotalReward float64
}

// Runner drives episodes of agent-vs-environment.
type Runner struct {
	environment  Environment
	policy       agent.Agent
	episodes     int
	maxSteps     int
	trajectories *store.Store
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithEpisodes sets how many episodes to run.
func WithEpisodes(n int) RunnerOption {
	return func(r *Runner) { r.episodes = n }
}

// WithMaxSteps caps episode length. The environment itself never truncates;
// cutting a run short is the runner's decision.
func WithMaxSteps(n int) RunnerOption {
	return func(r *Runner) { r.maxSteps = n }
}

// WithStore persists every episode's trajectory.
func WithStore(s *store.Store) RunnerOption {
	return func(r *Runner) { r.trajectories = s }
}

// NewRunner creates a runner with defaults of 5 episodes and 500 steps.
func NewRunner(environment Environment, policy agent.Agent, opts ...RunnerOption) *Runner {
	r := &Runner{
		environment: environment,
		policy:      policy,
		episodes:    5,
		maxSteps:    500,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes the configured number of episodes.
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	var summary Summary

	for i := 0; i < r.episodes; i++ {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		ep, err := r.runEpisode(ctx, i)
		if err != nil {
			return summary, fmt.Errorf("episode %d: %w", i+1, err)
		}
		summary.Episodes = append(summary.Episodes, ep)
		summary.TotalReward += ep.TotalReward

		log.Printf("Episode %d/%d (%s): steps=%d reward=%.2f reason=%s",
			i+1, r.episodes, ep.ID, ep.Steps, ep.TotalReward, ep.Reason)
	}

	return summary, nil
}

func (r *Runner) runEpisode(ctx context.Context, index int) (EpisodeSummary, error) {
	id := uuid.New().String()

	obs, _, err := r.environment.Reset(ctx)
	if err != nil {
		return EpisodeSummary{}, fmt.Errorf("reset: %w", err)
	}

	var (
		records []store.StepRecord
		total   float64
	)
	terminated := false

	for step := 0; step < r.maxSteps; step++ {
		pose, _ := r.environment.Pose()
		action := r.policy.Act(obs, pose, r.environment.Goal())

		res, err := r.environment.Step(ctx, action)
		if err != nil {
			return EpisodeSummary{}, fmt.Errorf("step %d: %w", step, err)
		}

		total += res.Reward
		obs = res.Obs
		records = append(records, stepRecord(step, action, res))

		if res.Terminated {
			terminated = true
			break
		}
	}

	st := r.environment.State()
	ep := EpisodeSummary{
		ID:          id,
		Steps:       st.Steps,
		TotalReward: total,
		Reason:      st.Reason.String(),
		Terminated:  terminated,
	}

	if r.trajectories != nil {
		cfg := r.environment.Config()
		rec := store.EpisodeRecord{
			ID:          id,
			Profile:     string(cfg.Profile),
			StartX:      cfg.Start.X,
			StartY:      cfg.Start.Y,
			GoalX:       cfg.Goal.X,
			GoalY:       cfg.Goal.Y,
			Steps:       ep.Steps,
			TotalReward: ep.TotalReward,
			Reason:      ep.Reason,
			Terminated:  ep.Terminated,
			CreatedAt:   time.Now().UTC(),
		}
		if err := r.trajectories.SaveEpisode(rec, records); err != nil {
			log.Printf("Warning: failed to persist episode %s: %v", id, err)
		}
	}

	return ep, nil
}

func stepRecord(seq int, action env.Action, res env.StepResult) store.StepRecord {
	rec := store.StepRecord{
		Seq:        seq,
		Action:     actionString(action),
		Reward:     res.Reward,
		Terminated: res.Terminated,
	}
	if action.Kind == env.ActionContinuous {
		rec.Linear = action.Linear
		rec.Angular = action.Angular
	}
	if d, ok := res.Info["distance"].(float64); ok {
		rec.Distance = d
	}
	if c, ok := res.Info["colliding"].(bool); ok {
		rec.Colliding = c
	}
	return rec
}

func actionString(a env.Action) string {
	if a.Kind == env.ActionContinuous {
		return fmt.Sprintf("continuous:%.3f,%.3f", a.Linear, a.Angular)
	}
	return fmt.Sprintf("discrete:%d", a.Index)
}
