package experiment

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/navlab/turtlenav/pkg/env"
	"github.com/navlab/turtlenav/pkg/store"
)

// scriptedEnv terminates with GoalReached after a fixed number of steps.
type scriptedEnv struct {
	stepsToGoal   int
	rewardPerStep float64
	resetErr      error

	resets int
	state  env.EpisodeState
}

func (s *scriptedEnv) Reset(ctx context.Context) (*env.Scan, map[string]any, error) {
	if s.resetErr != nil {
		return nil, nil, s.resetErr
	}
	s.resets++
	s.state = env.EpisodeState{LastDistance: 10, BestDistance: 10}
	return &env.Scan{Ranges: []float64{5, 5}}, map[string]any{"distance": 10.0}, nil
}

func (s *scriptedEnv) Step(ctx context.Context, action env.Action) (env.StepResult, error) {
	s.state.Steps++
	s.state.LastDistance--
	if s.state.Steps >= s.stepsToGoal {
		s.state.Done = true
		s.state.Reason = env.ReasonGoalReached
	}
	return env.StepResult{
		Obs:        &env.Scan{Ranges: []float64{5, 5}},
		Reward:     s.rewardPerStep,
		Terminated: s.state.Done,
		Info:       map[string]any{"distance": s.state.LastDistance, "colliding": false},
	}, nil
}

func (s *scriptedEnv) Pose() (env.LocalPose, bool) { return env.LocalPose{}, true }
func (s *scriptedEnv) Goal() env.Point             { return env.Point{X: 10, Y: 10} }
func (s *scriptedEnv) State() env.EpisodeState     { return s.state }
func (s *scriptedEnv) Config() env.Config          { return env.DefaultConfig(env.ProfileCompact) }

type constantAgent struct{ action env.Action }

func (a constantAgent) Act(*env.Scan, env.LocalPose, env.Point) env.Action { return a.action }

func TestRunnerRunsEpisodes(t *testing.T) {
	e := &scriptedEnv{stepsToGoal: 4, rewardPerStep: 1.5}
	r := NewRunner(e, constantAgent{env.Discrete(env.ActForward)}, WithEpisodes(3))

	summary, err := r.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, summary.Episodes, 3)
	assert.Equal(t, 3, e.resets)

	for _, ep := range summary.Episodes {
		assert.Equal(t, 4, ep.Steps)
		assert.True(t, ep.Terminated)
		assert.Equal(t, "goal_reached", ep.Reason)
		assert.InDelta(t, 6.0, ep.TotalReward, 1e-9)
	}
	assert.InDelta(t, 18.0, summary.TotalReward, 1e-9)
}

func TestRunnerMaxStepsCutsEpisode(t *testing.T) {
	e := &scriptedEnv{stepsToGoal: 100, rewardPerStep: 0.1}
	r := NewRunner(e, constantAgent{env.Discrete(env.ActForward)}, WithEpisodes(1), WithMaxSteps(10))

	summary, err := r.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, summary.Episodes, 1)
	assert.Equal(t, 10, summary.Episodes[0].Steps)
	assert.False(t, summary.Episodes[0].Terminated)
	assert.Equal(t, "none", summary.Episodes[0].Reason)
}

func TestRunnerPersistsTrajectories(t *testing.T) {
	s, err := store.Open(filepath.Join(t.TempDir(), "run.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	e := &scriptedEnv{stepsToGoal: 2, rewardPerStep: 1}
	r := NewRunner(e, constantAgent{env.Discrete(env.ActForward)}, WithEpisodes(2), WithStore(s))

	summary, err := r.Run(context.Background())
	require.NoError(t, err)

	episodes, err := s.ListEpisodes(10)
	require.NoError(t, err)
	require.Len(t, episodes, 2)
	assert.Equal(t, "goal_reached", episodes[0].Reason)

	steps, err := s.EpisodeSteps(summary.Episodes[0].ID)
	require.NoError(t, err)
	require.Len(t, steps, 2)
	assert.Equal(t, "discrete:0", steps[0].Action)
	assert.InDelta(t, 9.0, steps[0].Distance, 1e-9)
	assert.True(t, steps[1].Terminated)
}

func TestRunnerPropagatesResetFailure(t *testing.T) {
	e := &scriptedEnv{resetErr: errors.New("world down")}
	r := NewRunner(e, constantAgent{env.Discrete(env.ActForward)}, WithEpisodes(1))

	_, err := r.Run(context.Background())
	assert.Error(t, err)
}

func TestRunnerHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e := &scriptedEnv{stepsToGoal: 2}
	r := NewRunner(e, constantAgent{env.Discrete(env.ActForward)})

	_, err := r.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
