package env

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func testTermination() TerminationConfig {
	return TerminationConfig{
		GoalThreshold:              0.5,
		MaxStepsWithoutImprovement: 50,
		CollisionLimit:             10,
		CollisionThreshold:         0.5,
	}
}

func TestIsColliding(t *testing.T) {
	assert.False(t, isColliding(nil, 0.5))
	assert.False(t, isColliding(&Scan{}, 0.5))
	assert.False(t, isColliding(&Scan{Ranges: []float64{2, 3, 0.6}}, 0.5))
	assert.True(t, isColliding(&Scan{Ranges: []float64{2, 3, 0.4}}, 0.5))
}

func TestCollisionCountsRisingEdgesOnly(t *testing.T) {
	st := newEpisodeState(10)

	// Three colliding steps, one clear, then contact again: two edges.
	sequence := []bool{true, true, true, false, true}
	for _, colliding := range sequence {
		st = markCollision(st, colliding)
	}
	assert.Equal(t, 2, st.CollisionCount)
	assert.True(t, st.Colliding)

	// Staying in contact adds nothing.
	st = markCollision(st, true)
	assert.Equal(t, 2, st.CollisionCount)

	// Clear steps add nothing either.
	st = markCollision(st, false)
	st = markCollision(st, false)
	assert.Equal(t, 2, st.CollisionCount)
}

func TestEvaluateTermination(t *testing.T) {
	cfg := testTermination()

	t.Run("running by default", func(t *testing.T) {
		st := evaluateTermination(cfg, newEpisodeState(10), 8)
		assert.False(t, st.Done)
		assert.Equal(t, ReasonNone, st.Reason)
	})

	t.Run("goal reached", func(t *testing.T) {
		st := evaluateTermination(cfg, newEpisodeState(10), 0.49)
		assert.True(t, st.Done)
		assert.Equal(t, ReasonGoalReached, st.Reason)
	})

	t.Run("goal threshold is exclusive", func(t *testing.T) {
		st := evaluateTermination(cfg, newEpisodeState(10), 0.5)
		assert.False(t, st.Done)
	})

	t.Run("stagnation", func(t *testing.T) {
		st := newEpisodeState(10)
		st.StepsSinceImprovement = cfg.MaxStepsWithoutImprovement + 1
		st = evaluateTermination(cfg, st, 8)
		assert.True(t, st.Done)
		assert.Equal(t, ReasonStagnation, st.Reason)
	})

	t.Run("too many collisions", func(t *testing.T) {
		st := newEpisodeState(10)
		st.CollisionCount = cfg.CollisionLimit + 1
		st = evaluateTermination(cfg, st, 8)
		assert.True(t, st.Done)
		assert.Equal(t, ReasonTooManyCollisions, st.Reason)
	})

	t.Run("goal outranks collision limit", func(t *testing.T) {
		st := newEpisodeState(10)
		st.CollisionCount = cfg.CollisionLimit + 5
		st = evaluateTermination(cfg, st, 0.3)
		assert.True(t, st.Done)
		assert.Equal(t, ReasonGoalReached, st.Reason)
	})

	t.Run("goal outranks stagnation", func(t *testing.T) {
		st := newEpisodeState(10)
		st.StepsSinceImprovement = cfg.MaxStepsWithoutImprovement + 5
		st = evaluateTermination(cfg, st, 0.3)
		assert.Equal(t, ReasonGoalReached, st.Reason)
	})

	t.Run("stagnation outranks collision limit", func(t *testing.T) {
		st := newEpisodeState(10)
		st.StepsSinceImprovement = cfg.MaxStepsWithoutImprovement + 1
		st.CollisionCount = cfg.CollisionLimit + 1
		st = evaluateTermination(cfg, st, 8)
		assert.Equal(t, ReasonStagnation, st.Reason)
	})
}
