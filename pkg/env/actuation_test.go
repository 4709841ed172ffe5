package env

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	topics   []string
	payloads []any
}

func (p *recordingPublisher) Publish(topic string, payload any) error {
	p.topics = append(p.topics, topic)
	p.payloads = append(p.payloads, payload)
	return nil
}

func TestDispatcherDiscrete(t *testing.T) {
	d := NewDispatcher(&recordingPublisher{}, ProfileCompact, Bounds{Linear: 3, Angular: 1.5}, "base_link")

	cases := []struct {
		name    string
		index   int
		linear  float64
		angular float64
	}{
		{"forward", ActForward, 0.5, 0},
		{"left", ActLeft, 0, 0.5},
		{"right", ActRight, 0, -0.5},
		{"reverse", ActReverse, -0.5, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cmd, err := d.Command(Discrete(tc.index))
			require.NoError(t, err)
			assert.Equal(t, tc.linear, cmd.Linear)
			assert.Equal(t, tc.angular, cmd.Angular)
			assert.Equal(t, "base_link", cmd.FrameID)
			assert.False(t, cmd.Stamp.IsZero())
		})
	}

	t.Run("out of range index", func(t *testing.T) {
		_, err := d.Command(Discrete(4))
		assert.ErrorIs(t, err, ErrUnsupportedAction)
		_, err = d.Command(Discrete(-1))
		assert.ErrorIs(t, err, ErrUnsupportedAction)
	})
}

func TestDispatcherContinuous(t *testing.T) {
	bounds := Bounds{Linear: 3.0, Angular: 1.5}

	t.Run("copied and clamped", func(t *testing.T) {
		d := NewDispatcher(&recordingPublisher{}, ProfileExtended, bounds, "base_link")

		cmd, err := d.Command(Continuous(1.2, -0.4))
		require.NoError(t, err)
		assert.Equal(t, 1.2, cmd.Linear)
		assert.Equal(t, -0.4, cmd.Angular)

		cmd, err = d.Command(Continuous(99, -99))
		require.NoError(t, err)
		assert.Equal(t, 3.0, cmd.Linear)
		assert.Equal(t, -1.5, cmd.Angular)
	})

	t.Run("rejected on a discrete-only profile", func(t *testing.T) {
		d := NewDispatcher(&recordingPublisher{}, ProfileCompact, bounds, "base_link")
		_, err := d.Command(Continuous(1, 0))
		assert.ErrorIs(t, err, ErrUnsupportedAction)
	})
}

func TestDispatcherStopAndDispatch(t *testing.T) {
	pub := &recordingPublisher{}
	d := NewDispatcher(pub, ProfileCompact, Bounds{Linear: 3, Angular: 1.5}, "base_link")

	stop := d.Stop()
	assert.Zero(t, stop.Linear)
	assert.Zero(t, stop.Angular)

	d.Dispatch(stop)
	require.Len(t, pub.topics, 1)
	assert.Equal(t, TopicCmdVel, pub.topics[0])

	got, ok := pub.payloads[0].(VelocityCommand)
	require.True(t, ok)
	assert.Zero(t, got.Linear)
}
