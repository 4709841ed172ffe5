package env

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObservationBuffer(t *testing.T) {
	t.Run("starts empty", func(t *testing.T) {
		buf := NewObservationBuffer()
		scan, gen := buf.Current()
		assert.Nil(t, scan)
		assert.Equal(t, uint64(0), gen)
	})

	t.Run("publish advances generation", func(t *testing.T) {
		buf := NewObservationBuffer()
		marker := buf.Generation()

		buf.Publish(&Scan{Ranges: []float64{1, 2, 3}})
		require.True(t, buf.ChangedSince(marker))

		scan, gen := buf.Current()
		require.NotNil(t, scan)
		assert.Equal(t, []float64{1, 2, 3}, scan.Ranges)
		assert.False(t, buf.ChangedSince(gen))
	})

	t.Run("numerically identical samples still count as new", func(t *testing.T) {
		buf := NewObservationBuffer()
		buf.Publish(&Scan{Ranges: []float64{0.5, 0.5}})
		marker := buf.Generation()

		// Same values, different instance: a fresh sample arrived.
		buf.Publish(&Scan{Ranges: []float64{0.5, 0.5}})
		assert.True(t, buf.ChangedSince(marker))
	})
}
