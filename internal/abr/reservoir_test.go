package abr

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReservoirBounds_Validate(t *testing.T) {
	require.NoError(t, DefaultReservoir().Validate())

	bad := []ReservoirBounds{
		{Low: 20, High: 54, MinLow: 36, MaxLow: 35},
		{Low: 1, High: 54, MinLow: 2, MaxLow: 35},
		{Low: 40, High: 54, MinLow: 2, MaxLow: 35},
		{Low: 20, High: 30, MinLow: 2, MaxLow: 35},
		{Low: 20, High: 54, MinLow: -1, MaxLow: 35},
		{Low: math.NaN(), High: 54, MinLow: 2, MaxLow: 35},
	}
	for _, b := range bad {
		err := b.Validate()
		require.ErrorIs(t, err, ErrInvalidReservoir, "%+v", b)
	}
}

func TestReservoirController_Update(t *testing.T) {
	c, err := NewReservoirController(exampleBounds)
	require.NoError(t, err)

	b, ok := c.Update(30, 1_200_000, 1_000_000)
	require.True(t, ok)
	require.InDelta(t, 12, b.Low, 1e-9)
	require.Equal(t, exampleBounds.High, b.High)
	require.Equal(t, b, c.Bounds())
}

func TestReservoirController_clamps(t *testing.T) {
	c, err := NewReservoirController(exampleBounds)
	require.NoError(t, err)

	// capacity well above segment size: target is negative
	b, ok := c.Update(30, 1_000_000, 10_000_000)
	require.True(t, ok)
	require.Equal(t, exampleBounds.MinLow, b.Low)

	// capacity far below segment size: target is huge
	b, ok = c.Update(30, 4_300_000, 100_000)
	require.True(t, ok)
	require.Equal(t, exampleBounds.MaxLow, b.Low)
}

func TestReservoirController_skipsInvalidCapacity(t *testing.T) {
	c, err := NewReservoirController(exampleBounds)
	require.NoError(t, err)

	for _, capacity := range []float64{0, -5, math.NaN(), math.Inf(1)} {
		b, ok := c.Update(30, 1_200_000, capacity)
		require.False(t, ok)
		require.Equal(t, exampleBounds, b)
	}
}

func TestReservoirController_invariantNearZeroCapacity(t *testing.T) {
	c, err := NewReservoirController(exampleBounds)
	require.NoError(t, err)

	for _, capacity := range []float64{math.SmallestNonzeroFloat64, 1e-300, 1e-9, 1, 1e3, 1e12} {
		for _, buffer := range []float64{0, 0.5, 30, 1e6} {
			b, _ := c.Update(buffer, 4_300_000, capacity)
			require.GreaterOrEqual(t, b.Low, b.MinLow)
			require.LessOrEqual(t, b.Low, b.MaxLow)
			require.Less(t, b.Low, b.High)
		}
	}
}
