package abr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func testReps() []Representation {
	return []Representation{
		{ID: "300k", Bitrate: 300_000},
		{ID: "750k", Bitrate: 750_000},
		{ID: "1200k", Bitrate: 1_200_000},
		{ID: "1850k", Bitrate: 1_850_000},
		{ID: "2850k", Bitrate: 2_850_000},
		{ID: "4300k", Bitrate: 4_300_000},
	}
}

func TestNewQualityLadder(t *testing.T) {
	l, err := NewQualityLadder(testReps())
	require.NoError(t, err)
	require.Equal(t, 6, l.Len())
	require.Equal(t, 5, l.MaxIndex())
	require.Equal(t, int64(1_200_000), l.At(2).Bitrate)
	require.Equal(t, int64(4_300_000), l.At(99).Bitrate)
	require.Equal(t, int64(300_000), l.At(-1).Bitrate)
	require.True(t, l.Contains(0))
	require.False(t, l.Contains(6))
}

func TestNewQualityLadder_immutable(t *testing.T) {
	reps := testReps()
	l, err := NewQualityLadder(reps)
	require.NoError(t, err)

	reps[0].Bitrate = 1
	require.Equal(t, int64(300_000), l.At(0).Bitrate)

	out := l.Representations()
	out[1].Bitrate = 1
	require.Equal(t, int64(750_000), l.At(1).Bitrate)
}

func TestNewQualityLadder_errors(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		_, err := NewQualityLadder(nil)
		require.True(t, errors.Is(err, ErrEmptyLadder))
		require.True(t, IsConfigError(err))
	})

	t.Run("unsorted", func(t *testing.T) {
		_, err := NewQualityLadder([]Representation{{Bitrate: 500}, {Bitrate: 400}})
		require.ErrorIs(t, err, ErrUnsortedLadder)
	})

	t.Run("duplicate_bitrate", func(t *testing.T) {
		_, err := NewQualityLadder([]Representation{{Bitrate: 500}, {Bitrate: 500}})
		require.ErrorIs(t, err, ErrUnsortedLadder)
	})

	t.Run("non_positive", func(t *testing.T) {
		_, err := NewQualityLadder([]Representation{{Bitrate: 0}})
		require.ErrorIs(t, err, ErrUnsortedLadder)
	})

	t.Run("single", func(t *testing.T) {
		l, err := NewQualityLadder([]Representation{{Bitrate: 500}})
		require.NoError(t, err)
		require.Equal(t, 0, l.MaxIndex())
	})
}
