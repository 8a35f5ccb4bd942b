package abr

import (
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/require"
)

func newTestSession(t *testing.T, v Variant) (*Session, *Recorder, *clock.Mock) {
	t.Helper()
	cfg, err := ConfigForVariant(v)
	require.NoError(t, err)

	rec := NewRecorder()
	clk := clock.NewMock()
	s, err := NewSession(cfg, WithClock(clk), WithTelemetry(rec))
	require.NoError(t, err)
	require.Equal(t, StateUninitialized, s.State())
	require.NoError(t, s.OnManifest(testReps()))
	require.Equal(t, StateLadderReady, s.State())
	return s, rec, clk
}

func TestNewSession_invalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Reservoir.MaxLow = 60
	_, err := NewSession(cfg)
	require.ErrorIs(t, err, ErrInvalidReservoir)
	require.True(t, IsConfigError(err))
}

func TestSession_OnManifest(t *testing.T) {
	s, err := NewSession(DefaultConfig())
	require.NoError(t, err)

	require.ErrorIs(t, s.OnManifest(nil), ErrEmptyLadder)
	require.Equal(t, StateUninitialized, s.State())

	require.NoError(t, s.OnManifest(testReps()))
	require.ErrorIs(t, s.OnManifest(testReps()), ErrLadderAlreadyBuilt)
	require.Equal(t, 6, s.Ladder().Len())
}

func TestSession_baselineExample(t *testing.T) {
	s, rec, _ := newTestSession(t, VariantBaseline)

	d := s.Decide(10)
	require.Equal(t, 0, d.Index)
	require.Equal(t, "300k", d.Representation.ID)
	s.OnSegmentResult(SegmentOutcome{QualityIndex: 0, Bits: 300_000, Elapsed: 0.5})

	require.Equal(t, 2, s.Decide(37).Index)
	report := s.OnSegmentResult(SegmentOutcome{QualityIndex: 2, Bits: 1_200_000, Elapsed: 1})
	require.True(t, report.SampleAccepted)
	require.Equal(t, 1_200_000.0, report.Throughput)
	require.Zero(t, report.Capacity)
	require.False(t, report.ReservoirUpdated)

	require.Equal(t, 2, s.Decide(38).Index)
	s.OnSegmentResult(SegmentOutcome{QualityIndex: 2, Bits: 1_200_000, Elapsed: 2})

	require.Equal(t, 5, s.Decide(60).Index)
	require.Equal(t, 5, s.Prior())
	require.Equal(t, exampleBounds.Low, s.Bounds().Low)

	snap := rec.Snapshot()
	require.Len(t, snap.Decisions, 4)
	require.Len(t, snap.Throughput, 3)
	require.Empty(t, snap.Reservoir)
	require.Empty(t, snap.Anomalies)
}

func TestSession_reservoirFeedback(t *testing.T) {
	s, rec, _ := newTestSession(t, VariantCumulative)

	require.Equal(t, 1, s.Decide(30).Index)
	report := s.OnSegmentResult(SegmentOutcome{QualityIndex: 2, Bits: 1_000_000, Elapsed: 1})
	require.True(t, report.ReservoirUpdated)
	require.Equal(t, 1_000_000.0, report.Capacity)
	// 2*30*(1.2e6/1e6 - 1)
	require.InDelta(t, 12, report.Reservoir.Low, 1e-9)
	require.InDelta(t, 12, s.Bounds().Low, 1e-9)

	snap := rec.Snapshot()
	require.Len(t, snap.Reservoir, 1)
	require.InDelta(t, 12, snap.Reservoir[0].Bounds.Low, 1e-9)
}

func TestSession_cumulativeMean(t *testing.T) {
	s, _, _ := newTestSession(t, VariantCumulative)
	for _, bits := range []uint64{1_000_000, 3_000_000} {
		s.Decide(30)
		s.OnSegmentResult(SegmentOutcome{QualityIndex: 0, Bits: bits, Elapsed: 1})
	}
	require.InDelta(t, 2_000_000, s.Estimate(), 1e-6)
}

func TestSession_invalidSampleKeepsState(t *testing.T) {
	s, rec, _ := newTestSession(t, VariantInstantaneous)

	s.Decide(30)
	s.OnSegmentResult(SegmentOutcome{QualityIndex: 2, Bits: 1_000_000, Elapsed: 1})
	bounds := s.Bounds()

	s.Decide(30)
	report := s.OnSegmentResult(SegmentOutcome{QualityIndex: 2, Bits: 1_000_000, Elapsed: 0})
	require.False(t, report.SampleAccepted)
	require.Equal(t, 1_000_000.0, report.Capacity)
	require.Equal(t, bounds, s.Bounds())
	require.Equal(t, 1, rec.Snapshot().Anomalies[AnomalyInvalidSample])
}

func TestSession_noCapacitySkipsReservoir(t *testing.T) {
	s, rec, _ := newTestSession(t, VariantWindowed)

	s.Decide(30)
	report := s.OnSegmentResult(SegmentOutcome{QualityIndex: 1, Bits: 0, Elapsed: 1})
	require.False(t, report.ReservoirUpdated)
	require.Equal(t, DefaultReservoir(), s.Bounds())

	snap := rec.Snapshot()
	require.Equal(t, 1, snap.Anomalies[AnomalyInvalidSample])
	require.Equal(t, 1, snap.Anomalies[AnomalyInvalidCapacity])
}

func TestSession_anomaliesNeverDecline(t *testing.T) {
	cfg, err := ConfigForVariant(VariantInstantaneous)
	require.NoError(t, err)
	rec := NewRecorder()
	s, err := NewSession(cfg, WithTelemetry(rec))
	require.NoError(t, err)

	// no ladder yet
	require.Equal(t, 0, s.Decide(40).Index)
	s.OnSegmentResult(SegmentOutcome{Bits: 1})
	require.NoError(t, s.OnManifest(testReps()))

	// result without a decision, out of range index
	s.OnSegmentResult(SegmentOutcome{QualityIndex: 42, Bits: 1_000_000, Elapsed: 1})

	// two decisions in a row, negative buffer
	s.Decide(25)
	d := s.Decide(-3)
	require.Equal(t, 0, d.Index)

	snap := rec.Snapshot()
	require.Equal(t, 2, snap.Anomalies[AnomalyNoLadder])
	require.Equal(t, 2, snap.Anomalies[AnomalyOutOfOrder])
	require.Equal(t, 1, snap.Anomalies[AnomalyIndexOutOfRange])
	require.Equal(t, 1, snap.Anomalies[AnomalyInvalidBuffer])
}

func TestSession_SinceDecision(t *testing.T) {
	s, rec, clk := newTestSession(t, VariantBaseline)
	require.Zero(t, s.SinceDecision())

	start := clk.Now()
	s.Decide(30)
	clk.Add(1500 * time.Millisecond)
	require.Equal(t, 1500*time.Millisecond, s.SinceDecision())

	s.OnSegmentResult(SegmentOutcome{QualityIndex: 0, Bits: 600_000, Elapsed: s.SinceDecision().Seconds()})
	require.Zero(t, s.SinceDecision())

	snap := rec.Snapshot()
	require.Equal(t, start, snap.Decisions[0].Timestamp)
	require.Equal(t, start.Add(1500*time.Millisecond), snap.Throughput[0].Timestamp)
	require.InDelta(t, 400_000, snap.Throughput[0].Throughput, 1e-6)
}
