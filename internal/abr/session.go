package abr

import (
	"io"
	"log/slog"
	"math"
	"time"

	"github.com/benbjohnson/clock"
)

// RateAdaptationStrategy is what a player loop drives: one manifest, then
// strictly alternating Decide and OnSegmentResult calls per segment.
type RateAdaptationStrategy interface {
	OnManifest(reps []Representation) error
	Decide(buffer float64) RateDecision
	OnSegmentResult(outcome SegmentOutcome) SegmentReport
}

// State is the session lifecycle position.
type State int

const (
	StateUninitialized State = iota
	StateLadderReady
	StateAwaitingDownload
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateLadderReady:
		return "ladder_ready"
	case StateAwaitingDownload:
		return "awaiting_download"
	default:
		return "unknown"
	}
}

// RateDecision is the quality chosen for the next segment request.
type RateDecision struct {
	Index          int            `json:"quality_index"`
	Representation Representation `json:"representation"`
}

// SegmentOutcome is what the host reports after a segment download.
type SegmentOutcome struct {
	QualityIndex int     `json:"quality_index"`
	Bits         uint64  `json:"bits"`
	Elapsed      float64 `json:"elapsed_seconds"`
}

// SegmentReport describes how a SegmentOutcome changed session state.
type SegmentReport struct {
	SampleAccepted   bool            `json:"sample_accepted"`
	Throughput       float64         `json:"throughput_bps"`
	Capacity         float64         `json:"capacity_bps"`
	ReservoirUpdated bool            `json:"reservoir_updated"`
	Reservoir        ReservoirBounds `json:"reservoir"`
}

// Option configures a Session.
type Option func(*Session)

// WithClock sets the clock used to timestamp samples and time downloads.
func WithClock(c clock.Clock) Option {
	return func(s *Session) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithLogger sets the logger used for anomaly diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.log = l
		}
	}
}

// WithTelemetry adds a sink for decision and throughput samples.
func WithTelemetry(sink TelemetrySink) Option {
	return func(s *Session) {
		if sink != nil {
			s.sinks = append(s.sinks, sink)
		}
	}
}

// Session is one playback session of the buffer-based strategy. It owns the
// ladder, reservoir bounds, prior index and throughput history. A Session is
// not safe for concurrent use.
type Session struct {
	cfg   Config
	clock clock.Clock
	log   *slog.Logger
	sinks []TelemetrySink
	sink  TelemetrySink

	state     State
	ladder    *QualityLadder
	selector  *RateSelector
	estimator *ThroughputEstimator
	reservoir *ReservoirController

	lastBuffer float64
	decidedAt  time.Time
}

var _ RateAdaptationStrategy = (*Session)(nil)

// NewSession validates cfg and returns a session waiting for its manifest.
func NewSession(cfg Config, opts ...Option) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	reservoir, err := NewReservoirController(cfg.Reservoir)
	if err != nil {
		return nil, err
	}

	s := &Session{
		cfg:       cfg,
		clock:     clock.New(),
		log:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		estimator: NewThroughputEstimator(cfg.Averaging, cfg.WindowSize),
		reservoir: reservoir,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.sink = MultiSink(s.sinks...)
	s.log = s.log.With(slog.String("variant", string(cfg.Variant)))
	return s, nil
}

// OnManifest builds the session's quality ladder. It fails if the ladder is
// invalid or was already built.
func (s *Session) OnManifest(reps []Representation) error {
	if s.ladder != nil {
		return &ConfigError{Err: ErrLadderAlreadyBuilt}
	}
	ladder, err := NewQualityLadder(reps)
	if err != nil {
		return err
	}
	s.ladder = ladder
	s.selector = NewRateSelector(ladder.MaxIndex(), s.cfg.UseCapacityOverride, s.cfg.SafeStep)
	s.state = StateLadderReady
	s.log.Debug("quality ladder ready", slog.Int("representations", ladder.Len()))
	return nil
}

// Decide returns the quality for the next segment. It never fails: without a
// ladder it returns index 0, and a NaN or negative buffer is read as empty.
func (s *Session) Decide(buffer float64) RateDecision {
	if s.ladder == nil {
		s.anomaly(AnomalyNoLadder, "decision requested before manifest")
		return RateDecision{}
	}
	if s.state == StateAwaitingDownload {
		s.anomaly(AnomalyOutOfOrder, "decision requested before previous segment was reported")
	}
	if math.IsNaN(buffer) || buffer < 0 {
		s.anomaly(AnomalyInvalidBuffer, "buffer level treated as empty", slog.Float64("buffer", buffer))
		buffer = 0
	}

	idx := s.selector.Decide(s.reservoir.Bounds(), buffer, s.estimator.Estimate())
	rep := s.ladder.At(idx)

	s.lastBuffer = buffer
	s.decidedAt = s.clock.Now()
	s.state = StateAwaitingDownload

	s.sink.RecordDecision(DecisionPoint{
		Timestamp: s.decidedAt,
		Buffer:    buffer,
		Index:     idx,
		Bitrate:   rep.Bitrate,
	})
	return RateDecision{Index: idx, Representation: rep}
}

// OnSegmentResult feeds a finished download into the throughput estimator
// and, when enabled, the reservoir controller. Bad measurements are absorbed
// and reported through SegmentReport and the telemetry sink.
func (s *Session) OnSegmentResult(out SegmentOutcome) SegmentReport {
	report := SegmentReport{
		Capacity:  s.estimator.Estimate(),
		Reservoir: s.reservoir.Bounds(),
	}
	if s.ladder == nil {
		s.anomaly(AnomalyNoLadder, "segment reported before manifest")
		return report
	}
	if s.state != StateAwaitingDownload {
		s.anomaly(AnomalyOutOfOrder, "segment reported without a pending decision")
	}
	s.state = StateLadderReady

	idx := out.QualityIndex
	if !s.ladder.Contains(idx) {
		s.anomaly(AnomalyIndexOutOfRange, "reported quality index clamped", slog.Int("quality_index", idx))
		idx = clampIndex(idx, s.ladder.MaxIndex())
	}

	now := s.clock.Now()
	estimate, throughput, ok := s.estimator.Observe(out.Bits, out.Elapsed)
	report.Capacity = estimate
	if ok {
		report.SampleAccepted = true
		report.Throughput = throughput
		s.sink.RecordThroughput(ThroughputPoint{Timestamp: now, Throughput: throughput, Estimate: estimate})
	} else {
		s.anomaly(AnomalyInvalidSample, "download sample discarded",
			slog.Uint64("bits", out.Bits),
			slog.Float64("elapsed", out.Elapsed))
	}

	if !s.cfg.ResizeReservoir {
		return report
	}

	avgSegmentBits := float64(s.ladder.At(idx).Bitrate) * s.cfg.SegmentDuration
	bounds, updated := s.reservoir.Update(s.lastBuffer, avgSegmentBits, estimate)
	report.Reservoir = bounds
	report.ReservoirUpdated = updated
	if !updated {
		s.anomaly(AnomalyInvalidCapacity, "reservoir update skipped", slog.Float64("capacity", estimate))
		return report
	}
	s.sink.RecordReservoir(ReservoirPoint{Timestamp: now, Bounds: bounds})
	return report
}

// SinceDecision returns the time elapsed since the last decision, or zero if
// no decision is pending.
func (s *Session) SinceDecision() time.Duration {
	if s.state != StateAwaitingDownload {
		return 0
	}
	return s.clock.Since(s.decidedAt)
}

// State returns the lifecycle position.
func (s *Session) State() State {
	return s.state
}

// Config returns the configuration the session was built with.
func (s *Session) Config() Config {
	return s.cfg
}

// Ladder returns the quality ladder, or nil before OnManifest.
func (s *Session) Ladder() *QualityLadder {
	return s.ladder
}

// Bounds returns the current reservoir bounds.
func (s *Session) Bounds() ReservoirBounds {
	return s.reservoir.Bounds()
}

// Estimate returns the current capacity estimate in bits per second.
func (s *Session) Estimate() float64 {
	return s.estimator.Estimate()
}

// Prior returns the last decided index.
func (s *Session) Prior() int {
	if s.selector == nil {
		return 0
	}
	return s.selector.Prior()
}

func (s *Session) anomaly(kind AnomalyKind, msg string, attrs ...any) {
	s.sink.RecordAnomaly(kind)
	s.log.Warn(msg, append([]any{slog.String("anomaly", string(kind))}, attrs...)...)
}
