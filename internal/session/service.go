package session

import (
	"fmt"
	"io"
	"log/slog"
	"math"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"

	"hls-abr/internal/abr"
)

// TelemetryFactory returns an extra sink for a new session of the given
// variant, e.g. one backed by Prometheus.
type TelemetryFactory func(variant abr.Variant) abr.TelemetrySink

// Option configures a Service.
type Option func(*Service)

// WithClock sets the clock handed to every session.
func WithClock(c clock.Clock) Option {
	return func(s *Service) { s.clock = c }
}

// WithLogger sets the service logger. Sessions log through it with their ID attached.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.log = l }
}

// WithTelemetryFactory adds a per-session sink factory.
func WithTelemetryFactory(f TelemetryFactory) Option {
	return func(s *Service) { s.telemetry = f }
}

// Service creates sessions from the configured defaults and delegates
// decisions and segment reports to the Repository.
type Service struct {
	repo      Repository
	defaults  abr.Config
	clock     clock.Clock
	log       *slog.Logger
	telemetry TelemetryFactory
	newID     func() SessionID
}

// NewService returns a Service that builds sessions from defaults.
func NewService(repo Repository, defaults abr.Config, opts ...Option) *Service {
	s := &Service{
		repo:     repo,
		defaults: defaults,
		clock:    clock.New(),
		log:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		newID:    func() SessionID { return SessionID(uuid.NewString()) },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Defaults returns the strategy configuration used when a request names no variant.
func (s *Service) Defaults() abr.Config {
	return s.defaults
}

// CreateSession builds a session and its quality ladder. Errors from an
// invalid variant or ladder are abr configuration errors.
func (s *Service) CreateSession(req CreateRequest) (*SessionState, error) {
	cfg, err := s.configFor(req)
	if err != nil {
		return nil, err
	}

	id := s.newID()
	rec := abr.NewRecorder()
	opts := []abr.Option{
		abr.WithClock(s.clock),
		abr.WithLogger(s.log.With(slog.String("session_id", string(id)))),
		abr.WithTelemetry(rec),
	}
	if s.telemetry != nil {
		opts = append(opts, abr.WithTelemetry(s.telemetry(cfg.Variant)))
	}

	strategy, err := abr.NewSession(cfg, opts...)
	if err != nil {
		return nil, err
	}
	if err := strategy.OnManifest(req.Representations); err != nil {
		return nil, err
	}

	st := &SessionState{
		ID:        id,
		Strategy:  strategy,
		Recorder:  rec,
		CreatedAt: s.clock.Now().UTC(),
	}
	if err := s.repo.CreateSession(st); err != nil {
		return nil, fmt.Errorf("store session %s: %w", id, err)
	}

	s.log.Info("session created",
		slog.String("session_id", string(id)),
		slog.String("variant", string(cfg.Variant)),
		slog.Int("representations", strategy.Ladder().Len()))
	return st, nil
}

// Decide returns the quality for the session's next segment.
func (s *Service) Decide(id SessionID, buffer float64) (abr.RateDecision, error) {
	return s.repo.Decide(id, buffer)
}

// ReportSegment records a finished download for the session.
func (s *Service) ReportSegment(id SessionID, req SegmentRequest) (abr.SegmentReport, error) {
	return s.repo.ReportSegment(id, req)
}

// Telemetry returns the session's recorded samples.
func (s *Service) Telemetry(id SessionID) (abr.Telemetry, error) {
	return s.repo.Telemetry(id)
}

// EndSession marks the session as ended; further decisions are rejected.
func (s *Service) EndSession(id SessionID) error {
	return s.repo.EndSession(id)
}

// configFor applies the request's variant and segment duration on top of the
// service defaults. A variant other than the default's gets its own preset
// but keeps the default reservoir, safe step, window and segment duration.
func (s *Service) configFor(req CreateRequest) (abr.Config, error) {
	cfg := s.defaults
	if req.Variant != "" {
		v, err := abr.ParseVariant(req.Variant)
		if err != nil {
			return abr.Config{}, err
		}
		if v != cfg.Variant {
			preset, err := abr.ConfigForVariant(v)
			if err != nil {
				return abr.Config{}, err
			}
			preset.Reservoir = cfg.Reservoir
			preset.SafeStep = cfg.SafeStep
			preset.WindowSize = cfg.WindowSize
			preset.SegmentDuration = cfg.SegmentDuration
			cfg = preset
		}
	}
	if req.SegmentDuration != 0 {
		if req.SegmentDuration < 0 || math.IsNaN(req.SegmentDuration) || math.IsInf(req.SegmentDuration, 0) {
			return abr.Config{}, &abr.ConfigError{Err: abr.ErrInvalidConfig, Detail: "segment_duration must be positive"}
		}
		cfg.SegmentDuration = req.SegmentDuration
	}
	return cfg, nil
}
