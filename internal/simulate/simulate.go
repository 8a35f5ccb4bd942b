// Package simulate drives an abr.Session against a synthetic throughput
// trace. Time is simulated with a mock clock, so a run is deterministic and
// finishes immediately.
package simulate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"time"

	"github.com/benbjohnson/clock"

	"hls-abr/internal/abr"
)

var (
	ErrInvalidTrace  = errors.New("simulate: invalid throughput trace")
	ErrInvalidParams = errors.New("simulate: invalid parameters")
)

// DefaultMaxBuffer is the player buffer ceiling in seconds.
const DefaultMaxBuffer = 60.0

// Params describes the simulated player. Segment length comes from the
// strategy's Config.SegmentDuration.
type Params struct {
	Segments  int
	MaxBuffer float64
	Logger    *slog.Logger
}

// Step is one decide/download round.
type Step struct {
	Segment      int
	Buffer       float64
	Index        int
	Bitrate      int64
	Bits         uint64
	Capacity     float64
	Download     time.Duration
	Estimate     float64
	ReservoirLow float64
	Stall        float64
}

// Result summarizes a run.
type Result struct {
	Steps          []Step
	StartupDelay   float64
	Rebuffers      int
	RebufferTime   float64
	Switches       int
	AverageBitrate float64
	Telemetry      abr.Telemetry
}

// Run plays p.Segments segments. Segment i downloads at trace[i % len(trace)]
// bits per second. The buffer drains while a segment downloads, gains one
// segment duration when it completes, and the player idles while the buffer
// is above p.MaxBuffer.
func Run(ctx context.Context, cfg abr.Config, reps []abr.Representation, trace []float64, p Params) (Result, error) {
	if len(trace) == 0 {
		return Result{}, fmt.Errorf("%w: empty", ErrInvalidTrace)
	}
	for i, c := range trace {
		if c <= 0 || math.IsNaN(c) || math.IsInf(c, 0) {
			return Result{}, fmt.Errorf("%w: sample %d is %v", ErrInvalidTrace, i, c)
		}
	}
	if p.Segments <= 0 {
		return Result{}, fmt.Errorf("%w: segments must be positive", ErrInvalidParams)
	}
	if p.MaxBuffer == 0 {
		p.MaxBuffer = DefaultMaxBuffer
	}
	if p.MaxBuffer < cfg.SegmentDuration {
		return Result{}, fmt.Errorf("%w: max buffer %v is below segment duration %v",
			ErrInvalidParams, p.MaxBuffer, cfg.SegmentDuration)
	}
	log := p.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	clk := clock.NewMock()
	rec := abr.NewRecorder()
	sess, err := abr.NewSession(cfg, abr.WithClock(clk), abr.WithLogger(log), abr.WithTelemetry(rec))
	if err != nil {
		return Result{}, err
	}
	if err := sess.OnManifest(reps); err != nil {
		return Result{}, err
	}

	res := Result{Steps: make([]Step, 0, p.Segments)}
	var buffer, bitSum float64
	prevIdx := -1
	for i := 0; i < p.Segments; i++ {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		d := sess.Decide(buffer)
		capacity := trace[i%len(trace)]
		bits := uint64(float64(d.Representation.Bitrate) * cfg.SegmentDuration)
		download := float64(bits) / capacity
		clk.Add(seconds(download))

		report := sess.OnSegmentResult(abr.SegmentOutcome{
			QualityIndex: d.Index,
			Bits:         bits,
			Elapsed:      sess.SinceDecision().Seconds(),
		})

		step := Step{
			Segment:      i,
			Buffer:       buffer,
			Index:        d.Index,
			Bitrate:      d.Representation.Bitrate,
			Bits:         bits,
			Capacity:     capacity,
			Download:     seconds(download),
			Estimate:     report.Capacity,
			ReservoirLow: report.Reservoir.Low,
		}

		if download > buffer {
			step.Stall = download - buffer
			if i == 0 {
				res.StartupDelay = step.Stall
			} else {
				res.Rebuffers++
				res.RebufferTime += step.Stall
				log.Debug("rebuffer", slog.Int("segment", i), slog.Float64("stall", step.Stall))
			}
			buffer = 0
		} else {
			buffer -= download
		}
		buffer += cfg.SegmentDuration
		if buffer > p.MaxBuffer {
			clk.Add(seconds(buffer - p.MaxBuffer))
			buffer = p.MaxBuffer
		}

		if prevIdx >= 0 && d.Index != prevIdx {
			res.Switches++
		}
		prevIdx = d.Index
		bitSum += float64(d.Representation.Bitrate)
		res.Steps = append(res.Steps, step)
	}

	res.AverageBitrate = bitSum / float64(len(res.Steps))
	res.Telemetry = rec.Snapshot()
	log.Info("simulation finished",
		slog.String("variant", string(cfg.Variant)),
		slog.Int("segments", len(res.Steps)),
		slog.Int("rebuffers", res.Rebuffers),
		slog.Int("switches", res.Switches))
	return res, nil
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
