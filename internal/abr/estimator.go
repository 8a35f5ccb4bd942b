package abr

import (
	"time"

	"github.com/gammazero/deque"
)

// ThroughputSample is one completed segment download.
type ThroughputSample struct {
	Timestamp time.Time
	Bits      uint64
	Duration  float64 // seconds
}

// Valid reports whether the sample can produce a throughput value.
func (s ThroughputSample) Valid() bool {
	return s.Bits > 0 && s.Duration > 0 && isFinite(s.Duration)
}

// Throughput returns bits per second. Only meaningful for valid samples.
func (s ThroughputSample) Throughput() float64 {
	return float64(s.Bits) / s.Duration
}

// ThroughputEstimator turns download samples into a capacity estimate
// according to its averaging mode. The zero estimate means none yet.
type ThroughputEstimator struct {
	averaging  Averaging
	windowSize int

	estimate float64

	// cumulative
	count int

	// windowed
	window deque.Deque[float64]
}

// NewThroughputEstimator returns an estimator for mode. windowSize is only
// used by AveragingWindowed.
func NewThroughputEstimator(mode Averaging, windowSize int) *ThroughputEstimator {
	return &ThroughputEstimator{averaging: mode, windowSize: windowSize}
}

// Estimate returns the current capacity estimate in bits per second.
func (e *ThroughputEstimator) Estimate() float64 {
	return e.estimate
}

// Observe feeds one download into the estimator. Samples with zero bits or a
// non-positive duration are rejected, leaving the estimate unchanged, and
// accepted is false. The returned throughput is the sample's own rate.
func (e *ThroughputEstimator) Observe(bits uint64, duration float64) (estimate, throughput float64, accepted bool) {
	s := ThroughputSample{Bits: bits, Duration: duration}
	if !s.Valid() {
		return e.estimate, 0, false
	}
	throughput = s.Throughput()
	if !isFinite(throughput) {
		return e.estimate, 0, false
	}

	switch e.averaging {
	case AveragingLast:
		e.estimate = throughput
	case AveragingCumulative:
		e.count++
		e.estimate += (throughput - e.estimate) / float64(e.count)
	case AveragingWindowed:
		e.window.PushBack(throughput)
		for e.window.Len() > e.windowSize {
			e.window.PopFront()
		}
		e.estimate = e.windowMean()
	}
	return e.estimate, throughput, true
}

// windowMean recomputes the mean over the ring on every sample so rounding
// error never accumulates across evictions.
func (e *ThroughputEstimator) windowMean() float64 {
	n := e.window.Len()
	if n == 0 {
		return 0
	}
	var mean float64
	for i := 0; i < n; i++ {
		mean += e.window.At(i) / float64(n)
	}
	return mean
}
