package abr

import "time"

// AnomalyKind labels a measurement anomaly absorbed by a session.
type AnomalyKind string

const (
	AnomalyInvalidSample   AnomalyKind = "invalid_sample"
	AnomalyInvalidCapacity AnomalyKind = "invalid_capacity"
	AnomalyInvalidBuffer   AnomalyKind = "invalid_buffer"
	AnomalyIndexOutOfRange AnomalyKind = "index_out_of_range"
	AnomalyOutOfOrder      AnomalyKind = "out_of_order"
	AnomalyNoLadder        AnomalyKind = "no_ladder"
)

// DecisionPoint is one decision as seen by reporting.
type DecisionPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Buffer    float64   `json:"buffer_seconds"`
	Index     int       `json:"quality_index"`
	Bitrate   int64     `json:"bitrate"`
}

// ThroughputPoint is one accepted download sample.
type ThroughputPoint struct {
	Timestamp  time.Time `json:"timestamp"`
	Throughput float64   `json:"throughput_bps"`
	Estimate   float64   `json:"estimate_bps"`
}

// ReservoirPoint is the bounds after a reservoir update.
type ReservoirPoint struct {
	Timestamp time.Time       `json:"timestamp"`
	Bounds    ReservoirBounds `json:"bounds"`
}

// TelemetrySink receives append-only samples from a session. Sinks must not
// block; the session calls them inline.
type TelemetrySink interface {
	RecordDecision(p DecisionPoint)
	RecordThroughput(p ThroughputPoint)
	RecordReservoir(p ReservoirPoint)
	RecordAnomaly(kind AnomalyKind)
}

// Telemetry is a read-only copy of everything a Recorder has seen.
type Telemetry struct {
	Decisions  []DecisionPoint     `json:"decisions"`
	Throughput []ThroughputPoint   `json:"throughput"`
	Reservoir  []ReservoirPoint    `json:"reservoir"`
	Anomalies  map[AnomalyKind]int `json:"anomalies"`
}

// Recorder is an in-memory TelemetrySink. Like the session that writes to
// it, a Recorder is not safe for concurrent use.
type Recorder struct {
	decisions  []DecisionPoint
	throughput []ThroughputPoint
	reservoir  []ReservoirPoint
	anomalies  map[AnomalyKind]int
}

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{anomalies: make(map[AnomalyKind]int)}
}

func (r *Recorder) RecordDecision(p DecisionPoint) {
	r.decisions = append(r.decisions, p)
}

func (r *Recorder) RecordThroughput(p ThroughputPoint) {
	r.throughput = append(r.throughput, p)
}

func (r *Recorder) RecordReservoir(p ReservoirPoint) {
	r.reservoir = append(r.reservoir, p)
}

func (r *Recorder) RecordAnomaly(kind AnomalyKind) {
	r.anomalies[kind]++
}

// Snapshot copies the recorded series.
func (r *Recorder) Snapshot() Telemetry {
	t := Telemetry{
		Decisions:  append([]DecisionPoint(nil), r.decisions...),
		Throughput: append([]ThroughputPoint(nil), r.throughput...),
		Reservoir:  append([]ReservoirPoint(nil), r.reservoir...),
		Anomalies:  make(map[AnomalyKind]int, len(r.anomalies)),
	}
	for k, v := range r.anomalies {
		t.Anomalies[k] = v
	}
	return t
}

type multiSink []TelemetrySink

// MultiSink fans samples out to every non-nil sink.
func MultiSink(sinks ...TelemetrySink) TelemetrySink {
	out := make(multiSink, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

func (m multiSink) RecordDecision(p DecisionPoint) {
	for _, s := range m {
		s.RecordDecision(p)
	}
}

func (m multiSink) RecordThroughput(p ThroughputPoint) {
	for _, s := range m {
		s.RecordThroughput(p)
	}
}

func (m multiSink) RecordReservoir(p ReservoirPoint) {
	for _, s := range m {
		s.RecordReservoir(p)
	}
}

func (m multiSink) RecordAnomaly(kind AnomalyKind) {
	for _, s := range m {
		s.RecordAnomaly(kind)
	}
}
