package metrics

import (
	"hls-abr/internal/abr"
)

// sessionSink feeds a session's telemetry into the shared collectors.
type sessionSink struct {
	m       *Metrics
	variant string
}

// SessionSink returns an abr.TelemetrySink that records into m under the
// given variant label.
func (m *Metrics) SessionSink(variant abr.Variant) abr.TelemetrySink {
	return &sessionSink{m: m, variant: string(variant)}
}

func (s *sessionSink) RecordDecision(p abr.DecisionPoint) {
	s.m.decisionsTotal.WithLabelValues(s.variant).Inc()
	s.m.qualityIndex.WithLabelValues(s.variant).Observe(float64(p.Index))
}

func (s *sessionSink) RecordThroughput(p abr.ThroughputPoint) {
	s.m.throughput.WithLabelValues(s.variant).Observe(p.Throughput)
}

func (s *sessionSink) RecordReservoir(p abr.ReservoirPoint) {
	s.m.reservoirLow.WithLabelValues(s.variant).Set(p.Bounds.Low)
}

func (s *sessionSink) RecordAnomaly(kind abr.AnomalyKind) {
	s.m.anomaliesTotal.WithLabelValues(s.variant, string(kind)).Inc()
}
