package session

import (
	"time"

	"hls-abr/internal/abr"
)

// SessionID uniquely identifies a playback session.
type SessionID string

// CreateRequest is the JSON payload for creating a session.
type CreateRequest struct {
	Variant         string               `json:"variant,omitempty"`
	Representations []abr.Representation `json:"representations"`
	SegmentDuration float64              `json:"segment_duration,omitempty"`
}

// DecisionRequest is the JSON payload asking for the next segment's quality.
type DecisionRequest struct {
	BufferSeconds *float64 `json:"buffer_seconds"`
}

// SegmentRequest reports one finished segment download. When ElapsedSeconds
// is omitted the time since the session's last decision is used.
type SegmentRequest struct {
	QualityIndex   int      `json:"quality_index"`
	Bits           uint64   `json:"bits"`
	ElapsedSeconds *float64 `json:"elapsed_seconds,omitempty"`
}

// SessionState is everything the service keeps for one session.
type SessionState struct {
	ID        SessionID
	Strategy  *abr.Session
	Recorder  *abr.Recorder
	CreatedAt time.Time
	Ended     bool
}

// CreateResponse is returned after a session is created.
type CreateResponse struct {
	SessionID       SessionID            `json:"session_id"`
	Variant         abr.Variant          `json:"variant"`
	Representations []abr.Representation `json:"representations"`
	Reservoir       abr.ReservoirBounds  `json:"reservoir"`
}

// DecisionResponse carries the chosen representation.
type DecisionResponse struct {
	QualityIndex     int    `json:"quality_index"`
	RepresentationID string `json:"representation_id"`
	Bitrate          int64  `json:"bitrate"`
}
