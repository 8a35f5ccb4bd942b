package session

import (
	"errors"
	"sync"

	"hls-abr/internal/abr"
)

// Repository defines the concurrency-safe contract for accessing and driving
// session state. Calls for one session are serialized, which is what
// abr.Session requires.
type Repository interface {
	// CreateSession stores a new session. It fails if the ID is taken.
	CreateSession(st *SessionState) error

	// Decide asks the session for the next segment's quality.
	Decide(id SessionID, buffer float64) (abr.RateDecision, error)

	// ReportSegment feeds a finished download into the session.
	ReportSegment(id SessionID, req SegmentRequest) (abr.SegmentReport, error)

	// Telemetry returns a copy of the session's recorded samples. Ended
	// sessions remain readable until evicted from the store.
	Telemetry(id SessionID) (abr.Telemetry, error)

	// EndSession marks a session as ended. Ending twice is a no-op.
	EndSession(id SessionID) error

	// ActiveSessionCount returns the number of sessions that are not ended.
	// Used for metrics.
	ActiveSessionCount() int
}

var (
	// ErrSessionNotFound is returned for an unknown (or evicted) session ID.
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionEnded is returned when driving a session that was ended.
	ErrSessionEnded = errors.New("session has ended")

	// ErrSessionExists is returned when creating a session with a used ID.
	ErrSessionExists = errors.New("session already exists")
)

// InMemoryRepository is a concurrency-safe implementation of Repository.
// It uses a Store for persistence; by default that is an InMemoryStore.
type InMemoryRepository struct {
	mu    sync.RWMutex
	store Store
}

// NewInMemoryRepository constructs a new repository with a default in-memory store.
func NewInMemoryRepository() *InMemoryRepository {
	return NewInMemoryRepositoryWithStore(NewInMemoryStore())
}

// NewInMemoryRepositoryWithStore constructs a repository that uses the given Store.
func NewInMemoryRepositoryWithStore(store Store) *InMemoryRepository {
	return &InMemoryRepository{store: store}
}

// CreateSession implements Repository.CreateSession.
func (r *InMemoryRepository) CreateSession(st *SessionState) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.store.GetSession(st.ID); exists {
		return ErrSessionExists
	}
	r.store.SetSession(st)
	return nil
}

// Decide implements Repository.Decide.
func (r *InMemoryRepository) Decide(id SessionID, buffer float64) (abr.RateDecision, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	st, err := r.liveSessionLocked(id)
	if err != nil {
		return abr.RateDecision{}, err
	}
	return st.Strategy.Decide(buffer), nil
}

// ReportSegment implements Repository.ReportSegment.
func (r *InMemoryRepository) ReportSegment(id SessionID, req SegmentRequest) (abr.SegmentReport, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	st, err := r.liveSessionLocked(id)
	if err != nil {
		return abr.SegmentReport{}, err
	}

	elapsed := st.Strategy.SinceDecision().Seconds()
	if req.ElapsedSeconds != nil {
		elapsed = *req.ElapsedSeconds
	}
	return st.Strategy.OnSegmentResult(abr.SegmentOutcome{
		QualityIndex: req.QualityIndex,
		Bits:         req.Bits,
		Elapsed:      elapsed,
	}), nil
}

// Telemetry implements Repository.Telemetry.
func (r *InMemoryRepository) Telemetry(id SessionID) (abr.Telemetry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	st, ok := r.store.GetSession(id)
	if !ok {
		return abr.Telemetry{}, ErrSessionNotFound
	}
	return st.Recorder.Snapshot(), nil
}

// EndSession implements Repository.EndSession.
func (r *InMemoryRepository) EndSession(id SessionID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	st, ok := r.store.GetSession(id)
	if !ok {
		return ErrSessionNotFound
	}
	st.Ended = true
	return nil
}

// ActiveSessionCount implements Repository.ActiveSessionCount.
func (r *InMemoryRepository) ActiveSessionCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, st := range r.store.ListSessions() {
		if !st.Ended {
			n++
		}
	}
	return n
}

// liveSessionLocked returns a session that exists and has not ended.
// Caller must hold r.mu in write mode.
func (r *InMemoryRepository) liveSessionLocked(id SessionID) (*SessionState, error) {
	st, ok := r.store.GetSession(id)
	if !ok {
		return nil, ErrSessionNotFound
	}
	if st.Ended {
		return nil, ErrSessionEnded
	}
	return st, nil
}
