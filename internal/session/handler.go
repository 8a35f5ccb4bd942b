package session

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"hls-abr/internal/abr"
	"hls-abr/internal/platform/metrics"

	"github.com/go-chi/chi/v5"
)

const maxBodyBytes = 1 << 20

// Handler exposes session HTTP endpoints using go-chi.
type Handler struct {
	svc     *Service
	log     *slog.Logger
	metrics *metrics.Metrics
}

// NewHandler returns a Handler that uses the given Service, Logger, and optional Metrics.
// Metrics may be nil to disable metric recording (e.g. in tests).
func NewHandler(svc *Service, log *slog.Logger, m *metrics.Metrics) *Handler {
	return &Handler{svc: svc, log: log, metrics: m}
}

// Routes mounts the session endpoints on r.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/sessions", h.CreateSession)
	r.Route("/sessions/{session_id}", func(r chi.Router) {
		r.Post("/decisions", h.Decide)
		r.Post("/segments", h.ReportSegment)
		r.Get("/telemetry", h.Telemetry)
		r.Post("/end", h.EndSession)
	})
}

// CreateSession handles POST /sessions.
// Body: { "variant": "instantaneous", "representations": [{"id": "low", "bitrate": 300000}] }.
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if !h.decode(w, r, &req) {
		return
	}

	st, err := h.svc.CreateSession(req)
	if err != nil {
		if abr.IsConfigError(err) {
			h.log.Info("session rejected", slog.String("error", err.Error()))
			writeError(w, http.StatusBadRequest, err)
			return
		}
		h.log.Error("create session failed", slog.String("error", err.Error()))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	cfg := st.Strategy.Config()
	if h.metrics != nil {
		h.metrics.IncSessionsCreated(string(cfg.Variant))
	}
	writeJSON(w, http.StatusCreated, CreateResponse{
		SessionID:       st.ID,
		Variant:         cfg.Variant,
		Representations: st.Strategy.Ladder().Representations(),
		Reservoir:       st.Strategy.Bounds(),
	})
}

// Decide handles POST /sessions/{session_id}/decisions.
// Body: { "buffer_seconds": 37.5 }.
func (h *Handler) Decide(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}
	var req DecisionRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.BufferSeconds == nil {
		writeError(w, http.StatusBadRequest, errors.New("buffer_seconds is required"))
		return
	}

	d, err := h.svc.Decide(id, *req.BufferSeconds)
	if err != nil {
		h.writeSessionError(w, id, err)
		return
	}
	writeJSON(w, http.StatusOK, DecisionResponse{
		QualityIndex:     d.Index,
		RepresentationID: d.Representation.ID,
		Bitrate:          d.Representation.Bitrate,
	})
}

// ReportSegment handles POST /sessions/{session_id}/segments.
// Body: { "quality_index": 2, "bits": 1200000, "elapsed_seconds": 0.8 }.
func (h *Handler) ReportSegment(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}
	var req SegmentRequest
	if !h.decode(w, r, &req) {
		return
	}

	report, err := h.svc.ReportSegment(id, req)
	if err != nil {
		h.writeSessionError(w, id, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// Telemetry handles GET /sessions/{session_id}/telemetry.
func (h *Handler) Telemetry(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}
	t, err := h.svc.Telemetry(id)
	if err != nil {
		h.writeSessionError(w, id, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// EndSession handles POST /sessions/{session_id}/end.
func (h *Handler) EndSession(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}
	if err := h.svc.EndSession(id); err != nil {
		h.writeSessionError(w, id, err)
		return
	}

	h.log.Info("session ended", slog.String("session_id", string(id)))
	w.WriteHeader(http.StatusOK)
	if h.metrics != nil {
		h.metrics.IncSessionsEnded()
	}
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		h.log.Debug("invalid request body", slog.String("error", err.Error()))
		writeError(w, http.StatusBadRequest, err)
		return false
	}
	return true
}

func (h *Handler) writeSessionError(w http.ResponseWriter, id SessionID, err error) {
	switch {
	case errors.Is(err, ErrSessionNotFound):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, ErrSessionEnded):
		h.log.Info("request for ended session",
			slog.String("session_id", string(id)),
			slog.String("error", err.Error()))
		writeError(w, http.StatusConflict, err)
	default:
		h.log.Error("session request failed",
			slog.String("session_id", string(id)),
			slog.String("error", err.Error()))
		w.WriteHeader(http.StatusInternalServerError)
	}
}

func sessionID(w http.ResponseWriter, r *http.Request) (SessionID, bool) {
	id := SessionID(chi.URLParam(r, "session_id"))
	if id == "" {
		w.WriteHeader(http.StatusBadRequest)
		return "", false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
