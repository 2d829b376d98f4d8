package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/vevocube/mona-voice/internal/analytics"
	"github.com/vevocube/mona-voice/internal/cache"
	"github.com/vevocube/mona-voice/internal/db"
	"github.com/vevocube/mona-voice/internal/models"
	"github.com/vevocube/mona-voice/internal/queue"
	"github.com/vevocube/mona-voice/internal/speech"
)

type Handler struct {
	orchestrator *speech.Orchestrator
	cache        *cache.Cache
	queue        *queue.Queue // nil when Redis is not configured
	stats        *analytics.Analytics
	db           *db.DB // nil when Postgres is not configured
}

func NewHandler(orchestrator *speech.Orchestrator, audioCache *cache.Cache, q *queue.Queue, stats *analytics.Analytics, database *db.DB) *Handler {
	return &Handler{
		orchestrator: orchestrator,
		cache:        audioCache,
		queue:        q,
		stats:        stats,
		db:           database,
	}
}

// SpeechResponse is the wire shape for POST /v1/speech. AudioURL and
// BackendUsed are null when every backend failed; the client decides whether
// to retry or stay silent.
type SpeechResponse struct {
	AudioURL       *string            `json:"audioUrl"`
	LipSync        []models.VisemeCue `json:"lipSync,omitempty"`
	BackendUsed    *string            `json:"backendUsed"`
	CacheHit       bool               `json:"cacheHit"`
	ElapsedSeconds float64            `json:"elapsedSeconds"`
}

// CreateSpeech handles POST /v1/speech
func (h *Handler) CreateSpeech(w http.ResponseWriter, r *http.Request) {
	var req models.SpeechRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if strings.TrimSpace(req.Text) == "" {
		respondError(w, http.StatusBadRequest, "Text is required")
		return
	}
	if req.Backend != "" && !models.ValidBackend(req.Backend) {
		respondError(w, http.StatusBadRequest, "Unknown backend. Allowed: sovits, fishspeech, cartesia, gemini, openai")
		return
	}

	res := h.orchestrator.Synthesize(r.Context(), req)

	response := SpeechResponse{
		LipSync:        res.Timeline,
		CacheHit:       res.CacheHit,
		ElapsedSeconds: res.ElapsedSeconds,
	}
	if res.AudioFile != "" {
		url := "/audio/" + res.AudioFile
		used := string(res.BackendUsed)
		response.AudioURL = &url
		response.BackendUsed = &used
	}

	respondJSON(w, http.StatusOK, response)
}

// ListBackends handles GET /v1/backends
func (h *Handler) ListBackends(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"backends": h.orchestrator.Backends(),
	})
}

// GetCacheStats handles GET /v1/cache/stats
func (h *Handler) GetCacheStats(w http.ResponseWriter, r *http.Request) {
	count, totalBytes, err := h.cache.Stats()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to read cache stats")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"clips":      count,
		"totalBytes": totalBytes,
	})
}

// ClearCache handles DELETE /v1/cache
func (h *Handler) ClearCache(w http.ResponseWriter, r *http.Request) {
	removed, err := h.cache.Clear()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to clear cache")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"removed": removed,
	})
}

// PrecacheRequest queues lines for background synthesis.
type PrecacheRequest struct {
	Lines   []string       `json:"lines"`
	Backend models.Backend `json:"backend,omitempty"`
}

// CreatePrecache handles POST /v1/precache
func (h *Handler) CreatePrecache(w http.ResponseWriter, r *http.Request) {
	if h.queue == nil {
		respondError(w, http.StatusServiceUnavailable, "Precache queue not configured")
		return
	}

	var req PrecacheRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Backend != "" && !models.ValidBackend(req.Backend) {
		respondError(w, http.StatusBadRequest, "Unknown backend")
		return
	}

	jobIDs := make([]uuid.UUID, 0, len(req.Lines))
	for _, line := range req.Lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		id, err := h.queue.EnqueuePrecache(r.Context(), line, req.Backend)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "Failed to enqueue precache job")
			return
		}
		jobIDs = append(jobIDs, id)
	}

	respondJSON(w, http.StatusAccepted, map[string]interface{}{
		"queued": len(jobIDs),
		"jobIds": jobIDs,
	})
}

// GetStats handles GET /v1/stats — per-backend request counters.
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.stats.Snapshot(r.Context())
	if err != nil {
		respondError(w, http.StatusServiceUnavailable, "Analytics not configured")
		return
	}
	respondJSON(w, http.StatusOK, snapshot)
}

// ListEvents handles GET /v1/events — recent synthesis events from Postgres.
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	if h.db == nil {
		respondError(w, http.StatusServiceUnavailable, "Event log not configured")
		return
	}

	events, err := h.db.RecentSynthesisEvents(r.Context(), eventLimit(r))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to list events")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"events": events,
	})
}

// eventLimit parses the limit query param, defaulting to 100 and capping at
// 500 so the wire contract states the same bound the store enforces.
func eventLimit(r *http.Request) int {
	limit := 100
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if limit > 500 {
		limit = 500
	}
	return limit
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// Health check
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
