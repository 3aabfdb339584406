package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/jwebster45206/world-engine/internal/worker"
	"github.com/jwebster45206/world-engine/pkg/clock"
	"github.com/jwebster45206/world-engine/pkg/queue"
	"github.com/jwebster45206/world-engine/pkg/sim"
)

// AdvanceRequest defines the request body for letting time pass
type AdvanceRequest struct {
	Ticks int `json:"ticks,omitempty"`
	Days  int `json:"days,omitempty"` // added to ticks
}

func (h *WorldHandler) handleIntent(w http.ResponseWriter, r *http.Request, worldID uuid.UUID) {
	var in sim.Intent
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&in); err != nil {
		h.logger.Warn("Invalid intent in request body", "error", err)
		writeError(w, h.logger, http.StatusBadRequest, "Invalid JSON in request body")
		return
	}
	if in.Kind == "" {
		writeError(w, h.logger, http.StatusBadRequest, "kind field is required")
		return
	}
	h.enqueue(w, r, queue.NewIntentRequest(worldID, in))
}

func (h *WorldHandler) handleAdvance(w http.ResponseWriter, r *http.Request, worldID uuid.UUID) {
	var req AdvanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("Invalid JSON in request body", "error", err)
		writeError(w, h.logger, http.StatusBadRequest, "Invalid JSON in request body")
		return
	}
	if req.Ticks < 0 || req.Days < 0 {
		writeError(w, h.logger, http.StatusBadRequest, "ticks and days must not be negative")
		return
	}
	if req.Days > worker.MaxAdvanceTicks {
		writeError(w, h.logger, http.StatusBadRequest, "advance is limited to one year")
		return
	}
	ticks := req.Ticks + req.Days*clock.TicksPerDay
	if ticks == 0 || ticks > worker.MaxAdvanceTicks {
		writeError(w, h.logger, http.StatusBadRequest, "advance must be between one tick and one year")
		return
	}
	h.enqueue(w, r, queue.NewAdvanceRequest(worldID, ticks))
}

// enqueue checks the world exists, queues the request for the worker and answers 202.
func (h *WorldHandler) enqueue(w http.ResponseWriter, r *http.Request, req *queue.Request) {
	ctx := r.Context()
	if _, err := h.processor.GetGameState(ctx, req.GameStateID); err != nil {
		h.writeLoadError(w, err, req.GameStateID)
		return
	}

	if err := h.requests.Enqueue(ctx, req); err != nil {
		h.logger.Error("Failed to enqueue request", "error", err, "world_id", req.GameStateID)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to enqueue request")
		return
	}
	if h.broadcaster != nil {
		if err := h.broadcaster.PublishRequestQueued(ctx, req.GameStateID, req.RequestID, string(req.Type)); err != nil {
			h.logger.Warn("Failed to publish queued event", "error", err)
		}
	}

	writeJSON(w, h.logger, http.StatusAccepted, EnqueuedResponse{
		RequestID: req.RequestID,
		WorldID:   req.GameStateID,
		Type:      string(req.Type),
	})
}
