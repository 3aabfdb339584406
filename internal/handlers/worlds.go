package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/world-engine/internal/services/events"
	"github.com/jwebster45206/world-engine/internal/worker"
	"github.com/jwebster45206/world-engine/pkg/clock"
	"github.com/jwebster45206/world-engine/pkg/queue"
	"github.com/jwebster45206/world-engine/pkg/state"
	"github.com/jwebster45206/world-engine/pkg/storage"
)

// RequestQueue accepts requests for the worker.
type RequestQueue interface {
	Enqueue(ctx context.Context, req *queue.Request) error
}

// ArchiveCleaner drops a world's archived memories.
type ArchiveCleaner interface {
	DeleteWorld(ctx context.Context, worldID uuid.UUID) (int64, error)
}

// CreateWorldRequest defines the request body for creating a new world
type CreateWorldRequest struct {
	Scenario string `json:"scenario"` // Required: scenario filename
}

// WorldResponse summarizes a stored world.
type WorldResponse struct {
	ID        uuid.UUID  `json:"id"`
	Scenario  string     `json:"scenario"`
	World     string     `json:"world"`
	Tick      clock.Tick `json:"tick"`
	Time      string     `json:"time"`
	Location  string     `json:"location"`
	Turns     int        `json:"turns"`
	Version   int        `json:"version"`
	Failed    string     `json:"failed,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func newWorldResponse(gs *state.GameState) WorldResponse {
	resp := WorldResponse{
		ID:        gs.ID,
		Scenario:  gs.Scenario,
		World:     gs.World,
		Tick:      gs.Tick(),
		Time:      clock.FromAbsolute(gs.Tick()).Display(),
		Turns:     gs.Turns,
		Version:   gs.Version,
		Failed:    gs.Failed,
		CreatedAt: gs.CreatedAt,
		UpdatedAt: gs.UpdatedAt,
	}
	if gs.Snapshot != nil {
		resp.Location = gs.Snapshot.PlayerLocation
	}
	return resp
}

// EnqueuedResponse is returned for accepted asynchronous requests.
type EnqueuedResponse struct {
	RequestID string    `json:"request_id"`
	WorldID   uuid.UUID `json:"world_id"`
	Type      string    `json:"type"`
}

type WorldHandler struct {
	processor   *worker.WorldProcessor
	storage     storage.Storage
	requests    RequestQueue
	fired       state.FiredQueue
	broadcaster *events.Broadcaster
	archive     ArchiveCleaner
	logger      *slog.Logger
}

// NewWorldHandler creates the world handler. fired, broadcaster and archive may be nil.
func NewWorldHandler(
	processor *worker.WorldProcessor,
	storage storage.Storage,
	requests RequestQueue,
	fired state.FiredQueue,
	broadcaster *events.Broadcaster,
	archive ArchiveCleaner,
	logger *slog.Logger,
) *WorldHandler {
	return &WorldHandler{
		processor:   processor,
		storage:     storage,
		requests:    requests,
		fired:       fired,
		broadcaster: broadcaster,
		archive:     archive,
		logger:      logger,
	}
}

// ServeHTTP handles HTTP requests for world operations
// Routes:
// POST   /v1/worlds              - Create a world from a scenario
// GET    /v1/worlds/{id}         - Summarize a world
// DELETE /v1/worlds/{id}         - Delete a world and its archive
// POST   /v1/worlds/{id}/intents - Queue a player intent
// POST   /v1/worlds/{id}/advance - Queue time passing
// GET    /v1/worlds/{id}/context - Narrative context prompt
// POST   /v1/worlds/{id}/narrate - Messages for the narrative layer
func (h *WorldHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/worlds"), "/"), "/")
	if parts[0] == "" {
		if r.Method != http.MethodPost {
			writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Only POST is supported.")
			return
		}
		h.handleCreate(w, r)
		return
	}

	worldID, err := uuid.Parse(parts[0])
	if err != nil {
		h.logger.Warn("Invalid world ID", "id", parts[0], "error", err)
		writeError(w, h.logger, http.StatusBadRequest, "Invalid world ID format")
		return
	}
	if len(parts) > 2 {
		writeError(w, h.logger, http.StatusNotFound, "Not found")
		return
	}

	action := ""
	if len(parts) == 2 {
		action = parts[1]
	}
	switch {
	case action == "" && r.Method == http.MethodGet:
		h.handleRead(w, r, worldID)
	case action == "" && r.Method == http.MethodDelete:
		h.handleDelete(w, r, worldID)
	case action == "intents" && r.Method == http.MethodPost:
		h.handleIntent(w, r, worldID)
	case action == "advance" && r.Method == http.MethodPost:
		h.handleAdvance(w, r, worldID)
	case action == "context" && r.Method == http.MethodGet:
		h.handleContext(w, r, worldID)
	case action == "narrate" && r.Method == http.MethodPost:
		h.handleNarrate(w, r, worldID)
	default:
		h.logger.Warn("Route not allowed for world endpoint", "method", r.Method, "action", action)
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed for this path")
	}
}

func (h *WorldHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateWorldRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("Invalid JSON in request body", "error", err)
		writeError(w, h.logger, http.StatusBadRequest, "Invalid JSON in request body")
		return
	}
	req.Scenario = strings.TrimSpace(req.Scenario)
	if req.Scenario == "" {
		writeError(w, h.logger, http.StatusBadRequest, "scenario field is required")
		return
	}

	gs, err := h.processor.CreateWorld(r.Context(), req.Scenario)
	if err != nil {
		h.logger.Warn("Failed to create world", "error", err, "scenario", req.Scenario)
		writeError(w, h.logger, http.StatusBadRequest, "Failed to create world: "+err.Error())
		return
	}
	writeJSON(w, h.logger, http.StatusCreated, newWorldResponse(gs))
}

func (h *WorldHandler) handleRead(w http.ResponseWriter, r *http.Request, worldID uuid.UUID) {
	gs, err := h.processor.GetGameState(r.Context(), worldID)
	if err != nil {
		h.writeLoadError(w, err, worldID)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, newWorldResponse(gs))
}

func (h *WorldHandler) handleDelete(w http.ResponseWriter, r *http.Request, worldID uuid.UUID) {
	ctx := r.Context()
	if _, err := h.processor.GetGameState(ctx, worldID); err != nil {
		h.writeLoadError(w, err, worldID)
		return
	}
	if err := h.storage.DeleteGameState(ctx, worldID); err != nil {
		h.logger.Error("Failed to delete world", "error", err, "world_id", worldID)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to delete world")
		return
	}
	if h.fired != nil {
		if err := h.fired.Clear(ctx, worldID); err != nil {
			h.logger.Warn("Failed to clear fired events", "error", err, "world_id", worldID)
		}
	}
	if h.archive != nil {
		n, err := h.archive.DeleteWorld(ctx, worldID)
		if err != nil {
			h.logger.Warn("Failed to delete memory archive", "error", err, "world_id", worldID)
		} else {
			h.logger.Debug("Memory archive deleted", "world_id", worldID, "rows", n)
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *WorldHandler) writeLoadError(w http.ResponseWriter, err error, worldID uuid.UUID) {
	if errors.Is(err, worker.ErrWorldNotFound) {
		writeError(w, h.logger, http.StatusNotFound, "World not found")
		return
	}
	h.logger.Error("Failed to load world", "error", err, "world_id", worldID)
	writeError(w, h.logger, http.StatusInternalServerError, "Failed to load world")
}
