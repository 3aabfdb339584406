package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/jwebster45206/world-engine/pkg/event"
	"github.com/jwebster45206/world-engine/pkg/prompts"
	"github.com/jwebster45206/world-engine/pkg/sim"
)

// ContextResponse carries the state prompt for a world.
type ContextResponse struct {
	Prompt  string               `json:"prompt"`
	State   *prompts.PromptState `json:"state"`
	Pending []string             `json:"pending_events,omitempty"` // fired but not yet narrated
}

// NarrateRequest defines the request body for building narration messages
type NarrateRequest struct {
	Message string `json:"message"`
	Focus   string `json:"focus,omitempty"` // npc the player is addressing
}

// NarrateResponse carries the messages to hand to the narrative model.
type NarrateResponse struct {
	Messages []prompts.Message `json:"messages"`
}

func firedNames(fired []event.Fired) []string {
	names := make([]string, 0, len(fired))
	for _, f := range fired {
		name := f.Name
		if name == "" {
			name = f.Event
		}
		names = append(names, name)
	}
	return names
}

func (h *WorldHandler) writeContextError(w http.ResponseWriter, err error, worldID uuid.UUID) {
	if errors.Is(err, sim.ErrUnknownNPC) {
		writeError(w, h.logger, http.StatusBadRequest, err.Error())
		return
	}
	h.writeLoadError(w, err, worldID)
}

func (h *WorldHandler) handleContext(w http.ResponseWriter, r *http.Request, worldID uuid.UUID) {
	ctx := r.Context()
	nc, s, err := h.processor.NarrativeContext(ctx, worldID, r.URL.Query().Get("focus"))
	if err != nil {
		h.writeContextError(w, err, worldID)
		return
	}

	prompt, err := prompts.BuildContext(nc, s.Story)
	if err != nil {
		h.logger.Error("Failed to build context prompt", "error", err, "world_id", worldID)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to build context")
		return
	}

	resp := ContextResponse{Prompt: prompt, State: prompts.ToPromptState(nc)}
	if h.fired != nil {
		pending, err := h.fired.Peek(ctx, worldID)
		if err != nil {
			h.logger.Warn("Failed to read fired events", "error", err, "world_id", worldID)
		}
		resp.Pending = firedNames(pending)
	}
	writeJSON(w, h.logger, http.StatusOK, resp)
}

// handleNarrate builds the message list for one narration turn. Events fired since the
// last turn are folded in and then cleared.
func (h *WorldHandler) handleNarrate(w http.ResponseWriter, r *http.Request, worldID uuid.UUID) {
	var req NarrateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("Invalid JSON in request body", "error", err)
		writeError(w, h.logger, http.StatusBadRequest, "Invalid JSON in request body")
		return
	}

	ctx := r.Context()
	nc, s, err := h.processor.NarrativeContext(ctx, worldID, req.Focus)
	if err != nil {
		h.writeContextError(w, err, worldID)
		return
	}

	var pending []event.Fired
	if h.fired != nil {
		if pending, err = h.fired.Peek(ctx, worldID); err != nil {
			h.logger.Warn("Failed to read fired events", "error", err, "world_id", worldID)
		}
	}

	msgs, err := prompts.New().
		WithContext(nc).
		WithScenario(s).
		WithFired(firedNames(pending)...).
		WithUserMessage(req.Message).
		Build()
	if err != nil {
		h.logger.Error("Failed to build messages", "error", err, "world_id", worldID)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to build messages")
		return
	}

	if len(pending) > 0 {
		if err := h.fired.Clear(ctx, worldID); err != nil {
			h.logger.Warn("Failed to clear fired events", "error", err, "world_id", worldID)
		}
	}
	writeJSON(w, h.logger, http.StatusOK, NarrateResponse{Messages: msgs})
}
