package queue

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/world-engine/pkg/sim"
)

// RequestType identifies the type of request in the queue
type RequestType string

const (
	// RequestTypeIntent is a player intent to apply to a world
	RequestTypeIntent RequestType = "intent"

	// RequestTypeAdvance lets time pass in a world with no player input
	RequestTypeAdvance RequestType = "advance"
)

// Request represents a unified request in the queue
type Request struct {
	RequestID   string      `json:"request_id"`
	Type        RequestType `json:"type"`
	GameStateID uuid.UUID   `json:"game_state_id"`

	// Intent-specific fields
	Intent *sim.Intent `json:"intent,omitempty"`

	// Advance-specific fields
	Ticks int `json:"ticks,omitempty"`

	EnqueuedAt time.Time `json:"enqueued_at"`
}

// NewIntentRequest builds a request applying in to a world.
func NewIntentRequest(worldID uuid.UUID, in sim.Intent) *Request {
	return &Request{
		RequestID:   uuid.New().String(),
		Type:        RequestTypeIntent,
		GameStateID: worldID,
		Intent:      &in,
		EnqueuedAt:  time.Now(),
	}
}

// NewAdvanceRequest builds a request stepping a world forward by ticks.
func NewAdvanceRequest(worldID uuid.UUID, ticks int) *Request {
	return &Request{
		RequestID:   uuid.New().String(),
		Type:        RequestTypeAdvance,
		GameStateID: worldID,
		Ticks:       ticks,
		EnqueuedAt:  time.Now(),
	}
}

// MarshalJSON serializes the request to JSON for Redis storage
func (r *Request) MarshalJSON() ([]byte, error) {
	type Alias Request
	return json.Marshal(&struct {
		GameStateID string `json:"game_state_id"`
		*Alias
	}{
		GameStateID: r.GameStateID.String(),
		Alias:       (*Alias)(r),
	})
}

// UnmarshalJSON deserializes the request from JSON in Redis
func (r *Request) UnmarshalJSON(data []byte) error {
	type Alias Request
	aux := &struct {
		GameStateID string `json:"game_state_id"`
		*Alias
	}{
		Alias: (*Alias)(r),
	}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	gameStateID, err := uuid.Parse(aux.GameStateID)
	if err != nil {
		return err
	}

	r.GameStateID = gameStateID
	return nil
}

// ToJSON converts the request to JSON bytes for Redis
func (r *Request) ToJSON() ([]byte, error) {
	return json.Marshal(r)
}

// FromJSON parses a request from JSON bytes
func FromJSON(data []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, err
	}
	return &req, nil
}
