package event

import (
	"log/slog"

	"github.com/jwebster45206/world-engine/pkg/clock"
)

// ContextKind is what a suspended context was doing.
type ContextKind string

const (
	DialogueContext ContextKind = "dialogue"
	ActionContext   ContextKind = "action"
)

// Stack limits.
const (
	MaxStackDepth     = 4
	ActionExpirySlots = 6
)

// Suspended is an interrupted dialogue or long action.
type Suspended struct {
	Kind          ContextKind `json:"kind"`
	ID            string      `json:"id"`
	Label         string      `json:"label,omitempty"`
	NPC           string      `json:"npc,omitempty"`
	Priority      int         `json:"priority"`
	SuspendedAt   clock.Tick  `json:"suspended_at"`
	ExpiresAt     clock.Tick  `json:"expires_at"`
	RemainingDays int         `json:"remaining_days,omitempty"`
	InterruptedBy string      `json:"interrupted_by,omitempty"`
}

// Expired reports whether the context can no longer be resumed.
func (s Suspended) Expired(now clock.Tick) bool {
	return now >= s.ExpiresAt
}

// DialogueExpiry is when a dialogue suspended at now expires: the end of that day.
func DialogueExpiry(now clock.Tick) clock.Tick {
	return clock.DayEnd(now)
}

// ActionExpiry is when an action suspended at now expires.
func ActionExpiry(now clock.Tick) clock.Tick {
	return now + clock.Slots(ActionExpirySlots)
}

// InterruptStack holds suspended contexts, most recent last.
type InterruptStack struct {
	items []Suspended
	log   *slog.Logger
}

func NewInterruptStack(log *slog.Logger) *InterruptStack {
	if log == nil {
		log = slog.Default()
	}
	return &InterruptStack{log: log}
}

// Push suspends a context. When the stack is full the oldest context is dropped.
func (s *InterruptStack) Push(c Suspended) {
	if c.ExpiresAt == 0 {
		switch c.Kind {
		case DialogueContext:
			c.ExpiresAt = DialogueExpiry(c.SuspendedAt)
		default:
			c.ExpiresAt = ActionExpiry(c.SuspendedAt)
		}
	}
	s.items = append(s.items, c)
	if len(s.items) > MaxStackDepth {
		s.log.Warn("interrupt stack full, dropping oldest context", "id", s.items[0].ID, "kind", s.items[0].Kind)
		s.items = s.items[1:]
	}
}

// Peek returns the most recent unexpired context without removing it.
func (s *InterruptStack) Peek(now clock.Tick) (Suspended, bool) {
	for i := len(s.items) - 1; i >= 0; i-- {
		if !s.items[i].Expired(now) {
			return s.items[i], true
		}
	}
	return Suspended{}, false
}

// Pop removes and returns the most recent unexpired context. Expired contexts stay
// until the next Cleanup.
func (s *InterruptStack) Pop(now clock.Tick) (Suspended, bool) {
	for i := len(s.items) - 1; i >= 0; i-- {
		if s.items[i].Expired(now) {
			continue
		}
		c := s.items[i]
		s.items = append(s.items[:i], s.items[i+1:]...)
		return c, true
	}
	return Suspended{}, false
}

// Cleanup discards expired contexts and returns them.
func (s *InterruptStack) Cleanup(now clock.Tick) []Suspended {
	var dropped []Suspended
	kept := s.items[:0]
	for _, c := range s.items {
		if c.Expired(now) {
			s.log.Debug("suspended context expired", "id", c.ID, "kind", c.Kind, "expires_at", c.ExpiresAt)
			dropped = append(dropped, c)
			continue
		}
		kept = append(kept, c)
	}
	s.items = kept
	return dropped
}

func (s *InterruptStack) Len() int { return len(s.items) }

// Items returns a copy of the stack, oldest first.
func (s *InterruptStack) Items() []Suspended {
	return append([]Suspended(nil), s.items...)
}

// RestoreInterruptStack rebuilds a stack from persisted items.
func RestoreInterruptStack(items []Suspended, log *slog.Logger) *InterruptStack {
	s := NewInterruptStack(log)
	s.items = append([]Suspended(nil), items...)
	return s
}
