package actor

import (
	"errors"
	"fmt"
)

var ErrUnknownTrigger = errors.New("unknown jealousy trigger")

// JealousyState is a band of the jealousy score.
type JealousyState string

const (
	JealousyNormal    JealousyState = "normal"
	JealousyUneasy    JealousyState = "uneasy"
	JealousyResentful JealousyState = "resentful"
	JealousyDangerous JealousyState = "dangerous"
	JealousyBreaking  JealousyState = "breaking"
)

// jealousyBands are the lower bounds of each state, ascending.
var jealousyBands = []struct {
	min   int
	state JealousyState
}{
	{0, JealousyNormal},
	{30, JealousyUneasy},
	{50, JealousyResentful},
	{70, JealousyDangerous},
	{90, JealousyBreaking},
}

// JealousyTriggers are the named deltas the machine reacts to.
var JealousyTriggers = map[string]int{
	"rival_praised":      10,
	"rival_breakthrough": 15,
	"rival_gift":         8,
	"player_ignores":     5,
	"player_concern":     -5,
	"player_reassures":   -10,
	"monthly_decay":      -2,
}

// StateFor returns the state for a score.
func StateFor(score int) JealousyState {
	state := JealousyNormal
	for _, b := range jealousyBands {
		if score >= b.min {
			state = b.state
		}
	}
	return state
}

func bandIndex(s JealousyState) int {
	for i, b := range jealousyBands {
		if b.state == s {
			return i
		}
	}
	return 0
}

// SideEffectKind is what a state crossing asks the world to do.
type SideEffectKind string

const (
	UnlockEvent  SideEffectKind = "unlock_event"
	AvoidPlayer  SideEffectKind = "avoid_player"
	StopAvoiding SideEffectKind = "stop_avoiding"
	SetFlag      SideEffectKind = "set_flag"
	ClearFlag    SideEffectKind = "clear_flag"
)

// SideEffect is emitted once per state boundary crossed.
type SideEffect struct {
	Kind  SideEffectKind `json:"kind"`
	NPC   string         `json:"npc"`
	Event string         `json:"event,omitempty"`
	Flag  string         `json:"flag,omitempty"`
	From  JealousyState  `json:"from"`
	To    JealousyState  `json:"to"`
}

// JealousyConfig names the events and flag the side effects refer to.
// Empty event ids skip the unlock.
type JealousyConfig struct {
	UneasyEvent    string `json:"uneasy_event,omitempty" yaml:"uneasy_event,omitempty"`
	DangerousEvent string `json:"dangerous_event,omitempty" yaml:"dangerous_event,omitempty"`
	BreakingEvent  string `json:"breaking_event,omitempty" yaml:"breaking_event,omitempty"`
	VulnerableFlag string `json:"vulnerable_flag,omitempty" yaml:"vulnerable_flag,omitempty"`
}

// Jealousy is the jealousy state machine of one NPC. It only reacts to deltas;
// the monthly decay arrives as the "monthly_decay" trigger.
type Jealousy struct {
	NPC    string         `json:"npc"`
	Score  int            `json:"score"`
	State  JealousyState  `json:"state"`
	Config JealousyConfig `json:"config"`
}

// NewJealousy starts the machine at score, clamped to [0,100].
func NewJealousy(npc string, score int, cfg JealousyConfig) *Jealousy {
	if cfg.VulnerableFlag == "" {
		cfg.VulnerableFlag = npc + "_vulnerable"
	}
	score = clampScore(score)
	return &Jealousy{NPC: npc, Score: score, State: StateFor(score), Config: cfg}
}

// Apply feeds a named trigger.
func (j *Jealousy) Apply(trigger string) ([]SideEffect, error) {
	delta, ok := JealousyTriggers[trigger]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTrigger, trigger)
	}
	return j.ApplyDelta(delta), nil
}

// ApplyDelta changes the score and returns the side effects of every boundary crossed,
// in crossing order.
func (j *Jealousy) ApplyDelta(delta int) []SideEffect {
	j.Score = clampScore(j.Score + delta)
	next := StateFor(j.Score)
	if next == j.State {
		return nil
	}
	from, to := bandIndex(j.State), bandIndex(next)
	var out []SideEffect
	if to > from {
		for i := from + 1; i <= to; i++ {
			out = append(out, j.entering(jealousyBands[i-1].state, jealousyBands[i].state)...)
		}
	} else {
		for i := from; i > to; i-- {
			out = append(out, j.leaving(jealousyBands[i].state, jealousyBands[i-1].state)...)
		}
	}
	j.State = next
	return out
}

func (j *Jealousy) entering(from, to JealousyState) []SideEffect {
	base := SideEffect{NPC: j.NPC, From: from, To: to}
	unlock := func(id string) []SideEffect {
		if id == "" {
			return nil
		}
		e := base
		e.Kind, e.Event = UnlockEvent, id
		return []SideEffect{e}
	}
	switch to {
	case JealousyUneasy:
		return unlock(j.Config.UneasyEvent)
	case JealousyResentful:
		e := base
		e.Kind = AvoidPlayer
		return []SideEffect{e}
	case JealousyDangerous:
		e := base
		e.Kind, e.Flag = SetFlag, j.Config.VulnerableFlag
		return append(unlock(j.Config.DangerousEvent), e)
	case JealousyBreaking:
		return unlock(j.Config.BreakingEvent)
	}
	return nil
}

func (j *Jealousy) leaving(from, to JealousyState) []SideEffect {
	base := SideEffect{NPC: j.NPC, From: from, To: to}
	switch from {
	case JealousyResentful:
		base.Kind = StopAvoiding
		return []SideEffect{base}
	case JealousyDangerous:
		base.Kind, base.Flag = ClearFlag, j.Config.VulnerableFlag
		return []SideEffect{base}
	}
	return nil
}

func clampScore(v int) int {
	return max(0, min(100, v))
}
