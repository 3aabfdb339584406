package sim

import (
	"fmt"

	"github.com/jwebster45206/world-engine/pkg/actor"
	"github.com/jwebster45206/world-engine/pkg/clock"
	"github.com/jwebster45206/world-engine/pkg/conditionals"
	"github.com/jwebster45206/world-engine/pkg/event"
	"github.com/jwebster45206/world-engine/pkg/world"
)

// IntentKind is a structured player action.
type IntentKind string

const (
	IntentMove       IntentKind = "move"
	IntentTalk       IntentKind = "talk"
	IntentWait       IntentKind = "wait"
	IntentLongAction IntentKind = "long_action"
	IntentResume     IntentKind = "resume"
	IntentChoose     IntentKind = "choose"
	IntentEffect     IntentKind = "effect" // structured change proposed by the narrative layer
)

// Intent is one player action, already parsed.
type Intent struct {
	Kind     IntentKind           `json:"kind"`
	Target   string               `json:"target,omitempty"` // move destination
	NPC      string               `json:"npc,omitempty"`
	Topic    string               `json:"topic,omitempty"`
	Ticks    int                  `json:"ticks,omitempty"`
	Days     int                  `json:"days,omitempty"`
	Priority int                  `json:"priority,omitempty"`
	Label    string               `json:"label,omitempty"`
	Event    string               `json:"event,omitempty"`
	Choice   string               `json:"choice,omitempty"`
	Effect   *conditionals.Effect `json:"effect,omitempty"`
}

// Result is the outcome of applying an intent.
type Result struct {
	Intent  Intent           `json:"intent"`
	Step    StepResult       `json:"step"`
	Path    []string         `json:"path,omitempty"`
	Long    *LongResult      `json:"long,omitempty"`
	Resumed *event.Suspended `json:"resumed,omitempty"`
}

// LongResult is the outcome of a multi-day action. When interrupted, the days completed
// so far stand and the remainder is suspended on the interrupt stack.
type LongResult struct {
	ID                string       `json:"id"`
	Label             string       `json:"label,omitempty"`
	Days              int          `json:"days"`
	CompletedDays     int          `json:"completed_days"`
	InterruptingEvent *event.Fired `json:"interrupting_event,omitempty"`
}

// Apply carries out a player intent and advances time accordingly.
func (s *Scheduler) Apply(in Intent) (Result, error) {
	w := s.w
	res := Result{Intent: in, Step: StepResult{From: w.clock.Now(), To: w.clock.Now()}}
	var err error

	switch in.Kind {
	case IntentMove:
		err = s.move(in.Target, &res)
	case IntentTalk:
		err = s.talk(in.NPC, in.Topic, &res)
	case IntentWait:
		w.endDialogue()
		ticks := in.Ticks
		if ticks <= 0 {
			ticks = clock.TicksPerSlot
		}
		res.Step, err = s.Step(ticks)
	case IntentLongAction:
		w.endDialogue()
		var long LongResult
		long, res.Step, err = s.LongAction(in.Days, in.Priority, in.Label)
		res.Long = &long
	case IntentResume:
		err = s.resume(&res)
	case IntentChoose:
		var eff conditionals.Effect
		eff, err = w.pool.ResolveChoice(in.Event, in.Choice, w.clock.Now())
		if err == nil {
			err = w.ApplyEffect(eff, "choice:"+in.Event+"/"+in.Choice)
		}
	case IntentEffect:
		if in.Effect == nil {
			return res, fmt.Errorf("effect intent without an effect")
		}
		err = w.ApplyEffect(*in.Effect, "narrative")
	default:
		return res, fmt.Errorf("%w: %q", ErrUnknownIntent, in.Kind)
	}
	if err != nil {
		return res, fmt.Errorf("intent %s: %w", in.Kind, err)
	}
	return res, nil
}

// move walks the cheapest path, spending each leg's travel time before arriving.
func (s *Scheduler) move(target string, res *Result) error {
	w := s.w
	path, _, err := w.locations.Path(w.player.Location, target)
	if err != nil {
		return err
	}
	w.endDialogue()
	res.Path = path
	for i := 1; i < len(path); i++ {
		from, _ := w.locations.Get(path[i-1])
		step, err := s.Step(from.Exits[path[i]])
		res.Step.merge(step)
		if err != nil {
			return err
		}
		w.player.Location = path[i]
	}
	return nil
}

// talk opens a dialogue with an NPC at the player's location. The NPC remembers it,
// a jealous NPC is soothed, and jealous bystanders feel ignored.
func (s *Scheduler) talk(npcID, topic string, res *Result) error {
	w := s.w
	npc, err := w.NPC(npcID)
	if err != nil {
		return err
	}
	if !npc.Alive() {
		return fmt.Errorf("%w: %s", actor.ErrDead, npcID)
	}
	if npc.Location != w.player.Location {
		return fmt.Errorf("%w: %s is at %s", ErrNotPresent, npcID, npc.Location)
	}

	summary := "Talked with " + w.player.Spec.Name
	if w.player.Spec.Name == "" {
		summary = "Talked with the player"
	}
	tags := []string{"player", "talk"}
	if topic != "" {
		summary += " about " + topic
		tags = append(tags, topic)
	}
	eff := conditionals.Effect{
		Memories: []conditionals.MemoryNote{{NPC: npcID, Summary: summary, Importance: 2, Emotion: 1, Tags: tags}},
	}
	if npc.Jealousy != nil {
		eff.Jealousy = append(eff.Jealousy, conditionals.JealousyEvent{NPC: npcID, Trigger: "player_concern"})
	}
	for _, other := range w.NPCsAt(w.player.Location) {
		if other != npcID && w.npcs[other].Jealousy != nil {
			eff.Jealousy = append(eff.Jealousy, conditionals.JealousyEvent{NPC: other, Trigger: "player_ignores"})
		}
	}
	if err := w.ApplyEffect(eff, "talk:"+npcID); err != nil {
		return err
	}
	w.rels[npcID].Interact()

	w.active = &Activity{
		Kind:      event.DialogueContext,
		ID:        "talk:" + npcID,
		Label:     topic,
		NPC:       npcID,
		Priority:  DialoguePriority,
		StartedAt: w.clock.Now(),
	}
	res.Step, err = s.Step(1)
	return err
}

func (s *Scheduler) resume(res *Result) error {
	w := s.w
	c, ok := w.interrupts.Pop(w.clock.Now())
	if !ok {
		return ErrNothingToResume
	}
	res.Resumed = &c
	if c.Kind == event.DialogueContext {
		npc, err := w.NPC(c.NPC)
		if err != nil {
			return err
		}
		if !npc.Alive() || npc.Location != w.player.Location {
			return fmt.Errorf("%w: %s", ErrNotPresent, c.NPC)
		}
		w.active = &Activity{
			Kind: event.DialogueContext, ID: c.ID, Label: c.Label, NPC: c.NPC,
			Priority: c.Priority, StartedAt: w.clock.Now(),
		}
		return nil
	}
	long, step, err := s.longAction(c.ID, c.RemainingDays, c.Priority, c.Label)
	res.Long = &long
	res.Step = step
	return err
}

// LongAction runs a multi-day action one simulated day at a time. After each day it
// checks whether an event interrupted it; if so it stops there, returning the days
// completed and the interrupting event, and suspends the rest.
func (s *Scheduler) LongAction(days, priority int, label string) (LongResult, StepResult, error) {
	id := fmt.Sprintf("action:%s@%d", label, s.w.clock.Now())
	return s.longAction(id, days, priority, label)
}

func (s *Scheduler) longAction(id string, days, priority int, label string) (LongResult, StepResult, error) {
	w := s.w
	out := LongResult{ID: id, Label: label, Days: days}
	total := StepResult{From: w.clock.Now(), To: w.clock.Now()}
	if days <= 0 {
		return out, total, nil
	}

	w.active = &Activity{
		Kind: event.ActionContext, ID: id, Label: label,
		Priority: priority, StartedAt: w.clock.Now(), Days: days,
	}
	defer func() { w.active = nil }()

	for day := 1; day <= days; day++ {
		step, err := s.Step(clock.TicksPerDay)
		total.merge(step)
		if err != nil {
			return out, total, err
		}
		out.CompletedDays = day
		w.active.Completed = day

		if step.Interrupted != nil {
			f := *step.Interrupted
			out.InterruptingEvent = &f
			if remaining := days - day; remaining > 0 {
				w.interrupts.Push(event.Suspended{
					Kind:          event.ActionContext,
					ID:            id,
					Label:         label,
					Priority:      priority,
					SuspendedAt:   w.clock.Now(),
					RemainingDays: remaining,
					InterruptedBy: f.Event,
				})
			}
			s.log.Info("long action interrupted", "action", label, "completed_days", day, "event", f.Event)
			return out, total, nil
		}
	}
	return out, total, nil
}

func (w *World) endDialogue() {
	if w.active != nil && w.active.Kind == event.DialogueContext {
		w.active = nil
	}
}

// Travel reports the route and cost between two locations without moving.
func (w *World) Travel(from, to string) ([]string, int, error) {
	if !w.locations.Has(from) {
		return nil, 0, fmt.Errorf("%w: %s", world.ErrUnknownLocation, from)
	}
	return w.locations.Path(from, to)
}
