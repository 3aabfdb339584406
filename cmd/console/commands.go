package main

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/jwebster45206/world-engine/pkg/sim"
)

var errEmptyCommand = errors.New("empty command")

// parseIntent turns a typed command into an intent.
//
//	go <location>
//	talk <npc> [topic...]
//	wait [ticks]
//	rest <days> [label...]
//	resume
//	choose <event> <choice>
func parseIntent(input string) (sim.Intent, error) {
	fields := strings.Fields(strings.ToLower(input))
	if len(fields) == 0 {
		return sim.Intent{}, errEmptyCommand
	}
	verb, args := fields[0], fields[1:]

	switch verb {
	case "go", "move", "walk":
		if len(args) != 1 {
			return sim.Intent{}, fmt.Errorf("usage: go <location>")
		}
		return sim.Intent{Kind: sim.IntentMove, Target: args[0]}, nil

	case "talk":
		if len(args) == 0 {
			return sim.Intent{}, fmt.Errorf("usage: talk <npc> [topic]")
		}
		in := sim.Intent{Kind: sim.IntentTalk, NPC: args[0]}
		if len(args) > 1 {
			topic := args[1:]
			if topic[0] == "about" {
				topic = topic[1:]
			}
			in.Topic = strings.Join(topic, " ")
		}
		return in, nil

	case "wait":
		in := sim.Intent{Kind: sim.IntentWait}
		if len(args) > 0 {
			n, err := strconv.Atoi(args[0])
			if err != nil || n <= 0 {
				return sim.Intent{}, fmt.Errorf("wait takes a positive number of ticks")
			}
			in.Ticks = n
		}
		return in, nil

	case "rest", "work", "travel":
		if len(args) == 0 {
			return sim.Intent{}, fmt.Errorf("usage: %s <days> [label]", verb)
		}
		days, err := strconv.Atoi(args[0])
		if err != nil || days <= 0 {
			return sim.Intent{}, fmt.Errorf("%s takes a positive number of days", verb)
		}
		label := verb
		if len(args) > 1 {
			label = strings.Join(args[1:], " ")
		}
		return sim.Intent{Kind: sim.IntentLongAction, Days: days, Priority: 1, Label: label}, nil

	case "resume":
		return sim.Intent{Kind: sim.IntentResume}, nil

	case "choose":
		if len(args) != 2 {
			return sim.Intent{}, fmt.Errorf("usage: choose <event> <choice>")
		}
		return sim.Intent{Kind: sim.IntentChoose, Event: args[0], Choice: args[1]}, nil
	}
	return sim.Intent{}, fmt.Errorf("unknown command %q, try /help", verb)
}

// describeResult summarizes what happened for the log panel.
func describeResult(res sim.Result, w *sim.World) []string {
	var lines []string
	if len(res.Path) > 1 {
		lines = append(lines, "You walk: "+strings.Join(res.Path, " → "))
	}
	if res.Resumed != nil {
		lines = append(lines, fmt.Sprintf("You pick up where you left off: %s.", labelOr(res.Resumed.Label, res.Resumed.ID)))
	}

	step := res.Step
	for _, f := range step.Fired {
		name := labelOr(f.Name, f.Event)
		line := fmt.Sprintf("[%s] %s", f.Tier, name)
		if len(f.Choices) > 0 {
			var ids []string
			for _, c := range f.Choices {
				ids = append(ids, c.ID)
			}
			line += fmt.Sprintf(" (choose %s: %s)", f.Event, strings.Join(ids, ", "))
		}
		lines = append(lines, line)
	}
	for _, l := range step.Expired {
		lines = append(lines, fmt.Sprintf("Missed: %s.", labelOr(l.Name, l.Event)))
	}
	if step.Interrupted != nil {
		lines = append(lines, fmt.Sprintf("Interrupted by %s.", labelOr(step.Interrupted.Name, step.Interrupted.Event)))
	}
	if res.Long != nil {
		lines = append(lines, fmt.Sprintf("%s: %d of %d days done.", labelOr(res.Long.Label, "long action"), res.Long.CompletedDays, res.Long.Days))
	}

	here := w.Player().Location
	for _, mv := range step.Moves {
		if mv.To == here && mv.From != here {
			lines = append(lines, fmt.Sprintf("%s arrives.", npcName(w, mv.NPC)))
		} else if mv.From == here && mv.To != here {
			lines = append(lines, fmt.Sprintf("%s leaves.", npcName(w, mv.NPC)))
		}
	}
	if step.To != step.From {
		lines = append(lines, "It is now "+w.Time().Display()+".")
	}
	if len(lines) == 0 {
		lines = append(lines, "Nothing much happens.")
	}
	return lines
}

func labelOr(label, fallback string) string {
	if label != "" {
		return label
	}
	return fallback
}

func npcName(w *sim.World, id string) string {
	npc, err := w.NPC(id)
	if err != nil {
		return id
	}
	return npc.Spec.DisplayName()
}

// exits lists the places reachable from the player's location.
func exits(w *sim.World) []string {
	loc, ok := w.Map().Get(w.Player().Location)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(loc.Exits))
	for id := range loc.Exits {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
