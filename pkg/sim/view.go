package sim

import (
	"fmt"
	"strings"

	"github.com/jwebster45206/world-engine/pkg/actor"
	"github.com/jwebster45206/world-engine/pkg/conditionals"
	"github.com/jwebster45206/world-engine/pkg/relationship"
)

// World is the view predicates are evaluated against.
var _ conditionals.WorldView = (*World)(nil)

func (w *World) HasFlag(name string) bool {
	return w.flags.Has(name)
}

// Number resolves numeric paths:
//
//	relationship.<npc>.<dimension>|days_since_interaction|interactions
//	npc.<id>.jealousy|hp|intensity|alive
//	var.<name>                 (unset variables read as zero)
//	time.tick|day|month|year|slot
func (w *World) Number(path string) (float64, error) {
	if name, ok := strings.CutPrefix(path, "var."); ok {
		v, _ := w.flags.Var(name)
		return float64(v), nil
	}
	parts := strings.Split(path, ".")
	switch {
	case parts[0] == "relationship" && len(parts) == 3:
		rel, ok := w.rels[parts[1]]
		if !ok {
			return 0, unknownNPCPath(path)
		}
		switch parts[2] {
		case "days_since_interaction":
			return float64(rel.DaysSinceInteraction), nil
		case "interactions":
			return float64(rel.TotalInteractions), nil
		}
		dim, err := relationship.ParseDimension(parts[2])
		if err != nil {
			break
		}
		v, _ := rel.Get(dim)
		return v, nil
	case parts[0] == "npc" && len(parts) == 3:
		npc, ok := w.npcs[parts[1]]
		if !ok {
			return 0, unknownNPCPath(path)
		}
		switch parts[2] {
		case "jealousy":
			if npc.Jealousy == nil {
				return 0, nil
			}
			return float64(npc.Jealousy.Score), nil
		case "hp":
			return float64(npc.HP()), nil
		case "intensity":
			return float64(npc.Emotion.Intensity), nil
		case "alive":
			if npc.Alive() {
				return 1, nil
			}
			return 0, nil
		}
	case parts[0] == "time" && len(parts) == 2:
		gt := w.clock.Time()
		switch parts[1] {
		case "tick":
			return float64(w.clock.Now()), nil
		case "day":
			return float64(gt.Day), nil
		case "month":
			return float64(gt.Month), nil
		case "year":
			return float64(gt.Year), nil
		case "slot":
			return float64(gt.Slot), nil
		}
	}
	return 0, fmt.Errorf("%w: %s", conditionals.ErrUnknownPath, path)
}

// Text resolves text paths:
//
//	player.location
//	npc.<id>.location|activity|mood|jealousy_state|home
//	time.slot|season
func (w *World) Text(path string) (string, error) {
	parts := strings.Split(path, ".")
	switch {
	case path == "player.location":
		return w.player.Location, nil
	case parts[0] == "npc" && len(parts) == 3:
		npc, ok := w.npcs[parts[1]]
		if !ok {
			return "", unknownNPCPath(path)
		}
		switch parts[2] {
		case "location":
			return npc.Location, nil
		case "activity":
			return npc.Activity, nil
		case "mood":
			return string(npc.Emotion.Mood), nil
		case "home":
			return npc.Spec.Home, nil
		case "jealousy_state":
			if npc.Jealousy == nil {
				return string(actor.JealousyNormal), nil
			}
			return string(npc.Jealousy.State), nil
		}
	case parts[0] == "time" && len(parts) == 2:
		gt := w.clock.Time()
		switch parts[1] {
		case "slot":
			return gt.Slot.String(), nil
		case "season":
			return gt.Season(), nil
		}
	}
	return "", fmt.Errorf("%w: %s", conditionals.ErrUnknownPath, path)
}

func unknownNPCPath(path string) error {
	return fmt.Errorf("%w: %s: %w", conditionals.ErrUnknownPath, path, ErrUnknownNPC)
}
