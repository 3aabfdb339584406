package event

import (
	"fmt"

	"github.com/jwebster45206/world-engine/pkg/clock"
	"github.com/jwebster45206/world-engine/pkg/conditionals"
)

// Lapse records an event that expired unfired.
type Lapse struct {
	Event       string              `json:"event"`
	Name        string              `json:"name"`
	At          clock.Tick          `json:"at"`
	Deadline    clock.Tick          `json:"deadline"`
	Consequence conditionals.Effect `json:"consequence"`
}

// ExpireDue expires every unfired event whose deadline has passed and applies its
// consequence. Events never fired and never eligible expire too, so each event with a
// deadline ends up either fired or expired. Runs once per day.
func (p *Pool) ExpireDue(now clock.Tick, apply Applier) ([]Lapse, error) {
	var out []Lapse
	for _, id := range p.IDs() {
		d := p.defs[id]
		r := p.runtime[id]
		if r.Expired || r.TriggerCount > 0 {
			continue
		}
		dl := p.deadline(d, r)
		if dl == never || now <= dl {
			continue
		}
		r.Expired = true
		r.ExpiredAt = now
		r.DueAt = never
		l := Lapse{Event: id, Name: d.Name, At: now, Deadline: dl, Consequence: d.Expiry.Consequence}
		p.record(Outcome{Event: id, At: now, Status: Expired})
		p.log.Debug("event expired", "event", id, "deadline", dl)
		out = append(out, l)
		if apply != nil && !l.Consequence.IsEmpty() {
			if err := apply.ApplyEffect(l.Consequence, "expiry:"+id); err != nil {
				return out, fmt.Errorf("event %s: apply expiry consequence: %w", id, err)
			}
		}
	}
	return out, nil
}
