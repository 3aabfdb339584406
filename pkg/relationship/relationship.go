package relationship

import (
	"errors"
	"fmt"
	"math"

	"github.com/jwebster45206/world-engine/pkg/clock"
)

// ErrUnknownDimension is returned for a dimension name outside the five tracked ones.
var ErrUnknownDimension = errors.New("unknown relationship dimension")

// Dimension names one axis of an NPC's relationship to the player.
type Dimension string

const (
	Trust     Dimension = "trust"
	Affection Dimension = "affection"
	Respect   Dimension = "respect"
	Fear      Dimension = "fear"
	Debt      Dimension = "debt" // signed favours and grudges, never decays
)

// Decaying lists the dimensions pulled toward Baseline over time, in a fixed order.
var Decaying = []Dimension{Trust, Affection, Respect, Fear}

const (
	Baseline     = 50.0
	MaxDelta     = 20.0
	HistoryLimit = 50
)

// Rates are monthly decay amounts per dimension.
type Rates map[Dimension]float64

// DefaultRates returns the standard monthly decay.
func DefaultRates() Rates {
	return Rates{Trust: 5, Affection: 4, Respect: 2, Fear: 8}
}

// ParseDimension validates a dimension name.
func ParseDimension(s string) (Dimension, error) {
	switch d := Dimension(s); d {
	case Trust, Affection, Respect, Fear, Debt:
		return d, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownDimension, s)
}

// Change is one recorded event-driven change.
type Change struct {
	Dimension Dimension  `json:"dimension"`
	Requested float64    `json:"requested"`
	Applied   float64    `json:"applied"`
	At        clock.Tick `json:"at"`
	Reason    string     `json:"reason,omitempty"`
}

// Relationship is one NPC's standing with the player.
type Relationship struct {
	Trust     float64 `json:"trust"`
	Affection float64 `json:"affection"`
	Respect   float64 `json:"respect"`
	Fear      float64 `json:"fear"`
	Debt      float64 `json:"debt"`

	Rates Rates `json:"rates,omitempty"`

	// decay moved so far in the current month and the days it covers
	MonthAccrued map[Dimension]float64 `json:"month_accrued,omitempty"`
	MonthDays    int                   `json:"month_days,omitempty"`

	DaysSinceInteraction int      `json:"days_since_interaction"`
	TotalInteractions    int      `json:"total_interactions"`
	History              []Change `json:"history,omitempty"`
}

// New returns a neutral relationship with default decay rates.
func New() *Relationship {
	return &Relationship{
		Trust:        Baseline,
		Affection:    Baseline,
		Respect:      Baseline,
		Fear:         Baseline,
		Rates:        DefaultRates(),
		MonthAccrued: map[Dimension]float64{},
	}
}

// Get returns the value of a dimension.
func (r *Relationship) Get(d Dimension) (float64, error) {
	switch d {
	case Trust:
		return r.Trust, nil
	case Affection:
		return r.Affection, nil
	case Respect:
		return r.Respect, nil
	case Fear:
		return r.Fear, nil
	case Debt:
		return r.Debt, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownDimension, d)
}

func (r *Relationship) set(d Dimension, v float64) {
	switch d {
	case Trust:
		r.Trust = v
	case Affection:
		r.Affection = v
	case Respect:
		r.Respect = v
	case Fear:
		r.Fear = v
	case Debt:
		r.Debt = v
	}
}

// Set assigns a dimension directly, used for starting values. Decaying dimensions clamp to [0,100].
func (r *Relationship) Set(d Dimension, v float64) error {
	if _, err := r.Get(d); err != nil {
		return err
	}
	if d != Debt {
		v = clamp(v, 0, 100)
	}
	r.set(d, v)
	return nil
}

// ApplyDelta applies an event-driven change and returns the amount actually applied.
// Decaying dimensions clamp the delta to ±MaxDelta and the value to [0,100]; debt is unclamped.
func (r *Relationship) ApplyDelta(d Dimension, delta float64, at clock.Tick, reason string) (float64, error) {
	cur, err := r.Get(d)
	if err != nil {
		return 0, err
	}
	next := cur + delta
	if d != Debt {
		next = clamp(cur+clamp(delta, -MaxDelta, MaxDelta), 0, 100)
	}
	r.set(d, next)

	applied := next - cur
	r.History = append(r.History, Change{Dimension: d, Requested: delta, Applied: applied, At: at, Reason: reason})
	if len(r.History) > HistoryLimit {
		r.History = append([]Change(nil), r.History[len(r.History)-HistoryLimit:]...)
	}
	return applied, nil
}

// Interact marks a direct interaction with the player.
func (r *Relationship) Interact() {
	r.DaysSinceInteraction = 0
	r.TotalInteractions++
}

// DecayDaily moves each decaying dimension toward Baseline by a thirtieth of its monthly rate.
// It runs every day whether or not the player interacted.
func (r *Relationship) DecayDaily() {
	if r.MonthAccrued == nil {
		r.MonthAccrued = map[Dimension]float64{}
	}
	for _, d := range Decaying {
		step := r.rate(d) / float64(clock.DaysPerMonth)
		r.MonthAccrued[d] += r.moveTowardBaseline(d, step)
	}
	r.MonthDays++
	r.DaysSinceInteraction++
}

// DecayMonthly settles the month. Decay for the days covered this month totals exactly
// rate × days/30; whatever the daily passes left short is applied now, then the month resets.
func (r *Relationship) DecayMonthly() {
	days := r.MonthDays
	if days == 0 {
		days = clock.DaysPerMonth
	}
	for _, d := range Decaying {
		owed := r.rate(d)*float64(days)/float64(clock.DaysPerMonth) - r.MonthAccrued[d]
		if owed > 0 {
			r.moveTowardBaseline(d, owed)
		}
	}
	r.MonthAccrued = map[Dimension]float64{}
	r.MonthDays = 0
}

func (r *Relationship) rate(d Dimension) float64 {
	if r.Rates != nil {
		if v, ok := r.Rates[d]; ok {
			return v
		}
	}
	return DefaultRates()[d]
}

// moveTowardBaseline moves d by at most step toward Baseline without crossing it.
func (r *Relationship) moveTowardBaseline(d Dimension, step float64) float64 {
	cur, _ := r.Get(d)
	gap := math.Abs(cur - Baseline)
	if gap < 1e-9 || step <= 0 {
		if gap < 1e-9 {
			r.set(d, Baseline)
		}
		return 0
	}
	moved := math.Min(step, gap)
	if cur > Baseline {
		r.set(d, cur-moved)
	} else {
		r.set(d, cur+moved)
	}
	return moved
}

// Factor is the relationship-derived modifier in [-0.5, 0.5].
func (r *Relationship) Factor(d Dimension) float64 {
	v, err := r.Get(d)
	if err != nil {
		return 0
	}
	if d == Debt {
		return clamp(v/100, -0.5, 0.5)
	}
	return (v - Baseline) / 100
}

// Score is a centered composite of the warm dimensions, roughly in [-125, 125].
func (r *Relationship) Score() float64 {
	return (r.Trust - Baseline) + (r.Affection - Baseline) + 0.5*(r.Respect-Baseline)
}

// Label is the qualitative standing handed to the narrative layer instead of raw numbers.
func (r *Relationship) Label() string {
	if r.Fear >= 75 && r.Fear-Baseline > r.Score() {
		return "fearful"
	}
	s := r.Score()
	switch {
	case s < -60:
		return "hostile"
	case s < -30:
		return "cold"
	case s < -10:
		return "wary"
	case s < 10:
		return "neutral"
	case s < 30:
		return "warm"
	case s < 60:
		return "close"
	}
	return "devoted"
}

// Clone returns a deep copy.
func (r *Relationship) Clone() *Relationship {
	c := *r
	c.Rates = make(Rates, len(r.Rates))
	for k, v := range r.Rates {
		c.Rates[k] = v
	}
	c.MonthAccrued = make(map[Dimension]float64, len(r.MonthAccrued))
	for k, v := range r.MonthAccrued {
		c.MonthAccrued[k] = v
	}
	c.History = append([]Change(nil), r.History...)
	return &c
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
