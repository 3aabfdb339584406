package clock

import (
	"fmt"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Tick is the absolute time unit of the simulation. Two ticks make one slot.
type Tick int64

const (
	TicksPerSlot  = 2
	SlotsPerDay   = 4
	TicksPerDay   = TicksPerSlot * SlotsPerDay
	DaysPerMonth  = 30
	MonthsPerYear = 12
	TicksPerMonth = TicksPerDay * DaysPerMonth
	TicksPerYear  = TicksPerMonth * MonthsPerYear
)

// Slot is one quarter of a day.
type Slot int

const (
	Morning Slot = iota
	Afternoon
	Evening
	Night
)

var slotNames = [SlotsPerDay]string{"morning", "afternoon", "evening", "night"}

func (s Slot) String() string {
	if s < 0 || int(s) >= SlotsPerDay {
		return fmt.Sprintf("slot(%d)", int(s))
	}
	return slotNames[s]
}

// ParseSlot maps a slot name to its value.
func ParseSlot(name string) (Slot, error) {
	for i, n := range slotNames {
		if n == name {
			return Slot(i), nil
		}
	}
	return 0, fmt.Errorf("unknown slot: %q", name)
}

// MarshalText encodes the slot by name so definitions and snapshots stay readable.
func (s Slot) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Slot) UnmarshalText(b []byte) error {
	v, err := ParseSlot(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

var seasons = [4]string{"spring", "summer", "autumn", "winter"}

// GameTime is the calendar view of an absolute tick. Year, Month and Day are 1-based.
type GameTime struct {
	Year       int  `json:"year"`
	Month      int  `json:"month"`
	Day        int  `json:"day"`
	Slot       Slot `json:"slot"`
	TickInSlot int  `json:"tick_in_slot,omitempty"`
}

// FromAbsolute converts an absolute tick to calendar fields. Negative ticks are treated as zero.
func FromAbsolute(t Tick) GameTime {
	if t < 0 {
		t = 0
	}
	n := int64(t)
	year := n / TicksPerYear
	n %= TicksPerYear
	month := n / TicksPerMonth
	n %= TicksPerMonth
	day := n / TicksPerDay
	n %= TicksPerDay
	return GameTime{
		Year:       int(year) + 1,
		Month:      int(month) + 1,
		Day:        int(day) + 1,
		Slot:       Slot(n / TicksPerSlot),
		TickInSlot: int(n % TicksPerSlot),
	}
}

// ToAbsolute returns the first tick of the given slot.
func ToAbsolute(year, month, day int, slot Slot) Tick {
	return Tick(int64(year-1)*TicksPerYear +
		int64(month-1)*TicksPerMonth +
		int64(day-1)*TicksPerDay +
		int64(slot)*TicksPerSlot)
}

// Absolute is the exact inverse of FromAbsolute.
func (g GameTime) Absolute() Tick {
	return ToAbsolute(g.Year, g.Month, g.Day, g.Slot) + Tick(g.TickInSlot)
}

// Season names the quarter of the year the month falls in.
func (g GameTime) Season() string {
	return seasons[((g.Month-1)/3)%len(seasons)]
}

// Display renders the time for narrative use, e.g. "Year 1, Spring, Day 3, Morning".
func (g GameTime) Display() string {
	title := cases.Title(language.English)
	return fmt.Sprintf("Year %d, %s, Month %d Day %d, %s",
		g.Year, title.String(g.Season()), g.Month, g.Day, title.String(g.Slot.String()))
}

// DayIndex counts whole days since the start of time.
func DayIndex(t Tick) int {
	if t < 0 {
		return 0
	}
	return int(t / TicksPerDay)
}

// Days returns the number of ticks in n days.
func Days(n int) Tick {
	return Tick(n) * TicksPerDay
}

// Slots returns the number of ticks in n slots.
func Slots(n int) Tick {
	return Tick(n) * TicksPerSlot
}

// DayEnd returns the first tick of the day after t.
func DayEnd(t Tick) Tick {
	return Tick(DayIndex(t)+1) * TicksPerDay
}

// BoundaryKind identifies which calendar unit rolled over.
type BoundaryKind int

const (
	SlotBoundary BoundaryKind = iota
	DayBoundary
	MonthBoundary
	YearBoundary
)

func (k BoundaryKind) String() string {
	switch k {
	case SlotBoundary:
		return "slot"
	case DayBoundary:
		return "day"
	case MonthBoundary:
		return "month"
	case YearBoundary:
		return "year"
	}
	return "unknown"
}

// Boundary records a rollover crossed while advancing.
type Boundary struct {
	Kind BoundaryKind `json:"kind"`
	At   Tick         `json:"at"`
	Time GameTime     `json:"time"`
}

// Clock holds the current absolute tick. It has no other state.
type Clock struct {
	now Tick
}

// New returns a clock positioned at start.
func New(start Tick) *Clock {
	if start < 0 {
		start = 0
	}
	return &Clock{now: start}
}

func (c *Clock) Now() Tick {
	return c.now
}

func (c *Clock) Time() GameTime {
	return FromAbsolute(c.now)
}

// Set moves the clock without reporting boundaries. Used when restoring state.
func (c *Clock) Set(t Tick) {
	if t < 0 {
		t = 0
	}
	c.now = t
}

// AdvanceTicks moves the clock forward and returns every boundary crossed, in order.
// For a single tick the slot boundary comes first, then day, month, year.
// A non-positive n is a no-op.
func (c *Clock) AdvanceTicks(n int) []Boundary {
	if n <= 0 {
		return nil
	}
	var crossed []Boundary
	for i := 0; i < n; i++ {
		c.now++
		if c.now%TicksPerSlot != 0 {
			continue
		}
		gt := FromAbsolute(c.now)
		crossed = append(crossed, Boundary{Kind: SlotBoundary, At: c.now, Time: gt})
		if c.now%TicksPerDay != 0 {
			continue
		}
		crossed = append(crossed, Boundary{Kind: DayBoundary, At: c.now, Time: gt})
		if c.now%TicksPerMonth != 0 {
			continue
		}
		crossed = append(crossed, Boundary{Kind: MonthBoundary, At: c.now, Time: gt})
		if c.now%TicksPerYear == 0 {
			crossed = append(crossed, Boundary{Kind: YearBoundary, At: c.now, Time: gt})
		}
	}
	return crossed
}

// CurrentSlotRemaining is the number of ticks until the next slot starts.
func (c *Clock) CurrentSlotRemaining() int {
	return TicksPerSlot - int(c.now%TicksPerSlot)
}
