package world

import (
	"sort"

	"github.com/jwebster45206/world-engine/pkg/clock"
)

// FlagChange is one entry in the flag history.
type FlagChange struct {
	Flag   string     `json:"flag"`
	Set    bool       `json:"set"`
	At     clock.Tick `json:"at"`
	Source string     `json:"source,omitempty"`
}

// Flags is the set of boolean story flags plus named integer variables.
type Flags struct {
	set     map[string]bool
	vars    map[string]int
	history []FlagChange
}

func NewFlags() *Flags {
	return &Flags{set: map[string]bool{}, vars: map[string]int{}}
}

// Set raises a flag. Setting a flag that is already set is not recorded again.
func (f *Flags) Set(name string, at clock.Tick, source string) {
	if f.set[name] {
		return
	}
	f.set[name] = true
	f.history = append(f.history, FlagChange{Flag: name, Set: true, At: at, Source: source})
}

// Clear lowers a flag. Clearing an unset flag is not recorded.
func (f *Flags) Clear(name string, at clock.Tick, source string) {
	if !f.set[name] {
		return
	}
	delete(f.set, name)
	f.history = append(f.history, FlagChange{Flag: name, Set: false, At: at, Source: source})
}

func (f *Flags) Has(name string) bool {
	return f.set[name]
}

// Names returns the raised flags in sorted order.
func (f *Flags) Names() []string {
	out := make([]string, 0, len(f.set))
	for k := range f.set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// History returns a copy of every recorded change, oldest first.
func (f *Flags) History() []FlagChange {
	return append([]FlagChange(nil), f.history...)
}

func (f *Flags) Var(name string) (int, bool) {
	v, ok := f.vars[name]
	return v, ok
}

func (f *Flags) SetVar(name string, v int) {
	f.vars[name] = v
}

func (f *Flags) AddVar(name string, d int) {
	f.vars[name] += d
}

// Vars returns a copy of the variables.
func (f *Flags) Vars() map[string]int {
	out := make(map[string]int, len(f.vars))
	for k, v := range f.vars {
		out[k] = v
	}
	return out
}

// FlagsState is the persisted form of Flags.
type FlagsState struct {
	Set     []string       `json:"set,omitempty"`
	Vars    map[string]int `json:"vars,omitempty"`
	History []FlagChange   `json:"history,omitempty"`
}

func (f *Flags) Snapshot() FlagsState {
	return FlagsState{Set: f.Names(), Vars: f.Vars(), History: f.History()}
}

func RestoreFlags(s FlagsState) *Flags {
	f := NewFlags()
	for _, n := range s.Set {
		f.set[n] = true
	}
	for k, v := range s.Vars {
		f.vars[k] = v
	}
	f.history = append(f.history, s.History...)
	return f
}
