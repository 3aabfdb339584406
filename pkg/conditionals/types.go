package conditionals

import (
	"errors"
	"fmt"
	"sort"
)

// ErrUnknownPath is returned when a predicate names a state path the view cannot resolve.
var ErrUnknownPath = errors.New("unknown state path")

// Op is the node kind of a predicate tree.
type Op string

const (
	OpAll     Op = "all"     // every child holds (empty is true)
	OpAny     Op = "any"     // at least one child holds
	OpNot     Op = "not"     // single child does not hold
	OpFlag    Op = "flag"    // named flag is set
	OpCompare Op = "compare" // numeric path compared against Value
	OpEquals  Op = "equals"  // text path equals Text
	OpTrue    Op = "true"
)

// Comparator is the relation used by compare nodes.
type Comparator string

const (
	LT Comparator = "<"
	LE Comparator = "<="
	GT Comparator = ">"
	GE Comparator = ">="
	EQ Comparator = "=="
	NE Comparator = "!="
)

// Predicate is a small tagged tree evaluated against a WorldView.
// Paths are dotted names such as "relationship.mira.trust", "npc.mira.location",
// "player.location", "time.slot" or "var.bribes".
type Predicate struct {
	Op       Op          `json:"op" yaml:"op"`
	Children []Predicate `json:"children,omitempty" yaml:"children,omitempty"`
	Flag     string      `json:"flag,omitempty" yaml:"flag,omitempty"`
	Path     string      `json:"path,omitempty" yaml:"path,omitempty"`
	Cmp      Comparator  `json:"cmp,omitempty" yaml:"cmp,omitempty"`
	Value    float64     `json:"value,omitempty" yaml:"value,omitempty"`
	Text     string      `json:"text,omitempty" yaml:"text,omitempty"`
}

// WorldView provides the minimal interface needed to evaluate predicates.
// This avoids import cycles with the simulation package.
type WorldView interface {
	HasFlag(name string) bool
	Number(path string) (float64, error)
	Text(path string) (string, error)
}

func All(children ...Predicate) Predicate { return Predicate{Op: OpAll, Children: children} }
func Any(children ...Predicate) Predicate { return Predicate{Op: OpAny, Children: children} }
func Not(p Predicate) Predicate           { return Predicate{Op: OpNot, Children: []Predicate{p}} }
func Flag(name string) Predicate          { return Predicate{Op: OpFlag, Flag: name} }
func True() Predicate                     { return Predicate{Op: OpTrue} }

func Compare(path string, cmp Comparator, value float64) Predicate {
	return Predicate{Op: OpCompare, Path: path, Cmp: cmp, Value: value}
}

func Equals(path, text string) Predicate {
	return Predicate{Op: OpEquals, Path: path, Text: text}
}

// Evaluate interprets p against view. A nil predicate holds.
func Evaluate(p *Predicate, view WorldView) (bool, error) {
	if p == nil {
		return true, nil
	}
	switch p.Op {
	case OpTrue:
		return true, nil
	case OpAll:
		for i := range p.Children {
			ok, err := Evaluate(&p.Children[i], view)
			if err != nil || !ok {
				return false, err
			}
		}
		return true, nil
	case OpAny:
		for i := range p.Children {
			ok, err := Evaluate(&p.Children[i], view)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil
	case OpNot:
		if len(p.Children) != 1 {
			return false, fmt.Errorf("not node needs exactly one child, has %d", len(p.Children))
		}
		ok, err := Evaluate(&p.Children[0], view)
		return !ok, err
	case OpFlag:
		return view.HasFlag(p.Flag), nil
	case OpCompare:
		v, err := view.Number(p.Path)
		if err != nil {
			return false, err
		}
		return compare(v, p.Cmp, p.Value)
	case OpEquals:
		s, err := view.Text(p.Path)
		if err != nil {
			return false, err
		}
		return s == p.Text, nil
	}
	return false, fmt.Errorf("unknown predicate op %q", p.Op)
}

func compare(v float64, cmp Comparator, target float64) (bool, error) {
	switch cmp {
	case LT:
		return v < target, nil
	case LE:
		return v <= target, nil
	case GT:
		return v > target, nil
	case GE:
		return v >= target, nil
	case EQ, "":
		return v == target, nil
	case NE:
		return v != target, nil
	}
	return false, fmt.Errorf("unknown comparator %q", cmp)
}

// Validate checks the shape of the tree without evaluating it.
func Validate(p *Predicate) error {
	if p == nil {
		return nil
	}
	switch p.Op {
	case OpTrue:
	case OpAll, OpAny:
		for i := range p.Children {
			if err := Validate(&p.Children[i]); err != nil {
				return err
			}
		}
	case OpNot:
		if len(p.Children) != 1 {
			return fmt.Errorf("not node needs exactly one child, has %d", len(p.Children))
		}
		return Validate(&p.Children[0])
	case OpFlag:
		if p.Flag == "" {
			return fmt.Errorf("flag node without a flag name")
		}
	case OpCompare:
		if p.Path == "" {
			return fmt.Errorf("compare node without a path")
		}
		if _, err := compare(0, p.Cmp, 0); err != nil {
			return err
		}
	case OpEquals:
		if p.Path == "" {
			return fmt.Errorf("equals node without a path")
		}
	default:
		return fmt.Errorf("unknown predicate op %q", p.Op)
	}
	return nil
}

// Paths returns the sorted, de-duplicated state paths a tree reads.
func Paths(p *Predicate) []string {
	seen := map[string]bool{}
	walk(p, func(n *Predicate) {
		if n.Path != "" {
			seen[n.Path] = true
		}
	})
	return sortedKeys(seen)
}

// Flags returns the sorted flag names a tree reads.
func Flags(p *Predicate) []string {
	seen := map[string]bool{}
	walk(p, func(n *Predicate) {
		if n.Op == OpFlag && n.Flag != "" {
			seen[n.Flag] = true
		}
	})
	return sortedKeys(seen)
}

func walk(p *Predicate, fn func(*Predicate)) {
	if p == nil {
		return
	}
	fn(p)
	for i := range p.Children {
		walk(&p.Children[i], fn)
	}
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
