package world

import (
	"container/heap"
	"errors"
	"fmt"
	"sort"
)

var (
	ErrUnknownLocation = errors.New("unknown location")
	ErrNoPath          = errors.New("no path between locations")
)

// Location is a place in the world with travel times to its neighbours.
type Location struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Exits       map[string]int `json:"exits,omitempty"` // neighbour id → travel time in ticks
}

// Map is the location graph.
type Map struct {
	locations map[string]*Location
}

func NewMap() *Map {
	return &Map{locations: make(map[string]*Location)}
}

// AddLocation registers a location. Re-adding an id replaces its name and description only.
func (m *Map) AddLocation(id, name, description string) {
	if loc, ok := m.locations[id]; ok {
		loc.Name = name
		loc.Description = description
		return
	}
	m.locations[id] = &Location{ID: id, Name: name, Description: description, Exits: map[string]int{}}
}

// Connect links two locations in both directions. Travel time is at least one tick.
func (m *Map) Connect(a, b string, ticks int) error {
	la, ok := m.locations[a]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownLocation, a)
	}
	lb, ok := m.locations[b]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownLocation, b)
	}
	if ticks < 1 {
		ticks = 1
	}
	la.Exits[b] = ticks
	lb.Exits[a] = ticks
	return nil
}

func (m *Map) Has(id string) bool {
	_, ok := m.locations[id]
	return ok
}

func (m *Map) Get(id string) (*Location, bool) {
	loc, ok := m.locations[id]
	return loc, ok
}

// IDs returns all location ids in sorted order.
func (m *Map) IDs() []string {
	ids := make([]string, 0, len(m.locations))
	for id := range m.locations {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Path returns the cheapest route from one location to another, including both ends, and its cost.
// Equal-cost routes resolve by visiting neighbours in id order.
func (m *Map) Path(from, to string) ([]string, int, error) {
	if !m.Has(from) {
		return nil, 0, fmt.Errorf("%w: %s", ErrUnknownLocation, from)
	}
	if !m.Has(to) {
		return nil, 0, fmt.Errorf("%w: %s", ErrUnknownLocation, to)
	}
	if from == to {
		return []string{from}, 0, nil
	}

	dist := map[string]int{from: 0}
	prev := map[string]string{}
	done := map[string]bool{}
	pq := &pathQueue{{id: from}}

	for pq.Len() > 0 {
		cur := heap.Pop(pq).(pathItem)
		if done[cur.id] {
			continue
		}
		done[cur.id] = true
		if cur.id == to {
			break
		}
		loc := m.locations[cur.id]
		neighbours := make([]string, 0, len(loc.Exits))
		for n := range loc.Exits {
			neighbours = append(neighbours, n)
		}
		sort.Strings(neighbours)
		for _, n := range neighbours {
			nd := cur.cost + loc.Exits[n]
			if d, seen := dist[n]; !seen || nd < d {
				dist[n] = nd
				prev[n] = cur.id
				heap.Push(pq, pathItem{id: n, cost: nd})
			}
		}
	}

	if !done[to] {
		return nil, 0, fmt.Errorf("%w: %s to %s", ErrNoPath, from, to)
	}
	path := []string{to}
	for at := to; at != from; {
		at = prev[at]
		path = append(path, at)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path, dist[to], nil
}

type pathItem struct {
	id   string
	cost int
}

type pathQueue []pathItem

func (q pathQueue) Len() int { return len(q) }
func (q pathQueue) Less(i, j int) bool {
	if q[i].cost != q[j].cost {
		return q[i].cost < q[j].cost
	}
	return q[i].id < q[j].id
}
func (q pathQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }
func (q *pathQueue) Push(x any)   { *q = append(*q, x.(pathItem)) }
func (q *pathQueue) Pop() any {
	old := *q
	n := len(old)
	it := old[n-1]
	*q = old[:n-1]
	return it
}
