package world

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testMap(t *testing.T) *Map {
	t.Helper()
	m := NewMap()
	for _, id := range []string{"inn", "market", "docks", "temple", "cave"} {
		m.AddLocation(id, id, "")
	}
	require.NoError(t, m.Connect("inn", "market", 1))
	require.NoError(t, m.Connect("market", "docks", 2))
	require.NoError(t, m.Connect("inn", "temple", 2))
	require.NoError(t, m.Connect("temple", "docks", 1))
	return m
}

func TestPath(t *testing.T) {
	m := testMap(t)

	tests := []struct {
		from, to string
		want     []string
		cost     int
	}{
		{"inn", "inn", []string{"inn"}, 0},
		{"inn", "market", []string{"inn", "market"}, 1},
		// both routes cost 3; the cheaper first hop is settled first
		{"inn", "docks", []string{"inn", "market", "docks"}, 3},
		{"temple", "market", []string{"temple", "docks", "market"}, 3},
	}
	for _, tt := range tests {
		path, cost, err := m.Path(tt.from, tt.to)
		require.NoError(t, err)
		assert.Equal(t, tt.want, path, "%s → %s", tt.from, tt.to)
		assert.Equal(t, tt.cost, cost, "%s → %s", tt.from, tt.to)
	}
}

func TestPathErrors(t *testing.T) {
	m := testMap(t)
	if _, _, err := m.Path("inn", "cave"); !errors.Is(err, ErrNoPath) {
		t.Errorf("expected ErrNoPath, got %v", err)
	}
	if _, _, err := m.Path("inn", "moon"); !errors.Is(err, ErrUnknownLocation) {
		t.Errorf("expected ErrUnknownLocation, got %v", err)
	}
	if err := m.Connect("inn", "moon", 1); !errors.Is(err, ErrUnknownLocation) {
		t.Errorf("expected ErrUnknownLocation, got %v", err)
	}
}

func TestConnectMinimumCost(t *testing.T) {
	m := NewMap()
	m.AddLocation("a", "A", "")
	m.AddLocation("b", "B", "")
	require.NoError(t, m.Connect("a", "b", 0))
	_, cost, err := m.Path("a", "b")
	require.NoError(t, err)
	assert.Equal(t, 1, cost)
	assert.Equal(t, []string{"a", "b"}, m.IDs())
}

func TestFlags(t *testing.T) {
	f := NewFlags()
	f.Set("met_mira", 3, "event:intro")
	f.Set("met_mira", 4, "event:intro")
	f.Set("alarm", 5, "")
	f.Clear("alarm", 6, "")
	f.Clear("never", 7, "")

	assert.True(t, f.Has("met_mira"))
	assert.False(t, f.Has("alarm"))
	assert.Equal(t, []string{"met_mira"}, f.Names())
	assert.Len(t, f.History(), 3)

	f.SetVar("bribes", 2)
	f.AddVar("bribes", 3)
	v, ok := f.Var("bribes")
	assert.True(t, ok)
	assert.Equal(t, 5, v)

	restored := RestoreFlags(f.Snapshot())
	assert.Equal(t, f.Names(), restored.Names())
	assert.Equal(t, f.Vars(), restored.Vars())
	assert.Equal(t, f.History(), restored.History())
}
