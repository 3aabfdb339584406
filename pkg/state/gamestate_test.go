package state

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/jwebster45206/world-engine/pkg/clock"
	"github.com/jwebster45206/world-engine/pkg/scenario"
	"github.com/jwebster45206/world-engine/pkg/sim"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDefinition(t *testing.T) *sim.Definition {
	t.Helper()
	s, err := scenario.Load("../../data/scenarios/millbrook.yaml")
	require.NoError(t, err)
	def, err := scenario.Build(s)
	require.NoError(t, err)
	return def
}

func TestNewGameState(t *testing.T) {
	def := sampleDefinition(t)
	w, err := sim.NewWorld(def, sim.Options{})
	require.NoError(t, err)

	gs, err := NewGameState("millbrook.yaml", w)
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, gs.ID)
	assert.Equal(t, "Millbrook", gs.World)
	assert.Equal(t, "millbrook.yaml", gs.Scenario)
	assert.Equal(t, 1, gs.Version)
	assert.Equal(t, def.Start, gs.Tick())
	assert.False(t, gs.CreatedAt.IsZero())
}

func TestCaptureAndOpenResumeTheSameRun(t *testing.T) {
	def := sampleDefinition(t)
	w, err := sim.NewWorld(def, sim.Options{})
	require.NoError(t, err)
	_, err = sim.NewScheduler(w).Step(int(clock.Days(3)))
	require.NoError(t, err)

	gs, err := NewGameState("millbrook.yaml", w)
	require.NoError(t, err)

	// Through JSON, as storage would.
	data, err := json.Marshal(gs)
	require.NoError(t, err)
	var loaded GameState
	require.NoError(t, json.Unmarshal(data, &loaded))

	reopened, err := loaded.Open(sampleDefinition(t), sim.Options{})
	require.NoError(t, err)
	assert.Equal(t, w.Now(), reopened.Now())

	want, err := sim.NewScheduler(w).Step(int(clock.Days(10)))
	require.NoError(t, err)
	got, err := sim.NewScheduler(reopened).Step(int(clock.Days(10)))
	require.NoError(t, err)
	assert.Equal(t, want.Fired, got.Fired)

	require.NoError(t, gs.Capture(w))
	require.NoError(t, loaded.Capture(reopened))
	assert.Equal(t, 2, gs.Version)

	a, err := json.Marshal(gs.Snapshot)
	require.NoError(t, err)
	b, err := json.Marshal(loaded.Snapshot)
	require.NoError(t, err)
	assert.JSONEq(t, string(a), string(b))
}

func TestOpenWithoutSnapshot(t *testing.T) {
	gs := &GameState{ID: uuid.New()}
	_, err := gs.Open(sampleDefinition(t), sim.Options{})
	assert.ErrorIs(t, err, ErrNoSnapshot)
	assert.Equal(t, clock.Tick(0), gs.Tick())
}

func TestOpenRejectsSnapshotOfAnotherWorld(t *testing.T) {
	def := sampleDefinition(t)
	w, err := sim.NewWorld(def, sim.Options{})
	require.NoError(t, err)
	gs, err := NewGameState("millbrook.yaml", w)
	require.NoError(t, err)

	gs.Snapshot.World = "elsewhere"
	_, err = gs.Open(def, sim.Options{})
	assert.ErrorIs(t, err, sim.ErrCorruptState)
}
