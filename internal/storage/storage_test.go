package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/jwebster45206/world-engine/pkg/memory"
	"github.com/jwebster45206/world-engine/pkg/scenario"
	"github.com/jwebster45206/world-engine/pkg/sim"
	"github.com/jwebster45206/world-engine/pkg/state"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStorage(t *testing.T, ttl time.Duration) (*RedisStorage, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewRedisStorageWithClient(rdb, "../../data", ttl, nil), mr
}

func newGameState(t *testing.T, r *RedisStorage) *state.GameState {
	t.Helper()
	s, err := r.GetScenario(context.Background(), "millbrook.yaml")
	require.NoError(t, err)
	def, err := scenario.Build(s)
	require.NoError(t, err)
	w, err := sim.NewWorld(def, sim.Options{})
	require.NoError(t, err)
	gs, err := state.NewGameState(s.FileName, w)
	require.NoError(t, err)
	return gs
}

func TestGameStateRoundTrip(t *testing.T) {
	r, mr := newTestStorage(t, time.Hour)
	ctx := context.Background()
	gs := newGameState(t, r)

	require.NoError(t, r.Ping(ctx))
	require.NoError(t, r.SaveGameState(ctx, gs.ID, gs))
	assert.Equal(t, time.Hour, mr.TTL("gamestate:"+gs.ID.String()))

	loaded, err := r.LoadGameState(ctx, gs.ID)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, gs.ID, loaded.ID)
	assert.Equal(t, gs.Snapshot.Tick, loaded.Snapshot.Tick)
	assert.Equal(t, gs.Snapshot.Relationships["mara"].Trust, loaded.Snapshot.Relationships["mara"].Trust)

	ids, err := r.ListGameStates(ctx)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{gs.ID}, ids)

	require.NoError(t, r.DeleteGameState(ctx, gs.ID))
	loaded, err = r.LoadGameState(ctx, gs.ID)
	require.NoError(t, err)
	assert.Nil(t, loaded, "deleted world should read as not found")
}

func TestGameStateWithoutTTL(t *testing.T) {
	r, mr := newTestStorage(t, 0)
	gs := newGameState(t, r)
	require.NoError(t, r.SaveGameState(context.Background(), gs.ID, gs))
	assert.Equal(t, time.Duration(0), mr.TTL("gamestate:"+gs.ID.String()))
}

func TestLoadCorruptGameState(t *testing.T) {
	r, mr := newTestStorage(t, 0)
	id := uuid.New()
	require.NoError(t, mr.Set("gamestate:"+id.String(), "{not json"))

	_, err := r.LoadGameState(context.Background(), id)
	assert.Error(t, err)
}

func TestScenarios(t *testing.T) {
	r, _ := newTestStorage(t, 0)
	ctx := context.Background()

	list, err := r.ListScenarios(ctx)
	require.NoError(t, err)
	assert.Equal(t, "millbrook.yaml", list["Millbrook"])

	_, err = r.GetScenario(ctx, "missing.yaml")
	assert.True(t, errors.Is(err, ErrScenarioNotFound), "got %v", err)

	_, err = r.GetScenario(ctx, "../scenarios/millbrook.yaml")
	assert.ErrorIs(t, err, ErrScenarioNotFound)
}

func TestListScenariosSkipsBrokenFiles(t *testing.T) {
	dir := t.TempDir()
	scenarios := filepath.Join(dir, "scenarios")
	require.NoError(t, os.MkdirAll(scenarios, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(scenarios, "broken.json"), []byte("{"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(scenarios, "notes.txt"), []byte("ignore me"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(scenarios, "tiny.json"),
		[]byte(`{"name": "Tiny", "locations": {"hut": {"name": "Hut"}}, "player": {"name": "Sam"}}`), 0o644))

	mr := miniredis.RunT(t)
	r := NewRedisStorageWithClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}), dir, 0, nil)
	list, err := r.ListScenarios(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"Tiny": "tiny.json"}, list)
}

func TestArchive(t *testing.T) {
	ctx := context.Background()
	a, err := OpenArchive(filepath.Join(t.TempDir(), "nested", "archive.db"))
	require.NoError(t, err)
	defer a.Close()

	world, other := uuid.New(), uuid.New()
	require.NoError(t, a.Put(ctx, world, "mara", 80, []memory.Entry{
		{ID: "m1", Summary: "Served the miller", Importance: 2, Tags: []string{"work"}},
		{ID: "m2", Summary: "Swept the floor", Importance: 1},
	}))
	require.NoError(t, a.For(ctx, world).ArchiveMemories("tomas", 160, []memory.Entry{{ID: "t1", Summary: "Read all night"}}))
	require.NoError(t, a.Put(ctx, other, "mara", 8, []memory.Entry{{ID: "x", Summary: "elsewhere"}}))
	require.NoError(t, a.Put(ctx, world, "mara", 90, nil))

	all, err := a.List(ctx, world, "", 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "t1", all[0].Entry.ID, "most recent compression first")

	mara, err := a.List(ctx, world, "mara", 1)
	require.NoError(t, err)
	require.Len(t, mara, 1)
	assert.Equal(t, "mara", mara[0].NPC)
	assert.EqualValues(t, 80, mara[0].ArchivedAt)
	assert.Equal(t, world, mara[0].WorldID)

	n, err := a.DeleteWorld(ctx, world)
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)

	rest, err := a.List(ctx, other, "", 0)
	require.NoError(t, err)
	assert.Len(t, rest, 1)
}
