package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/jwebster45206/world-engine/pkg/clock"
	"github.com/jwebster45206/world-engine/pkg/event"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupBroadcaster(t *testing.T) (*Broadcaster, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	return NewBroadcaster(rdb, logger), rdb
}

func receive(t *testing.T, sub *redis.PubSub) Event {
	t.Helper()
	select {
	case msg := <-sub.Channel():
		var ev Event
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &ev))
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
	}
	return Event{}
}

func TestBroadcasterPublishesToWorldChannel(t *testing.T) {
	b, rdb := setupBroadcaster(t)
	ctx := context.Background()
	worldID := uuid.New()

	sub := rdb.Subscribe(ctx, Channel(worldID))
	defer sub.Close()
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	require.NoError(t, b.PublishRequestProcessing(ctx, worldID, "req-1", "intent"))
	ev := receive(t, sub)
	assert.Equal(t, EventTypeRequestProcessing, ev.Type)
	assert.Equal(t, "req-1", ev.RequestID)
	assert.Equal(t, worldID.String(), ev.WorldID)
	assert.Equal(t, "intent", ev.Data["type"])

	fired := event.Fired{Event: "storm", Name: "A storm rolls in", Tier: event.Critical, At: clock.Days(2)}
	require.NoError(t, b.PublishEventFired(ctx, worldID, "req-1", fired))
	ev = receive(t, sub)
	assert.Equal(t, EventTypeEventFired, ev.Type)
	assert.Equal(t, "storm", ev.Data["event"])
	assert.Equal(t, float64(clock.Days(2)), ev.Data["at"])

	require.NoError(t, b.PublishTimeAdvanced(ctx, worldID, 0, clock.Days(1), "square"))
	ev = receive(t, sub)
	assert.Equal(t, EventTypeTimeAdvanced, ev.Type)
	assert.Equal(t, "square", ev.Data["location"])
	assert.Equal(t, clock.FromAbsolute(clock.Days(1)).Display(), ev.Data["time"])

	require.NoError(t, b.PublishRequestFailed(ctx, worldID, "req-2", "boom"))
	ev = receive(t, sub)
	assert.Equal(t, EventTypeRequestFailed, ev.Type)
	assert.Equal(t, "boom", ev.Data["error"])
}

func TestBroadcasterIgnoresOtherWorlds(t *testing.T) {
	b, rdb := setupBroadcaster(t)
	ctx := context.Background()
	mine, other := uuid.New(), uuid.New()

	sub := rdb.Subscribe(ctx, Channel(mine))
	defer sub.Close()
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	require.NoError(t, b.PublishRequestQueued(ctx, other, "req-other", "advance"))
	require.NoError(t, b.PublishRequestQueued(ctx, mine, "req-mine", "advance"))

	ev := receive(t, sub)
	assert.Equal(t, "req-mine", ev.RequestID)
}
