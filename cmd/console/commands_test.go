package main

import (
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/jwebster45206/world-engine/pkg/clock"
	"github.com/jwebster45206/world-engine/pkg/scenario"
	"github.com/jwebster45206/world-engine/pkg/sim"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseIntent(t *testing.T) {
	tests := []struct {
		input   string
		want    sim.Intent
		wantErr bool
	}{
		{input: "go tavern", want: sim.Intent{Kind: sim.IntentMove, Target: "tavern"}},
		{input: "Talk Mara about the harvest", want: sim.Intent{Kind: sim.IntentTalk, NPC: "mara", Topic: "the harvest"}},
		{input: "talk tomas", want: sim.Intent{Kind: sim.IntentTalk, NPC: "tomas"}},
		{input: "wait", want: sim.Intent{Kind: sim.IntentWait}},
		{input: "wait 4", want: sim.Intent{Kind: sim.IntentWait, Ticks: 4}},
		{input: "rest 3", want: sim.Intent{Kind: sim.IntentLongAction, Days: 3, Priority: 1, Label: "rest"}},
		{input: "work 2 mapping the woods", want: sim.Intent{Kind: sim.IntentLongAction, Days: 2, Priority: 1, Label: "mapping the woods"}},
		{input: "resume", want: sim.Intent{Kind: sim.IntentResume}},
		{input: "choose storm shelter", want: sim.Intent{Kind: sim.IntentChoose, Event: "storm", Choice: "shelter"}},
		{input: "", wantErr: true},
		{input: "go", wantErr: true},
		{input: "wait soon", wantErr: true},
		{input: "rest -1", wantErr: true},
		{input: "dance", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parseIntent(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDescribeResult(t *testing.T) {
	s, err := scenario.Load("../../data/scenarios/millbrook.yaml")
	require.NoError(t, err)
	def, err := scenario.Build(s)
	require.NoError(t, err)
	w, err := sim.NewWorld(def, sim.Options{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})
	require.NoError(t, err)

	res, err := sim.NewScheduler(w).Apply(sim.Intent{Kind: sim.IntentMove, Target: "tavern"})
	require.NoError(t, err)

	lines := describeResult(res, w)
	assert.Equal(t, "You walk: square → tavern", lines[0])
	assert.True(t, strings.HasPrefix(lines[len(lines)-1], "It is now "))

	assert.Equal(t, []string{"square"}, exits(w))
	assert.Equal(t, []string{"Nothing much happens."}, describeResult(sim.Result{Step: sim.StepResult{From: clock.Days(1), To: clock.Days(1)}}, w))
}
