package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jwebster45206/world-engine/internal/config"
	"github.com/jwebster45206/world-engine/internal/logger"
	"github.com/jwebster45206/world-engine/pkg/clock"
	queuePkg "github.com/jwebster45206/world-engine/pkg/queue"
	"github.com/jwebster45206/world-engine/pkg/scenario"
	"github.com/jwebster45206/world-engine/pkg/sim"
	"github.com/jwebster45206/world-engine/pkg/state"
	"github.com/jwebster45206/world-engine/pkg/storage"
)

// MaxAdvanceTicks bounds a single advance request to one in-game year.
const MaxAdvanceTicks = clock.TicksPerYear

var (
	ErrWorldNotFound  = errors.New("world not found")
	ErrInvalidRequest = errors.New("invalid request")
)

// ArchiveBinder hands out an archiver bound to one world.
type ArchiveBinder interface {
	For(ctx context.Context, worldID uuid.UUID) sim.Archiver
}

// WorldProcessor opens stored worlds, runs requests against them and saves the result.
// It's used by both the HTTP handlers (synchronously) and the worker (asynchronously).
type WorldProcessor struct {
	storage storage.Storage
	fired   state.FiredQueue
	archive ArchiveBinder
	cfg     *config.Config
	logger  *slog.Logger
}

// NewWorldProcessor creates a new processor. fired, archive and cfg are optional.
func NewWorldProcessor(
	storage storage.Storage,
	fired state.FiredQueue,
	archive ArchiveBinder,
	cfg *config.Config,
	logger *slog.Logger,
) *WorldProcessor {
	return &WorldProcessor{
		storage: storage,
		fired:   fired,
		archive: archive,
		cfg:     cfg,
		logger:  logger,
	}
}

// Outcome is what processing one request produced.
type Outcome struct {
	GameState *state.GameState
	Result    sim.Result
}

// definition loads and builds the scenario behind a world.
func (p *WorldProcessor) definition(ctx context.Context, file string) (*scenario.Scenario, *sim.Definition, error) {
	s, err := p.storage.GetScenario(ctx, file)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load scenario: %w", err)
	}
	def, err := scenario.Build(s)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build scenario %s: %w", file, err)
	}
	if p.cfg != nil {
		p.cfg.ApplyDefaults(def)
	}
	return s, def, nil
}

func (p *WorldProcessor) options(ctx context.Context, worldID uuid.UUID) sim.Options {
	opts := sim.Options{Logger: logger.WithWorld(p.logger, worldID)}
	if p.archive != nil {
		opts.Archiver = p.archive.For(ctx, worldID)
	}
	return opts
}

// CreateWorld builds a new world from a scenario file and stores it.
func (p *WorldProcessor) CreateWorld(ctx context.Context, scenarioFile string) (*state.GameState, error) {
	_, def, err := p.definition(ctx, scenarioFile)
	if err != nil {
		return nil, err
	}

	worldID := uuid.New()
	opts := p.options(ctx, worldID)
	if p.cfg != nil {
		opts.Seed = p.cfg.WorldSeed
	}
	w, err := sim.NewWorld(def, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create world: %w", err)
	}

	gs, err := state.NewGameState(scenarioFile, w)
	if err != nil {
		return nil, err
	}
	gs.ID = worldID
	if err := p.storage.SaveGameState(ctx, gs.ID, gs); err != nil {
		return nil, fmt.Errorf("failed to save world: %w", err)
	}

	p.logger.Info("World created", "world_id", gs.ID, "scenario", scenarioFile, "tick", gs.Tick())
	return gs, nil
}

// GetGameState loads a stored world or returns ErrWorldNotFound.
func (p *WorldProcessor) GetGameState(ctx context.Context, worldID uuid.UUID) (*state.GameState, error) {
	gs, err := p.storage.LoadGameState(ctx, worldID)
	if err != nil {
		return nil, fmt.Errorf("failed to load world: %w", err)
	}
	if gs == nil {
		return nil, fmt.Errorf("%w: %s", ErrWorldNotFound, worldID)
	}
	return gs, nil
}

// OpenWorld loads a stored world and rebuilds it live.
func (p *WorldProcessor) OpenWorld(ctx context.Context, worldID uuid.UUID) (*state.GameState, *scenario.Scenario, *sim.World, error) {
	gs, err := p.GetGameState(ctx, worldID)
	if err != nil {
		return nil, nil, nil, err
	}
	s, def, err := p.definition(ctx, gs.Scenario)
	if err != nil {
		return nil, nil, nil, err
	}
	w, err := gs.Open(def, p.options(ctx, worldID))
	if err != nil {
		return nil, nil, nil, err
	}
	return gs, s, w, nil
}

// NarrativeContext returns the context around the player in a stored world.
func (p *WorldProcessor) NarrativeContext(ctx context.Context, worldID uuid.UUID, focus string) (sim.NarrativeContext, *scenario.Scenario, error) {
	_, s, w, err := p.OpenWorld(ctx, worldID)
	if err != nil {
		return sim.NarrativeContext{}, nil, err
	}
	nc, err := w.NarrativeContext(focus)
	if err != nil {
		return sim.NarrativeContext{}, nil, err
	}
	return nc, s, nil
}

// Process runs one queued request against its world. The world is saved only when the
// request succeeds; a failed request leaves the stored snapshot as it was and records
// the error on the game state.
func (p *WorldProcessor) Process(ctx context.Context, req *queuePkg.Request) (*Outcome, error) {
	gs, _, w, err := p.OpenWorld(ctx, req.GameStateID)
	if err != nil {
		return nil, err
	}

	res, err := p.run(w, req)
	if err != nil {
		p.recordFailure(ctx, gs, err)
		return nil, err
	}

	if err := gs.Capture(w); err != nil {
		return nil, err
	}
	if req.Type == queuePkg.RequestTypeIntent {
		gs.Turns++
	}
	gs.Failed = ""
	if err := p.storage.SaveGameState(ctx, gs.ID, gs); err != nil {
		return nil, fmt.Errorf("failed to save world: %w", err)
	}

	if p.fired != nil && len(res.Step.Fired) > 0 {
		if err := p.fired.Enqueue(ctx, gs.ID, res.Step.Fired...); err != nil {
			// the world is already saved; the narrative layer just misses these
			p.logger.Error("Failed to enqueue fired events", "error", err, "world_id", gs.ID)
		}
	}

	p.logger.Debug("Request applied",
		"world_id", gs.ID,
		"request_id", req.RequestID,
		"from", res.Step.From,
		"to", res.Step.To,
		"fired", len(res.Step.Fired))
	return &Outcome{GameState: gs, Result: res}, nil
}

func (p *WorldProcessor) run(w *sim.World, req *queuePkg.Request) (sim.Result, error) {
	sched := sim.NewScheduler(w)
	switch req.Type {
	case queuePkg.RequestTypeIntent:
		if req.Intent == nil {
			return sim.Result{}, fmt.Errorf("%w: intent request without an intent", ErrInvalidRequest)
		}
		return sched.Apply(*req.Intent)
	case queuePkg.RequestTypeAdvance:
		if req.Ticks <= 0 || req.Ticks > MaxAdvanceTicks {
			return sim.Result{}, fmt.Errorf("%w: advance of %d ticks", ErrInvalidRequest, req.Ticks)
		}
		step, err := sched.Step(req.Ticks)
		return sim.Result{Step: step}, err
	default:
		return sim.Result{}, fmt.Errorf("%w: unknown request type %q", ErrInvalidRequest, req.Type)
	}
}

func (p *WorldProcessor) recordFailure(ctx context.Context, gs *state.GameState, cause error) {
	gs.Failed = cause.Error()
	if err := p.storage.SaveGameState(ctx, gs.ID, gs); err != nil {
		p.logger.Error("Failed to record request failure", "error", err, "world_id", gs.ID)
	}
}
