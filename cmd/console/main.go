package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/jwebster45206/world-engine/internal/config"
	"github.com/jwebster45206/world-engine/internal/logger"
	"github.com/jwebster45206/world-engine/pkg/scenario"
	"github.com/jwebster45206/world-engine/pkg/sim"
	"github.com/jwebster45206/world-engine/pkg/state"
)

// ConsoleConfig is read from the same environment as the servers.
type ConsoleConfig struct {
	*config.Config
	LogFile string // sim logs go here; discarded when empty
}

func main() {
	base, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}
	cfg := &ConsoleConfig{Config: base, LogFile: os.Getenv("CONSOLE_LOG_FILE")}

	names, files, err := listScenarios(cfg.ScenarioDir())
	if err != nil || len(names) == 0 {
		fmt.Fprintf(os.Stderr, "No scenarios found in %s: %v\n", cfg.ScenarioDir(), err)
		os.Exit(1)
	}

	p := tea.NewProgram(NewConsoleUI(cfg, names, files),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running program: %v\n", err)
		os.Exit(1)
	}
}

// listScenarios returns scenario names in display order and a map of name to file.
func listScenarios(dir string) ([]string, map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, err
	}
	files := make(map[string]string)
	for _, e := range entries {
		if e.IsDir() || !scenario.IsScenarioFile(e.Name()) {
			continue
		}
		s, err := scenario.Load(filepath.Join(dir, e.Name()))
		if err != nil {
			continue
		}
		files[s.Name] = e.Name()
	}
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, files, nil
}

// openWorld builds a fresh world from a scenario file.
func openWorld(cfg *ConsoleConfig, file string) (*scenario.Scenario, *sim.World, *state.GameState, error) {
	s, err := scenario.Load(filepath.Join(cfg.ScenarioDir(), file))
	if err != nil {
		return nil, nil, nil, err
	}
	def, err := scenario.Build(s)
	if err != nil {
		return nil, nil, nil, err
	}
	cfg.ApplyDefaults(def)

	var out io.Writer = io.Discard
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, nil, err
		}
		out = f
	}
	log := logger.New(out, cfg.Config, "console")

	w, err := sim.NewWorld(def, sim.Options{Logger: log, Seed: cfg.WorldSeed})
	if err != nil {
		return nil, nil, nil, err
	}
	gs, err := state.NewGameState(file, w)
	if err != nil {
		return nil, nil, nil, err
	}
	return s, w, gs, nil
}
