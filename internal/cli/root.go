// Package cli implements the worldsim commands.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/jwebster45206/world-engine/internal/config"
	"github.com/jwebster45206/world-engine/pkg/scenario"
	"github.com/jwebster45206/world-engine/pkg/sim"
	"github.com/spf13/cobra"
)

var (
	dataDir    string
	formatFlag string
	verbose    bool
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:          "worldsim",
	Short:        "Run and inspect living worlds",
	Long:         "Offline tools for world scenarios: validate them, run them forward, inspect what the narrator would see, and manage the memory archive and request queue.",
	SilenceUsage: true,
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&dataDir, "data", "d", "", "Data directory (default: $DATA_DIR or ./data)")
	RootCmd.PersistentFlags().StringVarP(&formatFlag, "format", "f", "text", "Output format: json or text")
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log simulation details to stderr")
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if dataDir != "" {
		cfg.DataDir = dataDir
		if os.Getenv("ARCHIVE_PATH") == "" {
			cfg.ArchivePath = filepath.Join(dataDir, "archive.db")
		}
	}
	return cfg, nil
}

func simLogger(cmd *cobra.Command) *slog.Logger {
	var out io.Writer = io.Discard
	level := slog.LevelInfo
	if verbose {
		out = cmd.ErrOrStderr()
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: level}))
}

// scenarioPath resolves an argument to a scenario file: a path that exists is used as
// is, anything else is looked up in the scenario directory.
func scenarioPath(cfg *config.Config, arg string) string {
	if _, err := os.Stat(arg); err == nil {
		return arg
	}
	return filepath.Join(cfg.ScenarioDir(), arg)
}

// buildWorld loads a scenario and starts a fresh world from it.
func buildWorld(cmd *cobra.Command, cfg *config.Config, arg string, seed uint64, archiver sim.Archiver) (*scenario.Scenario, *sim.World, error) {
	s, err := scenario.Load(scenarioPath(cfg, arg))
	if err != nil {
		return nil, nil, err
	}
	def, err := scenario.Build(s)
	if err != nil {
		return nil, nil, err
	}
	cfg.ApplyDefaults(def)
	if seed == 0 {
		seed = cfg.WorldSeed
	}
	w, err := sim.NewWorld(def, sim.Options{Logger: simLogger(cmd), Seed: seed, Archiver: archiver})
	if err != nil {
		return nil, nil, err
	}
	return s, w, nil
}

func printJSON(cmd *cobra.Command, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(b))
	return err
}

func jsonOutput() bool {
	return formatFlag == "json"
}
