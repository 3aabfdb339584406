package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/jwebster45206/world-engine/internal/storage"
	"github.com/jwebster45206/world-engine/pkg/clock"
	"github.com/jwebster45206/world-engine/pkg/sim"
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "run <scenario>",
		Short: "Run a world forward with no player input",
		Args:  cobra.ExactArgs(1),
		RunE:  runRun,
	}
	cmd.Flags().Int("days", 7, "Days to simulate")
	cmd.Flags().Uint64("seed", 0, "Random seed (0 uses WORLD_SEED or the scenario seed)")
	cmd.Flags().String("snapshot", "", "Write the final snapshot to this file")
	cmd.Flags().Bool("archive", false, "Archive compressed memories to the memory archive")
	cmd.Flags().Bool("decisions", false, "Print every NPC decision")
	RootCmd.AddCommand(cmd)
}

type runSummary struct {
	World   string           `json:"world"`
	WorldID string           `json:"world_id,omitempty"`
	From    string           `json:"from"`
	To      string           `json:"to"`
	Days    int              `json:"days"`
	Steps   []sim.StepResult `json:"steps"`
}

func runRun(cmd *cobra.Command, args []string) error {
	days, _ := cmd.Flags().GetInt("days")
	seed, _ := cmd.Flags().GetUint64("seed")
	snapshotPath, _ := cmd.Flags().GetString("snapshot")
	useArchive, _ := cmd.Flags().GetBool("archive")
	showDecisions, _ := cmd.Flags().GetBool("decisions")
	if days <= 0 {
		return fmt.Errorf("--days must be positive")
	}
	if days > clock.DaysPerMonth*clock.MonthsPerYear {
		return fmt.Errorf("--days must be at most %d", clock.DaysPerMonth*clock.MonthsPerYear)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	var (
		archiver sim.Archiver
		worldID  uuid.UUID
	)
	if useArchive {
		a, err := storage.OpenArchive(cfg.ArchivePath)
		if err != nil {
			return err
		}
		defer a.Close()
		worldID = uuid.New()
		archiver = a.For(context.Background(), worldID)
	}

	_, w, err := buildWorld(cmd, cfg, args[0], seed, archiver)
	if err != nil {
		return err
	}
	sched := sim.NewScheduler(w)

	summary := runSummary{World: w.Name(), From: w.Time().Display(), Days: days}
	if useArchive {
		summary.WorldID = worldID.String()
	}
	out := cmd.OutOrStdout()
	if !jsonOutput() {
		fmt.Fprintf(out, "%s: %s\n", w.Name(), summary.From)
		if useArchive {
			fmt.Fprintf(out, "world id %s\n", worldID)
		}
	}

	for d := 0; d < days; d++ {
		res, err := sched.Step(clock.TicksPerDay)
		if err != nil {
			return fmt.Errorf("day %d: %w", d+1, err)
		}
		if jsonOutput() {
			summary.Steps = append(summary.Steps, res)
			continue
		}
		printStep(cmd, res, showDecisions)
	}
	summary.To = w.Time().Display()

	if snapshotPath != "" {
		snap, err := w.Snapshot()
		if err != nil {
			return err
		}
		data, err := json.MarshalIndent(snap, "", "  ")
		if err != nil {
			return err
		}
		if err := os.WriteFile(snapshotPath, data, 0o644); err != nil {
			return fmt.Errorf("write snapshot: %w", err)
		}
	}

	if jsonOutput() {
		return printJSON(cmd, summary)
	}
	fmt.Fprintf(out, "now %s\n", summary.To)
	return nil
}

func printStep(cmd *cobra.Command, res sim.StepResult, showDecisions bool) {
	out := cmd.OutOrStdout()
	for _, f := range res.Fired {
		fmt.Fprintf(out, "%-28s [%s] %s\n", clock.FromAbsolute(f.At).Display(), f.Tier, f.Name)
	}
	for _, l := range res.Expired {
		fmt.Fprintf(out, "%-28s [expired] %s\n", clock.FromAbsolute(res.To).Display(), l.Name)
	}
	if showDecisions {
		for _, d := range res.Decisions {
			fmt.Fprintf(out, "%-28s %s -> %s %s\n", clock.FromAbsolute(d.At).Display(), d.NPC, d.Chosen.Kind, d.Chosen.Location)
		}
	}
	for npc, rep := range res.Compressed {
		if n := len(rep.Removed()); n > 0 {
			fmt.Fprintf(out, "%-28s %s forgot %d memories\n", clock.FromAbsolute(res.To).Display(), npc, n)
		}
	}
}
