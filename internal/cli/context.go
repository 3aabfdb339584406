package cli

import (
	"fmt"

	"github.com/jwebster45206/world-engine/pkg/clock"
	"github.com/jwebster45206/world-engine/pkg/prompts"
	"github.com/jwebster45206/world-engine/pkg/sim"
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "context <scenario>",
		Short: "Show what the narrator would be told",
		Long:  "Start a world, optionally run it forward, and print the reduced state prompt or the full message list for a player message.",
		Args:  cobra.ExactArgs(1),
		RunE:  runContext,
	}
	cmd.Flags().Int("days", 0, "Days to simulate first")
	cmd.Flags().Uint64("seed", 0, "Random seed")
	cmd.Flags().String("focus", "", "NPC to focus on")
	cmd.Flags().StringP("message", "m", "", "Player message; prints the full prompt instead of the state")
	RootCmd.AddCommand(cmd)
}

func runContext(cmd *cobra.Command, args []string) error {
	days, _ := cmd.Flags().GetInt("days")
	seed, _ := cmd.Flags().GetUint64("seed")
	focus, _ := cmd.Flags().GetString("focus")
	message, _ := cmd.Flags().GetString("message")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	s, w, err := buildWorld(cmd, cfg, args[0], seed, nil)
	if err != nil {
		return err
	}

	var fired []string
	if days > 0 {
		res, err := sim.NewScheduler(w).Step(days * clock.TicksPerDay)
		if err != nil {
			return err
		}
		for _, f := range res.Fired {
			fired = append(fired, f.Name)
		}
	}

	nc, err := w.NarrativeContext(focus)
	if err != nil {
		return err
	}

	if message == "" {
		if jsonOutput() {
			return printJSON(cmd, prompts.ToPromptState(nc))
		}
		out, err := prompts.BuildContext(nc, s.Story)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), out)
		return err
	}

	msgs, err := prompts.New().
		WithContext(nc).
		WithScenario(s).
		WithFired(fired...).
		WithUserMessage(message).
		Build()
	if err != nil {
		return err
	}
	if jsonOutput() {
		return printJSON(cmd, msgs)
	}
	for _, m := range msgs {
		fmt.Fprintf(cmd.OutOrStdout(), "--- %s ---\n%s\n\n", m.Role, m.Content)
	}
	return nil
}
