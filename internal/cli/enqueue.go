package cli

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jwebster45206/world-engine/internal/services/queue"
	"github.com/jwebster45206/world-engine/pkg/clock"
	pkgqueue "github.com/jwebster45206/world-engine/pkg/queue"
	"github.com/jwebster45206/world-engine/pkg/sim"
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "enqueue",
		Short: "Queue an intent or a time advance for the worker",
		Long:  "Push a request onto the worker queue directly, bypassing the API. Exactly one of --intent, --ticks or --days is required.",
		RunE:  runEnqueue,
	}
	cmd.Flags().String("world", "", "World ID (required)")
	cmd.Flags().String("intent", "", `Intent as JSON, e.g. {"kind":"move","target":"tavern"}`)
	cmd.Flags().Int("ticks", 0, "Ticks to advance")
	cmd.Flags().Int("days", 0, "Days to advance")
	cmd.Flags().String("redis", "", "Redis URL (default: $REDIS_URL)")
	cmd.MarkFlagRequired("world")
	cmd.MarkFlagsMutuallyExclusive("intent", "ticks")
	cmd.MarkFlagsMutuallyExclusive("intent", "days")
	RootCmd.AddCommand(cmd)
}

// buildRequest turns the enqueue flags into a queue request.
func buildRequest(worldID uuid.UUID, rawIntent string, ticks, days int) (*pkgqueue.Request, error) {
	if rawIntent != "" {
		var in sim.Intent
		if err := json.Unmarshal([]byte(rawIntent), &in); err != nil {
			return nil, fmt.Errorf("invalid intent: %w", err)
		}
		if in.Kind == "" {
			return nil, fmt.Errorf("invalid intent: kind is required")
		}
		return pkgqueue.NewIntentRequest(worldID, in), nil
	}
	total := ticks + days*clock.TicksPerDay
	if total <= 0 {
		return nil, fmt.Errorf("one of --intent, --ticks or --days is required")
	}
	if total > clock.TicksPerYear {
		return nil, fmt.Errorf("cannot advance more than %d ticks at once", clock.TicksPerYear)
	}
	return pkgqueue.NewAdvanceRequest(worldID, total), nil
}

func runEnqueue(cmd *cobra.Command, args []string) error {
	rawWorld, _ := cmd.Flags().GetString("world")
	rawIntent, _ := cmd.Flags().GetString("intent")
	ticks, _ := cmd.Flags().GetInt("ticks")
	days, _ := cmd.Flags().GetInt("days")
	redisURL, _ := cmd.Flags().GetString("redis")

	worldID, err := uuid.Parse(rawWorld)
	if err != nil {
		return fmt.Errorf("invalid world id %q: %w", rawWorld, err)
	}
	req, err := buildRequest(worldID, rawIntent, ticks, days)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if redisURL == "" {
		redisURL = cfg.RedisURL
	}
	client, err := queue.NewClient(redisURL, simLogger(cmd))
	if err != nil {
		return err
	}
	defer client.Close()

	requests := queue.NewIntentQueue(client)
	if err := requests.Enqueue(cmd.Context(), req); err != nil {
		return err
	}
	depth, err := requests.Depth(cmd.Context())
	if err != nil {
		simLogger(cmd).Warn("Failed to read queue depth", "error", err)
	}

	if jsonOutput() {
		return printJSON(cmd, map[string]any{"request_id": req.RequestID, "type": req.Type, "queue_depth": depth})
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Queued %s request %s (queue depth %d)\n", req.Type, req.RequestID, depth)
	return err
}
