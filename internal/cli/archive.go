package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/jwebster45206/world-engine/internal/storage"
	"github.com/jwebster45206/world-engine/pkg/clock"
	"github.com/spf13/cobra"
)

var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Inspect the long-term memory archive",
}

func init() {
	list := &cobra.Command{
		Use:   "list",
		Short: "List archived memories of a world",
		RunE:  runArchiveList,
	}
	list.Flags().String("world", "", "World ID (required)")
	list.Flags().String("npc", "", "Only this NPC")
	list.Flags().IntP("limit", "n", 20, "Maximum number of entries")
	list.MarkFlagRequired("world")

	purge := &cobra.Command{
		Use:   "purge",
		Short: "Delete every archived memory of a world",
		RunE:  runArchivePurge,
	}
	purge.Flags().String("world", "", "World ID (required)")
	purge.MarkFlagRequired("world")

	archiveCmd.AddCommand(list, purge)
	RootCmd.AddCommand(archiveCmd)
}

func openArchive(cmd *cobra.Command) (*storage.Archive, uuid.UUID, error) {
	raw, _ := cmd.Flags().GetString("world")
	worldID, err := uuid.Parse(raw)
	if err != nil {
		return nil, uuid.Nil, fmt.Errorf("invalid world id %q: %w", raw, err)
	}
	cfg, err := loadConfig()
	if err != nil {
		return nil, uuid.Nil, err
	}
	a, err := storage.OpenArchive(cfg.ArchivePath)
	if err != nil {
		return nil, uuid.Nil, err
	}
	return a, worldID, nil
}

func runArchiveList(cmd *cobra.Command, args []string) error {
	npc, _ := cmd.Flags().GetString("npc")
	limit, _ := cmd.Flags().GetInt("limit")

	a, worldID, err := openArchive(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	entries, err := a.List(cmd.Context(), worldID, npc, limit)
	if err != nil {
		return err
	}
	if jsonOutput() {
		return printJSON(cmd, entries)
	}
	if len(entries) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No archived memories.")
		return nil
	}
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ARCHIVED\tNPC\tIMPORTANCE\tSUMMARY")
	for _, m := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", clock.FromAbsolute(m.ArchivedAt).Display(), m.NPC, m.Entry.Importance, m.Entry.Summary)
	}
	return tw.Flush()
}

func runArchivePurge(cmd *cobra.Command, args []string) error {
	a, worldID, err := openArchive(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	n, err := a.DeleteWorld(cmd.Context(), worldID)
	if err != nil {
		return err
	}
	if jsonOutput() {
		return printJSON(cmd, map[string]any{"world_id": worldID, "deleted": n})
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d archived memories.\n", n)
	return err
}
