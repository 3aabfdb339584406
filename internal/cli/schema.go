package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/invopop/jsonschema"
	"github.com/jwebster45206/world-engine/pkg/scenario"
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON schema of scenario files",
		Long:  "Print the JSON schema scenario files are written against, for editor completion and external linting.",
		Args:  cobra.NoArgs,
		RunE:  runSchema,
	}
	cmd.Flags().StringP("out", "o", "", "Write the schema to this file instead of stdout")
	RootCmd.AddCommand(cmd)
}

func buildSchema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: true,
	}
	schema := reflector.Reflect(new(scenario.Scenario))
	schema.Title = "World Scenario"
	schema.Description = "Static definition of a world: locations, NPCs, schedules and events."
	return schema
}

func runSchema(cmd *cobra.Command, args []string) error {
	outPath, _ := cmd.Flags().GetString("out")

	data, err := json.MarshalIndent(buildSchema(), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	data = append(data, '\n')

	if outPath == "" {
		_, err = cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("create schema directory: %w", err)
	}
	tmpPath := outPath + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write temp schema: %w", err)
	}
	if err := os.Rename(tmpPath, outPath); err != nil {
		return fmt.Errorf("replace schema: %w", err)
	}
	return nil
}
