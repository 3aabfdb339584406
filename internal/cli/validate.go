package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jwebster45206/world-engine/pkg/scenario"
	"github.com/spf13/cobra"
)

var errInvalid = errors.New("invalid scenarios found")

func init() {
	cmd := &cobra.Command{
		Use:   "validate [scenario...]",
		Short: "Check scenario files for errors",
		Long:  "Check scenario files for errors. With no arguments every scenario in the data directory is checked.",
		RunE:  runValidate,
	}
	RootCmd.AddCommand(cmd)
}

type validation struct {
	File   string   `json:"file"`
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors,omitempty"`
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	paths := make([]string, 0, len(args))
	for _, a := range args {
		paths = append(paths, scenarioPath(cfg, a))
	}
	if len(paths) == 0 {
		entries, err := os.ReadDir(cfg.ScenarioDir())
		if err != nil {
			return fmt.Errorf("read scenarios: %w", err)
		}
		for _, e := range entries {
			if !e.IsDir() && scenario.IsScenarioFile(e.Name()) {
				paths = append(paths, filepath.Join(cfg.ScenarioDir(), e.Name()))
			}
		}
	}

	results := make([]validation, 0, len(paths))
	failed := false
	for _, p := range paths {
		v := validation{File: p, Valid: true}
		if !scenario.ValidFileName(filepath.Base(p)) {
			v.Errors = append(v.Errors, "file name must be lowercase snake_case")
		}
		s, err := scenario.Load(p)
		if err != nil {
			v.Errors = append(v.Errors, err.Error())
		} else {
			for _, e := range scenario.Validate(s) {
				v.Errors = append(v.Errors, e.Error())
			}
		}
		if len(v.Errors) > 0 {
			v.Valid = false
			failed = true
		}
		results = append(results, v)
	}

	if jsonOutput() {
		if err := printJSON(cmd, results); err != nil {
			return err
		}
	} else {
		out := cmd.OutOrStdout()
		for _, v := range results {
			if v.Valid {
				fmt.Fprintf(out, "ok      %s\n", v.File)
				continue
			}
			fmt.Fprintf(out, "INVALID %s\n", v.File)
			for _, e := range v.Errors {
				fmt.Fprintf(out, "        - %s\n", e)
			}
		}
	}
	if failed {
		return errInvalid
	}
	return nil
}
