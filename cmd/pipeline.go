package main

import (
	"context"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/partyload/internal/config"
	"github.com/sells-group/partyload/internal/flatten"
	"github.com/sells-group/partyload/internal/layout"
	"github.com/sells-group/partyload/internal/party"
	"github.com/sells-group/partyload/internal/source"
)

// Flags shared by flatten and columns; set flags override config.
var (
	inputPath   string
	inputFormat string
	schemaPath  string
	workers     int
	strictKeys  bool
)

func addPipelineFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&inputPath, "input", "i", "", "document batch to read, \"-\" for stdin (default: input.path)")
	cmd.Flags().StringVar(&inputFormat, "format", "", "input format: json or yaml (default: from extension)")
	cmd.Flags().StringVar(&schemaPath, "schema", "", "reference schema for column planning (default: schema.path)")
	cmd.Flags().IntVar(&workers, "workers", 0, "documents extracted concurrently (default: pipeline.workers)")
	cmd.Flags().BoolVar(&strictKeys, "strict", false, "match IndividualDetails/OrganisationDetails by exact case")
}

// applyPipelineFlags copies explicitly set flags over the loaded config.
func applyPipelineFlags(cmd *cobra.Command, c *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("input") {
		c.Input.Path = inputPath
	}
	if flags.Changed("format") {
		c.Input.Format = inputFormat
	}
	if flags.Changed("schema") {
		c.Schema.Path = schemaPath
	}
	if flags.Changed("workers") {
		c.Pipeline.Workers = workers
	}
	if flags.Changed("strict") {
		c.Pipeline.StrictKeys = strictKeys
	}
}

// readDocuments loads the configured input batch.
func readDocuments(ctx context.Context, in config.InputConfig) ([]party.Document, error) {
	format, err := source.ParseFormat(in.Format)
	if err != nil {
		return nil, err
	}
	return source.ReadFile(ctx, in.Path, format)
}

// buildPlanners selects schema planning when a schema is configured, for
// every dataset or only the listed ones. Without a schema, columns come from
// observed rows.
func buildPlanners(sc config.SchemaConfig) (layout.Selector, error) {
	if sc.Path == "" {
		return layout.Selector{}, nil
	}

	schema, err := layout.LoadSchema(sc.Path)
	if err != nil {
		return layout.Selector{}, err
	}
	planner := layout.NewSchemaPlanner(schema)
	if len(sc.Datasets) == 0 {
		return layout.Selector{Default: planner}, nil
	}

	overrides := make(map[party.Dataset]layout.Planner, len(sc.Datasets))
	for _, name := range sc.Datasets {
		ds, ok := party.ParseDataset(name)
		if !ok {
			return layout.Selector{}, eris.Errorf("schema.datasets: unknown dataset %q", name)
		}
		overrides[ds] = planner
	}
	return layout.Selector{Overrides: overrides}, nil
}

// runnerOptions builds the runner options shared by flatten and columns.
func runnerOptions(c *config.Config) (flatten.Options, error) {
	planners, err := buildPlanners(c.Schema)
	if err != nil {
		return flatten.Options{}, err
	}
	return flatten.Options{
		Strict:   c.Pipeline.StrictKeys,
		Planners: planners,
		Workers:  c.Pipeline.Workers,
	}, nil
}
