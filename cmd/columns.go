package main

import (
	"fmt"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/partyload/internal/flatten"
	"github.com/sells-group/partyload/internal/party"
)

var columnsDataset string

var columnsCmd = &cobra.Command{
	Use:   "columns",
	Short: "Print the planned column layout of each dataset",
	Long:  "Runs classification, extraction and column planning over a batch without writing anything, then prints every dataset's columns in output order.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		applyPipelineFlags(cmd, cfg)
		if err := cfg.Validate("columns"); err != nil {
			return err
		}

		var only party.Dataset
		if columnsDataset != "" {
			ds, ok := party.ParseDataset(columnsDataset)
			if !ok {
				return eris.Errorf("columns: unknown dataset %q", columnsDataset)
			}
			only = ds
		}

		docs, err := readDocuments(ctx, cfg.Input)
		if err != nil {
			return eris.Wrap(err, "columns")
		}
		opts, err := runnerOptions(cfg)
		if err != nil {
			return eris.Wrap(err, "columns")
		}

		res, runErr := flatten.NewRunner(opts).Run(ctx, docs)
		if res != nil {
			formatLayouts(os.Stdout, res, only)
		}
		return runErr
	},
}

func init() {
	addPipelineFlags(columnsCmd)
	columnsCmd.Flags().StringVar(&columnsDataset, "dataset", "", "only print this dataset")
	rootCmd.AddCommand(columnsCmd)
}

// formatLayouts writes each dataset's columns, one per line, to w.
func formatLayouts(w io.Writer, res *flatten.Result, only party.Dataset) {
	for _, d := range res.Datasets {
		if only != "" && d.Dataset != only {
			continue
		}
		_, _ = fmt.Fprintf(w, "%s (%s, %d rows)\n", d.Dataset, d.Dataset.Table(), d.Rows)
		for i, c := range d.Columns {
			_, _ = fmt.Fprintf(w, "  %2d  %s\n", i+1, c)
		}
	}
}
