package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/partyload/internal/load"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Show recorded dataset loads",
	Long:  "Displays the load log: one line per dataset table loaded, most recent first.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("db"); err != nil {
			return err
		}

		runID, _ := cmd.Flags().GetString("run")
		limit, _ := cmd.Flags().GetInt("limit")

		pool, err := loadPool(ctx, cfg.Load)
		if err != nil {
			return err
		}
		defer pool.Close()

		entries, err := load.NewLog(pool).List(ctx, runID, limit)
		if err != nil {
			return eris.Wrap(err, "runs")
		}

		if len(entries) == 0 {
			zap.L().Info("no loads recorded, run 'flatten --formats postgres' to load datasets")
			return nil
		}

		formatLoadEntries(os.Stdout, entries)
		return nil
	},
}

func init() {
	runsCmd.Flags().String("run", "", "only show loads of this run id")
	runsCmd.Flags().Int("limit", 50, "max entries to show (0 = all)")
	rootCmd.AddCommand(runsCmd)
}

// formatLoadEntries writes a tabular representation of load entries to w.
func formatLoadEntries(out io.Writer, entries []load.Entry) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tRUN\tDATASET\tTARGET\tSTATUS\tSTARTED\tDURATION\tROWS\tERROR")
	_, _ = fmt.Fprintln(w, "--\t---\t-------\t------\t------\t-------\t--------\t----\t-----")

	for _, e := range entries {
		dur := "-"
		if e.CompletedAt != nil {
			dur = e.CompletedAt.Sub(e.StartedAt).Round(time.Second).String()
		}

		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%d\t%s\n",
			e.ID,
			truncateID(e.RunID),
			e.Dataset,
			e.Target,
			e.Status,
			e.StartedAt.Format("2006-01-02 15:04"),
			dur,
			e.RowsLoaded,
			truncate(e.Error, 60),
		)
	}
	_ = w.Flush()
}

func truncateID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
