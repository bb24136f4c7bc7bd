package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/partyload/internal/config"
	"github.com/sells-group/partyload/internal/db"
	"github.com/sells-group/partyload/internal/flatten"
	"github.com/sells-group/partyload/internal/load"
	"github.com/sells-group/partyload/internal/party"
	"github.com/sells-group/partyload/internal/tabular"
)

var (
	outputDir     string
	outputFormats []string
	perRunDir     bool
)

var flattenCmd = &cobra.Command{
	Use:   "flatten",
	Short: "Flatten a document batch into datasets",
	Long: `Reads a batch of party documents and writes one table per non-empty dataset
(individual, organisation, emails, phones, addresses, formattedAddresses) to every
configured output format.

Examples:
  # CSV files from a JSON batch, columns from observed rows
  partyload flatten --input parties.json --out exports

  # Schema-planned columns, CSV and a workbook in a per-run directory
  partyload flatten -i parties.yaml --schema party.schema.json --formats csv,xlsx --per-run-dir

  # Replace the Postgres tables in party_data
  PARTYLOAD_LOAD_DATABASE_URL=postgres://localhost/parties partyload flatten -i parties.json --formats postgres`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		applyPipelineFlags(cmd, cfg)
		applyOutputFlags(cmd, cfg)
		if err := cfg.Validate("flatten"); err != nil {
			return err
		}

		docs, err := readDocuments(ctx, cfg.Input)
		if err != nil {
			return eris.Wrap(err, "flatten")
		}

		opts, err := runnerOptions(cfg)
		if err != nil {
			return eris.Wrap(err, "flatten")
		}

		var pool db.Pool
		if cfg.Output.HasFormat(config.FormatPostgres) {
			p, err := loadPool(ctx, cfg.Load)
			if err != nil {
				return err
			}
			defer p.Close()
			pool = p
			if err := prepareLoadLog(ctx, cfg.Load, pool); err != nil {
				return eris.Wrap(err, "flatten")
			}
		}

		opts.Sinks = sinkFactory(cfg, pool)
		opts.Metrics = flatten.NewMetrics()

		res, runErr := flatten.NewRunner(opts).Run(ctx, docs)
		if res != nil {
			formatRunSummary(os.Stdout, res)
		}
		if err := opts.Metrics.WriteTextfile(cfg.Metrics.Textfile); err != nil {
			zap.L().Warn("metrics export failed", zap.Error(err))
		}
		return runErr
	},
}

func init() {
	addPipelineFlags(flattenCmd)
	flattenCmd.Flags().StringVarP(&outputDir, "out", "o", "", "directory for file outputs (default: output.dir)")
	flattenCmd.Flags().StringSliceVar(&outputFormats, "formats", nil, "output formats: csv, xlsx, postgres, sqlite (default: output.formats)")
	flattenCmd.Flags().BoolVar(&perRunDir, "per-run-dir", false, "write files under <out>/<run id>/")
	rootCmd.AddCommand(flattenCmd)
}

func applyOutputFlags(cmd *cobra.Command, c *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("out") {
		c.Output.Dir = outputDir
	}
	if flags.Changed("formats") {
		c.Output.Formats = outputFormats
	}
	if flags.Changed("per-run-dir") {
		c.Output.PerRunDir = perRunDir
	}
}

// prepareLoadLog applies the load log migrations when loads are recorded, so a
// fresh database can take the first run.
func prepareLoadLog(ctx context.Context, lc config.LoadConfig, pool db.Pool) error {
	if !lc.RecordLoads {
		return nil
	}
	return load.Migrate(ctx, pool)
}

// sinkFactory opens one sink per configured format, in configured order.
func sinkFactory(c *config.Config, pool db.Pool) flatten.SinkFactory {
	return func(_ context.Context, rc party.RunContext) ([]tabular.Sink, error) {
		dir := tabular.RunDir(c.Output.Dir, rc.ID, c.Output.PerRunDir)

		var sinks []tabular.Sink
		for _, f := range c.Output.Formats {
			switch f {
			case config.FormatCSV:
				sinks = append(sinks, tabular.NewCSVSink(dir, rc))
			case config.FormatXLSX:
				sinks = append(sinks, tabular.NewXLSXSink(dir, rc))
			case config.FormatPostgres:
				if pool == nil {
					return nil, eris.New("flatten: postgres format without a database pool")
				}
				opts := load.PostgresOptions{
					Schema:        c.Load.Schema,
					BatchSize:     c.Load.BatchSize,
					BatchesPerSec: c.Load.BatchesPerSec,
					Retry:         load.RetryConfig{MaxAttempts: c.Load.RetryAttempts},
				}
				if c.Load.RecordLoads {
					opts.Log = load.NewLog(pool)
				}
				sinks = append(sinks, load.NewPostgres(pool, rc, opts))
			case config.FormatSQLite:
				s, err := load.OpenSQLite(c.Load.SQLitePath)
				if err != nil {
					closeSinks(sinks)
					return nil, err
				}
				sinks = append(sinks, s)
			default:
				closeSinks(sinks)
				return nil, eris.Errorf("flatten: unknown output format %q", f)
			}
		}
		return sinks, nil
	}
}

func closeSinks(sinks []tabular.Sink) {
	for _, s := range sinks {
		_ = s.Close()
	}
}

// formatRunSummary writes the run header and one line per dataset to w.
func formatRunSummary(out io.Writer, res *flatten.Result) {
	_, _ = fmt.Fprintf(out, "Run %s (local %s, utc %s)\n", res.Run.ID, res.Run.Local, res.Run.UTC)
	_, _ = fmt.Fprintf(out, "Documents: %d  Parties: %d  Missing identifiers: %d  Skipped: %d\n\n",
		res.Documents, res.Parties, res.MissingIdentifiers, res.Skipped)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "DATASET\tROWS\tCOLUMNS\tARTIFACTS")
	_, _ = fmt.Fprintln(w, "-------\t----\t-------\t---------")
	for _, d := range res.Datasets {
		artifacts := "-"
		if len(d.Artifacts) > 0 {
			artifacts = strings.Join(d.Artifacts, ", ")
		}
		_, _ = fmt.Fprintf(w, "%s\t%d\t%d\t%s\n", d.Dataset, d.Rows, len(d.Columns), artifacts)
	}
	_ = w.Flush()

	for _, e := range res.Errors {
		_, _ = fmt.Fprintf(out, "FAILED: %s\n", truncate(e.Error(), 200))
	}
}

// truncate shortens s to at most limit runes, marking the cut with "...".
func truncate(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	if limit <= 3 {
		return string(r[:limit])
	}
	return string(r[:limit-3]) + "..."
}
