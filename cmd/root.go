package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/partyload/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "partyload",
	Short: "Flatten party documents into relational datasets",
	Long:  "Classifies individual and organisation documents, extracts emails, phones and addresses into flat datasets, and writes them as CSV, XLSX, Postgres or SQLite tables stamped with run provenance.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
