package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/partyload/internal/load"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply load log schema migrations",
	Long:  "Applies all pending SQL migrations to the party_data schema in lexicographic order.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := cfg.Validate("db"); err != nil {
			return err
		}

		pool, err := loadPool(ctx, cfg.Load)
		if err != nil {
			return err
		}
		defer pool.Close()

		if err := load.Migrate(ctx, pool); err != nil {
			return eris.Wrap(err, "migrate")
		}

		zap.L().Info("all migrations applied successfully")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
