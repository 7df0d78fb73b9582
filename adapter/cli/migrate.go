package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/careerlift/quota/internal/usage/infrastructure/persistence"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Convert legacy flat usage records in Redis",
	Long: `Scans the Redis keyspace for usage records in the old flat format
(top-level per-feature counters, no period tracking) and rewrites them
in the current structured form. Already-converted records are skipped,
so the command is safe to re-run.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app := GetApp()
		if app == nil || app.RedisClient == nil {
			fmt.Fprintln(cmd.OutOrStdout(), "Migrate requires the redis storage backend.")
			return nil
		}

		migrator := persistence.NewRedisMigrator(app.RedisClient, app.Config.UsageRecordTTL, app.Logger)
		migrated, err := migrator.Run(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Migrated %d legacy record(s).\n", migrated)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
