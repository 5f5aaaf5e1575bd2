package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/coffee-roulette/roulette-hub/internal/infrastructure/persistence/postgres"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	RunE:  runWithApp(runMigrate),
}

var migrateStatus bool

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.Flags().BoolVar(&migrateStatus, "status", false, "Only list migrations and whether they are applied")
}

func runMigrate(ctx context.Context, a *cliApp, cmd *cobra.Command, _ []string) error {
	migrator := postgres.NewMigrator(a.infra.DB)

	if migrateStatus {
		list, err := migrator.Status(ctx)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd, list)
		}
		for _, m := range list {
			state := "pending"
			if m.IsApplied {
				state = "applied " + m.AppliedAt.Format("2006-01-02 15:04")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%3d  %-30s %s\n", m.Version, m.Name, state)
		}
		return nil
	}

	n, err := migrator.Migrate(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "applied %d migration(s)\n", n)
	return nil
}
