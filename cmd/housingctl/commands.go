package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/iliyamo/campus-housing/internal/config"
	"github.com/iliyamo/campus-housing/internal/database"
	"github.com/iliyamo/campus-housing/internal/repository"
	"github.com/iliyamo/campus-housing/internal/service"
)

// openDB is swapped in tests.
var openDB = func() (*sql.DB, error) {
	config.LoadDotEnv()
	cfg := config.Load()
	return database.Open(database.Options{
		User:         cfg.DBUser,
		Pass:         cfg.DBPass,
		Host:         cfg.DBHost,
		Port:         cfg.DBPort,
		Name:         cfg.DBName,
		MaxOpenConns: 2,
	})
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "housingctl",
		Short:         "Maintenance tasks for the campus housing database",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.AddCommand(newMigrateCmd(), newCleanupCmd())
	return root
}

func newMigrateCmd() *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create missing tables",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if dryRun {
				for _, s := range database.Statements() {
					fmt.Fprintln(cmd.OutOrStdout(), s+";")
				}
				return nil
			}
			db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()
			ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
			defer cancel()
			n, err := database.Migrate(ctx, db)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "applied %d statements\n", n)
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the statements instead of running them")
	return cmd
}

func newCleanupCmd() *cobra.Command {
	var grace time.Duration
	cmd := &cobra.Command{
		Use:   "cleanup-tokens",
		Short: "Delete refresh tokens that expired or were revoked",
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()
			svc := service.NewTokenCleanupService(repository.NewTokenRepo(db), grace)
			n, err := svc.Cleanup(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %d tokens\n", n)
			return nil
		},
	}
	cmd.Flags().DurationVar(&grace, "grace", 24*time.Hour, "keep rows this long after expiry or revocation")
	return cmd
}
