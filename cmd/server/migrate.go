package main

import (
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	config "github.com/Himanshux99/BackendProjectProjectManagement/configs"
	"github.com/Himanshux99/BackendProjectProjectManagement/internal/infrastructure/db"
)

// NewMigrateCmd creates the migrate subcommand and its up/down/version children.
func NewMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage database migrations",
		Long:  `Apply or roll back the embedded PostgreSQL schema migrations.`,
	}

	up := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: withDatabase(func(cmd *cobra.Command, database *db.Database) error {
			cmd.Println("Running migrations...")
			if err := database.Migrate(); err != nil {
				return oops.Code("MIGRATION_FAILED").With("operation", "run migrations").Wrap(err)
			}
			cmd.Println("Migrations completed successfully")
			return nil
		}),
	}

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		RunE: withDatabase(func(cmd *cobra.Command, database *db.Database) error {
			if steps < 1 {
				return oops.Code("INVALID_STEPS").Errorf("--steps must be at least 1, got %d", steps)
			}
			if err := database.MigrateDown(steps); err != nil {
				return oops.Code("MIGRATION_FAILED").With("operation", "roll back migrations").With("steps", steps).Wrap(err)
			}
			cmd.Printf("Rolled back %d migration(s)\n", steps)
			return nil
		}),
	}
	down.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")

	version := &cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		RunE: withDatabase(func(cmd *cobra.Command, database *db.Database) error {
			v, dirty, err := database.MigrationVersion()
			if err != nil {
				return oops.Code("MIGRATION_FAILED").With("operation", "read schema version").Wrap(err)
			}
			cmd.Printf("version: %d dirty: %t\n", v, dirty)
			return nil
		}),
	}

	cmd.AddCommand(up, down, version)
	return cmd
}

// withDatabase connects using the database settings alone and closes the
// connection once fn returns.
func withDatabase(fn func(cmd *cobra.Command, database *db.Database) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		cmd.Println("Connecting to database...")
		database, err := db.NewDatabaseWithConfig(config.LoadDatabase())
		if err != nil {
			return oops.Code("DB_CONNECT_FAILED").With("operation", "connect to database").Wrap(err)
		}
		defer database.Close()
		return fn(cmd, database)
	}
}
