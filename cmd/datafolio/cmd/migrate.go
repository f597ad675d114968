package cmd

import (
	"fmt"
	"os"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"

	"github.com/templui/datafolio/internal/db"
)

type dbFlags struct {
	driver string
	dsn    string
}

func MigrateCmd() *cobra.Command {
	flags := &dbFlags{}
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply, roll back or inspect schema migrations",
	}
	cmd.PersistentFlags().StringVar(&flags.driver, "driver", envOr("DB_DRIVER", "sqlite"), "database driver (sqlite, pgx, postgres)")
	cmd.PersistentFlags().StringVar(&flags.dsn, "dsn", envOr("DB_CONNECTION", "./data/datafolio.db?_pragma=foreign_keys(1)"), "database connection string")

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(flags, func(conn *sqlx.DB) error {
				return db.RunMigrations(conn.DB, flags.driver)
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent migration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(flags, func(conn *sqlx.DB) error {
				return db.MigrateDown(conn.DB, flags.driver)
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Print the current schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(flags, func(conn *sqlx.DB) error {
				version, err := db.MigrationVersion(conn.DB, flags.driver)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "schema version %d (%s)\n", version, flags.driver)
				return nil
			})
		},
	})
	return cmd
}

func withDB(flags *dbFlags, fn func(*sqlx.DB) error) error {
	conn, err := db.Init(flags.driver, flags.dsn)
	if err != nil {
		return err
	}
	defer db.Close(conn)
	return fn(conn)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
