package commands

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/sevaops/bskdash/config"
	"github.com/sevaops/bskdash/dataset"
	"github.com/sevaops/bskdash/db"
	"github.com/sevaops/bskdash/errors"
	"github.com/sevaops/bskdash/logger"
)

// DBCmd groups relational-store management commands
var DBCmd = &cobra.Command{
	Use:   "db",
	Short: "Manage the bskdash relational store",
}

var dbPath string
var dbLoadDataDir string

var dbMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending schema migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		database, err := openDatabase(dbPath)
		if err != nil {
			return err
		}
		defer database.Close()

		pterm.Success.Println("Migrations applied")
		return nil
	},
}

var dbLoadCmd = &cobra.Command{
	Use:   "load",
	Short: "Seed the reference tables from the flat-file dataset",
	RunE: func(cmd *cobra.Command, args []string) error {
		database, err := openDatabase(dbPath)
		if err != nil {
			return err
		}
		defer database.Close()

		cfg, err := config.Load()
		if err != nil {
			return errors.Wrap(err, "failed to load configuration")
		}

		candidates := config.DataDirCandidates
		if dbLoadDataDir != "" {
			candidates = append([]string{dbLoadDataDir}, candidates...)
		} else if cfg.Data.Dir != "" {
			candidates = append([]string{cfg.Data.Dir}, candidates...)
		}

		dir := dataset.ResolveDataDir(candidates, logger.Logger)
		snap, err := dataset.NewFileBackend(dir, logger.Logger).Load(cmd.Context())
		if err != nil {
			return errors.Wrapf(err, "failed to load flat-file dataset from %s", dir)
		}

		if err := db.Seed(cmd.Context(), database, snap, logger.Logger); err != nil {
			return errors.Wrap(err, "failed to seed reference tables")
		}

		pterm.Success.Printfln("Loaded %d services, %d BSKs, %d DEOs, %d provisions",
			len(snap.Services), len(snap.Centers), len(snap.Agents), len(snap.Provisions))
		return nil
	},
}

var dbStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show reference table row counts",
	RunE: func(cmd *cobra.Command, args []string) error {
		database, err := openDatabase(dbPath)
		if err != nil {
			return err
		}
		defer database.Close()

		counts, err := db.Stats(context.Background(), database)
		if err != nil {
			return errors.Wrap(err, "failed to collect table stats")
		}

		rows := pterm.TableData{{"Table", "Rows"}}
		for _, table := range []string{"service_master", "bsk_master", "deo_master", "provision"} {
			rows = append(rows, []string{table, fmt.Sprintf("%d", counts[table])})
		}
		return pterm.DefaultTable.WithHasHeader().WithData(rows).Render()
	},
}

func init() {
	DBCmd.PersistentFlags().StringVar(&dbPath, "db-path", "", "SQLite database path (overrides config)")
	dbLoadCmd.Flags().StringVar(&dbLoadDataDir, "data-dir", "", "Flat-file data directory (overrides config)")

	DBCmd.AddCommand(dbMigrateCmd)
	DBCmd.AddCommand(dbLoadCmd)
	DBCmd.AddCommand(dbStatsCmd)
}

// openDatabase opens and migrates a database using the specified path.
// If dbPath is empty, it loads the path from config.
func openDatabase(dbPath string) (*sql.DB, error) {
	if dbPath == "" {
		cfg, err := config.Load()
		if err != nil {
			return nil, errors.Wrap(err, "failed to load configuration")
		}
		dbPath = cfg.Database.Path
	}

	database, err := db.Open(dbPath, logger.Logger)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open database at %s", dbPath)
	}

	if err := db.Migrate(database, logger.Logger); err != nil {
		database.Close()
		return nil, errors.Wrapf(err, "failed to run migrations on %s", dbPath)
	}

	return database, nil
}
