// Package cli provides the command-line interface of the handoff panel:
// the HTTP server and its maintenance commands.
package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/tbourn/wa-handoff-panel/internal/config"
	"github.com/tbourn/wa-handoff-panel/internal/repo"
	"github.com/tbourn/wa-handoff-panel/internal/sysutil"
)

// Version is set at build time.
var Version = "0.1.0"

// app is the state shared by subcommands after PersistentPreRunE.
type app struct {
	envFile string
	cfg     config.Config
}

// NewRootCmd builds the command tree. Each call returns an independent tree.
func NewRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "panel",
		Short: "WhatsApp multi-tenant handoff panel",
		Long: `panel serves the operator dashboard API of a multi-tenant WhatsApp
bot platform: bot/human handoff with inactivity timeout, chat history,
manual replies relayed through the Graph API, and a Server-Sent Events feed.

Configuration is read from the environment (and an optional .env file).`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "help" {
				return nil
			}
			if err := loadEnvFile(a.envFile); err != nil {
				return err
			}
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			a.cfg = cfg
			sysutil.SetupLogger(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogPretty)
			return nil
		},
	}

	root.PersistentFlags().StringVar(&a.envFile, "env-file", "", "dotenv file to load (default .env when present)")

	root.AddCommand(newServeCmd(a))
	root.AddCommand(newMigrateCmd(a))
	root.AddCommand(newSweepCmd(a))
	root.AddCommand(newTenantCmd(a))
	return root
}

// Execute runs the command tree against os.Args.
func Execute() error {
	return NewRootCmd().Execute()
}

// loadEnvFile loads path, or .env when path is empty and the file exists.
// Variables already in the environment win.
func loadEnvFile(path string) error {
	if path == "" {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load .env: %w", err)
		}
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// openDB opens the configured database and migrates the schema.
func (a *app) openDB() (*gorm.DB, func(), error) {
	db, err := repo.OpenSQLite(a.cfg.DBPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open database %s: %w", a.cfg.DBPath, err)
	}
	closer := func() {
		if sqlDB, err := db.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to close database: %v\n", err)
			}
		}
	}
	if err := repo.AutoMigrate(db); err != nil {
		closer()
		return nil, nil, fmt.Errorf("migrate: %w", err)
	}
	return db, closer, nil
}
