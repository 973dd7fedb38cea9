package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/eleven-am/conduit/internal/logger"
	"github.com/eleven-am/conduit/pkg/conduit"
	"github.com/spf13/cobra"
)

var migrateTimeout time.Duration

// migrateCmd applies the schema. The DDL is idempotent, so re-running
// against an up-to-date database is a no-op.
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the database schema",
	Long: `Creates the Conduit tables, constraints and indexes if they do not
already exist. Safe to run repeatedly.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := conduit.LoadConfig(configPath)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		c, err := conduit.Open(cfg)
		if err != nil {
			return fmt.Errorf("connecting to database: %w", err)
		}
		defer c.Close()

		ctx, cancel := context.WithTimeout(cmd.Context(), migrateTimeout)
		defer cancel()

		if err := conduit.EnsureSchema(ctx, c.DB()); err != nil {
			return fmt.Errorf("applying schema: %w", err)
		}

		logger.CLI().Info("schema is up to date")
		return nil
	},
}

func init() {
	migrateCmd.Flags().DurationVar(&migrateTimeout, "timeout", 30*time.Second, "migration timeout")
}
