package cmd

import (
	"fmt"
	"os"

	"github.com/eleven-am/conduit/internal/logger"
	"github.com/spf13/cobra"
)

var (
	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "conduit",
	Short: "Persistence layer for the Conduit publishing platform",
	Long: `Manages the Conduit database: schema migration and operational checks.

Connection settings come from a YAML config file and the DATABASE_URL
environment variable, with the environment taking precedence.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			logger.SetLevel("debug")
		}
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "conduit.yaml", "path to config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(versionCmd)
}
