package main

import (
	"os"

	"github.com/spf13/cobra"

	"console/internal/config"
)

var (
	appID string
	cfg   *config.Config
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "console",
	Short: "Admin console for schema-typed collections",
	Long: "Serve the collections admin console (REST API, server-rendered pages, event stream), " +
		"run it as an MCP server, or work with a running instance from the command line.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load()
		if err != nil {
			return err
		}
		cfg = loaded
		if appID == "" {
			appID = cfg.App
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&appID, "app", "", "App ID (defaults to CONSOLE_APP or \"default\")")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(collectionsCmd)
	rootCmd.AddCommand(recordsCmd)
	rootCmd.AddCommand(importCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
