package main

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"github.com/spf13/cobra"

	"console/internal/domain"
	"console/internal/service"
)

// importCmd represents the import command
var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Run import jobs",
	Long:  `Commands for import jobs, run directly against the local database.`,
}

var runImportCmd = &cobra.Command{
	Use:   "run [job-id]",
	Short: "Run an import job now",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := openServices(cfg, service.NopEmitter{})
		if err != nil {
			return err
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			svc.Close(ctx)
		}()

		result, err := svc.imports.RunJob(cmd.Context(), domain.AppContext{AppID: appID}, args[0])
		if err != nil {
			return err
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

func init() {
	importCmd.AddCommand(runImportCmd)
}
