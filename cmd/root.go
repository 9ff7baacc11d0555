package cmd

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stockroom",
		Short: "Product catalog with GitHub-mirrored storage",
		Long: `Stockroom maintains a small product catalog in a local JSON snapshot and
mirrors every change to a GitHub repository through the contents API.

The local snapshot is the source of truth; mirroring is best-effort and a
failed push never rolls back a local write.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
		},
	}

	// Add subcommands
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newExportCmd())

	return cmd
}
