package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/stockroom-dev/stockroom/internal/catalog"
	"github.com/stockroom-dev/stockroom/internal/config"
	"github.com/stockroom-dev/stockroom/internal/export"
)

func newExportCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the product snapshot to another format",
		Long: `Exports the local product snapshot to Parquet, YAML or JSONL.

The output format is inferred from the output file extension.`,
		Example: `  # Export to parquet
  stockroom export -o products.parquet

  # Export to YAML
  stockroom export -o products.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.FromEnv()
			store := catalog.NewStore(cfg.SnapshotPath)

			products, err := store.Load()
			if err != nil {
				return err
			}

			if err := export.Snapshot(products, output); err != nil {
				return err
			}

			fmt.Printf("Exported %d products to %s\n", len(products), output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "products.parquet", "Output file (.parquet, .yaml or .jsonl)")

	return cmd
}
