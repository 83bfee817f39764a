package cmd

import (
	"context"
	"fmt"

	"dyebot/pkg/catalog"
	"dyebot/pkg/config"

	"github.com/spf13/cobra"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Validate and summarize the product catalog",
	Long:  "Loads the configured catalog file (or the compiled-in sample), validates it, and prints a per-category summary.",
	Run: func(cmd *cobra.Command, args []string) {
		_ = args

		cfg := localConfig()

		source, err := catalogSource(cfg)
		if err != nil {
			fmt.Printf("failed to open catalog: %v\n", err)
			return
		}

		index, err := catalog.Load(context.Background(), source)
		if err != nil {
			fmt.Printf("catalog invalid: %v\n", err)
			return
		}

		printCatalogSummary(index, cfg)
	},
}

func init() {
	rootCmd.AddCommand(catalogCmd)
}

func printCatalogSummary(index *catalog.Index, cfg *config.Config) {
	origin := cfg.Catalog.Path
	if origin == "" {
		origin = "embedded sample"
	}

	fmt.Printf("catalog: %s\n", origin)
	fmt.Printf("products: %d\n", index.Len())
	for _, summary := range index.Categories() {
		fmt.Printf("  %s: %d\n", summary.Key, summary.ProductCount)
	}
}
