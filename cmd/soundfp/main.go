package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	storeDriver string
	storeDSN    string
	output      string = "text" // "text" or "json"
)

var rootCmd = &cobra.Command{
	Use:   "soundfp",
	Short: "soundfp - audio fingerprinting and recognition engine",
	Long: `soundfp ingests audio into a fingerprint store and resolves
unknown audio clips against it using a Haar-wavelet / LSH min-hash
recognition pipeline.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&storeDriver, "store-driver", "", "Model store driver (postgres or sqlite); defaults to SOUNDFP_STORE_DRIVER")
	rootCmd.PersistentFlags().StringVar(&storeDSN, "store-dsn", "", "Model store DSN; defaults to SOUNDFP_STORE_DSN")
	rootCmd.PersistentFlags().StringVar(&output, "output", output, "Output format: text or json")

	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(serveMetricsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
