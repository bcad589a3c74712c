package cmd

import (
	"github.com/spf13/cobra"
)

var (
	modelPath string
	outputDir string
)

// rootCmd is the base command
var rootCmd = &cobra.Command{
	Use:   "florac",
	Short: "Flora classification and model tooling for the BeeMap platform",
	Long: `florac runs the BeeMap flora pipeline from the command line.

It classifies satellite band grids into flora classes, reports vegetation
health and flowering stage, and trains the demonstration suitability model.`,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&modelPath, "model", "", "Path to a flora classifier bundle")
	rootCmd.PersistentFlags().StringVar(&outputDir, "output", ".", "Directory for result files")
}
