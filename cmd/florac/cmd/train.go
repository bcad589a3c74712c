package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"beemap-platform/internal/suitability"
)

var (
	trainSeed    int64
	trainSamples int
)

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Train the demonstration suitability model",
	Long: `Train the beekeeping suitability model on seeded synthetic data and
write the resulting bundle next to the output directory.

The same seed always produces the same model, so a bundle trained here
can be checked against a server-side fallback model.`,
	Run: func(cmd *cobra.Command, args []string) {
		if exitCode := runTrain(os.Stdout); exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

func init() {
	trainCmd.Flags().Int64Var(&trainSeed, "seed", suitability.DefaultTrainingSeed, "Training data seed")
	trainCmd.Flags().IntVar(&trainSamples, "samples", 500, "Number of synthetic training samples")
	rootCmd.AddCommand(trainCmd)
}

func runTrain(w io.Writer) int {
	model, err := suitability.TrainDemo(trainSeed, trainSamples)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}

	outPath := filepath.Join(outputDir, "suitability_model.json")
	if err := suitability.SaveBundle(model.Bundle(), outPath); err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}

	fmt.Fprintf(w, "Trained suitability model (seed %d, %d samples)\n", trainSeed, trainSamples)

	importances, err := model.FeatureImportances()
	if err == nil {
		type pair struct {
			name  string
			value float64
		}
		ranked := make([]pair, 0, len(importances))
		for name, value := range importances {
			ranked = append(ranked, pair{name, value})
		}
		sort.Slice(ranked, func(i, j int) bool { return ranked[i].value > ranked[j].value })

		fmt.Fprintln(w, "Feature importances:")
		for _, p := range ranked {
			fmt.Fprintf(w, "  %-22s %.4f\n", p.name, p.value)
		}
	}

	fmt.Fprintf(w, "Bundle written to %s\n", outPath)
	return 0
}
