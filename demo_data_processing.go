package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"beemap-platform/internal/flora"
	"beemap-platform/internal/models"
	"beemap-platform/internal/providers"
	"beemap-platform/internal/spectral"
	"beemap-platform/internal/suitability"
	"beemap-platform/internal/vegetation"
	"beemap-platform/pkg/logging"
)

// DemoDataProcessing runs the analysis pipeline without a database or
// HTTP server: synthetic scene, spectral indices, vegetation health,
// phenology, flora classification and a suitability prediction.
func main() {
	fmt.Println("════════════════════════════════════════════════════════════════")
	fmt.Println("BEEMAP PLATFORM - ANALYSIS PIPELINE DEMONSTRATION")
	fmt.Println("════════════════════════════════════════════════════════════════")
	fmt.Println()

	logger := logging.NewStructuredLogger("demo", "1.0.0", logging.InfoLevel)
	ctx := context.Background()

	// Synthetic Sentinel-2 scene
	const sceneSize = 64
	raster := providers.NewSyntheticRaster(sceneSize, sceneSize, 7)
	meta := raster.Metadata()

	fmt.Printf("Synthetic scene: %dx%d px, %d bands, CRS %s\n\n", meta.Height, meta.Width, meta.BandCount, meta.CRS)

	bands, err := models.ExtractBands(raster)
	if err != nil {
		logger.Error(ctx, "Failed to extract bands", logging.Fields{}, err)
		os.Exit(1)
	}

	fmt.Println("─────────────────────────────────────────────────────────────")
	fmt.Println("Spectral Indices")
	fmt.Println("─────────────────────────────────────────────────────────────")

	indices, err := spectral.ComputeAll(bands)
	if err != nil {
		logger.Error(ctx, "Failed to compute indices", logging.Fields{}, err)
		os.Exit(1)
	}

	indexNames := make([]string, 0, len(indices))
	for name := range indices {
		indexNames = append(indexNames, name)
	}
	sort.Strings(indexNames)
	for _, name := range indexNames {
		fmt.Printf("  %-16s mean %.4f\n", name, vegetation.GridMean(indices[name]))
	}
	fmt.Println()

	fmt.Println("─────────────────────────────────────────────────────────────")
	fmt.Println("Vegetation Health")
	fmt.Println("─────────────────────────────────────────────────────────────")

	health, err := vegetation.SummarizeHealth(indices[models.IndexNDVI])
	if err != nil {
		logger.Error(ctx, "Failed to summarize health", logging.Fields{}, err)
		os.Exit(1)
	}

	fmt.Printf("  NDVI min/mean/max:   %.3f / %.3f / %.3f\n", health.MinNDVI, health.AverageNDVI, health.MaxNDVI)
	fmt.Printf("  Unhealthy:           %.1f%%\n", health.Unhealthy)
	fmt.Printf("  Moderate:            %.1f%%\n", health.Moderate)
	fmt.Printf("  Healthy or better:   %.1f%%\n", health.Healthy+health.VeryHealthy+health.Exceptional)
	fmt.Println()

	fmt.Println("─────────────────────────────────────────────────────────────")
	fmt.Println("Flowering Phenology")
	fmt.Println("─────────────────────────────────────────────────────────────")

	observed := time.Date(2024, time.April, 15, 0, 0, 0, 0, time.UTC)
	flowering := vegetation.EstimateFlowering(indices[models.IndexNDVI], indices[models.IndexEVI], observed)

	fmt.Printf("  Date: %s (season: %s)\n", observed.Format("2006-01-02"), flowering.Season)
	speciesNames := make([]string, 0, len(flowering.SpeciesStage))
	for name := range flowering.SpeciesStage {
		speciesNames = append(speciesNames, name)
	}
	sort.Strings(speciesNames)
	for _, name := range speciesNames {
		stage := flowering.SpeciesStage[name]
		fmt.Printf("  %-18s %-8s %.0f%% flowering\n", name, stage.Stage, stage.FloweringPercent)
	}
	fmt.Println()

	fmt.Println("─────────────────────────────────────────────────────────────")
	fmt.Println("Flora Classification (threshold fallback)")
	fmt.Println("─────────────────────────────────────────────────────────────")

	classMap, err := flora.DetectRosemary(indices[models.IndexNDVI], indices[models.IndexSWIRNIRRatio])
	if err != nil {
		logger.Error(ctx, "Failed to detect rosemary", logging.Fields{}, err)
		os.Exit(1)
	}

	for _, entry := range sortedDistribution(classMap) {
		fmt.Printf("  %-18s %.1f%%\n", entry.name, entry.fraction*100)
	}
	fmt.Println()

	fmt.Println("─────────────────────────────────────────────────────────────")
	fmt.Println("Suitability Prediction")
	fmt.Println("─────────────────────────────────────────────────────────────")

	model, err := suitability.TrainDemo(suitability.DefaultTrainingSeed, 300)
	if err != nil {
		logger.Error(ctx, "Failed to train demo model", logging.Fields{}, err)
		os.Exit(1)
	}

	explanation, err := model.Explain(map[string]float64{
		"ndvi":              vegetation.GridMean(indices[models.IndexNDVI]),
		"evi":               vegetation.GridMean(indices[models.IndexEVI]),
		"forest_pct":        0.2,
		"shrubland_pct":     0.4,
		"grassland_pct":     0.2,
		"cropland_pct":      0.1,
		"urban_pct":         0.05,
		"water_pct":         0.05,
		"elevation":         0.25,
		"slope":             0.1,
		"temp_avg":          0.45,
		"rainfall_mm":       0.5,
		"wind_speed":        0.2,
		"water_distance_km": 0.3,
	})
	if err != nil {
		logger.Error(ctx, "Failed to explain prediction", logging.Fields{}, err)
		os.Exit(1)
	}

	fmt.Printf("  Score: %.1f/100\n", explanation.Score)
	fmt.Printf("  %s\n", explanation.Text)
	for _, factor := range explanation.TopFactors {
		fmt.Printf("  - %s\n", factor.Factor)
	}

	fmt.Println()
	fmt.Println("════════════════════════════════════════════════════════════════")
	fmt.Println("DEMONSTRATION COMPLETE")
	fmt.Println("════════════════════════════════════════════════════════════════")
}

type distributionEntry struct {
	name     string
	fraction float64
}

func sortedDistribution(classMap *flora.ClassMap) []distributionEntry {
	distribution := classMap.Distribution()
	entries := make([]distributionEntry, 0, len(distribution))
	for class, fraction := range distribution {
		entries = append(entries, distributionEntry{flora.ClassNames[class], fraction})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].name < entries[j].name })
	return entries
}
