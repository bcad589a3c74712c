package models

import "time"

// ModelProvenance distinguishes a persisted model from the in-process
// demonstration fallback. Callers can tell which one produced a score.
type ModelProvenance string

const (
	ProvenanceLoaded          ModelProvenance = "loaded"
	ProvenanceTrainedFallback ModelProvenance = "trained_fallback"
)

// PredictionResult pairs a regressor score with the feature values and
// model identity that produced it.
type PredictionResult struct {
	Score        float64            `json:"score"` // 0-100, clamped
	Features     map[string]float64 `json:"features"`
	ModelVersion string             `json:"model_version"`
	Provenance   ModelProvenance    `json:"provenance"`
}

// ExplanationFactor is one (feature, value, importance) tuple with a
// human-readable description.
type ExplanationFactor struct {
	Factor     string  `json:"factor"`
	Feature    string  `json:"feature"`
	Value      float64 `json:"value"`
	Importance float64 `json:"importance"`
}

// Explanation is the explainable output of a suitability prediction:
// the top contributing factors plus a score-bucketed text summary.
type Explanation struct {
	Score        float64             `json:"score"`
	Text         string              `json:"explanation"`
	TopFactors   []ExplanationFactor `json:"top_factors"`
	ModelVersion string              `json:"model_version"`
	Provenance   ModelProvenance     `json:"provenance"`
}

// HealthMetrics buckets valid NDVI pixels into five health categories
// (percentages) and carries basic statistics of the valid values.
type HealthMetrics struct {
	MinNDVI     float64 `json:"min_ndvi"`
	MaxNDVI     float64 `json:"max_ndvi"`
	AverageNDVI float64 `json:"average_ndvi"`
	MedianNDVI  float64 `json:"median_ndvi"`
	StdNDVI     float64 `json:"std_ndvi"`

	Unhealthy   float64 `json:"unhealthy"`    // < 0.2
	Moderate    float64 `json:"moderate"`     // [0.2, 0.4)
	Healthy     float64 `json:"healthy"`      // [0.4, 0.6)
	VeryHealthy float64 `json:"very_healthy"` // [0.6, 0.8)
	Exceptional float64 `json:"exceptional"`  // >= 0.8
}

// SpeciesStage is one species' flowering stage for a season.
type SpeciesStage struct {
	Stage            string  `json:"stage"` // dormant, pre, early, late, peak, post
	FloweringPercent float64 `json:"flowering_percent"`
}

// FloweringInfo is the phenology estimate for a date.
type FloweringInfo struct {
	Season       string                  `json:"season"`
	AverageNDVI  float64                 `json:"average_ndvi"`
	AverageEVI   float64                 `json:"average_evi"`
	SpeciesStage map[string]SpeciesStage `json:"species_stage"`
}

// CategorySuitability is one per-category sub-score with its details.
type CategorySuitability struct {
	Score   float64                `json:"score"`
	Details map[string]interface{} `json:"details"`
}

// EstimatedProduction summarizes expected apiary output for an area.
type EstimatedProduction struct {
	HoneyKgPerHive float64 `json:"estimated_honey_kg_per_hive"`
	HiveCapacity   int     `json:"estimated_hive_capacity"`
	OptimalDensity float64 `json:"optimal_hive_density"`
}

// SatelliteMetadata describes the imagery behind an analysis.
type SatelliteMetadata struct {
	Source          string   `json:"source"`
	Date            string   `json:"date"`
	Resolution      string   `json:"resolution"`
	BandsUsed       []string `json:"bands_used"`
	CloudCoverage   string   `json:"cloud_coverage"`
	ProcessingLevel string   `json:"processing_level"`
}

// AreaAnalysisResponse is the JSON payload returned for an area analysis.
type AreaAnalysisResponse struct {
	AnalysisID       string  `json:"analysis_id"`
	SuitabilityScore float64 `json:"suitability_score"`

	Vegetation CategorySuitability `json:"vegetation_suitability"`
	Water      CategorySuitability `json:"water_suitability"`
	Climate    CategorySuitability `json:"climate_suitability"`
	Terrain    CategorySuitability `json:"terrain_suitability"`

	Explanation         *Explanation        `json:"explanation,omitempty"`
	Recommendations     []string            `json:"recommendations"`
	EstimatedProduction EstimatedProduction `json:"estimated_production"`

	FloweringInfo *FloweringInfo     `json:"flowering_info,omitempty"`
	Satellite     *SatelliteMetadata `json:"satellite_data,omitempty"`

	AreaSizeKm2     float64         `json:"area_size_km2"`
	ModelProvenance ModelProvenance `json:"model_provenance"`
	Timestamp       time.Time       `json:"timestamp"`
}

// FloraDetectionResponse is the JSON payload for an image classification.
type FloraDetectionResponse struct {
	AnalysisID        string             `json:"analysis_id"`
	ClassDistribution map[string]float64 `json:"class_distribution"` // class name -> percent
	RosemaryCoverage  float64            `json:"rosemary_coverage_percent"`
	Health            *HealthMetrics     `json:"health_metrics,omitempty"`
	Flowering         *FloweringInfo     `json:"flowering_info,omitempty"`
	ImageHeight       int                `json:"image_height"`
	ImageWidth        int                `json:"image_width"`
	Trained           bool               `json:"model_trained"`
	Timestamp         time.Time          `json:"timestamp"`
}
