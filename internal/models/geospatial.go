package models

import (
	"time"
)

// Coordinates is a geographic point in decimal degrees.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Area is a closed polygon of coordinates. Center and AreaKm2 are
// derived lazily during normalization; neither is nil afterwards.
type Area struct {
	Points  []Coordinates `json:"points"`
	Center  *Coordinates  `json:"center,omitempty"`
	AreaKm2 *float64      `json:"area_km2,omitempty"`
}

// Land cover classes. Percentages over an area sum to 1.0.
type LandCoverClass string

const (
	LandCoverForest    LandCoverClass = "forest"
	LandCoverShrubland LandCoverClass = "shrubland"
	LandCoverGrassland LandCoverClass = "grassland"
	LandCoverCropland  LandCoverClass = "cropland"
	LandCoverUrban     LandCoverClass = "urban"
	LandCoverWater     LandCoverClass = "water"
	LandCoverBarren    LandCoverClass = "barren"
)

// WaterSource is one hydrographic feature near an area.
type WaterSource struct {
	Coordinates          Coordinates `json:"coordinates" db:"-"`
	Type                 string      `json:"type" db:"source_type"` // river, lake, pond
	Seasonal             bool        `json:"seasonal" db:"seasonal"`
	DistanceFromCenterKm float64     `json:"distance_from_center_km" db:"distance_km"`
}

// ClimateData is the climate provider output shape.
type ClimateData struct {
	AverageTemperature float64   `json:"average_temperature"` // Celsius
	MinTemperature     float64   `json:"min_temperature"`
	MaxTemperature     float64   `json:"max_temperature"`
	RainfallMmYear     float64   `json:"rainfall_mm_year"`
	WindSpeedAvg       float64   `json:"wind_speed_avg"` // km/h
	HumidityAvg        float64   `json:"humidity_avg"`   // percent
	Timestamp          time.Time `json:"timestamp"`
	Source             string    `json:"source"`
}

// ElevationData is the elevation provider output shape.
type ElevationData struct {
	MinElevationM float64 `json:"min_elevation_m"`
	MaxElevationM float64 `json:"max_elevation_m"`
	SlopeAvgDeg   float64 `json:"slope_avg_deg"`
	Aspect        string  `json:"aspect"` // predominant direction
}

// GeoAnalysis is the complete geospatial picture of an area, assembled
// from the provider outputs plus derived apiary metrics.
type GeoAnalysis struct {
	Area              Area                       `json:"area"`
	VegetationIndices map[string]float64         `json:"vegetation_indices"`
	LandCover         map[LandCoverClass]float64 `json:"land_cover"`
	WaterSources      []WaterSource              `json:"water_sources"`
	Climate           ClimateData                `json:"climate"`
	Elevation         ElevationData              `json:"elevation"`
	Timestamp         time.Time                  `json:"timestamp"`

	FloweringPlantsPercent  float64 `json:"flowering_plants_percentage"`
	WaterProximityScore     float64 `json:"water_proximity_score"`     // 0-1
	ClimateSuitabilityScore float64 `json:"climate_suitability_score"` // 0-1
	OverallBeeSuitability   float64 `json:"overall_bee_suitability"`   // 0-100
}
