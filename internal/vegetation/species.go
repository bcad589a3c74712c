package vegetation

import (
	"time"

	"beemap-platform/internal/models"
)

// stageFunc maps (season, month, average NDVI) to a flowering stage.
type stageFunc func(season string, month time.Month, avgNDVI float64) models.SpeciesStage

// SpeciesInfo describes one melliferous species tracked by the platform.
type SpeciesInfo struct {
	Name            string `json:"name"`
	ScientificName  string `json:"scientific_name"`
	FloweringMonths []int  `json:"flowering_months"`
	NectarValue     string `json:"nectar_value"`
	PollenValue     string `json:"pollen_value"`
	stageFor        stageFunc
}

// Species is the fixed registry of tracked species.
var Species = []SpeciesInfo{
	{
		Name:            "rosemary",
		ScientificName:  "Salvia rosmarinus",
		FloweringMonths: []int{3, 4, 5, 6},
		NectarValue:     "high",
		PollenValue:     "medium",
		stageFor:        rosemaryStage,
	},
	{
		Name:            "heather",
		ScientificName:  "Calluna vulgaris",
		FloweringMonths: []int{8, 9, 10},
		NectarValue:     "high",
		PollenValue:     "high",
		stageFor:        heatherStage,
	},
	{
		Name:            "eucalyptus",
		ScientificName:  "Eucalyptus globulus",
		FloweringMonths: []int{11, 12, 1, 2},
		NectarValue:     "very_high",
		PollenValue:     "medium",
		stageFor:        eucalyptusStage,
	},
	{
		Name:            "orange",
		ScientificName:  "Citrus sinensis",
		FloweringMonths: []int{3, 4, 5},
		NectarValue:     "very_high",
		PollenValue:     "low",
		stageFor:        orangeStage,
	},
}

// SpeciesByName returns the registry entry for a species, if present.
func SpeciesByName(name string) (SpeciesInfo, bool) {
	for _, sp := range Species {
		if sp.Name == name {
			return sp, true
		}
	}
	return SpeciesInfo{}, false
}
