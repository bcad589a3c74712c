package vegetation

import (
	"time"

	"beemap-platform/internal/models"
)

// Flowering stages.
const (
	StageDormant = "dormant"
	StagePre     = "pre"
	StageEarly   = "early"
	StageLate    = "late"
	StagePeak    = "peak"
	StagePost    = "post"
)

// Seasons. The month bucketing is a Northern-Hemisphere rule.
const (
	SeasonSpring = "spring"
	SeasonSummer = "summer"
	SeasonAutumn = "autumn"
	SeasonWinter = "winter"
)

// SeasonOf buckets a month into a calendar season.
func SeasonOf(month time.Month) string {
	switch {
	case month >= time.March && month <= time.May:
		return SeasonSpring
	case month >= time.June && month <= time.August:
		return SeasonSummer
	case month >= time.September && month <= time.November:
		return SeasonAutumn
	default:
		return SeasonWinter
	}
}

// EstimateFlowering maps NDVI/EVI grids and a date to a per-species
// flowering estimate. Only the rosemary rules react to vegetation
// density; the other species follow season and month alone.
func EstimateFlowering(ndvi, evi models.Grid, date time.Time) *models.FloweringInfo {
	avgNDVI := GridMean(ndvi)
	avgEVI := GridMean(evi)
	season := SeasonOf(date.Month())
	month := date.Month()

	stages := make(map[string]models.SpeciesStage, len(Species))
	for _, sp := range Species {
		stages[sp.Name] = sp.stageFor(season, month, avgNDVI)
	}

	return &models.FloweringInfo{
		Season:       season,
		AverageNDVI:  avgNDVI,
		AverageEVI:   avgEVI,
		SpeciesStage: stages,
	}
}

func rosemaryStage(season string, month time.Month, avgNDVI float64) models.SpeciesStage {
	switch season {
	case SeasonSpring:
		if avgNDVI > 0.5 {
			return models.SpeciesStage{Stage: StagePeak, FloweringPercent: 80}
		}
		return models.SpeciesStage{Stage: StageEarly, FloweringPercent: 40}
	case SeasonSummer:
		if avgNDVI > 0.4 {
			return models.SpeciesStage{Stage: StageLate, FloweringPercent: 30}
		}
		return models.SpeciesStage{Stage: StagePost, FloweringPercent: 10}
	case SeasonAutumn:
		return models.SpeciesStage{Stage: StageDormant, FloweringPercent: 0}
	default:
		if month == time.February && avgNDVI > 0.3 {
			return models.SpeciesStage{Stage: StagePre, FloweringPercent: 5}
		}
		return models.SpeciesStage{Stage: StageDormant, FloweringPercent: 0}
	}
}

func heatherStage(season string, month time.Month, _ float64) models.SpeciesStage {
	switch season {
	case SeasonSpring:
		return models.SpeciesStage{Stage: StagePre, FloweringPercent: 10}
	case SeasonSummer:
		if month == time.August {
			return models.SpeciesStage{Stage: StageEarly, FloweringPercent: 30}
		}
		return models.SpeciesStage{Stage: StagePre, FloweringPercent: 10}
	case SeasonAutumn:
		if month == time.September {
			return models.SpeciesStage{Stage: StagePeak, FloweringPercent: 80}
		}
		return models.SpeciesStage{Stage: StageLate, FloweringPercent: 40}
	default:
		return models.SpeciesStage{Stage: StageDormant, FloweringPercent: 0}
	}
}

func eucalyptusStage(season string, month time.Month, _ float64) models.SpeciesStage {
	switch season {
	case SeasonSpring, SeasonSummer:
		return models.SpeciesStage{Stage: StageDormant, FloweringPercent: 0}
	case SeasonAutumn:
		if month == time.November {
			return models.SpeciesStage{Stage: StagePre, FloweringPercent: 10}
		}
		return models.SpeciesStage{Stage: StageDormant, FloweringPercent: 0}
	default:
		if month == time.December || month == time.January {
			return models.SpeciesStage{Stage: StagePeak, FloweringPercent: 70}
		}
		return models.SpeciesStage{Stage: StageLate, FloweringPercent: 30}
	}
}

func orangeStage(season string, month time.Month, _ float64) models.SpeciesStage {
	switch season {
	case SeasonSpring:
		if month == time.April {
			return models.SpeciesStage{Stage: StagePeak, FloweringPercent: 90}
		}
		return models.SpeciesStage{Stage: StageEarly, FloweringPercent: 50}
	case SeasonSummer:
		return models.SpeciesStage{Stage: StagePost, FloweringPercent: 10}
	default:
		return models.SpeciesStage{Stage: StageDormant, FloweringPercent: 0}
	}
}
