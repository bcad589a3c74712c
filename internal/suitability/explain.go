package suitability

import (
	"fmt"
	"sort"
	"strings"

	"beemap-platform/internal/models"
)

// topFactorCount is how many contributing features an explanation keeps.
const topFactorCount = 5

// Explain predicts and then describes the top contributing factors,
// ordered by importance (ties broken by schema order), plus a
// score-bucketed text summary. Deterministic for identical inputs.
func (m *Model) Explain(values map[string]float64) (*models.Explanation, error) {
	prediction, err := m.Predict(values)
	if err != nil {
		return nil, err
	}
	importances, err := m.FeatureImportances()
	if err != nil {
		return nil, err
	}

	order := make([]int, len(m.schema))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return importances[m.schema[order[a]]] > importances[m.schema[order[b]]]
	})

	count := topFactorCount
	if count > len(order) {
		count = len(order)
	}

	factors := make([]models.ExplanationFactor, 0, count)
	for _, idx := range order[:count] {
		name := m.schema[idx]
		value := prediction.Features[name]
		factors = append(factors, models.ExplanationFactor{
			Factor:     describeFactor(name, value),
			Feature:    name,
			Value:      value,
			Importance: importances[name],
		})
	}

	return &models.Explanation{
		Score:        prediction.Score,
		Text:         scoreText(prediction.Score),
		TopFactors:   factors,
		ModelVersion: prediction.ModelVersion,
		Provenance:   prediction.Provenance,
	}, nil
}

// describeFactor maps (feature, value) to a human-readable factor
// string via a fixed rule table. Unmatched combinations fall back to a
// generic significance statement.
func describeFactor(name string, value float64) string {
	switch {
	case name == "ndvi" && value > 0.6:
		return "High vegetation density is very favorable"
	case name == "water_distance_km" && value < 0.3:
		return "Proximity to water sources is positive"
	case name == "urban_pct" && value > 0.4:
		return "High urbanization reduces apiary potential"
	case name == "forest_pct" && value > 0.5:
		return "Good forest cover increases nectar potential"
	case name == "temp_avg":
		if value >= 0.4 && value <= 0.6 {
			return "Temperature is in the suitable range"
		}
		return "Temperature is outside the ideal range"
	default:
		return fmt.Sprintf("%s has significant impact", titleCase(name))
	}
}

// scoreText buckets the score into a categorical explanation.
func scoreText(score float64) string {
	switch {
	case score >= 85:
		return "Excellent area for beekeeping, with ideal conditions for high honey production."
	case score >= 70:
		return "Good area for beekeeping, with favorable conditions in most aspects."
	case score >= 50:
		return "Moderately suitable area, with some manageable limitations."
	case score >= 30:
		return "Area with significant limitations for beekeeping, production may be below average."
	default:
		return "Poorly suited area for beekeeping, with multiple unfavorable factors."
	}
}

// titleCase turns a snake_case feature name into a display string.
func titleCase(name string) string {
	words := strings.Split(name, "_")
	for i, w := range words {
		if len(w) > 0 {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}
