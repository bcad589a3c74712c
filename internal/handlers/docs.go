package handlers

import (
	"encoding/json"
	"net/http"
)

// OpenAPISpec returns the OpenAPI 3.0 specification for the BeeMap Platform API
func OpenAPISpec(w http.ResponseWriter, r *http.Request) {
	spec := map[string]interface{}{
		"openapi": "3.0.0",
		"info": map[string]interface{}{
			"title":       "BeeMap Platform API",
			"description": "Beekeeping suitability estimation and flora classification from satellite imagery",
			"version":     "1.0.0",
			"contact": map[string]string{
				"name": "BeeMap Platform Team",
			},
		},
		"servers": []map[string]string{
			{"url": "http://localhost:8080", "description": "Local development server"},
		},
		"paths": map[string]interface{}{
			"/api/vegetation/analyze-area": map[string]interface{}{
				"post": map[string]interface{}{
					"summary":     "Analyze an area for beekeeping suitability",
					"description": "Scores a polygon (or rectangle) for apiary placement: vegetation, water, climate and terrain sub-scores, an explained 0-100 suitability score, recommendations and production estimates",
					"requestBody": map[string]interface{}{
						"required": true,
						"content": map[string]interface{}{
							"application/json": map[string]interface{}{
								"schema": map[string]interface{}{
									"type": "object",
									"properties": map[string]interface{}{
										"points": map[string]interface{}{
											"type":        "array",
											"description": "Closed polygon, at least 3 coordinate pairs",
											"items": map[string]interface{}{
												"type": "object",
												"properties": map[string]interface{}{
													"latitude":  map[string]string{"type": "number"},
													"longitude": map[string]string{"type": "number"},
												},
											},
										},
										"bounds": map[string]interface{}{
											"type":        "object",
											"description": "Rectangle alternative to points",
											"properties": map[string]interface{}{
												"min_latitude":  map[string]string{"type": "number"},
												"min_longitude": map[string]string{"type": "number"},
												"max_latitude":  map[string]string{"type": "number"},
												"max_longitude": map[string]string{"type": "number"},
											},
										},
										"date": map[string]interface{}{
											"type":        "string",
											"description": "Phenology date (YYYY-MM-DD), defaults to today",
										},
									},
								},
							},
						},
					},
					"responses": map[string]interface{}{
						"200": map[string]interface{}{"description": "Area analysis with suitability score, explanation and recommendations"},
						"400": map[string]interface{}{"description": "Invalid geometry or request body"},
						"502": map[string]interface{}{"description": "Upstream data provider failed (retryable)"},
					},
				},
			},
			"/api/flora/detect": map[string]interface{}{
				"post": map[string]interface{}{
					"summary":     "Classify flora in satellite imagery",
					"description": "Runs the patch classifier (or spectral threshold fallback) over named band grids and returns the class distribution, vegetation health and flowering estimate",
					"requestBody": map[string]interface{}{
						"required": true,
						"content": map[string]interface{}{
							"application/json": map[string]interface{}{
								"schema": map[string]interface{}{
									"type": "object",
									"properties": map[string]interface{}{
										"bands": map[string]interface{}{
											"type":        "object",
											"description": "Band name (blue, green, red, red_edge, nir, swir1) to 2-D reflectance grid",
										},
										"date": map[string]interface{}{
											"type":        "string",
											"description": "Phenology date (YYYY-MM-DD), defaults to today",
										},
									},
								},
							},
						},
					},
					"responses": map[string]interface{}{
						"200": map[string]interface{}{"description": "Class distribution, health metrics and flowering info"},
						"400": map[string]interface{}{"description": "Incomplete or mismatched band set"},
						"422": map[string]interface{}{"description": "No valid pixels for statistics"},
					},
				},
			},
			"/api/vegetation/flora-types": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "List tracked melliferous species",
					"description": "The fixed species registry with scientific names, flowering months and nectar/pollen values",
					"responses": map[string]interface{}{
						"200": map[string]interface{}{"description": "Species registry"},
					},
				},
			},
			"/health": map[string]interface{}{
				"get": map[string]interface{}{
					"summary": "Health check",
					"responses": map[string]interface{}{
						"200": map[string]interface{}{"description": "Service is healthy"},
					},
				},
			},
			"/metrics": map[string]interface{}{
				"get": map[string]interface{}{
					"summary": "Prometheus metrics",
					"responses": map[string]interface{}{
						"200": map[string]interface{}{"description": "Metrics in Prometheus exposition format"},
					},
				},
			},
		},
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(spec)
}
