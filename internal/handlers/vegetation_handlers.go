package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"beemap-platform/internal/models"
	"beemap-platform/internal/services"
	"beemap-platform/internal/vegetation"
	"beemap-platform/pkg/logging"
	"beemap-platform/pkg/metrics"
)

// VegetationHandler handles the area analysis and flora detection API.
type VegetationHandler struct {
	analysisService *services.AnalysisService
	floraService    *services.FloraService
	logger          *logging.StructuredLogger
	metrics         *metrics.Collector
}

// NewVegetationHandler creates a new vegetation handler
func NewVegetationHandler(
	analysisService *services.AnalysisService,
	floraService *services.FloraService,
	logger *logging.StructuredLogger,
	metricsCollector *metrics.Collector,
) *VegetationHandler {
	return &VegetationHandler{
		analysisService: analysisService,
		floraService:    floraService,
		logger:          logger,
		metrics:         metricsCollector,
	}
}

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	Code      int    `json:"code"`
	Kind      string `json:"kind,omitempty"`
	Retryable bool   `json:"retryable"`
}

// Bounds is a rectangle request shape, converted to a polygon.
type Bounds struct {
	MinLatitude  float64 `json:"min_latitude"`
	MinLongitude float64 `json:"min_longitude"`
	MaxLatitude  float64 `json:"max_latitude"`
	MaxLongitude float64 `json:"max_longitude"`
}

// AnalyzeAreaRequest is the POST /api/vegetation/analyze-area body.
// Either points or bounds must be present.
type AnalyzeAreaRequest struct {
	Points []models.Coordinates `json:"points,omitempty"`
	Bounds *Bounds              `json:"bounds,omitempty"`
	Date   string               `json:"date,omitempty"` // YYYY-MM-DD
}

// DetectFloraRequest is the POST /api/flora/detect body: named band
// grids plus an optional phenology date.
type DetectFloraRequest struct {
	Bands map[string][][]float64 `json:"bands"`
	Date  string                 `json:"date,omitempty"`
}

// AnalyzeArea handles POST /api/vegetation/analyze-area
func (h *VegetationHandler) AnalyzeArea(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	startTime := time.Now()

	defer func() {
		duration := time.Since(startTime)
		h.metrics.APIRequestDuration.WithLabelValues("/api/vegetation/analyze-area").Observe(duration.Seconds())
	}()

	var req AnalyzeAreaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendError(w, r, "invalid JSON body", http.StatusBadRequest, nil)
		return
	}

	area, err := areaFromRequest(&req)
	if err != nil {
		h.sendError(w, r, err.Error(), http.StatusBadRequest, err)
		return
	}

	date, err := parseDate(req.Date)
	if err != nil {
		h.sendError(w, r, "invalid date, expected YYYY-MM-DD", http.StatusBadRequest, nil)
		return
	}

	response, err := h.analysisService.AnalyzeArea(ctx, area, date)
	if err != nil {
		h.sendClassifiedError(w, r, err)
		return
	}

	h.metrics.RecordAPIRequest(r.URL.Path, r.Method, "200")
	h.sendJSON(w, response, http.StatusOK)
}

// DetectFlora handles POST /api/flora/detect
func (h *VegetationHandler) DetectFlora(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	startTime := time.Now()

	defer func() {
		duration := time.Since(startTime)
		h.metrics.APIRequestDuration.WithLabelValues("/api/flora/detect").Observe(duration.Seconds())
	}()

	var req DetectFloraRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendError(w, r, "invalid JSON body", http.StatusBadRequest, nil)
		return
	}
	if len(req.Bands) == 0 {
		h.sendError(w, r, "bands are required", http.StatusBadRequest, nil)
		return
	}

	date, err := parseDate(req.Date)
	if err != nil {
		h.sendError(w, r, "invalid date, expected YYYY-MM-DD", http.StatusBadRequest, nil)
		return
	}

	bands := make(models.BandSet, len(req.Bands))
	for name, grid := range req.Bands {
		bands[name] = grid
	}

	response, err := h.floraService.DetectFromBands(ctx, bands, date)
	if err != nil {
		h.sendClassifiedError(w, r, err)
		return
	}

	h.metrics.RecordAPIRequest(r.URL.Path, r.Method, "200")
	h.sendJSON(w, response, http.StatusOK)
}

// GetFloraTypes handles GET /api/vegetation/flora-types
func (h *VegetationHandler) GetFloraTypes(w http.ResponseWriter, r *http.Request) {
	h.metrics.RecordAPIRequest(r.URL.Path, r.Method, "200")
	h.sendJSON(w, map[string]interface{}{
		"species": vegetation.Species,
		"count":   len(vegetation.Species),
	}, http.StatusOK)
}

// HealthCheck handles GET /health
func (h *VegetationHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	status := map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	h.logger.Debug(ctx, "[HEALTH_CHECK] Health check requested", logging.Fields{})
	h.sendJSON(w, status, http.StatusOK)
}

// areaFromRequest builds the polygon from either explicit points or a
// rectangle.
func areaFromRequest(req *AnalyzeAreaRequest) (*models.Area, error) {
	if len(req.Points) > 0 {
		return &models.Area{Points: req.Points}, nil
	}
	if req.Bounds != nil {
		b := req.Bounds
		return &models.Area{Points: []models.Coordinates{
			{Latitude: b.MinLatitude, Longitude: b.MinLongitude},
			{Latitude: b.MinLatitude, Longitude: b.MaxLongitude},
			{Latitude: b.MaxLatitude, Longitude: b.MaxLongitude},
			{Latitude: b.MaxLatitude, Longitude: b.MinLongitude},
		}}, nil
	}
	return nil, &models.InvalidGeometryError{Reason: "either points or bounds are required"}
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse("2006-01-02", s)
}

// sendClassifiedError maps the error taxonomy onto HTTP statuses.
func (h *VegetationHandler) sendClassifiedError(w http.ResponseWriter, r *http.Request, err error) {
	var status int
	switch models.ErrorKind(err) {
	case models.KindInvalidGeometry, models.KindSchemaMismatch:
		status = http.StatusBadRequest
	case models.KindDegenerateInput:
		status = http.StatusUnprocessableEntity
	case models.KindModelNotReady:
		status = http.StatusServiceUnavailable
	case models.KindUpstreamData:
		status = http.StatusBadGateway
	default:
		status = http.StatusInternalServerError
	}
	h.sendError(w, r, err.Error(), status, err)
}

// sendJSON sends a JSON response
func (h *VegetationHandler) sendJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// sendError sends an error response
func (h *VegetationHandler) sendError(w http.ResponseWriter, r *http.Request, message string, statusCode int, err error) {
	h.metrics.RecordAPIRequest(r.URL.Path, r.Method, strconv.Itoa(statusCode))

	response := ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
		Code:    statusCode,
	}
	if err != nil {
		response.Kind = models.ErrorKind(err)
		response.Retryable = models.IsTransient(err)
		h.metrics.RecordAPIError(response.Kind, r.URL.Path)
	}

	h.sendJSON(w, response, statusCode)
}

// requestID stamps each request's context so every log line produced
// while serving it shares one request_id.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := logging.ContextWithRequestID(r.Context(), uuid.New().String())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RegisterRoutes registers all vegetation API routes
func (h *VegetationHandler) RegisterRoutes(router *mux.Router) {
	router.Use(requestID)
	router.HandleFunc("/api/vegetation/analyze-area", h.AnalyzeArea).Methods("POST")
	router.HandleFunc("/api/vegetation/flora-types", h.GetFloraTypes).Methods("GET")
	router.HandleFunc("/api/flora/detect", h.DetectFlora).Methods("POST")
	router.HandleFunc("/health", h.HealthCheck).Methods("GET")
	router.HandleFunc("/api/docs/openapi.json", OpenAPISpec).Methods("GET")
	router.HandleFunc("/api/docs", SwaggerUI).Methods("GET")
}
