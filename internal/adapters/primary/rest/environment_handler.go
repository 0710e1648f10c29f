// Package rest implements HTTP handlers for the environmental data
// endpoints. This package serves as the primary adapter, translating HTTP
// requests into domain operations and formatting responses for clients.
package rest

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/joacim-boive/phantom-tracker/internal/core/domain"
	"github.com/joacim-boive/phantom-tracker/internal/core/ports"
	"github.com/joacim-boive/phantom-tracker/internal/middleware"
)

// EnvironmentHandler handles HTTP requests for environmental data
// operations. It acts as the primary adapter between HTTP transport and
// business logic, managing request parsing, validation, and response
// formatting.
type EnvironmentHandler struct {
	// service provides access to environmental data operations
	service ports.EnvironmentService

	// logger records request processing events and errors
	logger *zap.Logger
}

// NewEnvironmentHandler creates a new HTTP handler for environmental data
// operations.
//
// Parameters:
//   - service: EnvironmentService interface for business logic operations
//   - logger: Zap logger for request logging and error tracking
//
// Returns:
//   - *EnvironmentHandler: Configured handler instance
func NewEnvironmentHandler(service ports.EnvironmentService, logger *zap.Logger) *EnvironmentHandler {
	return &EnvironmentHandler{
		service: service,
		logger:  logger,
	}
}

// HistoryResponse represents the JSON structure returned by the history
// endpoint.
type HistoryResponse struct {
	LocationKey string                          `json:"location_key"`
	Start       string                          `json:"start"`
	End         string                          `json:"end"`
	Points      []domain.HistoricalWeatherPoint `json:"points"`
}

// ErrorResponse represents a standardized error response structure.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// GetCurrentSnapshot handles GET requests for the current environmental
// snapshot.
//
// Parameters:
//   - w: HTTP response writer
//   - r: HTTP request containing 'lat' and 'lon' query parameters
//
// Response codes:
//   - 200: Success with EnvironmentalSnapshot JSON
//   - 400: Invalid parameters
//   - 500: Internal server error
func (h *EnvironmentHandler) GetCurrentSnapshot(w http.ResponseWriter, r *http.Request) {
	coords, ok := h.parseCoordinates(w, r)

	if !ok {
		return
	}

	snapshot, err := h.service.AssembleCurrentSnapshot(r.Context(), coords)

	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.respondWithJSON(w, http.StatusOK, snapshot)
}

// GetHistory handles GET requests for the historical daily series.
//
// Parameters:
//   - w: HTTP response writer
//   - r: HTTP request with 'lat', 'lon', 'start' and 'end' query parameters
//
// Response codes:
//   - 200: Success with HistoryResponse JSON
//   - 400: Invalid parameters (INVALID_COORDINATES, INVALID_RANGE, RANGE_TOO_WIDE)
//   - 500: Internal server error
func (h *EnvironmentHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	coords, ok := h.parseCoordinates(w, r)

	if !ok {
		return
	}

	startStr := r.URL.Query().Get("start")
	endStr := r.URL.Query().Get("end")

	if startStr == "" || endStr == "" {
		h.respondWithError(
			w,
			http.StatusBadRequest,
			"MISSING_PARAMETERS",
			"Both 'start' and 'end' query parameters are required (YYYY-MM-DD)",
		)

		return
	}

	start, err := time.Parse("2006-01-02", startStr)

	if err != nil {
		h.respondWithError(
			w,
			http.StatusBadRequest,
			"INVALID_RANGE",
			"Invalid 'start' date format, expected YYYY-MM-DD",
		)

		return
	}

	end, err := time.Parse("2006-01-02", endStr)

	if err != nil {
		h.respondWithError(
			w,
			http.StatusBadRequest,
			"INVALID_RANGE",
			"Invalid 'end' date format, expected YYYY-MM-DD",
		)

		return
	}

	points, err := h.service.AssembleHistoricalRange(r.Context(), coords, start, end)

	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	response := HistoryResponse{
		LocationKey: coords.LocationKey(),
		Start:       startStr,
		End:         endStr,
		Points:      points,
	}

	h.respondWithJSON(w, http.StatusOK, response)
}

// GetCacheStats handles GET requests for history cache coverage.
//
// Response codes:
//   - 200: Success with CacheStats JSON
//   - 400: Invalid parameters
//   - 500: Internal server error
func (h *EnvironmentHandler) GetCacheStats(w http.ResponseWriter, r *http.Request) {
	coords, ok := h.parseCoordinates(w, r)

	if !ok {
		return
	}

	stats, err := h.service.CacheStats(r.Context(), coords)

	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.respondWithJSON(w, http.StatusOK, stats)
}

// parseCoordinates extracts and validates the 'lat' and 'lon' query
// parameters, writing an error response on failure.
func (h *EnvironmentHandler) parseCoordinates(w http.ResponseWriter, r *http.Request) (domain.Coordinates, bool) {
	latStr := r.URL.Query().Get("lat")
	lonStr := r.URL.Query().Get("lon")

	if latStr == "" || lonStr == "" {
		h.respondWithError(
			w,
			http.StatusBadRequest,
			"MISSING_PARAMETERS",
			"Both 'lat' and 'lon' query parameters are required",
		)

		return domain.Coordinates{}, false
	}

	latitude, err := strconv.ParseFloat(latStr, 64)

	if err != nil {
		h.respondWithError(
			w,
			http.StatusBadRequest,
			"INVALID_LATITUDE",
			"Invalid latitude format",
		)

		return domain.Coordinates{}, false
	}

	longitude, err := strconv.ParseFloat(lonStr, 64)

	if err != nil {
		h.respondWithError(
			w,
			http.StatusBadRequest,
			"INVALID_LONGITUDE",
			"Invalid longitude format",
		)

		return domain.Coordinates{}, false
	}

	return domain.Coordinates{
		Latitude:  latitude,
		Longitude: longitude,
	}, true
}

// respondWithJSON sends a JSON response with the specified status code.
//
// Parameters:
//   - w: HTTP response writer
//   - status: HTTP status code to return
//   - payload: Data to encode as JSON response body
func (h *EnvironmentHandler) respondWithJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to encode response", zap.Error(err))
	}
}

// respondWithError sends a standardized error response.
//
// Parameters:
//   - w: HTTP response writer
//   - status: HTTP status code for the error
//   - code: Machine-readable error code
//   - message: Human-readable error message
func (h *EnvironmentHandler) respondWithError(w http.ResponseWriter, status int, code, message string) {
	response := ErrorResponse{
		Error:   code,
		Message: message,
	}

	h.respondWithJSON(w, status, response)
}

// handleServiceError maps domain errors to appropriate HTTP responses.
//
// Error mappings:
//   - INVALID_COORDINATES, INVALID_RANGE, RANGE_TOO_WIDE,
//     MALFORMED_LOCATION_KEY -> 400 Bad Request
//   - Other errors -> 500 Internal Server Error
func (h *EnvironmentHandler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var e *domain.EnvironmentError

	switch {
	case errors.As(err, &e):
		switch e.Code {
		case "INVALID_COORDINATES", "INVALID_RANGE", "RANGE_TOO_WIDE", "MALFORMED_LOCATION_KEY":
			h.respondWithError(w, http.StatusBadRequest, e.Code, e.Message)
		default:
			h.respondWithError(
				w,
				http.StatusInternalServerError,
				"INTERNAL_ERROR",
				"An unexpected error occurred",
			)
		}
	default:
		h.logger.Error("unexpected error",
			zap.Error(err),
			zap.String("correlation_id", middleware.GetCorrelationID(r.Context())),
			zap.String("request_id", middleware.GetRequestID(r.Context())),
		)

		h.respondWithError(
			w,
			http.StatusInternalServerError,
			"INTERNAL_ERROR",
			"An unexpected error occurred",
		)
	}
}
