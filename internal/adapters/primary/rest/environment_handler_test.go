package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/joacim-boive/phantom-tracker/internal/core/domain"
)

type MockEnvironmentService struct {
	mock.Mock
}

func (m *MockEnvironmentService) AssembleHistoricalRange(ctx context.Context, coords domain.Coordinates, start, end time.Time) ([]domain.HistoricalWeatherPoint, error) {
	args := m.Called(ctx, coords, start, end)

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]domain.HistoricalWeatherPoint), args.Error(1)
}

func (m *MockEnvironmentService) AssembleCurrentSnapshot(ctx context.Context, coords domain.Coordinates) (*domain.EnvironmentalSnapshot, error) {
	args := m.Called(ctx, coords)

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.EnvironmentalSnapshot), args.Error(1)
}

func (m *MockEnvironmentService) CacheStats(ctx context.Context, coords domain.Coordinates) (*domain.CacheStats, error) {
	args := m.Called(ctx, coords)

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.CacheStats), args.Error(1)
}

func TestGetCurrentSnapshot_Success(t *testing.T) {
	service := new(MockEnvironmentService)
	handler := NewEnvironmentHandler(service, zap.NewNop())

	snapshot := &domain.EnvironmentalSnapshot{
		ID:          uuid.New(),
		ObservedAt:  time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC),
		LocationKey: "37.77,-122.42",
		Weather: &domain.CurrentWeather{
			Temperature: 16.4,
			Pressure:    1016,
		},
		Lunar: domain.LunarData{PhaseName: "full_moon"},
	}

	service.On("AssembleCurrentSnapshot", mock.Anything, domain.Coordinates{Latitude: 37.77, Longitude: -122.42}).
		Return(snapshot, nil)

	req := httptest.NewRequest("GET", "/api/v1/environment/current?lat=37.77&lon=-122.42", nil)
	rec := httptest.NewRecorder()

	handler.GetCurrentSnapshot(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body domain.EnvironmentalSnapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, snapshot.ID, body.ID)
	assert.Equal(t, "37.77,-122.42", body.LocationKey)
	require.NotNil(t, body.Weather)
	assert.Equal(t, 16.4, body.Weather.Temperature)

	service.AssertExpectations(t)
}

func TestGetCurrentSnapshot_MissingParameters(t *testing.T) {
	handler := NewEnvironmentHandler(new(MockEnvironmentService), zap.NewNop())

	req := httptest.NewRequest("GET", "/api/v1/environment/current?lat=37.77", nil)
	rec := httptest.NewRecorder()

	handler.GetCurrentSnapshot(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "MISSING_PARAMETERS", body.Error)
}

func TestGetCurrentSnapshot_InvalidLatitude(t *testing.T) {
	handler := NewEnvironmentHandler(new(MockEnvironmentService), zap.NewNop())

	req := httptest.NewRequest("GET", "/api/v1/environment/current?lat=abc&lon=-122.42", nil)
	rec := httptest.NewRecorder()

	handler.GetCurrentSnapshot(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "INVALID_LATITUDE", body.Error)
}

func TestGetHistory_Success(t *testing.T) {
	service := new(MockEnvironmentService)
	handler := NewEnvironmentHandler(service, zap.NewNop())

	points := []domain.HistoricalWeatherPoint{
		{Date: "2024-03-01", Temperature: 11.2},
		{Date: "2024-03-02", Temperature: 12.8},
	}

	service.On("AssembleHistoricalRange", mock.Anything,
		domain.Coordinates{Latitude: 37.77, Longitude: -122.42},
		time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC),
	).Return(points, nil)

	req := httptest.NewRequest("GET", "/api/v1/environment/history?lat=37.77&lon=-122.42&start=2024-03-01&end=2024-03-02", nil)
	rec := httptest.NewRecorder()

	handler.GetHistory(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body HistoryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "37.77,-122.42", body.LocationKey)
	assert.Len(t, body.Points, 2)
	assert.Equal(t, "2024-03-01", body.Points[0].Date)

	service.AssertExpectations(t)
}

func TestGetHistory_InvalidDateFormat(t *testing.T) {
	handler := NewEnvironmentHandler(new(MockEnvironmentService), zap.NewNop())

	req := httptest.NewRequest("GET", "/api/v1/environment/history?lat=37.77&lon=-122.42&start=03-01-2024&end=2024-03-02", nil)
	rec := httptest.NewRecorder()

	handler.GetHistory(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "INVALID_RANGE", body.Error)
}

func TestGetHistory_ServiceErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "range too wide",
			err:        &domain.EnvironmentError{Code: "RANGE_TOO_WIDE", Message: "range exceeds 90 days"},
			wantStatus: http.StatusBadRequest,
			wantCode:   "RANGE_TOO_WIDE",
		},
		{
			name:       "invalid coordinates",
			err:        &domain.EnvironmentError{Code: "INVALID_COORDINATES", Message: "latitude out of range"},
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_COORDINATES",
		},
		{
			name:       "unknown domain code",
			err:        &domain.EnvironmentError{Code: "SOMETHING_ELSE", Message: "boom"},
			wantStatus: http.StatusInternalServerError,
			wantCode:   "INTERNAL_ERROR",
		},
		{
			name:       "plain error",
			err:        assert.AnError,
			wantStatus: http.StatusInternalServerError,
			wantCode:   "INTERNAL_ERROR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := new(MockEnvironmentService)
			handler := NewEnvironmentHandler(service, zap.NewNop())

			service.On("AssembleHistoricalRange", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
				Return(nil, tt.err)

			req := httptest.NewRequest("GET", "/api/v1/environment/history?lat=37.77&lon=-122.42&start=2024-03-01&end=2024-03-02", nil)
			rec := httptest.NewRecorder()

			handler.GetHistory(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)

			var body ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantCode, body.Error)
		})
	}
}

func TestGetCacheStats_Success(t *testing.T) {
	service := new(MockEnvironmentService)
	handler := NewEnvironmentHandler(service, zap.NewNop())

	service.On("CacheStats", mock.Anything, domain.Coordinates{Latitude: 37.77, Longitude: -122.42}).
		Return(&domain.CacheStats{
			LocationKey: "37.77,-122.42",
			Count:       42,
			OldestDate:  "2024-01-01",
			NewestDate:  "2024-03-15",
		}, nil)

	req := httptest.NewRequest("GET", "/api/v1/environment/cache/stats?lat=37.77&lon=-122.42", nil)
	rec := httptest.NewRecorder()

	handler.GetCacheStats(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body domain.CacheStats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 42, body.Count)
	assert.Equal(t, "2024-01-01", body.OldestDate)

	service.AssertExpectations(t)
}
