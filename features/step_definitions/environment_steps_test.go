package steps

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cucumber/godog"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/joacim-boive/phantom-tracker/internal/adapters/primary/rest"
	"github.com/joacim-boive/phantom-tracker/internal/core/astro"
	"github.com/joacim-boive/phantom-tracker/internal/core/domain"
)

func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: InitializeScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{".."},
			TestingT: t,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("feature tests failed")
	}
}

type testContext struct {
	server       *httptest.Server
	response     *http.Response
	responseBody map[string]interface{}
	mockService  *mockEnvironmentService
}

type mockEnvironmentService struct {
	providersDown bool
}

func (m *mockEnvironmentService) AssembleCurrentSnapshot(ctx context.Context, coords domain.Coordinates) (*domain.EnvironmentalSnapshot, error) {
	if err := coords.Validate(); err != nil {
		return nil, &domain.EnvironmentError{
			Code:    "INVALID_COORDINATES",
			Message: err.Error(),
		}
	}

	now := time.Now().UTC()

	snapshot := &domain.EnvironmentalSnapshot{
		ID:          uuid.New(),
		ObservedAt:  now,
		LocationKey: coords.LocationKey(),
		Lunar:       astro.LunarFor(now),
		Temporal:    astro.TemporalFor(now, coords),
	}

	if !m.providersDown {
		snapshot.Weather = &domain.CurrentWeather{
			Temperature: 16.4,
			Pressure:    1016,
			Humidity:    55,
			Description: "clear sky",
		}
		snapshot.Geomagnetic = &domain.GeomagneticData{KpIndex: 2.33, ObservedAt: now}
	}

	return snapshot, nil
}

func (m *mockEnvironmentService) AssembleHistoricalRange(ctx context.Context, coords domain.Coordinates, start, end time.Time) ([]domain.HistoricalWeatherPoint, error) {
	if err := coords.Validate(); err != nil {
		return nil, &domain.EnvironmentError{
			Code:    "INVALID_COORDINATES",
			Message: err.Error(),
		}
	}

	if end.Sub(start) > 90*24*time.Hour {
		return nil, &domain.EnvironmentError{
			Code:    "RANGE_TOO_WIDE",
			Message: "requested range exceeds 90 days",
		}
	}

	var points []domain.HistoricalWeatherPoint

	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		points = append(points, domain.HistoricalWeatherPoint{
			Date:        day.Format("2006-01-02"),
			Temperature: 12.0,
			Pressure:    1013,
		})
	}

	return points, nil
}

func (m *mockEnvironmentService) CacheStats(ctx context.Context, coords domain.Coordinates) (*domain.CacheStats, error) {
	return &domain.CacheStats{LocationKey: coords.LocationKey()}, nil
}

func InitializeScenario(ctx *godog.ScenarioContext) {
	tc := &testContext{}

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		tc.mockService = &mockEnvironmentService{}
		tc.response = nil
		tc.responseBody = nil

		return ctx, nil
	})

	ctx.After(func(ctx context.Context, sc *godog.Scenario, err error) (context.Context, error) {
		if tc.server != nil {
			tc.server.Close()
			tc.server = nil
		}

		return ctx, err
	})

	ctx.Step(`^the environment service is running$`, tc.theEnvironmentServiceIsRunning)
	ctx.Step(`^the external providers are unavailable$`, tc.theExternalProvidersAreUnavailable)
	ctx.Step(`^I request the current snapshot for latitude ([\-\d.]+) and longitude ([\-\d.]+)$`, tc.iRequestTheCurrentSnapshot)
	ctx.Step(`^I request the current snapshot without coordinates$`, tc.iRequestTheCurrentSnapshotWithoutCoordinates)
	ctx.Step(`^I request history for latitude ([\-\d.]+) and longitude ([\-\d.]+) from "([^"]*)" to "([^"]*)"$`, tc.iRequestHistory)
	ctx.Step(`^I should receive a successful response$`, tc.iShouldReceiveSuccessfulResponse)
	ctx.Step(`^I should receive a bad request error$`, tc.iShouldReceiveBadRequestError)
	ctx.Step(`^the response should contain lunar data$`, tc.theResponseShouldContainLunarData)
	ctx.Step(`^the response should contain temporal data$`, tc.theResponseShouldContainTemporalData)
	ctx.Step(`^the weather field should be null$`, tc.theWeatherFieldShouldBeNull)
	ctx.Step(`^the response should contain (\d+) history points$`, tc.theResponseShouldContainHistoryPoints)
	ctx.Step(`^the error code should be "([^"]*)"$`, tc.theErrorCodeShouldBe)
}

func (tc *testContext) theEnvironmentServiceIsRunning() error {
	logger := zap.NewNop()
	handler := rest.NewEnvironmentHandler(tc.mockService, logger)

	router := mux.NewRouter()
	router.HandleFunc("/api/v1/environment/current", handler.GetCurrentSnapshot).Methods("GET")
	router.HandleFunc("/api/v1/environment/history", handler.GetHistory).Methods("GET")
	router.HandleFunc("/api/v1/environment/cache/stats", handler.GetCacheStats).Methods("GET")

	tc.server = httptest.NewServer(router)

	return nil
}

func (tc *testContext) theExternalProvidersAreUnavailable() error {
	tc.mockService.providersDown = true

	return nil
}

func (tc *testContext) get(url string) error {
	resp, err := http.Get(url)

	if err != nil {
		return err
	}

	tc.response = resp

	return json.NewDecoder(resp.Body).Decode(&tc.responseBody)
}

func (tc *testContext) iRequestTheCurrentSnapshot(lat, lon string) error {
	return tc.get(fmt.Sprintf("%s/api/v1/environment/current?lat=%s&lon=%s", tc.server.URL, lat, lon))
}

func (tc *testContext) iRequestTheCurrentSnapshotWithoutCoordinates() error {
	return tc.get(fmt.Sprintf("%s/api/v1/environment/current", tc.server.URL))
}

func (tc *testContext) iRequestHistory(lat, lon, start, end string) error {
	return tc.get(fmt.Sprintf("%s/api/v1/environment/history?lat=%s&lon=%s&start=%s&end=%s",
		tc.server.URL, lat, lon, start, end))
}

func (tc *testContext) iShouldReceiveSuccessfulResponse() error {
	if tc.response.StatusCode != http.StatusOK {
		return fmt.Errorf("expected status 200, got %d", tc.response.StatusCode)
	}

	return nil
}

func (tc *testContext) iShouldReceiveBadRequestError() error {
	if tc.response.StatusCode != http.StatusBadRequest {
		return fmt.Errorf("expected status 400, got %d", tc.response.StatusCode)
	}

	return nil
}

func (tc *testContext) theResponseShouldContainLunarData() error {
	lunar, ok := tc.responseBody["lunar"].(map[string]interface{})

	if !ok {
		return fmt.Errorf("response does not contain lunar data")
	}

	if _, ok := lunar["phase_name"]; !ok {
		return fmt.Errorf("lunar data does not contain a phase name")
	}

	return nil
}

func (tc *testContext) theResponseShouldContainTemporalData() error {
	temporal, ok := tc.responseBody["temporal"].(map[string]interface{})

	if !ok {
		return fmt.Errorf("response does not contain temporal data")
	}

	if _, ok := temporal["day_length_hours"]; !ok {
		return fmt.Errorf("temporal data does not contain day length")
	}

	return nil
}

func (tc *testContext) theWeatherFieldShouldBeNull() error {
	if weather, ok := tc.responseBody["weather"]; !ok || weather != nil {
		return fmt.Errorf("expected weather field to be null, got %v", tc.responseBody["weather"])
	}

	return nil
}

func (tc *testContext) theResponseShouldContainHistoryPoints(count int) error {
	points, ok := tc.responseBody["points"].([]interface{})

	if !ok {
		return fmt.Errorf("response does not contain history points")
	}

	if len(points) != count {
		return fmt.Errorf("expected %d history points, got %d", count, len(points))
	}

	return nil
}

func (tc *testContext) theErrorCodeShouldBe(expected string) error {
	code, ok := tc.responseBody["error"].(string)

	if !ok {
		return fmt.Errorf("error code not found in response")
	}

	if code != expected {
		return fmt.Errorf("expected error code %s, got %s", expected, code)
	}

	return nil
}
