package openweather

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/joacim-boive/phantom-tracker/internal/core/domain"
)

var testCoords = domain.Coordinates{Latitude: 37.77, Longitude: -122.42}

func TestFetchPointInTime_PicksNoonAdjacentSample(t *testing.T) {
	noon := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "/data/3.0/onecall/timemachine")
		assert.Equal(t, fmt.Sprintf("%d", noon.Unix()), r.URL.Query().Get("dt"))

		fmt.Fprintf(w, `{"data":[
			{"dt":%d,"temp":9.1,"feels_like":8.0,"pressure":1010,"humidity":80,"wind_speed":3.0,"clouds":40,"weather":[{"description":"overcast clouds"}]},
			{"dt":%d,"temp":14.2,"feels_like":13.5,"pressure":1013,"humidity":60,"wind_speed":4.1,"clouds":20,"weather":[{"description":"few clouds"}]},
			{"dt":%d,"temp":11.0,"feels_like":10.2,"pressure":1012,"humidity":70,"wind_speed":2.2,"clouds":30,"weather":[{"description":"scattered clouds"}]}
		]}`, noon.Add(-8*time.Hour).Unix(), noon.Add(-30*time.Minute).Unix(), noon.Add(7*time.Hour).Unix())
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key", server.Client(), zap.NewNop())

	point, err := client.FetchPointInTime(context.Background(), testCoords, noon)

	require.NoError(t, err)
	assert.Equal(t, "2024-03-15", point.Date)
	assert.Equal(t, noon.Add(-30*time.Minute).Unix(), point.Timestamp)
	assert.Equal(t, 14.2, point.Temperature)
	assert.Equal(t, "few clouds", point.Description)
}

func TestFetchPointInTime_FallsBackToSeriesMidpoint(t *testing.T) {
	noon := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

	// All samples sit well outside the noon tolerance.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"data":[
			{"dt":%d,"temp":6.0,"pressure":1008,"humidity":85},
			{"dt":%d,"temp":7.5,"pressure":1009,"humidity":82},
			{"dt":%d,"temp":8.9,"pressure":1010,"humidity":78}
		]}`, noon.Add(-11*time.Hour).Unix(), noon.Add(-9*time.Hour).Unix(), noon.Add(-7*time.Hour).Unix())
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key", server.Client(), zap.NewNop())

	point, err := client.FetchPointInTime(context.Background(), testCoords, noon)

	require.NoError(t, err)
	assert.Equal(t, 7.5, point.Temperature)
}

func TestFetchPointInTime_EmptySeries(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":[]}`)
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key", server.Client(), zap.NewNop())

	_, err := client.FetchPointInTime(context.Background(), testCoords, time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC))

	assert.Error(t, err)
}

func TestFetchPointInTime_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key", server.Client(), zap.NewNop())

	_, err := client.FetchPointInTime(context.Background(), testCoords, time.Now())

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestFetchCurrent_WithAirQuality(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.Contains(r.URL.Path, "/data/2.5/weather"):
			fmt.Fprint(w, `{
				"main":{"temp":16.4,"feels_like":15.9,"pressure":1016,"humidity":55},
				"wind":{"speed":5.2},
				"clouds":{"all":10},
				"weather":[{"description":"clear sky"}]
			}`)
		case strings.Contains(r.URL.Path, "/data/2.5/air_pollution"):
			fmt.Fprint(w, `{"list":[{"main":{"aqi":2}}]}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key", server.Client(), zap.NewNop())

	weather, err := client.FetchCurrent(context.Background(), testCoords)

	require.NoError(t, err)
	assert.Equal(t, 16.4, weather.Temperature)
	assert.Equal(t, 1016.0, weather.Pressure)
	assert.Equal(t, "clear sky", weather.Description)
	assert.Equal(t, 2, weather.AQI)
}

func TestFetchCurrent_AirQualityFailureIsNonFatal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "/data/2.5/weather") {
			fmt.Fprint(w, `{"main":{"temp":16.4,"pressure":1016,"humidity":55},"wind":{"speed":5.2},"clouds":{"all":10},"weather":[]}`)
			return
		}

		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key", server.Client(), zap.NewNop())

	weather, err := client.FetchCurrent(context.Background(), testCoords)

	require.NoError(t, err)
	assert.Equal(t, 0, weather.AQI)
}

func TestFetchCurrent_WeatherEndpointDown(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key", server.Client(), zap.NewNop())

	_, err := client.FetchCurrent(context.Background(), testCoords)

	assert.Error(t, err)
}
