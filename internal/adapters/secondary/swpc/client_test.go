package swpc

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
)

func TestLatestKpIndex_ReturnsMostRecentEntry(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/json/planetary_k_index_1m.json", r.URL.Path)

		fmt.Fprint(w, `[
			{"time_tag":"2024-03-15T11:58:00","estimated_kp":2.33},
			{"time_tag":"2024-03-15T11:59:00","estimated_kp":2.67},
			{"time_tag":"2024-03-15T12:00:00","estimated_kp":3.00}
		]`)
	}))
	defer server.Close()

	client := NewClient(server.URL, server.Client(), zap.NewNop())

	data, err := client.LatestKpIndex(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 3.00, data.KpIndex)
	assert.False(t, data.Storm)
	assert.Equal(t, time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC), data.ObservedAt)
}

func TestLatestKpIndex_StormCondition(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"time_tag":"2024-05-10T22:00:00","estimated_kp":8.33}]`)
	}))
	defer server.Close()

	client := NewClient(server.URL, server.Client(), zap.NewNop())

	data, err := client.LatestKpIndex(context.Background())

	require.NoError(t, err)
	assert.True(t, data.Storm)
}

func TestLatestKpIndex_EmptyFeed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[]`)
	}))
	defer server.Close()

	client := NewClient(server.URL, server.Client(), zap.NewNop())

	_, err := client.LatestKpIndex(context.Background())

	assert.Error(t, err)
}

func TestLatestXrayFlux_FiltersLongWavelengthBand(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/json/goes/primary/xrays-1-day.json", r.URL.Path)

		fmt.Fprint(w, `[
			{"time_tag":"2024-03-15T11:59:00","flux":1.1e-8,"energy":"0.05-0.4nm"},
			{"time_tag":"2024-03-15T11:59:00","flux":2.4e-6,"energy":"0.1-0.8nm"},
			{"time_tag":"2024-03-15T12:00:00","flux":1.2e-8,"energy":"0.05-0.4nm"},
			{"time_tag":"2024-03-15T12:00:00","flux":3.1e-6,"energy":"0.1-0.8nm"}
		]`)
	}))
	defer server.Close()

	client := NewClient(server.URL, server.Client(), zap.NewNop())

	data, err := client.LatestXrayFlux(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 3.1e-6, data.Flux)
	assert.Equal(t, "C", data.Class)
	assert.Equal(t, 0.15, data.FlareProbability)
	assert.Equal(t, time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC), data.ObservedAt)
}

func TestLatestXrayFlux_NoLongBandReadings(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"time_tag":"2024-03-15T12:00:00","flux":1.2e-8,"energy":"0.05-0.4nm"}]`)
	}))
	defer server.Close()

	client := NewClient(server.URL, server.Client(), zap.NewNop())

	_, err := client.LatestXrayFlux(context.Background())

	assert.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "0.1-0.8nm"))
}

func TestClassifyFlux(t *testing.T) {
	tests := []struct {
		name        string
		flux        float64
		class       string
		probability float64
	}{
		{"quiet background", 3.0e-8, "A", 0.01},
		{"B class", 5.0e-7, "B", 0.05},
		{"C class", 2.0e-6, "C", 0.15},
		{"M class", 4.0e-5, "M", 0.45},
		{"X class", 2.0e-4, "X", 0.85},
		{"boundary stays in lower class", 9.99e-8, "A", 0.01},
		{"boundary crosses to B", 1.0e-7, "B", 0.05},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			class, probability := ClassifyFlux(tt.flux)
			assert.Equal(t, tt.class, class)
			assert.Equal(t, tt.probability, probability)
		})
	}
}

func TestLatestXrayFlux_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClient(server.URL, server.Client(), zap.NewNop())

	_, err := client.LatestXrayFlux(context.Background())

	assert.Error(t, err)
}
