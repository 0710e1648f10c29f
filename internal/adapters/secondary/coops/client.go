// Package coops implements the tidal source interface against the NOAA
// CO-OPS (Center for Operational Oceanographic Products and Services) data
// API. Two calls per station: the latest observed water level and the
// high/low predictions for the surrounding day, from which the current tide
// state is derived.
package coops

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/joacim-boive/phantom-tracker/internal/core/domain"
)

// coopsTimeLayout is the timestamp format used by the CO-OPS data API; all
// requests use GMT so the values parse as UTC.
const coopsTimeLayout = "2006-01-02 15:04"

// Client calls the CO-OPS water level and tide prediction products.
type Client struct {
	// baseURL is the CO-OPS data API base endpoint
	baseURL string

	// httpClient handles HTTP communication with timeout configuration
	httpClient *http.Client

	// logger records API interactions and errors
	logger *zap.Logger

	// now is injectable for tests
	now func() time.Time
}

// NewClient creates a new CO-OPS data API client.
func NewClient(baseURL string, httpClient *http.Client, logger *zap.Logger) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     logger,
		now:        time.Now,
	}
}

// waterLevelResponse represents the latest water level product. The API
// reports numeric values as strings.
type waterLevelResponse struct {
	Data []struct {
		Time  string `json:"t"`
		Value string `json:"v"`
	} `json:"data"`
}

// predictionsResponse represents the high/low tide prediction product.
type predictionsResponse struct {
	Predictions []struct {
		Time  string `json:"t"`
		Value string `json:"v"`
		Type  string `json:"type"`
	} `json:"predictions"`
}

// StationState returns the current tide state for a station: the latest
// observed water level plus the next predicted high or low event. The tide
// direction follows from the next event type, rising toward a high and
// falling toward a low.
func (c *Client) StationState(ctx context.Context, stationID string) (*domain.TidalData, error) {
	level, levelAt, err := c.latestWaterLevel(ctx, stationID)

	if err != nil {
		return nil, err
	}

	data := &domain.TidalData{
		StationID:  stationID,
		WaterLevel: level,
		ObservedAt: levelAt,
	}

	eventType, eventAt, eventLevel, err := c.nextTideEvent(ctx, stationID)

	if err != nil {
		// Predictions are an enrichment; the observed level still stands.
		c.logger.Warn("tide prediction fetch failed",
			zap.String("station_id", stationID),
			zap.Error(err))
		data.State = "unknown"

		return data, nil
	}

	data.NextEventAt = eventAt
	data.NextEventLevel = eventLevel

	switch eventType {
	case "H":
		data.NextEventType = "high"
		data.State = "rising"
	case "L":
		data.NextEventType = "low"
		data.State = "falling"
	default:
		data.State = "unknown"
	}

	return data, nil
}

// latestWaterLevel fetches the most recent observed water level in meters
// above MLLW.
func (c *Client) latestWaterLevel(ctx context.Context, stationID string) (float64, time.Time, error) {
	url := fmt.Sprintf("%s/api/prod/datagetter?product=water_level&station=%s&date=latest&datum=MLLW&units=metric&time_zone=gmt&format=json",
		c.baseURL, stationID)

	var payload waterLevelResponse

	if err := c.getJSON(ctx, url, &payload); err != nil {
		return 0, time.Time{}, err
	}

	if len(payload.Data) == 0 {
		return 0, time.Time{}, fmt.Errorf("no water level data for station %s", stationID)
	}

	latest := payload.Data[len(payload.Data)-1]

	value, err := strconv.ParseFloat(latest.Value, 64)

	if err != nil {
		return 0, time.Time{}, fmt.Errorf("malformed water level value %q: %w", latest.Value, err)
	}

	observedAt, err := time.Parse(coopsTimeLayout, latest.Time)

	if err != nil {
		return 0, time.Time{}, fmt.Errorf("malformed water level timestamp %q: %w", latest.Time, err)
	}

	return value, observedAt.UTC(), nil
}

// nextTideEvent fetches the high/low predictions around now and returns the
// first event still in the future.
func (c *Client) nextTideEvent(ctx context.Context, stationID string) (string, time.Time, float64, error) {
	now := c.now().UTC()
	begin := now.Add(-6 * time.Hour)
	end := now.Add(24 * time.Hour)

	url := fmt.Sprintf("%s/api/prod/datagetter?product=predictions&station=%s&begin_date=%s&end_date=%s&datum=MLLW&units=metric&time_zone=gmt&interval=hilo&format=json",
		c.baseURL, stationID, begin.Format("20060102 15:04"), end.Format("20060102 15:04"))

	var payload predictionsResponse

	if err := c.getJSON(ctx, url, &payload); err != nil {
		return "", time.Time{}, 0, err
	}

	for _, prediction := range payload.Predictions {
		eventAt, err := time.Parse(coopsTimeLayout, prediction.Time)

		if err != nil {
			return "", time.Time{}, 0, fmt.Errorf("malformed prediction timestamp %q: %w", prediction.Time, err)
		}

		if eventAt = eventAt.UTC(); !eventAt.After(now) {
			continue
		}

		level, err := strconv.ParseFloat(prediction.Value, 64)

		if err != nil {
			return "", time.Time{}, 0, fmt.Errorf("malformed prediction value %q: %w", prediction.Value, err)
		}

		return prediction.Type, eventAt, level, nil
	}

	return "", time.Time{}, 0, fmt.Errorf("no upcoming tide events for station %s", stationID)
}

// getJSON performs a GET request and decodes the JSON body into out.
func (c *Client) getJSON(ctx context.Context, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)

	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)

	if err != nil {
		return err
	}

	defer func(Body io.ReadCloser) {
		_ = Body.Close()
	}(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("CO-OPS API returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("malformed CO-OPS payload: %w", err)
	}

	return nil
}
