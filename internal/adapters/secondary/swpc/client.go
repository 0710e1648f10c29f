// Package swpc implements the geomagnetic and solar source interfaces
// against the NOAA Space Weather Prediction Center JSON feeds. The feeds
// are unauthenticated time series; this adapter takes the most recent entry
// of each and normalizes it.
package swpc

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/joacim-boive/phantom-tracker/internal/core/domain"
)

// swpcTimeLayout is the timestamp format used across the SWPC feeds.
const swpcTimeLayout = "2006-01-02T15:04:05"

// longWavelengthBand is the GOES X-ray channel used for flare
// classification.
const longWavelengthBand = "0.1-0.8nm"

// Client calls the SWPC planetary K-index and GOES X-ray flux feeds.
type Client struct {
	// baseURL is the SWPC services base endpoint
	baseURL string

	// httpClient handles HTTP communication with timeout configuration
	httpClient *http.Client

	// logger records API interactions and errors
	logger *zap.Logger
}

// NewClient creates a new SWPC feed client.
func NewClient(baseURL string, httpClient *http.Client, logger *zap.Logger) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     logger,
	}
}

// kpEntry is one row of the 1-minute planetary K-index feed.
type kpEntry struct {
	TimeTag     string  `json:"time_tag"`
	EstimatedKp float64 `json:"estimated_kp"`
}

// xrayEntry is one row of the GOES primary X-ray feed.
type xrayEntry struct {
	TimeTag string  `json:"time_tag"`
	Flux    float64 `json:"flux"`
	Energy  string  `json:"energy"`
}

// LatestKpIndex returns the most recent planetary K-index estimate. Kp runs
// 0 to 9; values of 5 and above indicate geomagnetic storm conditions.
func (c *Client) LatestKpIndex(ctx context.Context) (*domain.GeomagneticData, error) {
	var entries []kpEntry

	if err := c.getJSON(ctx, c.baseURL+"/json/planetary_k_index_1m.json", &entries); err != nil {
		return nil, err
	}

	if len(entries) == 0 {
		return nil, fmt.Errorf("empty planetary K-index feed")
	}

	latest := entries[len(entries)-1]

	observedAt, err := time.Parse(swpcTimeLayout, latest.TimeTag)

	if err != nil {
		return nil, fmt.Errorf("malformed K-index timestamp %q: %w", latest.TimeTag, err)
	}

	return &domain.GeomagneticData{
		KpIndex:    latest.EstimatedKp,
		Storm:      latest.EstimatedKp >= 5,
		ObservedAt: observedAt.UTC(),
	}, nil
}

// LatestXrayFlux returns the most recent long-wavelength X-ray flux reading
// with its derived flare class and probability.
func (c *Client) LatestXrayFlux(ctx context.Context) (*domain.SolarData, error) {
	var entries []xrayEntry

	if err := c.getJSON(ctx, c.baseURL+"/json/goes/primary/xrays-1-day.json", &entries); err != nil {
		return nil, err
	}

	var latest *xrayEntry

	// The feed interleaves two wavelength bands; classification uses the
	// long band only.
	for i := range entries {
		if entries[i].Energy == longWavelengthBand {
			latest = &entries[i]
		}
	}

	if latest == nil {
		return nil, fmt.Errorf("no %s readings in X-ray feed", longWavelengthBand)
	}

	observedAt, err := time.Parse(swpcTimeLayout, latest.TimeTag)

	if err != nil {
		return nil, fmt.Errorf("malformed X-ray timestamp %q: %w", latest.TimeTag, err)
	}

	class, probability := ClassifyFlux(latest.Flux)

	return &domain.SolarData{
		Flux:             latest.Flux,
		Class:            class,
		FlareProbability: probability,
		ObservedAt:       observedAt.UTC(),
	}, nil
}

// ClassifyFlux maps a long-wavelength X-ray flux reading in W/m² onto the
// standard flare class ladder. Each class spans a decade of flux; the
// probability is a coarse prior for flare activity at that level.
func ClassifyFlux(flux float64) (string, float64) {
	switch {
	case flux < 1e-7:
		return "A", 0.01
	case flux < 1e-6:
		return "B", 0.05
	case flux < 1e-5:
		return "C", 0.15
	case flux < 1e-4:
		return "M", 0.45
	default:
		return "X", 0.85
	}
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
		return fmt.Errorf("SWPC feed returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("malformed SWPC payload: %w", err)
	}

	return nil
}
