// Package openweather implements the historical and current weather source
// interfaces against the OpenWeather API. This package is a secondary
// adapter: it translates coordinate/timestamp requests into vendor calls and
// maps the vendor payloads into the system's normalized shapes. Payload
// faults stay inside this boundary and surface only as error values.
package openweather

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

// noonTolerance is how far from the canonical sampling instant an intraday
// sample may sit and still count as noon-adjacent.
const noonTolerance = 3 * time.Hour

// Client calls the OpenWeather timemachine, current weather and air
// pollution endpoints.
type Client struct {
	// baseURL is the OpenWeather API base endpoint
	baseURL string

	// apiKey authenticates every request
	apiKey string

	// httpClient handles HTTP communication with timeout configuration
	httpClient *http.Client

	// logger records API interactions and errors
	logger *zap.Logger
}

// NewClient creates a new OpenWeather API client.
//
// Parameters:
//   - baseURL: OpenWeather API base URL (typically https://api.openweathermap.org)
//   - apiKey: OpenWeather API key
//   - httpClient: HTTP client with timeout configuration
//   - logger: Zap logger for API interaction logging
//
// Returns:
//   - *Client: Configured OpenWeather API client
func NewClient(baseURL, apiKey string, httpClient *http.Client, logger *zap.Logger) *Client {
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: httpClient,
		logger:     logger,
	}
}

// timemachineResponse represents the OpenWeather historical timemachine
// payload for one UTC day.
type timemachineResponse struct {
	Data []observation `json:"data"`
}

// observation is a single intraday sample.
type observation struct {
	Dt        int64   `json:"dt"`
	Temp      float64 `json:"temp"`
	FeelsLike float64 `json:"feels_like"`
	Pressure  float64 `json:"pressure"`
	Humidity  float64 `json:"humidity"`
	WindSpeed float64 `json:"wind_speed"`
	Clouds    float64 `json:"clouds"`
	Weather   []struct {
		Description string `json:"description"`
	} `json:"weather"`
}

// currentResponse represents the current weather payload.
type currentResponse struct {
	Main struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		Pressure  float64 `json:"pressure"`
		Humidity  float64 `json:"humidity"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
	Clouds struct {
		All float64 `json:"all"`
	} `json:"clouds"`
	Weather []struct {
		Description string `json:"description"`
	} `json:"weather"`
}

// airPollutionResponse represents the air pollution payload; the provider
// reports AQI as a 1-5 category.
type airPollutionResponse struct {
	List []struct {
		Main struct {
			AQI int `json:"aqi"`
		} `json:"main"`
	} `json:"list"`
}

// FetchPointInTime retrieves the canonical reading for the day containing
// the given instant. From the provider's intraday series it picks the
// sample nearest the requested instant (local noon), falling back to the
// temporal midpoint of the series when no noon-adjacent sample exists;
// anchoring every day at the same instant reduces diurnal variance when
// comparing across days.
func (c *Client) FetchPointInTime(ctx context.Context, coords domain.Coordinates, at time.Time) (*domain.HistoricalWeatherPoint, error) {
	url := fmt.Sprintf("%s/data/3.0/onecall/timemachine?lat=%.4f&lon=%.4f&dt=%d&units=metric&appid=%s",
		c.baseURL, coords.Latitude, coords.Longitude, at.Unix(), c.apiKey)

	var payload timemachineResponse

	if err := c.getJSON(ctx, url, &payload); err != nil {
		return nil, err
	}

	if len(payload.Data) == 0 {
		return nil, fmt.Errorf("no observations for %s", at.Format("2006-01-02"))
	}

	sample := nearestSample(payload.Data, at.Unix())

	point := &domain.HistoricalWeatherPoint{
		Date:        at.UTC().Format("2006-01-02"),
		Timestamp:   sample.Dt,
		Temperature: sample.Temp,
		FeelsLike:   sample.FeelsLike,
		Pressure:    sample.Pressure,
		Humidity:    sample.Humidity,
		WindSpeed:   sample.WindSpeed,
		Clouds:      sample.Clouds,
	}

	if len(sample.Weather) > 0 {
		point.Description = sample.Weather[0].Description
	}

	return point, nil
}

// nearestSample picks the observation closest to the target instant, or the
// series midpoint when nothing lands within the noon tolerance.
func nearestSample(data []observation, target int64) observation {
	best := data[0]
	bestDiff := absInt64(best.Dt - target)

	for _, obs := range data[1:] {
		if diff := absInt64(obs.Dt - target); diff < bestDiff {
			best = obs
			bestDiff = diff
		}
	}

	if bestDiff > int64(noonTolerance.Seconds()) {
		return data[len(data)/2]
	}

	return best
}

// FetchCurrent retrieves the instantaneous reading plus the air quality
// category. A failed air quality call degrades to a reading without AQI
// rather than failing the whole fetch.
func (c *Client) FetchCurrent(ctx context.Context, coords domain.Coordinates) (*domain.CurrentWeather, error) {
	url := fmt.Sprintf("%s/data/2.5/weather?lat=%.4f&lon=%.4f&units=metric&appid=%s",
		c.baseURL, coords.Latitude, coords.Longitude, c.apiKey)

	var payload currentResponse

	if err := c.getJSON(ctx, url, &payload); err != nil {
		return nil, err
	}

	weather := &domain.CurrentWeather{
		Temperature: payload.Main.Temp,
		FeelsLike:   payload.Main.FeelsLike,
		Pressure:    payload.Main.Pressure,
		Humidity:    payload.Main.Humidity,
		WindSpeed:   payload.Wind.Speed,
		Clouds:      payload.Clouds.All,
	}

	if len(payload.Weather) > 0 {
		weather.Description = payload.Weather[0].Description
	}

	aqiURL := fmt.Sprintf("%s/data/2.5/air_pollution?lat=%.4f&lon=%.4f&appid=%s",
		c.baseURL, coords.Latitude, coords.Longitude, c.apiKey)

	var pollution airPollutionResponse

	if err := c.getJSON(ctx, aqiURL, &pollution); err != nil {
		c.logger.Warn("air quality fetch failed", zap.Error(err))
	} else if len(pollution.List) > 0 {
		weather.AQI = pollution.List[0].Main.AQI
	}

	return weather, nil
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
		return fmt.Errorf("openweather API returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("malformed openweather payload: %w", err)
	}

	return nil
}

func absInt64(v int64) int64 {
	if v < 0 {
		return -v
	}

	return v
}
