// Package weather polls the open-meteo forecast API for a configured
// set of cities.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"homelink/internal/config"
	"homelink/internal/errors"
)

// Current is the present conditions for one place.
type Current struct {
	Time        string  `json:"time"`
	Temperature float64 `json:"temperature"`
	Code        int     `json:"weathercode"`
}

// Daily is one day of the forecast.
type Daily struct {
	Time         string
	TempMax      float64
	TempMin      float64
	PrecipChance int
	Code         int
}

// Forecast is the decoded API response.
type Forecast struct {
	Current Current
	Daily   []Daily
}

// Client fetches forecasts. The zero value is not usable; construct
// with NewClient.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a forecast client from the weather config.
func NewClient(cfg config.WeatherConfig) *Client {
	return &Client{
		baseURL: cfg.BaseURL,
		http:    &http.Client{Timeout: cfg.Timeout},
	}
}

// apiResponse mirrors the open-meteo wire format, where daily values
// arrive as parallel arrays.
type apiResponse struct {
	CurrentWeather Current `json:"current_weather"`
	Daily          struct {
		Time         []string  `json:"time"`
		TempMax      []float64 `json:"temperature_2m_max"`
		TempMin      []float64 `json:"temperature_2m_min"`
		PrecipChance []int     `json:"precipitation_probability_max"`
		Code         []int     `json:"weather_code"`
	} `json:"daily"`
}

// Get fetches the forecast for one coordinate pair.
func (c *Client) Get(ctx context.Context, latitude, longitude float64) (*Forecast, error) {
	q := url.Values{}
	q.Set("latitude", fmt.Sprintf("%.4f", latitude))
	q.Set("longitude", fmt.Sprintf("%.4f", longitude))
	q.Set("current_weather", "true")
	q.Set("daily", "temperature_2m_max,temperature_2m_min,precipitation_probability_max,weather_code")
	q.Set("timezone", "auto")

	endpoint := c.baseURL + "/v1/forecast?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build forecast request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "forecast request failed")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s", errors.ErrWeatherStatus, resp.Status)
	}

	var api apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&api); err != nil {
		return nil, errors.Wrap(err, "failed to decode forecast")
	}

	f := &Forecast{Current: api.CurrentWeather}
	for i, day := range api.Daily.Time {
		d := Daily{Time: day}
		if i < len(api.Daily.TempMax) {
			d.TempMax = api.Daily.TempMax[i]
		}
		if i < len(api.Daily.TempMin) {
			d.TempMin = api.Daily.TempMin[i]
		}
		if i < len(api.Daily.PrecipChance) {
			d.PrecipChance = api.Daily.PrecipChance[i]
		}
		if i < len(api.Daily.Code) {
			d.Code = api.Daily.Code[i]
		}
		f.Daily = append(f.Daily, d)
	}
	return f, nil
}

// Getter is the fetch surface the plugin depends on; tests substitute
// a stub, the daemon passes *Client.
type Getter interface {
	Get(ctx context.Context, latitude, longitude float64) (*Forecast, error)
}

var _ Getter = (*Client)(nil)
