package weather

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"homelink/internal/config"
	"homelink/internal/errors"
)

const sampleForecast = `{
  "current_weather": {"time": "2026-08-30T12:00", "temperature": 21.4, "weathercode": 3},
  "daily": {
    "time": ["2026-08-30", "2026-08-31"],
    "temperature_2m_max": [24.1, 22.0],
    "temperature_2m_min": [15.3, 14.8],
    "precipitation_probability_max": [10, 65],
    "weather_code": [3, 61]
  }
}`

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(config.WeatherConfig{BaseURL: srv.URL, Timeout: 2 * time.Second})
}

// TestGetDecodesForecast verifies query parameters and decoding of the
// parallel-array daily format.
func TestGetDecodesForecast(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/forecast", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "25.0330", q.Get("latitude"))
		assert.Equal(t, "121.5654", q.Get("longitude"))
		assert.Equal(t, "true", q.Get("current_weather"))
		assert.Contains(t, q.Get("daily"), "temperature_2m_max")
		_, _ = w.Write([]byte(sampleForecast))
	})

	f, err := c.Get(context.Background(), 25.033, 121.5654)
	require.NoError(t, err)

	assert.InDelta(t, 21.4, f.Current.Temperature, 0.001)
	assert.Equal(t, 3, f.Current.Code)

	require.Len(t, f.Daily, 2)
	assert.Equal(t, "2026-08-31", f.Daily[1].Time)
	assert.InDelta(t, 22.0, f.Daily[1].TempMax, 0.001)
	assert.InDelta(t, 14.8, f.Daily[1].TempMin, 0.001)
	assert.Equal(t, 65, f.Daily[1].PrecipChance)
	assert.Equal(t, 61, f.Daily[1].Code)
}

// TestGetNonOKStatus verifies HTTP errors surface as ErrWeatherStatus.
func TestGetNonOKStatus(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	})

	_, err := c.Get(context.Background(), 0, 0)
	assert.ErrorIs(t, err, errors.ErrWeatherStatus)
}

// TestGetBadJSON verifies decode failures are reported.
func TestGetBadJSON(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("{not json"))
	})

	_, err := c.Get(context.Background(), 0, 0)
	assert.Error(t, err)
}

// TestCodeString verifies the WMO mapping and its fallback.
func TestCodeString(t *testing.T) {
	assert.Equal(t, "clear sky", CodeString(0))
	assert.Equal(t, "overcast", CodeString(3))
	assert.Equal(t, "thunderstorm", CodeString(95))
	assert.Equal(t, "unknown", CodeString(42))
}
