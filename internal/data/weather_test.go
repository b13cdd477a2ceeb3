package data

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openMeteoHandler(t *testing.T, calls *int32) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(calls, 1)
		q := r.URL.Query()
		assert.Equal(t, "2025-03-10", q.Get("start_date"))
		assert.Equal(t, "windspeed_10m,shortwave_radiation", q.Get("hourly"))

		wind := make([]any, 24)
		rad := make([]any, 24)
		for h := range wind {
			wind[h] = float64(h)
			rad[h] = 0.0
		}
		rad[12] = 450.0
		wind[3] = nil
		if q.Get("latitude") == "52.4064" {
			wind[0] = 9.5
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"hourly": map[string]any{
				"time":                []string{"2025-03-10T00:00"},
				"windspeed_10m":       wind,
				"shortwave_radiation": rad,
			},
		})
	}
}

func TestWeatherClient_FetchDay(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(openMeteoHandler(t, &calls))
	defer srv.Close()

	c := NewWeatherClient(srv.URL)
	c.Retry = RetryPolicy{MaxRetries: 1, Backoff: time.Millisecond}

	out, err := c.FetchDay(context.Background(), "2025-03-10")
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))

	warsaw := out["Warsaw"]
	assert.Equal(t, 5.0, warsaw[5]["windspeed_10m"])
	assert.Equal(t, 450.0, warsaw[12]["shortwave_radiation"])
	_, hasWind := warsaw[3]["windspeed_10m"]
	assert.False(t, hasWind)
	assert.Equal(t, 9.5, out["Poznan"][0]["windspeed_10m"])
}

func TestWeatherClient_CachesDay(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(openMeteoHandler(t, &calls))
	defer srv.Close()

	c := NewWeatherClient(srv.URL)
	c.Cache = NewResponseCache[map[string]CityWeather](time.Minute)
	defer c.Cache.Close()

	_, err := c.FetchDay(context.Background(), "2025-03-10")
	require.NoError(t, err)
	_, err = c.FetchDay(context.Background(), "2025-03-10")
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestWeatherClient_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]any{"error": true, "reason": "Cannot initialize WeatherVariable"})
	}))
	defer srv.Close()

	c := NewWeatherClient(srv.URL)
	_, err := c.FetchDay(context.Background(), "2025-03-10")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "BAD_REQUEST", apiErr.Code)
	assert.Contains(t, apiErr.Message, "Cannot initialize WeatherVariable")

	_, err = c.FetchDay(context.Background(), "yesterday")
	assert.ErrorContains(t, err, "invalid date")
}
