package data

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"bess-roi/internal/model"
)

const DefaultOpenMeteoBaseURL = "https://api.open-meteo.com/v1/forecast"

// City is a weather sampling point.
type City struct {
	Name      string  `mapstructure:"name" json:"name"`
	Latitude  float64 `mapstructure:"latitude" json:"latitude"`
	Longitude float64 `mapstructure:"longitude" json:"longitude"`
}

// DefaultCities are the two wind/solar reference points used for Poland.
var DefaultCities = []City{
	{Name: "Warsaw", Latitude: 52.2297, Longitude: 21.0122},
	{Name: "Poznan", Latitude: 52.4064, Longitude: 16.9252},
}

// DefaultWeatherVariables are the hourly Open-Meteo fields kept.
var DefaultWeatherVariables = []string{"windspeed_10m", "shortwave_radiation"}

// CityWeather maps hour (0..23) to variable values.
type CityWeather map[int]map[string]float64

// WeatherClient fetches hourly observations/forecasts from Open-Meteo.
type WeatherClient struct {
	BaseURL   string
	Cities    []City
	Variables []string
	Timezone  string
	Retry     RetryPolicy
	Client    *http.Client
	Cache     *ResponseCache[map[string]CityWeather]

	logger *slog.Logger
}

// NewWeatherClient creates a client for the default cities and variables.
// If baseURL is empty, defaults to DefaultOpenMeteoBaseURL.
func NewWeatherClient(baseURL string) *WeatherClient {
	if baseURL == "" {
		baseURL = DefaultOpenMeteoBaseURL
	}
	return &WeatherClient{
		BaseURL:   baseURL,
		Cities:    DefaultCities,
		Variables: DefaultWeatherVariables,
		Timezone:  "Europe/Warsaw",
		Retry:     DefaultRetryPolicy,
		Client:    &http.Client{Timeout: DefaultRequestTimeout},
		logger:    slog.Default().With(slog.String("module", "weather")),
	}
}

func (c *WeatherClient) SetLogger(logger *slog.Logger) {
	c.logger = logger
}

type openMeteoResponse struct {
	Hourly map[string]json.RawMessage `json:"hourly"`
	Error  bool                       `json:"error"`
	Reason string                     `json:"reason"`
}

// FetchDay returns weather per city name for one date (YYYY-MM-DD).
func (c *WeatherClient) FetchDay(ctx context.Context, date string) (map[string]CityWeather, error) {
	if _, err := time.Parse(model.DateLayout, date); err != nil {
		return nil, fmt.Errorf("invalid date %q (expected YYYY-MM-DD): %w", date, err)
	}
	cacheKey := CacheKey("open-meteo", date, strings.Join(c.Variables, ","), c.citiesKey())
	if cached, ok := c.Cache.Get(cacheKey); ok {
		return cached, nil
	}

	out := make(map[string]CityWeather, len(c.Cities))
	for _, city := range c.Cities {
		var cw CityWeather
		err := c.Retry.do(ctx, c.logger, "open-meteo "+city.Name+" "+date, func(ctx context.Context) error {
			var err error
			cw, err = c.fetchCity(ctx, city, date)
			return err
		})
		if err != nil {
			return nil, err
		}
		out[city.Name] = cw
	}
	c.logger.Info("fetched weather", slog.String("date", date), slog.Int("cities", len(out)))
	c.Cache.Set(cacheKey, out)
	return out, nil
}

func (c *WeatherClient) fetchCity(ctx context.Context, city City, date string) (CityWeather, error) {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	q := u.Query()
	q.Set("latitude", strconv.FormatFloat(city.Latitude, 'f', -1, 64))
	q.Set("longitude", strconv.FormatFloat(city.Longitude, 'f', -1, 64))
	q.Set("hourly", strings.Join(c.Variables, ","))
	q.Set("start_date", date)
	q.Set("end_date", date)
	q.Set("timezone", c.Timezone)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	var payload openMeteoResponse
	decodeErr := json.NewDecoder(resp.Body).Decode(&payload)
	if resp.StatusCode != http.StatusOK {
		return nil, statusError("open-meteo", resp, payload.Reason)
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("failed to decode response: %w", decodeErr)
	}
	return c.parseHourly(payload)
}

// parseHourly turns Open-Meteo's parallel arrays into hour-indexed values.
// Index 0 is 00:00-01:00 local time; null samples are left out.
func (c *WeatherClient) parseHourly(payload openMeteoResponse) (CityWeather, error) {
	if len(payload.Hourly) == 0 {
		return nil, fmt.Errorf("no hourly data in Open-Meteo response")
	}
	out := make(CityWeather)
	for _, v := range c.Variables {
		raw, ok := payload.Hourly[v]
		if !ok {
			continue
		}
		var values []*float64
		if err := json.Unmarshal(raw, &values); err != nil {
			return nil, fmt.Errorf("decode hourly %s: %w", v, err)
		}
		for idx, val := range values {
			if val == nil || idx >= model.HoursPerDay {
				continue
			}
			if out[idx] == nil {
				out[idx] = make(map[string]float64)
			}
			out[idx][v] = *val
		}
	}
	return out, nil
}

func (c *WeatherClient) citiesKey() string {
	parts := make([]string, 0, len(c.Cities))
	for _, city := range c.Cities {
		parts = append(parts, city.Name)
	}
	return strings.Join(parts, ",")
}
