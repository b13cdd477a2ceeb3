package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bess-roi/internal/model"
	"bess-roi/internal/profile"
	"bess-roi/internal/strategy"
)

const sampleConfig = `
scenario:
  efficiency: 0.85
  distribution_cost_pln_kwh: 0.5
  months_delay: 12
  strategy:
    name: arbitrage
    params:
      top_k: 4
pv:
  kwh_per_kwp_day: 2.8
market:
  api_key: from-file
  eur_to_pln: 4.3
  timeout: 5s
  max_retries: 5
  retry_backoff: 1s
  csv_path: data/market.csv
weather:
  cities:
    - name: Gdansk
      latitude: 54.352
      longitude: 18.6466
api:
  port: 9090
logging:
  console_level: DEBUG
`

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeFile(t, t.TempDir(), "config.yaml", sampleConfig)

	c, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 0.85, c.Scenario.GetEfficiency())
	assert.Equal(t, 0.5, c.Scenario.GetDistributionCost())
	assert.Equal(t, 12, c.Scenario.GetMonthsDelay())
	assert.Equal(t, "arbitrage", c.Scenario.Strategy.Name)
	assert.Equal(t, 2.8, c.PV.GetKWhPerKWpDay())
	assert.Equal(t, "from-file", c.Market.APIKey)
	assert.Equal(t, 5*time.Second, c.Market.Timeout)
	assert.Equal(t, "data/market.csv", c.Market.GetCSVPath())
	assert.Equal(t, "30 13 * * *", c.Market.GetUpdateAt())
	require.Len(t, c.Weather.Cities, 1)
	assert.Equal(t, "Gdansk", c.Weather.Cities[0].Name)
	assert.Equal(t, 9090, c.Api.GetPort())
	assert.Equal(t, "DEBUG", *c.Logging.ConsoleLevel)

	p := c.Market.RetryPolicy()
	assert.Equal(t, 5, p.MaxRetries)
	assert.Equal(t, time.Second, p.Backoff)

	ec := c.Market.EntsoeClient()
	assert.Equal(t, 4.3, ec.EURToPLN)
	assert.Equal(t, 5*time.Second, ec.Client.Timeout)
	assert.Nil(t, ec.Cache)

	wc := c.Weather.WeatherClient(c.Market)
	assert.Equal(t, "Gdansk", wc.Cities[0].Name)
	assert.Len(t, wc.Variables, 2)
}

func TestLoad_Defaults(t *testing.T) {
	path := writeFile(t, t.TempDir(), "config.yaml", "api:\n  port: 0\n")
	c, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 0.9, c.Scenario.GetEfficiency())
	assert.Equal(t, 0.45, c.Scenario.GetDistributionCost())
	assert.Equal(t, 6, c.Scenario.GetMonthsDelay())
	assert.Equal(t, profile.DefaultKWhPerKWpDay, c.PV.GetKWhPerKWpDay())
	assert.Equal(t, "data/output.csv", c.Market.GetCSVPath())
	assert.Equal(t, 8080, c.Api.GetPort())
}

func TestLoad_EnvOverridesAPIKey(t *testing.T) {
	path := writeFile(t, t.TempDir(), "config.yaml", sampleConfig)
	t.Setenv("ENTSOE_API_KEY", "from-env")

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", c.Market.APIKey)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorContains(t, err, "unable to read config file")
}

func TestPVShapeFor(t *testing.T) {
	shape, err := AppConfigPV{}.ShapeFor("2025-06-21")
	require.NoError(t, err)
	assert.Equal(t, profile.DefaultPVShape(), shape)

	custom := AppConfigPV{Shape: []float64{1, 2}}
	_, err = custom.ShapeFor("2025-06-21")
	assert.ErrorIs(t, err, model.ErrShapeMismatch)

	sun := AppConfigPV{ShapeSource: "sun", Latitude: 52.2297, Longitude: 21.0122}
	shape, err = sun.ShapeFor("2025-06-21")
	require.NoError(t, err)
	assert.Zero(t, shape[0])
	assert.Greater(t, shape[12], 0.0)

	_, err = AppConfigPV{ShapeSource: "radar"}.ShapeFor("2025-06-21")
	assert.ErrorIs(t, err, model.ErrInvalidArgument)
}

func TestScenarioValidate(t *testing.T) {
	c := &AppConfig{}
	s := c.ScenarioFor(DefaultClients()["home"])
	require.NoError(t, s.Validate())
	assert.Equal(t, model.BatteryParams{CapacityKWh: 10, Efficiency: 0.9}, s.Battery())

	strat, err := s.BuildStrategy()
	require.NoError(t, err)
	assert.Equal(t, strategy.ProportionalName, strat.Name())

	bad := s
	bad.Efficiency = 1.2
	assert.ErrorIs(t, bad.Validate(), model.ErrInvalidEfficiency)

	bad = s
	bad.DistributionCost = -0.1
	assert.ErrorIs(t, bad.Validate(), model.ErrInvalidArgument)

	bad = s
	bad.MonthsDelay = -1
	assert.ErrorIs(t, bad.Validate(), model.ErrInvalidArgument)

	bad = s
	bad.Client.BatteryKWh = 0
	assert.ErrorIs(t, bad.Validate(), model.ErrInvalidArgument)

	bad = s
	bad.Strategy = StrategyConfig{Name: "arbitrage", Params: map[string]any{"top_k": 13}}
	assert.ErrorIs(t, bad.Validate(), model.ErrInvalidArgument)
}

func TestClientPresets(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "home.yaml", "client:\n  annual_kwh: 5000\n")
	writeFile(t, dir, "farm.yml", "client:\n  city: Lublin\n  annual_kwh: 20000\n  pv_kwp: 15\n  battery_kwh: 20\n  profile: flat\n")
	writeFile(t, dir, "notes.txt", "ignored")

	files, err := ListClientFiles(dir)
	require.NoError(t, err)
	assert.Len(t, files, 2)

	clients, err := LoadClients(dir)
	require.NoError(t, err)
	require.Contains(t, clients, "farm")
	assert.Equal(t, "Lublin", clients["farm"].City)
	// The preset only overrides the annual use of the built-in home client.
	assert.Equal(t, 5000.0, clients["home"].AnnualKWh)
	assert.Equal(t, 10.0, clients["home"].BatteryKWh)
	assert.Contains(t, clients, "business")

	got, err := ResolveClient(clients, "farm", model.ClientParams{BatteryKWh: 30})
	require.NoError(t, err)
	assert.Equal(t, 30.0, got.BatteryKWh)
	assert.Equal(t, 15.0, got.PVKWp)

	_, err = ResolveClient(clients, "castle", model.ClientParams{})
	assert.ErrorIs(t, err, model.ErrInvalidArgument)

	adhoc, err := ResolveClient(clients, "", model.ClientParams{AnnualKWh: 1})
	require.NoError(t, err)
	assert.Equal(t, 1.0, adhoc.AnnualKWh)
}

func TestLoadClientFile_Errors(t *testing.T) {
	dir := t.TempDir()
	_, err := LoadClientFile(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	bad := writeFile(t, dir, "bad.yaml", "client: [unterminated")
	_, err = LoadClientFile(bad)
	assert.Error(t, err)
}

func TestMergeClient(t *testing.T) {
	base := DefaultClients()["business"]
	out := MergeClient(base, model.ClientParams{PVKWp: 55, Profile: "flat"})
	assert.Equal(t, 55.0, out.PVKWp)
	assert.Equal(t, "flat", out.Profile)
	assert.Equal(t, base.AnnualKWh, out.AnnualKWh)
	assert.Equal(t, base.Name, out.Name)
}

func TestLoaderWatchReloads(t *testing.T) {
	path := writeFile(t, t.TempDir(), "config.yaml", "scenario:\n  months_delay: 3\n")
	l, err := NewLoader(path)
	require.NoError(t, err)
	assert.Equal(t, 3, l.Config().Scenario.GetMonthsDelay())

	changed := make(chan *AppConfig, 4)
	l.Watch(func(c *AppConfig) { changed <- c })

	// Give the watcher a moment to register before rewriting the file.
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("scenario:\n  months_delay: 9\n"), 0o644))

	deadline := time.After(5 * time.Second)
	for {
		select {
		case c := <-changed:
			if c.Scenario.GetMonthsDelay() == 9 {
				assert.Equal(t, 9, l.Config().Scenario.GetMonthsDelay())
				return
			}
		case <-deadline:
			t.Fatal("config was not reloaded")
		}
	}
}

func TestDayInputs(t *testing.T) {
	dir := t.TempDir()
	var b strings.Builder
	b.WriteString("hour,evening\n")
	for h := 1; h <= 24; h++ {
		share := 0.0
		if h == 20 {
			share = 1
		}
		fmt.Fprintf(&b, "%d,%v\n", h, share)
	}
	profiles := writeFile(t, dir, "profiles.csv", b.String())

	c := &AppConfig{Scenario: AppConfigScenario{ProfilesFile: profiles}}
	table, err := c.ProfileTable()
	require.NoError(t, err)
	assert.Equal(t, []string{"flat", "evening"}, table.Names())

	day := model.DayPrices{Date: "2025-06-01", Prices: model.Constant(400)}
	client := model.ClientParams{Name: "x", AnnualKWh: 3650, PVKWp: 2, BatteryKWh: 5, Profile: "evening"}
	in, err := c.DayInputs(table, client, day)
	require.NoError(t, err)
	assert.InDelta(t, 10.0, in.Consumption[19], 1e-9)
	assert.Zero(t, in.Consumption[0])
	assert.InDelta(t, 2*profile.DefaultKWhPerKWpDay*profile.DefaultPVShape().Sum(), in.PV.Sum(), 1e-9)

	client.Profile = "night"
	_, err = c.DayInputs(table, client, day)
	assert.ErrorIs(t, err, profile.ErrUnknownProfile)

	none, err := (&AppConfig{}).ProfileTable()
	require.NoError(t, err)
	assert.Nil(t, none)

	_, err = (&AppConfig{Scenario: AppConfigScenario{ProfilesFile: filepath.Join(dir, "nope.csv")}}).ProfileTable()
	assert.Error(t, err)
}

func TestScenarioEngine(t *testing.T) {
	s := (&AppConfig{}).ScenarioFor(DefaultClients()["home"])
	e := s.Engine()
	assert.Equal(t, 0.45, e.DistributionPerKWh)
	assert.Equal(t, 6, e.MonthsDelay)
}
