package config

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"bess-roi/internal/data"
	"bess-roi/internal/logging"
	"bess-roi/internal/model"
	"bess-roi/internal/profile"
)

type StrategyConfig struct {
	Name   string         `mapstructure:"name" yaml:"name" json:"name"`
	Params map[string]any `mapstructure:"params" yaml:"params" json:"params,omitempty"`
}

type AppConfigScenario struct {
	Efficiency *float64 `mapstructure:"efficiency"`
	// Distribution tariff added to every kWh bought, PLN/kWh.
	DistributionCost *float64 `mapstructure:"distribution_cost_pln_kwh"`
	MonthsDelay      *int     `mapstructure:"months_delay"`
	Strategy         StrategyConfig
	// CSV table of named hourly consumption shares, see profile.ReadTable.
	ProfilesFile string `mapstructure:"profiles_file"`
	// Directory of client preset YAML files.
	ClientsDir string `mapstructure:"clients_dir"`
}

func (s AppConfigScenario) GetEfficiency() float64 {
	if s.Efficiency == nil {
		return 0.9
	}
	return *s.Efficiency
}

func (s AppConfigScenario) GetDistributionCost() float64 {
	if s.DistributionCost == nil {
		return 0.45
	}
	return *s.DistributionCost
}

func (s AppConfigScenario) GetMonthsDelay() int {
	if s.MonthsDelay == nil {
		return 6
	}
	return *s.MonthsDelay
}

// PV shape sources.
const (
	ShapeSourceTable = "table"
	ShapeSourceSun   = "sun"
)

type AppConfigPV struct {
	KWhPerKWpDay *float64 `mapstructure:"kwh_per_kwp_day"`
	// 24 hourly weights; empty means the built-in shape.
	Shape []float64
	// "table" (default) uses Shape, "sun" derives the shape from solar
	// altitude at Latitude/Longitude for each date.
	ShapeSource string  `mapstructure:"shape_source"`
	Latitude    float64 // WGS84
	Longitude   float64 // WGS84
}

func (p AppConfigPV) GetKWhPerKWpDay() float64 {
	if p.KWhPerKWpDay == nil {
		return profile.DefaultKWhPerKWpDay
	}
	return *p.KWhPerKWpDay
}

// ShapeFor returns the PV shape to use for date (YYYY-MM-DD).
func (p AppConfigPV) ShapeFor(date string) (model.HourlySeries, error) {
	switch strings.ToLower(p.ShapeSource) {
	case "", ShapeSourceTable:
		if len(p.Shape) == 0 {
			return profile.DefaultPVShape(), nil
		}
		shape := model.HourlySeries(p.Shape)
		if err := shape.Validate(); err != nil {
			return nil, fmt.Errorf("pv.shape: %w", err)
		}
		return shape, nil
	case ShapeSourceSun:
		loc, err := time.LoadLocation("Europe/Warsaw")
		if err != nil {
			return nil, err
		}
		day, err := time.ParseInLocation(model.DateLayout, date, loc)
		if err != nil {
			return nil, fmt.Errorf("%w: date %q", model.ErrInvalidArgument, date)
		}
		return profile.SunShape(day, p.Latitude, p.Longitude, loc)
	default:
		return nil, fmt.Errorf("%w: unknown pv.shape_source %q", model.ErrInvalidArgument, p.ShapeSource)
	}
}

type AppConfigMarket struct {
	BaseURL      string  `mapstructure:"base_url"`
	APIKey       string  `mapstructure:"api_key"`
	BiddingZone  string  `mapstructure:"bidding_zone"`
	DocumentType string  `mapstructure:"document_type"`
	EURToPLN     float64 `mapstructure:"eur_to_pln"`
	Timeout      time.Duration
	MaxRetries   int           `mapstructure:"max_retries"`
	RetryBackoff time.Duration `mapstructure:"retry_backoff"`
	CacheTTL     time.Duration `mapstructure:"cache_ttl"`
	CSVPath      string        `mapstructure:"csv_path"`
	DBPath       string        `mapstructure:"db_path"`
	// Cron spec for the daily refresh, e.g. "30 13 * * *".
	UpdateAt string `mapstructure:"update_at"`
	// Days of history kept in the database; 0 keeps everything.
	RetentionDays int `mapstructure:"retention_days"`
}

func (m AppConfigMarket) GetCSVPath() string {
	if m.CSVPath == "" {
		return "data/output.csv"
	}
	return m.CSVPath
}

func (m AppConfigMarket) GetUpdateAt() string {
	if m.UpdateAt == "" {
		return "30 13 * * *"
	}
	return m.UpdateAt
}

func (m AppConfigMarket) RetryPolicy() data.RetryPolicy {
	p := data.DefaultRetryPolicy
	if m.MaxRetries > 0 {
		p.MaxRetries = m.MaxRetries
	}
	if m.RetryBackoff > 0 {
		p.Backoff = m.RetryBackoff
	}
	return p
}

// EntsoeClient builds a client from the market section.
func (m AppConfigMarket) EntsoeClient() *data.EntsoeClient {
	c := data.NewEntsoeClient(m.APIKey, m.BaseURL)
	if m.BiddingZone != "" {
		c.BiddingZone = m.BiddingZone
	}
	if m.DocumentType != "" {
		c.DocumentType = m.DocumentType
	}
	if m.EURToPLN > 0 {
		c.EURToPLN = m.EURToPLN
	}
	if m.Timeout > 0 {
		c.Client.Timeout = m.Timeout
	}
	c.Retry = m.RetryPolicy()
	c.Cache = data.NewResponseCache[[]model.PricePoint](m.CacheTTL)
	return c
}

type AppConfigWeather struct {
	BaseURL   string `mapstructure:"base_url"`
	Cities    []data.City
	Variables []string
}

// WeatherClient builds a client from the weather section, reusing the
// market retry and timeout settings.
func (w AppConfigWeather) WeatherClient(m AppConfigMarket) *data.WeatherClient {
	c := data.NewWeatherClient(w.BaseURL)
	if len(w.Cities) > 0 {
		c.Cities = w.Cities
	}
	if len(w.Variables) > 0 {
		c.Variables = w.Variables
	}
	if m.Timeout > 0 {
		c.Client.Timeout = m.Timeout
	}
	c.Retry = m.RetryPolicy()
	c.Cache = data.NewResponseCache[map[string]data.CityWeather](m.CacheTTL)
	return c
}

type AppConfigApi struct {
	Port int
	// Allowed CORS origins; empty allows all.
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	// Built web UI served for non-API routes when the directory exists.
	StaticDir string `mapstructure:"static_dir"`
}

func (a AppConfigApi) GetPort() int {
	if a.Port == 0 {
		return 8080
	}
	return a.Port
}

type AppConfigLogging struct {
	// Min log level for console: "DEBUG", "INFO", "WARN", "ERROR", default: "INFO"
	ConsoleLevel *string `mapstructure:"console_level"`
}

func (l AppConfigLogging) GetConsoleLevel() slog.Level {
	return logging.LevelFromString(l.ConsoleLevel)
}

type AppConfig struct {
	Scenario AppConfigScenario
	PV       AppConfigPV `mapstructure:"pv"`
	Market   AppConfigMarket
	Weather  AppConfigWeather
	Api      AppConfigApi
	Logging  AppConfigLogging
}

// Loader reads the YAML app config and keeps it current when the file
// changes on disk.
type Loader struct {
	v       *viper.Viper
	mu      sync.RWMutex
	current *AppConfig
	logger  *slog.Logger
}

// NewLoader reads path, or config/config.yaml when path is empty.
// Environment variables override file values (market.api_key ->
// MARKET_API_KEY); ENTSOE_API_KEY is accepted as well.
func NewLoader(path string) (*Loader, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath("config")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	if err := v.BindEnv("market.api_key", "MARKET_API_KEY", "ENTSOE_API_KEY"); err != nil {
		return nil, err
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("unable to read config file: %w", err)
	}

	l := &Loader{
		v:      v,
		logger: slog.Default().With(slog.String("module", "config")),
	}
	c, err := l.decode()
	if err != nil {
		return nil, err
	}
	l.current = c
	return l, nil
}

func (l *Loader) SetLogger(logger *slog.Logger) {
	l.logger = logger
}

func (l *Loader) decode() (*AppConfig, error) {
	var c AppConfig
	if err := l.v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unable to unmarshal config file: %w", err)
	}
	return &c, nil
}

// Config returns the latest successfully loaded configuration.
func (l *Loader) Config() *AppConfig {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.current
}

// Watch reloads on every write to the config file and calls onChange with
// the new configuration. A file that fails to decode keeps the previous
// configuration.
func (l *Loader) Watch(onChange func(*AppConfig)) {
	l.v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		c, err := l.decode()
		if err != nil {
			l.logger.Error("config reload failed", slog.String("file", e.Name), slog.Any("error", err))
			return
		}
		l.mu.Lock()
		l.current = c
		l.mu.Unlock()
		l.logger.Info("config reloaded", slog.String("file", e.Name))
		if onChange != nil {
			onChange(c)
		}
	})
	l.v.WatchConfig()
}

// Load reads the config once.
func Load(path string) (*AppConfig, error) {
	l, err := NewLoader(path)
	if err != nil {
		return nil, err
	}
	return l.Config(), nil
}
