package tasks

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"sort"
	"time"

	"bess-roi/internal/data"
	"bess-roi/internal/model"
	"bess-roi/internal/store"
)

const marketSource = "entsoe+open-meteo"

type PriceFetcher interface {
	FetchDayAhead(ctx context.Context, date string) ([]model.PricePoint, error)
}

type WeatherFetcher interface {
	FetchDay(ctx context.Context, date string) (map[string]data.CityWeather, error)
}

// MarketUpdater downloads one day of prices and weather and appends it to
// the CSV dataset and, when set, the sqlite archive.
type MarketUpdater struct {
	Prices  PriceFetcher
	Weather WeatherFetcher // optional
	Store   *store.Store   // optional
	CSVPath string
	// Days of history kept in Store; 0 keeps everything.
	RetentionDays int
	// Called after a day has been written.
	OnUpdated func(date string)
	Now       func() time.Time
	logger    *slog.Logger
}

func NewMarketUpdater(prices PriceFetcher, weather WeatherFetcher, st *store.Store, csvPath string) *MarketUpdater {
	return &MarketUpdater{
		Prices:  prices,
		Weather: weather,
		Store:   st,
		CSVPath: csvPath,
		Now:     time.Now,
		logger:  slog.Default().With(slog.String("module", "tasks"), slog.String("task", "market_update")),
	}
}

func (u *MarketUpdater) SetLogger(logger *slog.Logger) {
	u.logger = logger
}

// Yesterday returns the previous Warsaw calendar day of now as YYYY-MM-DD.
func Yesterday(now time.Time) string {
	loc, err := time.LoadLocation("Europe/Warsaw")
	if err != nil {
		loc = time.UTC
	}
	local := now.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day()-1, 12, 0, 0, 0, loc).Format(model.DateLayout)
}

// UpdateDay fetches date and merges it into the datasets, replacing any
// rows already stored for it. Weather failures are logged and the prices
// are kept alone. Returns the number of hourly rows written.
func (u *MarketUpdater) UpdateDay(ctx context.Context, date string) (int, error) {
	prices, err := u.Prices.FetchDayAhead(ctx, date)
	if err != nil {
		return 0, fmt.Errorf("fetch prices for %s: %w", date, err)
	}

	var weather map[string]data.CityWeather
	if u.Weather != nil {
		weather, err = u.Weather.FetchDay(ctx, date)
		if err != nil {
			u.logger.Warn("weather fetch failed, keeping prices only", slog.String("date", date), slog.Any("error", err))
			weather = nil
		}
	}

	rows, err := data.MergePriceAndWeather(prices, weather)
	if err != nil {
		return 0, err
	}

	if u.CSVPath != "" {
		if err := u.appendCSV(date, rows); err != nil {
			return 0, err
		}
	}

	if u.Store != nil {
		if err := u.Store.SaveRows(ctx, rows); err != nil {
			return 0, err
		}
		if err := u.Store.LogFetch(ctx, date, marketSource, len(rows), u.now()); err != nil {
			return 0, err
		}
		if u.RetentionDays > 0 {
			cutoff := u.now().AddDate(0, 0, -u.RetentionDays).Format(model.DateLayout)
			if err := u.Store.Purge(ctx, cutoff); err != nil {
				return 0, err
			}
		}
	}

	u.logger.Info("market data updated", slog.String("date", date), slog.Int("hours", len(rows)))
	if u.OnUpdated != nil {
		u.OnUpdated(date)
	}
	return len(rows), nil
}

func (u *MarketUpdater) appendCSV(date string, rows []model.MarketRow) error {
	existing, err := data.LoadMarketCSV(u.CSVPath)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("read %s: %w", u.CSVPath, err)
	}

	merged := make([]model.MarketRow, 0, len(existing)+len(rows))
	for _, r := range existing {
		if r.Date != date {
			merged = append(merged, r)
		}
	}
	merged = append(merged, rows...)
	sort.SliceStable(merged, func(i, j int) bool {
		if merged[i].Date != merged[j].Date {
			return merged[i].Date < merged[j].Date
		}
		return merged[i].Hour < merged[j].Hour
	})

	if err := data.SaveMarketCSV(u.CSVPath, merged); err != nil {
		return err
	}
	m := data.NewManifest(marketSource, u.now().UTC().Format(time.RFC3339), merged)
	return data.SaveManifest(m, data.ManifestPath(u.CSVPath))
}

func (u *MarketUpdater) now() time.Time {
	if u.Now == nil {
		return time.Now()
	}
	return u.Now()
}
