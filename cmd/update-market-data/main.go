package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	"bess-roi/internal/config"
	"bess-roi/internal/logging"
	"bess-roi/internal/model"
	"bess-roi/internal/store"
	"bess-roi/internal/tasks"
)

func main() {
	var (
		cfgPath = flag.String("config", "", "Path to YAML config (default config/config.yaml)")
		date    = flag.String("date", "", "Single day to fetch, YYYY-MM-DD (default yesterday in Warsaw)")
		from    = flag.String("from", "", "First day of a backfill, YYYY-MM-DD")
		to      = flag.String("to", "", "Last day of a backfill, YYYY-MM-DD (default yesterday)")
		output  = flag.String("output", "", "Output CSV path (default market.csv_path)")
		noDB    = flag.Bool("no-db", false, "Skip the sqlite store even when market.db_path is set")
	)
	flag.Parse()

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("error loading .env file", slog.Any("error", err))
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger := logging.Setup(os.Stdout, cfg.Logging.GetConsoleLevel())

	if cfg.Market.APIKey == "" {
		log.Fatal("ENTSOE_API_KEY environment variable (or market.api_key) is required")
	}
	if *output == "" {
		*output = cfg.Market.GetCSVPath()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var st *store.Store
	if cfg.Market.DBPath != "" && !*noDB {
		st, err = store.New(ctx, cfg.Market.DBPath)
		if err != nil {
			log.Fatalf("Failed to open database: %v", err)
		}
		defer st.Close()
		st.SetLogger(logger.With(slog.String("module", "store")))
	}

	entsoe := cfg.Market.EntsoeClient()
	entsoe.SetLogger(logger.With(slog.String("module", "entsoe")))
	weather := cfg.Weather.WeatherClient(cfg.Market)
	weather.SetLogger(logger.With(slog.String("module", "open-meteo")))

	updater := tasks.NewMarketUpdater(entsoe, weather, st, *output)
	updater.SetLogger(logger.With(slog.String("module", "market-update")))
	updater.RetentionDays = cfg.Market.RetentionDays

	days, err := daysToFetch(*date, *from, *to, time.Now())
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("Updating %d day(s) into %s\n", len(days), *output)
	failed := 0
	for _, d := range days {
		n, err := updater.UpdateDay(ctx, d)
		if err != nil {
			failed++
			logger.Error("update failed", slog.String("date", d), slog.Any("error", err))
			continue
		}
		fmt.Printf("  %s: %d hours\n", d, n)
	}

	if failed > 0 {
		fmt.Printf("%d of %d day(s) failed\n", failed, len(days))
		os.Exit(1)
	}
	fmt.Println("Done")
}

// daysToFetch returns date alone, the inclusive range from..to, or
// yesterday when neither is set.
func daysToFetch(date, from, to string, now time.Time) ([]string, error) {
	if date != "" {
		if _, err := time.Parse(model.DateLayout, date); err != nil {
			return nil, fmt.Errorf("invalid -date %q: %w", date, err)
		}
		return []string{date}, nil
	}
	if from == "" {
		return []string{tasks.Yesterday(now)}, nil
	}
	if to == "" {
		to = tasks.Yesterday(now)
	}
	start, err := time.Parse(model.DateLayout, from)
	if err != nil {
		return nil, fmt.Errorf("invalid -from %q: %w", from, err)
	}
	end, err := time.Parse(model.DateLayout, to)
	if err != nil {
		return nil, fmt.Errorf("invalid -to %q: %w", to, err)
	}
	if end.Before(start) {
		return nil, fmt.Errorf("-to %s is before -from %s", to, from)
	}
	var out []string
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		out = append(out, d.Format(model.DateLayout))
	}
	return out, nil
}
