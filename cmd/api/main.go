package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"bess-roi/internal/api"
	"bess-roi/internal/api/handlers"
	"bess-roi/internal/config"
	"bess-roi/internal/data"
	"bess-roi/internal/logging"
	"bess-roi/internal/store"
	"bess-roi/internal/tasks"
)

func main() {
	configPath := flag.String("config", "", "path to config file (default config/config.yaml)")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("error loading .env file", slog.Any("error", err))
	}

	loader, err := config.NewLoader(*configPath)
	if err != nil {
		exitWithError(slog.Default(), fmt.Errorf("failed to load config: %w", err))
	}
	cnfg := loader.Config()

	logger := logging.Setup(os.Stdout, cnfg.Logging.GetConsoleLevel())
	loader.SetLogger(logger.With(slog.String("module", "config")))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		market handlers.MarketSource
		st     *store.Store
		ds     *data.Dataset
	)
	if cnfg.Market.DBPath != "" {
		st, err = store.New(ctx, cnfg.Market.DBPath)
		if err != nil {
			exitWithError(logger, fmt.Errorf("failed to open database: %w", err))
		}
		defer st.Close()
		st.SetLogger(logger.With(slog.String("module", "store")))
		market = st
	} else {
		rows, err := data.LoadMarket(cnfg.Market.GetCSVPath())
		if err != nil {
			logger.Warn("market dataset not loaded, starting empty",
				slog.String("path", cnfg.Market.GetCSVPath()), slog.Any("error", err))
		}
		ds = data.NewDataset(rows)
		market = ds
	}

	clients, err := config.LoadClients(cnfg.Scenario.ClientsDir)
	if err != nil {
		exitWithError(logger, fmt.Errorf("failed to load client presets: %w", err))
	}
	table, err := cnfg.ProfileTable()
	if err != nil {
		exitWithError(logger, err)
	}

	loader.Watch(func(c *config.AppConfig) {
		logger.Info("scenario defaults reloaded",
			slog.Float64("efficiency", c.Scenario.GetEfficiency()),
			slog.Float64("distribution_cost", c.Scenario.GetDistributionCost()),
			slog.Int("months_delay", c.Scenario.GetMonthsDelay()))
	})

	if cnfg.Market.APIKey == "" {
		logger.Info("no ENTSO-E api key, skipping market update scheduling")
	} else {
		entsoe := cnfg.Market.EntsoeClient()
		entsoe.SetLogger(logger.With(slog.String("module", "entsoe")))
		weather := cnfg.Weather.WeatherClient(cnfg.Market)
		weather.SetLogger(logger.With(slog.String("module", "open-meteo")))

		updater := tasks.NewMarketUpdater(entsoe, weather, st, cnfg.Market.GetCSVPath())
		updater.RetentionDays = cnfg.Market.RetentionDays
		if ds != nil {
			updater.OnUpdated = func(string) {
				if err := ds.Reload(cnfg.Market.GetCSVPath()); err != nil {
					logger.Error("market dataset reload failed", slog.Any("error", err))
				}
			}
		}
		t := tasks.NewTasks(updater, cnfg.Market.GetUpdateAt())
		if err := t.Run(); err != nil {
			exitWithError(logger, fmt.Errorf("failed to schedule market update: %w", err))
		}
		defer t.Stop()
	}

	if os.Getenv("API_ENV") == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := api.NewRouter(api.Deps{
		Market:         market,
		Config:         loader.Config,
		Clients:        clients,
		Profiles:       table,
		AllowedOrigins: cnfg.Api.AllowedOrigins,
		StaticDir:      cnfg.Api.StaticDir,
		Logger:         logger.With(slog.String("module", "api")),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cnfg.Api.GetPort()),
		Handler:           api.Handler(router),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      2 * time.Minute,
	}
	go func() {
		logger.Info("starting API server", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			exitWithError(logger, fmt.Errorf("failed to start server: %w", err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("received signal, shutting down...", slog.String("signal", sig.String()))

	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
	}
}

func exitWithError(logger *slog.Logger, err error) {
	logger.Error("fatal error", slog.Any("error", err))
	os.Exit(1)
}
