// Package tasks runs the scheduled background jobs of the API server.
package tasks

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

type Tasks struct {
	cron             *cron.Cron
	updateAt         string
	MarketUpdateTask func()
}

// NewTasks schedules the daily market refresh at updateAt (cron spec,
// Europe/Warsaw time).
func NewTasks(updater *MarketUpdater, updateAt string) *Tasks {
	logger := slog.Default().With(slog.String("module", "tasks"))
	loc, err := time.LoadLocation("Europe/Warsaw")
	if err != nil {
		loc = time.Local
	}
	return &Tasks{
		cron:             cron.New(cron.WithLocation(loc)),
		updateAt:         updateAt,
		MarketUpdateTask: NewMarketUpdateTask(logger.With(slog.String("task", "market_update")), updater),
	}
}

// NewMarketUpdateTask returns a job that fetches the previous day.
func NewMarketUpdateTask(logger *slog.Logger, updater *MarketUpdater) func() {
	return func() {
		logger.Debug("running market update task...")

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()

		date := Yesterday(updater.now())
		if updater.Store != nil {
			if _, ok, err := updater.Store.LastFetched(ctx, date); err == nil && ok {
				logger.Debug("market data already fetched", slog.String("date", date))
				return
			}
		}
		if _, err := updater.UpdateDay(ctx, date); err != nil {
			logger.Error("market update task error", slog.String("date", date), slog.Any("error", err))
			return
		}
		logger.Info("market update task done", slog.String("date", date))
	}
}

func (t *Tasks) Run() error {
	if _, err := t.cron.AddFunc(t.updateAt, t.MarketUpdateTask); err != nil {
		return err
	}
	t.cron.Start()
	return nil
}

func (t *Tasks) Stop() context.Context {
	return t.cron.Stop()
}
