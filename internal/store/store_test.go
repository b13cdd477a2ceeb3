package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bess-roi/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(context.Background(), filepath.Join(t.TempDir(), "market.db"))
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

func fullDay(date string, price func(h int) float64) []model.MarketRow {
	rows := make([]model.MarketRow, 0, model.HoursPerDay)
	for h := 0; h < model.HoursPerDay; h++ {
		rows = append(rows, model.MarketRow{
			PricePoint: model.PricePoint{Date: date, Hour: h, PricePLNPerMWh: price(h)},
		})
	}
	return rows
}

func TestStore_Migrates(t *testing.T) {
	s := openTestStore(t)
	v, err := s.Version(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, v)

	// Reopening is a no-op for applied migrations.
	s2, err := New(context.Background(), s.path)
	require.NoError(t, err)
	defer s2.Close()
	v, err = s2.Version(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, v)
}

func TestStore_SaveAndReadBack(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	day := fullDay("2025-03-10", func(h int) float64 { return float64(300 + h) })
	day[7].Weather = map[string]float64{"warsaw_windspeed_10m": 8.5, "poznan_windspeed_10m": 3}
	require.NoError(t, s.SaveRows(ctx, day))
	require.NoError(t, s.SaveRows(ctx, fullDay("2025-03-11", func(int) float64 { return 1 })[:12]))

	dates, err := s.Dates(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-03-10", "2025-03-11"}, dates)

	rows, err := s.Rows(ctx, "2025-03-10", "2025-03-10")
	require.NoError(t, err)
	assert.Equal(t, day, rows)

	all, err := s.Rows(ctx, "", "")
	require.NoError(t, err)
	assert.Len(t, all, 36)

	prices, err := s.DayPrices(ctx, "2025-03-10")
	require.NoError(t, err)
	assert.Equal(t, 323.0, prices.Prices[23])

	_, err = s.DayPrices(ctx, "2025-03-11")
	assert.ErrorIs(t, err, model.ErrIncompleteDay)
}

func TestStore_UpsertOverwrites(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	require.NoError(t, s.SaveRows(ctx, fullDay("2025-03-10", func(int) float64 { return 1 })))
	require.NoError(t, s.SaveRows(ctx, fullDay("2025-03-10", func(int) float64 { return 2 })))

	prices, err := s.DayPrices(ctx, "2025-03-10")
	require.NoError(t, err)
	assert.Equal(t, model.Constant(2), prices.Prices)
}

func TestStore_RejectsOutOfRangeHour(t *testing.T) {
	s := openTestStore(t)
	err := s.SaveRows(context.Background(), []model.MarketRow{{PricePoint: model.PricePoint{Date: "2025-03-10", Hour: 24}}})
	assert.ErrorIs(t, err, model.ErrShapeMismatch)

	dates, err := s.Dates(context.Background())
	require.NoError(t, err)
	assert.Empty(t, dates)
}

func TestStore_FetchLogAndPurge(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	_, ok, err := s.LastFetched(ctx, "2025-03-10")
	require.NoError(t, err)
	assert.False(t, ok)

	at := time.Date(2025, 3, 9, 14, 0, 0, 0, time.UTC)
	require.NoError(t, s.LogFetch(ctx, "2025-03-10", "entsoe", 24, at))
	got, ok, err := s.LastFetched(ctx, "2025-03-10")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, at.Equal(got))

	require.NoError(t, s.SaveRows(ctx, fullDay("2025-03-10", func(int) float64 { return 1 })))
	require.NoError(t, s.SaveRows(ctx, fullDay("2025-03-12", func(int) float64 { return 1 })))
	require.NoError(t, s.Purge(ctx, "2025-03-11"))

	dates, err := s.Dates(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-03-12"}, dates)
	_, ok, err = s.LastFetched(ctx, "2025-03-10")
	require.NoError(t, err)
	assert.False(t, ok)
}
