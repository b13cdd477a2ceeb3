package data

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"bess-roi/internal/model"
	"bess-roi/internal/profile"
)

// Fixed leading columns of the market dataset CSV.
const (
	ColDate  = "date"
	ColHour  = "hour"
	ColPrice = "price_pln_mwh"
)

// ErrNoRows is returned when there is nothing to merge or write.
var ErrNoRows = errors.New("no market rows")

// WeatherColumn is the dataset column name for a city variable.
func WeatherColumn(city, variable string) string {
	return strings.ToLower(city) + "_" + variable
}

// MergePriceAndWeather joins hourly prices with per-city weather on hour.
// Hours without weather keep only the price.
func MergePriceAndWeather(prices []model.PricePoint, weather map[string]CityWeather) ([]model.MarketRow, error) {
	if len(prices) == 0 {
		return nil, fmt.Errorf("merge: %w", ErrNoRows)
	}
	sorted := make([]model.PricePoint, len(prices))
	copy(sorted, prices)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Date != sorted[j].Date {
			return sorted[i].Date < sorted[j].Date
		}
		return sorted[i].Hour < sorted[j].Hour
	})

	rows := make([]model.MarketRow, 0, len(sorted))
	for _, p := range sorted {
		row := model.MarketRow{PricePoint: p}
		for city, cw := range weather {
			for variable, v := range cw[p.Hour] {
				if row.Weather == nil {
					row.Weather = make(map[string]float64)
				}
				row.Weather[WeatherColumn(city, variable)] = v
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// weatherColumns returns every weather column present, sorted.
func weatherColumns(rows []model.MarketRow) []string {
	set := make(map[string]struct{})
	for _, r := range rows {
		for col := range r.Weather {
			set[col] = struct{}{}
		}
	}
	cols := make([]string, 0, len(set))
	for col := range set {
		cols = append(cols, col)
	}
	sort.Strings(cols)
	return cols
}

// WriteMarketCSV writes rows with columns date, hour, price_pln_mwh and then
// the weather columns in sorted order. Hours are written 0..23.
func WriteMarketCSV(w io.Writer, rows []model.MarketRow) error {
	if len(rows) == 0 {
		return fmt.Errorf("write market csv: %w", ErrNoRows)
	}
	cols := weatherColumns(rows)

	cw := csv.NewWriter(w)
	header := append([]string{ColDate, ColHour, ColPrice}, cols...)
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, r := range rows {
		rec := []string{r.Date, strconv.Itoa(r.Hour), fmtFloat(r.PricePLNPerMWh)}
		for _, col := range cols {
			if v, ok := r.Weather[col]; ok {
				rec = append(rec, fmtFloat(v))
			} else {
				rec = append(rec, "")
			}
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// SaveMarketCSV writes rows to path, creating the parent directory.
func SaveMarketCSV(path string, rows []model.MarketRow) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteMarketCSV(f, rows); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// LoadMarketCSV reads a market dataset from disk.
func LoadMarketCSV(path string) ([]model.MarketRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadMarketCSV(f)
}

// ReadMarketCSV parses a market dataset. Files whose hours run 1..24 are
// normalised to 0..23; rows still outside the day are skipped.
func ReadMarketCSV(r io.Reader) ([]model.MarketRow, error) {
	cr := csv.NewReader(r)
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read market csv: %w", err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("read market csv: %w", ErrNoRows)
	}

	idx := make(map[string]int)
	for i, name := range records[0] {
		idx[strings.TrimSpace(name)] = i
	}
	for _, col := range []string{ColDate, ColHour, ColPrice} {
		if _, ok := idx[col]; !ok {
			return nil, fmt.Errorf("read market csv: missing column %q", col)
		}
	}

	rawHours := make([]int, len(records)-1)
	for i, rec := range records[1:] {
		h, err := strconv.Atoi(strings.TrimSpace(rec[idx[ColHour]]))
		if err != nil {
			return nil, fmt.Errorf("market csv row %d: bad hour %q", i+2, rec[idx[ColHour]])
		}
		rawHours[i] = h
	}
	oneBased := profile.IsOneBased(rawHours)

	rows := make([]model.MarketRow, 0, len(records)-1)
	skipped := 0
	for i, rec := range records[1:] {
		hour, err := profile.NormalizeHour(rawHours[i], oneBased)
		if err != nil {
			skipped++
			continue
		}
		price, err := strconv.ParseFloat(strings.TrimSpace(rec[idx[ColPrice]]), 64)
		if err != nil {
			return nil, fmt.Errorf("market csv row %d: bad price: %w", i+2, err)
		}
		row := model.MarketRow{PricePoint: model.PricePoint{
			Date:           strings.TrimSpace(rec[idx[ColDate]]),
			Hour:           hour,
			PricePLNPerMWh: price,
		}}
		for name, col := range idx {
			if name == ColDate || name == ColHour || name == ColPrice {
				continue
			}
			s := strings.TrimSpace(rec[col])
			if s == "" {
				continue
			}
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				continue
			}
			if row.Weather == nil {
				row.Weather = make(map[string]float64)
			}
			row.Weather[name] = v
		}
		rows = append(rows, row)
	}
	if skipped > 0 {
		slog.Debug("skipped market rows outside the day", slog.Int("rows", skipped))
	}
	return rows, nil
}

// DayPricesFor extracts one complete day. Exactly one price per hour 0..23
// is required, otherwise ErrIncompleteDay.
func DayPricesFor(rows []model.MarketRow, date string) (model.DayPrices, error) {
	prices := model.Zero()
	seen := make([]bool, model.HoursPerDay)
	count := 0
	for _, r := range rows {
		if r.Date != date {
			continue
		}
		if r.Hour < 0 || r.Hour >= model.HoursPerDay || seen[r.Hour] {
			return model.DayPrices{}, fmt.Errorf("%w: %s has a duplicate or out-of-range hour %d", model.ErrIncompleteDay, date, r.Hour)
		}
		seen[r.Hour] = true
		prices[r.Hour] = r.PricePLNPerMWh
		count++
	}
	if count != model.HoursPerDay {
		return model.DayPrices{}, fmt.Errorf("%w: %s has %d of %d hours", model.ErrIncompleteDay, date, count, model.HoursPerDay)
	}
	return model.DayPrices{Date: date, Prices: prices}, nil
}

// CompleteDays returns every date in rows with a full set of 24 prices,
// in ascending order.
func CompleteDays(rows []model.MarketRow) []model.DayPrices {
	byDate := GroupByDate(rows)
	var out []model.DayPrices
	for _, date := range model.Dates(rows) {
		day, err := DayPricesFor(byDate[date], date)
		if err != nil {
			continue
		}
		out = append(out, day)
	}
	return out
}

// LatestCompleteDay returns the most recent complete day in rows.
func LatestCompleteDay(rows []model.MarketRow) (model.DayPrices, error) {
	byDate := GroupByDate(rows)
	dates := model.Dates(rows)
	for i := len(dates) - 1; i >= 0; i-- {
		if day, err := DayPricesFor(byDate[dates[i]], dates[i]); err == nil {
			return day, nil
		}
	}
	return model.DayPrices{}, fmt.Errorf("%w: no complete day in dataset", model.ErrIncompleteDay)
}

func fmtFloat(x float64) string {
	return strconv.FormatFloat(x, 'f', -1, 64)
}
