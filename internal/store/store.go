// Package store persists the merged market dataset (hourly prices plus
// weather columns) in SQLite.
package store

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"
	"path"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
	"time"

	_ "modernc.org/sqlite"

	"bess-roi/internal/data"
	"bess-roi/internal/model"
)

//go:embed migrations
var migrationsDir embed.FS

const pragmas = "?_pragma=journal_mode(WAL)" +
	"&_pragma=synchronous(NORMAL)" +
	"&_pragma=busy_timeout(5000)" +
	"&_pragma=foreign_keys(ON)"

type Store struct {
	logger *slog.Logger
	read   *sql.DB
	write  *sql.DB
	path   string
}

// New opens (or creates) the database at path and applies pending
// migrations.
func New(ctx context.Context, path string) (*Store, error) {
	dsn := "file:" + path + pragmas

	read, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("error when opening database (read): %w", err)
	}
	read.SetMaxOpenConns(10)
	read.SetConnMaxIdleTime(time.Minute)

	write, err := sql.Open("sqlite", dsn)
	if err != nil {
		read.Close()
		return nil, fmt.Errorf("error when opening database (write): %w", err)
	}
	write.SetMaxOpenConns(1) // single writer
	write.SetConnMaxIdleTime(time.Minute)

	s := &Store{
		logger: slog.Default().With(slog.String("module", "store")),
		read:   read,
		write:  write,
		path:   path,
	}

	if err := s.migrate(ctx); err != nil {
		s.Close()
		return nil, fmt.Errorf("database migration failed: %w", err)
	}
	return s, nil
}

func (s *Store) SetLogger(logger *slog.Logger) {
	s.logger = logger
}

func (s *Store) Close() {
	s.read.Close()
	s.write.Close()
}

// Version returns the applied schema version.
func (s *Store) Version(ctx context.Context) (int, error) {
	var v int
	err := s.read.QueryRowContext(ctx, "PRAGMA user_version").Scan(&v)
	return v, err
}

func (s *Store) migrate(ctx context.Context) error {
	currVer, err := s.Version(ctx)
	if err != nil {
		return fmt.Errorf("get current version: %w", err)
	}

	files, err := migrationsDir.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations directory: %w", err)
	}

	var sqlFiles []string
	for _, f := range files {
		if !f.IsDir() && filepath.Ext(f.Name()) == ".sql" {
			sqlFiles = append(sqlFiles, f.Name())
		}
	}
	slices.Sort(sqlFiles)

	re := regexp.MustCompile(`^(\d+)[-_]`)
	for _, name := range sqlFiles {
		matches := re.FindStringSubmatch(name)
		if len(matches) < 2 {
			return fmt.Errorf("parse version from migration file: %s", name)
		}
		nextVer, err := strconv.Atoi(matches[1])
		if err != nil {
			return fmt.Errorf("convert migration version from file %s: %w", name, err)
		}
		if nextVer <= currVer {
			continue
		}

		s.logger.Debug("applying migration", slog.Int("version", nextVer))

		body, err := migrationsDir.ReadFile(path.Join("migrations", name))
		if err != nil {
			return fmt.Errorf("read migration file %s: %w", name, err)
		}

		tx, err := s.write.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("start transaction for migration %d: %w", nextVer, err)
		}
		if _, err := tx.ExecContext(ctx, string(body)); err != nil {
			tx.Rollback()
			return fmt.Errorf("apply migration %d: %w", nextVer, err)
		}
		if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d;", nextVer)); err != nil {
			tx.Rollback()
			return fmt.Errorf("update database version for migration %d: %w", nextVer, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", nextVer, err)
		}
	}
	return nil
}

// SaveRows upserts prices and weather values in one transaction.
func (s *Store) SaveRows(ctx context.Context, rows []model.MarketRow) error {
	tx, err := s.write.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer tx.Rollback()

	for _, r := range rows {
		if r.Hour < 0 || r.Hour >= model.HoursPerDay {
			return fmt.Errorf("%w: hour %d on %s", model.ErrShapeMismatch, r.Hour, r.Date)
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO market_price (date, hour, price) VALUES (?, ?, ?)
			ON CONFLICT(date, hour) DO UPDATE SET price = excluded.price`,
			r.Date, r.Hour, r.PricePLNPerMWh)
		if err != nil {
			return fmt.Errorf("error when saving price %s/%d: %w", r.Date, r.Hour, err)
		}
		for name, v := range r.Weather {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO weather (date, hour, name, value) VALUES (?, ?, ?, ?)
				ON CONFLICT(date, hour, name) DO UPDATE SET value = excluded.value`,
				r.Date, r.Hour, name, v)
			if err != nil {
				return fmt.Errorf("error when saving weather %s/%d: %w", r.Date, r.Hour, err)
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save: %w", err)
	}
	s.logger.Debug("saved market rows", slog.Int("rows", len(rows)))
	return nil
}

// LogFetch records when a date was last fetched and from where.
func (s *Store) LogFetch(ctx context.Context, date, source string, hours int, at time.Time) error {
	_, err := s.write.ExecContext(ctx, `
		INSERT INTO fetch_log (date, source, fetched_at, hours) VALUES (?, ?, ?, ?)
		ON CONFLICT(date) DO UPDATE SET
			source = excluded.source,
			fetched_at = excluded.fetched_at,
			hours = excluded.hours`,
		date, source, at.UTC().Format(time.RFC3339), hours)
	if err != nil {
		return fmt.Errorf("error when logging fetch of %s: %w", date, err)
	}
	return nil
}

// LastFetched returns when date was last fetched, or false if never.
func (s *Store) LastFetched(ctx context.Context, date string) (time.Time, bool, error) {
	var at string
	err := s.read.QueryRowContext(ctx, `SELECT fetched_at FROM fetch_log WHERE date = ?`, date).Scan(&at)
	if err == sql.ErrNoRows {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	t, err := time.Parse(time.RFC3339, at)
	if err != nil {
		return time.Time{}, false, err
	}
	return t, true, nil
}

// Dates returns every date that has at least one price, ascending.
func (s *Store) Dates(ctx context.Context) ([]string, error) {
	rows, err := s.read.QueryContext(ctx, `SELECT DISTINCT date FROM market_price ORDER BY date ASC`)
	if err != nil {
		return nil, fmt.Errorf("error when fetching dates: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// Rows returns the dataset between from and to inclusive (YYYY-MM-DD),
// ordered by date and hour. Empty bounds are open.
func (s *Store) Rows(ctx context.Context, from, to string) ([]model.MarketRow, error) {
	if from == "" {
		from = "0000-00-00"
	}
	if to == "" {
		to = "9999-99-99"
	}

	prices, err := s.read.QueryContext(ctx, `
		SELECT date, hour, price
		FROM market_price
		WHERE date >= ? AND date <= ?
		ORDER BY date, hour ASC`, from, to)
	if err != nil {
		return nil, fmt.Errorf("error when fetching prices: %w", err)
	}
	defer prices.Close()

	var out []model.MarketRow
	index := make(map[string]int)
	for prices.Next() {
		var r model.MarketRow
		if err := prices.Scan(&r.Date, &r.Hour, &r.PricePLNPerMWh); err != nil {
			return nil, fmt.Errorf("error when scanning price row: %w", err)
		}
		index[r.Date+"/"+strconv.Itoa(r.Hour)] = len(out)
		out = append(out, r)
	}
	if err := prices.Err(); err != nil {
		return nil, err
	}

	weather, err := s.read.QueryContext(ctx, `
		SELECT date, hour, name, value
		FROM weather
		WHERE date >= ? AND date <= ?`, from, to)
	if err != nil {
		return nil, fmt.Errorf("error when fetching weather: %w", err)
	}
	defer weather.Close()

	for weather.Next() {
		var (
			date, name string
			hour       int
			value      float64
		)
		if err := weather.Scan(&date, &hour, &name, &value); err != nil {
			return nil, fmt.Errorf("error when scanning weather row: %w", err)
		}
		i, ok := index[date+"/"+strconv.Itoa(hour)]
		if !ok {
			continue
		}
		if out[i].Weather == nil {
			out[i].Weather = make(map[string]float64)
		}
		out[i].Weather[name] = value
	}
	return out, weather.Err()
}

// DayPrices returns one complete day or model.ErrIncompleteDay.
func (s *Store) DayPrices(ctx context.Context, date string) (model.DayPrices, error) {
	rows, err := s.Rows(ctx, date, date)
	if err != nil {
		return model.DayPrices{}, err
	}
	return data.DayPricesFor(rows, date)
}

// Purge deletes all data dated before the given day.
func (s *Store) Purge(ctx context.Context, before string) error {
	for _, table := range []string{"market_price", "weather", "fetch_log"} {
		res, err := s.write.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE date < ?`, table), before)
		if err != nil {
			return fmt.Errorf("error when purging %s: %w", table, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			s.logger.Warn("can't get rows affected by purge", slog.String("table", table), slog.Any("error", err))
			continue
		}
		s.logger.Debug("purged rows", slog.String("table", table), slog.Int64("rows", n))
	}
	return nil
}
