package data

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"bess-roi/internal/model"
)

// LoadMarket reads a market dataset, choosing the format by extension:
// .json snapshots or the CSV layout written by SaveMarketCSV.
func LoadMarket(path string) ([]model.MarketRow, error) {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return LoadMarketJSON(path)
	}
	return LoadMarketCSV(path)
}

func LoadMarketJSON(path string) ([]model.MarketRow, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var rows []model.MarketRow
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("failed to parse market JSON: %w", err)
	}
	return rows, nil
}

func SaveMarketJSON(path string, rows []model.MarketRow) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	raw, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal market rows: %w", err)
	}
	return os.WriteFile(path, raw, 0o644)
}

// GroupByDate splits rows into date-keyed slices.
func GroupByDate(rows []model.MarketRow) map[string][]model.MarketRow {
	out := map[string][]model.MarketRow{}
	for _, r := range rows {
		out[r.Date] = append(out[r.Date], r)
	}
	return out
}

// Manifest describes a stored market dataset.
type Manifest struct {
	Source    string   `json:"source"`     // e.g. "entsoe+open-meteo"
	UpdatedAt string   `json:"updated_at"` // RFC 3339
	Dates     []string `json:"dates"`
	Columns   []string `json:"columns"`
}

// NewManifest summarises rows.
func NewManifest(source, updatedAt string, rows []model.MarketRow) *Manifest {
	cols := append([]string{ColDate, ColHour, ColPrice}, weatherColumns(rows)...)
	return &Manifest{
		Source:    source,
		UpdatedAt: updatedAt,
		Dates:     model.Dates(rows),
		Columns:   cols,
	}
}

func LoadManifest(filePath string) (*Manifest, error) {
	raw, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest file: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest file: %w", err)
	}
	return &m, nil
}

func SaveManifest(m *Manifest, filePath string) error {
	if err := os.MkdirAll(filepath.Dir(filePath), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	raw, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	if err := os.WriteFile(filePath, raw, 0o644); err != nil {
		return fmt.Errorf("failed to write manifest file: %w", err)
	}
	return nil
}

// ManifestPath is the manifest stored next to a dataset file.
func ManifestPath(datasetPath string) string {
	return strings.TrimSuffix(datasetPath, filepath.Ext(datasetPath)) + ".manifest.json"
}

// Dataset serves an in-memory market dataset through the same read methods
// as the sqlite store. It is safe for concurrent use.
type Dataset struct {
	mu   sync.RWMutex
	rows []model.MarketRow
}

func NewDataset(rows []model.MarketRow) *Dataset {
	return &Dataset{rows: rows}
}

// Set replaces the dataset's rows.
func (d *Dataset) Set(rows []model.MarketRow) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.rows = rows
}

// Reload replaces the rows with the contents of path.
func (d *Dataset) Reload(path string) error {
	rows, err := LoadMarket(path)
	if err != nil {
		return err
	}
	d.Set(rows)
	return nil
}

// Dates returns the distinct dates in ascending order.
func (d *Dataset) Dates(context.Context) ([]string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	dates := model.Dates(d.rows)
	sort.Strings(dates)
	return dates, nil
}

// Rows returns rows with from <= date <= to; empty bounds are open.
func (d *Dataset) Rows(_ context.Context, from, to string) ([]model.MarketRow, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	var out []model.MarketRow
	for _, r := range d.rows {
		if from != "" && r.Date < from {
			continue
		}
		if to != "" && r.Date > to {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (d *Dataset) DayPrices(_ context.Context, date string) (model.DayPrices, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return DayPricesFor(d.rows, date)
}
