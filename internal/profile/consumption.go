package profile

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"bess-roi/internal/model"
)

// FlatProfile is the built-in profile spreading annual use evenly.
const FlatProfile = "flat"

const daysPerYear = 365

// Flat returns annualKWh / 365 / 24 in every hour.
func Flat(annualKWh float64) (model.HourlySeries, error) {
	if annualKWh < 0 {
		return nil, fmt.Errorf("%w: annual_kwh must be >= 0, got %v", model.ErrInvalidArgument, annualKWh)
	}
	return model.Constant(annualKWh / daysPerYear / model.HoursPerDay), nil
}

// Table holds named consumption profiles: for each profile, the share of a
// day's energy used in each hour.
type Table struct {
	shares map[string]model.HourlySeries
}

// ErrUnknownProfile is returned for a profile name missing from the table.
var ErrUnknownProfile = errors.New("unknown profile")

// LoadTable reads a profile table CSV from disk.
func LoadTable(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadTable(f)
}

// ReadTable parses a CSV with an "hour" column followed by one column per
// profile. Hours may be numbered 0..23 or 1..24.
func ReadTable(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read profile table: %w", err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("profile table: %w", model.ErrEmptySeries)
	}

	header := records[0]
	hourCol := -1
	for i, name := range header {
		if strings.EqualFold(strings.TrimSpace(name), "hour") {
			hourCol = i
			break
		}
	}
	if hourCol < 0 {
		return nil, errors.New("profile table: missing hour column")
	}

	rawHours := make([]int, 0, len(records)-1)
	for i, rec := range records[1:] {
		h, err := strconv.Atoi(strings.TrimSpace(rec[hourCol]))
		if err != nil {
			return nil, fmt.Errorf("profile table row %d: bad hour %q", i+2, rec[hourCol])
		}
		rawHours = append(rawHours, h)
	}
	oneBased := IsOneBased(rawHours)

	t := &Table{shares: make(map[string]model.HourlySeries)}
	for col, name := range header {
		if col == hourCol {
			continue
		}
		t.shares[strings.TrimSpace(name)] = model.Zero()
	}

	seen := make(map[int]bool)
	for i, rec := range records[1:] {
		h, err := NormalizeHour(rawHours[i], oneBased)
		if err != nil {
			return nil, fmt.Errorf("profile table row %d: %w", i+2, err)
		}
		seen[h] = true
		for col, name := range header {
			if col == hourCol {
				continue
			}
			v, err := strconv.ParseFloat(strings.TrimSpace(rec[col]), 64)
			if err != nil {
				return nil, fmt.Errorf("profile table row %d column %s: %w", i+2, name, err)
			}
			t.shares[strings.TrimSpace(name)][h] = v
		}
	}
	if len(seen) != model.HoursPerDay {
		return nil, fmt.Errorf("%w: profile table covers %d hours", model.ErrShapeMismatch, len(seen))
	}
	for name, s := range t.shares {
		if err := s.Validate(); err != nil {
			return nil, fmt.Errorf("profile %s: %w", name, err)
		}
	}
	return t, nil
}

// Names lists the profiles in the table plus the built-in flat profile.
func (t *Table) Names() []string {
	names := []string{FlatProfile}
	if t != nil {
		for name := range t.shares {
			if name != FlatProfile {
				names = append(names, name)
			}
		}
	}
	sort.Strings(names[1:])
	return names
}

// Consumption scales a named profile to a day: share[h] * annualKWh / 365.
// A nil table still serves the flat profile.
func (t *Table) Consumption(name string, annualKWh float64) (model.HourlySeries, error) {
	if annualKWh < 0 {
		return nil, fmt.Errorf("%w: annual_kwh must be >= 0, got %v", model.ErrInvalidArgument, annualKWh)
	}
	if t != nil {
		if shares, ok := t.shares[name]; ok {
			return shares.Scale(annualKWh / daysPerYear), nil
		}
	}
	if name == "" || name == FlatProfile {
		return Flat(annualKWh)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownProfile, name)
}
