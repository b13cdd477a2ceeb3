package model

import "sort"

// DateLayout is the calendar-date format used across CSVs, the store and
// the API.
const DateLayout = "2006-01-02"

// PricePoint is one hourly day-ahead price.
// Hour is normalised to 0..23 before it reaches the core.
type PricePoint struct {
	Date           string  `json:"date"`
	Hour           int     `json:"hour"`
	PricePLNPerMWh float64 `json:"price_pln_mwh"`
}

// MarketRow is one line of the merged market dataset: a price point plus
// optional weather columns keyed "<city>_<variable>", e.g. "warsaw_windspeed_10m".
type MarketRow struct {
	PricePoint
	Weather map[string]float64 `json:"weather,omitempty"`
}

// DayPrices is a complete day of hourly prices.
type DayPrices struct {
	Date   string       `json:"date"`
	Prices HourlySeries `json:"prices"`
}

// Dates returns the distinct dates present in rows, sorted ascending.
func Dates(rows []MarketRow) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, r := range rows {
		if _, ok := seen[r.Date]; ok {
			continue
		}
		seen[r.Date] = struct{}{}
		out = append(out, r.Date)
	}
	sort.Strings(out)
	return out
}
