package analysis

import (
	"math"
	"sort"

	"bess-roi/internal/model"
)

// DayPotential summarises one day's price distribution for ranking.
type DayPotential struct {
	Spread

	Hours int     `json:"hours"`
	Min   float64 `json:"min_price"`
	Max   float64 `json:"max_price"`
	Mean  float64 `json:"mean_price"`
	P05   float64 `json:"p05_price"`
	P95   float64 `json:"p95_price"`

	// ProfitPLN is the theoretical one-cycle value for the ranking battery.
	ProfitPLN float64 `json:"profit_pln"`
}

func ComputePotential(day model.DayPrices, batteryKWh, efficiency float64, topN int) (DayPotential, error) {
	s, err := DailySpread(day, topN)
	if err != nil {
		return DayPotential{}, err
	}
	vals := append([]float64(nil), day.Prices...)
	sort.Float64s(vals)

	p := DayPotential{
		Spread: s,
		Hours:  len(vals),
		Min:    vals[0],
		Max:    vals[len(vals)-1],
		Mean:   mean(vals),
		P05:    percentileSorted(vals, 0.05),
		P95:    percentileSorted(vals, 0.95),
	}
	if s.Spread > 0 {
		p.ProfitPLN = s.Spread * (batteryKWh / 1000) * efficiency
	}
	return p, nil
}

func percentileSorted(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	// Linear interpolation between order stats.
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// RankDaysBySpread computes potentials per day and sorts descending by
// spread, earlier dates first on ties. Days with too few hours are skipped.
func RankDaysBySpread(days []model.DayPrices, batteryKWh, efficiency float64, topN int) []DayPotential {
	out := make([]DayPotential, 0, len(days))
	for _, day := range days {
		p, err := ComputePotential(day, batteryKWh, efficiency, topN)
		if err != nil {
			continue
		}
		out = append(out, p)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Spread.Spread != out[j].Spread.Spread {
			return out[i].Spread.Spread > out[j].Spread.Spread
		}
		return out[i].Date < out[j].Date
	})
	return out
}
