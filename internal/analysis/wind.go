package analysis

import (
	"errors"
	"fmt"
	"math"

	"bess-roi/internal/model"
)

const DefaultWindThreshold = 8.0

// DefaultWindColumns are the dataset columns compared against the threshold.
var DefaultWindColumns = []string{"warsaw_windspeed_10m", "poznan_windspeed_10m"}

// ErrNotEnoughWindData is returned when either wind regime has no hours.
var ErrNotEnoughWindData = errors.New("not enough data for wind correlation analysis")

// WindEffect compares mean prices in windy and calm hours.
type WindEffect struct {
	ThresholdMS   float64 `json:"wind_threshold_m_s"`
	HighWindHours int     `json:"high_wind_hours"`
	LowWindHours  int     `json:"low_wind_hours"`
	AvgPriceHigh  float64 `json:"avg_price_high_wind"`
	AvgPriceLow   float64 `json:"avg_price_low_wind"`
	PriceDeltaPLN float64 `json:"price_delta_pln"`
	PriceDeltaPct float64 `json:"price_delta_pct"`
}

// WindPriceEffect classifies each hour by the strongest wind among
// DefaultWindColumns: above threshold is windy. Hours with no wind reading
// are ignored.
func WindPriceEffect(rows []model.MarketRow, threshold float64) (WindEffect, error) {
	return WindPriceEffectColumns(rows, threshold, DefaultWindColumns)
}

func WindPriceEffectColumns(rows []model.MarketRow, threshold float64, columns []string) (WindEffect, error) {
	if len(columns) == 0 {
		return WindEffect{}, fmt.Errorf("%w: no wind columns", model.ErrInvalidArgument)
	}
	var high, low []float64
	for _, r := range rows {
		wind, ok := maxWind(r, columns)
		if !ok {
			continue
		}
		if wind > threshold {
			high = append(high, r.PricePLNPerMWh)
		} else {
			low = append(low, r.PricePLNPerMWh)
		}
	}
	if len(high) == 0 || len(low) == 0 {
		return WindEffect{}, ErrNotEnoughWindData
	}

	avgHigh, avgLow := mean(high), mean(low)
	delta := avgHigh - avgLow
	pct := math.NaN()
	if avgLow != 0 {
		pct = delta / avgLow * 100
	}
	return WindEffect{
		ThresholdMS:   threshold,
		HighWindHours: len(high),
		LowWindHours:  len(low),
		AvgPriceHigh:  avgHigh,
		AvgPriceLow:   avgLow,
		PriceDeltaPLN: delta,
		PriceDeltaPct: pct,
	}, nil
}

func maxWind(r model.MarketRow, columns []string) (float64, bool) {
	best, found := 0.0, false
	for _, col := range columns {
		v, ok := r.Weather[col]
		if !ok || math.IsNaN(v) {
			continue
		}
		if !found || v > best {
			best, found = v, true
		}
	}
	return best, found
}
