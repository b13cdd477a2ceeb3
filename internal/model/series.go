package model

import (
	"fmt"
	"math"
)

// HoursPerDay is the fixed length of every hourly series.
const HoursPerDay = 24

// HourlySeries holds one value per hour of a day, indexed 0..23.
// Energy series are in kWh, price series in PLN/MWh.
type HourlySeries []float64

// Zero returns an all-zero series.
func Zero() HourlySeries {
	return make(HourlySeries, HoursPerDay)
}

// Constant returns a series with v in every hour.
func Constant(v float64) HourlySeries {
	s := Zero()
	for h := range s {
		s[h] = v
	}
	return s
}

// Validate checks the series has exactly 24 finite, non-negative values.
func (s HourlySeries) Validate() error {
	if len(s) != HoursPerDay {
		return fmt.Errorf("%w: got %d values, want %d", ErrShapeMismatch, len(s), HoursPerDay)
	}
	for h, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return fmt.Errorf("%w: hour %d has value %v", ErrInvalidArgument, h, v)
		}
	}
	return nil
}

// ValidatePrices checks the series has exactly 24 finite values. Market
// prices may be negative.
func (s HourlySeries) ValidatePrices() error {
	if len(s) != HoursPerDay {
		return fmt.Errorf("%w: got %d prices, want %d", ErrShapeMismatch, len(s), HoursPerDay)
	}
	for h, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: hour %d has price %v", ErrInvalidArgument, h, v)
		}
	}
	return nil
}

func (s HourlySeries) Sum() float64 {
	total := 0.0
	for _, v := range s {
		total += v
	}
	return total
}

func (s HourlySeries) Clone() HourlySeries {
	out := make(HourlySeries, len(s))
	copy(out, s)
	return out
}

// Scale returns a copy of s multiplied by k.
func (s HourlySeries) Scale(k float64) HourlySeries {
	out := make(HourlySeries, len(s))
	for h, v := range s {
		out[h] = v * k
	}
	return out
}
