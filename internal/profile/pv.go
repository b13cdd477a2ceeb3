package profile

import (
	"fmt"

	"bess-roi/internal/model"
)

// DefaultKWhPerKWpDay is the average daily yield of a Polish PV install.
const DefaultKWhPerKWpDay = 3.0

// DefaultPVShape is the hourly weighting applied to kWp * kWh/kWp/day.
func DefaultPVShape() model.HourlySeries {
	return model.HourlySeries{
		0, 0, 0, 0, 0,
		0.02, 0.05, 0.10, 0.15, 0.20,
		0.25, 0.30, 0.32, 0.30, 0.25,
		0.20, 0.15, 0.10, 0.05, 0.02,
		0, 0, 0, 0,
	}
}

// PVGeneration returns pv[h] = shape[h] * kWp * kWhPerKWpDay.
func PVGeneration(shape model.HourlySeries, kWp, kWhPerKWpDay float64) (model.HourlySeries, error) {
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("pv shape: %w", err)
	}
	if kWp < 0 {
		return nil, fmt.Errorf("%w: pv_kwp must be >= 0, got %v", model.ErrInvalidArgument, kWp)
	}
	if kWhPerKWpDay < 0 {
		return nil, fmt.Errorf("%w: kwh_per_kwp_day must be >= 0, got %v", model.ErrInvalidArgument, kWhPerKWpDay)
	}
	return shape.Scale(kWp * kWhPerKWpDay), nil
}
