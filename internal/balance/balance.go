package balance

import (
	"fmt"
	"math"

	"bess-roi/internal/model"
)

// Result splits one day of consumption and PV generation into the part
// covered directly by PV, the deficit left for the grid or battery, and the
// PV surplus. For every hour deficit and surplus are never both positive.
type Result struct {
	SelfConsumed         model.HourlySeries `json:"self_consumed"`
	RemainingConsumption model.HourlySeries `json:"remaining_consumption"`
	PVExcess             model.HourlySeries `json:"pv_excess"`
}

// ComputeBalance applies selfConsumed = min(consumption, pv) hour by hour.
func ComputeBalance(consumption, pv model.HourlySeries) (Result, error) {
	if err := consumption.Validate(); err != nil {
		return Result{}, fmt.Errorf("consumption: %w", err)
	}
	if err := pv.Validate(); err != nil {
		return Result{}, fmt.Errorf("pv generation: %w", err)
	}

	res := Result{
		SelfConsumed:         model.Zero(),
		RemainingConsumption: model.Zero(),
		PVExcess:             model.Zero(),
	}
	for h := 0; h < model.HoursPerDay; h++ {
		self := math.Min(consumption[h], pv[h])
		res.SelfConsumed[h] = self
		res.RemainingConsumption[h] = consumption[h] - self
		res.PVExcess[h] = pv[h] - self
	}
	return res, nil
}
