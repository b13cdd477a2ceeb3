package strategy

import (
	"fmt"
	"math"

	"bess-roi/internal/model"
)

// ProportionalName is the registry name of the demand-proportional policy.
const ProportionalName = "proportional"

// Proportional charges the battery once from the day's PV surplus and spreads
// that energy over the deficit hours in proportion to each hour's deficit.
// Efficiency is applied on the charge leg only.
type Proportional struct{}

func (Proportional) Name() string { return ProportionalName }

func (p Proportional) Allocate(ctx Context) (Allocation, error) {
	return AllocateBattery(ctx.Balance.PVExcess, ctx.Balance.RemainingConsumption, ctx.Battery.CapacityKWh, ctx.Battery.Efficiency)
}

// AllocateBattery implements the proportional policy:
//
//	chargeAvailable = min(sum(excess) * efficiency, capacityKWh)
//	delivered[h]    = remaining[h] / sum(remaining) * chargeAvailable
//	grid[h]         = max(remaining[h] - delivered[h], 0)
//
// When sum(remaining) is zero nothing is delivered and grid == remaining.
func AllocateBattery(excess, remaining model.HourlySeries, capacityKWh, efficiency float64) (Allocation, error) {
	if err := model.ValidateEfficiency(efficiency); err != nil {
		return Allocation{}, err
	}
	if capacityKWh < 0 || math.IsNaN(capacityKWh) {
		return Allocation{}, fmt.Errorf("%w: capacity must be >= 0, got %v", model.ErrInvalidArgument, capacityKWh)
	}
	if err := excess.Validate(); err != nil {
		return Allocation{}, fmt.Errorf("pv excess: %w", err)
	}
	if err := remaining.Validate(); err != nil {
		return Allocation{}, fmt.Errorf("remaining consumption: %w", err)
	}

	alloc := newAllocation(ProportionalName)
	excessTotal := excess.Sum()
	chargeAvailable := math.Min(excessTotal*efficiency, capacityKWh)
	alloc.ChargedKWh = chargeAvailable

	// Hourly charge trace, for ledgers and charts.
	if excessTotal > 0 && chargeAvailable > 0 {
		for h, e := range excess {
			alloc.Charge[h] = e / excessTotal * chargeAvailable
		}
	}

	remainingTotal := remaining.Sum()
	if remainingTotal <= 0 || chargeAvailable <= 0 {
		copy(alloc.GridWithBattery, remaining)
		return alloc, nil
	}

	for h, r := range remaining {
		used := r / remainingTotal * chargeAvailable
		alloc.Delivered[h] = used
		alloc.GridWithBattery[h] = math.Max(r-used, 0)
	}
	return alloc, nil
}
