package strategy

import (
	"fmt"
	"math"

	"bess-roi/internal/model"
)

// ChronologicalName is the registry name of the hour-by-hour SOC policy.
const ChronologicalName = "chronological"

// Chronological walks the day from hour 0 with an empty battery. Each hour
// it first stores PV surplus (derated by efficiency, bounded by capacity),
// then serves that hour's deficit from whatever is stored. Energy stored late
// in the day cannot cover earlier deficits.
type Chronological struct{}

func (Chronological) Name() string { return ChronologicalName }

func (c Chronological) Allocate(ctx Context) (Allocation, error) {
	excess := ctx.Balance.PVExcess
	remaining := ctx.Balance.RemainingConsumption
	if err := model.ValidateEfficiency(ctx.Battery.Efficiency); err != nil {
		return Allocation{}, err
	}
	if ctx.Battery.CapacityKWh < 0 || math.IsNaN(ctx.Battery.CapacityKWh) {
		return Allocation{}, fmt.Errorf("%w: capacity must be >= 0, got %v", model.ErrInvalidArgument, ctx.Battery.CapacityKWh)
	}
	if err := excess.Validate(); err != nil {
		return Allocation{}, fmt.Errorf("pv excess: %w", err)
	}
	if err := remaining.Validate(); err != nil {
		return Allocation{}, fmt.Errorf("remaining consumption: %w", err)
	}

	batt := &model.Battery{Params: ctx.Battery}
	alloc := newAllocation(ChronologicalName)
	alloc.SOC = model.Zero()

	for h := 0; h < model.HoursPerDay; h++ {
		_, stored := batt.Charge(excess[h])
		alloc.Charge[h] = stored
		alloc.ChargedKWh += stored

		delivered := batt.Discharge(remaining[h])
		alloc.Delivered[h] = delivered
		alloc.GridWithBattery[h] = math.Max(remaining[h]-delivered, 0)
		alloc.SOC[h] = batt.State.SOCKWh
	}
	return alloc, nil
}
