package strategy

import (
	"fmt"
	"math"
	"sort"

	"bess-roi/internal/model"
)

const (
	// ArbitrageName is the registry name of the top-K price arbitrage policy.
	ArbitrageName = "arbitrage"
	// DefaultTopK is the number of charge and discharge hours used when
	// nothing else is configured.
	DefaultTopK = 3
	// MaxTopK keeps the charge and discharge hour sets disjoint.
	MaxTopK = model.HoursPerDay / 2
)

// Arbitrage buys capacity/TopK kWh from the grid in each of the TopK cheapest
// hours and releases the same amount in each of the TopK most expensive
// hours. Charging is paid in full; the discharge leg is derated by the
// battery efficiency. The PV balance is not consulted.
type Arbitrage struct {
	TopK int
}

func (a Arbitrage) Name() string { return ArbitrageName }

func (a Arbitrage) Allocate(ctx Context) (Allocation, error) {
	remaining := ctx.Balance.RemainingConsumption
	if remaining == nil {
		remaining = model.Zero()
	}
	return AllocateArbitrage(ctx.Prices, remaining, ctx.Battery.CapacityKWh, ctx.Battery.Efficiency, a.TopK)
}

// AllocateArbitrage selects hours by price. Ties go to the earlier hour and
// an hour picked for charging is never picked for discharging.
// GridWithBattery is remaining + grid charge - delivered, floored at zero;
// its cost is indicative only, profit comes from cost.ArbitrageProfit.
func AllocateArbitrage(prices, remaining model.HourlySeries, capacityKWh, efficiency float64, topK int) (Allocation, error) {
	if err := model.ValidateEfficiency(efficiency); err != nil {
		return Allocation{}, err
	}
	if capacityKWh < 0 || math.IsNaN(capacityKWh) {
		return Allocation{}, fmt.Errorf("%w: capacity must be >= 0, got %v", model.ErrInvalidArgument, capacityKWh)
	}
	if topK < 1 || topK > MaxTopK {
		return Allocation{}, fmt.Errorf("%w: top_k must be in [1, %d], got %d", model.ErrInvalidArgument, MaxTopK, topK)
	}
	if err := prices.ValidatePrices(); err != nil {
		return Allocation{}, fmt.Errorf("prices: %w", err)
	}
	if err := remaining.Validate(); err != nil {
		return Allocation{}, fmt.Errorf("remaining consumption: %w", err)
	}

	alloc := newAllocation(ArbitrageName)
	alloc.ChargedKWh = capacityKWh
	perHour := capacityKWh / float64(topK)

	cheap := CheapestHours(prices, topK)
	taken := make(map[int]bool, len(cheap))
	for _, h := range cheap {
		taken[h] = true
	}
	var expensive []int
	for _, h := range MostExpensiveHours(prices, len(prices)) {
		if len(expensive) == topK {
			break
		}
		if !taken[h] {
			expensive = append(expensive, h)
		}
	}

	for _, h := range cheap {
		alloc.Charge[h] = perHour
		alloc.GridCharge[h] = perHour
	}
	for _, h := range expensive {
		alloc.Delivered[h] = perHour * efficiency
	}
	for h := range remaining {
		alloc.GridWithBattery[h] = math.Max(remaining[h]+alloc.GridCharge[h]-alloc.Delivered[h], 0)
	}
	return alloc, nil
}

// CheapestHours returns the k hour indexes with the lowest price.
func CheapestHours(prices model.HourlySeries, k int) []int {
	idx := rankHours(prices, func(a, b float64) bool { return a < b })
	return idx[:min(k, len(idx))]
}

// MostExpensiveHours returns the k hour indexes with the highest price.
func MostExpensiveHours(prices model.HourlySeries, k int) []int {
	idx := rankHours(prices, func(a, b float64) bool { return a > b })
	return idx[:min(k, len(idx))]
}

func rankHours(prices model.HourlySeries, less func(a, b float64) bool) []int {
	idx := make([]int, len(prices))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(i, j int) bool {
		return less(prices[idx[i]], prices[idx[j]])
	})
	return idx
}
