package cost

import (
	"fmt"
	"math"

	"bess-roi/internal/model"
	"bess-roi/internal/strategy"
)

// DaysPerMonth is the flat month length used by the waiting-cost projection.
const DaysPerMonth = 30

// EffectivePrice converts a PLN/MWh market price to the PLN/kWh the consumer
// pays, distribution included.
func EffectivePrice(pricePLNPerMWh, distributionPerKWh float64) float64 {
	return pricePLNPerMWh/1000 + distributionPerKWh
}

// EvaluateCost returns sum(energy[h] * effectivePrice[h]) in PLN, unrounded.
func EvaluateCost(energy, prices model.HourlySeries, distributionPerKWh float64) (float64, error) {
	if len(energy) == 0 || len(prices) == 0 {
		return 0, model.ErrEmptySeries
	}
	if len(energy) != len(prices) {
		return 0, fmt.Errorf("%w: %d energy values vs %d prices", model.ErrShapeMismatch, len(energy), len(prices))
	}
	if distributionPerKWh < 0 || math.IsNaN(distributionPerKWh) {
		return 0, fmt.Errorf("%w: distribution cost must be >= 0, got %v", model.ErrInvalidArgument, distributionPerKWh)
	}

	total := 0.0
	for h := range energy {
		total += energy[h] * EffectivePrice(prices[h], distributionPerKWh)
	}
	return total, nil
}

// ArbitrageProfit values a price-arbitrage allocation: what the delivered
// energy would have cost minus what the grid charge cost.
func ArbitrageProfit(alloc strategy.Allocation, prices model.HourlySeries, distributionPerKWh float64) (float64, error) {
	avoided, err := EvaluateCost(alloc.Delivered, prices, distributionPerKWh)
	if err != nil {
		return 0, fmt.Errorf("delivered: %w", err)
	}
	paid, err := EvaluateCost(alloc.GridCharge, prices, distributionPerKWh)
	if err != nil {
		return 0, fmt.Errorf("grid charge: %w", err)
	}
	return avoided - paid, nil
}

// ProjectWaitingCost extrapolates a daily saving over a delay in months:
// dailyProfit * 30 * monthsDelay. No compounding or discounting.
func ProjectWaitingCost(dailyProfit float64, monthsDelay int) (float64, error) {
	if monthsDelay < 0 {
		return 0, fmt.Errorf("%w: months delay must be >= 0, got %d", model.ErrInvalidArgument, monthsDelay)
	}
	return dailyProfit * DaysPerMonth * float64(monthsDelay), nil
}
