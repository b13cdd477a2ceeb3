package strategy

import (
	"bess-roi/internal/balance"
	"bess-roi/internal/model"
)

// Context is everything a strategy may look at for one day.
// Not every strategy reads every field: the proportional policy has no
// visibility into Prices, the arbitrage policy ignores the PV balance.
type Context struct {
	Balance balance.Result
	Prices  model.HourlySeries
	Battery model.BatteryParams
}

// Strategy turns one day's balance into a battery dispatch.
type Strategy interface {
	Name() string
	Allocate(ctx Context) (Allocation, error)
}

// Allocation is the battery's effect on one day, hour by hour (kWh).
type Allocation struct {
	Strategy string `json:"strategy"`

	// ChargedKWh is the aggregate energy held by the battery for the day.
	ChargedKWh float64 `json:"charged_kwh"`

	// Charge is the energy put into the battery in each hour.
	Charge model.HourlySeries `json:"charge"`
	// GridCharge is the part of Charge bought from the grid.
	GridCharge model.HourlySeries `json:"grid_charge"`
	// Delivered is the energy the consumer no longer buys in each hour.
	Delivered model.HourlySeries `json:"delivered"`
	// GridWithBattery is the remaining grid draw once the battery is in place.
	GridWithBattery model.HourlySeries `json:"grid_with_battery"`

	// SOC is the end-of-hour state of charge, set only by strategies that
	// simulate the day chronologically.
	SOC model.HourlySeries `json:"soc,omitempty"`
}

func newAllocation(name string) Allocation {
	return Allocation{
		Strategy:        name,
		Charge:          model.Zero(),
		GridCharge:      model.Zero(),
		Delivered:       model.Zero(),
		GridWithBattery: model.Zero(),
	}
}
