package simulate

import (
	"bess-roi/internal/balance"
	"bess-roi/internal/model"
	"bess-roi/internal/strategy"
)

// LedgerRow is one hour of an evaluated day, in kWh and PLN.
// This is the primary artifact for "what happened" in an evaluation.
type LedgerRow struct {
	Date string `json:"date"`
	Hour int    `json:"hour"`

	PricePLNPerMWh float64 `json:"price_pln_mwh"`
	EffectivePrice float64 `json:"effective_price_pln_kwh"`

	Consumption  float64 `json:"consumption_kwh"`
	PV           float64 `json:"pv_kwh"`
	SelfConsumed float64 `json:"self_consumed_kwh"`
	Excess       float64 `json:"excess_kwh"`
	Remaining    float64 `json:"remaining_kwh"`

	Action model.Action `json:"action"`

	Charge     float64 `json:"charge_kwh"`
	GridCharge float64 `json:"grid_charge_kwh"`
	Delivered  float64 `json:"delivered_kwh"`
	GridDraw   float64 `json:"grid_draw_kwh"`
	SOC        float64 `json:"soc_kwh"`

	CostNoBattery   float64 `json:"cost_no_battery_pln"`
	CostWithBattery float64 `json:"cost_with_battery_pln"`
	CumSaving       float64 `json:"cum_saving_pln"`
}

// DayResult is the evaluation of one day for one client and strategy.
type DayResult struct {
	Date     string `json:"date"`
	Strategy string `json:"strategy"`

	Inputs     model.DayInputs     `json:"-"`
	Balance    balance.Result      `json:"-"`
	Allocation strategy.Allocation `json:"allocation"`

	CostNoBattery   float64 `json:"cost_no_battery_pln"`
	CostWithBattery float64 `json:"cost_with_battery_pln"`
	DailyProfit     float64 `json:"daily_profit_pln"`
	WaitingCost     float64 `json:"waiting_cost_pln"`

	Ledger []LedgerRow `json:"ledger"`
}

// Totals aggregates a range of evaluated days.
type Totals struct {
	Strategy string `json:"strategy"`
	From     string `json:"from"`
	To       string `json:"to"`
	Days     int    `json:"days"`

	CostNoBattery   float64 `json:"cost_no_battery_pln"`
	CostWithBattery float64 `json:"cost_with_battery_pln"`
	Profit          float64 `json:"profit_pln"`
	AvgDailyProfit  float64 `json:"avg_daily_profit_pln"`
	WaitingCost     float64 `json:"waiting_cost_pln"`
}
