// Package report shapes evaluation results for rendering: two-decimal
// currency summaries plus the raw hourly series used for charts.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"bess-roi/internal/model"
	"bess-roi/internal/simulate"
)

// Round2 is applied only here, at the rendering boundary.
func Round2(x float64) float64 {
	return model.Round2(x)
}

// Summary holds the currency figures of one evaluation, in PLN.
type Summary struct {
	CostNoBattery   float64 `json:"cost_no_battery_pln"`
	CostWithBattery float64 `json:"cost_with_battery_pln"`
	DailyProfit     float64 `json:"daily_profit_pln"`
	WaitingCost     float64 `json:"waiting_cost_pln"`
}

// Charts carries the unrounded hourly series.
type Charts struct {
	Consumption     model.HourlySeries `json:"consumption_kwh"`
	PV              model.HourlySeries `json:"pv_kwh"`
	SelfConsumed    model.HourlySeries `json:"self_consumed_kwh"`
	Remaining       model.HourlySeries `json:"remaining_kwh"`
	Delivered       model.HourlySeries `json:"delivered_kwh"`
	GridWithBattery model.HourlySeries `json:"grid_with_battery_kwh"`
	Prices          model.HourlySeries `json:"prices_pln_mwh"`
	SOC             model.HourlySeries `json:"soc_kwh,omitempty"`
}

// Report is what a renderer needs for one client and day.
type Report struct {
	Client      model.ClientParams `json:"client"`
	Date        string             `json:"date"`
	Strategy    string             `json:"strategy"`
	Efficiency  float64            `json:"efficiency"`
	MonthsDelay int                `json:"months_delay"`
	Summary     Summary            `json:"summary"`
	Charts      Charts             `json:"charts"`
}

// Build rounds the result's currency values and attaches the hourly series.
func Build(client model.ClientParams, efficiency float64, monthsDelay int, res *simulate.DayResult) (*Report, error) {
	if res == nil {
		return nil, fmt.Errorf("%w: no result to report", model.ErrInvalidArgument)
	}
	return &Report{
		Client:      client,
		Date:        res.Date,
		Strategy:    res.Strategy,
		Efficiency:  efficiency,
		MonthsDelay: monthsDelay,
		Summary:     Summarize(res),
		Charts: Charts{
			Consumption:     res.Inputs.Consumption,
			PV:              res.Inputs.PV,
			SelfConsumed:    res.Balance.SelfConsumed,
			Remaining:       res.Balance.RemainingConsumption,
			Delivered:       res.Allocation.Delivered,
			GridWithBattery: res.Allocation.GridWithBattery,
			Prices:          res.Inputs.Prices,
			SOC:             res.Allocation.SOC,
		},
	}, nil
}

// Summarize rounds the currency figures of one day.
func Summarize(res *simulate.DayResult) Summary {
	return Summary{
		CostNoBattery:   Round2(res.CostNoBattery),
		CostWithBattery: Round2(res.CostWithBattery),
		DailyProfit:     Round2(res.DailyProfit),
		WaitingCost:     Round2(res.WaitingCost),
	}
}

// RoundTotals rounds the currency figures of a rollup.
func RoundTotals(t simulate.Totals) simulate.Totals {
	t.CostNoBattery = Round2(t.CostNoBattery)
	t.CostWithBattery = Round2(t.CostWithBattery)
	t.Profit = Round2(t.Profit)
	t.AvgDailyProfit = Round2(t.AvgDailyProfit)
	t.WaitingCost = Round2(t.WaitingCost)
	return t
}

// WriteJSON writes the report as indented JSON.
func WriteJSON(w io.Writer, r *Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// WriteText renders a plain-text summary for terminals.
func WriteText(w io.Writer, r *Report) error {
	var b strings.Builder
	fmt.Fprintf(&b, "BESS evaluation: %s\n", clientLabel(r.Client))
	fmt.Fprintf(&b, "Date: %s  Strategy: %s\n", r.Date, r.Strategy)
	fmt.Fprintf(&b, "Annual use: %.0f kWh  PV: %.1f kWp  Battery: %.1f kWh  Efficiency: %.0f%%\n\n",
		r.Client.AnnualKWh, r.Client.PVKWp, r.Client.BatteryKWh, r.Efficiency*100)

	tw := tabwriter.NewWriter(&b, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tw, "Cost without battery\t%.2f PLN\t\n", r.Summary.CostNoBattery)
	fmt.Fprintf(tw, "Cost with battery\t%.2f PLN\t\n", r.Summary.CostWithBattery)
	fmt.Fprintf(tw, "Daily saving\t%.2f PLN\t\n", r.Summary.DailyProfit)
	fmt.Fprintf(tw, "Cost of waiting %d months\t%.2f PLN\t\n", r.MonthsDelay, r.Summary.WaitingCost)
	if err := tw.Flush(); err != nil {
		return err
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// WriteTotalsText renders a range rollup.
func WriteTotalsText(w io.Writer, t simulate.Totals, monthsDelay int) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tw, "Period\t%s .. %s (%d days)\t\n", t.From, t.To, t.Days)
	fmt.Fprintf(tw, "Strategy\t%s\t\n", t.Strategy)
	fmt.Fprintf(tw, "Cost without battery\t%.2f PLN\t\n", Round2(t.CostNoBattery))
	fmt.Fprintf(tw, "Cost with battery\t%.2f PLN\t\n", Round2(t.CostWithBattery))
	fmt.Fprintf(tw, "Total saving\t%.2f PLN\t\n", Round2(t.Profit))
	fmt.Fprintf(tw, "Average daily saving\t%.2f PLN\t\n", Round2(t.AvgDailyProfit))
	fmt.Fprintf(tw, "Cost of waiting %d months\t%.2f PLN\t\n", monthsDelay, Round2(t.WaitingCost))
	return tw.Flush()
}

func clientLabel(c model.ClientParams) string {
	if c.City == "" {
		return c.Name
	}
	return c.Name + " (" + c.City + ")"
}
