// Package simulate runs the evaluation pipeline for a client: energy
// balance, battery dispatch, costing with and without the battery and the
// waiting-cost projection, for one day or a range of days.
package simulate

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"bess-roi/internal/balance"
	"bess-roi/internal/cost"
	"bess-roi/internal/model"
	"bess-roi/internal/strategy"
)

// DefaultWorkers bounds RunRange when no limit is given.
const DefaultWorkers = 4

type Engine struct {
	DistributionPerKWh float64
	MonthsDelay        int
	Workers            int

	logger *slog.Logger
}

func New(distributionPerKWh float64, monthsDelay int) *Engine {
	return &Engine{
		DistributionPerKWh: distributionPerKWh,
		MonthsDelay:        monthsDelay,
		Workers:            DefaultWorkers,
		logger:             slog.Default().With(slog.String("module", "simulate")),
	}
}

func (e *Engine) SetLogger(logger *slog.Logger) {
	e.logger = logger
}

// RunDay evaluates one day. The no-battery cost is the cost of the grid draw
// left after PV self-consumption. For strategies that buy from the grid
// (arbitrage) the with-battery cost is the no-battery cost less the
// arbitrage profit; otherwise it is the cost of the battery-adjusted draw.
func (e *Engine) RunDay(in model.DayInputs, batt model.BatteryParams, strat strategy.Strategy) (*DayResult, error) {
	if strat == nil {
		return nil, fmt.Errorf("%w: strategy is nil", model.ErrInvalidArgument)
	}
	if err := in.Prices.ValidatePrices(); err != nil {
		return nil, fmt.Errorf("%s prices: %w", in.Date, err)
	}

	bal, err := balance.ComputeBalance(in.Consumption, in.PV)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", in.Date, err)
	}

	alloc, err := strat.Allocate(strategy.Context{
		Balance: bal,
		Prices:  in.Prices,
		Battery: batt,
	})
	if err != nil {
		return nil, fmt.Errorf("%s allocate: %w", in.Date, err)
	}

	costNo, err := cost.EvaluateCost(bal.RemainingConsumption, in.Prices, e.DistributionPerKWh)
	if err != nil {
		return nil, fmt.Errorf("%s cost without battery: %w", in.Date, err)
	}

	var costWith float64
	if alloc.GridCharge.Sum() > 0 {
		profit, err := cost.ArbitrageProfit(alloc, in.Prices, e.DistributionPerKWh)
		if err != nil {
			return nil, fmt.Errorf("%s arbitrage profit: %w", in.Date, err)
		}
		costWith = costNo - profit
	} else {
		costWith, err = cost.EvaluateCost(alloc.GridWithBattery, in.Prices, e.DistributionPerKWh)
		if err != nil {
			return nil, fmt.Errorf("%s cost with battery: %w", in.Date, err)
		}
	}

	profit := costNo - costWith
	waiting, err := cost.ProjectWaitingCost(profit, e.MonthsDelay)
	if err != nil {
		return nil, err
	}

	return &DayResult{
		Date:            in.Date,
		Strategy:        alloc.Strategy,
		Inputs:          in,
		Balance:         bal,
		Allocation:      alloc,
		CostNoBattery:   costNo,
		CostWithBattery: costWith,
		DailyProfit:     profit,
		WaitingCost:     waiting,
		Ledger:          e.ledger(in, bal, alloc),
	}, nil
}

func (e *Engine) ledger(in model.DayInputs, bal balance.Result, alloc strategy.Allocation) []LedgerRow {
	rows := make([]LedgerRow, 0, model.HoursPerDay)
	gridCharging := alloc.GridCharge.Sum() > 0
	cum := 0.0
	for h := 0; h < model.HoursPerDay; h++ {
		price := cost.EffectivePrice(in.Prices[h], e.DistributionPerKWh)
		costNo := bal.RemainingConsumption[h] * price
		// Grid-charging hours are priced like RunDay prices the day: the
		// saving is what was delivered less what was bought.
		costWith := alloc.GridWithBattery[h] * price
		if gridCharging {
			costWith = costNo - (alloc.Delivered[h]-alloc.GridCharge[h])*price
		}
		cum += costNo - costWith

		row := LedgerRow{
			Date:           in.Date,
			Hour:           h,
			PricePLNPerMWh: in.Prices[h],
			EffectivePrice: price,

			Consumption:  in.Consumption[h],
			PV:           in.PV[h],
			SelfConsumed: bal.SelfConsumed[h],
			Excess:       bal.PVExcess[h],
			Remaining:    bal.RemainingConsumption[h],

			Action: model.ActionFromFlowKWh(alloc.Charge[h], alloc.Delivered[h]),

			Charge:     alloc.Charge[h],
			GridCharge: alloc.GridCharge[h],
			Delivered:  alloc.Delivered[h],
			GridDraw:   alloc.GridWithBattery[h],

			CostNoBattery:   costNo,
			CostWithBattery: costWith,
			CumSaving:       cum,
		}
		if len(alloc.SOC) == model.HoursPerDay {
			row.SOC = alloc.SOC[h]
		}
		rows = append(rows, row)
	}
	return rows
}

// RunRange evaluates days concurrently and returns results in input order.
// The first failure cancels the remaining days and no partial result is
// returned.
func (e *Engine) RunRange(ctx context.Context, days []model.DayInputs, batt model.BatteryParams, strat strategy.Strategy) ([]*DayResult, error) {
	if len(days) == 0 {
		return nil, fmt.Errorf("run range: %w", model.ErrEmptySeries)
	}

	results := make([]*DayResult, len(days))
	g, ctx := errgroup.WithContext(ctx)
	workers := e.Workers
	if workers < 1 {
		workers = DefaultWorkers
	}
	g.SetLimit(workers)

	for i, in := range days {
		i, in := i, in
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			r, err := e.RunDay(in, batt, strat)
			if err != nil {
				return err
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	e.logger.Debug("evaluated range",
		slog.Int("days", len(results)),
		slog.String("from", results[0].Date),
		slog.String("to", results[len(results)-1].Date))
	return results, nil
}

// Rollup sums a range; the waiting cost is projected from the average
// daily profit.
func Rollup(results []*DayResult, monthsDelay int) (Totals, error) {
	if len(results) == 0 {
		return Totals{}, fmt.Errorf("rollup: %w", model.ErrEmptySeries)
	}
	t := Totals{
		Strategy: results[0].Strategy,
		From:     results[0].Date,
		To:       results[0].Date,
		Days:     len(results),
	}
	for _, r := range results {
		t.CostNoBattery += r.CostNoBattery
		t.CostWithBattery += r.CostWithBattery
		t.Profit += r.DailyProfit
		if r.Date < t.From {
			t.From = r.Date
		}
		if r.Date > t.To {
			t.To = r.Date
		}
	}
	t.AvgDailyProfit = t.Profit / float64(t.Days)

	waiting, err := cost.ProjectWaitingCost(t.AvgDailyProfit, monthsDelay)
	if err != nil {
		return Totals{}, err
	}
	t.WaitingCost = waiting
	return t, nil
}
