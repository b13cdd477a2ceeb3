package simulate

import (
	"bytes"
	"context"
	"encoding/csv"
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bess-roi/internal/model"
	"bess-roi/internal/strategy"
)

var testBattery = model.BatteryParams{CapacityKWh: 10, Efficiency: 0.9}

func middayInputs(date string) model.DayInputs {
	pv := model.Zero()
	copy(pv[10:15], []float64{3.0, 3.5, 3.7, 3.5, 3.0})
	return model.DayInputs{
		Date:        date,
		Consumption: model.Constant(1),
		PV:          pv,
		Prices:      model.Constant(400),
	}
}

func rampInputs(date string) model.DayInputs {
	prices := model.Zero()
	for h := range prices {
		prices[h] = float64(h) * 10
	}
	return model.DayInputs{
		Date:        date,
		Consumption: model.Constant(1),
		PV:          model.Zero(),
		Prices:      prices,
	}
}

func TestRunDay_Proportional(t *testing.T) {
	e := New(0.45, 6)
	res, err := e.RunDay(middayInputs("2025-06-01"), testBattery, strategy.Proportional{})
	require.NoError(t, err)

	// 19 deficit hours of 1 kWh at 0.85 PLN/kWh; the battery covers 10 kWh.
	assert.InDelta(t, 16.15, res.CostNoBattery, 1e-9)
	assert.InDelta(t, 7.65, res.CostWithBattery, 1e-9)
	assert.InDelta(t, 8.5, res.DailyProfit, 1e-9)
	assert.InDelta(t, 1530.0, res.WaitingCost, 1e-9)
	assert.Equal(t, strategy.ProportionalName, res.Strategy)

	require.Len(t, res.Ledger, 24)
	assert.Equal(t, model.ActionCharging, res.Ledger[12].Action)
	assert.Equal(t, model.ActionDischarging, res.Ledger[20].Action)
	assert.InDelta(t, res.DailyProfit, res.Ledger[23].CumSaving, 1e-9)
}

func TestRunDay_ArbitrageUsesProfit(t *testing.T) {
	e := New(0.45, 6)
	res, err := e.RunDay(rampInputs("2025-06-01"), testBattery, strategy.Arbitrage{TopK: 3})
	require.NoError(t, err)

	// Effective price 0.45 + 0.01*h.
	assert.InDelta(t, 13.56, res.CostNoBattery, 1e-9)
	// Delivered 3 kWh at hours 21..23 minus 10/3 kWh bought at hours 0..2.
	assert.InDelta(t, 6.03-4.6, res.DailyProfit, 1e-9)
	assert.InDelta(t, res.CostNoBattery-res.DailyProfit, res.CostWithBattery, 1e-9)
	assert.Equal(t, model.ActionCharging, res.Ledger[0].Action)
	assert.Equal(t, model.ActionDischarging, res.Ledger[23].Action)
	assert.Equal(t, model.ActionIdle, res.Ledger[12].Action)
}

func TestRunDay_ChronologicalRecordsSOC(t *testing.T) {
	e := New(0.45, 0)
	res, err := e.RunDay(middayInputs("2025-06-01"), testBattery, strategy.Chronological{})
	require.NoError(t, err)
	assert.Zero(t, res.WaitingCost)
	for _, row := range res.Ledger {
		assert.GreaterOrEqual(t, row.SOC, 0.0)
		assert.LessOrEqual(t, row.SOC, testBattery.CapacityKWh+1e-9)
	}
	assert.Greater(t, res.Ledger[14].SOC, 0.0)
}

func TestRunDay_NoPVNoGain(t *testing.T) {
	in := middayInputs("2025-06-01")
	in.PV = model.Zero()
	res, err := New(0.45, 6).RunDay(in, testBattery, strategy.Proportional{})
	require.NoError(t, err)
	assert.InDelta(t, res.CostNoBattery, res.CostWithBattery, 1e-12)
	assert.Zero(t, res.DailyProfit)
}

func TestRunDay_Errors(t *testing.T) {
	e := New(0.45, 6)

	_, err := e.RunDay(middayInputs("d"), testBattery, nil)
	assert.ErrorIs(t, err, model.ErrInvalidArgument)

	bad := middayInputs("d")
	bad.Prices = bad.Prices[:23]
	_, err = e.RunDay(bad, testBattery, strategy.Proportional{})
	assert.ErrorIs(t, err, model.ErrShapeMismatch)

	bad = middayInputs("d")
	bad.Prices[3] = math.NaN()
	_, err = e.RunDay(bad, testBattery, strategy.Proportional{})
	assert.ErrorIs(t, err, model.ErrInvalidArgument)

	_, err = e.RunDay(middayInputs("d"), model.BatteryParams{CapacityKWh: 10, Efficiency: 0}, strategy.Proportional{})
	assert.ErrorIs(t, err, model.ErrInvalidEfficiency)

	_, err = New(-1, 6).RunDay(middayInputs("d"), testBattery, strategy.Proportional{})
	assert.ErrorIs(t, err, model.ErrInvalidArgument)

	_, err = New(0.45, -1).RunDay(middayInputs("d"), testBattery, strategy.Proportional{})
	assert.ErrorIs(t, err, model.ErrInvalidArgument)
}

func TestRunRange_OrderAndRollup(t *testing.T) {
	e := New(0.45, 6)
	e.Workers = 2
	days := []model.DayInputs{
		middayInputs("2025-06-01"),
		middayInputs("2025-06-02"),
		middayInputs("2025-06-03"),
		middayInputs("2025-06-04"),
		middayInputs("2025-06-05"),
	}
	results, err := e.RunRange(context.Background(), days, testBattery, strategy.Proportional{})
	require.NoError(t, err)
	require.Len(t, results, 5)
	for i, r := range results {
		assert.Equal(t, days[i].Date, r.Date)
	}

	totals, err := Rollup(results, 6)
	require.NoError(t, err)
	assert.Equal(t, 5, totals.Days)
	assert.Equal(t, "2025-06-01", totals.From)
	assert.Equal(t, "2025-06-05", totals.To)
	assert.InDelta(t, 42.5, totals.Profit, 1e-9)
	assert.InDelta(t, 8.5, totals.AvgDailyProfit, 1e-9)
	assert.InDelta(t, 1530.0, totals.WaitingCost, 1e-9)
	assert.InDelta(t, totals.CostNoBattery-totals.CostWithBattery, totals.Profit, 1e-9)
}

func TestRunRange_FailsWhole(t *testing.T) {
	bad := middayInputs("2025-06-02")
	bad.Prices = nil
	days := []model.DayInputs{middayInputs("2025-06-01"), bad, middayInputs("2025-06-03")}

	results, err := New(0.45, 6).RunRange(context.Background(), days, testBattery, strategy.Proportional{})
	assert.ErrorIs(t, err, model.ErrShapeMismatch)
	assert.Nil(t, results)

	_, err = New(0.45, 6).RunRange(context.Background(), nil, testBattery, strategy.Proportional{})
	assert.ErrorIs(t, err, model.ErrEmptySeries)

	_, err = Rollup(nil, 6)
	assert.ErrorIs(t, err, model.ErrEmptySeries)
}

func TestRunRange_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(0.45, 6).RunRange(ctx, []model.DayInputs{middayInputs("d")}, testBattery, strategy.Proportional{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestProfilesInputs(t *testing.T) {
	client := model.ClientParams{Name: "home", AnnualKWh: 4200, PVKWp: 6, BatteryKWh: 10}
	day := model.DayPrices{Date: "2025-06-01", Prices: model.Constant(400)}

	in, err := DefaultProfiles().Inputs(client, day)
	require.NoError(t, err)
	assert.Equal(t, "2025-06-01", in.Date)
	assert.InDelta(t, 4200.0/365/24, in.Consumption[0], 1e-12)
	// Default shape sums to 2.46.
	assert.InDelta(t, 2.46*6*3, in.PV.Sum(), 1e-9)

	client.Profile = "office"
	_, err = DefaultProfiles().Inputs(client, day)
	assert.Error(t, err)

	client.Profile = ""
	client.BatteryKWh = 0
	_, err = DefaultProfiles().Inputs(client, day)
	assert.ErrorIs(t, err, model.ErrInvalidArgument)

	client.BatteryKWh = 10
	days, err := DefaultProfiles().InputsForDays(client, []model.DayPrices{day, day})
	require.NoError(t, err)
	assert.Len(t, days, 2)
}

func TestWriteLedger(t *testing.T) {
	res, err := New(0.45, 6).RunDay(middayInputs("2025-06-01"), testBattery, strategy.Proportional{})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteLedger(&buf, res.Ledger))
	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 25)
	assert.Equal(t, ledgerHeader, records[0])
	assert.Equal(t, "2025-06-01", records[1][0])
	assert.Equal(t, "CHARGING", records[13][9])

	path := filepath.Join(t.TempDir(), "ledger.csv")
	require.NoError(t, WriteLedgerCSV(path, res.Ledger))
}

func TestRunDay_LedgerMatchesDailyProfit(t *testing.T) {
	prices := model.Constant(400)
	for _, h := range []int{1, 2, 3} {
		prices[h] = 100
	}
	for _, h := range []int{18, 19, 20} {
		prices[h] = 900
	}
	pv := model.Zero()
	copy(pv[10:14], []float64{1.5, 2, 2, 1.5})
	in := model.DayInputs{
		Date:        "2025-06-01",
		Consumption: model.Constant(0.1),
		PV:          pv,
		Prices:      prices,
	}
	batt := model.BatteryParams{CapacityKWh: 9, Efficiency: 0.9}

	for _, strat := range []strategy.Strategy{
		strategy.Proportional{},
		strategy.Arbitrage{TopK: 3},
		strategy.Chronological{},
	} {
		t.Run(strat.Name(), func(t *testing.T) {
			res, err := New(0.45, 6).RunDay(in, batt, strat)
			require.NoError(t, err)
			require.Len(t, res.Ledger, 24)

			sumNo, sumWith := 0.0, 0.0
			for _, r := range res.Ledger {
				sumNo += r.CostNoBattery
				sumWith += r.CostWithBattery
			}
			assert.InDelta(t, res.DailyProfit, res.Ledger[23].CumSaving, 1e-9)
			assert.InDelta(t, res.CostNoBattery, sumNo, 1e-9)
			assert.InDelta(t, res.CostWithBattery, sumWith, 1e-9)
		})
	}

	// 3 kWh bought at 0.55 PLN/kWh in each of hours 1-3, 2.7 kWh delivered
	// at 1.35 PLN/kWh in each of hours 18-20.
	res, err := New(0.45, 6).RunDay(in, batt, strategy.Arbitrage{TopK: 3})
	require.NoError(t, err)
	assert.InDelta(t, 5.985, res.DailyProfit, 1e-9)
	assert.InDelta(t, -1.65, res.Ledger[1].CumSaving, 1e-9)
}
