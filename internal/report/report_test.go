package report

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bess-roi/internal/model"
	"bess-roi/internal/simulate"
	"bess-roi/internal/strategy"
)

func evaluate(t *testing.T) *simulate.DayResult {
	t.Helper()
	pv := model.Zero()
	copy(pv[10:15], []float64{3.0, 3.5, 3.7, 3.5, 3.0})
	in := model.DayInputs{
		Date:        "2025-06-01",
		Consumption: model.Constant(1),
		PV:          pv,
		Prices:      model.Constant(412.345),
	}
	res, err := simulate.New(0.45, 6).RunDay(in, model.BatteryParams{CapacityKWh: 10, Efficiency: 0.9}, strategy.Proportional{})
	require.NoError(t, err)
	return res
}

var homeClient = model.ClientParams{Name: "home", City: "Warsaw", AnnualKWh: 4200, PVKWp: 6, BatteryKWh: 10}

func TestRound2(t *testing.T) {
	assert.Equal(t, 0.13, Round2(0.125))
	assert.Equal(t, -0.13, Round2(-0.125))
	assert.Equal(t, 1.24, Round2(1.2361))
	assert.Equal(t, 15.6, Round2(15.6))
}

func TestBuild_RoundsOnlySummary(t *testing.T) {
	res := evaluate(t)
	r, err := Build(homeClient, 0.9, 6, res)
	require.NoError(t, err)

	assert.Equal(t, Round2(res.CostNoBattery), r.Summary.CostNoBattery)
	assert.Equal(t, Round2(res.DailyProfit), r.Summary.DailyProfit)
	assert.Equal(t, Round2(res.WaitingCost), r.Summary.WaitingCost)
	assert.Equal(t, res.Allocation.Delivered, r.Charts.Delivered)
	assert.Equal(t, "2025-06-01", r.Date)
	assert.Equal(t, strategy.ProportionalName, r.Strategy)
	assert.Nil(t, r.Charts.SOC)

	_, err = Build(homeClient, 0.9, 6, nil)
	assert.ErrorIs(t, err, model.ErrInvalidArgument)
}

func TestWriteText(t *testing.T) {
	r, err := Build(homeClient, 0.9, 6, evaluate(t))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf, r))
	out := buf.String()
	assert.Contains(t, out, "home (Warsaw)")
	assert.Contains(t, out, "Cost of waiting 6 months")
	assert.Contains(t, out, "Efficiency: 90%")
}

func TestWriteJSON(t *testing.T) {
	r, err := Build(homeClient, 0.9, 6, evaluate(t))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, r))
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	summary := decoded["summary"].(map[string]any)
	assert.Equal(t, r.Summary.DailyProfit, summary["daily_profit_pln"])
	charts := decoded["charts"].(map[string]any)
	assert.NotContains(t, charts, "soc_kwh")
}

func TestWriteTotalsText(t *testing.T) {
	totals, err := simulate.Rollup([]*simulate.DayResult{evaluate(t)}, 6)
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, WriteTotalsText(&buf, totals, 6))
	assert.Contains(t, buf.String(), "2025-06-01 .. 2025-06-01 (1 days)")
}
