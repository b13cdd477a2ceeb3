package model

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHourlySeriesValidate(t *testing.T) {
	require.NoError(t, Constant(1).Validate())
	require.NoError(t, Zero().Validate())

	assert.ErrorIs(t, HourlySeries{1, 2, 3}.Validate(), ErrShapeMismatch)
	assert.ErrorIs(t, HourlySeries(nil).Validate(), ErrShapeMismatch)

	neg := Constant(1)
	neg[5] = -0.1
	assert.ErrorIs(t, neg.Validate(), ErrInvalidArgument)

	nan := Constant(1)
	nan[0] = math.NaN()
	assert.ErrorIs(t, nan.Validate(), ErrInvalidArgument)
}

func TestHourlySeriesValidatePricesAllowsNegative(t *testing.T) {
	p := Constant(300)
	p[13] = -42
	require.NoError(t, p.ValidatePrices())
	assert.ErrorIs(t, HourlySeries{1}.ValidatePrices(), ErrShapeMismatch)
}

func TestHourlySeriesHelpers(t *testing.T) {
	s := Constant(0.5)
	assert.InDelta(t, 12.0, s.Sum(), 1e-12)

	c := s.Clone()
	c[0] = 9
	assert.Equal(t, 0.5, s[0])

	assert.InDelta(t, 24.0, s.Scale(2).Sum(), 1e-12)
}

func TestBatteryParamsValidate(t *testing.T) {
	require.NoError(t, BatteryParams{CapacityKWh: 10, Efficiency: 0.9}.Validate())
	require.NoError(t, BatteryParams{CapacityKWh: 0, Efficiency: 1}.Validate())
	assert.ErrorIs(t, BatteryParams{CapacityKWh: -1, Efficiency: 0.9}.Validate(), ErrInvalidArgument)
	assert.ErrorIs(t, BatteryParams{CapacityKWh: 10, Efficiency: 0}.Validate(), ErrInvalidEfficiency)
	assert.ErrorIs(t, BatteryParams{CapacityKWh: 10, Efficiency: 1.01}.Validate(), ErrInvalidEfficiency)
}

func TestBatteryChargeDischargeStaysInBounds(t *testing.T) {
	b, err := NewBattery(BatteryParams{CapacityKWh: 5, Efficiency: 0.8})
	require.NoError(t, err)

	taken, stored := b.Charge(2)
	assert.InDelta(t, 2.0, taken, 1e-12)
	assert.InDelta(t, 1.6, stored, 1e-12)

	// Only 3.4 kWh of room left; 4.25 kWh of surplus fills it.
	taken, stored = b.Charge(10)
	assert.InDelta(t, 3.4/0.8, taken, 1e-12)
	assert.InDelta(t, 3.4, stored, 1e-12)
	assert.InDelta(t, 5.0, b.State.SOCKWh, 1e-12)

	taken, stored = b.Charge(1)
	assert.Zero(t, taken)
	assert.Zero(t, stored)

	assert.InDelta(t, 4.0, b.Discharge(4), 1e-12)
	assert.InDelta(t, 1.0, b.Discharge(4), 1e-12)
	assert.Zero(t, b.Discharge(1))
	assert.Zero(t, b.State.SOCKWh)
}

func TestActionFromFlowKWh(t *testing.T) {
	assert.Equal(t, ActionCharging, ActionFromFlowKWh(1, 0))
	assert.Equal(t, ActionCharging, ActionFromFlowKWh(1, 1))
	assert.Equal(t, ActionDischarging, ActionFromFlowKWh(0, 0.2))
	assert.Equal(t, ActionIdle, ActionFromFlowKWh(0, 0))
}

func TestClientParamsValidate(t *testing.T) {
	c := ClientParams{City: "Warsaw", AnnualKWh: 4200, PVKWp: 6, BatteryKWh: 10, Profile: "flat"}
	require.NoError(t, c.Validate())

	c.BatteryKWh = 0
	assert.ErrorIs(t, c.Validate(), ErrInvalidArgument)
}

func TestDates(t *testing.T) {
	rows := []MarketRow{
		{PricePoint: PricePoint{Date: "2025-01-02"}},
		{PricePoint: PricePoint{Date: "2025-01-01"}},
		{PricePoint: PricePoint{Date: "2025-01-02"}},
	}
	assert.Equal(t, []string{"2025-01-01", "2025-01-02"}, Dates(rows))
}
