package cost

import (
	"errors"
	"testing"

	"bess-roi/internal/model"
	"bess-roi/internal/strategy"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEffectivePrice(t *testing.T) {
	assert.InDelta(t, 0.65, EffectivePrice(200, 0.45), 1e-12)
	assert.InDelta(t, 0.45, EffectivePrice(0, 0.45), 1e-12)
	assert.InDelta(t, -0.05, EffectivePrice(-500, 0.45), 1e-12)
}

func TestEvaluateCostFlatDay(t *testing.T) {
	total, err := EvaluateCost(model.Constant(1.0), model.Constant(200), 0.45)
	require.NoError(t, err)
	assert.InDelta(t, 15.6, total, 1e-9)
}

func TestEvaluateCostIsRepeatable(t *testing.T) {
	energy := model.Zero()
	prices := model.Zero()
	for h := range energy {
		energy[h] = float64(h) * 0.37
		prices[h] = 150 + float64(h*h)
	}
	a, err := EvaluateCost(energy, prices, 0.52)
	require.NoError(t, err)
	b, err := EvaluateCost(energy, prices, 0.52)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestEvaluateCostErrors(t *testing.T) {
	tests := []struct {
		name   string
		energy model.HourlySeries
		prices model.HourlySeries
		dist   float64
		want   error
	}{
		{"empty energy", model.HourlySeries{}, model.Constant(1), 0.45, model.ErrEmptySeries},
		{"nil prices", model.Constant(1), nil, 0.45, model.ErrEmptySeries},
		{"length mismatch", model.Constant(1), model.HourlySeries{1, 2, 3}, 0.45, model.ErrShapeMismatch},
		{"negative distribution", model.Constant(1), model.Constant(1), -0.01, model.ErrInvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := EvaluateCost(tt.energy, tt.prices, tt.dist)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestProjectWaitingCost(t *testing.T) {
	got, err := ProjectWaitingCost(10, 6)
	require.NoError(t, err)
	assert.InDelta(t, 1800, got, 1e-9)

	got, err = ProjectWaitingCost(12.5, 0)
	require.NoError(t, err)
	assert.Zero(t, got)

	_, err = ProjectWaitingCost(10, -1)
	assert.ErrorIs(t, err, model.ErrInvalidArgument)
}

func TestArbitrageProfitMatchesLegFormula(t *testing.T) {
	prices := model.Constant(300)
	prices[2], prices[3], prices[4] = 100, 110, 120
	prices[18], prices[19], prices[20] = 800, 900, 700

	alloc, err := strategy.AllocateArbitrage(prices, model.Zero(), 9, 0.9, 3)
	require.NoError(t, err)

	profit, err := ArbitrageProfit(alloc, prices, 0.45)
	require.NoError(t, err)

	// 3 kWh per hour: paid at cheap hours, credited at price*0.9 at peak hours.
	paid := 3 * (EffectivePrice(100, 0.45) + EffectivePrice(110, 0.45) + EffectivePrice(120, 0.45))
	earned := 3 * 0.9 * (EffectivePrice(800, 0.45) + EffectivePrice(900, 0.45) + EffectivePrice(700, 0.45))
	assert.InDelta(t, earned-paid, profit, 1e-9)
}
