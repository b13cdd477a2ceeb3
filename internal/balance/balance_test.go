package balance

import (
	"testing"

	"bess-roi/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func middayPV() model.HourlySeries {
	pv := model.Zero()
	copy(pv[10:15], []float64{3.0, 3.5, 3.7, 3.5, 3.0})
	return pv
}

func TestComputeBalanceMiddaySurplus(t *testing.T) {
	res, err := ComputeBalance(model.Constant(1.0), middayPV())
	require.NoError(t, err)

	for h := 10; h <= 14; h++ {
		assert.Equal(t, 1.0, res.SelfConsumed[h], "hour %d", h)
		assert.Zero(t, res.RemainingConsumption[h], "hour %d", h)
	}
	assert.InDeltaSlice(t, []float64{2, 2.5, 2.7, 2.5, 2}, []float64(res.PVExcess[10:15]), 1e-12)
	assert.InDelta(t, 11.7, res.PVExcess.Sum(), 1e-9)
	assert.InDelta(t, 19.0, res.RemainingConsumption.Sum(), 1e-9)
}

func TestComputeBalanceConservation(t *testing.T) {
	cons := model.Zero()
	pv := model.Zero()
	for h := range cons {
		cons[h] = 0.2 + float64(h%7)*0.31
		pv[h] = float64((h*5)%11) * 0.27
	}
	res, err := ComputeBalance(cons, pv)
	require.NoError(t, err)

	for h := 0; h < model.HoursPerDay; h++ {
		assert.Equal(t, min(cons[h], pv[h]), res.SelfConsumed[h])
		assert.InDelta(t, cons[h], res.RemainingConsumption[h]+res.SelfConsumed[h], 1e-12)
		assert.InDelta(t, pv[h], res.PVExcess[h]+res.SelfConsumed[h], 1e-12)
		assert.False(t, res.RemainingConsumption[h] > 0 && res.PVExcess[h] > 0, "hour %d has both deficit and surplus", h)
	}
}

func TestComputeBalanceNoPV(t *testing.T) {
	cons := model.Constant(0.6)
	res, err := ComputeBalance(cons, model.Zero())
	require.NoError(t, err)

	assert.Equal(t, cons, res.RemainingConsumption)
	assert.Zero(t, res.SelfConsumed.Sum())
	assert.Zero(t, res.PVExcess.Sum())
}

func TestComputeBalanceRejectsBadShape(t *testing.T) {
	_, err := ComputeBalance(model.HourlySeries{1, 2}, model.Zero())
	assert.ErrorIs(t, err, model.ErrShapeMismatch)

	_, err = ComputeBalance(model.Zero(), make(model.HourlySeries, 25))
	assert.ErrorIs(t, err, model.ErrShapeMismatch)
}
