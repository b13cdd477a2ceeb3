package model

import "fmt"

// BatteryParams defines the battery as seen by the daily simulation.
// Units:
// - CapacityKWh: kWh of usable storage
// - Efficiency: 0..1, a single scalar loss factor
//
// There is no power limit, degradation or SOC window; each strategy decides
// on which leg (charge or discharge) the efficiency is applied.
type BatteryParams struct {
	CapacityKWh float64
	Efficiency  float64
}

// Validate accepts a zero capacity, which simply disables the battery.
func (p BatteryParams) Validate() error {
	if p.CapacityKWh < 0 {
		return fmt.Errorf("%w: CapacityKWh must be >= 0, got %v", ErrInvalidArgument, p.CapacityKWh)
	}
	return ValidateEfficiency(p.Efficiency)
}

func ValidateEfficiency(eff float64) error {
	if eff <= 0 || eff > 1 {
		return fmt.Errorf("%w: got %v", ErrInvalidEfficiency, eff)
	}
	return nil
}

// BatteryState carries the running state of charge for chronological
// simulations.
type BatteryState struct {
	// SOCKWh is the stored energy in kWh, bounded by [0, CapacityKWh].
	SOCKWh float64
}

// Battery bundles params + state.
type Battery struct {
	Params BatteryParams
	State  BatteryState
}

func NewBattery(params BatteryParams) (*Battery, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &Battery{Params: params}, nil
}

// Charge stores up to offeredKWh * Efficiency, limited by free capacity.
// It returns the energy taken from the source and the energy stored.
func (b *Battery) Charge(offeredKWh float64) (takenKWh, storedKWh float64) {
	if offeredKWh <= 0 {
		return 0, 0
	}
	free := b.Params.CapacityKWh - b.State.SOCKWh
	if free <= 0 {
		return 0, 0
	}
	storedKWh = offeredKWh * b.Params.Efficiency
	takenKWh = offeredKWh
	if storedKWh > free {
		storedKWh = free
		takenKWh = free / b.Params.Efficiency
	}
	b.State.SOCKWh = clamp(b.State.SOCKWh+storedKWh, 0, b.Params.CapacityKWh)
	return takenKWh, storedKWh
}

// Discharge delivers up to demandKWh from the stored energy.
func (b *Battery) Discharge(demandKWh float64) float64 {
	if demandKWh <= 0 || b.State.SOCKWh <= 0 {
		return 0
	}
	delivered := demandKWh
	if delivered > b.State.SOCKWh {
		delivered = b.State.SOCKWh
	}
	b.State.SOCKWh = clamp(b.State.SOCKWh-delivered, 0, b.Params.CapacityKWh)
	return delivered
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
