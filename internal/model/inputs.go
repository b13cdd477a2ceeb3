package model

import "fmt"

// ClientParams describes one prospect: where they are, how much they use
// and what installation is being considered.
type ClientParams struct {
	Name       string  `json:"name" yaml:"name"`
	City       string  `json:"city" yaml:"city"`
	AnnualKWh  float64 `json:"annual_kwh" yaml:"annual_kwh"`
	PVKWp      float64 `json:"pv_kwp" yaml:"pv_kwp"`
	BatteryKWh float64 `json:"battery_kwh" yaml:"battery_kwh"`
	Profile    string  `json:"profile" yaml:"profile"`
}

func (c ClientParams) Validate() error {
	if c.AnnualKWh < 0 {
		return fmt.Errorf("%w: annual_kwh must be >= 0", ErrInvalidArgument)
	}
	if c.PVKWp < 0 {
		return fmt.Errorf("%w: pv_kwp must be >= 0", ErrInvalidArgument)
	}
	if c.BatteryKWh <= 0 {
		return fmt.Errorf("%w: battery_kwh must be > 0", ErrInvalidArgument)
	}
	return nil
}

// DayInputs is everything the core needs to evaluate one day for one client.
type DayInputs struct {
	Date        string
	Consumption HourlySeries
	PV          HourlySeries
	Prices      HourlySeries
}
