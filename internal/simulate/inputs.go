package simulate

import (
	"fmt"

	"bess-roi/internal/model"
	"bess-roi/internal/profile"
)

// Profiles supplies the consumption and PV series for a client.
type Profiles struct {
	Table        *profile.Table
	PVShape      model.HourlySeries
	KWhPerKWpDay float64
}

// DefaultProfiles serves the flat consumption profile and the default PV shape.
func DefaultProfiles() Profiles {
	return Profiles{
		PVShape:      profile.DefaultPVShape(),
		KWhPerKWpDay: profile.DefaultKWhPerKWpDay,
	}
}

// Inputs assembles one day for a client from its profile and the day's
// prices.
func (p Profiles) Inputs(client model.ClientParams, day model.DayPrices) (model.DayInputs, error) {
	if err := client.Validate(); err != nil {
		return model.DayInputs{}, fmt.Errorf("client %s: %w", client.Name, err)
	}
	name := client.Profile
	if name == "" {
		name = profile.FlatProfile
	}
	consumption, err := p.Table.Consumption(name, client.AnnualKWh)
	if err != nil {
		return model.DayInputs{}, fmt.Errorf("client %s: %w", client.Name, err)
	}
	shape := p.PVShape
	if shape == nil {
		shape = profile.DefaultPVShape()
	}
	pv, err := profile.PVGeneration(shape, client.PVKWp, p.KWhPerKWpDay)
	if err != nil {
		return model.DayInputs{}, fmt.Errorf("client %s: %w", client.Name, err)
	}
	return model.DayInputs{
		Date:        day.Date,
		Consumption: consumption,
		PV:          pv,
		Prices:      day.Prices,
	}, nil
}

// InputsForDays builds one DayInputs per day.
func (p Profiles) InputsForDays(client model.ClientParams, days []model.DayPrices) ([]model.DayInputs, error) {
	out := make([]model.DayInputs, 0, len(days))
	for _, d := range days {
		in, err := p.Inputs(client, d)
		if err != nil {
			return nil, err
		}
		out = append(out, in)
	}
	return out, nil
}
