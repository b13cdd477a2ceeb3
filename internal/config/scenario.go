package config

import (
	"fmt"
	"math"

	"bess-roi/internal/model"
	"bess-roi/internal/profile"
	"bess-roi/internal/simulate"
	"bess-roi/internal/strategy"
)

// ScenarioConfig is one fully resolved evaluation request.
type ScenarioConfig struct {
	Client           model.ClientParams `yaml:"client" json:"client"`
	Efficiency       float64            `yaml:"efficiency" json:"efficiency"`
	DistributionCost float64            `yaml:"distribution_cost_pln_kwh" json:"distribution_cost_pln_kwh"`
	MonthsDelay      int                `yaml:"months_delay" json:"months_delay"`
	Strategy         StrategyConfig     `yaml:"strategy" json:"strategy"`
}

// ScenarioFor combines a client with the configured scenario defaults.
func (c *AppConfig) ScenarioFor(client model.ClientParams) ScenarioConfig {
	return ScenarioConfig{
		Client:           client,
		Efficiency:       c.Scenario.GetEfficiency(),
		DistributionCost: c.Scenario.GetDistributionCost(),
		MonthsDelay:      c.Scenario.GetMonthsDelay(),
		Strategy:         c.Scenario.Strategy,
	}
}

func (s ScenarioConfig) Validate() error {
	if err := s.Client.Validate(); err != nil {
		return err
	}
	if err := model.ValidateEfficiency(s.Efficiency); err != nil {
		return fmt.Errorf("efficiency: %w", err)
	}
	if s.DistributionCost < 0 || math.IsNaN(s.DistributionCost) {
		return fmt.Errorf("%w: distribution_cost_pln_kwh must be >= 0", model.ErrInvalidArgument)
	}
	if s.MonthsDelay < 0 {
		return fmt.Errorf("%w: months_delay must be >= 0", model.ErrInvalidArgument)
	}
	if _, err := s.BuildStrategy(); err != nil {
		return err
	}
	return nil
}

func (s ScenarioConfig) Battery() model.BatteryParams {
	return model.BatteryParams{
		CapacityKWh: s.Client.BatteryKWh,
		Efficiency:  s.Efficiency,
	}
}

func (s ScenarioConfig) BuildStrategy() (strategy.Strategy, error) {
	strat, err := strategy.New(s.Strategy.Name, s.Strategy.Params)
	if err != nil {
		return nil, fmt.Errorf("strategy config invalid: %w", err)
	}
	return strat, nil
}

// Engine returns a simulation engine for the scenario's tariff and delay.
func (s ScenarioConfig) Engine() *simulate.Engine {
	return simulate.New(s.DistributionCost, s.MonthsDelay)
}

// ProfileTable loads scenario.profiles_file. Without one only the flat
// profile is available.
func (c *AppConfig) ProfileTable() (*profile.Table, error) {
	if c.Scenario.ProfilesFile == "" {
		return nil, nil
	}
	t, err := profile.LoadTable(c.Scenario.ProfilesFile)
	if err != nil {
		return nil, fmt.Errorf("load profiles %s: %w", c.Scenario.ProfilesFile, err)
	}
	return t, nil
}

// DayInputs builds the hourly inputs of client for one day of prices using
// the configured PV settings.
func (c *AppConfig) DayInputs(table *profile.Table, client model.ClientParams, day model.DayPrices) (model.DayInputs, error) {
	shape, err := c.PV.ShapeFor(day.Date)
	if err != nil {
		return model.DayInputs{}, err
	}
	p := simulate.Profiles{
		Table:        table,
		PVShape:      shape,
		KWhPerKWpDay: c.PV.GetKWhPerKWpDay(),
	}
	return p.Inputs(client, day)
}
