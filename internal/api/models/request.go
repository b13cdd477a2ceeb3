package models

import "bess-roi/internal/model"

// EvaluateRequest represents the request body for evaluating a client.
// Prices are taken, in order of precedence, from Prices, the
// StartDate..EndDate range, Date, or the latest complete market day.
type EvaluateRequest struct {
	Client       string             `json:"client,omitempty"` // preset name, e.g. "home"
	ClientParams model.ClientParams `json:"client_params,omitempty"`
	Date         string             `json:"date,omitempty"`       // YYYY-MM-DD
	StartDate    string             `json:"start_date,omitempty"` // YYYY-MM-DD
	EndDate      string             `json:"end_date,omitempty"`   // YYYY-MM-DD
	Prices       []float64          `json:"prices,omitempty"`     // 24 values, PLN/MWh
	Scenario     ScenarioOverrides  `json:"scenario,omitempty"`
	Options      EvaluateOptions    `json:"options,omitempty"`
}

// ScenarioOverrides replaces the configured scenario defaults.
type ScenarioOverrides struct {
	Efficiency       *float64        `json:"efficiency,omitempty"`
	DistributionCost *float64        `json:"distribution_cost_pln_kwh,omitempty"`
	MonthsDelay      *int            `json:"months_delay,omitempty"`
	Strategy         *StrategyConfig `json:"strategy,omitempty"`
}

// StrategyConfig defines strategy and its parameters
type StrategyConfig struct {
	Name   string                 `json:"name" binding:"required"`
	Params map[string]interface{} `json:"params,omitempty"`
}

// EvaluateOptions contains optional evaluation parameters
type EvaluateOptions struct {
	IncludeLedger bool `json:"include_ledger,omitempty"` // default: false
}

// CompareRequest represents a request to compare scenario variations on
// the same prices.
type CompareRequest struct {
	Base       EvaluateRequest `json:"base"`
	Variations []Variation     `json:"variations" binding:"required,min=1"`
}

// Variation defines a variation to test
type Variation struct {
	Name         string             `json:"name" binding:"required"`
	ClientParams model.ClientParams `json:"client_params,omitempty"`
	Scenario     ScenarioOverrides  `json:"scenario,omitempty"`
}

// MarketQuery selects a date range of the market dataset.
type MarketQuery struct {
	StartDate  string  `form:"start_date"`
	EndDate    string  `form:"end_date"`
	TopN       int     `form:"top_n"`       // default: 3
	BatteryKWh float64 `form:"battery_kwh"` // default: 10
	Efficiency float64 `form:"efficiency"`  // default: configured scenario efficiency
}

// RankRequest represents a request to rank days
type RankRequest struct {
	MarketQuery
	Limit int `form:"limit,omitempty"` // default: 10
}
