package models

import (
	"bess-roi/internal/analysis"
	"bess-roi/internal/model"
	"bess-roi/internal/report"
	"bess-roi/internal/simulate"
)

// EvaluateResponse represents the response from an evaluation. A single
// day fills Report; a date range fills Totals and Days.
type EvaluateResponse struct {
	Status string               `json:"status"`
	Report *report.Report       `json:"report,omitempty"`
	Totals *simulate.Totals     `json:"totals,omitempty"`
	Days   []DaySummary         `json:"days,omitempty"`
	Ledger []simulate.LedgerRow `json:"ledger,omitempty"`
}

// DaySummary is one day of a range evaluation.
type DaySummary struct {
	Date string `json:"date"`
	report.Summary
}

// CompareResponse represents the response from a comparison
type CompareResponse struct {
	Date       string             `json:"date"`
	Comparison []ComparisonResult `json:"comparison"`
}

// ComparisonResult contains results for one variation
type ComparisonResult struct {
	Name     string             `json:"name"`
	Client   model.ClientParams `json:"client"`
	Strategy string             `json:"strategy,omitempty"`
	Summary  report.Summary     `json:"summary"`
	Error    *ErrorDetail       `json:"error,omitempty"`
}

// ClientInfo represents information about a client preset
type ClientInfo struct {
	ID     string             `json:"id"`
	Client model.ClientParams `json:"client"`
}

// DatesResponse lists the dates held by the market dataset.
type DatesResponse struct {
	Dates    []string `json:"dates"`
	Complete []string `json:"complete"`
	Count    int      `json:"count"`
}

// SpreadResponse holds per-day spreads and the arbitrage potential of the
// whole range.
type SpreadResponse struct {
	Spreads     []analysis.Spread                `json:"spreads"`
	Theoretical analysis.TheoreticalProfitResult `json:"theoretical"`
}

// RankResponse represents the response from ranking days
type RankResponse struct {
	Rankings []Ranking `json:"rankings"`
}

// Ranking represents one ranked day
type Ranking struct {
	Rank int `json:"rank"`
	analysis.DayPotential
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information
type ErrorDetail struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}
