package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"bess-roi/internal/api/models"
	"bess-roi/internal/config"
	"bess-roi/internal/data"
	"bess-roi/internal/model"
	"bess-roi/internal/profile"
	"bess-roi/internal/report"
	"bess-roi/internal/simulate"
	"bess-roi/internal/strategy"
)

// MarketSource is the read side of a market dataset. Both the sqlite store
// and data.Dataset implement it.
type MarketSource interface {
	Dates(ctx context.Context) ([]string, error)
	Rows(ctx context.Context, from, to string) ([]model.MarketRow, error)
	DayPrices(ctx context.Context, date string) (model.DayPrices, error)
}

// EvaluateHandler handles evaluation requests
type EvaluateHandler struct {
	market  MarketSource
	config  func() *config.AppConfig
	clients map[string]model.ClientParams
	table   *profile.Table
	logger  *slog.Logger
}

// NewEvaluateHandler creates a new evaluate handler. cfg is called on every
// request so reloaded configuration takes effect immediately.
func NewEvaluateHandler(market MarketSource, cfg func() *config.AppConfig, clients map[string]model.ClientParams, table *profile.Table) *EvaluateHandler {
	return &EvaluateHandler{
		market:  market,
		config:  cfg,
		clients: clients,
		table:   table,
		logger:  slog.Default().With(slog.String("module", "api")),
	}
}

// Evaluate handles POST /api/v1/evaluate
func (h *EvaluateHandler) Evaluate(c *gin.Context) {
	var req models.EvaluateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	resp, err := h.evaluate(c.Request.Context(), req)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Compare handles POST /api/v1/evaluate/compare. Every variation is run on
// the base request's day; a failing variation carries its own error.
func (h *EvaluateHandler) Compare(c *gin.Context) {
	var req models.CompareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	ctx := c.Request.Context()
	cfg := h.config()
	day, err := h.dayPrices(ctx, req.Base)
	if err != nil {
		respondErr(c, err)
		return
	}

	comparison := make([]models.ComparisonResult, 0, len(req.Variations))
	for _, v := range req.Variations {
		params := config.MergeClient(req.Base.ClientParams, v.ClientParams)
		overrides := mergeOverrides(req.Base.Scenario, v.Scenario)
		result := models.ComparisonResult{Name: v.Name}

		sc, strat, err := h.resolve(cfg, req.Base.Client, params, overrides)
		if err == nil {
			result.Client = sc.Client
			result.Strategy = strat.Name()
			var res *simulate.DayResult
			res, err = h.runDay(cfg, sc, strat, day)
			if err == nil {
				result.Summary = report.Summarize(res)
			}
		}
		if err != nil {
			h.logger.Debug("variation failed", slog.String("name", v.Name), slog.Any("error", err))
			_, detail := errorDetail(err)
			result.Error = &detail
		}
		comparison = append(comparison, result)
	}

	c.JSON(http.StatusOK, models.CompareResponse{
		Date:       day.Date,
		Comparison: comparison,
	})
}

func (h *EvaluateHandler) evaluate(ctx context.Context, req models.EvaluateRequest) (*models.EvaluateResponse, error) {
	cfg := h.config()
	sc, strat, err := h.resolve(cfg, req.Client, req.ClientParams, req.Scenario)
	if err != nil {
		return nil, err
	}

	if len(req.Prices) == 0 && (req.StartDate != "" || req.EndDate != "") {
		return h.evaluateRange(ctx, cfg, sc, strat, req)
	}

	day, err := h.dayPrices(ctx, req)
	if err != nil {
		return nil, err
	}
	res, err := h.runDay(cfg, sc, strat, day)
	if err != nil {
		return nil, err
	}
	rep, err := report.Build(sc.Client, sc.Efficiency, sc.MonthsDelay, res)
	if err != nil {
		return nil, err
	}

	resp := &models.EvaluateResponse{Status: "completed", Report: rep}
	if req.Options.IncludeLedger {
		resp.Ledger = res.Ledger
	}
	return resp, nil
}

func (h *EvaluateHandler) evaluateRange(ctx context.Context, cfg *config.AppConfig, sc config.ScenarioConfig, strat strategy.Strategy, req models.EvaluateRequest) (*models.EvaluateResponse, error) {
	for _, d := range []string{req.StartDate, req.EndDate} {
		if err := checkDate(d); err != nil {
			return nil, err
		}
	}
	rows, err := h.market.Rows(ctx, req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}
	days := data.CompleteDays(rows)
	if len(days) == 0 {
		return nil, fmt.Errorf("%w: no complete day between %q and %q", model.ErrIncompleteDay, req.StartDate, req.EndDate)
	}

	inputs := make([]model.DayInputs, 0, len(days))
	for _, d := range days {
		in, err := cfg.DayInputs(h.table, sc.Client, d)
		if err != nil {
			return nil, err
		}
		inputs = append(inputs, in)
	}

	results, err := sc.Engine().RunRange(ctx, inputs, sc.Battery(), strat)
	if err != nil {
		return nil, err
	}
	totals, err := simulate.Rollup(results, sc.MonthsDelay)
	if err != nil {
		return nil, err
	}
	totals = report.RoundTotals(totals)

	resp := &models.EvaluateResponse{
		Status: "completed",
		Totals: &totals,
		Days:   make([]models.DaySummary, 0, len(results)),
	}
	for _, r := range results {
		resp.Days = append(resp.Days, models.DaySummary{Date: r.Date, Summary: report.Summarize(r)})
		if req.Options.IncludeLedger {
			resp.Ledger = append(resp.Ledger, r.Ledger...)
		}
	}
	return resp, nil
}

func (h *EvaluateHandler) resolve(cfg *config.AppConfig, name string, params model.ClientParams, o models.ScenarioOverrides) (config.ScenarioConfig, strategy.Strategy, error) {
	client, err := config.ResolveClient(h.clients, name, params)
	if err != nil {
		return config.ScenarioConfig{}, nil, err
	}
	sc := cfg.ScenarioFor(client)
	if o.Efficiency != nil {
		sc.Efficiency = *o.Efficiency
	}
	if o.DistributionCost != nil {
		sc.DistributionCost = *o.DistributionCost
	}
	if o.MonthsDelay != nil {
		sc.MonthsDelay = *o.MonthsDelay
	}
	if o.Strategy != nil {
		sc.Strategy = config.StrategyConfig{Name: o.Strategy.Name, Params: o.Strategy.Params}
	}
	if err := sc.Validate(); err != nil {
		return config.ScenarioConfig{}, nil, err
	}
	strat, err := sc.BuildStrategy()
	if err != nil {
		return config.ScenarioConfig{}, nil, err
	}
	return sc, strat, nil
}

func (h *EvaluateHandler) runDay(cfg *config.AppConfig, sc config.ScenarioConfig, strat strategy.Strategy, day model.DayPrices) (*simulate.DayResult, error) {
	in, err := cfg.DayInputs(h.table, sc.Client, day)
	if err != nil {
		return nil, err
	}
	return sc.Engine().RunDay(in, sc.Battery(), strat)
}

// dayPrices picks the request's prices: explicit values, a dataset date, or
// the latest complete day.
func (h *EvaluateHandler) dayPrices(ctx context.Context, req models.EvaluateRequest) (model.DayPrices, error) {
	if len(req.Prices) > 0 {
		prices := model.HourlySeries(req.Prices)
		if err := prices.ValidatePrices(); err != nil {
			return model.DayPrices{}, fmt.Errorf("prices: %w", err)
		}
		date := req.Date
		if date == "" {
			date = time.Now().Format(model.DateLayout)
		} else if err := checkDate(date); err != nil {
			return model.DayPrices{}, err
		}
		return model.DayPrices{Date: date, Prices: prices}, nil
	}

	if req.Date != "" {
		if err := checkDate(req.Date); err != nil {
			return model.DayPrices{}, err
		}
		return h.market.DayPrices(ctx, req.Date)
	}

	rows, err := h.market.Rows(ctx, "", "")
	if err != nil {
		return model.DayPrices{}, err
	}
	return data.LatestCompleteDay(rows)
}

func mergeOverrides(base, override models.ScenarioOverrides) models.ScenarioOverrides {
	merged := base
	if override.Efficiency != nil {
		merged.Efficiency = override.Efficiency
	}
	if override.DistributionCost != nil {
		merged.DistributionCost = override.DistributionCost
	}
	if override.MonthsDelay != nil {
		merged.MonthsDelay = override.MonthsDelay
	}
	if override.Strategy != nil {
		merged.Strategy = override.Strategy
	}
	return merged
}

// checkDate accepts "" (open bound) or YYYY-MM-DD.
func checkDate(date string) error {
	if date == "" {
		return nil
	}
	if _, err := time.Parse(model.DateLayout, date); err != nil {
		return fmt.Errorf("%w: date %q must be in YYYY-MM-DD format", model.ErrInvalidArgument, date)
	}
	return nil
}
