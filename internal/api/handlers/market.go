package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"bess-roi/internal/analysis"
	"bess-roi/internal/api/models"
	"bess-roi/internal/config"
	"bess-roi/internal/data"
	"bess-roi/internal/model"
)

const defaultBatteryKWh = 10

// MarketHandler serves the market dataset and its price analytics.
type MarketHandler struct {
	market MarketSource
	config func() *config.AppConfig
}

// NewMarketHandler creates a new market handler
func NewMarketHandler(market MarketSource, cfg func() *config.AppConfig) *MarketHandler {
	return &MarketHandler{
		market: market,
		config: cfg,
	}
}

// ListDates handles GET /api/v1/dates
func (h *MarketHandler) ListDates(c *gin.Context) {
	ctx := c.Request.Context()
	dates, err := h.market.Dates(ctx)
	if err != nil {
		respondErr(c, err)
		return
	}
	rows, err := h.market.Rows(ctx, "", "")
	if err != nil {
		respondErr(c, err)
		return
	}
	complete := []string{}
	for _, d := range data.CompleteDays(rows) {
		complete = append(complete, d.Date)
	}
	if dates == nil {
		dates = []string{}
	}
	c.JSON(http.StatusOK, models.DatesResponse{
		Dates:    dates,
		Complete: complete,
		Count:    len(dates),
	})
}

// GetSpread handles GET /api/v1/spread
func (h *MarketHandler) GetSpread(c *gin.Context) {
	var q models.MarketQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	q = h.withDefaults(q)

	days, err := h.days(c.Request.Context(), q)
	if err != nil {
		respondErr(c, err)
		return
	}

	spreads := make([]analysis.Spread, 0, len(days))
	for _, d := range days {
		s, err := analysis.DailySpread(d, q.TopN)
		if err != nil {
			respondErr(c, err)
			return
		}
		spreads = append(spreads, s)
	}
	theoretical, err := analysis.TheoreticalProfit(days, q.BatteryKWh, q.Efficiency, q.TopN)
	if err != nil {
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusOK, models.SpreadResponse{
		Spreads:     spreads,
		Theoretical: theoretical,
	})
}

func (h *MarketHandler) withDefaults(q models.MarketQuery) models.MarketQuery {
	if q.TopN == 0 {
		q.TopN = analysis.DefaultTopN
	}
	if q.BatteryKWh == 0 {
		q.BatteryKWh = defaultBatteryKWh
	}
	if q.Efficiency == 0 {
		q.Efficiency = h.config().Scenario.GetEfficiency()
	}
	return q
}

// days returns the complete days of the queried range.
func (h *MarketHandler) days(ctx context.Context, q models.MarketQuery) ([]model.DayPrices, error) {
	if err := checkDate(q.StartDate); err != nil {
		return nil, err
	}
	if err := checkDate(q.EndDate); err != nil {
		return nil, err
	}
	rows, err := h.market.Rows(ctx, q.StartDate, q.EndDate)
	if err != nil {
		return nil, err
	}
	return data.CompleteDays(rows), nil
}
