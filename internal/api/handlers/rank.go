package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"bess-roi/internal/analysis"
	"bess-roi/internal/api/models"
	"bess-roi/internal/model"
)

// RankDays handles GET /api/v1/rank. Days are ordered by price spread,
// widest first.
func (h *MarketHandler) RankDays(c *gin.Context) {
	var req models.RankRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	req.MarketQuery = h.withDefaults(req.MarketQuery)
	if req.TopN < 1 {
		respondErr(c, fmt.Errorf("%w: top_n must be >= 1, got %d", model.ErrInvalidArgument, req.TopN))
		return
	}
	if err := model.ValidateEfficiency(req.Efficiency); err != nil {
		respondErr(c, err)
		return
	}

	days, err := h.days(c.Request.Context(), req.MarketQuery)
	if err != nil {
		respondErr(c, err)
		return
	}
	ranked := analysis.RankDaysBySpread(days, req.BatteryKWh, req.Efficiency, req.TopN)

	// Apply limit
	limit := req.Limit
	if limit <= 0 {
		limit = 10
	}
	if limit > len(ranked) {
		limit = len(ranked)
	}
	ranked = ranked[:limit]

	rankings := make([]models.Ranking, len(ranked))
	for i, r := range ranked {
		rankings[i] = models.Ranking{
			Rank:         i + 1,
			DayPotential: r,
		}
	}

	c.JSON(http.StatusOK, models.RankResponse{Rankings: rankings})
}
