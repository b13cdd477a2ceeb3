// Package api wires the HTTP routes of the evaluation service.
package api

import (
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/NYTimes/gziphandler"
	"github.com/gin-gonic/gin"

	"bess-roi/internal/api/handlers"
	"bess-roi/internal/api/middleware"
	"bess-roi/internal/config"
	"bess-roi/internal/model"
	"bess-roi/internal/profile"
)

type Deps struct {
	Market         handlers.MarketSource
	Config         func() *config.AppConfig
	Clients        map[string]model.ClientParams
	Profiles       *profile.Table
	AllowedOrigins []string
	StaticDir      string
	Logger         *slog.Logger
}

// NewRouter builds the gin engine with every route registered.
func NewRouter(d Deps) *gin.Engine {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default().With(slog.String("module", "api"))
	}

	router := gin.New()
	router.Use(middleware.CORS(d.AllowedOrigins))
	router.Use(middleware.Logger(logger))
	router.Use(middleware.ErrorHandler())

	evaluateHandler := handlers.NewEvaluateHandler(d.Market, d.Config, d.Clients, d.Profiles)
	clientHandler := handlers.NewClientHandler(d.Clients, d.Profiles)
	strategyHandler := handlers.NewStrategyHandler()
	marketHandler := handlers.NewMarketHandler(d.Market, d.Config)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api/v1")
	{
		api.POST("/evaluate", evaluateHandler.Evaluate)
		api.POST("/evaluate/compare", evaluateHandler.Compare)

		api.GET("/clients", clientHandler.ListClients)
		api.GET("/profiles", clientHandler.ListProfiles)
		api.GET("/strategies", strategyHandler.ListStrategies)

		api.GET("/dates", marketHandler.ListDates)
		api.GET("/spread", marketHandler.GetSpread)
		api.GET("/rank", marketHandler.RankDays)
	}

	if d.StaticDir != "" {
		if info, err := os.Stat(d.StaticDir); err == nil && info.IsDir() {
			router.Static("/assets", filepath.Join(d.StaticDir, "assets"))
			router.StaticFile("/favicon.ico", filepath.Join(d.StaticDir, "favicon.ico"))
			router.NoRoute(func(c *gin.Context) {
				// Don't serve index.html for API routes
				if strings.HasPrefix(c.Request.URL.Path, "/api") {
					c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
					return
				}
				c.File(filepath.Join(d.StaticDir, "index.html"))
			})
			logger.Info("serving static files", slog.String("dir", d.StaticDir))
		} else {
			logger.Warn("static directory not found, skipping static file serving", slog.String("dir", d.StaticDir))
		}
	}

	return router
}

// Handler wraps the router with response compression.
func Handler(router *gin.Engine) http.Handler {
	return gziphandler.GzipHandler(router)
}
