package handlers

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"thanwia-dashboard/middleware"
)

// RouterOptions configures middleware limits
type RouterOptions struct {
	MaxUploadBytes int64
	UploadRPS      float64
	UploadBurst    int
}

// NewRouter wires every route of the dashboard API
func NewRouter(h *APIHandler, opts RouterOptions, logger *slog.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestID(), middleware.Logger(logger))

	limiter := middleware.NewRateLimiter(opts.UploadRPS, opts.UploadBurst, logger)

	api := router.Group("/api")
	{
		// Dataset routes
		api.POST("/datasets", limiter.Handler(), middleware.MaxBodySize(opts.MaxUploadBytes), h.UploadDataset)
		api.GET("/datasets/:datasetId", h.GetDataset)
		api.GET("/datasets/:datasetId/records", h.GetRecords)
		api.GET("/datasets/:datasetId/summary", h.GetSummary)
		api.GET("/datasets/:datasetId/top", h.GetTop)
		api.GET("/datasets/:datasetId/histogram", h.GetHistogram)
		api.GET("/datasets/:datasetId/histogram.png", h.GetHistogramPNG)
		api.GET("/datasets/:datasetId/gauge", h.GetGauge)
		api.GET("/datasets/:datasetId/gauge.png", h.GetGaugePNG)
		api.GET("/datasets/:datasetId/export.csv", h.ExportCSV)

		// Dashboard for the session's current file
		api.GET("/dashboard", h.GetDashboard)

		api.GET("/ping", PingHandler)
	}

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	return router
}
