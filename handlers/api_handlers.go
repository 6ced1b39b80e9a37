package handlers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"github.com/gin-gonic/gin"
	"thanwia-dashboard/cache"
	"thanwia-dashboard/charts"
	"thanwia-dashboard/dashboard"
	"thanwia-dashboard/engine"
	"thanwia-dashboard/export"
	"thanwia-dashboard/loader"
	"thanwia-dashboard/metrics"
	"thanwia-dashboard/models"
)

// SessionCookie identifies the browser session that owns an upload
const SessionCookie = "thanwia_session"

// APIHandler holds the dependencies for API handlers
type APIHandler struct {
	Loader   *cache.Loader
	Sessions *cache.Sessions
	Options  dashboard.Options
	logger   *slog.Logger

	mu      sync.RWMutex
	seedErr error
}

// NewAPIHandler creates a new APIHandler
func NewAPIHandler(l *cache.Loader, sessions *cache.Sessions, opts dashboard.Options, logger *slog.Logger) *APIHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &APIHandler{
		Loader:   l,
		Sessions: sessions,
		Options:  opts,
		logger:   logger.With(slog.String("component", "api_handler")),
	}
}

// SeedFromFile loads the fixed results file shown to sessions without an upload.
// The error is kept so the dashboard can show it.
func (h *APIHandler) SeedFromFile(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		err = fmt.Errorf("%w: %s", loader.ErrMissingInput, path)
	}
	if err == nil {
		var ds *models.Dataset
		ds, _, err = h.Loader.Load(ctx, filepath.Base(path), data)
		if err == nil {
			h.Sessions.SetFallback(ds.ID)
			h.logger.InfoContext(ctx, "seed dataset ready", slog.String("dataset_id", ds.ID), slog.Int("records", len(ds.Records)))
		}
	}

	h.mu.Lock()
	h.seedErr = err
	h.mu.Unlock()
	return err
}

type queryParams struct {
	Name string `form:"name"`
	Seat string `form:"seat"`
	N    int    `form:"n" binding:"omitempty,min=1,max=1000"`
	Bins int    `form:"bins" binding:"omitempty,min=1,max=500"`
}

func (q queryParams) criteria() models.FilterCriteria {
	return models.FilterCriteria{NamePattern: q.Name, SeatingPattern: q.Seat}
}

func (h *APIHandler) bindQuery(c *gin.Context) (queryParams, bool) {
	var q queryParams
	if err := c.ShouldBindQuery(&q); err != nil {
		h.respondError(c, badRequest("Invalid query: "+err.Error()))
		return q, false
	}
	return q, true
}

// session returns the caller's session ID, issuing a cookie that lives as long as a binding
func (h *APIHandler) session(c *gin.Context) string {
	if id, err := c.Cookie(SessionCookie); err == nil && id != "" {
		return id
	}
	id := cache.NewID()
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookie, id, int(h.Sessions.TTL().Seconds()), "/", "", false, true)
	return id
}

// dataset resolves the :datasetId path parameter
func (h *APIHandler) dataset(c *gin.Context) (*models.Dataset, bool) {
	ds, err := h.Loader.Get(c.Request.Context(), c.Param("datasetId"))
	if err != nil {
		h.respondError(c, err)
		return nil, false
	}
	return ds, true
}

// --- Dataset Handlers ---

// UploadDataset handles POST /api/datasets
func (h *APIHandler) UploadDataset(c *gin.Context) {
	ctx := c.Request.Context()

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			h.respondError(c, loader.ErrMissingInput)
			return
		}
		if errors.As(err, &tooLarge) {
			h.respondError(c, err)
			return
		}
		h.respondError(c, badRequest("Error retrieving uploaded file: "+err.Error()))
		return
	}
	defer file.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, file); err != nil {
		h.respondError(c, err)
		return
	}

	h.logger.InfoContext(ctx, "received file upload", slog.String("file", header.Filename), slog.Int64("size", header.Size))

	ds, cached, err := h.Loader.Load(ctx, header.Filename, buf.Bytes())
	if err != nil {
		h.logger.WarnContext(ctx, "upload rejected", slog.String("file", header.Filename), slog.String("error", err.Error()))
		h.respondError(c, err)
		return
	}

	h.Sessions.Bind(h.session(c), ds.ID)

	c.JSON(http.StatusCreated, gin.H{
		"message": "Import successful",
		"cached":  cached,
		"dataset": ds.Info(),
	})
}

// GetDataset handles GET /api/datasets/:datasetId
func (h *APIHandler) GetDataset(c *gin.Context) {
	ds, ok := h.dataset(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, ds.Info())
}

// GetRecords handles GET /api/datasets/:datasetId/records
func (h *APIHandler) GetRecords(c *gin.Context) {
	q, ok := h.bindQuery(c)
	if !ok {
		return
	}
	ds, ok := h.dataset(c)
	if !ok {
		return
	}
	metrics.Queries.WithLabelValues("filter").Inc()

	criteria := engine.Normalize(q.criteria())
	records := engine.Filter(ds.Records, criteria)

	msg := dashboard.Message{Level: dashboard.LevelInfo, Code: dashboard.CodeSearchPrompt, Text: "Enter a name or seating number to search."}
	if engine.Active(criteria) {
		msg = dashboard.Message{
			Level: dashboard.LevelSuccess,
			Code:  dashboard.CodeMatches,
			Text:  fmt.Sprintf("Found %d student(s) matching the search", len(records)),
		}
	}
	if records == nil {
		records = []models.StudentRecord{}
	}

	c.JSON(http.StatusOK, gin.H{
		"criteria": criteria,
		"count":    len(records),
		"message":  msg,
		"records":  records,
	})
}

// GetSummary handles GET /api/datasets/:datasetId/summary
func (h *APIHandler) GetSummary(c *gin.Context) {
	ds, ok := h.dataset(c)
	if !ok {
		return
	}
	metrics.Queries.WithLabelValues("summary").Inc()

	stats, err := engine.Summarize(ds.Records)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// GetTop handles GET /api/datasets/:datasetId/top
func (h *APIHandler) GetTop(c *gin.Context) {
	q, ok := h.bindQuery(c)
	if !ok {
		return
	}
	ds, ok := h.dataset(c)
	if !ok {
		return
	}
	metrics.Queries.WithLabelValues("top").Inc()

	n := q.N
	if n == 0 {
		n = h.Options.TopN
	}
	top, err := engine.TopN(ds.Records, n)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, engine.Rank(top))
}

// GetHistogram handles GET /api/datasets/:datasetId/histogram
func (h *APIHandler) GetHistogram(c *gin.Context) {
	bins, ok := h.histogram(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, bins)
}

// GetHistogramPNG handles GET /api/datasets/:datasetId/histogram.png
func (h *APIHandler) GetHistogramPNG(c *gin.Context) {
	bins, ok := h.histogram(c)
	if !ok {
		return
	}
	h.png(c, func(w io.Writer) error { return charts.RenderHistogram(w, bins) })
}

func (h *APIHandler) histogram(c *gin.Context) ([]charts.Bin, bool) {
	q, ok := h.bindQuery(c)
	if !ok {
		return nil, false
	}
	ds, ok := h.dataset(c)
	if !ok {
		return nil, false
	}
	metrics.Queries.WithLabelValues("histogram").Inc()

	n := q.Bins
	if n == 0 {
		n = h.Options.Bins
	}
	bins, err := charts.Histogram(ds.Records, n)
	if err != nil {
		if errors.Is(err, charts.ErrNoData) {
			err = engine.ErrEmptyDataset
		}
		h.respondError(c, err)
		return nil, false
	}
	return bins, true
}

// GetGauge handles GET /api/datasets/:datasetId/gauge
func (h *APIHandler) GetGauge(c *gin.Context) {
	g, ok := h.gauge(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, g)
}

// GetGaugePNG handles GET /api/datasets/:datasetId/gauge.png
func (h *APIHandler) GetGaugePNG(c *gin.Context) {
	g, ok := h.gauge(c)
	if !ok {
		return
	}
	h.png(c, func(w io.Writer) error { return charts.RenderGauge(w, g) })
}

func (h *APIHandler) gauge(c *gin.Context) (charts.GaugeSpec, bool) {
	ds, ok := h.dataset(c)
	if !ok {
		return charts.GaugeSpec{}, false
	}
	metrics.Queries.WithLabelValues("gauge").Inc()

	stats, err := engine.Summarize(ds.Records)
	if err != nil {
		h.respondError(c, err)
		return charts.GaugeSpec{}, false
	}
	return charts.Gauge(stats), true
}

// png renders into a buffer first so a render error can still produce a JSON error
func (h *APIHandler) png(c *gin.Context, render func(io.Writer) error) {
	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		if errors.Is(err, charts.ErrNoData) {
			h.respondError(c, &APIError{Status: http.StatusUnprocessableEntity, Code: "NO_CHART_DATA", Message: "Nothing to plot for this dataset"})
			return
		}
		h.respondError(c, err)
		return
	}
	c.Data(http.StatusOK, "image/png", buf.Bytes())
}

// ExportCSV handles GET /api/datasets/:datasetId/export.csv
func (h *APIHandler) ExportCSV(c *gin.Context) {
	q, ok := h.bindQuery(c)
	if !ok {
		return
	}
	ds, ok := h.dataset(c)
	if !ok {
		return
	}
	metrics.Queries.WithLabelValues("export").Inc()

	records := engine.Filter(ds.Records, q.criteria())

	var buf bytes.Buffer
	if err := export.WriteCSV(&buf, records); err != nil {
		h.respondError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, export.DefaultFileName))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

// --- Dashboard Handler ---

// GetDashboard handles GET /api/dashboard for the session's current dataset
func (h *APIHandler) GetDashboard(c *gin.Context) {
	q, ok := h.bindQuery(c)
	if !ok {
		return
	}
	metrics.Queries.WithLabelValues("dashboard").Inc()

	sid := h.session(c)
	id, ok := h.Sessions.Current(sid)
	if !ok {
		h.mu.RLock()
		seedErr := h.seedErr
		h.mu.RUnlock()
		if seedErr != nil {
			c.JSON(http.StatusOK, dashboard.Failed(seedErr))
			return
		}
		c.JSON(http.StatusOK, dashboard.Missing())
		return
	}

	ds, err := h.Loader.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, cache.ErrNotFound) {
			// evicted or expired; the user has to supply the file again
			h.Sessions.Forget(sid)
			c.JSON(http.StatusOK, dashboard.Missing())
			return
		}
		h.respondError(c, err)
		return
	}

	opts := h.Options
	if q.Bins > 0 {
		opts.Bins = q.Bins
	}
	if q.N > 0 {
		opts.TopN = q.N
	}
	c.JSON(http.StatusOK, dashboard.Build(ds, q.criteria(), opts))
}

// --- Ping Handler ---
func PingHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Pong!"})
}
