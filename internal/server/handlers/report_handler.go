package handlers

import (
	"context"
	"errors"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/stationdash/internal/domain/models"
	"github.com/mamadbah2/stationdash/internal/engine"
	"github.com/mamadbah2/stationdash/internal/repository/mongodb"
	"github.com/mamadbah2/stationdash/internal/service/reporting"
)

const historyDateLayout = "2006-01-02"

// ReportService is the reporting surface served over HTTP.
type ReportService interface {
	View(ctx context.Context, dataset models.Dataset, f engine.Filter, spec engine.SortSpec, refresh bool) (reporting.Report, error)
	KPIs(ctx context.Context, f engine.Filter, metricKey string) (engine.KPIs, error)
	Export(ctx context.Context, dataset models.Dataset, f engine.Filter, spec engine.SortSpec, format reporting.Format) (reporting.Export, bool, error)
	Chart(ctx context.Context, dataset models.Dataset, f engine.Filter, x, y string, kind engine.ChartKind) (engine.Chart, error)
	Branches(ctx context.Context, dataset models.Dataset, f engine.Filter) ([]string, error)
}

// SnapshotLister reads persisted KPI snapshots.
type SnapshotLister interface {
	ListKPISnapshots(ctx context.Context, q mongodb.SnapshotQuery) ([]models.KPISnapshot, error)
}

// ReportHandler serves dataset views, KPIs, charts and exports.
type ReportHandler struct {
	svc     ReportService
	history SnapshotLister
	logger  *zap.Logger
}

// NewReportHandler constructs the report handler. history may be nil, in
// which case the history endpoint answers 404.
func NewReportHandler(svc ReportService, history SnapshotLister, logger *zap.Logger) *ReportHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportHandler{svc: svc, history: history, logger: logger}
}

// View returns the filtered, sorted records of a dataset.
func (h *ReportHandler) View(c *gin.Context) {
	dataset, f, ok := h.bindDataset(c)
	if !ok {
		return
	}

	report, err := h.svc.View(c.Request.Context(), dataset, f, sortSpec(c), queryBool(c, "refresh"))
	if err != nil {
		h.fetchError(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}

// Export streams the view as a CSV or XLSX attachment.
func (h *ReportHandler) Export(c *gin.Context) {
	dataset, f, ok := h.bindDataset(c)
	if !ok {
		return
	}

	out, ok, err := h.svc.Export(c.Request.Context(), dataset, f, sortSpec(c), reporting.ParseFormat(c.Query("format")))
	if err != nil {
		h.fetchError(c, err)
		return
	}
	if !ok {
		c.Status(http.StatusNoContent)
		return
	}

	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": out.Filename}))
	c.Data(http.StatusOK, out.ContentType, out.Data)
}

// KPIs returns the metric's progress against its targets.
func (h *ReportHandler) KPIs(c *gin.Context) {
	dataset, f, ok := h.bindDataset(c)
	if !ok {
		return
	}
	if dataset != models.DatasetSales {
		c.JSON(http.StatusBadRequest, gin.H{"error": "kpis are only available for sales"})
		return
	}

	kpis, err := h.svc.KPIs(c.Request.Context(), f, c.Query("metric"))
	if err != nil {
		h.fetchError(c, err)
		return
	}

	c.JSON(http.StatusOK, kpis)
}

// Chart aggregates one field over another.
func (h *ReportHandler) Chart(c *gin.Context) {
	dataset, f, ok := h.bindDataset(c)
	if !ok {
		return
	}

	kind := engine.ChartKind(c.DefaultQuery("type", string(engine.ChartBar)))
	chart, err := h.svc.Chart(c.Request.Context(), dataset, f, c.Query("x"), c.Query("y"), kind)
	if err != nil {
		if errors.Is(err, engine.ErrInvalidChart) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.fetchError(c, err)
		return
	}

	c.JSON(http.StatusOK, chart)
}

// Branches lists the branches present in the sales data.
func (h *ReportHandler) Branches(c *gin.Context) {
	var f engine.Filter
	if err := c.ShouldBindQuery(&f); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query"})
		return
	}

	branches, err := h.svc.Branches(c.Request.Context(), models.DatasetSales, f)
	if err != nil {
		h.fetchError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"branches": branches})
}

// History lists persisted daily KPI snapshots.
func (h *ReportHandler) History(c *gin.Context) {
	if h.history == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "kpi history is not enabled"})
		return
	}

	q := mongodb.SnapshotQuery{
		Metric: c.Query("metric"),
		Branch: c.Query("branch"),
	}
	var err error
	if q.From, err = queryDate(c, "from"); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "from must be YYYY-MM-DD"})
		return
	}
	if q.To, err = queryDate(c, "to"); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "to must be YYYY-MM-DD"})
		return
	}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || limit < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		q.Limit = limit
	}

	snapshots, err := h.history.ListKPISnapshots(c.Request.Context(), q)
	if err != nil {
		h.logger.Error("failed listing kpi snapshots", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load kpi history"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"snapshots": snapshots})
}

func (h *ReportHandler) bindDataset(c *gin.Context) (models.Dataset, engine.Filter, bool) {
	dataset, err := models.ParseDataset(c.Param("dataset"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return "", engine.Filter{}, false
	}

	var f engine.Filter
	if err := c.ShouldBindQuery(&f); err != nil {
		h.logger.Warn("invalid report query", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query"})
		return "", engine.Filter{}, false
	}
	return dataset, f, true
}

// fetchError answers a failed fetch with the user-facing message.
func (h *ReportHandler) fetchError(c *gin.Context, err error) {
	status := http.StatusBadGateway
	if reporting.IsAuthError(err) {
		status = http.StatusUnauthorized
	}
	h.logger.Warn("report request failed", zap.Int("status", status), zap.Error(err))
	c.JSON(status, gin.H{"error": reporting.UserMessage(err)})
}

func sortSpec(c *gin.Context) engine.SortSpec {
	return engine.SortSpec{
		Key:       c.Query("sort"),
		Direction: engine.ParseDirection(c.Query("dir")),
	}
}

func queryBool(c *gin.Context, key string) bool {
	v, err := strconv.ParseBool(c.Query(key))
	return err == nil && v
}

func queryDate(c *gin.Context, key string) (time.Time, error) {
	raw := c.Query(key)
	if raw == "" {
		return time.Time{}, nil
	}
	return time.Parse(historyDateLayout, raw)
}
