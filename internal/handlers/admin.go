package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/shownfy/kansai-mansion-analytics/internal/model"
	"github.com/shownfy/kansai-mansion-analytics/internal/models"
	"github.com/shownfy/kansai-mansion-analytics/internal/predict"
	"github.com/shownfy/kansai-mansion-analytics/internal/retrain"
	"github.com/shownfy/kansai-mansion-analytics/internal/warehouse"
)

// Trigger starts a rebuild outside the schedule. RunAsync returns
// retrain.ErrAlreadyRunning when the rebuild slot is taken.
type Trigger interface {
	RunAsync(trigger string) error
}

// RunningChecker reports whether a rebuild is in progress
type RunningChecker interface {
	Running() bool
}

// AdminHandler handles admin-related requests
type AdminHandler struct {
	wh      *warehouse.Warehouse
	trigger Trigger
	status  RunningChecker
	store   *model.Store
	engine  *predict.Engine
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(wh *warehouse.Warehouse, trigger Trigger, status RunningChecker, store *model.Store, engine *predict.Engine) *AdminHandler {
	return &AdminHandler{
		wh:      wh,
		trigger: trigger,
		status:  status,
		store:   store,
		engine:  engine,
	}
}

// GetRuns returns recent pipeline runs
func (h *AdminHandler) GetRuns(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	runs, err := h.wh.ListRuns(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"runs":  runs,
		"count": len(runs),
	})
}

// GetRun returns one run with its drop counts
func (h *AdminHandler) GetRun(c *gin.Context) {
	run, err := h.wh.GetRun(c.Request.Context(), c.Param("id"))
	if errors.Is(err, warehouse.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, run)
}

// TriggerRebuild manually triggers a rebuild
func (h *AdminHandler) TriggerRebuild(c *gin.Context) {
	if h.trigger == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "rebuild not available"})
		return
	}
	slog.Info("Admin: manual rebuild requested")

	err := h.trigger.RunAsync(models.TriggerAdmin)
	if errors.Is(err, retrain.ErrAlreadyRunning) {
		c.JSON(http.StatusConflict, gin.H{"error": "rebuild already running"})
		return
	}
	if err != nil {
		slog.Error("Admin: manual rebuild failed to start", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"message": "Rebuild started",
		"status":  "running",
	})
}

// GetRebuildStatus reports whether a rebuild is running and the last run
func (h *AdminHandler) GetRebuildStatus(c *gin.Context) {
	status := "idle"
	if h.status != nil && h.status.Running() {
		status = "running"
	}

	resp := gin.H{"status": status}
	runs, err := h.wh.ListRuns(c.Request.Context(), 1)
	if err == nil && len(runs) > 0 {
		resp["last_run"] = runs[0]
	}
	c.JSON(http.StatusOK, resp)
}

// GetModels lists trained model versions
func (h *AdminHandler) GetModels(c *gin.Context) {
	versions, err := h.wh.ListModelVersions(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	serving := ""
	if art := h.engine.Artifact(); art != nil {
		serving = art.Version
	}
	c.JSON(http.StatusOK, gin.H{
		"models":  versions,
		"count":   len(versions),
		"serving": serving,
	})
}

// ReloadModel loads latest.gob into the engine
func (h *AdminHandler) ReloadModel(c *gin.Context) {
	if err := h.engine.Reload(); err != nil {
		if errors.Is(err, model.ErrArtifactNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"version": h.engine.Artifact().Version})
}

// PruneModels deletes old artifact files
func (h *AdminHandler) PruneModels(c *gin.Context) {
	var req struct {
		Keep             int  `json:"keep"`               // Versions to keep (default: 10)
		MaxDeletionCount int  `json:"max_deletion_count"` // Safety limit (default: 100)
		DryRun           bool `json:"dry_run"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cfg := model.PruneConfig{Keep: 10, MaxDeletionCount: 100, DryRun: req.DryRun}
	if req.Keep > 0 {
		cfg.Keep = req.Keep
	}
	if req.MaxDeletionCount > 0 {
		cfg.MaxDeletionCount = req.MaxDeletionCount
	}

	slog.Info("Admin: pruning artifacts", "keep", cfg.Keep, "max", cfg.MaxDeletionCount, "dry_run", cfg.DryRun)

	result, err := h.store.Prune(cfg)
	if err != nil {
		slog.Error("Admin: prune failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if !cfg.DryRun {
		if err := h.wh.MarkPruned(c.Request.Context(), result.Deleted); err != nil {
			slog.Warn("Admin: failed to mark pruned versions", "error", err)
		}
	}

	c.JSON(http.StatusOK, result)
}
