package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/shownfy/kansai-mansion-analytics/internal/features"
	"github.com/shownfy/kansai-mansion-analytics/internal/predict"
)

// PredictHandler serves price predictions
type PredictHandler struct {
	engine *predict.Engine
}

// NewPredictHandler creates a new predict handler
func NewPredictHandler(engine *predict.Engine) *PredictHandler {
	return &PredictHandler{engine: engine}
}

// Predict returns the estimated price of one unit
func (h *PredictHandler) Predict(c *gin.Context) {
	var in features.Input
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	p, err := h.engine.Predict(c.Request.Context(), in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// Project returns the price curve over future building ages
func (h *PredictHandler) Project(c *gin.Context) {
	var in features.Input
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	p, err := h.engine.Project(c.Request.Context(), in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// GetModel describes the served model
func (h *PredictHandler) GetModel(c *gin.Context) {
	art := h.engine.Artifact()
	if art == nil {
		writeError(c, predict.ErrModelUnavailable)
		return
	}

	top, _ := strconv.Atoi(c.DefaultQuery("top", "15"))
	importances := art.Importances
	if top > 0 && top < len(importances) {
		importances = importances[:top]
	}

	c.JSON(http.StatusOK, gin.H{
		"name":        art.Name,
		"version":     art.Version,
		"run_id":      art.RunID,
		"trained_at":  art.TrainedAt,
		"train_rows":  art.TrainRows,
		"test_rows":   art.TestRows,
		"metrics":     art.Metrics,
		"importances": importances,
		"max_age":     h.engine.Reconstructor().MaxAge(),
	})
}

// writeError maps input errors to 400 and a missing model to 503
func writeError(c *gin.Context, err error) {
	var inputErr *features.InputError
	switch {
	case errors.As(err, &inputErr):
		c.JSON(http.StatusBadRequest, gin.H{
			"error": inputErr.Error(),
			"field": inputErr.Field,
		})
	case errors.Is(err, predict.ErrModelUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		slog.Error("Handler: request failed", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
