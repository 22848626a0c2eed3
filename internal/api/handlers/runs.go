package handlers

import (
	"context"
	"net/http"
	"strconv"

	"catalogsync/internal/logger"
	"catalogsync/internal/models"

	"github.com/gin-gonic/gin"
)

type RunLister interface {
	RecentRuns(ctx context.Context, limit int) ([]models.SyncRun, error)
}

type RunHandler struct {
	runs   RunLister
	logger *logger.Logger
}

func NewRunHandler(runs RunLister, logger *logger.Logger) *RunHandler {
	return &RunHandler{
		runs:   runs,
		logger: logger,
	}
}

func (h *RunHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if limit < 1 || limit > maxPageSize {
		limit = 20
	}

	runs, err := h.runs.RecentRuns(c.Request.Context(), limit)
	if err != nil {
		h.logger.Error("Failed to list sync runs: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch sync runs"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": runs})
}
