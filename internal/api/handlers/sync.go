package handlers

import (
	"context"
	"errors"
	"net/http"

	"catalogsync/internal/catalog"
	"catalogsync/internal/logger"
	"catalogsync/internal/models"
	"catalogsync/internal/services/shopify"
	"catalogsync/internal/syncer"

	"github.com/gin-gonic/gin"
)

// SyncController is the part of the schedule controller the API drives.
type SyncController interface {
	RunNow(ctx context.Context) (*syncer.Report, error)
	Status(ctx context.Context) (models.SyncStatus, error)
}

type SyncHandler struct {
	controller SyncController
	logger     *logger.Logger
}

func NewSyncHandler(controller SyncController, logger *logger.Logger) *SyncHandler {
	return &SyncHandler{
		controller: controller,
		logger:     logger,
	}
}

// Status mirrors the read-only status fields of the settings page.
func (h *SyncHandler) Status(c *gin.Context) {
	status, err := h.controller.Status(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to load sync status: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load sync status"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"last_sync":    status.LastSyncLabel(),
		"next_sync":    status.NextSyncLabel(),
		"record_count": status.LastRecordCount,
	})
}

// Trigger runs one cycle and reports its outcome. The cycle outlives a client
// that hangs up.
func (h *SyncHandler) Trigger(c *gin.Context) {
	report, err := h.controller.RunNow(context.WithoutCancel(c.Request.Context()))
	if err != nil {
		var fetchErr *shopify.FetchError
		switch {
		case errors.Is(err, syncer.ErrSyncInProgress):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case errors.As(err, &fetchErr):
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"run_id":     report.RunID,
		"table":      report.Table,
		"attempted":  report.Result.Attempted,
		"inserted":   report.Result.Inserted,
		"failed":     report.Result.Failed,
		"row_errors": rowErrorMessages(report.Result.RowErrors),
	})
}

func rowErrorMessages(rowErrors []*catalog.RowError) []string {
	messages := make([]string, 0, len(rowErrors))
	for _, e := range rowErrors {
		messages = append(messages, e.Error())
	}
	return messages
}
