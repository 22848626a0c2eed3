package handlers

import (
	"context"
	"net/http"

	"catalogsync/internal/logger"
	"catalogsync/internal/models"
	"catalogsync/internal/settings"

	"github.com/gin-gonic/gin"
)

// Rescheduler applies a changed interval to the running schedule.
type Rescheduler interface {
	Reschedule(interval models.Interval) error
}

type SettingsHandler struct {
	store     settings.Store
	scheduler Rescheduler
	logger    *logger.Logger
}

func NewSettingsHandler(store settings.Store, scheduler Rescheduler, logger *logger.Logger) *SettingsHandler {
	return &SettingsHandler{
		store:     store,
		scheduler: scheduler,
		logger:    logger,
	}
}

type settingsResponse struct {
	APIURL      string `json:"api_url"`
	AccessToken string `json:"access_token"`
	TableName   string `json:"table_name"`
	Schedule    string `json:"schedule"`
}

func toSettingsResponse(cfg models.SyncConfig) settingsResponse {
	return settingsResponse{
		APIURL:      cfg.EndpointURL,
		AccessToken: cfg.MaskedToken(),
		TableName:   cfg.TableName,
		Schedule:    string(cfg.Interval),
	}
}

func (h *SettingsHandler) Get(c *gin.Context) {
	cfg, err := h.store.LoadConfig(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to load settings: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load settings"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": toSettingsResponse(cfg)})
}

// Update applies the fields present in the body; omitted fields keep their
// stored value.
func (h *SettingsHandler) Update(c *gin.Context) {
	var request struct {
		APIURL      *string `json:"api_url"`
		AccessToken *string `json:"access_token"`
		TableName   *string `json:"table_name"`
		Schedule    *string `json:"schedule"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	current, err := h.store.LoadConfig(ctx)
	if err != nil {
		h.logger.Error("Failed to load settings: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load settings"})
		return
	}

	updated := current
	if request.APIURL != nil {
		updated.EndpointURL = *request.APIURL
	}
	// A masked token echoed back from Get keeps the stored one.
	if request.AccessToken != nil && !models.IsMaskedToken(*request.AccessToken) {
		updated.AccessToken = *request.AccessToken
	}
	if request.TableName != nil {
		updated.TableName = *request.TableName
	}
	if request.Schedule != nil {
		updated.Interval = models.Interval(*request.Schedule)
	}

	if err := updated.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.save(ctx, current, updated); err != nil {
		h.logger.Error("Failed to save settings: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save settings"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": toSettingsResponse(updated)})
}

func (h *SettingsHandler) save(ctx context.Context, current, updated models.SyncConfig) error {
	if err := h.store.SaveConfig(ctx, updated); err != nil {
		return err
	}
	if updated.Interval != current.Interval && h.scheduler != nil {
		if err := h.scheduler.Reschedule(updated.Interval); err != nil {
			return err
		}
		h.logger.Info("Schedule changed from %s to %s", current.Interval, updated.Interval)
	}
	return nil
}
