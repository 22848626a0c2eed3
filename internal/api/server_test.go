package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"catalogsync/internal/api/handlers"
	"catalogsync/internal/config"
	"catalogsync/internal/database/databasetest"
	"catalogsync/internal/logger"
	"catalogsync/internal/models"
	"catalogsync/internal/settings"
	"catalogsync/internal/syncer"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubController struct{}

func (stubController) RunNow(context.Context) (*syncer.Report, error) {
	return nil, syncer.ErrSyncInProgress
}

func (stubController) Status(context.Context) (models.SyncStatus, error) {
	return models.SyncStatus{}, nil
}

func (stubController) Reschedule(models.Interval) error { return nil }

type stubLister struct{}

func (stubLister) ListProducts(context.Context, int, int) ([]map[string]interface{}, int64, error) {
	return []map[string]interface{}{}, 0, nil
}

func (stubLister) RecentRuns(context.Context, int) ([]models.SyncRun, error) {
	return []models.SyncRun{}, nil
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := settings.NewGormStore(databasetest.New(t))
	require.NoError(t, store.Seed(context.Background(), models.SyncConfig{}))

	log := logger.Nop()
	router := NewRouter(log, Handlers{
		Settings: handlers.NewSettingsHandler(store, stubController{}, log),
		Sync:     handlers.NewSyncHandler(stubController{}, log),
		Products: handlers.NewProductHandler(stubLister{}, log),
		Runs:     handlers.NewRunHandler(stubLister{}, log),
	})
	return &Server{
		config: &config.Config{AllowedOrigins: []string{"*"}},
		logger: log,
		router: router,
	}
}

func TestRoutes(t *testing.T) {
	handler := newTestServer(t).Handler()

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodGet, "/health", http.StatusOK},
		{http.MethodGet, "/api/v1/settings", http.StatusOK},
		{http.MethodGet, "/api/v1/status", http.StatusOK},
		{http.MethodPost, "/api/v1/sync", http.StatusConflict},
		{http.MethodGet, "/api/v1/products", http.StatusOK},
		{http.MethodGet, "/api/v1/runs", http.StatusOK},
		{http.MethodGet, "/api/v1/unknown", http.StatusNotFound},
	}

	for _, tt := range tests {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, nil))
		assert.Equal(t, tt.want, w.Code, "%s %s", tt.method, tt.path)
	}
}

func TestCORSPreflight(t *testing.T) {
	handler := newTestServer(t).Handler()

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/settings", nil)
	req.Header.Set("Origin", "https://admin.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPut)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
