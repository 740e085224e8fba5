package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/storably/stashsync/internal/clock"
	"github.com/storably/stashsync/internal/config"
	"github.com/storably/stashsync/internal/entity"
	"github.com/storably/stashsync/internal/observability/metrics"
	"github.com/storably/stashsync/internal/pms"
	"github.com/storably/stashsync/internal/retry"
	"github.com/storably/stashsync/internal/store"
	"github.com/storably/stashsync/internal/syncsvc"
	"github.com/storably/stashsync/internal/warehouse"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type harness struct {
	engine      *gin.Engine
	warehouseDB *gorm.DB
	storeDB     *gorm.DB
	store       *store.Store
	tracker     *metrics.Tracker
	cfg         config.Config
}

func newMemoryDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return db
}

func newTestServer(t *testing.T, pmsURL string) *harness {
	t.Helper()

	warehouseDB := newMemoryDB(t)
	storeDB := newMemoryDB(t)
	require.NoError(t, storeDB.AutoMigrate(entity.All()...))

	cfg := config.Config{
		PMSBaseURL:       pmsURL,
		PMSWebhookSecret: "whsec-test",
	}
	clk := clock.NewFakeClock(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	tracker := metrics.NewTracker(clk, 6*time.Hour, config.JobNames(), nil)
	exec := retry.New(config.RetryConfig{
		MaxAttempts:  2,
		InitialDelay: time.Millisecond,
		Multiplier:   2,
		MaxDelay:     5 * time.Millisecond,
	}, zap.NewNop())
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	st := store.New(storeDB, zap.NewNop())
	pmsClient := pms.New(cfg, exec, zap.NewNop())
	svc := syncsvc.New(syncsvc.Params{
		Warehouse: warehouse.New(warehouseDB, "main", zap.NewNop()),
		PMS:       pmsClient,
		Store:     st,
		Tracker:   tracker,
		Exec:      exec,
		Clock:     clk,
		Node:      node,
		Log:       zap.NewNop(),
	})

	engine := NewEngine(zap.NewNop())
	srv := NewServer(Params{
		Engine:  engine,
		Cfg:     cfg,
		Store:   st,
		Svc:     svc,
		PMS:     pmsClient,
		Tracker: tracker,
		Log:     zap.NewNop(),
	})
	srv.RegisterRoutes()

	return &harness{
		engine:      engine,
		warehouseDB: warehouseDB,
		storeDB:     storeDB,
		store:       st,
		tracker:     tracker,
		cfg:         cfg,
	}
}

func (h *harness) do(method, path string, body []byte, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	h.engine.ServeHTTP(w, req)
	return w
}

func TestHealthEndpoint(t *testing.T) {
	h := newTestServer(t, "")

	// nothing has synced yet
	w := h.do(http.MethodGet, "/healthz", nil, nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	for _, job := range config.JobNames() {
		h.tracker.RecordSync(job, true, time.Second)
	}
	h.tracker.RecordCall("pms.facilities", true, time.Millisecond)

	w = h.do(http.MethodGet, "/healthz", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var report metrics.HealthReport
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	assert.Equal(t, metrics.StatusHealthy, report.Status)
	assert.Len(t, report.Categories, len(config.JobNames()))
}

func TestMetricsEndpoint(t *testing.T) {
	h := newTestServer(t, "")
	h.tracker.RecordSync(config.JobUnits, true, 2*time.Second)

	w := h.do(http.MethodGet, "/metrics", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var snap metrics.Snapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	assert.Equal(t, int64(1), snap.Syncs[config.JobUnits].Success)
}

func TestPrometheusEndpoint(t *testing.T) {
	h := newTestServer(t, "")
	w := h.do(http.MethodGet, "/metrics/prometheus", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}

func TestTriggerSyncUnknownEntity(t *testing.T) {
	h := newTestServer(t, "")
	w := h.do(http.MethodPost, "/sync/nope", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTriggerSyncUnits(t *testing.T) {
	h := newTestServer(t, "")
	require.NoError(t, h.warehouseDB.Exec(
		`CREATE TABLE units (unit_id text, facility_id text, pg_id text,
		 managed_rate text, width real, depth real, height real)`).Error)
	require.NoError(t, h.warehouseDB.Exec(
		`INSERT INTO units VALUES ('u-1', 'fac-1', 'pg-1', '150.5', 10, 10, 8)`).Error)

	w := h.do(http.MethodPost, "/sync/units", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var res syncsvc.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, config.JobUnits, res.Entity)
	assert.Equal(t, 1, res.Upserted)
}

func TestWebhookSignatureRequired(t *testing.T) {
	h := newTestServer(t, "")
	payload := []byte(`{"event":"facility.created","data":{"id":"fac-1","name":"Downtown"}}`)

	w := h.do(http.MethodPost, "/webhooks/pms", payload, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = h.do(http.MethodPost, "/webhooks/pms", payload, map[string]string{
		pms.SignatureHeader: pms.Sign("wrong-secret", payload),
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestWebhookAppliesEvent(t *testing.T) {
	h := newTestServer(t, "")
	payload := []byte(`{"event":"facility.created","data":{"id":"fac-1","name":"Downtown Storage"}}`)

	w := h.do(http.MethodPost, "/webhooks/pms", payload, map[string]string{
		pms.SignatureHeader: pms.Sign(h.cfg.PMSWebhookSecret, payload),
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = h.do(http.MethodGet, "/facilities/fac-1", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Downtown Storage")
}

func TestWebhookRejectsMalformedPayload(t *testing.T) {
	h := newTestServer(t, "")
	payload := []byte(`{"data":{}}`)

	w := h.do(http.MethodPost, "/webhooks/pms", payload, map[string]string{
		pms.SignatureHeader: pms.Sign(h.cfg.PMSWebhookSecret, payload),
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFacilityEndpoints(t *testing.T) {
	h := newTestServer(t, "")

	w := h.do(http.MethodGet, "/facilities/missing", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = h.do(http.MethodGet, "/facilities/missing/tenants", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	require.NoError(t, h.storeDB.Create(&entity.Facility{ID: "fac-1", Name: "Downtown"}).Error)
	require.NoError(t, h.storeDB.Create(&entity.Tenant{
		FacilityID: "fac-1", UnitNumber: "A-101", Name: "Pat Doe", GoodStanding: true,
	}).Error)

	w = h.do(http.MethodGet, "/facilities", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "fac-1")

	w = h.do(http.MethodGet, "/facilities/fac-1/tenants", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "A-101")
}
