package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/dashpoultry/internal/backup"
	"github.com/mamadbah2/dashpoultry/internal/config"
	"github.com/mamadbah2/dashpoultry/internal/eventloop"
	"github.com/mamadbah2/dashpoultry/internal/repository/sqlite"
	"github.com/mamadbah2/dashpoultry/internal/server/handlers"
	"github.com/mamadbah2/dashpoultry/internal/service/alerts"
	"github.com/mamadbah2/dashpoultry/internal/service/dashboard"
	"github.com/mamadbah2/dashpoultry/internal/service/farm"
	"github.com/mamadbah2/dashpoultry/internal/service/importer"
	"github.com/mamadbah2/dashpoultry/internal/service/reporting"
	"github.com/mamadbah2/dashpoultry/internal/service/shell"
	"github.com/mamadbah2/dashpoultry/internal/statebus"
)

func newEngine(t *testing.T) *gin.Engine {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())

	dir := t.TempDir()
	store, err := sqlite.Open(ctx, filepath.Join(dir, "router.db"), "", nil)
	require.NoError(t, err)
	_, err = store.SeedAdmin(ctx, "admin", "admin")
	require.NoError(t, err)

	loop := eventloop.New(nil)
	go loop.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-loop.Done()
		_ = store.Close()
	})

	bus := statebus.New(store, nil)
	nav := statebus.NewNavigator(nil, nil)
	farmSvc := farm.NewService(store, bus, loop, nil, nil)
	view := dashboard.NewView(bus, nil)
	sh := shell.New(nav, nil)
	manager := importer.NewManager(importer.NewWorker(store, nil), loop, bus, nil, nil)
	checker := alerts.NewChecker(store, alerts.DefaultThresholds(), nil, nil)

	require.NoError(t, loop.Call(ctx, func() error {
		if _, err := sh.Attach(); err != nil {
			return err
		}
		return view.Attach(ctx)
	}))

	return New(Handlers{
		Auth: handlers.NewAuthHandler(farmSvc, nil),
		Farm: handlers.NewFarmHandler(farmSvc, nil),
		State: handlers.NewStateHandler(handlers.StateDeps{
			Farm:      farmSvc,
			Loop:      loop,
			Dashboard: view,
			Shell:     sh,
			Navigator: nav,
			Reports:   reporting.NewService(store, nil),
		}, nil),
		Ops: handlers.NewOpsHandler(handlers.OpsDeps{
			Loop:      loop,
			Imports:   manager,
			Alerts:    checker,
			Backups:   backup.NewService(store, nil, config.BackupConfig{}, nil),
			BackupDir: filepath.Join(dir, "backups"),
		}, nil),
		Webhook: handlers.NewWebhookHandler(nil, nil),
	}, gin.TestMode, nil)
}

func do(t *testing.T, r http.Handler, method, path string, body interface{}, auth bool) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if auth {
		req.SetBasicAuth("admin", "admin")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealthzIsOpen(t *testing.T) {
	r := newEngine(t)
	w := do(t, r, http.MethodGet, "/healthz", nil, false)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestAPIRequiresBasicAuth(t *testing.T) {
	r := newEngine(t)

	w := do(t, r, http.MethodGet, "/api/batches", nil, false)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Header().Get("WWW-Authenticate"), "Basic")

	w = do(t, r, http.MethodGet, "/api/batches", nil, true)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestLogin(t *testing.T) {
	r := newEngine(t)

	w := do(t, r, http.MethodPost, "/api/login", map[string]string{"username": "admin", "password": "nope"}, false)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(t, r, http.MethodPost, "/api/login", map[string]string{"username": "admin", "password": "admin"}, false)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCreateBatchUpdatesSummariesAndDashboard(t *testing.T) {
	r := newEngine(t)
	batch := map[string]interface{}{"batch_id": "B001", "num_chicks": 500, "breed": "Broiler", "date_in": "2024-03-01"}

	w := do(t, r, http.MethodPost, "/api/batches", batch, true)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = do(t, r, http.MethodPost, "/api/batches", batch, true)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(t, r, http.MethodGet, "/api/summaries", nil, true)
	require.Equal(t, http.StatusOK, w.Code)
	var sums struct {
		Batch struct {
			Total int `json:"total"`
		} `json:"batch"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sums))
	assert.Equal(t, 1, sums.Batch.Total)

	w = do(t, r, http.MethodGet, "/api/dashboard", nil, true)
	require.Equal(t, http.StatusOK, w.Code)
	var snap dashboard.Snapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	assert.Equal(t, 1, snap.Summaries.Batch.Total)
	assert.GreaterOrEqual(t, snap.Refreshes, 2)
}

func TestInvalidBatchIsRejected(t *testing.T) {
	r := newEngine(t)
	w := do(t, r, http.MethodPost, "/api/batches", map[string]interface{}{"batch_id": "B001", "num_chicks": 10}, true)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestNavigation(t *testing.T) {
	r := newEngine(t)

	w := do(t, r, http.MethodPost, "/api/navigation", map[string]interface{}{
		"module":  "batches",
		"context": map[string]string{"batch_id": "B001"},
	}, true)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var st shell.State
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &st))
	assert.Equal(t, "batches", st.Active)

	w = do(t, r, http.MethodGet, "/api/navigation/context/batches", nil, true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"batch_id":"B001"}`, w.Body.String())

	w = do(t, r, http.MethodPost, "/api/navigation", map[string]interface{}{"module": ""}, true)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodPost, "/api/navigation", map[string]interface{}{
		"module":  "chickens",
		"context": map[string]string{"batch_id": "B002"},
	}, true)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "unknown module")

	w = do(t, r, http.MethodGet, "/api/navigation/context/chickens", nil, true)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestImportFields(t *testing.T) {
	r := newEngine(t)

	w := do(t, r, http.MethodGet, "/api/imports/fields/batches", nil, true)
	require.Equal(t, http.StatusOK, w.Code)
	var fields struct {
		Required []string `json:"required"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &fields))
	assert.Contains(t, fields.Required, "batch_id")

	w = do(t, r, http.MethodGet, "/api/imports/fields/chickens", nil, true)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodGet, "/api/imports/nope", nil, true)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSheetImportWithoutSheetsIsUnavailable(t *testing.T) {
	r := newEngine(t)
	w := do(t, r, http.MethodPost, "/api/imports", map[string]interface{}{
		"table":       "batches",
		"sheet_range": "Batches!A:F",
		"mapping":     map[string]string{"batch_id": "ID"},
	}, true)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestThresholdUpdatesAreAtomic(t *testing.T) {
	r := newEngine(t)

	w := do(t, r, http.MethodPut, "/api/alerts/thresholds", map[string]float64{"feed_low": 50, "bogus": 1}, true)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodGet, "/api/alerts/thresholds", nil, true)
	require.Equal(t, http.StatusOK, w.Code)
	var th alerts.Thresholds
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &th))
	assert.Equal(t, alerts.DefaultThresholds(), th)

	w = do(t, r, http.MethodPut, "/api/alerts/thresholds", map[string]float64{"feed_low": 50}, true)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &th))
	assert.Equal(t, 50.0, th.FeedLowKg)
}

func TestChangePassword(t *testing.T) {
	r := newEngine(t)

	w := do(t, r, http.MethodPut, "/api/admin/password", map[string]string{"current_password": "admin", "new_password": "s3cret"}, true)
	require.Equal(t, http.StatusNoContent, w.Code, w.Body.String())

	w = do(t, r, http.MethodGet, "/api/batches", nil, true)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestWebhookWithoutWhatsAppIsUnavailable(t *testing.T) {
	r := newEngine(t)
	w := do(t, r, http.MethodGet, "/webhook?hub.mode=subscribe&hub.verify_token=x&hub.challenge=1", nil, false)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestBackupsRoundTrip(t *testing.T) {
	r := newEngine(t)

	w := do(t, r, http.MethodPost, "/api/backups", nil, true)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = do(t, r, http.MethodGet, "/api/backups", nil, true)
	require.Equal(t, http.StatusOK, w.Code)
	var infos []backup.Info
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &infos))
	assert.Len(t, infos, 1)
}
