package app

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/abhimanyukatariya/msh-interactive-dashboard/internal/config"
	"github.com/abhimanyukatariya/msh-interactive-dashboard/internal/dataset"
	ws "github.com/abhimanyukatariya/msh-interactive-dashboard/internal/websocket"
)

var cohortHeaders = []any{
	dataset.ColumnStartup, dataset.ColumnAccelerator, dataset.ColumnSector,
	dataset.ColumnTechnology, dataset.ColumnTRL, dataset.ColumnState, dataset.ColumnStage,
}

func writeCohort(t *testing.T, headers []any, rows ...[]any) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	sheet := dataset.DefaultSheet
	require.NoError(t, f.SetSheetName(f.GetSheetName(0), sheet))
	require.NoError(t, f.SetSheetRow(sheet, "A1", &headers))
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}
	path := filepath.Join(t.TempDir(), "cohort.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func testApp(t *testing.T, workbook string) *Application {
	t.Helper()
	cfg := config.Default()
	cfg.Data.Path = workbook
	cfg.Data.Sheet = dataset.DefaultSheet
	cfg.Security.RateLimit.Enabled = false

	a, err := New(context.Background(), cfg, "test", slog.New(slog.NewJSONHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(func() { a.Telemetry.Shutdown(context.Background()) })
	return a
}

func get(t *testing.T, srv *httptest.Server, path string) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := http.Get(srv.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	var body map[string]any
	if strings.Contains(resp.Header.Get("Content-Type"), "json") {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	}
	return resp, body
}

func TestApplication_ServesDashboard(t *testing.T) {
	a := testApp(t, writeCohort(t, cohortHeaders,
		[]any{"Alpha", "Acc One", "Health", "AI", "TRL 4", "Kerala", "PMF"},
		[]any{"Beta", "Acc One", "Agri", "IoT", 8, "Goa", "Ideation"},
		[]any{"Gamma", "Acc Two", "Agri", "AI", "N/A", "Goa", "Scale-up"},
	))
	require.NoError(t, a.Warmup(context.Background()))

	srv := httptest.NewServer(a.Router)
	defer srv.Close()

	resp, body := get(t, srv, "/api/dashboard?state=Goa")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
	summary := body["data"].(map[string]any)["summary"].(map[string]any)
	assert.Equal(t, float64(2), summary["total_startups"])
	assert.Equal(t, float64(8), summary["most_common_trl"])

	resp, body = get(t, srv, "/api/views/trl")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(2), body["count"])

	resp, _ = get(t, srv, "/api/health/ready")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = get(t, srv, "/api/views/funding")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "VIEW_NOT_FOUND", body["error_code"])

	resp, body = get(t, srv, "/nowhere")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, float64(http.StatusNotFound), body["status"])

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	metrics, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Contains(t, string(metrics), "dataset_loads_total")
	assert.Contains(t, string(metrics), "dashboard_builds_total")
}

func TestApplication_WebSocket(t *testing.T) {
	a := testApp(t, writeCohort(t, cohortHeaders,
		[]any{"Alpha", "Acc One", "Health", "AI", "TRL 4", "Kerala", "PMF"},
	))
	srv := httptest.NewServer(a.Router)
	defer srv.Close()

	conn, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws/dashboard", nil)
	require.NoError(t, err)
	resp.Body.Close()
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(ws.Request{Type: ws.TypeRefresh, ID: "r1"}))
	var reply ws.Reply
	require.NoError(t, conn.ReadJSON(&reply))
	assert.Equal(t, ws.TypeDashboard, reply.Type)
	require.NotNil(t, reply.Data)
	assert.Equal(t, 1, reply.Data.Summary.TotalStartups)

	a.WebSocketHub.Close(context.Background())
}

func TestApplication_WarmupFailsOnSchema(t *testing.T) {
	a := testApp(t, writeCohort(t, cohortHeaders[:5],
		[]any{"Alpha", "Acc One", "Health", "AI", "TRL 4"},
	))

	err := a.Warmup(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, dataset.ErrSchema)

	srv := httptest.NewServer(a.Router)
	defer srv.Close()
	resp, body := get(t, srv, "/api/dashboard")
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "DATASET_SCHEMA_INVALID", body["error_code"])
}

func TestApplication_MissingWorkbookUnavailable(t *testing.T) {
	a := testApp(t, filepath.Join(t.TempDir(), "absent.xlsx"))
	srv := httptest.NewServer(a.Router)
	defer srv.Close()

	resp, body := get(t, srv, "/api/summary")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "DATASET_UNAVAILABLE", body["error_code"])

	resp, _ = get(t, srv, "/api/health/ready")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestNewSource(t *testing.T) {
	src, err := NewSource(context.Background(), config.DataConfig{Source: config.SourceExcel, Path: "x.xlsx"}, nil)
	require.NoError(t, err)
	assert.IsType(t, &dataset.ExcelSource{}, src)

	_, err = NewSource(context.Background(), config.DataConfig{Source: "csv"}, nil)
	assert.Error(t, err)

	_, err = NewSource(context.Background(), config.DataConfig{Source: config.SourceSheets}, nil)
	assert.ErrorIs(t, err, dataset.ErrNoSource)
}
