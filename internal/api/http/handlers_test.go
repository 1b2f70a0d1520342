package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/GriffinCanCode/widgetkit/internal/dashboard"
	"github.com/GriffinCanCode/widgetkit/internal/fetch"
	"github.com/GriffinCanCode/widgetkit/internal/httpclient"
	"github.com/GriffinCanCode/widgetkit/internal/infrastructure/logging"
	"github.com/GriffinCanCode/widgetkit/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/widgetkit/internal/notify"
	"github.com/GriffinCanCode/widgetkit/internal/sandbox"
	"github.com/GriffinCanCode/widgetkit/internal/source"
)

type harness struct {
	server   *httptest.Server
	store    *source.Store
	recorder *notify.Recorder
	logs     *observer.ObservedLogs
}

// newHarness serves the handlers from a test server whose own URL is the
// base for widget fetches, so dashboards read from the live data endpoint.
func newHarness(t *testing.T) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	router := gin.New()
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	core, logs := observer.New(zapcore.DebugLevel)
	logger := &logging.Logger{Logger: zap.New(core)}
	store, err := source.Open(":memory:", logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	require.NoError(t, store.Seed(context.Background()))

	catalog, err := dashboard.NewCatalog(dashboard.Dashboard{
		Name:  "ops",
		Title: "Operations",
		Widgets: []dashboard.Widget{
			{Kind: "bar", ID: "events", URL: "/api/data/events?groupby=kind,count&orderby=count,desc&as_chartjs=true", Label: "Events"},
			{Kind: "table", ID: "users", URL: "/api/data/users?inc_fields=id,username,role&as_datatables=true", Edit: true},
			{Kind: "pie", ID: "missing", URL: "/api/data/nope?as_chartjs=true"},
		},
	})
	require.NoError(t, err)

	client := httpclient.New(httpclient.Config{BaseURL: server.URL, Timeout: 5 * time.Second})
	metrics := monitoring.NewMetrics()
	renderer := dashboard.NewRenderer(fetch.New(client, logger, fetch.WithMetrics(metrics)), logger, server.URL)
	recorder := &notify.Recorder{}
	notifier := notify.New(client, recorder, logger, metrics)

	pool, err := sandbox.NewPool(sandbox.DefaultConfig(), 1)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pool.Close() })

	NewHandlers(store, catalog, renderer, notifier, pool, client, metrics, logger).Register(router)

	return &harness{server: server, store: store, recorder: recorder, logs: logs}
}

func (h *harness) do(t *testing.T, method, path, body string) (*http.Response, []byte) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, h.server.URL+path, reader)
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, out
}

func decode(t *testing.T, body []byte) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(body, &out), string(body))
	return out
}

func TestRootAndHealth(t *testing.T) {
	h := newHarness(t)

	resp, body := h.do(t, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	root := decode(t, body)
	assert.Equal(t, "online", root["status"])
	assert.Equal(t, []any{"ops"}, root["dashboards"])

	resp, body = h.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	health := decode(t, body)
	assert.Equal(t, "healthy", health["status"])
	assert.Equal(t, []any{}, health["upstream"].(map[string]any)["open_breakers"])
	assert.ElementsMatch(t, []any{"users", "events"}, health["store"].(map[string]any)["tables"])
}

func TestQueryData(t *testing.T) {
	h := newHarness(t)

	resp, body := h.do(t, http.MethodGet, "/api/data/users?orderby=id&limit=2", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	out := decode(t, body)
	assert.EqualValues(t, 2, out["count"])
	assert.EqualValues(t, 5, out["total"])
	rows := out["data"].([]any)
	require.Len(t, rows, 2)
	assert.Equal(t, "ada", rows[0].(map[string]any)["username"])
	assert.NotContains(t, rows[0], "password_hash")

	resp, body = h.do(t, http.MethodGet, "/api/data/users?inc_fields=id,username&as_datatables=true&limit=1", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	table := decode(t, body)
	assert.Equal(t, []any{"id", "username"}, table["columns"])
}

func TestQueryDataErrors(t *testing.T) {
	h := newHarness(t)

	tests := []struct {
		name   string
		path   string
		status int
	}{
		{"unknown table", "/api/data/nope", http.StatusNotFound},
		{"unknown field", "/api/data/users?orderby=bogus", http.StatusBadRequest},
		{"bad limit", "/api/data/users?limit=-1", http.StatusBadRequest},
		{"restricted field", "/api/data/users?inc_fields=password_hash", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := h.do(t, http.MethodGet, tt.path, "")
			assert.Equal(t, tt.status, resp.StatusCode)
			msg := decode(t, body)
			assert.Equal(t, false, msg["result"])
			assert.Equal(t, notify.TypeWarning, msg["type"])
		})
	}
}

func TestInsertAndDelete(t *testing.T) {
	h := newHarness(t)

	resp, body := h.do(t, http.MethodPost, "/api/data/users", `{"email":"dennis@example.com","username":"dennis"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	msg := decode(t, body)
	assert.Equal(t, "Record 6 added to users", msg["message"])
	assert.Equal(t, notify.TypeSuccess, msg["type"])

	resp, _ = h.do(t, http.MethodPost, "/api/data/users", `not json`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = h.do(t, http.MethodDelete, "/api/data/users/abc", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = h.do(t, http.MethodDelete, "/api/data/users/999", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body = h.do(t, http.MethodDelete, "/api/data/users/6", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Record 6 deleted from users", decode(t, body)["message"])
}

func TestRenderDashboard(t *testing.T) {
	h := newHarness(t)

	resp, body := h.do(t, http.MethodGet, "/dashboards/ops", "")
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
	assert.Equal(t, "2", resp.Header.Get("X-Widgets-Rendered"))
	assert.Equal(t, "1", resp.Header.Get("X-Widgets-Failed"))

	page := string(body)
	assert.Contains(t, page, "<title>Operations</title>")
	assert.Contains(t, page, `new Chart(document.getElementById("events")`)
	assert.Contains(t, page, `"login"`)
	assert.Contains(t, page, `"`+h.server.URL+`/dashboards/ops"`)

	resp, _ = h.do(t, http.MethodGet, "/dashboards/nope", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestPreviewDashboard(t *testing.T) {
	h := newHarness(t)

	resp, body := h.do(t, http.MethodGet, "/api/dashboards/ops/preview", "")
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	out := decode(t, body)

	assert.EqualValues(t, 2, out["rendered"])
	assert.NotContains(t, out, "error")
	failures := out["failures"].([]any)
	require.Len(t, failures, 1)
	assert.Equal(t, "missing", failures[0].(map[string]any)["id"])

	widgets := out["widgets"].([]any)
	require.Len(t, widgets, 2)
	for _, w := range widgets {
		assert.Equal(t, true, w.(map[string]any)["found"])
	}
}

func TestListDashboards(t *testing.T) {
	h := newHarness(t)

	resp, body := h.do(t, http.MethodGet, "/api/dashboards", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	out := decode(t, body)
	assert.EqualValues(t, 1, out["count"])
}

func TestNotify(t *testing.T) {
	h := newHarness(t)

	resp, body := h.do(t, http.MethodPost, "/api/notify",
		`{"url":"/api/data/users","payload":{"email":"rob@example.com","username":"rob"}}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	note := decode(t, body)
	assert.Equal(t, "Record 6 added to users", note["message"])
	assert.Equal(t, notify.TypeSuccess, note["type"])

	last, ok := h.recorder.Last()
	require.True(t, ok)
	assert.Equal(t, notify.TypeSuccess, last.Type)

	// A failed action still answers 200 with the generic danger notification.
	resp, body = h.do(t, http.MethodPost, "/api/notify", `{"url":"/api/data/nope","method":"get"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, notify.Failed.Message, decode(t, body)["message"])
}

func TestNotifyRejectsAbsoluteURL(t *testing.T) {
	h := newHarness(t)

	for _, url := range []string{"http://elsewhere.example/x", "//elsewhere.example/x", "relative"} {
		resp, _ := h.do(t, http.MethodPost, "/api/notify", `{"url":"`+url+`"}`)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, url)
	}
	assert.Empty(t, h.recorder.Shown())

	resp, _ := h.do(t, http.MethodPost, "/api/notify", `{"url":"/x","method":"TRACE"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestReportLogs(t *testing.T) {
	h := newHarness(t)

	resp, body := h.do(t, http.MethodPost, "/api/logs", `{
		"dashboard": "ops",
		"entries": [
			{"level": "error", "message": "widget data request failed", "widget": "events", "context": {"status": 500}},
			{"message": "drawn", "widget": "users"}
		]
	}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.EqualValues(t, 2, decode(t, body)["entries_received"])

	client := h.logs.Filter(func(e observer.LoggedEntry) bool { return e.LoggerName == "api.client" })
	assert.Equal(t, 2, client.Len())
	errs := client.FilterMessage("widget data request failed").All()
	require.Len(t, errs, 1)
	assert.Equal(t, zapcore.ErrorLevel, errs[0].Level)
	fields := errs[0].ContextMap()
	assert.Equal(t, "ops", fields["dashboard"])
	assert.Equal(t, "events", fields["widget"])
	assert.EqualValues(t, 500, fields["status"])

	resp, _ = h.do(t, http.MethodPost, "/api/logs", `{"entries": []}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = h.do(t, http.MethodPost, "/api/logs", `{"entries": [{"level": "info"}]}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
