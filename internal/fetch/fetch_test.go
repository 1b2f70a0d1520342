package fetch

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/GriffinCanCode/widgetkit/internal/dom"
	"github.com/GriffinCanCode/widgetkit/internal/httpclient"
	"github.com/GriffinCanCode/widgetkit/internal/infrastructure/logging"
	"github.com/GriffinCanCode/widgetkit/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/widgetkit/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/widgetkit/internal/widget"
)

const page = `<html><body>
<canvas id="chart1"></canvas>
<table id="example"><thead><tr></tr></thead><tbody></tbody></table>
</body></html>`

func newFetcher(t *testing.T, opts ...Option) (*Fetcher, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	logger := &logging.Logger{Logger: zap.New(core)}
	return New(httpclient.New(httpclient.DefaultConfig()), logger, opts...), logs
}

func newDoc(t *testing.T) *dom.Document {
	t.Helper()
	doc, err := dom.ParseString(page)
	require.NoError(t, err)
	return doc
}

func jsonServer(t *testing.T, body string, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			hits.Add(1)
		}
		assert.Equal(t, http.MethodGet, r.Method)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestChart(t *testing.T) {
	server := jsonServer(t, `{"count":2,"label":["a","b"],"data":[1,2],"color":["rgb(1,2,3)","rgb(4,5,6)"]}`, nil)
	metrics := monitoring.NewMetrics()
	f, _ := newFetcher(t, WithMetrics(metrics))
	doc := newDoc(t)

	c, err := f.Chart(context.Background(), doc, widget.Request{
		Selector:  "chart1",
		SourceURL: server.URL,
		Kind:      widget.Bar,
		Label:     "Testing",
	})
	require.NoError(t, err)

	assert.Equal(t, widget.Bar, c.Config.Type)
	assert.Equal(t, []string{"a", "b"}, c.Config.Data.Labels)
	require.Len(t, c.Config.Data.Datasets, 1)
	assert.Equal(t, "Testing", c.Config.Data.Datasets[0].Label)
	assert.Equal(t, []float64{1, 2}, c.Config.Data.Datasets[0].Data)

	_, attached := doc.Attr("#chart1", "data-widget-config")
	assert.True(t, attached)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Fetches.WithLabelValues("bar", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.WidgetBuilds.WithLabelValues("bar")))
}

func TestChartAnimationOption(t *testing.T) {
	server := jsonServer(t, `{"label":["a"],"data":[1]}`, nil)
	f, _ := newFetcher(t, WithAnimation(500))

	c, err := f.Chart(context.Background(), newDoc(t), widget.Request{Selector: "chart1", SourceURL: server.URL, Kind: widget.Line})
	require.NoError(t, err)

	assert.Equal(t, 500, c.Config.Options.Animation.Duration)
	assert.Equal(t, "Graph", c.Config.Data.Datasets[0].Label)
}

func TestTableStaticColumnsIssuesNoRequest(t *testing.T) {
	var hits atomic.Int32
	server := jsonServer(t, `[]`, &hits)
	f, _ := newFetcher(t)
	doc := newDoc(t)

	tbl, err := f.Table(context.Background(), doc, "#example", server.URL, TableOptions{
		StaticColumns: true,
		Columns:       []string{"id", "email", "active"},
		Edit:          true,
		PageURL:       "http://host/users",
	})
	require.NoError(t, err)

	assert.Equal(t, int32(0), hits.Load())
	require.NotNil(t, tbl.Config.Ajax)
	assert.Equal(t, server.URL, tbl.Config.Ajax.URL)
	assert.Nil(t, tbl.Config.Data)
	assert.Equal(t, []string{"id", "email", "active", "edit"}, doc.Headers("#example"))
}

func TestTableDynamicColumns(t *testing.T) {
	var hits atomic.Int32
	server := jsonServer(t, `{"columns":["id","email"],"data":[[1,"a@x"],[2,"b@x"]]}`, &hits)
	f, _ := newFetcher(t)
	doc := newDoc(t)

	tbl, err := f.Table(context.Background(), doc, "#example", server.URL, TableOptions{Edit: true})
	require.NoError(t, err)

	assert.Equal(t, int32(1), hits.Load())
	assert.Nil(t, tbl.Config.Ajax)
	assert.Equal(t, [][]any{{float64(1), "a@x"}, {float64(2), "b@x"}}, tbl.Config.Data)
	assert.Equal(t, []string{"id", "email", "edit"}, doc.Headers("#example"))
}

func TestTableDynamicIgnoresManualColumns(t *testing.T) {
	server := jsonServer(t, `{"columns":["id"],"data":[[1]]}`, nil)
	f, _ := newFetcher(t)
	doc := newDoc(t)

	_, err := f.Table(context.Background(), doc, "#example", server.URL, TableOptions{Columns: []string{"ignored"}})
	require.NoError(t, err)

	assert.Equal(t, []string{"id"}, doc.Headers("#example"))
}

func TestTableBareMatrix(t *testing.T) {
	server := jsonServer(t, `[[1,"a"],[2,"b"]]`, nil)
	f, _ := newFetcher(t)
	doc := newDoc(t)

	tbl, err := f.Table(context.Background(), doc, "#example", server.URL, TableOptions{})
	require.NoError(t, err)

	assert.Len(t, tbl.Config.Data, 2)
	assert.Empty(t, doc.Headers("#example"))
}

func TestFetchFailureIsLogged(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, "database down")
	}))
	defer server.Close()

	metrics := monitoring.NewMetrics()
	f, logs := newFetcher(t, WithMetrics(metrics))
	doc := newDoc(t)

	_, err := f.Table(context.Background(), doc, "#example", server.URL, TableOptions{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrFetch)
	assert.ErrorIs(t, err, httpclient.ErrStatus)

	entries := logs.FilterMessage("widget data request failed").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, int64(500), fields["status"])
	assert.Equal(t, "database down", fields["body"])

	// Nothing was drawn
	assert.Empty(t, doc.Headers("#example"))
	assert.Empty(t, doc.Changes())
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Fetches.WithLabelValues("table", "error")))
}

func TestFetchMalformedBody(t *testing.T) {
	server := jsonServer(t, `<html>login</html>`, nil)
	f, logs := newFetcher(t)

	_, err := f.Chart(context.Background(), newDoc(t), widget.Request{Selector: "chart1", SourceURL: server.URL, Kind: widget.Pie})
	assert.ErrorIs(t, err, ErrFetch)
	assert.Equal(t, 1, logs.FilterMessage("widget data response has unexpected shape").Len())
}

func TestFetchMissingTarget(t *testing.T) {
	server := jsonServer(t, `{"columns":["id"],"data":[]}`, nil)
	f, _ := newFetcher(t)

	_, err := f.Table(context.Background(), dom.New(), "#example", server.URL, TableOptions{})
	assert.ErrorIs(t, err, dom.ErrTargetNotFound)

	chartServer := jsonServer(t, `{"label":[],"data":[]}`, nil)
	_, err = f.Chart(context.Background(), dom.New(), widget.Request{Selector: "gone", SourceURL: chartServer.URL, Kind: widget.Bar})
	assert.ErrorIs(t, err, dom.ErrTargetNotFound)
}

func TestFetchOpensSpan(t *testing.T) {
	var traceID, spanID atomic.Value
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID.Store(r.Header.Get(tracing.TraceHeader))
		spanID.Store(r.Header.Get(tracing.SpanHeader))
		_, _ = io.WriteString(w, `{"label":["a"],"data":[1]}`)
	}))
	t.Cleanup(server.Close)

	core, spans := observer.New(zapcore.DebugLevel)
	tracer := tracing.New("widgetkit", &logging.Logger{Logger: zap.New(core)})
	t.Cleanup(tracer.Close)

	f, _ := newFetcher(t, WithTracer(tracer))
	ctx := tracing.WithTraceContext(context.Background(), "page-trace", "page-span")
	_, err := f.Chart(ctx, newDoc(t), widget.Request{Kind: widget.Bar, Selector: "chart1", SourceURL: server.URL})
	require.NoError(t, err)

	assert.Equal(t, "page-trace", traceID.Load())
	assert.NotEqual(t, "page-span", spanID.Load())

	require.Eventually(t, func() bool {
		return spans.FilterMessage("span completed").Len() == 1
	}, time.Second, 10*time.Millisecond)
	fields := spans.FilterMessage("span completed").All()[0].ContextMap()
	assert.Equal(t, "fetch bar", fields["operation"])
	assert.Equal(t, "page-span", fields["parent_id"])
	assert.Equal(t, server.URL, fields["url"])
	assert.Equal(t, int64(http.StatusOK), fields["status"])
}
