package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/widgetkit/internal/dom"
	"github.com/GriffinCanCode/widgetkit/internal/httpclient"
	"github.com/GriffinCanCode/widgetkit/internal/infrastructure/logging"
	"github.com/GriffinCanCode/widgetkit/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/widgetkit/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/widgetkit/internal/widget"
	"github.com/GriffinCanCode/widgetkit/internal/widget/chart"
	"github.com/GriffinCanCode/widgetkit/internal/widget/table"
)

// ErrFetch wraps every failure to obtain widget data.
var ErrFetch = errors.New("widget data request failed")

// ChartEnvelope is what a chart data endpoint returns.
type ChartEnvelope struct {
	Label []string  `json:"label"`
	Data  []float64 `json:"data"`
}

// TableEnvelope is what a table data endpoint returns. A bare row matrix
// decodes into Data with no Columns.
type TableEnvelope struct {
	Columns []string `json:"columns"`
	Data    [][]any  `json:"data"`
}

// TableOptions selects how a table is sourced.
type TableOptions struct {
	// StaticColumns hands the URL to the table library and issues no request;
	// headers come from Columns. Otherwise the URL is fetched once and
	// headers come from the envelope's columns.
	StaticColumns bool
	Columns       []string
	Edit          bool
	PageURL       string
}

// Fetcher loads widget data and hands it to the builders.
type Fetcher struct {
	client      *httpclient.Client
	logger      *logging.Logger
	metrics     *monitoring.Metrics
	tracer      *tracing.Tracer
	animationMS int
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithMetrics records fetch outcomes and widget builds.
func WithMetrics(m *monitoring.Metrics) Option {
	return func(f *Fetcher) { f.metrics = m }
}

// WithTracer opens a span per data request; the request carries its ids.
func WithTracer(t *tracing.Tracer) Option {
	return func(f *Fetcher) { f.tracer = t }
}

// WithAnimation sets the chart entrance animation duration.
func WithAnimation(ms int) Option {
	return func(f *Fetcher) { f.animationMS = ms }
}

// New creates a Fetcher.
func New(client *httpclient.Client, logger *logging.Logger, opts ...Option) *Fetcher {
	if logger == nil {
		logger = logging.Nop()
	}
	f := &Fetcher{
		client: client,
		logger: logger.Named("fetch"),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Chart requests {label, data} from req.SourceURL and draws a chart of
// req.Kind into the element whose id is req.Selector.
func (f *Fetcher) Chart(ctx context.Context, doc *dom.Document, req widget.Request) (*chart.Chart, error) {
	body, err := f.get(ctx, req.Kind, req.SourceURL)
	if err != nil {
		return nil, err
	}
	var env ChartEnvelope
	if err := f.decode(req.Kind, req.SourceURL, body, &env); err != nil {
		return nil, err
	}

	cfg := chart.Build(req.Kind, env.Label, env.Data, chart.Options{
		Title:       req.Label,
		AnimationMS: f.animationMS,
	})
	c, err := chart.Draw(doc, req.Selector, cfg)
	if err != nil {
		return nil, err
	}
	f.metrics.RecordWidgetBuild(string(req.Kind))
	return c, nil
}

// Table draws a table into selector. See TableOptions for the two modes.
func (f *Fetcher) Table(ctx context.Context, doc *dom.Document, selector, url string, opts TableOptions) (*table.Table, error) {
	if opts.StaticColumns {
		t, err := table.Draw(doc, selector, table.Options{
			Source:  table.Ajax(url),
			Columns: opts.Columns,
			Edit:    opts.Edit,
			PageURL: opts.PageURL,
		})
		if err != nil {
			return nil, err
		}
		f.metrics.RecordWidgetBuild(string(widget.Table))
		return t, nil
	}

	env, err := f.tableEnvelope(ctx, url)
	if err != nil {
		return nil, err
	}

	if !doc.Exists(selector) {
		return nil, fmt.Errorf("failed to attach table: %w: %q", dom.ErrTargetNotFound, selector)
	}
	for _, name := range env.Columns {
		doc.AppendHeader(selector, name)
	}

	t, err := table.Draw(doc, selector, table.Options{
		Source:  table.Inline(env.Data),
		Edit:    opts.Edit,
		PageURL: opts.PageURL,
	})
	if err != nil {
		return nil, err
	}
	f.metrics.RecordWidgetBuild(string(widget.Table))
	return t, nil
}

func (f *Fetcher) tableEnvelope(ctx context.Context, url string) (*TableEnvelope, error) {
	body, err := f.get(ctx, widget.Table, url)
	if err != nil {
		return nil, err
	}

	var env TableEnvelope
	if bytes.HasPrefix(body, []byte("[")) {
		err = f.decode(widget.Table, url, body, &env.Data)
	} else {
		err = f.decode(widget.Table, url, body, &env)
	}
	if err != nil {
		return nil, err
	}
	return &env, nil
}

// get issues the single GET for a widget. Failures are logged with the raw
// result and returned wrapped in ErrFetch.
func (f *Fetcher) get(ctx context.Context, kind widget.Kind, url string) ([]byte, error) {
	timer := monitoring.NewTimer(f.metrics, string(kind))
	span, ctx := f.tracer.StartSpan(ctx, "fetch "+string(kind))
	span.SetTag("url", url)
	defer f.tracer.End(span)

	resp, err := f.client.Get(ctx, url)
	if resp != nil {
		span.SetStatus(resp.Status)
	}
	span.SetError(err)
	if err != nil {
		fields := []zap.Field{
			zap.String("kind", string(kind)),
			zap.String("url", url),
			zap.Error(err),
		}
		if resp != nil {
			fields = append(fields, zap.Int("status", resp.Status), zap.ByteString("body", resp.Body))
		}
		f.logger.Error("widget data request failed", fields...)
		timer.Stop("error")
		return nil, fmt.Errorf("%w: %w", ErrFetch, err)
	}

	timer.Stop("success")
	return bytes.TrimSpace(resp.Body), nil
}

func (f *Fetcher) decode(kind widget.Kind, url string, body []byte, v any) error {
	if err := httpclient.DecodeJSON(body, v); err != nil {
		f.logger.Error("widget data response has unexpected shape",
			zap.String("kind", string(kind)),
			zap.String("url", url),
			zap.ByteString("body", body),
			zap.Error(err),
		)
		return fmt.Errorf("%w: %w", ErrFetch, err)
	}
	return nil
}
