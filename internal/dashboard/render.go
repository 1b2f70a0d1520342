package dashboard

import (
	"context"
	"fmt"
	"html"
	"strings"
	"sync"
	"time"

	"github.com/GriffinCanCode/widgetkit/internal/dom"
	"github.com/GriffinCanCode/widgetkit/internal/fetch"
	"github.com/GriffinCanCode/widgetkit/internal/infrastructure/logging"
	"github.com/GriffinCanCode/widgetkit/internal/script"
	"github.com/GriffinCanCode/widgetkit/internal/widget"
	"github.com/GriffinCanCode/widgetkit/internal/widget/chart"
	"github.com/GriffinCanCode/widgetkit/internal/widget/table"
	"go.uber.org/zap"
)

// Libraries are the browser scripts a rendered page loads, in order.
var Libraries = []string{
	"https://code.jquery.com/jquery-3.7.1.min.js",
	"https://cdn.datatables.net/1.13.8/js/jquery.dataTables.min.js",
	"https://cdn.jsdelivr.net/npm/chart.js@2.9.4/dist/Chart.min.js",
	"https://cdn.jsdelivr.net/npm/chartjs-plugin-colorschemes@0.4.0/dist/chartjs-plugin-colorschemes.min.js",
}

// Stylesheets are linked from the rendered page head.
var Stylesheets = []string{
	"https://cdn.datatables.net/1.13.8/css/jquery.dataTables.min.css",
}

// Failure is a widget that could not be rendered.
type Failure struct {
	ID    string `json:"id"`
	Kind  string `json:"kind"`
	Error string `json:"error"`
}

// Page is a rendered dashboard.
type Page struct {
	Dashboard Dashboard
	Doc       *dom.Document
	// Script initializes the widgets that rendered; it is also embedded in Doc.
	Script   string
	Rendered int
	Failures []Failure
	Duration time.Duration
}

// HTML renders the full page.
func (p *Page) HTML() (string, error) {
	return p.Doc.HTML()
}

// Renderer turns dashboards into pages.
type Renderer struct {
	fetcher *fetch.Fetcher
	logger  *logging.Logger
	baseURL string
}

// NewRenderer creates a Renderer. baseURL prefixes edit links when a widget
// sets no page_url.
func NewRenderer(fetcher *fetch.Fetcher, logger *logging.Logger, baseURL string) *Renderer {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Renderer{
		fetcher: fetcher,
		logger:  logger.Named("dashboard"),
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// outcome is one widget's result; exactly one of chart or table is set on success.
type outcome struct {
	chart *chart.Chart
	table *table.Table
	err   error
}

// Render builds the page skeleton and initializes every widget concurrently.
// A widget that fails is logged and left out of the script; the others still
// render. Render fails only when the page itself cannot be assembled.
func (r *Renderer) Render(ctx context.Context, d Dashboard) (*Page, error) {
	start := time.Now()

	doc, err := dom.ParseString(skeleton(d))
	if err != nil {
		return nil, err
	}

	results := make([]outcome, len(d.Widgets))
	var wg sync.WaitGroup
	for i, w := range d.Widgets {
		wg.Add(1)
		go func(i int, w Widget) {
			defer wg.Done()
			results[i] = r.renderWidget(ctx, doc, d, w)
		}(i, w)
	}
	wg.Wait()

	page := &Page{Dashboard: d, Doc: doc}
	var b script.Builder
	for i, res := range results {
		w := d.Widgets[i]
		switch {
		case res.err != nil:
			r.logger.Warn("widget skipped",
				zap.String("dashboard", d.Name),
				zap.String("widget", w.ID),
				zap.String("kind", w.Kind),
				zap.Error(res.err),
			)
			page.Failures = append(page.Failures, Failure{ID: w.ID, Kind: w.Kind, Error: res.err.Error()})
		case res.chart != nil:
			b.AddChart(res.chart.Selector, res.chart.Config)
		case res.table != nil:
			b.AddTable(res.table.Selector, res.table.Config)
		}
	}

	page.Rendered = b.Len()
	page.Script, err = b.String()
	if err != nil {
		return nil, err
	}
	if err := doc.AppendHTML("body", "<script>"+page.Script+"</script>"); err != nil {
		return nil, err
	}
	page.Duration = time.Since(start)

	r.logger.Info("dashboard rendered",
		zap.String("dashboard", d.Name),
		zap.Int("widgets", len(d.Widgets)),
		zap.Int("rendered", page.Rendered),
		zap.Int("failed", len(page.Failures)),
		zap.Duration("duration", page.Duration),
	)
	return page, nil
}

func (r *Renderer) renderWidget(ctx context.Context, doc *dom.Document, d Dashboard, w Widget) outcome {
	kind := w.WidgetKind()
	if kind == widget.Table {
		pageURL := w.PageURL
		if pageURL == "" {
			pageURL = r.baseURL + "/dashboards/" + d.Name
		}
		t, err := r.fetcher.Table(ctx, doc, w.Selector(), w.URL, fetch.TableOptions{
			StaticColumns: w.StaticColumns,
			Columns:       w.Columns,
			Edit:          w.Edit,
			PageURL:       pageURL,
		})
		return outcome{table: t, err: err}
	}

	c, err := r.fetcher.Chart(ctx, doc, widget.Request{
		Selector:  w.ID,
		SourceURL: w.URL,
		Kind:      kind,
		Label:     w.Label,
	})
	return outcome{chart: c, err: err}
}

// skeleton lays out one card per widget: a canvas for charts and a table
// with an empty header row for tables.
func skeleton(d Dashboard) string {
	title := d.Title
	if title == "" {
		title = d.Name
	}

	var sb strings.Builder
	sb.WriteString("<!DOCTYPE html><html><head><meta charset=\"utf-8\">")
	fmt.Fprintf(&sb, "<title>%s</title>", html.EscapeString(title))
	for _, href := range Stylesheets {
		fmt.Fprintf(&sb, `<link rel="stylesheet" href="%s">`, html.EscapeString(href))
	}
	for _, src := range Libraries {
		fmt.Fprintf(&sb, `<script src="%s"></script>`, html.EscapeString(src))
	}
	sb.WriteString("</head><body>")
	fmt.Fprintf(&sb, `<h1 class="title">%s</h1>`, html.EscapeString(title))

	for _, w := range d.Widgets {
		id := html.EscapeString(w.ID)
		sb.WriteString(`<div class="card">`)
		if w.Label != "" {
			fmt.Fprintf(&sb, `<h4 class="card-title">%s</h4>`, html.EscapeString(w.Label))
		}
		if w.WidgetKind() == widget.Table {
			fmt.Fprintf(&sb, `<table id="%s" class="table"><thead><tr></tr></thead><tbody></tbody></table>`, id)
		} else {
			fmt.Fprintf(&sb, `<div class="chart-area"><canvas id="%s"></canvas></div>`, id)
		}
		sb.WriteString("</div>")
	}
	sb.WriteString("</body></html>")
	return sb.String()
}
