package table

import (
	"fmt"
	"html"
	"strconv"
	"strings"

	"github.com/bytedance/sonic"

	"github.com/GriffinCanCode/widgetkit/internal/dom"
	"github.com/GriffinCanCode/widgetkit/internal/widget"
)

const (
	FirstColumnWidth = "5%"
	EditColumnWidth  = "10%"
	EditHeader       = "edit"
)

// Options enumerates everything a table build accepts.
type Options struct {
	Source  Source
	Edit    bool     // add a trailing column linking to the row's edit page
	Columns []string // header names to add; only applied with an Ajax source
	PageURL string   // base of edit links, the page the table is shown on
}

// Config is the configuration object handed to the table library.
type Config struct {
	ColumnDefs []ColumnDef
	Ajax       *AjaxSource
	Data       [][]any
}

// AjaxSource is the library's ajax descriptor.
type AjaxSource struct {
	URL string `json:"url"`
}

// CellRenderer produces a cell's markup from its row.
type CellRenderer func(row []any) string

// ColumnDef is one entry of the library's columnDefs list.
// Targets -1 addresses the last column.
type ColumnDef struct {
	Targets    int          `json:"targets"`
	Width      string       `json:"width"`
	Searchable *bool        `json:"searchable,omitempty"`
	Orderable  *bool        `json:"orderable,omitempty"`
	Render     CellRenderer `json:"-"`
	// EditBase is set on the edit column; script emission uses it to
	// rebuild Render in the browser.
	EditBase string `json:"-"`
}

// MarshalJSON emits "data": null for rendered columns so the renderer
// receives the whole row.
func (d ColumnDef) MarshalJSON() ([]byte, error) {
	type plain ColumnDef
	if d.Render == nil {
		return sonic.Marshal(plain(d))
	}
	return sonic.Marshal(struct {
		plain
		Data *struct{} `json:"data"`
	}{plain: plain(d)})
}

// MarshalJSON writes exactly one of "ajax" or "data", depending on the source.
func (c Config) MarshalJSON() ([]byte, error) {
	out := struct {
		ColumnDefs []ColumnDef `json:"columnDefs"`
		Ajax       *AjaxSource `json:"ajax,omitempty"`
		Data       *[][]any    `json:"data,omitempty"`
	}{ColumnDefs: c.ColumnDefs, Ajax: c.Ajax}
	if c.Ajax == nil && c.Data != nil {
		out.Data = &c.Data
	}
	return sonic.Marshal(out)
}

// JSON encodes the configuration as the table library expects it.
func (c Config) JSON() (string, error) {
	out, err := c.MarshalJSON()
	if err != nil {
		return "", fmt.Errorf("failed to encode table config: %w", err)
	}
	return string(out), nil
}

// EditColumn returns the ColumnDef for the trailing edit link.
func EditColumn(pageURL string) ColumnDef {
	no := false
	return ColumnDef{
		Targets:    -1,
		Width:      EditColumnWidth,
		Searchable: &no,
		Orderable:  &no,
		Render:     EditLink(pageURL),
		EditBase:   pageURL,
	}
}

// EditLink renders a link to "<pageURL>/edit/<first field of row>".
func EditLink(pageURL string) CellRenderer {
	base := strings.TrimRight(pageURL, "/")
	return func(row []any) string {
		key := ""
		if len(row) > 0 {
			key = cellText(row[0])
		}
		href := base + "/edit/" + key
		return `<td class="text-right"><a href="` + html.EscapeString(href) + `"><i class="tim-icons icon-settings"></i></a></td>`
	}
}

// cellText formats a cell the way the browser would stringify it.
func cellText(v any) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	default:
		return fmt.Sprint(t)
	}
}

// Build assembles a table configuration. It never touches a document.
func Build(opts Options) Config {
	cfg := Config{
		ColumnDefs: []ColumnDef{{Targets: 0, Width: FirstColumnWidth}},
	}

	switch opts.Source.Kind() {
	case SourceAjax:
		cfg.Ajax = &AjaxSource{URL: opts.Source.URL()}
	case SourceInline:
		cfg.Data = opts.Source.Rows()
	}

	if opts.Edit {
		cfg.ColumnDefs = append(cfg.ColumnDefs, EditColumn(opts.PageURL))
	}

	return cfg
}

// Table is a table attached to a document. It owns its Config.
type Table struct {
	widget.Handle
	Config Config
}

// Draw adds the requested header cells under "<selector>>thead>tr", builds
// the configuration and attaches it to the elements matching selector.
// Manual column names are only added for an Ajax source.
func Draw(doc *dom.Document, selector string, opts Options) (*Table, error) {
	if !doc.Exists(selector) {
		return nil, fmt.Errorf("failed to attach table: %w: %q", dom.ErrTargetNotFound, selector)
	}

	if opts.Source.Kind() == SourceAjax {
		for _, name := range opts.Columns {
			doc.AppendHeader(selector, name)
		}
	}
	if opts.Edit {
		doc.AppendHeader(selector, EditHeader)
	}

	cfg := Build(opts)
	encoded, err := cfg.JSON()
	if err != nil {
		return nil, err
	}

	handle := widget.NewHandle(widget.Table, selector)
	if err := doc.Attach(selector, handle.Attributes(encoded)); err != nil {
		return nil, fmt.Errorf("failed to attach table: %w", err)
	}

	return &Table{Handle: handle, Config: cfg}, nil
}
