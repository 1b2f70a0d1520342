package script

import (
	"fmt"
	"strings"

	"github.com/GriffinCanCode/widgetkit/internal/widget/chart"
	"github.com/GriffinCanCode/widgetkit/internal/widget/table"
	"github.com/bytedance/sonic"
)

// Builder collects widgets and renders one script that initializes them in
// the order they were added. The zero value is ready to use.
type Builder struct {
	lines []string
	err   error
}

// AddChart queues a chart for the element whose id is id.
func (b *Builder) AddChart(id string, cfg chart.Config) *Builder {
	if b.err != nil {
		return b
	}
	target, err := literal(id)
	if err != nil {
		b.err = err
		return b
	}
	config, err := cfg.JSON()
	if err != nil {
		b.err = err
		return b
	}
	config = escapeClose(config)
	b.lines = append(b.lines, fmt.Sprintf("  new Chart(document.getElementById(%s), %s);", target, config))
	return b
}

// AddTable queues a table for the elements matching selector.
func (b *Builder) AddTable(selector string, cfg table.Config) *Builder {
	if b.err != nil {
		return b
	}
	target, err := literal(selector)
	if err != nil {
		b.err = err
		return b
	}
	config, err := cfg.JSON()
	if err != nil {
		b.err = err
		return b
	}
	config = escapeClose(config)

	base, edit := editBase(cfg)
	if !edit {
		b.lines = append(b.lines, fmt.Sprintf("  $(%s).DataTable(%s);", target, config))
		return b
	}

	baseLit, err := literal(base)
	if err != nil {
		b.err = err
		return b
	}
	b.lines = append(b.lines, fmt.Sprintf(tableWithEdit, config, baseLit, target))
	return b
}

// String renders the script.
func (b *Builder) String() (string, error) {
	if b.err != nil {
		return "", fmt.Errorf("failed to build init script: %w", b.err)
	}
	var sb strings.Builder
	sb.WriteString("(function () {\n  \"use strict\";\n")
	for _, line := range b.lines {
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	sb.WriteString("})();\n")
	return sb.String(), nil
}

// Len reports how many widgets are queued.
func (b *Builder) Len() int {
	return len(b.lines)
}

const tableWithEdit = `  (function (cfg, base) {
    cfg.columnDefs.forEach(function (def) {
      if (def.targets === -1 && def.data === null) {
        def.render = function (data, type, row) {
          return '<td class="text-right"><a href="' + base + '/edit/' + row[0] + '"><i class="tim-icons icon-settings"></i></a></td>';
        };
      }
    });
    $(%[3]s).DataTable(cfg);
  })(%[1]s, %[2]s);`

func editBase(cfg table.Config) (string, bool) {
	for _, def := range cfg.ColumnDefs {
		if def.Render != nil {
			return strings.TrimRight(def.EditBase, "/"), true
		}
	}
	return "", false
}

// literal encodes s as a JS string literal. "</" is escaped so the result
// is safe inside an inline <script> element.
func literal(s string) (string, error) {
	out, err := sonic.MarshalString(s)
	if err != nil {
		return "", err
	}
	return escapeClose(out), nil
}

func escapeClose(s string) string {
	return strings.ReplaceAll(s, "</", `<\/`)
}
