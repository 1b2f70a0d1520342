package script

import (
	"strings"
	"testing"

	"github.com/GriffinCanCode/widgetkit/internal/widget"
	"github.com/GriffinCanCode/widgetkit/internal/widget/chart"
	"github.com/GriffinCanCode/widgetkit/internal/widget/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmptyScript(t *testing.T) {
	var b Builder
	out, err := b.String()
	require.NoError(t, err)
	assert.Equal(t, "(function () {\n  \"use strict\";\n})();\n", out)
	assert.Equal(t, 0, b.Len())
}

func TestChartLine(t *testing.T) {
	cfg := chart.Build(widget.Bar, []string{"a"}, []float64{1}, chart.Options{})

	var b Builder
	out, err := b.AddChart("sales", cfg).String()
	require.NoError(t, err)

	expected, err := cfg.JSON()
	require.NoError(t, err)
	assert.Contains(t, out, `new Chart(document.getElementById("sales"), `+expected+`);`)
}

func TestTableWithoutEdit(t *testing.T) {
	cfg := table.Build(table.Options{Source: table.Ajax("/api/data/users")})

	var b Builder
	out, err := b.AddTable("#users", cfg).String()
	require.NoError(t, err)
	assert.Contains(t, out, `$("#users").DataTable({`)
	assert.NotContains(t, out, "def.render")
}

func TestTableWithEdit(t *testing.T) {
	cfg := table.Build(table.Options{
		Source:  table.Inline([][]any{{1, "a"}}),
		Edit:    true,
		PageURL: "http://host/users/",
	})

	var b Builder
	out, err := b.AddTable("#users", cfg).String()
	require.NoError(t, err)
	assert.Contains(t, out, `})(`)
	assert.Contains(t, out, `, "http://host/users");`)
	assert.Contains(t, out, `$("#users").DataTable(cfg);`)
	assert.Contains(t, out, `"data":null`)
}

func TestScriptCloseTagEscaped(t *testing.T) {
	cfg := chart.Build(widget.Line, []string{"</script><b>"}, []float64{1}, chart.Options{})

	var b Builder
	out, err := b.AddChart("x</script>", cfg).String()
	require.NoError(t, err)
	assert.NotContains(t, out, "</script>")
	assert.Contains(t, out, `<\/script>`)
}

func TestOrderPreserved(t *testing.T) {
	var b Builder
	b.AddTable("#t", table.Build(table.Options{}))
	b.AddChart("c", chart.Build(widget.Pie, nil, nil, chart.Options{}))

	out, err := b.String()
	require.NoError(t, err)
	assert.Less(t, strings.Index(out, "DataTable"), strings.Index(out, "new Chart"))
	assert.Equal(t, 2, b.Len())
}
