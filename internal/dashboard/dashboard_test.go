package dashboard

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/widgetkit/internal/widget"
)

const opsYAML = `
name: ops
title: Operations
widgets:
  - kind: bar
    id: events-by-kind
    url: /api/data/events?groupby=kind,count&as_chartjs=true
    label: Events
  - kind: table
    id: users
    url: /api/data/users?as_datatables=true
    edit: true
`

const opsTOML = `
name = "ops"
title = "Operations"

[[widgets]]
kind = "bar"
id = "events-by-kind"
url = "/api/data/events?groupby=kind,count&as_chartjs=true"
label = "Events"

[[widgets]]
kind = "table"
id = "users"
url = "/api/data/users?as_datatables=true"
edit = true
`

func TestParseFormatsAgree(t *testing.T) {
	fromYAML, err := Parse([]byte(opsYAML), "yaml")
	require.NoError(t, err)
	fromTOML, err := Parse([]byte(opsTOML), ".toml")
	require.NoError(t, err)

	assert.Equal(t, fromYAML, fromTOML)
	assert.Equal(t, "Operations", fromYAML.Title)
	require.Len(t, fromYAML.Widgets, 2)
	assert.Equal(t, widget.Bar, fromYAML.Widgets[0].WidgetKind())
	assert.Equal(t, "#users", fromYAML.Widgets[1].Selector())
	assert.True(t, fromYAML.Widgets[1].Edit)
}

func TestParseRejects(t *testing.T) {
	tests := map[string]string{
		"no name":      "widgets: []",
		"bad kind":     "name: x\nwidgets:\n  - {kind: gauge, id: a, url: /a}",
		"no url":       "name: x\nwidgets:\n  - {kind: line, id: a}",
		"bad id":       "name: x\nwidgets:\n  - {kind: line, id: 'a b', url: /a}",
		"duplicate id": "name: x\nwidgets:\n  - {kind: line, id: a, url: /a}\n  - {kind: pie, id: a, url: /b}",
		"not yaml":     "name: [",
	}
	for name, src := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(src), "yaml")
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}

	_, err := Parse([]byte(opsYAML), "json")
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestKindIsCaseInsensitive(t *testing.T) {
	d, err := Parse([]byte("name: x\nwidgets:\n  - {kind: PolarArea, id: a, url: /a}"), "yml")
	require.NoError(t, err)
	assert.Equal(t, widget.PolarArea, d.Widgets[0].WidgetKind())
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "ops.yaml"), opsYAML)
	writeFile(t, filepath.Join(dir, "team", "people.toml"), `
[[widgets]]
kind = "pie"
id = "roles"
url = "/api/data/users?groupby=role,count&as_chartjs=true"
`)
	writeFile(t, filepath.Join(dir, "README.md"), "ignored")

	catalog, err := LoadDir(dir)
	require.NoError(t, err)

	list := catalog.List()
	require.Len(t, list, 2)
	assert.Equal(t, "ops", list[0].Name)
	assert.Equal(t, "people", list[1].Name)

	d, err := catalog.Get("people")
	require.NoError(t, err)
	assert.Equal(t, "roles", d.Widgets[0].ID)

	_, err = catalog.Get("nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLoadDirMissing(t *testing.T) {
	catalog, err := LoadDir(filepath.Join(t.TempDir(), "absent"))
	require.NoError(t, err)
	assert.Empty(t, catalog.List())
}

func TestLoadDirRejectsDuplicates(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.yaml"), opsYAML)
	writeFile(t, filepath.Join(dir, "b.toml"), opsTOML)

	_, err := LoadDir(dir)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestLoadDirReportsBadFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "broken.yml"), "name: broken\nwidgets:\n  - {kind: line}")

	_, err := LoadDir(dir)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalid)
	assert.Contains(t, err.Error(), "broken.yml")
}
