package dashboard

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/GriffinCanCode/widgetkit/internal/widget"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/goccy/go-yaml"
	"github.com/pelletier/go-toml/v2"
)

var (
	ErrInvalid  = errors.New("invalid dashboard")
	ErrNotFound = errors.New("dashboard not found")
)

// Pattern selects dashboard files under a directory.
const Pattern = "**/*.{yaml,yml,toml}"

var validID = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_-]*$`)

// Dashboard is a page of widgets.
type Dashboard struct {
	Name    string   `yaml:"name" toml:"name" json:"name"`
	Title   string   `yaml:"title" toml:"title" json:"title"`
	Widgets []Widget `yaml:"widgets" toml:"widgets" json:"widgets"`
}

// Widget is one chart or table on a dashboard. ID is the element id the
// widget is drawn into.
type Widget struct {
	Kind          string   `yaml:"kind" toml:"kind" json:"kind"`
	ID            string   `yaml:"id" toml:"id" json:"id"`
	URL           string   `yaml:"url" toml:"url" json:"url"`
	Label         string   `yaml:"label" toml:"label" json:"label,omitempty"`
	StaticColumns bool     `yaml:"static_columns" toml:"static_columns" json:"static_columns,omitempty"`
	Columns       []string `yaml:"columns" toml:"columns" json:"columns,omitempty"`
	Edit          bool     `yaml:"edit" toml:"edit" json:"edit,omitempty"`
	PageURL       string   `yaml:"page_url" toml:"page_url" json:"page_url,omitempty"`
}

// WidgetKind parses Kind.
func (w Widget) WidgetKind() widget.Kind {
	return widget.ParseKind(w.Kind)
}

// Selector is the CSS selector for the widget's element.
func (w Widget) Selector() string {
	return "#" + w.ID
}

// Validate checks that every widget can be rendered.
func (d Dashboard) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("%w: missing name", ErrInvalid)
	}
	seen := map[string]bool{}
	for i, w := range d.Widgets {
		if !validID.MatchString(w.ID) {
			return fmt.Errorf("%w: %s: widget %d has bad id %q", ErrInvalid, d.Name, i, w.ID)
		}
		if seen[w.ID] {
			return fmt.Errorf("%w: %s: duplicate widget id %q", ErrInvalid, d.Name, w.ID)
		}
		seen[w.ID] = true
		if k := w.WidgetKind(); k != widget.Table && !k.IsChart() {
			return fmt.Errorf("%w: %s: widget %q has unknown kind %q", ErrInvalid, d.Name, w.ID, w.Kind)
		}
		if w.URL == "" {
			return fmt.Errorf("%w: %s: widget %q has no url", ErrInvalid, d.Name, w.ID)
		}
	}
	return nil
}

// Parse decodes and validates a dashboard; format is "yaml", "yml" or "toml".
func Parse(data []byte, format string) (Dashboard, error) {
	d, err := decode(data, format)
	if err != nil {
		return Dashboard{}, err
	}
	if err := d.Validate(); err != nil {
		return Dashboard{}, err
	}
	return d, nil
}

// Load reads one dashboard file. A missing name defaults to the file's base name.
func Load(path string) (Dashboard, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Dashboard{}, fmt.Errorf("read dashboard: %w", err)
	}
	ext := filepath.Ext(path)
	d, err := decode(data, ext)
	if err != nil {
		return Dashboard{}, fmt.Errorf("%s: %w", path, err)
	}
	if d.Name == "" {
		d.Name = strings.TrimSuffix(filepath.Base(path), ext)
	}
	if err := d.Validate(); err != nil {
		return Dashboard{}, fmt.Errorf("%s: %w", path, err)
	}
	return d, nil
}

func decode(data []byte, format string) (Dashboard, error) {
	var d Dashboard
	var err error
	switch strings.ToLower(strings.TrimPrefix(format, ".")) {
	case "yaml", "yml":
		err = yaml.Unmarshal(data, &d)
	case "toml":
		err = toml.Unmarshal(data, &d)
	default:
		return Dashboard{}, fmt.Errorf("%w: unsupported format %q", ErrInvalid, format)
	}
	if err != nil {
		return Dashboard{}, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return d, nil
}

// Catalog holds loaded dashboards by name.
type Catalog struct {
	byName map[string]Dashboard
	names  []string
}

// NewCatalog indexes dashboards, rejecting duplicate names.
func NewCatalog(dashboards ...Dashboard) (*Catalog, error) {
	c := &Catalog{byName: make(map[string]Dashboard, len(dashboards))}
	for _, d := range dashboards {
		if _, dup := c.byName[d.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate dashboard name %q", ErrInvalid, d.Name)
		}
		c.byName[d.Name] = d
		c.names = append(c.names, d.Name)
	}
	slices.Sort(c.names)
	return c, nil
}

// LoadDir loads every file under dir matching Pattern. A missing dir yields
// an empty catalog.
func LoadDir(dir string) (*Catalog, error) {
	if _, err := os.Stat(dir); errors.Is(err, os.ErrNotExist) {
		return NewCatalog()
	}

	matches, err := doublestar.Glob(os.DirFS(dir), Pattern)
	if err != nil {
		return nil, fmt.Errorf("glob dashboards: %w", err)
	}
	slices.Sort(matches)

	dashboards := make([]Dashboard, 0, len(matches))
	for _, rel := range matches {
		d, err := Load(filepath.Join(dir, filepath.FromSlash(rel)))
		if err != nil {
			return nil, err
		}
		dashboards = append(dashboards, d)
	}
	return NewCatalog(dashboards...)
}

// Get returns the named dashboard.
func (c *Catalog) Get(name string) (Dashboard, error) {
	d, ok := c.byName[name]
	if !ok {
		return Dashboard{}, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return d, nil
}

// List returns dashboards sorted by name.
func (c *Catalog) List() []Dashboard {
	out := make([]Dashboard, 0, len(c.names))
	for _, name := range c.names {
		out = append(out, c.byName[name])
	}
	return out
}
