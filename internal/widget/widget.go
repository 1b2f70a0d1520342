package widget

import (
	"strings"

	"github.com/google/uuid"
)

// Kind names the widget a request builds. Chart kinds are passed straight to
// the charting library, so unknown kinds are carried through unchanged.
type Kind string

const (
	Line      Kind = "line"
	Bar       Kind = "bar"
	Pie       Kind = "pie"
	Doughnut  Kind = "doughnut"
	PolarArea Kind = "polarArea"
	Bubble    Kind = "bubble"
	Radar     Kind = "radar"
	Scatter   Kind = "scatter"
	Table     Kind = "table"
)

// ChartKinds lists the chart kinds the charting library ships with.
var ChartKinds = []Kind{Line, Bar, Pie, Doughnut, PolarArea, Bubble, Radar, Scatter}

// IsChart reports whether k renders through the charting library.
func (k Kind) IsChart() bool {
	return k != Table && k != ""
}

// ParseKind maps case-insensitive input onto a known kind, keeping unknown
// values verbatim.
func ParseKind(s string) Kind {
	if strings.EqualFold(s, string(Table)) {
		return Table
	}
	for _, k := range ChartKinds {
		if strings.EqualFold(s, string(k)) {
			return k
		}
	}
	return Kind(s)
}

// Request describes one widget to initialize. It lives for a single call.
type Request struct {
	Selector  string // element id for charts, CSS selector for tables
	SourceURL string
	Kind      Kind
	Label     string
}

// Handle identifies a widget attached to a document.
type Handle struct {
	ID       string
	Kind     Kind
	Selector string
}

// NewHandle assigns a fresh id to a widget about to be attached.
func NewHandle(kind Kind, selector string) Handle {
	return Handle{
		ID:       uuid.NewString(),
		Kind:     kind,
		Selector: selector,
	}
}

// Attributes are the data-* attributes recorded on the target element.
func (h Handle) Attributes(config string) map[string]string {
	return map[string]string{
		"data-widget":        string(h.Kind),
		"data-widget-id":     h.ID,
		"data-widget-config": config,
	}
}
