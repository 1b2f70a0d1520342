package chart

import (
	"fmt"

	"github.com/bytedance/sonic"

	"github.com/GriffinCanCode/widgetkit/internal/dom"
	"github.com/GriffinCanCode/widgetkit/internal/widget"
)

const (
	DefaultTitle       = "Graph"
	DefaultAnimationMS = 3000
	BorderColor        = "white"
	BorderWidth        = 1
	LegendFontColor    = "white"
	ColorScheme        = "tableau.ClassicMedium10"
)

// Options are the caller-tunable parts of a chart. Zero values select the
// defaults.
type Options struct {
	Title       string // dataset label, "Graph" when empty
	AnimationMS int    // entrance animation, 3000 when not positive
}

func (o Options) withDefaults() Options {
	if o.Title == "" {
		o.Title = DefaultTitle
	}
	if o.AnimationMS <= 0 {
		o.AnimationMS = DefaultAnimationMS
	}
	return o
}

// Config is the configuration object handed to the charting library.
type Config struct {
	Type    widget.Kind `json:"type"`
	Data    Data        `json:"data"`
	Options Display     `json:"options"`
}

type Data struct {
	Labels   []string  `json:"labels"`
	Datasets []Dataset `json:"datasets"`
}

type Dataset struct {
	Label       string    `json:"label"`
	BorderColor string    `json:"borderColor"`
	BorderWidth int       `json:"borderWidth"`
	Data        []float64 `json:"data"`
}

// Display holds the fixed presentation options.
type Display struct {
	Responsive          bool      `json:"responsive"`
	MaintainAspectRatio bool      `json:"maintainAspectRatio"`
	Animation           Animation `json:"animation"`
	Legend              Legend    `json:"legend"`
	Plugins             Plugins   `json:"plugins"`
}

type Animation struct {
	Duration int `json:"duration"`
}

type Legend struct {
	Labels LegendLabels `json:"labels"`
}

type LegendLabels struct {
	FontColor string `json:"fontColor"`
}

type Plugins struct {
	ColorSchemes ColorSchemes `json:"colorschemes"`
}

type ColorSchemes struct {
	Scheme string `json:"scheme"`
}

// Build assembles a single-dataset chart configuration. Labels and values are
// passed through as given; a length mismatch is left to the charting library.
func Build(kind widget.Kind, labels []string, values []float64, opts Options) Config {
	opts = opts.withDefaults()

	if labels == nil {
		labels = []string{}
	}
	if values == nil {
		values = []float64{}
	}

	return Config{
		Type: kind,
		Data: Data{
			Labels: labels,
			Datasets: []Dataset{{
				Label:       opts.Title,
				BorderColor: BorderColor,
				BorderWidth: BorderWidth,
				Data:        values,
			}},
		},
		Options: Display{
			Responsive:          true,
			MaintainAspectRatio: false,
			Animation:           Animation{Duration: opts.AnimationMS},
			Legend:              Legend{Labels: LegendLabels{FontColor: LegendFontColor}},
			Plugins:             Plugins{ColorSchemes: ColorSchemes{Scheme: ColorScheme}},
		},
	}
}

// Chart is a chart attached to a document. It owns its Config.
type Chart struct {
	widget.Handle
	Config Config
}

// JSON encodes the configuration as the charting library expects it.
func (c Config) JSON() (string, error) {
	out, err := sonic.MarshalString(c)
	if err != nil {
		return "", fmt.Errorf("failed to encode chart config: %w", err)
	}
	return out, nil
}

// Draw attaches cfg to the element whose id is id.
func Draw(doc *dom.Document, id string, cfg Config) (*Chart, error) {
	encoded, err := cfg.JSON()
	if err != nil {
		return nil, err
	}

	handle := widget.NewHandle(cfg.Type, id)
	if err := doc.AttachByID(id, handle.Attributes(encoded)); err != nil {
		return nil, fmt.Errorf("failed to attach %s chart: %w", cfg.Type, err)
	}

	return &Chart{Handle: handle, Config: cfg}, nil
}
