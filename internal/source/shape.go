package source

import (
	"fmt"
	"math"
	"math/rand/v2"
)

// TableEnvelope is the DataTables-ready shape of a result. Columns is not
// read by DataTables; widgets use it to discover headers.
type TableEnvelope struct {
	Draw    int      `json:"draw"`
	Columns []string `json:"columns"`
	Data    [][]any  `json:"data"`
	Count   int      `json:"count"`
	Total   int      `json:"total"`
}

// ChartEnvelope is the Chart.js-ready shape of a result.
type ChartEnvelope struct {
	Count int      `json:"count"`
	Label []string `json:"label"`
	Data  []any    `json:"data"`
	Color []string `json:"color"`
	Total int      `json:"total"`
}

// ToTable flattens records into rows following the column order.
func ToTable(rows Rows, total int) TableEnvelope {
	data := make([][]any, 0, len(rows.Records))
	for _, rec := range rows.Records {
		row := make([]any, len(rows.Columns))
		for i, c := range rows.Columns {
			row[i] = rec[c]
		}
		data = append(data, row)
	}
	return TableEnvelope{Columns: rows.Columns, Data: data, Count: len(data), Total: total}
}

// ToChart splits each record into a value (the "count" column) and a label
// (every other column, space joined), with a random color per record.
func ToChart(rows Rows, total int) ChartEnvelope {
	env := ChartEnvelope{
		Label: make([]string, 0, len(rows.Records)),
		Data:  make([]any, 0, len(rows.Records)),
		Color: make([]string, 0, len(rows.Records)),
		Total: total,
	}
	for _, rec := range rows.Records {
		var label string
		for _, c := range rows.Columns {
			if c == "count" {
				env.Data = append(env.Data, rec[c])
				continue
			}
			if label != "" {
				label += " "
			}
			label += fmt.Sprint(rec[c])
		}
		env.Label = append(env.Label, label)
		env.Color = append(env.Color, RandomColor())
	}
	env.Count = len(env.Label)
	return env
}

// RandomColor returns a saturated "rgb(r,g,b)" color.
func RandomColor() string {
	r, g, b := hlsToRGB(rand.Float64(), 0.5+rand.Float64()/10, 0.9+rand.Float64()/10)
	return fmt.Sprintf("rgb(%d,%d,%d)", r, g, b)
}

func hlsToRGB(h, l, s float64) (int, int, int) {
	if s == 0 {
		v := int(math.Round(l * 255))
		return v, v, v
	}
	var m2 float64
	if l <= 0.5 {
		m2 = l * (1 + s)
	} else {
		m2 = l + s - l*s
	}
	m1 := 2*l - m2
	to := func(v float64) int { return int(math.Round(v * 255)) }
	return to(hue(m1, m2, h+1.0/3)), to(hue(m1, m2, h)), to(hue(m1, m2, h-1.0/3))
}

func hue(m1, m2, h float64) float64 {
	h = math.Mod(h, 1)
	if h < 0 {
		h++
	}
	switch {
	case h < 1.0/6:
		return m1 + (m2-m1)*h*6
	case h < 0.5:
		return m2
	case h < 2.0/3:
		return m1 + (m2-m1)*(2.0/3-h)*6
	}
	return m1
}
