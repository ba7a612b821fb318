// Package render turns engine charts and reports into files: PNG charts
// with gonum/plot and XLSX workbooks with excelize.
package render

import (
	"fmt"
	"image/color"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pkg/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/spektr-org/demografia/engine"
)

// Default PNG size.
const (
	DefaultWidth  = 10 * vg.Inch
	DefaultHeight = 6 * vg.Inch
)

var undefinedColor = color.RGBA{R: 0x9e, G: 0x9e, B: 0x9e, A: 255}

// WritePNG draws a chart config as PNG. Bar charts (vertical or
// horizontal) and line charts are supported. Undefined points are drawn
// at 0 and labelled n/a.
func WritePNG(w io.Writer, chart *engine.ChartConfig, width, height vg.Length) error {
	if chart == nil {
		return errors.New("no chart to render")
	}

	p := plot.New()
	p.Title.Text = chart.Title
	p.Title.TextStyle.Font.Size = vg.Points(14)
	p.X.Label.Text = chart.XAxis
	p.Y.Label.Text = chart.YAxis

	var err error
	switch chart.ChartType {
	case "bar":
		err = addBars(p, chart)
	case "line":
		err = addLines(p, chart)
	default:
		err = errors.Errorf("unsupported chart type %q", chart.ChartType)
	}
	if err != nil {
		return err
	}

	if chart.ShowGrid {
		p.Add(plotter.NewGrid())
	}
	if chart.ShowLegend {
		p.Legend.Top = true
	}

	wt, err := p.WriterTo(width, height, "png")
	if err != nil {
		return errors.Wrap(err, "failed to create png writer")
	}
	if _, err := wt.WriteTo(w); err != nil {
		return errors.Wrap(err, "failed to write png")
	}
	return nil
}

// addBars lays every series out on one nominal axis, one slot per point.
// A series only fills its own slots.
func addBars(p *plot.Plot, chart *engine.ChartConfig) error {
	total := 0
	for _, s := range chart.Series {
		total += len(s.Data)
	}
	if total == 0 {
		return errors.New("chart has no data")
	}

	labels := make([]string, 0, total)
	var undefined plotter.XYLabels
	slot := 0
	for i, s := range chart.Series {
		values := make(plotter.Values, total)
		for _, pt := range s.Data {
			labels = append(labels, pt.Label)
			if pt.Undefined {
				xy := plotter.XY{X: float64(slot)}
				if chart.Horizontal {
					xy = plotter.XY{Y: float64(slot)}
				}
				undefined.XYs = append(undefined.XYs, xy)
				undefined.Labels = append(undefined.Labels, "n/a")
			} else {
				values[slot] = pt.Value
			}
			slot++
		}

		bars, err := plotter.NewBarChart(values, vg.Points(20))
		if err != nil {
			return errors.Wrap(err, "failed to build bar chart")
		}
		bars.Color = seriesColor(chart, i, s)
		bars.LineStyle.Width = vg.Length(0)
		bars.Horizontal = chart.Horizontal
		p.Add(bars)
		if chart.ShowLegend {
			p.Legend.Add(s.Name, bars)
		}
	}

	if chart.Horizontal {
		p.NominalY(labels...)
	} else {
		p.NominalX(labels...)
		if len(labels) > 6 {
			p.X.Tick.Label.Rotation = math.Pi / 4
			p.X.Tick.Label.XAlign = draw.XRight
			p.X.Tick.Label.YAlign = draw.YCenter
		}
	}

	if len(undefined.XYs) > 0 {
		l, err := plotter.NewLabels(undefined)
		if err != nil {
			return errors.Wrap(err, "failed to label undefined values")
		}
		for i := range l.TextStyle {
			l.TextStyle[i].Color = undefinedColor
		}
		p.Add(l)
	}
	return nil
}

// addLines draws one line per series. Labels that parse as numbers (years)
// are used as x; otherwise the point index is.
func addLines(p *plot.Plot, chart *engine.ChartConfig) error {
	for i, s := range chart.Series {
		xys := make(plotter.XYs, 0, len(s.Data))
		for j, pt := range s.Data {
			if pt.Undefined {
				continue
			}
			x, err := strconv.ParseFloat(pt.Label, 64)
			if err != nil {
				x = float64(j)
			}
			xys = append(xys, plotter.XY{X: x, Y: pt.Value})
		}
		if len(xys) == 0 {
			continue
		}
		line, err := plotter.NewLine(xys)
		if err != nil {
			return errors.Wrapf(err, "failed to build line %q", s.Name)
		}
		line.Color = seriesColor(chart, i, s)
		line.Width = vg.Points(2)
		p.Add(line)
		if chart.ShowLegend {
			p.Legend.Add(s.Name, line)
		}
	}
	return nil
}

func seriesColor(chart *engine.ChartConfig, i int, s engine.ChartSeries) color.Color {
	hex := s.Color
	if hex == "" && i < len(chart.Colors) {
		hex = chart.Colors[i]
	}
	c, err := parseHex(hex)
	if err != nil {
		return color.RGBA{R: 70, G: 130, B: 180, A: 255}
	}
	return c
}

// parseHex parses "#rrggbb".
func parseHex(s string) (color.RGBA, error) {
	c := color.RGBA{A: 255}
	if len(s) != 7 || s[0] != '#' {
		return c, fmt.Errorf("invalid color %q", s)
	}
	_, err := fmt.Sscanf(s, "#%02x%02x%02x", &c.R, &c.G, &c.B)
	return c, err
}

// WriteChartFiles renders every chart of a report into dir and returns the
// written paths.
func WriteChartFiles(dir string, r *engine.Report) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "failed to create %s", dir)
	}
	charts := []struct {
		name  string
		chart *engine.ChartConfig
	}{
		{"growth_rate.png", r.GrowthChart},
		{"ranking.png", r.RankingChart},
		{"population.png", r.PopulationChart},
	}

	var paths []string
	for _, c := range charts {
		if c.chart == nil {
			continue
		}
		path := filepath.Join(dir, c.name)
		f, err := os.Create(path)
		if err != nil {
			return paths, errors.Wrapf(err, "failed to create %s", path)
		}
		err = WritePNG(f, c.chart, DefaultWidth, DefaultHeight)
		if cerr := f.Close(); err == nil && cerr != nil {
			err = errors.Wrapf(cerr, "failed to close %s", path)
		}
		if err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}
