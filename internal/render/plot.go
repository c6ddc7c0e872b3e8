package render

import (
	"fmt"
	"io"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/user/perfchart-go/internal/chart"
	"github.com/user/perfchart-go/internal/surface"
)

// Plot draws a PNG with gonum/plot. gonum/plot has a single Y axis, so the
// line series is mapped onto the bar series' scale.
type Plot struct {
	Options
}

func (p *Plot) Extension() string { return ".png" }

func (p *Plot) Draw(h surface.Handle, cfg *chart.Configuration) error {
	pl, err := buildPlot(cfg)
	if err != nil {
		return err
	}

	width, height := p.size()
	// The PNG canvas is 96 DPI.
	writer, err := pl.WriterTo(pixels(width), pixels(height), "png")
	if err != nil {
		return fmt.Errorf("failed to create plot writer: %w", err)
	}

	return drawTo(h, func(w io.Writer) error {
		if _, err := writer.WriteTo(w); err != nil {
			return fmt.Errorf("failed to write plot to surface: %w", err)
		}
		return nil
	})
}

func pixels(n int) vg.Length {
	return vg.Length(n) * vg.Inch / 96
}

func buildPlot(cfg *chart.Configuration) (*plot.Plot, error) {
	barSeries, lineSeries := cfg.Bar(), cfg.Line()
	primary := scale(cfg, barSeries)
	secondary := scale(cfg, lineSeries)

	pl := plot.New()
	pl.Title.Text = "Student Performance"
	pl.Legend.Top = true
	pl.Y.Label.Text = primary.Title.Text
	pl.Add(plotter.NewGrid())

	labels := cfg.Data.Labels
	if len(labels) == 0 {
		// NominalX needs at least one name.
		pl.X.Min, pl.X.Max = 0, 1
		pl.X.Tick.Marker = plot.ConstantTicks{}
		fixYRange(pl, primary)
		return pl, nil
	}
	pl.NominalX(labels...)

	if barSeries != nil && len(barSeries.Data) > 0 {
		bars, err := plotter.NewBarChart(plotter.Values(barSeries.Data), vg.Points(20))
		if err != nil {
			return nil, fmt.Errorf("failed to create bar chart for %s: %w", barSeries.Label, err)
		}
		if barSeries.BackgroundColor != nil {
			bars.Color = barSeries.BackgroundColor.NRGBA()
		}
		bars.LineStyle.Color = barSeries.BorderColor.NRGBA()
		bars.LineStyle.Width = vg.Points(barSeries.BorderWidth)
		pl.Add(bars)
		pl.Legend.Add(barSeries.Label, bars)
	}

	if lineSeries != nil && len(lineSeries.Data) > 0 {
		factor := 1.0
		if secondary.Max > 0 && primary.Max > 0 {
			factor = primary.Max / secondary.Max
		}
		pts := make(plotter.XYs, len(lineSeries.Data))
		for i, v := range lineSeries.Data {
			pts[i] = plotter.XY{X: float64(i), Y: v * factor}
		}
		line, points, err := plotter.NewLinePoints(pts)
		if err != nil {
			return nil, fmt.Errorf("failed to create line for %s: %w", lineSeries.Label, err)
		}
		line.Color = lineSeries.BorderColor.NRGBA()
		line.Width = vg.Points(lineSeries.BorderWidth)
		points.GlyphStyle.Color = lineSeries.BorderColor.NRGBA()
		points.GlyphStyle.Shape = draw.CircleGlyph{}
		pl.Add(line, points)
		pl.Legend.Add(lineSeries.Label, line, points)
	}

	fixYRange(pl, primary)
	return pl, nil
}

// fixYRange applies the scale's display range. It runs after Add so the data
// does not widen it.
func fixYRange(pl *plot.Plot, s chart.Scale) {
	if s.BeginAtZero {
		pl.Y.Min = 0
	}
	if s.Max > 0 {
		pl.Y.Max = s.Max
	}
}
