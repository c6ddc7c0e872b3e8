package render

import (
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/fogleman/gg"

	"github.com/user/perfchart-go/internal/chart"
	"github.com/user/perfchart-go/internal/surface"
)

const (
	rasterMarginLeft   = 80.0
	rasterMarginRight  = 80.0
	rasterMarginTop    = 60.0
	rasterMarginBottom = 60.0

	rasterTicks      = 5   // Intervals per vertical axis
	rasterBarFill    = 0.6 // Share of a category slot taken by its bar
	rasterPointSize  = 3.0
	rasterLegendSize = 12.0
)

// Raster draws a PNG with two independent vertical axes: the bar scale on the
// left, the line scale on the right.
type Raster struct {
	Options
}

func (r *Raster) Extension() string { return ".png" }

type plotArea struct {
	left, right, top, bottom float64
}

func (a plotArea) width() float64  { return a.right - a.left }
func (a plotArea) height() float64 { return a.bottom - a.top }

// y maps v onto the area for an axis spanning [lo, hi].
func (a plotArea) y(v, lo, hi float64) float64 {
	if hi == lo {
		return a.bottom
	}
	return a.bottom - (v-lo)/(hi-lo)*a.height()
}

func (r *Raster) Draw(h surface.Handle, cfg *chart.Configuration) error {
	width, height := r.size()
	dc := gg.NewContext(width, height)
	dc.SetRGB(1, 1, 1)
	dc.Clear()

	area := plotArea{
		left:   rasterMarginLeft,
		right:  float64(width) - rasterMarginRight,
		top:    rasterMarginTop,
		bottom: float64(height) - rasterMarginBottom,
	}
	if area.width() <= 0 || area.height() <= 0 {
		return fmt.Errorf("chart size %dx%d leaves no room for the plot area", width, height)
	}

	barSeries, lineSeries := cfg.Bar(), cfg.Line()
	primary, secondary := scale(cfg, barSeries), scale(cfg, lineSeries)
	pMin, pMax := axisRange(primary, barSeries)
	sMin, sMax := axisRange(secondary, lineSeries)

	drawAxis(dc, area, primary, pMin, pMax, area.left, -1, true)
	drawAxis(dc, area, secondary, sMin, sMax, area.right, 1, secondary.Grid == nil || secondary.Grid.DrawOnChartArea)

	n := len(cfg.Data.Labels)
	slot := 0.0
	if n > 0 {
		slot = area.width() / float64(n)
	}
	center := func(i int) float64 { return area.left + slot*(float64(i)+0.5) }

	dc.SetRGB(0.2, 0.2, 0.2)
	for i, label := range cfg.Data.Labels {
		dc.DrawStringAnchored(label, center(i), area.bottom+8, 0.5, 1)
	}

	// Data outside the fixed axis range is cut at the plot area.
	dc.DrawRectangle(area.left, area.top, area.width(), area.height())
	dc.Clip()

	if barSeries != nil {
		barWidth := slot * rasterBarFill
		for i := 0; i < n; i++ {
			v, ok := value(barSeries, i)
			if !ok {
				break
			}
			top, base := area.y(v, pMin, pMax), area.y(0, pMin, pMax)
			x := center(i) - barWidth/2
			dc.DrawRectangle(x, math.Min(top, base), barWidth, math.Abs(base-top))
			if barSeries.BackgroundColor != nil {
				dc.SetColor(barSeries.BackgroundColor.NRGBA())
				dc.FillPreserve()
			}
			dc.SetColor(barSeries.BorderColor.NRGBA())
			dc.SetLineWidth(barSeries.BorderWidth)
			dc.Stroke()
		}
	}

	if lineSeries != nil {
		var pts []gg.Point
		for i := 0; i < n; i++ {
			v, ok := value(lineSeries, i)
			if !ok {
				break
			}
			pts = append(pts, gg.Point{X: center(i), Y: area.y(v, sMin, sMax)})
		}
		drawCurve(dc, pts, lineSeries.Tension)
		dc.SetColor(lineSeries.BorderColor.NRGBA())
		dc.SetLineWidth(lineSeries.BorderWidth)
		dc.Stroke()
		for _, p := range pts {
			dc.DrawCircle(p.X, p.Y, rasterPointSize)
			dc.Fill()
		}
	}
	dc.ResetClip()

	drawLegend(dc, area, barSeries, lineSeries)

	return drawTo(h, func(w io.Writer) error {
		if err := dc.EncodePNG(w); err != nil {
			return fmt.Errorf("failed to encode chart PNG: %w", err)
		}
		return nil
	})
}

// axisRange returns the displayed range of an axis. Without beginAtZero the
// lower end follows the smallest value.
func axisRange(s chart.Scale, ds *chart.Dataset) (float64, float64) {
	lo, hi := 0.0, s.Max
	if !s.BeginAtZero && ds != nil {
		for _, v := range ds.Data {
			lo = math.Min(lo, v)
		}
	}
	if hi <= lo {
		hi = lo + chart.ScaleMax
	}
	return lo, hi
}

// drawAxis draws an axis line at x with tick labels on side (-1 left, 1 right)
// and, when grid is set, horizontal grid lines across the area.
func drawAxis(dc *gg.Context, area plotArea, s chart.Scale, lo, hi, x float64, side int, grid bool) {
	dc.SetLineWidth(1)
	for i := 0; i <= rasterTicks; i++ {
		v := lo + (hi-lo)*float64(i)/rasterTicks
		y := area.y(v, lo, hi)
		if grid {
			dc.SetRGB(0.9, 0.9, 0.9)
			dc.DrawLine(area.left, y, area.right, y)
			dc.Stroke()
		}
		dc.SetRGB(0.2, 0.2, 0.2)
		label := strconv.FormatFloat(v, 'f', -1, 64)
		if side < 0 {
			dc.DrawStringAnchored(label, x-6, y, 1, 0.5)
		} else {
			dc.DrawStringAnchored(label, x+6, y, 0, 0.5)
		}
	}

	dc.SetRGB(0.4, 0.4, 0.4)
	dc.DrawLine(x, area.top, x, area.bottom)
	dc.Stroke()

	if s.Title.Display && s.Title.Text != "" {
		tx := x + float64(side)*(rasterMarginLeft-20)
		ty := area.top + area.height()/2
		dc.Push()
		dc.RotateAbout(gg.Radians(-90), tx, ty)
		dc.SetRGB(0.2, 0.2, 0.2)
		dc.DrawStringAnchored(s.Title.Text, tx, ty, 0.5, 0.5)
		dc.Pop()
	}
}

// drawCurve adds a path through pts, bending it by tension the way Chart.js
// does (0 draws straight segments).
func drawCurve(dc *gg.Context, pts []gg.Point, tension float64) {
	if len(pts) == 0 {
		return
	}
	dc.MoveTo(pts[0].X, pts[0].Y)
	for i := 1; i < len(pts); i++ {
		if tension == 0 {
			dc.LineTo(pts[i].X, pts[i].Y)
			continue
		}
		p0 := pts[max(i-2, 0)]
		p1, p2 := pts[i-1], pts[i]
		p3 := pts[min(i+1, len(pts)-1)]
		c1 := gg.Point{X: p1.X + (p2.X-p0.X)*tension/2, Y: p1.Y + (p2.Y-p0.Y)*tension/2}
		c2 := gg.Point{X: p2.X - (p3.X-p1.X)*tension/2, Y: p2.Y - (p3.Y-p1.Y)*tension/2}
		dc.CubicTo(c1.X, c1.Y, c2.X, c2.Y, p2.X, p2.Y)
	}
}

func drawLegend(dc *gg.Context, area plotArea, series ...*chart.Dataset) {
	x := area.left
	y := area.top / 2
	for _, ds := range series {
		if ds == nil {
			continue
		}
		fill := ds.BorderColor
		if ds.BackgroundColor != nil {
			fill = *ds.BackgroundColor
		}
		dc.DrawRectangle(x, y-rasterLegendSize/2, rasterLegendSize, rasterLegendSize)
		dc.SetColor(fill.NRGBA())
		dc.Fill()

		dc.SetRGB(0.2, 0.2, 0.2)
		dc.DrawStringAnchored(ds.Label, x+rasterLegendSize+6, y, 0, 0.5)
		w, _ := dc.MeasureString(ds.Label)
		x += rasterLegendSize + 6 + w + 24
	}
}
