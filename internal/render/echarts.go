package render

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/user/perfchart-go/internal/chart"
	"github.com/user/perfchart-go/internal/surface"
)

// ECharts draws the chart as a standalone Apache ECharts page: the bar series
// on the first y axis and the line series overlapped on an extended right axis.
type ECharts struct {
	Options
}

func (e *ECharts) Extension() string { return ".html" }

func (e *ECharts) Draw(h surface.Handle, cfg *chart.Configuration) error {
	width, height := e.size()
	barSeries, lineSeries := cfg.Bar(), cfg.Line()

	initOpts := opts.Initialization{
		PageTitle: "Student Performance",
		ChartID:   h.ID(),
		Width:     fmt.Sprintf("%dpx", width),
		Height:    fmt.Sprintf("%dpx", height),
	}
	if cfg.Options.Responsive {
		initOpts.Width = "100%"
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(initOpts),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithYAxisOpts(yAxis(scale(cfg, barSeries))),
	)
	bar.ExtendYAxis(yAxis(scale(cfg, lineSeries)))
	bar.SetXAxis(cfg.Data.Labels)

	if barSeries != nil {
		items := make([]opts.BarData, 0, len(barSeries.Data))
		for _, v := range barSeries.Data {
			items = append(items, opts.BarData{Value: v})
		}
		style := opts.ItemStyle{BorderColor: barSeries.BorderColor.String()}
		if barSeries.BackgroundColor != nil {
			style.Color = barSeries.BackgroundColor.String()
		}
		bar.AddSeries(barSeries.Label, items, charts.WithItemStyleOpts(style))
	}

	if lineSeries != nil {
		items := make([]opts.LineData, 0, len(lineSeries.Data))
		for _, v := range lineSeries.Data {
			items = append(items, opts.LineData{Value: v})
		}
		line := charts.NewLine()
		line.SetXAxis(cfg.Data.Labels)
		line.AddSeries(lineSeries.Label, items,
			charts.WithLineChartOpts(opts.LineChart{
				Smooth:     opts.Bool(lineSeries.Tension > 0),
				YAxisIndex: 1,
			}),
			charts.WithLineStyleOpts(opts.LineStyle{
				Color: lineSeries.BorderColor.String(),
				Width: float32(lineSeries.BorderWidth),
			}),
			charts.WithItemStyleOpts(opts.ItemStyle{Color: lineSeries.BorderColor.String()}),
		)
		bar.Overlap(line)
	}

	return drawTo(h, func(w io.Writer) error {
		if err := bar.Render(w); err != nil {
			return fmt.Errorf("failed to render echarts page: %w", err)
		}
		return nil
	})
}

// yAxis converts a scale. ECharts puts the second axis of a grid on the
// opposite side, so the line scale lands on the right without a position.
func yAxis(s chart.Scale) opts.YAxis {
	axis := opts.YAxis{
		Type: "value",
		Max:  s.Max,
	}
	if s.Title.Display {
		axis.Name = s.Title.Text
	}
	if s.BeginAtZero {
		axis.Min = 0
	}
	if s.Grid != nil && !s.Grid.DrawOnChartArea {
		axis.SplitLine = &opts.SplitLine{Show: opts.Bool(false)}
	}
	return axis
}
