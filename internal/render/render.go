// Package render holds the charting libraries a performance chart can be
// drawn with. Each one takes a surface handle and a chart configuration and
// owns the drawing from there.
package render

import (
	"fmt"
	"io"

	"github.com/user/perfchart-go/internal/chart"
	"github.com/user/perfchart-go/internal/surface"
)

// Renderer is a chart library with the file extension of what it draws.
type Renderer interface {
	chart.Library
	Extension() string
}

// Options are shared by all renderers. Zero sizes fall back to 800x400.
type Options struct {
	Width      int
	Height     int
	ChartJSURL string
}

func (o Options) size() (int, int) {
	w, h := o.Width, o.Height
	if w <= 0 {
		w = 800
	}
	if h <= 0 {
		h = 400
	}
	return w, h
}

// New returns the renderer registered under name.
func New(name string, opts Options) (Renderer, error) {
	switch name {
	case "chartjs":
		return NewChartJS(opts), nil
	case "echarts":
		return &ECharts{Options: opts}, nil
	case "plot":
		return &Plot{Options: opts}, nil
	case "raster":
		return &Raster{Options: opts}, nil
	case "json":
		return &JSON{}, nil
	default:
		return nil, fmt.Errorf("unknown renderer '%s'", name)
	}
}

// drawTo opens h, lets draw write to it and closes it, keeping the first error.
func drawTo(h surface.Handle, draw func(w io.Writer) error) (err error) {
	w, err := h.Open()
	if err != nil {
		return fmt.Errorf("failed to open surface %s: %w", h.ID(), err)
	}
	defer func() {
		if cerr := w.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close surface %s: %w", h.ID(), cerr)
		}
	}()
	return draw(w)
}

// scale returns the configuration's scale for a series, with a 0-100 fallback.
func scale(cfg *chart.Configuration, ds *chart.Dataset) chart.Scale {
	if ds != nil {
		if s, ok := cfg.Options.Scales[ds.YAxisID]; ok {
			return s
		}
	}
	return chart.Scale{BeginAtZero: true, Max: chart.ScaleMax}
}

// value returns the i-th point of a series, 0 when the series is shorter.
func value(ds *chart.Dataset, i int) (float64, bool) {
	if ds == nil || i >= len(ds.Data) {
		return 0, false
	}
	return ds.Data[i], true
}
