package render

import (
	"embed"
	"fmt"
	"html/template"
	"io"

	"github.com/user/perfchart-go/internal/chart"
	"github.com/user/perfchart-go/internal/surface"
)

//go:embed templates/chart.html.tmpl
var templateFS embed.FS

var chartPage = template.Must(template.ParseFS(templateFS, "templates/chart.html.tmpl"))

const defaultChartJSURL = "https://cdn.jsdelivr.net/npm/chart.js@4/dist/chart.umd.min.js"

// ChartJS writes an HTML page with a canvas named after the surface and a
// script handing the configuration to Chart.js in the browser.
type ChartJS struct {
	Options
}

func NewChartJS(opts Options) *ChartJS {
	if opts.ChartJSURL == "" {
		opts.ChartJSURL = defaultChartJSURL
	}
	return &ChartJS{Options: opts}
}

func (c *ChartJS) Extension() string { return ".html" }

func (c *ChartJS) Draw(h surface.Handle, cfg *chart.Configuration) error {
	width, height := c.size()
	page := struct {
		Title     string
		ScriptURL string
		SurfaceID string
		Width     int
		Height    int
		Config    *chart.Configuration
	}{
		Title:     "Student Performance",
		ScriptURL: c.ChartJSURL,
		SurfaceID: h.ID(),
		Width:     width,
		Height:    height,
		Config:    cfg,
	}

	return drawTo(h, func(w io.Writer) error {
		if err := chartPage.Execute(w, page); err != nil {
			return fmt.Errorf("failed to execute chart page template: %w", err)
		}
		return nil
	})
}
