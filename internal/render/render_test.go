package render

import (
	"bytes"
	"encoding/json"
	"image/png"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/user/perfchart-go/internal/chart"
	"github.com/user/perfchart-go/internal/models"
	"github.com/user/perfchart-go/internal/surface"
)

const testSurface = "studentPerformanceChart"

func getTestConfiguration() *chart.Configuration {
	return chart.BuildConfiguration(&models.ChartDataset{
		Subjects:   []string{"Math", "Physics", "Chemistry"},
		Marks:      []float64{80, 90, 120},
		Attendance: []float64{95, 88, 70},
	})
}

func drawOnMemory(t *testing.T, r Renderer, cfg *chart.Configuration) []byte {
	t.Helper()
	mem := surface.NewMemory(testSurface)
	h, _ := mem.Resolve(testSurface)
	if err := r.Draw(h, cfg); err != nil {
		t.Fatalf("%T.Draw() error = %v", r, err)
	}
	out := mem.Buffer(testSurface).Bytes()
	if len(out) == 0 {
		t.Fatalf("%T.Draw() left the surface empty", r)
	}
	return out
}

func TestNew(t *testing.T) {
	tests := []struct {
		name string
		ext  string
	}{
		{"chartjs", ".html"},
		{"echarts", ".html"},
		{"plot", ".png"},
		{"raster", ".png"},
		{"json", ".json"},
	}
	for _, tt := range tests {
		r, err := New(tt.name, Options{})
		if err != nil {
			t.Errorf("New(%q) error = %v", tt.name, err)
			continue
		}
		if r.Extension() != tt.ext {
			t.Errorf("New(%q).Extension() = %q, want %q", tt.name, r.Extension(), tt.ext)
		}
	}

	if _, err := New("svg", Options{}); err == nil {
		t.Error("New(\"svg\") succeeded")
	}
}

func TestChartJSDraw(t *testing.T) {
	out := string(drawOnMemory(t, NewChartJS(Options{Width: 640, Height: 320}), getTestConfiguration()))

	for _, want := range []string{
		`<canvas id="studentPerformanceChart" width="640" height="320">`,
		`document.getElementById("studentPerformanceChart")`,
		`"labels":["Math","Physics","Chemistry"]`,
		`"data":[80,90,120]`,
		`"data":[95,88,70]`,
		`"yAxisID":"y1"`,
		`chart.umd.min.js`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Chart.js page missing %s", want)
		}
	}
}

func TestChartJSCustomScript(t *testing.T) {
	r := NewChartJS(Options{ChartJSURL: "/static/chart.js"})
	out := string(drawOnMemory(t, r, getTestConfiguration()))
	if !strings.Contains(out, `<script src="/static/chart.js">`) {
		t.Error("Chart.js page does not load the configured script")
	}
}

func TestEChartsDraw(t *testing.T) {
	out := string(drawOnMemory(t, &ECharts{}, getTestConfiguration()))

	for _, want := range []string{"Marks (%)", "Attendance (%)", "Physics", "echarts"} {
		if !strings.Contains(out, want) {
			t.Errorf("ECharts page missing %q", want)
		}
	}
}

func TestEChartsSecondAxis(t *testing.T) {
	out := string(drawOnMemory(t, &ECharts{}, getTestConfiguration()))

	axes := strings.Index(out, `"yAxis":[`)
	if axes < 0 {
		t.Fatal("ECharts option has no y axis list")
	}
	marks := strings.Index(out[axes:], `"name":"Marks (%)"`)
	attendance := strings.Index(out[axes:], `"name":"Attendance (%)"`)
	if marks < 0 || attendance < 0 || attendance < marks {
		t.Errorf("y axes out of order: marks at %d, attendance at %d", marks, attendance)
	}
	if !strings.Contains(out, `"yAxisIndex":1`) {
		t.Error("line series is not bound to the second y axis")
	}
}

func TestRenderersDrawEmptyDataset(t *testing.T) {
	cfg := chart.BuildConfiguration(&models.ChartDataset{
		Subjects:   []string{},
		Marks:      []float64{},
		Attendance: []float64{},
	})
	for _, name := range []string{"chartjs", "echarts", "plot", "raster", "json"} {
		t.Run(name, func(t *testing.T) {
			r, err := New(name, Options{})
			if err != nil {
				t.Fatalf("New(%q) error = %v", name, err)
			}
			out := drawOnMemory(t, r, cfg)
			if r.Extension() == ".png" {
				if _, err := png.Decode(bytes.NewReader(out)); err != nil {
					t.Errorf("empty chart is not a valid PNG: %v", err)
				}
			}
		})
	}
}

func TestPNGRenderers(t *testing.T) {
	for _, r := range []Renderer{&Plot{Options: Options{Width: 400, Height: 300}}, &Raster{Options: Options{Width: 400, Height: 300}}} {
		out := drawOnMemory(t, r, getTestConfiguration())
		img, err := png.Decode(bytes.NewReader(out))
		if err != nil {
			t.Errorf("%T produced an invalid PNG: %v", r, err)
			continue
		}
		if b := img.Bounds(); b.Dx() != 400 || b.Dy() != 300 {
			t.Errorf("%T image is %dx%d, want 400x300", r, b.Dx(), b.Dy())
		}
	}
}

func TestPNGRenderersTolerateShortSeries(t *testing.T) {
	cfg := chart.BuildConfiguration(&models.ChartDataset{
		Subjects: []string{"Math", "Physics"},
		Marks:    []float64{80},
	})
	for _, r := range []Renderer{&Plot{}, &Raster{}} {
		drawOnMemory(t, r, cfg)
	}
}

func TestRasterRejectsTinyCanvas(t *testing.T) {
	mem := surface.NewMemory(testSurface)
	h, _ := mem.Resolve(testSurface)
	err := (&Raster{Options: Options{Width: 100, Height: 100}}).Draw(h, getTestConfiguration())
	if err == nil {
		t.Error("Draw() on a 100x100 canvas succeeded")
	}
}

func TestJSONDraw(t *testing.T) {
	cfg := getTestConfiguration()
	out := drawOnMemory(t, &JSON{}, cfg)

	var decoded map[string]interface{}
	if err := json.Unmarshal(out, &decoded); err != nil {
		t.Fatalf("JSON renderer output is invalid: %v", err)
	}
	data := decoded["data"].(map[string]interface{})
	labels := data["labels"].([]interface{})
	if !reflect.DeepEqual(labels, []interface{}{"Math", "Physics", "Chemistry"}) {
		t.Errorf("labels = %v", labels)
	}
}

func TestSurfaceOpenError(t *testing.T) {
	// A file surface under a path that is a file cannot be created.
	dir := t.TempDir()
	blocker := surface.NewFile("blocker", filepath.Join(dir, "blocker"))
	w, err := blocker.Open()
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	w.Close()

	h := surface.NewFile(testSurface, filepath.Join(dir, "blocker", "chart.json"))
	if err := (&JSON{}).Draw(h, getTestConfiguration()); err == nil {
		t.Error("Draw() on an unopenable surface succeeded")
	}
}
