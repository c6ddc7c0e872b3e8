package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/spf13/pflag"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("", nil)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Chart.Renderer != "chartjs" {
		t.Errorf("Renderer = %q, want chartjs", cfg.Chart.Renderer)
	}
	if cfg.Chart.SurfaceID != "studentPerformanceChart" {
		t.Errorf("SurfaceID = %q", cfg.Chart.SurfaceID)
	}
	if !reflect.DeepEqual(cfg.Chart.Surfaces, []string{"studentPerformanceChart"}) {
		t.Errorf("Surfaces = %v", cfg.Chart.Surfaces)
	}
	if cfg.Chart.Width != 800 || cfg.Chart.Height != 400 {
		t.Errorf("size = %dx%d, want 800x400", cfg.Chart.Width, cfg.Chart.Height)
	}
	if cfg.Collect.Semester != 0 || cfg.Log.Level != "info" {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
}

func TestLoadFileEnvAndFlags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "perfchart.yaml")
	yaml := `chart:
  renderer: echarts
  surfaces: [studentPerformanceChart, proctorChart]
  width: 1024
collect:
  semester: 3
`
	if err := os.WriteFile(path, []byte(yaml), 0600); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	t.Setenv("PERFCHART_CHART_HEIGHT", "512")
	t.Setenv("PERFCHART_LOG_LEVEL", "debug")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("renderer", "chartjs", "")
	flags.Int("semester", 0, "")
	flags.String("usn", "", "")
	if err := flags.Parse([]string{"--renderer", "raster", "--usn", " 1XX21CS001 "}); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	cfg, err := Load(path, flags)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Chart.Renderer != "raster" {
		t.Errorf("Renderer = %q, want the flag value raster", cfg.Chart.Renderer)
	}
	if cfg.Collect.Semester != 3 {
		t.Errorf("Semester = %d, want 3 from the file (flag not set)", cfg.Collect.Semester)
	}
	if cfg.Collect.USN != "1XX21CS001" {
		t.Errorf("USN = %q, want the trimmed flag value", cfg.Collect.USN)
	}
	if cfg.Chart.Width != 1024 || cfg.Chart.Height != 512 {
		t.Errorf("size = %dx%d, want 1024x512", cfg.Chart.Width, cfg.Chart.Height)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want debug", cfg.Log.Level)
	}
	if !reflect.DeepEqual(cfg.Chart.Surfaces, []string{"studentPerformanceChart", "proctorChart"}) {
		t.Errorf("Surfaces = %v", cfg.Chart.Surfaces)
	}
}

func TestLoadMissingConfigFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), nil); err == nil {
		t.Error("Load() with a missing explicit config file succeeded")
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Chart: ChartConfig{Renderer: "plot", Surfaces: []string{"c"}, Width: 10, Height: 10},
			Log:   LogConfig{Level: "info"},
		}
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"valid", func(*Config) {}, true},
		{"unknown renderer", func(c *Config) { c.Chart.Renderer = "svg" }, false},
		{"zero width", func(c *Config) { c.Chart.Width = 0 }, false},
		{"no surfaces", func(c *Config) { c.Chart.Surfaces = nil }, false},
		{"negative semester", func(c *Config) { c.Collect.Semester = -1 }, false},
		{"bad log level", func(c *Config) { c.Log.Level = "chatty" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err == nil) != tt.ok {
				t.Errorf("Validate() error = %v, want ok=%v", err, tt.ok)
			}
		})
	}
}
