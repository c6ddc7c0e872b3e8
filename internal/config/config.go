package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	applog "github.com/user/perfchart-go/internal/infra/log"
)

// Renderers lists the chart library adapters the CLI can draw with.
var Renderers = []string{"chartjs", "echarts", "plot", "raster", "json"}

// Config is the application configuration.
type Config struct {
	Chart   ChartConfig   `mapstructure:"chart"`
	Collect CollectConfig `mapstructure:"collect"`
	Log     LogConfig     `mapstructure:"log"`
}

// ChartConfig controls where and how the chart is drawn.
type ChartConfig struct {
	Renderer   string   `mapstructure:"renderer"`
	SurfaceID  string   `mapstructure:"surface_id"`
	Surfaces   []string `mapstructure:"surfaces"` // Ids that exist on the page
	OutputDir  string   `mapstructure:"output_dir"`
	Width      int      `mapstructure:"width"`  // Pixels, raster and HTML renderers
	Height     int      `mapstructure:"height"` // Pixels, raster and HTML renderers
	ChartJSURL string   `mapstructure:"chartjs_url"`
}

// CollectConfig controls dataset assembly from marks records.
type CollectConfig struct {
	USN      string `mapstructure:"usn"`      // Empty keeps all students
	Semester int    `mapstructure:"semester"` // 0 keeps all semesters
	CacheDir string `mapstructure:"cache_dir"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

// flagKeys maps command line flag names to configuration keys.
var flagKeys = map[string]string{
	"renderer":   "chart.renderer",
	"surface":    "chart.surface_id",
	"output-dir": "chart.output_dir",
	"width":      "chart.width",
	"height":     "chart.height",
	"usn":        "collect.usn",
	"semester":   "collect.semester",
	"cache-dir":  "collect.cache_dir",
	"log-level":  "log.level",
	"log-file":   "log.file",
}

// Load reads the configuration in order of increasing priority:
//  1. defaults
//  2. perfchart.yaml in the working directory, or configFile when given
//  3. .env file
//  4. PERFCHART_* environment variables
//  5. flags that were set on the command line
func Load(configFile string, flags *pflag.FlagSet) (*Config, error) {
	// A missing .env is fine.
	_ = godotenv.Load(".env")

	v := viper.New()
	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	} else {
		v.SetConfigName("perfchart")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read perfchart.yaml: %w", err)
			}
		}
	}

	v.SetEnvPrefix("PERFCHART")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("failed to bind flag --%s: %w", name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}
	cfg.Collect.USN = strings.TrimSpace(cfg.Collect.USN)
	for i, id := range cfg.Chart.Surfaces {
		cfg.Chart.Surfaces[i] = strings.TrimSpace(id)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("chart.renderer", "chartjs")
	v.SetDefault("chart.surface_id", "studentPerformanceChart")
	v.SetDefault("chart.surfaces", []string{"studentPerformanceChart"})
	v.SetDefault("chart.output_dir", "charts")
	v.SetDefault("chart.width", 800)
	v.SetDefault("chart.height", 400)
	v.SetDefault("chart.chartjs_url", "https://cdn.jsdelivr.net/npm/chart.js@4/dist/chart.umd.min.js")

	v.SetDefault("collect.usn", "")
	v.SetDefault("collect.semester", 0)
	v.SetDefault("collect.cache_dir", ".perfchart/cache")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
}

// Validate rejects settings the renderers cannot work with.
func (c *Config) Validate() error {
	if !slices.Contains(Renderers, c.Chart.Renderer) {
		return fmt.Errorf("invalid renderer '%s'. Must be one of %s", c.Chart.Renderer, strings.Join(Renderers, ", "))
	}
	if c.Chart.Width <= 0 || c.Chart.Height <= 0 {
		return fmt.Errorf("chart size must be positive, got %dx%d", c.Chart.Width, c.Chart.Height)
	}
	if len(c.Chart.Surfaces) == 0 {
		return errors.New("no chart surfaces declared")
	}
	if c.Collect.Semester < 0 {
		return fmt.Errorf("semester must not be negative, got %d", c.Collect.Semester)
	}
	if _, err := applog.ParseLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}

// LogOptions converts the log section for the logger constructor.
func (c *Config) LogOptions() applog.Options {
	return applog.Options{Level: c.Log.Level, File: c.Log.File}
}
