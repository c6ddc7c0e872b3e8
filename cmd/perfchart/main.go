package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/user/perfchart-go/internal/chart"
	"github.com/user/perfchart-go/internal/collector"
	"github.com/user/perfchart-go/internal/config"
	applog "github.com/user/perfchart-go/internal/infra/log"
	"github.com/user/perfchart-go/internal/page"
	"github.com/user/perfchart-go/internal/render"
	"github.com/user/perfchart-go/internal/surface"
)

const (
	version            = "0.1.0"
	defaultDatasetFile = "performance_data.json"
)

var (
	// Used for flags.
	configFile  string
	datasetPath string

	rootCmd = &cobra.Command{
		Use:   "perfchart",
		Short: "perfchart draws student performance charts.",
		Long: `perfchart turns per-subject marks and attendance into a dual-axis chart:
marks as bars on the left axis, attendance as a line on the right axis,
both fixed to 0-100%.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	collectCmd = &cobra.Command{
		Use:   "collect [MARKS_FILE]",
		Short: "Builds a chart dataset from marks records.",
		Long: `Reads marks records from MARKS_FILE (.json, .csv or .xlsx), keeps the selected
student and semester, and writes the chart dataset (subjects, marks, attendance)
as JSON.`,
		Args: cobra.ExactArgs(1),
		RunE: runCollect,
	}

	renderCmd = &cobra.Command{
		Use:   "render [DATA_FILE]",
		Short: "Draws the performance chart for a dataset.",
		Long: `Loads the chart dataset from DATA_FILE (default performance_data.json) and draws
it on the configured surface once the page is ready. A missing dataset draws
nothing; a missing surface or malformed dataset is logged and skipped.

The page's canvases are the ids listed in chart.surfaces (default
studentPerformanceChart). --surface only resolves to one of those; any other id
is reported as a missing canvas.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runRender,
	}

	configCmd = &cobra.Command{
		Use:   "config [DATA_FILE]",
		Short: "Prints the chart configuration built for a dataset.",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runConfig,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (default ./perfchart.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level: debug, info, warn or error")
	rootCmd.PersistentFlags().String("log-file", "", "Also write logs to this file")

	collectCmd.Flags().StringVarP(&datasetPath, "output-file-path", "o", defaultDatasetFile, "Output file for the dataset JSON")
	collectCmd.Flags().String("usn", "", "Student USN to keep (empty keeps all)")
	collectCmd.Flags().Int("semester", 0, "Semester to keep (0 keeps all)")
	collectCmd.Flags().String("cache-dir", ".perfchart/cache", "Dataset cache directory (empty disables caching)")

	renderCmd.Flags().StringP("renderer", "r", "chartjs", "Chart library: chartjs, echarts, plot, raster or json")
	renderCmd.Flags().StringP("surface", "s", page.DefaultSurfaceID, "Surface id to draw on; must be one of chart.surfaces")
	renderCmd.Flags().String("output-dir", "charts", "Directory holding the surfaces")
	renderCmd.Flags().Int("width", 800, "Chart width in pixels")
	renderCmd.Flags().Int("height", 400, "Chart height in pixels")

	rootCmd.AddCommand(collectCmd)
	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(configCmd)
}

// setup loads the configuration with the command's flags bound and builds the logger.
func setup(cmd *cobra.Command) (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(configFile, cmd.Flags())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	logger, err := applog.New(cfg.LogOptions())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return cfg, logger, nil
}

func runCollect(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()

	sourcePath := args[0]
	fmt.Printf("Collecting dataset from: %s\n", sourcePath)
	dc, err := collector.NewDatasetCollector(sourcePath, cfg.Collect.USN, cfg.Collect.Semester, cfg.Collect.CacheDir, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize collector for %s: %w", sourcePath, err)
	}
	if err := dc.Collect(); err != nil {
		return fmt.Errorf("error during dataset collection for %s: %w", sourcePath, err)
	}

	absOutputPath, err := filepath.Abs(datasetPath)
	if err != nil {
		return fmt.Errorf("invalid output file path '%s': %w", datasetPath, err)
	}
	if err := collector.WriteDataset(absOutputPath, &dc.Data); err != nil {
		return fmt.Errorf("failed to write dataset to %s: %w", absOutputPath, err)
	}
	fmt.Printf("Dataset with %d subjects written to: %s\n", len(dc.Data.Subjects), absOutputPath)
	return nil
}

func runRender(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()

	dataPath := defaultDatasetFile
	if len(args) == 1 {
		dataPath = args[0]
	}
	raw, err := collector.ReadDataset(dataPath)
	if err != nil {
		return err
	}

	renderer, err := render.New(cfg.Chart.Renderer, render.Options{
		Width:      cfg.Chart.Width,
		Height:     cfg.Chart.Height,
		ChartJSURL: cfg.Chart.ChartJSURL,
	})
	if err != nil {
		return err
	}

	surfaces := surface.NewDirectory(cfg.Chart.OutputDir, renderer.Extension(), cfg.Chart.Surfaces...)
	initializer := chart.NewInitializer(surfaces, renderer, logger)

	doc := page.NewDocument()
	page.BootstrapJSON(doc, initializer, cfg.Chart.SurfaceID, raw)
	doc.Ready()

	if raw == nil {
		fmt.Printf("No dataset at %s, nothing to draw.\n", dataPath)
	}
	return nil
}

func runConfig(cmd *cobra.Command, args []string) error {
	dataPath := defaultDatasetFile
	if len(args) == 1 {
		dataPath = args[0]
	}
	data, err := collector.LoadDataset(dataPath)
	if err != nil {
		return err
	}
	if err := chart.Validate(data); err != nil {
		return fmt.Errorf("%s: %w", dataPath, err)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(chart.BuildConfiguration(data))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
