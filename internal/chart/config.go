package chart

import (
	"fmt"
	"image/color"
	"math"
	"slices"
	"strconv"

	"github.com/user/perfchart-go/internal/models"
)

// Series labels and scale ids of the performance chart.
const (
	MarksLabel      = "Marks (%)"
	AttendanceLabel = "Attendance (%)"

	MarksAxisID      = "y"
	AttendanceAxisID = "y1"

	// ScaleMax is the fixed top of both vertical scales. Data above it is not clamped.
	ScaleMax = 100
)

var (
	marksFill       = Color{R: 54, G: 162, B: 235, A: 0.7}
	marksBorder     = Color{R: 54, G: 162, B: 235, A: 1}
	attendanceColor = Color{R: 255, G: 99, B: 132, A: 1}
)

// Configuration is the full description handed to a charting library.
// It marshals to the object Chart.js expects as its second constructor argument.
type Configuration struct {
	Type    string  `json:"type"`
	Data    Data    `json:"data"`
	Options Options `json:"options"`
}

// Data holds the category labels and the series plotted over them.
type Data struct {
	Labels   []string  `json:"labels"`
	Datasets []Dataset `json:"datasets"`
}

// Dataset is one series. Type overrides the chart type when set.
type Dataset struct {
	Label           string    `json:"label"`
	Data            []float64 `json:"data"`
	Type            string    `json:"type,omitempty"`
	BackgroundColor *Color    `json:"backgroundColor,omitempty"`
	BorderColor     Color     `json:"borderColor"`
	BorderWidth     float64   `json:"borderWidth"`
	Tension         float64   `json:"tension,omitempty"`
	YAxisID         string    `json:"yAxisID"`
}

// Options are the chart wide display options.
type Options struct {
	Responsive bool             `json:"responsive"`
	Scales     map[string]Scale `json:"scales"`
}

// Scale configures one vertical axis.
type Scale struct {
	BeginAtZero bool    `json:"beginAtZero"`
	Max         float64 `json:"max"`
	Position    string  `json:"position,omitempty"`
	Grid        *Grid   `json:"grid,omitempty"`
	Title       Title   `json:"title"`
}

type Grid struct {
	DrawOnChartArea bool `json:"drawOnChartArea"`
}

type Title struct {
	Display bool   `json:"display"`
	Text    string `json:"text"`
}

// Color is an RGB color with a fractional alpha, written as a CSS rgba() string.
type Color struct {
	R, G, B uint8
	A       float64
}

func (c Color) String() string {
	return fmt.Sprintf("rgba(%d,%d,%d,%s)", c.R, c.G, c.B, strconv.FormatFloat(c.A, 'f', -1, 64))
}

func (c Color) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// NRGBA converts c for the image based renderers.
func (c Color) NRGBA() color.NRGBA {
	a := math.Round(math.Max(0, math.Min(1, c.A)) * 255)
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: uint8(a)}
}

// Bar returns the bar series, or nil if the configuration has none.
func (c *Configuration) Bar() *Dataset {
	return c.series("bar")
}

// Line returns the line series, or nil if the configuration has none.
func (c *Configuration) Line() *Dataset {
	return c.series("line")
}

func (c *Configuration) series(want string) *Dataset {
	for i := range c.Data.Datasets {
		t := c.Data.Datasets[i].Type
		if t == "" {
			t = c.Type
		}
		if t == want {
			return &c.Data.Datasets[i]
		}
	}
	return nil
}

// BuildConfiguration derives the dual-axis marks/attendance chart for ds.
// ds must have passed Validate. The result does not share slices with ds.
func BuildConfiguration(ds *models.ChartDataset) *Configuration {
	fill := marksFill
	return &Configuration{
		Type: "bar",
		Data: Data{
			Labels: slices.Clone(ds.Subjects),
			Datasets: []Dataset{
				{
					Label:           MarksLabel,
					Data:            slices.Clone(ds.Marks),
					BackgroundColor: &fill,
					BorderColor:     marksBorder,
					BorderWidth:     1,
					YAxisID:         MarksAxisID,
				},
				{
					Label:       AttendanceLabel,
					Data:        slices.Clone(ds.Attendance),
					Type:        "line",
					BorderColor: attendanceColor,
					BorderWidth: 3,
					Tension:     0.3,
					YAxisID:     AttendanceAxisID,
				},
			},
		},
		Options: Options{
			Responsive: true,
			Scales: map[string]Scale{
				MarksAxisID: {
					BeginAtZero: true,
					Max:         ScaleMax,
					Title:       Title{Display: true, Text: MarksLabel},
				},
				AttendanceAxisID: {
					BeginAtZero: true,
					Max:         ScaleMax,
					Position:    "right",
					// Keep the secondary axis from drawing over the primary grid.
					Grid:  &Grid{DrawOnChartArea: false},
					Title: Title{Display: true, Text: AttendanceLabel},
				},
			},
		},
	}
}
