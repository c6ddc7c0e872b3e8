package page

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/user/perfchart-go/internal/chart"
	"github.com/user/perfchart-go/internal/models"
	"github.com/user/perfchart-go/internal/surface"
)

type call struct {
	surfaceID string
	ds        *models.ChartDataset
}

type fakeInitializer struct {
	calls []call
}

func (f *fakeInitializer) Initialize(surfaceID string, ds *models.ChartDataset) {
	f.calls = append(f.calls, call{surfaceID, ds})
}

type countingLibrary struct {
	draws int
}

func (c *countingLibrary) Draw(surface.Handle, *chart.Configuration) error {
	c.draws++
	return nil
}

func TestReadyFiresOnce(t *testing.T) {
	doc := NewDocument()
	var order []int
	doc.OnReady(func() { order = append(order, 1) })
	doc.OnReady(func() { order = append(order, 2) })

	if doc.IsReady() {
		t.Fatal("document ready before Ready()")
	}
	doc.Ready()
	doc.Ready()

	if len(order) != 2 || order[0] != 1 || order[1] != 2 {
		t.Errorf("callbacks ran as %v, want [1 2]", order)
	}
	if !doc.IsReady() {
		t.Error("IsReady() = false after Ready()")
	}
}

func TestOnReadyAfterReadyIsIgnored(t *testing.T) {
	doc := NewDocument()
	doc.Ready()

	ran := false
	doc.OnReady(func() { ran = true })
	doc.Ready()

	if ran {
		t.Error("callback registered after the ready event ran")
	}
}

func TestBootstrapWithData(t *testing.T) {
	doc := NewDocument()
	fake := &fakeInitializer{}
	data := &models.ChartDataset{Subjects: []string{"Math"}, Marks: []float64{80}, Attendance: []float64{95}}

	Bootstrap(doc, fake, "", data)
	if len(fake.calls) != 0 {
		t.Fatal("Initialize ran before the document was ready")
	}

	doc.Ready()

	if len(fake.calls) != 1 {
		t.Fatalf("Initialize called %d times, want 1", len(fake.calls))
	}
	if fake.calls[0].surfaceID != "studentPerformanceChart" {
		t.Errorf("surface id = %q", fake.calls[0].surfaceID)
	}
	if fake.calls[0].ds != data {
		t.Error("dataset was not passed through")
	}
}

func TestBootstrapCustomSurface(t *testing.T) {
	doc := NewDocument()
	fake := &fakeInitializer{}

	Bootstrap(doc, fake, "proctorChart", &models.ChartDataset{Subjects: []string{}})
	doc.Ready()

	if len(fake.calls) != 1 || fake.calls[0].surfaceID != "proctorChart" {
		t.Errorf("calls = %+v", fake.calls)
	}
}

func TestBootstrapWithoutDataDoesNothing(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	lib := &countingLibrary{}
	ci := chart.NewInitializer(surface.NewMemory(DefaultSurfaceID), lib, zap.New(core))

	doc := NewDocument()
	Bootstrap(doc, ci, "", nil)
	doc.Ready()

	if lib.draws != 0 {
		t.Errorf("Draw called %d times, want 0", lib.draws)
	}
	if logs.Len() != 0 {
		t.Errorf("got %d log entries, want none", logs.Len())
	}
}

func TestBootstrapEndToEnd(t *testing.T) {
	lib := &countingLibrary{}
	ci := chart.NewInitializer(surface.NewMemory(DefaultSurfaceID), lib, nil)

	doc := NewDocument()
	Bootstrap(doc, ci, "", &models.ChartDataset{
		Subjects:   []string{"Math", "Physics"},
		Marks:      []float64{80, 90},
		Attendance: []float64{95, 88},
	})
	doc.Ready()

	if lib.draws != 1 {
		t.Errorf("Draw called %d times, want 1", lib.draws)
	}
}

func TestBootstrapJSON(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		wantDraws int
		wantLogs  int
	}{
		{"no payload", "", 0, 0},
		{"null", " null\n", 0, 0},
		{"dataset", `{"subjects":["Math"],"marks":[80],"attendance":[95]}`, 1, 1},
		{"wrong shape", `{"subjects":"Math"}`, 0, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zapcore.DebugLevel)
			lib := &countingLibrary{}
			ci := chart.NewInitializer(surface.NewMemory(DefaultSurfaceID), lib, zap.New(core))

			doc := NewDocument()
			BootstrapJSON(doc, ci, "", []byte(tt.raw))
			doc.Ready()

			if lib.draws != tt.wantDraws {
				t.Errorf("Draw called %d times, want %d", lib.draws, tt.wantDraws)
			}
			if logs.Len() != tt.wantLogs {
				t.Errorf("got %d log entries, want %d", logs.Len(), tt.wantLogs)
			}
		})
	}
}
