// Package page models the hosting page's ready lifecycle and the bootstrap
// hook that draws the performance chart once the page is ready.
package page

import (
	"bytes"
	"sync"

	"github.com/user/perfchart-go/internal/models"
)

// DefaultSurfaceID is the surface the bootstrap hook draws on.
const DefaultSurfaceID = "studentPerformanceChart"

// Document owns the ready event. Ready fires at most once; callbacks
// registered after it fired are never run.
type Document struct {
	mu      sync.Mutex
	fired   bool
	onReady []func()
	once    sync.Once
}

// NewDocument returns a document that has not become ready yet.
func NewDocument() *Document {
	return &Document{}
}

// OnReady registers fn for the ready event.
func (d *Document) OnReady(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.fired {
		return
	}
	d.onReady = append(d.onReady, fn)
}

// Ready fires the ready event, running callbacks in registration order.
func (d *Document) Ready() {
	d.once.Do(func() {
		d.mu.Lock()
		d.fired = true
		fns := d.onReady
		d.onReady = nil
		d.mu.Unlock()

		for _, fn := range fns {
			fn()
		}
	})
}

// IsReady reports whether the ready event has fired.
func (d *Document) IsReady() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.fired
}

// Initializer draws a chart on a surface. *chart.Initializer satisfies it.
type Initializer interface {
	Initialize(surfaceID string, ds *models.ChartDataset)
}

// Bootstrap registers the chart hook on doc. When the page becomes ready the
// chart is initialized on surfaceID if data was supplied; a nil data does
// nothing. An empty surfaceID means DefaultSurfaceID.
func Bootstrap(doc *Document, initializer Initializer, surfaceID string, data *models.ChartDataset) {
	if surfaceID == "" {
		surfaceID = DefaultSurfaceID
	}
	doc.OnReady(func() {
		if data == nil {
			return
		}
		initializer.Initialize(surfaceID, data)
	})
}

// JSONInitializer draws a chart from an undecoded JSON payload.
type JSONInitializer interface {
	InitializeJSON(surfaceID string, raw []byte)
}

// BootstrapJSON is Bootstrap for a payload embedded in the page as JSON. An
// empty payload or JSON null counts as no data; anything else, however
// malformed, is handed to the initializer to judge.
func BootstrapJSON(doc *Document, initializer JSONInitializer, surfaceID string, raw []byte) {
	if surfaceID == "" {
		surfaceID = DefaultSurfaceID
	}
	doc.OnReady(func() {
		payload := bytes.TrimSpace(raw)
		if len(payload) == 0 || bytes.Equal(payload, []byte("null")) {
			return
		}
		initializer.InitializeJSON(surfaceID, payload)
	})
}
