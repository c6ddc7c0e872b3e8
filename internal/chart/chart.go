// Package chart builds the student performance chart (marks as bars, attendance
// as a line on its own axis) and hands it to a charting library.
package chart

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/user/perfchart-go/internal/models"
	"github.com/user/perfchart-go/internal/surface"
)

var (
	ErrSurfaceNotFound = errors.New("chart surface not found")
	ErrInvalidDataset  = errors.New("invalid chart dataset")
)

// SurfaceError reports a surface id that did not resolve.
type SurfaceError struct {
	ID string
}

func (e *SurfaceError) Error() string {
	return fmt.Sprintf("%v: %q", ErrSurfaceNotFound, e.ID)
}

func (e *SurfaceError) Unwrap() error { return ErrSurfaceNotFound }

// DatasetError reports a dataset that is absent, has no subjects or is not
// shaped like a dataset at all. Raw holds the undecodable payload.
type DatasetError struct {
	Dataset *models.ChartDataset
	Raw     json.RawMessage
	Reason  string
}

func (e *DatasetError) Error() string {
	return fmt.Sprintf("%v: %s", ErrInvalidDataset, e.Reason)
}

func (e *DatasetError) Unwrap() error { return ErrInvalidDataset }

// Resolver looks up a rendering surface by identifier.
type Resolver interface {
	Resolve(id string) (surface.Handle, bool)
}

// Library is a charting library: it takes a surface and a configuration and
// owns all drawing from then on.
type Library interface {
	Draw(h surface.Handle, cfg *Configuration) error
}

// Initializer wires a Resolver and a Library together. It holds no state of
// its own, so every call is an independent render attempt.
type Initializer struct {
	resolver Resolver
	library  Library
	logger   *zap.Logger
}

// NewInitializer creates an Initializer. A nil logger discards log output.
func NewInitializer(resolver Resolver, library Library, logger *zap.Logger) *Initializer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Initializer{resolver: resolver, library: library, logger: logger}
}

// Validate checks that ds is present and carries a subjects field.
// Length mismatches between the series are left to the library.
func Validate(ds *models.ChartDataset) error {
	if ds == nil {
		return &DatasetError{Reason: "dataset is absent"}
	}
	if ds.Subjects == nil {
		return &DatasetError{Dataset: ds, Reason: "dataset has no subjects"}
	}
	return nil
}

// DecodeDataset decodes a JSON payload. A payload that is not a dataset
// object yields a *DatasetError carrying it; JSON null yields nil.
func DecodeDataset(raw []byte) (*models.ChartDataset, error) {
	var ds *models.ChartDataset
	if err := json.Unmarshal(raw, &ds); err != nil {
		return nil, &DatasetError{
			Raw:    slices.Clone(raw),
			Reason: "dataset is malformed: " + err.Error(),
		}
	}
	return ds, nil
}

// Render resolves the surface, validates ds and draws the chart. Errors wrap
// ErrSurfaceNotFound, ErrInvalidDataset or the library's own error.
func (i *Initializer) Render(surfaceID string, ds *models.ChartDataset) error {
	return i.render(surfaceID, ds, nil)
}

// RenderJSON is Render for a JSON payload that has not been decoded yet.
func (i *Initializer) RenderJSON(surfaceID string, raw []byte) error {
	ds, err := DecodeDataset(raw)
	return i.render(surfaceID, ds, err)
}

// render checks the surface before the dataset, so a decode failure is only
// reported for a surface that exists.
func (i *Initializer) render(surfaceID string, ds *models.ChartDataset, decodeErr error) error {
	h, ok := i.resolver.Resolve(surfaceID)
	if !ok {
		return &SurfaceError{ID: surfaceID}
	}
	if decodeErr != nil {
		return decodeErr
	}
	if err := Validate(ds); err != nil {
		return err
	}

	cfg := BuildConfiguration(ds)
	if err := i.library.Draw(h, cfg); err != nil {
		return fmt.Errorf("failed to draw chart on surface %s: %w", surfaceID, err)
	}
	return nil
}

// Initialize renders the chart and never fails the caller: a missing surface,
// a malformed dataset or a library failure is logged once and dropped.
func (i *Initializer) Initialize(surfaceID string, ds *models.ChartDataset) {
	i.report(surfaceID, ds, i.Render(surfaceID, ds))
}

// InitializeJSON is Initialize for a JSON payload.
func (i *Initializer) InitializeJSON(surfaceID string, raw []byte) {
	ds, err := DecodeDataset(raw)
	i.report(surfaceID, ds, i.render(surfaceID, ds, err))
}

func (i *Initializer) report(surfaceID string, ds *models.ChartDataset, err error) {
	if err == nil {
		i.logger.Debug("Performance chart rendered",
			zap.String("surface_id", surfaceID),
			zap.Int("subjects", len(ds.Subjects)))
		return
	}

	var dsErr *DatasetError
	switch {
	case errors.Is(err, ErrSurfaceNotFound):
		i.logger.Error("Chart canvas not found", zap.String("surface_id", surfaceID))
	case errors.As(err, &dsErr):
		data := zap.Any("data", dsErr.Dataset)
		if dsErr.Raw != nil {
			data = zap.ByteString("data", dsErr.Raw)
		}
		i.logger.Error("Invalid data",
			zap.String("surface_id", surfaceID),
			zap.String("reason", dsErr.Reason),
			data)
	default:
		i.logger.Error("Chart rendering failed", zap.String("surface_id", surfaceID), zap.Error(err))
	}
}
