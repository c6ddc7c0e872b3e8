package render

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/user/perfchart-go/internal/chart"
	"github.com/user/perfchart-go/internal/surface"
)

// JSON writes the configuration itself, indented, for another front end to consume.
type JSON struct{}

func (j *JSON) Extension() string { return ".json" }

func (j *JSON) Draw(h surface.Handle, cfg *chart.Configuration) error {
	return drawTo(h, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(cfg); err != nil {
			return fmt.Errorf("failed to marshal chart configuration to JSON: %w", err)
		}
		return nil
	})
}
