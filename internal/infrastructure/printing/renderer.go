package printing

import (
	"context"
	"time"
)

// A4 page size in inches, the unit Chrome's print API expects.
const (
	A4WidthInches  = 210.0 / 25.4
	A4HeightInches = 297.0 / 25.4
)

// RenderResult contains the output from PDF rendering
type RenderResult struct {
	PDF            []byte
	RenderDuration time.Duration
}

// Rasterizer converts a self-contained HTML document into a PDF.
type Rasterizer interface {
	// Rasterize renders markup into an A4 PDF. It fails with a RenderTimeout
	// or RenderProcessFailure domain error.
	Rasterize(ctx context.Context, markup []byte) (*RenderResult, error)
	// Close releases any resources held by the rasterizer
	Close() error
}

// pxToInches converts CSS pixels (96 per inch) to inches.
func pxToInches(px float64) float64 {
	return px / 96.0
}
