package gratingaux

import (
	"context"
	"errors"

	"github.com/lightest/grating"
	"github.com/lightest/grating/glbuild"
)

// UIConfig configures the live preview window.
type UIConfig struct {
	Width, Height int
	Pattern       grating.PatternID
	Catalog       *grating.Catalog
	// SF is the spatial frequency in cycles across the window. Default 1.
	SF float32
	// DriftHz drifts the phase in cycles per second. Space pauses the drift,
	// arrow keys up and down change SF and escape closes the window.
	DriftHz float32
	// Context cancels the preview. May be nil.
	Context context.Context
}

// UI opens a window previewing an analytic pattern on the GPU. Requires cgo.
func UI(cfg UIConfig) error {
	if cfg.Width == 0 && cfg.Height == 0 {
		cfg.Width, cfg.Height = 800, 600
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return errors.New("invalid preview window size")
	}
	if cfg.Catalog == nil {
		cfg.Catalog = grating.DefaultCatalog()
	}
	if cfg.SF == 0 {
		cfg.SF = 1
	}
	if cfg.Context == nil {
		cfg.Context = context.Background()
	}
	def, ok := cfg.Catalog.Lookup(cfg.Pattern)
	if !ok {
		return errors.New("pattern not found in catalog: " + string(cfg.Pattern))
	}
	return ui(def, cfg)
}

// previewUniforms returns the uniforms of def with frequency and phase
// applied where the pattern declares them.
func previewUniforms(def grating.PatternDefinition, sf, phase float32) glbuild.Uniforms {
	return glbuild.Merge(def.DefaultUniforms, grating.AnalyticUniforms(def.DefaultUniforms, sf, phase))
}
