package grating

import (
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"slices"

	"github.com/gogpu/gg"
	"github.com/lightest/grating/glrender"
	"github.com/soypat/geometry/ms2"
)

// Units selects the coordinate system of stimulus positions and sizes.
type Units string

const (
	// UnitsPix are window pixels.
	UnitsPix Units = "pix"
	// UnitsNorm span [-1,1] along each window axis.
	UnitsNorm Units = "norm"
	// UnitsHeight are fractions of the window height.
	UnitsHeight Units = "height"
)

func (u Units) valid() bool {
	return u == UnitsPix || u == UnitsNorm || u == UnitsHeight
}

// WindowConfig configures a [Window]. Zero values select defaults.
type WindowConfig struct {
	// Width and Height of the canvas in pixels. Default 800x600.
	Width, Height int
	// Units used by stimuli that do not set their own. Default [UnitsPix].
	Units Units
	// Color is the background in signed RGB, [-1,1] per channel. Zero is mid grey.
	Color [3]float32
	// Workers rasterizing patterns in parallel.
	Workers int
	// UseGPU evaluates pattern shaders on the GPU, see [glrender.ContextConfig].
	UseGPU bool
	// DebugBounds strokes drawable bounds.
	DebugBounds bool
	// Catalog of analytic patterns shared by the window's stimuli. Default [DefaultCatalog].
	Catalog *Catalog
	// Loader resolves bitmap resource names. May be nil.
	Loader Loader
	Logger *slog.Logger
}

// Window owns the rendering context and stage that stimuli draw onto. Positions
// are relative to the window center with Y pointing up.
type Window struct {
	size     ms2.Vec
	units    Units
	ctx      *glrender.Context
	stage    *glrender.Stage
	cat      *Catalog
	loader   Loader
	log      *slog.Logger
	autoDraw []*GratingStim
	frameN   int
}

// NewWindow returns a window ready for drawing.
func NewWindow(cfg WindowConfig) (*Window, error) {
	if cfg.Width == 0 && cfg.Height == 0 {
		cfg.Width, cfg.Height = 800, 600
	}
	if cfg.Units == "" {
		cfg.Units = UnitsPix
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("invalid window size %dx%d", cfg.Width, cfg.Height)
	} else if !cfg.Units.valid() {
		return nil, fmt.Errorf("unknown units %q", cfg.Units)
	}
	log := cfg.Logger
	if log == nil {
		log = Logger()
	}
	ctx, err := glrender.NewContext(glrender.ContextConfig{
		Workers: cfg.Workers,
		UseGPU:  cfg.UseGPU,
		Logger:  log,
	})
	if err != nil {
		return nil, err
	}
	cat := cfg.Catalog
	if cat == nil {
		cat = DefaultCatalog()
	}
	stage := glrender.NewStage(ctx, cfg.Width, cfg.Height)
	stage.Background = signedToRGBA(cfg.Color)
	stage.DebugBounds = cfg.DebugBounds
	return &Window{
		size:   ms2.Vec{X: float32(cfg.Width), Y: float32(cfg.Height)},
		units:  cfg.Units,
		ctx:    ctx,
		stage:  stage,
		cat:    cat,
		loader: cfg.Loader,
		log:    log,
	}, nil
}

// Size returns the window size in pixels.
func (w *Window) Size() ms2.Vec { return w.size }

// Units returns the default units of the window.
func (w *Window) Units() Units { return w.units }

// Context returns the rendering context, which bakes analytic masks.
func (w *Window) Context() *glrender.Context { return w.ctx }

// Stage returns the display tree drawn on Flip.
func (w *Window) Stage() *glrender.Stage { return w.stage }

// Catalog returns the pattern catalog shared by the window's stimuli.
func (w *Window) Catalog() *Catalog { return w.cat }

// FrameN returns the number of flipped frames.
func (w *Window) FrameN() int { return w.frameN }

// ToPixels converts v in units u to pixels.
func (w *Window) ToPixels(v ms2.Vec, u Units) ms2.Vec {
	switch u {
	case UnitsNorm:
		return ms2.MulElem(v, ms2.Scale(0.5, w.size))
	case UnitsHeight:
		return ms2.Scale(w.size.Y, v)
	}
	return v
}

// FromPixels converts v in pixels to units u.
func (w *Window) FromPixels(v ms2.Vec, u Units) ms2.Vec {
	switch u {
	case UnitsNorm:
		return ms2.DivElem(v, ms2.Scale(0.5, w.size))
	case UnitsHeight:
		return ms2.Scale(1/w.size.Y, v)
	}
	return v
}

func (w *Window) addAutoDraw(s *GratingStim) {
	if !slices.Contains(w.autoDraw, s) {
		w.autoDraw = append(w.autoDraw, s)
	}
}

func (w *Window) removeAutoDraw(s *GratingStim) {
	w.autoDraw = slices.DeleteFunc(w.autoDraw, func(c *GratingStim) bool { return c == s })
}

// Flip draws auto-drawn stimuli, renders the stage into the frame and clears
// the stage for the next frame. Stimulus draw errors do not prevent rendering.
func (w *Window) Flip() error {
	var errs []error
	for _, s := range w.autoDraw {
		if err := s.Draw(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := w.stage.Render(); err != nil {
		errs = append(errs, err)
	}
	w.stage.Clear()
	w.frameN++
	return errors.Join(errs...)
}

// Frame returns the image of the last flipped frame.
func (w *Window) Frame() image.Image { return w.stage.Image() }

// EncodePNG writes the last flipped frame as PNG.
func (w *Window) EncodePNG(dst io.Writer) error { return w.stage.EncodePNG(dst) }

// Close releases rendering resources.
func (w *Window) Close() error {
	w.ctx.Close()
	return w.stage.Close()
}

func signedToRGBA(c [3]float32) gg.RGBA {
	f := func(v float32) float64 { return float64(clampf((v+1)/2, 0, 1)) }
	return gg.RGBA{R: f(c[0]), G: f(c[1]), B: f(c[2]), A: 1}
}
