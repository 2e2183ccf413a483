// Package gratingaux offers helpers to get a grating stimulus on screen or on
// disk quickly. Applications with specific needs should drive
// [grating.Window] directly.
package gratingaux

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"os"
	"runtime"
	"time"

	"github.com/lightest/grating"
	"github.com/lightest/grating/glbuild"
	"github.com/lightest/grating/gleval"
	"github.com/lightest/grating/glrender"
)

// RenderConfig configures offscreen rendering of stimuli.
type RenderConfig struct {
	// Width and Height of the frame in pixels. Default 800x600.
	Width, Height int
	// Units of the stimulus configurations. Default pixels.
	Units grating.Units
	// Color is the signed RGB background, zero is mid-grey.
	Color   [3]float32
	UseGPU  bool
	Workers int
	// Label is drawn in the top left corner of the frame when not empty.
	Label  string
	Silent bool
	// Context bounds the wait for bitmap resources. May be nil.
	Context context.Context
	Loader  grating.Loader
}

// RenderPNG draws stims in order on a single frame and encodes it to w.
func RenderPNG(w io.Writer, cfg RenderConfig, stims ...grating.Config) error {
	if w == nil {
		return errors.New("RenderPNG requires an output writer")
	}
	img, err := RenderFrame(cfg, stims...)
	if err != nil {
		return err
	}
	return png.Encode(w, img)
}

// RenderPNGFile is [RenderPNG] writing to a file with said filename.
func RenderPNGFile(filename string, cfg RenderConfig, stims ...grating.Config) error {
	fp, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer fp.Close()
	err = RenderPNG(fp, cfg, stims...)
	if err != nil {
		return err
	}
	return fp.Sync()
}

// RenderFrame draws stims in order on a single frame and returns it.
func RenderFrame(cfg RenderConfig, stims ...grating.Config) (*image.RGBA, error) {
	if len(stims) == 0 {
		return nil, errors.New("no stimuli to render")
	}
	log := logger(cfg.Silent)
	if cfg.UseGPU {
		log("using GPU")
		terminate, err := gleval.Init1x1GLFW()
		if err != nil {
			return nil, err
		}
		defer terminate()
	}
	win, err := newWindow(cfg)
	if err != nil {
		return nil, err
	}
	defer win.Close()
	ctx := cfg.Context
	if ctx == nil {
		ctx = context.Background()
	}
	watch := stopwatch()
	for i := range stims {
		s, err := grating.NewGratingStim(win, stims[i])
		if err != nil {
			return nil, err
		}
		if err = s.WaitReady(ctx); err != nil {
			return nil, err
		}
		if err = s.Draw(); err != nil {
			return nil, err
		}
	}
	if err = win.Flip(); err != nil {
		return nil, err
	}
	img := toRGBA(win.Frame())
	if cfg.Label != "" {
		if err = Label(img, cfg.Label, image.Pt(8, 8), 14, color.White); err != nil {
			return nil, err
		}
	}
	log("rendered", len(stims), "stimuli in", watch())
	return img, nil
}

// RenderPatternPNGFile rasterizes a catalog pattern with its uv square spanning
// a picWidth by picHeight picture and saves it to filename. Uniforms in u
// override the pattern defaults. A nil color conversion renders grey levels.
func RenderPatternPNGFile(filename string, cat *grating.Catalog, id grating.PatternID, u glbuild.Uniforms, picWidth, picHeight int, colorConversion func(float32) color.Color) error {
	img, err := RenderPattern(cat, id, u, picWidth, picHeight, colorConversion)
	if err != nil {
		return err
	}
	fp, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer fp.Close()
	err = png.Encode(fp, img)
	if err != nil {
		return err
	}
	return fp.Sync()
}

// RenderPattern is [RenderPatternPNGFile] returning the picture.
func RenderPattern(cat *grating.Catalog, id grating.PatternID, u glbuild.Uniforms, picWidth, picHeight int, colorConversion func(float32) color.Color) (*image.RGBA, error) {
	if cat == nil {
		cat = grating.DefaultCatalog()
	}
	def, ok := cat.Lookup(id)
	if !ok {
		return nil, fmt.Errorf("%w: unknown pattern %q", grating.ErrInvalidTexture, id)
	}
	if colorConversion == nil {
		colorConversion = grey
	}
	renderer, err := glrender.NewImageRenderer(runtime.NumCPU(), colorConversion)
	if err != nil {
		return nil, err
	}
	defer renderer.Close()
	img := image.NewRGBA(image.Rect(0, 0, picWidth, picHeight))
	err = renderer.Render(def.Pattern, glbuild.Merge(def.DefaultUniforms, u), img)
	if err != nil {
		return nil, err
	}
	return img, nil
}

func newWindow(cfg RenderConfig) (*grating.Window, error) {
	workers := cfg.Workers
	if workers == 0 {
		workers = runtime.NumCPU()
	}
	return grating.NewWindow(grating.WindowConfig{
		Width:   cfg.Width,
		Height:  cfg.Height,
		Units:   cfg.Units,
		Color:   cfg.Color,
		Workers: workers,
		UseGPU:  cfg.UseGPU,
		Loader:  cfg.Loader,
	})
}

func logger(silent bool) func(args ...any) {
	return func(args ...any) {
		if !silent {
			fmt.Println(args...)
		}
	}
}

func stopwatch() func() time.Duration {
	start := time.Now()
	return func() time.Duration {
		return time.Since(start)
	}
}

// toRGBA copies img into a new *image.RGBA with origin at (0,0).
func toRGBA(img image.Image) *image.RGBA {
	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Rect, img, b.Min, draw.Src)
	return rgba
}
