package glrender

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/chewxy/math32"
	"github.com/lightest/grating/glbuild"
	"github.com/lightest/grating/gleval"
	"github.com/soypat/geometry/ms2"
)

type setImage = interface {
	image.Image
	Set(x, y int, c color.Color)
}

// ImageRenderer rasterizes patterns into images. Rows are evaluated in
// parallel on a pool of reusable workers.
type ImageRenderer struct {
	conv    func(lum float32) color.Color
	pool    worker.DynamicWorkerPool
	workers int
}

// NewImageRenderer instances a new [ImageRenderer]. A nil luminance->color
// conversion results in opaque grey levels. workers below 2 evaluate on the calling goroutine.
func NewImageRenderer(workers int, conversion func(lum float32) color.Color) (*ImageRenderer, error) {
	if workers < 0 {
		return nil, errors.New("negative worker count")
	}
	if conversion == nil {
		conversion = func(lum float32) color.Color {
			if math32.IsNaN(lum) || math32.IsInf(lum, 0) {
				return color.RGBA{R: 255, A: 255}
			}
			return color.Gray{Y: uint8(clampf(lum, 0, 1)*255 + 0.5)}
		}
	}
	ir := &ImageRenderer{
		conv:    conversion,
		workers: max(workers, 1),
	}
	if ir.workers > 1 {
		ir.pool = worker.NewDynamicWorkerPool(ir.workers, 256, 1*time.Second)
	}
	return ir, nil
}

// Close stops the renderer's workers. Rendering after Close evaluates rows on
// the calling goroutine. Close must not be called while a render is in progress.
func (ir *ImageRenderer) Close() {
	if ir.pool != nil {
		ir.pool.Stop()
		ir.pool = nil
	}
}

// Luminance evaluates p over a width by height grid of pixel centers into dst, row-major.
func (ir *ImageRenderer) Luminance(p gleval.Pattern, u glbuild.Uniforms, width, height int, dst []float32) error {
	if p == nil {
		return errors.New("nil pattern")
	} else if width <= 0 || height <= 0 {
		return fmt.Errorf("invalid luminance grid %dx%d", width, height)
	} else if len(dst) < width*height {
		return fmt.Errorf("require luminance buffer (%d) to be at least of grid size (%d)", len(dst), width*height)
	}
	uv := make([]ms2.Vec, width*height)
	return ir.forEachRow(height, func(j int) error {
		row := uv[j*width : j*width : (j+1)*width]
		row = gleval.AppendUVRow(row, j, width, height)
		return p.Evaluate(row, dst[j*width:(j+1)*width], u)
	})
}

// Render maps the pattern's unit uv square onto the image bounds and renders it.
func (ir *ImageRenderer) Render(p gleval.Pattern, u glbuild.Uniforms, img setImage) error {
	bb := img.Bounds()
	dx, dy := bb.Dx(), bb.Dy()
	if dx == 0 || dy == 0 {
		return errors.New("empty image")
	}
	lum := make([]float32, dx*dy)
	err := ir.Luminance(p, u, dx, dy, lum)
	if err != nil {
		return err
	}
	conv := ir.conv
	for j := 0; j < dy; j++ {
		for i := 0; i < dx; i++ {
			img.Set(bb.Min.X+i, bb.Min.Y+j, conv(lum[j*dx+i]))
		}
	}
	return nil
}

// forEachRow calls fn for every row in [0,height) and returns once all calls
// finish. fn is called concurrently for distinct rows.
func (ir *ImageRenderer) forEachRow(height int, fn func(j int) error) error {
	if ir.pool == nil || height < 2 {
		for j := 0; j < height; j++ {
			if err := fn(j); err != nil {
				return err
			}
		}
		return nil
	}
	chunks := min(height, ir.workers*4)
	rowsPerChunk := (height + chunks - 1) / chunks
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	for id, start := 0, 0; start < height; id, start = id+1, start+rowsPerChunk {
		end := min(start+rowsPerChunk, height)
		wg.Add(1)
		ir.pool.SubmitTask(worker.Task{
			ID: id,
			Do: func() (any, error) {
				defer wg.Done()
				for j := start; j < end; j++ {
					if err := fn(j); err != nil {
						mu.Lock()
						errs = append(errs, fmt.Errorf("row %d: %w", j, err))
						mu.Unlock()
						break
					}
				}
				return nil, nil
			},
		})
	}
	wg.Wait()
	return errors.Join(errs...)
}

func clampf(v, Min, Max float32) float32 {
	if v < Min {
		return Min
	} else if v > Max {
		return Max
	}
	return v
}
