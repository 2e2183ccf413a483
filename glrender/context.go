package glrender

import (
	"context"
	"errors"
	"image"
	"image/color"
	"log/slog"
	"math"

	"github.com/chewxy/math32"
	"github.com/gogpu/gg"
	"github.com/lightest/grating/gleval"
	"github.com/soypat/geometry/ms2"
)

// ContextConfig configures a rendering [Context].
type ContextConfig struct {
	// Workers is the number of goroutines rasterizing pattern rows on CPU.
	// Values below 2 rasterize on the calling goroutine.
	Workers int
	// UseGPU evaluates mesh fragment stages on the GPU. A GL context must be
	// current on the rendering goroutine, see [gleval.Init1x1GLFW]. Meshes
	// whose stage fails to compile fall back to the CPU.
	UseGPU bool
	Logger *slog.Logger
}

// Context owns the rasterization resources shared by the drawables of a stage.
// It is not safe for concurrent use.
type Context struct {
	ir     *ImageRenderer
	useGPU bool
	log    *slog.Logger
	// GPU programs keyed by fragment source. A nil entry marks a stage that failed to compile.
	gpu map[string]*gleval.GPUEvaluator
}

// NewContext returns a rendering context.
func NewContext(cfg ContextConfig) (*Context, error) {
	ir, err := NewImageRenderer(cfg.Workers, nil)
	if err != nil {
		return nil, err
	}
	log := cfg.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Context{
		ir:     ir,
		useGPU: cfg.UseGPU,
		log:    log,
		gpu:    make(map[string]*gleval.GPUEvaluator),
	}, nil
}

// ImageRenderer returns the CPU rasterizer of the context.
func (c *Context) ImageRenderer() *ImageRenderer { return c.ir }

// Prepare caches the content of d, its mask and its children ahead of sampling.
func (c *Context) Prepare(d Drawable) error {
	n := d.Node()
	if n.destroyed {
		return nil
	}
	if p, ok := d.(preparer); ok {
		if err := p.prepare(c); err != nil {
			return err
		}
	}
	if n.mask != nil {
		if err := c.Prepare(n.mask); err != nil {
			return err
		}
	}
	for _, child := range n.children {
		if err := c.Prepare(child); err != nil {
			return err
		}
	}
	return nil
}

// RenderToTarget draws d's local space into target, one target pixel per local
// pixel after applying d's transform. Target pixels d does not cover are left untouched.
func (c *Context) RenderToTarget(d Drawable, target *RenderTexture) error {
	if d == nil {
		return errors.New("nil drawable")
	} else if target == nil || target.Destroyed() {
		return errors.New("render target unavailable")
	} else if d.Node().destroyed {
		return errors.New("drawable destroyed")
	}
	dst := target.img
	w, h := target.Size()
	if m, ok := d.(*MeshDrawable); ok && m.node.Transform.Matrix().IsIdentity() {
		sz := m.Size()
		if int(math32.Ceil(sz.X)) == w && int(math32.Ceil(sz.Y)) == h {
			// Mesh covers the target exactly, rasterize straight into it.
			lum := make([]float32, w*h)
			if err := c.luminance(m, w, h, lum); err != nil {
				return err
			}
			for j := 0; j < h; j++ {
				for i := 0; i < w; i++ {
					v := uint8(clampf(lum[j*w+i], 0, 1)*255 + 0.5)
					dst.SetRGBA(i, j, color.RGBA{R: v, G: v, B: v, A: 255})
				}
			}
			return nil
		}
	}
	if err := c.Prepare(d); err != nil {
		return err
	}
	inv := d.Node().Matrix().Invert()
	return c.ir.forEachRow(h, func(j int) error {
		for i := 0; i < w; i++ {
			p := inv.TransformPoint(gg.Pt(float64(i)+0.5, float64(j)+0.5))
			col, ok := d.Sample(ms2.Vec{X: float32(p.X), Y: float32(p.Y)})
			if !ok {
				continue
			}
			dst.Set(i, j, toNRGBA(d.Node().adjust(col)))
		}
		return nil
	})
}

// luminance evaluates a mesh pattern over a width by height grid.
func (c *Context) luminance(m *MeshDrawable, width, height int, dst []float32) error {
	if c.useGPU {
		ev := c.gpuEvaluator(m)
		if ev != nil {
			err := ev.EvaluateGrid(width, height, dst, m.uniforms)
			if err == nil {
				return nil
			}
			c.log.Warn("gpu evaluation failed, using cpu", slog.String("err", err.Error()))
		}
	}
	return c.ir.Luminance(m.pattern, m.uniforms, width, height, dst)
}

func (c *Context) gpuEvaluator(m *MeshDrawable) *gleval.GPUEvaluator {
	key := string(m.shader.Fragment)
	ev, ok := c.gpu[key]
	if ok {
		return ev
	}
	ev, err := gleval.NewGPUEvaluator(context.Background(), m.shader)
	if err != nil {
		c.log.Warn("gpu program unavailable, using cpu", slog.String("err", err.Error()))
		ev = nil
	}
	c.gpu[key] = ev
	return ev
}

// Close releases GPU programs and CPU workers held by the context.
func (c *Context) Close() {
	c.ir.Close()
	for key, ev := range c.gpu {
		if ev != nil {
			ev.Delete()
		}
		delete(c.gpu, key)
	}
}

func toNRGBA(c gg.RGBA) color.NRGBA {
	return color.NRGBA{
		R: uint8(clamp01(c.R)*255 + 0.5),
		G: uint8(clamp01(c.G)*255 + 0.5),
		B: uint8(clamp01(c.B)*255 + 0.5),
		A: uint8(clamp01(c.A)*255 + 0.5),
	}
}

// pixelBounds returns the integer pixel rectangle covering bb clipped to [0,w)x[0,h).
func pixelBounds(bb ms2.Box, w, h int) image.Rectangle {
	r := image.Rect(
		int(math.Floor(float64(bb.Min.X))), int(math.Floor(float64(bb.Min.Y))),
		int(math.Ceil(float64(bb.Max.X))), int(math.Ceil(float64(bb.Max.Y))),
	)
	return r.Intersect(image.Rect(0, 0, w, h))
}
