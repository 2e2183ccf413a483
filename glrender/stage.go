package glrender

import (
	"cmp"
	"image"
	"io"
	"slices"

	"github.com/gogpu/gg"
	"github.com/soypat/geometry/ms2"
)

// Stage is the root of a display tree, composited onto a gg canvas. The stage
// origin is the canvas center with Y pointing down.
type Stage struct {
	width, height int
	Background    gg.RGBA
	// DebugBounds strokes the world bounds of every drawn drawable.
	DebugBounds bool
	drawables   []Drawable
	ctx         *Context
	dc          *gg.Context
}

// NewStage returns a width by height stage rendering with ctx.
func NewStage(ctx *Context, width, height int) *Stage {
	return &Stage{
		width:      width,
		height:     height,
		Background: gg.RGBA{R: 0.5, G: 0.5, B: 0.5, A: 1},
		ctx:        ctx,
	}
}

// Add appends d to the stage. Adding a drawable twice has no effect.
func (s *Stage) Add(d Drawable) {
	if d != nil && !slices.Contains(s.drawables, d) {
		s.drawables = append(s.drawables, d)
	}
}

// Remove removes d from the stage.
func (s *Stage) Remove(d Drawable) {
	s.drawables = slices.DeleteFunc(s.drawables, func(c Drawable) bool { return c == d })
}

// Clear removes all drawables.
func (s *Stage) Clear() { s.drawables = s.drawables[:0] }

// Len returns the number of drawables on stage.
func (s *Stage) Len() int { return len(s.drawables) }

// Size returns the canvas size in pixels.
func (s *Stage) Size() (width, height int) { return s.width, s.height }

// Render composites all drawables in ZIndex order onto a fresh canvas.
// Destroyed drawables are dropped from the stage.
func (s *Stage) Render() error {
	s.drawables = slices.DeleteFunc(s.drawables, func(d Drawable) bool { return d.Node().destroyed })
	if s.dc == nil {
		s.dc = gg.NewContext(s.width, s.height)
	}
	s.dc.ClearWithColor(s.Background)
	root := gg.Translate(float64(s.width)/2, float64(s.height)/2)
	for _, d := range sortedByZ(s.drawables, nil) {
		if err := s.draw(d, root, 1); err != nil {
			return err
		}
	}
	return nil
}

func (s *Stage) draw(d Drawable, parent gg.Matrix, parentAlpha float64) error {
	n := d.Node()
	if n.destroyed {
		return nil
	}
	if err := s.ctx.Prepare(d); err != nil {
		return err
	}
	world := parent.Multiply(n.Matrix())
	alpha := parentAlpha * float64(n.Alpha)
	size := d.Size()
	if size.X > 0 && size.Y > 0 && alpha > 0 {
		bb := WorldBounds(world, size)
		r := pixelBounds(bb, s.width, s.height)
		if !r.Empty() {
			layer, err := s.layer(d, world, r, alpha)
			if err != nil {
				return err
			}
			s.dc.DrawImage(gg.ImageBufFromImage(layer), float64(r.Min.X), float64(r.Min.Y))
		}
		if s.DebugBounds {
			s.dc.SetRGBA(1, 0, 0, 1)
			s.dc.SetLineWidth(1)
			sz := bb.Size()
			s.dc.DrawRectangle(float64(bb.Min.X), float64(bb.Min.Y), float64(sz.X), float64(sz.Y))
			if err := s.dc.Stroke(); err != nil {
				return err
			}
		}
	}
	for _, child := range sortedByZ(n.children, n.mask) {
		if err := s.draw(child, world, alpha); err != nil {
			return err
		}
	}
	return nil
}

// layer samples d over the canvas rectangle r into an image positioned at r.Min.
func (s *Stage) layer(d Drawable, world gg.Matrix, r image.Rectangle, alpha float64) (*image.NRGBA, error) {
	n := d.Node()
	inv := world.Invert()
	mask := n.mask
	var maskInv gg.Matrix
	if mask != nil {
		maskInv = mask.Node().Matrix().Invert()
	}
	layer := image.NewNRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	err := s.ctx.ir.forEachRow(r.Dy(), func(j int) error {
		for i := 0; i < r.Dx(); i++ {
			p := inv.TransformPoint(gg.Pt(float64(r.Min.X+i)+0.5, float64(r.Min.Y+j)+0.5))
			c, ok := d.Sample(ms2.Vec{X: float32(p.X), Y: float32(p.Y)})
			if !ok {
				continue
			}
			a := c.A * alpha
			if mask != nil {
				mp := maskInv.TransformPoint(p)
				mc, ok := mask.Sample(ms2.Vec{X: float32(mp.X), Y: float32(mp.Y)})
				if !ok {
					continue
				}
				a *= mc.R * mc.A
			}
			c = n.adjust(c)
			c.A = a
			layer.SetNRGBA(i, j, toNRGBA(c))
		}
		return nil
	})
	return layer, err
}

// Image returns the canvas of the last Render.
func (s *Stage) Image() image.Image {
	if s.dc == nil {
		return image.NewRGBA(image.Rect(0, 0, s.width, s.height))
	}
	return s.dc.Image()
}

// EncodePNG writes the canvas of the last Render as PNG.
func (s *Stage) EncodePNG(w io.Writer) error {
	if s.dc == nil {
		if err := s.Render(); err != nil {
			return err
		}
	}
	return s.dc.EncodePNG(w)
}

// Close releases the canvas.
func (s *Stage) Close() error {
	if s.dc == nil {
		return nil
	}
	err := s.dc.Close()
	s.dc = nil
	return err
}

func sortedByZ(ds []Drawable, exclude Drawable) []Drawable {
	sorted := make([]Drawable, 0, len(ds))
	for _, d := range ds {
		if d != exclude {
			sorted = append(sorted, d)
		}
	}
	slices.SortStableFunc(sorted, func(a, b Drawable) int {
		return cmp.Compare(a.Node().ZIndex, b.Node().ZIndex)
	})
	return sorted
}
