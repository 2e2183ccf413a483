package glrender

import (
	"image"
	"image/color"
	"slices"

	"github.com/chewxy/math32"
	"github.com/gogpu/gg"
	"github.com/soypat/geometry/ms2"
)

// Drawable is a renderable display object with its own local pixel space
// spanning [0,Size().X) x [0,Size().Y).
type Drawable interface {
	// Node returns the transform and tree state of the drawable.
	Node() *Node
	// Size returns the intrinsic size in pixels. It is zero while unknown, e.g. a bitmap still decoding.
	Size() ms2.Vec
	// Sample returns the color at a point in local pixel space. ok is false
	// outside the drawable or while its content is unavailable. Sample must
	// be safe for concurrent use once the drawable is prepared for rendering.
	Sample(local ms2.Vec) (c gg.RGBA, ok bool)
	// Destroy releases the drawable, its mask and its children.
	Destroy()
}

// preparer is implemented by drawables that cache content before concurrent sampling.
type preparer interface {
	prepare(c *Context) error
}

// Texture is image content that may become available after construction.
type Texture interface {
	// Image returns nil while content is unavailable.
	Image() image.Image
}

// Transform positions a drawable's local space inside its parent.
type Transform struct {
	Position ms2.Vec
	Scale    ms2.Vec
	// Pivot is the local point placed at Position, about which rotation and scale occur.
	Pivot ms2.Vec
	// Rotation in radians, clockwise on screen since Y points down.
	Rotation float32
	Alpha    float32
	// ZIndex orders siblings, lower first.
	ZIndex float32
}

// Matrix returns the local to parent transform.
func (t *Transform) Matrix() gg.Matrix {
	m := gg.Translate(float64(t.Position.X), float64(t.Position.Y))
	m = m.Multiply(gg.Rotate(float64(t.Rotation)))
	m = m.Multiply(gg.Scale(float64(t.Scale.X), float64(t.Scale.Y)))
	return m.Multiply(gg.Translate(-float64(t.Pivot.X), -float64(t.Pivot.Y)))
}

// Node holds the state shared by all drawables.
type Node struct {
	Transform
	// Color scales the contrast of each channel about mid-grey, in [-1,1].
	Color [3]float32
	// Contrast scales all channels about mid-grey.
	Contrast  float32
	mask      Drawable
	children  []Drawable
	destroyed bool
}

func newNode() Node {
	return Node{
		Transform: Transform{Scale: ms2.Vec{X: 1, Y: 1}, Alpha: 1},
		Color:     [3]float32{1, 1, 1},
		Contrast:  1,
	}
}

// SetMask sets the drawable whose red channel times alpha multiplies this node's alpha.
// The mask is positioned in this node's local space. A nil mask removes masking.
func (n *Node) SetMask(mask Drawable) { n.mask = mask }

// Mask returns the current mask or nil.
func (n *Node) Mask() Drawable { return n.mask }

// AddChild appends a child drawn in this node's local space.
func (n *Node) AddChild(d Drawable) {
	if d != nil && !slices.Contains(n.children, d) {
		n.children = append(n.children, d)
	}
}

// RemoveChild removes d from the children.
func (n *Node) RemoveChild(d Drawable) {
	n.children = slices.DeleteFunc(n.children, func(c Drawable) bool { return c == d })
}

// Children returns the node's children.
func (n *Node) Children() []Drawable { return n.children }

// Destroyed reports whether Destroy was called on the owning drawable.
func (n *Node) Destroyed() bool { return n.destroyed }

func (n *Node) destroy() {
	if n.destroyed {
		return
	}
	n.destroyed = true
	for _, c := range n.children {
		c.Destroy()
	}
	if n.mask != nil && !slices.Contains(n.children, n.mask) {
		n.mask.Destroy()
	}
	n.children = nil
	n.mask = nil
}

// adjust applies contrast and color to a sampled color.
func (n *Node) adjust(c gg.RGBA) gg.RGBA {
	if n.Contrast == 1 && n.Color == [3]float32{1, 1, 1} {
		return c
	}
	k := float64(n.Contrast)
	c.R = clamp01(0.5 + (c.R-0.5)*k*float64(n.Color[0]))
	c.G = clamp01(0.5 + (c.G-0.5)*k*float64(n.Color[1]))
	c.B = clamp01(0.5 + (c.B-0.5)*k*float64(n.Color[2]))
	return c
}

// WorldBounds returns the axis aligned bounds of a size sized local space transformed by m.
func WorldBounds(m gg.Matrix, size ms2.Vec) ms2.Box {
	corners := [4]gg.Point{
		gg.Pt(0, 0), gg.Pt(float64(size.X), 0),
		gg.Pt(float64(size.X), float64(size.Y)), gg.Pt(0, float64(size.Y)),
	}
	var bb ms2.Box
	for i, c := range corners {
		p := m.TransformPoint(c)
		v := ms2.Vec{X: float32(p.X), Y: float32(p.Y)}
		if i == 0 {
			bb = ms2.Box{Min: v, Max: v}
			continue
		}
		bb.Min = ms2.MinElem(bb.Min, v)
		bb.Max = ms2.MaxElem(bb.Max, v)
	}
	return bb
}

func inside(p, size ms2.Vec) bool {
	return p.X >= 0 && p.Y >= 0 && p.X < size.X && p.Y < size.Y
}

func toRGBA(c color.Color) gg.RGBA {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return gg.RGBA{R: float64(n.R) / 255, G: float64(n.G) / 255, B: float64(n.B) / 255, A: float64(n.A) / 255}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	} else if v > 1 {
		return 1
	}
	return v
}

// sampleImage samples img at texel coordinate t (pixel units, origin at bounds minimum).
// Coordinates are wrapped when wrap is true, otherwise clamped.
func sampleImage(img image.Image, t ms2.Vec, smooth, wrap bool) gg.RGBA {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if !smooth {
		i := texelIndex(int(math32.Floor(t.X)), w, wrap)
		j := texelIndex(int(math32.Floor(t.Y)), h, wrap)
		return toRGBA(img.At(b.Min.X+i, b.Min.Y+j))
	}
	x, y := t.X-0.5, t.Y-0.5
	x0, y0 := math32.Floor(x), math32.Floor(y)
	fx, fy := float64(x-x0), float64(y-y0)
	i0 := texelIndex(int(x0), w, wrap)
	i1 := texelIndex(int(x0)+1, w, wrap)
	j0 := texelIndex(int(y0), h, wrap)
	j1 := texelIndex(int(y0)+1, h, wrap)
	c00 := toRGBA(img.At(b.Min.X+i0, b.Min.Y+j0))
	c10 := toRGBA(img.At(b.Min.X+i1, b.Min.Y+j0))
	c01 := toRGBA(img.At(b.Min.X+i0, b.Min.Y+j1))
	c11 := toRGBA(img.At(b.Min.X+i1, b.Min.Y+j1))
	top := c00.Lerp(c10, fx)
	bottom := c01.Lerp(c11, fx)
	return top.Lerp(bottom, fy)
}

func texelIndex(i, n int, wrap bool) int {
	if wrap {
		i %= n
		if i < 0 {
			i += n
		}
		return i
	}
	return min(max(i, 0), n-1)
}
