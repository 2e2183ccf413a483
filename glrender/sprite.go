package glrender

import (
	"errors"
	"fmt"
	"image"
	"image/draw"

	"github.com/gogpu/gg"
	"github.com/soypat/geometry/ms2"
)

// Sprite draws a texture stretched over its display size.
type Sprite struct {
	node   Node
	tex    Texture
	width  float32
	height float32
	// Smooth enables bilinear filtering.
	Smooth bool
	// FlipY samples the texture bottom row first, as textures uploaded from
	// top-down images are addressed.
	FlipY bool
}

var _ Drawable = (*Sprite)(nil) // Interface implementation compile-time check.

// NewSprite returns a sprite drawing tex at its intrinsic size.
func NewSprite(tex Texture) *Sprite {
	return &Sprite{node: newNode(), tex: tex}
}

func (s *Sprite) Node() *Node { return &s.node }

// SetDisplaySize stretches the texture over width by height pixels. Zero
// values restore the texture's intrinsic size.
func (s *Sprite) SetDisplaySize(width, height float32) {
	s.width, s.height = width, height
}

// Size returns the display size, or zero while the texture is unavailable.
func (s *Sprite) Size() ms2.Vec {
	img := s.image()
	if img == nil {
		return ms2.Vec{}
	}
	if s.width > 0 && s.height > 0 {
		return ms2.Vec{X: s.width, Y: s.height}
	}
	return imageSize(img)
}

// Texture returns the sprite's texture.
func (s *Sprite) Texture() Texture { return s.tex }

func (s *Sprite) image() image.Image {
	if s.tex == nil || s.node.destroyed {
		return nil
	}
	return s.tex.Image()
}

// Sample implements [Drawable].
func (s *Sprite) Sample(local ms2.Vec) (gg.RGBA, bool) {
	img := s.image()
	if img == nil {
		return gg.RGBA{}, false
	}
	sz := s.Size()
	if !inside(local, sz) {
		return gg.RGBA{}, false
	}
	texSz := imageSize(img)
	t := ms2.MulElem(ms2.DivElem(local, sz), texSz)
	if s.FlipY {
		t.Y = texSz.Y - t.Y
	}
	return sampleImage(img, t, s.Smooth, false), true
}

func (s *Sprite) Destroy() { s.node.destroy() }

// TilingSprite repeats a texture over its size. TileScale scales the texture
// and TileOffset translates it, both in the sprite's local pixels.
type TilingSprite struct {
	node       Node
	tex        Texture
	width      float32
	height     float32
	TileScale  ms2.Vec
	TileOffset ms2.Vec
	// Smooth enables bilinear filtering.
	Smooth bool
	// FlipY samples the texture bottom row first.
	FlipY bool
}

var _ Drawable = (*TilingSprite)(nil) // Interface implementation compile-time check.

// NewTilingSprite returns a width by height sprite tiling tex at unit scale.
func NewTilingSprite(tex Texture, width, height float32) (*TilingSprite, error) {
	if tex == nil {
		return nil, errors.New("nil texture")
	} else if !(width > 0 && height > 0) {
		return nil, fmt.Errorf("invalid tiling sprite size %gx%g", width, height)
	}
	return &TilingSprite{
		node:      newNode(),
		tex:       tex,
		width:     width,
		height:    height,
		TileScale: ms2.Vec{X: 1, Y: 1},
	}, nil
}

func (ts *TilingSprite) Node() *Node { return &ts.node }

// Size returns the sprite size, or zero while the texture is unavailable.
func (ts *TilingSprite) Size() ms2.Vec {
	if ts.image() == nil {
		return ms2.Vec{}
	}
	return ms2.Vec{X: ts.width, Y: ts.height}
}

// TextureSize returns the intrinsic size of the texture, zero while unavailable.
func (ts *TilingSprite) TextureSize() ms2.Vec {
	img := ts.image()
	if img == nil {
		return ms2.Vec{}
	}
	return imageSize(img)
}

func (ts *TilingSprite) image() image.Image {
	if ts.node.destroyed {
		return nil
	}
	return ts.tex.Image()
}

// Sample implements [Drawable].
func (ts *TilingSprite) Sample(local ms2.Vec) (gg.RGBA, bool) {
	img := ts.image()
	if img == nil || !inside(local, ms2.Vec{X: ts.width, Y: ts.height}) {
		return gg.RGBA{}, false
	}
	scale := ts.TileScale
	if scale.X == 0 || scale.Y == 0 {
		return gg.RGBA{}, false
	}
	t := ms2.DivElem(ms2.Sub(local, ts.TileOffset), scale)
	if ts.FlipY {
		t.Y = float32(img.Bounds().Dy()) - t.Y
	}
	return sampleImage(img, t, ts.Smooth, true), true
}

func (ts *TilingSprite) Destroy() { ts.node.destroy() }

// RenderTexture is an offscreen RGBA target.
type RenderTexture struct {
	img *image.RGBA
}

var _ Texture = (*RenderTexture)(nil) // Interface implementation compile-time check.

// NewRenderTexture allocates a transparent width by height target.
func NewRenderTexture(width, height int) (*RenderTexture, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid render texture size %dx%d", width, height)
	}
	return &RenderTexture{img: image.NewRGBA(image.Rect(0, 0, width, height))}, nil
}

// Image returns the target's pixels or nil after Destroy.
func (rt *RenderTexture) Image() image.Image {
	if rt.img == nil {
		return nil
	}
	return rt.img
}

// Size returns the target size in pixels.
func (rt *RenderTexture) Size() (width, height int) {
	if rt.img == nil {
		return 0, 0
	}
	sz := rt.img.Bounds().Size()
	return sz.X, sz.Y
}

// Clear makes every pixel transparent.
func (rt *RenderTexture) Clear() {
	if rt.img != nil {
		draw.Draw(rt.img, rt.img.Bounds(), image.Transparent, image.Point{}, draw.Src)
	}
}

// Destroy releases the target's pixels.
func (rt *RenderTexture) Destroy() { rt.img = nil }

// Destroyed reports whether Destroy was called.
func (rt *RenderTexture) Destroyed() bool { return rt.img == nil }

func imageSize(img image.Image) ms2.Vec {
	sz := img.Bounds().Size()
	return ms2.Vec{X: float32(sz.X), Y: float32(sz.Y)}
}
