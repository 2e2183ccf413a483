package grating

import (
	"github.com/chewxy/math32"
	"github.com/lightest/grating/glbuild"
	"github.com/soypat/geometry/ms2"
)

// AnalyticUniforms returns the frequency and phase uniforms for a pattern
// declaring them in defaults. Patterns without them get an empty set.
// Spatial frequency and phase map to uFreq and uPhase unchanged.
func AnalyticUniforms(defaults glbuild.Uniforms, sf, phase float32) glbuild.Uniforms {
	u := make(glbuild.Uniforms, 2)
	if defaults.Has(glbuild.UniformFreq) {
		u[glbuild.UniformFreq] = sf
	}
	if defaults.Has(glbuild.UniformPhase) {
		u[glbuild.UniformPhase] = phase
	}
	return u
}

// TileMapping is the bitmap equivalent of spatial frequency and phase.
type TileMapping struct {
	Scale  ms2.Vec
	Offset ms2.Vec
}

// BitmapTiling maps spatial frequency and phase onto the tiling of a texture
// of intrinsic size tex drawn over a drawable of size draw, both in pixels.
// Frequency counts texture repeats across the drawable width, and one radian
// of phase shifts the texture by 1/2π of a tile. The vertical axis is
// stretched to fit once. A non-positive sf draws a single tile.
func BitmapTiling(sf, phase float32, draw, tex ms2.Vec) TileMapping {
	if tex.X <= 0 || tex.Y <= 0 {
		return TileMapping{Scale: ms2.Vec{X: 1, Y: 1}}
	}
	if !(sf > 0) {
		sf = 1
	}
	scale := ms2.Vec{
		X: (1 / sf) * (draw.X / tex.X),
		Y: draw.Y / tex.Y,
	}
	tileLen := tex.X * scale.X
	return TileMapping{
		Scale:  scale,
		Offset: ms2.Vec{X: -phase * tileLen / (2 * math32.Pi)},
	}
}
