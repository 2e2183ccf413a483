package glbuild

import (
	"slices"

	"github.com/soypat/geometry/ms2"
)

// QuadIndices are the two triangles of a quad built by [NewQuad].
var QuadIndices = [6]uint16{0, 1, 2, 0, 2, 3}

// Geometry holds indexed 2D vertex attributes.
type Geometry struct {
	Positions []ms2.Vec
	UVs       []ms2.Vec
	Indices   []uint16
}

// NewQuad returns a width by height quad with its first vertex at the origin.
// Vertices run (0,0),(w,0),(w,h),(0,h) with uvs spanning the unit square in the same order.
func NewQuad(width, height float32) Geometry {
	return Geometry{
		Positions: []ms2.Vec{{}, {X: width}, {X: width, Y: height}, {Y: height}},
		UVs:       []ms2.Vec{{}, {X: 1}, {X: 1, Y: 1}, {Y: 1}},
		Indices:   QuadIndices[:],
	}
}

// Bounds returns the bounding box of the positions.
func (g Geometry) Bounds() ms2.Box {
	if len(g.Positions) == 0 {
		return ms2.Box{}
	}
	bb := ms2.Box{Min: g.Positions[0], Max: g.Positions[0]}
	for _, p := range g.Positions[1:] {
		bb.Min = ms2.MinElem(bb.Min, p)
		bb.Max = ms2.MaxElem(bb.Max, p)
	}
	return bb
}

// Size returns the extent of the positions.
func (g Geometry) Size() ms2.Vec {
	return g.Bounds().Size()
}

// Equal reports whether both geometries have identical attributes.
func (g Geometry) Equal(other Geometry) bool {
	return slices.Equal(g.Positions, other.Positions) &&
		slices.Equal(g.UVs, other.UVs) &&
		slices.Equal(g.Indices, other.Indices)
}

// Triangles returns the vertex positions of each indexed triangle.
func (g Geometry) Triangles() [][3]ms2.Vec {
	tris := make([][3]ms2.Vec, 0, len(g.Indices)/3)
	for i := 0; i+2 < len(g.Indices); i += 3 {
		tris = append(tris, [3]ms2.Vec{
			g.Positions[g.Indices[i]],
			g.Positions[g.Indices[i+1]],
			g.Positions[g.Indices[i+2]],
		})
	}
	return tris
}
