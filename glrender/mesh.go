package glrender

import (
	"errors"

	"github.com/chewxy/math32"
	"github.com/gogpu/gg"
	"github.com/lightest/grating/glbuild"
	"github.com/lightest/grating/gleval"
	"github.com/soypat/geometry/ms2"
)

// MeshDrawable is a quad whose color comes from an analytic pattern and its live uniforms.
type MeshDrawable struct {
	node     Node
	geom     glbuild.Geometry
	shader   glbuild.ShaderSource
	pattern  gleval.Pattern
	uniforms glbuild.Uniforms
	version  uint64

	// Cached rasterization of the pattern at the geometry's pixel size.
	lum        []float32
	lumVersion uint64
	lumW, lumH int
}

var _ Drawable = (*MeshDrawable)(nil) // Interface implementation compile-time check.

// NewMeshDrawable attaches a compiled program and its uniforms to geometry.
// The uniforms are owned by the mesh and can be patched with SetUniform.
func NewMeshDrawable(geom glbuild.Geometry, shader glbuild.ShaderSource, pattern gleval.Pattern, u glbuild.Uniforms) (*MeshDrawable, error) {
	if pattern == nil {
		return nil, errors.New("nil pattern")
	} else if len(geom.Positions) == 0 || len(geom.Positions) != len(geom.UVs) {
		return nil, errors.New("geometry requires matching non-empty positions and uvs")
	} else if len(shader.Fragment) == 0 || len(shader.Vertex) == 0 {
		return nil, errors.New("mesh requires vertex and fragment stages")
	}
	return &MeshDrawable{
		node:     newNode(),
		geom:     geom,
		shader:   shader,
		pattern:  pattern,
		uniforms: u.Clone(),
		version:  1,
	}, nil
}

func (m *MeshDrawable) Node() *Node { return &m.node }

// Size returns the extent of the mesh geometry.
func (m *MeshDrawable) Size() ms2.Vec {
	if m.node.destroyed {
		return ms2.Vec{}
	}
	return m.geom.Size()
}

// Geometry returns the mesh geometry.
func (m *MeshDrawable) Geometry() glbuild.Geometry { return m.geom }

// Shader returns the vertex and fragment stages of the mesh program.
func (m *MeshDrawable) Shader() glbuild.ShaderSource { return m.shader }

// Pattern returns the CPU counterpart of the fragment stage.
func (m *MeshDrawable) Pattern() gleval.Pattern { return m.pattern }

// Uniforms returns a copy of the live uniform set.
func (m *MeshDrawable) Uniforms() glbuild.Uniforms { return m.uniforms.Clone() }

// Uniform returns the live value of a uniform.
func (m *MeshDrawable) Uniform(name string) float32 { return m.uniforms[name] }

// SetUniform writes a value into the live uniform set without rebuilding the mesh.
func (m *MeshDrawable) SetUniform(name string, v float32) {
	if old, ok := m.uniforms[name]; ok && old == v {
		return
	}
	m.uniforms[name] = v
	m.version++
}

func (m *MeshDrawable) prepare(c *Context) error {
	sz := m.Size()
	w, h := int(math32.Ceil(sz.X)), int(math32.Ceil(sz.Y))
	if w <= 0 || h <= 0 {
		return nil
	}
	if m.lumVersion == m.version && m.lumW == w && m.lumH == h {
		return nil
	}
	if cap(m.lum) < w*h {
		m.lum = make([]float32, w*h)
	}
	m.lum = m.lum[:w*h]
	err := c.luminance(m, w, h, m.lum)
	if err != nil {
		return err
	}
	m.lumW, m.lumH, m.lumVersion = w, h, m.version
	return nil
}

// Sample implements [Drawable]. The mesh must have been prepared by a renderer.
func (m *MeshDrawable) Sample(local ms2.Vec) (gg.RGBA, bool) {
	sz := m.Size()
	if !inside(local, sz) || m.lumW == 0 {
		return gg.RGBA{}, false
	}
	i := min(int(local.X/sz.X*float32(m.lumW)), m.lumW-1)
	j := min(int(local.Y/sz.Y*float32(m.lumH)), m.lumH-1)
	v := float64(clampf(m.lum[j*m.lumW+i], 0, 1))
	return gg.RGBA{R: v, G: v, B: v, A: 1}, true
}

// Destroy releases the mesh and its children.
func (m *MeshDrawable) Destroy() {
	m.node.destroy()
	m.lum = nil
	m.lumW, m.lumH = 0, 0
}
