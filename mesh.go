package grating

import (
	"fmt"

	"github.com/lightest/grating/glbuild"
	"github.com/lightest/grating/glrender"
)

// BuildMesh returns a width by height quad drawing pattern id. override is
// merged over the pattern's default uniforms, override winning per key, and
// may only name uniforms the pattern declares. Identical arguments always
// produce identical meshes.
func BuildMesh(cat *Catalog, id PatternID, override glbuild.Uniforms, width, height float32) (*glrender.MeshDrawable, error) {
	def, ok := cat.Lookup(id)
	if !ok {
		return nil, fmt.Errorf("%w: %q is not an analytic pattern", ErrInvalidTexture, id)
	} else if !(width > 0 && height > 0) {
		return nil, fmt.Errorf("invalid mesh size %gx%g", width, height)
	}
	for _, name := range override.Names() {
		if !def.DefaultUniforms.Has(name) {
			return nil, fmt.Errorf("pattern %q does not declare uniform %q", id, name)
		}
	}
	shader := glbuild.ShaderSource{Vertex: def.VertexSource, Fragment: def.FragmentSource}
	uniforms := glbuild.Merge(def.DefaultUniforms, override)
	return glrender.NewMeshDrawable(glbuild.NewQuad(width, height), shader, def.Pattern, uniforms)
}
