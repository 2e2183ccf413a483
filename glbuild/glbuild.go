package glbuild

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/chewxy/math32"
)

// VersionStr is the GLSL version directive shared by every generated stage.
// Pattern shaders target GLSL ES 3.00 so they run unmodified under WebGL2 and
// are translated for desktop GL by the gleval package.
const VersionStr = "#version 300 es\n"

// Pattern stores information for generating the fragment stage of an
// analytic grating pattern.
type Pattern interface {
	// AppendShaderName appends the name of the GL function that evaluates
	// the pattern. It should be unique to that pattern.
	AppendShaderName(b []byte) []byte
	// AppendShaderBody appends the body of `float name(vec2 uv)` where uv
	// spans [0,1] over the quad. The body returns luminance in [0,1].
	AppendShaderBody(b []byte) []byte
	// AppendShaderObjects appends GLSL helper functions the body calls.
	AppendShaderObjects(objs []ShaderObject) []ShaderObject
	// DefaultUniforms returns the uniforms read by the body along with their default values.
	DefaultUniforms() Uniforms
}

// ShaderObject is a GLSL function that a [Pattern] body depends on.
type ShaderObject struct {
	// NamePtr is the name of the function inside the shader source.
	NamePtr    []byte
	funcSource []byte
}

// MakeShaderFunction parses the function name from a GLSL function definition.
func MakeShaderFunction(shaderDef []byte) (sf ShaderObject, err error) {
	shaderDef = bytes.TrimSpace(shaderDef)
	fnNameEnd := bytes.IndexByte(shaderDef, '(')
	fnNameStart := bytes.IndexByte(shaderDef, ' ')
	if fnNameEnd < 0 || fnNameStart < 0 || fnNameStart > fnNameEnd {
		return ShaderObject{}, errors.New("unable to parse function name")
	}
	name := bytes.TrimSpace(shaderDef[fnNameStart:fnNameEnd])
	if len(name) == 0 {
		return ShaderObject{}, errors.New("empty function name")
	}
	return ShaderObject{NamePtr: name, funcSource: shaderDef}, nil
}

// Source returns the GLSL function definition.
func (obj ShaderObject) Source() []byte { return obj.funcSource }

// ShaderSource is a vertex and fragment stage pair.
type ShaderSource struct {
	Vertex   []byte
	Fragment []byte
}

var piLiteral = string(AppendFloat(nil, math32.Pi))

//go:embed quad.vert
var quadVertexSrc []byte

// Programmer implements shader generation logic for [Pattern] types.
type Programmer struct {
	scratch     []byte
	objsScratch []ShaderObject
	precision   string
}

// NewDefaultProgrammer returns a Programmer that emits GLSL ES 3.00 with high float precision.
func NewDefaultProgrammer() *Programmer {
	return &Programmer{
		scratch:   make([]byte, 1024),
		precision: "highp",
	}
}

// WriteVertex writes the standard quad vertex stage. It takes
// aVertexPosition and aUvs attributes, transforms positions by
// translationMatrix and projectionMatrix and forwards uvs as vUvs.
func (p *Programmer) WriteVertex(w io.Writer) (int, error) {
	return w.Write(quadVertexSrc)
}

// WriteFragment writes a complete fragment stage for pat. Luminance is
// written to the rgb channels with full alpha.
func (p *Programmer) WriteFragment(w io.Writer, pat Pattern) (int, error) {
	if pat == nil {
		return 0, errors.New("nil pattern")
	}
	b := p.scratch[:0]
	b = append(b, VersionStr...)
	b = append(b, "precision "...)
	b = append(b, p.precision...)
	b = append(b, " float;\n"...)
	b = append(b, "in vec2 vUvs;\nout vec4 shaderOut;\n"...)
	uniforms := pat.DefaultUniforms()
	for _, name := range uniforms.Names() {
		b = AppendUniformDecl(b, name)
	}
	b = AppendDefineDecl(b, "PI", piLiteral)
	p.objsScratch = pat.AppendShaderObjects(p.objsScratch[:0])
	for i, obj := range p.objsScratch {
		if len(obj.funcSource) == 0 {
			return 0, fmt.Errorf("shader object %d (%s) is not a function", i, obj.NamePtr)
		}
		b = append(b, obj.funcSource...)
		b = append(b, '\n')
	}
	nameStart := len(b) + len("float ")
	b = append(b, "float "...)
	b = pat.AppendShaderName(b)
	name := b[nameStart:]
	if len(name) == 0 {
		return 0, errors.New("empty pattern shader name")
	}
	b = append(b, "(vec2 uv) {\n"...)
	b = pat.AppendShaderBody(b)
	b = append(b, "\n}\n"...)
	b = append(b, "void main() {\n\tfloat v = "...)
	b = append(b, b[nameStart:nameStart+len(name)]...)
	b = append(b, "(vUvs);\n\tshaderOut = vec4(v, v, v, 1.0);\n}\n"...)
	p.scratch = b
	return w.Write(b)
}

// Program returns both stages of pat as separate sources. The returned
// buffers are not shared with p or with other calls.
func (p *Programmer) Program(pat Pattern) (ShaderSource, error) {
	var vert, frag bytes.Buffer
	_, err := p.WriteVertex(&vert)
	if err != nil {
		return ShaderSource{}, err
	}
	_, err = p.WriteFragment(&frag, pat)
	if err != nil {
		return ShaderSource{}, err
	}
	return ShaderSource{Vertex: vert.Bytes(), Fragment: frag.Bytes()}, nil
}

func AppendUniformDecl(b []byte, floatUniformName string) []byte {
	b = append(b, "uniform float "...)
	b = append(b, floatUniformName...)
	b = append(b, ';', '\n')
	return b
}

func AppendDefineDecl(b []byte, aliasToDefine, aliasReplace string) []byte {
	b = append(b, "#define "...)
	b = append(b, aliasToDefine...)
	b = append(b, ' ')
	b = append(b, aliasReplace...)
	b = append(b, '\n')
	return b
}

// AppendFloat appends v as a GLSL float literal, shortest representation
// with at least one decimal digit. v must be finite.
func AppendFloat(b []byte, v float32) []byte {
	start := len(b)
	b = strconv.AppendFloat(b, float64(v), 'f', -1, 32)
	if bytes.IndexByte(b[start:], '.') < 0 {
		b = append(b, ".0"...)
	}
	return b
}
