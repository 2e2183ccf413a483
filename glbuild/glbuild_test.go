package glbuild_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/lightest/grating/glbuild"
	"github.com/soypat/geometry/ms2"
)

type testPattern struct {
	name string
	body string
	objs []string
	u    glbuild.Uniforms
}

func (p testPattern) AppendShaderName(b []byte) []byte { return append(b, p.name...) }
func (p testPattern) AppendShaderBody(b []byte) []byte { return append(b, p.body...) }
func (p testPattern) DefaultUniforms() glbuild.Uniforms { return p.u.Clone() }
func (p testPattern) AppendShaderObjects(objs []glbuild.ShaderObject) []glbuild.ShaderObject {
	for _, src := range p.objs {
		obj, err := glbuild.MakeShaderFunction([]byte(src))
		if err != nil {
			panic(err)
		}
		objs = append(objs, obj)
	}
	return objs
}

func TestWriteFragment(t *testing.T) {
	pat := testPattern{
		name: "stripes",
		body: "return wave(uv.x * uFreq + uPhase);",
		objs: []string{"float wave(float x) { return 0.5 + 0.5*sin(2.0*PI*x); }"},
		u:    glbuild.Uniforms{glbuild.UniformPhase: 0, glbuild.UniformFreq: 1},
	}
	programmer := glbuild.NewDefaultProgrammer()
	var buf bytes.Buffer
	n, err := programmer.WriteFragment(&buf, pat)
	if err != nil {
		t.Fatal(err)
	} else if n != buf.Len() {
		t.Fatal("written length mismatch")
	}
	src := buf.String()
	if !strings.HasPrefix(src, glbuild.VersionStr) {
		t.Errorf("missing version directive:\n%s", src)
	}
	for _, want := range []string{
		"precision highp float;",
		"in vec2 vUvs;",
		"uniform float uFreq;\nuniform float uPhase;\n",
		"#define PI 3.1415927\n",
		"float wave(float x)",
		"float stripes(vec2 uv) {\nreturn wave(uv.x * uFreq + uPhase);\n}",
		"float v = stripes(vUvs);",
		"shaderOut = vec4(v, v, v, 1.0);",
	} {
		if !strings.Contains(src, want) {
			t.Errorf("fragment missing %q:\n%s", want, src)
		}
	}
	if strings.Index(src, "float wave") > strings.Index(src, "float stripes") {
		t.Error("helper must be declared before the pattern function")
	}

	// Programmer reuses its scratch buffer, output must not depend on previous calls.
	var buf2 bytes.Buffer
	_, err = programmer.WriteFragment(&buf2, testPattern{name: "flat", body: "return 0.5;"})
	if err != nil {
		t.Fatal(err)
	}
	buf.Reset()
	_, err = glbuild.NewDefaultProgrammer().WriteFragment(&buf, testPattern{name: "flat", body: "return 0.5;"})
	if err != nil {
		t.Fatal(err)
	}
	if buf.String() != buf2.String() {
		t.Errorf("reused programmer output differs:\n%s\n%s", buf2.String(), buf.String())
	}
	if strings.Contains(buf2.String(), "uniform") {
		t.Error("pattern without uniforms should declare none")
	}
}

func TestWriteFragmentErrors(t *testing.T) {
	programmer := glbuild.NewDefaultProgrammer()
	var buf bytes.Buffer
	if _, err := programmer.WriteFragment(&buf, nil); err == nil {
		t.Error("expected error for nil pattern")
	}
	if _, err := programmer.WriteFragment(&buf, testPattern{body: "return 1.0;"}); err == nil {
		t.Error("expected error for empty shader name")
	}
	if _, err := programmer.WriteFragment(&buf, badObjectPattern{}); err == nil {
		t.Error("expected error for shader object without source")
	}
	if _, err := glbuild.MakeShaderFunction([]byte("not a function")); err == nil {
		t.Error("expected error parsing function without parenthesis")
	}
	obj, err := glbuild.MakeShaderFunction([]byte("  float  tri(float x) { return abs(x); }\n"))
	if err != nil {
		t.Fatal(err)
	}
	if string(obj.NamePtr) != "tri" {
		t.Errorf("want function name tri, got %q", obj.NamePtr)
	}
}

type badObjectPattern struct{ testPattern }

func (badObjectPattern) AppendShaderName(b []byte) []byte { return append(b, "bad"...) }
func (badObjectPattern) AppendShaderObjects(objs []glbuild.ShaderObject) []glbuild.ShaderObject {
	return append(objs, glbuild.ShaderObject{NamePtr: []byte("missing")})
}

func TestProgram(t *testing.T) {
	pat := testPattern{name: "flat", body: "return 0.5;"}
	programmer := glbuild.NewDefaultProgrammer()
	src, err := programmer.Program(pat)
	if err != nil {
		t.Fatal(err)
	}
	vert := string(src.Vertex)
	for _, want := range []string{"in vec2 aVertexPosition;", "in vec2 aUvs;", "uniform mat3 translationMatrix;", "uniform mat3 projectionMatrix;", "vUvs = aUvs;"} {
		if !strings.Contains(vert, want) {
			t.Errorf("vertex stage missing %q", want)
		}
	}
	var frag bytes.Buffer
	_, err = glbuild.NewDefaultProgrammer().WriteFragment(&frag, pat)
	if err != nil {
		t.Fatal(err)
	}
	if string(src.Fragment) != frag.String() {
		t.Error("Program fragment stage differs from WriteFragment")
	}
	src.Vertex[0] = 'X'
	src.Fragment[0] = 'X'
	src2, _ := programmer.Program(testPattern{name: "other", body: "return 1.0;"})
	if src2.Vertex[0] != '#' || src2.Fragment[0] != '#' {
		t.Error("Program returned a shared buffer")
	}
	if src.Fragment[1] != 'v' {
		t.Error("later Program call overwrote earlier fragment")
	}
	if _, err = programmer.Program(nil); err == nil {
		t.Error("expected error for nil pattern")
	}
}

func TestAppendFloat(t *testing.T) {
	for _, tc := range []struct {
		v    float32
		want string
	}{
		{v: 1.5, want: "1.5"},
		{v: 2, want: "2.0"},
		{v: -0.25, want: "-0.25"},
		{v: 0, want: "0.0"},
		{v: 0.001, want: "0.001"},
		{v: 1e6, want: "1000000.0"},
	} {
		got := string(glbuild.AppendFloat([]byte("x="), tc.v))
		if got != "x="+tc.want {
			t.Errorf("AppendFloat(%g): want %q, got %q", tc.v, "x="+tc.want, got)
		}
	}
}

func TestQuad(t *testing.T) {
	q := glbuild.NewQuad(4, 2)
	if q.Size() != (ms2.Vec{X: 4, Y: 2}) {
		t.Errorf("quad size: got %v", q.Size())
	}
	tris := q.Triangles()
	if len(tris) != 2 {
		t.Fatalf("want 2 triangles, got %d", len(tris))
	}
	var area float32
	for _, tri := range tris {
		e1 := ms2.Sub(tri[1], tri[0])
		e2 := ms2.Sub(tri[2], tri[0])
		area += (e1.X*e2.Y - e1.Y*e2.X) / 2
	}
	if area != 8 {
		t.Errorf("triangles should cover the quad with consistent winding, area %g", area)
	}
	for i, uv := range q.UVs {
		want := ms2.DivElem(q.Positions[i], q.Size())
		if uv != want {
			t.Errorf("vertex %d: uv %v does not follow position %v", i, uv, q.Positions[i])
		}
	}
	if !q.Equal(glbuild.NewQuad(4, 2)) || q.Equal(glbuild.NewQuad(4, 3)) {
		t.Error("quad equality")
	}
	if (glbuild.Geometry{}).Size() != (ms2.Vec{}) {
		t.Error("empty geometry should have zero size")
	}
}

func TestUniforms(t *testing.T) {
	defaults := glbuild.Uniforms{"uA": 1, "uB": 2}
	override := glbuild.Uniforms{"uB": 3}
	merged := glbuild.Merge(defaults, override)
	if !merged.Equal(glbuild.Uniforms{"uA": 1, "uB": 3}) {
		t.Errorf("merge: got %v", merged)
	}
	if defaults["uB"] != 2 || len(override) != 1 {
		t.Error("merge modified its arguments")
	}
	if !merged.Has("uA", "uB") || merged.Has("uA", "uC") {
		t.Error("Has")
	}
	if merged.Get("uC") != 0 {
		t.Error("absent uniform should read zero")
	}
	var nilSet glbuild.Uniforms
	c := nilSet.Clone()
	if c == nil || len(c) != 0 {
		t.Error("nil clone should be empty and non-nil")
	}
	names := glbuild.Uniforms{"uPhase": 0, "uFreq": 0, "uA": 0}.Names()
	if strings.Join(names, ",") != "uA,uFreq,uPhase" {
		t.Errorf("names should be sorted, got %v", names)
	}
}
