package grating_test

import (
	"math/rand"
	"slices"
	"strings"
	"testing"

	"github.com/chewxy/math32"
	"github.com/lightest/grating"
	"github.com/lightest/grating/glbuild"
	"github.com/lightest/grating/gleval"
	"github.com/soypat/geometry/ms2"
)

func TestCatalogBuiltins(t *testing.T) {
	cat := grating.DefaultCatalog()
	want := []grating.PatternID{"sin", "sqr", "saw", "tri", "sinXsin", "sqrXsqr", "circle", "gauss", "cross", "radRamp", "raisedCos"}
	got := cat.IDs()
	slices.Sort(got)
	slices.Sort(want)
	if !slices.Equal(got, want) {
		t.Fatalf("catalog ids mismatch:\nwant %v\ngot  %v", want, got)
	}
	nonPeriodic := []grating.PatternID{grating.PatternCircle, grating.PatternGauss, grating.PatternCross, grating.PatternRadRamp, grating.PatternRaisedCos}
	for _, id := range want {
		def, ok := cat.Lookup(id)
		if !ok {
			t.Fatalf("%s: lookup failed", id)
		}
		periodic := def.DefaultUniforms.Has(glbuild.UniformFreq, glbuild.UniformPhase)
		if periodic == slices.Contains(nonPeriodic, id) {
			t.Errorf("%s: unexpected frequency/phase declaration, uniforms %v", id, def.DefaultUniforms)
		}
		frag := string(def.FragmentSource)
		if !strings.HasPrefix(frag, "#version 300 es\n") || !strings.Contains(frag, "void main()") {
			t.Errorf("%s: malformed fragment stage:\n%s", id, frag)
		}
		if !strings.Contains(string(def.VertexSource), "vUvs = aUvs;") {
			t.Errorf("%s: malformed vertex stage:\n%s", id, def.VertexSource)
		}
		for _, name := range def.DefaultUniforms.Names() {
			if !strings.Contains(frag, "uniform float "+name+";") {
				t.Errorf("%s: fragment does not declare %s", id, name)
			}
		}
	}
	def, _ := cat.Lookup(grating.PatternGauss)
	if !def.DefaultUniforms.Equal(glbuild.Uniforms{"uA": 1, "uB": 0, "uC": 0.16}) {
		t.Errorf("gauss defaults: got %v", def.DefaultUniforms)
	}
	def, _ = cat.Lookup(grating.PatternTri)
	if def.DefaultUniforms.Get("uPeriod") != 1 {
		t.Errorf("tri period default: got %v", def.DefaultUniforms)
	}
	if _, ok := cat.Lookup("image.png"); ok {
		t.Error("resource name should not resolve as a pattern")
	}
}

func TestCatalogLookupDoesNotAlias(t *testing.T) {
	cat := grating.DefaultCatalog()
	def, _ := cat.Lookup(grating.PatternSin)
	def.DefaultUniforms[glbuild.UniformFreq] = 100
	def.FragmentSource[0] = 'X'
	def.VertexSource[0] = 'X'
	def, _ = cat.Lookup(grating.PatternSin)
	if def.DefaultUniforms[glbuild.UniformFreq] != 1 || def.FragmentSource[0] != '#' || def.VertexSource[0] != '#' {
		t.Error("catalog entry modified through lookup result")
	}
}

func TestNewCatalogErrors(t *testing.T) {
	builtins := grating.BuiltinPatterns()
	_, err := grating.NewCatalog(builtins[0], builtins[1], builtins[0])
	if err == nil || !strings.Contains(err.Error(), "duplicate") {
		t.Errorf("expected duplicate id error, got %v", err)
	}
	_, err = grating.NewCatalog(nil)
	if err == nil {
		t.Error("expected nil pattern error")
	}
	cat, err := grating.NewCatalog(builtins[0])
	if err != nil {
		t.Fatal(err)
	}
	if !cat.Has(builtins[0].ID()) || cat.Has(builtins[1].ID()) {
		t.Error("injected catalog should hold only the given pattern")
	}
}

func TestPatternEvaluationRange(t *testing.T) {
	const w, h = 33, 29
	rng := rand.New(rand.NewSource(1))
	cat := grating.DefaultCatalog()
	lum := make([]float32, w*h)
	for _, id := range cat.IDs() {
		def, _ := cat.Lookup(id)
		u := def.DefaultUniforms.Clone()
		if u.Has(glbuild.UniformFreq) {
			u[glbuild.UniformFreq] = 1 + 4*rng.Float32()
			u[glbuild.UniformPhase] = 2 * math32.Pi * rng.Float32()
		}
		grid := gleval.CPUGrid{Pattern: def.Pattern}
		err := grid.EvaluateGrid(w, h, lum, u)
		if err != nil {
			t.Fatalf("%s: %s", id, err)
		}
		for i, v := range lum {
			if math32.IsNaN(v) || v < 0 || v > 1 {
				t.Fatalf("%s: luminance %g out of range at %d", id, v, i)
			}
		}
	}
}

func TestPatternValues(t *testing.T) {
	const tol = 1e-5
	cat := grating.DefaultCatalog()
	centre := ms2.Vec{X: 0.5, Y: 0.5}
	corner := ms2.Vec{X: 0.001, Y: 0.001}
	for _, tc := range []struct {
		id   grating.PatternID
		at   ms2.Vec
		want float32
	}{
		{id: grating.PatternSin, at: ms2.Vec{X: 0, Y: 0.3}, want: 0.5},
		{id: grating.PatternSin, at: ms2.Vec{X: 0.25, Y: 0.3}, want: 1},
		{id: grating.PatternSqr, at: ms2.Vec{X: 0.75, Y: 0.3}, want: 0},
		{id: grating.PatternSaw, at: ms2.Vec{X: 0.5, Y: 0.3}, want: 0.5},
		{id: grating.PatternTri, at: ms2.Vec{X: 0.5, Y: 0.3}, want: 0},
		{id: grating.PatternTri, at: ms2.Vec{X: 0, Y: 0.3}, want: 1},
		{id: grating.PatternCircle, at: centre, want: 1},
		{id: grating.PatternCircle, at: corner, want: 0},
		{id: grating.PatternGauss, at: centre, want: 1},
		{id: grating.PatternCross, at: centre, want: 1},
		{id: grating.PatternCross, at: corner, want: 0},
		{id: grating.PatternRadRamp, at: centre, want: 1},
		{id: grating.PatternRaisedCos, at: centre, want: 1},
		{id: grating.PatternRaisedCos, at: corner, want: 0},
	} {
		def, _ := cat.Lookup(tc.id)
		var lum [1]float32
		err := def.Pattern.Evaluate([]ms2.Vec{tc.at}, lum[:], def.DefaultUniforms)
		if err != nil {
			t.Fatal(err)
		}
		if math32.Abs(lum[0]-tc.want) > tol {
			t.Errorf("%s at %v: want %g, got %g", tc.id, tc.at, tc.want, lum[0])
		}
	}
}
