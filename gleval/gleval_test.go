package gleval_test

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/lightest/grating/glbuild"
	"github.com/lightest/grating/gleval"
	"github.com/soypat/geometry/ms2"
)

// uvSum evaluates to uv.x + k*uv.y, k read from uniform "k".
type uvSum struct{}

func (uvSum) Evaluate(uv []ms2.Vec, lum []float32, u glbuild.Uniforms) error {
	if err := gleval.CheckBuffers(uv, lum); err != nil {
		return err
	}
	k := u.Get("k")
	for i, p := range uv {
		lum[i] = p.X + k*p.Y
	}
	return nil
}

func TestCPUGrid(t *testing.T) {
	const w, h = 4, 2
	grid := gleval.CPUGrid{Pattern: uvSum{}}
	dst := make([]float32, w*h)
	err := grid.EvaluateGrid(w, h, dst, glbuild.Uniforms{"k": 10})
	if err != nil {
		t.Fatal(err)
	}
	for j := 0; j < h; j++ {
		for i := 0; i < w; i++ {
			uv := gleval.PixelUV(i, j, w, h)
			want := uv.X + 10*uv.Y
			if got := dst[j*w+i]; math32.Abs(got-want) > 1e-5 {
				t.Errorf("pixel (%d,%d): want %g, got %g", i, j, want, got)
			}
		}
	}
	// Absent uniforms read as zero.
	err = grid.EvaluateGrid(w, h, dst, nil)
	if err != nil {
		t.Fatal(err)
	}
	if dst[w] != 0.125 {
		t.Errorf("first pixel of second row: want 0.125, got %g", dst[w])
	}

	if err := grid.EvaluateGrid(0, h, dst, nil); err == nil {
		t.Error("expected error for zero width")
	}
	if err := grid.EvaluateGrid(w, h+1, dst, nil); err == nil {
		t.Error("expected error for short destination")
	}
	var empty gleval.CPUGrid
	if err := empty.EvaluateGrid(w, h, dst, nil); err == nil {
		t.Error("expected error for nil pattern")
	}
}

func TestPixelUV(t *testing.T) {
	if got := gleval.PixelUV(0, 0, 2, 4); got != (ms2.Vec{X: 0.25, Y: 0.125}) {
		t.Errorf("first pixel center: got %v", got)
	}
	if got := gleval.PixelUV(1, 3, 2, 4); got != (ms2.Vec{X: 0.75, Y: 0.875}) {
		t.Errorf("last pixel center: got %v", got)
	}
	row := gleval.AppendUVRow([]ms2.Vec{{X: -1}}, 1, 4, 2)
	if len(row) != 5 || row[0].X != -1 {
		t.Fatalf("row should be appended, got %v", row)
	}
	for i, uv := range row[1:] {
		if uv != gleval.PixelUV(i, 1, 4, 2) {
			t.Errorf("row element %d: got %v", i, uv)
		}
	}
}

func TestCheckBuffers(t *testing.T) {
	if err := gleval.CheckBuffers(make([]ms2.Vec, 3), make([]float32, 3)); err != nil {
		t.Error(err)
	}
	if err := gleval.CheckBuffers(make([]ms2.Vec, 3), make([]float32, 2)); err == nil {
		t.Error("expected length mismatch error")
	}
	if err := gleval.CheckBuffers(nil, nil); err == nil {
		t.Error("expected empty buffer error")
	}
}
