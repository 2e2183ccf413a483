package gratingaux_test

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"runtime"
	"testing"
	"time"

	math "github.com/chewxy/math32"
	"github.com/lightest/grating"
	"github.com/lightest/grating/glbuild"
	"github.com/lightest/grating/gratingaux"
	"github.com/soypat/geometry/ms2"
)

func TestColorConversionSigned(t *testing.T) {
	conv := gratingaux.ColorConversionSigned(1, [3]float32{1, -1, 0})
	got := conv(1).(color.RGBA)
	if got != (color.RGBA{R: 255, G: 0, B: 128, A: 255}) {
		t.Errorf("full luminance: got %v", got)
	}
	got = conv(0.5).(color.RGBA)
	if got != (color.RGBA{R: 128, G: 128, B: 128, A: 255}) {
		t.Errorf("mid luminance should be grey: got %v", got)
	}
	half := gratingaux.ColorConversionSigned(0.5, [3]float32{1, 1, 1})
	if got := half(0).(color.RGBA); got.R != 64 {
		t.Errorf("half contrast black: got %v", got)
	}
	if got := conv(math.NaN()).(color.RGBA); got.R != 255 || got.G != 0 {
		t.Errorf("NaN should be red, got %v", got)
	}
}

func TestColorConversionLinearGradient(t *testing.T) {
	bw := gratingaux.ColorConversionLinearGradient(color.Black, color.White)
	if got := bw(0.5).(color.Gray); got.Y != 128 {
		t.Errorf("black-white gradient midpoint: got %v", got)
	}
	c0 := color.RGBA{R: 255, A: 255}
	c1 := color.RGBA{B: 255, A: 255}
	conv := gratingaux.ColorConversionLinearGradient(c0, c1)
	if conv(-1) != color.Color(c0) || conv(2) != color.Color(c1) {
		t.Error("gradient should saturate at its end colors")
	}
	mid := conv(0.5).(color.RGBA)
	// Red to blue through HSV passes magenta.
	if mid.G != 0 || mid.R != 255 || mid.B != 255 {
		t.Errorf("red-blue gradient midpoint: got %v", mid)
	}
}

func TestRenderPatternFrequency(t *testing.T) {
	for _, tc := range []struct {
		id   grating.PatternID
		freq float32
	}{
		{grating.PatternSin, 4},
		{grating.PatternSqr, 3},
		{grating.PatternSaw, 5},
	} {
		img, err := gratingaux.RenderPattern(nil, tc.id, glbuild.Uniforms{glbuild.UniformFreq: tc.freq}, 128, 8, nil)
		if err != nil {
			t.Fatal(err)
		}
		got, err := gratingaux.DominantFrequency(img, img.Bounds(), 4)
		if err != nil {
			t.Fatal(err)
		}
		if got != int(tc.freq) {
			t.Errorf("%s: want %g cycles, measured %d", tc.id, tc.freq, got)
		}
	}
	_, err := gratingaux.RenderPattern(nil, "nope", nil, 8, 8, nil)
	if err == nil {
		t.Error("expected error for unknown pattern")
	}
}

func TestRenderReleasesWorkers(t *testing.T) {
	before := runtime.NumGoroutine()
	for i := 0; i < 5; i++ {
		_, err := gratingaux.RenderPattern(nil, grating.PatternSin, nil, 32, 8, nil)
		if err != nil {
			t.Fatal(err)
		}
		cfg := gratingaux.RenderConfig{Width: 16, Height: 16, Workers: 4, Silent: true}
		_, err = gratingaux.RenderFrame(cfg, grating.Config{Tex: grating.Named("sin"), Size: ms2.Vec{X: 16, Y: 16}})
		if err != nil {
			t.Fatal(err)
		}
	}
	deadline := time.Now().Add(2 * time.Second)
	after := runtime.NumGoroutine()
	for after > before && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
		after = runtime.NumGoroutine()
	}
	if after > before {
		t.Errorf("leaked %d goroutines", after-before)
	}
}

func TestDominantFrequencyErrors(t *testing.T) {
	flat := image.NewGray(image.Rect(0, 0, 16, 4))
	if _, err := gratingaux.DominantFrequency(flat, flat.Bounds(), 1); err == nil {
		t.Error("expected error for flat row")
	}
	if _, err := gratingaux.DominantFrequency(flat, flat.Bounds(), 10); err == nil {
		t.Error("expected error for row outside image")
	}
	if _, err := gratingaux.DominantFrequency(flat, image.Rect(0, 0, 2, 4), 1); err == nil {
		t.Error("expected error for narrow region")
	}
}

func TestRenderFrameSF(t *testing.T) {
	cfg := gratingaux.RenderConfig{Width: 64, Height: 32, Silent: true, Workers: 2}
	stim := grating.Config{Tex: grating.Named("sin"), Size: ms2.Vec{X: 64, Y: 32}, SF: 2}
	img, err := gratingaux.RenderFrame(cfg, stim)
	if err != nil {
		t.Fatal(err)
	}
	got, err := gratingaux.DominantFrequency(img, img.Bounds(), 16)
	if err != nil {
		t.Fatal(err)
	}
	if got != 2 {
		t.Errorf("want 2 cycles across the stimulus, measured %d", got)
	}

	var buf bytes.Buffer
	if err := gratingaux.RenderPNG(&buf, cfg, stim); err != nil {
		t.Fatal(err)
	}
	decoded, err := png.Decode(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if decoded.Bounds().Size() != image.Pt(64, 32) {
		t.Errorf("png size: got %v", decoded.Bounds())
	}
	if _, err := gratingaux.RenderFrame(cfg); err == nil {
		t.Error("expected error rendering no stimuli")
	}
}

func TestDriftFrames(t *testing.T) {
	cfg := gratingaux.VideoConfig{
		RenderConfig: gratingaux.RenderConfig{Width: 64, Height: 16, Silent: true},
		FPS:          10,
		Frames:       3,
		DriftHz:      5, // Half a cycle per frame.
	}
	stim := grating.Config{Tex: grating.Named("sin"), Size: ms2.Vec{X: 64, Y: 16}}
	var got []uint8
	err := gratingaux.DriftFrames(cfg, func(i int, frame *image.RGBA) error {
		if i != len(got) {
			t.Errorf("frame %d delivered out of order", i)
		}
		got = append(got, frame.RGBAAt(16, 8).R)
		return nil
	}, stim)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 {
		t.Fatalf("want 3 frames, got %d", len(got))
	}
	if got[0] < 230 || got[1] > 25 || got[2] < 230 {
		t.Errorf("half cycle drift per frame should alternate bright and dark, got %v", got)
	}
	cfg.Frames = 0
	if err := gratingaux.DriftFrames(cfg, func(int, *image.RGBA) error { return nil }, stim); err == nil {
		t.Error("expected error for zero frames")
	}
}

func TestLabel(t *testing.T) {
	const size = 20
	img := image.NewRGBA(image.Rect(0, 0, 200, 40))
	err := gratingaux.Label(img, "SF 4.0", image.Pt(2, 2), size, color.White)
	if err != nil {
		t.Fatal(err)
	}
	bounds, err := gratingaux.LabelBounds("SF 4.0", size)
	if err != nil {
		t.Fatal(err)
	}
	if bounds.X <= 0 || bounds.Y <= 0 || bounds.X > 200 {
		t.Fatalf("unexpected label bounds %v", bounds)
	}
	inked := 0
	for y := 0; y < 40; y++ {
		for x := 0; x < 200; x++ {
			if img.RGBAAt(x, y).A == 0 {
				continue
			}
			inked++
			if x > 2+bounds.X+2 {
				t.Fatalf("ink at (%d,%d) beyond measured label width %d", x, y, bounds.X)
			}
		}
	}
	if inked == 0 {
		t.Error("label drew nothing")
	}
}
