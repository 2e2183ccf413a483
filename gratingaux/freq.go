package gratingaux

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

// DominantFrequency returns the number of cycles across the width of r with
// the most spectral power along row y of img. It is used to check that a
// rendered grating shows the spatial frequency it was configured with.
func DominantFrequency(img image.Image, r image.Rectangle, y int) (int, error) {
	r = r.Intersect(img.Bounds())
	if r.Dx() < 4 {
		return 0, errors.New("region too narrow for frequency analysis")
	} else if y < r.Min.Y || y >= r.Max.Y {
		return 0, fmt.Errorf("row %d outside region %v", y, r)
	}
	samples := make([]float64, r.Dx())
	var mean float64
	for i := range samples {
		g := color.GrayModel.Convert(img.At(r.Min.X+i, y)).(color.Gray)
		samples[i] = float64(g.Y) / 255
		mean += samples[i]
	}
	mean /= float64(len(samples))
	for i := range samples {
		samples[i] -= mean
	}
	spectrum := fft.FFTReal(samples)
	best, bestPower := 0, 0.0
	for k := 1; k <= len(samples)/2; k++ {
		p := cmplx.Abs(spectrum[k])
		if p > bestPower {
			best, bestPower = k, p
		}
	}
	if best == 0 {
		return 0, errors.New("row has no luminance modulation")
	}
	return best, nil
}
