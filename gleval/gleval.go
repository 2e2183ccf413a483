package gleval

import (
	"errors"
	"fmt"

	"github.com/lightest/grating/glbuild"
	"github.com/soypat/geometry/ms2"
)

// Pattern implements an analytic luminance function in vectorized form,
// mirroring the GLSL body generated by its [glbuild.Pattern] counterpart.
type Pattern interface {
	// Evaluate evaluates the pattern at uv coordinates and stores luminance
	// in lum. uv and lum must be of same length. Uniforms absent from u
	// evaluate as zero, as in GLSL.
	Evaluate(uv []ms2.Vec, lum []float32, u glbuild.Uniforms) error
}

// GridEvaluator evaluates a pattern over a width by height grid of pixel centers.
// Results are stored row-major in dst with row 0 at uv.y near 0.
type GridEvaluator interface {
	EvaluateGrid(width, height int, dst []float32, u glbuild.Uniforms) error
}

var (
	errEmptyBuffers         = errors.New("empty buffers")
	errMismatchBufferLength = errors.New("uv and luminance buffer length mismatch")
)

// CheckBuffers returns an error if uv and lum can not be evaluated together.
func CheckBuffers(uv []ms2.Vec, lum []float32) error {
	if len(uv) != len(lum) {
		return errMismatchBufferLength
	} else if len(uv) == 0 {
		return errEmptyBuffers
	}
	return nil
}

// PixelUV returns the uv coordinate of the center of pixel (i,j) in a width by height grid.
func PixelUV(i, j, width, height int) ms2.Vec {
	return ms2.Vec{
		X: (float32(i) + 0.5) / float32(width),
		Y: (float32(j) + 0.5) / float32(height),
	}
}

// AppendUVRow appends the uv coordinates of the pixel centers of row j.
func AppendUVRow(dst []ms2.Vec, j, width, height int) []ms2.Vec {
	for i := 0; i < width; i++ {
		dst = append(dst, PixelUV(i, j, width, height))
	}
	return dst
}

// CPUGrid evaluates a [Pattern] over grids on the CPU one row at a time.
type CPUGrid struct {
	Pattern Pattern
	uv      []ms2.Vec
}

var _ GridEvaluator = (*CPUGrid)(nil) // Interface implementation compile-time check.

// EvaluateGrid implements [GridEvaluator].
func (g *CPUGrid) EvaluateGrid(width, height int, dst []float32, u glbuild.Uniforms) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("invalid grid dimensions %dx%d", width, height)
	} else if len(dst) < width*height {
		return fmt.Errorf("destination length %d smaller than grid %dx%d", len(dst), width, height)
	} else if g.Pattern == nil {
		return errors.New("nil pattern")
	}
	for j := 0; j < height; j++ {
		g.uv = AppendUVRow(g.uv[:0], j, width, height)
		err := g.Pattern.Evaluate(g.uv, dst[j*width:(j+1)*width], u)
		if err != nil {
			return err
		}
	}
	return nil
}
