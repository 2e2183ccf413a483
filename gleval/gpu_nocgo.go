//go:build tinygo || !cgo

package gleval

import (
	"context"
	"errors"

	"github.com/lightest/grating/glbuild"
)

var errNoCGO = errors.New("GPU evaluation requires CGo and is not supported on TinyGo")

// Init1x1GLFW starts a 1x1 sized GLFW so that user can start working with GPU.
func Init1x1GLFW() (terminate func(), err error) {
	return nil, errNoCGO
}

// TranslateFragment converts a GLSL ES 3.00 fragment stage to desktop GLSL 3.30.
func TranslateFragment(ctx context.Context, fragment []byte) (code string, names map[string]string, err error) {
	return "", nil, errNoCGO
}

// NewGPUEvaluator renders pattern fragment stages on the GPU.
func NewGPUEvaluator(ctx context.Context, src glbuild.ShaderSource) (*GPUEvaluator, error) {
	return nil, errNoCGO
}

type GPUEvaluator struct{}

func (ev *GPUEvaluator) EvaluateGrid(width, height int, dst []float32, u glbuild.Uniforms) error {
	return errNoCGO
}

func (ev *GPUEvaluator) Delete() {}
