package glsllib

import (
	_ "embed"

	"github.com/lightest/grating/glbuild"
)

//go:embed triwave.glsl
var triWaveSrc []byte

// TriangleWave is a unit-amplitude triangle wave with a configurable period:
//
//	float gratingTriWave(float t, float period)
func TriangleWave() glbuild.ShaderObject {
	obj, _ := glbuild.MakeShaderFunction(triWaveSrc)
	return obj
}

//go:embed sqrwave.glsl
var sqrWaveSrc []byte

// SquareWave maps the sign of a sine to the [0,1] range:
//
//	float gratingSqrWave(float arg)
func SquareWave() glbuild.ShaderObject {
	obj, _ := glbuild.MakeShaderFunction(sqrWaveSrc)
	return obj
}

//go:embed raisedcos.glsl
var raisedCosSrc []byte

// RaisedCosine is the radial raised-cosine profile. Requires PI to be defined.
//
//	float gratingRaisedCos(float d, float beta, float period)
func RaisedCosine() glbuild.ShaderObject {
	obj, _ := glbuild.MakeShaderFunction(raisedCosSrc)
	return obj
}
