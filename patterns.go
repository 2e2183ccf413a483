package grating

import (
	"github.com/lightest/grating/glbuild"
	"github.com/lightest/grating/glbuild/glsllib"
)

// Shared GLSL expression for a [0,1] sinusoid along one uv axis.
const (
	sinX = "(0.5+0.5*sin(uFreq*uv.x*2.0*PI+uPhase))"
	sinY = "(0.5+0.5*sin(uFreq*uv.y*2.0*PI+uPhase))"
)

func periodicUniforms() glbuild.Uniforms {
	return glbuild.Uniforms{glbuild.UniformFreq: 1, glbuild.UniformPhase: 0}
}

type sinGrating struct{}

func (sinGrating) ID() PatternID { return PatternSin }

func (sinGrating) AppendShaderName(b []byte) []byte { return append(b, "gratingSin"...) }

func (sinGrating) AppendShaderBody(b []byte) []byte {
	return append(b, "return "+sinX+";"...)
}

func (sinGrating) AppendShaderObjects(objs []glbuild.ShaderObject) []glbuild.ShaderObject {
	return objs
}

func (sinGrating) DefaultUniforms() glbuild.Uniforms { return periodicUniforms() }

type sqrGrating struct{}

func (sqrGrating) ID() PatternID { return PatternSqr }

func (sqrGrating) AppendShaderName(b []byte) []byte { return append(b, "gratingSqr"...) }

func (sqrGrating) AppendShaderBody(b []byte) []byte {
	return append(b, "return gratingSqrWave(uFreq*uv.x*2.0*PI+uPhase);"...)
}

func (sqrGrating) AppendShaderObjects(objs []glbuild.ShaderObject) []glbuild.ShaderObject {
	return append(objs, glsllib.SquareWave())
}

func (sqrGrating) DefaultUniforms() glbuild.Uniforms { return periodicUniforms() }

type sawGrating struct{}

func (sawGrating) ID() PatternID { return PatternSaw }

func (sawGrating) AppendShaderName(b []byte) []byte { return append(b, "gratingSaw"...) }

func (sawGrating) AppendShaderBody(b []byte) []byte {
	return append(b, "return fract(uFreq*uv.x+uPhase/(2.0*PI));"...)
}

func (sawGrating) AppendShaderObjects(objs []glbuild.ShaderObject) []glbuild.ShaderObject {
	return objs
}

func (sawGrating) DefaultUniforms() glbuild.Uniforms { return periodicUniforms() }

type triGrating struct{}

func (triGrating) ID() PatternID { return PatternTri }

func (triGrating) AppendShaderName(b []byte) []byte { return append(b, "gratingTri"...) }

func (triGrating) AppendShaderBody(b []byte) []byte {
	return append(b, "return gratingTriWave(uFreq*uv.x+uPhase/(2.0*PI),uPeriod);"...)
}

func (triGrating) AppendShaderObjects(objs []glbuild.ShaderObject) []glbuild.ShaderObject {
	return append(objs, glsllib.TriangleWave())
}

func (triGrating) DefaultUniforms() glbuild.Uniforms {
	u := periodicUniforms()
	u["uPeriod"] = 1
	return u
}

type sinXsinGrating struct{}

func (sinXsinGrating) ID() PatternID { return PatternSinXSin }

func (sinXsinGrating) AppendShaderName(b []byte) []byte { return append(b, "gratingSinXSin"...) }

func (sinXsinGrating) AppendShaderBody(b []byte) []byte {
	return append(b, "return "+sinX+"*"+sinY+";"...)
}

func (sinXsinGrating) AppendShaderObjects(objs []glbuild.ShaderObject) []glbuild.ShaderObject {
	return objs
}

func (sinXsinGrating) DefaultUniforms() glbuild.Uniforms { return periodicUniforms() }

type sqrXsqrGrating struct{}

func (sqrXsqrGrating) ID() PatternID { return PatternSqrXSqr }

func (sqrXsqrGrating) AppendShaderName(b []byte) []byte { return append(b, "gratingSqrXSqr"...) }

func (sqrXsqrGrating) AppendShaderBody(b []byte) []byte {
	return append(b, "return gratingSqrWave(uFreq*uv.x*2.0*PI+uPhase)*gratingSqrWave(uFreq*uv.y*2.0*PI+uPhase);"...)
}

func (sqrXsqrGrating) AppendShaderObjects(objs []glbuild.ShaderObject) []glbuild.ShaderObject {
	return append(objs, glsllib.SquareWave())
}

func (sqrXsqrGrating) DefaultUniforms() glbuild.Uniforms { return periodicUniforms() }

type circlePattern struct{}

func (circlePattern) ID() PatternID { return PatternCircle }

func (circlePattern) AppendShaderName(b []byte) []byte { return append(b, "gratingCircle"...) }

func (circlePattern) AppendShaderBody(b []byte) []byte {
	return append(b, "return 1.0-step(uRadius,length(uv*2.0-1.0));"...)
}

func (circlePattern) AppendShaderObjects(objs []glbuild.ShaderObject) []glbuild.ShaderObject {
	return objs
}

func (circlePattern) DefaultUniforms() glbuild.Uniforms {
	return glbuild.Uniforms{"uRadius": 1}
}

type gaussPattern struct{}

func (gaussPattern) ID() PatternID { return PatternGauss }

func (gaussPattern) AppendShaderName(b []byte) []byte { return append(b, "gratingGauss"...) }

func (gaussPattern) AppendShaderBody(b []byte) []byte {
	return append(b, "float d=length(uv-0.5)-uB;\nreturn uA*exp(-(d*d)/(2.0*uC*uC));"...)
}

func (gaussPattern) AppendShaderObjects(objs []glbuild.ShaderObject) []glbuild.ShaderObject {
	return objs
}

func (gaussPattern) DefaultUniforms() glbuild.Uniforms {
	return glbuild.Uniforms{"uA": 1, "uB": 0, "uC": 0.16}
}

type crossPattern struct{}

func (crossPattern) ID() PatternID { return PatternCross }

func (crossPattern) AppendShaderName(b []byte) []byte { return append(b, "gratingCross"...) }

func (crossPattern) AppendShaderBody(b []byte) []byte {
	return append(b, "vec2 p=abs(uv*2.0-1.0);\nreturn clamp(step(p.x,uThickness)+step(p.y,uThickness),0.0,1.0);"...)
}

func (crossPattern) AppendShaderObjects(objs []glbuild.ShaderObject) []glbuild.ShaderObject {
	return objs
}

func (crossPattern) DefaultUniforms() glbuild.Uniforms {
	return glbuild.Uniforms{"uThickness": 0.2}
}

type radRampPattern struct{}

func (radRampPattern) ID() PatternID { return PatternRadRamp }

func (radRampPattern) AppendShaderName(b []byte) []byte { return append(b, "gratingRadRamp"...) }

func (radRampPattern) AppendShaderBody(b []byte) []byte {
	return append(b, "return clamp(1.0-length(uv*2.0-1.0)*uSqueeze,0.0,1.0);"...)
}

func (radRampPattern) AppendShaderObjects(objs []glbuild.ShaderObject) []glbuild.ShaderObject {
	return objs
}

func (radRampPattern) DefaultUniforms() glbuild.Uniforms {
	return glbuild.Uniforms{"uSqueeze": 1}
}

type raisedCosPattern struct{}

func (raisedCosPattern) ID() PatternID { return PatternRaisedCos }

func (raisedCosPattern) AppendShaderName(b []byte) []byte { return append(b, "gratingRaisedCosMask"...) }

func (raisedCosPattern) AppendShaderBody(b []byte) []byte {
	return append(b, "return gratingRaisedCos(length(uv*2.0-1.0),uBeta,uPeriod);"...)
}

func (raisedCosPattern) AppendShaderObjects(objs []glbuild.ShaderObject) []glbuild.ShaderObject {
	return append(objs, glsllib.RaisedCosine())
}

func (raisedCosPattern) DefaultUniforms() glbuild.Uniforms {
	return glbuild.Uniforms{"uBeta": 0.25, "uPeriod": 0.625}
}
