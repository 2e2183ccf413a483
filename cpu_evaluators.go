package grating

import (
	"github.com/chewxy/math32"
	"github.com/lightest/grating/glbuild"
	"github.com/lightest/grating/gleval"
	"github.com/soypat/geometry/ms2"
)

const twoPi = 2 * math32.Pi

var center = ms2.Vec{X: 0.5, Y: 0.5}

func sinWave(freq, x, phase float32) float32 {
	return 0.5 + 0.5*math32.Sin(freq*x*twoPi+phase)
}

func sqrWave(arg float32) float32 {
	return 0.5 + 0.5*signf(math32.Sin(arg))
}

func triWave(t, period float32) float32 {
	period = math32.Max(period, 1e-6)
	return 2 * math32.Abs(fract(t/period)-0.5)
}

func raisedCos(d, beta, period float32) float32 {
	edge0 := (1 - beta) / (2 * period)
	edge1 := (1 + beta) / (2 * period)
	switch {
	case d <= edge0:
		return 1
	case d <= edge1:
		return 0.5 * (1 + math32.Cos(math32.Pi*period/beta*(d-edge0)))
	}
	return 0
}

// radius returns the distance from the quad center normalized so quad edges are at 1.
func radius(uv ms2.Vec) float32 {
	return ms2.Norm(ms2.AddScalar(-1, ms2.Scale(2, uv)))
}

func (sinGrating) Evaluate(uv []ms2.Vec, lum []float32, u glbuild.Uniforms) error {
	if err := gleval.CheckBuffers(uv, lum); err != nil {
		return err
	}
	f, ph := u[glbuild.UniformFreq], u[glbuild.UniformPhase]
	for i, p := range uv {
		lum[i] = sinWave(f, p.X, ph)
	}
	return nil
}

func (sqrGrating) Evaluate(uv []ms2.Vec, lum []float32, u glbuild.Uniforms) error {
	if err := gleval.CheckBuffers(uv, lum); err != nil {
		return err
	}
	f, ph := u[glbuild.UniformFreq], u[glbuild.UniformPhase]
	for i, p := range uv {
		lum[i] = sqrWave(f*p.X*twoPi + ph)
	}
	return nil
}

func (sawGrating) Evaluate(uv []ms2.Vec, lum []float32, u glbuild.Uniforms) error {
	if err := gleval.CheckBuffers(uv, lum); err != nil {
		return err
	}
	f, ph := u[glbuild.UniformFreq], u[glbuild.UniformPhase]
	for i, p := range uv {
		lum[i] = fract(f*p.X + ph/twoPi)
	}
	return nil
}

func (triGrating) Evaluate(uv []ms2.Vec, lum []float32, u glbuild.Uniforms) error {
	if err := gleval.CheckBuffers(uv, lum); err != nil {
		return err
	}
	f, ph, period := u[glbuild.UniformFreq], u[glbuild.UniformPhase], u["uPeriod"]
	for i, p := range uv {
		lum[i] = triWave(f*p.X+ph/twoPi, period)
	}
	return nil
}

func (sinXsinGrating) Evaluate(uv []ms2.Vec, lum []float32, u glbuild.Uniforms) error {
	if err := gleval.CheckBuffers(uv, lum); err != nil {
		return err
	}
	f, ph := u[glbuild.UniformFreq], u[glbuild.UniformPhase]
	for i, p := range uv {
		lum[i] = sinWave(f, p.X, ph) * sinWave(f, p.Y, ph)
	}
	return nil
}

func (sqrXsqrGrating) Evaluate(uv []ms2.Vec, lum []float32, u glbuild.Uniforms) error {
	if err := gleval.CheckBuffers(uv, lum); err != nil {
		return err
	}
	f, ph := u[glbuild.UniformFreq], u[glbuild.UniformPhase]
	for i, p := range uv {
		lum[i] = sqrWave(f*p.X*twoPi+ph) * sqrWave(f*p.Y*twoPi+ph)
	}
	return nil
}

func (circlePattern) Evaluate(uv []ms2.Vec, lum []float32, u glbuild.Uniforms) error {
	if err := gleval.CheckBuffers(uv, lum); err != nil {
		return err
	}
	r := u["uRadius"]
	for i, p := range uv {
		lum[i] = 1 - step(r, radius(p))
	}
	return nil
}

func (gaussPattern) Evaluate(uv []ms2.Vec, lum []float32, u glbuild.Uniforms) error {
	if err := gleval.CheckBuffers(uv, lum); err != nil {
		return err
	}
	a, b, c := u["uA"], u["uB"], u["uC"]
	for i, p := range uv {
		d := ms2.Norm(ms2.Sub(p, center)) - b
		lum[i] = a * math32.Exp(-(d*d)/(2*c*c))
	}
	return nil
}

func (crossPattern) Evaluate(uv []ms2.Vec, lum []float32, u glbuild.Uniforms) error {
	if err := gleval.CheckBuffers(uv, lum); err != nil {
		return err
	}
	t := u["uThickness"]
	for i, p := range uv {
		q := ms2.AbsElem(ms2.AddScalar(-1, ms2.Scale(2, p)))
		lum[i] = clampf(step(q.X, t)+step(q.Y, t), 0, 1)
	}
	return nil
}

func (radRampPattern) Evaluate(uv []ms2.Vec, lum []float32, u glbuild.Uniforms) error {
	if err := gleval.CheckBuffers(uv, lum); err != nil {
		return err
	}
	s := u["uSqueeze"]
	for i, p := range uv {
		lum[i] = clampf(1-radius(p)*s, 0, 1)
	}
	return nil
}

func (raisedCosPattern) Evaluate(uv []ms2.Vec, lum []float32, u glbuild.Uniforms) error {
	if err := gleval.CheckBuffers(uv, lum); err != nil {
		return err
	}
	beta, period := u["uBeta"], u["uPeriod"]
	for i, p := range uv {
		lum[i] = raisedCos(radius(p), beta, period)
	}
	return nil
}

// step mirrors GLSL step: 0 if x < edge, else 1.
func step(edge, x float32) float32 {
	if x < edge {
		return 0
	}
	return 1
}

func fract(x float32) float32 {
	return x - math32.Floor(x)
}

func signf(a float32) float32 {
	if a == 0 {
		return 0
	}
	return math32.Copysign(1, a)
}

func clampf(v, Min, Max float32) float32 {
	if v < Min {
		return Min
	} else if v > Max {
		return Max
	}
	return v
}
