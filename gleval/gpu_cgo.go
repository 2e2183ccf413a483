//go:build !tinygo && cgo

package gleval

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-gl/gl/v4.6-core/gl"
	"github.com/lightest/grating/glbuild"
	gst "github.com/richinsley/goshadertranslator"
	"github.com/soypat/glgl/v4.6-core/glgl"
)

// Init1x1GLFW starts a 1x1 sized GLFW so that user can start working with GPU.
// It returns a termination function that should be called when user is done running loads on GPU.
func Init1x1GLFW() (terminate func(), err error) {
	_, terminate, err = glgl.InitWithCurrentWindow33(glgl.WindowConfig{
		Title:   "grating",
		Version: [2]int{4, 6},
		Width:   1,
		Height:  1,
	})
	return terminate, err
}

// TranslateFragment converts a GLSL ES 3.00 fragment stage to desktop GLSL 3.30.
// The returned map relates original uniform and varying names to their translated names.
func TranslateFragment(ctx context.Context, fragment []byte) (code string, names map[string]string, err error) {
	translator, err := gst.NewShaderTranslator(ctx)
	if err != nil {
		return "", nil, err
	}
	result, err := translator.TranslateShader(string(fragment), "fragment", gst.ShaderSpecWebGL2, gst.OutputFormatGLSL330)
	if err != nil {
		return "", nil, fmt.Errorf("fragment shader translation failed: %w", err)
	}
	names = make(map[string]string, len(result.Variables))
	for name, v := range result.Variables {
		names[name] = v.MappedName
	}
	return result.Code, names, nil
}

// GPUEvaluator renders a pattern fragment stage into an offscreen framebuffer
// and reads luminance back. A GL context must be current, see [Init1x1GLFW].
type GPUEvaluator struct {
	prog  glgl.Program
	names map[string]string
	vao   uint32
	vbo   uint32
}

var _ GridEvaluator = (*GPUEvaluator)(nil) // Interface implementation compile-time check.

// NewGPUEvaluator translates and compiles the fragment stage of src. The
// vertex stage is replaced by a full-viewport quad since evaluation ignores
// the stimulus transform.
func NewGPUEvaluator(ctx context.Context, src glbuild.ShaderSource) (*GPUEvaluator, error) {
	frag, names, err := TranslateFragment(ctx, src.Fragment)
	if err != nil {
		return nil, err
	}
	varying := names["vUvs"]
	if varying == "" {
		varying = "vUvs"
	}
	vert := "#version 330 core\nin vec2 aPos;\nout vec2 " + varying + ";\nvoid main() {\n\t" +
		varying + " = aPos * 0.5 + 0.5;\n\tgl_Position = vec4(aPos, 0.0, 1.0);\n}\n"
	prog, err := glgl.CompileProgram(glgl.ShaderSource{
		Vertex:   vert + "\x00",
		Fragment: frag + "\x00",
	})
	if err != nil {
		return nil, fmt.Errorf("%s\n\n%w", frag, err)
	}
	ev := &GPUEvaluator{prog: prog, names: names}
	prog.Bind()
	defer prog.Unbind()
	gl.GenVertexArrays(1, &ev.vao)
	gl.BindVertexArray(ev.vao)
	gl.GenBuffers(1, &ev.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, ev.vbo)
	vertices := []float32{
		-1, -1,
		1, -1,
		1, 1,
		-1, -1,
		1, 1,
		-1, 1,
	}
	gl.BufferData(gl.ARRAY_BUFFER, 4*len(vertices), gl.Ptr(vertices), gl.STATIC_DRAW)
	posAttrib, err := prog.AttribLocation("aPos\x00")
	if err != nil {
		ev.Delete()
		return nil, err
	}
	gl.EnableVertexAttribArray(posAttrib)
	gl.VertexAttribPointer(posAttrib, 2, gl.FLOAT, false, 0, gl.PtrOffset(0))
	gl.BindVertexArray(0)
	if err = glgl.Err(); err != nil {
		ev.Delete()
		return nil, err
	}
	return ev, nil
}

// EvaluateGrid implements [GridEvaluator].
func (ev *GPUEvaluator) EvaluateGrid(width, height int, dst []float32, u glbuild.Uniforms) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("invalid grid dimensions %dx%d", width, height)
	} else if len(dst) < width*height {
		return fmt.Errorf("destination length %d smaller than grid %dx%d", len(dst), width, height)
	} else if ev.prog.ID() == 0 {
		return errors.New("program id is 0, was GPUEvaluator deleted?")
	}
	ev.prog.Bind()
	defer ev.prog.Unbind()
	for _, name := range u.Names() {
		mapped := ev.names[name]
		if mapped == "" {
			mapped = name
		}
		loc, err := ev.prog.UniformLocation(mapped + "\x00")
		if err != nil {
			continue // Optimized out by the compiler.
		}
		err = ev.prog.SetUniformf(loc, u[name])
		if err != nil {
			return err
		}
	}

	var tex, fbo uint32
	gl.GenTextures(1, &tex)
	defer gl.DeleteTextures(1, &tex)
	gl.BindTexture(gl.TEXTURE_2D, tex)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.R32F, int32(width), int32(height), 0, gl.RED, gl.FLOAT, nil)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.NEAREST)
	gl.GenFramebuffers(1, &fbo)
	defer gl.DeleteFramebuffers(1, &fbo)
	gl.BindFramebuffer(gl.FRAMEBUFFER, fbo)
	defer gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.TEXTURE_2D, tex, 0)
	if status := gl.CheckFramebufferStatus(gl.FRAMEBUFFER); status != gl.FRAMEBUFFER_COMPLETE {
		return glErrOrMessage(fmt.Sprintf("incomplete framebuffer status 0x%x", status))
	}
	gl.Viewport(0, 0, int32(width), int32(height))
	gl.BindVertexArray(ev.vao)
	gl.DrawArrays(gl.TRIANGLES, 0, 6)
	gl.BindVertexArray(0)
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.ReadPixels(0, 0, int32(width), int32(height), gl.RED, gl.FLOAT, gl.Ptr(&dst[0]))
	return glgl.Err()
}

// Delete releases the GL resources held by the evaluator.
func (ev *GPUEvaluator) Delete() {
	if ev.vbo != 0 {
		gl.DeleteBuffers(1, &ev.vbo)
		ev.vbo = 0
	}
	if ev.vao != 0 {
		gl.DeleteVertexArrays(1, &ev.vao)
		ev.vao = 0
	}
	if ev.prog.ID() != 0 {
		ev.prog.Delete()
	}
}

func glErrOrMessage(defaultMsg string) (err error) {
	err = glgl.Err()
	if err == nil {
		err = errors.New(defaultMsg)
	} else {
		err = fmt.Errorf("%s: %w", defaultMsg, err)
	}
	return err
}
