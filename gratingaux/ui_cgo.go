//go:build !tinygo && cgo

package gratingaux

import (
	"fmt"
	"math"
	"time"

	"github.com/go-gl/gl/v4.6-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/lightest/grating"
	"github.com/lightest/grating/gleval"
	"github.com/soypat/glgl/v4.6-core/glgl"
)

func ui(def grating.PatternDefinition, cfg UIConfig) error {
	window, term, err := startGLFW(cfg.Width, cfg.Height)
	if err != nil {
		return err
	}
	defer term()
	frag, names, err := gleval.TranslateFragment(cfg.Context, def.FragmentSource)
	if err != nil {
		return err
	}
	mapped := func(name string) string {
		if m := names[name]; m != "" {
			return m
		}
		return name
	}
	varying := mapped("vUvs")
	prog, err := glgl.CompileProgram(glgl.ShaderSource{
		Vertex: "#version 330 core\nin vec2 aPos;\nout vec2 " + varying + ";\nvoid main() {\n\t" +
			varying + " = aPos * 0.5 + 0.5;\n\tgl_Position = vec4(aPos, 0.0, 1.0);\n}\n\x00",
		Fragment: frag + "\x00",
	})
	if err != nil {
		return fmt.Errorf("%s\n\n%w", frag, err)
	}
	defer prog.Delete()
	prog.Bind()
	// Define a quad covering the screen
	var vao uint32
	gl.GenVertexArrays(1, &vao)
	gl.BindVertexArray(vao)
	defer gl.DeleteVertexArrays(1, &vao)

	var vbo uint32
	gl.GenBuffers(1, &vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, vbo)
	defer gl.DeleteBuffers(1, &vbo)
	vertices := []float32{
		-1.0, -1.0,
		1.0, -1.0,
		-1.0, 1.0,
		-1.0, 1.0,
		1.0, -1.0,
		1.0, 1.0,
	}
	gl.BufferData(gl.ARRAY_BUFFER, 4*len(vertices), gl.Ptr(vertices), gl.STATIC_DRAW)
	posAttrib, err := prog.AttribLocation("aPos\x00")
	if err != nil {
		return err
	}
	gl.EnableVertexAttribArray(posAttrib)
	gl.VertexAttribPointer(posAttrib, 2, gl.FLOAT, false, 0, gl.PtrOffset(0))

	locations := make(map[string]int32)
	for _, name := range def.DefaultUniforms.Names() {
		loc, err := prog.UniformLocation(mapped(name) + "\x00")
		if err != nil {
			continue // Optimized out by the compiler.
		}
		locations[name] = loc
	}

	var (
		sf     = float64(cfg.SF)
		phase  float64
		paused bool
	)
	window.SetKeyCallback(func(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
		if action != glfw.Press && action != glfw.Repeat {
			return
		}
		switch key {
		case glfw.KeyUp:
			sf *= 1.25
		case glfw.KeyDown:
			sf /= 1.25
		case glfw.KeySpace:
			paused = !paused
		case glfw.KeyEscape:
			w.SetShouldClose(true)
		}
	})

	previousTime := glfw.GetTime()
	for !window.ShouldClose() {
		select {
		case <-cfg.Context.Done():
			return cfg.Context.Err()
		default:
		}
		currentTime := glfw.GetTime()
		if !paused {
			phase = math.Mod(phase+2*math.Pi*float64(cfg.DriftHz)*(currentTime-previousTime), 2*math.Pi)
		}
		previousTime = currentTime
		width, height := window.GetFramebufferSize()
		gl.Viewport(0, 0, int32(width), int32(height))
		gl.ClearColor(0.5, 0.5, 0.5, 1.0)
		gl.Clear(gl.COLOR_BUFFER_BIT)

		prog.Bind()
		u := previewUniforms(def, float32(sf), float32(phase))
		for name, loc := range locations {
			gl.Uniform1f(loc, u[name])
		}
		gl.BindVertexArray(vao)
		gl.DrawArrays(gl.TRIANGLES, 0, 6)
		window.SwapBuffers()
		glfw.PollEvents()
		time.Sleep(time.Second / 60)
	}
	return glgl.Err()
}

func startGLFW(width, height int) (window *glfw.Window, term func(), err error) {
	if err := glfw.Init(); err != nil {
		return nil, nil, fmt.Errorf("initializing GLFW: %w", err)
	}
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 6)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.Resizable, glfw.False)

	window, err = glfw.CreateWindow(width, height, "grating preview", nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, nil, fmt.Errorf("creating GLFW window: %w", err)
	}
	window.MakeContextCurrent()
	if err := gl.Init(); err != nil {
		glfw.Terminate()
		return nil, nil, fmt.Errorf("initializing OpenGL: %w", err)
	}
	return window, glfw.Terminate, nil
}
