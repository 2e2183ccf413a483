package gratingaux

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"io"

	math "github.com/chewxy/math32"
	"github.com/lightest/grating"
	"github.com/lightest/grating/gleval"
	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// VideoConfig configures rendering of drifting gratings.
type VideoConfig struct {
	RenderConfig
	// FPS is the frame rate. Default 60.
	FPS int
	// Frames to render.
	Frames int
	// DriftHz advances the phase of every stimulus by DriftHz cycles per second.
	DriftHz float32
	// Codec passed to ffmpeg. Default libx264.
	Codec string
	// FFmpegPath overrides the ffmpeg binary found in PATH.
	FFmpegPath string
}

func (cfg *VideoConfig) setDefaults() error {
	if cfg.Frames <= 0 {
		return errors.New("video requires a positive frame count")
	} else if cfg.FPS < 0 {
		return errors.New("negative frame rate")
	}
	if cfg.FPS == 0 {
		cfg.FPS = 60
	}
	if cfg.Width == 0 && cfg.Height == 0 {
		cfg.Width, cfg.Height = 800, 600
	}
	if cfg.Codec == "" {
		cfg.Codec = "libx264"
	}
	return nil
}

// DriftFrames renders cfg.Frames frames of stims, advancing their phase by
// cfg.DriftHz, and calls fn with each. The frame is reused between calls.
func DriftFrames(cfg VideoConfig, fn func(i int, frame *image.RGBA) error, stims ...grating.Config) error {
	if err := cfg.setDefaults(); err != nil {
		return err
	} else if len(stims) == 0 {
		return errors.New("no stimuli to render")
	}
	log := logger(cfg.Silent)
	if cfg.UseGPU {
		terminate, err := gleval.Init1x1GLFW()
		if err != nil {
			return err
		}
		defer terminate()
	}
	win, err := newWindow(cfg.RenderConfig)
	if err != nil {
		return err
	}
	defer win.Close()
	ctx := cfg.Context
	if ctx == nil {
		ctx = context.Background()
	}
	gs := make([]*grating.GratingStim, len(stims))
	for i := range stims {
		gs[i], err = grating.NewGratingStim(win, stims[i])
		if err != nil {
			return err
		}
		if err = gs[i].WaitReady(ctx); err != nil {
			return err
		}
	}
	base := make([]float32, len(gs))
	for i, s := range gs {
		base[i] = s.Phase()
	}
	watch := stopwatch()
	frame := image.NewRGBA(image.Rect(0, 0, cfg.Width, cfg.Height))
	dphase := 2 * math.Pi * cfg.DriftHz / float32(cfg.FPS)
	for n := 0; n < cfg.Frames; n++ {
		if err = ctx.Err(); err != nil {
			return err
		}
		for i, s := range gs {
			s.SetPhase(math.Mod(base[i]+dphase*float32(n), 2*math.Pi), false)
			if err = s.Draw(); err != nil {
				return err
			}
		}
		if err = win.Flip(); err != nil {
			return err
		}
		src := win.Frame()
		draw.Draw(frame, frame.Rect, src, src.Bounds().Min, draw.Src)
		if cfg.Label != "" {
			if err = Label(frame, cfg.Label, image.Pt(8, 8), 14, color.White); err != nil {
				return err
			}
		}
		if err = fn(n, frame); err != nil {
			return fmt.Errorf("frame %d: %w", n, err)
		}
	}
	log("rendered", cfg.Frames, "frames in", watch())
	return nil
}

// RenderVideo encodes a drifting grating video to filename with ffmpeg, which
// must be installed. Raw RGBA frames are piped to the encoder.
func RenderVideo(filename string, cfg VideoConfig, stims ...grating.Config) error {
	if err := cfg.setDefaults(); err != nil {
		return err
	}
	log := logger(cfg.Silent)
	pr, pw := io.Pipe()
	cmd := ffmpeg.Input("pipe:", ffmpeg.KwArgs{
		"format":    "rawvideo",
		"pix_fmt":   "rgba",
		"s":         fmt.Sprintf("%dx%d", cfg.Width, cfg.Height),
		"framerate": cfg.FPS,
	}).Output(filename, ffmpeg.KwArgs{
		"c:v":     cfg.Codec,
		"pix_fmt": "yuv420p",
	}).OverWriteOutput().WithInput(pr)
	if !cfg.Silent {
		cmd = cmd.ErrorToStdOut()
	}
	if cfg.FFmpegPath != "" {
		cmd = cmd.SetFfmpegPath(cfg.FFmpegPath)
	}
	errc := make(chan error, 1)
	go func() {
		err := cmd.Run()
		if err == nil {
			err = io.ErrClosedPipe
		}
		// Unblock frame writes if ffmpeg exits early.
		pr.CloseWithError(err)
		errc <- err
	}()
	err := DriftFrames(cfg, func(i int, frame *image.RGBA) error {
		_, err := pw.Write(frame.Pix)
		return err
	}, stims...)
	pw.CloseWithError(err)
	runErr := <-errc
	if errors.Is(runErr, io.ErrClosedPipe) {
		runErr = nil
	}
	if err != nil || runErr != nil {
		return errors.Join(err, runErr)
	}
	log("wrote", filename)
	return nil
}
