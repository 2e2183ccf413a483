package grating

import (
	"errors"
	"log/slog"

	"github.com/chewxy/math32"
	"github.com/lightest/grating/glrender"
	"github.com/soypat/geometry/ms2"
)

// Update reconciles the drawable with the stimulus attributes. It does nothing
// when no attribute changed since the last call. A rebuild waiting on a bitmap
// to decode is retried on later calls. Update does not spend the retry budget.
func (s *GratingStim) Update() error {
	return s.reconcile(false)
}

// Draw reconciles the stimulus and puts its drawable on the window stage for
// the next flip. Each Draw that finds the rebuild still waiting on a bitmap
// spends one retry, failing with [ErrIncompleteBitmap] once the budget is spent.
func (s *GratingStim) Draw() error {
	err := s.reconcile(true)
	if err != nil {
		return err
	}
	if s.drawable != nil {
		s.win.stage.Add(s.drawable)
	}
	return nil
}

func (s *GratingStim) reconcile(spendRetry bool) error {
	if s.dirty == 0 {
		return nil
	} else if s.destroyed {
		return &StimError{Op: "draw", Stim: s.name, Err: errors.New("stimulus destroyed")}
	}
	if s.dirty&dirtyRebuild != 0 {
		err := s.rebuild()
		if errors.Is(err, errSizePending) {
			if spendRetry {
				s.retries++
			}
			if s.retries > s.maxRetries {
				s.retries = 0
				s.dirty = 0
				return &StimError{Op: "draw", Stim: s.name, Err: ErrIncompleteBitmap}
			}
			s.log.Debug("size pending, retrying next draw", slog.Int("retry", s.retries))
			s.dirty |= dirtyRebuild | dirtyUniforms
			s.updateBoundingBox()
			return nil
		}
		s.retries = 0
		if err != nil {
			s.dirty = 0
			return &StimError{Op: "draw", Stim: s.name, Err: err}
		}
	} else if s.dirty&dirtyUniforms != 0 {
		s.patch()
	}
	s.dirty = 0
	if s.drawable != nil {
		s.applyTransform(s.drawable.Node())
	}
	s.updateBoundingBox()
	return nil
}

func (s *GratingStim) applyTransform(n *glrender.Node) {
	n.ZIndex = s.depth
	n.Alpha = s.opacity
	n.Contrast = s.contrast
	n.Color = s.color
	px, _ := s.sizePixels()
	intrinsic := s.drawable.Size()
	scale := ms2.DivElem(px, intrinsic)
	if s.flipH {
		scale.X = -scale.X
	}
	// Stimulus space is Y up, the stage is Y down.
	if !s.flipV {
		scale.Y = -scale.Y
	}
	n.Scale = scale
	n.Rotation = -s.ori * math32.Pi / 180
	pos := s.win.ToPixels(s.pos, s.units)
	n.Position = ms2.Vec{X: pos.X, Y: -pos.Y}
}

func (s *GratingStim) updateBoundingBox() {
	half := ms2.Scale(0.5, s.Size())
	s.bbox = ms2.Box{Min: ms2.Sub(s.pos, half), Max: ms2.Add(s.pos, half)}
}
