package grating

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/chewxy/math32"
	"github.com/lightest/grating/glbuild"
	"github.com/lightest/grating/glrender"
	"github.com/soypat/geometry/ms2"
)

// DefaultSizePix is the size of a stimulus without explicit size whose
// texture has no intrinsic size, i.e. analytic patterns.
const DefaultSizePix = 256

const defaultMaxSizeRetries = 30

// Renderer renders a drawable into an offscreen target. [*glrender.Context] implements Renderer.
type Renderer interface {
	RenderToTarget(d glrender.Drawable, target *glrender.RenderTexture) error
}

// Config describes a grating stimulus. Zero values select defaults.
type Config struct {
	// Name identifies the stimulus in errors and logs.
	Name string
	Tex  Source
	Mask Source
	// SF is the spatial frequency in cycles per stimulus width. Default 1.
	SF float32
	// Phase in radians.
	Phase float32
	// Size in stimulus units. Zero uses the intrinsic bitmap size or [DefaultSizePix].
	Size ms2.Vec
	// Pos of the stimulus center in stimulus units, Y up.
	Pos ms2.Vec
	// Ori is the orientation in degrees.
	Ori float32
	// Opacity in [0,1]. Zero defaults to 1, use SetOpacity(0) to hide a stimulus.
	Opacity float32
	// Contrast scales luminance about mid-grey. Zero defaults to 1.
	Contrast float32
	// Color in signed RGB, [-1,1] per channel. Zero defaults to white.
	Color     [3]float32
	Depth     float32
	FlipHoriz bool
	FlipVert  bool
	// Units of Size and Pos. Default the window units.
	Units Units
	// Interpolate enables bilinear filtering of bitmaps.
	Interpolate bool
	AutoDraw    bool
	// MaxSizeRetries bounds how many Draw calls a rebuild waits for a bitmap
	// to report its size before failing with [ErrIncompleteBitmap]. Zero
	// selects the default of 30, a negative value fails on the first pending Draw.
	MaxSizeRetries int
	// Catalog and Loader override the window's.
	Catalog *Catalog
	Loader  Loader
	// Renderer bakes analytic masks. Default the window context.
	Renderer Renderer
	Logger   *slog.Logger
}

// Validate returns all problems found in the configuration.
func (cfg Config) Validate() error {
	var errs []error
	if cfg.SF != 0 && !validSF(cfg.SF) {
		errs = append(errs, fmt.Errorf("invalid spatial frequency %g", cfg.SF))
	}
	if cfg.Opacity < 0 || cfg.Opacity > 1 {
		errs = append(errs, fmt.Errorf("opacity %g outside [0,1]", cfg.Opacity))
	}
	if cfg.Size.X < 0 || cfg.Size.Y < 0 || (cfg.Size.X == 0) != (cfg.Size.Y == 0) {
		errs = append(errs, fmt.Errorf("invalid size %v", cfg.Size))
	}
	if cfg.Units != "" && !cfg.Units.valid() {
		errs = append(errs, fmt.Errorf("unknown units %q", cfg.Units))
	}
	return errors.Join(errs...)
}

type dirtyBits uint8

const (
	// dirtyRebuild is set when tex, mask or pixel size changed.
	dirtyRebuild dirtyBits = 1 << iota
	// dirtyUniforms is set when only frequency or phase changed.
	dirtyUniforms
	// dirtyTransform is set when placement or appearance changed.
	dirtyTransform
)

// GratingStim draws an analytic pattern or tiled bitmap, optionally masked.
// Setters record the change and Draw reconciles the drawable once per frame.
// A GratingStim must only be used from the rendering goroutine.
type GratingStim struct {
	win      *Window
	name     string
	cat      *Catalog
	resolver *Resolver
	renderer Renderer
	log      *slog.Logger

	texSrc, maskSrc Source
	tex, mask       Resolved

	sf, phase   float32
	size, pos   ms2.Vec
	units       Units
	ori         float32
	opacity     float32
	contrast    float32
	color       [3]float32
	depth       float32
	flipH       bool
	flipV       bool
	interpolate bool
	autoDraw    bool

	drawable   glrender.Drawable
	maskSprite *glrender.Sprite
	maskTarget *glrender.RenderTexture
	bbox       ms2.Box

	dirty      dirtyBits
	retries    int
	maxRetries int
	rebuilds   int
	destroyed  bool
}

// NewGratingStim validates cfg, resolves its tex and mask and returns a stimulus
// drawn on win. The drawable is built lazily on the first Draw.
func NewGratingStim(win *Window, cfg Config) (*GratingStim, error) {
	if win == nil {
		return nil, errors.New("nil window")
	}
	if err := cfg.Validate(); err != nil {
		return nil, &StimError{Op: "init", Stim: cfg.Name, Err: err}
	}
	s := &GratingStim{
		win:         win,
		name:        cfg.Name,
		cat:         cfg.Catalog,
		renderer:    cfg.Renderer,
		log:         cfg.Logger,
		sf:          cfg.SF,
		phase:       cfg.Phase,
		size:        cfg.Size,
		pos:         cfg.Pos,
		units:       cfg.Units,
		ori:         cfg.Ori,
		opacity:     cfg.Opacity,
		contrast:    cfg.Contrast,
		color:       cfg.Color,
		depth:       cfg.Depth,
		flipH:       cfg.FlipHoriz,
		flipV:       cfg.FlipVert,
		interpolate: cfg.Interpolate,
		maxRetries:  cfg.MaxSizeRetries,
		dirty:       dirtyRebuild | dirtyUniforms | dirtyTransform,
	}
	if s.name == "" {
		s.name = "grating"
	}
	if s.cat == nil {
		s.cat = win.cat
	}
	if s.renderer == nil {
		s.renderer = win.ctx
	}
	if s.log == nil {
		s.log = win.log
	}
	s.log = s.log.With(slog.String("stim", s.name))
	if s.sf == 0 {
		s.sf = 1
	}
	if s.units == "" {
		s.units = win.units
	}
	if s.opacity == 0 {
		s.opacity = 1
	}
	if s.contrast == 0 {
		s.contrast = 1
	}
	if s.color == [3]float32{} {
		s.color = [3]float32{1, 1, 1}
	}
	if s.maxRetries == 0 {
		s.maxRetries = defaultMaxSizeRetries
	} else if s.maxRetries < 0 {
		s.maxRetries = 0
	}
	loader := cfg.Loader
	if loader == nil {
		loader = win.loader
	}
	s.resolver = NewResolver(s.cat, loader, s.log)

	var err error
	s.tex, err = s.resolver.Resolve(cfg.Tex, RoleTex)
	if err != nil {
		return nil, &StimError{Op: "tex", Stim: s.name, Err: err}
	}
	s.mask, err = s.resolver.Resolve(cfg.Mask, RoleMask)
	if err != nil {
		return nil, &StimError{Op: "mask", Stim: s.name, Err: err}
	}
	s.texSrc, s.maskSrc = cfg.Tex, cfg.Mask
	s.SetAutoDraw(cfg.AutoDraw)
	return s, nil
}

func (s *GratingStim) logSet(log bool, attr string, v any) {
	if log {
		s.log.Debug("set", slog.String("attr", attr), slog.Any("value", v))
	}
}

// SetTex sets the texture. A change of pattern id or bitmap source arms a full
// rebuild. On error the stimulus is left as it was.
func (s *GratingStim) SetTex(src Source, log bool) error {
	r, err := s.resolver.Resolve(src, RoleTex)
	if err != nil {
		return &StimError{Op: "tex", Stim: s.name, Err: err}
	}
	if r.Changed(s.tex) {
		s.dirty |= dirtyRebuild
	}
	s.tex, s.texSrc = r, src
	s.logSet(log, "tex", src)
	return nil
}

// SetMask sets the mask, analytic or bitmap. A change of identity arms a full
// rebuild. On error the stimulus is left as it was.
func (s *GratingStim) SetMask(src Source, log bool) error {
	r, err := s.resolver.Resolve(src, RoleMask)
	if err != nil {
		return &StimError{Op: "mask", Stim: s.name, Err: err}
	}
	if r.Changed(s.mask) {
		s.dirty |= dirtyRebuild
	}
	s.mask, s.maskSrc = r, src
	s.logSet(log, "mask", src)
	return nil
}

// SetSF sets the spatial frequency in cycles per stimulus width. The drawable
// is patched in place. sf must be positive and finite.
func (s *GratingStim) SetSF(sf float32, log bool) error {
	if !validSF(sf) {
		return &StimError{Op: "sf", Stim: s.name, Err: fmt.Errorf("invalid spatial frequency %g", sf)}
	}
	if sf != s.sf {
		s.sf = sf
		s.dirty |= dirtyUniforms
	}
	s.logSet(log, "sf", sf)
	return nil
}

func validSF(sf float32) bool {
	return sf > 0 && !math32.IsInf(sf, 1)
}

// SetPhase sets the phase in radians. The drawable is patched in place.
func (s *GratingStim) SetPhase(phase float32, log bool) {
	if phase != s.phase {
		s.phase = phase
		s.dirty |= dirtyUniforms
	}
	s.logSet(log, "phase", phase)
}

// SetSize sets the size in stimulus units. A zero size restores the default size.
func (s *GratingStim) SetSize(size ms2.Vec, log bool) {
	if size != s.size {
		s.size = size
		s.dirty |= dirtyRebuild | dirtyTransform
	}
	s.logSet(log, "size", size)
}

// SetUnits changes the units of size and position. Values are kept as numbers.
func (s *GratingStim) SetUnits(u Units, log bool) error {
	if !u.valid() {
		return &StimError{Op: "units", Stim: s.name, Err: fmt.Errorf("unknown units %q", u)}
	}
	if u != s.units {
		s.units = u
		s.dirty |= dirtyRebuild | dirtyTransform
	}
	s.logSet(log, "units", u)
	return nil
}

func (s *GratingStim) SetPos(pos ms2.Vec, log bool) {
	s.pos = pos
	s.dirty |= dirtyTransform
	s.logSet(log, "pos", pos)
}

// SetOri sets the orientation in degrees.
func (s *GratingStim) SetOri(ori float32, log bool) {
	s.ori = ori
	s.dirty |= dirtyTransform
	s.logSet(log, "ori", ori)
}

func (s *GratingStim) SetOpacity(opacity float32, log bool) {
	s.opacity = clampf(opacity, 0, 1)
	s.dirty |= dirtyTransform
	s.logSet(log, "opacity", opacity)
}

func (s *GratingStim) SetContrast(contrast float32, log bool) {
	s.contrast = contrast
	s.dirty |= dirtyTransform
	s.logSet(log, "contrast", contrast)
}

// SetColor sets the signed RGB color, [-1,1] per channel.
func (s *GratingStim) SetColor(color [3]float32, log bool) {
	s.color = color
	s.dirty |= dirtyTransform
	s.logSet(log, "color", color)
}

// SetDepth sets the ordering key, lower depths are drawn first.
func (s *GratingStim) SetDepth(depth float32, log bool) {
	s.depth = depth
	s.dirty |= dirtyTransform
	s.logSet(log, "depth", depth)
}

func (s *GratingStim) SetFlipHoriz(flip bool, log bool) {
	s.flipH = flip
	s.dirty |= dirtyTransform
	s.logSet(log, "flipHoriz", flip)
}

func (s *GratingStim) SetFlipVert(flip bool, log bool) {
	s.flipV = flip
	s.dirty |= dirtyTransform
	s.logSet(log, "flipVert", flip)
}

// SetInterpolate toggles bilinear filtering of bitmaps.
func (s *GratingStim) SetInterpolate(interpolate bool, log bool) {
	if interpolate != s.interpolate {
		s.interpolate = interpolate
		s.dirty |= dirtyRebuild
	}
	s.logSet(log, "interpolate", interpolate)
}

// SetAutoDraw registers the stimulus to be drawn on every window flip.
func (s *GratingStim) SetAutoDraw(autoDraw bool) {
	s.autoDraw = autoDraw
	if autoDraw {
		s.win.addAutoDraw(s)
	} else {
		s.win.removeAutoDraw(s)
	}
}

func (s *GratingStim) Name() string      { return s.name }
func (s *GratingStim) Tex() Source       { return s.texSrc }
func (s *GratingStim) Mask() Source      { return s.maskSrc }
func (s *GratingStim) SF() float32       { return s.sf }
func (s *GratingStim) Phase() float32    { return s.phase }
func (s *GratingStim) Pos() ms2.Vec      { return s.pos }
func (s *GratingStim) Ori() float32      { return s.ori }
func (s *GratingStim) Opacity() float32  { return s.opacity }
func (s *GratingStim) Contrast() float32 { return s.contrast }
func (s *GratingStim) Depth() float32    { return s.depth }
func (s *GratingStim) Units() Units      { return s.units }
func (s *GratingStim) FlipHoriz() bool   { return s.flipH }
func (s *GratingStim) FlipVert() bool    { return s.flipV }
func (s *GratingStim) AutoDraw() bool    { return s.autoDraw }

// Size returns the display size in stimulus units: the explicit size if set,
// else the intrinsic size of the texture or [DefaultSizePix]. It is zero
// while a bitmap texture without explicit size is still decoding.
func (s *GratingStim) Size() ms2.Vec {
	if s.size != (ms2.Vec{}) {
		return s.size
	}
	px, _ := s.sizePixels()
	return s.win.FromPixels(px, s.units)
}

// BoundingBox returns the axis aligned box of the stimulus in stimulus units,
// as of the last reconciliation.
func (s *GratingStim) BoundingBox() ms2.Box { return s.bbox }

// Drawable returns the current drawable or nil if none is built.
func (s *GratingStim) Drawable() glrender.Drawable { return s.drawable }

// Rebuilds returns the number of times the drawable was destroyed and rebuilt.
func (s *GratingStim) Rebuilds() int { return s.rebuilds }

// Dirty reports whether changes await reconciliation.
func (s *GratingStim) Dirty() bool { return s.dirty != 0 }

// sizePixels returns the display size in pixels. ok is false when the size
// depends on a bitmap that has not decoded yet.
func (s *GratingStim) sizePixels() (px ms2.Vec, ok bool) {
	if s.size != (ms2.Vec{}) {
		return ms2.AbsElem(s.win.ToPixels(s.size, s.units)), true
	}
	if s.tex.kind == ResolvedBitmap {
		sz := s.tex.bitmap.Size()
		return sz, sz.X > 0 && sz.Y > 0
	}
	return ms2.Vec{X: DefaultSizePix, Y: DefaultSizePix}, true
}

// WaitReady blocks until the bitmaps used by the stimulus finish decoding, so
// the next Draw builds without polling.
func (s *GratingStim) WaitReady(ctx context.Context) error {
	for _, r := range [2]Resolved{s.tex, s.mask} {
		if r.kind != ResolvedBitmap {
			continue
		}
		if err := r.bitmap.Wait(ctx); err != nil {
			return &StimError{Op: "wait", Stim: s.name, Err: err}
		}
	}
	return nil
}

// Destroy releases the drawable and removes the stimulus from the window.
func (s *GratingStim) Destroy() {
	s.destroyDrawable()
	s.win.removeAutoDraw(s)
	s.destroyed = true
	s.dirty = 0
}

func (s *GratingStim) destroyDrawable() {
	if s.drawable != nil {
		s.win.stage.Remove(s.drawable)
		s.drawable.Destroy()
		s.drawable = nil
	}
	if s.maskSprite != nil {
		s.maskSprite.Destroy()
		s.maskSprite = nil
	}
	if s.maskTarget != nil {
		s.maskTarget.Destroy()
		s.maskTarget = nil
	}
}

var errSizePending = errors.New("intrinsic size pending")

// rebuild destroys the drawable and synthesizes a new one from the resolved
// tex and mask. It returns errSizePending if a bitmap has not decoded yet.
func (s *GratingStim) rebuild() error {
	s.destroyDrawable()
	s.rebuilds++
	if s.tex.kind == ResolvedNone {
		s.log.Debug("no tex, nothing to draw")
		return nil
	}
	px, ok := s.sizePixels()
	if !ok {
		return s.pendingBitmap(s.tex)
	}
	var d glrender.Drawable
	switch s.tex.kind {
	case ResolvedBitmap:
		ts, err := glrender.NewTilingSprite(s.tex.bitmap, px.X, px.Y)
		if err != nil {
			return err
		}
		ts.Smooth = s.interpolate
		ts.FlipY = true
		d = ts
		if ts.TextureSize() == (ms2.Vec{}) {
			ts.Destroy()
			return s.pendingBitmap(s.tex)
		}
		applyTiling(ts, s.sf, s.phase)

	case ResolvedAnalytic:
		def, ok := s.cat.Lookup(s.tex.id)
		if !ok {
			return fmt.Errorf("%w: pattern %q missing from catalog", ErrInvalidTexture, s.tex.id)
		}
		mesh, err := BuildMesh(s.cat, s.tex.id, AnalyticUniforms(def.DefaultUniforms, s.sf, s.phase), px.X, px.Y)
		if err != nil {
			return err
		}
		d = mesh
	}
	d.Node().Pivot = ms2.Scale(0.5, d.Size())
	s.drawable = d

	if s.mask.kind != ResolvedNone {
		mask, err := s.buildMask(px)
		if err != nil {
			s.destroyDrawable()
			return err
		}
		d.Node().SetMask(mask)
		d.Node().AddChild(mask)
		s.maskSprite = mask
	}
	if d.Size() == (ms2.Vec{}) {
		s.destroyDrawable()
		return errSizePending
	}
	s.log.Debug("rebuilt", slog.String("tex", s.tex.String()), slog.String("mask", s.mask.String()),
		slog.Float64("w", float64(px.X)), slog.Float64("h", float64(px.Y)))
	return nil
}

// buildMask returns a sprite covering the drawable's local space. Analytic
// masks are rendered once into an offscreen target of the stimulus pixel size.
func (s *GratingStim) buildMask(px ms2.Vec) (*glrender.Sprite, error) {
	if s.mask.kind == ResolvedBitmap {
		if s.mask.bitmap.Size() == (ms2.Vec{}) {
			return nil, s.pendingBitmap(s.mask)
		}
		sprite := glrender.NewSprite(s.mask.bitmap)
		sprite.SetDisplaySize(px.X, px.Y)
		sprite.Smooth = s.interpolate
		sprite.FlipY = true
		return sprite, nil
	}
	mesh, err := BuildMesh(s.cat, s.mask.id, nil, px.X, px.Y)
	if err != nil {
		return nil, err
	}
	defer mesh.Destroy()
	target, err := glrender.NewRenderTexture(int(math32.Ceil(px.X)), int(math32.Ceil(px.Y)))
	if err != nil {
		return nil, err
	}
	err = s.renderer.RenderToTarget(mesh, target)
	if err != nil {
		target.Destroy()
		return nil, fmt.Errorf("baking %s mask: %w", s.mask.id, err)
	}
	s.maskTarget = target
	sprite := glrender.NewSprite(target)
	sprite.SetDisplaySize(px.X, px.Y)
	sprite.Smooth = true
	return sprite, nil
}

// pendingBitmap returns errSizePending for a bitmap still decoding, or
// ErrInvalidTexture if decoding failed.
func (s *GratingStim) pendingBitmap(r Resolved) error {
	if err := r.bitmap.Err(); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInvalidTexture, r.bitmap.Source(), err)
	}
	return errSizePending
}

// patch writes frequency and phase into the live drawable without rebuilding.
func (s *GratingStim) patch() {
	switch d := s.drawable.(type) {
	case *glrender.MeshDrawable:
		u := d.Uniforms()
		if u.Has(glbuild.UniformFreq) {
			d.SetUniform(glbuild.UniformFreq, s.sf)
		}
		if u.Has(glbuild.UniformPhase) {
			d.SetUniform(glbuild.UniformPhase, s.phase)
		}
	case *glrender.TilingSprite:
		applyTiling(d, s.sf, s.phase)
	}
}

func applyTiling(ts *glrender.TilingSprite, sf, phase float32) {
	m := BitmapTiling(sf, phase, ts.Size(), ts.TextureSize())
	ts.TileScale = m.Scale
	ts.TileOffset = m.Offset
}
