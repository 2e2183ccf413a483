package grating

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/lightest/grating/resource"
)

// SourceKind enumerates the variants of a [Source].
type SourceKind uint8

const (
	SourceNone SourceKind = iota
	SourceName
	SourceBitmap
)

// Source is a tex or mask value as given by the user: nothing, a name that
// is either a pattern id or a resource name, or an already loaded bitmap.
// The zero value is [NoSource].
type Source struct {
	kind   SourceKind
	name   string
	bitmap *resource.Bitmap
}

// NoSource returns the empty source. A stimulus without tex draws nothing.
func NoSource() Source { return Source{} }

// Named returns a source naming a pattern id or a bitmap resource.
func Named(name string) Source { return Source{kind: SourceName, name: name} }

// FromBitmap returns a source holding an already resolved bitmap handle.
func FromBitmap(b *resource.Bitmap) Source { return Source{kind: SourceBitmap, bitmap: b} }

func (s Source) Kind() SourceKind { return s.kind }

// Name returns the pattern id or resource name of a [Named] source.
func (s Source) Name() string { return s.name }

// Bitmap returns the handle of a [FromBitmap] source.
func (s Source) Bitmap() *resource.Bitmap { return s.bitmap }

func (s Source) String() string {
	switch s.kind {
	case SourceName:
		return s.name
	case SourceBitmap:
		if s.bitmap == nil {
			return "bitmap(nil)"
		}
		return "bitmap(" + s.bitmap.Source() + ")"
	}
	return "none"
}

// Role distinguishes the tex and mask slots of a stimulus.
type Role uint8

const (
	RoleTex Role = iota
	RoleMask
)

func (r Role) String() string {
	if r == RoleMask {
		return "mask"
	}
	return "tex"
}

// ResolvedKind enumerates what a [Source] resolved to.
type ResolvedKind uint8

const (
	ResolvedNone ResolvedKind = iota
	ResolvedAnalytic
	ResolvedBitmap
)

// Resolved is a validated tex or mask: absent, an analytic pattern or a bitmap.
type Resolved struct {
	kind   ResolvedKind
	id     PatternID
	bitmap *resource.Bitmap
}

func (r Resolved) Kind() ResolvedKind { return r.kind }

func (r Resolved) PatternID() PatternID { return r.id }

func (r Resolved) Bitmap() *resource.Bitmap { return r.bitmap }

// Changed reports whether r differs from prev. Analytic patterns compare by id
// and bitmaps by source path, so reloading the same file is not a change.
func (r Resolved) Changed(prev Resolved) bool {
	if r.kind != prev.kind {
		return true
	}
	switch r.kind {
	case ResolvedAnalytic:
		return r.id != prev.id
	case ResolvedBitmap:
		return r.bitmap.Source() != prev.bitmap.Source()
	}
	return false
}

func (r Resolved) String() string {
	switch r.kind {
	case ResolvedAnalytic:
		return string(r.id)
	case ResolvedBitmap:
		return r.bitmap.Source()
	}
	return "none"
}

// Loader supplies bitmaps by resource name. [*resource.Manager] implements Loader.
type Loader interface {
	GetResource(name string) (*resource.Bitmap, error)
}

// Resolver classifies tex and mask values against a pattern catalog and a loader.
type Resolver struct {
	cat    *Catalog
	loader Loader
	log    *slog.Logger
}

// NewResolver returns a resolver. loader may be nil, in which case only
// catalog patterns and bitmap handles resolve.
func NewResolver(cat *Catalog, loader Loader, log *slog.Logger) *Resolver {
	if log == nil {
		log = newNopLogger()
	}
	return &Resolver{cat: cat, loader: loader, log: log}
}

// Resolve validates src for the given role. It never modifies stimulus state.
func (r *Resolver) Resolve(src Source, role Role) (Resolved, error) {
	switch src.kind {
	case SourceNone:
		r.log.Warn("no value given, stimulus slot will be empty", slog.String("role", role.String()))
		return Resolved{}, nil

	case SourceName:
		if src.name == "" {
			return Resolved{}, fmt.Errorf("%w: empty %s name", ErrInvalidTexture, role)
		}
		if r.cat.Has(PatternID(src.name)) {
			r.log.Debug("analytic pattern detected", slog.String("role", role.String()), slog.String("id", src.name))
			return Resolved{kind: ResolvedAnalytic, id: PatternID(src.name)}, nil
		}
		if r.loader == nil {
			return Resolved{}, fmt.Errorf("%w: %q (no loader)", ErrResourceNotFound, src.name)
		}
		b, err := r.loader.GetResource(src.name)
		if err != nil {
			if !errors.Is(err, ErrResourceNotFound) {
				err = fmt.Errorf("%w: %w", ErrResourceNotFound, err)
			}
			return Resolved{}, err
		} else if !b.Valid() {
			return Resolved{}, fmt.Errorf("%w: resource %q is not a decodable image", ErrInvalidTexture, src.name)
		}
		return Resolved{kind: ResolvedBitmap, bitmap: b}, nil

	case SourceBitmap:
		if !src.bitmap.Valid() {
			return Resolved{}, fmt.Errorf("%w: %s is not a decodable image", ErrInvalidTexture, src)
		}
		return Resolved{kind: ResolvedBitmap, bitmap: src.bitmap}, nil
	}
	return Resolved{}, fmt.Errorf("%w: unknown source kind %d", ErrInvalidTexture, src.kind)
}
