package grating

import (
	"errors"
	"fmt"
	"slices"

	"github.com/lightest/grating/glbuild"
	"github.com/lightest/grating/gleval"
)

// PatternID names an analytic pattern. The built-in identifiers are a stable
// contract shared with existing stimulus descriptions.
type PatternID string

const (
	PatternSin       PatternID = "sin"
	PatternSqr       PatternID = "sqr"
	PatternSaw       PatternID = "saw"
	PatternTri       PatternID = "tri"
	PatternSinXSin   PatternID = "sinXsin"
	PatternSqrXSqr   PatternID = "sqrXsqr"
	PatternCircle    PatternID = "circle"
	PatternGauss     PatternID = "gauss"
	PatternCross     PatternID = "cross"
	PatternRadRamp   PatternID = "radRamp"
	PatternRaisedCos PatternID = "raisedCos"
)

// Pattern is an analytic pattern that can be rendered on GPU through its
// generated fragment stage and on CPU through Evaluate.
type Pattern interface {
	glbuild.Pattern
	gleval.Pattern
	ID() PatternID
}

// PatternDefinition is an immutable catalog entry.
type PatternDefinition struct {
	ID PatternID
	// FragmentSource is the complete GLSL ES 3.00 fragment stage.
	FragmentSource []byte
	// VertexSource is the quad vertex stage paired with FragmentSource.
	VertexSource []byte
	// DefaultUniforms are the uniforms the fragment stage declares, with their defaults.
	DefaultUniforms glbuild.Uniforms
	// Pattern evaluates the same function on CPU.
	Pattern Pattern
}

// Catalog maps pattern identifiers to their definitions. It is read-only after
// construction and safe for concurrent use.
type Catalog struct {
	defs map[PatternID]PatternDefinition
	ids  []PatternID
}

// BuiltinPatterns returns the eleven built-in patterns.
func BuiltinPatterns() []Pattern {
	return []Pattern{
		sinGrating{}, sqrGrating{}, sawGrating{}, triGrating{},
		sinXsinGrating{}, sqrXsqrGrating{},
		circlePattern{}, gaussPattern{}, crossPattern{}, radRampPattern{}, raisedCosPattern{},
	}
}

// DefaultCatalog returns a catalog holding the built-in patterns.
func DefaultCatalog() *Catalog {
	cat, err := NewCatalog(BuiltinPatterns()...)
	if err != nil {
		panic(err) // Built-in patterns always generate.
	}
	return cat
}

// NewCatalog generates the fragment stage of every pattern and returns the
// resulting catalog. Identifiers must be unique and non-empty.
func NewCatalog(patterns ...Pattern) (*Catalog, error) {
	cat := &Catalog{defs: make(map[PatternID]PatternDefinition, len(patterns))}
	programmer := glbuild.NewDefaultProgrammer()
	var errs []error
	for _, p := range patterns {
		if p == nil {
			errs = append(errs, errors.New("nil pattern"))
			continue
		}
		id := p.ID()
		if id == "" {
			errs = append(errs, errors.New("empty pattern id"))
			continue
		} else if _, dup := cat.defs[id]; dup {
			errs = append(errs, fmt.Errorf("duplicate pattern id %q", id))
			continue
		}
		src, err := programmer.Program(p)
		if err != nil {
			errs = append(errs, fmt.Errorf("pattern %q: %w", id, err))
			continue
		}
		cat.defs[id] = PatternDefinition{
			ID:              id,
			FragmentSource:  src.Fragment,
			VertexSource:    src.Vertex,
			DefaultUniforms: p.DefaultUniforms(),
			Pattern:         p,
		}
		cat.ids = append(cat.ids, id)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return cat, nil
}

// Lookup returns the definition of id. The boolean is false if id is not an
// analytic pattern in this catalog. The returned definition does not alias catalog storage.
func (c *Catalog) Lookup(id PatternID) (PatternDefinition, bool) {
	if c == nil {
		return PatternDefinition{}, false
	}
	def, ok := c.defs[id]
	if !ok {
		return PatternDefinition{}, false
	}
	def.FragmentSource = slices.Clone(def.FragmentSource)
	def.VertexSource = slices.Clone(def.VertexSource)
	def.DefaultUniforms = def.DefaultUniforms.Clone()
	return def, true
}

// Has reports whether id names an analytic pattern in this catalog.
func (c *Catalog) Has(id PatternID) bool {
	if c == nil {
		return false
	}
	_, ok := c.defs[id]
	return ok
}

// IDs returns the identifiers in the catalog in registration order.
func (c *Catalog) IDs() []PatternID {
	return slices.Clone(c.ids)
}
