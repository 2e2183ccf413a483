package glbuild

import (
	"maps"
	"slices"
)

// Uniform names injected by the frequency/phase mapping of periodic patterns.
const (
	UniformFreq  = "uFreq"
	UniformPhase = "uPhase"
)

// Uniforms maps float uniform names to values.
type Uniforms map[string]float32

// Merge returns a new set with override applied over defaults key by key.
// Neither argument is modified.
func Merge(defaults, override Uniforms) Uniforms {
	merged := make(Uniforms, len(defaults)+len(override))
	maps.Copy(merged, defaults)
	maps.Copy(merged, override)
	return merged
}

// Clone returns a copy of u. A nil set clones to an empty non-nil set.
func (u Uniforms) Clone() Uniforms {
	c := make(Uniforms, len(u))
	maps.Copy(c, u)
	return c
}

// Get returns the value of name or zero if absent.
func (u Uniforms) Get(name string) float32 {
	return u[name]
}

// Has reports whether all names are present.
func (u Uniforms) Has(names ...string) bool {
	for _, name := range names {
		if _, ok := u[name]; !ok {
			return false
		}
	}
	return true
}

// Names returns the uniform names in sorted order.
func (u Uniforms) Names() []string {
	return slices.Sorted(maps.Keys(u))
}

// Equal reports whether u and other hold the same names and values.
func (u Uniforms) Equal(other Uniforms) bool {
	return maps.Equal(u, other)
}
