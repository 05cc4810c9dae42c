package cache

import (
	"github.com/typeset-tools/autofit/pkg/layout"
	"github.com/typeset-tools/autofit/pkg/oracle"
)

// SolveKeyOpts identifies one solve request. Every field that can change
// the final parameters participates in the cache key.
type SolveKeyOpts struct {
	Profile  layout.ContentProfile `json:"profile"`
	Geometry oracle.PageGeometry   `json:"geometry"`
	Ranges   layout.RangeConfig    `json:"ranges"`
	Initial  layout.Parameters     `json:"initial"`
}

// Keyer generates cache keys for solve results.
type Keyer interface {
	// SolveKey generates a key for a cached solve result.
	SolveKey(opts SolveKeyOpts) string
}

// DefaultKeyer generates unscoped keys. Suitable for the CLI, where the
// cache directory already belongs to a single user.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// SolveKey generates a key for a cached solve result.
// The key format is: solve:hash(opts)
func (k *DefaultKeyer) SolveKey(opts SolveKeyOpts) string {
	return hashKey("solve", opts)
}

// ScopedKeyer wraps a Keyer with a prefix for multi-tenant isolation.
// Useful in a shared deployment where different users or documents need
// separate cache namespaces.
//
// Example usage:
//
//	// Per-document keys on the shared Redis backend
//	docKeyer := NewScopedKeyer(NewDefaultKeyer(), "doc:abc123:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// SolveKey generates a prefixed key for a cached solve result.
func (k *ScopedKeyer) SolveKey(opts SolveKeyOpts) string {
	return k.prefix + k.inner.SolveKey(opts)
}
