// Package store implements the quad store: pluggable storage backends,
// the four SPOC/POSC/OSPC/CSPO permutation indexes, and the pattern-scan
// iterator over them.
package store

import (
	"fmt"

	"github.com/quiverdb/quiver/quad"
)

// Ref is an opaque token a QuadStore or Dictionary implementation uses to
// identify a term without exposing its storage representation. Only the
// implementation that produced a Ref may dereference it.
type Ref interface {
	Key() interface{}
}

// Size reports the result size of an operation; Exact distinguishes a
// precise count from an estimate.
type Size struct {
	Value int64
	Exact bool
}

// Namer resolves between quad.Value terms and the Refs that identify them
// inside a particular store or dictionary.
type Namer interface {
	ValueOf(quad.Value) Ref
	NameOf(Ref) quad.Value
}

// BatchNamer is an optional optimization: implementations may resolve
// many values/refs at once more cheaply than one at a time.
type BatchNamer interface {
	ValuesOf(vals []quad.Value) []Ref
	RefsOf(refs []Ref) []quad.Value
}

// ErrUnknownRef is returned by NameOf when a Ref was not produced by the
// receiver (spec.md §7 "UnknownId").
var ErrUnknownRef = fmt.Errorf("store: unknown ref")

// IDRef is the concrete Ref used by every backend in this module: a dense,
// monotonically assigned uint64 term ID.
type IDRef uint64

func (r IDRef) Key() interface{} { return r }

func (r IDRef) String() string { return fmt.Sprintf("#%d", uint64(r)) }

// DefaultGraph is the reserved sentinel ID used for the context position
// of triples stored without an explicit named graph (spec.md §4.2 "Default
// graph matching uses a reserved sentinel context ID distinct from every
// IRI-interned ID").
const DefaultGraph IDRef = 0
