// Copyright 2014 The Cayley Authors. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package writer bridges term-level quad.Quad values and the ID-based
// store.QuadStore: it interns terms through a Dictionary, batches the
// resulting deltas, and applies them atomically (spec.md §6 "All-or-nothing
// per operation: collect the full change-set, then apply to the store
// atomically").
package writer

import (
	"context"
	"errors"

	"github.com/quiverdb/quiver/clog"
	"github.com/quiverdb/quiver/quad"
	"github.com/quiverdb/quiver/store"
)

var (
	ErrQuadExists   = errors.New("writer: quad exists")
	ErrQuadNotExist = errors.New("writer: quad does not exist")
)

// DeltaError records an error and the delta that caused it, grounded on
// the teacher's graph/quadwriter.go DeltaError.
type DeltaError struct {
	Delta Delta
	Err   error
}

func (e *DeltaError) Error() string {
	return DescribeAction(e.Delta.Action) + " " + e.Delta.Quad.String() + ": " + e.Err.Error()
}

func (e *DeltaError) Unwrap() error { return e.Err }

// IsQuadExist reports whether err is a DeltaError wrapping ErrQuadExists.
func IsQuadExist(err error) bool {
	var de *DeltaError
	return errors.Is(err, ErrQuadExists) || (errors.As(err, &de) && errors.Is(de.Err, ErrQuadExists))
}

// IsQuadNotExist reports whether err is a DeltaError wrapping ErrQuadNotExist.
func IsQuadNotExist(err error) bool {
	var de *DeltaError
	return errors.Is(err, ErrQuadNotExist) || (errors.As(err, &de) && errors.Is(de.Err, ErrQuadNotExist))
}

// Action mirrors store.Action at the term level (Add/Delete), since a
// Delta is formed before terms are interned.
type Action = store.Action

const (
	Add    = store.Add
	Delete = store.Delete
)

// Delta is one caller-facing change: an un-interned quad plus the action
// to take on it.
type Delta struct {
	Quad   quad.Quad
	Action Action
}

// DescribeAction renders a as "add" or "delete", for log messages.
func DescribeAction(a Action) string {
	if a == Add {
		return "add"
	}
	return "delete"
}

// IgnoreOpts controls how duplicate inserts and missing deletes are
// handled, grounded on the teacher's graph.IgnoreOpts.
type IgnoreOpts struct {
	IgnoreDup, IgnoreMissing bool
}

// Interner is the subset of dict.Dictionary the writer needs to turn a
// caller-facing quad.Quad into a store.QuadRef.
type Interner interface {
	Intern(quad.Value) store.IDRef
}

// Single is a single-replica quad writer: every delta is applied directly
// to one QuadStore, with no secondary replication log. Grounded on the
// teacher's writer/single.go Single, generalized from graph.QuadStore's
// quad.Quad-keyed API to store.QuadStore's interned QuadRef API.
type Single struct {
	qs         *store.QuadStore
	interner   Interner
	graph      store.IDRef
	ignoreOpts IgnoreOpts
}

// NewSingle builds a Single writer over qs, interning terms through
// interner and stamping every written quad with the given graph/context.
func NewSingle(qs *store.QuadStore, interner Interner, graph store.IDRef, opts IgnoreOpts) *Single {
	return &Single{qs: qs, interner: interner, graph: graph, ignoreOpts: opts}
}

func (s *Single) ref(q quad.Quad) store.QuadRef {
	c := s.graph
	if q.Label != nil {
		c = s.interner.Intern(q.Label)
	}
	return store.QuadRef{
		S: s.interner.Intern(q.Subject),
		P: s.interner.Intern(q.Predicate),
		O: s.interner.Intern(q.Object),
		C: c,
	}
}

// AddQuad interns and inserts q, honoring IgnoreDup.
func (s *Single) AddQuad(ctx context.Context, q quad.Quad) error {
	return s.apply(ctx, Delta{Quad: q, Action: Add})
}

// AddQuadSet interns and inserts every quad in set, atomically.
func (s *Single) AddQuadSet(ctx context.Context, set []quad.Quad) error {
	deltas := make([]Delta, len(set))
	for i, q := range set {
		deltas[i] = Delta{Quad: q, Action: Add}
	}
	return s.ApplyTransaction(ctx, deltas)
}

// RemoveQuad interns and deletes q, honoring IgnoreMissing.
func (s *Single) RemoveQuad(ctx context.Context, q quad.Quad) error {
	return s.apply(ctx, Delta{Quad: q, Action: Delete})
}

func (s *Single) apply(ctx context.Context, d Delta) error {
	ref := s.ref(d.Quad)
	exists, err := s.qs.Contains(ctx, ref)
	if err != nil {
		return err
	}
	if d.Action == Add && exists && !s.ignoreOpts.IgnoreDup {
		return &DeltaError{Delta: d, Err: ErrQuadExists}
	}
	if d.Action == Delete && !exists && !s.ignoreOpts.IgnoreMissing {
		return &DeltaError{Delta: d, Err: ErrQuadNotExist}
	}
	if err := s.qs.Batch(ctx, []store.Delta{{Quad: ref, Action: d.Action}}); err != nil {
		return err
	}
	clog.Infof("writer: applied %s %s", DescribeAction(d.Action), d.Quad)
	return nil
}

// RemoveNode removes every quad mentioning v in any position, ignoring
// missing quads (the node may already be partially dereferenced).
func (s *Single) RemoveNode(ctx context.Context, v quad.Value) error {
	id := s.interner.Intern(v)
	var deltas []store.Delta
	for _, pat := range []store.Pattern{
		{S: id, BoundS: true},
		{P: id, BoundP: true},
		{O: id, BoundO: true},
		{C: id, BoundC: true},
	} {
		it, err := s.qs.Match(ctx, pat)
		if err != nil {
			return err
		}
		for it.Next(ctx) {
			deltas = append(deltas, store.Delta{Quad: it.Result(), Action: Delete})
		}
		if err := it.Err(); err != nil {
			it.Close()
			return err
		}
		it.Close()
	}
	if len(deltas) == 0 {
		return nil
	}
	return s.qs.Batch(ctx, deltas)
}

// Close releases nothing locally; the underlying QuadStore outlives the
// writer and is closed by its owner.
func (s *Single) Close() error {
	return nil
}

// ApplyTransaction applies every delta atomically: either every quad in
// the set is written, or (on the first pre-check failure or backend
// error) none are, matching spec.md §6's all-or-nothing update contract.
func (s *Single) ApplyTransaction(ctx context.Context, deltas []Delta) error {
	refs := make([]store.Delta, 0, len(deltas))
	for _, d := range deltas {
		ref := s.ref(d.Quad)
		exists, err := s.qs.Contains(ctx, ref)
		if err != nil {
			return err
		}
		if d.Action == Add && exists && !s.ignoreOpts.IgnoreDup {
			return &DeltaError{Delta: d, Err: ErrQuadExists}
		}
		if d.Action == Delete && !exists && !s.ignoreOpts.IgnoreMissing {
			return &DeltaError{Delta: d, Err: ErrQuadNotExist}
		}
		refs = append(refs, store.Delta{Quad: ref, Action: d.Action})
	}
	if err := s.qs.Batch(ctx, refs); err != nil {
		return err
	}
	clog.Infof("writer: applied transaction of %d deltas", len(refs))
	return nil
}
